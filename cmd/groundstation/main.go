package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/kslhuy/GroundStation-Qcar-App/cmd/groundstation/app"
)

func main() {
	if err := app.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
