package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kslhuy/GroundStation-Qcar-App/cmd/groundstation/app/options"
	"github.com/kslhuy/GroundStation-Qcar-App/pkg/log"
)

const commandDesc = `The ground station daemon holds the control channel to the QCar fleet,
maintains the live per-vehicle snapshot and serves the local dashboard API.`

// NewCommand builds the groundstation root command.
func NewCommand() *cobra.Command {
	opts := options.NewStationOptions()
	var configFile string

	cmd := &cobra.Command{
		Use:           "groundstation",
		Short:         "Launch the QCar fleet ground station",
		Long:          commandDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				if err := loadConfigFile(configFile, opts); err != nil {
					return err
				}
			}

			if err := opts.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log.Init(opts.Log)

			st, err := opts.Config().NewStation(log.Std())
			if err != nil {
				return fmt.Errorf("failed to create station: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := st.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("ground station shut down")
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML/TOML/JSON config file. Flags override file values.")
	opts.AddFlags(cmd.Flags())

	cmd.AddCommand(newStatusCommand())

	return cmd
}

// loadConfigFile fills opts from the given file. File values take
// precedence over flags for the fields the file sets.
func loadConfigFile(path string, opts *options.StationOptions) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}
