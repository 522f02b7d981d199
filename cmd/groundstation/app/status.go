package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kslhuy/GroundStation-Qcar-App/internal/fleet"
	"github.com/kslhuy/GroundStation-Qcar-App/internal/server"
)

// newStatusCommand builds the "status" subcommand: a one-shot fleet table
// fetched from a running daemon's HTTP API.
func newStatusCommand() *cobra.Command {
	addr := "127.0.0.1:9090"

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the fleet table from a running ground station",
		RunE: func(_ *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: 5 * time.Second}

			var conn server.ConnectionInfo
			if err := getJSON(client, "http://"+addr+"/api/v1/connection", &conn); err != nil {
				return fmt.Errorf("is the ground station running on %s? %w", addr, err)
			}

			var vehicles []fleet.Vehicle
			if err := getJSON(client, "http://"+addr+"/api/v1/vehicles", &vehicles); err != nil {
				return err
			}

			fmt.Printf("channel: %s (%s, %d reconnect attempts)\n\n", conn.Status, conn.URL, conn.Attempts)

			table := uitable.New()
			table.MaxColWidth = 40
			table.AddRow("ID", "NAME", "STATUS", "X", "Y", "V", "BATTERY", "STATE", "UPDATED")
			for _, v := range vehicles {
				t := v.Telemetry
				updated := "never"
				if !t.UpdatedAt.IsZero() {
					updated = time.Since(t.UpdatedAt).Round(time.Second).String() + " ago"
				}
				table.AddRow(v.ID, v.DisplayName, string(v.Status),
					fmt.Sprintf("%.2f", t.X), fmt.Sprintf("%.2f", t.Y),
					fmt.Sprintf("%.2f", t.Velocity), fmt.Sprintf("%.0f%%", t.Battery),
					t.RawState, updated)
			}
			fmt.Println(table)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", addr, "Address of the running ground station's HTTP API.")
	return cmd
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
