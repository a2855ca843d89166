package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"condor-sentinel/internal/ledger"
	"condor-sentinel/internal/monitor"
	"condor-sentinel/internal/notify"
	"condor-sentinel/pkg/utils"
)

func newMonitorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the monitor daemon until interrupted",
		Example: `  condor monitor
  condor monitor --interval 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			interval, _ := cmd.Flags().GetDuration("interval")
			if interval == 0 {
				interval = app.Config.Monitor.Interval
			}

			book, err := ledger.New(context.Background(), app.Repo,
				app.Config.Thresholds.PointMultiplier, app.Logger)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			notifier := notify.NewMultiNotifier(app.Config.Notifications)
			alerts := monitor.NewAlertManager(notifier, app.Config.Monitor.AlertCooldown, app.Logger)
			daemon := monitor.New(app.Config.Monitor, app.Config.Thresholds,
				app.Provider, alerts, book, app.Logger)

			if err := daemon.Start(interval); err != nil {
				output.Error("%v", err)
				return err
			}

			if !utils.IsMarketOpen() {
				output.Printf("Note: regular session is %s right now\n",
					utils.MarketStatusAt(time.Now()))
			}
			output.Bold("Monitoring every %s, Ctrl-C to stop", interval)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			if err := daemon.Stop(); err != nil {
				output.Error("%v", err)
				return err
			}

			state := daemon.State()
			if output.IsJSON() {
				return output.JSON(state)
			}

			output.Println()
			output.Bold("Monitor summary")
			output.Printf("  Checks:        %d\n", state.Checks)
			output.Printf("  State changes: %d\n", state.StateChanges)
			output.Printf("  Errors:        %d\n", state.Errors)
			if state.LastVerdict != nil {
				output.Printf("  Last verdict:  %s at %s\n",
					output.StatusString(string(state.LastVerdict.Overall)),
					state.LastVerdict.Timestamp.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().Duration("interval", 0, "Polling interval (defaults to config)")
	return cmd
}
