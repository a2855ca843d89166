package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"condor-sentinel/internal/backtest"
)

func newBacktestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay the entry rules over historical daily data",
		Example: `  condor backtest --history spx_2024.csv
  condor backtest --history spx_2024.csv --credit 3.0 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			historyPath, _ := cmd.Flags().GetString("history")
			credit, _ := cmd.Flags().GetFloat64("credit")

			if historyPath == "" {
				output.Error("--history is required")
				return fmt.Errorf("missing --history")
			}
			if credit == 0 {
				credit = app.Config.Thresholds.CreditReceived
			}

			snapshots, err := backtest.LoadHistoryCSV(historyPath)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			sim := backtest.NewSimulator(app.Config.Thresholds)
			report, err := sim.Run(snapshots, credit)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}

			output.Bold("Backtest %s to %s", report.StartDate, report.EndDate)
			output.Println()
			output.Printf("  Sessions:      %d\n", report.TotalDays)
			output.Printf("  Traded:        %d\n", report.TradedDays)
			output.Printf("  Wins/Losses:   %d/%d (%.1f%%)\n", report.Wins, report.Losses, report.WinRate)
			output.Printf("  Total P&L:     %s\n", output.PnL(report.TotalPnL))
			output.Printf("  Avg P&L:       %s\n", output.PnL(report.AvgPnL))
			output.Printf("  Max drawdown:  %.2f\n", report.MaxDrawdown)
			output.Printf("  Best day:      %s\n", output.PnL(report.BestDay))
			output.Printf("  Worst day:     %s\n", output.PnL(report.WorstDay))
			return nil
		},
	}

	cmd.Flags().String("history", "", "CSV file with daily history rows")
	cmd.Flags().Float64("credit", 0, "Credit received per structure (defaults to config)")
	return cmd
}
