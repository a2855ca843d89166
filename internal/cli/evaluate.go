package cli

import (
	"context"

	"github.com/spf13/cobra"

	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/logging"
	"condor-sentinel/internal/models"
	"condor-sentinel/internal/rules"
)

func newEvaluateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "One-shot GO/NO-GO evaluation of current conditions",
		Example: `  condor evaluate
  condor evaluate --extended=false
  condor evaluate --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			extended, _ := cmd.Flags().GetBool("extended")

			ctx, cancel := context.WithTimeout(context.Background(), app.Config.Monitor.FetchTimeout)
			defer cancel()

			snap, err := app.Provider.Snapshot(ctx)
			if err != nil {
				output.Error("market data unavailable: %v", err)
				return err
			}

			engine := rules.NewEngine(app.Config.Thresholds)
			verdict, err := engine.Evaluate(snap, extended)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrDataUnavailable) {
					output.Error("market data unavailable: %v", err)
				} else {
					output.Error("%v", err)
				}
				return err
			}
			logging.LogVerdict(app.Logger, verdict)

			if output.IsJSON() {
				return output.JSON(verdict)
			}

			printVerdict(output, verdict)
			return nil
		},
	}

	cmd.Flags().Bool("extended", true, "Include moving-average and previous-day-range rules")
	return cmd
}

func printVerdict(output *Output, v models.Verdict) {
	output.Bold("Verdict: %s  (%s)", output.StatusString(string(v.Overall)), v.Timestamp.Format("2006-01-02 15:04:05"))
	output.Println()
	for _, r := range v.Rules {
		output.Printf("  %-20s %-15s %s\n", r.ID, output.StatusString(string(r.Status)), r.Message)
	}
	if v.Strikes != nil {
		output.Println()
		output.Bold("Strikes")
		output.Printf("  short call %.2f / long call %.2f\n", v.Strikes.ShortCall, v.Strikes.LongCall)
		output.Printf("  short put  %.2f / long put  %.2f\n", v.Strikes.ShortPut, v.Strikes.LongPut)
	}
}
