package cli

import (
	"context"

	"github.com/spf13/cobra"

	"condor-sentinel/internal/ledger"
	"condor-sentinel/internal/models"
)

func newPortfolioCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show the shadow portfolios and the filter edge",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			book, err := ledger.New(context.Background(), app.Repo,
				app.Config.Thresholds.PointMultiplier, app.Logger)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			names := []models.PortfolioName{models.PortfolioAlwaysTrade, models.PortfolioFiltered}
			if output.IsJSON() {
				result := map[string]interface{}{"filter_edge": book.FilterEdge()}
				for _, name := range names {
					state, err := book.Portfolio(name)
					if err != nil {
						return err
					}
					result[string(name)] = state
				}
				return output.JSON(result)
			}

			for _, name := range names {
				state, err := book.Portfolio(name)
				if err != nil {
					output.Error("%v", err)
					return err
				}
				output.Bold("%s", name)
				output.Printf("  Trades:         %d\n", len(state.Trades))
				output.Printf("  Wins/Losses:    %d/%d\n", state.Wins, state.Losses)
				output.Printf("  Cumulative P&L: %s\n", output.PnL(state.CumulativePnL))
				output.Println()
			}
			output.Bold("Filter edge: %s", output.PnL(book.FilterEdge()))
			return nil
		},
	}
	return cmd
}
