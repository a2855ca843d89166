package backtest

import (
	"os"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/models"
)

// historyRow is one daily record in a history CSV file.
type historyRow struct {
	Date     string  `csv:"date"`
	Open     float64 `csv:"open"`
	Close    float64 `csv:"close"`
	VIX      float64 `csv:"vix"`
	MA20     float64 `csv:"ma20"`
	PrevHigh float64 `csv:"prev_high"`
	PrevLow  float64 `csv:"prev_low"`
}

// LoadHistoryCSV reads daily history rows from a CSV file and converts
// them into market snapshots ordered as they appear in the file. The
// close price is carried in SpotCurrent; snapshots have no calendar data.
func LoadHistoryCSV(path string) ([]models.MarketSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDataError("history", "opening history file", err)
	}
	defer f.Close()

	var rows []*historyRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, apperrors.NewDataError("history", "parsing history file", err)
	}

	snapshots := make([]models.MarketSnapshot, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, apperrors.NewDataError("history", "parsing date "+row.Date, err)
		}
		snapshots = append(snapshots, models.MarketSnapshot{
			Timestamp:       ts,
			SpotOpen:        row.Open,
			SpotCurrent:     row.Close,
			VolatilityIndex: row.VIX,
			MA20:            row.MA20,
			PrevDayHigh:     row.PrevHigh,
			PrevDayLow:      row.PrevLow,
		})
	}
	return snapshots, nil
}
