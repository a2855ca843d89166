// Package condor provides the iron condor structure math: strike
// selection and settlement economics. Everything here is a pure function.
package condor

import (
	"math"

	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/models"
)

// ComputeStrikes derives the four legs of an iron condor from the spot
// price. Short strikes sit otmPercent away from spot and snap down to the
// strike grid; long strikes sit wingWidth points beyond their shorts.
func ComputeStrikes(spot, otmPercent, wingWidth, roundingUnit float64) (models.Strikes, error) {
	if wingWidth <= 0 {
		return models.Strikes{}, apperrors.NewValidationError("wing_width", wingWidth, "must be positive")
	}
	if otmPercent < 0 {
		return models.Strikes{}, apperrors.NewValidationError("otm_percent", otmPercent, "must be non-negative")
	}
	if roundingUnit <= 0 {
		return models.Strikes{}, apperrors.NewValidationError("strike_rounding_unit", roundingUnit, "must be positive")
	}
	if spot <= 0 {
		return models.Strikes{}, apperrors.NewDataError("spot", "must be positive", nil)
	}

	shortCall := snapToGrid(spot*(1+otmPercent/100), roundingUnit)
	shortPut := snapToGrid(spot*(1-otmPercent/100), roundingUnit)

	return models.Strikes{
		ShortCall: shortCall,
		ShortPut:  shortPut,
		LongCall:  shortCall + wingWidth,
		LongPut:   shortPut - wingWidth,
	}, nil
}

// snapToGrid truncates a price onto the strike grid.
func snapToGrid(price, unit float64) float64 {
	return math.Trunc(price/unit) * unit
}
