package condor

import "condor-sentinel/internal/models"

// Settle computes the settlement P&L of an iron condor sold for credit.
//
// Settlement between the short strikes retains the full credit. At or
// beyond a long strike the position takes its maximum loss,
// -(wing-credit)*multiplier. Inside a wing the loss grows linearly with
// penetration distance, from 0 at the short strike to the maximum loss at
// the long strike. The result is monotonic non-increasing in distance
// from the profitable zone.
//
// Settle is total over well-formed strikes; it never fails.
func Settle(strikes models.Strikes, credit, settlementPrice, pointMultiplier float64) float64 {
	wing := strikes.WingWidth()
	maxLoss := -(wing - credit) * pointMultiplier

	switch {
	case settlementPrice >= strikes.ShortPut && settlementPrice <= strikes.ShortCall:
		return credit * pointMultiplier
	case settlementPrice <= strikes.LongPut || settlementPrice >= strikes.LongCall:
		return maxLoss
	}

	// Settlement landed inside a wing.
	var penetration float64
	if settlementPrice > strikes.ShortCall {
		penetration = settlementPrice - strikes.ShortCall
	} else {
		penetration = strikes.ShortPut - settlementPrice
	}
	return penetration / wing * maxLoss
}

// MaxLoss returns the worst-case P&L of a structure.
func MaxLoss(wingWidth, credit, pointMultiplier float64) float64 {
	return -(wingWidth - credit) * pointMultiplier
}

// MaxProfit returns the best-case P&L of a structure.
func MaxProfit(credit, pointMultiplier float64) float64 {
	return credit * pointMultiplier
}
