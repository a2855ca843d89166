package utils

import "time"

// MarketLocation is the timezone of the underlying index session.
var MarketLocation *time.Location

func init() {
	var err error
	MarketLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to UTC-5
		MarketLocation = time.FixedZone("ET", -5*60*60)
	}
}

// SessionStatus represents where the clock sits relative to the regular
// trading session.
type SessionStatus string

const (
	SessionClosed  SessionStatus = "CLOSED"
	SessionPreOpen SessionStatus = "PRE_OPEN"
	SessionOpen    SessionStatus = "OPEN"
)

// MarketStatusAt returns the session status at the given instant.
// Regular session is 09:30-16:00 local, weekdays only; the half hour
// before the open counts as pre-open.
func MarketStatusAt(t time.Time) SessionStatus {
	local := t.In(MarketLocation)

	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return SessionClosed
	}

	minutes := local.Hour()*60 + local.Minute()
	switch {
	case minutes >= 540 && minutes < 570: // 09:00 - 09:30
		return SessionPreOpen
	case minutes >= 570 && minutes < 960: // 09:30 - 16:00
		return SessionOpen
	default:
		return SessionClosed
	}
}

// IsMarketOpen reports whether the regular session is open right now.
func IsMarketOpen() bool {
	return MarketStatusAt(time.Now()) == SessionOpen
}
