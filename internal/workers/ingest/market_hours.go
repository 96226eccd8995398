package ingest

import (
	"time"

	"oitracker/pkg/errors"
)

// MarketHours is a daily trading window in the exchange's time zone.
// Both ends are inclusive.
type MarketHours struct {
	Location *time.Location
	Open     time.Duration // offset from local midnight
	Close    time.Duration
}

// ParseMarketHours reads "HH:MM" bounds in the named zone
func ParseMarketHours(tz, open, close string) (MarketHours, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return MarketHours{}, errors.NewValidationError("MARKET_TIMEZONE", err.Error(), tz)
	}
	o, err := clockOffset(open)
	if err != nil {
		return MarketHours{}, errors.NewValidationError("MARKET_OPEN", "expected HH:MM", open)
	}
	c, err := clockOffset(close)
	if err != nil {
		return MarketHours{}, errors.NewValidationError("MARKET_CLOSE", "expected HH:MM", close)
	}
	if c < o {
		return MarketHours{}, errors.NewValidationError("MARKET_CLOSE", "must not be before MARKET_OPEN", close)
	}
	return MarketHours{Location: loc, Open: o, Close: c}, nil
}

func clockOffset(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Contains reports whether t falls inside the window on its local day.
// Weekends and exchange holidays are not excluded.
func (m MarketHours) Contains(t time.Time) bool {
	loc := m.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, mo, d := local.Date()
	midnight := time.Date(y, mo, d, 0, 0, 0, 0, loc)
	offset := local.Sub(midnight)
	return offset >= m.Open && offset <= m.Close
}
