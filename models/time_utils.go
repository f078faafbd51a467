package models

import "time"

// Supported resolutions
const (
	Resolution5m  = "5m"
	Resolution15m = "15m"
	Resolution1h  = "1h"
	Resolution4h  = "4h"
	Resolution1d  = "1d"
)

var resolutionDurations = map[string]time.Duration{
	"1m":          time.Minute,
	Resolution5m:  5 * time.Minute,
	Resolution15m: 15 * time.Minute,
	"30m":         30 * time.Minute,
	Resolution1h:  time.Hour,
	"2h":          2 * time.Hour,
	Resolution4h:  4 * time.Hour,
	Resolution1d:  24 * time.Hour,
	"1w":          7 * 24 * time.Hour,
}

// ResolutionDuration returns the bar length of a resolution
func ResolutionDuration(resolution string) (time.Duration, bool) {
	d, ok := resolutionDurations[resolution]
	return d, ok
}

// CandlesForDays estimates how many bars of a resolution cover the given number of days,
// plus a 10% buffer. Unknown resolutions yield 0.
func CandlesForDays(resolution string, days int) int {
	d, ok := resolutionDurations[resolution]
	if !ok || days <= 0 {
		return 0
	}
	perDay := float64(24*time.Hour) / float64(d)
	n := int(perDay * float64(days) * 1.1)
	if n < 1 {
		n = 1
	}
	return n
}

// sessionOffset is the fixed UTC+1 clock the session table is expressed in
var sessionOffset = time.FixedZone("UTC+1", 60*60)

// TradingSession names the forex session active at t, evaluated on a UTC+1 clock
func TradingSession(t time.Time) string {
	hour := t.In(sessionOffset).Hour()
	switch {
	case hour < 8:
		return "Asian Session"
	case hour < 12:
		return "London Open"
	case hour < 16:
		return "NY + London Overlap"
	case hour < 21:
		return "New York"
	default:
		return "Quiet Hours"
	}
}
