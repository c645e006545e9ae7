// Package filetime converts calendar dates to and from the directory's
// accountExpires encoding: 100-nanosecond ticks since 1601-01-01T00:00:00Z.
package filetime

import (
	"math"
	"time"

	"cloud.google.com/go/civil"
)

const (
	// TicksPerSecond is the number of 100ns intervals in one second.
	TicksPerSecond = 10_000_000

	// Never is the sentinel written for accounts that do not expire.
	Never int64 = 0

	// NeverMax is the alternate "never" value some directories report.
	NeverMax int64 = math.MaxInt64

	// epochUnix is 1601-01-01T00:00:00Z in Unix seconds.
	epochUnix int64 = -11_644_473_600
)

// Epoch is the start of the tick count.
var Epoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// EncodeExpiry converts a local wall-clock time on date, observed at
// offsetHours east of UTC, into directory ticks. Leap seconds are ignored.
func EncodeExpiry(date civil.Date, hour, minute, second, offsetHours int) int64 {
	local := time.Date(date.Year, date.Month, date.Day, hour, minute, second, 0, time.UTC)
	utc := local.Add(-time.Duration(offsetHours) * time.Hour)
	return FromTime(utc)
}

// FromTime converts an instant into directory ticks.
func FromTime(t time.Time) int64 {
	secs := t.Unix() - epochUnix
	return secs*TicksPerSecond + int64(t.Nanosecond())/100
}

// Decode converts ticks back into a UTC instant. It reports false for the
// "never expires" sentinels.
func Decode(ticks int64) (time.Time, bool) {
	if ticks == Never || ticks == NeverMax {
		return time.Time{}, false
	}
	secs := ticks / TicksPerSecond
	rem := ticks % TicksPerSecond
	return time.Unix(secs+epochUnix, rem*100).UTC(), true
}

// DecodeDate returns the local calendar date at offsetHours for ticks.
func DecodeDate(ticks int64, offsetHours int) (civil.Date, bool) {
	t, ok := Decode(ticks)
	if !ok {
		return civil.Date{}, false
	}
	return civil.DateOf(t.In(time.FixedZone("", offsetHours*3600))), true
}
