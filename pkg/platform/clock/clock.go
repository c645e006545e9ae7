// Package clock provides the fixed-offset local time used for lifecycle
// decisions and run timestamps.
package clock

import (
	"time"

	"cloud.google.com/go/civil"
)

// DefaultOffsetHours is the UTC offset of the HR system (Asia/Bangkok, no DST).
const DefaultOffsetHours = 7

// Clock yields the current instant.
type Clock interface {
	Now() time.Time
}

// Local reports time in a fixed UTC offset. The zero value uses DefaultOffsetHours.
type Local struct {
	OffsetHours int
	// set only in tests
	now func() time.Time
}

// NewLocal returns a clock pinned to offsetHours east of UTC.
func NewLocal(offsetHours int) Local {
	return Local{OffsetHours: offsetHours}
}

// Now returns the current instant expressed in the fixed offset zone.
func (l Local) Now() time.Time {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	return now().In(Zone(l.offset()))
}

// Today is the calendar date at the fixed offset.
func (l Local) Today() civil.Date {
	return civil.DateOf(l.Now())
}

func (l Local) offset() int {
	if l.OffsetHours == 0 {
		return DefaultOffsetHours
	}
	return l.OffsetHours
}

// NowLocal returns the current instant at UTC+7.
func NowLocal() time.Time {
	return Local{}.Now()
}

// Zone is a fixed zone offsetHours east of UTC.
func Zone(offsetHours int) *time.Location {
	return time.FixedZone("", offsetHours*60*60)
}

// Fixed is a Clock frozen at a single instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
