package clock

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func TestLocalNowUsesFixedOffset(t *testing.T) {
	instant := time.Date(2025, 12, 31, 17, 30, 0, 0, time.UTC)
	l := Local{now: func() time.Time { return instant }}

	now := l.Now()
	_, offset := now.Zone()
	assert.Equal(t, 7*3600, offset)
	assert.True(t, now.Equal(instant))
	// 17:30Z is already the next day at +07:00
	assert.Equal(t, civil.Date{Year: 2026, Month: time.January, Day: 1}, l.Today())
}

func TestLocalCustomOffset(t *testing.T) {
	instant := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	l := Local{OffsetHours: -5, now: func() time.Time { return instant }}

	assert.Equal(t, civil.Date{Year: 2025, Month: time.May, Day: 31}, l.Today())
}

func TestFixed(t *testing.T) {
	instant := time.Date(2024, 2, 29, 0, 0, 0, 0, Zone(7))
	assert.True(t, Fixed(instant).Now().Equal(instant))
}
