package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidSlot(t *testing.T) {
	assert.True(t, ValidSlot("08:00"))
	assert.True(t, ValidSlot("19:00"))
	assert.False(t, ValidSlot("20:00"))
	assert.False(t, ValidSlot("8:00"))
	assert.False(t, ValidSlot(""))
}

func TestTimeSlots_ReturnsCopy(t *testing.T) {
	a := TimeSlots()
	a[0] = "mutated"

	assert.Equal(t, "08:00", TimeSlots()[0])
	assert.Len(t, TimeSlots(), 12)
}

func TestDayKey_UTC(t *testing.T) {
	// 02:30 in UTC+5 is still the previous day in UTC.
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := time.Date(2026, 3, 1, 2, 30, 0, 0, loc)

	assert.Equal(t, "2026-02-28", DayKey(ts))
	assert.Equal(t, "2026-03-01", DayKey(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}
