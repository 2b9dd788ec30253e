package domain

import "time"

// DayKeyLayout is the calendar-day string bookings are partitioned by.
const DayKeyLayout = "2006-01-02"

var timeSlots = []string{
	"08:00", "09:00", "10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00", "18:00", "19:00",
}

// TimeSlots returns the fixed daily slot labels. The returned slice is a
// copy; callers may reorder it freely.
func TimeSlots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}

func ValidSlot(slot string) bool {
	for _, s := range timeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// DayKey truncates t to day granularity in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}
