package redisx

import "fmt"

const ns = "campusport:v1"

func KeyHallList() string {
	return ns + ":halls:list"
}

func KeyDayGrid(dateStr string) string {
	return fmt.Sprintf("%s:bookings:day:%s", ns, dateStr)
}

// KeyRateLimit is a prefix; the limiter appends the caller identity.
func KeyRateLimit(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func ChannelBookingsChanged() string {
	return ns + ":bookings:changed"
}
