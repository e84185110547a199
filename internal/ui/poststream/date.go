package poststream

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// relativeDate formats t the way the post header shows it: short relative
// units for the last month, a calendar date after that.
func relativeDate(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < day:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 30*day:
		return fmt.Sprintf("%dd", int(d/day))
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan '06")
	}
}
