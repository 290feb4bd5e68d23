package openhours

import (
	"fmt"
	"time"

	"github.com/wanderly/wanderly/internal/core/domain"
)

// DefaultSoonWindow is how close a closing time must be to count as "soon".
const DefaultSoonWindow = time.Hour

// ClosingSoon reports whether an open evaluation closes today within window of at.
func ClosingSoon(ev domain.Evaluation, at domain.WallClock, window time.Duration) bool {
	if !ev.IsOpen || ev.Next == nil || ev.Next.Kind != domain.TransitionCloses || ev.Next.DayOffset != 0 {
		return false
	}
	if window <= 0 {
		return false
	}
	left := ev.Next.Time.MinuteOfDay() - at.MinuteOfDay()
	return left >= 0 && time.Duration(left)*time.Minute <= window
}

// Describe renders the short status line shown on a place card, e.g.
// "Open · Closes 17:00" or "Closed · Opens tomorrow 10:00".
func Describe(ev domain.Evaluation, now time.Time, soonWindow time.Duration) string {
	if ev.Next == nil {
		if ev.IsOpen {
			return "Open"
		}
		return "Closed"
	}

	at := clockLabel(ev.Next.Time)
	if ev.IsOpen {
		if ClosingSoon(ev, domain.WallClockOf(now), soonWindow) {
			return "Closes soon · " + at
		}
		return "Open · Closes " + at
	}

	switch offset := ev.Next.DayOffset; {
	case offset == 0:
		return "Closed · Opens " + at
	case offset == 1:
		return "Closed · Opens tomorrow " + at
	case offset >= 7:
		day := domain.WeekdayName(domain.ShiftWeekday(domain.ISOWeekday(now), offset))
		return fmt.Sprintf("Closed · Opens next %s %s", day, at)
	default:
		day := domain.WeekdayName(domain.ShiftWeekday(domain.ISOWeekday(now), offset))
		return fmt.Sprintf("Closed · Opens %s %s", day, at)
	}
}

func clockLabel(w domain.WallClock) string {
	if w.IsEndOfDay() {
		return "midnight"
	}
	return w.String()
}
