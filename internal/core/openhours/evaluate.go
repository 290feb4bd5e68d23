// Package openhours answers "is this place open, and when does that change"
// for a weekly opening-hours table. Every function is pure: the caller passes
// the instant to evaluate, nothing here reads the system clock.
package openhours

import (
	"sort"
	"time"

	"github.com/wanderly/wanderly/internal/core/domain"
)

// span is an interval in minutes since midnight, [start, end).
type span struct {
	start, end int
}

// week holds merged spans for ISO weekdays 1..7; index 0 is unused.
type week [8][]span

// Evaluate reports the open/closed state of weekly at now. The weekday and
// wall-clock time are taken from now in its own location, so callers convert
// to the place's time zone first.
func Evaluate(weekly domain.WeeklyHours, now time.Time) domain.Evaluation {
	return EvaluateAt(weekly, domain.ISOWeekday(now), domain.WallClockOf(now))
}

// EvaluateAt is Evaluate for an explicit ISO weekday and wall-clock time.
func EvaluateAt(weekly domain.WeeklyHours, weekday int, at domain.WallClock) domain.Evaluation {
	if len(weekly) == 0 || weekday < 1 || weekday > 7 || !at.Valid() {
		return domain.Evaluation{}
	}

	w := buildWeek(weekly)
	t := at.MinuteOfDay()

	// Spans are merged, so at most one contains t and its end is the latest
	// end of every raw interval containing t.
	for _, s := range w[weekday] {
		if s.start <= t && t < s.end {
			return domain.Evaluation{
				IsOpen: true,
				Next:   &domain.Transition{Kind: domain.TransitionCloses, Time: clockAt(s.end), DayOffset: 0},
			}
		}
	}

	for _, s := range w[weekday] {
		if s.start > t {
			return domain.Evaluation{
				Next: &domain.Transition{Kind: domain.TransitionOpens, Time: clockAt(s.start), DayOffset: 0},
			}
		}
	}

	for offset := 1; offset <= 7; offset++ {
		day := w[domain.ShiftWeekday(weekday, offset)]
		if len(day) > 0 {
			return domain.Evaluation{
				Next: &domain.Transition{Kind: domain.TransitionOpens, Time: clockAt(day[0].start), DayOffset: offset},
			}
		}
	}

	return domain.Evaluation{}
}

// Normalize returns the canonical form of weekly: one entry per weekday that
// appears, ordered Monday..Sunday, intervals sorted with overlapping or
// touching intervals merged, malformed intervals and weekdays dropped.
// A day is Closed exactly when it has no intervals left.
func Normalize(weekly domain.WeeklyHours) domain.WeeklyHours {
	seen := [8]bool{}
	for _, d := range weekly {
		if d.Weekday >= 1 && d.Weekday <= 7 {
			seen[d.Weekday] = true
		}
	}

	w := buildWeek(weekly)
	out := make(domain.WeeklyHours, 0, 7)
	for wd := 1; wd <= 7; wd++ {
		if !seen[wd] {
			continue
		}
		day := domain.DailyHours{Weekday: wd, Closed: len(w[wd]) == 0}
		for _, s := range w[wd] {
			day.Intervals = append(day.Intervals, domain.HoursInterval{Start: clockAt(s.start), End: clockAt(s.end)})
		}
		out = append(out, day)
	}
	return out
}

// SplitOvernight turns an opening span that may run past midnight into
// same-day entries. 22:00-02:00 on Friday becomes Friday 22:00-24:00 and
// Saturday 00:00-02:00. start == end is read as a full 24 hours.
func SplitOvernight(weekday int, start, end domain.WallClock) []domain.DailyHours {
	if start.Before(end) {
		return []domain.DailyHours{{
			Weekday:   weekday,
			Intervals: []domain.HoursInterval{{Start: start, End: end}},
		}}
	}

	var out []domain.DailyHours
	if !start.IsEndOfDay() {
		out = append(out, domain.DailyHours{
			Weekday:   weekday,
			Intervals: []domain.HoursInterval{{Start: start, End: domain.Clock(24, 0)}},
		})
	}
	if end.MinuteOfDay() > 0 && !end.IsEndOfDay() {
		out = append(out, domain.DailyHours{
			Weekday:   domain.ShiftWeekday(weekday, 1),
			Intervals: []domain.HoursInterval{{Start: domain.Clock(0, 0), End: end}},
		})
	}
	return out
}

// buildWeek collects valid intervals per weekday and merges each day into a
// sorted union. The Closed flag is informational: a day's intervals decide.
func buildWeek(weekly domain.WeeklyHours) week {
	var w week
	for _, d := range weekly {
		if d.Weekday < 1 || d.Weekday > 7 {
			continue
		}
		for _, iv := range d.Intervals {
			if !iv.Valid() {
				continue
			}
			w[d.Weekday] = append(w[d.Weekday], span{start: iv.Start.MinuteOfDay(), end: iv.End.MinuteOfDay()})
		}
	}
	for wd := 1; wd <= 7; wd++ {
		w[wd] = merge(w[wd])
	}
	return w
}

func merge(spans []span) []span {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start == spans[j].start {
			return spans[i].end < spans[j].end
		}
		return spans[i].start < spans[j].start
	})

	out := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func clockAt(minute int) domain.WallClock {
	return domain.Clock(minute/60, minute%60)
}
