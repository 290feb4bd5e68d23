package openhours_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/openhours"
)

func iv(sh, sm, eh, em int) domain.HoursInterval {
	return domain.HoursInterval{Start: domain.Clock(sh, sm), End: domain.Clock(eh, em)}
}

func weekdays(start, end domain.WallClock) domain.WeeklyHours {
	var w domain.WeeklyHours
	for wd := 1; wd <= 5; wd++ {
		w = append(w, domain.DailyHours{Weekday: wd, Intervals: []domain.HoursInterval{{Start: start, End: end}}})
	}
	return w
}

// 2024-01-01 was a Monday.
func monday(h, m int) time.Time {
	return time.Date(2024, 1, 1, h, m, 0, 0, time.UTC)
}

func TestEvaluate_EmptyScheduleIsClosed(t *testing.T) {
	for _, now := range []time.Time{monday(0, 0), monday(12, 30), monday(23, 59).AddDate(0, 0, 5)} {
		ev := openhours.Evaluate(nil, now)
		assert.False(t, ev.IsOpen)
		assert.Nil(t, ev.Next)

		ev = openhours.Evaluate(domain.WeeklyHours{}, now)
		assert.Equal(t, domain.Evaluation{}, ev)
	}
}

func TestEvaluate_HalfOpenBoundaries(t *testing.T) {
	weekly := domain.WeeklyHours{{Weekday: 1, Intervals: []domain.HoursInterval{iv(9, 0, 17, 0)}}}

	ev := openhours.Evaluate(weekly, monday(9, 0))
	require.True(t, ev.IsOpen)
	require.NotNil(t, ev.Next)
	assert.Equal(t, domain.Transition{Kind: domain.TransitionCloses, Time: domain.Clock(17, 0), DayOffset: 0}, *ev.Next)

	ev = openhours.Evaluate(weekly, monday(17, 0))
	assert.False(t, ev.IsOpen)
	require.NotNil(t, ev.Next)
	// Monday is the only open day, so the next opening is a week away.
	assert.Equal(t, domain.Transition{Kind: domain.TransitionOpens, Time: domain.Clock(9, 0), DayOffset: 7}, *ev.Next)

	ev = openhours.Evaluate(weekly, monday(8, 59))
	assert.False(t, ev.IsOpen)
	assert.Equal(t, domain.Transition{Kind: domain.TransitionOpens, Time: domain.Clock(9, 0), DayOffset: 0}, *ev.Next)
}

func TestEvaluate_NextOpeningWrapsTheWeek(t *testing.T) {
	weekly := domain.WeeklyHours{
		{Weekday: 1, Closed: true},
		{Weekday: 5, Intervals: []domain.HoursInterval{iv(10, 0, 12, 0)}},
		{Weekday: 6, Closed: true},
	}
	saturday := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	ev := openhours.Evaluate(weekly, saturday)
	assert.False(t, ev.IsOpen)
	require.NotNil(t, ev.Next)
	assert.Equal(t, domain.Transition{Kind: domain.TransitionOpens, Time: domain.Clock(10, 0), DayOffset: 6}, *ev.Next)
}

func TestEvaluate_LaterOpeningToday(t *testing.T) {
	weekly := domain.WeeklyHours{{Weekday: 1, Intervals: []domain.HoursInterval{
		iv(18, 0, 22, 0),
		iv(8, 0, 11, 0),
		iv(12, 0, 15, 0),
	}}}

	ev := openhours.Evaluate(weekly, monday(11, 30))
	assert.False(t, ev.IsOpen)
	assert.Equal(t, domain.Transition{Kind: domain.TransitionOpens, Time: domain.Clock(12, 0), DayOffset: 0}, *ev.Next)

	ev = openhours.Evaluate(weekly, monday(15, 0))
	assert.Equal(t, domain.Transition{Kind: domain.TransitionOpens, Time: domain.Clock(18, 0), DayOffset: 0}, *ev.Next)
}

func TestEvaluate_OverlappingIntervalsPickLatestEnd(t *testing.T) {
	weekly := domain.WeeklyHours{{Weekday: 1, Intervals: []domain.HoursInterval{
		iv(10, 0, 15, 0),
		iv(9, 0, 17, 0),
	}}}

	ev := openhours.Evaluate(weekly, monday(12, 0))
	require.True(t, ev.IsOpen)
	assert.Equal(t, domain.Clock(17, 0), ev.Next.Time)
}

func TestEvaluate_ChainedOverlapsAreOneOpenSpan(t *testing.T) {
	weekly := domain.WeeklyHours{{Weekday: 1, Intervals: []domain.HoursInterval{
		iv(9, 0, 12, 0),
		iv(11, 0, 14, 0),
	}}}

	ev := openhours.Evaluate(weekly, monday(13, 0))
	require.True(t, ev.IsOpen)
	assert.Equal(t, domain.Clock(14, 0), ev.Next.Time)

	ev = openhours.Evaluate(weekly, monday(10, 0))
	require.True(t, ev.IsOpen)
	assert.Equal(t, domain.Clock(14, 0), ev.Next.Time)
}

func TestEvaluate_IgnoresMalformedInput(t *testing.T) {
	weekly := domain.WeeklyHours{
		{Weekday: 0, Intervals: []domain.HoursInterval{iv(0, 0, 23, 0)}},
		{Weekday: 9, Intervals: []domain.HoursInterval{iv(0, 0, 23, 0)}},
		{Weekday: 1, Intervals: []domain.HoursInterval{
			iv(17, 0, 9, 0),  // reversed
			iv(10, 0, 10, 0), // empty
			iv(25, 0, 26, 0), // out of range
		}},
		{Weekday: 2, Intervals: []domain.HoursInterval{iv(9, 0, 17, 0)}},
	}

	assert.NotPanics(t, func() {
		ev := openhours.Evaluate(weekly, monday(12, 0))
		assert.False(t, ev.IsOpen)
		require.NotNil(t, ev.Next)
		assert.Equal(t, domain.Transition{Kind: domain.TransitionOpens, Time: domain.Clock(9, 0), DayOffset: 1}, *ev.Next)
	})
}

func TestEvaluate_NoOpenDayAnywhere(t *testing.T) {
	weekly := domain.WeeklyHours{
		{Weekday: 1, Closed: true},
		{Weekday: 3, Closed: true},
	}
	ev := openhours.Evaluate(weekly, monday(12, 0))
	assert.False(t, ev.IsOpen)
	assert.Nil(t, ev.Next)
}

func TestEvaluate_ClosedFlagDoesNotHideIntervals(t *testing.T) {
	weekly := domain.WeeklyHours{{Weekday: 1, Closed: true, Intervals: []domain.HoursInterval{iv(0, 0, 2, 0)}}}
	ev := openhours.Evaluate(weekly, monday(1, 0))
	assert.True(t, ev.IsOpen)
}

func TestEvaluate_EndOfDaySentinel(t *testing.T) {
	weekly := domain.WeeklyHours{{Weekday: 1, Intervals: []domain.HoursInterval{iv(20, 0, 24, 0)}}}

	ev := openhours.Evaluate(weekly, monday(23, 59))
	require.True(t, ev.IsOpen)
	assert.True(t, ev.Next.Time.IsEndOfDay())
}

func TestEvaluate_UsesLocationOfNow(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	weekly := domain.WeeklyHours{{Weekday: 1, Intervals: []domain.HoursInterval{iv(9, 0, 17, 0)}}}
	// Sunday 23:30 UTC is Monday 08:30 in Tokyo.
	sundayUTC := time.Date(2023, 12, 31, 23, 30, 0, 0, time.UTC)

	ev := openhours.Evaluate(weekly, sundayUTC.In(tokyo))
	assert.False(t, ev.IsOpen)
	assert.Equal(t, domain.Transition{Kind: domain.TransitionOpens, Time: domain.Clock(9, 0), DayOffset: 0}, *ev.Next)

	ev = openhours.Evaluate(weekly, sundayUTC.Add(time.Hour).In(tokyo))
	assert.True(t, ev.IsOpen)
}

func TestEvaluateAt_InvalidWeekdayOrClock(t *testing.T) {
	weekly := weekdays(domain.Clock(9, 0), domain.Clock(17, 0))
	assert.Equal(t, domain.Evaluation{}, openhours.EvaluateAt(weekly, 0, domain.Clock(10, 0)))
	assert.Equal(t, domain.Evaluation{}, openhours.EvaluateAt(weekly, 8, domain.Clock(10, 0)))
	assert.Equal(t, domain.Evaluation{}, openhours.EvaluateAt(weekly, 1, domain.Clock(25, 0)))
}

func TestSplitOvernight(t *testing.T) {
	days := openhours.SplitOvernight(5, domain.Clock(22, 0), domain.Clock(2, 0))
	require.Len(t, days, 2)
	assert.Equal(t, 5, days[0].Weekday)
	assert.Equal(t, iv(22, 0, 24, 0), days[0].Intervals[0])
	assert.Equal(t, 6, days[1].Weekday)
	assert.Equal(t, iv(0, 0, 2, 0), days[1].Intervals[0])

	// Sunday wraps to Monday.
	days = openhours.SplitOvernight(7, domain.Clock(20, 0), domain.Clock(1, 30))
	require.Len(t, days, 2)
	assert.Equal(t, 1, days[1].Weekday)

	// Closing exactly at midnight stays on one day.
	days = openhours.SplitOvernight(3, domain.Clock(18, 0), domain.Clock(0, 0))
	require.Len(t, days, 1)
	assert.Equal(t, iv(18, 0, 24, 0), days[0].Intervals[0])

	days = openhours.SplitOvernight(3, domain.Clock(9, 0), domain.Clock(17, 0))
	require.Len(t, days, 1)
}

func TestSplitOvernight_OpenAtSaturdayOneAM(t *testing.T) {
	weekly := domain.WeeklyHours(openhours.SplitOvernight(5, domain.Clock(22, 0), domain.Clock(2, 0)))
	saturday := time.Date(2024, 1, 6, 1, 0, 0, 0, time.UTC)

	ev := openhours.Evaluate(weekly, saturday)
	require.True(t, ev.IsOpen)
	assert.Equal(t, domain.Clock(2, 0), ev.Next.Time)
}

func TestNormalize(t *testing.T) {
	weekly := domain.WeeklyHours{
		{Weekday: 3, Intervals: []domain.HoursInterval{iv(14, 0, 18, 0), iv(9, 0, 12, 0)}},
		{Weekday: 1, Intervals: []domain.HoursInterval{iv(9, 0, 12, 0)}},
		{Weekday: 1, Intervals: []domain.HoursInterval{iv(12, 0, 13, 0)}},
		{Weekday: 7, Closed: true},
		{Weekday: 11, Intervals: []domain.HoursInterval{iv(9, 0, 12, 0)}},
	}

	got := openhours.Normalize(weekly)
	require.Len(t, got, 3)

	assert.Equal(t, 1, got[0].Weekday)
	assert.Equal(t, []domain.HoursInterval{iv(9, 0, 13, 0)}, got[0].Intervals)
	assert.False(t, got[0].Closed)

	assert.Equal(t, 3, got[1].Weekday)
	assert.Equal(t, []domain.HoursInterval{iv(9, 0, 12, 0), iv(14, 0, 18, 0)}, got[1].Intervals)

	assert.Equal(t, 7, got[2].Weekday)
	assert.True(t, got[2].Closed)
	assert.Empty(t, got[2].Intervals)
}
