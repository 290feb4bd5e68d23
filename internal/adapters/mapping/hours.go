package mapping

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/wanderly/wanderly/internal/core/domain"
	"github.com/wanderly/wanderly/internal/core/openhours"
)

var (
	weekdayKeys  = []string{"weekday", "day", "day_of_week", "dayOfWeek"}
	enabledKeys  = []string{"enabled", "is_open", "isOpen", "open_today"}
	rangeKeys    = []string{"intervals", "hours", "ranges", "slots", "periods"}
	startKeys    = []string{"start", "open", "from", "opens"}
	endKeys      = []string{"end", "close", "to", "closes"}
	allDayPhrase = []string{"24 hours", "24h", "open 24 hours", "all day"}
)

// Hours decodes an opening-hours value in any of the accepted shapes:
//
//   - a list of {weekday|day, closed, intervals:[{start,end}]} or {day, open, close}
//   - an object keyed by weekday name with {open, close, closed|enabled},
//     a list of ranges, or a "09:00-17:00" / "closed" string
//   - a Google-style {periods:[{open:{day,time}, close:{day,time}}]} (day 0 is Sunday)
//
// Entries that cannot be parsed are dropped. Spans that cross midnight are
// split across the two days, and the result is normalized.
func Hours(r gjson.Result) domain.WeeklyHours {
	var weekly domain.WeeklyHours
	switch {
	case r.IsObject() && r.Get("periods").IsArray():
		weekly = googlePeriods(r.Get("periods"))
	case r.IsArray():
		weekly = dayList(r)
	case r.IsObject():
		weekly = dayMap(r)
	default:
		return nil
	}
	if len(weekly) == 0 {
		return nil
	}
	return openhours.Normalize(weekly)
}

func dayList(r gjson.Result) domain.WeeklyHours {
	var weekly domain.WeeklyHours
	for _, entry := range r.Array() {
		wd, ok := weekday(first(entry, weekdayKeys))
		if !ok {
			continue
		}
		weekly = append(weekly, day(wd, entry)...)
	}
	return weekly
}

func dayMap(r gjson.Result) domain.WeeklyHours {
	var weekly domain.WeeklyHours
	r.ForEach(func(key, value gjson.Result) bool {
		wd, ok := domain.ParseWeekday(key.String())
		if !ok {
			return true
		}
		weekly = append(weekly, day(wd, value)...)
		return true
	})
	return weekly
}

// day decodes the hours of a single weekday from an object, a list of ranges
// or a range string.
func day(wd int, v gjson.Result) domain.WeeklyHours {
	closed := domain.WeeklyHours{{Weekday: wd, Closed: true}}

	switch {
	case v.Type == gjson.String:
		return rangeText(wd, v.String())
	case v.Type == gjson.False:
		return closed
	case v.IsArray():
		var out domain.WeeklyHours
		for _, item := range v.Array() {
			out = append(out, span(wd, item)...)
		}
		if len(out) == 0 {
			return closed
		}
		return out
	case !v.IsObject():
		return nil
	}

	// A switched-off day stays closed whatever times it still carries.
	if e := first(v, enabledKeys); e.Exists() && (e.Type == gjson.True || e.Type == gjson.False) && !e.Bool() {
		return closed
	}

	// Otherwise intervals win over a closed flag, as in openhours.
	var out domain.WeeklyHours
	if ranges := first(v, rangeKeys); ranges.IsArray() {
		for _, item := range ranges.Array() {
			out = append(out, span(wd, item)...)
		}
	} else {
		out = span(wd, v)
	}
	if len(out) > 0 {
		return out
	}
	return closed
}

// span decodes one {start,end} object or "HH:MM-HH:MM" string.
func span(wd int, item gjson.Result) domain.WeeklyHours {
	if item.Type == gjson.String {
		return rangeText(wd, item.String())
	}
	if !item.IsObject() {
		return nil
	}
	start, err := domain.ParseWallClock(str(first(item, startKeys)))
	if err != nil {
		return nil
	}
	end, err := domain.ParseWallClock(str(first(item, endKeys)))
	if err != nil {
		return nil
	}
	return interval(wd, start, end)
}

func rangeText(wd int, s string) domain.WeeklyHours {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	if s == "closed" || s == "off" {
		return domain.WeeklyHours{{Weekday: wd, Closed: true}}
	}
	for _, phrase := range allDayPhrase {
		if s == phrase {
			return interval(wd, domain.Clock(0, 0), domain.Clock(24, 0))
		}
	}

	var out domain.WeeklyHours
	for _, part := range strings.Split(s, ",") {
		from, to, ok := cutRange(part)
		if !ok {
			continue
		}
		start, err := domain.ParseWallClock(from)
		if err != nil {
			continue
		}
		end, err := domain.ParseWallClock(to)
		if err != nil {
			continue
		}
		out = append(out, interval(wd, start, end)...)
	}
	return out
}

func cutRange(s string) (string, string, bool) {
	for _, sep := range []string{"\u2013", "\u2014", " to ", "-"} {
		if from, to, ok := strings.Cut(s, sep); ok {
			return strings.TrimSpace(from), strings.TrimSpace(to), true
		}
	}
	return "", "", false
}

// interval builds the same-day entries for start..end on wd, splitting a
// span that ends at or before its start across midnight.
func interval(wd int, start, end domain.WallClock) domain.WeeklyHours {
	if start.IsEndOfDay() {
		return nil
	}
	if start.Before(end) {
		return domain.WeeklyHours{{Weekday: wd, Intervals: []domain.HoursInterval{{Start: start, End: end}}}}
	}
	return openhours.SplitOvernight(wd, start, end)
}

// weekday accepts ISO numbers (1=Monday..7=Sunday, with 0 also meaning
// Sunday) or English day names.
func weekday(r gjson.Result) (int, bool) {
	if !r.Exists() {
		return 0, false
	}
	if r.Type == gjson.String {
		if wd, ok := domain.ParseWeekday(r.String()); ok {
			return wd, true
		}
	}
	n, err := cast.ToIntE(r.Value())
	if err != nil || n < 0 || n > 7 {
		return 0, false
	}
	if n == 0 {
		return 7, true
	}
	return n, true
}

func googlePeriods(periods gjson.Result) domain.WeeklyHours {
	var weekly domain.WeeklyHours
	for _, p := range periods.Array() {
		openDay, ok := googleDay(p.Get("open.day"))
		if !ok {
			continue
		}
		start, err := googleTime(p.Get("open"))
		if err != nil {
			continue
		}

		// A period with no close is open around the clock.
		if !p.Get("close").Exists() {
			for wd := 1; wd <= 7; wd++ {
				weekly = append(weekly, domain.DailyHours{
					Weekday:   wd,
					Intervals: []domain.HoursInterval{{Start: domain.Clock(0, 0), End: domain.Clock(24, 0)}},
				})
			}
			continue
		}

		closeDay, ok := googleDay(p.Get("close.day"))
		if !ok {
			continue
		}
		end, err := googleTime(p.Get("close"))
		if err != nil {
			continue
		}
		weekly = append(weekly, periodDays(openDay, start, closeDay, end)...)
	}
	return weekly
}

// periodDays spreads a period that may run across several days over the
// weekdays it touches.
func periodDays(openDay int, start domain.WallClock, closeDay int, end domain.WallClock) domain.WeeklyHours {
	offset := ((closeDay-openDay)%7 + 7) % 7
	switch {
	case offset == 0 && start.Before(end):
		return interval(openDay, start, end)
	case offset == 1:
		return openhours.SplitOvernight(openDay, start, end)
	case offset == 0:
		offset = 7
	}

	var out domain.WeeklyHours
	for d := 0; d <= offset; d++ {
		from, to := domain.Clock(0, 0), domain.Clock(24, 0)
		if d == 0 {
			from = start
		}
		if d == offset {
			to = end
		}
		if from.Before(to) {
			out = append(out, domain.DailyHours{
				Weekday:   domain.ShiftWeekday(openDay, d),
				Intervals: []domain.HoursInterval{{Start: from, End: to}},
			})
		}
	}
	return out
}

// googleDay converts 0=Sunday..6=Saturday to ISO.
func googleDay(r gjson.Result) (int, bool) {
	if !r.Exists() {
		return 0, false
	}
	n, err := cast.ToIntE(r.Value())
	if err != nil || n < 0 || n > 6 {
		return 0, false
	}
	if n == 0 {
		return 7, true
	}
	return n, true
}

// googleTime reads "time":"HHMM" or the newer {hour, minute} form.
func googleTime(point gjson.Result) (domain.WallClock, error) {
	if t := point.Get("time"); t.Exists() {
		return domain.ParseWallClock(str(t))
	}
	w := domain.Clock(int(point.Get("hour").Int()), int(point.Get("minute").Int()))
	if !w.Valid() {
		return domain.WallClock{}, domain.ErrInvalidWallClock
	}
	return w, nil
}
