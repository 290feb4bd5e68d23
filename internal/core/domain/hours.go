package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidWallClock is returned when a clock string cannot be parsed.
var ErrInvalidWallClock = errors.New("invalid wall-clock time")

// MinutesPerDay is the number of minutes between 00:00 and the 24:00 sentinel.
const MinutesPerDay = 24 * 60

// WallClock is an hour/minute pair with no date or timezone.
// 24:00 is accepted as the end of a day and nowhere else.
type WallClock struct {
	Hour   int
	Minute int
}

// Clock builds a WallClock.
func Clock(hour, minute int) WallClock {
	return WallClock{Hour: hour, Minute: minute}
}

// WallClockOf returns the wall-clock part of t in t's own location.
func WallClockOf(t time.Time) WallClock {
	return WallClock{Hour: t.Hour(), Minute: t.Minute()}
}

// MinuteOfDay returns minutes since midnight (0..1440).
func (w WallClock) MinuteOfDay() int {
	return w.Hour*60 + w.Minute
}

// Valid reports whether w is a representable clock time.
func (w WallClock) Valid() bool {
	if w.Hour == 24 {
		return w.Minute == 0
	}
	return w.Hour >= 0 && w.Hour <= 23 && w.Minute >= 0 && w.Minute <= 59
}

// IsEndOfDay reports whether w is the 24:00 sentinel.
func (w WallClock) IsEndOfDay() bool {
	return w.Hour == 24 && w.Minute == 0
}

// Before reports whether w is strictly earlier than o.
func (w WallClock) Before(o WallClock) bool {
	return w.MinuteOfDay() < o.MinuteOfDay()
}

func (w WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hour, w.Minute)
}

func (w WallClock) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

func (w *WallClock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("wall clock must be a string: %w", err)
	}
	parsed, err := ParseWallClock(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseWallClock accepts "HH:MM", "H:MM", "HHMM", "HH.MM", "3:04pm", "3 PM" and "24:00".
func ParseWallClock(s string) (WallClock, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.ReplaceAll(raw, ".m.", "m")
	if raw == "" {
		return WallClock{}, fmt.Errorf("%w: empty", ErrInvalidWallClock)
	}

	meridiem := ""
	if strings.HasSuffix(raw, "am") || strings.HasSuffix(raw, "pm") {
		meridiem = raw[len(raw)-2:]
		raw = raw[:len(raw)-2]
	}

	var hourStr, minStr string
	switch {
	case strings.ContainsAny(raw, ":."):
		parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ':' || r == '.' })
		if len(parts) < 2 || len(parts) > 3 {
			return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, s)
		}
		hourStr, minStr = parts[0], parts[1]
	case len(raw) == 3 || len(raw) == 4:
		hourStr, minStr = raw[:len(raw)-2], raw[len(raw)-2:]
	case len(raw) == 1 || len(raw) == 2:
		hourStr, minStr = raw, "0"
	default:
		return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, s)
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, s)
	}
	minute, err := strconv.Atoi(minStr)
	if err != nil {
		return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, s)
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, s)
		}
		switch {
		case meridiem == "am" && hour == 12:
			hour = 0
		case meridiem == "pm" && hour != 12:
			hour += 12
		}
	}

	w := WallClock{Hour: hour, Minute: minute}
	if !w.Valid() {
		return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidWallClock, s)
	}
	return w, nil
}

// HoursInterval is a half-open [Start, End) opening span within one day.
type HoursInterval struct {
	Start WallClock `json:"start"`
	End   WallClock `json:"end"`
}

// Valid reports whether the interval is well formed: Start < End, Start is
// not the 24:00 sentinel.
func (i HoursInterval) Valid() bool {
	return i.Start.Valid() && i.End.Valid() && !i.Start.IsEndOfDay() && i.Start.Before(i.End)
}

// Contains applies the half-open rule start <= at < end.
func (i HoursInterval) Contains(at WallClock) bool {
	m := at.MinuteOfDay()
	return i.Start.MinuteOfDay() <= m && m < i.End.MinuteOfDay()
}

// DailyHours is the opening table for one ISO weekday (1=Monday .. 7=Sunday).
type DailyHours struct {
	Weekday   int             `json:"weekday"`
	Closed    bool            `json:"closed"`
	Intervals []HoursInterval `json:"intervals"`
}

// WeeklyHours holds at most one entry per weekday. Absent weekdays are closed.
type WeeklyHours []DailyHours

// Day returns the entry for an ISO weekday, if present.
func (w WeeklyHours) Day(weekday int) (DailyHours, bool) {
	for _, d := range w {
		if d.Weekday == weekday {
			return d, true
		}
	}
	return DailyHours{}, false
}

// TransitionKind names the direction of the next open/closed change.
type TransitionKind string

const (
	TransitionCloses TransitionKind = "closes"
	TransitionOpens  TransitionKind = "opens"
)

// Transition is the next open/closed change. DayOffset 0 is today, 1 tomorrow.
type Transition struct {
	Kind      TransitionKind `json:"kind"`
	Time      WallClock      `json:"time"`
	DayOffset int            `json:"day_offset"`
}

// Evaluation is the open/closed state of a schedule at one instant.
type Evaluation struct {
	IsOpen bool        `json:"is_open"`
	Next   *Transition `json:"next_transition"`
}

// ISOWeekday maps t's weekday to 1=Monday .. 7=Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WeekdayName returns the English name of an ISO weekday.
func WeekdayName(iso int) string {
	if iso < 1 || iso > 7 {
		return ""
	}
	return time.Weekday(iso % 7).String()
}

// ShiftWeekday moves an ISO weekday by offset days, wrapping 7 -> 1.
func ShiftWeekday(iso, offset int) int {
	return ((iso-1+offset)%7+7)%7 + 1
}

var weekdayNames = map[string]int{
	"mon": 1, "monday": 1,
	"tue": 2, "tues": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thur": 4, "thurs": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
	"sun": 7, "sunday": 7,
}

// ParseWeekday accepts English weekday names and abbreviations.
func ParseWeekday(s string) (int, bool) {
	iso, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	return iso, ok
}
