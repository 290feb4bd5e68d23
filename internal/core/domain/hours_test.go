package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderly/wanderly/internal/core/domain"
)

func TestParseWallClock(t *testing.T) {
	tests := []struct {
		in   string
		want domain.WallClock
	}{
		{"09:00", domain.Clock(9, 0)},
		{"9:30", domain.Clock(9, 30)},
		{"0930", domain.Clock(9, 30)},
		{"930", domain.Clock(9, 30)},
		{"17.45", domain.Clock(17, 45)},
		{"9:00 AM", domain.Clock(9, 0)},
		{"12:15am", domain.Clock(0, 15)},
		{"12 PM", domain.Clock(12, 0)},
		{"5pm", domain.Clock(17, 0)},
		{"5 p.m.", domain.Clock(17, 0)},
		{"23:59:59", domain.Clock(23, 59)},
		{"24:00", domain.Clock(24, 0)},
		{"7", domain.Clock(7, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseWallClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWallClock_Rejects(t *testing.T) {
	for _, in := range []string{"", "noon", "25:00", "24:30", "12:60", "13pm", "0am", "12345", "9:"} {
		_, err := domain.ParseWallClock(in)
		assert.ErrorIs(t, err, domain.ErrInvalidWallClock, in)
	}
}

func TestWallClock_JSON(t *testing.T) {
	data, err := json.Marshal(domain.HoursInterval{Start: domain.Clock(9, 5), End: domain.Clock(24, 0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"09:05","end":"24:00"}`, string(data))

	var iv domain.HoursInterval
	require.NoError(t, json.Unmarshal([]byte(`{"start":"8:00 am","end":"1730"}`), &iv))
	assert.Equal(t, domain.Clock(8, 0), iv.Start)
	assert.Equal(t, domain.Clock(17, 30), iv.End)

	assert.Error(t, json.Unmarshal([]byte(`{"start":900}`), &iv))
}

func TestHoursInterval_Valid(t *testing.T) {
	assert.True(t, domain.HoursInterval{Start: domain.Clock(9, 0), End: domain.Clock(17, 0)}.Valid())
	assert.True(t, domain.HoursInterval{Start: domain.Clock(0, 0), End: domain.Clock(24, 0)}.Valid())
	assert.False(t, domain.HoursInterval{Start: domain.Clock(17, 0), End: domain.Clock(9, 0)}.Valid())
	assert.False(t, domain.HoursInterval{Start: domain.Clock(24, 0), End: domain.Clock(24, 0)}.Valid())
}

func TestWeekdayHelpers(t *testing.T) {
	assert.Equal(t, 1, domain.ISOWeekday(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 7, domain.ISOWeekday(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "Monday", domain.WeekdayName(1))
	assert.Equal(t, "Sunday", domain.WeekdayName(7))
	assert.Equal(t, "", domain.WeekdayName(0))

	assert.Equal(t, 1, domain.ShiftWeekday(7, 1))
	assert.Equal(t, 5, domain.ShiftWeekday(6, 6))
	assert.Equal(t, 6, domain.ShiftWeekday(6, 7))
	assert.Equal(t, 7, domain.ShiftWeekday(1, -1))

	wd, ok := domain.ParseWeekday("Thurs")
	assert.True(t, ok)
	assert.Equal(t, 4, wd)
	_, ok = domain.ParseWeekday("someday")
	assert.False(t, ok)
}
