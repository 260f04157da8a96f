package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseWeekKey(t *testing.T) {
	k, err := ParseWeekKey("2025-7")
	if err != nil || k != (WeekKey{Year: 2025, Week: 7}) {
		t.Fatalf("unexpected key %+v (err=%v)", k, err)
	}
	if k.String() != "2025-7" {
		t.Fatalf("String() = %q", k.String())
	}

	for _, in := range []string{"", "2025", "2025-", "-3", "abc-def", "2025-0", "2025-53", "2025-1-2", "2025-x"} {
		if _, err := ParseWeekKey(in); !errors.Is(err, ErrInvalidWeekKey) {
			t.Errorf("%q expected ErrInvalidWeekKey, got %v", in, err)
		}
	}
}

func TestNextAndPrevWeek(t *testing.T) {
	tests := []struct {
		name string
		got  WeekKey
		want WeekKey
	}{
		{"next mid year", NextWeek(WeekKey{2025, 30}), WeekKey{2025, 31}},
		{"next rolls year", NextWeek(WeekKey{2025, 52}), WeekKey{2026, 1}},
		{"prev mid year", PrevWeek(WeekKey{2025, 30}), WeekKey{2025, 29}},
		{"prev rolls year", PrevWeek(WeekKey{2025, 1}), WeekKey{2024, 52}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestWeekDates(t *testing.T) {
	tests := []struct {
		key        WeekKey
		start, end string
	}{
		// 2025-01-01 is a Wednesday: week 1 starts on the previous Sunday.
		{WeekKey{2025, 1}, "2024-12-29", "2025-01-04"},
		{WeekKey{2025, 2}, "2025-01-05", "2025-01-11"},
		// 2023-01-01 is a Sunday.
		{WeekKey{2023, 1}, "2023-01-01", "2023-01-07"},
		{WeekKey{2026, 52}, "2026-12-20", "2026-12-26"},
	}
	for _, tt := range tests {
		start, end := WeekDateStrings(tt.key)
		if start != tt.start || end != tt.end {
			t.Errorf("WeekDates(%v) = %s..%s, want %s..%s", tt.key, start, end, tt.start, tt.end)
		}
	}
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		at   time.Time
		want WeekKey
	}{
		{time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), WeekKey{2025, 1}},
		{time.Date(2025, 1, 4, 23, 0, 0, 0, time.UTC), WeekKey{2025, 1}},
		{time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), WeekKey{2025, 2}},
		{time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC), WeekKey{2026, 42}},
		{time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC), WeekKey{2025, 52}}, // clamped
	}
	for _, tt := range tests {
		if got := WeekOf(tt.at); got != tt.want {
			t.Errorf("WeekOf(%s) = %v, want %v", tt.at.Format(time.RFC3339), got, tt.want)
		}
	}
}
