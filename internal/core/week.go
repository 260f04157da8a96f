package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeeksPerYear is the highest week number; advancing past it rolls the year.
const WeeksPerYear = 52

// WeekKey identifies a budget week. Its string form "{year}-{week}" is the
// foreign key stored on every expense and the id of every WeekSummary.
type WeekKey struct {
	Year int
	Week int
}

func (k WeekKey) String() string {
	return strconv.Itoa(k.Year) + "-" + strconv.Itoa(k.Week)
}

// Valid reports whether the week number is within [1, WeeksPerYear].
func (k WeekKey) Valid() bool {
	return k.Week >= 1 && k.Week <= WeeksPerYear && k.Year > 0
}

// ParseWeekKey parses "{year}-{week}". Anything else, including week numbers
// outside [1, WeeksPerYear], returns ErrInvalidWeekKey.
func ParseWeekKey(s string) (WeekKey, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return WeekKey{}, fmt.Errorf("%w: %q", ErrInvalidWeekKey, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return WeekKey{}, fmt.Errorf("%w: %q", ErrInvalidWeekKey, s)
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil {
		return WeekKey{}, fmt.Errorf("%w: %q", ErrInvalidWeekKey, s)
	}
	k := WeekKey{Year: year, Week: week}
	if !k.Valid() {
		return WeekKey{}, fmt.Errorf("%w: %q", ErrInvalidWeekKey, s)
	}
	return k, nil
}

// NextWeek moves one week forward; week 52 rolls to week 1 of the next year.
func NextWeek(k WeekKey) WeekKey {
	next := WeekKey{Year: k.Year, Week: k.Week + 1}
	if next.Week > WeeksPerYear {
		next.Week = 1
		next.Year++
	}
	return next
}

// PrevWeek moves one week back; week 1 rolls to week 52 of the previous year.
func PrevWeek(k WeekKey) WeekKey {
	prev := WeekKey{Year: k.Year, Week: k.Week - 1}
	if prev.Week < 1 {
		prev.Week = WeeksPerYear
		prev.Year--
	}
	return prev
}

// WeekOf returns the budget week containing t. Week 1 is the week holding
// January 1st, weeks start on Sunday, and late-December days that would fall
// in a 53rd week are clamped to week 52.
func WeekOf(t time.Time) WeekKey {
	t = t.UTC()
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(t.Sub(jan1).Hours() / 24)
	offset := int(jan1.Weekday())
	week := (days + offset + 1 + 6) / 7
	if week < 1 {
		week = 1
	}
	if week > WeeksPerYear {
		week = WeeksPerYear
	}
	return WeekKey{Year: t.Year(), Week: week}
}

// WeekDates returns the first and last calendar day of a week: January 1st
// offset by (week-1)*7 days, pulled back to the preceding Sunday. This is not
// ISO-8601 week arithmetic; week 1 may start in the previous year.
func WeekDates(k WeekKey) (start, end time.Time) {
	jan1 := time.Date(k.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	start = jan1.AddDate(0, 0, (k.Week-1)*7-int(jan1.Weekday()))
	end = start.AddDate(0, 0, 6)
	return start, end
}

// WeekDateStrings is WeekDates formatted with DateLayout.
func WeekDateStrings(k WeekKey) (start, end string) {
	s, e := WeekDates(k)
	return s.Format(DateLayout), e.Format(DateLayout)
}
