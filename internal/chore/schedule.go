package chore

import (
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

// Fallback and fixed due times, as hour and minute of the local day.
const (
	fallbackDueHour = 17
	endOfDayHour    = 23
	endOfDayMinute  = 59
)

// ParseClock parses a 24-hour "HH:MM" time. A single-digit hour is accepted.
func ParseClock(s string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(s, ":")
	if !found || len(h) < 1 || len(h) > 2 || len(m) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// IsWeekday reports whether s is an English weekday name as produced by
// time.Weekday.String.
func IsWeekday(s string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s == d.String() {
			return true
		}
	}
	return false
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from the date of from to the date of to,
// both read in to's location.
func DaysBetween(from, to time.Time) int {
	from = from.In(to.Location())
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// IsEligible decides whether a task should produce instances on today's
// date. lastCompleted is the most recent completion of the task by any
// user and only matters for recurring tasks.
func IsEligible(task model.Task, today time.Time, lastCompleted *time.Time) bool {
	switch task.ScheduleType {
	case model.ScheduleDaily:
		return true
	case model.ScheduleWeekly:
		return task.DefaultDueTime == today.Weekday().String()
	case model.ScheduleRecurring:
		if lastCompleted == nil || task.RecurrenceMinDays == nil {
			return true
		}
		return DaysBetween(*lastCompleted, today) >= *task.RecurrenceMinDays
	}
	return false
}

// DueTime returns the due time of the task's instance on today's date. A
// daily task with a malformed time falls back to 17:00.
func DueTime(task model.Task, today time.Time) time.Time {
	day := StartOfDay(today)
	if task.ScheduleType == model.ScheduleDaily {
		hour, minute, ok := ParseClock(task.DefaultDueTime)
		if !ok {
			hour, minute = fallbackDueHour, 0
		}
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	}
	return time.Date(day.Year(), day.Month(), day.Day(), endOfDayHour, endOfDayMinute, 0, 0, day.Location())
}
