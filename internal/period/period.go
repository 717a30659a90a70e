// Package period resolves named reporting periods such as "this_week" into
// inclusive date ranges relative to a reference day.
package period

import (
	"time"

	"timetracker/internal/models"
)

// Names of the supported periods.
const (
	Today     = "today"
	Yesterday = "yesterday"
	ThisWeek  = "this_week"
	LastWeek  = "last_week"
	ThisMonth = "this_month"
	LastMonth = "last_month"
)

// Choice pairs a period name with its display label.
type Choice struct {
	Value string
	Label string
}

// Choices lists the periods in display order.
var Choices = []Choice{
	{Today, "Today"},
	{Yesterday, "Yesterday"},
	{ThisWeek, "This Week"},
	{LastWeek, "Last Week"},
	{ThisMonth, "This Month"},
	{LastMonth, "Last Month"},
}

// Resolve returns the range for name relative to today. Unknown names
// report ok=false and callers leave their query unfiltered.
func Resolve(name string, today models.Date) (models.DateRange, bool) {
	switch name {
	case Today:
		return closed(today, today), true
	case Yesterday:
		y := today.AddDays(-1)
		return closed(y, y), true
	case ThisWeek:
		return since(WeekStart(today)), true
	case LastWeek:
		start := WeekStart(today).AddDays(-7)
		return closed(start, start.AddDays(6)), true
	case ThisMonth:
		return since(today.FirstOfMonth()), true
	case LastMonth:
		first := today.FirstOfMonth()
		prev := first.AddDays(-1).FirstOfMonth()
		return closed(prev, first.AddDays(-1)), true
	default:
		return models.DateRange{}, false
	}
}

// WeekStart returns the Monday of the week containing day.
func WeekStart(day models.Date) models.Date {
	return day.AddDays(-weekdayIndex(day))
}

// weekdayIndex numbers days from Monday=0 to Sunday=6.
func weekdayIndex(day models.Date) int {
	return (int(day.Weekday()) + 6) % 7
}

// Label returns the display label for name, or "" when unknown.
func Label(name string) string {
	for _, c := range Choices {
		if c.Value == name {
			return c.Label
		}
	}
	return ""
}

// TodayIn returns the current day in loc according to now.
func TodayIn(now time.Time, loc *time.Location) models.Date {
	if loc == nil {
		loc = time.UTC
	}
	return models.DateOf(now.In(loc))
}

func closed(from, to models.Date) models.DateRange {
	return models.DateRange{From: &from, To: &to}
}

func since(from models.Date) models.DateRange {
	return models.DateRange{From: &from}
}
