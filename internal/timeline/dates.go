// Package timeline holds the date/position math for the Gantt view:
// linear mapping between calendar days and horizontal pixels, and the
// visible range derived from the task set.
package timeline

import (
	"math"
	"time"

	"github.com/devtrackhq/statusboard/internal/models"
)

// MinTaskBarWidth is the minimum rendered width of a task bar in pixels.
const MinTaskBarWidth = 24.0

// Zoom presets for the day column width, in pixels.
const (
	MinDayWidth     = 10.0
	MaxDayWidth     = 80.0
	DefaultDayWidth = 50.0
	WeekDayWidth    = 25.0
	MonthDayWidth   = 10.0
	ZoomStep        = 5.0
)

// DaysBetween returns the number of whole days from start to end.
// The result is negative when end precedes start.
func DaysBetween(start, end models.Date) int {
	return int(end.Time().Sub(start.Time()).Hours() / 24)
}

// TaskPosition returns the left pixel offset of a date on a timeline
// beginning at timelineStart.
func TaskPosition(date, timelineStart models.Date, dayWidth float64) float64 {
	return float64(DaysBetween(timelineStart, date)) * dayWidth
}

// DateFromPosition inverts TaskPosition by rounding the pixel offset
// to the nearest whole day.
func DateFromPosition(pixels float64, timelineStart models.Date, dayWidth float64) models.Date {
	days := int(math.Round(pixels / dayWidth))
	return timelineStart.AddDays(days)
}

// TaskBarWidth returns the rendered width of a task bar, never below
// the minimum.
func TaskBarWidth(start, end models.Date, dayWidth float64) float64 {
	w := float64(DaysBetween(start, end)) * dayWidth
	if w < MinTaskBarWidth {
		return MinTaskBarWidth
	}
	return w
}

// ClampDayWidth keeps a zoom width inside the supported range.
func ClampDayWidth(w float64) float64 {
	if w < MinDayWidth {
		return MinDayWidth
	}
	if w > MaxDayWidth {
		return MaxDayWidth
	}
	return w
}

// IsWeekend reports whether the date falls on a Saturday or Sunday.
func IsWeekend(d models.Date) bool {
	wd := d.Time().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Range is the visible span of the timeline.
type Range struct {
	Start models.Date
	End   models.Date
}

// Width returns the total timeline width in pixels.
func (r Range) Width(dayWidth float64) float64 {
	return float64(DaysBetween(r.Start, r.End)+1) * dayWidth
}

// RangeForTasks derives the timeline span from the task set: six
// months of lead before the earliest start, at least twelve months of
// span, and six months of tail past the latest end or target date.
// With no tasks the range is centered around today.
func RangeForTasks(tasks []models.Task, today models.Date) Range {
	earliest := models.Date{}
	latest := models.Date{}

	for i := range tasks {
		t := &tasks[i]
		if !t.StartDate.IsZero() && (earliest.IsZero() || t.StartDate.Before(earliest)) {
			earliest = t.StartDate
		}
		end := t.TargetDate
		if t.EndDate != nil && !t.EndDate.IsZero() {
			end = *t.EndDate
		}
		if !end.IsZero() && (latest.IsZero() || end.After(latest)) {
			latest = end
		}
	}

	if earliest.IsZero() {
		earliest = today
	}
	start := firstOfMonth(earliest, -6)

	minEnd := addMonths(start, 12)
	if latest.IsZero() || !latest.After(minEnd) {
		latest = minEnd
	}
	end := lastOfMonth(addMonths(latest, 6))

	return Range{Start: start, End: end}
}

func firstOfMonth(d models.Date, monthOffset int) models.Date {
	t := d.Time().AddDate(0, monthOffset, 0)
	return models.NewDate(t.Year(), t.Month(), 1)
}

func addMonths(d models.Date, months int) models.Date {
	return models.DateOf(d.Time().AddDate(0, months, 0))
}

func lastOfMonth(d models.Date) models.Date {
	t := d.Time()
	firstNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return models.DateOf(firstNext.AddDate(0, 0, -1))
}
