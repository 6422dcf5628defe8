package recurrence

import "time"

// Window is an inclusive range of dates.
type Window struct {
	Start Date
	End   Date
}

func NewWindow(start, end Date) (Window, error) {
	if end.Before(start) {
		return Window{}, ErrInvalidWindow
	}
	return Window{Start: start, End: end}, nil
}

// WindowBetween normalizes two instants to the dates they fall on in loc.
func WindowBetween(start, end time.Time, loc *time.Location) (Window, error) {
	return NewWindow(DateOf(start.In(loc)), DateOf(end.In(loc)))
}

func (w Window) Contains(date Date) bool {
	return !date.Before(w.Start) && !date.After(w.End)
}

func DayWindow(date Date) Window {
	return Window{Start: date, End: date}
}

// WeekWindow returns the Sunday-to-Saturday week containing date.
func WeekWindow(date Date) Window {
	start := date.AddDays(-int(date.Weekday()))
	return Window{Start: start, End: start.AddDays(6)}
}

func MonthWindow(year int, month time.Month) Window {
	return Window{Start: NewDate(year, month, 1), End: NewDate(year, month, DaysIn(year, month))}
}
