package recurrence

import "time"

// Next returns the occurrence that follows current for a series anchored at
// anchor. It never mutates its arguments.
func Next(pattern Pattern, anchor, current Date) Date {
	return pattern.next(anchor, current)
}

func (p Daily) next(_, current Date) Date {
	return current.AddDays(p.Interval)
}

func (p Custom) next(_, current Date) Date {
	return current.AddDays(p.Interval)
}

func (p Weekly) next(_, current Date) Date {
	if len(p.Days) == 0 {
		return current.AddDays(7 * p.Interval)
	}
	return nextWeekday(current, p.Days, p.Interval)
}

// nextWeekday finds the next day of the set later in current's week, or wraps to
// the first day of the set interval weeks ahead. Weeks start on Sunday.
func nextWeekday(current Date, days []time.Weekday, interval int) Date {
	today := current.Weekday()
	for _, day := range days {
		if day > today {
			return current.AddDays(int(day - today))
		}
	}
	untilNextWeek := 7 - int(today)
	return current.AddDays(untilNextWeek + int(days[0]) + 7*(interval-1))
}

func (p MonthlyByDay) next(_, current Date) Date {
	month := firstOfMonthAfter(current, p.Interval)
	return clampedDate(month.Year(), month.Month(), p.Day)
}

func (p MonthlyByPosition) next(_, current Date) Date {
	month := firstOfMonthAfter(current, p.Interval)
	return weekdayInMonth(month.Year(), month.Month(), p.Weekday, p.Week)
}

// weekdayInMonth returns the nth weekday of the month, or the last one when
// week is LastWeek.
func weekdayInMonth(year int, month time.Month, weekday time.Weekday, week int) Date {
	if week >= LastWeek {
		last := NewDate(year, month, DaysIn(year, month))
		back := (int(last.Weekday()) - int(weekday) + 7) % 7
		return last.AddDays(-back)
	}
	first := NewDate(year, month, 1)
	forward := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDays(forward + 7*(week-1))
}

func (p Yearly) next(anchor, current Date) Date {
	return clampedDate(current.Year()+p.Interval, anchor.Month(), anchor.Day())
}
