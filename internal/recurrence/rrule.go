package recurrence

import (
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// RRuleOption translates rule into RFC 5545 terms for a series whose first
// occurrence starts at start. Month-end clamping is expressed with BYSETPOS.
// Exceptions are not part of an RRULE; emit them as EXDATEs.
func RRuleOption(rule *Rule, start time.Time) rrule.ROption {
	option := rrule.ROption{
		Dtstart:  start,
		Interval: rule.Pattern.Step(),
		Wkst:     rrule.SU,
	}

	switch pattern := rule.Pattern.(type) {
	case Daily, Custom:
		option.Freq = rrule.DAILY
	case Weekly:
		option.Freq = rrule.WEEKLY
		for _, day := range pattern.Days {
			option.Byweekday = append(option.Byweekday, rruleWeekdays[day])
		}
	case MonthlyByDay:
		option.Freq = rrule.MONTHLY
		option.Bymonthday, option.Bysetpos = clampedMonthDays(pattern.Day)
	case MonthlyByPosition:
		option.Freq = rrule.MONTHLY
		position := pattern.Week
		if position >= LastWeek {
			position = -1
		}
		weekday := rruleWeekdays[pattern.Weekday]
		option.Byweekday = []rrule.Weekday{weekday.Nth(position)}
	case Yearly:
		option.Freq = rrule.YEARLY
		option.Bymonth = []int{int(start.Month())}
		if start.Month() == time.February && start.Day() == 29 {
			option.Bymonthday, option.Bysetpos = clampedMonthDays(29)
		} else {
			option.Bymonthday = []int{start.Day()}
		}
	}

	switch rule.End.Kind {
	case EndOn:
		until := rule.End.Until
		option.Until = time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, start.Location())
	case EndAfter:
		option.Count = rule.End.Count
	}
	return option
}

// clampedMonthDays selects day, or the last day of shorter months.
func clampedMonthDays(day int) ([]int, []int) {
	if day <= 28 {
		return []int{day}, nil
	}
	days := make([]int, 0, day-27)
	for candidate := 28; candidate <= day; candidate++ {
		days = append(days, candidate)
	}
	return days, []int{-1}
}

// RRuleSeries is a rule split into what RFC 5545 can express. An RRULE whose
// DTSTART the pattern does not select is undefined, so an off-pattern anchor
// becomes Lead and Rule starts at the occurrence after it.
type RRuleSeries struct {
	// Lead is a standalone occurrence; zero when there is none.
	Lead Date
	// Start is the DTSTART of Rule. Rule is nil when nothing recurs.
	Start Date
	Rule  *Rule
}

// SplitForRRule returns the RFC 5545 form of the series rule produces from
// anchor.
func SplitForRRule(rule *Rule, anchor Date) RRuleSeries {
	if rule.End.Kind == EndOn && anchor.After(rule.End.Until) {
		return RRuleSeries{}
	}
	if selects(rule.Pattern, anchor) {
		return RRuleSeries{Start: anchor, Rule: rule}
	}

	var series RRuleSeries
	if !rule.IsException(anchor) {
		series.Lead = anchor
	}

	next := Next(rule.Pattern, anchor, anchor)
	rest := rule.clone()
	switch rest.End.Kind {
	case EndOn:
		if next.After(rest.End.Until) {
			return series
		}
	case EndAfter:
		// The anchor used one occurrence, excepted or not.
		if rest.End.Count <= 1 {
			return series
		}
		rest.End.Count--
	}
	rest.Exceptions = slices.DeleteFunc(rest.Exceptions, func(d Date) bool { return d.Before(next) })

	series.Start = next
	series.Rule = rest
	return series
}

// selects reports whether pattern itself produces date, independent of the
// series anchor.
func selects(pattern Pattern, date Date) bool {
	switch p := pattern.(type) {
	case Weekly:
		return len(p.Days) == 0 || slices.Contains(p.Days, date.Weekday())
	case MonthlyByDay:
		return compareDates(date, clampedDate(date.Year(), date.Month(), p.Day)) == 0
	case MonthlyByPosition:
		return compareDates(date, weekdayInMonth(date.Year(), date.Month(), p.Weekday, p.Week)) == 0
	}
	return true
}

// ToRRule builds an rrule-go rule equivalent to rule starting at start.
func ToRRule(rule *Rule, start time.Time) (*rrule.RRule, error) {
	return rrule.NewRRule(RRuleOption(rule, start))
}

// RRuleString renders the RRULE property value, without DTSTART.
func RRuleString(rule *Rule, start time.Time) string {
	option := RRuleOption(rule, start)
	return option.RRuleString()
}
