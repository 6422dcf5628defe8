// Package recurrence expands recurring planner items into concrete dated
// instances. Everything in it is a pure function over values: rules are
// interpreted, schedules are walked and instances materialized without I/O or
// shared state, so callers can recompute freely for any window.
package recurrence

import (
	"fmt"
	"slices"
	"time"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyCustom  Frequency = "custom"
)

// LastWeek selects the last matching weekday of a month in MonthlyByPosition.
const LastWeek = 5

// Pattern is one of Daily, Weekly, MonthlyByDay, MonthlyByPosition, Yearly or
// Custom. The set is closed.
type Pattern interface {
	Frequency() Frequency
	Step() int
	next(anchor, current Date) Date
	validate() error
}

type Daily struct {
	Interval int
}

type Weekly struct {
	Interval int
	// Days is sorted and free of duplicates once validated. Empty means the
	// anchor's weekday.
	Days []time.Weekday
}

type MonthlyByDay struct {
	Interval int
	Day      int
}

type MonthlyByPosition struct {
	Interval int
	// Week is 1-4 for the nth weekday, LastWeek for the last one.
	Week    int
	Weekday time.Weekday
}

type Yearly struct {
	Interval int
}

// Custom repeats every Interval days.
type Custom struct {
	Interval int
}

func (Daily) Frequency() Frequency             { return FrequencyDaily }
func (Weekly) Frequency() Frequency            { return FrequencyWeekly }
func (MonthlyByDay) Frequency() Frequency      { return FrequencyMonthly }
func (MonthlyByPosition) Frequency() Frequency { return FrequencyMonthly }
func (Yearly) Frequency() Frequency            { return FrequencyYearly }
func (Custom) Frequency() Frequency            { return FrequencyCustom }

func (p Daily) Step() int             { return p.Interval }
func (p Weekly) Step() int            { return p.Interval }
func (p MonthlyByDay) Step() int      { return p.Interval }
func (p MonthlyByPosition) Step() int { return p.Interval }
func (p Yearly) Step() int            { return p.Interval }
func (p Custom) Step() int            { return p.Interval }

func validateInterval(interval int) error {
	if interval < 1 {
		return &ValidationError{Field: "interval", Reason: fmt.Sprintf("must be at least 1, got %d", interval)}
	}
	return nil
}

func (p Daily) validate() error  { return validateInterval(p.Interval) }
func (p Yearly) validate() error { return validateInterval(p.Interval) }
func (p Custom) validate() error { return validateInterval(p.Interval) }

func (p Weekly) validate() error {
	if err := validateInterval(p.Interval); err != nil {
		return err
	}
	for _, day := range p.Days {
		if day < time.Sunday || day > time.Saturday {
			return &ValidationError{Field: "days_of_week", Reason: fmt.Sprintf("weekday %d out of range 0-6", day)}
		}
	}
	if !slices.IsSorted(p.Days) || len(slices.Compact(slices.Clone(p.Days))) != len(p.Days) {
		return &ValidationError{Field: "days_of_week", Reason: "must be sorted and unique"}
	}
	return nil
}

func (p MonthlyByDay) validate() error {
	if err := validateInterval(p.Interval); err != nil {
		return err
	}
	if p.Day < 1 || p.Day > 31 {
		return &ValidationError{Field: "day_of_month", Reason: fmt.Sprintf("must be within 1-31, got %d", p.Day)}
	}
	return nil
}

func (p MonthlyByPosition) validate() error {
	if err := validateInterval(p.Interval); err != nil {
		return err
	}
	if p.Week < 1 || p.Week > LastWeek {
		return &ValidationError{Field: "week_of_month", Reason: fmt.Sprintf("must be within 1-5, got %d", p.Week)}
	}
	if p.Weekday < time.Sunday || p.Weekday > time.Saturday {
		return &ValidationError{Field: "weekday", Reason: fmt.Sprintf("weekday %d out of range 0-6", p.Weekday)}
	}
	return nil
}

type TerminationKind string

const (
	EndNever TerminationKind = "never"
	EndOn    TerminationKind = "date"
	EndAfter TerminationKind = "count"
)

// Termination bounds a rule. The zero value never ends.
type Termination struct {
	Kind  TerminationKind
	Until Date
	Count int
}

func Never() Termination           { return Termination{Kind: EndNever} }
func Until(date Date) Termination  { return Termination{Kind: EndOn, Until: date} }
func AfterCount(n int) Termination { return Termination{Kind: EndAfter, Count: n} }

func (t Termination) validate() error {
	switch t.Kind {
	case "", EndNever:
		return nil
	case EndOn:
		if t.Until.IsZero() {
			return &ValidationError{Field: "end_date", Reason: "required when end_type is date"}
		}
		return nil
	case EndAfter:
		if t.Count < 1 {
			return &ValidationError{Field: "occurrences", Reason: fmt.Sprintf("must be at least 1, got %d", t.Count)}
		}
		return nil
	default:
		return &ValidationError{Field: "end_type", Reason: fmt.Sprintf("unknown termination %q", t.Kind)}
	}
}

// Rule is a validated recurrence rule: how an item repeats, when it stops and
// which dates are skipped.
type Rule struct {
	Pattern    Pattern
	End        Termination
	Exceptions []Date
}

// NewRule validates its inputs and returns a rule owning a copy of exceptions.
func NewRule(pattern Pattern, end Termination, exceptions ...Date) (*Rule, error) {
	rule := &Rule{Pattern: pattern, End: end, Exceptions: slices.Clone(exceptions)}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *Rule) Validate() error {
	if r.Pattern == nil {
		return &ValidationError{Field: "frequency", Reason: "required"}
	}
	if err := r.Pattern.validate(); err != nil {
		return err
	}
	if err := r.End.validate(); err != nil {
		return err
	}
	for _, exception := range r.Exceptions {
		if exception.IsZero() {
			return &ValidationError{Field: "exceptions", Reason: "contains an empty date"}
		}
	}
	return nil
}

func (r *Rule) IsException(date Date) bool {
	return slices.Contains(r.Exceptions, date)
}

func (r *Rule) clone() *Rule {
	if r == nil {
		return nil
	}
	copied := *r
	copied.Exceptions = slices.Clone(r.Exceptions)
	if weekly, ok := r.Pattern.(Weekly); ok {
		weekly.Days = slices.Clone(weekly.Days)
		copied.Pattern = weekly
	}
	return &copied
}
