package recurrence

import (
	"fmt"
	"slices"
	"time"
)

type MonthlyType string

const (
	MonthlyOnDay      MonthlyType = "day"
	MonthlyOnPosition MonthlyType = "position"
)

// Config is the flat, storable form of a rule. Build turns it into a Rule and
// is the only place malformed combinations are rejected.
type Config struct {
	Frequency   Frequency       `json:"frequency" yaml:"frequency"`
	Interval    int             `json:"interval,omitempty" yaml:"interval,omitempty"`
	DaysOfWeek  []int           `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty"`
	MonthlyType MonthlyType     `json:"monthly_type,omitempty" yaml:"monthly_type,omitempty"`
	DayOfMonth  int             `json:"day_of_month,omitempty" yaml:"day_of_month,omitempty"`
	WeekOfMonth int             `json:"week_of_month,omitempty" yaml:"week_of_month,omitempty"`
	Weekday     *int            `json:"weekday,omitempty" yaml:"weekday,omitempty"`
	EndType     TerminationKind `json:"end_type,omitempty" yaml:"end_type,omitempty"`
	EndDate     Date            `json:"end_date,omitzero" yaml:"end_date,omitempty"`
	Occurrences int             `json:"occurrences,omitempty" yaml:"occurrences,omitempty"`
	Exceptions  []Date          `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
}

// Build validates c for a series starting on anchor. A zero interval means 1;
// a monthly rule without a type repeats on the anchor's day of month.
func (c Config) Build(anchor Date) (*Rule, error) {
	interval := c.Interval
	if interval == 0 {
		interval = 1
	}

	var pattern Pattern
	switch c.Frequency {
	case FrequencyDaily:
		pattern = Daily{Interval: interval}
	case FrequencyCustom:
		pattern = Custom{Interval: interval}
	case FrequencyYearly:
		pattern = Yearly{Interval: interval}
	case FrequencyWeekly:
		days, err := weekdays(c.DaysOfWeek)
		if err != nil {
			return nil, err
		}
		pattern = Weekly{Interval: interval, Days: days}
	case FrequencyMonthly:
		monthly, err := c.monthly(anchor, interval)
		if err != nil {
			return nil, err
		}
		pattern = monthly
	case "":
		return nil, &ValidationError{Field: "frequency", Reason: "required"}
	default:
		return nil, &ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", c.Frequency)}
	}

	end := Termination{Kind: c.EndType, Until: c.EndDate, Count: c.Occurrences}
	if end.Kind == "" {
		end.Kind = EndNever
	}

	exceptions := slices.Clone(c.Exceptions)
	slices.SortFunc(exceptions, compareDates)
	exceptions = slices.Compact(exceptions)

	return NewRule(pattern, end, exceptions...)
}

func (c Config) monthly(anchor Date, interval int) (Pattern, error) {
	switch c.MonthlyType {
	case "", MonthlyOnDay:
		day := c.DayOfMonth
		if day == 0 {
			day = anchor.Day()
		}
		return MonthlyByDay{Interval: interval, Day: day}, nil
	case MonthlyOnPosition:
		weekday := anchor.Weekday()
		if c.Weekday != nil {
			weekday = time.Weekday(*c.Weekday)
		}
		return MonthlyByPosition{Interval: interval, Week: c.WeekOfMonth, Weekday: weekday}, nil
	default:
		return nil, &ValidationError{Field: "monthly_type", Reason: fmt.Sprintf("unknown monthly type %q", c.MonthlyType)}
	}
}

func weekdays(values []int) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(values))
	for _, value := range values {
		if value < 0 || value > 6 {
			return nil, &ValidationError{Field: "days_of_week", Reason: fmt.Sprintf("weekday %d out of range 0-6", value)}
		}
		days = append(days, time.Weekday(value))
	}
	slices.Sort(days)
	return slices.Compact(days), nil
}

// ConfigOf is the inverse of Config.Build.
func ConfigOf(rule *Rule) Config {
	config := Config{
		Frequency:  rule.Pattern.Frequency(),
		Interval:   rule.Pattern.Step(),
		EndType:    rule.End.Kind,
		Exceptions: slices.Clone(rule.Exceptions),
	}
	switch rule.End.Kind {
	case EndOn:
		config.EndDate = rule.End.Until
	case EndAfter:
		config.Occurrences = rule.End.Count
	}

	switch pattern := rule.Pattern.(type) {
	case Weekly:
		for _, day := range pattern.Days {
			config.DaysOfWeek = append(config.DaysOfWeek, int(day))
		}
	case MonthlyByDay:
		config.MonthlyType = MonthlyOnDay
		config.DayOfMonth = pattern.Day
	case MonthlyByPosition:
		weekday := int(pattern.Weekday)
		config.MonthlyType = MonthlyOnPosition
		config.WeekOfMonth = pattern.Week
		config.Weekday = &weekday
	}
	return config
}

func compareDates(a, b Date) int {
	return a.t.Compare(b.t)
}
