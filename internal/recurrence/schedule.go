package recurrence

import (
	"iter"
	"slices"
	"time"
)

// DefaultMaxIterations bounds a single expansion walk.
const DefaultMaxIterations = 1000

// Completion is one entry of the completion ledger.
type Completion struct {
	Date        Date       `json:"date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Schedule is the recurrence-aware part of a stored item. Rule is nil for
// items that happen once; Completed and CompletedAt only apply to those.
type Schedule struct {
	Anchor      Date
	Rule        *Rule
	Completed   bool
	CompletedAt *time.Time
	Completions []Completion
}

func (s Schedule) IsRecurring() bool {
	return s.Rule != nil
}

func (s Schedule) Validate() error {
	if s.Anchor.IsZero() {
		return &ValidationError{Field: "anchor_date", Reason: "required"}
	}
	if s.Rule == nil {
		return nil
	}
	return s.Rule.Validate()
}

// Expansion is the result of walking a schedule over a window.
type Expansion struct {
	Dates []Date
	// Truncated is set when the iteration cap stopped the walk before the
	// window or the rule's termination did. Dates is still usable.
	Truncated bool
}

// Expander walks schedules with a bounded number of rule steps.
type Expander struct {
	MaxIterations int
}

func (e Expander) limit() int {
	if e.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return e.MaxIterations
}

// Expand collects the occurrence dates of s inside w in ascending order.
func (e Expander) Expand(s Schedule, w Window) Expansion {
	var expansion Expansion
	expansion.Truncated = e.walk(s, w, func(date Date) bool {
		expansion.Dates = append(expansion.Dates, date)
		return true
	})
	return expansion
}

// Occurrences yields the same dates as Expand lazily. Truncation is not
// reported; use Expand when it matters.
func (e Expander) Occurrences(s Schedule, w Window) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		e.walk(s, w, yield)
	}
}

func (s Schedule) Expand(w Window) Expansion {
	return Expander{}.Expand(s, w)
}

func (s Schedule) Occurrences(w Window) iter.Seq[Date] {
	return Expander{}.Occurrences(s, w)
}

// walk reports whether it stopped because of the iteration cap.
func (e Expander) walk(s Schedule, w Window, yield func(Date) bool) bool {
	if s.Rule == nil {
		if w.Contains(s.Anchor) {
			yield(s.Anchor)
		}
		return false
	}

	rule := s.Rule
	maxIterations := e.limit()
	date := s.Anchor
	produced := 0

	for iterations := 0; ; iterations++ {
		if date.After(w.End) {
			return false
		}
		if rule.End.Kind == EndOn && date.After(rule.End.Until) {
			return false
		}
		if rule.End.Kind == EndAfter && produced >= rule.End.Count {
			return false
		}
		if iterations >= maxIterations {
			return true
		}

		if !date.Before(w.Start) && !rule.IsException(date) {
			if !yield(date) {
				return false
			}
		}
		produced++
		date = rule.Pattern.next(s.Anchor, date)
	}
}

// IsCompleted resolves the completion flag for the occurrence on date.
func (s Schedule) IsCompleted(date Date) bool {
	if s.Rule == nil {
		return s.Completed
	}
	if entry, ok := s.completion(date); ok {
		return entry.Completed
	}
	return false
}

func (s Schedule) completion(date Date) (Completion, bool) {
	index := slices.IndexFunc(s.Completions, func(c Completion) bool { return c.Date == date })
	if index < 0 {
		return Completion{}, false
	}
	return s.Completions[index], true
}

// ToggleCompletion flips the completion of the occurrence on date and returns
// the updated schedule. Non-recurring schedules flip Completed and ignore
// date. Dates the rule never produces are stored as given.
func (s Schedule) ToggleCompletion(date Date, now time.Time) Schedule {
	updated := s.clone()
	if updated.Rule == nil {
		updated.Completed = !updated.Completed
		updated.CompletedAt = stampIf(updated.Completed, now)
		return updated
	}

	index := slices.IndexFunc(updated.Completions, func(c Completion) bool { return c.Date == date })
	if index < 0 {
		updated.Completions = append(updated.Completions, Completion{
			Date:        date,
			Completed:   true,
			CompletedAt: stampIf(true, now),
		})
		return updated
	}

	entry := updated.Completions[index]
	entry.Completed = !entry.Completed
	entry.CompletedAt = stampIf(entry.Completed, now)
	updated.Completions[index] = entry
	return updated
}

// AddException skips date in future expansions. Existing ledger entries for
// the date are kept. Non-recurring schedules are returned unchanged.
func (s Schedule) AddException(date Date) Schedule {
	updated := s.clone()
	if updated.Rule == nil || updated.Rule.IsException(date) {
		return updated
	}
	updated.Rule.Exceptions = append(updated.Rule.Exceptions, date)
	return updated
}

func (s Schedule) clone() Schedule {
	copied := s
	copied.Rule = s.Rule.clone()
	copied.Completions = slices.Clone(s.Completions)
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		copied.CompletedAt = &at
	}
	return copied
}

func stampIf(completed bool, now time.Time) *time.Time {
	if !completed {
		return nil
	}
	return &now
}
