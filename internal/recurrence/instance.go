package recurrence

import "time"

// Instance is one dated occurrence of an item. Details is a copy of the item's
// display fields; changing it never affects the item.
type Instance[T any] struct {
	Ref         ItemRef
	Date        Date
	Completed   bool
	CompletedAt *time.Time
	Details     T
}

// Materialize builds the instance of baseID on date. Non-recurring items keep
// their plain id.
func Materialize[T any](baseID string, s Schedule, details T, date Date) Instance[T] {
	instance := Instance[T]{
		Ref:     BaseRef(baseID),
		Date:    date,
		Details: details,
	}
	if s.Rule == nil {
		instance.Completed = s.Completed
		instance.CompletedAt = copyTime(s.CompletedAt)
		return instance
	}

	instance.Ref = InstanceRef(baseID, date)
	if entry, ok := s.completion(date); ok {
		instance.Completed = entry.Completed
		instance.CompletedAt = copyTime(entry.CompletedAt)
	}
	return instance
}

// ExpandInstances expands s over w with e and materializes every date. The
// boolean reports truncation as in Expansion.
func ExpandInstances[T any](e Expander, baseID string, s Schedule, details T, w Window) ([]Instance[T], bool) {
	expansion := e.Expand(s, w)
	instances := make([]Instance[T], 0, len(expansion.Dates))
	for _, date := range expansion.Dates {
		instances = append(instances, Materialize(baseID, s, details, date))
	}
	return instances, expansion.Truncated
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
