package recurrence

import (
	"fmt"
	"strings"
)

// RefSeparator joins a base id and an occurrence date in instance ids. Base
// ids must not contain it.
const RefSeparator = "@"

// ItemRef points either at a whole item (a series) or at one occurrence of it.
type ItemRef struct {
	BaseID string
	// Date is zero for base references.
	Date Date
}

func BaseRef(id string) ItemRef {
	return ItemRef{BaseID: id}
}

func InstanceRef(baseID string, date Date) ItemRef {
	return ItemRef{BaseID: baseID, Date: date}
}

func (r ItemRef) IsInstance() bool {
	return !r.Date.IsZero()
}

func (r ItemRef) String() string {
	if !r.IsInstance() {
		return r.BaseID
	}
	return r.BaseID + RefSeparator + r.Date.String()
}

func (r ItemRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ItemRef) UnmarshalText(text []byte) error {
	parsed, err := ParseRef(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRef is the inverse of ItemRef.String.
func ParseRef(value string) (ItemRef, error) {
	base, datePart, found := strings.Cut(value, RefSeparator)
	if base == "" {
		return ItemRef{}, fmt.Errorf("%w: %q has no base id", ErrInvalidRef, value)
	}
	if !found {
		return BaseRef(base), nil
	}
	date, err := ParseDate(datePart)
	if err != nil {
		return ItemRef{}, fmt.Errorf("%w: %q: %v", ErrInvalidRef, value, err)
	}
	return InstanceRef(base, date), nil
}

// ValidateBaseID rejects ids that could not be told apart from instance ids.
func ValidateBaseID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRef)
	}
	if strings.Contains(id, RefSeparator) {
		return fmt.Errorf("%w: id %q contains %q", ErrInvalidRef, id, RefSeparator)
	}
	return nil
}

func IsInstanceID(id string) bool {
	return strings.Contains(id, RefSeparator)
}

// BaseIDOf returns everything before the first separator.
func BaseIDOf(id string) string {
	base, _, _ := strings.Cut(id, RefSeparator)
	return base
}

// DateOfID returns the occurrence date of an instance id. ok is false for base
// ids and for malformed dates.
func DateOfID(id string) (date Date, ok bool) {
	_, datePart, found := strings.Cut(id, RefSeparator)
	if !found {
		return Date{}, false
	}
	parsed, err := ParseDate(datePart)
	if err != nil {
		return Date{}, false
	}
	return parsed, true
}
