package models

import (
	"time"

	"github.com/bensuskins/planner/internal/recurrence"
)

type ItemKind string

const (
	KindTask        ItemKind = "task"
	KindAppointment ItemKind = "appointment"
)

func (kind ItemKind) Valid() bool {
	return kind == KindTask || kind == KindAppointment
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (priority Priority) Valid() bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Details are the display fields of an item. They are copied by value into
// every instance, so they must not hold pointers, slices or maps.
type Details struct {
	Kind        ItemKind `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	CategoryID  string   `json:"category_id,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Location    string   `json:"location,omitempty"`
	// StartTime and EndTime are wall-clock "15:04" values, appointments only.
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// Item is a stored base item. Recurring items are expanded into instances on
// read; nothing per-occurrence is stored besides the completion ledger and the
// rule's exceptions.
type Item struct {
	ID       string
	UserID   string
	Details  Details
	Schedule recurrence.Schedule

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Instance = recurrence.Instance[Details]

type Goal struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	TargetDate  recurrence.Date `json:"target_date,omitzero"`
	Progress    int             `json:"progress"`
	Completed   bool            `json:"completed"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FeedToken grants read access to one user's calendar feed. Only the hash of
// the token is stored.
type FeedToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	TokenHash string     `json:"-"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (token FeedToken) Expired(now time.Time) bool {
	return token.ExpiresAt != nil && !token.ExpiresAt.After(now)
}
