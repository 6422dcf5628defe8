package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/bensuskins/planner/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrInvalidItem        = errors.New("invalid item")
	ErrOccurrenceRequired = errors.New("recurring items need an occurrence reference")
	ErrInvalidScope       = errors.New("invalid delete scope")
)

const clockLayout = "15:04"

// ItemInput is what clients send to create or replace an item.
type ItemInput struct {
	ID string `json:"id,omitempty"`
	models.Details
	Date       recurrence.Date    `json:"date"`
	Recurrence *recurrence.Config `json:"recurrence,omitempty"`
}

type InstanceFilter struct {
	Kind       *models.ItemKind
	CategoryID *string
	Recurring  *bool
}

type DeleteScope string

const (
	ScopeOccurrence DeleteScope = "occurrence"
	ScopeSeries     DeleteScope = "series"
)

func ParseDeleteScope(value string) (DeleteScope, error) {
	switch scope := DeleteScope(value); scope {
	case ScopeOccurrence, ScopeSeries:
		return scope, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, value)
	}
}

type PlannerService struct {
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	expander     recurrence.Expander
	now          func() time.Time
}

func NewPlannerService(
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	expander recurrence.Expander,
) *PlannerService {
	return &PlannerService{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		expander:     expander,
		now:          time.Now,
	}
}

// WithClock replaces the time source used to stamp completions.
func (service *PlannerService) WithClock(now func() time.Time) *PlannerService {
	service.now = now
	return service
}

func (service *PlannerService) CreateItem(ctx context.Context, userID string, input ItemInput) (models.Item, error) {
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	if err := recurrence.ValidateBaseID(input.ID); err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	item, err := service.buildItem(ctx, userID, input)
	if err != nil {
		return models.Item{}, err
	}
	item.ID = input.ID
	item.UserID = userID

	created, err := service.itemRepo.Create(ctx, item)
	if err != nil {
		return models.Item{}, fmt.Errorf("creating item: %w", err)
	}
	slog.Info("created item", "item_id", created.ID, "recurring", created.Schedule.IsRecurring())
	return created, nil
}

// UpdateSeries replaces the details and schedule of the whole series ref
// points at. The completion ledger is kept.
func (service *PlannerService) UpdateSeries(ctx context.Context, userID, ref string, input ItemInput) (models.Item, error) {
	parsed, err := recurrence.ParseRef(ref)
	if err != nil {
		return models.Item{}, err
	}

	replacement, err := service.buildItem(ctx, userID, input)
	if err != nil {
		return models.Item{}, err
	}

	updated, err := service.modify(ctx, userID, parsed.BaseID, func(item models.Item) (models.Item, error) {
		item.Details = replacement.Details
		item.Schedule.Anchor = replacement.Schedule.Anchor
		item.Schedule.Rule = replacement.Schedule.Rule
		return item, nil
	})
	if err != nil {
		return models.Item{}, err
	}
	return updated, nil
}

func (service *PlannerService) buildItem(ctx context.Context, userID string, input ItemInput) (models.Item, error) {
	details := input.Details
	if details.Kind == "" {
		details.Kind = models.KindTask
	}
	if !details.Kind.Valid() {
		return models.Item{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, details.Kind)
	}
	details.Title = strings.TrimSpace(details.Title)
	if details.Title == "" {
		return models.Item{}, fmt.Errorf("%w: title is required", ErrInvalidItem)
	}
	if details.Priority == "" && details.Kind == models.KindTask {
		details.Priority = models.PriorityMedium
	}
	if details.Priority != "" && !details.Priority.Valid() {
		return models.Item{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidItem, details.Priority)
	}
	if err := validateClock(details.StartTime, details.EndTime); err != nil {
		return models.Item{}, err
	}
	if details.CategoryID != "" {
		category, err := service.categoryRepo.FindByID(ctx, details.CategoryID)
		if err != nil || category.UserID != userID {
			return models.Item{}, fmt.Errorf("%w: unknown category %q", ErrInvalidItem, details.CategoryID)
		}
	}

	schedule := recurrence.Schedule{Anchor: input.Date}
	if input.Recurrence != nil {
		rule, err := input.Recurrence.Build(input.Date)
		if err != nil {
			return models.Item{}, err
		}
		schedule.Rule = rule
	}
	if err := schedule.Validate(); err != nil {
		return models.Item{}, err
	}

	return models.Item{Details: details, Schedule: schedule}, nil
}

func validateClock(start, end string) error {
	var startAt, endAt time.Time
	var err error
	if start != "" {
		if startAt, err = time.Parse(clockLayout, start); err != nil {
			return fmt.Errorf("%w: start_time %q is not HH:MM", ErrInvalidItem, start)
		}
	}
	if end != "" {
		if endAt, err = time.Parse(clockLayout, end); err != nil {
			return fmt.Errorf("%w: end_time %q is not HH:MM", ErrInvalidItem, end)
		}
		if start == "" {
			return fmt.Errorf("%w: end_time needs a start_time", ErrInvalidItem)
		}
		if endAt.Before(startAt) {
			return fmt.Errorf("%w: end_time is before start_time", ErrInvalidItem)
		}
	}
	return nil
}

// Find returns the stored item ref belongs to.
func (service *PlannerService) Find(ctx context.Context, userID, ref string) (models.Item, error) {
	parsed, err := recurrence.ParseRef(ref)
	if err != nil {
		return models.Item{}, err
	}
	return service.findOwned(ctx, userID, parsed.BaseID)
}

// Instance materializes the occurrence ref points at. Base refs of recurring
// items are rejected.
func (service *PlannerService) Instance(ctx context.Context, userID, ref string) (models.Instance, error) {
	parsed, err := recurrence.ParseRef(ref)
	if err != nil {
		return models.Instance{}, err
	}
	item, err := service.findOwned(ctx, userID, parsed.BaseID)
	if err != nil {
		return models.Instance{}, err
	}

	date, err := occurrenceDate(item, parsed)
	if err != nil {
		return models.Instance{}, err
	}
	expansion := service.expander.Expand(item.Schedule, recurrence.DayWindow(date))
	if len(expansion.Dates) == 0 {
		return models.Instance{}, fmt.Errorf("%w: %s has no occurrence on %s", ErrItemNotFound, item.ID, date)
	}
	return recurrence.Materialize(item.ID, item.Schedule, item.Details, date), nil
}

// ListInstances expands every item of userID over window, ordered by date and
// then start time. Items whose expansion hits the iteration cap are logged and
// still contribute the dates found so far.
func (service *PlannerService) ListInstances(ctx context.Context, userID string, window recurrence.Window, filter InstanceFilter) ([]models.Instance, error) {
	items, err := service.itemRepo.FindAll(ctx, repository.ItemFilter{
		UserID:     userID,
		Kind:       filter.Kind,
		CategoryID: filter.CategoryID,
		Recurring:  filter.Recurring,
	})
	if err != nil {
		return nil, fmt.Errorf("finding items: %w", err)
	}

	var instances []models.Instance
	for _, item := range items {
		expanded, truncated := recurrence.ExpandInstances(service.expander, item.ID, item.Schedule, item.Details, window)
		if truncated {
			slog.Warn("truncated recurrence expansion",
				"item_id", item.ID, "window_start", window.Start, "window_end", window.End)
		}
		instances = append(instances, expanded...)
	}

	slices.SortStableFunc(instances, compareInstances)
	return instances, nil
}

func compareInstances(a, b models.Instance) int {
	if a.Date != b.Date {
		if a.Date.Before(b.Date) {
			return -1
		}
		return 1
	}
	return cmp.Or(
		compareStartTimes(a.Details.StartTime, b.Details.StartTime),
		strings.Compare(a.Details.Title, b.Details.Title),
	)
}

// compareStartTimes puts untimed items before timed ones.
func compareStartTimes(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func (service *PlannerService) InstancesOn(ctx context.Context, userID string, date recurrence.Date) ([]models.Instance, error) {
	return service.ListInstances(ctx, userID, recurrence.DayWindow(date), InstanceFilter{})
}

// Toggle flips the completion of one occurrence, or of a non-recurring item.
func (service *PlannerService) Toggle(ctx context.Context, userID, ref string) (models.Instance, error) {
	parsed, err := recurrence.ParseRef(ref)
	if err != nil {
		return models.Instance{}, err
	}

	var date recurrence.Date
	updated, err := service.modify(ctx, userID, parsed.BaseID, func(item models.Item) (models.Item, error) {
		resolved, err := occurrenceDate(item, parsed)
		if err != nil {
			return models.Item{}, err
		}
		date = resolved
		item.Schedule = item.Schedule.ToggleCompletion(date, service.now())
		return item, nil
	})
	if err != nil {
		return models.Instance{}, err
	}

	instance := recurrence.Materialize(updated.ID, updated.Schedule, updated.Details, date)
	slog.Info("toggled completion", "ref", instance.Ref, "completed", instance.Completed)
	return instance, nil
}

// SkipOccurrence removes one occurrence of a recurring item from all future
// expansions.
func (service *PlannerService) SkipOccurrence(ctx context.Context, userID, ref string) error {
	parsed, err := recurrence.ParseRef(ref)
	if err != nil {
		return err
	}
	if !parsed.IsInstance() {
		return ErrOccurrenceRequired
	}

	_, err = service.modify(ctx, userID, parsed.BaseID, func(item models.Item) (models.Item, error) {
		if !item.Schedule.IsRecurring() {
			return models.Item{}, fmt.Errorf("%w: %s does not repeat", ErrInvalidItem, item.ID)
		}
		item.Schedule = item.Schedule.AddException(parsed.Date)
		return item, nil
	})
	if err != nil {
		return err
	}
	slog.Info("skipped occurrence", "ref", parsed)
	return nil
}

// Delete removes a single occurrence or the whole series. An empty scope
// means occurrence for instance refs and series for base refs. Deleting the
// only occurrence of a non-recurring item deletes the item.
func (service *PlannerService) Delete(ctx context.Context, userID, ref string, scope DeleteScope) error {
	parsed, err := recurrence.ParseRef(ref)
	if err != nil {
		return err
	}
	if scope == "" {
		scope = ScopeSeries
		if parsed.IsInstance() {
			scope = ScopeOccurrence
		}
	}

	item, err := service.findOwned(ctx, userID, parsed.BaseID)
	if err != nil {
		return err
	}

	if scope == ScopeOccurrence && item.Schedule.IsRecurring() {
		return service.SkipOccurrence(ctx, userID, ref)
	}

	if err := service.itemRepo.Delete(ctx, item.ID); err != nil {
		return service.notFound(item.ID, err)
	}
	slog.Info("deleted item", "item_id", item.ID)
	return nil
}

func (service *PlannerService) findOwned(ctx context.Context, userID, id string) (models.Item, error) {
	item, err := service.itemRepo.FindByID(ctx, id)
	if err != nil {
		return models.Item{}, service.notFound(id, err)
	}
	if item.UserID != userID {
		return models.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, nil
}

func (service *PlannerService) modify(ctx context.Context, userID, id string, fn func(models.Item) (models.Item, error)) (models.Item, error) {
	updated, err := service.itemRepo.Modify(ctx, id, func(item models.Item) (models.Item, error) {
		if item.UserID != userID {
			return models.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return fn(item)
	})
	if err != nil {
		return models.Item{}, service.notFound(id, err)
	}
	return updated, nil
}

func (service *PlannerService) notFound(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return err
}

// occurrenceDate resolves the date ref addresses on item. Recurring items need
// an instance ref; non-recurring items accept their base ref or their anchor.
func occurrenceDate(item models.Item, ref recurrence.ItemRef) (recurrence.Date, error) {
	if item.Schedule.IsRecurring() {
		if !ref.IsInstance() {
			return recurrence.Date{}, ErrOccurrenceRequired
		}
		return ref.Date, nil
	}
	if ref.IsInstance() && ref.Date != item.Schedule.Anchor {
		return recurrence.Date{}, fmt.Errorf("%w: %s has no occurrence on %s", ErrItemNotFound, item.ID, ref.Date)
	}
	return item.Schedule.Anchor, nil
}
