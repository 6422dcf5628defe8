package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/bensuskins/planner/internal/repository"
)

const (
	icalDateLayout     = "20060102"
	icalDateTimeLayout = "20060102T150405"
	icalUIDSuffix      = "@planner"

	// CalendarNameSetting names the feed in calendar clients.
	CalendarNameSetting = "calendar_name"
	defaultCalendarName = "Planner"
)

// ICalExporter renders a user's items as an iCalendar feed. Recurring items
// become one VEVENT with an RRULE and an EXDATE per skipped occurrence, so
// calendar clients do the expansion themselves.
type ICalExporter struct {
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	settingsRepo repository.SettingsRepository
	location     *time.Location
}

func NewICalExporter(
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	settingsRepo repository.SettingsRepository,
	location *time.Location,
) *ICalExporter {
	return &ICalExporter{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		settingsRepo: settingsRepo,
		location:     location,
	}
}

func (exporter *ICalExporter) Feed(ctx context.Context, userID string) (string, error) {
	items, err := exporter.itemRepo.FindAll(ctx, repository.ItemFilter{UserID: userID})
	if err != nil {
		return "", fmt.Errorf("finding items for ical: %w", err)
	}

	categoryNames := make(map[string]string)
	categories, err := exporter.categoryRepo.FindAll(ctx, userID)
	if err != nil {
		slog.Error("finding categories for ical", "error", err)
	}
	for _, category := range categories {
		categoryNames[category.ID] = category.Name
	}

	calendarName := defaultCalendarName
	if name, err := exporter.settingsRepo.Get(ctx, userID, CalendarNameSetting); err == nil && name != "" {
		calendarName = name
	}

	calendar := ical.NewCalendar()
	calendar.SetMethod(ical.MethodPublish)
	calendar.SetProductId("-//Planner//Planner//EN")
	calendar.SetXWRCalName(calendarName)
	calendar.SetXWRTimezone(exporter.location.String())

	for _, item := range items {
		exporter.addItem(calendar, item, categoryNames[item.Details.CategoryID])
	}
	return calendar.Serialize(), nil
}

// addItem exports a recurring item as one VEVENT carrying the RRULE. An
// anchor the rule itself would not select gets its own VEVENT first.
func (exporter *ICalExporter) addItem(calendar *ical.Calendar, item models.Item, categoryName string) {
	rule := item.Schedule.Rule
	if rule == nil {
		exporter.addEvent(calendar, item.ID, item, item.Schedule.Anchor, categoryName)
		return
	}

	series := recurrence.SplitForRRule(rule, item.Schedule.Anchor)
	if !series.Lead.IsZero() {
		exporter.addEvent(calendar, item.ID+"-"+series.Lead.String(), item, series.Lead, categoryName)
	}
	if series.Rule == nil {
		return
	}

	event := exporter.addEvent(calendar, item.ID, item, series.Start, categoryName)
	start, timed := exporter.start(item, series.Start)
	event.AddProperty(ical.ComponentPropertyRrule, recurrence.RRuleString(series.Rule, start))
	for _, exception := range series.Rule.Exceptions {
		if timed {
			at := exporter.at(exception, item.Details.StartTime)
			event.AddExdate(at.Format(icalDateTimeLayout), exporter.tzid())
		} else {
			event.AddExdate(exception.Time(time.UTC).Format(icalDateLayout), ical.WithValue("DATE"))
		}
	}
}

func (exporter *ICalExporter) addEvent(calendar *ical.Calendar, uid string, item models.Item, date recurrence.Date, categoryName string) *ical.VEvent {
	event := calendar.AddEvent(uid + icalUIDSuffix)
	event.SetDtStampTime(item.UpdatedAt.UTC())
	event.SetSummary(item.Details.Title)
	if item.Details.Description != "" {
		event.SetDescription(item.Details.Description)
	}
	if item.Details.Location != "" {
		event.SetLocation(item.Details.Location)
	}
	if categoryName != "" {
		event.AddProperty(ical.ComponentPropertyCategories, categoryName)
	}

	// Timed events stay in wall-clock time so clients apply BYDAY and DST
	// in the planner's zone.
	start, timed := exporter.start(item, date)
	if timed {
		event.SetProperty(ical.ComponentPropertyDtStart, start.Format(icalDateTimeLayout), exporter.tzid())
		event.SetProperty(ical.ComponentPropertyDtEnd, exporter.end(item, date, start).Format(icalDateTimeLayout), exporter.tzid())
	} else {
		event.SetAllDayStartAt(start)
		event.SetAllDayEndAt(start.AddDate(0, 0, 1))
	}
	return event
}

func (exporter *ICalExporter) tzid() ical.PropertyParameter {
	return ical.WithTZID(exporter.location.String())
}

// start reports whether the item is timed. Tasks and appointments without a
// start time are all-day events.
func (exporter *ICalExporter) start(item models.Item, date recurrence.Date) (time.Time, bool) {
	if item.Details.StartTime == "" {
		return date.Time(time.UTC), false
	}
	return exporter.at(date, item.Details.StartTime), true
}

func (exporter *ICalExporter) end(item models.Item, date recurrence.Date, start time.Time) time.Time {
	if item.Details.EndTime == "" {
		return start.Add(time.Hour)
	}
	return exporter.at(date, item.Details.EndTime)
}

func (exporter *ICalExporter) at(date recurrence.Date, clock string) time.Time {
	parsed, err := time.Parse(clockLayout, clock)
	if err != nil {
		return date.Time(exporter.location)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, exporter.location)
}
