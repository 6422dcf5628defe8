package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	_ "time/tzdata"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/bensuskins/planner/internal/services"
)

func eventsByUID(t *testing.T, feed string) map[string]*ical.VEvent {
	t.Helper()
	calendar, err := ical.ParseCalendar(strings.NewReader(feed))
	require.NoError(t, err)

	events := make(map[string]*ical.VEvent)
	for _, event := range calendar.Events() {
		uid := event.GetProperty(ical.ComponentPropertyUniqueId)
		require.NotNil(t, uid)
		events[uid.Value] = event
	}
	return events
}

func TestICalExporter_Feed(t *testing.T) {
	fixture := setupPlannerService(t)
	exporter := services.NewICalExporter(fixture.itemRepo, fixture.categoryRepo, fixture.settingsRepo, time.UTC)
	ctx := context.Background()

	health, err := fixture.categoryRepo.Create(ctx, models.Category{UserID: "user-1", Name: "Health", Color: "#22c55e"})
	require.NoError(t, err)

	gym := weeklyInput("Gym", 1, 3, 5)
	gym.CategoryID = health.ID
	gym.Recurrence.EndType = recurrence.EndAfter
	gym.Recurrence.Occurrences = 10
	gymItem, err := fixture.service.CreateItem(ctx, "user-1", gym)
	require.NoError(t, err)
	require.NoError(t, fixture.service.SkipOccurrence(ctx, "user-1", gymItem.ID+"@2026-01-07"))

	dentist, err := fixture.service.CreateItem(ctx, "user-1", services.ItemInput{
		Details: models.Details{Kind: models.KindAppointment, Title: "Dentist", Location: "Clinic", StartTime: "08:30", EndTime: "09:15"},
		Date:    day("2026-01-07"),
	})
	require.NoError(t, err)

	_, err = fixture.service.CreateItem(ctx, "user-2", weeklyInput("Not mine", 1))
	require.NoError(t, err)

	feed, err := exporter.Feed(ctx, "user-1")
	require.NoError(t, err)

	events := eventsByUID(t, feed)
	require.Len(t, events, 2)

	gymEvent := events[gymItem.ID+"@planner"]
	require.NotNil(t, gymEvent)
	assert.Equal(t, "Gym", gymEvent.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "20260105", gymEvent.GetProperty(ical.ComponentPropertyDtStart).Value)
	rrule := gymEvent.GetProperty(ical.ComponentPropertyRrule).Value
	assert.Contains(t, rrule, "FREQ=WEEKLY")
	assert.Contains(t, rrule, "BYDAY=MO,WE,FR")
	assert.Contains(t, rrule, "COUNT=10")
	assert.Equal(t, "20260107", gymEvent.GetProperty(ical.ComponentPropertyExdate).Value)
	assert.Equal(t, "Health", gymEvent.GetProperty(ical.ComponentPropertyCategories).Value)

	dentistEvent := events[dentist.ID+"@planner"]
	require.NotNil(t, dentistEvent)
	assert.Equal(t, "Clinic", dentistEvent.GetProperty(ical.ComponentPropertyLocation).Value)
	assert.Nil(t, dentistEvent.GetProperty(ical.ComponentPropertyRrule))
	start, err := dentistEvent.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2026, 1, 7, 8, 30, 0, 0, time.UTC)))
	end, err := dentistEvent.GetEndAt()
	require.NoError(t, err)
	assert.True(t, end.Equal(time.Date(2026, 1, 7, 9, 15, 0, 0, time.UTC)))
}

func TestICalExporter_EmptyFeed(t *testing.T) {
	fixture := setupPlannerService(t)
	exporter := services.NewICalExporter(fixture.itemRepo, fixture.categoryRepo, fixture.settingsRepo, time.UTC)

	feed, err := exporter.Feed(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Contains(t, feed, "BEGIN:VCALENDAR")
	assert.Contains(t, feed, "X-WR-CALNAME:Planner")
	assert.Empty(t, eventsByUID(t, feed))
}

func TestICalExporter_CalendarName(t *testing.T) {
	fixture := setupPlannerService(t)
	exporter := services.NewICalExporter(fixture.itemRepo, fixture.categoryRepo, fixture.settingsRepo, time.UTC)
	ctx := context.Background()

	require.NoError(t, fixture.settingsRepo.Set(ctx, "user-1", services.CalendarNameSetting, "Work"))

	feed, err := exporter.Feed(ctx, "user-1")
	require.NoError(t, err)
	assert.Contains(t, feed, "X-WR-CALNAME:Work")

	other, err := exporter.Feed(ctx, "user-2")
	require.NoError(t, err)
	assert.Contains(t, other, "X-WR-CALNAME:Planner")
}

func TestICalExporter_TimedEventsUseLocalZone(t *testing.T) {
	losAngeles, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	fixture := setupPlannerService(t)
	exporter := services.NewICalExporter(fixture.itemRepo, fixture.categoryRepo, fixture.settingsRepo, losAngeles)
	ctx := context.Background()

	// 23:30 on a Monday in Los Angeles is already Tuesday in UTC.
	call := weeklyInput("Late call", 1)
	call.Details.Kind = models.KindAppointment
	call.Details.StartTime = "23:30"
	call.Details.EndTime = "23:45"
	item, err := fixture.service.CreateItem(ctx, "user-1", call)
	require.NoError(t, err)
	require.NoError(t, fixture.service.SkipOccurrence(ctx, "user-1", item.ID+"@2026-01-12"))

	feed, err := exporter.Feed(ctx, "user-1")
	require.NoError(t, err)
	assert.Contains(t, feed, "X-WR-TIMEZONE:America/Los_Angeles")

	event := eventsByUID(t, feed)[item.ID+"@planner"]
	require.NotNil(t, event)

	dtstart := event.GetProperty(ical.ComponentPropertyDtStart)
	assert.Equal(t, "20260105T233000", dtstart.Value)
	assert.Equal(t, []string{"America/Los_Angeles"}, dtstart.ICalParameters["TZID"])
	start, err := event.GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, 23, start.Hour())

	exdate := event.GetProperty(ical.ComponentPropertyExdate)
	require.NotNil(t, exdate)
	assert.Equal(t, "20260112T233000", exdate.Value)
	assert.Equal(t, []string{"America/Los_Angeles"}, exdate.ICalParameters["TZID"])

	set, err := rrule.StrSliceToRRuleSetInLoc([]string{
		"DTSTART;TZID=America/Los_Angeles:" + dtstart.Value,
		"RRULE:" + event.GetProperty(ical.ComponentPropertyRrule).Value,
		"EXDATE;TZID=America/Los_Angeles:" + exdate.Value,
	}, losAngeles)
	require.NoError(t, err)

	summer := set.After(time.Date(2026, 7, 1, 0, 0, 0, 0, losAngeles), true).In(losAngeles)
	assert.True(t, summer.Equal(time.Date(2026, 7, 6, 23, 30, 0, 0, losAngeles)), summer.String())
	assert.Empty(t, set.Between(
		time.Date(2026, 1, 12, 0, 0, 0, 0, losAngeles),
		time.Date(2026, 1, 13, 0, 0, 0, 0, losAngeles), true))
}

func TestICalExporter_OffPatternAnchorIsItsOwnEvent(t *testing.T) {
	fixture := setupPlannerService(t)
	exporter := services.NewICalExporter(fixture.itemRepo, fixture.categoryRepo, fixture.settingsRepo, time.UTC)
	ctx := context.Background()

	rent, err := fixture.service.CreateItem(ctx, "user-1", services.ItemInput{
		Details: models.Details{Kind: models.KindTask, Title: "Rent"},
		Date:    day("2026-01-10"),
		Recurrence: &recurrence.Config{
			Frequency:   recurrence.FrequencyMonthly,
			MonthlyType: recurrence.MonthlyOnDay,
			DayOfMonth:  20,
			EndType:     recurrence.EndAfter,
			Occurrences: 4,
		},
	})
	require.NoError(t, err)

	feed, err := exporter.Feed(ctx, "user-1")
	require.NoError(t, err)
	events := eventsByUID(t, feed)
	require.Len(t, events, 2)

	first := events[rent.ID+"-2026-01-10@planner"]
	require.NotNil(t, first)
	assert.Equal(t, "20260110", first.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Nil(t, first.GetProperty(ical.ComponentPropertyRrule))

	series := events[rent.ID+"@planner"]
	require.NotNil(t, series)
	assert.Equal(t, "20260220", series.GetProperty(ical.ComponentPropertyDtStart).Value)
	rule := series.GetProperty(ical.ComponentPropertyRrule).Value
	assert.Contains(t, rule, "BYMONTHDAY=20")
	assert.Contains(t, rule, "COUNT=3")
}
