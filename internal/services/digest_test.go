package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/services"
	"github.com/bensuskins/planner/internal/testutil"
)

func TestDigestJob_Run(t *testing.T) {
	fixture := setupPlannerService(t)
	ctx := context.Background()

	gym, err := fixture.service.CreateItem(ctx, "user-1", weeklyInput("Gym", 1, 3, 5))
	require.NoError(t, err)
	_, err = fixture.service.CreateItem(ctx, "user-1", services.ItemInput{
		Details: models.Details{Title: "Call mum"},
		Date:    day("2026-01-14"),
	})
	require.NoError(t, err)
	_, err = fixture.service.CreateItem(ctx, "user-2", weeklyInput("Piano", 2))
	require.NoError(t, err)

	_, err = fixture.service.Toggle(ctx, "user-1", gym.ID+"@2026-01-14")
	require.NoError(t, err)

	job := services.NewDigestJob(fixture.itemRepo, fixture.service, time.UTC).
		WithClock(testutil.FixedClock(testNow))

	digests, err := job.Run(ctx)
	require.NoError(t, err)

	require.Len(t, digests, 2)
	assert.Equal(t, services.Digest{UserID: "user-1", Date: day("2026-01-14"), Due: 1, Completed: 1}, digests[0])
	assert.Equal(t, services.Digest{UserID: "user-2", Date: day("2026-01-14")}, digests[1])
}

func TestDigestJob_RunUsesLocation(t *testing.T) {
	fixture := setupPlannerService(t)
	ctx := context.Background()

	_, err := fixture.service.CreateItem(ctx, "user-1", services.ItemInput{
		Details: models.Details{Title: "Late"},
		Date:    day("2026-01-15"),
	})
	require.NoError(t, err)

	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on the 14th is already the 15th in Tokyo.
	job := services.NewDigestJob(fixture.itemRepo, fixture.service, tokyo).
		WithClock(testutil.FixedClock(time.Date(2026, 1, 14, 20, 0, 0, 0, time.UTC)))

	digests, err := job.Run(ctx)
	require.NoError(t, err)
	require.Len(t, digests, 1)
	assert.Equal(t, day("2026-01-15"), digests[0].Date)
	assert.Equal(t, 1, digests[0].Due)
}

func TestDigestJob_Schedule(t *testing.T) {
	fixture := setupPlannerService(t)
	job := services.NewDigestJob(fixture.itemRepo, fixture.service, time.UTC)

	scheduler, err := job.Schedule("0 7 * * *")
	require.NoError(t, err)
	assert.Len(t, scheduler.Entries(), 1)

	_, err = job.Schedule("not a schedule")
	assert.Error(t, err)
}
