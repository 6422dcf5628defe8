package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/bensuskins/planner/internal/repository"
	"github.com/robfig/cron/v3"
)

type Digest struct {
	UserID    string
	Date      recurrence.Date
	Due       int
	Completed int
}

// DigestJob summarizes what every user has planned for the current day.
type DigestJob struct {
	itemRepo repository.ItemRepository
	planner  *PlannerService
	location *time.Location
	now      func() time.Time
}

func NewDigestJob(itemRepo repository.ItemRepository, planner *PlannerService, location *time.Location) *DigestJob {
	return &DigestJob{
		itemRepo: itemRepo,
		planner:  planner,
		location: location,
		now:      time.Now,
	}
}

func (job *DigestJob) WithClock(now func() time.Time) *DigestJob {
	job.now = now
	return job
}

func (job *DigestJob) Run(ctx context.Context) ([]Digest, error) {
	today := recurrence.DateOf(job.now().In(job.location))

	items, err := job.itemRepo.FindAll(ctx, repository.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("finding items for digest: %w", err)
	}

	var userIDs []string
	for _, item := range items {
		userIDs = append(userIDs, item.UserID)
	}
	slices.Sort(userIDs)
	userIDs = slices.Compact(userIDs)

	digests := make([]Digest, 0, len(userIDs))
	for _, userID := range userIDs {
		instances, err := job.planner.InstancesOn(ctx, userID, today)
		if err != nil {
			return digests, fmt.Errorf("expanding digest for %s: %w", userID, err)
		}

		digest := Digest{UserID: userID, Date: today}
		for _, instance := range instances {
			if instance.Completed {
				digest.Completed++
			} else {
				digest.Due++
			}
		}
		slog.Info("daily digest", "user_id", userID, "date", today, "due", digest.Due, "completed", digest.Completed)
		digests = append(digests, digest)
	}
	return digests, nil
}

// Schedule registers the job on a cron scheduler running in the job's
// location. The caller starts and stops the scheduler.
func (job *DigestJob) Schedule(spec string) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithLocation(job.location))
	_, err := scheduler.AddFunc(spec, func() {
		if _, err := job.Run(context.Background()); err != nil {
			slog.Error("running daily digest", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling digest %q: %w", spec, err)
	}
	return scheduler, nil
}
