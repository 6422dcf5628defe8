package services

import (
	"context"
	"fmt"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/bensuskins/planner/internal/repository"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Bucket struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type CategoryStats struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
}

type ProductivityStats struct {
	Daily      Bucket          `json:"daily"`
	Weekly     Bucket          `json:"weekly"`
	Monthly    Bucket          `json:"monthly"`
	Categories []CategoryStats `json:"category_breakdown"`
}

type StatsService struct {
	planner      *PlannerService
	categoryRepo repository.CategoryRepository
}

func NewStatsService(planner *PlannerService, categoryRepo repository.CategoryRepository) *StatsService {
	return &StatsService{planner: planner, categoryRepo: categoryRepo}
}

// Productivity counts completed instances for the day, the Sunday-based week
// and the month around today. The category breakdown covers January 1st of
// last year through December 31st of next year and lists every category of
// the user, including empty ones.
func (service *StatsService) Productivity(ctx context.Context, userID string, today recurrence.Date) (ProductivityStats, error) {
	var stats ProductivityStats

	windows := []struct {
		bucket *Bucket
		window recurrence.Window
	}{
		{&stats.Daily, recurrence.DayWindow(today)},
		{&stats.Weekly, recurrence.WeekWindow(today)},
		{&stats.Monthly, recurrence.MonthWindow(today.Year(), today.Month())},
	}
	for _, entry := range windows {
		instances, err := service.planner.ListInstances(ctx, userID, entry.window, InstanceFilter{})
		if err != nil {
			return ProductivityStats{}, fmt.Errorf("counting instances: %w", err)
		}
		*entry.bucket = bucketOf(instances)
	}

	categories, err := service.categoryRepo.FindAll(ctx, userID)
	if err != nil {
		return ProductivityStats{}, fmt.Errorf("finding categories: %w", err)
	}

	breakdownWindow := recurrence.Window{
		Start: recurrence.NewDate(today.Year()-1, 1, 1),
		End:   recurrence.NewDate(today.Year()+1, 12, 31),
	}
	instances, err := service.planner.ListInstances(ctx, userID, breakdownWindow, InstanceFilter{})
	if err != nil {
		return ProductivityStats{}, fmt.Errorf("counting category instances: %w", err)
	}

	byCategory := make(map[string]Bucket, len(categories))
	for _, instance := range instances {
		bucket := byCategory[instance.Details.CategoryID]
		bucket.Total++
		if instance.Completed {
			bucket.Completed++
		}
		byCategory[instance.Details.CategoryID] = bucket
	}

	stats.Categories = make([]CategoryStats, 0, len(categories))
	for _, category := range categories {
		bucket := byCategory[category.ID]
		stats.Categories = append(stats.Categories, CategoryStats{
			CategoryID: category.ID,
			Name:       category.Name,
			Completed:  bucket.Completed,
			Total:      bucket.Total,
		})
	}
	return stats, nil
}

func bucketOf(instances []models.Instance) Bucket {
	var bucket Bucket
	for _, instance := range instances {
		bucket.Total++
		if instance.Completed {
			bucket.Completed++
		}
	}
	bucket.Percentage = Percentage(bucket.Completed, bucket.Total)
	return bucket
}

// Percentage is completed/total as a whole percent, rounded half up. An empty
// total is 0%.
func Percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	ratio := decimal.NewFromInt(int64(completed)).Mul(hundred).Div(decimal.NewFromInt(int64(total)))
	return int(ratio.Round(0).IntPart())
}
