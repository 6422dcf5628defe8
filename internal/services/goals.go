package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/bensuskins/planner/internal/repository"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrInvalidGoal  = errors.New("invalid goal")
)

type GoalInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	TargetDate  recurrence.Date `json:"target_date,omitzero"`
	Progress    int             `json:"progress"`
	Completed   bool            `json:"completed"`
}

type GoalService struct {
	goalRepo repository.GoalRepository
}

func NewGoalService(goalRepo repository.GoalRepository) *GoalService {
	return &GoalService{goalRepo: goalRepo}
}

func (service *GoalService) List(ctx context.Context, userID string) ([]models.Goal, error) {
	goals, err := service.goalRepo.FindAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding goals: %w", err)
	}
	return goals, nil
}

func (service *GoalService) Create(ctx context.Context, userID string, input GoalInput) (models.Goal, error) {
	goal, err := goalFrom(input)
	if err != nil {
		return models.Goal{}, err
	}
	goal.UserID = userID

	created, err := service.goalRepo.Create(ctx, goal)
	if err != nil {
		return models.Goal{}, fmt.Errorf("creating goal: %w", err)
	}
	return created, nil
}

func (service *GoalService) Update(ctx context.Context, userID, id string, input GoalInput) (models.Goal, error) {
	existing, err := service.find(ctx, userID, id)
	if err != nil {
		return models.Goal{}, err
	}

	goal, err := goalFrom(input)
	if err != nil {
		return models.Goal{}, err
	}
	goal.ID = existing.ID
	goal.UserID = existing.UserID
	goal.CreatedAt = existing.CreatedAt

	if err := service.goalRepo.Update(ctx, goal); err != nil {
		return models.Goal{}, fmt.Errorf("updating goal: %w", err)
	}
	return service.find(ctx, userID, id)
}

func (service *GoalService) Delete(ctx context.Context, userID, id string) error {
	if _, err := service.find(ctx, userID, id); err != nil {
		return err
	}
	if err := service.goalRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	return nil
}

func (service *GoalService) find(ctx context.Context, userID, id string) (models.Goal, error) {
	goal, err := service.goalRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && goal.UserID != userID) {
		return models.Goal{}, fmt.Errorf("%w: %s", ErrGoalNotFound, id)
	}
	if err != nil {
		return models.Goal{}, fmt.Errorf("finding goal: %w", err)
	}
	return goal, nil
}

// goalFrom validates input. A goal is completed exactly when its progress is
// 100; marking it completed fills the progress.
func goalFrom(input GoalInput) (models.Goal, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Goal{}, fmt.Errorf("%w: title is required", ErrInvalidGoal)
	}
	if input.Progress < 0 || input.Progress > 100 {
		return models.Goal{}, fmt.Errorf("%w: progress must be within 0-100, got %d", ErrInvalidGoal, input.Progress)
	}

	progress := input.Progress
	if input.Completed {
		progress = 100
	}
	return models.Goal{
		Title:       title,
		Description: input.Description,
		TargetDate:  input.TargetDate,
		Progress:    progress,
		Completed:   progress == 100,
	}, nil
}
