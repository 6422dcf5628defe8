package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bensuskins/planner/internal/models"
	"github.com/google/uuid"
)

type GoalRepository interface {
	FindByID(ctx context.Context, id string) (models.Goal, error)
	FindAll(ctx context.Context, userID string) ([]models.Goal, error)
	Create(ctx context.Context, goal models.Goal) (models.Goal, error)
	Update(ctx context.Context, goal models.Goal) error
	Delete(ctx context.Context, id string) error
}

type SQLiteGoalRepository struct {
	database *sql.DB
}

func NewGoalRepository(database *sql.DB) *SQLiteGoalRepository {
	return &SQLiteGoalRepository{database: database}
}

const goalColumns = "id, user_id, title, description, target_date, progress, completed, created_at, updated_at"

func scanGoal(row rowScanner) (models.Goal, error) {
	var goal models.Goal
	err := row.Scan(
		&goal.ID, &goal.UserID, &goal.Title, &goal.Description, &goal.TargetDate,
		&goal.Progress, &goal.Completed, &goal.CreatedAt, &goal.UpdatedAt,
	)
	return goal, err
}

func (repository *SQLiteGoalRepository) FindByID(ctx context.Context, id string) (models.Goal, error) {
	goal, err := scanGoal(repository.database.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Goal{}, fmt.Errorf("finding goal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Goal{}, fmt.Errorf("finding goal by id: %w", err)
	}
	return goal, nil
}

// FindAll orders goals by target date, goals without one last.
func (repository *SQLiteGoalRepository) FindAll(ctx context.Context, userID string) ([]models.Goal, error) {
	rows, err := repository.database.QueryContext(ctx,
		"SELECT "+goalColumns+` FROM goals WHERE user_id = ?
		ORDER BY target_date IS NULL, target_date ASC, created_at ASC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (repository *SQLiteGoalRepository) Create(ctx context.Context, goal models.Goal) (models.Goal, error) {
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	now := time.Now()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		"INSERT INTO goals ("+goalColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		goal.ID, goal.UserID, goal.Title, goal.Description, goal.TargetDate,
		goal.Progress, goal.Completed, goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return models.Goal{}, fmt.Errorf("creating goal: %w", err)
	}
	return goal, nil
}

func (repository *SQLiteGoalRepository) Update(ctx context.Context, goal models.Goal) error {
	result, err := repository.database.ExecContext(ctx,
		`UPDATE goals SET title = ?, description = ?, target_date = ?, progress = ?, completed = ?, updated_at = ?
		WHERE id = ?`,
		goal.Title, goal.Description, goal.TargetDate, goal.Progress, goal.Completed, time.Now(), goal.ID,
	)
	if err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}
	return requireAffected(result, fmt.Errorf("updating goal %s: %w", goal.ID, ErrNotFound))
}

func (repository *SQLiteGoalRepository) Delete(ctx context.Context, id string) error {
	result, err := repository.database.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	return requireAffected(result, fmt.Errorf("deleting goal %s: %w", id, ErrNotFound))
}
