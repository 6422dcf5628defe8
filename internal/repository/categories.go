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

type CategoryRepository interface {
	FindByID(ctx context.Context, id string) (models.Category, error)
	FindAll(ctx context.Context, userID string) ([]models.Category, error)
	Create(ctx context.Context, category models.Category) (models.Category, error)
	Update(ctx context.Context, category models.Category) error
	Delete(ctx context.Context, id string) error
}

type SQLiteCategoryRepository struct {
	database *sql.DB
}

func NewCategoryRepository(database *sql.DB) *SQLiteCategoryRepository {
	return &SQLiteCategoryRepository{database: database}
}

func (repository *SQLiteCategoryRepository) FindByID(ctx context.Context, id string) (models.Category, error) {
	var category models.Category
	err := repository.database.QueryRowContext(ctx,
		"SELECT id, user_id, name, color, icon, created_at, updated_at FROM categories WHERE id = ?", id,
	).Scan(&category.ID, &category.UserID, &category.Name, &category.Color, &category.Icon, &category.CreatedAt, &category.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, fmt.Errorf("finding category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("finding category by id: %w", err)
	}
	return category, nil
}

func (repository *SQLiteCategoryRepository) FindAll(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := repository.database.QueryContext(ctx,
		"SELECT id, user_id, name, color, icon, created_at, updated_at FROM categories WHERE user_id = ? ORDER BY name",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding all categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.UserID, &category.Name, &category.Color, &category.Icon, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (repository *SQLiteCategoryRepository) Create(ctx context.Context, category models.Category) (models.Category, error) {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		"INSERT INTO categories (id, user_id, name, color, icon, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		category.ID, category.UserID, category.Name, category.Color, category.Icon, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return models.Category{}, fmt.Errorf("creating category: %w", err)
	}
	return category, nil
}

func (repository *SQLiteCategoryRepository) Update(ctx context.Context, category models.Category) error {
	result, err := repository.database.ExecContext(ctx,
		"UPDATE categories SET name = ?, color = ?, icon = ?, updated_at = ? WHERE id = ?",
		category.Name, category.Color, category.Icon, time.Now(), category.ID,
	)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	return requireAffected(result, fmt.Errorf("updating category %s: %w", category.ID, ErrNotFound))
}

// Delete removes the category. Items that used it keep existing without one.
func (repository *SQLiteCategoryRepository) Delete(ctx context.Context, id string) error {
	result, err := repository.database.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return requireAffected(result, fmt.Errorf("deleting category %s: %w", id, ErrNotFound))
}
