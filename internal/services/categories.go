package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/repository"
)

// categoriesSeededSetting marks users who already received the starter
// categories, so deleting them all does not bring them back.
const categoriesSeededSetting = "categories_seeded"

var defaultCategories = []models.Category{
	{Name: "Work", Color: "#3b82f6"},
	{Name: "Personal", Color: "#10b981"},
	{Name: "Health", Color: "#06b6d4"},
	{Name: "Study", Color: "#8b5cf6"},
}

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	settingsRepo repository.SettingsRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository, settingsRepo repository.SettingsRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, settingsRepo: settingsRepo}
}

// List returns the user's categories. The first call for a user without any
// creates the starter set.
func (service *CategoryService) List(ctx context.Context, userID string) ([]models.Category, error) {
	categories, err := service.categoryRepo.FindAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding categories: %w", err)
	}

	_, err = service.settingsRepo.Get(ctx, userID, categoriesSeededSetting)
	if err == nil {
		return categories, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("finding seeded flag: %w", err)
	}

	if len(categories) == 0 {
		for _, category := range defaultCategories {
			category.UserID = userID
			if _, err := service.categoryRepo.Create(ctx, category); err != nil {
				return nil, fmt.Errorf("seeding categories: %w", err)
			}
		}
		slog.Info("seeded default categories", "user_id", userID)
	}
	if err := service.settingsRepo.Set(ctx, userID, categoriesSeededSetting, "true"); err != nil {
		return nil, fmt.Errorf("marking categories seeded: %w", err)
	}

	if len(categories) > 0 {
		return categories, nil
	}
	return service.categoryRepo.FindAll(ctx, userID)
}
