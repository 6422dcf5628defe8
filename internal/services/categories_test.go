package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/services"
)

func categoryNames(categories []models.Category) []string {
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, category.Name)
	}
	return names
}

func TestCategoryService_SeedsStarterCategoriesOnce(t *testing.T) {
	fixture := setupPlannerService(t)
	service := services.NewCategoryService(fixture.categoryRepo, fixture.settingsRepo)
	ctx := context.Background()

	categories, err := service.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Health", "Personal", "Study", "Work"}, categoryNames(categories))
	for _, category := range categories {
		assert.Equal(t, "user-1", category.UserID)
	}

	again, err := service.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, again, 4)

	for _, category := range again {
		require.NoError(t, fixture.categoryRepo.Delete(ctx, category.ID))
	}
	emptied, err := service.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, emptied)

	other, err := service.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other, 4)
}

func TestCategoryService_KeepsExistingCategories(t *testing.T) {
	fixture := setupPlannerService(t)
	service := services.NewCategoryService(fixture.categoryRepo, fixture.settingsRepo)
	ctx := context.Background()

	_, err := fixture.categoryRepo.Create(ctx, models.Category{UserID: "user-1", Name: "Garden", Color: "#22c55e"})
	require.NoError(t, err)

	categories, err := service.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Garden"}, categoryNames(categories))

	for _, category := range categories {
		require.NoError(t, fixture.categoryRepo.Delete(ctx, category.ID))
	}
	emptied, err := service.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, emptied)
}
