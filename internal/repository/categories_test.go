package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/repository"
	"github.com/bensuskins/planner/internal/testutil"
)

func TestCategoryRepository_CreateAndFindAll(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	categoryRepo := repository.NewCategoryRepository(db)
	ctx := context.Background()

	category, err := categoryRepo.Create(ctx, models.Category{
		UserID: "user-1",
		Name:   "Health",
		Color:  "#22c55e",
		Icon:   "heart",
	})
	if err != nil {
		t.Fatalf("creating category: %v", err)
	}
	if category.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	categoryRepo.Create(ctx, models.Category{UserID: "user-2", Name: "Other user", Color: "#000000"})

	categories, err := categoryRepo.FindAll(ctx, "user-1")
	if err != nil {
		t.Fatalf("finding categories: %v", err)
	}
	if len(categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(categories))
	}
	if categories[0].Name != "Health" || categories[0].Icon != "heart" {
		t.Errorf("expected 'Health' with icon, got %+v", categories[0])
	}
}

func TestCategoryRepository_Update(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	categoryRepo := repository.NewCategoryRepository(db)
	ctx := context.Background()

	created, _ := categoryRepo.Create(ctx, models.Category{
		UserID: "user-1", Name: "Old Name", Color: "#111111",
	})

	created.Name = "New Name"
	created.Color = "#222222"
	if err := categoryRepo.Update(ctx, created); err != nil {
		t.Fatalf("updating category: %v", err)
	}

	found, _ := categoryRepo.FindByID(ctx, created.ID)
	if found.Name != "New Name" || found.Color != "#222222" {
		t.Errorf("expected updated name and color, got %+v", found)
	}
}

func TestCategoryRepository_Delete(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	categoryRepo := repository.NewCategoryRepository(db)
	ctx := context.Background()

	created, _ := categoryRepo.Create(ctx, models.Category{
		UserID: "user-1", Name: "To Delete", Color: "#111111",
	})

	if err := categoryRepo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("deleting category: %v", err)
	}

	categories, _ := categoryRepo.FindAll(ctx, "user-1")
	if len(categories) != 0 {
		t.Errorf("expected 0 categories after delete, got %d", len(categories))
	}

	if err := categoryRepo.Delete(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestCategoryRepository_FindByID_NotFound(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	categoryRepo := repository.NewCategoryRepository(db)

	_, err := categoryRepo.FindByID(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryRepository_DeleteKeepsItems(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	categoryRepo := repository.NewCategoryRepository(db)
	itemRepo := repository.NewItemRepository(db)
	ctx := context.Background()

	category, _ := categoryRepo.Create(ctx, models.Category{UserID: "user-1", Name: "Work", Color: "#111111"})
	item := createTestItem(t, itemRepo, func(item *models.Item) {
		item.Details.CategoryID = category.ID
	})

	if err := categoryRepo.Delete(ctx, category.ID); err != nil {
		t.Fatalf("deleting category: %v", err)
	}

	found, err := itemRepo.FindByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("finding item after category delete: %v", err)
	}
	if found.Details.CategoryID != "" {
		t.Errorf("expected category to be cleared, got %q", found.Details.CategoryID)
	}
}
