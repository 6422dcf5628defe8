package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/services"
)

func TestCategoryHandler_Lifecycle(t *testing.T) {
	router := newTestRouter(t)

	starters := do(t, router, http.MethodGet, "/api/categories", "user-1", "")
	require.Equal(t, http.StatusOK, starters.Code)
	seeded := decode[[]models.Category](t, starters)
	require.Len(t, seeded, 4)
	for _, category := range seeded {
		require.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/categories/"+category.ID, "user-1", "").Code)
	}
	assert.JSONEq(t, "[]", do(t, router, http.MethodGet, "/api/categories", "user-1", "").Body.String())

	created := do(t, router, http.MethodPost, "/api/categories", "user-1", `{"name":"Health"}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	category := decode[models.Category](t, created)
	assert.Equal(t, "#3b82f6", category.Color)
	assert.Equal(t, "user-1", category.UserID)

	updated := do(t, router, http.MethodPut, "/api/categories/"+category.ID, "user-1", `{"name":"Fitness","color":"#22c55e","icon":"dumbbell"}`)
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	renamed := decode[models.Category](t, updated)
	assert.Equal(t, "Fitness", renamed.Name)
	assert.Equal(t, "dumbbell", renamed.Icon)

	assert.Equal(t, http.StatusNotFound,
		do(t, router, http.MethodPut, "/api/categories/"+category.ID, "user-2", `{"name":"Mine now"}`).Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, router, http.MethodDelete, "/api/categories/"+category.ID, "user-2", "").Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, router, http.MethodPost, "/api/categories", "user-1", `{"name":"  "}`).Code)

	require.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/categories/"+category.ID, "user-1", "").Code)
	assert.JSONEq(t, "[]", do(t, router, http.MethodGet, "/api/categories", "user-1", "").Body.String())
}

func TestGoalHandler_Lifecycle(t *testing.T) {
	router := newTestRouter(t)

	created := do(t, router, http.MethodPost, "/api/goals", "user-1", `{"title":"Run a 10k","target_date":"2026-06-01","progress":40}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	goal := decode[models.Goal](t, created)
	assert.Equal(t, 40, goal.Progress)
	assert.Equal(t, "2026-06-01", goal.TargetDate.String())

	updated := do(t, router, http.MethodPut, "/api/goals/"+goal.ID, "user-1", `{"title":"Run a 10k","completed":true}`)
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	done := decode[models.Goal](t, updated)
	assert.True(t, done.Completed)
	assert.Equal(t, 100, done.Progress)

	assert.Equal(t, http.StatusBadRequest,
		do(t, router, http.MethodPost, "/api/goals", "user-1", `{"title":"Overachieve","progress":150}`).Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, router, http.MethodDelete, "/api/goals/"+goal.ID, "user-2", "").Code)

	listed := decode[[]models.Goal](t, do(t, router, http.MethodGet, "/api/goals", "user-1", ""))
	require.Len(t, listed, 1)

	require.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/goals/"+goal.ID, "user-1", "").Code)
	assert.JSONEq(t, "[]", do(t, router, http.MethodGet, "/api/goals", "user-1", "").Body.String())
}

func TestStatsHandler_Productivity(t *testing.T) {
	router := newTestRouter(t)
	item := decode[itemJSON](t, do(t, router, http.MethodPost, "/api/items", "user-1", weeklyGym))
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/items/"+item.ID+"@2026-01-14/toggle", "user-1", "").Code)

	recorder := do(t, router, http.MethodGet, "/api/stats", "user-1", "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	stats := decode[services.ProductivityStats](t, recorder)
	assert.Equal(t, services.Bucket{Completed: 1, Total: 1, Percentage: 100}, stats.Daily)
	assert.Equal(t, services.Bucket{Completed: 1, Total: 3, Percentage: 33}, stats.Weekly)
	assert.Equal(t, services.Bucket{Completed: 1, Total: 12, Percentage: 8}, stats.Monthly)

	other := decode[services.ProductivityStats](t, do(t, router, http.MethodGet, "/api/stats?date=2026-01-13", "user-1", ""))
	assert.Equal(t, services.Bucket{}, other.Daily)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/stats?date=soon", "user-1", "").Code)
}
