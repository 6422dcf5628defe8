package handlers

import (
	"net/http"

	"github.com/bensuskins/planner/internal/middleware"
	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/services"
	"github.com/go-chi/chi/v5"
)

type GoalHandler struct {
	goals *services.GoalService
}

func NewGoalHandler(goals *services.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

func (handler *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	goals, err := handler.goals.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, "finding goals", err)
		return
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (handler *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input services.GoalInput
	if !readJSON(w, r, &input) {
		return
	}

	created, err := handler.goals.Create(ctx, middleware.GetUserID(ctx), input)
	if err != nil {
		writeError(w, "creating goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input services.GoalInput
	if !readJSON(w, r, &input) {
		return
	}

	updated, err := handler.goals.Update(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, "updating goal", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (handler *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := handler.goals.Delete(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id")); err != nil {
		writeError(w, "deleting goal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
