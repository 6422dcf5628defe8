package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bensuskins/planner/internal/middleware"
	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/services"
	"github.com/go-chi/chi/v5"
)

type ICalHandler struct {
	exporter *services.ICalExporter
	tokens   *services.FeedTokenService
}

func NewICalHandler(exporter *services.ICalExporter, tokens *services.FeedTokenService) *ICalHandler {
	return &ICalHandler{exporter: exporter, tokens: tokens}
}

// Feed serves the calendar of the user ?token= was issued to. Calendar
// clients cannot send custom headers, so this route is not behind
// RequireUser.
func (handler *ICalHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := handler.tokens.Resolve(ctx, r.URL.Query().Get("token"))
	if errors.Is(err, services.ErrInvalidFeedToken) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err != nil {
		slog.Error("resolving feed token", "error", err)
		http.Error(w, "Error", http.StatusInternalServerError)
		return
	}

	feed, err := handler.exporter.Feed(ctx, userID)
	if err != nil {
		slog.Error("building ical feed", "error", err)
		http.Error(w, "Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=planner.ics")
	w.Write([]byte(feed))
}

type feedTokenInput struct {
	Name string `json:"name"`
	// ExpiresInDays of zero never expires.
	ExpiresInDays int `json:"expires_in_days,omitempty"`
}

type issuedFeedToken struct {
	models.FeedToken
	Token string `json:"token"`
}

func (handler *ICalHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokens, err := handler.tokens.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, "finding feed tokens", err)
		return
	}
	if tokens == nil {
		tokens = []models.FeedToken{}
	}
	writeJSON(w, http.StatusOK, tokens)
}

// CreateToken returns the raw token once; only its hash is kept.
func (handler *ICalHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input feedTokenInput
	if !readJSON(w, r, &input) {
		return
	}

	ttl := time.Duration(input.ExpiresInDays) * 24 * time.Hour
	token, raw, err := handler.tokens.Issue(ctx, middleware.GetUserID(ctx), input.Name, ttl)
	if errors.Is(err, services.ErrInvalidFeedToken) {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, "creating feed token", err)
		return
	}
	writeJSON(w, http.StatusCreated, issuedFeedToken{FeedToken: token, Token: raw})
}

func (handler *ICalHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := handler.tokens.Revoke(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id"))
	if errors.Is(err, services.ErrFeedTokenNotFound) {
		writeMessage(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, "deleting feed token", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
