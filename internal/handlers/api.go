package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/bensuskins/planner/internal/repository"
	"github.com/bensuskins/planner/internal/services"
)

// maxBodyBytes caps request bodies; items and goals are small.
const maxBodyBytes = 1 << 20

var errInvalidQuery = errors.New("invalid query")

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps service errors to a status code. Anything unrecognised is
// logged and reported as a 500 without its message.
func writeError(w http.ResponseWriter, action string, err error) {
	var validation *recurrence.ValidationError
	switch {
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrGoalNotFound),
		errors.Is(err, repository.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidItem),
		errors.Is(err, services.ErrInvalidGoal),
		errors.Is(err, services.ErrInvalidScope),
		errors.Is(err, services.ErrOccurrenceRequired),
		errors.Is(err, recurrence.ErrInvalidRef),
		errors.Is(err, recurrence.ErrInvalidWindow),
		errors.Is(err, errInvalidQuery),
		errors.As(err, &validation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(action, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed "+action)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// dateParam parses an optional YYYY-MM-DD query value, falling back to
// fallback when it is absent.
func dateParam(r *http.Request, name string, fallback recurrence.Date) (recurrence.Date, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback, nil
	}
	date, err := recurrence.ParseDate(value)
	if err != nil {
		return recurrence.Date{}, fmt.Errorf("%w: %s: %w", errInvalidQuery, name, err)
	}
	return date, nil
}

// clock is shared by the handlers that need to know what day it is.
type clock struct {
	location *time.Location
	now      func() time.Time
}

func (c clock) today() recurrence.Date {
	return recurrence.DateOf(c.now().In(c.location))
}
