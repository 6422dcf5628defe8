package handlers

import (
	"net/http"
	"time"

	"github.com/bensuskins/planner/internal/middleware"
	"github.com/bensuskins/planner/internal/services"
)

type StatsHandler struct {
	stats *services.StatsService
	clock clock
}

func NewStatsHandler(stats *services.StatsService, location *time.Location) *StatsHandler {
	return &StatsHandler{stats: stats, clock: clock{location: location, now: time.Now}}
}

func (handler *StatsHandler) WithClock(now func() time.Time) *StatsHandler {
	handler.clock.now = now
	return handler
}

// Productivity reports completion rates for the day, week and month around
// ?date=, today by default.
func (handler *StatsHandler) Productivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := dateParam(r, "date", handler.clock.today())
	if err != nil {
		writeError(w, "calculating stats", err)
		return
	}

	stats, err := handler.stats.Productivity(ctx, middleware.GetUserID(ctx), date)
	if err != nil {
		writeError(w, "calculating stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
