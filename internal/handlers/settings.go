package handlers

import (
	"net/http"
	"strings"

	"github.com/bensuskins/planner/internal/middleware"
	"github.com/bensuskins/planner/internal/repository"
	"github.com/bensuskins/planner/internal/services"
)

var settingKeys = map[string]bool{
	services.CalendarNameSetting: true,
}

type SettingsHandler struct {
	settingsRepo repository.SettingsRepository
}

func NewSettingsHandler(settingsRepo repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settingsRepo: settingsRepo}
}

func (handler *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings, err := handler.settingsRepo.All(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, "finding settings", err)
		return
	}
	// Other keys are bookkeeping, not user preferences.
	for key := range settings {
		if !settingKeys[key] {
			delete(settings, key)
		}
	}
	writeJSON(w, http.StatusOK, settings)
}

// Update stores every key in the body. Unknown keys reject the whole request.
func (handler *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var input map[string]string
	if !readJSON(w, r, &input) {
		return
	}
	for key := range input {
		if !settingKeys[key] {
			writeMessage(w, http.StatusBadRequest, "unknown setting "+key)
			return
		}
	}

	for key, value := range input {
		if err := handler.settingsRepo.Set(ctx, userID, key, strings.TrimSpace(value)); err != nil {
			writeError(w, "updating settings", err)
			return
		}
	}
	handler.Get(w, r)
}
