package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bensuskins/planner/internal/middleware"
	"github.com/bensuskins/planner/internal/models"
	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/bensuskins/planner/internal/services"
	"github.com/go-chi/chi/v5"
)

type instanceView struct {
	ID     string `json:"id"`
	BaseID string `json:"base_id"`
	models.Details
	Date        recurrence.Date `json:"date"`
	Recurring   bool            `json:"recurring"`
	Completed   bool            `json:"completed"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func viewInstance(instance models.Instance) instanceView {
	return instanceView{
		ID:          instance.Ref.String(),
		BaseID:      instance.Ref.BaseID,
		Details:     instance.Details,
		Date:        instance.Date,
		Recurring:   instance.Ref.IsInstance(),
		Completed:   instance.Completed,
		CompletedAt: instance.CompletedAt,
	}
}

type itemView struct {
	ID string `json:"id"`
	models.Details
	Date        recurrence.Date    `json:"date"`
	Recurrence  *recurrence.Config `json:"recurrence,omitempty"`
	Completed   bool               `json:"completed"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func viewItem(item models.Item) itemView {
	view := itemView{
		ID:          item.ID,
		Details:     item.Details,
		Date:        item.Schedule.Anchor,
		Completed:   item.Schedule.Completed,
		CompletedAt: item.Schedule.CompletedAt,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if item.Schedule.Rule != nil {
		config := recurrence.ConfigOf(item.Schedule.Rule)
		view.Recurrence = &config
	}
	return view
}

type ItemHandler struct {
	planner *services.PlannerService
	clock   clock
}

func NewItemHandler(planner *services.PlannerService, location *time.Location) *ItemHandler {
	return &ItemHandler{planner: planner, clock: clock{location: location, now: time.Now}}
}

func (handler *ItemHandler) WithClock(now func() time.Time) *ItemHandler {
	handler.clock.now = now
	return handler
}

// List expands items over [start, end]. Without parameters it covers the
// current month.
func (handler *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := handler.clock.today()
	month := recurrence.MonthWindow(today.Year(), today.Month())

	start, err := dateParam(r, "start", month.Start)
	if err != nil {
		writeError(w, "listing items", err)
		return
	}
	end, err := dateParam(r, "end", month.End)
	if err != nil {
		writeError(w, "listing items", err)
		return
	}
	window, err := recurrence.NewWindow(start, end)
	if err != nil {
		writeError(w, "listing items", err)
		return
	}

	filter := services.InstanceFilter{}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		k := models.ItemKind(kind)
		if !k.Valid() {
			writeMessage(w, http.StatusBadRequest, "unknown kind "+kind)
			return
		}
		filter.Kind = &k
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filter.CategoryID = &category
	}
	if value := r.URL.Query().Get("recurring"); value != "" {
		recurring, err := strconv.ParseBool(value)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid recurring "+value)
			return
		}
		filter.Recurring = &recurring
	}

	instances, err := handler.planner.ListInstances(ctx, middleware.GetUserID(ctx), window, filter)
	if err != nil {
		writeError(w, "listing items", err)
		return
	}
	writeJSON(w, http.StatusOK, viewInstances(instances))
}

func (handler *ItemHandler) Day(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := recurrence.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	instances, err := handler.planner.InstancesOn(ctx, middleware.GetUserID(ctx), date)
	if err != nil {
		writeError(w, "listing items for day", err)
		return
	}
	writeJSON(w, http.StatusOK, viewInstances(instances))
}

func (handler *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input services.ItemInput
	if !readJSON(w, r, &input) {
		return
	}

	created, err := handler.planner.CreateItem(ctx, middleware.GetUserID(ctx), input)
	if err != nil {
		writeError(w, "creating item", err)
		return
	}
	writeJSON(w, http.StatusCreated, viewItem(created))
}

// Get returns the stored item for a base ref and the materialized occurrence
// for an instance ref.
func (handler *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	ref := chi.URLParam(r, "ref")

	if recurrence.IsInstanceID(ref) {
		instance, err := handler.planner.Instance(ctx, userID, ref)
		if err != nil {
			writeError(w, "finding occurrence", err)
			return
		}
		writeJSON(w, http.StatusOK, viewInstance(instance))
		return
	}

	item, err := handler.planner.Find(ctx, userID, ref)
	if err != nil {
		writeError(w, "finding item", err)
		return
	}
	writeJSON(w, http.StatusOK, viewItem(item))
}

func (handler *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input services.ItemInput
	if !readJSON(w, r, &input) {
		return
	}

	updated, err := handler.planner.UpdateSeries(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "ref"), input)
	if err != nil {
		writeError(w, "updating item", err)
		return
	}
	writeJSON(w, http.StatusOK, viewItem(updated))
}

func (handler *ItemHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	instance, err := handler.planner.Toggle(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, "toggling item", err)
		return
	}
	writeJSON(w, http.StatusOK, viewInstance(instance))
}

func (handler *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, err := services.ParseDeleteScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, "deleting item", err)
		return
	}

	if err := handler.planner.Delete(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "ref"), scope); err != nil {
		writeError(w, "deleting item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func viewInstances(instances []models.Instance) []instanceView {
	views := make([]instanceView, 0, len(instances))
	for _, instance := range instances {
		views = append(views, viewInstance(instance))
	}
	return views
}
