package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bensuskins/planner/internal/config"
	"github.com/bensuskins/planner/internal/handlers"
	"github.com/bensuskins/planner/internal/middleware"
	"github.com/bensuskins/planner/internal/recurrence"
	"github.com/bensuskins/planner/internal/repository"
	"github.com/bensuskins/planner/internal/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router *chi.Mux
	config config.Config
	digest *services.DigestJob
}

func New(database *sql.DB, cfg config.Config) *Server {
	itemRepo := repository.NewItemRepository(database)
	categoryRepo := repository.NewCategoryRepository(database)
	goalRepo := repository.NewGoalRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	tokenRepo := repository.NewFeedTokenRepository(database)

	expander := recurrence.Expander{MaxIterations: cfg.MaxExpansionIterations}
	plannerService := services.NewPlannerService(itemRepo, categoryRepo, expander)
	statsService := services.NewStatsService(plannerService, categoryRepo)
	goalService := services.NewGoalService(goalRepo)
	exporter := services.NewICalExporter(itemRepo, categoryRepo, settingsRepo, cfg.Location)
	tokenService := services.NewFeedTokenService(tokenRepo)

	itemHandler := handlers.NewItemHandler(plannerService, cfg.Location)
	categoryHandler := handlers.NewCategoryHandler(services.NewCategoryService(categoryRepo, settingsRepo), categoryRepo)
	goalHandler := handlers.NewGoalHandler(goalService)
	statsHandler := handlers.NewStatsHandler(statsService, cfg.Location)
	icalHandler := handlers.NewICalHandler(exporter, tokenService)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.UserHeader},
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/ical", icalHandler.Feed)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.List)
			r.Post("/", itemHandler.Create)
			r.Get("/day/{date}", itemHandler.Day)
			r.Get("/{ref}", itemHandler.Get)
			r.Put("/{ref}", itemHandler.Update)
			r.Post("/{ref}/toggle", itemHandler.Toggle)
			r.Delete("/{ref}", itemHandler.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Post("/", categoryHandler.Create)
			r.Put("/{id}", categoryHandler.Update)
			r.Delete("/{id}", categoryHandler.Delete)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", goalHandler.List)
			r.Post("/", goalHandler.Create)
			r.Put("/{id}", goalHandler.Update)
			r.Delete("/{id}", goalHandler.Delete)
		})

		r.Get("/stats", statsHandler.Productivity)

		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Update)

		r.Route("/feed-tokens", func(r chi.Router) {
			r.Get("/", icalHandler.ListTokens)
			r.Post("/", icalHandler.CreateToken)
			r.Delete("/{id}", icalHandler.DeleteToken)
		})
	})

	return &Server{
		router: router,
		config: cfg,
		digest: services.NewDigestJob(itemRepo, plannerService, cfg.Location),
	}
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Start serves HTTP and runs the daily digest until ctx is cancelled, then
// shuts both down.
func (server *Server) Start(ctx context.Context) error {
	if server.config.DigestSchedule != "" {
		scheduler, err := server.digest.Schedule(server.config.DigestSchedule)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	httpServer := &http.Server{
		Addr:              ":" + server.config.Port,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", httpServer.Addr)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
