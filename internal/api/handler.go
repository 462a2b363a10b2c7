// internal/api/handler.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-gitee-mirror/internal/database"
	"github-gitee-mirror/internal/model"
	"github-gitee-mirror/internal/syncer"
)

const maxBodyBytes = 1 << 20

// Engine admits mirror tasks.
type Engine interface {
	Trigger(ctx context.Context, req syncer.TriggerRequest) (model.Task, error)
	HandlePush(ctx context.Context, accountID int64, cloneURL string) (syncer.PushOutcome, error)
}

// Views serves the read-side activity views.
type Views interface {
	RepoOverlay(ctx context.Context, accountID int64, refresh bool) ([]model.RepoInfo, error)
	Dashboard(ctx context.Context, accountID int64, refresh bool) (model.Dashboard, error)
}

// Deps are the collaborators of the HTTP API.
type Deps struct {
	DB            database.Querier
	Engine        Engine
	Views         Views
	Metrics       http.Handler
	WebhookSecret string
}

// Handler is the container for API dependencies.
type Handler struct {
	db            database.Querier
	engine        Engine
	views         Views
	webhookSecret []byte
	logger        *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(deps Deps, logger *slog.Logger) http.Handler {
	h := &Handler{
		db:            deps.DB,
		engine:        deps.Engine,
		views:         deps.Views,
		webhookSecret: []byte(deps.WebhookSecret),
		logger:        logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/link", h.linkAccount)
			r.Delete("/{accountID}/links/{platform}", h.unlinkAccount)
			r.Get("/{accountID}/status", h.getLinkStatus)
		})
		r.Route("/sync", func(r chi.Router) {
			r.Post("/trigger", h.triggerSync)
			r.Get("/logs/{accountID}", h.getSyncLogs)
			r.Get("/dashboard/{accountID}", h.getDashboard)
			r.Get("/repos/{accountID}", h.getRepos)
		})
		r.Post("/webhooks/github/{accountID}", h.githubWebhook)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
