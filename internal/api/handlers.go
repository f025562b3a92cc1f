// Package api exposes the serve-mode HTTP surface: trigger a sync run, list
// run history, report health.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dporto/repspark-sync/internal/database"
	"github.com/dporto/repspark-sync/internal/runner"
)

const defaultRunsLimit = 20

// RunHistory lists past runs. Implemented by database.Store.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]*database.SyncRun, error)
}

type Handlers struct {
	runner  *runner.Runner
	history RunHistory // nil when the history store is disabled
	logger  *slog.Logger
}

func NewHandlers(r *runner.Runner, history RunHistory) *Handlers {
	return &Handlers{
		runner:  r,
		history: history,
		logger:  slog.Default().With("component", "api"),
	}
}

func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", h.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sync", h.TriggerSync)
		r.Get("/runs", h.ListRuns)
	})

	return r
}

type TriggerSyncResponse struct {
	RunID string `json:"run_id"`
}

// TriggerSync starts a sync run in the background. A run already in flight is
// a conflict, not a queue.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	id, err := h.runner.Start(r.Context())
	if err != nil {
		if errors.Is(err, runner.ErrRunInProgress) {
			h.respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to start sync run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to start sync run")
		return
	}

	h.respondJSON(w, http.StatusAccepted, TriggerSyncResponse{RunID: id.String()})
}

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.respondError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.history.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*database.SyncRun{}
	}

	h.respondJSON(w, http.StatusOK, runs)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"running": h.runner.Running(),
	})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
