package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ilc-alumni/reconcile/internal/history"
	"github.com/ilc-alumni/reconcile/internal/logger"
)

const maxListLimit = 500

// RunStore is the part of the history tracker the API reads from
type RunStore interface {
	List(ctx context.Context, limit int) ([]*history.Run, error)
	Get(ctx context.Context, id string) (*history.Run, error)
}

// RunsHandler serves the run history
type RunsHandler struct {
	Store RunStore
	Log   *logger.Logger
}

// RunsResponse is the body of GET /api/runs
type RunsResponse struct {
	Runs  []*history.Run `json:"runs"`
	Count int            `json:"count"`
	Limit int            `json:"limit"`
}

// ListRuns returns the most recent runs, newest first
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	runs, err := h.Store.List(r.Context(), limit)
	if err != nil {
		h.Log.Error("listing runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if runs == nil {
		runs = []*history.Run{}
	}

	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, Count: len(runs), Limit: limit})
}

// GetRun returns a single run
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.Store.Get(r.Context(), id)
	if errors.Is(err, history.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.Log.Error("loading run failed", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// Health reports that the server is up
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
