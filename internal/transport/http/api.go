// Package http exposes the read surface over the cache and the history
// store. It is a thin adapter: every handler is a snapshot read, no handler
// can mutate pipeline state.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"fleetsync/internal/cache"
	"fleetsync/internal/stats"
	"fleetsync/internal/store"
)

const defaultHistoryLimit = 100

type API struct {
	cache   *cache.StateCache
	stats   *stats.Aggregator
	history *store.HistoryStore // nil when the process runs without a database
}

func NewAPI(c *cache.StateCache, a *stats.Aggregator, h *store.HistoryStore) *API {
	return &API{cache: c, stats: a, history: h}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/fleet/trucks", a.handleTrucks)
	mux.HandleFunc("GET /api/fleet/alerts", a.handleAlerts)
	mux.HandleFunc("GET /api/fleet/stats", a.handleStats)
	mux.HandleFunc("GET /api/history/telemetry", a.handleHistory)
	mux.HandleFunc("GET /api/history/truck/{truckId}", a.handleTruckHistory)
	mux.HandleFunc("GET /api/history/stats", a.handleHistoryStats)
}

func (a *API) handleTrucks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.cache.Snapshot())
}

func (a *API) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.cache.Alerts())
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.stats.Compute())
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	limit := queryInt(r, "limit", defaultHistoryLimit)
	from, hasFrom := queryInt64(r, "from")
	to, hasTo := queryInt64(r, "to")

	var (
		rows []store.TelemetryRow
		err  error
	)
	if hasFrom && hasTo {
		rows, err = a.history.TelemetryBetween(r.Context(), from, to, limit)
	} else {
		rows, err = a.history.RecentTelemetry(r.Context(), limit)
	}
	if err != nil {
		slog.Error("api: history query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(rows),
		"data":  rows,
	})
}

func (a *API) handleTruckHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	truckID := r.PathValue("truckId")
	limit := queryInt(r, "limit", defaultHistoryLimit)

	rows, err := a.history.TruckHistory(r.Context(), truckID, limit)
	if err != nil {
		slog.Error("api: truck history query failed", "truck", truckID, "err", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"truckId": truckID,
		"count":   len(rows),
		"data":    rows,
	})
}

func (a *API) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	total, err := a.history.Count(r.Context())
	if err != nil {
		slog.Error("api: history count failed", "err", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalRecords": total,
		"database":     "PostgreSQL",
		"status":       "Connected",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func queryInt64(r *http.Request, key string) (int64, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
