// Package handler implements the REST endpoints over a running session.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// maxBodyBytes caps request bodies; every body here is a small JSON object.
const maxBodyBytes = 1 << 16

// Session is the command surface handlers call.
type Session interface {
	PlaceTile(ctx context.Context, x, y float64) (domain.Tile, error)
	RemoveTile(ctx context.Context, id string) (bool, error)
	Tiles(ctx context.Context) ([]domain.Tile, error)
	ResetView(ctx context.Context) (domain.ViewWindow, error)
	Series(ctx context.Context, limit int) ([]domain.Tick, error)
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// writeJSON marshals v and writes it with status. A marshal failure becomes
// a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinels onto status codes.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrOutsidePlot):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotEnoughData):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrClosed), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseLimit reads ?limit=N, capped at max. Absent or invalid means max,
// and max 0 means unlimited.
func parseLimit(r *http.Request, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		n = 0
	}
	if max > 0 && (n == 0 || n > max) {
		n = max
	}
	return n
}
