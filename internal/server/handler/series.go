package handler

import (
	"log/slog"
	"net/http"
)

// maxSeriesLimit caps one series response.
const maxSeriesLimit = 10000

// SeriesHandler serves the rendered series.
type SeriesHandler struct {
	session Session
	logger  *slog.Logger
}

// NewSeriesHandler creates a SeriesHandler backed by the session.
func NewSeriesHandler(s Session, logger *slog.Logger) *SeriesHandler {
	return &SeriesHandler{session: s, logger: logger.With(slog.String("handler", "series"))}
}

// GetSeries returns the newest ticks, oldest first.
// GET /api/series?limit=N
func (h *SeriesHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	ticks, err := h.session.Series(r.Context(), parseLimit(r, maxSeriesLimit))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(ticks),
		"series": ticks,
	})
}
