package handler

import (
	"log/slog"
	"net/http"
)

// StatusHandler serves connection state and pipeline counters.
type StatusHandler struct {
	mode    string
	session Session
	logger  *slog.Logger
}

// NewStatusHandler creates a StatusHandler that reports mode alongside the
// session state.
func NewStatusHandler(mode string, s Session, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{mode: mode, session: s, logger: logger.With(slog.String("handler", "status"))}
}

// GetStatus responds with the state label, counters and view.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":     h.mode,
		"state":    snap.State.String(),
		"points":   len(snap.Series),
		"tiles":    len(snap.Tiles),
		"buffered": snap.Buffered,
		"busy":     snap.Busy,
		"view":     snap.View,
		"stats":    snap.Stats,
	})
}
