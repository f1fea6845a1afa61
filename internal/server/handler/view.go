package handler

import (
	"log/slog"
	"net/http"
)

// ViewHandler controls the chart view.
type ViewHandler struct {
	session Session
	logger  *slog.Logger
}

// NewViewHandler creates a ViewHandler backed by the session.
func NewViewHandler(s Session, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{session: s, logger: logger.With(slog.String("handler", "view"))}
}

// ResetView snaps back to the default window at the newest tick.
// POST /api/view/reset
func (h *ViewHandler) ResetView(w http.ResponseWriter, r *http.Request) {
	view, err := h.session.ResetView(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"view": view})
}
