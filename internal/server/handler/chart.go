package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// Renderer draws a snapshot as PNG.
type Renderer interface {
	Render(w io.Writer, snap domain.Snapshot) error
}

// ChartHandler renders the live chart server-side.
type ChartHandler struct {
	session  Session
	renderer Renderer
	logger   *slog.Logger
}

// NewChartHandler creates a ChartHandler that renders session snapshots
// with r.
func NewChartHandler(s Session, r Renderer, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{session: s, renderer: r, logger: logger.With(slog.String("handler", "chart"))}
}

// GetChart returns the current view as a PNG.
// GET /api/chart.png
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, snap); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
