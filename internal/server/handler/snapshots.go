package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// Exporter uploads the current chart and returns the object key.
type Exporter interface {
	Export(ctx context.Context) (string, error)
}

// SnapshotHandler exports charts to object storage and lists them.
type SnapshotHandler struct {
	exporter Exporter
	blobs    domain.BlobReader
	prefix   string
	logger   *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler. Objects are listed and
// fetched under prefix.
func NewSnapshotHandler(e Exporter, blobs domain.BlobReader, prefix string, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		exporter: e,
		blobs:    blobs,
		prefix:   prefix,
		logger:   logger.With(slog.String("handler", "snapshots")),
	}
}

// CreateSnapshot exports the chart now.
// POST /api/snapshots
func (h *SnapshotHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	key, err := h.exporter.Export(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// ListSnapshots returns exported snapshots, newest first.
// GET /api/snapshots?limit=N
func (h *SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	infos, err := h.blobs.List(r.Context(), h.prefix)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	// Keys embed a sortable UTC timestamp.
	slices.SortFunc(infos, func(a, b domain.BlobInfo) int { return strings.Compare(b.Path, a.Path) })
	if n := parseLimit(r, 0); n > 0 && n < len(infos) {
		infos = infos[:n]
	}
	if infos == nil {
		infos = []domain.BlobInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": infos})
}

// GetSnapshot streams one exported PNG.
// GET /api/snapshots/{name}
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || strings.ContainsAny(name, "/\\") || !strings.HasSuffix(name, ".png") {
		writeError(w, http.StatusBadRequest, "invalid snapshot name")
		return
	}
	body, err := h.blobs.Get(r.Context(), h.prefix+name)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "snapshot stream interrupted",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
}
