package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// TileHandler places, lists and removes tiles.
type TileHandler struct {
	session Session
	logger  *slog.Logger
}

// NewTileHandler creates a TileHandler backed by the session.
func NewTileHandler(s Session, logger *slog.Logger) *TileHandler {
	return &TileHandler{session: s, logger: logger.With(slog.String("handler", "tiles"))}
}

// ListTiles returns tiles in placement order.
// GET /api/tiles
func (h *TileHandler) ListTiles(w http.ResponseWriter, r *http.Request) {
	tiles, err := h.session.Tiles(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if tiles == nil {
		tiles = []domain.Tile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiles": tiles})
}

type placeTileRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// PlaceTile maps a canvas pixel to a tile. A pixel outside the plot area is
// 422 and stores nothing.
// POST /api/tiles {"x": 120, "y": 80}
func (h *TileHandler) PlaceTile(w http.ResponseWriter, r *http.Request) {
	var req placeTileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, http.StatusBadRequest, "x and y are required")
		return
	}
	tile, err := h.session.PlaceTile(r.Context(), *req.X, *req.Y)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tile)
}

// RemoveTile deletes a tile. Unknown ids are a no-op.
// DELETE /api/tiles/{id}
func (h *TileHandler) RemoveTile(w http.ResponseWriter, r *http.Request) {
	if _, err := h.session.RemoveTile(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
