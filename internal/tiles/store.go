// Package tiles keeps the user-placed chart annotations.
package tiles

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// New builds a tile with a fresh random id.
func New(t time.Time, price, pixelX, pixelY float64) domain.Tile {
	return domain.Tile{
		ID:     uuid.NewString(),
		Price:  price,
		Time:   t,
		PixelX: pixelX,
		PixelY: pixelY,
	}
}

// Store is an insertion-ordered collection of tiles keyed by id. It is owned
// by the session loop and is not safe for concurrent use.
type Store struct {
	order []string
	byID  map[string]domain.Tile
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byID: make(map[string]domain.Tile)}
}

// Add appends the tile. A tile whose id is already present is rejected.
func (s *Store) Add(t domain.Tile) error {
	if t.ID == "" {
		return fmt.Errorf("tiles: add: empty id")
	}
	if _, ok := s.byID[t.ID]; ok {
		return fmt.Errorf("tiles: add %s: %w", t.ID, domain.ErrAlreadyExists)
	}
	s.byID[t.ID] = t
	s.order = append(s.order, t.ID)
	return nil
}

// Remove deletes the tile with the given id and reports whether it existed.
// Removing an unknown id is not an error.
func (s *Store) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the tile with the given id.
func (s *Store) Get(id string) (domain.Tile, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// Len returns the number of stored tiles.
func (s *Store) Len() int { return len(s.order) }

// List returns a copy of every tile in insertion order.
func (s *Store) List() []domain.Tile {
	out := make([]domain.Tile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
