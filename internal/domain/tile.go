package domain

import "time"

// Tile is a user-placed annotation pinned to a (time, price) point. PixelX
// and PixelY record where on the canvas the click landed.
type Tile struct {
	ID     string    `json:"id"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
	PixelX float64   `json:"pixel_x"`
	PixelY float64   `json:"pixel_y"`
}
