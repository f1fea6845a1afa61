package domain

import "time"

// Tick is a single (time, price) sample from the live stream. Ticks are
// values and are never mutated after they are decoded.
type Tick struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// StreamStats are running counters kept by the session for the status API.
type StreamStats struct {
	Received   int64 `json:"received"`
	Malformed  int64 `json:"malformed"`
	Reconnects int64 `json:"reconnects"`
	Flushes    int64 `json:"flushes"`
	Evicted    int64 `json:"evicted"`
}

// Snapshot is a point-in-time copy of everything the view renders. It is
// assembled on the session loop and is safe to hand to other goroutines.
type Snapshot struct {
	State    ConnectionState `json:"state"`
	Series   []Tick          `json:"series"`
	Tiles    []Tile          `json:"tiles"`
	View     ViewWindow      `json:"view"`
	Buffered int             `json:"buffered"`
	Busy     bool            `json:"busy"`
	Stats    StreamStats     `json:"stats"`
}
