package feed

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/stream"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second
)

// SimulatorConfig tunes the demo producer.
type SimulatorConfig struct {
	Interval   time.Duration
	StartPrice float64
	Volatility float64
	// DropEvery closes the connection after every N ticks. Zero disables.
	DropEvery int
	// MalformedEvery replaces every Nth tick with a corrupt frame. Zero
	// disables.
	MalformedEvery int
	Codec          stream.Codec
}

// Simulator is a websocket endpoint that streams random-walk ticks. It is the
// demo-mode stand-in for a real price feed and can misbehave on purpose to
// exercise reconnection and malformed-frame handling.
type Simulator struct {
	cfg      SimulatorConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	walk *Walk
	sent int64
}

// NewSimulator creates a Simulator. Every connection continues the same walk
// so a reconnecting client sees a continuous price.
func NewSimulator(cfg SimulatorConfig, logger *slog.Logger) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 200 * time.Millisecond
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.002
	}
	if cfg.Codec == nil {
		cfg.Codec = stream.JSONCodec{}
	}
	return &Simulator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "simulator")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		walk: NewWalk(cfg.StartPrice, cfg.Volatility, nil),
	}
}

// Sent returns how many frames have been written across all connections.
func (s *Simulator) Sent() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

func (s *Simulator) next() (domain.Tick, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	return domain.Tick{Time: time.Now().UTC(), Price: s.walk.Next()}, s.sent
}

// ServeHTTP upgrades the request and streams until the client goes away or
// a configured drop fires.
func (s *Simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("simulator upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// The read side only exists to process control frames and notice the
	// peer leaving.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Info("simulator client connected", slog.String("remote", r.RemoteAddr))
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	msgType := websocket.TextMessage
	if s.cfg.Codec.Binary() {
		msgType = websocket.BinaryMessage
	}

	var perConn int
	for {
		select {
		case <-gone:
			s.logger.Info("simulator client left", slog.String("remote", r.RemoteAddr))
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		tick, n := s.next()
		perConn++
		frame, err := s.frame(tick, n)
		if err != nil {
			s.logger.Error("simulator encode failed", slog.String("error", err.Error()))
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(msgType, frame); err != nil {
			return
		}

		if s.cfg.DropEvery > 0 && perConn%s.cfg.DropEvery == 0 {
			s.logger.Info("simulator dropping connection", slog.Int("after", perConn))
			return
		}
	}
}

func (s *Simulator) frame(t domain.Tick, n int64) ([]byte, error) {
	if s.cfg.MalformedEvery > 0 && n%int64(s.cfg.MalformedEvery) == 0 {
		if s.cfg.Codec.Binary() {
			return []byte{0xff, 0xff, 0xff}, nil
		}
		return []byte(`{"time": "soon", "price": "n/a"}`), nil
	}
	return s.cfg.Codec.Encode(t)
}
