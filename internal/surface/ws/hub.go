// Package ws drives browser charts over websocket. The Surface keeps the
// authoritative view model server-side so clicks can be mapped back to
// (time, price); the Hub fans frames out to every connected browser.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256

	// commandTimeout bounds a browser command waiting on the session.
	commandTimeout = 5 * time.Second
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// Commands is the session API browsers reach through the hub.
type Commands interface {
	PlaceTile(ctx context.Context, x, y float64) (domain.Tile, error)
	RemoveTile(ctx context.Context, id string) (bool, error)
	ResetView(ctx context.Context) (domain.ViewWindow, error)
	Gesture(g domain.Gesture) error
	UserView(apply func()) error
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// Hub manages a set of connected WebSocket clients and broadcasts chart
// frames to all of them.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	direct     chan directMsg
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
	logger     *slog.Logger
	encoding   Encoding
	running    atomic.Bool
	done       chan struct{}

	cmdMu    sync.RWMutex
	commands Commands
	surface  *Surface
}

// NewHub creates a hub that encodes frames with enc.
func NewHub(enc Encoding, logger *slog.Logger) *Hub {
	if enc == "" {
		enc = EncodingJSON
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directMsg, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger.With(slog.String("component", "ws_hub")),
		encoding:   enc,
		done:       make(chan struct{}),
	}
}

// directMsg is a frame for a single client.
type directMsg struct {
	to   *client
	data []byte
}

// Bind connects the hub to the session. It may be called after the hub is
// constructed, since the session itself needs the hub's surface.
func (h *Hub) Bind(cmds Commands) {
	h.cmdMu.Lock()
	defer h.cmdMu.Unlock()
	h.commands = cmds
}

func (h *Hub) cmds() Commands {
	h.cmdMu.RLock()
	defer h.cmdMu.RUnlock()
	return h.commands
}

// Running reports whether Run is active.
func (h *Hub) Running() bool { return h.running.Load() }

// Run starts the hub's main event loop. It handles client registration,
// unregistration, and message broadcasting, and exits when ctx is cancelled.
// A Hub runs once.
func (h *Hub) Run(ctx context.Context) error {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("ws: client connected",
				slog.Int("total_clients", h.clientCount()),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected",
				slog.Int("total_clients", h.clientCount()),
			)

		case msg := <-h.direct:
			h.mu.RLock()
			if h.clients[msg.to] {
				select {
				case msg.to.send <- msg.data:
				default:
					h.logger.Warn("ws: dropping message for slow client")
				}
			}
			h.mu.RUnlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Client's send buffer is full; drop the message.
					h.logger.Warn("ws: dropping message for slow client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// publish queues a frame for every client without blocking the caller.
func (h *Hub) publish(typ string, payload any) {
	if !h.running.Load() {
		return
	}
	msg, err := encodeFrame(h.encoding, typ, payload)
	if err != nil {
		h.logger.Error("ws: encode frame", slog.String("type", typ), slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws: broadcast queue full, dropping frame", slog.String("type", typ))
	}
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	if !h.running.Load() {
		http.Error(w, "hub not running", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	// Start read and write pumps in separate goroutines.
	go c.writePump()
	go func() {
		c.sendInitialState()
		c.readPump()
	}()
}

// clientCount returns the number of currently connected clients.
func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
