// Package stream owns the live tick connection: dialing, decoding frames,
// and reconnecting after a fixed delay whenever the connection is lost.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// DefaultReconnectDelay is the fixed wait between losing a connection and
// dialing again.
const DefaultReconnectDelay = 3 * time.Second

var errStale = errors.New("no frames within stale window")

// Scheduler runs callbacks on the goroutine that owns the Manager. The
// session event loop satisfies it.
type Scheduler interface {
	Post(fn func()) bool
	AfterFunc(d time.Duration, fn func()) (cancel func())
	Now() time.Time
}

// Config configures a Manager.
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	// StaleAfter force-closes a connection that has delivered no frame for
	// this long. Zero disables the watchdog.
	StaleAfter  time.Duration
	DialTimeout time.Duration
}

// Handlers receive decoded ticks and state changes on the owner goroutine.
type Handlers struct {
	Tick  func(domain.Tick)
	State func(domain.ConnectionState)
}

// Stats are the manager's running counters.
type Stats struct {
	Received   int64
	Malformed  int64
	Reconnects int64
}

// Manager is the connection state machine. Every method must be called on
// the scheduler's goroutine; network I/O happens on helper goroutines that
// post their results back.
type Manager struct {
	cfg      Config
	dialer   Dialer
	codec    Codec
	sched    Scheduler
	handlers Handlers
	logger   *slog.Logger

	state domain.ConnectionState
	conn  Conn
	// gen identifies the current connection attempt. Callbacks carrying an
	// older generation are ignored.
	gen       uint64
	lastFrame time.Time
	closed    bool
	stats     Stats

	cancelDial  context.CancelFunc
	cancelRetry func()
	cancelWatch func()
}

// NewManager creates a disconnected Manager.
func NewManager(cfg Config, dialer Dialer, codec Codec, sched Scheduler, h Handlers, logger *slog.Logger) *Manager {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:      cfg,
		dialer:   dialer,
		codec:    codec,
		sched:    sched,
		handlers: h,
		logger:   logger.With(slog.String("component", "stream")),
		state:    domain.StateDisconnected,
	}
}

// State returns the current connection state.
func (m *Manager) State() domain.ConnectionState { return m.state }

// Stats returns a copy of the counters.
func (m *Manager) Stats() Stats { return m.stats }

// Connect starts dialing unless a connection is already open or in progress,
// or the manager has been shut down.
func (m *Manager) Connect() {
	if m.closed {
		return
	}
	if m.state == domain.StateConnecting || m.state == domain.StateConnected {
		return
	}
	m.stopRetry()

	m.gen++
	gen := m.gen
	m.setState(domain.StateConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	m.cancelDial = cancel
	url := m.cfg.URL
	go func() {
		conn, err := m.dialer.Dial(ctx, url)
		cancel()
		if !m.sched.Post(func() { m.handleDial(gen, conn, err) }) && conn != nil {
			conn.Close()
		}
	}()
}

// Shutdown stops the manager for good. It cancels a pending reconnect or
// dial and closes the live connection. Calling it again does nothing.
func (m *Manager) Shutdown() {
	if m.closed {
		return
	}
	m.closed = true
	m.gen++
	m.stopRetry()
	m.stopWatchdog()
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.logger.Debug("close on shutdown", slog.String("error", err.Error()))
		}
		m.conn = nil
	}
	m.state = domain.StateDisconnected
	m.logger.Info("stream shut down")
}

func (m *Manager) handleDial(gen uint64, conn Conn, err error) {
	if m.closed || gen != m.gen {
		if conn != nil {
			conn.Close()
		}
		return
	}
	m.cancelDial = nil
	if err != nil {
		m.logger.Warn("stream dial failed",
			slog.String("url", m.cfg.URL),
			slog.String("error", err.Error()),
		)
		m.lost()
		return
	}

	m.conn = conn
	m.lastFrame = m.sched.Now()
	m.stopRetry()
	m.setState(domain.StateConnected)
	m.logger.Info("stream connected", slog.String("url", m.cfg.URL))
	m.armWatchdog(gen, m.cfg.StaleAfter)
	go m.readLoop(gen, conn)
}

// readLoop decodes frames off the connection and hands them to the owner.
func (m *Manager) readLoop(gen uint64, conn Conn) {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			m.sched.Post(func() { m.handleClose(gen, err) })
			return
		}
		tick, derr := m.codec.Decode(raw, m.sched.Now())
		if !m.sched.Post(func() { m.handleFrame(gen, tick, derr) }) {
			return
		}
	}
}

func (m *Manager) handleFrame(gen uint64, tick domain.Tick, err error) {
	if m.closed || gen != m.gen {
		return
	}
	m.lastFrame = m.sched.Now()
	if err != nil {
		m.stats.Malformed++
		m.logger.Warn("dropping malformed frame", slog.String("error", err.Error()))
		return
	}
	m.stats.Received++
	if m.handlers.Tick != nil {
		m.handlers.Tick(tick)
	}
}

func (m *Manager) handleClose(gen uint64, err error) {
	if m.closed || gen != m.gen {
		return
	}
	m.logger.Warn("stream connection lost", slog.String("error", err.Error()))
	m.lost()
}

// lost tears down the current connection and schedules the next attempt.
func (m *Manager) lost() {
	m.gen++
	m.stopWatchdog()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.setState(domain.StateDisconnected)

	m.cancelRetry = m.sched.AfterFunc(m.cfg.ReconnectDelay, func() {
		m.cancelRetry = nil
		if m.closed {
			return
		}
		m.stats.Reconnects++
		m.logger.Info("reconnecting", slog.Int64("attempt", m.stats.Reconnects))
		m.Connect()
	})
	m.setState(domain.StateReconnecting)
	m.logger.Info("reconnect scheduled", slog.Duration("delay", m.cfg.ReconnectDelay))
}

func (m *Manager) armWatchdog(gen uint64, wait time.Duration) {
	if m.cfg.StaleAfter <= 0 {
		return
	}
	m.cancelWatch = m.sched.AfterFunc(wait, func() {
		m.cancelWatch = nil
		if m.closed || gen != m.gen {
			return
		}
		idle := m.sched.Now().Sub(m.lastFrame)
		if idle < m.cfg.StaleAfter {
			m.armWatchdog(gen, m.cfg.StaleAfter-idle)
			return
		}
		m.logger.Warn("stream stale, forcing reconnect",
			slog.Duration("idle", idle),
			slog.String("error", errStale.Error()),
		)
		m.lost()
	})
}

func (m *Manager) stopWatchdog() {
	if m.cancelWatch != nil {
		m.cancelWatch()
		m.cancelWatch = nil
	}
}

func (m *Manager) stopRetry() {
	if m.cancelRetry != nil {
		m.cancelRetry()
		m.cancelRetry = nil
	}
}

func (m *Manager) setState(s domain.ConnectionState) {
	if m.state == s {
		return
	}
	m.state = s
	if m.handlers.State != nil {
		m.handlers.State(s)
	}
}
