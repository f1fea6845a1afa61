// Package session ties the pipeline together. A Session owns the buffer,
// series, tiles, interaction tracker and connection manager, and mutates
// them only from its event loop goroutine.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/eventloop"
	"github.com/alanyoungcy/tickboard/internal/feed"
	"github.com/alanyoungcy/tickboard/internal/interaction"
	"github.com/alanyoungcy/tickboard/internal/render"
	"github.com/alanyoungcy/tickboard/internal/series"
	"github.com/alanyoungcy/tickboard/internal/stream"
	"github.com/alanyoungcy/tickboard/internal/tiles"
)

// Config gathers the settings of every component the session owns.
type Config struct {
	Stream stream.Config
	Render render.Config
	Policy series.Policy
	Quiet  interaction.QuietPeriods

	// SeedPoints synthetic ticks, SeedStep apart, are placed in the series
	// before the first live tick. Zero disables seeding.
	SeedPoints int
	SeedStep   time.Duration
	SeedPrice  float64
	SeedRand   *rand.Rand
}

// Observer is told about pipeline events. Methods run on the session loop
// and must return quickly.
type Observer interface {
	TicksFlushed(batch []domain.Tick)
	ConnectionChanged(state domain.ConnectionState)
	TileAdded(tile domain.Tile)
	TileRemoved(id string)
}

// Deps are the collaborators a Session drives.
type Deps struct {
	Dialer    stream.Dialer
	Codec     stream.Codec
	Surface   domain.Surface
	Clock     clock.Clock
	Observers []Observer
	Logger    *slog.Logger
}

// Session is the single owner of all pipeline state.
type Session struct {
	cfg       Config
	loop      *eventloop.Loop
	logger    *slog.Logger
	observers []Observer

	buffer  *series.Buffer
	store   *series.Store
	tiles   *tiles.Store
	tracker *interaction.Tracker
	sched   *render.Scheduler
	mgr     *stream.Manager
	surface domain.Surface

	flushes int64
	closed  bool

	cancelRender func()
	cancelIdle   func()

	// state mirrors the manager's state for lock-free reads.
	state    atomic.Int32
	running  atomic.Bool
	finished chan struct{}
	stopOnce sync.Once
}

// New builds a Session. Nothing runs until Run is called.
func New(cfg Config, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Render.Interval <= 0 {
		cfg.Render.Interval = render.DefaultConfig().Interval
	}
	codec := deps.Codec
	if codec == nil {
		codec = stream.JSONCodec{}
	}

	s := &Session{
		cfg:       cfg,
		loop:      eventloop.New(deps.Clock, 0),
		logger:    logger.With(slog.String("component", "session")),
		observers: deps.Observers,
		buffer:    series.NewBuffer(cfg.Policy),
		store:     series.NewStore(cfg.Policy),
		tiles:     tiles.NewStore(),
		tracker:   interaction.NewTracker(cfg.Quiet),
		surface:   deps.Surface,
		finished:  make(chan struct{}),
	}
	s.sched = render.NewScheduler(s.buffer, s.store, s.tracker, cfg.Render, logger)
	s.mgr = stream.NewManager(cfg.Stream, deps.Dialer, codec, s.loop, stream.Handlers{
		Tick:  s.onTick,
		State: s.onState,
	}, logger)
	return s
}

// Run starts the pipeline and blocks until ctx is cancelled or Shutdown is
// called. Teardown happens on the calling goroutine after the loop exits.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("session: already running")
	}
	defer close(s.finished)

	s.loop.Post(s.start)
	err := s.loop.Run(ctx)
	s.teardown()
	return err
}

// Shutdown stops the session and waits for teardown when Run is active. It
// is safe to call any number of times, from any goroutine, before or after
// Run.
func (s *Session) Shutdown() {
	s.loop.Stop()
	if s.running.Load() {
		<-s.finished
	}
}

func (s *Session) start() {
	if s.closed {
		return
	}
	if s.cfg.SeedPoints > 0 {
		seed := feed.Seed(s.cfg.SeedPoints, s.cfg.SeedStep, s.loop.Now(), s.cfg.SeedPrice, s.cfg.SeedRand)
		s.store.Append(seed...)
		s.logger.Info("series seeded", slog.Int("points", len(seed)))
	}
	if s.surface != nil {
		s.sched.Attach(s.surface)
		s.surface.SetConnectionState(s.mgr.State())
		s.surface.SetTiles(s.tiles.List())
		if w, ok := s.sched.DefaultWindow(); ok && s.surface.ViewWindow().IsZero() {
			s.surface.SetViewWindow(w, false)
		}
	}
	s.cancelRender = s.loop.Every(s.cfg.Render.Interval, s.flush)
	s.mgr.Connect()
	s.logger.Info("session started",
		slog.String("url", s.cfg.Stream.URL),
		slog.Duration("render_interval", s.cfg.Render.Interval),
		slog.String("retention", string(s.cfg.Policy.Retention)),
	)
}

// teardown cancels every timer and the connection. It must run on the loop
// goroutine or after the loop has exited.
func (s *Session) teardown() {
	if s.closed {
		return
	}
	s.closed = true
	if s.cancelRender != nil {
		s.cancelRender()
	}
	if s.cancelIdle != nil {
		s.cancelIdle()
	}
	s.mgr.Shutdown()
	s.state.Store(int32(domain.StateDisconnected))
	s.logger.Info("session stopped",
		slog.Int("series_len", s.store.Len()),
		slog.Int("tiles", s.tiles.Len()),
	)
}

func (s *Session) flush() {
	if s.closed {
		return
	}
	res := s.sched.Cycle()
	if res.Drained == 0 {
		return
	}
	s.flushes++
	for _, o := range s.observers {
		o.TicksFlushed(res.Batch)
	}
}

func (s *Session) onTick(t domain.Tick) {
	if s.closed {
		return
	}
	s.buffer.Push(t)
}

func (s *Session) onState(st domain.ConnectionState) {
	if s.closed {
		return
	}
	s.state.Store(int32(st))
	if s.surface != nil {
		s.surface.SetConnectionState(st)
	}
	for _, o := range s.observers {
		o.ConnectionChanged(st)
	}
}

func (s *Session) onGesture(g domain.Gesture) {
	if s.closed {
		return
	}
	now := s.loop.Now()
	deadline := s.tracker.Gesture(g.Kind, now)
	s.armIdle(deadline.Sub(now))
}

func (s *Session) armIdle(wait time.Duration) {
	if s.cancelIdle != nil {
		s.cancelIdle()
	}
	s.cancelIdle = s.loop.AfterFunc(wait, s.onQuiet)
}

func (s *Session) onQuiet() {
	s.cancelIdle = nil
	if s.closed {
		return
	}
	now := s.loop.Now()
	if s.tracker.Expire(now) {
		s.logger.Debug("interaction idle", slog.String("last_gesture", string(s.tracker.LastKind())))
		return
	}
	if s.tracker.Busy() {
		s.armIdle(s.tracker.Deadline().Sub(now))
	}
}
