// Package render moves buffered ticks into the series on a fixed cadence and
// decides whether the chart should follow the newest data.
package render

import (
	"log/slog"
	"time"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/series"
)

// Config tunes a Scheduler.
type Config struct {
	// Interval is the flush cadence. The scheduler itself does not keep a
	// timer; the owner calls Cycle every Interval.
	Interval time.Duration
	// ScrollThreshold is the trailing fraction of the visible span within
	// which the view counts as following the newest data.
	ScrollThreshold float64
	// DefaultWindow is the span used by ResetView and for the first view.
	DefaultWindow time.Duration
}

// DefaultConfig returns the stock cadence and window.
func DefaultConfig() Config {
	return Config{
		Interval:        500 * time.Millisecond,
		ScrollThreshold: 0.10,
		DefaultWindow:   5 * time.Minute,
	}
}

// BusyReporter is satisfied by the interaction tracker.
type BusyReporter interface {
	Busy() bool
}

// Result describes what one cycle did.
type Result struct {
	// Batch holds the drained ticks in arrival order.
	Batch    []domain.Tick
	Drained  int
	Scrolled bool

	// Skipped is set when the surface was missing or not ready and the
	// buffer was left untouched.
	Skipped bool
}

// Scheduler is owned by the session loop; none of its methods are safe for
// concurrent use.
type Scheduler struct {
	buffer  *series.Buffer
	store   *series.Store
	busy    BusyReporter
	surface domain.Surface
	cfg     Config
	logger  *slog.Logger
}

// NewScheduler wires a Scheduler to its buffer, store, and tracker.
func NewScheduler(buffer *series.Buffer, store *series.Store, busy BusyReporter, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.ScrollThreshold <= 0 {
		cfg.ScrollThreshold = DefaultConfig().ScrollThreshold
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = DefaultConfig().DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		buffer: buffer,
		store:  store,
		busy:   busy,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "render")),
	}
}

// Attach sets the surface and hands it the whole series so far.
func (s *Scheduler) Attach(surface domain.Surface) {
	s.surface = surface
	if surface != nil {
		surface.SetInitialSeries(s.store.Snapshot())
	}
}

// Surface returns the attached surface, which may be nil.
func (s *Scheduler) Surface() domain.Surface { return s.surface }

// Cycle runs one flush.
func (s *Scheduler) Cycle() Result {
	if s.surface == nil || !s.surface.Ready() {
		return Result{Skipped: true}
	}
	if s.buffer.Len() == 0 {
		return Result{}
	}

	prev, hadData := s.store.Last()
	batch := s.buffer.Drain()
	s.store.Append(batch...)
	newest := batch[len(batch)-1]

	if s.surface.SupportsIncremental() {
		s.surface.AppendIncremental(newest)
	} else {
		s.surface.RequestFullRedraw(s.store.Snapshot())
	}

	res := Result{Drained: len(batch), Batch: batch}
	if !s.busy.Busy() {
		res.Scrolled = s.follow(prev, hadData, newest)
	}
	s.logger.Debug("render cycle",
		slog.Int("drained", res.Drained),
		slog.Bool("scrolled", res.Scrolled),
		slog.Int("series_len", s.store.Len()),
	)
	return res
}

// follow moves the view to the newest tick when the user was already
// watching the end of the data. prev is the data end before this flush.
func (s *Scheduler) follow(prev domain.Tick, hadData bool, newest domain.Tick) bool {
	view := s.surface.ViewWindow()
	if view.IsZero() || !hadData {
		s.surface.SetViewWindow(s.defaultWindow(newest.Time), false)
		return true
	}
	if !newest.Time.After(view.TimeMax) {
		return false
	}
	span := view.Span()
	threshold := time.Duration(float64(span) * s.cfg.ScrollThreshold)
	if view.TimeMax.Before(prev.Time.Add(-threshold)) {
		return false
	}
	s.surface.SetViewWindow(view.ShiftTo(newest.Time), false)
	return true
}

func (s *Scheduler) defaultWindow(end time.Time) domain.ViewWindow {
	return domain.ViewWindow{
		TimeMin: end.Add(-s.cfg.DefaultWindow),
		TimeMax: end,
	}
}

// DefaultWindow returns the window ResetView would apply.
func (s *Scheduler) DefaultWindow() (domain.ViewWindow, bool) {
	last, ok := s.store.Last()
	if !ok {
		return domain.ViewWindow{}, false
	}
	return s.defaultWindow(last.Time), true
}

// ResetView applies the default window with animation. It reports false when
// there is no surface or no data to anchor the window to.
func (s *Scheduler) ResetView() (domain.ViewWindow, bool) {
	if s.surface == nil || !s.surface.Ready() {
		return domain.ViewWindow{}, false
	}
	w, ok := s.DefaultWindow()
	if !ok {
		return domain.ViewWindow{}, false
	}
	s.surface.SetViewWindow(w, true)
	return w, true
}
