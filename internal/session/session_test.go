package session

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tickboard/internal/coords"
	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/interaction"
	"github.com/alanyoungcy/tickboard/internal/render"
	"github.com/alanyoungcy/tickboard/internal/stream"
)

type testConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once
}

func (c *testConn) ReadMessage() ([]byte, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case <-c.closed:
		return nil, net.ErrClosed
	}
}

func (c *testConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type testDialer struct {
	conns chan *testConn
}

func (d *testDialer) Dial(ctx context.Context, url string) (stream.Conn, error) {
	c := &testConn{frames: make(chan []byte, 16), closed: make(chan struct{})}
	d.conns <- c
	return c, nil
}

// testSurface keeps the last state it was given and maps pixels through a
// fixed 800x400 canvas.
type testSurface struct {
	mu          sync.Mutex
	ready       bool
	view        domain.ViewWindow
	series      []domain.Tick
	tiles       []domain.Tile
	state       domain.ConnectionState
	viewUpdates int
	appended    []domain.Tick
}

func (s *testSurface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *testSurface) SetInitialSeries(series []domain.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = series
}

func (s *testSurface) SupportsIncremental() bool { return true }

func (s *testSurface) AppendIncremental(t domain.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, t)
}

func (s *testSurface) RequestFullRedraw(series []domain.Tick) {}

func (s *testSurface) ViewWindow() domain.ViewWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *testSurface) SetViewWindow(w domain.ViewWindow, animate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = w
	s.viewUpdates++
}

func (s *testSurface) PixelToDomain(x, y float64) (time.Time, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := coords.Frame{
		Canvas:   coords.Canvas{Width: 800, Height: 400},
		Padding:  coords.Padding{},
		View:     s.view,
		PriceMin: 90,
		PriceMax: 110,
	}
	t, p, err := coords.Mapper{}.PixelToDomain(f, x, y)
	return t, p, err == nil
}

func (s *testSurface) SetTiles(tiles []domain.Tile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles = tiles
}

func (s *testSurface) SetConnectionState(state domain.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *testSurface) updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewUpdates
}

type recordingObserver struct {
	mu      sync.Mutex
	flushed [][]domain.Tick
	states  []domain.ConnectionState
	added   []string
	removed []string
}

func (o *recordingObserver) TicksFlushed(batch []domain.Tick) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushed = append(o.flushed, batch)
}

func (o *recordingObserver) ConnectionChanged(state domain.ConnectionState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *recordingObserver) TileAdded(tile domain.Tile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.added = append(o.added, tile.ID)
}

func (o *recordingObserver) TileRemoved(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.removed = append(o.removed, id)
}

type fixture struct {
	sess     *Session
	clock    *clock.Mock
	surface  *testSurface
	observer *recordingObserver
	conn     *testConn
	done     chan error
}

func start(t *testing.T, cfg Config, surface *testSurface) *fixture {
	t.Helper()
	f := &fixture{
		clock:    clock.NewMock(),
		surface:  surface,
		observer: &recordingObserver{},
		done:     make(chan error, 1),
	}
	f.clock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	dialer := &testDialer{conns: make(chan *testConn, 4)}
	if cfg.Quiet == (interaction.QuietPeriods{}) {
		cfg.Quiet = interaction.DefaultQuietPeriods()
	}
	if cfg.Render == (render.Config{}) {
		// Tests flush by hand; keep the ticker out of the way.
		cfg.Render = render.DefaultConfig()
		cfg.Render.Interval = time.Hour
	}
	var surf domain.Surface
	if surface != nil {
		surf = surface
	}
	f.sess = New(cfg, Deps{
		Dialer:    dialer,
		Clock:     f.clock,
		Surface:   surf,
		Observers: []Observer{f.observer},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	go func() { f.done <- f.sess.Run(context.Background()) }()
	t.Cleanup(f.sess.Shutdown)

	select {
	case f.conn = <-dialer.conns:
	case <-time.After(2 * time.Second):
		t.Fatal("session never dialed")
	}
	require.Eventually(t, func() bool {
		return f.sess.State() == domain.StateConnected
	}, 2*time.Second, time.Millisecond)
	return f
}

func (f *fixture) waitBuffered(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, err := f.sess.Snapshot(context.Background())
		return err == nil && snap.Buffered == n
	}, 2*time.Second, time.Millisecond)
}

func (f *fixture) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, f.sess.loop.Do(context.Background(), f.sess.flush))
}

func TestSession_EndToEndThreeTicks(t *testing.T) {
	surface := &testSurface{ready: true}
	f := start(t, Config{}, surface)

	base := f.clock.Now()
	f.conn.frames <- []byte(`{"time": "` + base.Format(time.RFC3339Nano) + `", "price": 100}`)
	f.conn.frames <- []byte(`{"time": "` + base.Add(time.Second).Format(time.RFC3339Nano) + `", "price": 101}`)
	f.conn.frames <- []byte(`{"time": "` + base.Add(2*time.Second).Format(time.RFC3339Nano) + `", "price": 99}`)
	f.waitBuffered(t, 3)
	f.flush(t)

	snap, err := f.sess.Snapshot(context.Background())
	require.NoError(t, err)
	prices := make([]float64, 0, len(snap.Series))
	for _, tk := range snap.Series {
		prices = append(prices, tk.Price)
	}
	assert.Equal(t, []float64{100, 101, 99}, prices)
	assert.Equal(t, 0, snap.Buffered)
	assert.True(t, snap.View.Contains(base.Add(2*time.Second)))
	assert.Equal(t, int64(1), snap.Stats.Flushes)
	assert.Equal(t, int64(3), snap.Stats.Received)
	assert.Equal(t, domain.StateConnected, snap.State)

	f.observer.mu.Lock()
	defer f.observer.mu.Unlock()
	require.Len(t, f.observer.flushed, 1)
	assert.Len(t, f.observer.flushed[0], 3)
	assert.Contains(t, f.observer.states, domain.StateConnected)
}

func TestSession_MalformedFrameDropped(t *testing.T) {
	f := start(t, Config{}, &testSurface{ready: true})
	f.conn.frames <- []byte(`garbage`)
	f.conn.frames <- []byte(`{"price": 5}`)
	f.waitBuffered(t, 1)

	snap, err := f.sess.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Stats.Malformed)
	assert.Equal(t, domain.StateConnected, snap.State)
}

func TestSession_SurfaceNotReadyKeepsTicksBuffered(t *testing.T) {
	f := start(t, Config{}, &testSurface{ready: false})
	f.conn.frames <- []byte(`{"price": 5}`)
	f.waitBuffered(t, 1)
	f.flush(t)
	f.waitBuffered(t, 1)
}

func TestSession_BusySuppressesScroll(t *testing.T) {
	surface := &testSurface{ready: true}
	f := start(t, Config{SeedPoints: 60, SeedStep: time.Second, SeedPrice: 100}, surface)
	// Seeding gave the view its default window ending at start-up.
	require.Equal(t, 1, surface.updates())

	require.NoError(t, f.sess.Gesture(domain.Gesture{Kind: domain.GesturePan, Phase: domain.PhaseStart}))
	for i := 1; i <= 3; i++ {
		f.conn.frames <- []byte(`{"price": 100}`)
		f.waitBuffered(t, 1)
		f.flush(t)
	}
	snap, err := f.sess.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Busy)
	assert.Equal(t, 1, surface.updates())

	// Once the pan's quiet period passes the tracker goes idle.
	f.clock.Add(1500 * time.Millisecond)
	require.Eventually(t, func() bool {
		snap, err := f.sess.Snapshot(context.Background())
		return err == nil && !snap.Busy
	}, 2*time.Second, time.Millisecond)

	f.conn.frames <- []byte(`{"price": 100}`)
	f.waitBuffered(t, 1)
	f.flush(t)
	assert.Equal(t, 2, surface.updates())
}

func TestSession_UserViewOrderedAfterGesture(t *testing.T) {
	surface := &testSurface{ready: true}
	f := start(t, Config{SeedPoints: 60, SeedStep: time.Second, SeedPrice: 100}, surface)
	f.conn.frames <- []byte(`{"price": 100}`)
	f.waitBuffered(t, 1)

	// Hold the loop so a render cycle is already queued when the browser's
	// gesture and view arrive.
	release := make(chan struct{})
	require.True(t, f.sess.loop.Post(func() { <-release }))
	require.True(t, f.sess.loop.Post(f.sess.flush))

	past := f.clock.Now().Add(-time.Hour)
	userWindow := domain.ViewWindow{TimeMin: past, TimeMax: past.Add(5 * time.Minute)}
	require.NoError(t, f.sess.Gesture(domain.Gesture{Kind: domain.GesturePan, Phase: domain.PhaseStart}))
	require.NoError(t, f.sess.UserView(func() { surface.SetViewWindow(userWindow, false) }))
	close(release)

	snap, err := f.sess.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Busy)
	assert.Equal(t, userWindow, snap.View)

	// Later cycles leave the user's window alone while the pan is active.
	f.conn.frames <- []byte(`{"price": 101}`)
	f.waitBuffered(t, 1)
	f.flush(t)
	assert.Equal(t, userWindow, surface.ViewWindow())
}

func TestSession_Tiles(t *testing.T) {
	surface := &testSurface{ready: true}
	f := start(t, Config{SeedPoints: 10, SeedStep: time.Second, SeedPrice: 100}, surface)
	ctx := context.Background()

	view := surface.ViewWindow()
	tile, err := f.sess.PlaceTile(ctx, 400, 200)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, tile.Price, 1e-9)
	mid := view.TimeMin.Add(view.Span() / 2)
	assert.InDelta(t, float64(mid.UnixNano()), float64(tile.Time.UnixNano()), 1e3)

	_, err = f.sess.PlaceTile(ctx, 900, 200)
	assert.ErrorIs(t, err, domain.ErrOutsidePlot)

	other, err := f.sess.PlaceTile(ctx, 100, 100)
	require.NoError(t, err)

	list, err := f.sess.Tiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Tile{tile, other}, list)

	removed, err := f.sess.RemoveTile(ctx, tile.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = f.sess.RemoveTile(ctx, tile.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	list, err = f.sess.Tiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Tile{other}, list)

	f.observer.mu.Lock()
	assert.Equal(t, []string{tile.ID, other.ID}, f.observer.added)
	assert.Equal(t, []string{tile.ID}, f.observer.removed)
	f.observer.mu.Unlock()

	surface.mu.Lock()
	assert.Equal(t, []domain.Tile{other}, surface.tiles)
	surface.mu.Unlock()
}

func TestSession_ResetView(t *testing.T) {
	surface := &testSurface{ready: true}
	f := start(t, Config{SeedPoints: 5, SeedStep: time.Second, SeedPrice: 100}, surface)
	surface.SetViewWindow(domain.ViewWindow{TimeMin: time.Unix(0, 0), TimeMax: time.Unix(60, 0)}, false)

	w, err := f.sess.ResetView(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), w.TimeMax)
	assert.Equal(t, 5*time.Minute, w.Span())
	assert.Equal(t, w, surface.ViewWindow())
}

func TestSession_Shutdown(t *testing.T) {
	f := start(t, Config{}, &testSurface{ready: true})
	f.sess.Shutdown()
	f.sess.Shutdown()

	select {
	case err := <-f.done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	ctx := context.Background()
	_, err := f.sess.PlaceTile(ctx, 1, 1)
	assert.ErrorIs(t, err, domain.ErrClosed)
	_, err = f.sess.RemoveTile(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrClosed)
	_, err = f.sess.Snapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrClosed)
	assert.ErrorIs(t, f.sess.Gesture(domain.Gesture{Kind: domain.GestureWheel}), domain.ErrClosed)
	assert.ErrorIs(t, f.sess.UserView(func() {}), domain.ErrClosed)
	assert.Equal(t, domain.StateDisconnected, f.sess.State())

	select {
	case <-f.conn.closed:
	default:
		t.Fatal("live connection left open")
	}
}

func TestSession_ShutdownBeforeRun(t *testing.T) {
	sess := New(Config{}, Deps{Dialer: &testDialer{conns: make(chan *testConn, 1)}})
	sess.Shutdown()
	assert.NoError(t, sess.Run(context.Background()))
}

func TestSession_GestureValidation(t *testing.T) {
	f := start(t, Config{}, nil)
	err := f.sess.Gesture(domain.Gesture{Kind: "pinch"})
	assert.Error(t, err)
}
