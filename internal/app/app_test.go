package app

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tickboard/internal/config"
	"github.com/alanyoungcy/tickboard/internal/feed"
	"github.com/alanyoungcy/tickboard/internal/series"
	"github.com/alanyoungcy/tickboard/internal/stream"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Server.Port = 0
	cfg.Demo.Interval.Duration = 20 * time.Millisecond
	cfg.Render.Interval.Duration = 50 * time.Millisecond
	return &cfg
}

func TestSessionConfig_MapsSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.Stream.URL = "ws://feed.example/ticks"
	cfg.Render.Retention = "sliding"
	cfg.Render.MaxPoints = 500

	a := New(cfg, discard())
	sc, err := a.sessionConfig()
	require.NoError(t, err)

	assert.Equal(t, "ws://feed.example/ticks", sc.Stream.URL)
	assert.Equal(t, 3*time.Second, sc.Stream.ReconnectDelay)
	assert.Equal(t, 50*time.Millisecond, sc.Render.Interval)
	assert.Equal(t, 0.10, sc.Render.ScrollThreshold)
	assert.Equal(t, series.Sliding, sc.Policy.Retention)
	assert.Equal(t, 500, sc.Policy.MaxPoints)
	assert.Equal(t, 1500*time.Millisecond, sc.Quiet.Pan)
	assert.Equal(t, 120, sc.SeedPoints)
}

func TestSessionConfig_RelayDefaultsChannel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Stream.Source = "relay"

	sc, err := New(cfg, discard()).sessionConfig()
	require.NoError(t, err)
	assert.Equal(t, feed.DefaultRelayChannel, sc.Stream.URL)
}

func TestNewDialer(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, discard())

	d, err := a.newDialer(&Dependencies{}, false)
	require.NoError(t, err)
	assert.IsType(t, stream.WSDialer{}, d)

	cfg.Stream.Source = "relay"
	_, err = a.newDialer(&Dependencies{}, false)
	assert.Error(t, err, "relay without a signal bus")

	d, err = a.newDialer(&Dependencies{}, true)
	require.NoError(t, err)
	assert.IsType(t, stream.WSDialer{}, d, "the simulator is always dialled over websocket")
}

func TestWire_DisabledBackends(t *testing.T) {
	cfg := testConfig(t)
	deps, cleanup, err := Wire(context.Background(), cfg, discard())
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, deps.SignalBus)
	assert.Nil(t, deps.BlobWriter)
	assert.Empty(t, deps.Checks)
	require.NotNil(t, deps.Notifier)
	assert.False(t, deps.Notifier.Enabled("stream_disconnected"))
}

func TestRun_UnknownMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = "replay"
	a := New(cfg, discard())
	defer a.Close()

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported mode"))
}

func runUntilCancelled(t *testing.T, cfg *config.Config) {
	t.Helper()
	a := New(cfg, discard())
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- a.Run(ctx) }()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDemoMode_RunsUntilCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = "demo"
	runUntilCancelled(t, cfg)
}

func TestHeadlessMode_ReadsExternalStream(t *testing.T) {
	sim := feed.NewSimulator(feed.SimulatorConfig{Interval: 10 * time.Millisecond, StartPrice: 50}, discard())
	srv := httptest.NewServer(sim)
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Mode = "headless"
	cfg.Server.Enabled = false
	cfg.Stream.URL = "ws" + strings.TrimPrefix(srv.URL, "http")

	runUntilCancelled(t, cfg)
	assert.Positive(t, sim.Sent())
}
