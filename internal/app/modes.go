package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/tickboard/internal/coords"
	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/feed"
	"github.com/alanyoungcy/tickboard/internal/interaction"
	"github.com/alanyoungcy/tickboard/internal/notify"
	"github.com/alanyoungcy/tickboard/internal/render"
	"github.com/alanyoungcy/tickboard/internal/series"
	"github.com/alanyoungcy/tickboard/internal/server"
	"github.com/alanyoungcy/tickboard/internal/server/handler"
	"github.com/alanyoungcy/tickboard/internal/service"
	"github.com/alanyoungcy/tickboard/internal/session"
	"github.com/alanyoungcy/tickboard/internal/stream"
	"github.com/alanyoungcy/tickboard/internal/surface/snapshot"
	"github.com/alanyoungcy/tickboard/internal/surface/ws"
)

// shutdownTimeout bounds the HTTP drain on exit.
const shutdownTimeout = 5 * time.Second

// runOptions selects the surface and the extra endpoints of a mode.
type runOptions struct {
	// headless renders to the in-memory PNG surface instead of browsers.
	headless bool
	// simulator is mounted on /stream and becomes the tick source.
	simulator *feed.Simulator
}

// LiveMode streams from the configured source and serves the chart to
// browsers over /ws.
func (a *App) LiveMode(ctx context.Context, deps *Dependencies) error {
	return a.run(ctx, deps, runOptions{})
}

// DemoMode runs the built-in simulator on this server's /stream endpoint and
// points the session at it.
func (a *App) DemoMode(ctx context.Context, deps *Dependencies) error {
	codec, err := stream.NewCodec(a.cfg.Stream.Codec)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	sim := feed.NewSimulator(feed.SimulatorConfig{
		Interval:       a.cfg.Demo.Interval.Duration,
		StartPrice:     a.cfg.Demo.StartPrice,
		Volatility:     a.cfg.Demo.Volatility,
		DropEvery:      a.cfg.Demo.DropEvery,
		MalformedEvery: a.cfg.Demo.MalformedEvery,
		Codec:          codec,
	}, a.logger)
	return a.run(ctx, deps, runOptions{simulator: sim})
}

// HeadlessMode keeps the pipeline running without browsers. The chart is
// available as PNG from the API and, with object storage, exported.
func (a *App) HeadlessMode(ctx context.Context, deps *Dependencies) error {
	return a.run(ctx, deps, runOptions{headless: true})
}

// run builds the session and its collaborators for one mode and blocks until
// ctx is cancelled or any component fails.
func (a *App) run(ctx context.Context, deps *Dependencies, opts runOptions) error {
	clk := clock.New()
	canvas := coords.Canvas{Width: float64(a.cfg.Surface.Width), Height: float64(a.cfg.Surface.Height)}

	codec, err := stream.NewCodec(a.cfg.Stream.Codec)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	dialer, err := a.newDialer(deps, opts.simulator != nil)
	if err != nil {
		return err
	}
	sessCfg, err := a.sessionConfig()
	if err != nil {
		return err
	}

	// The listener is bound first so demo mode learns its port before the
	// session dials the simulator.
	var ln net.Listener
	if a.cfg.Server.Enabled {
		addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("app: listen %s: %w", addr, err)
		}
		defer ln.Close()
	}
	if opts.simulator != nil {
		if ln == nil {
			return fmt.Errorf("app: demo mode needs the HTTP server")
		}
		sessCfg.Stream.URL = fmt.Sprintf("ws://127.0.0.1:%d/stream", ln.Addr().(*net.TCPAddr).Port)
	}

	// --- Surface ---
	var (
		hub     *ws.Hub
		surface domain.Surface
	)
	if opts.headless {
		surface = snapshot.NewSurface(canvas)
	} else {
		enc, err := ws.ParseEncoding(a.cfg.Surface.FrameEncoding)
		if err != nil {
			return fmt.Errorf("app: %w", err)
		}
		hub = ws.NewHub(enc, a.logger)
		wsSurface := ws.NewSurface(hub, canvas)
		if sessCfg.Policy.Retention == series.Sliding {
			wsSurface.Limit = sessCfg.Policy.MaxPoints
		}
		surface = wsSurface
	}

	// --- Observers ---
	var (
		observers []session.Observer
		publisher *service.Publisher
		alerts    *service.Alerts
	)
	if deps.SignalBus != nil {
		pubCfg := service.DefaultPublisherConfig()
		pubCfg.StreamID = a.cfg.Redis.StreamID
		if a.cfg.Stream.Source == "relay" && opts.simulator == nil && sessCfg.Stream.URL == pubCfg.TicksChannel {
			pubCfg.MuteTicks = true
			a.logger.InfoContext(ctx, "relay follower, tick fan-out muted",
				slog.String("channel", pubCfg.TicksChannel),
			)
		}
		publisher = service.NewPublisher(deps.SignalBus, deps.PriceCache, pubCfg, a.logger)
		observers = append(observers, publisher)
	}
	if deps.Notifier != nil &&
		(deps.Notifier.Enabled(notify.EventStreamDisconnected) || deps.Notifier.Enabled(notify.EventStreamRestored)) {
		alerts = service.NewAlerts(deps.Notifier, clk, a.logger)
		observers = append(observers, alerts)
	}

	sess := session.New(sessCfg, session.Deps{
		Dialer:    dialer,
		Codec:     codec,
		Surface:   surface,
		Clock:     clk,
		Observers: observers,
		Logger:    a.logger,
	})
	if hub != nil {
		hub.Bind(sess)
	}

	renderer := snapshot.Renderer{Width: a.cfg.Surface.Width, Height: a.cfg.Surface.Height}
	var exporter *service.SnapshotExporter
	if deps.BlobWriter != nil {
		exporter = service.NewSnapshotExporter(sess, renderer, deps.BlobWriter, clk, a.logger)
		if deps.Notifier != nil && deps.Notifier.Enabled(notify.EventSnapshotExported) {
			exporter.NotifyWith(deps.Notifier)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if hub != nil {
		g.Go(func() error { return hub.Run(ctx) })
	}
	if publisher != nil {
		g.Go(func() error { return publisher.Run(ctx) })
	}
	if alerts != nil {
		g.Go(func() error { return alerts.Run(ctx) })
	}
	if exporter != nil && a.cfg.S3.ExportInterval.Duration > 0 {
		interval := a.cfg.S3.ExportInterval.Duration
		g.Go(func() error { return exporter.Run(ctx, interval) })
	}
	if ln != nil {
		srv := a.newServer(deps, sess, hub, renderer, exporter, opts.simulator)
		a.startHTTPServer(ctx, g, srv, ln)
	}

	g.Go(func() error {
		defer sess.Shutdown()
		return sess.Run(ctx)
	})

	a.logger.InfoContext(ctx, "pipeline running",
		slog.String("mode", a.cfg.Mode),
		slog.String("source", a.cfg.Stream.Source),
		slog.String("url", sessCfg.Stream.URL),
		slog.Int("observers", len(observers)),
		slog.Bool("export", exporter != nil),
	)
	return g.Wait()
}

// newDialer picks the tick source transport. The simulator is always reached
// over websocket.
func (a *App) newDialer(deps *Dependencies, simulated bool) (stream.Dialer, error) {
	switch {
	case a.cfg.Stream.Source == "relay" && !simulated:
		if deps.SignalBus == nil {
			return nil, fmt.Errorf("app: relay source needs redis")
		}
		return feed.RelayDialer{Bus: deps.SignalBus}, nil
	default:
		return stream.WSDialer{HandshakeTimeout: a.cfg.Stream.DialTimeout.Duration}, nil
	}
}

// sessionConfig translates the configuration into the session's settings.
func (a *App) sessionConfig() (session.Config, error) {
	retention, err := series.ParseRetention(a.cfg.Render.Retention)
	if err != nil {
		return session.Config{}, fmt.Errorf("app: %w", err)
	}
	url := a.cfg.Stream.URL
	if a.cfg.Stream.Source == "relay" && url == "" {
		url = feed.DefaultRelayChannel
	}
	return session.Config{
		Stream: stream.Config{
			URL:            url,
			ReconnectDelay: a.cfg.Stream.ReconnectDelay.Duration,
			StaleAfter:     a.cfg.Stream.StaleAfter.Duration,
			DialTimeout:    a.cfg.Stream.DialTimeout.Duration,
		},
		Render: render.Config{
			Interval:        a.cfg.Render.Interval.Duration,
			ScrollThreshold: a.cfg.Render.ScrollThreshold,
			DefaultWindow:   a.cfg.Render.DefaultWindow.Duration,
		},
		Policy: series.Policy{
			Retention: retention,
			MaxPoints: a.cfg.Render.MaxPoints,
		},
		Quiet: interaction.QuietPeriods{
			Wheel: a.cfg.Interaction.WheelQuiet.Duration,
			Pan:   a.cfg.Interaction.PanQuiet.Duration,
			Zoom:  a.cfg.Interaction.ZoomQuiet.Duration,
			Touch: a.cfg.Interaction.TouchQuiet.Duration,
		},
		SeedPoints: a.cfg.Stream.SeedPoints,
		SeedStep:   a.cfg.Stream.SeedStep.Duration,
		SeedPrice:  a.cfg.Stream.SeedPrice,
	}, nil
}

// newServer mounts every handler the mode supports. hub, exporter and sim
// may be nil.
func (a *App) newServer(
	deps *Dependencies,
	sess *session.Session,
	hub *ws.Hub,
	renderer snapshot.Renderer,
	exporter *service.SnapshotExporter,
	sim *feed.Simulator,
) *server.Server {
	h := server.Handlers{
		Health: handler.NewHealthHandler(deps.Checks),
		Status: handler.NewStatusHandler(a.cfg.Mode, sess, a.logger),
		Series: handler.NewSeriesHandler(sess, a.logger),
		Tiles:  handler.NewTileHandler(sess, a.logger),
		View:   handler.NewViewHandler(sess, a.logger),
		Chart:  handler.NewChartHandler(sess, renderer, a.logger),
	}
	if exporter != nil {
		h.Snapshots = handler.NewSnapshotHandler(exporter, deps.BlobReader, service.SnapshotPrefix, a.logger)
	}
	if hub != nil {
		h.WS = hub.HandleWS
	}
	if sim != nil {
		h.Stream = sim
	}

	return server.New(server.Config{
		Addr:        fmt.Sprintf(":%d", a.cfg.Server.Port),
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, h, deps.RateLimiter, a.logger)
}

// startHTTPServer serves on ln inside the errgroup and shuts the server down
// when ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, srv *server.Server, ln net.Listener) {
	g.Go(func() error {
		return srv.Serve(ln)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
