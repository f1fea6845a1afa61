package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/notify"
)

// Notifier is the subset of notify.Notifier alerts need.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

type alert struct {
	event, title, message string
}

// Alerts tells operators when the stream drops and when it comes back. One
// outage produces one disconnected alert no matter how many reconnect
// attempts it takes.
type Alerts struct {
	notifier Notifier
	clk      clock.Clock
	queue    chan alert
	logger   *slog.Logger

	// Touched only from the session loop.
	connected bool
	down      bool
	since     time.Time
}

// NewAlerts creates an Alerts observer. A nil clk uses the wall clock.
func NewAlerts(n Notifier, clk clock.Clock, logger *slog.Logger) *Alerts {
	if clk == nil {
		clk = clock.New()
	}
	return &Alerts{
		notifier: n,
		clk:      clk,
		queue:    make(chan alert, 16),
		logger:   logger.With(slog.String("component", "alerts")),
	}
}

// ConnectionChanged feeds state changes into the outage tracking.
func (a *Alerts) ConnectionChanged(state domain.ConnectionState) {
	switch state {
	case domain.StateConnected:
		if a.down {
			a.push(alert{
				event:   notify.EventStreamRestored,
				title:   "Stream restored",
				message: fmt.Sprintf("Tick stream reconnected after %s.", a.clk.Since(a.since).Round(time.Second)),
			})
		}
		a.connected, a.down = true, false
	case domain.StateDisconnected:
		if a.connected && !a.down {
			a.down = true
			a.since = a.clk.Now()
			a.push(alert{
				event:   notify.EventStreamDisconnected,
				title:   "Stream disconnected",
				message: "Tick stream lost; retrying.",
			})
		}
	}
}

// Alerts only watches the connection.
func (a *Alerts) TicksFlushed([]domain.Tick) {}
func (a *Alerts) TileAdded(domain.Tile)      {}
func (a *Alerts) TileRemoved(string)         {}

func (a *Alerts) push(al alert) {
	select {
	case a.queue <- al:
	default:
		a.logger.Warn("alert queue full, dropping", slog.String("event", al.event))
	}
}

// Run delivers queued alerts until ctx is cancelled.
func (a *Alerts) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case al := <-a.queue:
			if err := a.notifier.Notify(ctx, al.event, al.title, al.message); err != nil {
				a.logger.WarnContext(ctx, "alert delivery failed",
					slog.String("event", al.event),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
