// Package service holds the session observers that carry pipeline events
// out of the process: Redis fan-out, operator alerts and snapshot export.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/stream"
)

// PublisherConfig names the channels the publisher writes to.
type PublisherConfig struct {
	TicksChannel  string
	StatusChannel string
	TilesChannel  string
	// MuteTicks stops batch fan-out but keeps the price cache current. A
	// relay follower sets it so it does not echo the channel it reads.
	MuteTicks bool
	// StreamID keys the last-price entry in the price cache.
	StreamID  string
	QueueSize int
	// Timeout bounds each Redis call.
	Timeout time.Duration
}

// DefaultPublisherConfig returns the standard channel layout.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		TicksChannel:  "ch:ticks",
		StatusChannel: "ch:status",
		TilesChannel:  "ch:tiles",
		StreamID:      "default",
		QueueSize:     1024,
		Timeout:       2 * time.Second,
	}
}

type pubJob struct {
	channel string
	payload []byte
	last    *domain.Tick
}

// Publisher mirrors session events onto the signal bus. Observer methods
// only encode and enqueue, so a slow Redis never stalls the session loop;
// when the queue is full the event is dropped and counted.
type Publisher struct {
	bus     domain.SignalBus
	prices  domain.PriceCache
	cfg     PublisherConfig
	queue   chan pubJob
	dropped atomic.Int64
	sent    atomic.Int64
	logger  *slog.Logger
}

// NewPublisher creates a Publisher. prices may be nil.
func NewPublisher(bus domain.SignalBus, prices domain.PriceCache, cfg PublisherConfig, logger *slog.Logger) *Publisher {
	def := DefaultPublisherConfig()
	if cfg.TicksChannel == "" {
		cfg.TicksChannel = def.TicksChannel
	}
	if cfg.StatusChannel == "" {
		cfg.StatusChannel = def.StatusChannel
	}
	if cfg.TilesChannel == "" {
		cfg.TilesChannel = def.TilesChannel
	}
	if cfg.StreamID == "" {
		cfg.StreamID = def.StreamID
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Publisher{
		bus:    bus,
		prices: prices,
		cfg:    cfg,
		queue:  make(chan pubJob, cfg.QueueSize),
		logger: logger.With(slog.String("component", "publisher")),
	}
}

// Dropped is the number of events discarded because the queue was full.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Sent is the number of messages published successfully.
func (p *Publisher) Sent() int64 { return p.sent.Load() }

// TicksFlushed publishes the batch as a JSON array of tick frames, the
// shape the relay stream source reads back.
func (p *Publisher) TicksFlushed(batch []domain.Tick) {
	if len(batch) == 0 {
		return
	}
	payload, err := encodeBatch(batch)
	if err != nil {
		p.logger.Error("encode batch", slog.String("error", err.Error()))
		return
	}
	last := batch[len(batch)-1]
	channel := p.cfg.TicksChannel
	if p.cfg.MuteTicks {
		channel = ""
	}
	p.enqueue(pubJob{channel: channel, payload: payload, last: &last})
}

// ConnectionChanged publishes the new connection state on the status channel.
func (p *Publisher) ConnectionChanged(state domain.ConnectionState) {
	p.enqueueEvent(p.cfg.StatusChannel, map[string]any{
		"event": "connection",
		"state": state.String(),
	})
}

// TileAdded publishes the placed tile on the tiles channel.
func (p *Publisher) TileAdded(tile domain.Tile) {
	p.enqueueEvent(p.cfg.TilesChannel, map[string]any{
		"event": "tile_added",
		"tile":  tile,
	})
}

// TileRemoved publishes the removed tile's id on the tiles channel.
func (p *Publisher) TileRemoved(id string) {
	p.enqueueEvent(p.cfg.TilesChannel, map[string]any{
		"event": "tile_removed",
		"id":    id,
	})
}

func (p *Publisher) enqueueEvent(channel string, event map[string]any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("encode event",
			slog.String("channel", channel),
			slog.Any("event", event["event"]),
			slog.String("error", err.Error()),
		)
		return
	}
	p.enqueue(pubJob{channel: channel, payload: payload})
}

func (p *Publisher) enqueue(j pubJob) {
	select {
	case p.queue <- j:
	default:
		if p.dropped.Add(1)%100 == 1 {
			p.logger.Warn("queue full, dropping event",
				slog.String("channel", j.channel),
				slog.Int64("dropped", p.dropped.Load()),
			)
		}
	}
}

// Run publishes queued events until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-p.queue:
			p.publish(ctx, j)
		}
	}
}

func (p *Publisher) publish(ctx context.Context, j pubJob) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if j.channel != "" {
		if err := p.bus.Publish(ctx, j.channel, j.payload); err != nil {
			p.logger.WarnContext(ctx, "publish failed",
				slog.String("channel", j.channel),
				slog.String("error", err.Error()),
			)
		} else {
			p.sent.Add(1)
		}
	}
	if j.last != nil && p.prices != nil {
		if err := p.prices.SetPrice(ctx, p.cfg.StreamID, j.last.Price, j.last.Time); err != nil {
			p.logger.WarnContext(ctx, "price cache update failed",
				slog.String("stream_id", p.cfg.StreamID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func encodeBatch(batch []domain.Tick) ([]byte, error) {
	var codec stream.JSONCodec
	frames := make([]json.RawMessage, 0, len(batch))
	for _, t := range batch {
		b, err := codec.Encode(t)
		if err != nil {
			return nil, fmt.Errorf("service: encode tick: %w", err)
		}
		frames = append(frames, b)
	}
	return json.Marshal(frames)
}
