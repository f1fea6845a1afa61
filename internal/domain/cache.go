package domain

import (
	"context"
	"time"
)

// PriceCache mirrors the latest price per stream for out-of-process readers.
type PriceCache interface {
	SetPrice(ctx context.Context, streamID string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, streamID string) (float64, time.Time, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub fan-out.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
