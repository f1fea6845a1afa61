package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/tickboard/internal/domain"
)

// PriceCache implements domain.PriceCache with one hash per stream at
// "price:{streamID}" holding "price" and "ts" (unix nanoseconds).
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache on the client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func priceKey(streamID string) string {
	return "price:" + streamID
}

// SetPrice stores the newest price for a stream.
func (pc *PriceCache) SetPrice(ctx context.Context, streamID string, price float64, ts time.Time) error {
	fields := map[string]any{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := pc.rdb.HSet(ctx, priceKey(streamID), fields).Err(); err != nil {
		return fmt.Errorf("redis: set price %s: %w", streamID, err)
	}
	return nil
}

// GetPrice returns domain.ErrNotFound when nothing was stored yet.
func (pc *PriceCache) GetPrice(ctx context.Context, streamID string) (float64, time.Time, error) {
	vals, err := pc.rdb.HGetAll(ctx, priceKey(streamID)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get price %s: %w", streamID, err)
	}
	return parsePriceHash(streamID, vals)
}

func parsePriceHash(streamID string, vals map[string]string) (float64, time.Time, error) {
	priceStr, ok := vals["price"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	tsStr, ok := vals["ts"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse price %s: %w", streamID, err)
	}
	ns, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", streamID, err)
	}
	return price, time.Unix(0, ns).UTC(), nil
}

var _ domain.PriceCache = (*PriceCache)(nil)
