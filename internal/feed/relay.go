package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/stream"
)

// DefaultRelayChannel is where Publisher fans out flushed batches.
const DefaultRelayChannel = "ch:ticks"

// RelayDialer is a stream.Dialer over the signal bus. The dial target is a
// channel name; each message on it is either one tick frame or a JSON array
// of frames, which is how another instance publishes its flushed batches.
type RelayDialer struct {
	Bus domain.SignalBus
}

// Dial subscribes to channel. The subscription outlives ctx, which only
// bounds the subscribe handshake, and ends when the returned Conn is closed.
func (d RelayDialer) Dial(ctx context.Context, channel string) (stream.Conn, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultRelayChannel
	}
	subCtx, cancel := context.WithCancel(context.Background())
	// Abort a handshake that outlives the dial deadline.
	stop := context.AfterFunc(ctx, cancel)

	ch, err := d.Bus.Subscribe(subCtx, channel)
	if !stop() {
		cancel()
		return nil, fmt.Errorf("feed: relay subscribe %s: %w", channel, ctx.Err())
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("feed: relay subscribe %s: %w", channel, err)
	}
	return &relayConn{msgs: ch, cancel: cancel}, nil
}

type relayConn struct {
	msgs    <-chan []byte
	cancel  context.CancelFunc
	pending [][]byte
	once    sync.Once
}

// ReadMessage returns the next tick frame, splitting batch messages.
func (c *relayConn) ReadMessage() ([]byte, error) {
	for len(c.pending) == 0 {
		data, ok := <-c.msgs
		if !ok {
			return nil, io.EOF
		}
		c.pending = splitFrames(data)
	}
	frame := c.pending[0]
	c.pending = c.pending[1:]
	return frame, nil
}

func (c *relayConn) Close() error {
	c.once.Do(c.cancel)
	return nil
}

// splitFrames breaks a JSON array into its elements. Anything else is passed
// through untouched so the codec can accept or reject it.
func splitFrames(data []byte) [][]byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return [][]byte{data}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return [][]byte{data}
	}
	out := make([][]byte, 0, len(items))
	for _, it := range items {
		out = append(out, []byte(it))
	}
	return out
}
