package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/notify"
	"github.com/alanyoungcy/tickboard/internal/stream"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type published struct {
	channel string
	payload []byte
}

type fakeBus struct {
	mu   sync.Mutex
	msgs []published
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, published{channel, payload})
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBus) messages() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.msgs...)
}

type fakePrices struct {
	mu    sync.Mutex
	id    string
	price float64
	ts    time.Time
}

func (p *fakePrices) SetPrice(_ context.Context, id string, price float64, ts time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id, p.price, p.ts = id, price, ts
	return nil
}

func (p *fakePrices) GetPrice(context.Context, string) (float64, time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.price, p.ts, nil
}

func runInBackground(t *testing.T, run func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestPublisher_TicksBatchRoundTripsThroughCodec(t *testing.T) {
	bus := &fakeBus{}
	prices := &fakePrices{}
	p := NewPublisher(bus, prices, PublisherConfig{StreamID: "demo"}, discard())
	runInBackground(t, p.Run)

	batch := []domain.Tick{
		{Time: t0, Price: 100},
		{Time: t0.Add(time.Second), Price: 101.5},
		{Time: t0.Add(2 * time.Second), Price: 99.25},
	}
	p.TicksFlushed(batch)

	require.Eventually(t, func() bool { return p.Sent() == 1 }, time.Second, 5*time.Millisecond)
	msgs := bus.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ch:ticks", msgs[0].channel)

	var frames []json.RawMessage
	require.NoError(t, json.Unmarshal(msgs[0].payload, &frames))
	require.Len(t, frames, 3)
	var codec stream.JSONCodec
	for i, f := range frames {
		got, err := codec.Decode(f, time.Time{})
		require.NoError(t, err)
		assert.True(t, batch[i].Time.Equal(got.Time))
		assert.Equal(t, batch[i].Price, got.Price)
	}

	require.Eventually(t, func() bool {
		price, _, _ := prices.GetPrice(context.Background(), "demo")
		return price == 99.25
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "demo", prices.id)
}

func TestPublisher_StatusAndTiles(t *testing.T) {
	bus := &fakeBus{}
	p := NewPublisher(bus, nil, PublisherConfig{}, discard())
	runInBackground(t, p.Run)

	p.ConnectionChanged(domain.StateReconnecting)
	p.TileAdded(domain.Tile{ID: "a", Price: 100, Time: t0})
	p.TileRemoved("a")
	p.TicksFlushed(nil)

	require.Eventually(t, func() bool { return p.Sent() == 3 }, time.Second, 5*time.Millisecond)
	msgs := bus.messages()
	assert.Equal(t, "ch:status", msgs[0].channel)
	assert.JSONEq(t, `{"event":"connection","state":"reconnecting"}`, string(msgs[0].payload))
	assert.Equal(t, "ch:tiles", msgs[1].channel)
	assert.Equal(t, "ch:tiles", msgs[2].channel)
	assert.JSONEq(t, `{"event":"tile_removed","id":"a"}`, string(msgs[2].payload))
}

func TestPublisher_DropsWhenQueueFull(t *testing.T) {
	p := NewPublisher(&fakeBus{}, nil, PublisherConfig{QueueSize: 1}, discard())
	p.ConnectionChanged(domain.StateConnected)
	p.ConnectionChanged(domain.StateDisconnected)
	p.ConnectionChanged(domain.StateReconnecting)
	assert.Equal(t, int64(2), p.Dropped())
}

func TestPublisher_UnencodableTileIsNotQueued(t *testing.T) {
	p := NewPublisher(&fakeBus{}, nil, PublisherConfig{QueueSize: 1}, discard())
	p.TileAdded(domain.Tile{ID: "nan", Price: math.NaN(), Time: t0})
	assert.Empty(t, p.queue)
	assert.Zero(t, p.Dropped())
}

func TestPublisher_MuteTicksStillUpdatesPrice(t *testing.T) {
	bus := &fakeBus{}
	prices := &fakePrices{}
	p := NewPublisher(bus, prices, PublisherConfig{MuteTicks: true}, discard())
	runInBackground(t, p.Run)

	p.TicksFlushed([]domain.Tick{{Time: t0, Price: 42}})
	p.ConnectionChanged(domain.StateConnected)

	require.Eventually(t, func() bool { return p.Sent() == 1 }, time.Second, 5*time.Millisecond)
	msgs := bus.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ch:status", msgs[0].channel)
	price, _, _ := prices.GetPrice(context.Background(), "default")
	assert.Equal(t, 42.0, price)
}

type recordNotifier struct {
	mu     sync.Mutex
	events []string
	msgs   []string
}

func (n *recordNotifier) Notify(_ context.Context, event, _, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.msgs = append(n.msgs, message)
	return nil
}

func (n *recordNotifier) snapshot() ([]string, []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...), append([]string(nil), n.msgs...)
}

func TestAlerts_OneAlertPerOutage(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(t0)
	n := &recordNotifier{}
	a := NewAlerts(n, clk, discard())

	// Initial connect failing before the first success is not an outage.
	a.ConnectionChanged(domain.StateConnecting)
	a.ConnectionChanged(domain.StateDisconnected)
	a.ConnectionChanged(domain.StateReconnecting)
	a.ConnectionChanged(domain.StateConnected)

	a.ConnectionChanged(domain.StateDisconnected)
	a.ConnectionChanged(domain.StateReconnecting)
	clk.Add(3 * time.Second)
	a.ConnectionChanged(domain.StateDisconnected)
	a.ConnectionChanged(domain.StateReconnecting)
	clk.Add(3 * time.Second)
	a.ConnectionChanged(domain.StateConnected)

	runInBackground(t, a.Run)
	require.Eventually(t, func() bool {
		events, _ := n.snapshot()
		return len(events) == 2
	}, time.Second, 5*time.Millisecond)

	events, msgs := n.snapshot()
	assert.Equal(t, []string{notify.EventStreamDisconnected, notify.EventStreamRestored}, events)
	assert.Contains(t, msgs[1], "6s")
}

type fakeSource struct {
	snap domain.Snapshot
	err  error
}

func (f fakeSource) Snapshot(context.Context) (domain.Snapshot, error) { return f.snap, f.err }

type fakeRenderer struct{ err error }

func (r fakeRenderer) Render(w io.Writer, snap domain.Snapshot) error {
	if r.err != nil {
		return r.err
	}
	_, err := w.Write([]byte("png"))
	return err
}

type fakeBlobs struct {
	key, contentType string
	data             []byte
}

func (b *fakeBlobs) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	b.key, b.contentType = path, contentType
	var err error
	b.data, err = io.ReadAll(data)
	return err
}

func TestSnapshotExporter_Export(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(t0.Add(1500 * time.Millisecond))
	blobs := &fakeBlobs{}
	e := NewSnapshotExporter(fakeSource{}, fakeRenderer{}, blobs, clk, discard())

	key, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snapshots/20240101T000001.500Z.png", key)
	assert.Equal(t, key, blobs.key)
	assert.Equal(t, "image/png", blobs.contentType)
	assert.Equal(t, []byte("png"), blobs.data)
}

func TestSnapshotExporter_RenderErrorSkipsUpload(t *testing.T) {
	blobs := &fakeBlobs{}
	e := NewSnapshotExporter(fakeSource{}, fakeRenderer{err: domain.ErrNotEnoughData}, blobs, clock.NewMock(), discard())

	_, err := e.Export(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotEnoughData)
	assert.Empty(t, blobs.key)
}

func TestSnapshotExporter_NotifiesOnSuccess(t *testing.T) {
	n := &recordNotifier{}
	e := NewSnapshotExporter(fakeSource{}, fakeRenderer{}, &fakeBlobs{}, clock.NewMock(), discard())
	e.NotifyWith(n)

	key, err := e.Export(context.Background())
	require.NoError(t, err)
	events, msgs := n.snapshot()
	assert.Equal(t, []string{notify.EventSnapshotExported}, events)
	assert.Contains(t, msgs[0], key)
}
