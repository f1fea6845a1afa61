package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/notify"
)

// SnapshotPrefix is the object key prefix for exported charts.
const SnapshotPrefix = "snapshots/"

// SnapshotSource supplies the chart state to export.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// ChartRenderer draws a snapshot as PNG.
type ChartRenderer interface {
	Render(w io.Writer, snap domain.Snapshot) error
}

// SnapshotExporter renders the current chart and uploads it to object
// storage as snapshots/<timestamp>.png.
type SnapshotExporter struct {
	source   SnapshotSource
	renderer ChartRenderer
	blobs    domain.BlobWriter
	clk      clock.Clock
	notifier Notifier
	logger   *slog.Logger
}

// NewSnapshotExporter creates an exporter. A nil clk uses the wall clock.
func NewSnapshotExporter(src SnapshotSource, r ChartRenderer, blobs domain.BlobWriter, clk clock.Clock, logger *slog.Logger) *SnapshotExporter {
	if clk == nil {
		clk = clock.New()
	}
	return &SnapshotExporter{
		source:   src,
		renderer: r,
		blobs:    blobs,
		clk:      clk,
		logger:   logger.With(slog.String("component", "snapshot_exporter")),
	}
}

// NotifyWith announces every successful export through n.
func (e *SnapshotExporter) NotifyWith(n Notifier) {
	e.notifier = n
}

// SnapshotKey returns the object key for a snapshot taken at t.
func SnapshotKey(t time.Time) string {
	return SnapshotPrefix + t.UTC().Format("20060102T150405.000Z") + ".png"
}

// Export uploads one snapshot and returns its key. A chart with too few
// points fails with domain.ErrNotEnoughData.
func (e *SnapshotExporter) Export(ctx context.Context) (string, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot_exporter: snapshot: %w", err)
	}
	var buf bytes.Buffer
	if err := e.renderer.Render(&buf, snap); err != nil {
		return "", fmt.Errorf("snapshot_exporter: render: %w", err)
	}
	key := SnapshotKey(e.clk.Now())
	if err := e.blobs.Put(ctx, key, &buf, "image/png"); err != nil {
		return "", fmt.Errorf("snapshot_exporter: upload: %w", err)
	}
	e.logger.InfoContext(ctx, "snapshot exported",
		slog.String("key", key),
		slog.Int("points", len(snap.Series)),
	)
	if e.notifier != nil {
		msg := fmt.Sprintf("%d points uploaded to %s", len(snap.Series), key)
		if err := e.notifier.Notify(ctx, notify.EventSnapshotExported, "Chart snapshot exported", msg); err != nil {
			e.logger.WarnContext(ctx, "export notification failed", slog.String("error", err.Error()))
		}
	}
	return key, nil
}

// Run exports every interval until ctx is cancelled. Failed exports are
// logged and retried on the next tick.
func (e *SnapshotExporter) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := e.clk.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := e.Export(ctx); err != nil {
				e.logger.WarnContext(ctx, "periodic export failed", slog.String("error", err.Error()))
			}
		}
	}
}
