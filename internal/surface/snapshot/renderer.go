package snapshot

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/alanyoungcy/tickboard/internal/coords"
	"github.com/alanyoungcy/tickboard/internal/domain"
)

// Renderer draws a snapshot as a PNG line chart with tiles as annotations.
type Renderer struct {
	Width  int
	Height int
}

// DefaultRenderer matches the default browser canvas.
var DefaultRenderer = Renderer{Width: 1024, Height: 480}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 1.5,
	}
}

func timeLabel(v interface{}) string {
	if f, ok := v.(float64); ok {
		return time.Unix(0, int64(f)).UTC().Format("15:04:05")
	}
	return ""
}

// Render writes the chart for snap to w. Only ticks inside the view window
// are drawn; a zero window draws everything. Fewer than two visible ticks
// fail with domain.ErrNotEnoughData.
func (r Renderer) Render(w io.Writer, snap domain.Snapshot) error {
	var (
		xs []time.Time
		ys []float64
	)
	for _, t := range snap.Series {
		if !snap.View.IsZero() && !snap.View.Contains(t.Time) {
			continue
		}
		xs = append(xs, t.Time)
		ys = append(ys, t.Price)
	}
	if len(xs) < 2 {
		return fmt.Errorf("snapshot: render %d points: %w", len(xs), domain.ErrNotEnoughData)
	}

	lo, hi, ok := coords.ResolvePriceRange(snap.View, snap.Series)
	if !ok {
		return fmt.Errorf("snapshot: render: %w", domain.ErrNotEnoughData)
	}

	series := []chart.Series{
		chart.TimeSeries{Name: "price", XValues: xs, YValues: ys, Style: lineStyle(chart.ColorBlue)},
	}
	if len(snap.Tiles) > 0 {
		notes := make([]chart.Value2, 0, len(snap.Tiles))
		for _, tl := range snap.Tiles {
			notes = append(notes, chart.Value2{
				XValue: chart.TimeToFloat64(tl.Time),
				YValue: tl.Price,
				Label:  fmt.Sprintf("%.2f", tl.Price),
			})
		}
		series = append(series, chart.AnnotationSeries{Name: "tiles", Annotations: notes})
	}

	xAxis := chart.XAxis{ValueFormatter: timeLabel}
	if !snap.View.IsZero() {
		xAxis.Range = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(snap.View.TimeMin),
			Max: chart.TimeToFloat64(snap.View.TimeMax),
		}
	}

	width, height := r.Width, r.Height
	if width <= 0 || height <= 0 {
		width, height = DefaultRenderer.Width, DefaultRenderer.Height
	}
	ch := chart.Chart{
		Title:      "tickboard (" + snap.State.String() + ")",
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      xAxis,
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series:     series,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("snapshot: render: %w", err)
	}
	return nil
}
