package chart

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"coinwatch/internal/domain"

	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.opentelemetry.io/otel/trace"
)

const (
	historyDays     = 7
	timestampLayout = "2006-01-02 15:04:05"
	maxXTicks       = 8
)

// Artifact is a rendered chart image on disk. It belongs to exactly one
// in-flight request, which must Remove it after the reply is sent.
type Artifact struct {
	Path string
}

func (a *Artifact) Remove() error {
	return os.Remove(a.Path)
}

// HistoryProvider supplies the raw price series for a coin.
type HistoryProvider interface {
	PriceHistory(ctx context.Context, id, vsCurrency string, days int) ([]domain.PricePoint, error)
}

// Renderer draws the 7-day price line chart for a coin and persists it as a
// uniquely named PNG under the images directory.
type Renderer struct {
	tracer     trace.Tracer
	provider   HistoryProvider
	dir        string
	vsCurrency string
}

func NewRenderer(tracer trace.Tracer, provider HistoryProvider, dir, vsCurrency string) *Renderer {
	return &Renderer{
		tracer:     tracer,
		provider:   provider,
		dir:        dir,
		vsCurrency: vsCurrency,
	}
}

// Render fetches the coin's 7-day price history and writes the chart PNG.
// Filenames are fresh UUIDs, so concurrent renders never collide.
func (r *Renderer) Render(ctx context.Context, coinID string) (*Artifact, error) {
	_, span := r.tracer.Start(ctx, "chart.render")
	defer span.End()

	points, err := r.provider.PriceHistory(ctx, coinID, r.vsCurrency, historyDays)
	if err != nil {
		return nil, fmt.Errorf("fetch price history for %s: %w", coinID, err)
	}

	labels, values := collapseBySecond(points)
	if len(values) == 0 {
		return nil, fmt.Errorf("empty price history for %s", coinID)
	}

	// MkdirAll tolerates the directory already existing, including a
	// concurrent creator winning the race.
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir %s: %w", r.dir, err)
	}

	path := filepath.Join(r.dir, uuid.NewString()+".png")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create chart file: %w", err)
	}

	if err := renderLineChart(coinID, labels, values, f); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("render chart for %s: %w", coinID, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close chart file: %w", err)
	}

	return &Artifact{Path: path}, nil
}

// collapseBySecond converts each sample's epoch-millisecond timestamp to a
// local-time string at second granularity. Samples landing on the same
// second collapse to the last value seen; first-occurrence order is kept.
func collapseBySecond(points []domain.PricePoint) ([]string, []float64) {
	order := make([]string, 0, len(points))
	byLabel := make(map[string]float64, len(points))

	for _, pt := range points {
		label := time.UnixMilli(pt.TimestampMS).Format(timestampLayout)
		if _, seen := byLabel[label]; !seen {
			order = append(order, label)
		}
		byLabel[label] = pt.Price
	}

	values := make([]float64, len(order))
	for i, label := range order {
		values[i] = byLabel[label]
	}
	return order, values
}

// renderLineChart draws a single-series line chart with rotated x labels on
// a transparent canvas, styled for dark chat backgrounds.
func renderLineChart(coinID string, labels []string, values []float64, w io.Writer) error {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	graph := chart.Chart{
		Title:      fmt.Sprintf("7-day historical market price of %s", coinID),
		TitleStyle: chart.Style{FontColor: drawing.ColorWhite, FontSize: 15},
		Background: chart.Style{FillColor: drawing.ColorTransparent},
		Canvas:     chart.Style{FillColor: drawing.ColorTransparent},
		XAxis: chart.XAxis{
			Style: chart.Style{FontColor: drawing.ColorWhite, TextRotationDegrees: 45},
			Ticks: buildTicks(labels),
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: drawing.ColorWhite},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: values,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2},
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

// buildTicks subsamples the label list so the rotated timestamps stay
// legible, always keeping the first and last sample.
func buildTicks(labels []string) []chart.Tick {
	if len(labels) == 0 {
		return nil
	}

	step := (len(labels) - 1) / (maxXTicks - 1)
	if step < 1 {
		step = 1
	}

	ticks := make([]chart.Tick, 0, maxXTicks+1)
	for i := 0; i < len(labels); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: labels[i]})
	}

	last := len(labels) - 1
	if ticks[len(ticks)-1].Value != float64(last) {
		ticks = append(ticks, chart.Tick{Value: float64(last), Label: labels[last]})
	}
	return ticks
}
