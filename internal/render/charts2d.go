package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"segviz-srv/internal/models"
	"segviz-srv/internal/segments"
)

// DefaultBins is the histogram bin count when none is given.
const DefaultBins = 20

// ErrNoData is returned when a chart has nothing to draw after filtering.
var ErrNoData = errors.New("no records in the selected range")

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 1,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    col.WithAlpha(200),
	}
}

// Bin is one histogram bucket over [Lo, Hi). The last bin includes Hi.
type Bin struct {
	Lo, Hi float64
	Count  int
}

// HistogramBins splits rng into n equal bins and counts records per bin.
// Records outside rng are ignored.
func HistogramBins(records []models.MatchSegment, rng segments.Range, n int) []Bin {
	if n <= 0 {
		n = DefaultBins
	}
	lo, hi := rng.Min, rng.Max
	if hi < lo {
		return nil
	}
	if hi == lo {
		hi = lo + 1
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi

	for _, r := range records {
		if !rng.Contains(r.SharedCM) {
			continue
		}
		i := int((r.SharedCM - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}
	return bins
}

// Histogram draws the cM distribution of records within rng.
func Histogram(c Canvas, w io.Writer, records []models.MatchSegment, rng segments.Range, bins int) error {
	filtered := segments.FilterByRange(records, rng.Min, rng.Max)
	if len(filtered) == 0 {
		return ErrNoData
	}
	hist := HistogramBins(filtered, rng, bins)

	maxCount := 1
	bars := make([]chart.Value, len(hist))
	for i, b := range hist {
		bars[i] = chart.Value{
			Value: float64(b.Count),
			Label: fmt.Sprintf("%.0f", b.Lo),
			Style: chart.Style{
				FillColor:   palette[2],
				StrokeColor: palette[2],
				StrokeWidth: 1,
			},
		}
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	spacing := 4
	barWidth := (c.Width-140)/len(bars) - spacing
	if barWidth < 2 {
		barWidth = 2
	}

	bc := chart.BarChart{
		Title:      fmt.Sprintf("Shared cM distribution (%.1f to %.1f cM, n=%d)", rng.Min, rng.Max, len(filtered)),
		Width:      c.Width,
		Height:     c.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		YAxis: chart.YAxis{
			Name:  "Count",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(c.Provider(), &buf); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return c.finish(w, &buf)
}

// ScatterPoints projects records with a segment count onto (cM, count) pairs.
func ScatterPoints(records []models.MatchSegment) (xs, ys []float64) {
	for _, r := range records {
		if r.SegmentCount == nil {
			continue
		}
		xs = append(xs, r.SharedCM)
		ys = append(ys, float64(*r.SegmentCount))
	}
	return xs, ys
}

// Scatter draws shared cM against segment count for records within rng.
func Scatter(c Canvas, w io.Writer, records []models.MatchSegment, rng segments.Range) error {
	xs, ys := ScatterPoints(segments.FilterByRange(records, rng.Min, rng.Max))
	if len(xs) == 0 {
		return ErrNoData
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("Shared cM vs. segment count (n=%d)", len(xs)),
		Width:      c.Width,
		Height:     c.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		XAxis: chart.XAxis{
			Name:  "Shared cM",
			Range: paddedRange(xs),
		},
		YAxis: chart.YAxis{
			Name:  "Segments",
			Range: paddedRange(ys),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Matches",
				Style:   pointStyle(palette[1]),
				XValues: xs,
				YValues: ys,
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(c.Provider(), &buf); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return c.finish(w, &buf)
}

// paddedRange spans values with a 5% margin and never has zero width.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	floor := lo - pad
	if lo >= 0 && floor < 0 {
		floor = 0
	}
	return &chart.ContinuousRange{Min: floor, Max: hi + pad}
}
