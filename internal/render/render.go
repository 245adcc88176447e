package render

import (
	"fmt"
	"io"

	"segviz-srv/internal/models"
	"segviz-srv/internal/segments"
)

// Options are the per-request knobs shared by every chart.
type Options struct {
	Range segments.Range
	Bins  int
}

// Chart draws kind from ds onto c. A missing column is returned as the
// dataset's *parser.MissingColumnError and nothing is written.
func Chart(c Canvas, w io.Writer, ds *segments.Dataset, kind models.ChartKind, opts Options) error {
	if err := ds.Require(kind); err != nil {
		return err
	}

	switch kind {
	case models.ChartBar3D:
		p := NewSegmentPlot(ds.Segments, "Shared DNA segments")
		c.Caption = fmt.Sprintf("%d segments, %d matches, %d chromosomes", len(p.Segments), p.Index.Len(), len(p.Axis))
		return Bars3D(c, w, p)
	case models.ChartLine3D:
		p := NewSegmentPlot(ds.Segments, "Shared DNA segment spans")
		c.Caption = fmt.Sprintf("%d segments, %d matches, %d chromosomes", len(p.Segments), p.Index.Len(), len(p.Axis))
		return Lines3D(c, w, p)
	case models.ChartHistogram:
		c.Caption = rangeCaption(ds.CMRecords, opts.Range)
		return Histogram(c, w, ds.CMRecords, opts.Range, opts.Bins)
	case models.ChartScatter:
		c.Caption = rangeCaption(ds.CMRecords, opts.Range)
		return Scatter(c, w, ds.CMRecords, opts.Range)
	}
	return fmt.Errorf("unknown chart %q", kind)
}

func rangeCaption(records []models.MatchSegment, rng segments.Range) string {
	kept := len(segments.FilterByRange(records, rng.Min, rng.Max))
	return fmt.Sprintf("%d of %d records between %.1f and %.1f cM", kept, len(records), rng.Min, rng.Max)
}
