package render

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"

	"segviz-srv/internal/models"
	"segviz-srv/internal/parser"
	"segviz-srv/internal/segments"
)

const segmentCSV = `Match Name,Chromosome,Start Location,End Location,Shared cM
Alice,1,1000000,5000000,12.5
Bob,X,2000000,9000000,8
Alice,7,10000000,22000000,30.1
Carol,3,500000,4000000,9
`

const summaryCSV = `Match Name,Shared DNA,Shared Segments
Alice,"1.2% (88.0 cM)",4
Bob,"0.3% (22.1 cM)",2
Carol,9.5 cM,1
`

func dataset(t *testing.T, csv string) *segments.Dataset {
	t.Helper()
	d, err := segments.NewLoader(nil).Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return d
}

func TestChartsRenderPNG(t *testing.T) {
	seg := dataset(t, segmentCSV)
	sum := dataset(t, summaryCSV)
	opts := Options{Range: segments.DefaultRange(sum.CMRecords), Bins: 10}

	cases := []struct {
		kind models.ChartKind
		ds   *segments.Dataset
	}{
		{models.ChartBar3D, seg},
		{models.ChartLine3D, seg},
		{models.ChartHistogram, sum},
		{models.ChartScatter, sum},
	}
	for _, c := range cases {
		t.Run(string(c.kind), func(t *testing.T) {
			var buf bytes.Buffer
			canvas := NewCanvas(FormatPNG, 800, 600)
			if err := Chart(canvas, &buf, c.ds, c.kind, opts); err != nil {
				t.Fatalf("render: %v", err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
				t.Fatalf("size: %v", b)
			}
		})
	}
}

func TestChartsRenderSVG(t *testing.T) {
	seg := dataset(t, segmentCSV)
	for _, kind := range []models.ChartKind{models.ChartBar3D, models.ChartLine3D} {
		var buf bytes.Buffer
		if err := Chart(NewCanvas(FormatSVG, 0, 0), &buf, seg, kind, Options{}); err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if !strings.Contains(buf.String(), "<svg") {
			t.Fatalf("%s: output is not svg", kind)
		}
	}
}

func TestChartMissingColumn(t *testing.T) {
	sum := dataset(t, summaryCSV)
	var buf bytes.Buffer
	err := Chart(NewCanvas(FormatPNG, 0, 0), &buf, sum, models.ChartBar3D, Options{})
	var mc *parser.MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("want MissingColumnError, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written on a missing column")
	}
}

func TestHistogramEmptyRange(t *testing.T) {
	sum := dataset(t, summaryCSV)
	var buf bytes.Buffer
	err := Chart(NewCanvas(FormatPNG, 0, 0), &buf, sum, models.ChartHistogram, Options{Range: segments.Range{Min: 500, Max: 600}})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
}

func TestHistogramBins(t *testing.T) {
	recs := []models.MatchSegment{{SharedCM: 8}, {SharedCM: 9.9}, {SharedCM: 10}, {SharedCM: 20}, {SharedCM: 21}}
	bins := HistogramBins(recs, segments.Range{Min: 8, Max: 20}, 6)
	if len(bins) != 6 {
		t.Fatalf("bins: %d", len(bins))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 4 {
		t.Fatalf("out-of-range record counted: total=%d", total)
	}
	if bins[0].Count != 2 || bins[1].Count != 1 || bins[5].Count != 1 {
		t.Fatalf("unexpected counts: %+v", bins)
	}
	if bins[5].Hi != 20 {
		t.Fatalf("last bin upper edge: %v", bins[5].Hi)
	}
}

func TestScatterPointsSkipsMissingCounts(t *testing.T) {
	n := 3
	xs, ys := ScatterPoints([]models.MatchSegment{{SharedCM: 10, SegmentCount: &n}, {SharedCM: 12}})
	if len(xs) != 1 || xs[0] != 10 || ys[0] != 3 {
		t.Fatalf("points: %v %v", xs, ys)
	}
}

func TestProjectionKeepsCubeInsideBox(t *testing.T) {
	p := newProjector(DefaultView, 10, 20, 400, 300)
	for _, c := range cubeCorners() {
		x, y := p.Point(c)
		if x < 9 || x > 411 || y < 19 || y > 321 {
			t.Fatalf("corner %+v projected outside box: %d,%d", c, x, y)
		}
	}
	// Camera sits above the floor, so the top face is visible and the bottom is not.
	if !p.Facing(Vec3{Z: 1}) || p.Facing(Vec3{Z: -1}) {
		t.Fatalf("unexpected facing for default view")
	}
	near := p.Depth(Vec3{X: 1, Y: 0, Z: 1})
	far := p.Depth(Vec3{X: 0, Y: 1, Z: 0})
	if near <= far {
		t.Fatalf("depth ordering: near=%v far=%v", near, far)
	}
}

func TestNiceStep(t *testing.T) {
	cases := map[float64]float64{0.17: 0.2, 3: 5, 42e6: 50e6, 1: 1, 0: 1}
	for in, want := range cases {
		if got := niceStep(in); math.Abs(got-want) > 1e-9*want {
			t.Errorf("niceStep(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestCaptionOnlyOnPNG(t *testing.T) {
	c := NewCanvas(FormatSVG, 0, 0)
	c.Caption = "hello"
	var in, out bytes.Buffer
	in.WriteString("<svg></svg>")
	if err := c.finish(&out, &in); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if out.String() != "<svg></svg>" {
		t.Fatalf("svg output changed: %q", out.String())
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatPNG {
		t.Fatalf("default: %v %v", f, err)
	}
	if f, err := ParseFormat("SVG"); err != nil || f != FormatSVG {
		t.Fatalf("svg: %v %v", f, err)
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("expected error")
	}
}
