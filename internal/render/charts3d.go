package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"unicode/utf8"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"segviz-srv/internal/models"
	"segviz-srv/internal/parser"
	"segviz-srv/internal/segments"
)

const (
	barHalfWidth   = 0.4
	maxLegendItems = 24
	maxLabelRunes  = 18
	zTickCount     = 5
)

// SegmentPlot is the input of the 3D charts: segments plus the derived axes.
type SegmentPlot struct {
	Segments []models.MatchSegment
	Index    segments.MatchIndex
	Axis     []int
	Title    string
	View     View
}

// NewSegmentPlot derives the match index and chromosome axis from segs.
func NewSegmentPlot(segs []models.MatchSegment, title string) SegmentPlot {
	return SegmentPlot{
		Segments: segs,
		Index:    segments.BuildMatchIndex(segs),
		Axis:     segments.ChromosomeAxis(segs),
		Title:    title,
		View:     DefaultView,
	}
}

// scene is the shared layout of a 3D chart.
type scene struct {
	r                  chart.Renderer
	proj               projector
	sx, sy, sz         axisScale
	backX, backY       float64
	frontX, frontY     float64
	plot               SegmentPlot
	legendLeft, legTop int
}

func newScene(c Canvas, p SegmentPlot) (*scene, error) {
	if len(p.Segments) == 0 || len(p.Axis) == 0 {
		return nil, ErrNoData
	}
	r, err := c.NewRenderer()
	if err != nil {
		return nil, err
	}

	legendWidth := 0
	if p.Index.Len() > 0 {
		legendWidth = 190
	}
	const top, margin = 48, 70
	plotW := c.Width - legendWidth - 2*margin
	plotH := c.Height - top - margin
	if plotW < 100 {
		plotW = 100
	}
	if plotH < 100 {
		plotH = 100
	}

	var maxEnd int64
	for _, s := range p.Segments {
		if s.EndLocation > maxEnd {
			maxEnd = s.EndLocation
		}
	}

	view := p.View
	if view == (View{}) {
		view = DefaultView
	}
	s := &scene{
		r:          r,
		proj:       newProjector(view, margin, top, plotW, plotH),
		sx:         newAxisScale(float64(p.Axis[0])-0.5, float64(p.Axis[len(p.Axis)-1])+0.5),
		sy:         newAxisScale(-0.5, float64(p.Index.Len())-0.5),
		sz:         newAxisScale(0, float64(maxEnd)*1.05),
		plot:       p,
		legendLeft: c.Width - legendWidth + 10,
		legTop:     top,
	}
	// Panes go on the far side of each axis.
	if s.proj.toward.X > 0 {
		s.backX, s.frontX = 0, 1
	} else {
		s.backX, s.frontX = 1, 0
	}
	if s.proj.toward.Y > 0 {
		s.backY, s.frontY = 0, 1
	} else {
		s.backY, s.frontY = 1, 0
	}

	s.drawTitle(c, p.Title)
	s.drawPanes()
	return s, nil
}

func (s *scene) coords(seg models.MatchSegment) (x, y float64, ok bool) {
	i, ok := s.plot.Index.Lookup(seg.MatchName)
	if !ok {
		return 0, 0, false
	}
	return float64(seg.Chromosome), float64(i), true
}

func (s *scene) polygon(pts []Vec3, fill, stroke drawing.Color, width float64) {
	s.r.SetFillColor(fill)
	s.r.SetStrokeColor(stroke)
	s.r.SetStrokeWidth(width)
	x, y := s.proj.Point(pts[0])
	s.r.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = s.proj.Point(p)
		s.r.LineTo(x, y)
	}
	s.r.Close()
	s.r.FillStroke()
}

func (s *scene) line(a, b Vec3, col drawing.Color, width float64) {
	s.r.SetStrokeColor(col)
	s.r.SetStrokeWidth(width)
	x0, y0 := s.proj.Point(a)
	x1, y1 := s.proj.Point(b)
	s.r.MoveTo(x0, y0)
	s.r.LineTo(x1, y1)
	s.r.Stroke()
}

func (s *scene) text(label string, x, y int, size float64, col drawing.Color, align float64) {
	s.r.SetFontSize(size)
	s.r.SetFontColor(col)
	w := s.r.MeasureText(label).Width()
	s.r.Text(label, x-int(float64(w)*align), y)
}

func (s *scene) drawTitle(c Canvas, title string) {
	if title == "" {
		return
	}
	s.r.SetFontSize(14)
	s.r.SetFontColor(labelColor)
	w := s.r.MeasureText(title).Width()
	s.r.Text(title, (c.Width-w)/2, 28)
}

// drawPanes draws the floor and the two back walls with grid lines.
func (s *scene) drawPanes() {
	pane := drawing.ColorFromHex("f2f2f2")
	bx, by := s.backX, s.backY
	s.polygon([]Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, pane, gridColor, 1)
	s.polygon([]Vec3{{bx, 0, 0}, {bx, 1, 0}, {bx, 1, 1}, {bx, 0, 1}}, pane, gridColor, 1)
	s.polygon([]Vec3{{0, by, 0}, {1, by, 0}, {1, by, 1}, {0, by, 1}}, pane, gridColor, 1)

	for _, chrom := range s.plot.Axis {
		x := s.sx.At(float64(chrom))
		s.line(Vec3{x, 0, 0}, Vec3{x, 1, 0}, gridColor, 0.5)
		s.line(Vec3{x, by, 0}, Vec3{x, by, 1}, gridColor, 0.5)
	}
	for i := 0; i < s.plot.Index.Len(); i++ {
		y := s.sy.At(float64(i))
		s.line(Vec3{0, y, 0}, Vec3{1, y, 0}, gridColor, 0.5)
		s.line(Vec3{bx, y, 0}, Vec3{bx, y, 1}, gridColor, 0.5)
	}
	for _, v := range s.zTicks() {
		z := s.sz.At(v)
		s.line(Vec3{bx, 0, z}, Vec3{bx, 1, z}, gridColor, 0.5)
		s.line(Vec3{0, by, z}, Vec3{1, by, z}, gridColor, 0.5)
	}
}

func (s *scene) zTicks() []float64 {
	step := niceStep(s.sz.hi / float64(zTickCount))
	var ticks []float64
	for v := 0.0; v <= s.sz.hi; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

// niceStep rounds raw up to 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*exp {
			return m * exp
		}
	}
	return 10 * exp
}

func chromosomeLabel(n int) string {
	switch n {
	case parser.ChromosomeX:
		return "X"
	case parser.ChromosomeY:
		return "Y"
	}
	return fmt.Sprintf("%d", n)
}

func positionLabel(v, top float64) string {
	if top >= 1e6 {
		return fmt.Sprintf("%.0f Mb", v/1e6)
	}
	if top >= 1e3 {
		return fmt.Sprintf("%.0f kb", v/1e3)
	}
	return fmt.Sprintf("%.0f", v)
}

func shorten(s string) string {
	if utf8.RuneCountInString(s) <= maxLabelRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxLabelRunes-1]) + "…"
}

// drawAxes labels the three axes along the front edges.
func (s *scene) drawAxes() {
	fx, fy, bx := s.frontX, s.frontY, s.backX

	s.line(Vec3{0, fy, 0}, Vec3{1, fy, 0}, axisColor, 1)
	s.line(Vec3{fx, 0, 0}, Vec3{fx, 1, 0}, axisColor, 1)
	s.line(Vec3{bx, fy, 0}, Vec3{bx, fy, 1}, axisColor, 1)

	for _, chrom := range s.plot.Axis {
		x, y := s.proj.Point(Vec3{s.sx.At(float64(chrom)), fy, 0})
		s.text(chromosomeLabel(chrom), x, y+16, 9, labelColor, 0.5)
	}
	ax, ay := s.proj.Point(Vec3{0.5, fy, 0})
	s.text("Chromosome", ax, ay+36, 10, axisColor, 0.5)

	for i, name := range s.plot.Index.Names() {
		x, y := s.proj.Point(Vec3{fx, s.sy.At(float64(i)), 0})
		s.text(shorten(name), x+8, y+12, 8, labelColor, 0)
	}
	mx, my := s.proj.Point(Vec3{fx, 0.5, 0})
	s.text("Match", mx+40, my+40, 10, axisColor, 0)

	for _, v := range s.zTicks() {
		x, y := s.proj.Point(Vec3{bx, fy, s.sz.At(v)})
		s.text(positionLabel(v, s.sz.hi), x-8, y+4, 8, labelColor, 1)
	}
	zx, zy := s.proj.Point(Vec3{bx, fy, 1})
	s.text("Position (bp)", zx, zy-12, 10, axisColor, 0.5)
}

func (s *scene) drawLegend() {
	names := s.plot.Index.Names()
	if len(names) == 0 {
		return
	}
	x, y := s.legendLeft, s.legTop
	s.text("Matches", x, y, 10, axisColor, 0)
	for i, name := range names {
		y += 16
		if i == maxLegendItems {
			s.text(fmt.Sprintf("+%d more", len(names)-i), x, y, 8, labelColor, 0)
			break
		}
		col := matchColor(i)
		s.r.SetFillColor(col)
		s.r.SetStrokeColor(shade(col, 0.7))
		s.r.SetStrokeWidth(1)
		s.r.MoveTo(x, y-9)
		s.r.LineTo(x+10, y-9)
		s.r.LineTo(x+10, y+1)
		s.r.LineTo(x, y+1)
		s.r.Close()
		s.r.FillStroke()
		s.text(shorten(name), x+16, y, 8, labelColor, 0)
	}
}

func (s *scene) save(c Canvas, w io.Writer) error {
	var buf bytes.Buffer
	if err := s.r.Save(&buf); err != nil {
		return err
	}
	return c.finish(w, &buf)
}

func shade(c drawing.Color, k float64) drawing.Color {
	scale := func(v uint8) uint8 { return uint8(math.Min(255, float64(v)*k)) }
	return drawing.Color{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}

type placedBar struct {
	b     box
	color drawing.Color
	depth float64
}

// Bars3D draws one bar per segment: chromosome on X, match on Y, and a bar
// rising from the segment start to its end on Z.
func Bars3D(c Canvas, w io.Writer, p SegmentPlot) error {
	s, err := newScene(c, p)
	if err != nil {
		return err
	}

	bars := make([]placedBar, 0, len(p.Segments))
	for _, seg := range p.Segments {
		x, y, ok := s.coords(seg)
		if !ok {
			continue
		}
		i := int(y)
		b := box{
			min: Vec3{s.sx.At(x - barHalfWidth), s.sy.At(y - barHalfWidth), s.sz.At(float64(seg.StartLocation))},
			max: Vec3{s.sx.At(x + barHalfWidth), s.sy.At(y + barHalfWidth), s.sz.At(float64(seg.EndLocation))},
		}
		bars = append(bars, placedBar{b: b, color: matchColor(i).WithAlpha(180), depth: s.proj.Depth(b.center())})
	}
	// Back to front.
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].depth < bars[j].depth })

	for _, pb := range bars {
		for _, f := range pb.b.faces() {
			if !s.proj.Facing(f.normal) {
				continue
			}
			s.polygon(f.corners[:], shade(pb.color, f.shade), shade(pb.color, f.shade*0.75), 0.5)
		}
	}

	s.drawAxes()
	s.drawLegend()
	return s.save(c, w)
}

type placedSpan struct {
	from, to Vec3
	color    drawing.Color
	depth    float64
}

// Lines3D draws each segment as a line from its start to its end position,
// at its chromosome and match coordinates.
func Lines3D(c Canvas, w io.Writer, p SegmentPlot) error {
	s, err := newScene(c, p)
	if err != nil {
		return err
	}

	spans := make([]placedSpan, 0, len(p.Segments))
	for _, seg := range p.Segments {
		x, y, ok := s.coords(seg)
		if !ok {
			continue
		}
		from := Vec3{s.sx.At(x), s.sy.At(y), s.sz.At(float64(seg.StartLocation))}
		to := Vec3{s.sx.At(x), s.sy.At(y), s.sz.At(float64(seg.EndLocation))}
		mid := Vec3{from.X, from.Y, (from.Z + to.Z) / 2}
		spans = append(spans, placedSpan{from: from, to: to, color: matchColor(int(y)), depth: s.proj.Depth(mid)})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].depth < spans[j].depth })

	for _, sp := range spans {
		s.line(sp.from, sp.to, sp.color, 3)
		for _, end := range []Vec3{sp.from, sp.to} {
			x, y := s.proj.Point(end)
			s.r.SetFillColor(sp.color)
			s.r.SetStrokeColor(shade(sp.color, 0.7))
			s.r.SetStrokeWidth(1)
			s.r.Circle(2.5, x, y)
			s.r.FillStroke()
		}
	}

	s.drawAxes()
	s.drawLegend()
	return s.save(c, w)
}
