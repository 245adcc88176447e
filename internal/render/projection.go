package render

import "math"

// Vec3 is a point in normalized plot space, each axis in [0, 1].
type Vec3 struct {
	X, Y, Z float64
}

// View is an orthographic camera direction in degrees.
type View struct {
	Elev float64
	Azim float64
}

// DefaultView matches the usual 3D plot camera: 30° up, -60° around.
var DefaultView = View{Elev: 30, Azim: -60}

// projector maps normalized plot space to pixels inside a plot box.
type projector struct {
	right, up, toward Vec3

	scale          float64
	offX, offY     float64
	centerX, centY float64
}

func dot(a, b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func newProjector(v View, left, top, width, height int) projector {
	e := v.Elev * math.Pi / 180
	a := v.Azim * math.Pi / 180
	p := projector{
		right:  Vec3{X: -math.Sin(a), Y: math.Cos(a)},
		up:     Vec3{X: -math.Sin(e) * math.Cos(a), Y: -math.Sin(e) * math.Sin(a), Z: math.Cos(e)},
		toward: Vec3{X: math.Cos(e) * math.Cos(a), Y: math.Cos(e) * math.Sin(a), Z: math.Sin(e)},
	}

	// Fit the unit cube into the box.
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, c := range cubeCorners() {
		sx, sy := dot(c, p.right), dot(c, p.up)
		minX, maxX = math.Min(minX, sx), math.Max(maxX, sx)
		minY, maxY = math.Min(minY, sy), math.Max(maxY, sy)
	}
	p.scale = math.Min(float64(width)/(maxX-minX), float64(height)/(maxY-minY))
	p.offX, p.offY = (minX+maxX)/2, (minY+maxY)/2
	p.centerX = float64(left) + float64(width)/2
	p.centY = float64(top) + float64(height)/2
	return p
}

// Point projects v to pixel coordinates. Screen y grows downward.
func (p projector) Point(v Vec3) (int, int) {
	sx := (dot(v, p.right) - p.offX) * p.scale
	sy := (dot(v, p.up) - p.offY) * p.scale
	return int(math.Round(p.centerX + sx)), int(math.Round(p.centY - sy))
}

// Depth grows toward the camera.
func (p projector) Depth(v Vec3) float64 { return dot(v, p.toward) }

// Facing reports whether a face with outward normal n is visible.
func (p projector) Facing(n Vec3) bool { return dot(n, p.toward) > 1e-9 }

func cubeCorners() []Vec3 {
	var out []Vec3
	for _, x := range []float64{0, 1} {
		for _, y := range []float64{0, 1} {
			for _, z := range []float64{0, 1} {
				out = append(out, Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// axisScale maps a data interval onto [0, 1].
type axisScale struct {
	lo, hi float64
}

func newAxisScale(lo, hi float64) axisScale {
	if hi <= lo {
		hi = lo + 1
	}
	return axisScale{lo: lo, hi: hi}
}

func (s axisScale) At(v float64) float64 {
	return (v - s.lo) / (s.hi - s.lo)
}

// box is an axis-aligned cuboid in normalized space.
type box struct {
	min, max Vec3
}

type face struct {
	normal  Vec3
	corners [4]Vec3
	shade   float64
}

// faces returns the six faces of b with outward normals and a light factor.
func (b box) faces() []face {
	lo, hi := b.min, b.max
	return []face{
		{Vec3{Z: 1}, [4]Vec3{{lo.X, lo.Y, hi.Z}, {hi.X, lo.Y, hi.Z}, {hi.X, hi.Y, hi.Z}, {lo.X, hi.Y, hi.Z}}, 1.0},
		{Vec3{Z: -1}, [4]Vec3{{lo.X, lo.Y, lo.Z}, {lo.X, hi.Y, lo.Z}, {hi.X, hi.Y, lo.Z}, {hi.X, lo.Y, lo.Z}}, 0.55},
		{Vec3{Y: -1}, [4]Vec3{{lo.X, lo.Y, lo.Z}, {hi.X, lo.Y, lo.Z}, {hi.X, lo.Y, hi.Z}, {lo.X, lo.Y, hi.Z}}, 0.85},
		{Vec3{Y: 1}, [4]Vec3{{lo.X, hi.Y, lo.Z}, {lo.X, hi.Y, hi.Z}, {hi.X, hi.Y, hi.Z}, {hi.X, hi.Y, lo.Z}}, 0.85},
		{Vec3{X: -1}, [4]Vec3{{lo.X, lo.Y, lo.Z}, {lo.X, lo.Y, hi.Z}, {lo.X, hi.Y, hi.Z}, {lo.X, hi.Y, lo.Z}}, 0.7},
		{Vec3{X: 1}, [4]Vec3{{hi.X, lo.Y, lo.Z}, {hi.X, hi.Y, lo.Z}, {hi.X, hi.Y, hi.Z}, {hi.X, lo.Y, hi.Z}}, 0.7},
	}
}

func (b box) center() Vec3 {
	return Vec3{X: (b.min.X + b.max.X) / 2, Y: (b.min.Y + b.max.Y) / 2, Z: (b.min.Z + b.max.Z) / 2}
}
