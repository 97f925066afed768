package canvas

import "math"

// Vec2 is a 2D point/vector used throughout the canvas package. Every path
// function below produces points normalized to [-1, +1].
type Vec2 struct {
	X, Y float32
}

// Vec4 backs per-corner tint and border-radii rows (spec ShapeDesc.tint/
// border_radii).
type Vec4 struct {
	X, Y, Z, W float32
}

// Rect is a pixel-space scissor/region, matching the spec's gfx::Rect
// {offset, extent}. MaxExtent is the sentinel meaning "unbounded".
type Rect struct {
	OffsetX, OffsetY uint32
	ExtentX, ExtentY uint32
}

const MaxExtent = ^uint32(0)

// DefaultScissor is the canvas's initial/default scissor: the whole
// surface (spec §3 ShapeDesc default).
var DefaultScissor = Rect{ExtentX: MaxExtent, ExtentY: MaxExtent}

// Path holds the leaf, stateless path-generation utilities of spec §4.8.
// Every function appends points in the [-1, +1] range; none retain state
// between calls. Grounded on original_source/ashura/engine/canvas.h's
// Path struct, reworked from in-out Vec<Vec2> parameters into idiomatic
// Go functions that return new slices.
type Path struct{}

// Rect returns the four corners of the unit square, counter-clockwise
// starting at the bottom-left.
func (Path) Rect() []Vec2 {
	return []Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
}

// Arc returns segments+1 points of the unit circle's arc from start to
// stop (radians).
func (Path) Arc(segments uint32, start, stop float32) []Vec2 {
	if segments == 0 {
		segments = 1
	}
	pts := make([]Vec2, segments+1)
	step := (stop - start) / float32(segments)
	for i := uint32(0); i <= segments; i++ {
		a := start + step*float32(i)
		pts[i] = Vec2{X: float32(math.Cos(float64(a))), Y: float32(math.Sin(float64(a)))}
	}
	return pts
}

// Circle returns segments points around the unit circle (no duplicated
// closing point; the ngon triangulator closes the loop implicitly).
func (p Path) Circle(segments uint32) []Vec2 {
	pts := p.Arc(segments, 0, 2*math.Pi)
	if len(pts) > 1 {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// RRect returns a rounded-rect outline in [-1, +1]^2: one arc per corner,
// radii given per corner in border_radii order (top-left, top-right,
// bottom-right, bottom-left), clamped to 1 (half the unit square's side).
func (p Path) RRect(segments uint32, radii Vec4) []Vec2 {
	clamp := func(r float32) float32 {
		if r < 0 {
			return 0
		}
		if r > 1 {
			return 1
		}
		return r
	}
	tl, tr, br, bl := clamp(radii.X), clamp(radii.Y), clamp(radii.Z), clamp(radii.W)

	var pts []Vec2
	appendArcAt := func(cx, cy, r float32, start, stop float32) {
		if r <= 0 {
			pts = append(pts, Vec2{cx, cy})
			return
		}
		for _, a := range p.Arc(segments, start, stop) {
			pts = append(pts, Vec2{cx + a.X*r, cy + a.Y*r})
		}
	}

	const half = float32(math.Pi / 2)
	appendArcAt(1-tr, 1-tr, tr, 0, half)
	appendArcAt(-1+tl, 1-tl, tl, half, 2*half)
	appendArcAt(-1+bl, -1+bl, bl, 2*half, 3*half)
	appendArcAt(1-br, -1+br, br, 3*half, 4*half)
	return pts
}

// BRect returns a beveled rect outline: each corner is cut by `slants[i]`
// (fraction of the half-extent removed along both edges meeting there).
func (Path) BRect(slants Vec4) []Vec2 {
	clamp := func(s float32) float32 {
		if s < 0 {
			return 0
		}
		if s > 1 {
			return 1
		}
		return s
	}
	tr, tl, bl, br := clamp(slants.X), clamp(slants.Y), clamp(slants.Z), clamp(slants.W)
	return []Vec2{
		{-1 + tl, 1}, {1 - tr, 1}, {1, 1 - tr},
		{1, -1 + br}, {1 - br, -1}, {-1 + bl, -1},
		{-1, -1 + bl}, {-1, 1 - tl},
	}
}

// Bezier returns `segments+1` points along the quadratic Bezier curve
// cp0 -> cp1 -> cp2.
func (Path) Bezier(segments uint32, cp0, cp1, cp2 Vec2) []Vec2 {
	if segments == 0 {
		segments = 1
	}
	pts := make([]Vec2, segments+1)
	for i := uint32(0); i <= segments; i++ {
		t := float32(i) / float32(segments)
		u := 1 - t
		pts[i] = Vec2{
			X: u*u*cp0.X + 2*u*t*cp1.X + t*t*cp2.X,
			Y: u*u*cp0.Y + 2*u*t*cp1.Y + t*t*cp2.Y,
		}
	}
	return pts
}

// CubicBezier returns `segments+1` points along the cubic Bezier curve
// cp0 -> cp1 -> cp2 -> cp3.
func (Path) CubicBezier(segments uint32, cp0, cp1, cp2, cp3 Vec2) []Vec2 {
	if segments == 0 {
		segments = 1
	}
	pts := make([]Vec2, segments+1)
	for i := uint32(0); i <= segments; i++ {
		t := float32(i) / float32(segments)
		u := 1 - t
		uu, tt := u*u, t*t
		uuu, ttt := uu*u, tt*t
		pts[i] = Vec2{
			X: uuu*cp0.X + 3*uu*t*cp1.X + 3*u*tt*cp2.X + ttt*cp3.X,
			Y: uuu*cp0.Y + 3*uu*t*cp1.Y + 3*u*tt*cp2.Y + ttt*cp3.Y,
		}
	}
	return pts
}

// CatmullRom returns `segments+1` points of the Catmull-Rom spline segment
// between cp1 and cp2, using cp0/cp3 as the neighboring control points.
func (Path) CatmullRom(segments uint32, cp0, cp1, cp2, cp3 Vec2) []Vec2 {
	if segments == 0 {
		segments = 1
	}
	pts := make([]Vec2, segments+1)
	for i := uint32(0); i <= segments; i++ {
		t := float32(i) / float32(segments)
		t2 := t * t
		t3 := t2 * t
		blend := func(a, b, c, d float32) float32 {
			return 0.5 * ((2 * b) +
				(-a+c)*t +
				(2*a-5*b+4*c-d)*t2 +
				(-a+3*b-3*c+d)*t3)
		}
		pts[i] = Vec2{
			X: blend(cp0.X, cp1.X, cp2.X, cp3.X),
			Y: blend(cp0.Y, cp1.Y, cp2.Y, cp3.Y),
		}
	}
	return pts
}

// TriangulateNgon fan-triangulates a simple, non-convex-safe-enough
// polygon (spec §4.8: "triangulate_ngon turns points into (vertices,
// indices)"). points[0] is the fan pivot.
func (Path) TriangulateNgon(points []Vec2) (vertices []Vec2, indices []uint32) {
	if len(points) < 3 {
		return append([]Vec2{}, points...), nil
	}
	vertices = append([]Vec2{}, points...)
	indices = make([]uint32, 0, (len(points)-2)*3)
	for i := 1; i < len(points)-1; i++ {
		indices = append(indices, 0, uint32(i), uint32(i+1))
	}
	return vertices, indices
}

// TriangulateStroke extrudes an open polyline by half of `thickness` along
// each segment's normal, joining consecutive segments with a bevel
// triangle on each side of the joint (spec §4.8: "triangulate_stroke(thickness) ... extrudes
// half-thickness along per-segment normals and joins as bevels").
func (Path) TriangulateStroke(points []Vec2, thickness float32) (vertices []Vec2, indices []uint32) {
	if len(points) < 2 {
		return nil, nil
	}
	half := thickness / 2

	normal := func(a, b Vec2) Vec2 {
		dx, dy := b.X-a.X, b.Y-a.Y
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			return Vec2{}
		}
		return Vec2{X: -dy / length * half, Y: dx / length * half}
	}

	type segOuter struct{ left0, right0, left1, right1 Vec2 }
	segs := make([]segOuter, len(points)-1)

	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		n := normal(a, b)
		segs[i] = segOuter{
			left0:  Vec2{a.X + n.X, a.Y + n.Y},
			right0: Vec2{a.X - n.X, a.Y - n.Y},
			left1:  Vec2{b.X + n.X, b.Y + n.Y},
			right1: Vec2{b.X - n.X, b.Y - n.Y},
		}
	}

	for _, s := range segs {
		base := uint32(len(vertices))
		vertices = append(vertices, s.left0, s.right0, s.right1, s.left1)
		indices = append(indices,
			base, base+1, base+2,
			base+2, base+3, base,
		)
	}

	// Bevel join: on each side (left, then right), connect the corners of
	// consecutive segments through the shared joint point.
	for i := 0; i < len(segs)-1; i++ {
		joint := points[i+1]
		base := uint32(len(vertices))
		vertices = append(vertices, joint, segs[i].left1, segs[i+1].left0)
		indices = append(indices, base, base+1, base+2)

		base = uint32(len(vertices))
		vertices = append(vertices, joint, segs[i].right1, segs[i+1].right0)
		indices = append(indices, base, base+1, base+2)
	}

	return vertices, indices
}
