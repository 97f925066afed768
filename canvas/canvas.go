// Package canvas implements the 2D draw-call recorder described in spec
// §3/§4.7/§4.8: shape/text/blur/custom calls are expanded into typed
// parameter rows and a shared vertex/index arena, batched into per-type,
// per-scissor pass runs that the canvas/passes executors consume.
//
// Grounded on original_source/ashura/engine/canvas.h's Canvas/ShapeDesc/
// CanvasPassRun/Path shape, reworked from the in-place C++ Vec<T> API into
// idiomatic Go slices and value types.
package canvas

import lin "github.com/xlab/linmath"

// CanvasPassType is the executor a pass_run dispatches to (spec §3 "A
// pass_run is { type, end_index, scissor }").
type CanvasPassType int

const (
	PassNone CanvasPassType = iota
	PassRRect
	PassBlur
	PassNgon
	PassCustom
)

// ShapeDesc is the common shape-description row every high-level call
// (rect, rrect, circle, ngon, line, text, blur, custom) accepts, per
// spec §4.7 / original_source's ShapeDesc.
type ShapeDesc struct {
	Center         Vec2
	Extent         Vec2
	BorderRadii    Vec4
	Stroke         float32
	Thickness      float32
	Tint           [4]Vec4
	Texture        uint32
	UV             [2]Vec2
	Tiling         float32
	EdgeSmoothness float32
	Transform      *lin.Mat4x4 // nil means identity
	Scissor        Rect
}

func defaultTint() [4]Vec4 {
	white := Vec4{1, 1, 1, 1}
	return [4]Vec4{white, white, white, white}
}

// NewShapeDesc returns a ShapeDesc with the spec's documented defaults
// (unit tint, full [0,1]^2 uv, identity transform, unbounded scissor).
func NewShapeDesc() ShapeDesc {
	return ShapeDesc{
		Tint:           defaultTint(),
		UV:             [2]Vec2{{0, 0}, {1, 1}},
		Tiling:         1,
		EdgeSmoothness: 0.0015,
		Scissor:        DefaultScissor,
	}
}

// RRectParam is one instanced row the RRect pass's params SSBO indexes by
// gl_InstanceIndex + first_instance (spec §4.8 "RRect pass").
type RRectParam struct {
	Transform      lin.Mat4x4
	Tint           [4]Vec4
	UV             [2]Vec2
	BorderRadii    Vec4
	Stroke         float32
	Thickness      float32
	Texture        uint32
	Tiling         float32
	EdgeSmoothness float32
}

// NgonParam is one row describing a sub-batch of the shared vertex/index
// arena (spec §4.8 "Ngon pass": "each sub-batch uses ngon_index_counts[i]
// as a sub-range").
type NgonParam struct {
	Transform lin.Mat4x4
	Tint      [4]Vec4
	UV        [2]Vec2
	Texture   uint32
}

// BlurParam is one blur row: the region to blur and the requested radius
// (spec §4.8 "Blur pass"), grounded on renderer/passes/blur.h's
// BlurPassParams. The blur executor (passes.BlurPass) rounds the radius up
// to its nearest Gaussian weight table (2, 4, 8 or 16) and runs one
// horizontal and one vertical pass; it builds no down/up-sample mip chain.
type BlurParam struct {
	Region Rect
	Radius uint32
}

// CustomPassFunc is the caller-supplied encoder a Custom pass run invokes
// directly with its CustomPass's Data (spec §3 CustomCanvasPassInfo); no
// other engine state is passed to it.
type CustomPassFunc func(data any)

// CustomPass pairs a caller encoder callback with opaque data, run
// in-order with the rest of the canvas's pass runs.
type CustomPass struct {
	Encode CustomPassFunc
	Data   any
}

// PassRun is a contiguous range of one type's parameter rows drawn under
// one scissor (spec §3 pass_run / §8 invariant 6).
type PassRun struct {
	Type    CanvasPassType
	End     uint32
	Scissor Rect
}

// CanvasSurface is the per-frame viewport/surface geometry the canvas
// resolves MVP matrices against (spec §3 Canvas.surface).
type CanvasSurface struct {
	ViewportOffset Vec2
	ViewportExtent Vec2
	SurfaceOffset  [2]uint32
	SurfaceExtent  [2]uint32
}

// AspectRatio mirrors CanvasSurface::aspect_ratio, returning 0 for a
// degenerate (zero-height) viewport rather than dividing by zero.
func (s CanvasSurface) AspectRatio() float32 {
	if s.ViewportExtent.Y == 0 {
		return 0
	}
	return s.ViewportExtent.X / s.ViewportExtent.Y
}

func identityMat() lin.Mat4x4 {
	var m lin.Mat4x4
	m.Identity()
	return m
}

func scaleMat(x, y, z float32) lin.Mat4x4 {
	m := identityMat()
	m.ScaleAniso(&m, x, y, z)
	return m
}

func translateMat(x, y, z float32) lin.Mat4x4 {
	m := identityMat()
	m.Translate(x, y, z)
	return m
}

// MVP implements spec §4.7's composition formula exactly: "scale(1/
// viewport.x, 1/viewport.y, 1) · translate(center) · transform ·
// scale(extent.x/2, extent.y/2, 1)".
func (s CanvasSurface) MVP(center, extent Vec2, transform *lin.Mat4x4) lin.Mat4x4 {
	vx, vy := s.ViewportExtent.X, s.ViewportExtent.Y
	if vx == 0 {
		vx = 1
	}
	if vy == 0 {
		vy = 1
	}
	viewportScale := scaleMat(1/vx, 1/vy, 1)
	centerTranslate := translateMat(center.X, center.Y, 0)
	halfExtentScale := scaleMat(extent.X/2, extent.Y/2, 1)

	local := identityMat()
	if transform != nil {
		local = *transform
	}

	var step1, step2, result lin.Mat4x4
	step1.Mult(&viewportScale, &centerTranslate)
	step2.Mult(&step1, &local)
	result.Mult(&step2, &halfExtentScale)
	return result
}

// Canvas records shape/text/blur/custom draws into typed parameter arrays
// segmented by pass run, and owns the vertex/index arenas the Ngon pass
// shares across every polygon/stroke sub-batch (spec §3 Canvas).
type Canvas struct {
	Surface CanvasSurface

	Vertices        []Vec2
	Indices         []uint32
	NgonIndexCounts []uint32
	NgonParams      []NgonParam
	RRectParams     []RRectParam
	BlurParams      []BlurParam
	CustomParams    []CustomPass
	PassRuns        []PassRun

	path Path
}

// Begin resets the canvas for a new frame against the given surface (spec
// §4.7 "begin"); the Clear method below additionally emits a full-surface
// background fill, mirroring the teacher domain's typical begin+clear
// pairing.
func (c *Canvas) Begin(surface CanvasSurface) {
	c.Surface = surface
	c.Vertices = c.Vertices[:0]
	c.Indices = c.Indices[:0]
	c.NgonIndexCounts = c.NgonIndexCounts[:0]
	c.NgonParams = c.NgonParams[:0]
	c.RRectParams = c.RRectParams[:0]
	c.BlurParams = c.BlurParams[:0]
	c.CustomParams = c.CustomParams[:0]
	c.PassRuns = c.PassRuns[:0]
}

// Clear submits one RRect covering the whole surface with zero radii,
// giving callers a one-call background fill.
func (c *Canvas) Clear(tint Vec4) {
	desc := NewShapeDesc()
	desc.Center = Vec2{0, 0}
	desc.Extent = c.Surface.ViewportExtent
	desc.Tint = [4]Vec4{tint, tint, tint, tint}
	c.RRect(desc)
}

// addRun implements spec §4.7's internal add_run(type, scissor): extends
// the last run if it shares type and scissor, else appends a new one
// (spec §8 invariant 6: "no two adjacent entries with identical (type,
// scissor)").
func (c *Canvas) addRun(t CanvasPassType, scissor Rect, end uint32) {
	if n := len(c.PassRuns); n > 0 {
		last := &c.PassRuns[n-1]
		if last.Type == t && last.Scissor == scissor {
			last.End = end
			return
		}
	}
	c.PassRuns = append(c.PassRuns, PassRun{Type: t, End: end, Scissor: scissor})
}

func (c *Canvas) submitRRect(desc ShapeDesc) {
	c.RRectParams = append(c.RRectParams, RRectParam{
		Transform:      c.Surface.MVP(desc.Center, desc.Extent, desc.Transform),
		Tint:           desc.Tint,
		UV:             desc.UV,
		BorderRadii:    desc.BorderRadii,
		Stroke:         desc.Stroke,
		Thickness:      desc.Thickness,
		Texture:        desc.Texture,
		Tiling:         desc.Tiling,
		EdgeSmoothness: desc.EdgeSmoothness,
	})
	c.addRun(PassRRect, desc.Scissor, uint32(len(c.RRectParams)))
}

// Rect submits an axis-aligned rect: a degenerate RRect with zero border
// radii (spec §4.7 "rect").
func (c *Canvas) Rect(desc ShapeDesc) {
	desc.BorderRadii = Vec4{}
	c.submitRRect(desc)
}

// RRect submits a rounded rect; desc.BorderRadii gives the per-corner
// radii (spec §4.7 "rrect").
func (c *Canvas) RRect(desc ShapeDesc) {
	c.submitRRect(desc)
}

// submitNgon appends the triangulated (vertices, indices) of one ngon
// sub-batch into the shared arenas, records its index-count row, and
// batches it into the Ngon pass run (spec §4.7 "ngon" / §4.8 "Ngon pass").
func (c *Canvas) submitNgon(desc ShapeDesc, vertices []Vec2, indices []uint32) {
	base := uint32(len(c.Vertices))
	c.Vertices = append(c.Vertices, vertices...)
	for _, idx := range indices {
		c.Indices = append(c.Indices, base+idx)
	}
	c.NgonIndexCounts = append(c.NgonIndexCounts, uint32(len(indices)))
	c.NgonParams = append(c.NgonParams, NgonParam{
		Transform: c.Surface.MVP(desc.Center, desc.Extent, desc.Transform),
		Tint:      desc.Tint,
		UV:        desc.UV,
		Texture:   desc.Texture,
	})
	c.addRun(PassNgon, desc.Scissor, uint32(len(c.NgonParams)))
}

// Ngon submits an arbitrary filled polygon given in [-1, +1]^2 local
// space (spec §4.7 "ngon").
func (c *Canvas) Ngon(desc ShapeDesc, polygon []Vec2) {
	vertices, indices := c.path.TriangulateNgon(polygon)
	c.submitNgon(desc, vertices, indices)
}

// Circle submits a filled circle by triangulating a unit-circle path
// fan (spec §4.7 "circle"; §4.8 notes circles are drawn by the Ngon
// pass via triangulate_ngon).
func (c *Canvas) Circle(desc ShapeDesc, segments uint32) {
	c.Ngon(desc, c.path.Circle(segments))
}

// Line submits a stroked open polyline given in [-1, +1]^2 local space
// (spec §4.7 "line"; uses triangulate_stroke(desc.Thickness)).
func (c *Canvas) Line(desc ShapeDesc, polyline []Vec2) {
	vertices, indices := c.path.TriangulateStroke(polyline, desc.Thickness)
	c.submitNgon(desc, vertices, indices)
}

// Blur submits a region blur of the given radius (see BlurParam; spec §4.7
// "blur"; uses the scissor as its region per spec §4.7's note "blur uses
// the scissor as its region").
func (c *Canvas) Blur(desc ShapeDesc, radius uint32) {
	c.BlurParams = append(c.BlurParams, BlurParam{Region: desc.Scissor, Radius: radius})
	c.addRun(PassBlur, desc.Scissor, uint32(len(c.BlurParams)))
}

// Custom submits a caller-encoded pass run (spec §4.7 "custom").
func (c *Canvas) Custom(desc ShapeDesc, pass CustomPass) {
	c.CustomParams = append(c.CustomParams, pass)
	c.addRun(PassCustom, desc.Scissor, uint32(len(c.CustomParams)))
}

// Text submits one RRect-like quad per shaped glyph, referencing the SDF
// atlas bin's uv0/uv1 and the run style's tint (spec §4.7 "Text
// rendering"). Font shaping and atlas binning are an external
// collaborator's responsibility; TextBlock is therefore opaque here.
func (c *Canvas) Text(desc ShapeDesc, block TextBlock, layout TextLayout, style TextBlockStyle) {
	_ = block
	for _, g := range layout.Glyphs {
		glyph := desc
		glyph.Center = Vec2{X: desc.Center.X + g.Offset.X, Y: desc.Center.Y + g.Offset.Y}
		glyph.Extent = g.Extent
		glyph.BorderRadii = Vec4{}
		glyph.UV = [2]Vec2{g.UV0, g.UV1}
		glyph.Texture = layout.Texture
		glyph.Tint = [4]Vec4{style.Tint, style.Tint, style.Tint, style.Tint}
		glyph.Scissor = style.Scissor
		c.submitRRect(glyph)
	}
}
