package canvas

import (
	"math"
	"testing"
)

func TestPathRectCCW(t *testing.T) {
	pts := Path{}.Rect()
	if len(pts) != 4 {
		t.Fatalf("Rect() returned %d points, want 4", len(pts))
	}
	want := []Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for i, p := range pts {
		if p != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestPathCircleEndpointsDontDuplicate(t *testing.T) {
	pts := Path{}.Circle(32)
	if len(pts) != 32 {
		t.Fatalf("Circle(32) returned %d points, want 32", len(pts))
	}
	first, last := pts[0], pts[len(pts)-1]
	if math.Hypot(float64(first.X-last.X), float64(first.Y-last.Y)) < 1e-6 {
		t.Errorf("Circle's first and last points coincide: %+v == %+v", first, last)
	}
}

func TestPathArcSegmentCount(t *testing.T) {
	pts := Path{}.Arc(8, 0, math.Pi)
	if len(pts) != 9 {
		t.Fatalf("Arc(8, ...) returned %d points, want 9 (segments+1)", len(pts))
	}
	if math.Abs(float64(pts[0].X-1)) > 1e-5 || math.Abs(float64(pts[0].Y)) > 1e-5 {
		t.Errorf("Arc start point = %+v, want (1, 0)", pts[0])
	}
}

func TestPathRRectRadiiClampedToHalfExtent(t *testing.T) {
	pts := Path{}.RRect(4, Vec4{X: 10, Y: 10, Z: 10, W: 10})
	for _, p := range pts {
		if p.X < -1.0001 || p.X > 1.0001 || p.Y < -1.0001 || p.Y > 1.0001 {
			t.Errorf("RRect point %+v escapes [-1, 1]^2 after radius clamping", p)
		}
	}
}

func TestTriangulateNgonFan(t *testing.T) {
	square := []Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	vertices, indices := Path{}.TriangulateNgon(square)
	if len(vertices) != 4 {
		t.Fatalf("got %d vertices, want 4", len(vertices))
	}
	if len(indices) != 6 {
		t.Fatalf("got %d indices, want 6 (2 triangles)", len(indices))
	}
	// Fan triangulation: every triangle includes vertex 0.
	for i := 0; i < len(indices); i += 3 {
		if indices[i] != 0 {
			t.Errorf("triangle %d = %v, want first index 0 (fan from point 0)", i/3, indices[i:i+3])
		}
	}
}

func TestTriangulateStrokeProducesQuadsPerSegment(t *testing.T) {
	line := []Vec2{{-1, 0}, {0, 0}, {1, 0}}
	vertices, indices := Path{}.TriangulateStroke(line, 0.1)
	if len(vertices) == 0 || len(indices) == 0 {
		t.Fatal("TriangulateStroke produced no geometry")
	}
	if len(indices)%3 != 0 {
		t.Fatalf("index count %d is not a multiple of 3", len(indices))
	}
	// Two segments give two 6-index quads; the one joint adds a bevel
	// triangle on each side.
	if len(indices) != 2*6+2*3 {
		t.Fatalf("got %d indices, want %d (2 segment quads + 2 bevel triangles)", len(indices), 2*6+2*3)
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			t.Fatalf("index %d out of range of %d vertices", idx, len(vertices))
		}
	}
}
