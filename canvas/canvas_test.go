package canvas

import "testing"

func testSurface() CanvasSurface {
	return CanvasSurface{
		ViewportExtent: Vec2{X: 800, Y: 600},
		SurfaceExtent:  [2]uint32{800, 600},
	}
}

// TestPassRunBatching mirrors spec §8 scenario 5: rrect(A), rrect(B) under
// the same scissor, ngon(C), rrect(D) under that same scissor again ->
// pass_runs = [RRect{end=2}, Ngon{end=1}, RRect{end=3}].
func TestPassRunBatching(t *testing.T) {
	var c Canvas
	c.Begin(testSurface())

	scissorA := Rect{ExtentX: 100, ExtentY: 100}

	descA := NewShapeDesc()
	descA.Scissor = scissorA
	c.RRect(descA)

	descB := NewShapeDesc()
	descB.Scissor = scissorA
	c.RRect(descB)

	descC := NewShapeDesc()
	descC.Scissor = scissorA
	c.Ngon(descC, Path{}.Rect())

	descD := NewShapeDesc()
	descD.Scissor = scissorA
	c.RRect(descD)

	if len(c.PassRuns) != 3 {
		t.Fatalf("got %d pass runs, want 3: %+v", len(c.PassRuns), c.PassRuns)
	}

	want := []PassRun{
		{Type: PassRRect, End: 2, Scissor: scissorA},
		{Type: PassNgon, End: 1, Scissor: scissorA},
		{Type: PassRRect, End: 3, Scissor: scissorA},
	}
	for i, run := range c.PassRuns {
		if run != want[i] {
			t.Errorf("run %d = %+v, want %+v", i, run, want[i])
		}
	}
}

// TestPassRunSplitsOnScissorChange checks invariant 6: adjacent runs never
// share both type and scissor, so a scissor change must start a new run
// even though the type is unchanged.
func TestPassRunSplitsOnScissorChange(t *testing.T) {
	var c Canvas
	c.Begin(testSurface())

	descA := NewShapeDesc()
	descA.Scissor = Rect{ExtentX: 100, ExtentY: 100}
	c.RRect(descA)

	descB := NewShapeDesc()
	descB.Scissor = Rect{ExtentX: 200, ExtentY: 200}
	c.RRect(descB)

	if len(c.PassRuns) != 2 {
		t.Fatalf("got %d pass runs, want 2 (scissor change must split): %+v", len(c.PassRuns), c.PassRuns)
	}
	if c.PassRuns[0].Scissor == c.PassRuns[1].Scissor {
		t.Errorf("adjacent runs share a scissor despite differing input scissors")
	}
}

func TestBeginResetsAllArenas(t *testing.T) {
	var c Canvas
	c.Begin(testSurface())
	c.RRect(NewShapeDesc())
	c.Ngon(NewShapeDesc(), Path{}.Rect())
	c.Blur(NewShapeDesc(), 4)

	if len(c.RRectParams) == 0 || len(c.NgonParams) == 0 || len(c.BlurParams) == 0 {
		t.Fatal("setup did not populate all param arrays")
	}

	c.Begin(testSurface())
	if len(c.PassRuns) != 0 || len(c.RRectParams) != 0 || len(c.NgonParams) != 0 ||
		len(c.BlurParams) != 0 || len(c.Vertices) != 0 || len(c.Indices) != 0 {
		t.Fatal("Begin did not reset all per-frame arenas")
	}
}

func TestAspectRatioZeroHeightGuard(t *testing.T) {
	s := CanvasSurface{ViewportExtent: Vec2{X: 800, Y: 0}}
	if got := s.AspectRatio(); got != 0 {
		t.Errorf("AspectRatio with zero height = %v, want 0", got)
	}

	s = CanvasSurface{ViewportExtent: Vec2{X: 800, Y: 600}}
	if got := s.AspectRatio(); got < 1.33 || got > 1.34 {
		t.Errorf("AspectRatio(800, 600) = %v, want ~1.333", got)
	}
}

func TestMVPIdentityWhenUnitExtentAndViewport(t *testing.T) {
	// Unit viewport and unit half-extent: scale(1/1) · scale(2/2) = identity.
	s := CanvasSurface{ViewportExtent: Vec2{X: 1, Y: 1}}
	got := s.MVP(Vec2{0, 0}, Vec2{2, 2}, nil)
	want := identityMat()
	if got != want {
		t.Errorf("MVP(center=0, viewport=1, extent=2, transform=nil) = %+v, want identity %+v", got, want)
	}
}

func TestNgonSharedArenaOffsets(t *testing.T) {
	var c Canvas
	c.Begin(testSurface())

	c.Ngon(NewShapeDesc(), Path{}.Rect())
	firstVertexCount := len(c.Vertices)

	c.Ngon(NewShapeDesc(), Path{}.Rect())
	if len(c.Vertices) != firstVertexCount*2 {
		t.Fatalf("second Ngon call should append, not overwrite: got %d vertices, want %d", len(c.Vertices), firstVertexCount*2)
	}

	// Indices for the second ngon must be offset by the first's vertex count.
	secondBase := c.Indices[len(c.Indices)-6]
	if secondBase < uint32(firstVertexCount) {
		t.Errorf("second ngon's indices (starting %d) are not offset past the first ngon's %d vertices", secondBase, firstVertexCount)
	}
}
