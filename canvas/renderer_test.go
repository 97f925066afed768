package canvas

import (
	"encoding/binary"
	"math"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestEncodeVerticesRoundTrips(t *testing.T) {
	vs := []Vec2{{1.5, -2.25}, {0, 100}}
	buf := encodeVertices(vs)
	if len(buf) != len(vs)*8 {
		t.Fatalf("got %d bytes, want %d", len(buf), len(vs)*8)
	}
	for i, v := range vs {
		x := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*8:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*8+4:]))
		if x != v.X || y != v.Y {
			t.Errorf("vertex %d decoded as (%v, %v), want %+v", i, x, y, v)
		}
	}
}

func TestEncodeIndicesRoundTrips(t *testing.T) {
	is := []uint32{0, 1, 2, 2, 3, 0}
	buf := encodeIndices(is)
	for i, idx := range is {
		got := binary.LittleEndian.Uint32(buf[i*4:])
		if got != idx {
			t.Errorf("index %d decoded as %d, want %d", i, got, idx)
		}
	}
}

func TestEncodeRRectParamsRowSize(t *testing.T) {
	ps := []RRectParam{{}, {}}
	buf := encodeRRectParams(ps)
	if len(buf) != 2*rrectParamSize {
		t.Fatalf("got %d bytes for 2 rows, want %d", len(buf), 2*rrectParamSize)
	}
}

func TestEncodeNgonParamsRowSize(t *testing.T) {
	ps := []NgonParam{{}}
	buf := encodeNgonParams(ps)
	if len(buf) != ngonParamSize {
		t.Fatalf("got %d bytes for 1 row, want %d", len(buf), ngonParamSize)
	}
}

func TestRectToVkResolvesMaxExtentAgainstArea(t *testing.T) {
	area := vk.Rect2D{Extent: vk.Extent2D{Width: 1920, Height: 1080}}
	got := rectToVk(DefaultScissor, area)
	if got.Extent.Width != 1920 || got.Extent.Height != 1080 {
		t.Errorf("unbounded scissor resolved to %+v, want full area %+v", got.Extent, area.Extent)
	}
}

func TestRectToVkPassesThroughBoundedScissor(t *testing.T) {
	area := vk.Rect2D{Extent: vk.Extent2D{Width: 1920, Height: 1080}}
	bounded := Rect{OffsetX: 10, OffsetY: 20, ExtentX: 100, ExtentY: 50}
	got := rectToVk(bounded, area)
	if got.Offset.X != 10 || got.Offset.Y != 20 || got.Extent.Width != 100 || got.Extent.Height != 50 {
		t.Errorf("bounded scissor resolved to %+v, want passthrough of %+v", got, bounded)
	}
}
