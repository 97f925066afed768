package passes

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestStraightAlphaBlendEnabled(t *testing.T) {
	b := straightAlphaBlend()
	if b.BlendEnable != vk.True {
		t.Error("straightAlphaBlend must enable blending")
	}
	if b.SrcColorBlendFactor != vk.BlendFactorSrcAlpha || b.DstColorBlendFactor != vk.BlendFactorOneMinusSrcAlpha {
		t.Error("straightAlphaBlend must use non-premultiplied src-alpha/one-minus-src-alpha factors")
	}
}

func TestViewportForMatchesArea(t *testing.T) {
	area := vk.Rect2D{
		Offset: vk.Offset2D{X: 5, Y: 10},
		Extent: vk.Extent2D{Width: 640, Height: 480},
	}
	state := viewportFor(area)
	if state.Viewport.X != 5 || state.Viewport.Y != 10 {
		t.Errorf("viewport offset = (%v, %v), want (5, 10)", state.Viewport.X, state.Viewport.Y)
	}
	if state.Viewport.Width != 640 || state.Viewport.Height != 480 {
		t.Errorf("viewport extent = (%v, %v), want (640, 480)", state.Viewport.Width, state.Viewport.Height)
	}
	if state.Scissor != area {
		t.Errorf("scissor = %+v, want %+v", state.Scissor, area)
	}
}
