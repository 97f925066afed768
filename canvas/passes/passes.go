// Package passes implements the three pass executors the canvas's
// pass_runs dispatch to: RRect, Ngon, and Blur (spec §4.8 "Pass
// executors"). Each owns its graphics pipeline(s) and descriptor/push-
// constant layout, and turns one run's parameter sub-range into bound
// state plus a draw call appended to a CommandEncoder's deferred render
// log.
//
// Grounded on original_source/ashura/renderer/passes/{rrect.cc,blur.cc,
// blur.h} for pipeline shape and draw call sequence, adapted from the
// legacy render-pass object these were written against to the engine's
// VK_KHR_dynamic_rendering encoder (gpu.CommandEncoder.BeginRendering is
// called once by the caller around a whole frame's pass runs, per spec
// §2 step 3/4; executors only bind state and draw).
package passes

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/ashura-engine/ashura/gpu"
)

// straightAlphaBlend is the non-premultiplied alpha blend state every
// canvas pass uses, mirroring rrect.cc/blur.cc's identical
// ColorBlendAttachmentState.
func straightAlphaBlend() vk.PipelineColorBlendAttachmentState {
	return vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}
}

// viewportFor builds the full-area viewport/scissor pair every pass binds
// before drawing, the dynamic-state analogue of rrect.cc/blur.cc's fixed
// set_viewport/set_scissor calls.
func viewportFor(area vk.Rect2D) gpu.GraphicsState {
	return gpu.GraphicsState{
		Viewport: vk.Viewport{
			X: float32(area.Offset.X), Y: float32(area.Offset.Y),
			Width: float32(area.Extent.Width), Height: float32(area.Extent.Height),
			MinDepth: 0, MaxDepth: 1,
		},
		Scissor: area,
	}
}
