package passes

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/ashura-engine/ashura/gpu"
)

// RRectPipelineInfo configures the RRect pass's single graphics pipeline
// (spec §4.8 "RRect pass": "six-vertex unit quad, instanced by
// num_instances"). Grounded on renderer/passes/rrect.cc's RRectPass::init.
type RRectPipelineInfo struct {
	VertexShader, FragmentShader gpu.Shader
	ColorFormat                  vk.Format
	SetLayouts                   []*gpu.DescriptorSetLayout
	Cache                        *gpu.PipelineCache
}

// RRectPass draws rounded rects, borders, and textured rrects from a
// params SSBO indexed by gl_InstanceIndex + first_instance.
type RRectPass struct {
	pipeline *gpu.GraphicsPipeline
}

func NewRRectPass(device *gpu.Device, info RRectPipelineInfo) (*RRectPass, error) {
	pipeline, err := device.CreateGraphicsPipeline(gpu.GraphicsPipelineInfo{
		VertexShader:       info.VertexShader,
		FragmentShader:     info.FragmentShader,
		VertexEntryPoint:   "main",
		FragmentEntryPoint: "main",
		Topology:           vk.PrimitiveTopologyTriangleList,
		PolygonMode:        vk.PolygonModeFill,
		CullMode:           vk.CullModeFlagBits(vk.CullModeNone),
		FrontFace:          vk.FrontFaceCounterClockwise,
		ColorFormats:       []vk.Format{info.ColorFormat},
		ColorBlend:         []vk.PipelineColorBlendAttachmentState{straightAlphaBlend()},
		SetLayouts:         info.SetLayouts,
		Cache:              info.Cache,
	})
	if err != nil {
		return nil, err
	}
	return &RRectPass{pipeline: pipeline}, nil
}

func (p *RRectPass) Uninit(device *gpu.Device) {
	device.UninitGraphicsPipeline(p.pipeline)
}

// RRectPassParams is one AddPass invocation's worth of state: the target
// area, the descriptor sets to bind (params SSBO + textures, per
// rrect.cc), and the instance sub-range a pass_run selected.
type RRectPassParams struct {
	Area          vk.Rect2D
	Sets          []*gpu.DescriptorSet
	FirstInstance uint32
	NumInstances  uint32
}

// AddPass implements spec §4.8's RRect pass draw: bind pipeline, set
// scissor/viewport, bind descriptor sets, draw a 6-vertex unit quad
// instanced num_instances times starting at first_instance.
func (p *RRectPass) AddPass(e *gpu.CommandEncoder, params RRectPassParams) {
	e.BindGraphicsPipeline(p.pipeline)
	e.SetGraphicsState(viewportFor(params.Area))
	e.BindGraphicsDescriptorSets(0, params.Sets)
	e.Draw(6, params.NumInstances, 0, params.FirstInstance)
}
