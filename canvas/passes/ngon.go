package passes

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/ashura-engine/ashura/gpu"
)

// NgonPipelineInfo configures the Ngon pass's single graphics pipeline
// (spec §4.8 "Ngon pass": "indexed triangle lists from the canvas's
// shared vertex/index buffers").
type NgonPipelineInfo struct {
	VertexShader, FragmentShader gpu.Shader
	ColorFormat                  vk.Format
	SetLayouts                   []*gpu.DescriptorSetLayout
	Cache                        *gpu.PipelineCache
}

// NgonPass draws circles, arcs, polylines, filled polygons, and stroked
// triangulations: each sub-batch is a contiguous index range into the
// canvas's shared vertex/index arena, selected by ngon_index_counts.
type NgonPass struct {
	pipeline *gpu.GraphicsPipeline
}

func NewNgonPass(device *gpu.Device, info NgonPipelineInfo) (*NgonPass, error) {
	pipeline, err := device.CreateGraphicsPipeline(gpu.GraphicsPipelineInfo{
		VertexShader:       info.VertexShader,
		FragmentShader:     info.FragmentShader,
		VertexEntryPoint:   "main",
		FragmentEntryPoint: "main",
		VertexBindings: []gpu.VertexBinding{
			{Binding: 0, Stride: 8}, // Vec2{X,Y float32}
		},
		VertexAttributes: []gpu.VertexAttribute{
			{Location: 0, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 0},
		},
		Topology:     vk.PrimitiveTopologyTriangleList,
		PolygonMode:  vk.PolygonModeFill,
		CullMode:     vk.CullModeFlagBits(vk.CullModeNone),
		FrontFace:    vk.FrontFaceCounterClockwise,
		ColorFormats: []vk.Format{info.ColorFormat},
		ColorBlend:   []vk.PipelineColorBlendAttachmentState{straightAlphaBlend()},
		SetLayouts:   info.SetLayouts,
		PushConstants: []gpu.PushConstantRange{
			{Stages: vk.ShaderStageFlags(vk.ShaderStageVertexBit), Offset: 0, Size: 4},
		},
		Cache: info.Cache,
	})
	if err != nil {
		return nil, err
	}
	return &NgonPass{pipeline: pipeline}, nil
}

func (p *NgonPass) Uninit(device *gpu.Device) {
	device.UninitGraphicsPipeline(p.pipeline)
}

// NgonSubBatch is one pass_run's worth of sub-batches: a contiguous run
// of the shared index buffer, sized by the matching ngon_index_counts
// entries, each paired with the index of its NgonParam row (pushed as a
// vertex-stage constant, since each sub-batch is drawn with a single,
// non-instanced indexed draw).
type NgonSubBatch struct {
	FirstIndex uint32
	IndexCount uint32
	ParamIndex uint32
}

// NgonPassParams is one AddPass invocation's worth of state.
type NgonPassParams struct {
	Area         vk.Rect2D
	VertexBuffer *gpu.Buffer
	IndexBuffer  *gpu.Buffer
	Sets         []*gpu.DescriptorSet
	Batches      []NgonSubBatch
}

// AddPass implements spec §4.8's Ngon pass draw: bind pipeline and shared
// vertex/index buffers once, then one indexed draw per sub-batch with
// the batch's param-row index pushed as a constant.
func (p *NgonPass) AddPass(e *gpu.CommandEncoder, params NgonPassParams) {
	e.BindGraphicsPipeline(p.pipeline)
	e.SetGraphicsState(viewportFor(params.Area))
	e.BindVertexBuffer(0, params.VertexBuffer, 0)
	e.BindIndexBuffer(params.IndexBuffer, 0, gpu.IndexTypeUint32)
	e.BindGraphicsDescriptorSets(0, params.Sets)

	for _, b := range params.Batches {
		paramIndex := b.ParamIndex
		e.PushGraphicsConstants(vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0,
			[]byte{byte(paramIndex), byte(paramIndex >> 8), byte(paramIndex >> 16), byte(paramIndex >> 24)})
		e.DrawIndexed(b.IndexCount, 1, b.FirstIndex, 0, 0)
	}
}
