package gpu

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// PipelineCache wraps a vk.PipelineCache, grounded on spec §6.2's
// create_pipeline_cache/get_pipeline_cache_data/merge_pipeline_cache
// surface (no teacher analogue: the teacher's pipeline.go never persists
// its pipeline state across runs).
type PipelineCache struct {
	handle vk.PipelineCache
}

// CreatePipelineCache builds a cache, optionally seeded from bytes
// previously returned by GetPipelineCacheData.
func (d *Device) CreatePipelineCache(initialData []byte) (*PipelineCache, error) {
	var handle vk.PipelineCache
	ret := vk.CreatePipelineCache(d.handle, &vk.PipelineCacheCreateInfo{
		SType:           vk.StructureTypePipelineCacheCreateInfo,
		InitialDataSize: uint(len(initialData)),
		PInitialData:    initialData,
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return nil, err
	}
	return &PipelineCache{handle: handle}, nil
}

func (d *Device) UninitPipelineCache(c *PipelineCache) {
	if c == nil {
		return
	}
	vk.DestroyPipelineCache(d.handle, c.handle, nil)
}

// GetPipelineCacheData implements spec §6.2 get_pipeline_cache_data: the
// opaque backend bytes the caller is responsible for persisting.
func (d *Device) GetPipelineCacheData(c *PipelineCache) ([]byte, error) {
	var size uint
	ret := vk.GetPipelineCacheData(d.handle, c.handle, &size, nil)
	if err := checkResult(ret); err != nil {
		return nil, err
	}
	data := make([]byte, size)
	ret = vk.GetPipelineCacheData(d.handle, c.handle, &size, data)
	if err := checkResult(ret); err != nil {
		return nil, err
	}
	return data[:size], nil
}

// MergePipelineCache implements spec §6.2 merge_pipeline_cache(dst, [src]):
// folds every entry in each src into dst in place.
func (d *Device) MergePipelineCache(dst *PipelineCache, src []*PipelineCache) error {
	if len(src) == 0 {
		return nil
	}
	handles := make([]vk.PipelineCache, len(src))
	for i, c := range src {
		handles[i] = c.handle
	}
	return checkResult(vk.MergePipelineCaches(d.handle, dst.handle, uint32(len(handles)), handles))
}

// PushConstantRange describes one push-constant range a pipeline layout
// exposes (spec §4.2: "push-constants ≤ MAX and 4-byte aligned").
type PushConstantRange struct {
	Stages vk.ShaderStageFlags
	Offset uint32
	Size   uint32
}

func buildPipelineLayout(device *Device, setLayouts []*DescriptorSetLayout, pushConstants []PushConstantRange) (vk.PipelineLayout, error) {
	invariant(len(setLayouts) <= MaxPipelineDescriptorSets, "gpu: too many descriptor set layouts")
	for _, pc := range pushConstants {
		invariant(pc.Size <= MaxPushConstantsSize, "gpu: push constant range too large")
		invariant(pc.Offset%4 == 0 && pc.Size%4 == 0, "gpu: push constant range must be 4-byte aligned")
	}

	vkSetLayouts := make([]vk.DescriptorSetLayout, len(setLayouts))
	for i, l := range setLayouts {
		vkSetLayouts[i] = l.handle
	}
	vkRanges := make([]vk.PushConstantRange, len(pushConstants))
	for i, pc := range pushConstants {
		vkRanges[i] = vk.PushConstantRange{StageFlags: pc.Stages, Offset: pc.Offset, Size: pc.Size}
	}

	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(device.handle, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(vkSetLayouts)),
		PSetLayouts:            vkSetLayouts,
		PushConstantRangeCount: uint32(len(vkRanges)),
		PPushConstantRanges:    vkRanges,
	}, nil, &layout)
	return layout, checkResult(ret)
}

// ComputePipeline wraps a compute vk.Pipeline + its layout, grounded on
// the teacher's pipeline.go CorePipeline map-of-named-pipelines idea,
// narrowed to one pipeline per handle.
type ComputePipeline struct {
	handle           vk.Pipeline
	layout           vk.PipelineLayout
	pushConstantSize uint32
}

// ComputePipelineInfo implements spec §4.2's ComputePipeline validation
// shape: entry point non-empty/short, push constants ≤ MAX and aligned,
// descriptor set layouts ≤ MAX.
type ComputePipelineInfo struct {
	Shader         Shader
	EntryPoint     string
	SetLayouts     []*DescriptorSetLayout
	PushConstants  []PushConstantRange
	Cache          *PipelineCache
}

func (d *Device) CreateComputePipeline(info ComputePipelineInfo) (*ComputePipeline, error) {
	invariant(len(info.EntryPoint) > 0 && len(info.EntryPoint) < 256, "gpu: compute pipeline entry point must be non-empty and short")

	layout, err := buildPipelineLayout(d, info.SetLayouts, info.PushConstants)
	if err != nil {
		return nil, err
	}

	var cache vk.PipelineCache
	if info.Cache != nil {
		cache = info.Cache.handle
	}

	stage := vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageFlagBits(vk.ShaderStageComputeBit),
		Module: info.Shader.handle,
		PName:  info.EntryPoint + "\x00",
	}

	pipelines := []vk.Pipeline{vk.NullPipeline}
	ret := vk.CreateComputePipelines(d.handle, cache, 1, []vk.ComputePipelineCreateInfo{{
		SType:  vk.StructureTypeComputePipelineCreateInfo,
		Stage:  stage,
		Layout: layout,
	}}, nil, pipelines)
	if err := checkResult(ret); err != nil {
		vk.DestroyPipelineLayout(d.handle, layout, nil)
		return nil, err
	}

	var pushConstantSize uint32
	for _, pc := range info.PushConstants {
		if pc.Offset+pc.Size > pushConstantSize {
			pushConstantSize = pc.Offset + pc.Size
		}
	}

	return &ComputePipeline{handle: pipelines[0], layout: layout, pushConstantSize: pushConstantSize}, nil
}

func (d *Device) UninitComputePipeline(p *ComputePipeline) {
	if p == nil {
		return
	}
	vk.DestroyPipeline(d.handle, p.handle, nil)
	vk.DestroyPipelineLayout(d.handle, p.layout, nil)
}

// VertexAttribute describes one vertex-input attribute (spec §3 "vertex
// attributes ≤ MAX_VERTEX_ATTRIBUTES").
type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   vk.Format
	Offset   uint32
}

// VertexBinding describes one vertex buffer binding's stride/input-rate.
type VertexBinding struct {
	Binding uint32
	Stride  uint32
	PerInstance bool
}

// GraphicsPipelineInfo implements spec §4.2's GraphicsPipeline validation
// shape, plus the color/depth/stencil attachment formats a dynamic-
// rendering pipeline must declare to be render-pass compatible (spec
// §4.4 "pipeline render-pass compatibility").
type GraphicsPipelineInfo struct {
	VertexShader      Shader
	FragmentShader    Shader
	VertexEntryPoint  string
	FragmentEntryPoint string
	VertexBindings    []VertexBinding
	VertexAttributes  []VertexAttribute
	Topology          vk.PrimitiveTopology
	PolygonMode       vk.PolygonMode
	CullMode          vk.CullModeFlagBits
	FrontFace         vk.FrontFace
	ColorFormats      []vk.Format
	ColorBlend        []vk.PipelineColorBlendAttachmentState
	DepthFormat       vk.Format
	StencilFormat     vk.Format
	DepthTestEnable   bool
	DepthWriteEnable  bool
	DepthCompareOp    vk.CompareOp
	SetLayouts        []*DescriptorSetLayout
	PushConstants     []PushConstantRange
	Cache             *PipelineCache
}

// GraphicsPipeline wraps a dynamic-rendering vk.Pipeline (the encoder's
// render pass is VK_KHR_dynamic_rendering's vkCmdBeginRendering, per spec
// §4.4, not a traditional VkRenderPass/VkFramebuffer pair as the teacher's
// pipeline.go builds) together with the attachment formats it was built
// against, so the encoder can check render-pass compatibility (§4.4).
type GraphicsPipeline struct {
	handle           vk.Pipeline
	layout           vk.PipelineLayout
	colorFormats     []vk.Format
	depthFormat      vk.Format
	stencilFormat    vk.Format
	pushConstantSize uint32
}

func (p *GraphicsPipeline) compatibleWith(color []vk.Format, depth, stencil vk.Format) bool {
	if len(color) != len(p.colorFormats) {
		return false
	}
	for i := range color {
		if color[i] != p.colorFormats[i] {
			return false
		}
	}
	return depth == p.depthFormat && stencil == p.stencilFormat
}

// CreateGraphicsPipeline implements spec §4.2's GraphicsPipeline creation,
// generalizing the teacher's pipeline.go PipelineBuilder/BuildPipeline
// (vertex+fragment stage, vertex input, input assembly, viewport/scissor
// as dynamic state, rasterizer, multisample, color-blend, depth-stencil)
// from its hardcoded default-triangle shape to caller-supplied vertex
// layout, topology, attachment formats, and descriptor/push-constant
// layout, and from a legacy VkRenderPass to VK_KHR_dynamic_rendering via
// VkPipelineRenderingCreateInfo.
func (d *Device) CreateGraphicsPipeline(info GraphicsPipelineInfo) (*GraphicsPipeline, error) {
	invariant(len(info.VertexEntryPoint) > 0 && len(info.FragmentEntryPoint) > 0, "gpu: graphics pipeline entry points must be non-empty")
	invariant(len(info.VertexAttributes) <= MaxVertexAttributes, "gpu: too many vertex attributes")
	invariant(len(info.ColorFormats) <= MaxPipelineColorAttachments, "gpu: too many color attachments")

	layout, err := buildPipelineLayout(d, info.SetLayouts, info.PushConstants)
	if err != nil {
		return nil, err
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(vk.ShaderStageVertexBit),
			Module: info.VertexShader.handle,
			PName:  info.VertexEntryPoint + "\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(vk.ShaderStageFragmentBit),
			Module: info.FragmentShader.handle,
			PName:  info.FragmentEntryPoint + "\x00",
		},
	}

	bindings := make([]vk.VertexInputBindingDescription, len(info.VertexBindings))
	for i, b := range info.VertexBindings {
		rate := vk.VertexInputRateVertex
		if b.PerInstance {
			rate = vk.VertexInputRateInstance
		}
		bindings[i] = vk.VertexInputBindingDescription{Binding: b.Binding, Stride: b.Stride, InputRate: rate}
	}
	attrs := make([]vk.VertexInputAttributeDescription, len(info.VertexAttributes))
	for i, a := range info.VertexAttributes {
		attrs[i] = vk.VertexInputAttributeDescription{Location: a.Location, Binding: a.Binding, Format: a.Format, Offset: a.Offset}
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
	}

	assembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: info.Topology,
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: info.PolygonMode,
		CullMode:    vk.CullModeFlags(info.CullMode),
		FrontFace:   info.FrontFace,
		LineWidth:   1.0,
	}

	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(info.ColorBlend)),
		PAttachments:    info.ColorBlend,
	}

	depthEnable := vk.Bool32(vk.False)
	if info.DepthTestEnable {
		depthEnable = vk.Bool32(vk.True)
	}
	depthWrite := vk.Bool32(vk.False)
	if info.DepthWriteEnable {
		depthWrite = vk.Bool32(vk.True)
	}
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  depthEnable,
		DepthWriteEnable: depthWrite,
		DepthCompareOp:   info.DepthCompareOp,
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport, vk.DynamicStateScissor, vk.DynamicStateBlendConstants,
		vk.DynamicStateStencilReference, vk.DynamicStateStencilCompareMask, vk.DynamicStateStencilWriteMask,
		vk.DynamicStateDepthBias, vk.DynamicStateDepthBounds, vk.DynamicStateCullMode, vk.DynamicStateFrontFace,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	renderingInfo := vk.PipelineRenderingCreateInfo{
		SType:                   vk.StructureTypePipelineRenderingCreateInfo,
		ColorAttachmentCount:    uint32(len(info.ColorFormats)),
		PColorAttachmentFormats: info.ColorFormats,
		DepthAttachmentFormat:   info.DepthFormat,
		StencilAttachmentFormat: info.StencilFormat,
	}

	var cache vk.PipelineCache
	if info.Cache != nil {
		cache = info.Cache.handle
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		PNext:               unsafe.Pointer(&renderingInfo),
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &assembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PColorBlendState:    &colorBlend,
		PDepthStencilState:  &depthStencil,
		PDynamicState:       &dynamicState,
		Layout:              layout,
	}

	pipelines := []vk.Pipeline{vk.NullPipeline}
	ret := vk.CreateGraphicsPipelines(d.handle, cache, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines)
	if err := checkResult(ret); err != nil {
		vk.DestroyPipelineLayout(d.handle, layout, nil)
		return nil, err
	}

	var pushConstantSize uint32
	for _, pc := range info.PushConstants {
		if pc.Offset+pc.Size > pushConstantSize {
			pushConstantSize = pc.Offset + pc.Size
		}
	}

	return &GraphicsPipeline{
		handle:           pipelines[0],
		layout:           layout,
		colorFormats:     append([]vk.Format{}, info.ColorFormats...),
		depthFormat:      info.DepthFormat,
		stencilFormat:    info.StencilFormat,
		pushConstantSize: pushConstantSize,
	}, nil
}

func (d *Device) UninitGraphicsPipeline(p *GraphicsPipeline) {
	if p == nil {
		return
	}
	vk.DestroyPipeline(d.handle, p.handle, nil)
	vk.DestroyPipelineLayout(d.handle, p.layout, nil)
}
