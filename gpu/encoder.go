package gpu

import vk "github.com/vulkan-go/vulkan"

// EncoderState is one of the three states a CommandEncoder can be in
// (spec §4.4 "Contract").
type EncoderState int

const (
	EncoderReset EncoderState = iota
	EncoderComputePass
	EncoderRenderPass
)

// renderCommandKind tags one entry in the deferred render-pass command
// log (spec §4.4 step 2 / §9 "Deferred render-pass log").
type renderCommandKind int

const (
	cmdBindGraphicsPipeline renderCommandKind = iota
	cmdSetGraphicsState
	cmdBindVertexBuffer
	cmdBindIndexBuffer
	cmdBindDescriptorSets
	cmdPushConstants
	cmdDraw
	cmdDrawIndexed
	cmdDrawIndirect
	cmdDrawIndexedIndirect
)

// GraphicsState is the subset of dynamic pipeline state set_graphics_state
// records (scissor/viewport/blend constants/stencil/cull/front-face/depth
// bias, per spec §4.4 step 3's replay list).
type GraphicsState struct {
	Viewport          vk.Viewport
	Scissor           vk.Rect2D
	BlendConstants    [4]float32
	StencilReference  uint32
	StencilCompareMask uint32
	StencilWriteMask  uint32
	DepthBiasConstant float32
	DepthBiasSlope    float32
	CullMode          vk.CullModeFlagBits
	FrontFace         vk.FrontFace
}

type renderCommand struct {
	kind renderCommandKind

	pipeline     *GraphicsPipeline
	state        GraphicsState
	buffer       *Buffer
	binding      uint32
	offset       uint64
	indexType    IndexType
	sets         []*DescriptorSet
	firstSet     uint32
	pushStages   vk.ShaderStageFlags
	pushOffset   uint32
	pushData     []byte
	vertexCount  uint32
	instanceCount uint32
	firstVertex  uint32
	firstInstance uint32
	indexCount   uint32
	firstIndex   uint32
	vertexOffset int32
	indirectBuf  *Buffer
	indirectOff  uint64
	drawCount    uint32
	stride       uint32
}

// ColorAttachment/DepthStencilAttachment describe one render-target
// binding passed to BeginRendering (spec §4.4 step 1).
type ColorAttachment struct {
	View        *ImageView
	Image       *Image
	Layout      vk.ImageLayout
	LoadOp      vk.AttachmentLoadOp
	StoreOp     vk.AttachmentStoreOp
	ClearValue  vk.ClearValue
	Resolve     *ImageView
	ResolveImage *Image
	ResolveMode vk.ResolveModeFlagBits
}

type DepthStencilAttachment struct {
	View       *ImageView
	Image      *Image
	Layout     vk.ImageLayout
	LoadOp     vk.AttachmentLoadOp
	StoreOp    vk.AttachmentStoreOp
	ClearValue vk.ClearValue
	HasStencil bool
}

// RenderingInfo is the validated snapshot begin_rendering captures (spec
// §4.4 step 1: "Snapshot attachments and area into the render context").
type RenderingInfo struct {
	Area          vk.Rect2D
	Layers        uint32
	Color         []ColorAttachment
	Depth         *DepthStencilAttachment
}

// CommandEncoder is a linear recorder with the three states of spec
// §4.4. Grounded on the teacher's instance.go command-buffer recording
// pattern and managers.go's CommandBufferManager grow-or-reuse pool; the
// deferred render-pass log has no teacher/corpus analogue and is built
// new from spec §4.4/§9.
type CommandEncoder struct {
	device  *Device
	cmd     vk.CommandBuffer
	state   EncoderState
	status  Status

	boundComputePipeline *ComputePipeline
	computeSets          []*DescriptorSet

	rendering *RenderingInfo
	log       []renderCommand
	boundGraphicsPipeline *GraphicsPipeline
}

// NewCommandEncoder allocates a single primary command buffer out of pool,
// mirroring managers.go's CommandBufferManager.NewCommandBuffer.
func NewCommandEncoder(device *Device, pool vk.CommandPool) (*CommandEncoder, error) {
	buffers := []vk.CommandBuffer{nil}
	ret := vk.AllocateCommandBuffers(device.handle, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, buffers)
	if err := checkResult(ret); err != nil {
		return nil, err
	}
	return &CommandEncoder{device: device, cmd: buffers[0], state: EncoderReset, status: StatusSuccess}, nil
}

func (e *CommandEncoder) Handle() vk.CommandBuffer { return e.cmd }
func (e *CommandEncoder) State() EncoderState      { return e.state }
func (e *CommandEncoder) Status() Status           { return e.status }

// Reset resets the backend command buffer and the encoder's own state,
// per spec §4.4's "Reset" state and §4.4 render pass step 3's "Return to
// Reset".
func (e *CommandEncoder) Reset() error {
	ret := vk.ResetCommandBuffer(e.cmd, vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit))
	if err := checkResult(ret); err != nil {
		return err
	}
	e.state = EncoderReset
	e.status = StatusSuccess
	e.boundComputePipeline = nil
	e.computeSets = nil
	e.rendering = nil
	e.log = e.log[:0]
	e.boundGraphicsPipeline = nil
	return nil
}

// Begin starts recording, per the teacher's CommandBufferBeginInfo usage
// in instance.go.
func (e *CommandEncoder) Begin() error {
	ret := vk.BeginCommandBuffer(e.cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	return checkResult(ret)
}

func (e *CommandEncoder) End() error {
	return checkResult(vk.EndCommandBuffer(e.cmd))
}

// fail records a sticky failure status; subsequent operations become
// no-ops, per spec §4.4 "Failure".
func (e *CommandEncoder) fail(s Status) {
	if e.status == StatusSuccess {
		e.status = s
	}
}

func (e *CommandEncoder) ok() bool { return e.status == StatusSuccess }

// --- Transfer / clear / copy / blit / resolve (outside any pass) ---

// CopyBuffer implements spec §4.4's transfer contract: drive the
// synthesizer to TRANSFER_READ/TRANSFER_WRITE before the copy.
func (e *CommandEncoder) CopyBuffer(src, dst *Buffer, regions []vk.BufferCopy) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	syncBuffer(e.cmd, src, BufferRequest{Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferReadBit)})
	syncBuffer(e.cmd, dst, BufferRequest{Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferWriteBit)})
	vk.CmdCopyBuffer(e.cmd, src.handle, dst.handle, uint32(len(regions)), regions)
}

// CopyBufferToImage drives src to TRANSFER_READ and dst to
// TRANSFER_WRITE/TRANSFER_DST_OPTIMAL before issuing the copy.
func (e *CommandEncoder) CopyBufferToImage(src *Buffer, dst *Image, regions []vk.BufferImageCopy) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	syncBuffer(e.cmd, src, BufferRequest{Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferReadBit)})
	syncImage(e.cmd, dst, dst.aspects, 0, dst.mipLevels, 0, dst.arrayLayers, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferWriteBit), Layout: vk.ImageLayoutTransferDstOptimal,
	})
	vk.CmdCopyBufferToImage(e.cmd, src.handle, dst.handle, vk.ImageLayoutTransferDstOptimal, uint32(len(regions)), regions)
}

// FillBuffer drives dst to TRANSFER_WRITE before filling range with a
// repeated u32 pattern (spec §6.3 fill_buffer).
func (e *CommandEncoder) FillBuffer(dst *Buffer, offset, size uint64, data uint32) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	syncBuffer(e.cmd, dst, BufferRequest{Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferWriteBit)})
	vk.CmdFillBuffer(e.cmd, dst.handle, vk.DeviceSize(offset), vk.DeviceSize(size), data)
}

// UpdateBuffer implements spec §6.3 update_buffer: size must be at most
// MAX_UPDATE_BUFFER_SIZE and 4-byte aligned.
func (e *CommandEncoder) UpdateBuffer(src []byte, dstOffset uint64, dst *Buffer) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	invariant(uint64(len(src)) <= MaxUpdateBufferSize, "gpu: update_buffer payload exceeds MAX_UPDATE_BUFFER_SIZE")
	invariant(len(src)%4 == 0 && dstOffset%4 == 0, "gpu: update_buffer payload/offset must be 4-byte aligned")
	syncBuffer(e.cmd, dst, BufferRequest{Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferWriteBit)})
	vk.CmdUpdateBuffer(e.cmd, dst.handle, vk.DeviceSize(dstOffset), vk.DeviceSize(len(src)), src)
}

// CopyImage drives src/dst to their transfer layouts before the copy
// (spec §6.3 copy_image).
func (e *CommandEncoder) CopyImage(src, dst *Image, regions []vk.ImageCopy) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	syncImage(e.cmd, src, src.aspects, 0, src.mipLevels, 0, src.arrayLayers, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferReadBit), Layout: vk.ImageLayoutTransferSrcOptimal,
	})
	syncImage(e.cmd, dst, dst.aspects, 0, dst.mipLevels, 0, dst.arrayLayers, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferWriteBit), Layout: vk.ImageLayoutTransferDstOptimal,
	})
	vk.CmdCopyImage(e.cmd, src.handle, vk.ImageLayoutTransferSrcOptimal, dst.handle, vk.ImageLayoutTransferDstOptimal, uint32(len(regions)), regions)
}

// ClearDepthStencilImage drives dst to TRANSFER_WRITE/TRANSFER_DST_OPTIMAL.
func (e *CommandEncoder) ClearDepthStencilImage(dst *Image, value vk.ClearDepthStencilValue, ranges []vk.ImageSubresourceRange) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	syncImage(e.cmd, dst, dst.aspects, 0, dst.mipLevels, 0, dst.arrayLayers, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferWriteBit), Layout: vk.ImageLayoutTransferDstOptimal,
	})
	vk.CmdClearDepthStencilImage(e.cmd, dst.handle, vk.ImageLayoutTransferDstOptimal, &value, uint32(len(ranges)), ranges)
}

// ClearColorImage drives dst to TRANSFER_WRITE/TRANSFER_DST_OPTIMAL.
func (e *CommandEncoder) ClearColorImage(dst *Image, color vk.ClearColorValue, ranges []vk.ImageSubresourceRange) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	syncImage(e.cmd, dst, dst.aspects, 0, dst.mipLevels, 0, dst.arrayLayers, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferWriteBit), Layout: vk.ImageLayoutTransferDstOptimal,
	})
	vk.CmdClearColorImage(e.cmd, dst.handle, vk.ImageLayoutTransferDstOptimal, &color, uint32(len(ranges)), ranges)
}

// BlitImage implements spec §4.4's blit validation: for 1D images y is
// fixed to [0,1), for 1D/2D images z is fixed to [0,1).
func (e *CommandEncoder) BlitImage(src, dst *Image, regions []vk.ImageBlit, filter vk.Filter) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	for _, r := range regions {
		validateBlitOffsets(src.imageType, r.SrcOffsets)
		validateBlitOffsets(dst.imageType, r.DstOffsets)
	}
	syncImage(e.cmd, src, src.aspects, 0, src.mipLevels, 0, src.arrayLayers, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferReadBit), Layout: vk.ImageLayoutTransferSrcOptimal,
	})
	syncImage(e.cmd, dst, dst.aspects, 0, dst.mipLevels, 0, dst.arrayLayers, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferWriteBit), Layout: vk.ImageLayoutTransferDstOptimal,
	})
	vk.CmdBlitImage(e.cmd, src.handle, vk.ImageLayoutTransferSrcOptimal, dst.handle, vk.ImageLayoutTransferDstOptimal, uint32(len(regions)), regions, filter)
}

func validateBlitOffsets(t ImageType, offsets [2]vk.Offset3D) {
	if t == ImageType1D {
		invariant(offsets[0].Y == 0 && offsets[1].Y <= 1, "gpu: 1D image blit must fix y to [0,1)")
	}
	if t == ImageType1D || t == ImageType2D {
		invariant(offsets[0].Z == 0 && offsets[1].Z <= 1, "gpu: 1D/2D image blit must fix z to [0,1)")
	}
}

// ResolveImage implements spec §4.4's "resolve: dst must be Count1
// samples" rule.
func (e *CommandEncoder) ResolveImage(src, dst *Image, regions []vk.ImageResolve) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	invariant(dst.samples == vk.SampleCount1Bit, "gpu: resolve destination must be Count1 samples")
	syncImage(e.cmd, src, src.aspects, 0, src.mipLevels, 0, src.arrayLayers, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferReadBit), Layout: vk.ImageLayoutTransferSrcOptimal,
	})
	syncImage(e.cmd, dst, dst.aspects, 0, dst.mipLevels, 0, dst.arrayLayers, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit), Access: vk.AccessFlags(vk.AccessTransferWriteBit), Layout: vk.ImageLayoutTransferDstOptimal,
	})
	vk.CmdResolveImage(e.cmd, src.handle, vk.ImageLayoutTransferSrcOptimal, dst.handle, vk.ImageLayoutTransferDstOptimal, uint32(len(regions)), regions)
}

// --- Compute pass ---

func (e *CommandEncoder) BeginComputePass() {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	e.state = EncoderComputePass
}

func (e *CommandEncoder) BindComputePipeline(p *ComputePipeline) {
	if !e.ok() || e.state != EncoderComputePass {
		e.fail(StatusInitializationFailed)
		return
	}
	vk.CmdBindPipeline(e.cmd, vk.PipelineBindPointCompute, p.handle)
	e.boundComputePipeline = p
}

// BindComputeDescriptorSets validates that each dynamic offset is a
// multiple of the UBO or the SSBO minimum offset alignment (spec §4.4).
// The number of sets is not checked against the bound pipeline's layout.
func (e *CommandEncoder) BindComputeDescriptorSets(firstSet uint32, sets []*DescriptorSet, dynamicOffsets []uint32) {
	if !e.ok() || e.state != EncoderComputePass {
		e.fail(StatusInitializationFailed)
		return
	}
	for _, off := range dynamicOffsets {
		invariant(off%uint32(e.device.props.UniformBufferOffsetAlignment) == 0 || off%uint32(e.device.props.StorageBufferOffsetAlignment) == 0,
			"gpu: dynamic descriptor offset misaligned")
	}
	handles := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		handles[i] = s.handle
	}
	vk.CmdBindDescriptorSets(e.cmd, vk.PipelineBindPointCompute, e.boundComputePipeline.layout, firstSet, uint32(len(handles)), handles, uint32(len(dynamicOffsets)), dynamicOffsets)
	e.computeSets = append(e.computeSets, sets...)
}

// PushComputeConstants requires size to equal the bound pipeline's total
// push-constant size (spec §4.4).
func (e *CommandEncoder) PushComputeConstants(stages vk.ShaderStageFlags, data []byte) {
	if !e.ok() || e.state != EncoderComputePass {
		e.fail(StatusInitializationFailed)
		return
	}
	invariant(uint32(len(data)) == e.boundComputePipeline.pushConstantSize, "gpu: push constants size must equal the bound pipeline's")
	vk.CmdPushConstants(e.cmd, e.boundComputePipeline.layout, stages, 0, uint32(len(data)), data)
}

// Dispatch validates workgroup counts against the device's
// maxComputeWorkGroupCount and drives the synthesizer over every bound
// set's resources before the dispatch (spec §4.4).
func (e *CommandEncoder) Dispatch(x, y, z uint32) {
	if !e.ok() || e.state != EncoderComputePass {
		e.fail(StatusInitializationFailed)
		return
	}
	limit := e.device.props.MaxComputeWorkGroupCount
	invariant(x <= limit[0] && y <= limit[1] && z <= limit[2], "gpu: dispatch workgroup count exceeds device limits")
	for _, s := range e.computeSets {
		syncDescriptorSet(e.cmd, s, vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit), false)
	}
	vk.CmdDispatch(e.cmd, x, y, z)
}

func (e *CommandEncoder) DispatchIndirect(buf *Buffer, offset uint64) {
	if !e.ok() || e.state != EncoderComputePass {
		e.fail(StatusInitializationFailed)
		return
	}
	for _, s := range e.computeSets {
		syncDescriptorSet(e.cmd, s, vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit), false)
	}
	syncBuffer(e.cmd, buf, BufferRequest{Stages: vk.PipelineStageFlags(vk.PipelineStageDrawIndirectBit), Access: vk.AccessFlags(vk.AccessIndirectCommandReadBit)})
	vk.CmdDispatchIndirect(e.cmd, buf.handle, vk.DeviceSize(offset))
}

func (e *CommandEncoder) EndComputePass() {
	if !e.ok() || e.state != EncoderComputePass {
		e.fail(StatusInitializationFailed)
		return
	}
	e.boundComputePipeline = nil
	e.computeSets = nil
	e.state = EncoderReset
}

// --- Render pass ---

// BeginRendering validates attachments per spec §4.4 step 1 and snapshots
// them; it does not itself emit vkCmdBeginRendering (that happens in
// EndRendering's first pass, per §4.4 step 3, after barriers have run).
func (e *CommandEncoder) BeginRendering(info RenderingInfo) {
	if !e.ok() || e.state != EncoderReset {
		e.fail(StatusInitializationFailed)
		return
	}
	invariant(info.Area.Extent.Width > 0 && info.Area.Extent.Height > 0, "gpu: rendering area extent must be > 0")
	invariant(info.Layers > 0, "gpu: rendering layer count must be > 0")
	for _, c := range info.Color {
		if c.ResolveMode != vk.ResolveModeNone {
			invariant(c.Resolve != nil && c.ResolveImage != nil, "gpu: resolve_mode set without a resolve view")
			invariant(c.ResolveImage.samples == vk.SampleCount1Bit, "gpu: resolve target must be Count1 samples")
		}
		invariant(c.Image.aspects&ImageAspectColor != 0, "gpu: color attachment image must have the Color aspect")
	}
	if info.Depth != nil {
		invariant(info.Depth.Image.aspects&(ImageAspectDepth|ImageAspectStencil) != 0, "gpu: depth attachment image must have a depth/stencil aspect")
	}

	e.rendering = &info
	e.log = e.log[:0]
	e.state = EncoderRenderPass
}

func (e *CommandEncoder) append(cmd renderCommand) {
	if !e.ok() || e.state != EncoderRenderPass {
		e.fail(StatusInitializationFailed)
		return
	}
	e.log = append(e.log, cmd)
}

// BindGraphicsPipeline validates render-pass compatibility: the pipeline's
// color/depth/stencil formats must equal the current attachments' formats
// (spec §4.4 step 2).
func (e *CommandEncoder) BindGraphicsPipeline(p *GraphicsPipeline) {
	if !e.ok() || e.state != EncoderRenderPass {
		e.fail(StatusInitializationFailed)
		return
	}
	colorFormats := make([]vk.Format, len(e.rendering.Color))
	for i, c := range e.rendering.Color {
		colorFormats[i] = c.Image.format
	}
	var depthFormat, stencilFormat vk.Format
	if e.rendering.Depth != nil {
		depthFormat = e.rendering.Depth.Image.format
		if e.rendering.Depth.HasStencil {
			stencilFormat = depthFormat
		}
	}
	invariant(p.compatibleWith(colorFormats, depthFormat, stencilFormat), "gpu: graphics pipeline is not compatible with the current render pass attachments")

	e.boundGraphicsPipeline = p
	e.append(renderCommand{kind: cmdBindGraphicsPipeline, pipeline: p})
}

func (e *CommandEncoder) SetGraphicsState(s GraphicsState) {
	e.append(renderCommand{kind: cmdSetGraphicsState, state: s})
}

func (e *CommandEncoder) BindVertexBuffer(binding uint32, buf *Buffer, offset uint64) {
	e.append(renderCommand{kind: cmdBindVertexBuffer, binding: binding, buffer: buf, offset: offset})
}

func (e *CommandEncoder) BindIndexBuffer(buf *Buffer, offset uint64, indexType IndexType) {
	e.append(renderCommand{kind: cmdBindIndexBuffer, buffer: buf, offset: offset, indexType: indexType})
}

func (e *CommandEncoder) BindGraphicsDescriptorSets(firstSet uint32, sets []*DescriptorSet) {
	e.append(renderCommand{kind: cmdBindDescriptorSets, sets: sets, firstSet: firstSet})
}

func (e *CommandEncoder) PushGraphicsConstants(stages vk.ShaderStageFlags, offset uint32, data []byte) {
	e.append(renderCommand{kind: cmdPushConstants, pushStages: stages, pushOffset: offset, pushData: data})
}

func (e *CommandEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	e.append(renderCommand{kind: cmdDraw, vertexCount: vertexCount, instanceCount: instanceCount, firstVertex: firstVertex, firstInstance: firstInstance})
}

func (e *CommandEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	e.append(renderCommand{kind: cmdDrawIndexed, indexCount: indexCount, instanceCount: instanceCount, firstIndex: firstIndex, vertexOffset: vertexOffset, firstInstance: firstInstance})
}

func (e *CommandEncoder) DrawIndirect(buf *Buffer, offset uint64, drawCount, stride uint32) {
	e.append(renderCommand{kind: cmdDrawIndirect, indirectBuf: buf, indirectOff: offset, drawCount: drawCount, stride: stride})
}

func (e *CommandEncoder) DrawIndexedIndirect(buf *Buffer, offset uint64, drawCount, stride uint32) {
	e.append(renderCommand{kind: cmdDrawIndexedIndirect, indirectBuf: buf, indirectOff: offset, drawCount: drawCount, stride: stride})
}

// EndRendering implements spec §4.4 step 3: a barrier pre-pass over the
// deferred log, vkCmdBeginRendering with the resolved attachments,
// replaying the log as raw backend calls, vkCmdEndRendering, and a
// return to Reset.
func (e *CommandEncoder) EndRendering() {
	if !e.ok() || e.state != EncoderRenderPass {
		e.fail(StatusInitializationFailed)
		return
	}

	e.runBarrierPrePass()
	e.emitBeginRendering()
	for _, c := range e.log {
		e.replay(c)
	}
	vk.CmdEndRendering(e.cmd)

	e.rendering = nil
	e.log = e.log[:0]
	e.boundGraphicsPipeline = nil
	e.state = EncoderReset
}

// runBarrierPrePass is §4.4 step 3's "First pass": descriptor-set and
// vertex/index-buffer accesses derived from the log, plus attachment
// accesses derived from load/store/resolve_mode.
func (e *CommandEncoder) runBarrierPrePass() {
	for _, c := range e.log {
		switch c.kind {
		case cmdBindDescriptorSets:
			for _, s := range c.sets {
				syncDescriptorSet(e.cmd, s, vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit)|vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), true)
			}
		case cmdBindVertexBuffer:
			syncBuffer(e.cmd, c.buffer, BufferRequest{Stages: vk.PipelineStageFlags(vk.PipelineStageVertexInputBit), Access: vk.AccessFlags(vk.AccessVertexAttributeReadBit)})
		case cmdBindIndexBuffer:
			syncBuffer(e.cmd, c.buffer, BufferRequest{Stages: vk.PipelineStageFlags(vk.PipelineStageVertexInputBit), Access: vk.AccessFlags(vk.AccessIndexReadBit)})
		case cmdDrawIndirect, cmdDrawIndexedIndirect:
			syncBuffer(e.cmd, c.indirectBuf, BufferRequest{Stages: vk.PipelineStageFlags(vk.PipelineStageDrawIndirectBit), Access: vk.AccessFlags(vk.AccessIndirectCommandReadBit)})
		}
	}

	for i := range e.rendering.Color {
		e.syncColorAttachment(&e.rendering.Color[i])
	}
	if e.rendering.Depth != nil {
		e.syncDepthAttachment(e.rendering.Depth)
	}
}

func (e *CommandEncoder) syncColorAttachment(c *ColorAttachment) {
	access := vk.AccessFlags(0)
	if c.LoadOp == vk.AttachmentLoadOpLoad {
		access |= vk.AccessFlags(vk.AccessColorAttachmentReadBit)
	}
	if c.LoadOp == vk.AttachmentLoadOpClear || c.StoreOp == vk.AttachmentStoreOpStore {
		access |= vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	}
	syncImage(e.cmd, c.Image, ImageAspectColor, 0, 1, 0, 1, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), Access: access, Layout: vk.ImageLayoutColorAttachmentOptimal,
	})
	if c.ResolveMode != vk.ResolveModeNone {
		syncImage(e.cmd, c.Image, ImageAspectColor, 0, 1, 0, 1, ImageRequest{
			Stages: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), Access: vk.AccessFlags(vk.AccessColorAttachmentReadBit), Layout: vk.ImageLayoutColorAttachmentOptimal,
		})
		syncImage(e.cmd, c.ResolveImage, ImageAspectColor, 0, 1, 0, 1, ImageRequest{
			Stages: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			Access: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			Layout: vk.ImageLayoutColorAttachmentOptimal,
		})
	}
}

func (e *CommandEncoder) syncDepthAttachment(d *DepthStencilAttachment) {
	access := vk.AccessFlags(0)
	if d.LoadOp == vk.AttachmentLoadOpLoad {
		access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit)
	}
	if d.LoadOp == vk.AttachmentLoadOpClear || d.StoreOp == vk.AttachmentStoreOpStore {
		access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}
	aspects := ImageAspectDepth
	if d.HasStencil {
		aspects |= ImageAspectStencil
	}
	syncImage(e.cmd, d.Image, aspects, 0, 1, 0, 1, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) | vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
		Access: access, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal,
	})
}

func (e *CommandEncoder) emitBeginRendering() {
	colorAttachments := make([]vk.RenderingAttachmentInfo, len(e.rendering.Color))
	for i, c := range e.rendering.Color {
		att := vk.RenderingAttachmentInfo{
			SType:       vk.StructureTypeRenderingAttachmentInfo,
			ImageView:   c.View.handle,
			ImageLayout: vk.ImageLayoutColorAttachmentOptimal,
			LoadOp:      c.LoadOp,
			StoreOp:     c.StoreOp,
			ClearValue:  c.ClearValue,
		}
		if c.ResolveMode != vk.ResolveModeNone {
			att.ResolveMode = c.ResolveMode
			att.ResolveImageView = c.Resolve.handle
			att.ResolveImageLayout = vk.ImageLayoutColorAttachmentOptimal
		}
		colorAttachments[i] = att
	}

	info := vk.RenderingInfo{
		SType:               vk.StructureTypeRenderingInfo,
		RenderArea:          e.rendering.Area,
		LayerCount:          e.rendering.Layers,
		ColorAttachmentCount: uint32(len(colorAttachments)),
		PColorAttachments:    colorAttachments,
	}
	if e.rendering.Depth != nil {
		d := e.rendering.Depth
		layout := vk.ImageLayoutDepthAttachmentOptimal
		if d.HasStencil {
			layout = vk.ImageLayoutDepthStencilAttachmentOptimal
		}
		depthInfo := vk.RenderingAttachmentInfo{
			SType:       vk.StructureTypeRenderingAttachmentInfo,
			ImageView:   d.View.handle,
			ImageLayout: layout,
			LoadOp:      d.LoadOp,
			StoreOp:     d.StoreOp,
			ClearValue:  d.ClearValue,
		}
		info.PDepthAttachment = &depthInfo
		if d.HasStencil {
			info.PStencilAttachment = &depthInfo
		}
	}

	vk.CmdBeginRendering(e.cmd, &info)
}

// replay is §4.4 step 3's "Second pass".
func (e *CommandEncoder) replay(c renderCommand) {
	switch c.kind {
	case cmdBindGraphicsPipeline:
		vk.CmdBindPipeline(e.cmd, vk.PipelineBindPointGraphics, c.pipeline.handle)
	case cmdSetGraphicsState:
		s := c.state
		vk.CmdSetViewport(e.cmd, 0, 1, []vk.Viewport{s.Viewport})
		vk.CmdSetScissor(e.cmd, 0, 1, []vk.Rect2D{s.Scissor})
		vk.CmdSetBlendConstants(e.cmd, s.BlendConstants)
		vk.CmdSetStencilReference(e.cmd, vk.StencilFaceFlags(vk.StencilFrontAndBack), s.StencilReference)
		vk.CmdSetStencilCompareMask(e.cmd, vk.StencilFaceFlags(vk.StencilFrontAndBack), s.StencilCompareMask)
		vk.CmdSetStencilWriteMask(e.cmd, vk.StencilFaceFlags(vk.StencilFrontAndBack), s.StencilWriteMask)
		vk.CmdSetCullMode(e.cmd, vk.CullModeFlags(s.CullMode))
		vk.CmdSetFrontFace(e.cmd, s.FrontFace)
		vk.CmdSetDepthBias(e.cmd, s.DepthBiasConstant, 0, s.DepthBiasSlope)
	case cmdBindVertexBuffer:
		vk.CmdBindVertexBuffers(e.cmd, c.binding, 1, []vk.Buffer{c.buffer.handle}, []vk.DeviceSize{vk.DeviceSize(c.offset)})
	case cmdBindIndexBuffer:
		indexType := vk.IndexTypeUint16
		if c.indexType == IndexTypeUint32 {
			indexType = vk.IndexTypeUint32
		}
		vk.CmdBindIndexBuffer(e.cmd, c.buffer.handle, vk.DeviceSize(c.offset), indexType)
	case cmdBindDescriptorSets:
		handles := make([]vk.DescriptorSet, len(c.sets))
		for i, s := range c.sets {
			handles[i] = s.handle
		}
		vk.CmdBindDescriptorSets(e.cmd, vk.PipelineBindPointGraphics, e.boundGraphicsPipeline.layout, c.firstSet, uint32(len(handles)), handles, 0, nil)
	case cmdPushConstants:
		vk.CmdPushConstants(e.cmd, e.boundGraphicsPipeline.layout, c.pushStages, c.pushOffset, uint32(len(c.pushData)), c.pushData)
	case cmdDraw:
		vk.CmdDraw(e.cmd, c.vertexCount, c.instanceCount, c.firstVertex, c.firstInstance)
	case cmdDrawIndexed:
		vk.CmdDrawIndexed(e.cmd, c.indexCount, c.instanceCount, c.firstIndex, c.vertexOffset, c.firstInstance)
	case cmdDrawIndirect:
		vk.CmdDrawIndirect(e.cmd, c.indirectBuf.handle, vk.DeviceSize(c.indirectOff), c.drawCount, c.stride)
	case cmdDrawIndexedIndirect:
		vk.CmdDrawIndexedIndirect(e.cmd, c.indirectBuf.handle, vk.DeviceSize(c.indirectOff), c.drawCount, c.stride)
	}
}
