package gpu

import vk "github.com/vulkan-go/vulkan"

// frameSlot is one ring position: a command encoder plus its acquire/
// submit semaphores and submit fence (spec §3 "Frame context" / §4.5
// init).
type frameSlot struct {
	encoder        *CommandEncoder
	acquireSem     vk.Semaphore
	submitSem      vk.Semaphore
	submitFence    vk.Fence
	acquiredImage  bool
}

// FrameContext is the ring of N command encoders described in spec §4.5,
// grounded on the teacher's instance.go PerFrame/submit_pipeline/Update/
// acquire_next_image. The present-layout transition in SubmitFrame is
// supplemented from original_source/ashura/gpu/vulkan.cc's submit_frame.
type FrameContext struct {
	device    *Device
	pool      vk.CommandPool
	slots     []frameSlot
	ringIndex int
	currentFrame uint64
	tailFrame    uint64
}

// NewFrameContext implements spec §4.5 init(buffering): allocates
// buffering command encoders, acquire/submit semaphores, and signaled
// submit fences.
func NewFrameContext(device *Device, buffering int) (*FrameContext, error) {
	invariant(buffering >= 1 && buffering <= MaxFrameBuffering, "gpu: frame buffering out of range")

	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device.handle, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if err := checkResult(ret); err != nil {
		return nil, err
	}

	fc := &FrameContext{device: device, pool: pool, slots: make([]frameSlot, buffering)}
	for i := range fc.slots {
		encoder, err := NewCommandEncoder(device, pool)
		if err != nil {
			return nil, err
		}

		var acquireSem, submitSem vk.Semaphore
		if ret := vk.CreateSemaphore(device.handle, &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}, nil, &acquireSem); isError(ret) {
			return nil, newStatusError(ret)
		}
		if ret := vk.CreateSemaphore(device.handle, &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}, nil, &submitSem); isError(ret) {
			return nil, newStatusError(ret)
		}

		var fence vk.Fence
		ret := vk.CreateFence(device.handle, &vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
			Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
		}, nil, &fence)
		if isError(ret) {
			return nil, newStatusError(ret)
		}

		fc.slots[i] = frameSlot{encoder: encoder, acquireSem: acquireSem, submitSem: submitSem, submitFence: fence}
	}
	return fc, nil
}

func (fc *FrameContext) Destroy() {
	for _, s := range fc.slots {
		vk.DestroyFence(fc.device.handle, s.submitFence, nil)
		vk.DestroySemaphore(fc.device.handle, s.acquireSem, nil)
		vk.DestroySemaphore(fc.device.handle, s.submitSem, nil)
	}
	vk.DestroyCommandPool(fc.device.handle, fc.pool, nil)
}

func (fc *FrameContext) CurrentFrame() uint64       { return fc.currentFrame }
func (fc *FrameContext) TailFrame() uint64          { return fc.tailFrame }
func (fc *FrameContext) RingIndex() int             { return fc.ringIndex }
func (fc *FrameContext) Encoder() *CommandEncoder   { return fc.slots[fc.ringIndex].encoder }

// BeginFrame implements spec §4.5 begin_frame(swapchain?): waits then
// resets the current ring slot's fence, resets and begins the encoder,
// recreates an invalid swapchain if supplied, and acquires the next
// image.
func (fc *FrameContext) BeginFrame(swapchain *Swapchain) error {
	slot := &fc.slots[fc.ringIndex]

	fences := []vk.Fence{slot.submitFence}
	if ret := vk.WaitForFences(fc.device.handle, 1, fences, vk.True, vk.MaxUint64); isError(ret) {
		return newStatusError(ret)
	}
	if ret := vk.ResetFences(fc.device.handle, 1, fences); isError(ret) {
		return newStatusError(ret)
	}

	if err := slot.encoder.Reset(); err != nil {
		return err
	}
	if err := slot.encoder.Begin(); err != nil {
		return err
	}

	slot.acquiredImage = false

	if swapchain == nil {
		return nil
	}

	if swapchain.IsOutOfDate() || !swapchain.IsOptimal() || swapchain.Handle() == vk.NullSwapchain {
		if err := fc.device.WaitIdle(); err != nil {
			return err
		}
		if err := swapchain.Recreate(); err != nil {
			return err
		}
	}
	if swapchain.IsZeroSized() {
		return nil
	}

	if err := swapchain.AcquireNextImage(slot.acquireSem); err != nil {
		if _, ok := err.(*StatusError); ok {
			return nil
		}
		return err
	}
	slot.acquiredImage = true
	return nil
}

// SubmitFrame implements spec §4.5 submit_frame's five steps.
func (fc *FrameContext) SubmitFrame(swapchain *Swapchain) error {
	slot := &fc.slots[fc.ringIndex]
	encoder := slot.encoder

	invariant(encoder.Status() == StatusSuccess, "gpu: submit_frame called with a failed encoder status")

	// Step 1: present-layout transition for the acquired image, per
	// vulkan.cc's submit_frame (bottom-of-pipe / ACCESS_NONE as the
	// requested destination; the synthesizer takes the source scope from the
	// image's prior write).
	if slot.acquiredImage && swapchain != nil {
		img := swapchain.Images()[swapchain.CurrentImage()]
		syncImage(encoder.cmd, img, ImageAspectColor, 0, 1, 0, 1, ImageRequest{
			Stages: vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			Access: 0,
			Layout: vk.ImageLayoutPresentSrc,
		})
	}

	// Step 2.
	if err := encoder.End(); err != nil {
		return err
	}

	// Step 3.
	var waitSemaphores []vk.Semaphore
	var waitStages []vk.PipelineStageFlags
	if slot.acquiredImage {
		waitSemaphores = []vk.Semaphore{slot.acquireSem}
		waitStages = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)}
	}
	var signalSemaphores []vk.Semaphore
	if slot.acquiredImage {
		signalSemaphores = []vk.Semaphore{slot.submitSem}
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waitSemaphores)),
		PWaitSemaphores:      waitSemaphores,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{encoder.cmd},
		SignalSemaphoreCount: uint32(len(signalSemaphores)),
		PSignalSemaphores:    signalSemaphores,
	}
	if ret := vk.QueueSubmit(fc.device.queue, 1, []vk.SubmitInfo{submitInfo}, slot.submitFence); isError(ret) {
		return newStatusError(ret)
	}

	// Step 4.
	if slot.acquiredImage && swapchain != nil {
		swapchains := []vk.Swapchain{swapchain.Handle()}
		indices := []uint32{swapchain.CurrentImage()}
		presentInfo := vk.PresentInfo{
			SType:              vk.StructureTypePresentInfo,
			WaitSemaphoreCount: uint32(len(signalSemaphores)),
			PWaitSemaphores:    signalSemaphores,
			SwapchainCount:     1,
			PSwapchains:        swapchains,
			PImageIndices:      indices,
		}
		ret := vk.QueuePresent(fc.device.queue, &presentInfo)
		switch ret {
		case vk.ErrorOutOfDateKhr:
			swapchain.isOutOfDate = true
		case vk.SuboptimalKhr:
			swapchain.isOptimal = false
		default:
			if isError(ret) {
				return newStatusError(ret)
			}
		}
	}

	// Step 5. tail_frame = max(current_frame, buffering) - buffering (spec
	// §3 FrameContext).
	fc.currentFrame++
	fc.tailFrame = tailFrameFor(fc.currentFrame, uint64(len(fc.slots)))
	fc.ringIndex = (fc.ringIndex + 1) % len(fc.slots)
	return nil
}

// tailFrameFor computes tail_frame = max(current_frame, buffering) -
// buffering: the oldest frame index still possibly in flight, clamped so
// it never underflows before the ring has cycled once.
func tailFrameFor(currentFrame, buffering uint64) uint64 {
	tail := currentFrame
	if buffering > tail {
		tail = buffering
	}
	return tail - buffering
}
