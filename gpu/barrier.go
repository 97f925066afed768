package gpu

import vk "github.com/vulkan-go/vulkan"

// syncBuffer drives request through the buffer's recorded access-sequence
// state and, if a barrier is needed, emits it against cmd. This is the
// only place BufferState is mutated from outside access.go's tests: every
// transfer/compute/render-pass code path that touches a Buffer funnels
// through here so the sequence stays consistent with what was actually
// recorded on the command buffer (spec §4.1, §4.4).
func syncBuffer(cmd vk.CommandBuffer, buf *Buffer, request BufferRequest) {
	barrier, needed := syncBufferState(&buf.state, request)
	if !needed {
		return
	}
	vk.CmdPipelineBarrier(cmd, barrier.SrcStages, barrier.DstStages, 0, 0, nil,
		1, []vk.BufferMemoryBarrier{{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       barrier.SrcAccess,
			DstAccessMask:       barrier.DstAccess,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Buffer:              buf.handle,
			Offset:              0,
			Size:                vk.DeviceSize(WholeSize),
		}}, 0, nil)
}

// imageStateFor selects the per-aspect state to drive: images with
// combined depth+stencil aspects carry two independent ImageState values
// (spec §3 Image invariants) so a depth-only or stencil-only access does
// not force a barrier for the other aspect.
func imageStateFor(img *Image, aspects ImageAspects) *ImageState {
	switch {
	case aspects&ImageAspectColor != 0:
		return &img.colorState
	case aspects&ImageAspectStencil != 0 && aspects&ImageAspectDepth == 0:
		return &img.stencilState
	default:
		return &img.depthState
	}
}

// syncImage is the image analogue of syncBuffer, additionally performing
// the layout transition in the emitted barrier (spec §4.1).
func syncImage(cmd vk.CommandBuffer, img *Image, aspects ImageAspects, firstLevel, numLevels, firstLayer, numLayers uint32, request ImageRequest) {
	state := imageStateFor(img, aspects)
	barrier, needed := syncImageState(state, request)
	if !needed {
		return
	}
	vk.CmdPipelineBarrier(cmd, barrier.SrcStages, barrier.DstStages, 0, 0, nil, 0, nil,
		1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       barrier.SrcAccess,
			DstAccessMask:       barrier.DstAccess,
			OldLayout:           barrier.OldLayout,
			NewLayout:           barrier.NewLayout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               img.handle,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     aspectsToVk(aspects),
				BaseMipLevel:   firstLevel,
				LevelCount:     numLevels,
				BaseArrayLayer: firstLayer,
				LayerCount:     numLayers,
			},
		}})
}

// descriptorAccessFor derives the (stage, access, layout) a descriptor
// binding implies, per spec §4.4's compute-pass and render-pass rules.
// graphicsStorageReadOnly narrows storage-image/storage-buffer access to
// read-only, matching the render pass's "storage bindings are read-only
// here" carve-out; compute passes pass false.
func descriptorAccessFor(t DescriptorType, stages vk.PipelineStageFlags, graphicsStorageReadOnly bool) (vk.AccessFlags, vk.ImageLayout) {
	switch t {
	case DescriptorCombinedImageSampler, DescriptorSampledImage:
		return vk.AccessFlags(vk.AccessShaderReadBit), vk.ImageLayoutShaderReadOnlyOptimal
	case DescriptorStorageImage:
		if graphicsStorageReadOnly {
			return vk.AccessFlags(vk.AccessShaderReadBit), vk.ImageLayoutGeneral
		}
		return vk.AccessFlags(vk.AccessShaderReadBit) | vk.AccessFlags(vk.AccessShaderWriteBit), vk.ImageLayoutGeneral
	case DescriptorUniformBuffer, DescriptorDynamicUniformBuffer, DescriptorUniformTexelBuffer:
		return vk.AccessFlags(vk.AccessUniformReadBit), vk.ImageLayoutUndefined
	case DescriptorStorageBuffer, DescriptorDynamicStorageBuffer, DescriptorStorageTexelBuffer:
		if graphicsStorageReadOnly {
			return vk.AccessFlags(vk.AccessShaderReadBit), vk.ImageLayoutUndefined
		}
		return vk.AccessFlags(vk.AccessShaderReadBit) | vk.AccessFlags(vk.AccessShaderWriteBit), vk.ImageLayoutUndefined
	default:
		return 0, vk.ImageLayoutUndefined
	}
}

// syncDescriptorSet walks every resource-carrying binding's sync_resources
// back-references and drives the synthesizer over each populated element,
// per spec §4.3's "key enabling the barrier synthesizer to walk bindings
// at draw/dispatch time" and §4.4's per-descriptor-type access derivation.
// Samplers and input attachments are skipped (no sync_resources, or
// already covered by the render pass's attachment accesses).
func syncDescriptorSet(cmd vk.CommandBuffer, set *DescriptorSet, stages vk.PipelineStageFlags, graphicsStorageReadOnly bool) {
	for _, slot := range set.bindings {
		if slot.binding.Type == DescriptorSampler || slot.binding.Type == DescriptorInputAttachment {
			continue
		}
		access, layout := descriptorAccessFor(slot.binding.Type, stages, graphicsStorageReadOnly)
		if access == 0 {
			continue
		}
		for _, res := range slot.resources {
			switch r := res.(type) {
			case *Buffer:
				syncBuffer(cmd, r, BufferRequest{Stages: stages, Access: access})
			case *Image:
				syncImage(cmd, r, r.aspects, 0, r.mipLevels, 0, r.arrayLayers, ImageRequest{Stages: stages, Access: access, Layout: layout})
			}
		}
	}
}
