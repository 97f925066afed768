package gpu

import vk "github.com/vulkan-go/vulkan"

// AccessSequence is the small state machine recorded per buffer / per image
// aspect (spec §3 "Access sequence"). It is mutated in place by
// syncBufferState/syncImageState.
type AccessSequence int

const (
	SequenceNone AccessSequence = iota
	SequenceReads
	SequenceWrite
	SequenceReadAfterWrite
)

// BufferAccess is one recorded (stages, access) pair for a buffer.
type BufferAccess struct {
	Stages vk.PipelineStageFlags
	Access vk.AccessFlags
}

// BufferState holds a buffer's access-sequence state: access[0] is always
// the "primary" slot (the write, or the coalesced reads); access[1] is only
// populated in ReadAfterWrite, holding the coalesced post-write reads.
type BufferState struct {
	Sequence AccessSequence
	Access   [2]BufferAccess
}

// ImageAccess additionally carries the layout the image was accessed in.
type ImageAccess struct {
	Stages vk.PipelineStageFlags
	Access vk.AccessFlags
	Layout vk.ImageLayout
}

// ImageState is the per-aspect analogue of BufferState. Images with both
// depth and stencil aspects carry two independent ImageState values (spec
// §3 Image invariants).
type ImageState struct {
	Sequence AccessSequence
	Access   [2]ImageAccess
}

// BufferRequest/ImageRequest describe the access a command is about to
// perform; fed into syncBufferState/syncImageState.
type BufferRequest struct {
	Stages vk.PipelineStageFlags
	Access vk.AccessFlags
}

type ImageRequest struct {
	Stages vk.PipelineStageFlags
	Access vk.AccessFlags
	Layout vk.ImageLayout
}

// hasReadAccess/hasWriteAccess classify an access mask, ported from
// original_source/ashura/gpu/vulkan.cc has_read_access/has_write_access
// (lines 344-381). SHADER_WRITE deliberately counts as both: a shader
// storage write also makes the resource's prior contents visible to this
// access's own read-modify-write, matching the original's classification.
func hasReadAccess(access vk.AccessFlags) bool {
	const readBits = vk.AccessFlags(vk.AccessIndirectCommandReadBit) |
		vk.AccessFlags(vk.AccessIndexReadBit) |
		vk.AccessFlags(vk.AccessVertexAttributeReadBit) |
		vk.AccessFlags(vk.AccessUniformReadBit) |
		vk.AccessFlags(vk.AccessInputAttachmentReadBit) |
		vk.AccessFlags(vk.AccessShaderReadBit) |
		vk.AccessFlags(vk.AccessShaderWriteBit) |
		vk.AccessFlags(vk.AccessColorAttachmentReadBit) |
		vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) |
		vk.AccessFlags(vk.AccessTransferReadBit) |
		vk.AccessFlags(vk.AccessHostReadBit) |
		vk.AccessFlags(vk.AccessMemoryReadBit)
	return access&readBits != 0
}

func hasWriteAccess(access vk.AccessFlags) bool {
	const writeBits = vk.AccessFlags(vk.AccessShaderWriteBit) |
		vk.AccessFlags(vk.AccessColorAttachmentWriteBit) |
		vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit) |
		vk.AccessFlags(vk.AccessTransferWriteBit) |
		vk.AccessFlags(vk.AccessHostWriteBit) |
		vk.AccessFlags(vk.AccessMemoryWriteBit)
	return access&writeBits != 0
}

// BufferBarrier is the (stages, access) pair emitted by syncBufferState,
// sufficient to fill a vk.BufferMemoryBarrier's access masks.
type BufferBarrier struct {
	SrcStages vk.PipelineStageFlags
	DstStages vk.PipelineStageFlags
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
}

// ImageBarrier additionally carries the layout transition.
type ImageBarrier struct {
	SrcStages vk.PipelineStageFlags
	DstStages vk.PipelineStageFlags
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	OldLayout vk.ImageLayout
	NewLayout vk.ImageLayout
}

// syncBufferState mutates state to reflect request and reports whether a
// barrier must be emitted to enforce ordering, per spec §4.1's buffer
// algorithm. Ported structurally from
// original_source/ashura/gpu/vulkan.cc:sync_buffer_state (lines 383-532).
func syncBufferState(state *BufferState, request BufferRequest) (BufferBarrier, bool) {
	hasWrite := hasWriteAccess(request.Access)
	hasRead := hasReadAccess(request.Access)

	switch state.Sequence {
	case SequenceNone:
		if hasWrite {
			state.Sequence = SequenceWrite
			state.Access[0] = BufferAccess{Stages: request.Stages, Access: request.Access}
			return BufferBarrier{}, false
		}
		if hasRead {
			state.Sequence = SequenceReads
			state.Access[0] = BufferAccess{Stages: request.Stages, Access: request.Access}
			return BufferBarrier{}, false
		}
		return BufferBarrier{}, false

	case SequenceReads:
		if hasWrite {
			previousReads := state.Access[0]
			state.Sequence = SequenceWrite
			state.Access[0] = BufferAccess{Stages: request.Stages, Access: request.Access}
			state.Access[1] = BufferAccess{}
			return BufferBarrier{
				SrcStages: previousReads.Stages,
				DstStages: request.Stages,
				SrcAccess: previousReads.Access,
				DstAccess: request.Access,
			}, true
		}
		if hasRead {
			previousReads := state.Access[0]
			state.Sequence = SequenceReads
			state.Access[0] = BufferAccess{
				Stages: previousReads.Stages | request.Stages,
				Access: previousReads.Access | request.Access,
			}
			return BufferBarrier{}, false
		}
		return BufferBarrier{}, false

	case SequenceWrite:
		if hasWrite {
			previousWrite := state.Access[0]
			state.Sequence = SequenceWrite
			state.Access[0] = BufferAccess{Stages: request.Stages, Access: request.Access}
			state.Access[1] = BufferAccess{}
			return BufferBarrier{
				SrcStages: previousWrite.Stages,
				DstStages: request.Stages,
				SrcAccess: previousWrite.Access,
				DstAccess: request.Access,
			}, true
		}
		if hasRead {
			state.Sequence = SequenceReadAfterWrite
			state.Access[1] = BufferAccess{Stages: request.Stages, Access: request.Access}
			return BufferBarrier{
				SrcStages: state.Access[0].Stages,
				DstStages: request.Stages,
				SrcAccess: state.Access[0].Access,
				DstAccess: request.Access,
			}, true
		}
		return BufferBarrier{}, false

	case SequenceReadAfterWrite:
		if hasWrite {
			previousReads := state.Access[1]
			state.Sequence = SequenceWrite
			state.Access[0] = BufferAccess{Stages: request.Stages, Access: request.Access}
			state.Access[1] = BufferAccess{}
			return BufferBarrier{
				SrcStages: previousReads.Stages,
				DstStages: request.Stages,
				SrcAccess: previousReads.Access,
				DstAccess: request.Access,
			}, true
		}
		if hasRead {
			// Subset-suppression: if the incoming access is already covered
			// by the recorded post-write reads, no new barrier is needed.
			if request.Stages&^state.Access[1].Stages == 0 && request.Access&^state.Access[1].Access == 0 {
				return BufferBarrier{}, false
			}
			state.Sequence = SequenceReadAfterWrite
			state.Access[1].Stages |= request.Stages
			state.Access[1].Access |= request.Access
			return BufferBarrier{
				SrcStages: state.Access[0].Stages,
				DstStages: request.Stages,
				SrcAccess: state.Access[0].Access,
				DstAccess: request.Access,
			}, true
		}
		return BufferBarrier{}, false

	default:
		return BufferBarrier{}, false
	}
}

// syncImageState is the image analogue of syncBufferState, ported
// structurally from vulkan.cc:sync_image_state (lines 542-713). Layout
// transitions are treated as writes even when the requested access is
// read-only (§4.1 algorithm, addition 1): two readers that disagree on
// layout cannot actually observe each other's effects without a barrier.
func syncImageState(state *ImageState, request ImageRequest) (ImageBarrier, bool) {
	currentLayout := state.Access[0].Layout
	needsTransition := currentLayout != request.Layout
	hasWrite := hasWriteAccess(request.Access) || needsTransition
	hasRead := hasReadAccess(request.Access)

	barrier := ImageBarrier{OldLayout: currentLayout, NewLayout: request.Layout}

	switch state.Sequence {
	case SequenceNone:
		if hasWrite {
			state.Sequence = SequenceWrite
			state.Access[0] = ImageAccess{Stages: request.Stages, Access: request.Access, Layout: request.Layout}
			if needsTransition {
				barrier.SrcStages = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
				barrier.DstStages = request.Stages
				barrier.SrcAccess = 0 // VK_ACCESS_NONE
				barrier.DstAccess = request.Access
				return barrier, true
			}
			return barrier, false
		}
		if hasRead {
			state.Sequence = SequenceReads
			state.Access[0] = ImageAccess{Stages: request.Stages, Access: request.Access, Layout: request.Layout}
			return barrier, false
		}
		return barrier, false

	case SequenceReads:
		if hasWrite {
			previousReads := state.Access[0]
			state.Sequence = SequenceWrite
			state.Access[0] = ImageAccess{Stages: request.Stages, Access: request.Access, Layout: request.Layout}
			state.Access[1] = ImageAccess{}
			barrier.SrcStages, barrier.DstStages = previousReads.Stages, request.Stages
			barrier.SrcAccess, barrier.DstAccess = previousReads.Access, request.Access
			return barrier, true
		}
		if hasRead {
			previousReads := state.Access[0]
			state.Sequence = SequenceReads
			state.Access[0] = ImageAccess{
				Stages: previousReads.Stages | request.Stages,
				Access: previousReads.Access | request.Access,
				Layout: request.Layout,
			}
			return barrier, false
		}
		return barrier, false

	case SequenceWrite:
		if hasWrite {
			previousWrite := state.Access[0]
			state.Sequence = SequenceWrite
			state.Access[0] = ImageAccess{Stages: request.Stages, Access: request.Access, Layout: request.Layout}
			state.Access[1] = ImageAccess{}
			barrier.SrcStages, barrier.DstStages = previousWrite.Stages, request.Stages
			barrier.SrcAccess, barrier.DstAccess = previousWrite.Access, request.Access
			return barrier, true
		}
		if hasRead {
			state.Sequence = SequenceReadAfterWrite
			state.Access[1] = ImageAccess{Stages: request.Stages, Access: request.Access, Layout: request.Layout}
			barrier.SrcStages, barrier.DstStages = state.Access[0].Stages, request.Stages
			barrier.SrcAccess, barrier.DstAccess = state.Access[0].Access, request.Access
			return barrier, true
		}
		return barrier, false

	case SequenceReadAfterWrite:
		if hasWrite {
			previousReads := state.Access[1]
			state.Sequence = SequenceWrite
			state.Access[0] = ImageAccess{Stages: request.Stages, Access: request.Access, Layout: request.Layout}
			state.Access[1] = ImageAccess{}
			barrier.SrcStages, barrier.DstStages = previousReads.Stages, request.Stages
			barrier.SrcAccess, barrier.DstAccess = previousReads.Access, request.Access
			return barrier, true
		}
		if hasRead {
			if request.Stages&^state.Access[1].Stages == 0 && request.Access&^state.Access[1].Access == 0 {
				return barrier, false
			}
			state.Sequence = SequenceReadAfterWrite
			state.Access[1].Stages |= request.Stages
			state.Access[1].Access |= request.Access
			barrier.SrcStages, barrier.DstStages = state.Access[0].Stages, request.Stages
			barrier.SrcAccess, barrier.DstAccess = state.Access[0].Access, request.Access
			return barrier, true
		}
		return barrier, false

	default:
		return barrier, false
	}
}
