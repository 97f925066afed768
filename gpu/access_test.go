package gpu

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestSyncBufferStateFirstAccessNeverBarriers(t *testing.T) {
	var state BufferState
	_, needed := syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		Access: vk.AccessFlags(vk.AccessTransferWriteBit),
	})
	if needed {
		t.Error("first access on a fresh resource must never need a barrier")
	}
	if state.Sequence != SequenceWrite {
		t.Errorf("sequence = %v, want SequenceWrite", state.Sequence)
	}
}

func TestSyncBufferStateReadAfterReadCoalescesNoBarrier(t *testing.T) {
	var state BufferState
	syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit),
		Access: vk.AccessFlags(vk.AccessShaderReadBit),
	})
	_, needed := syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		Access: vk.AccessFlags(vk.AccessShaderReadBit),
	})
	if needed {
		t.Error("read-after-read must coalesce, not barrier")
	}
	if state.Sequence != SequenceReads {
		t.Errorf("sequence = %v, want SequenceReads", state.Sequence)
	}
	wantStages := vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit) | vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	if state.Access[0].Stages != wantStages {
		t.Errorf("coalesced stages = %v, want %v", state.Access[0].Stages, wantStages)
	}
}

func TestSyncBufferStateWriteAfterReadBarriers(t *testing.T) {
	var state BufferState
	syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit),
		Access: vk.AccessFlags(vk.AccessShaderReadBit),
	})
	barrier, needed := syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		Access: vk.AccessFlags(vk.AccessTransferWriteBit),
	})
	if !needed {
		t.Fatal("write-after-read must barrier")
	}
	if barrier.SrcStages != vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit) {
		t.Errorf("barrier.SrcStages = %v, want the prior read's stages", barrier.SrcStages)
	}
	if state.Sequence != SequenceWrite {
		t.Errorf("sequence after write = %v, want SequenceWrite", state.Sequence)
	}
}

func TestSyncBufferStateWriteAfterWriteBarriers(t *testing.T) {
	var state BufferState
	syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		Access: vk.AccessFlags(vk.AccessTransferWriteBit),
	})
	_, needed := syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		Access: vk.AccessFlags(vk.AccessTransferWriteBit),
	})
	if !needed {
		t.Error("write-after-write must always barrier")
	}
}

func TestSyncBufferStateReadAfterWriteThenSubsetReadSuppressed(t *testing.T) {
	var state BufferState
	syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		Access: vk.AccessFlags(vk.AccessTransferWriteBit),
	})
	// First read after the write: must barrier and move to ReadAfterWrite.
	_, needed := syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit),
		Access: vk.AccessFlags(vk.AccessShaderReadBit),
	})
	if !needed {
		t.Fatal("first read after a write must barrier")
	}
	if state.Sequence != SequenceReadAfterWrite {
		t.Fatalf("sequence = %v, want SequenceReadAfterWrite", state.Sequence)
	}
	// A second read already covered by the recorded post-write reads must
	// be suppressed (spec §4.1 subset-suppression).
	_, needed = syncBufferState(&state, BufferRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit),
		Access: vk.AccessFlags(vk.AccessShaderReadBit),
	})
	if needed {
		t.Error("a read already covered by the recorded post-write reads must be suppressed")
	}
}

func TestSyncImageStateLayoutChangeForcesTransitionEvenOnRead(t *testing.T) {
	var state ImageState
	// First access: establishes VK_IMAGE_LAYOUT_UNDEFINED -> ShaderReadOnly.
	barrier, needed := syncImageState(&state, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		Access: vk.AccessFlags(vk.AccessShaderReadBit),
		Layout: vk.ImageLayoutShaderReadOnlyOptimal,
	})
	if !needed {
		t.Fatal("first access establishing a non-undefined layout must barrier")
	}
	if barrier.NewLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("NewLayout = %v, want ShaderReadOnlyOptimal", barrier.NewLayout)
	}

	// Second access: same read access, different layout -> must barrier
	// even though both accesses are reads.
	barrier, needed = syncImageState(&state, ImageRequest{
		Stages: vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		Access: vk.AccessFlags(vk.AccessShaderReadBit),
		Layout: vk.ImageLayoutGeneral,
	})
	if !needed {
		t.Error("a layout change must force a barrier even between two reads")
	}
	if barrier.OldLayout != vk.ImageLayoutShaderReadOnlyOptimal || barrier.NewLayout != vk.ImageLayoutGeneral {
		t.Errorf("layout transition = %v -> %v, want ShaderReadOnlyOptimal -> General", barrier.OldLayout, barrier.NewLayout)
	}
}

func TestHasReadWriteAccessClassification(t *testing.T) {
	if !hasReadAccess(vk.AccessFlags(vk.AccessShaderReadBit)) {
		t.Error("AccessShaderReadBit must classify as read")
	}
	if !hasWriteAccess(vk.AccessFlags(vk.AccessShaderWriteBit)) {
		t.Error("AccessShaderWriteBit must classify as write")
	}
	if !hasReadAccess(vk.AccessFlags(vk.AccessShaderWriteBit)) {
		t.Error("AccessShaderWriteBit must also classify as read (read-modify-write)")
	}
	if hasWriteAccess(vk.AccessFlags(vk.AccessUniformReadBit)) {
		t.Error("AccessUniformReadBit must not classify as write")
	}
}
