package gpu

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DescriptorType enumerates the binding kinds a DescriptorSetLayout may
// hold (spec §3 DescriptorSetLayout / §4.3).
type DescriptorType int

const (
	DescriptorSampler DescriptorType = iota
	DescriptorCombinedImageSampler
	DescriptorSampledImage
	DescriptorStorageImage
	DescriptorUniformTexelBuffer
	DescriptorStorageTexelBuffer
	DescriptorUniformBuffer
	DescriptorStorageBuffer
	DescriptorDynamicUniformBuffer
	DescriptorDynamicStorageBuffer
	DescriptorInputAttachment
	numDescriptorTypes
)

func (t DescriptorType) toVk() vk.DescriptorType {
	switch t {
	case DescriptorSampler:
		return vk.DescriptorTypeSampler
	case DescriptorCombinedImageSampler:
		return vk.DescriptorTypeCombinedImageSampler
	case DescriptorSampledImage:
		return vk.DescriptorTypeSampledImage
	case DescriptorStorageImage:
		return vk.DescriptorTypeStorageImage
	case DescriptorUniformTexelBuffer:
		return vk.DescriptorTypeUniformTexelBuffer
	case DescriptorStorageTexelBuffer:
		return vk.DescriptorTypeStorageTexelBuffer
	case DescriptorUniformBuffer:
		return vk.DescriptorTypeUniformBuffer
	case DescriptorStorageBuffer:
		return vk.DescriptorTypeStorageBuffer
	case DescriptorDynamicUniformBuffer:
		return vk.DescriptorTypeUniformBufferDynamic
	case DescriptorDynamicStorageBuffer:
		return vk.DescriptorTypeStorageBufferDynamic
	case DescriptorInputAttachment:
		return vk.DescriptorTypeInputAttachment
	default:
		return vk.DescriptorTypeSampler
	}
}

// resourceCarrying reports whether a descriptor type needs a sync_resources
// back-reference array (samplers are excluded, per spec §4.3).
func (t DescriptorType) resourceCarrying() bool {
	return t != DescriptorSampler
}

// DescriptorBinding describes one binding slot in a DescriptorSetLayout
// (spec §3 DescriptorSetLayout).
type DescriptorBinding struct {
	Type             DescriptorType
	Count            uint32
	IsVariableLength bool
	Stages           vk.ShaderStageFlags
}

// DescriptorSetLayout wraps the backend layout object plus the per-type
// counts the heap needs to size pool allocations (spec §3).
type DescriptorSetLayout struct {
	handle             vk.DescriptorSetLayout
	bindings           []DescriptorBinding
	perTypeCount       [numDescriptorTypes]uint32
	numVariableLength  int
}

// CreateDescriptorSetLayout validates and builds a DescriptorSetLayout,
// per spec §4.2's DescriptorSetLayout validation rules.
func (d *Device) CreateDescriptorSetLayout(bindings []DescriptorBinding) (*DescriptorSetLayout, error) {
	invariant(len(bindings) <= MaxDescriptorSetBindings, "gpu: too many descriptor set bindings")

	numVariable := 0
	var perType [numDescriptorTypes]uint32
	var dynamicUBO, dynamicSSBO uint32

	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		if b.IsVariableLength {
			numVariable++
			invariant(i == len(bindings)-1, "gpu: variable-length binding must be the last binding")
		}
		if b.Type == DescriptorInputAttachment {
			invariant(b.Stages == vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
				"gpu: input-attachment bindings must be fragment-stage only")
		}
		perType[b.Type] += b.Count
		if b.Type == DescriptorDynamicUniformBuffer {
			dynamicUBO += b.Count
		}
		if b.Type == DescriptorDynamicStorageBuffer {
			dynamicSSBO += b.Count
		}

		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         uint32(i),
			DescriptorType:  b.Type.toVk(),
			DescriptorCount: b.Count,
			StageFlags:      b.Stages,
		}
	}
	invariant(numVariable <= 1, "gpu: at most one variable-length binding is allowed")
	invariant(dynamicUBO <= MaxPipelineDynamicUniformBuffers, "gpu: too many dynamic uniform buffer bindings")
	invariant(dynamicSSBO <= MaxPipelineDynamicStorageBuffers, "gpu: too many dynamic storage buffer bindings")
	if numVariable == 1 {
		invariant(dynamicUBO == 0 && dynamicSSBO == 0, "gpu: variable-length binding cannot mix with dynamic buffers")
	}

	var handle vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(d.handle, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return nil, err
	}

	return &DescriptorSetLayout{
		handle:            handle,
		bindings:          append([]DescriptorBinding{}, bindings...),
		perTypeCount:      perType,
		numVariableLength: numVariable,
	}, nil
}

func (d *Device) UninitDescriptorSetLayout(l *DescriptorSetLayout) {
	if l == nil {
		return
	}
	vk.DestroyDescriptorSetLayout(d.handle, l.handle, nil)
}

// descriptorBindingSlot is one binding's worth of sync_resources
// back-references, used by the barrier synthesizer to walk bound
// resources at draw/dispatch time (spec §3 DescriptorSet).
type descriptorBindingSlot struct {
	binding          DescriptorBinding
	maxCount         uint32
	isVariableLength bool
	resources        []any // *Buffer | *Image | nil, per element
}

// DescriptorSet is an allocation out of a DescriptorHeap pool (spec §3).
type DescriptorSet struct {
	handle    vk.DescriptorSet
	poolIndex int
	layout    *DescriptorSetLayout
	bindings  []descriptorBindingSlot
}

// descriptorPool is one backend pool plus its remaining per-type capacity,
// generalizing the teacher's managers.go grow-or-reuse FenceManager/
// CommandBufferManager pattern from a flat slice to a per-type residency
// vector, per spec §4.3/§3 DescriptorHeap.
type descriptorPool struct {
	handle    vk.DescriptorPool
	remaining [numDescriptorTypes]uint32
}

// DescriptorHeap is the pool-of-pools allocator of spec §3/§4.3.
type DescriptorHeap struct {
	device    *Device
	poolSize  uint32
	pools     []descriptorPool
}

// NewDescriptorHeap creates an empty heap that grows lazily; poolSize is
// the per-type descriptor count requested of each new backend pool (spec
// §4.3: "grow by one new pool sized pool_size × NUM_TYPES").
func NewDescriptorHeap(device *Device, poolSize uint32) *DescriptorHeap {
	if poolSize == 0 {
		poolSize = MaxDescriptorSetDescriptors
	}
	return &DescriptorHeap{device: device, poolSize: poolSize}
}

func (h *DescriptorHeap) growPool() (*descriptorPool, error) {
	sizes := make([]vk.DescriptorPoolSize, 0, numDescriptorTypes)
	for t := DescriptorType(0); t < numDescriptorTypes; t++ {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            t.toVk(),
			DescriptorCount: h.poolSize,
		})
	}

	var handle vk.DescriptorPool
	ret := vk.CreateDescriptorPool(h.device.handle, &vk.DescriptorPoolCreateInfo{
		SType: vk.StructureTypeDescriptorPoolCreateInfo,
		Flags: vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit) |
			vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateUpdateAfterBindBit),
		MaxSets:       h.poolSize,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return nil, err
	}

	var remaining [numDescriptorTypes]uint32
	for i := range remaining {
		remaining[i] = h.poolSize
	}
	h.pools = append(h.pools, descriptorPool{handle: handle, remaining: remaining})
	return &h.pools[len(h.pools)-1], nil
}

// Allocate implements spec §4.3 allocate: compute per-type demand, find
// (or grow) a pool with enough remaining capacity of every requested
// type, allocate the backend set, and size the zero-filled sync_resources
// back-reference arrays. Any backend fragmentation/OOM-pool error is
// treated as an invariant violation: the growth strategy guarantees it
// should not occur.
func (h *DescriptorHeap) Allocate(layout *DescriptorSetLayout, variableLength uint32) (*DescriptorSet, error) {
	var demand [numDescriptorTypes]uint32
	for _, b := range layout.bindings {
		count := b.Count
		if b.IsVariableLength {
			count = variableLength
		}
		demand[b.Type] += count
	}

	poolIndex := -1
	for idx := range h.pools {
		if poolHasCapacity(&h.pools[idx], demand) {
			poolIndex = idx
			break
		}
	}
	if poolIndex == -1 {
		if _, err := h.growPool(); err != nil {
			return nil, err
		}
		poolIndex = len(h.pools) - 1
		invariant(poolHasCapacity(&h.pools[poolIndex], demand),
			"gpu: freshly grown descriptor pool cannot satisfy its own pool_size demand")
	}

	pool := &h.pools[poolIndex]
	var handle vk.DescriptorSet
	layouts := []vk.DescriptorSetLayout{layout.handle}

	var counts []uint32
	var variableInfo *vk.DescriptorSetVariableDescriptorCountAllocateInfo
	if layout.numVariableLength > 0 {
		counts = []uint32{variableLength}
		variableInfo = &vk.DescriptorSetVariableDescriptorCountAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetVariableDescriptorCountAllocateInfo,
			DescriptorSetCount: 1,
			PDescriptorCounts:  counts,
		}
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool.handle,
		DescriptorSetCount: 1,
		PSetLayouts:        layouts,
	}
	if variableInfo != nil {
		allocInfo.PNext = unsafe.Pointer(variableInfo)
	}

	ret := vk.AllocateDescriptorSets(h.device.handle, &allocInfo, &handle)
	invariant(!isError(ret), "gpu: descriptor pool allocation failed despite passing capacity check (fragmentation/OOM-pool)")

	for t := DescriptorType(0); t < numDescriptorTypes; t++ {
		pool.remaining[t] -= demand[t]
	}

	bindingSlots := make([]descriptorBindingSlot, len(layout.bindings))
	for i, b := range layout.bindings {
		maxCount := b.Count
		if b.IsVariableLength {
			maxCount = variableLength
		}
		var resources []any
		if b.Type.resourceCarrying() {
			resources = make([]any, maxCount)
		}
		bindingSlots[i] = descriptorBindingSlot{
			binding:          b,
			maxCount:         maxCount,
			isVariableLength: b.IsVariableLength,
			resources:        resources,
		}
	}

	return &DescriptorSet{
		handle:    handle,
		poolIndex: poolIndex,
		layout:    layout,
		bindings:  bindingSlots,
	}, nil
}

func poolHasCapacity(pool *descriptorPool, demand [numDescriptorTypes]uint32) bool {
	for t := DescriptorType(0); t < numDescriptorTypes; t++ {
		if pool.remaining[t] < demand[t] {
			return false
		}
	}
	return true
}

// BufferUpdate/ImageUpdate describe one write into a DescriptorSet
// (spec §4.3 update).
type BufferUpdate struct {
	Binding uint32
	Element uint32
	Buffer  *Buffer
	Offset  uint64
	Size    uint64
}

type ImageUpdate struct {
	Binding uint32
	Element uint32
	Image   *Image
	View    *ImageView
	Sampler Sampler
	Layout  vk.ImageLayout
}

// UpdateBuffer implements spec §4.3 update for buffer-carrying bindings:
// validates the resource usage bits match the descriptor type and the
// offset/size fit the binding, translates to a backend write, and mirrors
// the resource pointer into sync_resources.
func (h *DescriptorHeap) UpdateBuffer(set *DescriptorSet, u BufferUpdate) error {
	slot := &set.bindings[u.Binding]
	invariant(u.Element < slot.maxCount, "gpu: descriptor update element out of range")
	invariant(bufferUsageMatchesDescriptorType(u.Buffer.usage, slot.binding.Type),
		"gpu: buffer usage does not match descriptor type")

	alignment := h.device.props.UniformBufferOffsetAlignment
	if slot.binding.Type == DescriptorStorageBuffer || slot.binding.Type == DescriptorDynamicStorageBuffer {
		alignment = h.device.props.StorageBufferOffsetAlignment
	}
	invariant(isValidBufferAccess(u.Buffer.size, u.Offset, u.Size, alignment),
		"gpu: descriptor buffer update out of bounds or misaligned")

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set.handle,
		DstBinding:      u.Binding,
		DstArrayElement: u.Element,
		DescriptorCount: 1,
		DescriptorType:  slot.binding.Type.toVk(),
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: u.Buffer.handle,
			Offset: vk.DeviceSize(u.Offset),
			Range:  vk.DeviceSize(u.Size),
		}},
	}
	vk.UpdateDescriptorSets(h.device.handle, 1, []vk.WriteDescriptorSet{write}, 0, nil)

	slot.resources[u.Element] = u.Buffer
	return nil
}

// UpdateImage is the image analogue of UpdateBuffer.
func (h *DescriptorHeap) UpdateImage(set *DescriptorSet, u ImageUpdate) error {
	slot := &set.bindings[u.Binding]
	invariant(u.Element < slot.maxCount, "gpu: descriptor update element out of range")

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set.handle,
		DstBinding:      u.Binding,
		DstArrayElement: u.Element,
		DescriptorCount: 1,
		DescriptorType:  slot.binding.Type.toVk(),
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     u.Sampler.handle,
			ImageView:   u.View.handle,
			ImageLayout: u.Layout,
		}},
	}
	vk.UpdateDescriptorSets(h.device.handle, 1, []vk.WriteDescriptorSet{write}, 0, nil)

	slot.resources[u.Element] = u.Image
	return nil
}

func bufferUsageMatchesDescriptorType(usage BufferUsage, t DescriptorType) bool {
	switch t {
	case DescriptorUniformBuffer, DescriptorDynamicUniformBuffer:
		return usage&BufferUsageUniform != 0
	case DescriptorStorageBuffer, DescriptorDynamicStorageBuffer:
		return usage&BufferUsageStorage != 0
	case DescriptorUniformTexelBuffer:
		return usage&BufferUsageUniformTexel != 0
	case DescriptorStorageTexelBuffer:
		return usage&BufferUsageStorageTexel != 0
	default:
		return true
	}
}
