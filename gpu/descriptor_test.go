package gpu

import "testing"

func TestPoolHasCapacityAllTypesMustFit(t *testing.T) {
	pool := descriptorPool{}
	pool.remaining[DescriptorUniformBuffer] = 4
	pool.remaining[DescriptorStorageBuffer] = 0

	var demand [numDescriptorTypes]uint32
	demand[DescriptorUniformBuffer] = 2

	if !poolHasCapacity(&pool, demand) {
		t.Error("pool should have capacity when the only demanded type fits")
	}

	demand[DescriptorStorageBuffer] = 1
	if poolHasCapacity(&pool, demand) {
		t.Error("pool should not have capacity when any single demanded type is short")
	}
}

func TestBufferUsageMatchesDescriptorType(t *testing.T) {
	cases := []struct {
		usage BufferUsage
		dtype DescriptorType
		want  bool
	}{
		{BufferUsageUniform, DescriptorUniformBuffer, true},
		{BufferUsageStorage, DescriptorUniformBuffer, false},
		{BufferUsageStorage, DescriptorStorageBuffer, true},
		{BufferUsageStorage, DescriptorDynamicStorageBuffer, true},
		{BufferUsageUniformTexel, DescriptorUniformTexelBuffer, true},
		{BufferUsageStorageTexel, DescriptorStorageTexelBuffer, true},
		{0, DescriptorSampler, true}, // non-buffer descriptor types are unconstrained
	}
	for _, c := range cases {
		if got := bufferUsageMatchesDescriptorType(c.usage, c.dtype); got != c.want {
			t.Errorf("bufferUsageMatchesDescriptorType(%v, %v) = %v, want %v", c.usage, c.dtype, got, c.want)
		}
	}
}

func TestDescriptorTypeResourceCarrying(t *testing.T) {
	if DescriptorSampler.resourceCarrying() {
		t.Error("DescriptorSampler must not carry sync_resources back-references")
	}
	if !DescriptorCombinedImageSampler.resourceCarrying() {
		t.Error("DescriptorCombinedImageSampler must carry sync_resources back-references")
	}
}
