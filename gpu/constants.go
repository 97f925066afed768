package gpu

// Bit-exact limits the resource model and encoder validate against. Mirrors
// the fixed-size arrays and device maxima the backend is built around.
const (
	MaxFrameBuffering = 4
	MaxSwapchainImages = 8

	MaxPipelineDescriptorSets = 8
	MaxDescriptorSetBindings  = 32
	MaxDescriptorSetDescriptors = 512
	MaxBindingDescriptors     = 1024

	MaxPushConstantsSize = 256
	MaxVertexAttributes  = 16

	MaxPipelineColorAttachments        = 8
	MaxPipelineDynamicUniformBuffers   = 8
	MaxPipelineDynamicStorageBuffers   = 8

	MaxImageExtent1D   = 16384
	MaxImageExtent2D   = 16384
	MaxImageExtent3D   = 2048
	MaxImageExtentCube = 16384
	MaxImageArrayLayers = 2048

	MaxViewportExtent    = 16384
	MaxFramebufferExtent = 16384
	MaxFramebufferLayers = 2048

	MaxSamplerAnisotropy = 16

	MaxUpdateBufferSize = 65536

	// MaxUniformBufferRange is above the Vulkan spec's minimum guaranteed
	// maxUniformBufferRange (16384); devices report their actual limit in
	// Properties.MaxUniformBufferRange and callers should prefer that value.
	MaxUniformBufferRange = 65536
)

// WholeSize is the sentinel meaning "the rest of the resource, from offset".
const WholeSize uint64 = ^uint64(0)

// RemainingMipLevels/RemainingArrayLayers are the analogous sentinels for
// image sub-resource ranges.
const (
	RemainingMipLevels   uint32 = ^uint32(0)
	RemainingArrayLayers uint32 = ^uint32(0)
)
