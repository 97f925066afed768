package gpu

// Validation helpers ported from original_source/ashura/gpu/vulkan.cc
// lines 715-778 (is_image_view_type_compatible, index_type_size,
// is_valid_buffer_access, is_valid_image_access).

type ImageType int

const (
	ImageType1D ImageType = iota
	ImageType2D
	ImageType3D
)

type ImageViewType int

const (
	ImageViewType1D ImageViewType = iota
	ImageViewType1DArray
	ImageViewType2D
	ImageViewType2DArray
	ImageViewTypeCube
	ImageViewTypeCubeArray
	ImageViewType3D
)

// isImageViewTypeCompatible reports whether a view of viewType can be
// created over an image of imageType (vulkan.cc:is_image_view_type_compatible).
func isImageViewTypeCompatible(imageType ImageType, viewType ImageViewType) bool {
	switch viewType {
	case ImageViewType1D, ImageViewType1DArray:
		return imageType == ImageType1D
	case ImageViewType2D, ImageViewType2DArray:
		return imageType == ImageType2D || imageType == ImageType3D
	case ImageViewTypeCube, ImageViewTypeCubeArray:
		return imageType == ImageType2D
	case ImageViewType3D:
		return imageType == ImageType3D
	default:
		return false
	}
}

type IndexType int

const (
	IndexTypeUint16 IndexType = iota
	IndexTypeUint32
)

// indexTypeSize mirrors vulkan.cc:index_type_size; panics on an
// unrecognized type, matching the original's UNREACHABLE().
func indexTypeSize(t IndexType) uint64 {
	switch t {
	case IndexTypeUint16:
		return 2
	case IndexTypeUint32:
		return 4
	default:
		panic("gpu: unreachable index type")
	}
}

// isValidBufferAccess ports vulkan.cc:is_valid_buffer_access, expanding the
// WholeSize sentinel and checking offset alignment and in-bounds-ness.
func isValidBufferAccess(size, accessOffset, accessSize, offsetAlignment uint64) bool {
	if offsetAlignment == 0 {
		offsetAlignment = 1
	}
	if accessSize == WholeSize {
		accessSize = size - accessOffset
	}
	return accessSize > 0 &&
		accessOffset < size &&
		(accessOffset+accessSize) <= size &&
		accessOffset%offsetAlignment == 0
}

// ImageAspects is a bitset of color/depth/stencil/metadata aspects.
type ImageAspects uint32

const (
	ImageAspectNone    ImageAspects = 0
	ImageAspectColor   ImageAspects = 1 << 0
	ImageAspectDepth   ImageAspects = 1 << 1
	ImageAspectStencil ImageAspects = 1 << 2
)

// isValidImageAccess ports vulkan.cc:is_valid_image_access (lines 760-778).
//
// The original source mishandles the REMAINING_ARRAY_LAYERS sentinel
// expansion, reassigning numAccessLayers from itself instead of from
// numLayers (unlike the correct numAccessLevels computation directly
// above it). Per spec §9's Open Questions, this is resolved using the
// stated correct formula below, not the source's bug.
func isValidImageAccess(
	aspects ImageAspects, numLevels, numLayers uint32,
	accessAspects ImageAspects, accessLevel, numAccessLevels, accessLayer, numAccessLayers uint32,
) bool {
	if numAccessLevels == RemainingMipLevels {
		numAccessLevels = numLevels - accessLevel
	}
	if numAccessLayers == RemainingArrayLayers {
		numAccessLayers = numLayers - accessLayer
	}
	return numAccessLevels > 0 && numAccessLayers > 0 &&
		accessLevel < numLevels && accessLayer < numLayers &&
		(accessLevel+numAccessLevels) <= numLevels &&
		(accessLayer+numAccessLayers) <= numLayers &&
		(aspects&accessAspects) == accessAspects &&
		accessAspects != ImageAspectNone
}
