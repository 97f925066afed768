package gpu

import (
	"os"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// BufferUsage is a bitset of how a buffer may be used (spec §3 Buffer).
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageUniformTexel
	BufferUsageStorageTexel
	BufferUsageIndirect
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

func (u BufferUsage) toVk() vk.BufferUsageFlags {
	var flags vk.BufferUsageFlags
	if u&BufferUsageVertex != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if u&BufferUsageIndex != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	}
	if u&BufferUsageUniform != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	if u&BufferUsageStorage != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	}
	if u&BufferUsageUniformTexel != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformTexelBufferBit)
	}
	if u&BufferUsageStorageTexel != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageStorageTexelBufferBit)
	}
	if u&BufferUsageIndirect != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageIndirectBufferBit)
	}
	if u&BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	if u&BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	return flags
}

// Buffer is the heap-owned record behind an opaque buffer handle (spec §3
// Buffer). Grounded on the teacher's buffers.go CoreBuffer/NewCoreUniformBuffer
// and extensions.go CreateBuffer, generalized to arbitrary usage sets and
// fixed to not misuse Flags/SharingMode for usage/memory-property bits the
// way the teacher's NewCoreUniformBuffer does.
type Buffer struct {
	device     *Device
	handle     vk.Buffer
	memory     vk.DeviceMemory
	size       uint64
	usage      BufferUsage
	hostMapped bool
	state      BufferState
}

func (b *Buffer) Size() uint64         { return b.size }
func (b *Buffer) Usage() BufferUsage   { return b.usage }
func (b *Buffer) HostMapped() bool     { return b.hostMapped }
func (b *Buffer) Handle() vk.Buffer    { return b.handle }

// CreateBuffer implements spec §4.2's buffer validation (size > 0, usage
// non-empty) and §3's Buffer record, grounded on buffers.go/extensions.go.
func (d *Device) CreateBuffer(size uint64, usage BufferUsage, hostVisible bool) (*Buffer, error) {
	invariant(size > 0, "gpu: CreateBuffer size must be > 0")
	invariant(usage != 0, "gpu: CreateBuffer usage must be non-empty")

	var handle vk.Buffer
	ret := vk.CreateBuffer(d.handle, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage.toVk(),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return nil, err
	}

	var memReq vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.handle, handle, &memReq)
	memReq.Deref()

	required := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	preferred := vk.MemoryPropertyFlags(0)
	if hostVisible {
		required = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
		preferred = vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	}

	typeIndex, ok := d.findMemoryType(memReq.MemoryTypeBits, required, preferred)
	if !ok {
		vk.DestroyBuffer(d.handle, handle, nil)
		return nil, &StatusError{Status: StatusOutOfDeviceMemory}
	}

	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(d.handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReq.Size,
		MemoryTypeIndex: typeIndex,
	}, nil, &memory)
	if err := checkResult(ret); err != nil {
		vk.DestroyBuffer(d.handle, handle, nil)
		return nil, err
	}

	if ret := vk.BindBufferMemory(d.handle, handle, memory, 0); isError(ret) {
		vk.FreeMemory(d.handle, memory, nil)
		vk.DestroyBuffer(d.handle, handle, nil)
		return nil, newStatusError(ret)
	}

	return &Buffer{
		device:     d,
		handle:     handle,
		memory:     memory,
		size:       size,
		usage:      usage,
		hostMapped: hostVisible,
	}, nil
}

func (d *Device) UninitBuffer(b *Buffer) {
	if b == nil {
		return
	}
	vk.DestroyBuffer(d.handle, b.handle, nil)
	vk.FreeMemory(d.handle, b.memory, nil)
}

// MapBufferMemory/UnmapBufferMemory implement spec §6.2's map/unmap
// surface; only legal when the buffer was created host_mapped (spec §3
// Buffer invariant).
func (d *Device) MapBufferMemory(b *Buffer) (unsafe.Pointer, error) {
	invariant(b.hostMapped, "gpu: MapBufferMemory on a non-host-mapped buffer")
	var data unsafe.Pointer
	ret := vk.MapMemory(d.handle, b.memory, 0, vk.DeviceSize(b.size), 0, &data)
	if err := checkResult(ret); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteBufferMemory maps, copies data in, and unmaps in one call,
// mirroring the teacher's extensions.go CreateBuffer data-upload path
// (vk.MapMemory + vk.Memcopy + vk.UnmapMemory).
func (d *Device) WriteBufferMemory(b *Buffer, data []byte) error {
	ptr, err := d.MapBufferMemory(b)
	if err != nil {
		return err
	}
	defer d.UnmapBufferMemory(b)
	n := vk.Memcopy(ptr, data)
	invariant(n == len(data), "gpu: short copy into mapped buffer memory")
	return nil
}

func (d *Device) UnmapBufferMemory(b *Buffer) {
	vk.UnmapMemory(d.handle, b.memory)
}

// InvalidateMappedBufferMemory/FlushMappedBufferMemory accept WholeSize
// without clamping, per spec §9 Open Questions ("assume backend handles
// the sentinel").
func (d *Device) FlushMappedBufferMemory(b *Buffer, offset, size uint64) error {
	ranges := []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: b.memory,
		Offset: vk.DeviceSize(offset),
		Size:   vk.DeviceSize(size),
	}}
	return checkResult(vk.FlushMappedMemoryRanges(d.handle, 1, ranges))
}

func (d *Device) InvalidateMappedBufferMemory(b *Buffer, offset, size uint64) error {
	ranges := []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: b.memory,
		Offset: vk.DeviceSize(offset),
		Size:   vk.DeviceSize(size),
	}}
	return checkResult(vk.InvalidateMappedMemoryRanges(d.handle, 1, ranges))
}

// Image is the heap-owned record behind an opaque image handle (spec §3
// Image). Depth+stencil images carry two independent per-aspect states.
type Image struct {
	device           *Device
	handle           vk.Image
	memory           vk.DeviceMemory
	imageType        ImageType
	format           vk.Format
	usage            vk.ImageUsageFlags
	aspects          ImageAspects
	extent           vk.Extent3D
	mipLevels        uint32
	arrayLayers      uint32
	samples          vk.SampleCountFlagBits
	isSwapchainImage bool
	colorState       ImageState
	depthState       ImageState
	stencilState     ImageState
}

func numMipLevels(extent vk.Extent3D) uint32 {
	maxDim := extent.Width
	if extent.Height > maxDim {
		maxDim = extent.Height
	}
	if extent.Depth > maxDim {
		maxDim = extent.Depth
	}
	levels := uint32(1)
	for maxDim > 1 {
		maxDim >>= 1
		levels++
	}
	return levels
}

// CreateImage implements spec §4.2's image validation and §3's Image
// record. Grounded on swapchain.go's CreateFrameBuffer depth-image
// creation (image create -> memory requirements -> find memory type ->
// allocate -> bind), generalized to arbitrary type/format/usage.
func (d *Device) CreateImage(imageType ImageType, format vk.Format, aspects ImageAspects, extent vk.Extent3D, mipLevels, arrayLayers uint32, samples vk.SampleCountFlagBits, usage vk.ImageUsageFlags) (*Image, error) {
	invariant(aspects != ImageAspectNone, "gpu: CreateImage aspects must be non-empty")
	invariant(mipLevels >= 1 && mipLevels <= numMipLevels(extent), "gpu: CreateImage mip_levels out of range")
	invariant(arrayLayers >= 1 && arrayLayers <= MaxImageArrayLayers, "gpu: CreateImage array_layers out of range")
	switch imageType {
	case ImageType1D:
		invariant(extent.Height == 1 && extent.Depth == 1, "gpu: 1D image must have y=z=1")
		invariant(extent.Width <= MaxImageExtent1D, "gpu: 1D image extent too large")
	case ImageType2D:
		invariant(extent.Depth == 1, "gpu: 2D image must have z=1")
		invariant(extent.Width <= MaxImageExtent2D && extent.Height <= MaxImageExtent2D, "gpu: 2D image extent too large")
	case ImageType3D:
		invariant(extent.Width <= MaxImageExtent3D && extent.Height <= MaxImageExtent3D && extent.Depth <= MaxImageExtent3D, "gpu: 3D image extent too large")
	}

	vkType := vk.ImageType2d
	switch imageType {
	case ImageType1D:
		vkType = vk.ImageType1d
	case ImageType3D:
		vkType = vk.ImageType3d
	}

	var handle vk.Image
	ret := vk.CreateImage(d.handle, &vk.ImageCreateInfo{
		SType:       vk.StructureTypeImageCreateInfo,
		ImageType:   vkType,
		Format:      format,
		Extent:      extent,
		MipLevels:   mipLevels,
		ArrayLayers: arrayLayers,
		Samples:     samples,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return nil, err
	}

	var memReq vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.handle, handle, &memReq)
	memReq.Deref()

	typeIndex, ok := d.findMemoryType(memReq.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 0)
	if !ok {
		vk.DestroyImage(d.handle, handle, nil)
		return nil, &StatusError{Status: StatusOutOfDeviceMemory}
	}

	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(d.handle, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReq.Size,
		MemoryTypeIndex: typeIndex,
	}, nil, &memory)
	if err := checkResult(ret); err != nil {
		vk.DestroyImage(d.handle, handle, nil)
		return nil, err
	}
	if ret := vk.BindImageMemory(d.handle, handle, memory, 0); isError(ret) {
		vk.FreeMemory(d.handle, memory, nil)
		vk.DestroyImage(d.handle, handle, nil)
		return nil, newStatusError(ret)
	}

	return &Image{
		device:      d,
		handle:      handle,
		memory:      memory,
		imageType:   imageType,
		format:      format,
		usage:       usage,
		aspects:     aspects,
		extent:      extent,
		mipLevels:   mipLevels,
		arrayLayers: arrayLayers,
		samples:     samples,
	}, nil
}

func (d *Device) UninitImage(img *Image) {
	if img == nil || img.isSwapchainImage {
		return
	}
	vk.DestroyImage(d.handle, img.handle, nil)
	vk.FreeMemory(d.handle, img.memory, nil)
}

// ImageView is the record behind spec §3 ImageView.
type ImageView struct {
	image         *Image
	handle        vk.ImageView
	viewType      ImageViewType
	format        vk.Format
	aspects       ImageAspects
	firstMip      uint32
	numMips       uint32
	firstLayer    uint32
	numLayers     uint32
}

func aspectsToVk(a ImageAspects) vk.ImageAspectFlags {
	var flags vk.ImageAspectFlags
	if a&ImageAspectColor != 0 {
		flags |= vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	if a&ImageAspectDepth != 0 {
		flags |= vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	if a&ImageAspectStencil != 0 {
		flags |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return flags
}

func viewTypeToVk(t ImageViewType) vk.ImageViewType {
	switch t {
	case ImageViewType1D:
		return vk.ImageViewType1d
	case ImageViewType1DArray:
		return vk.ImageViewType1dArray
	case ImageViewType2DArray:
		return vk.ImageViewType2dArray
	case ImageViewTypeCube:
		return vk.ImageViewTypeCube
	case ImageViewTypeCubeArray:
		return vk.ImageViewTypeCubeArray
	case ImageViewType3D:
		return vk.ImageViewType3d
	default:
		return vk.ImageViewType2d
	}
}

// CreateImageView implements spec §4.2's ImageView validation: view/image
// type compatibility and sub-resource-range containment, grounded on
// swapchain.go's CreateFrameImageView.
func (d *Device) CreateImageView(img *Image, viewType ImageViewType, format vk.Format, aspects ImageAspects, firstMip, numMips, firstLayer, numLayers uint32) (*ImageView, error) {
	invariant(isImageViewTypeCompatible(img.imageType, viewType), "gpu: incompatible image/view type")
	invariant(isValidImageAccess(img.aspects, img.mipLevels, img.arrayLayers, aspects, firstMip, numMips, firstLayer, numLayers),
		"gpu: image view sub-resource range out of bounds")

	var handle vk.ImageView
	ret := vk.CreateImageView(d.handle, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.handle,
		ViewType: viewTypeToVk(viewType),
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectsToVk(aspects),
			BaseMipLevel:   firstMip,
			LevelCount:     numMips,
			BaseArrayLayer: firstLayer,
			LayerCount:     numLayers,
		},
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return nil, err
	}

	return &ImageView{
		image: img, handle: handle, viewType: viewType, format: format, aspects: aspects,
		firstMip: firstMip, numMips: numMips, firstLayer: firstLayer, numLayers: numLayers,
	}, nil
}

func (d *Device) UninitImageView(v *ImageView) {
	if v == nil {
		return
	}
	vk.DestroyImageView(d.handle, v.handle, nil)
}

// Sampler is a value type (spec §3): no engine-side mutable state, so it is
// safe to copy and compare by the fields that matter.
type Sampler struct {
	handle vk.Sampler
}

// CreateSampler implements spec §4.2's sampler validation (anisotropy
// bounds).
func (d *Device) CreateSampler(filter vk.Filter, mipmapMode vk.SamplerMipmapMode, addressMode vk.SamplerAddressMode, anisotropyEnable bool, maxAnisotropy float32) (Sampler, error) {
	if anisotropyEnable {
		invariant(maxAnisotropy >= 1 && maxAnisotropy <= MaxSamplerAnisotropy, "gpu: sampler anisotropy out of range")
	}

	anisotropy := vk.Bool32(vk.False)
	if anisotropyEnable {
		anisotropy = vk.Bool32(vk.True)
	}

	var handle vk.Sampler
	ret := vk.CreateSampler(d.handle, &vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        filter,
		MinFilter:        filter,
		MipmapMode:       mipmapMode,
		AddressModeU:     addressMode,
		AddressModeV:     addressMode,
		AddressModeW:     addressMode,
		AnisotropyEnable: anisotropy,
		MaxAnisotropy:    maxAnisotropy,
		BorderColor:      vk.BorderColorIntOpaqueBlack,
		CompareOp:        vk.CompareOpAlways,
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return Sampler{}, err
	}
	return Sampler{handle: handle}, nil
}

func (d *Device) UninitSampler(s Sampler) {
	vk.DestroySampler(d.handle, s.handle, nil)
}

// Shader wraps an immutable SPIR-V module (spec §3 Shader). Grounded on the
// teacher's shader.go LoadShaderModule.
type Shader struct {
	handle vk.ShaderModule
}

// CreateShader loads SPIR-V bytecode from disk, mirroring the teacher's
// shader.go LoadShaderModule (ioutil.ReadFile + vk.CreateShaderModule).
func (d *Device) CreateShader(path string) (Shader, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return Shader{}, err
	}
	invariant(len(code)%4 == 0, "gpu: SPIR-V bytecode length must be a multiple of 4")

	var handle vk.ShaderModule
	ret := vk.CreateShaderModule(d.handle, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &handle)
	if err := checkResult(ret); err != nil {
		return Shader{}, err
	}
	return Shader{handle: handle}, nil
}

func (d *Device) UninitShader(s Shader) {
	vk.DestroyShaderModule(d.handle, s.handle, nil)
}

func sliceUint32(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
	}
	return out
}
