package gpu

import vk "github.com/vulkan-go/vulkan"

// SwapchainInfo is the caller-supplied desired configuration (spec §4.6:
// "invalidate(info) updates the desired info").
type SwapchainInfo struct {
	PreferredBuffering uint32
	PreferredExtent    vk.Extent2D
	Format             vk.SurfaceFormat
	Usage              vk.ImageUsageFlags
	CompositeAlpha     vk.CompositeAlphaFlagBits
	PresentMode        vk.PresentMode
}

// Swapchain owns the backend swapchain plus the engine-side Image records
// for its images (spec §3/§4.6). Grounded on the teacher's swapchain.go
// NewCoreSwapchain, consolidating its duplicated logic from context.go's
// prepareSwapchain into one recreate path.
type Swapchain struct {
	device  *Device
	surface vk.Surface
	handle  vk.Swapchain

	info        SwapchainInfo
	images      []*Image
	imageViews  []*ImageView

	isZeroSized bool
	isOptimal   bool
	isOutOfDate bool
	currentImage uint32
}

// NewSwapchain constructs an empty, not-yet-built Swapchain; call Recreate
// to build the first backend swapchain.
func NewSwapchain(device *Device, surface vk.Surface, info SwapchainInfo) *Swapchain {
	return &Swapchain{device: device, surface: surface, info: info}
}

func (s *Swapchain) Images() []*Image           { return s.images }
func (s *Swapchain) ImageViews() []*ImageView   { return s.imageViews }
func (s *Swapchain) IsZeroSized() bool          { return s.isZeroSized }
func (s *Swapchain) IsOptimal() bool            { return s.isOptimal }
func (s *Swapchain) IsOutOfDate() bool          { return s.isOutOfDate }
func (s *Swapchain) CurrentImage() uint32       { return s.currentImage }
func (s *Swapchain) Handle() vk.Swapchain       { return s.handle }

// Invalidate implements spec §4.6 invalidate(info): updates the desired
// info and marks the swapchain non-optimal without touching backend
// resources; begin_frame observes the flag on its next call and rebuilds.
func (s *Swapchain) Invalidate(info SwapchainInfo) {
	s.info = info
	s.isOptimal = false
}

// Recreate implements spec §4.6 recreate(swapchain), grounded on
// swapchain.go's NewCoreSwapchain: surface capability query, format/
// extent resolution, swapchain creation with oldSwapchain, old-swapchain
// destruction, then per-image engine Image/ImageView construction.
func (s *Swapchain) Recreate() error {
	physicalDevice := s.device.physicalDevice

	var capabilities vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, s.surface, &capabilities)
	if err := checkResult(ret); err != nil {
		return err
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	if capabilities.CurrentExtent.Width == 0 || capabilities.CurrentExtent.Height == 0 {
		s.isZeroSized = true
		return nil
	}
	s.isZeroSized = false

	invariant(capabilities.SupportedUsageFlags&s.info.Usage == s.info.Usage, "gpu: swapchain usage not a subset of supported usage flags")
	invariant(capabilities.SupportedCompositeAlpha&vk.CompositeAlphaFlags(s.info.CompositeAlpha) != 0, "gpu: swapchain composite alpha not supported")

	minImageCount := s.info.PreferredBuffering
	if minImageCount < capabilities.MinImageCount {
		minImageCount = capabilities.MinImageCount
	}
	if capabilities.MaxImageCount > 0 && minImageCount > capabilities.MaxImageCount {
		minImageCount = capabilities.MaxImageCount
	}

	extent := capabilities.CurrentExtent
	if extent.Width == vk.MaxUint32 {
		extent = s.info.PreferredExtent
		if extent.Width < capabilities.MinImageExtent.Width {
			extent.Width = capabilities.MinImageExtent.Width
		}
		if extent.Width > capabilities.MaxImageExtent.Width {
			extent.Width = capabilities.MaxImageExtent.Width
		}
		if extent.Height < capabilities.MinImageExtent.Height {
			extent.Height = capabilities.MinImageExtent.Height
		}
		if extent.Height > capabilities.MaxImageExtent.Height {
			extent.Height = capabilities.MaxImageExtent.Height
		}
	}

	oldSwapchain := s.handle
	var newHandle vk.Swapchain
	ret = vk.CreateSwapchain(s.device.handle, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          s.surface,
		MinImageCount:    minImageCount,
		ImageFormat:      s.info.Format.Format,
		ImageColorSpace:  s.info.Format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       s.info.Usage,
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   s.info.CompositeAlpha,
		PresentMode:      s.info.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}, nil, &newHandle)
	if err := checkResult(ret); err != nil {
		return err
	}

	if oldSwapchain != vk.NullSwapchain {
		s.destroyImageViews()
		vk.DestroySwapchain(s.device.handle, oldSwapchain, nil)
	}
	s.handle = newHandle

	var count uint32
	vk.GetSwapchainImages(s.device.handle, s.handle, &count, nil)
	rawImages := make([]vk.Image, count)
	vk.GetSwapchainImages(s.device.handle, s.handle, &count, rawImages)

	s.images = make([]*Image, count)
	s.imageViews = make([]*ImageView, count)
	for i, raw := range rawImages {
		img := &Image{
			device:           s.device,
			handle:           raw,
			imageType:        ImageType2D,
			format:           s.info.Format.Format,
			usage:            s.info.Usage,
			aspects:          ImageAspectColor,
			extent:           vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
			mipLevels:        1,
			arrayLayers:      1,
			samples:          vk.SampleCount1Bit,
			isSwapchainImage: true,
		}
		view, err := s.device.CreateImageView(img, ImageViewType2D, img.format, ImageAspectColor, 0, 1, 0, 1)
		if err != nil {
			return err
		}
		s.images[i] = img
		s.imageViews[i] = view
	}

	s.isOptimal = true
	s.isOutOfDate = false
	s.currentImage = 0
	return nil
}

func (s *Swapchain) destroyImageViews() {
	for _, v := range s.imageViews {
		s.device.UninitImageView(v)
	}
	s.imageViews = nil
	s.images = nil
}

func (s *Swapchain) Destroy() {
	s.destroyImageViews()
	if s.handle != vk.NullSwapchain {
		vk.DestroySwapchain(s.device.handle, s.handle, nil)
	}
}

// AcquireNextImage wraps vkAcquireNextImageKHR; SUBOPTIMAL marks the
// swapchain non-optimal but does not treat it as an error (spec §4.5).
func (s *Swapchain) AcquireNextImage(semaphore vk.Semaphore) error {
	var index uint32
	ret := vk.AcquireNextImage(s.device.handle, s.handle, vk.MaxUint64, semaphore, vk.NullFence, &index)
	switch ret {
	case vk.Success:
		s.currentImage = index
		return nil
	case vk.SuboptimalKhr:
		s.currentImage = index
		s.isOptimal = false
		return nil
	case vk.ErrorOutOfDateKhr:
		s.isOutOfDate = true
		return newStatusError(ret)
	default:
		return checkResult(ret)
	}
}
