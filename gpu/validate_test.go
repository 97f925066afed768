package gpu

import "testing"

func TestIsImageViewTypeCompatible(t *testing.T) {
	cases := []struct {
		imageType ImageType
		viewType  ImageViewType
		want      bool
	}{
		{ImageType1D, ImageViewType1D, true},
		{ImageType2D, ImageViewType1D, false},
		{ImageType2D, ImageViewType2D, true},
		{ImageType3D, ImageViewType2D, true}, // 2D view over a 3D image is allowed (slice view)
		{ImageType2D, ImageViewTypeCube, true},
		{ImageType3D, ImageViewTypeCube, false},
		{ImageType3D, ImageViewType3D, true},
		{ImageType2D, ImageViewType3D, false},
	}
	for _, c := range cases {
		if got := isImageViewTypeCompatible(c.imageType, c.viewType); got != c.want {
			t.Errorf("isImageViewTypeCompatible(%v, %v) = %v, want %v", c.imageType, c.viewType, got, c.want)
		}
	}
}

func TestIndexTypeSize(t *testing.T) {
	if indexTypeSize(IndexTypeUint16) != 2 {
		t.Error("IndexTypeUint16 must be 2 bytes")
	}
	if indexTypeSize(IndexTypeUint32) != 4 {
		t.Error("IndexTypeUint32 must be 4 bytes")
	}
}

func TestIndexTypeSizePanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("indexTypeSize must panic on an unrecognized index type")
		}
	}()
	indexTypeSize(IndexType(99))
}

func TestIsValidBufferAccess(t *testing.T) {
	cases := []struct {
		name                                       string
		size, offset, accessSize, offsetAlignment uint64
		want                                       bool
	}{
		{"exact fit", 100, 0, 100, 1, true},
		{"whole size expands from offset", 100, 10, WholeSize, 1, true},
		{"offset at size is out of bounds", 100, 100, 1, 1, false},
		{"overruns end", 100, 50, 51, 1, false},
		{"misaligned offset", 100, 3, 10, 4, false},
		{"aligned offset", 100, 4, 10, 4, true},
		{"zero access size is invalid", 100, 0, 0, 1, false},
		{"zero alignment treated as 1", 100, 1, 10, 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isValidBufferAccess(c.size, c.offset, c.accessSize, c.offsetAlignment); got != c.want {
				t.Errorf("isValidBufferAccess(%d,%d,%d,%d) = %v, want %v",
					c.size, c.offset, c.accessSize, c.offsetAlignment, got, c.want)
			}
		})
	}
}

func TestIsValidImageAccessRemainingSentinelsExpandFromAccessPoint(t *testing.T) {
	// 10 mip levels, 6 array layers; accessing from level 2 / layer 1 to
	// the end via REMAINING_* sentinels must expand relative to the
	// access point, not the image's base (spec §9's corrected formula).
	ok := isValidImageAccess(
		ImageAspectColor, 10, 6,
		ImageAspectColor, 2, RemainingMipLevels, 1, RemainingArrayLayers,
	)
	if !ok {
		t.Fatal("REMAINING_* sentinel access starting mid-resource should be valid")
	}
}

func TestIsValidImageAccessRejectsOutOfRangeAspect(t *testing.T) {
	ok := isValidImageAccess(
		ImageAspectColor, 1, 1,
		ImageAspectDepth, 0, 1, 0, 1,
	)
	if ok {
		t.Error("accessing an aspect the image does not have must be rejected")
	}
}

func TestIsValidImageAccessRejectsOverrun(t *testing.T) {
	ok := isValidImageAccess(
		ImageAspectColor, 4, 1,
		ImageAspectColor, 2, 3, 0, 1, // levels 2..5 overrun a 4-level image
	)
	if ok {
		t.Error("a mip range overrunning the image's level count must be rejected")
	}
}

func TestIsValidImageAccessRejectsNoneAspect(t *testing.T) {
	ok := isValidImageAccess(
		ImageAspectColor, 1, 1,
		ImageAspectNone, 0, 1, 0, 1,
	)
	if ok {
		t.Error("ImageAspectNone must never be a valid access aspect")
	}
}
