package passes

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestNearestGaussianRadiusRoundsUp(t *testing.T) {
	cases := map[uint32]uint32{
		0:  2,
		1:  2,
		2:  2,
		3:  4,
		4:  4,
		7:  8,
		8:  8,
		9:  16,
		16: 16,
		100: 16,
	}
	for in, want := range cases {
		if got := nearestGaussianRadius(in); got != want {
			t.Errorf("nearestGaussianRadius(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestGaussianWeightsSumToApproximatelyOne(t *testing.T) {
	for radius, weights := range gaussianWeights {
		var sum float64
		for _, w := range weights {
			sum += float64(w)
		}
		if math.Abs(sum-1) > 1e-3 {
			t.Errorf("radius %d weights sum to %v, want ~1", radius, sum)
		}
	}
}

func TestBlurPushConstantBytesRoundTrip(t *testing.T) {
	pc := blurPushConstant{DirX: 1.5, DirY: -2.5, Count: 9}
	buf := pc.bytes()
	if len(buf) != 12 {
		t.Fatalf("got %d bytes, want 12", len(buf))
	}
	x := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
	count := binary.LittleEndian.Uint32(buf[8:12])
	if x != pc.DirX || y != pc.DirY || count != pc.Count {
		t.Errorf("decoded (%v, %v, %v), want (%v, %v, %v)", x, y, count, pc.DirX, pc.DirY, pc.Count)
	}
}
