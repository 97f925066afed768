package gpu

import "testing"

func TestTailFrameForNeverUnderflowsBeforeRingFills(t *testing.T) {
	cases := []struct {
		currentFrame, buffering, want uint64
	}{
		{1, 3, 0},
		{2, 3, 0},
		{3, 3, 0},
		{4, 3, 1},
		{10, 3, 7},
		{5, 1, 4},
	}
	for _, c := range cases {
		if got := tailFrameFor(c.currentFrame, c.buffering); got != c.want {
			t.Errorf("tailFrameFor(%d, %d) = %d, want %d", c.currentFrame, c.buffering, got, c.want)
		}
	}
}
