package txcodec

import "testing"

func TestPackMask_RoundTrip(t *testing.T) {
	patterns := [][]int{
		{},
		{0},
		{24},
		{0, 24},
		{0, 1, 2, 3, 4},
		{3, 7, 11, 19, 23},
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24},
	}

	for _, selected := range patterns {
		flags := make([]bool, MaskBits)
		for _, i := range selected {
			flags[i] = true
		}

		mask, err := PackMask(flags)
		if err != nil {
			t.Fatalf("PackMask: %v", err)
		}

		got := UnpackMask(mask)
		for i := range flags {
			if got[i] != flags[i] {
				t.Errorf("pattern %v: bit %d = %v after round trip, want %v", selected, i, got[i], flags[i])
			}
		}
	}
}

func TestPackMask_BitPositions(t *testing.T) {
	flags := make([]bool, MaskBits)
	flags[0] = true
	flags[24] = true

	mask, err := PackMask(flags)
	if err != nil {
		t.Fatalf("PackMask: %v", err)
	}
	want := uint32(1) | uint32(1)<<24
	if mask != want {
		t.Errorf("mask = %#x, want %#x", mask, want)
	}
}

func TestPackMask_WrongLength(t *testing.T) {
	for _, n := range []int{0, 24, 26, 32} {
		if _, err := PackMask(make([]bool, n)); err == nil {
			t.Errorf("PackMask accepted %d flags, want error", n)
		}
	}
}

func TestUnpackMask_IgnoresHighBits(t *testing.T) {
	got := UnpackMask(0xffffffff)
	if len(got) != MaskBits {
		t.Fatalf("expected %d flags, got %d", MaskBits, len(got))
	}
	for i, set := range got {
		if !set {
			t.Errorf("bit %d should be set", i)
		}
	}
}
