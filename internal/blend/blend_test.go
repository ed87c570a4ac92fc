package blend

import "testing"

func TestSourceOverOpaque(t *testing.T) {
	r, g, b, a := SourceOver(200, 100, 50, 255, 10, 20, 30, 255)
	if r != 200 || g != 100 || b != 50 || a != 255 {
		t.Errorf("opaque src = (%d,%d,%d,%d), want (200,100,50,255)", r, g, b, a)
	}
}

func TestSourceOverTransparentSource(t *testing.T) {
	r, g, b, a := SourceOver(200, 100, 50, 0, 10, 20, 30, 255)
	if r != 10 || g != 20 || b != 30 || a != 255 {
		t.Errorf("transparent src = (%d,%d,%d,%d), want destination", r, g, b, a)
	}
}

func TestSourceOverTransparentDestination(t *testing.T) {
	r, g, b, a := SourceOver(200, 100, 50, 128, 10, 20, 30, 0)
	if r != 200 || g != 100 || b != 50 || a != 128 {
		t.Errorf("transparent dst = (%d,%d,%d,%d), want source", r, g, b, a)
	}
}

func TestSourceOverHalf(t *testing.T) {
	// 50% white over opaque black: result near mid-gray, alpha stays 255.
	r, g, b, a := SourceOver(255, 255, 255, 128, 0, 0, 0, 255)
	if a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
	if r < 125 || r > 131 || r != g || g != b {
		t.Errorf("color = (%d,%d,%d), want mid-gray", r, g, b)
	}
}

func TestDestinationOut(t *testing.T) {
	r, g, b, a := DestinationOut(255, 10, 20, 30, 255)
	if a != 0 {
		t.Errorf("full cutout: alpha = %d, want 0", a)
	}
	if r != 10 || g != 20 || b != 30 {
		t.Errorf("cutout changed color channels: (%d,%d,%d)", r, g, b)
	}

	_, _, _, a = DestinationOut(0, 10, 20, 30, 200)
	if a != 200 {
		t.Errorf("no-op cutout: alpha = %d, want 200", a)
	}

	_, _, _, a = DestinationOut(128, 10, 20, 30, 255)
	if a < 125 || a > 129 {
		t.Errorf("half cutout: alpha = %d, want ~127", a)
	}
}

func TestOverlayChanBranches(t *testing.T) {
	// Dark grain multiplies, bright grain screens.
	if got := overlayChan(0, 128); got != 0 {
		t.Errorf("overlayChan(0, 128) = %d, want 0", got)
	}
	if got := overlayChan(255, 128); got != 255 {
		t.Errorf("overlayChan(255, 128) = %d, want 255", got)
	}
	// Mid grain is close to a no-op.
	if got := overlayChan(128, 90); got < 85 || got > 95 {
		t.Errorf("overlayChan(128, 90) = %d, want near 90", got)
	}
}

func TestOverlayGrainOnBlack(t *testing.T) {
	// Bright grain must still lighten a pure black backdrop.
	r, _, _, _ := Overlay(220, 220, 220, 255, 0, 0, 0, 255)
	if r == 0 {
		t.Error("bright grain invisible on black backdrop")
	}
}

func TestOverlayGrainOnWhite(t *testing.T) {
	// Dark grain must still darken a pure white backdrop.
	r, _, _, _ := Overlay(40, 40, 40, 255, 255, 255, 255, 255)
	if r == 255 {
		t.Error("dark grain invisible on white backdrop")
	}
}

func TestOverlayTransparentEdges(t *testing.T) {
	r, g, b, a := Overlay(200, 200, 200, 0, 10, 20, 30, 255)
	if r != 10 || g != 20 || b != 30 || a != 255 {
		t.Errorf("transparent grain = (%d,%d,%d,%d), want destination", r, g, b, a)
	}
	r, g, b, a = Overlay(200, 200, 200, 128, 10, 20, 30, 0)
	if r != 200 || g != 200 || b != 200 || a != 128 {
		t.Errorf("transparent backdrop = (%d,%d,%d,%d), want source", r, g, b, a)
	}
}

func TestMulDiv255(t *testing.T) {
	cases := []struct {
		a, b byte
		want int
	}{
		{255, 255, 255},
		{0, 255, 0},
		{255, 0, 0},
		{128, 128, 64},
		{128, 255, 128},
	}
	for _, tc := range cases {
		got := int(MulDiv255(tc.a, tc.b))
		if got < tc.want-1 || got > tc.want+1 {
			t.Errorf("MulDiv255(%d, %d) = %d, want %d (+-1)", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDiv255ExactMatchesDivision(t *testing.T) {
	for x := 0; x <= 255*255; x++ {
		if got, want := div255Exact(uint16(x)), uint16(x/255); got != want {
			t.Fatalf("div255Exact(%d) = %d, want %d", x, got, want)
		}
	}
}
