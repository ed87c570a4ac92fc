package stage

import (
	"math"
	"testing"
)

func TestCompositorNeutralPassThrough(t *testing.T) {
	pm := NewPixmap(10, 10)
	pm.Clear(Red)
	noise := NoiseTexture(10, 10, 1)

	// Neutral parameters return the identical pixmap reference.
	if BlurPixmap(pm, 0) != pm {
		t.Error("BlurPixmap(0) did not pass through")
	}
	if BlurPixmap(pm, -3) != pm {
		t.Error("BlurPixmap(negative) did not pass through")
	}
	if ScaleAlpha(pm, 1) != pm {
		t.Error("ScaleAlpha(1) did not pass through")
	}
	if ScaleAlpha(pm, 2) != pm {
		t.Error("ScaleAlpha(>1) did not pass through")
	}
	if OverlayNoise(pm, noise, 0) != pm {
		t.Error("OverlayNoise(0) did not pass through")
	}
}

func TestCompositorReturnsNewPixmap(t *testing.T) {
	pm := NewPixmap(10, 10)
	pm.Clear(Red)

	if BlurPixmap(pm, 2) == pm {
		t.Error("BlurPixmap mutated its input")
	}
	if ScaleAlpha(pm, 0.5) == pm {
		t.Error("ScaleAlpha mutated its input")
	}
	if OverlayNoise(pm, NoiseTexture(10, 10, 1), 50) == pm {
		t.Error("OverlayNoise mutated its input")
	}
	// Input untouched.
	if p := pm.GetPixel(5, 5); p.R < 0.99 || p.A < 0.99 {
		t.Errorf("input pixmap changed: %+v", p)
	}
}

func TestBlurPixmapSoftensEdge(t *testing.T) {
	pm := NewPixmap(20, 20)
	c := NewCanvas(pm)
	c.FillRect(0, 0, 10, 20, White)

	out := BlurPixmap(pm, 3)
	// A pixel just past the hard edge picks up bleed.
	if a := out.GetPixel(12, 10).A; a <= 0 {
		t.Errorf("no bleed past edge, alpha = %v", a)
	}
	// Far from the edge stays solid-ish.
	if a := out.GetPixel(2, 10).A; a < 0.9 {
		t.Errorf("deep interior washed out, alpha = %v", a)
	}
}

func TestScaleAlphaHalves(t *testing.T) {
	pm := NewPixmap(4, 4)
	pm.Clear(White)
	out := ScaleAlpha(pm, 0.5)
	if a := out.GetPixel(1, 1).A; math.Abs(a-0.5) > 0.01 {
		t.Errorf("alpha = %v, want 0.5", a)
	}
}

func TestOverlayNoiseAddsVariance(t *testing.T) {
	pm := NewPixmap(64, 64)
	pm.Clear(RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1})
	out := OverlayNoise(pm, NoiseTexture(64, 64, 1), 100)
	if noiseStdDev(out) <= 0 {
		t.Error("noise overlay left the bitmap uniform")
	}
}

func TestNoiseNeverBlurred(t *testing.T) {
	// The order invariant: blur the base first, overlay grain second, and
	// the grain keeps the same spread as grain over an unblurred base.
	grain := NoiseTexture(64, 64, 1)

	base := NewPixmap(64, 64)
	base.Clear(RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1})
	sharp := OverlayNoise(base, grain, 100)

	blurred := BlurPixmap(base, 8)
	blurredThenNoise := OverlayNoise(blurred, grain, 100)

	sharpDev := noiseStdDev(sharp)
	gotDev := noiseStdDev(blurredThenNoise)
	if math.Abs(sharpDev-gotDev) > sharpDev*0.1 {
		t.Errorf("grain spread changed by background blur: %v vs %v", sharpDev, gotDev)
	}
}

func TestOverlayNoiseTiles(t *testing.T) {
	pm := NewPixmap(32, 32)
	pm.Clear(RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1})
	// Tile smaller than the target must wrap, not stop.
	out := OverlayNoise(pm, NoiseTexture(8, 8, 1), 100)
	var diff bool
	ref := out.GetPixel(20, 20)
	for x := 21; x < 32 && !diff; x++ {
		if out.GetPixel(x, 20) != ref {
			diff = true
		}
	}
	if !diff {
		t.Error("region past the tile size is uniform; tiling failed")
	}
}

func TestPaste(t *testing.T) {
	dst := NewPixmap(20, 20)
	dst.Clear(White)
	src := NewPixmap(5, 5)
	src.Clear(Red)

	Paste(dst, src, 10, 10)
	if p := dst.GetPixel(12, 12); p.R < 0.9 || p.G > 0.1 {
		t.Errorf("pasted pixel = %+v, want red", p)
	}
	if p := dst.GetPixel(5, 5); p.G < 0.9 {
		t.Errorf("pixel outside paste changed: %+v", p)
	}

	// Out-of-bounds pastes clip instead of panicking.
	Paste(dst, src, -3, 18)
	if p := dst.GetPixel(1, 19); p.R < 0.9 {
		t.Errorf("clipped paste missing: %+v", p)
	}
}
