package stage

import (
	"math"
	"testing"
)

func TestGradientColorAt(t *testing.T) {
	g := NewLinearGradient(0, 0, 100, 0).
		AddColorStop(0, Black).
		AddColorStop(1, White)

	if c := g.ColorAt(0, 50); c.R > 0.01 {
		t.Errorf("start color = %+v, want black", c)
	}
	if c := g.ColorAt(100, 50); c.R < 0.99 {
		t.Errorf("end color = %+v, want white", c)
	}
	if c := g.ColorAt(50, 50); math.Abs(c.R-0.5) > 0.01 {
		t.Errorf("midpoint color = %+v, want mid-gray", c)
	}
	// Beyond the axis pads with the edge color.
	if c := g.ColorAt(200, 0); c.R < 0.99 {
		t.Errorf("overshoot color = %+v, want white", c)
	}
}

func TestGradientUnsortedStops(t *testing.T) {
	g := NewLinearGradient(0, 0, 10, 0).
		AddColorStop(1, White).
		AddColorStop(0, Black)
	if c := g.ColorAt(0, 0); c.R > 0.01 {
		t.Errorf("unsorted stops: start = %+v, want black", c)
	}
}

func TestParseGradientAngle(t *testing.T) {
	g, ok := ParseGradient("linear-gradient(90deg, #000000, #ffffff)", 100, 100)
	if !ok {
		t.Fatal("gradient did not parse")
	}
	// 90deg = to right: left edge dark, right edge light.
	if c := g.ColorAt(0, 50); c.R > 0.05 {
		t.Errorf("left edge = %+v, want black", c)
	}
	if c := g.ColorAt(100, 50); c.R < 0.95 {
		t.Errorf("right edge = %+v, want white", c)
	}
}

func TestParseGradientDirectionKeyword(t *testing.T) {
	g, ok := ParseGradient("linear-gradient(to bottom, #ff0000, #0000ff)", 100, 100)
	if !ok {
		t.Fatal("gradient did not parse")
	}
	if c := g.ColorAt(50, 0); c.R < 0.9 {
		t.Errorf("top edge = %+v, want red", c)
	}
	if c := g.ColorAt(50, 100); c.B < 0.9 {
		t.Errorf("bottom edge = %+v, want blue", c)
	}
}

func TestParseGradientStopsAndFunctions(t *testing.T) {
	g, ok := ParseGradient("linear-gradient(90deg, rgba(255, 0, 0, 1) 20%, #00ff00 80%)", 100, 100)
	if !ok {
		t.Fatal("gradient did not parse")
	}
	if len(g.Stops) != 2 {
		t.Fatalf("stops = %d, want 2", len(g.Stops))
	}
	if math.Abs(g.Stops[0].Offset-0.2) > 1e-9 || math.Abs(g.Stops[1].Offset-0.8) > 1e-9 {
		t.Errorf("offsets = %v, %v, want 0.2, 0.8", g.Stops[0].Offset, g.Stops[1].Offset)
	}
}

func TestParseGradientDefaultsAndErrors(t *testing.T) {
	// Missing angle defaults to "to bottom".
	g, ok := ParseGradient("linear-gradient(#ffffff, #000000)", 100, 100)
	if !ok {
		t.Fatal("angle-less gradient did not parse")
	}
	if c := g.ColorAt(50, 0); c.R < 0.95 {
		t.Errorf("default direction top = %+v, want white", c)
	}

	for _, bad := range []string{
		"radial-gradient(#fff, #000)",
		"linear-gradient(#fff)",
		"linear-gradient(90deg, nope, #000)",
		"plain string",
	} {
		if _, ok := ParseGradient(bad, 10, 10); ok {
			t.Errorf("ParseGradient(%q) parsed, want failure", bad)
		}
	}
}

func TestParseGradientPerceptualStops(t *testing.T) {
	g, ok := ParseGradient("linear-gradient(90deg, oklch(1 0 0), oklch(0 0 0))", 50, 50)
	if !ok {
		t.Fatal("perceptual gradient did not parse")
	}
	if c := g.ColorAt(0, 0); c.R < 0.95 {
		t.Errorf("oklch white stop = %+v", c)
	}
}
