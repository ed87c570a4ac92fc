package stage

import (
	"errors"
	"math"
	"testing"
)

func TestPerspectiveQuadIdentity(t *testing.T) {
	quad, err := perspectiveQuad(Perspective{Distance: 1000, Scale: 1}, 100, 80)
	if err != nil {
		t.Fatal(err)
	}
	want := [4][2]float64{{0, 0}, {100, 0}, {100, 80}, {0, 80}}
	for i := range quad {
		if math.Abs(quad[i][0]-want[i][0]) > 1e-9 || math.Abs(quad[i][1]-want[i][1]) > 1e-9 {
			t.Errorf("corner %d = %v, want %v", i, quad[i], want[i])
		}
	}
}

func TestPerspectiveQuadRotateY(t *testing.T) {
	quad, err := perspectiveQuad(Perspective{Distance: 1000, Scale: 1, RotateY: 30}, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	// Rotation about the vertical axis brings the horizontal extent in.
	width := quad[1][0] - quad[0][0]
	if width >= 100 || width <= 0 {
		t.Errorf("projected top width = %v, want between 0 and 100", width)
	}
	// The near edge grows taller than the far edge under perspective.
	left := quad[3][1] - quad[0][1]
	right := quad[2][1] - quad[1][1]
	if math.Abs(left-right) < 1e-6 {
		t.Error("perspective foreshortening missing: edges have equal height")
	}
}

func TestPerspectiveQuadBehindCamera(t *testing.T) {
	// A tiny viewing distance pushes rotated corners behind the eye.
	_, err := perspectiveQuad(Perspective{Distance: 10, Scale: 1, RotateY: 80}, 500, 500)
	if !errors.Is(err, errDegenerateQuad) {
		t.Errorf("err = %v, want errDegenerateQuad", err)
	}
}

func TestSolveHomographyRoundTrip(t *testing.T) {
	src := [4][2]float64{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	dst := [4][2]float64{{10, 5}, {90, 15}, {95, 105}, {5, 95}}
	hm, err := solveHomography(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	for i := range src {
		x, y, ok := hm.apply(src[i][0], src[i][1])
		if !ok {
			t.Fatalf("corner %d projected to infinity", i)
		}
		if math.Abs(x-dst[i][0]) > 1e-6 || math.Abs(y-dst[i][1]) > 1e-6 {
			t.Errorf("corner %d = (%v, %v), want %v", i, x, y, dst[i])
		}
	}
}

func TestPerspectiveBackendCapability(t *testing.T) {
	flat := Layer{Perspective: Perspective{Distance: 1000, Scale: 1}}
	tilted := Layer{Perspective: Perspective{Distance: 1000, Scale: 1, RotateY: 20}}

	var pb perspectiveBackend
	if pb.CanRender(flat) {
		t.Error("perspective backend accepted a flat layer")
	}
	if !pb.CanRender(tilted) {
		t.Error("perspective backend declined a tilted layer")
	}

	var rb rasterBackend
	if !rb.CanRender(flat) {
		t.Error("raster backend declined a flat layer")
	}
	if rb.CanRender(tilted) {
		t.Error("raster backend accepted a tilted layer")
	}
}

func TestPerspectiveBackendRender(t *testing.T) {
	src := NewPixmap(40, 40)
	src.Clear(Red)
	layer := Layer{
		Source:      src,
		Perspective: Perspective{Distance: 1000, Scale: 1, RotateY: 30},
	}
	out, err := renderLayer(layer, 80, 80)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() <= 0 || out.Height() <= 0 {
		t.Fatalf("empty projection %dx%d", out.Width(), out.Height())
	}
	// Center of the projection carries subject pixels.
	if p := out.GetPixel(out.Width()/2, out.Height()/2); p.R < 0.9 {
		t.Errorf("projected center = %+v, want red", p)
	}
	// The far edge is shorter than the near edge, so the bounding box
	// corner beside it falls outside the quad.
	if a := out.GetPixel(out.Width()-1, out.Height()-1).A; a > 0.1 {
		t.Errorf("pixel beside the far edge alpha = %v, want ~0", a)
	}
}

func TestPerspectiveBounds(t *testing.T) {
	b, err := PerspectiveBounds(Perspective{Distance: 1000, Scale: 1}, 100, 60)
	if err != nil {
		t.Fatal(err)
	}
	if b.X != 0 || b.Y != 0 || math.Abs(b.W-100) > 1e-9 || math.Abs(b.H-60) > 1e-9 {
		t.Errorf("identity bounds = %+v", b)
	}

	b, err = PerspectiveBounds(Perspective{Distance: 1000, Scale: 2}, 100, 60)
	if err != nil {
		t.Fatal(err)
	}
	if b.X >= 0 || math.Abs(b.W-200) > 1e-9 {
		t.Errorf("scaled bounds = %+v, want 2x centered", b)
	}
}

func TestRenderLayerDispatch(t *testing.T) {
	src := NewPixmap(10, 10)
	src.Clear(Blue)
	out, err := renderLayer(Layer{Source: src, Perspective: Perspective{Distance: 1000, Scale: 1}}, 20, 20)
	if err != nil {
		t.Fatal(err)
	}
	if p := out.GetPixel(10, 10); p.B < 0.9 {
		t.Errorf("flat dispatch output = %+v, want blue", p)
	}
}
