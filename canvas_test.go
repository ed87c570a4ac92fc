package stage

import (
	"math"
	"testing"
)

func TestFillRect(t *testing.T) {
	pm := NewPixmap(100, 100)
	c := NewCanvas(pm)
	c.FillRect(10, 10, 50, 50, Red)

	// Inside.
	pixel := pm.GetPixel(30, 30)
	if pixel.R < 0.9 || pixel.A < 0.9 {
		t.Errorf("pixel inside rect not red: %+v", pixel)
	}

	// Outside stays transparent.
	pixel = pm.GetPixel(5, 5)
	if pixel.A != 0 {
		t.Errorf("pixel outside rect not transparent: %+v", pixel)
	}
}

func TestFillRoundedRectCorners(t *testing.T) {
	pm := NewPixmap(100, 100)
	c := NewCanvas(pm)
	c.FillRoundedRect(0, 0, 100, 100, 30, Blue)

	// Corner is cut away.
	if a := pm.GetPixel(1, 1).A; a > 0.1 {
		t.Errorf("corner pixel alpha = %v, want ~0", a)
	}
	// Center is solid.
	if a := pm.GetPixel(50, 50).A; a < 0.99 {
		t.Errorf("center pixel alpha = %v, want 1", a)
	}
	// Edge midpoints are inside the shape.
	if a := pm.GetPixel(50, 2).A; a < 0.9 {
		t.Errorf("top edge pixel alpha = %v, want ~1", a)
	}
}

func TestFillCircle(t *testing.T) {
	pm := NewPixmap(100, 100)
	c := NewCanvas(pm)
	c.FillCircle(50, 50, 25, Blue)

	if p := pm.GetPixel(50, 50); p.B < 0.9 {
		t.Errorf("center pixel not blue: %+v", p)
	}
	if p := pm.GetPixel(10, 10); p.A != 0 {
		t.Errorf("pixel outside circle not transparent: %+v", p)
	}
}

func TestStrokeRoundedRect(t *testing.T) {
	pm := NewPixmap(100, 100)
	c := NewCanvas(pm)
	c.StrokeRoundedRect(20, 20, 60, 60, 0, 4, Red)

	// On the stroke line.
	if p := pm.GetPixel(50, 20); p.R < 0.9 {
		t.Errorf("stroke pixel not red: %+v", p)
	}
	// Well inside the outline is empty.
	if p := pm.GetPixel(50, 50); p.A != 0 {
		t.Errorf("interior pixel not transparent: %+v", p)
	}
}

func TestTranslateScale(t *testing.T) {
	pm := NewPixmap(100, 100)
	c := NewCanvas(pm)
	c.Translate(20, 20)
	c.Scale(2, 2)
	c.FillRect(0, 0, 10, 10, Red)

	// (0,0)..(10,10) in user space lands at (20,20)..(40,40).
	if p := pm.GetPixel(30, 30); p.R < 0.9 {
		t.Errorf("transformed rect missing at (30,30): %+v", p)
	}
	if p := pm.GetPixel(45, 45); p.A != 0 {
		t.Errorf("pixel past transformed rect not transparent: %+v", p)
	}
}

func TestPushPop(t *testing.T) {
	pm := NewPixmap(50, 50)
	c := NewCanvas(pm)
	c.Push()
	c.Translate(100, 100)
	c.Pop()
	c.FillRect(0, 0, 10, 10, Red)

	if p := pm.GetPixel(5, 5); p.R < 0.9 {
		t.Errorf("Pop did not restore transform, pixel: %+v", p)
	}
}

func TestRotateAbout(t *testing.T) {
	pm := NewPixmap(100, 100)
	c := NewCanvas(pm)
	c.RotateAbout(math.Pi/2, 50, 50)
	c.FillRect(40, 40, 20, 20, Red)

	// A square centered on the rotation point is invariant under rotation.
	if p := pm.GetPixel(50, 50); p.R < 0.9 {
		t.Errorf("rotated rect missing at center: %+v", p)
	}
}

func TestClipRoundedRect(t *testing.T) {
	pm := NewPixmap(100, 100)
	c := NewCanvas(pm)
	c.ClipRoundedRect(25, 25, 50, 50, 0)
	c.FillRect(0, 0, 100, 100, Red)

	if p := pm.GetPixel(50, 50); p.R < 0.9 {
		t.Errorf("pixel inside clip not painted: %+v", p)
	}
	if p := pm.GetPixel(10, 10); p.A != 0 {
		t.Errorf("pixel outside clip painted: %+v", p)
	}
}

func TestBlendDestinationOut(t *testing.T) {
	pm := NewPixmap(50, 50)
	c := NewCanvas(pm)
	c.FillRect(0, 0, 50, 50, Red)
	c.SetBlendMode(BlendDestinationOut)
	c.FillRect(20, 20, 10, 10, RGBA{A: 1})

	if a := pm.GetPixel(25, 25).A; a > 0.05 {
		t.Errorf("cutout pixel alpha = %v, want 0", a)
	}
	if p := pm.GetPixel(5, 5); p.R < 0.9 {
		t.Errorf("pixel outside cutout lost: %+v", p)
	}
}

func TestDrawPixmapOpacity(t *testing.T) {
	src := NewPixmap(10, 10)
	src.Clear(Red)
	dst := NewPixmap(10, 10)
	dst.Clear(White)
	c := NewCanvas(dst)
	c.DrawPixmap(src, DrawPixmapOptions{Transform: Identity(), Opacity: 0.5})

	// 50% red over white = (255, 128, 128).
	p := dst.GetPixel(5, 5)
	if math.Abs(p.G-0.5) > 0.05 || math.Abs(p.B-0.5) > 0.05 {
		t.Errorf("half-opacity blend = %+v, want G,B ~ 0.5", p)
	}
}

func TestDrawPixmapScaled(t *testing.T) {
	src := NewPixmap(10, 10)
	src.Clear(Blue)
	dst := NewPixmap(40, 40)
	c := NewCanvas(dst)
	c.DrawPixmap(src, DrawPixmapOptions{
		Transform: Translate(10, 10).Multiply(Scale(2, 2)),
		Opacity:   1,
	})

	if p := dst.GetPixel(20, 20); p.B < 0.9 {
		t.Errorf("scaled draw missing at (20,20): %+v", p)
	}
	if p := dst.GetPixel(35, 35); p.A != 0 {
		t.Errorf("pixel past scaled draw not transparent: %+v", p)
	}
}

func TestTilePixmapRepeats(t *testing.T) {
	tile := NewPixmap(4, 4)
	tile.Clear(Red)
	dst := NewPixmap(20, 20)
	c := NewCanvas(dst)
	c.TilePixmap(tile, TileOptions{Transform: Identity(), Opacity: 1})

	// Every pixel is covered by a repeat of the tile.
	for _, pt := range [][2]int{{0, 0}, {10, 10}, {19, 19}} {
		if p := dst.GetPixel(pt[0], pt[1]); p.R < 0.9 {
			t.Errorf("tile not repeated at %v: %+v", pt, p)
		}
	}
}

func TestTilePixmapSpacing(t *testing.T) {
	tile := NewPixmap(4, 4)
	tile.Clear(Red)
	dst := NewPixmap(20, 20)
	c := NewCanvas(dst)
	c.TilePixmap(tile, TileOptions{Transform: Identity(), Opacity: 1, Spacing: 4})

	if p := dst.GetPixel(1, 1); p.R < 0.9 {
		t.Errorf("tile missing at origin: %+v", p)
	}
	// (6,6) falls in the spacing gutter.
	if p := dst.GetPixel(6, 6); p.A != 0 {
		t.Errorf("gutter pixel painted: %+v", p)
	}
}

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := Translate(12, -7).Multiply(Rotate(0.6)).Multiply(Scale(2, 3))
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("matrix not invertible")
	}
	x, y := m.Apply(3, 4)
	bx, by := inv.Apply(x, y)
	if math.Abs(bx-3) > 1e-9 || math.Abs(by-4) > 1e-9 {
		t.Errorf("inverse round trip = (%v, %v), want (3, 4)", bx, by)
	}
}
