package stage

import (
	"math"

	"github.com/zhangzhang88/stage/text"
)

// FrameInsets is the extra bounding box inflation a frame kind adds around
// the subject image. The subject layout consumes it to keep the image
// correctly inset.
type FrameInsets struct {
	Top, Right, Bottom, Left float64
}

// uniform builds equal insets on all sides.
func uniformInsets(v float64) FrameInsets {
	return FrameInsets{Top: v, Right: v, Bottom: v, Left: v}
}

// frameInsets returns the bounding box inflation for a frame configuration.
func frameInsets(f Frame) FrameInsets {
	switch f.Kind {
	case FrameNone:
		return FrameInsets{}
	case FrameSolid, FrameGlassy, FrameEclipse, FrameDotted:
		return uniformInsets(f.Width + f.Padding)
	case FrameInfiniteMirror:
		return uniformInsets(f.Width*float64(mirrorRings) + f.Padding)
	case FrameWindow:
		in := uniformInsets(f.Width + f.Padding)
		in.Top += windowHeaderHeight
		return in
	case FrameStack:
		return uniformInsets(stackOffset*float64(stackLayers) + f.Padding)
	case FrameRuler:
		return uniformInsets(rulerBand + f.Padding)
	case FrameFocus:
		return uniformInsets(f.Width + f.Padding)
	default:
		return FrameInsets{}
	}
}

const (
	mirrorRings        = 4
	stackLayers        = 3
	stackOffset        = 10.0
	windowHeaderHeight = 36.0
	rulerBand          = 24.0
	rulerTickStep      = 10.0
	rulerMajorEvery    = 5
)

// renderFrame draws a frame decoration around the subject rect (x, y, w, h)
// in the current user space. The ratio is the device pixels per user unit;
// kinds that rasterize text need it to render glyphs at device resolution.
// Frame kinds are a closed enumeration of pure rendering functions; there
// is no transition logic between kinds.
func renderFrame(c *Canvas, f Frame, x, y, w, h, imageRadius, ratio float64) {
	col, ok := ParseColor(f.Color)
	if !ok {
		col = Black
	}
	if ratio <= 0 {
		ratio = 1
	}

	switch f.Kind {
	case FrameSolid:
		renderSolidFrame(c, f, col, x, y, w, h, imageRadius)
	case FrameGlassy:
		renderGlassyFrame(c, f, x, y, w, h, imageRadius)
	case FrameInfiniteMirror:
		renderMirrorFrame(c, f, col, x, y, w, h, imageRadius)
	case FrameWindow:
		renderWindowFrame(c, f, x, y, w, h, imageRadius, ratio)
	case FrameStack:
		renderStackFrame(c, f, col, x, y, w, h, imageRadius)
	case FrameRuler:
		renderRulerFrame(c, f, col, x, y, w, h)
	case FrameEclipse:
		renderEclipseFrame(c, f, col, x, y, w, h, imageRadius)
	case FrameDotted:
		renderDottedFrame(c, f, col, x, y, w, h, imageRadius)
	case FrameFocus:
		renderFocusFrame(c, f, col, x, y, w, h)
	}
}

// renderSolidFrame draws a plain border band around the image.
func renderSolidFrame(c *Canvas, f Frame, col RGBA, x, y, w, h, r float64) {
	bw := f.Width
	pad := f.Padding
	c.StrokeRoundedRect(x-pad-bw/2, y-pad-bw/2, w+2*pad+bw, h+2*pad+bw, r+pad+bw/2, bw, col)
}

// renderGlassyFrame draws a translucent panel behind the image with a thin
// bright border, imitating frosted glass.
func renderGlassyFrame(c *Canvas, f Frame, x, y, w, h, r float64) {
	panel := RGBA{R: 1, G: 1, B: 1, A: 0.18}
	border := RGBA{R: 1, G: 1, B: 1, A: 0.45}
	if f.Theme == FrameThemeDark {
		panel = RGBA{R: 0, G: 0, B: 0, A: 0.25}
		border = RGBA{R: 1, G: 1, B: 1, A: 0.25}
	}
	bw := f.Width + f.Padding
	c.FillRoundedRect(x-bw, y-bw, w+2*bw, h+2*bw, r+bw, panel)
	c.StrokeRoundedRect(x-bw, y-bw, w+2*bw, h+2*bw, r+bw, 1.5, border)
}

// renderMirrorFrame draws concentric outlines at decreasing opacity, each
// scaled outward from the previous, simulating recursive reflection.
func renderMirrorFrame(c *Canvas, f Frame, col RGBA, x, y, w, h, r float64) {
	bw := f.Width
	for i := mirrorRings; i >= 1; i-- {
		inset := f.Padding + bw*float64(i)
		alpha := 1 - float64(i)/float64(mirrorRings+1)
		c.StrokeRoundedRect(x-inset, y-inset, w+2*inset, h+2*inset, r+inset, bw*0.6,
			col.WithAlpha(alpha*alpha))
	}
}

// renderWindowFrame draws browser-chrome decoration: a title bar with three
// traffic-light buttons and an optional centered title, over a body panel.
func renderWindowFrame(c *Canvas, f Frame, x, y, w, h, r, ratio float64) {
	chrome := RGBA{R: 0.93, G: 0.93, B: 0.94, A: 1}
	titleCol := RGBA{R: 0.25, G: 0.25, B: 0.28, A: 1}
	if f.Theme == FrameThemeDark {
		chrome = RGBA{R: 0.16, G: 0.16, B: 0.18, A: 1}
		titleCol = RGBA{R: 0.85, G: 0.85, B: 0.88, A: 1}
	}
	bw := f.Width + f.Padding
	px := x - bw
	py := y - bw - windowHeaderHeight
	pw := w + 2*bw
	ph := h + 2*bw + windowHeaderHeight

	c.FillRoundedRect(px, py, pw, ph, math.Max(r, 8), chrome)

	// Traffic lights, fixed geometry relative to the header.
	lights := []RGBA{
		{R: 1, G: 0.37, B: 0.35, A: 1},   // close
		{R: 1, G: 0.74, B: 0.18, A: 1},   // minimize
		{R: 0.2, G: 0.78, B: 0.35, A: 1}, // zoom
	}
	cy := py + windowHeaderHeight/2
	for i, lc := range lights {
		c.FillCircle(px+16+float64(i)*20, cy, 6, lc)
	}

	if f.Title != "" {
		drawFrameTitle(c, f.Title, px+pw/2, cy, titleCol, ratio)
	}
}

// drawFrameTitle stamps a centered single-line title into the header. The
// face is sized at device resolution and the draw scales back down, so the
// glyphs stay crisp at any export ratio.
func drawFrameTitle(c *Canvas, title string, cx, cy float64, col RGBA, ratio float64) {
	const size = 13.0
	face := text.DefaultSource(500).Face(size * ratio)
	scratch := text.Render(title, face, col.Color())
	if scratch == nil {
		return
	}
	pm := FromImage(scratch)
	m := Translate(cx, cy)
	m = m.Multiply(Scale(1/ratio, 1/ratio))
	m = m.Multiply(Translate(-float64(pm.Width())/2, -float64(pm.Height())/2))
	c.DrawPixmap(pm, DrawPixmapOptions{Transform: m, Opacity: 1})
}

// renderStackFrame draws offset card layers behind the image.
func renderStackFrame(c *Canvas, f Frame, col RGBA, x, y, w, h, r float64) {
	pad := f.Padding
	for i := stackLayers; i >= 1; i-- {
		off := stackOffset * float64(i)
		alpha := 1 - float64(i)/float64(stackLayers+1)
		c.FillRoundedRect(x-pad+off, y-pad+off, w+2*pad, h+2*pad, r+pad, col.WithAlpha(alpha*0.5))
	}
}

// renderRulerFrame draws a border band with tick marks at fixed intervals
// along all four edges, major ticks every fifth interval. Ticks are
// intersected with the band's own shape so they only appear where the frame
// line is non-transparent (SDF intersection replaces the canvas-engine
// alpha mask trick).
func renderRulerFrame(c *Canvas, f Frame, col RGBA, x, y, w, h float64) {
	pad := f.Padding
	bx := x - pad - rulerBand
	by := y - pad - rulerBand
	bw := w + 2*(pad+rulerBand)
	bh := h + 2*(pad+rulerBand)
	cx := bx + bw/2
	cy := by + bh/2

	// Band = outer rect minus inner rect.
	bandSDF := func(px, py float64) float64 {
		outer := sdfRRect(px, py, cx, cy, bw/2, bh/2, 0)
		inner := sdfRRect(px, py, cx, cy, bw/2-rulerBand, bh/2-rulerBand, 0)
		return math.Max(outer, -inner)
	}
	c.fillCoverage(bx, by, bw, bh, bandSDF,
		func(float64, float64) RGBA { return col.WithAlpha(0.35) })

	tickCol := col
	drawTick := func(tx0, ty0, tx1, ty1 float64) {
		half := 1.0
		minX := math.Min(tx0, tx1) - half
		minY := math.Min(ty0, ty1) - half
		c.fillCoverage(minX, minY, math.Abs(tx1-tx0)+2*half, math.Abs(ty1-ty0)+2*half,
			func(px, py float64) float64 {
				tick := sdfSegment(px, py, tx0, ty0, tx1, ty1) - half
				return math.Max(tick, bandSDF(px, py))
			},
			func(float64, float64) RGBA { return tickCol })
	}

	// Horizontal edges.
	for i := 0; ; i++ {
		tx := bx + float64(i)*rulerTickStep
		if tx > bx+bw {
			break
		}
		l := rulerBand * 0.4
		if i%rulerMajorEvery == 0 {
			l = rulerBand * 0.8
		}
		drawTick(tx, by, tx, by+l)
		drawTick(tx, by+bh, tx, by+bh-l)
	}
	// Vertical edges.
	for i := 0; ; i++ {
		ty := by + float64(i)*rulerTickStep
		if ty > by+bh {
			break
		}
		l := rulerBand * 0.4
		if i%rulerMajorEvery == 0 {
			l = rulerBand * 0.8
		}
		drawTick(bx, ty, bx+l, ty)
		drawTick(bx+bw, ty, bx+bw-l, ty)
	}
}

// renderEclipseFrame draws a filled rounded rect and cuts a smaller rounded
// hole out of it with destination-out compositing, producing a ring. The
// cutout runs in an isolated scratch layer so it only erases the ring's own
// fill, never the layers already painted beneath the hole.
func renderEclipseFrame(c *Canvas, f Frame, col RGBA, x, y, w, h, r float64) {
	bw := f.Width
	pad := f.Padding

	dst := c.Pixmap()
	scratch := NewPixmap(dst.Width(), dst.Height())
	sc := NewCanvas(scratch)
	sc.matrix = c.matrix
	sc.FillRoundedRect(x-pad-bw, y-pad-bw, w+2*(pad+bw), h+2*(pad+bw), r+pad+bw, col)
	sc.SetBlendMode(BlendDestinationOut)
	sc.FillRoundedRect(x-pad, y-pad, w+2*pad, h+2*pad, r+pad, RGBA{A: 1})
	Paste(dst, scratch, 0, 0)
}

// renderDottedFrame draws evenly spaced dots along the frame perimeter.
func renderDottedFrame(c *Canvas, f Frame, col RGBA, x, y, w, h, r float64) {
	inset := f.Padding + f.Width/2
	bx := x - inset
	by := y - inset
	bw := w + 2*inset
	bh := h + 2*inset
	dotR := math.Max(f.Width/2, 1.5)
	step := dotR * 5

	perimeter := 2 * (bw + bh)
	n := int(perimeter / step)
	if n < 4 {
		n = 4
	}
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n) * perimeter
		px, py := perimeterPoint(bx, by, bw, bh, t)
		c.FillCircle(px, py, dotR, col)
	}
}

// perimeterPoint maps arc length t to a point on a rectangle's perimeter,
// starting at the top-left corner and walking clockwise.
func perimeterPoint(x, y, w, h, t float64) (float64, float64) {
	switch {
	case t < w:
		return x + t, y
	case t < w+h:
		return x + w, y + (t - w)
	case t < 2*w+h:
		return x + w - (t - w - h), y + h
	default:
		return x, y + h - (t - 2*w - h)
	}
}

// renderFocusFrame draws four corner brackets, camera viewfinder style.
func renderFocusFrame(c *Canvas, f Frame, col RGBA, x, y, w, h float64) {
	inset := f.Padding
	bw := f.Width
	bx := x - inset
	by := y - inset
	bbw := w + 2*inset
	bbh := h + 2*inset
	arm := math.Min(math.Min(bbw, bbh)*0.15, 40)

	corners := [4][3][2]float64{
		{{bx, by + arm}, {bx, by}, {bx + arm, by}},
		{{bx + bbw - arm, by}, {bx + bbw, by}, {bx + bbw, by + arm}},
		{{bx + bbw, by + bbh - arm}, {bx + bbw, by + bbh}, {bx + bbw - arm, by + bbh}},
		{{bx + arm, by + bbh}, {bx, by + bbh}, {bx, by + bbh - arm}},
	}
	for _, corner := range corners {
		c.DrawLine(corner[0][0], corner[0][1], corner[1][0], corner[1][1], bw, col)
		c.DrawLine(corner[1][0], corner[1][1], corner[2][0], corner[2][1], bw, col)
	}
}
