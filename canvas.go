package stage

import (
	"math"

	"github.com/zhangzhang88/stage/internal/blend"
)

// sdfAntialiasWidth controls the smoothstep transition width in pixels.
// A value of 0.7 produces smooth anti-aliasing at standard DPI.
const sdfAntialiasWidth = 0.7

// BlendMode selects how canvas draws composite onto existing pixels.
type BlendMode int

const (
	// BlendSourceOver is standard alpha compositing (default).
	BlendSourceOver BlendMode = iota

	// BlendOverlay multiplies dark backdrop regions and screens light ones.
	// Used by the noise layers.
	BlendOverlay

	// BlendDestinationOut erases destination pixels where the source is
	// opaque. Used by the eclipse frame cutout.
	BlendDestinationOut
)

// Canvas is the minimal immediate-mode drawing surface the rasterizer
// paints layers with. It draws anti-aliased shapes via signed distance
// field coverage, samples pixmaps through affine transforms, and supports
// one rounded-rectangle clip at a time — exactly the feature set the fixed
// layer stack needs, nothing more.
type Canvas struct {
	pm     *Pixmap
	matrix Matrix
	clip   *clipRRect
	mode   BlendMode
	stack  []canvasState
}

type canvasState struct {
	matrix Matrix
	clip   *clipRRect
	mode   BlendMode
}

// clipRRect is a device-space rounded rectangle clip region.
type clipRRect struct {
	x, y, w, h, r float64
}

// NewCanvas creates a canvas drawing into the given pixmap.
func NewCanvas(pm *Pixmap) *Canvas {
	return &Canvas{pm: pm, matrix: Identity()}
}

// Pixmap returns the destination pixel buffer.
func (c *Canvas) Pixmap() *Pixmap { return c.pm }

// Push saves the current transform, clip and blend mode.
func (c *Canvas) Push() {
	c.stack = append(c.stack, canvasState{matrix: c.matrix, clip: c.clip, mode: c.mode})
}

// Pop restores the most recently pushed state.
func (c *Canvas) Pop() {
	if len(c.stack) == 0 {
		return
	}
	s := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.matrix = s.matrix
	c.clip = s.clip
	c.mode = s.mode
}

// Translate shifts the user coordinate system by (tx, ty).
func (c *Canvas) Translate(tx, ty float64) {
	c.matrix = c.matrix.Multiply(Translate(tx, ty))
}

// Scale scales the user coordinate system by (sx, sy).
func (c *Canvas) Scale(sx, sy float64) {
	c.matrix = c.matrix.Multiply(Scale(sx, sy))
}

// Rotate rotates the user coordinate system by angle radians.
func (c *Canvas) Rotate(angle float64) {
	c.matrix = c.matrix.Multiply(Rotate(angle))
}

// RotateAbout rotates the user coordinate system around a point.
func (c *Canvas) RotateAbout(angle, x, y float64) {
	c.Translate(x, y)
	c.Rotate(angle)
	c.Translate(-x, -y)
}

// SetBlendMode selects the compositing mode for subsequent draws.
func (c *Canvas) SetBlendMode(mode BlendMode) { c.mode = mode }

// ClipRoundedRect restricts subsequent drawing to a rounded rectangle given
// in the current user space. Only the translation and scale of the current
// transform apply to the clip; the layer stack never clips under rotation.
func (c *Canvas) ClipRoundedRect(x, y, w, h, r float64) {
	x0, y0 := c.matrix.Apply(x, y)
	x1, y1 := c.matrix.Apply(x+w, y+h)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	c.clip = &clipRRect{x: x0, y: y0, w: x1 - x0, h: y1 - y0, r: r * c.scaleFactor()}
}

// ResetClip removes the clip region.
func (c *Canvas) ResetClip() { c.clip = nil }

// scaleFactor returns the uniform scale of the current transform,
// approximated as sqrt(|det|) for non-uniform transforms.
func (c *Canvas) scaleFactor() float64 {
	det := c.matrix.a*c.matrix.e - c.matrix.b*c.matrix.d
	return math.Sqrt(math.Abs(det))
}

// clipCoverage returns the AA coverage of the clip region at a device pixel.
func (c *Canvas) clipCoverage(px, py float64) float64 {
	if c.clip == nil {
		return 1
	}
	r := math.Min(c.clip.r, math.Min(c.clip.w, c.clip.h)/2)
	d := sdfRRect(px, py, c.clip.x+c.clip.w/2, c.clip.y+c.clip.h/2, c.clip.w/2, c.clip.h/2, r)
	return smoothstepCoverage(d)
}

// blendAt composites one color onto a device pixel at the given coverage,
// honoring the current blend mode and clip.
func (c *Canvas) blendAt(x, y int, col RGBA, coverage float64) {
	if coverage <= 0 {
		return
	}
	coverage *= c.clipCoverage(float64(x)+0.5, float64(y)+0.5)
	if coverage <= 0 {
		return
	}
	a := col.A * coverage
	if a <= 0 {
		return
	}
	if x < 0 || x >= c.pm.width || y < 0 || y >= c.pm.height {
		return
	}
	i := (y*c.pm.width + x) * 4
	d := c.pm.data
	sr := uint8(clamp255(col.R * 255))
	sg := uint8(clamp255(col.G * 255))
	sb := uint8(clamp255(col.B * 255))
	sa := uint8(clamp255(a * 255))

	var r, g, b, al byte
	switch c.mode {
	case BlendOverlay:
		r, g, b, al = blend.Overlay(sr, sg, sb, sa, d[i+0], d[i+1], d[i+2], d[i+3])
	case BlendDestinationOut:
		r, g, b, al = blend.DestinationOut(sa, d[i+0], d[i+1], d[i+2], d[i+3])
	default:
		r, g, b, al = blend.SourceOver(sr, sg, sb, sa, d[i+0], d[i+1], d[i+2], d[i+3])
	}
	d[i+0] = r
	d[i+1] = g
	d[i+2] = b
	d[i+3] = al
}

// fillCoverage rasterizes an SDF shape. The shape is described in user
// space by a signed-distance function and a user-space bounding box; each
// device pixel inside the transformed bounds is inverse-mapped, evaluated,
// and composited at the AA coverage. colorAt receives user-space
// coordinates so gradient fills follow the shape's own geometry.
func (c *Canvas) fillCoverage(bx, by, bw, bh float64, sdf func(x, y float64) float64, colorAt func(x, y float64) RGBA) {
	inv, ok := c.matrix.Invert()
	if !ok {
		return
	}
	scale := c.scaleFactor()
	if scale <= 0 {
		return
	}

	// Transformed bounding box in device space, padded for AA.
	minX, minY, maxX, maxY := transformedBounds(c.matrix, bx, by, bw, bh)
	pad := sdfAntialiasWidth + 1
	x0 := int(math.Floor(minX - pad))
	y0 := int(math.Floor(minY - pad))
	x1 := int(math.Ceil(maxX + pad))
	y1 := int(math.Ceil(maxY + pad))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > c.pm.width {
		x1 = c.pm.width
	}
	if y1 > c.pm.height {
		y1 = c.pm.height
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			ux, uy := inv.Apply(float64(x)+0.5, float64(y)+0.5)
			cov := smoothstepCoverage(sdf(ux, uy) * scale)
			if cov <= 0 {
				continue
			}
			c.blendAt(x, y, colorAt(ux, uy), cov)
		}
	}
}

// transformedBounds returns the device-space bounds of a user-space rect.
func transformedBounds(m Matrix, x, y, w, h float64) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{x, y}, {x + w, y}, {x, y + h}, {x + w, y + h}} {
		px, py := m.Apply(p[0], p[1])
		minX = math.Min(minX, px)
		minY = math.Min(minY, py)
		maxX = math.Max(maxX, px)
		maxY = math.Max(maxY, py)
	}
	return
}

// FillRect fills an axis-aligned rectangle in user space.
func (c *Canvas) FillRect(x, y, w, h float64, col RGBA) {
	c.FillRoundedRect(x, y, w, h, 0, col)
}

// FillRoundedRect fills a rounded rectangle.
func (c *Canvas) FillRoundedRect(x, y, w, h, r float64, col RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	r = math.Min(r, math.Min(w, h)/2)
	cx, cy := x+w/2, y+h/2
	c.fillCoverage(x, y, w, h,
		func(px, py float64) float64 {
			return sdfRRect(px, py, cx, cy, w/2, h/2, r)
		},
		func(float64, float64) RGBA { return col })
}

// FillRoundedRectGradient fills a rounded rectangle with a linear gradient
// defined in user space.
func (c *Canvas) FillRoundedRectGradient(x, y, w, h, r float64, g *LinearGradient) {
	if w <= 0 || h <= 0 || g == nil {
		return
	}
	r = math.Min(r, math.Min(w, h)/2)
	cx, cy := x+w/2, y+h/2
	c.fillCoverage(x, y, w, h,
		func(px, py float64) float64 {
			return sdfRRect(px, py, cx, cy, w/2, h/2, r)
		},
		g.ColorAt)
}

// StrokeRoundedRect strokes the outline of a rounded rectangle.
func (c *Canvas) StrokeRoundedRect(x, y, w, h, r, lineWidth float64, col RGBA) {
	if w <= 0 || h <= 0 || lineWidth <= 0 {
		return
	}
	r = math.Min(r, math.Min(w, h)/2)
	cx, cy := x+w/2, y+h/2
	half := lineWidth / 2
	c.fillCoverage(x-half, y-half, w+lineWidth, h+lineWidth,
		func(px, py float64) float64 {
			return math.Abs(sdfRRect(px, py, cx, cy, w/2, h/2, r)) - half
		},
		func(float64, float64) RGBA { return col })
}

// FillCircle fills a circle.
func (c *Canvas) FillCircle(cx, cy, radius float64, col RGBA) {
	if radius <= 0 {
		return
	}
	c.fillCoverage(cx-radius, cy-radius, radius*2, radius*2,
		func(px, py float64) float64 {
			return math.Hypot(px-cx, py-cy) - radius
		},
		func(float64, float64) RGBA { return col })
}

// StrokeCircle strokes the outline of a circle.
func (c *Canvas) StrokeCircle(cx, cy, radius, lineWidth float64, col RGBA) {
	if radius <= 0 || lineWidth <= 0 {
		return
	}
	half := lineWidth / 2
	c.fillCoverage(cx-radius-half, cy-radius-half, (radius+half)*2, (radius+half)*2,
		func(px, py float64) float64 {
			return math.Abs(math.Hypot(px-cx, py-cy)-radius) - half
		},
		func(float64, float64) RGBA { return col })
}

// DrawLine draws a line segment with round caps.
func (c *Canvas) DrawLine(x0, y0, x1, y1, lineWidth float64, col RGBA) {
	if lineWidth <= 0 {
		return
	}
	half := lineWidth / 2
	bx := math.Min(x0, x1) - half
	by := math.Min(y0, y1) - half
	bw := math.Abs(x1-x0) + lineWidth
	bh := math.Abs(y1-y0) + lineWidth
	c.fillCoverage(bx, by, bw, bh,
		func(px, py float64) float64 {
			return sdfSegment(px, py, x0, y0, x1, y1) - half
		},
		func(float64, float64) RGBA { return col })
}

// sdfSegment computes the distance from a point to a line segment.
func sdfSegment(px, py, x0, y0, x1, y1 float64) float64 {
	dx := x1 - x0
	dy := y1 - y0
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = clamp01(((px-x0)*dx + (py-y0)*dy) / lenSq)
	}
	return math.Hypot(px-(x0+t*dx), py-(y0+t*dy))
}

// sdfRRect computes the signed distance from a point to a rounded rectangle.
// Negative values are inside, positive values are outside.
func sdfRRect(px, py, cx, cy, halfW, halfH, cornerRadius float64) float64 {
	// Translate to center and use symmetry (work in first quadrant).
	dx := math.Abs(px-cx) - halfW + cornerRadius
	dy := math.Abs(py-cy) - halfH + cornerRadius

	// Outside the corner region: max(dx, dy) gives the distance to the edge.
	// Inside the corner region: the Euclidean distance to the corner circle.
	outside := math.Sqrt(math.Max(dx, 0)*math.Max(dx, 0) + math.Max(dy, 0)*math.Max(dy, 0))
	inside := math.Min(math.Max(dx, dy), 0)

	return outside + inside - cornerRadius
}

// smoothstepCoverage converts a signed distance to an anti-aliased coverage
// value using a Hermite smoothstep function.
func smoothstepCoverage(sdf float64) float64 {
	if sdf >= sdfAntialiasWidth {
		return 0
	}
	if sdf <= -sdfAntialiasWidth {
		return 1
	}
	t := (sdf + sdfAntialiasWidth) / (2 * sdfAntialiasWidth)
	return 1 - t*t*(3-2*t)
}

// DrawPixmapOptions control a pixmap draw.
type DrawPixmapOptions struct {
	// Transform maps source pixel coordinates into the current user space.
	Transform Matrix

	// Opacity multiplies the source alpha.
	Opacity float64

	// CornerRadius clips the source to a rounded rect in source space.
	CornerRadius float64
}

// DrawPixmap samples src through the draw transform and current canvas
// transform with bilinear interpolation.
func (c *Canvas) DrawPixmap(src *Pixmap, opts DrawPixmapOptions) {
	if src == nil || src.width == 0 || src.height == 0 {
		return
	}
	opacity := opts.Opacity
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	full := c.matrix.Multiply(opts.Transform)
	inv, ok := full.Invert()
	if !ok {
		return
	}
	sw := float64(src.width)
	sh := float64(src.height)
	r := math.Min(opts.CornerRadius, math.Min(sw, sh)/2)

	minX, minY, maxX, maxY := transformedBounds(full, 0, 0, sw, sh)
	x0 := int(math.Floor(minX - 1))
	y0 := int(math.Floor(minY - 1))
	x1 := int(math.Ceil(maxX + 1))
	y1 := int(math.Ceil(maxY + 1))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > c.pm.width {
		x1 = c.pm.width
	}
	if y1 > c.pm.height {
		y1 = c.pm.height
	}

	det := full.a*full.e - full.b*full.d
	scale := math.Sqrt(math.Abs(det))

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			sx, sy := inv.Apply(float64(x)+0.5, float64(y)+0.5)
			// Edge coverage keeps the image boundary anti-aliased and
			// applies the rounded-corner clip when r > 0.
			cov := smoothstepCoverage(sdfRRect(sx, sy, sw/2, sh/2, sw/2, sh/2, r) * scale)
			if cov <= 0 {
				continue
			}
			col := sampleBilinear(src, sx, sy)
			col.A *= opacity
			c.blendAt(x, y, col, cov)
		}
	}
}

// TilePixmap fills the whole canvas (inside the clip) with a repeating
// tile. The transform maps tile pixel coordinates into user space; tiles
// repeat on both axes with optional spacing between repeats, treated as
// transparent gutter.
func (c *Canvas) TilePixmap(tile *Pixmap, opts TileOptions) {
	if tile == nil || tile.width == 0 || tile.height == 0 {
		return
	}
	opacity := opts.Opacity
	if opacity <= 0 {
		return
	}
	full := c.matrix.Multiply(opts.Transform)
	inv, ok := full.Invert()
	if !ok {
		return
	}
	tw := float64(tile.width) + opts.Spacing
	th := float64(tile.height) + opts.Spacing

	for y := 0; y < c.pm.height; y++ {
		for x := 0; x < c.pm.width; x++ {
			sx, sy := inv.Apply(float64(x)+0.5, float64(y)+0.5)
			// Repeat spread: wrap into one tile period.
			sx = math.Mod(sx, tw)
			if sx < 0 {
				sx += tw
			}
			sy = math.Mod(sy, th)
			if sy < 0 {
				sy += th
			}
			if sx >= float64(tile.width) || sy >= float64(tile.height) {
				continue // spacing gutter
			}
			col := sampleBilinear(tile, sx, sy)
			col.A *= opacity
			c.blendAt(x, y, col, 1)
		}
	}
}

// TileOptions control a tiled fill.
type TileOptions struct {
	Transform Matrix
	Opacity   float64
	Spacing   float64 // gutter between tiles, in tile pixels
}

// sampleBilinear samples a pixmap at fractional coordinates with bilinear
// interpolation. Coordinates address pixel centers; samples outside the
// pixmap are transparent.
func sampleBilinear(src *Pixmap, x, y float64) RGBA {
	x -= 0.5
	y -= 0.5
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	tx := x - float64(x0)
	ty := y - float64(y0)

	c00 := src.GetPixel(clampInt(x0, 0, src.width-1), clampInt(y0, 0, src.height-1))
	c10 := src.GetPixel(clampInt(x0+1, 0, src.width-1), clampInt(y0, 0, src.height-1))
	c01 := src.GetPixel(clampInt(x0, 0, src.width-1), clampInt(y0+1, 0, src.height-1))
	c11 := src.GetPixel(clampInt(x0+1, 0, src.width-1), clampInt(y0+1, 0, src.height-1))

	top := c00.Lerp(c10, tx)
	bot := c01.Lerp(c11, tx)
	return top.Lerp(bot, ty)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
