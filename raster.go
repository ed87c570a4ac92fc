package stage

import (
	"fmt"
	"math"

	"github.com/zhangzhang88/stage/text"
)

// noiseTileSize is the edge length of a generated grain tile. Grain is
// uniform so tiling seams are invisible.
const noiseTileSize = 256

// RenderScene renders the flat layer stack for one export at the given
// pixel ratio (export resolution over preview resolution). Every geometric
// and typographic quantity is multiplied by the ratio before drawing, so
// edges stay crisp at any resolution. The surface supplies a pre-generated
// noise tile for preview parity; pass nil to regenerate grain.
//
// When the scene carries a non-identity perspective the flat subject image
// is suppressed and the frame and shadow still render; the caller pastes
// the projected subject afterward.
func RenderScene(scene *Scene, ratio float64, surface *Surface) (*Pixmap, error) {
	if scene == nil || scene.Subject.Image == nil {
		return nil, fmt.Errorf("render: %w", ErrNoTarget)
	}
	if ratio <= 0 {
		ratio = 1
	}
	s := scene.Clone().Normalize()
	outW := int(math.Round(float64(s.Width) * ratio))
	outH := int(math.Round(float64(s.Height) * ratio))
	if outW <= 0 || outH <= 0 {
		return nil, fmt.Errorf("render: canvas %dx%d: %w", s.Width, s.Height, ErrInvalidAspect)
	}

	pm := NewPixmap(outW, outH)
	c := NewCanvas(pm)
	c.Scale(ratio, ratio)

	renderBackground(c, s, ratio, surface)
	renderPattern(c, s, ratio)
	renderTexture(c, s)
	renderSubjectGroup(c, s, ratio)
	renderTextOverlays(c, s, ratio)
	renderImageOverlays(c, s)
	return pm, nil
}

// renderBackground paints the bottom layer: the configured fill, blurred
// if requested, with grain overlaid after the blur so the grain stays
// sharp, then composited onto the canvas under the background opacity and
// corner radius.
func renderBackground(c *Canvas, s *Scene, ratio float64, surface *Surface) {
	if s.Background.Opacity <= 0 {
		return
	}
	w := float64(s.Width)
	h := float64(s.Height)
	dst := c.Pixmap()

	bg := NewPixmap(dst.Width(), dst.Height())
	bc := NewCanvas(bg)
	bc.Scale(ratio, ratio)

	// Fills bleed one unit past the canvas so the shape's edge antialiasing
	// lands outside the pixmap and every canvas pixel gets full coverage.
	const bleed = 1.0

	switch s.Background.Kind {
	case BackgroundSolid:
		col, ok := ParseColor(s.Background.Value)
		if !ok {
			col = White
		}
		bc.FillRect(-bleed, -bleed, w+2*bleed, h+2*bleed, col)
	case BackgroundGradient:
		if g, ok := ParseGradient(s.Background.Value, w, h); ok {
			bc.FillRoundedRectGradient(-bleed, -bleed, w+2*bleed, h+2*bleed, 0, g)
		} else if col, ok := ParseColor(s.Background.Value); ok {
			bc.FillRect(-bleed, -bleed, w+2*bleed, h+2*bleed, col)
		} else {
			bc.FillRect(-bleed, -bleed, w+2*bleed, h+2*bleed, White)
		}
	case BackgroundImage:
		img := s.Background.Image
		if img == nil {
			logger().Warn("background image missing, falling back to white")
			bc.FillRect(-bleed, -bleed, w+2*bleed, h+2*bleed, White)
			break
		}
		// Cover fit: scale to fill (plus the bleed), centered, overflow
		// cropped.
		sw := float64(img.Width())
		sh := float64(img.Height())
		scale := math.Max((w+2*bleed)/sw, (h+2*bleed)/sh)
		tx := (w - sw*scale) / 2
		ty := (h - sh*scale) / 2
		bc.DrawPixmap(img, DrawPixmapOptions{
			Transform: Translate(tx, ty).Multiply(Scale(scale, scale)),
			Opacity:   1,
		})
	}

	bg = BlurPixmap(bg, s.Background.Blur*ratio)
	if s.Background.Noise > 0 {
		bg = OverlayNoise(bg, noiseTile(surface), s.Background.Noise)
	}

	bg = ScaleAlpha(bg, s.Background.Opacity)
	if s.Background.CornerRadius > 0 {
		c.DrawPixmap(bg, DrawPixmapOptions{
			Transform:    Scale(1/ratio, 1/ratio),
			Opacity:      1,
			CornerRadius: s.Background.CornerRadius * ratio,
		})
		return
	}
	// No corner rounding: a direct paste keeps every pixel exact, with no
	// edge antialiasing on the canvas boundary.
	Paste(dst, bg, 0, 0)
}

// noiseTile returns the surface's live grain tile when present, otherwise
// a freshly generated one. Regenerated grain differs pixel-for-pixel but
// matches in distribution.
func noiseTile(surface *Surface) *Pixmap {
	if surface != nil && surface.Noise != nil {
		return surface.Noise
	}
	return NoiseTexture(noiseTileSize, noiseTileSize, 1)
}

// renderPattern tiles the decorative pattern over the background.
func renderPattern(c *Canvas, s *Scene, ratio float64) {
	p := s.Pattern
	if !p.Enabled || p.Tile == nil || p.Opacity <= 0 {
		return
	}
	tile := BlurPixmap(p.Tile, p.Blur)

	c.Push()
	c.ClipRoundedRect(0, 0, float64(s.Width), float64(s.Height), s.Background.CornerRadius)
	if p.Rotation != 0 {
		c.RotateAbout(radians(p.Rotation), float64(s.Width)/2, float64(s.Height)/2)
	}
	c.TilePixmap(tile, TileOptions{
		Transform: Scale(p.Scale, p.Scale),
		Opacity:   p.Opacity,
		Spacing:   p.Spacing,
	})
	c.Pop()
}

// renderTexture tiles the standalone grain layer above the pattern.
func renderTexture(c *Canvas, s *Scene) {
	t := s.Texture
	if !t.Enabled || t.Intensity <= 0 || t.Opacity <= 0 {
		return
	}
	tile := NoiseTexture(noiseTileSize, noiseTileSize, t.Intensity/100)

	c.Push()
	c.ClipRoundedRect(0, 0, float64(s.Width), float64(s.Height), s.Background.CornerRadius)
	c.SetBlendMode(BlendOverlay)
	c.TilePixmap(tile, TileOptions{
		Transform: Scale(t.Scale, t.Scale),
		Opacity:   t.Opacity,
	})
	c.Pop()
}

// subjectRect computes the subject image's rectangle in preview space:
// intrinsic size times the user scale, centered on the canvas plus the
// user offset.
func subjectRect(s *Scene) (x, y, w, h float64) {
	img := s.Subject.Image
	w = float64(img.Width()) * s.Subject.Scale
	h = float64(img.Height()) * s.Subject.Scale
	x = float64(s.Width)/2 - w/2 + s.Subject.OffsetX
	y = float64(s.Height)/2 - h/2 + s.Subject.OffsetY
	return
}

// renderSubjectGroup draws the shadow, frame decoration and subject image
// in a local coordinate frame rotated about the subject center. With a
// non-identity perspective the image itself is skipped; the projected
// overlay supplies those pixels later.
func renderSubjectGroup(c *Canvas, s *Scene, ratio float64) {
	x, y, w, h := subjectRect(s)

	c.Push()
	defer c.Pop()
	if s.Subject.Rotation != 0 {
		c.RotateAbout(radians(s.Subject.Rotation), x+w/2, y+h/2)
	}

	if s.Shadow.Enabled && s.Shadow.Intensity > 0 {
		renderShadow(c, s, x, y, w, h, ratio)
	}

	renderFrame(c, s.Frame, x, y, w, h, s.Subject.CornerRadius, ratio)

	if !s.Perspective.IsIdentity() {
		return
	}
	img := s.Subject.Image
	srcPerUnit := float64(img.Width()) / w
	c.DrawPixmap(img, DrawPixmapOptions{
		Transform:    Translate(x, y).Multiply(Scale(w/float64(img.Width()), h/float64(img.Height()))),
		Opacity:      1,
		CornerRadius: s.Subject.CornerRadius * srcPerUnit,
	})
}

// renderShadow draws a blurred drop shadow under the frame's outermost
// shape. The shadow is rasterized in an unrotated scratch bitmap and
// drawn through the group transform so it rotates with the subject.
func renderShadow(c *Canvas, s *Scene, x, y, w, h, ratio float64) {
	in := frameInsets(s.Frame)
	ox := x - in.Left
	oy := y - in.Top
	ow := w + in.Left + in.Right
	oh := h + in.Top + in.Bottom

	var dx, dy float64
	switch s.Shadow.Side {
	case ShadowRight:
		dx = s.Shadow.Elevation
	case ShadowBottomRight:
		dx = s.Shadow.Elevation * math.Sqrt2 / 2
		dy = s.Shadow.Elevation * math.Sqrt2 / 2
	default:
		dy = s.Shadow.Elevation
	}

	col, ok := ParseColor(s.Shadow.Color)
	if !ok {
		col = Black
	}
	col.A *= s.Shadow.Intensity

	// Margin covers the blur falloff.
	margin := s.Shadow.Softness * 3
	sw := int(math.Ceil((ow + 2*margin) * ratio))
	sh := int(math.Ceil((oh + 2*margin) * ratio))
	if sw <= 0 || sh <= 0 {
		return
	}
	scratch := NewPixmap(sw, sh)
	sc := NewCanvas(scratch)
	sc.Scale(ratio, ratio)
	sc.FillRoundedRect(margin, margin, ow, oh, s.Subject.CornerRadius, col)
	scratch = BlurPixmap(scratch, s.Shadow.Softness*ratio)

	c.DrawPixmap(scratch, DrawPixmapOptions{
		Transform: Translate(ox-margin+dx, oy-margin+dy).Multiply(Scale(1/ratio, 1/ratio)),
		Opacity:   1,
	})
}

// renderTextOverlays stamps each visible text overlay in list order.
// Positions are percentages of the canvas and anchor the text center.
func renderTextOverlays(c *Canvas, s *Scene, ratio float64) {
	for i := range s.TextOverlays {
		t := &s.TextOverlays[i]
		if !t.Visible || t.Text == "" || t.Opacity <= 0 {
			continue
		}
		src := text.Resolve(t.FontFamily, t.FontWeight)
		face := src.Face(t.FontSize * ratio)

		col, ok := ParseColor(t.Color)
		if !ok {
			col = Black
		}
		px := t.X / 100 * float64(s.Width)
		py := t.Y / 100 * float64(s.Height)

		if t.Shadow.Enabled {
			shCol, ok := ParseColor(t.Shadow.Color)
			if !ok {
				shCol = Black.WithAlpha(0.5)
			}
			if sh := textPixmap(t.Text, face, shCol); sh != nil {
				sh = BlurPixmap(sh, t.Shadow.Blur*ratio)
				drawOverlayPixmap(c, sh, px+t.Shadow.OffsetX, py+t.Shadow.OffsetY,
					ratio, t.Opacity, t.Orientation)
			}
		}

		drawOverlayPixmap(c, textPixmap(t.Text, face, col), px, py, ratio, t.Opacity, t.Orientation)
	}
}

// textPixmap rasterizes a string, returning nil when the face has no
// usable source and nothing was laid out.
func textPixmap(s string, face text.Face, col RGBA) *Pixmap {
	img := text.Render(s, face, col.Color())
	if img == nil {
		return nil
	}
	return FromImage(img)
}

// drawOverlayPixmap draws a device-resolution bitmap centered at a preview
// coordinate. Vertical orientation rotates the layout box a quarter turn
// clockwise about the anchor.
func drawOverlayPixmap(c *Canvas, pm *Pixmap, px, py, ratio, opacity float64, o TextOrientation) {
	if pm == nil || pm.Width() == 0 || pm.Height() == 0 {
		return
	}
	m := Translate(px, py)
	if o == TextVertical {
		m = m.Multiply(Rotate(math.Pi / 2))
	}
	m = m.Multiply(Scale(1/ratio, 1/ratio))
	m = m.Multiply(Translate(-float64(pm.Width())/2, -float64(pm.Height())/2))
	c.DrawPixmap(pm, DrawPixmapOptions{Transform: m, Opacity: opacity})
}

// renderImageOverlays stamps each visible sticker in list order. Positions
// are the unrotated sticker's top-left in preview pixels; rotation and
// flips apply about the sticker center.
func renderImageOverlays(c *Canvas, s *Scene) {
	for i := range s.ImageOverlays {
		o := &s.ImageOverlays[i]
		if !o.Visible || o.Opacity <= 0 {
			continue
		}
		if o.Image == nil {
			logger().Warn("overlay image missing, skipping", "id", o.ID)
			continue
		}
		iw := float64(o.Image.Width())
		ih := float64(o.Image.Height())
		if iw == 0 || ih == 0 || o.Size <= 0 {
			continue
		}
		w := o.Size
		h := o.Size * ih / iw
		sx := w / iw
		sy := h / ih
		if o.FlipX {
			sx = -sx
		}
		if o.FlipY {
			sy = -sy
		}
		m := Translate(o.X+w/2, o.Y+h/2)
		if o.Rotation != 0 {
			m = m.Multiply(Rotate(radians(o.Rotation)))
		}
		m = m.Multiply(Scale(sx, sy))
		m = m.Multiply(Translate(-iw/2, -ih/2))
		c.DrawPixmap(o.Image, DrawPixmapOptions{Transform: m, Opacity: o.Opacity})
	}
}
