package text

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Measure returns the dimensions of a single line of text: shaped advance
// width and the font's line height (ascent + descent).
func Measure(s string, face Face) (width, height float64) {
	if s == "" || face.Source == nil {
		return 0, 0
	}
	width = Advance(s, face)

	otFace, err := newOTFace(face)
	if err != nil {
		return width, face.Size
	}
	defer func() {
		_ = otFace.Close()
	}()

	m := otFace.Metrics()
	height = fixedToFloat(m.Ascent) + fixedToFloat(m.Descent)

	// The drawer's own measurement can exceed the shaped width when the
	// rasterizer skips kerning; size for whichever is wider so glyphs never
	// clip.
	if w := fixedToFloat(font.MeasureString(otFace, s)); w > width {
		width = w
	}
	return width, height
}

// Render rasterizes a single line of text into a tight NRGBA image.
// The baseline sits at the face's ascent from the top edge. Returns nil
// for empty text or unusable fonts.
func Render(s string, face Face, col color.Color) *image.NRGBA {
	if s == "" || face.Source == nil {
		return nil
	}
	otFace, err := newOTFace(face)
	if err != nil {
		return nil
	}
	defer func() {
		_ = otFace.Close()
	}()

	m := otFace.Metrics()
	ascent := fixedToFloat(m.Ascent)
	descent := fixedToFloat(m.Descent)

	w, _ := Measure(s, face)
	width := int(w + 2)
	height := int(ascent + descent + 2)
	if width <= 0 || height <= 0 {
		return nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: otFace,
		Dot:  fixed.Point26_6{X: 0, Y: floatToFixed(ascent)},
	}
	d.DrawString(s)
	return dst
}

// newOTFace creates an x/image opentype face for rasterization.
// The returned face must be closed; it is not safe for concurrent use.
func newOTFace(face Face) (font.Face, error) {
	return opentype.NewFace(face.Source.parsed, &opentype.FaceOptions{
		Size:    face.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
