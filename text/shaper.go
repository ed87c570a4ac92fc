package text

import (
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// ShapedGlyph is one positioned glyph produced by shaping.
type ShapedGlyph struct {
	// GID is the glyph index in the font.
	GID uint32

	// X is the horizontal pen position relative to the text origin.
	X float64

	// XAdvance is the horizontal advance to the next glyph.
	XAdvance float64
}

// shaperPool pools HarfbuzzShaper instances: they carry internal mutable
// buffers and are not safe for concurrent use, but reuse across sequential
// calls avoids reallocating them.
var shaperPool = sync.Pool{
	New: func() any {
		return &shaping.HarfbuzzShaper{}
	},
}

// Shape converts text into positioned glyphs with HarfBuzz shaping via
// go-text/typesetting, picking up kerning, ligatures and RTL reordering.
// Returns nil when the face's font cannot be parsed for shaping.
func Shape(s string, face Face) []ShapedGlyph {
	if s == "" || face.Source == nil {
		return nil
	}
	gt, err := face.Source.gotext()
	if err != nil {
		return nil
	}

	// gtfont.Face is not safe for concurrent use; build a lightweight one
	// per call around the shared read-only Font.
	gtFace := gtfont.NewFace(gt)

	runes := []rune(s)
	dir := di.DirectionLTR
	if isRTL(s) {
		dir = di.DirectionRTL
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      gtFace,
		Size:      floatToFixed(face.Size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	shaperPool.Put(hb)

	glyphs := make([]ShapedGlyph, len(output.Glyphs))
	var x float64
	for i, g := range output.Glyphs {
		adv := fixedToFloat(g.XAdvance)
		glyphs[i] = ShapedGlyph{
			GID:      uint32(g.GlyphID),
			X:        x + fixedToFloat(g.XOffset),
			XAdvance: adv,
		}
		x += adv
	}
	return glyphs
}

// Advance returns the shaped advance width of a string.
func Advance(s string, face Face) float64 {
	var w float64
	for _, g := range Shape(s, face) {
		w += g.XAdvance
	}
	return w
}

// isRTL reports whether the string's base direction is right-to-left.
func isRTL(s string) bool {
	p := bidi.Paragraph{}
	if _, err := p.SetString(s); err != nil {
		return false
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return false
	}
	run := ordering.Run(0)
	return run.Direction() == bidi.RightToLeft
}

// detectScript inspects the runes and returns the script of the first
// non-space character.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// floatToFixed converts a float64 to 26.6 fixed point.
func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// fixedToFloat converts 26.6 fixed point to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
