// Package text renders overlay text for the stage export pipeline.
//
// Shaping goes through go-text/typesetting for kerning-aware measurement;
// rasterization goes through golang.org/x/image/font. The package ships
// embedded Go fonts so headless exports never depend on system font
// discovery.
package text

import (
	"bytes"
	"fmt"
	"sync"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Source wraps one parsed font file. A Source is immutable and safe for
// concurrent use; per-size state lives in Face values.
type Source struct {
	name string
	data []byte

	// parsed is the x/image parse of the font, used for rasterization.
	parsed *sfnt.Font

	// gtOnce lazily parses the go-text representation used for shaping.
	gtOnce sync.Once
	gtFont *gtfont.Font
	gtErr  error
}

// NewSource parses TTF/OTF font data.
func NewSource(name string, data []byte) (*Source, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font %q: %w", name, err)
	}
	return &Source{name: name, data: data, parsed: parsed}, nil
}

// Name returns the source's display name.
func (s *Source) Name() string { return s.name }

// gotext returns the go-text font parse, creating it on first use.
// gtfont.Font is read-only and safe for concurrent use.
func (s *Source) gotext() (*gtfont.Font, error) {
	s.gtOnce.Do(func() {
		face, err := gtfont.ParseTTF(bytes.NewReader(s.data))
		if err != nil {
			s.gtErr = err
			return
		}
		s.gtFont = face.Font
	})
	return s.gtFont, s.gtErr
}

// Face binds a source to a pixel size.
func (s *Source) Face(size float64) Face {
	if size <= 0 {
		size = 16
	}
	return Face{Source: s, Size: size}
}

// Face is a sized view of a font source.
type Face struct {
	Source *Source
	Size   float64
}

var (
	defaultOnce    sync.Once
	regularSource  *Source
	mediumSource   *Source
	boldSource     *Source
	registryMu     sync.RWMutex
	familyRegistry = map[string]*Source{}
)

func initDefaults() {
	defaultOnce.Do(func() {
		// The embedded Go fonts always parse; a failure here is a build
		// defect, not a runtime condition.
		regularSource, _ = NewSource("Go Regular", goregular.TTF)
		mediumSource, _ = NewSource("Go Medium", gomedium.TTF)
		boldSource, _ = NewSource("Go Bold", gobold.TTF)
	})
}

// DefaultSource returns the embedded font matching a CSS-style weight:
// <500 regular, 500-600 medium, >600 bold.
func DefaultSource(weight int) *Source {
	initDefaults()
	switch {
	case weight > 600:
		return boldSource
	case weight >= 500:
		return mediumSource
	default:
		return regularSource
	}
}

// RegisterFamily makes a font source resolvable by family name.
func RegisterFamily(family string, src *Source) {
	registryMu.Lock()
	familyRegistry[family] = src
	registryMu.Unlock()
}

// Resolve returns the source for a family name, falling back to the
// embedded default for the weight when the family is unknown.
func Resolve(family string, weight int) *Source {
	registryMu.RLock()
	src := familyRegistry[family]
	registryMu.RUnlock()
	if src != nil {
		return src
	}
	return DefaultSource(weight)
}
