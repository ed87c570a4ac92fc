package stage

// Scene is the immutable snapshot of the editor state consumed by one
// export. It is read fresh when an export is invoked and never diffed or
// versioned: each export is an independent snapshot-to-bitmap pass.
type Scene struct {
	Subject       Subject
	Background    Background
	Frame         Frame
	Shadow        Shadow
	Pattern       Pattern
	Texture       Texture
	Perspective   Perspective
	TextOverlays  []TextOverlay
	ImageOverlays []ImageOverlay

	// Width and Height are the preview-space canvas dimensions derived
	// from the selected aspect-ratio preset.
	Width  int
	Height int
}

// NewScene creates a scene with neutral settings for the given preview
// canvas size.
func NewScene(width, height int) *Scene {
	return &Scene{
		Subject:    Subject{Scale: 1},
		Background: Background{Kind: BackgroundSolid, Value: "#ffffff", Opacity: 1},
		Frame:      Frame{Kind: FrameNone, Width: 4, Color: "#111111"},
		Pattern:    Pattern{Scale: 1, Opacity: 1},
		Texture:    Texture{Scale: 1, Opacity: 1},
		Perspective: Perspective{
			Distance: 1000,
			Scale:    1,
		},
		Width:  width,
		Height: height,
	}
}

// Subject is the uploaded image being composed.
type Subject struct {
	Image        *Pixmap
	Scale        float64
	OffsetX      float64
	OffsetY      float64
	Rotation     float64 // degrees
	CornerRadius float64 // px
}

// BackgroundKind enumerates the mutually exclusive background fills.
type BackgroundKind int

const (
	BackgroundSolid BackgroundKind = iota
	BackgroundGradient
	BackgroundImage
)

// String returns the kind name.
func (k BackgroundKind) String() string {
	switch k {
	case BackgroundSolid:
		return "solid"
	case BackgroundGradient:
		return "gradient"
	case BackgroundImage:
		return "image"
	default:
		return "unknown"
	}
}

// Background describes the bottom layer of the composition.
type Background struct {
	Kind BackgroundKind

	// Value holds the CSS-like color or gradient string for solid and
	// gradient kinds. It may use perceptual color spaces; the rasterizer
	// normalizes it to sRGB first.
	Value string

	// Image is the fill for BackgroundImage.
	Image *Pixmap

	Opacity      float64 // 0-1
	CornerRadius float64 // px
	Blur         float64 // px, 0 = absent
	Noise        float64 // 0-100, 0 = absent
}

// FrameKind enumerates the decorative frame styles.
type FrameKind int

const (
	FrameNone FrameKind = iota
	FrameSolid
	FrameGlassy
	FrameInfiniteMirror
	FrameWindow
	FrameStack
	FrameRuler
	FrameEclipse
	FrameDotted
	FrameFocus
)

// String returns the frame kind name.
func (k FrameKind) String() string {
	switch k {
	case FrameNone:
		return "none"
	case FrameSolid:
		return "solid"
	case FrameGlassy:
		return "glassy"
	case FrameInfiniteMirror:
		return "infinite-mirror"
	case FrameWindow:
		return "window"
	case FrameStack:
		return "stack"
	case FrameRuler:
		return "ruler"
	case FrameEclipse:
		return "eclipse"
	case FrameDotted:
		return "dotted"
	case FrameFocus:
		return "focus"
	default:
		return "unknown"
	}
}

// FrameTheme selects the light or dark rendition of themed frames.
type FrameTheme int

const (
	FrameThemeDark FrameTheme = iota
	FrameThemeLight
)

// Frame describes the decoration drawn around the subject.
type Frame struct {
	Kind    FrameKind
	Width   float64
	Color   string
	Theme   FrameTheme
	Padding float64

	// Title is shown by frame kinds with a title bar (window).
	Title string
}

// ShadowSide enumerates the directions the subject shadow can fall.
type ShadowSide int

const (
	ShadowBottom ShadowSide = iota
	ShadowRight
	ShadowBottomRight
)

// Shadow describes the drop shadow under the subject group.
type Shadow struct {
	Enabled   bool
	Elevation float64 // offset distance in px
	Side      ShadowSide
	Softness  float64 // blur radius in px
	Color     string
	Intensity float64 // 0-1 alpha multiplier
}

// Pattern describes the tiled decorative pattern layer. Tile generation is
// outside this library; the scene carries the produced tile bitmap.
type Pattern struct {
	Enabled  bool
	Tile     *Pixmap
	Scale    float64
	Spacing  float64 // extra gap between tiles in px
	Color    string  // informational; tiles arrive pre-colored
	Rotation float64 // degrees
	Blur     float64 // px
	Opacity  float64 // 0-1
}

// Texture is the standalone grain layer drawn above the pattern. It tiles
// the same way the pattern does and is independent of the background noise.
type Texture struct {
	Enabled   bool
	Intensity float64 // 0-100
	Scale     float64
	Opacity   float64 // 0-1
}

// Perspective describes the CSS-style 3D transform of the subject image.
// Identity values mean no 3D overlay is needed and the subject renders in
// the flat layer stack.
type Perspective struct {
	Distance   float64 // perspective distance in px
	RotateX    float64 // degrees
	RotateY    float64 // degrees
	RotateZ    float64 // degrees
	TranslateX float64 // percent of subject width
	TranslateY float64 // percent of subject height
	Scale      float64
}

// IsIdentity reports whether the transform has no visible effect.
func (p Perspective) IsIdentity() bool {
	return p.RotateX == 0 && p.RotateY == 0 && p.RotateZ == 0 &&
		p.TranslateX == 0 && p.TranslateY == 0 &&
		(p.Scale == 1 || p.Scale == 0)
}

// TextOrientation selects horizontal or vertical writing.
// Vertical is a distinct writing mode, not a rotation of the layout box.
type TextOrientation int

const (
	TextHorizontal TextOrientation = iota
	TextVertical
)

// TextShadow is the optional drop shadow behind overlay text.
type TextShadow struct {
	Enabled bool
	OffsetX float64
	OffsetY float64
	Blur    float64
	Color   string
}

// TextOverlay is one text element stamped over the composition.
// Overlays render in list order; later entries paint on top.
type TextOverlay struct {
	ID          string
	Text        string
	X           float64 // percent of canvas width
	Y           float64 // percent of canvas height
	FontSize    float64
	FontWeight  int
	FontFamily  string
	Color       string
	Opacity     float64
	Visible     bool
	Orientation TextOrientation
	Shadow      TextShadow
}

// ImageOverlay is one sticker element stamped over the composition.
type ImageOverlay struct {
	ID       string
	Image    *Pixmap
	X        float64 // px
	Y        float64 // px
	Size     float64 // target width in px; height keeps aspect
	Rotation float64 // degrees
	Opacity  float64
	FlipX    bool
	FlipY    bool
	Visible  bool
}

// Normalize clamps every field to its valid range and rewrites color values
// to raster-safe sRGB. It returns the scene for chaining. Zero blur, noise
// and shadow values mean "effect absent", never a zero-sized visible effect.
func (s *Scene) Normalize() *Scene {
	s.Subject.Scale = positive(s.Subject.Scale, 1)
	if s.Subject.CornerRadius < 0 {
		s.Subject.CornerRadius = 0
	}

	s.Background.Opacity = clamp01(s.Background.Opacity)
	s.Background.Value = NormalizeColorValue(s.Background.Value)
	if s.Background.Blur < 0 {
		s.Background.Blur = 0
	}
	if s.Background.Noise < 0 {
		s.Background.Noise = 0
	} else if s.Background.Noise > 100 {
		s.Background.Noise = 100
	}
	if s.Background.CornerRadius < 0 {
		s.Background.CornerRadius = 0
	}

	if s.Frame.Width < 0 {
		s.Frame.Width = 0
	}
	s.Frame.Color = NormalizeColorValue(s.Frame.Color)

	s.Shadow.Intensity = clamp01(s.Shadow.Intensity)
	if s.Shadow.Softness < 0 {
		s.Shadow.Softness = 0
	}
	if s.Shadow.Elevation < 0 {
		s.Shadow.Elevation = 0
	}
	s.Shadow.Color = NormalizeColorValue(s.Shadow.Color)

	s.Pattern.Opacity = clamp01(s.Pattern.Opacity)
	s.Pattern.Scale = positive(s.Pattern.Scale, 1)
	if s.Pattern.Blur < 0 {
		s.Pattern.Blur = 0
	}
	if s.Pattern.Spacing < 0 {
		s.Pattern.Spacing = 0
	}

	s.Texture.Opacity = clamp01(s.Texture.Opacity)
	s.Texture.Scale = positive(s.Texture.Scale, 1)
	if s.Texture.Intensity < 0 {
		s.Texture.Intensity = 0
	} else if s.Texture.Intensity > 100 {
		s.Texture.Intensity = 100
	}

	s.Perspective.Scale = positive(s.Perspective.Scale, 1)
	s.Perspective.Distance = positive(s.Perspective.Distance, 1000)

	for i := range s.TextOverlays {
		t := &s.TextOverlays[i]
		t.Opacity = clamp01(t.Opacity)
		t.Color = NormalizeColorValue(t.Color)
		t.Shadow.Color = NormalizeColorValue(t.Shadow.Color)
		if t.FontSize <= 0 {
			t.FontSize = 16
		}
	}
	for i := range s.ImageOverlays {
		o := &s.ImageOverlays[i]
		o.Opacity = clamp01(o.Opacity)
		if o.Size < 0 {
			o.Size = 0
		}
	}
	return s
}

// Clone returns a value copy of the scene with copied overlay slices.
// Pixmap references are shared: snapshots treat pixel buffers as immutable.
func (s *Scene) Clone() *Scene {
	out := *s
	out.TextOverlays = append([]TextOverlay(nil), s.TextOverlays...)
	out.ImageOverlays = append([]ImageOverlay(nil), s.ImageOverlays...)
	return &out
}

// positive returns v when v > 0, otherwise fallback.
func positive(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}
