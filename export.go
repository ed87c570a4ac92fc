package stage

import (
	"encoding/base64"
	"fmt"
	"math"
	"sync"
	"time"
)

// Surface is the live rendering surface handle. The caller owns its
// lifecycle and binds it to a Stage; exports borrow it for the duration of
// one pass. It may be temporarily unbound, in which case exports fail with
// ErrNoSurface.
type Surface struct {
	// Width and Height are the live preview dimensions in pixels.
	Width  int
	Height int

	// Noise is the grain tile currently shown in the preview. When set,
	// exports reuse it for exact visual parity; when nil, grain is
	// regenerated with the same distribution.
	Noise *Pixmap
}

// NewSurface creates a surface with the given preview dimensions and no
// live noise tile.
func NewSurface(width, height int) *Surface {
	return &Surface{Width: width, Height: height}
}

// Result is the outcome of a successful export.
type Result struct {
	// DataURL is a data:image/png;base64 URL for immediate client use.
	DataURL string

	// Blob holds the encoded PNG bytes.
	Blob []byte

	// Width and Height are the output bitmap dimensions in pixels.
	Width  int
	Height int

	// FileName is the suggested download name, "stage-<epoch-ms>.png".
	FileName string
}

// ExportEvent describes one completed export for analytics sinks.
type ExportEvent struct {
	Format  string
	Quality float64
	Scale   float64
	Aspect  string
}

// AnalyticsFunc receives export events. Sinks are best-effort: panics and
// errors inside a sink never affect the export.
type AnalyticsFunc func(ExportEvent)

// Stage orchestrates exports. It serializes them: a second Export while
// one is in flight fails with ErrExportInFlight instead of queueing.
type Stage struct {
	mu        sync.Mutex
	exporting bool
	surface   *Surface
	store     *Store
	analytics AnalyticsFunc
}

// New creates a stage with no surface bound.
func New() *Stage {
	return &Stage{}
}

// BindSurface attaches (or detaches, with nil) the live rendering surface.
func (st *Stage) BindSurface(s *Surface) {
	st.mu.Lock()
	st.surface = s
	st.mu.Unlock()
}

// Surface returns the currently bound surface, which may be nil.
func (st *Stage) Surface() *Surface {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.surface
}

// SetStore configures the default persistence target for exports.
func (st *Stage) SetStore(s *Store) {
	st.mu.Lock()
	st.store = s
	st.mu.Unlock()
}

// SetAnalytics configures the analytics sink.
func (st *Stage) SetAnalytics(fn AnalyticsFunc) {
	st.mu.Lock()
	st.analytics = fn
	st.mu.Unlock()
}

// AspectAuto sizes the export to the preview canvas aspect.
const AspectAuto = "auto"

// aspectPreset is one fixed export resolution.
type aspectPreset struct {
	width, height int
}

// aspectPresets is the closed table of export resolutions. Freehand
// dimensions are not supported in the hard export path.
var aspectPresets = map[string]aspectPreset{
	"1:1":    {2000, 2000},
	"4:3":    {2400, 1800},
	"3:2":    {2400, 1600},
	"16:9":   {2560, 1440},
	"9:16":   {1440, 2560},
	"4:5":    {1600, 2000},
	"1.91:1": {2292, 1200},
}

// aspectDimensions resolves a preset name to export dimensions. Auto uses
// the scene's preview canvas scaled to the largest preset edge.
func aspectDimensions(name string, scene *Scene) (w, h int, err error) {
	if name == "" || name == AspectAuto {
		if scene.Width <= 0 || scene.Height <= 0 {
			return 0, 0, fmt.Errorf("aspect auto with %dx%d canvas: %w",
				scene.Width, scene.Height, ErrInvalidAspect)
		}
		const longEdge = 2400
		if scene.Width >= scene.Height {
			return longEdge, int(math.Round(longEdge * float64(scene.Height) / float64(scene.Width))), nil
		}
		return int(math.Round(longEdge * float64(scene.Width) / float64(scene.Height))), longEdge, nil
	}
	p, ok := aspectPresets[name]
	if !ok {
		return 0, 0, fmt.Errorf("aspect %q: %w", name, ErrInvalidAspect)
	}
	return p.width, p.height, nil
}

// exportOptions is the resolved option set for one export.
type exportOptions struct {
	format    string
	quality   float64
	scale     float64
	aspect    string
	store     *Store
	analytics AnalyticsFunc
}

// ExportOption configures one export call.
type ExportOption func(*exportOptions)

// WithScale sets the resolution multiplier (≥ 1; lower values clamp to 1).
func WithScale(s float64) ExportOption {
	return func(o *exportOptions) {
		if s >= 1 {
			o.scale = s
		} else {
			o.scale = 1
		}
	}
}

// WithQuality sets the encoder quality in (0, 1]. PNG is lossless, so the
// value is recorded but does not change the bytes.
func WithQuality(q float64) ExportOption {
	return func(o *exportOptions) {
		if q > 0 && q <= 1 {
			o.quality = q
		}
	}
}

// WithFormat sets the output format. Only "png" is supported.
func WithFormat(f string) ExportOption {
	return func(o *exportOptions) { o.format = f }
}

// WithAspect selects an export resolution preset ("1:1", "16:9", …, or
// AspectAuto).
func WithAspect(name string) ExportOption {
	return func(o *exportOptions) { o.aspect = name }
}

// WithStore overrides the stage's persistence target for one export.
func WithStore(s *Store) ExportOption {
	return func(o *exportOptions) { o.store = s }
}

const pngDataURLPrefix = "data:image/png;base64,"

// Export renders the scene at export resolution and encodes it to PNG.
//
// The pipeline is strictly ordered: rasterize the flat stack, paste the
// projected subject when a 3D transform is active, encode, then run
// best-effort side effects (store, analytics) which can never fail the
// export. A 3D projection failure degrades the output with a warning
// instead of aborting.
func (st *Stage) Export(scene *Scene, opts ...ExportOption) (*Result, error) {
	o := exportOptions{format: "png", quality: 1, scale: 1, aspect: AspectAuto}
	for _, opt := range opts {
		opt(&o)
	}
	if o.format != "png" {
		return nil, fmt.Errorf("format %q: %w", o.format, ErrEncodeFailed)
	}

	st.mu.Lock()
	if st.exporting {
		st.mu.Unlock()
		return nil, ErrExportInFlight
	}
	st.exporting = true
	surface := st.surface
	if o.store == nil {
		o.store = st.store
	}
	o.analytics = st.analytics
	st.mu.Unlock()
	defer func() {
		st.mu.Lock()
		st.exporting = false
		st.mu.Unlock()
	}()

	if surface == nil {
		return nil, fmt.Errorf("export: %w", ErrNoSurface)
	}
	if scene == nil || scene.Subject.Image == nil {
		return nil, fmt.Errorf("export: no image uploaded yet: %w", ErrNoTarget)
	}

	exportW, exportH, err := aspectDimensions(o.aspect, scene)
	if err != nil {
		return nil, err
	}
	liveW := surface.Width
	liveH := surface.Height
	if liveW <= 0 || liveH <= 0 {
		liveW, liveH = scene.Width, scene.Height
	}
	ratio := o.scale * math.Max(float64(exportW)/float64(liveW), float64(exportH)/float64(liveH))

	logger().Info("export started",
		"aspect", o.aspect, "scale", o.scale, "ratio", ratio,
		"target", fmt.Sprintf("%dx%d", exportW, exportH))

	pm, err := RenderScene(scene, ratio, surface)
	if err != nil {
		return nil, err
	}

	if !scene.Perspective.IsIdentity() {
		if err := pasteProjectedSubject(pm, scene, ratio); err != nil {
			logger().Warn("projected subject unavailable, exporting without it", "err", err)
		}
	}

	blob, err := pm.EncodePNG()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	dataURL := pngDataURLPrefix + base64.StdEncoding.EncodeToString(blob)
	if len(dataURL) <= len(pngDataURLPrefix)+16 {
		return nil, fmt.Errorf("degenerate output: %w", ErrEncodeFailed)
	}

	res := &Result{
		DataURL:  dataURL,
		Blob:     blob,
		Width:    pm.Width(),
		Height:   pm.Height(),
		FileName: fmt.Sprintf("stage-%d.png", time.Now().UnixMilli()),
	}

	logger().Info("export finished", "bytes", len(res.Blob),
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height))

	st.persist(o, res)
	st.record(o)
	return res, nil
}

// pasteProjectedSubject renders the subject through the backend registry
// and composites it over the flat stack at the measured offset. The flat
// subject was suppressed during rasterization, so this supplies its
// pixels.
func pasteProjectedSubject(pm *Pixmap, scene *Scene, ratio float64) error {
	s := scene.Clone().Normalize()
	x, y, w, h := subjectRect(s)

	layer := Layer{
		Source:       s.Subject.Image,
		Perspective:  s.Perspective,
		CornerRadius: s.Subject.CornerRadius * float64(s.Subject.Image.Width()) / w,
	}
	dw := int(math.Round(w * ratio))
	dh := int(math.Round(h * ratio))
	overlay, err := renderLayer(layer, dw, dh)
	if err != nil {
		return err
	}
	bounds, err := PerspectiveBounds(s.Perspective, float64(dw), float64(dh))
	if err != nil {
		return err
	}
	if rot := s.Subject.Rotation; rot != 0 {
		// The flat stack rotates the frame and shadow about the subject
		// center, so the projected pixels follow the same pivot.
		c := NewCanvas(pm)
		c.RotateAbout(radians(rot), (x+w/2)*ratio, (y+h/2)*ratio)
		c.DrawPixmap(overlay, DrawPixmapOptions{
			Transform: Translate(x*ratio+bounds.X, y*ratio+bounds.Y),
			Opacity:   1,
		})
		return nil
	}
	Paste(pm, overlay,
		int(math.Round(x*ratio+bounds.X)),
		int(math.Round(y*ratio+bounds.Y)))
	return nil
}

// persist writes the export to the configured store, best-effort.
func (st *Stage) persist(o exportOptions, res *Result) {
	if o.store == nil {
		return
	}
	rec := ExportRecord{
		FileName:  res.FileName,
		Format:    o.format,
		Quality:   o.quality,
		Scale:     o.scale,
		CreatedAt: time.Now(),
	}
	if _, err := o.store.Save(rec, res.Blob); err != nil {
		logger().Warn("export persistence failed", "err", err)
	}
}

// record emits the analytics event, swallowing anything the sink does.
func (st *Stage) record(o exportOptions) {
	if o.analytics == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	o.analytics(ExportEvent{
		Format:  o.format,
		Quality: o.quality,
		Scale:   o.scale,
		Aspect:  o.aspect,
	})
}

// CopyToClipboard writes a PNG blob to the platform clipboard. There is no
// portable headless clipboard, so this always reports the unsupported
// error; callers surface it instead of silently doing nothing.
func CopyToClipboard([]byte) error {
	return ErrClipboardUnsupported
}
