package stage

import (
	"fmt"
	"sync"
)

// Layer describes one rendering job handed to a backend. The flat raster
// backend handles everything except perspective-transformed layers, which
// it cannot express; those route to the perspective backend.
type Layer struct {
	// Source is the bitmap content of the layer.
	Source *Pixmap

	// Perspective is the 3D transform applied to the layer, identity for
	// flat layers.
	Perspective Perspective

	// CornerRadius rounds the source's corners before transforming.
	CornerRadius float64
}

// LayerBackend renders a single layer at a target size. Backends declare
// which layers they can express via CanRender; the dispatcher tries
// backends in registration order and uses the first that accepts.
type LayerBackend interface {
	// Name returns the backend identifier (e.g. "raster", "perspective").
	Name() string

	// CanRender reports whether this backend can express the layer.
	// This is a fast capability check, not a validation pass.
	CanRender(layer Layer) bool

	// Render produces the layer's pixels at the given size.
	Render(layer Layer, width, height int) (*Pixmap, error)
}

var (
	backendMu sync.RWMutex
	backends  []LayerBackend
)

func init() {
	// Registration order is the dispatch order: the flat rasterizer gets
	// first refusal, the perspective warper handles what it declines.
	RegisterBackend(rasterBackend{})
	RegisterBackend(perspectiveBackend{})
}

// RegisterBackend appends a layer backend to the dispatch chain.
// Registration is typically done in package init; replacing the built-in
// chain is supported for tests.
func RegisterBackend(b LayerBackend) {
	backendMu.Lock()
	backends = append(backends, b)
	backendMu.Unlock()
}

// renderLayer dispatches a layer to the first backend that accepts it.
func renderLayer(layer Layer, width, height int) (*Pixmap, error) {
	backendMu.RLock()
	chain := backends
	backendMu.RUnlock()

	for _, b := range chain {
		if !b.CanRender(layer) {
			continue
		}
		pm, err := b.Render(layer, width, height)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", b.Name(), err)
		}
		return pm, nil
	}
	return nil, ErrBackendUnavailable
}

// rasterBackend renders flat layers by plain scaling.
type rasterBackend struct{}

func (rasterBackend) Name() string { return "raster" }

// CanRender declines any layer whose transform the 2D sampler cannot
// express.
func (rasterBackend) CanRender(layer Layer) bool {
	return layer.Perspective.IsIdentity()
}

func (rasterBackend) Render(layer Layer, width, height int) (*Pixmap, error) {
	if layer.Source == nil {
		return nil, fmt.Errorf("raster: %w", ErrNoTarget)
	}
	out := NewPixmap(width, height)
	c := NewCanvas(out)
	sx := float64(width) / float64(layer.Source.Width())
	sy := float64(height) / float64(layer.Source.Height())
	c.DrawPixmap(layer.Source, DrawPixmapOptions{
		Transform:    Scale(sx, sy),
		Opacity:      1,
		CornerRadius: layer.CornerRadius,
	})
	return out, nil
}
