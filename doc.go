// Package stage renders layered visual compositions to raster images.
//
// # Overview
//
// stage is the export pipeline behind a screenshot-beautifier style editor:
// a subject image is placed over a styled background (solid, gradient or
// image) and decorated with a frame, shadow, tiled pattern, film-grain
// noise, text overlays, sticker overlays and an optional 3D perspective
// transform. One call turns that description into a deterministic,
// high-resolution PNG.
//
// # Quick Start
//
//	import "github.com/zhangzhang88/stage"
//
//	scene := stage.NewScene(800, 600)
//	scene.Subject.Image = subject // *stage.Pixmap
//	scene.Background.Kind = stage.BackgroundSolid
//	scene.Background.Value = "#336699"
//
//	st := stage.New()
//	st.BindSurface(stage.NewSurface(800, 600))
//	res, err := st.Export(scene, stage.WithScale(2))
//	if err != nil {
//		log.Fatal(err)
//	}
//	os.WriteFile(res.FileName, res.Blob, 0o644)
//
// # Architecture
//
// The library is organized into:
//   - Public API: Scene, Stage, Surface, Pixmap, Result
//   - Rendering: layer rasterizer, frame renderers, compositor
//   - Backends: capability-gated layer renderers (raster, perspective)
//   - Internal: blend (compositing), filter (blur), imageio (decode/scale)
//
// # Coordinate System
//
// Uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - Rotations in degrees, positive clockwise (CSS convention)
//
// # Rendering Backends
//
// The software rasterizer draws every layer except the perspective-
// transformed subject, which no 2D canvas can express. That one layer is
// routed through a secondary backend selected by capability (see
// RegisterBackend); the built-in perspective backend reprojects the subject
// with a homography warp. A failed perspective render degrades the export
// instead of failing it.
package stage

// Version is the current version of the library.
const Version = "0.3.0"
