// Package imageio decodes and scales the raster assets consumed by the
// export pipeline: the uploaded subject image, sticker overlays, background
// images and pattern tiles.
package imageio

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"

	// Decoders for the formats the editor accepts as uploads.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode reads an image in any registered format (PNG, JPEG, GIF, WebP)
// and returns it as NRGBA.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imageio: decode: %w", err)
	}
	return ToNRGBA(img), nil
}

// DecodeBytes decodes an in-memory encoded image.
func DecodeBytes(data []byte) (*image.NRGBA, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeFile decodes an image file. The context bounds how long the load
// may take; decoding is not interruptible mid-stream, so the deadline is
// checked before the read starts.
func DecodeFile(ctx context.Context, path string) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("imageio: load %s: %w", path, err)
	}
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("imageio: load %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Decode(f)
}

// ToNRGBA converts any image to NRGBA without scaling.
func ToNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	bounds := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(out, out.Bounds(), img, bounds.Min, xdraw.Src)
	return out
}

// Scale resamples an image to the given dimensions with Catmull-Rom
// interpolation. Used when the export resolution differs from the asset's
// native resolution; edges stay crisp compared to bilinear upscaling.
func Scale(img image.Image, width, height int) *image.NRGBA {
	if width <= 0 || height <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return ToNRGBA(img)
	}
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, bounds, xdraw.Src, nil)
	return out
}
