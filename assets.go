package stage

import (
	"context"

	"github.com/zhangzhang88/stage/internal/imageio"
)

// LoadImage decodes an image file (PNG, JPEG, GIF, WebP) into a pixmap.
// The context bounds the load; pass a deadline to cap worst-case hangs on
// slow storage. Asset loads are the only timeout boundary in the pipeline.
func LoadImage(ctx context.Context, path string) (*Pixmap, error) {
	img, err := imageio.DecodeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// DecodeImage decodes an in-memory encoded image into a pixmap.
func DecodeImage(data []byte) (*Pixmap, error) {
	img, err := imageio.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// ResizePixmap resamples a pixmap with Catmull-Rom interpolation. Meant
// for bringing oversized uploads down to working size; the rasterizer's
// own bilinear sampling handles per-draw scaling.
func ResizePixmap(pm *Pixmap, width, height int) *Pixmap {
	if pm == nil {
		return nil
	}
	return FromImage(imageio.Scale(pm.ToImage(), width, height))
}
