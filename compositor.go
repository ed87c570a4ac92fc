package stage

import (
	"github.com/zhangzhang88/stage/internal/blend"
	"github.com/zhangzhang88/stage/internal/filter"
)

// Compositor post-processing for rendered layers. Every function returns
// the input pixmap unchanged when its parameter is neutral, so callers can
// chain them without special-casing defaults. Effects that change pixels
// allocate a new pixmap and leave the input intact.
//
// Ordering matters: blur is applied before noise, so grain stays crisp on
// top of a softened layer. OverlayNoise must never run before BlurPixmap.

// BlurPixmap applies a Gaussian blur with the given radius in pixels.
// A radius of zero or less is a no-op.
func BlurPixmap(pm *Pixmap, radius float64) *Pixmap {
	if pm == nil || radius <= 0 {
		return pm
	}
	out := NewPixmap(pm.Width(), pm.Height())
	copy(out.Data(), filter.Blur(pm.Data(), pm.Width(), pm.Height(), radius))
	return out
}

// ScaleAlpha multiplies every pixel's alpha by opacity in [0, 1].
// Opacity at or above 1 is a no-op.
func ScaleAlpha(pm *Pixmap, opacity float64) *Pixmap {
	if pm == nil || opacity >= 1 {
		return pm
	}
	if opacity < 0 {
		opacity = 0
	}
	out := pm.Clone()
	data := out.Data()
	for i := 3; i < len(data); i += 4 {
		data[i] = uint8(float64(data[i])*opacity + 0.5)
	}
	return out
}

// OverlayNoise blends a grain texture over the pixmap using the overlay
// blend mode, with the grain's alpha scaled by intensity in [0, 100].
// The texture tiles when smaller than the target. Intensity at or below
// zero is a no-op.
func OverlayNoise(pm, noise *Pixmap, intensity float64) *Pixmap {
	if pm == nil || noise == nil || intensity <= 0 {
		return pm
	}
	if intensity > 100 {
		intensity = 100
	}
	alpha := byte(intensity/100*255 + 0.5)

	w, h := pm.Width(), pm.Height()
	nw, nh := noise.Width(), noise.Height()
	if nw == 0 || nh == 0 {
		return pm
	}
	out := pm.Clone()
	dst := out.Data()
	src := noise.Data()
	for y := 0; y < h; y++ {
		ny := (y % nh) * nw * 4
		row := y * w * 4
		for x := 0; x < w; x++ {
			si := ny + (x%nw)*4
			di := row + x*4
			sa := blend.MulDiv255(src[si+3], alpha)
			if sa == 0 {
				continue
			}
			dst[di], dst[di+1], dst[di+2], dst[di+3] = blend.Overlay(
				src[si], src[si+1], src[si+2], sa,
				dst[di], dst[di+1], dst[di+2], dst[di+3])
		}
	}
	return out
}

// Paste composites src over dst with its top-left corner at (x, y),
// modifying dst in place. Regions outside dst are clipped.
func Paste(dst, src *Pixmap, x, y int) {
	if dst == nil || src == nil {
		return
	}
	dd := dst.Data()
	sd := src.Data()
	for sy := 0; sy < src.Height(); sy++ {
		dy := y + sy
		if dy < 0 || dy >= dst.Height() {
			continue
		}
		for sx := 0; sx < src.Width(); sx++ {
			dx := x + sx
			if dx < 0 || dx >= dst.Width() {
				continue
			}
			si := (sy*src.Width() + sx) * 4
			if sd[si+3] == 0 {
				continue
			}
			di := (dy*dst.Width() + dx) * 4
			dd[di], dd[di+1], dd[di+2], dd[di+3] = blend.SourceOver(
				sd[si], sd[si+1], sd[si+2], sd[si+3],
				dd[di], dd[di+1], dd[di+2], dd[di+3])
		}
	}
}
