package filter

// Blur applies a separable Gaussian blur to a straight RGBA pixel buffer
// and returns a new buffer; the input is never mutated. The two-pass
// separable algorithm runs in O(w*h*r) instead of O(w*h*r²).
//
// Channels are premultiplied before convolution and unpremultiplied after,
// so transparent regions do not bleed their (meaningless) color values into
// visible pixels.
func Blur(src []uint8, width, height int, radius float64) []uint8 {
	out := make([]uint8, len(src))
	if radius <= 0 || width == 0 || height == 0 {
		copy(out, src)
		return out
	}

	kernel := CachedGaussianKernel(radius)
	half := len(kernel) / 2

	// Premultiplied float working buffers.
	work := make([]float32, width*height*4)
	for i := 0; i < width*height; i++ {
		a := float32(src[i*4+3]) / 255
		work[i*4+0] = float32(src[i*4+0]) * a
		work[i*4+1] = float32(src[i*4+1]) * a
		work[i*4+2] = float32(src[i*4+2]) * a
		work[i*4+3] = float32(src[i*4+3])
	}

	temp := make([]float32, len(work))

	// Pass 1: horizontal (work -> temp). Edge pixels clamp to the border.
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, w := range kernel {
				sx := x + k - half
				if sx < 0 {
					sx = 0
				} else if sx >= width {
					sx = width - 1
				}
				i := (row + sx) * 4
				r += work[i+0] * w
				g += work[i+1] * w
				b += work[i+2] * w
				a += work[i+3] * w
			}
			i := (row + x) * 4
			temp[i+0] = r
			temp[i+1] = g
			temp[i+2] = b
			temp[i+3] = a
		}
	}

	// Pass 2: vertical (temp -> out), unpremultiplying on the way out.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var r, g, b, a float32
			for k, w := range kernel {
				sy := y + k - half
				if sy < 0 {
					sy = 0
				} else if sy >= height {
					sy = height - 1
				}
				i := (sy*width + x) * 4
				r += temp[i+0] * w
				g += temp[i+1] * w
				b += temp[i+2] * w
				a += temp[i+3] * w
			}
			i := (y*width + x) * 4
			if a > 0.001 {
				alpha := a / 255
				out[i+0] = clampByte(r / alpha)
				out[i+1] = clampByte(g / alpha)
				out[i+2] = clampByte(b / alpha)
				out[i+3] = clampByte(a)
			}
		}
	}

	return out
}

func clampByte(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
