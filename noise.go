package stage

import "gonum.org/v1/gonum/stat/distuv"

// NoiseTexture generates a tileable grayscale grain texture.
//
// Each pixel samples a Gaussian centered at mid-gray with spread
// proportional to intensity (0 to 1), clamped to [0, 255] and written to
// equal R/G/B with opaque alpha. The distribution is deterministic but the
// samples are not: repeated calls produce visually similar, not identical,
// grain — matching how the live preview regenerates its grain overlay.
//
// Because grain is statistically uniform, hard tiling seams are invisible
// and no edge-aware smoothing is applied.
func NoiseTexture(width, height int, intensity float64) *Pixmap {
	pm := NewPixmap(width, height)
	intensity = clamp01(intensity)
	if intensity <= 0 {
		pm.Clear(RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1})
		return pm
	}

	dist := distuv.Normal{Mu: 128, Sigma: 64 * intensity}
	data := pm.Data()
	for i := 0; i < len(data); i += 4 {
		v := uint8(clamp255(dist.Rand()))
		data[i+0] = v
		data[i+1] = v
		data[i+2] = v
		data[i+3] = 255
	}
	return pm
}
