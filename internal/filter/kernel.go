// Package filter provides raster post-processing filters (Gaussian blur).
package filter

import (
	"math"
	"sync"
)

// GaussianKernel generates a 1D Gaussian kernel for the given radius.
// The kernel is normalized so all values sum to 1.0.
//
// The kernel size is computed as 2 * ceil(radius * 3) + 1, which covers
// 99.7% of the Gaussian distribution (3 standard deviations).
//
// For radius <= 0, returns a single-element kernel [1.0] (identity).
func GaussianKernel(radius float64) []float32 {
	if radius <= 0 {
		return []float32{1.0}
	}

	sigma := radius
	halfSize := int(math.Ceil(sigma * 3))
	size := halfSize*2 + 1

	kernel := make([]float32, size)

	// G(x) = exp(-x²/(2σ²)); the constant factor drops out in normalization.
	twoSigmaSq := 2 * sigma * sigma
	sum := float64(0)

	for i := 0; i < size; i++ {
		x := float64(i - halfSize)
		val := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(val)
		sum += val
	}

	if sum > 0 {
		invSum := float32(1.0 / sum)
		for i := range kernel {
			kernel[i] *= invSum
		}
	}

	return kernel
}

// kernelCache caches computed Gaussian kernels to avoid recomputation.
// Key is radius * 100 to sidestep float key precision.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[int][]float32
	maxLen int
}

var defaultKernelCache = &kernelCache{
	cache:  make(map[int][]float32),
	maxLen: 64,
}

// CachedGaussianKernel returns a Gaussian kernel, reusing a cached one when
// the same radius was requested before.
func CachedGaussianKernel(radius float64) []float32 {
	key := int(radius * 100)

	defaultKernelCache.mu.RLock()
	k, ok := defaultKernelCache.cache[key]
	defaultKernelCache.mu.RUnlock()
	if ok {
		return k
	}

	k = GaussianKernel(radius)

	defaultKernelCache.mu.Lock()
	if len(defaultKernelCache.cache) >= defaultKernelCache.maxLen {
		defaultKernelCache.cache = make(map[int][]float32)
	}
	defaultKernelCache.cache[key] = k
	defaultKernelCache.mu.Unlock()

	return k
}
