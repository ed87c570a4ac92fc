package stage

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// errDegenerateQuad is returned when the perspective transform pushes the
// layer behind the camera or collapses it to a line. The orchestrator
// treats any perspective failure as a recoverable degradation.
var errDegenerateQuad = errors.New("stage: perspective transform produces a degenerate quad")

// Rect is an axis-aligned rectangle in layer coordinates.
type Rect struct {
	X, Y, W, H float64
}

// perspectiveBackend reprojects a layer through a CSS-style 3D transform.
// It is the secondary renderer behind the capability gate: the flat raster
// backend declines these layers because a 2D affine sampler cannot express
// a perspective divide.
type perspectiveBackend struct{}

func (perspectiveBackend) Name() string { return "perspective" }

func (perspectiveBackend) CanRender(layer Layer) bool {
	return !layer.Perspective.IsIdentity()
}

// Render projects the source onto its perspective quad. The output bitmap
// covers the quad's bounding box; PerspectiveBounds reports where that box
// sits relative to the untransformed layer so the compositor can paste it.
func (perspectiveBackend) Render(layer Layer, width, height int) (*Pixmap, error) {
	if layer.Source == nil {
		return nil, fmt.Errorf("perspective: %w", ErrNoTarget)
	}
	quad, err := perspectiveQuad(layer.Perspective, float64(width), float64(height))
	if err != nil {
		return nil, err
	}
	bounds := quadBounds(quad)
	outW := int(math.Ceil(bounds.W))
	outH := int(math.Ceil(bounds.H))
	if outW <= 0 || outH <= 0 {
		return nil, errDegenerateQuad
	}

	// Shift the quad into the output bitmap's local space.
	var local [4][2]float64
	for i, p := range quad {
		local[i] = [2]float64{p[0] - bounds.X, p[1] - bounds.Y}
	}

	sw := float64(layer.Source.Width())
	sh := float64(layer.Source.Height())
	src := [4][2]float64{{0, 0}, {sw, 0}, {sw, sh}, {0, sh}}

	// Inverse mapping: destination pixel -> source coordinate.
	hm, err := solveHomography(local, src)
	if err != nil {
		return nil, err
	}

	r := math.Min(layer.CornerRadius, math.Min(sw, sh)/2)
	out := NewPixmap(outW, outH)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			sx, sy, ok := hm.apply(float64(x)+0.5, float64(y)+0.5)
			if !ok {
				continue
			}
			cov := smoothstepCoverage(sdfRRect(sx, sy, sw/2, sh/2, sw/2, sh/2, r))
			if cov <= 0 {
				continue
			}
			col := sampleBilinear(layer.Source, sx, sy)
			col.A *= cov
			out.BlendPixel(x, y, col)
		}
	}
	return out, nil
}

// PerspectiveBounds returns the bounding box of the projected quad for a
// layer of the given untransformed size, in the layer's own coordinate
// space (origin at the layer's top-left). The caller scales this rect by
// the pixel ratio to position the rendered overlay.
func PerspectiveBounds(p Perspective, width, height float64) (Rect, error) {
	quad, err := perspectiveQuad(p, width, height)
	if err != nil {
		return Rect{}, err
	}
	return quadBounds(quad), nil
}

// perspectiveQuad projects the corners of a width×height layer through the
// CSS transform chain perspective(d) rotateX rotateY rotateZ translate
// scale, with the transform origin at the layer center.
func perspectiveQuad(p Perspective, width, height float64) ([4][2]float64, error) {
	m := mat4Identity()
	m = m.mul(mat4RotateX(radians(p.RotateX)))
	m = m.mul(mat4RotateY(radians(p.RotateY)))
	m = m.mul(mat4RotateZ(radians(p.RotateZ)))
	m = m.mul(mat4Translate(p.TranslateX/100*width, p.TranslateY/100*height, 0))
	scale := p.Scale
	if scale <= 0 {
		scale = 1
	}
	m = m.mul(mat4Scale(scale))

	d := p.Distance
	if d <= 0 {
		d = 1000
	}

	corners := [4][2]float64{
		{-width / 2, -height / 2},
		{width / 2, -height / 2},
		{width / 2, height / 2},
		{-width / 2, height / 2},
	}
	var out [4][2]float64
	for i, corner := range corners {
		x, y, z := m.apply(corner[0], corner[1], 0)
		// CSS perspective: w = 1 - z/d, points with w <= 0 are behind the
		// eye and have no sensible projection.
		w := 1 - z/d
		if w <= 1e-6 {
			return out, errDegenerateQuad
		}
		out[i] = [2]float64{x/w + width/2, y/w + height/2}
	}
	return out, nil
}

// quadBounds returns the axis-aligned bounding box of a quad.
func quadBounds(quad [4][2]float64) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range quad {
		minX = math.Min(minX, p[0])
		minY = math.Min(minY, p[1])
		maxX = math.Max(maxX, p[0])
		maxY = math.Max(maxY, p[1])
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// homography is a projective 2D mapping.
type homography struct {
	a, b, c, d, e, f, g, h float64
}

// apply maps a point; ok is false when the point projects to infinity.
func (m homography) apply(x, y float64) (float64, float64, bool) {
	w := m.g*x + m.h*y + 1
	if math.Abs(w) < 1e-9 {
		return 0, 0, false
	}
	return (m.a*x + m.b*y + m.c) / w, (m.d*x + m.e*y + m.f) / w, true
}

// solveHomography computes the projective mapping taking each src corner
// to the corresponding dst corner, via the standard 8-unknown linear
// system solved with gonum's QR-backed dense solver.
func solveHomography(src, dst [4][2]float64) (homography, error) {
	A := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		sx, sy := src[i][0], src[i][1]
		dx, dy := dst[i][0], dst[i][1]
		A.SetRow(i*2, []float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx})
		b.SetVec(i*2, dx)
		A.SetRow(i*2+1, []float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy})
		b.SetVec(i*2+1, dy)
	}

	var x mat.VecDense
	if err := x.SolveVec(A, b); err != nil {
		return homography{}, fmt.Errorf("stage: homography solve: %w", err)
	}
	return homography{
		a: x.AtVec(0), b: x.AtVec(1), c: x.AtVec(2),
		d: x.AtVec(3), e: x.AtVec(4), f: x.AtVec(5),
		g: x.AtVec(6), h: x.AtVec(7),
	}, nil
}

// mat4 is a row-major 4x4 matrix, the minimal slice of 3D math the
// perspective projection needs.
type mat4 [16]float64

func mat4Identity() mat4 {
	return mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func mat4RotateX(a float64) mat4 {
	c, s := math.Cos(a), math.Sin(a)
	return mat4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

func mat4RotateY(a float64) mat4 {
	c, s := math.Cos(a), math.Sin(a)
	return mat4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

func mat4RotateZ(a float64) mat4 {
	c, s := math.Cos(a), math.Sin(a)
	return mat4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func mat4Translate(tx, ty, tz float64) mat4 {
	return mat4{
		1, 0, 0, tx,
		0, 1, 0, ty,
		0, 0, 1, tz,
		0, 0, 0, 1,
	}
}

func mat4Scale(s float64) mat4 {
	return mat4{
		s, 0, 0, 0,
		0, s, 0, 0,
		0, 0, s, 0,
		0, 0, 0, 1,
	}
}

// mul returns m * other (other applied first).
func (m mat4) mul(other mat4) mat4 {
	var out mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[r*4+k] * other[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// apply transforms a 3D point (w assumed 1, returned unprojected).
func (m mat4) apply(x, y, z float64) (float64, float64, float64) {
	return m[0]*x + m[1]*y + m[2]*z + m[3],
		m[4]*x + m[5]*y + m[6]*z + m[7],
		m[8]*x + m[9]*y + m[10]*z + m[11]
}
