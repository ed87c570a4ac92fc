package stage

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ColorStop represents a color at a specific position in a gradient.
type ColorStop struct {
	Offset float64 // Position in gradient, 0.0 to 1.0
	Color  RGBA    // Color at this position
}

// LinearGradient is a linear gradient between two points.
// Offsets outside [0, 1] pad with the edge colors.
type LinearGradient struct {
	X0, Y0 float64
	X1, Y1 float64
	Stops  []ColorStop
}

// NewLinearGradient creates a linear gradient along the given axis.
func NewLinearGradient(x0, y0, x1, y1 float64) *LinearGradient {
	return &LinearGradient{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// AddColorStop appends a color stop and returns the gradient for chaining.
func (g *LinearGradient) AddColorStop(offset float64, c RGBA) *LinearGradient {
	g.Stops = append(g.Stops, ColorStop{Offset: clamp01(offset), Color: c})
	return g
}

// ColorAt returns the gradient color at the given point.
func (g *LinearGradient) ColorAt(x, y float64) RGBA {
	if len(g.Stops) == 0 {
		return Transparent
	}
	dx := g.X1 - g.X0
	dy := g.Y1 - g.Y0
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return g.Stops[0].Color
	}
	t := clamp01(((x-g.X0)*dx + (y-g.Y0)*dy) / lenSq)
	return colorAtOffset(sortStops(g.Stops), t)
}

// sortStops sorts color stops by offset without modifying the original.
func sortStops(stops []ColorStop) []ColorStop {
	if len(stops) < 2 {
		return stops
	}
	sorted := make([]ColorStop, len(stops))
	copy(sorted, stops)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	return sorted
}

// colorAtOffset interpolates between the two stops surrounding t.
func colorAtOffset(stops []ColorStop, t float64) RGBA {
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if t >= last.Offset {
		return last.Color
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].Offset {
			span := stops[i].Offset - stops[i-1].Offset
			if span <= 0 {
				return stops[i].Color
			}
			return stops[i-1].Color.Lerp(stops[i].Color, (t-stops[i-1].Offset)/span)
		}
	}
	return last.Color
}

// ParseGradient parses a CSS-style "linear-gradient(...)" string into a
// gradient sized for a width×height canvas. The angle follows the CSS
// convention: 0deg points up, angles increase clockwise. Color tokens run
// through the color normalizer, so perceptual color spaces are accepted.
// Reports ok=false for anything it cannot parse.
func ParseGradient(s string, width, height float64) (*LinearGradient, bool) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "linear-gradient(") || !strings.HasSuffix(s, ")") {
		return nil, false
	}
	body := s[len("linear-gradient(") : len(s)-1]
	parts := splitGradientArgs(body)
	if len(parts) == 0 {
		return nil, false
	}

	angle := 180.0 // CSS default: to bottom
	if strings.HasSuffix(strings.TrimSpace(parts[0]), "deg") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[0]), "deg"), 64)
		if err != nil {
			return nil, false
		}
		angle = v
		parts = parts[1:]
	} else if dir, ok := gradientDirections[strings.TrimSpace(strings.ToLower(parts[0]))]; ok {
		angle = dir
		parts = parts[1:]
	}
	if len(parts) < 2 {
		return nil, false
	}

	g := gradientAxis(angle, width, height)
	n := len(parts)
	for i, part := range parts {
		colorStr, offset, hasOffset := splitStopOffset(part)
		c, ok := ParseColor(colorStr)
		if !ok {
			return nil, false
		}
		if !hasOffset {
			offset = float64(i) / float64(n-1)
		}
		g.AddColorStop(offset, c)
	}
	return g, true
}

// gradientDirections maps CSS keyword directions to degrees.
var gradientDirections = map[string]float64{
	"to top":          0,
	"to right":        90,
	"to bottom":       180,
	"to left":         270,
	"to top right":    45,
	"to bottom right": 135,
	"to bottom left":  225,
	"to top left":     315,
}

// gradientAxis converts a CSS gradient angle into a start/end axis crossing
// the full canvas.
func gradientAxis(angleDeg, width, height float64) *LinearGradient {
	rad := radians(angleDeg)
	// CSS: 0deg = to top. Direction vector of the gradient line:
	dx := math.Sin(rad)
	dy := -math.Cos(rad)
	cx, cy := width/2, height/2
	// Project the canvas extent onto the axis so stop 0 and 1 touch the edges.
	halfLen := (math.Abs(dx*width) + math.Abs(dy*height)) / 2
	return NewLinearGradient(cx-dx*halfLen, cy-dy*halfLen, cx+dx*halfLen, cy+dy*halfLen)
}

// splitGradientArgs splits on top-level commas, ignoring commas nested in
// function tokens like rgba(...) or oklch(...).
func splitGradientArgs(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

// splitStopOffset splits "color 40%" into its color and offset tokens.
func splitStopOffset(s string) (string, float64, bool) {
	s = strings.TrimSpace(s)
	idx := strings.LastIndexByte(s, ' ')
	if idx < 0 {
		return s, 0, false
	}
	tail := s[idx+1:]
	if !strings.HasSuffix(tail, "%") {
		return s, 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(tail, "%"), 64)
	if err != nil {
		return s, 0, false
	}
	return strings.TrimSpace(s[:idx]), clamp01(v / 100), true
}
