package stage

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeColorValue rewrites any perceptual color tokens embedded in a
// CSS-like style value into raster-safe sRGB equivalents. The UI's color
// system emits oklch() and display-p3 values that raster capture tools
// cannot encode, so every style string crosses through here before it is
// rasterized.
//
// The function handles composite values (gradients, shadow shorthands) by
// replacing only the embedded color tokens and leaving structural syntax
// intact. A token that fails to parse is left unchanged; the function never
// returns an error (fail-open).
//
// Output for any token that parsed never contains oklch(, oklab( or color(
// syntax.
func NormalizeColorValue(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if !strings.Contains(lower, "oklch(") &&
		!strings.Contains(lower, "oklab(") &&
		!strings.Contains(lower, "color(") {
		return s
	}

	var out strings.Builder
	out.Grow(len(s))
	i := 0
	for i < len(s) {
		name, start := nextColorToken(lower, i)
		if start < 0 {
			out.WriteString(s[i:])
			break
		}
		end := matchParen(s, start+len(name))
		if end < 0 {
			out.WriteString(s[i:])
			break
		}
		out.WriteString(s[i:start])

		token := s[start:end]
		args := s[start+len(name) : end-1]
		if c, ok := convertPerceptual(name, args); ok {
			out.WriteString(formatRGB(c))
		} else {
			out.WriteString(token)
		}
		i = end
	}
	return out.String()
}

// nextColorToken finds the earliest perceptual color token at or after i.
// Returns the matched prefix (including the open paren) and its index, or
// -1 when none remain.
func nextColorToken(lower string, i int) (string, int) {
	best := -1
	name := ""
	for _, tok := range []string{"oklch(", "oklab(", "color("} {
		idx := strings.Index(lower[i:], tok)
		if idx < 0 {
			continue
		}
		idx += i
		// "color(" must not match inside e.g. "accent-color(".
		if idx > 0 && isIdentByte(lower[idx-1]) {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			name = tok
		}
	}
	return name, best
}

func isIdentByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// matchParen returns the index just past the paren that closes the group
// opened right before start, or -1 if unbalanced.
func matchParen(s string, start int) int {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// convertPerceptual converts the argument body of one perceptual color
// token into sRGB.
func convertPerceptual(name, args string) (RGBA, bool) {
	fields, alpha, ok := parseColorArgs(args)
	if !ok {
		return RGBA{}, false
	}
	switch name {
	case "oklch(":
		if len(fields) != 3 {
			return RGBA{}, false
		}
		l, okL := parsePercentNumber(fields[0], 1)
		c, okC := parsePercentNumber(fields[1], 0.4)
		h, okH := parseHue(fields[2])
		if !okL || !okC || !okH {
			return RGBA{}, false
		}
		return oklabToSRGB(l, c*math.Cos(radians(h)), c*math.Sin(radians(h)), alpha), true
	case "oklab(":
		if len(fields) != 3 {
			return RGBA{}, false
		}
		l, okL := parsePercentNumber(fields[0], 1)
		a, okA := parsePercentNumber(fields[1], 0.4)
		b, okB := parsePercentNumber(fields[2], 0.4)
		if !okL || !okA || !okB {
			return RGBA{}, false
		}
		return oklabToSRGB(l, a, b, alpha), true
	case "color(":
		if len(fields) != 4 || strings.ToLower(fields[0]) != "display-p3" {
			return RGBA{}, false
		}
		var ch [3]float64
		for i := 0; i < 3; i++ {
			v, okV := parsePercentNumber(fields[i+1], 1)
			if !okV {
				return RGBA{}, false
			}
			ch[i] = v
		}
		return p3ToSRGB(ch[0], ch[1], ch[2], alpha), true
	}
	return RGBA{}, false
}

// parseColorArgs splits "a b c / alpha" style arguments.
func parseColorArgs(args string) ([]string, float64, bool) {
	alpha := 1.0
	if idx := strings.IndexByte(args, '/'); idx >= 0 {
		aStr := strings.TrimSpace(args[idx+1:])
		v, ok := parsePercentNumber(aStr, 1)
		if !ok {
			return nil, 0, false
		}
		alpha = clamp01(v)
		args = args[:idx]
	}
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return nil, 0, false
	}
	return fields, alpha, true
}

// parsePercentNumber parses a number or percentage; a percentage maps 100%
// to scale.
func parsePercentNumber(s string, scale float64) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "none" {
		return 0, true
	}
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return v / 100 * scale, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseHue parses a hue in degrees, with an optional unit suffix.
func parseHue(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(s, "deg")
	if s == "none" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// oklabToSRGB converts OKLab coordinates to gamma-encoded sRGB, clamping
// out-of-gamut channels. Matrices from Björn Ottosson's OKLab reference.
func oklabToSRGB(l, a, b, alpha float64) RGBA {
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	lc := l_ * l_ * l_
	mc := m_ * m_ * m_
	sc := s_ * s_ * s_

	r := 4.0767416621*lc - 3.3077115913*mc + 0.2309699292*sc
	g := -1.2684380046*lc + 2.6097574011*mc - 0.3413193965*sc
	bb := -0.0041960863*lc - 0.7034186147*mc + 1.7076147010*sc

	return RGBA{
		R: clamp01(linearToSRGB(r)),
		G: clamp01(linearToSRGB(g)),
		B: clamp01(linearToSRGB(bb)),
		A: alpha,
	}
}

// p3ToSRGB converts gamma-encoded Display P3 channels to sRGB.
func p3ToSRGB(r, g, b, alpha float64) RGBA {
	lr := srgbToLinear(r)
	lg := srgbToLinear(g)
	lb := srgbToLinear(b)

	// Linear P3 -> linear sRGB (D65).
	rr := 1.2249401762805786*lr - 0.22494017628057862*lg
	rg := -0.04205695470968816*lr + 1.0420569547096881*lg
	rb := -0.019637554590334432*lr - 0.07863604555063188*lg + 1.0982735901409663*lb

	return RGBA{
		R: clamp01(linearToSRGB(rr)),
		G: clamp01(linearToSRGB(rg)),
		B: clamp01(linearToSRGB(rb)),
		A: alpha,
	}
}

// linearToSRGB applies the sRGB transfer function.
func linearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

// srgbToLinear inverts the sRGB transfer function. Display P3 shares the
// same curve.
func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}
