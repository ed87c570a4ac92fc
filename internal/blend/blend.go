package blend

// All operations take and return straight (non-premultiplied) RGBA bytes.
// Premultiplication happens inside the composite step where the math needs
// it, so callers never have to track two pixel representations.

// SourceOver composites src over dst using standard alpha compositing.
func SourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	if sa == 255 || da == 0 {
		return sr, sg, sb, sa
	}
	if sa == 0 {
		return dr, dg, db, da
	}

	invSa := 255 - sa
	// outA = sa + da*(1-sa)
	daInv := MulDiv255(da, invSa)
	outA := uint16(sa) + uint16(daInv)
	if outA == 0 {
		return 0, 0, 0, 0
	}

	// outC = (sc*sa + dc*da*(1-sa)) / outA
	blendChan := func(sc, dc byte) byte {
		num := uint32(sc)*uint32(sa) + uint32(dc)*uint32(daInv)
		return byte(num / uint32(outA))
	}
	return blendChan(sr, dr), blendChan(sg, dg), blendChan(sb, db), byte(outA)
}

// DestinationOut keeps destination where source is transparent.
// Used for the eclipse frame's ring cutout.
func DestinationOut(sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return dr, dg, db, MulDiv255(da, 255-sa)
}

// Overlay composites src over dst with the W3C "overlay" separable blend
// mode: multiply where the backdrop is dark, screen where it is light.
// This is the mode the noise layer uses so grain brightens and darkens the
// background symmetrically around mid-gray.
func Overlay(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	if sa == 0 {
		return dr, dg, db, da
	}
	if da == 0 {
		return sr, sg, sb, sa
	}

	// Per W3C compositing-1 the source color is first mixed with the blend
	// result in proportion to the backdrop alpha, then composited
	// source-over: Cs' = (1 - Da)*Cs + Da*B(Cb, Cs).
	invDa := 255 - da
	mix := func(sc, dc byte) byte {
		b := overlayChan(sc, dc)
		return byte((uint32(invDa)*uint32(sc) + uint32(da)*uint32(b) + 127) / 255)
	}
	return SourceOver(mix(sr, dr), mix(sg, dg), mix(sb, db), sa, dr, dg, db, da)
}

// overlayChan is the per-channel grain blend on unmultiplied values: the
// hard-light form, selecting on the source channel. Dark grain multiplies,
// bright grain screens, so grain stays visible even on pure black or pure
// white backdrops (strict overlay selects on the backdrop and flattens to
// the backdrop color at the extremes, hiding the grain entirely).
func overlayChan(s, d byte) byte {
	if s <= 127 {
		// 2 * s * d
		v := 2 * uint32(s) * uint32(d) / 255
		if v > 255 {
			v = 255
		}
		return byte(v)
	}
	// 255 - 2*(255-s)*(255-d)
	v := 2 * uint32(255-s) * uint32(255-d) / 255
	if v > 255 {
		v = 255
	}
	return 255 - byte(v)
}
