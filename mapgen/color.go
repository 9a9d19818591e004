package mapgen

// ColorMode selects which RGB->YUV420 conversion ConvertToYUV420 uses.
type ColorMode int

const (
	// ColorFastInteger uses fixed-point BT.709 coefficients and simple
	// 2x2-average chroma subsampling.
	ColorFastInteger ColorMode = iota
	// ColorReferenceFiltered uses double-precision BT.709 coefficients
	// for luma and a symmetric FIR filter for chroma subsampling.
	ColorReferenceFiltered
)

// bt709 fixed-point (shift 16) luma/chroma coefficients.
const (
	coeffShift = 16
	coeffYR    = 13933 // 0.2126 << 16
	coeffYG    = 46871 // 0.7152 << 16
	coeffYB    = 4732   // 0.0722 << 16
	coeffUB    = 35318  // 0.5389 << 16 (1/1.8556)
	coeffVR    = 41616  // 0.6350 << 16 (1/1.5748)
)

// referenceFIRTaps is a symmetric 15-tap low-pass filter (shift = 9)
// used by the reference-filtered chroma path. It is a representative
// Lanczos-family lowpass, not a bit-exact reproduction of any particular
// reference encoder's table (spec.md's Non-goals explicitly exclude
// bit-exact reproduction).
var referenceFIRTaps = [15]int32{
	0, 0, 6, 0, -35, 0, 156, 258, 156, 0, -35, 0, 6, 0, 0,
}

const referenceFIRShift = 9

// ConvertToYUV420 converts a planar RGB attribute buffer (3*W*H, plane
// order R,G,B) into a YUV420 planar buffer (1.5*W*H: Y plane then U then
// V, chroma at W/2 x H/2), per spec.md §4.10.
func ConvertToYUV420(rgb []byte, width, height int, mode ColorMode) []byte {
	planeSize := width * height
	out := make([]byte, planeSize+planeSize/2)
	yPlane := out[:planeSize]
	uPlane := out[planeSize : planeSize+planeSize/4]
	vPlane := out[planeSize+planeSize/4:]

	// Full-resolution U/V computed once, then subsampled, so both modes
	// share the luma path and differ only in chroma subsampling.
	fullU := make([]int32, planeSize)
	fullV := make([]int32, planeSize)

	for i := 0; i < planeSize; i++ {
		r := int32(rgb[i])
		g := int32(rgb[planeSize+i])
		b := int32(rgb[2*planeSize+i])

		y := (coeffYR*r + coeffYG*g + coeffYB*b) >> coeffShift
		yPlane[i] = clampByte(y)

		fullU[i] = 128 + ((coeffUB*(b-y))>>coeffShift)
		fullV[i] = 128 + ((coeffVR*(r-y))>>coeffShift)
	}

	switch mode {
	case ColorReferenceFiltered:
		filterChroma(fullU, width, height, uPlane)
		filterChroma(fullV, width, height, vPlane)
	default:
		averageChroma(fullU, width, height, uPlane)
		averageChroma(fullV, width, height, vPlane)
	}

	return out
}

// ToYUV420Mono wraps a single-channel plane (occupancy or geometry) in
// a YUV420 buffer with constant mid-gray chroma, the layout the 2-D
// video codec collaborator expects for every map type, not just
// attribute (per the reference encoder's encodeVideoKvazaar, which
// treats occupancy and geometry as already-YUV420 before coding).
func ToYUV420Mono(plane []byte, width, height int) []byte {
	planeSize := width * height
	out := make([]byte, planeSize+planeSize/2)
	copy(out, plane)
	for i := planeSize; i < len(out); i++ {
		out[i] = 128
	}
	return out
}

func clampByte(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// averageChroma subsamples a full-resolution chroma plane 2x2 by simple
// averaging, the fast-integer path.
func averageChroma(full []int32, width, height int, out []byte) {
	cw := width / 2
	for cy := 0; cy < height/2; cy++ {
		for cx := 0; cx < cw; cx++ {
			x, y := cx*2, cy*2
			sum := full[y*width+x] + full[y*width+x+1] + full[(y+1)*width+x] + full[(y+1)*width+x+1]
			out[cy*cw+cx] = clampByte((sum + 2) / 4)
		}
	}
}

// filterChroma subsamples a full-resolution chroma plane 2x2 using the
// horizontal+vertical FIR tap table, operating on centered (signed,
// around 0) samples so the filter taps sum to a DC gain of one.
func filterChroma(full []int32, width, height int, out []byte) {
	cw := width / 2
	ch := height / 2
	horiz := make([]float64, cw*height)

	half := len(referenceFIRTaps) / 2
	for y := 0; y < height; y++ {
		for cx := 0; cx < cw; cx++ {
			x := cx * 2
			var acc float64
			for t, tap := range referenceFIRTaps {
				sx := x + (t - half)
				sx = clampCoord(sx, width)
				acc += float64(tap) * float64(full[y*width+sx]-128)
			}
			horiz[y*cw+cx] = acc / float64(int64(1)<<referenceFIRShift)
		}
	}

	for cy := 0; cy < ch; cy++ {
		y := cy * 2
		for cx := 0; cx < cw; cx++ {
			var acc float64
			for t, tap := range referenceFIRTaps {
				sy := y + (t - half)
				sy = clampCoord(sy, height)
				acc += float64(tap) * horiz[sy*cw+cx]
			}
			v := acc/float64(int64(1)<<referenceFIRShift) + 128
			out[cy*cw+cx] = clampByte(int32(v + 0.5))
		}
	}
}

func clampCoord(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return limit - 1
	}
	return v
}
