// Package mapgen lays patches out into the occupancy, geometry, and
// attribute atlases, downscales the occupancy map, fills atlas
// background for better downstream video compression, and converts
// attributes from RGB to YUV420 (spec.md §4.7-§4.10).
package mapgen

// Atlas holds one frame's full set of map buffers at a fixed (Width,
// Height) resolution, per spec.md §3 "Frame maps".
type Atlas struct {
	Width, Height int
	DSResolution  int // r in {2,4}

	OccupancyMap   []byte // H*W, {0,1}
	OccupancyMapDS []byte // (H/r)*(W/r), {0,1}, YUV420-padded by caller before coding

	GeometryMapL1 []byte // planar Y, H*W, background-filled
	GeometryMapL2 []byte

	// Attribute maps are RGB planar (3*H*W) during generation and
	// converted to YUV420 (1.5*H*W) by ConvertToYUV420 before coding.
	AttributeMapL1 []byte
	AttributeMapL2 []byte

	BackgroundGeometry  byte
	BackgroundAttribute byte

	DoubleLayer bool
}

// NewAtlas allocates an Atlas for the given geometry, pre-filling
// backgrounds per spec.md §3.
func NewAtlas(width, height, dsResolution int, backgroundGeometry, backgroundAttribute byte, doubleLayer bool) *Atlas {
	a := &Atlas{
		Width:               width,
		Height:              height,
		DSResolution:        dsResolution,
		OccupancyMap:        make([]byte, width*height),
		OccupancyMapDS:      make([]byte, (width/dsResolution)*(height/dsResolution)),
		GeometryMapL1:       fill(width*height, backgroundGeometry),
		AttributeMapL1:      fill(width*height*3, backgroundAttribute),
		BackgroundGeometry:  backgroundGeometry,
		BackgroundAttribute: backgroundAttribute,
		DoubleLayer:         doubleLayer,
	}
	if doubleLayer {
		a.GeometryMapL2 = fill(width*height, backgroundGeometry)
		a.AttributeMapL2 = fill(width*height*3, backgroundAttribute)
	}
	return a
}

// GrowHeight pads the atlas to newHeight rows, appending background
// rows to every plane. Used to align every frame in a GOF to the
// tallest frame's packed height before 2-D coding, per spec.md §4.11:
// all frames in a group of frames share one coded map resolution.
// newHeight must be a multiple of DSResolution; it is a no-op if the
// atlas is already at least that tall.
func (a *Atlas) GrowHeight(newHeight int) {
	if newHeight <= a.Height {
		return
	}
	extraRows := newHeight - a.Height
	growPlane := func(p []byte, bg byte) []byte {
		return append(p, fill(extraRows*a.Width, bg)...)
	}

	a.OccupancyMap = growPlane(a.OccupancyMap, 0)
	a.GeometryMapL1 = growPlane(a.GeometryMapL1, a.BackgroundGeometry)
	a.AttributeMapL1 = growAttributePlanes(a.AttributeMapL1, a.Width, a.Height, extraRows, a.BackgroundAttribute)
	if a.DoubleLayer {
		a.GeometryMapL2 = growPlane(a.GeometryMapL2, a.BackgroundGeometry)
		a.AttributeMapL2 = growAttributePlanes(a.AttributeMapL2, a.Width, a.Height, extraRows, a.BackgroundAttribute)
	}

	dsRows := extraRows / a.DSResolution
	a.OccupancyMapDS = append(a.OccupancyMapDS, make([]byte, dsRows*(a.Width/a.DSResolution))...)

	a.Height = newHeight
}

// growAttributePlanes inserts extraRows*width background bytes after
// each of the three R/G/B planes (each still old-height sized), since
// the planes are stored consecutively rather than pixel-interleaved.
func growAttributePlanes(attr []byte, width, oldHeight, extraRows int, bg byte) []byte {
	oldPlaneSize := width * oldHeight
	extra := fill(extraRows*width, bg)
	out := make([]byte, 0, len(attr)+3*len(extra))
	for c := 0; c < 3; c++ {
		out = append(out, attr[c*oldPlaneSize:(c+1)*oldPlaneSize]...)
		out = append(out, extra...)
	}
	return out
}

func fill(n int, v byte) []byte {
	b := make([]byte, n)
	if v != 0 {
		for i := range b {
			b[i] = v
		}
	}
	return b
}
