package mapgen

import "github.com/vpcc-go/vpcc/patch"

// RGBSource supplies the color of a point by its original point-cloud
// index, so the rasterizer can splat attributes without depending on the
// pointcloud package directly.
type RGBSource interface {
	RGBAt(pointIndex int) (r, g, b uint8)
}

// Rasterize blits one patch's depth and attribute rasters into the atlas
// at the location its external pack coordinates (OmDSPosX, OmDSPosY)
// describe, per spec.md §4.8. One code path serves all four
// (doubleLayer x axisSwap) combinations; the original encoder's per-combination
// compile-time specializations are replaced here by a runtime branch,
// since Go template specialization would only save a handful of branches
// at significant code duplication cost.
func Rasterize(a *Atlas, p *patch.Patch, src RGBSource) {
	r := a.DSResolution
	baseX := p.OmDSPosX * r
	baseY := p.OmDSPosY * r

	for v := 0; v < p.HeightInPixel; v++ {
		for u := 0; u < p.WidthInPixel; u++ {
			pix := p.PixelIndex(u, v)
			if p.DepthL1[pix] == patch.InfiniteDepth {
				continue
			}

			x, y := u, v
			if p.AxisSwap {
				x, y = v, u
			}
			mapX := baseX + x
			mapY := baseY + y
			if mapX < 0 || mapY < 0 || mapX >= a.Width || mapY >= a.Height {
				continue
			}
			mapPos := mapY*a.Width + mapX

			a.GeometryMapL1[mapPos] = byte(p.DepthL1[pix])
			splatRGB(a.AttributeMapL1, mapPos, a.Width*a.Height, src, p.DepthPCidxL1[pix])

			if a.DoubleLayer && p.DoubleLayer && p.DepthL2[pix] != patch.InfiniteDepth {
				a.GeometryMapL2[mapPos] = byte(p.DepthL2[pix])
				splatRGB(a.AttributeMapL2, mapPos, a.Width*a.Height, src, p.DepthPCidxL2[pix])
			}
		}
	}
}

// splatRGB writes a point's color into the three RGB planes of a planar
// attribute buffer (plane stride planeSize, mapPos the per-plane pixel
// offset).
func splatRGB(attr []byte, mapPos, planeSize int, src RGBSource, pointIdx int) {
	if pointIdx < 0 {
		return
	}
	r, g, b := src.RGBAt(pointIdx)
	attr[mapPos] = r
	attr[planeSize+mapPos] = g
	attr[2*planeSize+mapPos] = b
}
