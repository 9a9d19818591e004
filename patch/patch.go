// Package patch grows connected components of same-PPI voxels and
// projects each one onto its plane to produce a depth-mapped Patch,
// the atomic unit that map generation later packs into atlases
// (spec.md §3, §4.6).
package patch

import "github.com/vpcc-go/vpcc/geomlut"

// InfiniteDepth marks a patch pixel with no point projected onto it.
const InfiniteDepth = ^uint32(0)

// Patch is one connected component of same-PPI voxels, projected onto its
// plane. Rasters are sized WidthInPixel x HeightInPixel, row-major
// (pixel index = row*WidthInPixel + col).
type Patch struct {
	Index int

	PPI            int
	ProjectionMode geomlut.ProjectionMode
	Tangent        geomlut.Axis
	Bitangent      geomlut.Axis
	AxisSwap       bool

	PosU, PosV, PosD int
	SizeD            int

	WidthInPixel, HeightInPixel   int
	WidthInOccBlk, HeightInOccBlk int

	// OmDSPosX, OmDSPosY are filled in by a Packer's layout pass; zero
	// until then.
	OmDSPosX, OmDSPosY int

	DepthL1       []uint32
	DepthPCidxL1  []int
	DepthL2       []uint32
	DepthPCidxL2  []int
	Occupancy     []byte // 0/1, len = WidthInPixel*HeightInPixel

	DoubleLayer bool
}

// NewPatch allocates a Patch with rasters sized for (width, height),
// initializing DepthL1/L2 to InfiniteDepth and PCidx slices to -1.
func NewPatch(index, ppi int, width, height int, doubleLayer bool) *Patch {
	plane := geomlut.Planes[ppi]
	n := width * height
	p := &Patch{
		Index:          index,
		PPI:            ppi,
		ProjectionMode: plane.Mode,
		Tangent:        plane.Tangent,
		Bitangent:      plane.Bitangent,
		WidthInPixel:   width,
		HeightInPixel:  height,
		DoubleLayer:    doubleLayer,
		DepthL1:        make([]uint32, n),
		DepthPCidxL1:   make([]int, n),
		Occupancy:      make([]byte, n),
	}
	for i := range p.DepthL1 {
		p.DepthL1[i] = InfiniteDepth
		p.DepthPCidxL1[i] = -1
	}
	if doubleLayer {
		p.DepthL2 = make([]uint32, n)
		p.DepthPCidxL2 = make([]int, n)
		for i := range p.DepthL2 {
			p.DepthL2[i] = InfiniteDepth
			p.DepthPCidxL2[i] = -1
		}
	}
	return p
}

// PixelIndex returns the raster offset for local patch coordinates (u,v)
// relative to PosU/PosV (i.e. u,v already offset into [0,Width)x[0,Height)).
func (p *Patch) PixelIndex(u, v int) int {
	return v*p.WidthInPixel + u
}

// AtlasWidthBlocks and AtlasHeightBlocks return the patch's footprint in
// occupancy-block units as it lands in atlas space: Rasterize swaps (u,v)
// into (v,u) when AxisSwap is set, so a Packer (and anything else sizing
// the atlas around a patch) must swap WidthInOccBlk/HeightInOccBlk too.
func (p *Patch) AtlasWidthBlocks() int {
	if p.AxisSwap {
		return p.HeightInOccBlk
	}
	return p.WidthInOccBlk
}

func (p *Patch) AtlasHeightBlocks() int {
	if p.AxisSwap {
		return p.WidthInOccBlk
	}
	return p.HeightInOccBlk
}
