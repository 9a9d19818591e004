package patch

// Packer assigns each patch's placement in atlas space (OmDSPosX,
// OmDSPosY, in occupancy-block units). spec.md scopes the packing
// layout algorithm itself out of the core; this interface is the seam
// the core consumes so a caller (or a test) can supply one.
type Packer interface {
	Pack(patches []*Patch, mapWidthBlocks int)
}

// ShelfPacker is a first-fit-decreasing shelf packer: patches are
// placed left to right along a row, a new row starts once a patch no
// longer fits the remaining width, and the row advances by the
// tallest patch placed on it so far. It relies on Segmenter.Generate's
// own width/height-descending sort, so it does not sort its input.
type ShelfPacker struct{}

// Pack implements Packer.
func (ShelfPacker) Pack(patches []*Patch, mapWidthBlocks int) {
	var x, y, rowHeight int
	for _, p := range patches {
		w := p.AtlasWidthBlocks()
		h := p.AtlasHeightBlocks()
		if w > mapWidthBlocks {
			w = mapWidthBlocks
		}
		if x > 0 && x+w > mapWidthBlocks {
			x = 0
			y += rowHeight
			rowHeight = 0
		}
		p.OmDSPosX = x
		p.OmDSPosY = y
		x += w
		if h > rowHeight {
			rowHeight = h
		}
	}
}
