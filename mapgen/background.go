package mapgen

// AttributeBackgroundMode selects which background-fill algorithm
// FillAttribute uses, per spec.md §4.9 / §6's attributeBgFill parameter.
type AttributeBackgroundMode int

const (
	ModePatchExtension AttributeBackgroundMode = iota
	ModeBBPE
	ModePushPull
	ModeNone
)

// FillGeometry background-fills the geometry maps using the simplified
// patch-extension variant spec.md §4.9 calls for (geometry always uses
// this variant; only attribute is configurable).
func FillGeometry(a *Atlas) {
	patchExtensionPlane(a.GeometryMapL1, a.OccupancyMap, a.OccupancyMapDS, a.Width, a.Height, a.DSResolution)
	if a.DoubleLayer {
		patchExtensionPlane(a.GeometryMapL2, a.OccupancyMap, a.OccupancyMapDS, a.Width, a.Height, a.DSResolution)
	}
}

// FillAttribute background-fills the attribute maps' three RGB planes
// using the configured algorithm.
func FillAttribute(a *Atlas, mode AttributeBackgroundMode, blockSizeBBPE int) {
	if mode == ModeNone {
		return
	}
	planeSize := a.Width * a.Height
	fill := func(attr []byte) {
		for c := 0; c < 3; c++ {
			plane := attr[c*planeSize : (c+1)*planeSize]
			switch mode {
			case ModeBBPE:
				bbpePlane(plane, a.OccupancyMap, a.OccupancyMapDS, a.Width, a.Height, blockSizeBBPE, a.DSResolution)
			case ModePushPull:
				pushPullPlane(plane, a.OccupancyMap, a.Width, a.Height)
			default:
				patchExtensionPlane(plane, a.OccupancyMap, a.OccupancyMapDS, a.Width, a.Height, a.DSResolution)
			}
		}
	}
	fill(a.AttributeMapL1)
	if a.DoubleLayer {
		fill(a.AttributeMapL2)
	}
}

// patchExtensionPlane implements spec.md §4.9's default filler: empty
// blocks copy from a filled left or top neighbor block (or stay at the
// constant background if neither exists), and partially-occupied blocks
// run the iterative 4-neighbor average, bounded to blockSize^2 rounds.
func patchExtensionPlane(plane, occ, dsOcc []byte, width, height, blockSize int) {
	if blockSize <= 0 {
		blockSize = 1
	}
	dsWidth := width / blockSize
	dsHeight := height / blockSize

	filled := make([]bool, len(plane))
	for i, o := range occ {
		filled[i] = o == 1
	}

	blockFilled := make([]bool, dsWidth*dsHeight)
	for i, v := range dsOcc {
		blockFilled[i] = v == 1
	}

	for by := 0; by < dsHeight; by++ {
		for bx := 0; bx < dsWidth; bx++ {
			if blockFilled[by*dsWidth+bx] {
				continue
			}
			switch {
			case bx > 0 && blockFilled[by*dsWidth+bx-1]:
				copyLeftColumn(plane, filled, width, bx*blockSize, by*blockSize, blockSize)
				blockFilled[by*dsWidth+bx] = true
			case by > 0 && blockFilled[(by-1)*dsWidth+bx]:
				copyTopRow(plane, filled, width, bx*blockSize, by*blockSize, blockSize)
				blockFilled[by*dsWidth+bx] = true
			}
		}
	}

	iterativeAverage(plane, filled, width, height, blockSize*blockSize)
}

func copyLeftColumn(plane []byte, filled []bool, width, blockX, blockY, blockSize int) {
	srcX := blockX - 1
	for row := 0; row < blockSize; row++ {
		y := blockY + row
		v := plane[y*width+srcX]
		for col := 0; col < blockSize; col++ {
			x := blockX + col
			plane[y*width+x] = v
			filled[y*width+x] = true
		}
	}
}

func copyTopRow(plane []byte, filled []bool, width, blockX, blockY, blockSize int) {
	srcY := blockY - 1
	for col := 0; col < blockSize; col++ {
		x := blockX + col
		v := plane[srcY*width+x]
		for row := 0; row < blockSize; row++ {
			y := blockY + row
			plane[y*width+x] = v
			filled[y*width+x] = true
		}
	}
}

// iterativeAverage repeatedly assigns every still-empty pixel with at
// least one filled 4-neighbor the rounded mean of its filled neighbors,
// until nothing changes or maxIters rounds elapse - the bound that keeps
// the case where a filled pixel coincides with the background sentinel
// from looping forever (spec.md §9).
func iterativeAverage(plane []byte, filled []bool, width, height, maxIters int) {
	if maxIters <= 0 {
		maxIters = width * height
	}
	for iter := 0; iter < maxIters; iter++ {
		type update struct {
			idx int
			val byte
		}
		var updates []update
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := y*width + x
				if filled[idx] {
					continue
				}
				sum, count := 0, 0
				if x > 0 && filled[idx-1] {
					sum += int(plane[idx-1])
					count++
				}
				if x < width-1 && filled[idx+1] {
					sum += int(plane[idx+1])
					count++
				}
				if y > 0 && filled[idx-width] {
					sum += int(plane[idx-width])
					count++
				}
				if y < height-1 && filled[idx+width] {
					sum += int(plane[idx+width])
					count++
				}
				if count > 0 {
					updates = append(updates, update{idx, byte((sum + count/2) / count)})
				}
			}
		}
		if len(updates) == 0 {
			break
		}
		for _, u := range updates {
			plane[u.idx] = u.val
			filled[u.idx] = true
		}
	}
}

// bbpePlane implements block-based patch extension at a block size
// larger than the occupancy block: blocks with zero downscaled
// occupancy are skipped entirely (left at background), and mixed blocks
// propagate values inward with the same iterative average, restricted to
// each block's interior.
func bbpePlane(plane, occ, dsOcc []byte, width, height, blockSizeBBPE, dsResolution int) {
	if blockSizeBBPE <= 0 {
		blockSizeBBPE = dsResolution
	}
	dsWidth := width / dsResolution
	bbpeBlocksX := (width + blockSizeBBPE - 1) / blockSizeBBPE
	bbpeBlocksY := (height + blockSizeBBPE - 1) / blockSizeBBPE

	filled := make([]bool, len(plane))
	for i, o := range occ {
		filled[i] = o == 1
	}

	for by := 0; by < bbpeBlocksY; by++ {
		for bx := 0; bx < bbpeBlocksX; bx++ {
			x0, y0 := bx*blockSizeBBPE, by*blockSizeBBPE
			x1 := min(x0+blockSizeBBPE, width)
			y1 := min(y0+blockSizeBBPE, height)

			if blockDSOccupancySum(dsOcc, dsWidth, x0, y0, x1, y1, dsResolution) == 0 {
				continue
			}
			iterativeAverageRegion(plane, filled, width, x0, y0, x1, y1, blockSizeBBPE*blockSizeBBPE)
		}
	}
}

func blockDSOccupancySum(dsOcc []byte, dsWidth, x0, y0, x1, y1, r int) int {
	sum := 0
	for y := y0 / r; y < (y1+r-1)/r; y++ {
		for x := x0 / r; x < (x1+r-1)/r; x++ {
			if y*dsWidth+x < len(dsOcc) {
				sum += int(dsOcc[y*dsWidth+x])
			}
		}
	}
	return sum
}

func iterativeAverageRegion(plane []byte, filled []bool, width, x0, y0, x1, y1, maxIters int) {
	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				idx := y*width + x
				if filled[idx] {
					continue
				}
				sum, count := 0, 0
				if x > x0 && filled[idx-1] {
					sum += int(plane[idx-1])
					count++
				}
				if x < x1-1 && filled[idx+1] {
					sum += int(plane[idx+1])
					count++
				}
				if y > y0 && filled[idx-width] {
					sum += int(plane[idx-width])
					count++
				}
				if y < y1-1 && filled[idx+width] {
					sum += int(plane[idx+width])
					count++
				}
				if count > 0 {
					plane[idx] = byte((sum + count/2) / count)
					filled[idx] = true
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
}

// pushPullPlane implements the weighted mip-pyramid push-pull filler:
// a "pull" pass builds successively coarser levels by weighted 2x2
// averaging of already-filled pixels, then a "push" pass propagates
// values back down, each empty pixel taking the coarser level's value
// at its location.
func pushPullPlane(plane, occ []byte, width, height int) {
	type level struct {
		width, height int
		value         []float64
		weight        []float64
	}

	levels := []level{{width: width, height: height, value: make([]float64, width*height), weight: make([]float64, width*height)}}
	for i := range plane {
		if occ[i] == 1 {
			levels[0].value[i] = float64(plane[i])
			levels[0].weight[i] = 1
		}
	}

	for cur := levels[len(levels)-1]; cur.width > 1 || cur.height > 1; cur = levels[len(levels)-1] {
		nw, nh := max(cur.width/2, 1), max(cur.height/2, 1)
		next := level{width: nw, height: nh, value: make([]float64, nw*nh), weight: make([]float64, nw*nh)}
		for y := 0; y < nh; y++ {
			for x := 0; x < nw; x++ {
				var sumV, sumW float64
				for dy := 0; dy < 2; dy++ {
					for dx := 0; dx < 2; dx++ {
						sx, sy := x*2+dx, y*2+dy
						if sx >= cur.width || sy >= cur.height {
							continue
						}
						idx := sy*cur.width + sx
						sumV += cur.value[idx] * cur.weight[idx]
						sumW += cur.weight[idx]
					}
				}
				if sumW > 0 {
					next.value[y*nw+x] = sumV / sumW
					next.weight[y*nw+x] = sumW / 4
				}
			}
		}
		levels = append(levels, next)
	}

	for l := len(levels) - 2; l >= 0; l-- {
		cur, coarser := levels[l], levels[l+1]
		for y := 0; y < cur.height; y++ {
			for x := 0; x < cur.width; x++ {
				idx := y*cur.width + x
				if cur.weight[idx] > 0 {
					continue
				}
				cx, cy := min(x/2, coarser.width-1), min(y/2, coarser.height-1)
				cidx := cy*coarser.width + cx
				if coarser.weight[cidx] > 0 {
					cur.value[idx] = coarser.value[cidx]
					cur.weight[idx] = coarser.weight[cidx]
				}
			}
		}
	}

	base := levels[0]
	for i, w := range base.weight {
		if occ[i] == 1 {
			continue
		}
		if w > 0 {
			plane[i] = clampByte(int32(base.value[i] + 0.5))
		}
	}

	boxFilterSmooth(plane, occ, width, height)
}

// boxFilterSmooth runs a growing-window box filter over still-imperfect
// background pixels, widening the window each round; bounded to a small
// fixed number of rounds since the push-pull pass above has already
// assigned every reachable pixel a value.
func boxFilterSmooth(plane, occ []byte, width, height int) {
	const rounds = 3
	tmp := make([]byte, len(plane))
	copy(tmp, plane)
	for round := 1; round <= rounds; round++ {
		radius := round
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := y*width + x
				if occ[idx] == 1 {
					continue
				}
				sum, count := 0, 0
				for dy := -radius; dy <= radius; dy++ {
					for dx := -radius; dx <= radius; dx++ {
						sx, sy := x+dx, y+dy
						if sx < 0 || sy < 0 || sx >= width || sy >= height {
							continue
						}
						sum += int(plane[sy*width+sx])
						count++
					}
				}
				if count > 0 {
					tmp[idx] = byte((sum + count/2) / count)
				}
			}
		}
		copy(plane, tmp)
	}
}
