package patch

import (
	"sort"

	"github.com/vpcc-go/vpcc/geomlut"
	"github.com/vpcc-go/vpcc/pointcloud"
)

// Config bundles the patch-segmentation parameters read from spec.md §6.
type Config struct {
	MaxAllowedDist2RawPointsDetection int
	MinPointCountPerCC                int
	MaxPropagationDistance            int // shell index, 0..8
	MinLevel                          int // power of two
	SurfaceThickness                  int
	OccupancyMapDSResolution          int // r in {2,4}
	DistanceFiltering                 int
	DoubleLayer                       bool
}

// Segmenter grows connected components of same-PPI voxels into Patches.
type Segmenter struct {
	cfg   Config
	shell *geomlut.ShellTable
}

// NewSegmenter returns a Segmenter for the given configuration, building
// its propagation shell table once up front.
func NewSegmenter(cfg Config) *Segmenter {
	return &Segmenter{
		cfg:   cfg,
		shell: geomlut.BuildShellTable(cfg.MaxPropagationDistance),
	}
}

func fingerprint(p pointcloud.Point, bits uint) uint64 {
	return uint64(p[0]) + uint64(p[1])<<bits + uint64(p[2])<<(2*bits)
}

// Generate grows connected components of voxels sharing a PPI and
// projects each one into a Patch, iterating until no voxel is left that is
// both unvisited and accepted as a seed. Every voxel a component grows over
// stays visited, so a voxel that the filter pass, the projection or the L2
// surface-thickness test leaves out of its patch is not encoded by any
// patch, and neither is a voxel that is only ever rejected as a seed.
func (s *Segmenter) Generate(voxels []pointcloud.Point, ppis []int, bitDepth uint) []*Patch {
	n := len(voxels)
	visited := make([]bool, n)
	resample := make(map[uint64]bool, n)

	// One hashmap per PPI from packed voxel coordinate to point index,
	// used both to test same-PPI adjacency during BFS growth and to
	// reject seeds too close to already-captured points.
	byPPIPos := make([]map[uint64]int, geomlut.NumPPI)
	for k := range byPPIPos {
		byPPIPos[k] = make(map[uint64]int)
	}
	for i, v := range voxels {
		byPPIPos[ppis[i]][fingerprint(v, bitDepth)] = i
	}

	var patches []*Patch
	firstSeed := true

	for {
		seed := -1
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			if !firstSeed && s.seedTooClose(voxels[i], resample, bitDepth) {
				continue
			}
			seed = i
			break
		}
		if seed == -1 {
			break
		}
		firstSeed = false

		cc, bbox := s.grow(voxels, ppis, visited, byPPIPos, bitDepth, seed)

		if len(cc) < s.cfg.MinPointCountPerCC {
			continue
		}

		patch := s.project(voxels, ppis, seed, cc, bbox)
		patches = append(patches, patch)

		for pi, pixIdx := range patch.DepthPCidxL1 {
			if pixIdx < 0 {
				continue
			}
			resample[fingerprint(voxels[pixIdx], bitDepth)] = true
			_ = pi
		}
		if patch.DoubleLayer {
			for _, pixIdx := range patch.DepthPCidxL2 {
				if pixIdx < 0 {
					continue
				}
				resample[fingerprint(voxels[pixIdx], bitDepth)] = true
			}
		}
	}

	sort.SliceStable(patches, func(i, j int) bool {
		return max(patches[i].WidthInPixel, patches[i].HeightInPixel) > max(patches[j].WidthInPixel, patches[j].HeightInPixel)
	})
	for i, p := range patches {
		p.Index = i
	}
	return patches
}

func (s *Segmenter) seedTooClose(v pointcloud.Point, resample map[uint64]bool, bitDepth uint) bool {
	for _, off := range s.shell.Within(clampShell(s.cfg.MaxAllowedDist2RawPointsDetection, s.shell)) {
		nb := shiftedPoint(v, off)
		if resample[fingerprint(nb, bitDepth)] {
			return true
		}
	}
	return false
}

func clampShell(requested int, t *geomlut.ShellTable) int {
	if requested >= len(t.Shells) {
		return len(t.Shells) - 1
	}
	return requested
}

func shiftedPoint(v pointcloud.Point, off geomlut.Offset) pointcloud.Point {
	return pointcloud.Point{
		uint32(int64(v[0]) + int64(off.DX)),
		uint32(int64(v[1]) + int64(off.DY)),
		uint32(int64(v[2]) + int64(off.DZ)),
	}
}

type bbox struct {
	minU, maxU, minV, maxV int
	init                   bool
}

func (b *bbox) extend(u, v int) {
	if !b.init {
		b.minU, b.maxU, b.minV, b.maxV = u, u, v, v
		b.init = true
		return
	}
	if u < b.minU {
		b.minU = u
	}
	if u > b.maxU {
		b.maxU = u
	}
	if v < b.minV {
		b.minV = v
	}
	if v > b.maxV {
		b.maxV = v
	}
}

// grow performs a BFS over same-PPI voxels reachable from seed within the
// propagation shell, marking each captured voxel visited and tracking the
// (tangent, bitangent) bounding box.
func (s *Segmenter) grow(voxels []pointcloud.Point, ppis []int, visited []bool, byPPIPos []map[uint64]int, bitDepth uint, seed int) ([]int, bbox) {
	ppi := ppis[seed]
	plane := geomlut.Planes[ppi]

	var cc []int
	var box bbox
	queue := []int{seed}
	visited[seed] = true

	offsets := s.shell.Within(s.cfg.MaxPropagationDistance)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cc = append(cc, cur)

		u := int(geomlut.ComponentI(voxels[cur], plane.Tangent))
		v := int(geomlut.ComponentI(voxels[cur], plane.Bitangent))
		box.extend(u, v)

		for _, off := range offsets {
			nb := shiftedPoint(voxels[cur], off)
			idx, ok := byPPIPos[ppi][fingerprint(nb, bitDepth)]
			if !ok || visited[idx] {
				continue
			}
			visited[idx] = true
			queue = append(queue, idx)
		}
	}
	return cc, box
}

// project builds a Patch from a grown connected component, writing
// depthL1 (and depthL2 if enabled) per the projection-mode rule, then
// computing posD and running the filter pass described in spec.md §4.6.
func (s *Segmenter) project(voxels []pointcloud.Point, ppis []int, seed int, cc []int, box bbox) *Patch {
	ppi := ppis[seed]
	r := s.cfg.OccupancyMapDSResolution

	width := roundUp(box.maxU-box.minU+1, r)
	height := roundUp(box.maxV-box.minV+1, r)

	patch := NewPatch(0, ppi, width, height, s.cfg.DoubleLayer)
	patch.PosU = box.minU
	patch.PosV = box.minV
	patch.WidthInOccBlk = width / r
	patch.HeightInOccBlk = height / r
	// AxisSwap is orientation data the patch computes for itself (spec.md
	// §3 lists it alongside patchPpi/projectionMode, not among the
	// externally-packed placement fields): a taller-than-wide patch is
	// rotated so the external packer always sees its longer side as width.
	patch.AxisSwap = (box.maxV-box.minV) > (box.maxU-box.minU)

	plane := geomlut.Planes[ppi]
	mode := plane.Mode

	blockPeak := make([]int64, patch.WidthInOccBlk*patch.HeightInOccBlk)
	blockHasValue := make([]bool, len(blockPeak))

	for _, pidx := range cc {
		u := int(geomlut.ComponentI(voxels[pidx], plane.Tangent)) - patch.PosU
		v := int(geomlut.ComponentI(voxels[pidx], plane.Bitangent)) - patch.PosV
		d := int64(geomlut.ComponentI(voxels[pidx], normalAxisOf(ppi)))

		pix := patch.PixelIndex(u, v)
		cur := patch.DepthL1[pix]
		write := cur == InfiniteDepth
		if !write {
			if mode == geomlut.ProjectionMinDepth && d < int64(cur) {
				write = true
			} else if mode == geomlut.ProjectionMaxDepth && d > int64(cur) {
				write = true
			}
		}
		if write {
			patch.DepthL1[pix] = uint32(d)
			patch.DepthPCidxL1[pix] = pidx
		}

		blk := (v/r)*patch.WidthInOccBlk + (u / r)
		if !blockHasValue[blk] {
			blockPeak[blk] = d
			blockHasValue[blk] = true
		} else if mode == geomlut.ProjectionMinDepth && d < blockPeak[blk] {
			blockPeak[blk] = d
		} else if mode == geomlut.ProjectionMaxDepth && d > blockPeak[blk] {
			blockPeak[blk] = d
		}
	}

	posD := globalPeak(blockPeak, blockHasValue, mode)
	if s.cfg.MinLevel > 0 {
		posD = roundDownToMultiple(posD, int64(s.cfg.MinLevel))
	}
	patch.PosD = int(posD)

	s.filter(patch, blockPeak, blockHasValue, r, posD)

	if s.cfg.DoubleLayer {
		s.buildLayer2(voxels, ppis, cc, patch, posD)
	}

	shiftDepths(patch.DepthL1, posD, mode)
	if s.cfg.DoubleLayer {
		shiftDepths(patch.DepthL2, posD, mode)
	}

	for i, cur := range patch.DepthL1 {
		if cur != InfiniteDepth {
			patch.Occupancy[i] = 1
		}
	}

	return patch
}

// shiftDepths rewrites each stored raw depth as its encoded offset from
// posD, sign-flipped for mode 1, per spec.md §3's `|d − posD| ≤ 255 −
// surfaceThickness` invariant and
// original_source/src/lib/patchGeneration/patchSegmentation.cpp:93-94
// (`depthL1_[pos] = projectionTypeIndication * (depthL1_[pos] - posD_)`).
func shiftDepths(layer []uint32, posD int64, mode geomlut.ProjectionMode) {
	sign := int64(1)
	if mode == geomlut.ProjectionMaxDepth {
		sign = -1
	}
	for i, d := range layer {
		if d == InfiniteDepth {
			continue
		}
		layer[i] = uint32(sign * (int64(d) - posD))
	}
}

func normalAxisOf(ppi int) geomlut.Axis {
	switch ppi % 3 {
	case 0:
		return geomlut.AxisX
	case 1:
		return geomlut.AxisY
	default:
		return geomlut.AxisZ
	}
}

func globalPeak(blockPeak []int64, has []bool, mode geomlut.ProjectionMode) int64 {
	var best int64
	found := false
	for i, v := range blockPeak {
		if !has[i] {
			continue
		}
		if !found {
			best = v
			found = true
			continue
		}
		if mode == geomlut.ProjectionMinDepth && v < best {
			best = v
		} else if mode == geomlut.ProjectionMaxDepth && v > best {
			best = v
		}
	}
	return best
}

// filter clears any pixel whose depth would overflow an 8-bit encoding
// once posD is subtracted, or whose deviation from its occupancy-block
// peak exceeds DistanceFiltering. Points cleared this way are dropped
// from the depth raster only; they stay marked visited from the component
// growth, so later connected components do not pick them up and no patch
// encodes them.
func (s *Segmenter) filter(patch *Patch, blockPeak []int64, has []bool, r int, posD int64) {
	maxAllowed := int64(255 - s.cfg.SurfaceThickness)
	for i, cur := range patch.DepthL1 {
		if cur == InfiniteDepth {
			continue
		}
		d := int64(cur)
		delta := d - posD
		if delta < 0 {
			delta = -delta
		}
		if delta > maxAllowed {
			patch.DepthL1[i] = InfiniteDepth
			patch.DepthPCidxL1[i] = -1
			continue
		}

		blk := blockIndexOf(patch, i, r)
		if has[blk] {
			dev := d - blockPeak[blk]
			if dev < 0 {
				dev = -dev
			}
			if s.cfg.DistanceFiltering > 0 && dev > int64(s.cfg.DistanceFiltering) {
				patch.DepthL1[i] = InfiniteDepth
				patch.DepthPCidxL1[i] = -1
			}
		}
	}
}

func blockIndexOf(patch *Patch, pixelIdx, r int) int {
	v := pixelIdx / patch.WidthInPixel
	u := pixelIdx % patch.WidthInPixel
	return (v/r)*patch.WidthInOccBlk + (u / r)
}

// buildLayer2 deep-copies L1 into L2 and then, per spec.md §4.6, keeps
// points whose depth is within SurfaceThickness of L1 as the second
// layer's value (farther in mode 0, nearer in mode 1).
func (s *Segmenter) buildLayer2(voxels []pointcloud.Point, ppis []int, cc []int, patch *Patch, posD int64) {
	copy(patch.DepthL2, patch.DepthL1)
	copy(patch.DepthPCidxL2, patch.DepthPCidxL1)

	plane := geomlut.Planes[patch.PPI]
	mode := plane.Mode
	maxSizeD := 0

	for _, pidx := range cc {
		u := int(geomlut.ComponentI(voxels[pidx], plane.Tangent)) - patch.PosU
		v := int(geomlut.ComponentI(voxels[pidx], plane.Bitangent)) - patch.PosV
		if u < 0 || v < 0 || u >= patch.WidthInPixel || v >= patch.HeightInPixel {
			continue
		}
		d := int64(geomlut.ComponentI(voxels[pidx], normalAxisOf(patch.PPI)))

		pix := patch.PixelIndex(u, v)
		l1 := patch.DepthL1[pix]
		if l1 == InfiniteDepth {
			continue
		}
		if d == int64(l1) {
			continue
		}
		if mode == geomlut.ProjectionMinDepth {
			if d < int64(l1) {
				continue // would overwrite L1, not this component's concern here
			}
			if d-int64(l1) >= int64(s.cfg.SurfaceThickness) {
				continue // left out of L2; no later component picks it up
			}
			if patch.DepthL2[pix] == InfiniteDepth || d > int64(patch.DepthL2[pix]) {
				patch.DepthL2[pix] = uint32(d)
				patch.DepthPCidxL2[pix] = pidx
			}
		} else {
			if d > int64(l1) {
				continue
			}
			if int64(l1)-d >= int64(s.cfg.SurfaceThickness) {
				continue
			}
			if patch.DepthL2[pix] == InfiniteDepth || d < int64(patch.DepthL2[pix]) {
				patch.DepthL2[pix] = uint32(d)
				patch.DepthPCidxL2[pix] = pidx
			}
		}
		if sd := int(d - posD); sd > maxSizeD {
			maxSizeD = sd
		}
	}
	patch.SizeD = maxSizeD
}

func roundUp(v, mult int) int {
	if mult <= 0 {
		return v
	}
	if v%mult == 0 {
		return v
	}
	return v + (mult - v%mult)
}

func roundDownToMultiple(v int64, mult int64) int64 {
	if mult <= 0 {
		return v
	}
	return (v / mult) * mult
}
