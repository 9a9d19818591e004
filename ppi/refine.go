package ppi

import (
	"github.com/vpcc-go/vpcc/geomlut"
	"github.com/vpcc-go/vpcc/pointcloud"
	"github.com/vpcc-go/vpcc/voxel"
)

// Class is a super-voxel's edge classification, used to decide whether it
// needs refinement at all (spec.md §4.4).
type Class int

const (
	// NoEdge: every point in the super-voxel (and every neighbor
	// super-voxel) shares one PPI. Nothing to refine.
	NoEdge Class = iota
	// IndirectEdge: a neighbor's dominant PPI differs from this
	// super-voxel's current PPI.
	IndirectEdge
	// SDirectEdge: a soft direct edge - this super-voxel itself holds a
	// minority PPI alongside its majority.
	SDirectEdge
	// MDirectEdge: a strong direct edge - no single PPI dominates this
	// super-voxel.
	MDirectEdge
)

type superVoxel struct {
	coord     pointcloud.Point
	members   []int // indices into the original voxel/normal/ppi slices
	histogram [geomlut.NumPPI]int
	class     Class
	neighbors []int // super-voxel ids within MaxNNVoxelDistanceLUT
	idev      []int // super-voxel ids within distance 3 (IDEV list)
}

// RefineSegmenter smooths an initial PPI assignment using a coarser
// super-voxel grid, per spec.md §4.4.
type RefineSegmenter struct {
	BitDepthRefine      uint
	MaxNNVoxelDistance  int
	MaxNNTotalPoints    int
	Lambda              float64
	IterationCount      int
}

// NewRefineSegmenter returns a RefineSegmenter configured from the
// corresponding spec.md §6 parameters.
func NewRefineSegmenter(bitDepthRefine uint, maxNNVoxelDistance, maxNNTotalPoints int, lambda float64, iterationCount int) *RefineSegmenter {
	return &RefineSegmenter{
		BitDepthRefine:     bitDepthRefine,
		MaxNNVoxelDistance: maxNNVoxelDistance,
		MaxNNTotalPoints:   maxNNTotalPoints,
		Lambda:             lambda,
		IterationCount:     iterationCount,
	}
}

// Refine runs refineSegmentationIterationCount rounds of super-voxel
// smoothing over ppis (as assigned by AssignInitial), returning the
// refined per-voxel PPI assignment. voxels and normals must be
// index-aligned with ppis. bitDepthVoxelized is the bit depth voxels are
// already expressed at.
func (r *RefineSegmenter) Refine(voxels []pointcloud.Point, bitDepthVoxelized uint, normals []geomlut.Vec3, ppis []int) []int {
	out := append([]int(nil), ppis...)
	if len(voxels) == 0 {
		return out
	}

	svGrid, err := voxel.Voxelize(voxels, bitDepthVoxelized, r.BitDepthRefine)
	if err != nil {
		// BitDepthRefine is required to be <= the voxelized bit depth by
		// Parameters.Validate, which NewEncoder runs; if it is not, there
		// is no coarser grid to refine against, so skip refinement
		// entirely rather than fail a frame already in flight.
		return out
	}

	svs := buildSuperVoxels(svGrid, out)
	classify(svs, r.MaxNNVoxelDistance)

	shell := geomlut.BuildShellTable(r.MaxNNVoxelDistance)
	coordIndex := make(map[pointcloud.Point]int, len(svs))
	for id, sv := range svs {
		coordIndex[sv.coord] = id
	}
	for id := range svs {
		svs[id].neighbors = neighborsWithin(svs[id].coord, coordIndex, shell, r.MaxNNVoxelDistance)
		svs[id].idev = neighborsWithin(svs[id].coord, coordIndex, shell, min(3, r.MaxNNVoxelDistance))
	}

	for iter := 0; iter < r.IterationCount; iter++ {
		changed := refineRound(svs, normals, out, r.Lambda, r.MaxNNTotalPoints)
		if len(changed) == 0 {
			break
		}
		recomputeHistograms(svs, out, changed)
		classify(svs, r.MaxNNVoxelDistance)
	}

	return out
}

func buildSuperVoxels(svGrid *voxel.Grid, ppis []int) []*superVoxel {
	svs := make([]*superVoxel, len(svGrid.Voxels))
	for id, coord := range svGrid.Voxels {
		svs[id] = &superVoxel{coord: coord}
	}
	for pointIdx, svID := range svGrid.PointsIDToVoxelID {
		svs[svID].members = append(svs[svID].members, pointIdx)
		svs[svID].histogram[ppis[pointIdx]]++
	}
	return svs
}

func neighborsWithin(coord pointcloud.Point, index map[pointcloud.Point]int, shell *geomlut.ShellTable, maxShell int) []int {
	var out []int
	for _, off := range shell.Within(maxShell) {
		if off.DX == 0 && off.DY == 0 && off.DZ == 0 {
			continue
		}
		nx := int64(coord[0]) + int64(off.DX)
		ny := int64(coord[1]) + int64(off.DY)
		nz := int64(coord[2]) + int64(off.DZ)
		if nx < 0 || ny < 0 || nz < 0 {
			continue
		}
		key := pointcloud.Point{uint32(nx), uint32(ny), uint32(nz)}
		if id, ok := index[key]; ok {
			out = append(out, id)
		}
	}
	return out
}

func dominant(hist [geomlut.NumPPI]int) int {
	best := 0
	for k := 1; k < geomlut.NumPPI; k++ {
		if hist[k] > hist[best] {
			best = k
		}
	}
	return best
}

func classify(svs []*superVoxel, maxNNDistance int) {
	for _, sv := range svs {
		own := dominant(sv.histogram)
		pure := true
		for k := 0; k < geomlut.NumPPI; k++ {
			if k != own && sv.histogram[k] > 0 {
				pure = false
				break
			}
		}
		if !pure {
			total := 0
			for _, c := range sv.histogram {
				total += c
			}
			if sv.histogram[own]*2 < total {
				sv.class = MDirectEdge
			} else {
				sv.class = SDirectEdge
			}
			continue
		}

		neighborsAgree := true
		for _, nid := range sv.neighbors {
			if dominant(svs[nid].histogram) != own {
				neighborsAgree = false
				break
			}
		}
		if neighborsAgree {
			sv.class = NoEdge
		} else {
			sv.class = IndirectEdge
		}
	}
}

// refineRound runs one round of the refine-segmentation update rule from
// spec.md §4.4 and returns the indices of super-voxels whose member PPIs
// changed, so the caller can recompute only their histograms/class.
func refineRound(svs []*superVoxel, normals []geomlut.Vec3, ppis []int, lambda float64, maxNNTotalPoints int) []int {
	var changedSVs []int

	for svID, sv := range svs {
		if sv.class == NoEdge {
			continue
		}

		var extended [geomlut.NumPPI]float64
		nnTotal := 0
		for _, nid := range sv.neighbors {
			for k := 0; k < geomlut.NumPPI; k++ {
				extended[k] += float64(svs[nid].histogram[k])
			}
			nnTotal += len(svs[nid].members)
		}
		if nnTotal > maxNNTotalPoints {
			nnTotal = maxNNTotalPoints
		}
		if nnTotal == 0 {
			continue
		}

		extendedArgmax := argmaxFloat(extended)
		for _, idevID := range sv.idev {
			if dominant(svs[idevID].histogram) != extendedArgmax {
				svs[idevID].class = IndirectEdge
			}
		}

		// Fresh NO_EDGE test: if every member already agrees with
		// extendedArgmax and every neighbor's dominant PPI does too,
		// this super-voxel no longer needs refining this round.
		if allAgree(sv, ppis, extendedArgmax) {
			neighborsAgree := true
			for _, nid := range sv.neighbors {
				if dominant(svs[nid].histogram) != extendedArgmax {
					neighborsAgree = false
					break
				}
			}
			if neighborsAgree {
				sv.class = NoEdge
				continue
			}
		}

		svChanged := false
		for _, p := range sv.members {
			var scored [geomlut.NumPPI]float64
			for k := 0; k < geomlut.NumPPI; k++ {
				scored[k] = lambda/float64(nnTotal)*extended[k] + normals[p].Dot(geomlut.Planes[k].Normal)
			}
			newPPI := argmaxFloat(scored)
			if newPPI != ppis[p] {
				ppis[p] = newPPI
				svChanged = true
			}
		}
		if svChanged {
			changedSVs = append(changedSVs, svID)
		}
	}

	return changedSVs
}

func allAgree(sv *superVoxel, ppis []int, target int) bool {
	for _, p := range sv.members {
		if ppis[p] != target {
			return false
		}
	}
	return true
}

func argmaxFloat(v [geomlut.NumPPI]float64) int {
	best := 0
	for k := 1; k < geomlut.NumPPI; k++ {
		if v[k] > v[best] {
			best = k
		}
	}
	return best
}

func recomputeHistograms(svs []*superVoxel, ppis []int, changed []int) {
	for _, id := range changed {
		sv := svs[id]
		sv.histogram = [geomlut.NumPPI]int{}
		for _, p := range sv.members {
			sv.histogram[ppis[p]]++
		}
	}
}
