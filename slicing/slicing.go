// Package slicing assigns each voxel a Projection-Plane Index directly
// from geometry, by cutting the point set into axis-aligned slices and
// walking each slice's boundary contour, as an alternative to normal
// estimation (spec.md §4.5, "path B").
package slicing

import (
	"sort"

	"github.com/vpcc-go/vpcc/geomlut"
	"github.com/vpcc-go/vpcc/pointcloud"
)

// blankPPI marks a walk step whose direction was diagonal and therefore
// ambiguous between two planes; it is filled in during the blank-run
// smoothing pass.
const blankPPI = -1

// direction is an in-plane (tangent, bitangent) step.
type direction struct{ du, dv int }

// priorityOffsets lists the eight unit/diagonal in-plane steps, ordered
// so that index 0 continues straight ahead; callers rotate this list to
// start from whatever direction matches the walk's current heading.
var priorityOffsets = []direction{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

func dirIndex(d direction) int {
	for i, o := range priorityOffsets {
		if o == d {
			return i
		}
	}
	return 0
}

// rotatedPriority returns priorityOffsets starting from the entry closest
// to prev's heading, preserving relative order - the simplified stand-in
// for the full rotation-indexed candidate table.
func rotatedPriority(prev direction) []direction {
	start := dirIndex(prev)
	out := make([]direction, len(priorityOffsets))
	for i := range priorityOffsets {
		out[i] = priorityOffsets[(start+i)%len(priorityOffsets)]
	}
	return out
}

// slicePoint is one voxel projected into a slice's 2-D (tangent,
// bitangent) coordinate system.
type slicePoint struct {
	pointIdx int
	u, v     int
}

// axisResult holds, for one of the three slicing axes, the PPI each
// point was assigned by its slice's walk and blank-run smoothing (or -1
// if every point of its slice was blank, so smoothing had nothing to
// fill from).
type axisResult struct {
	ppi    []int // len(voxels); -1 if this axis never assigned this point
	normal []geomlut.Vec3
}

// Segment assigns a PPI to every voxel using the slicing algorithm,
// independently along X, Y, and Z, then merges the three per-axis
// assignments per the majority rule in spec.md §4.5.
func Segment(voxels []pointcloud.Point) ([]int, []geomlut.Vec3) {
	axes := [3]geomlut.Axis{geomlut.AxisX, geomlut.AxisY, geomlut.AxisZ}
	results := make([]axisResult, 3)
	for i, axis := range axes {
		results[i] = segmentAxis(voxels, axis)
	}
	return merge(voxels, results)
}

func segmentAxis(voxels []pointcloud.Point, normalAxis geomlut.Axis) axisResult {
	tangent, bitangent := otherAxes(normalAxis)

	slices := map[uint32][]slicePoint{}
	for i, p := range voxels {
		level := geomlut.ComponentI([3]uint32(p), normalAxis)
		sp := slicePoint{
			pointIdx: i,
			u:        int(geomlut.ComponentI([3]uint32(p), tangent)),
			v:        int(geomlut.ComponentI([3]uint32(p), bitangent)),
		}
		slices[level] = append(slices[level], sp)
	}

	res := axisResult{
		ppi:    make([]int, len(voxels)),
		normal: make([]geomlut.Vec3, len(voxels)),
	}
	for i := range res.ppi {
		res.ppi[i] = -1
	}

	levels := make([]uint32, 0, len(slices))
	for lv := range slices {
		levels = append(levels, lv)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	for _, lv := range levels {
		walkSlice(slices[lv], normalAxis, tangent, bitangent, res.ppi, res.normal)
	}
	return res
}

func otherAxes(a geomlut.Axis) (geomlut.Axis, geomlut.Axis) {
	switch a {
	case geomlut.AxisX:
		return geomlut.AxisZ, geomlut.AxisY
	case geomlut.AxisY:
		return geomlut.AxisZ, geomlut.AxisX
	default:
		return geomlut.AxisX, geomlut.AxisY
	}
}

// walkSlice performs the contour-weaving walk over one slice's points,
// assigning a PPI to every point reached by an axis-aligned step
// (blankPPI for diagonal steps and for the point each walk starts from),
// then smooths the blank runs. Points are not attached as children of a
// walked point; each point keeps the PPI of its own step or the value
// smoothing gives it.
func walkSlice(points []slicePoint, normalAxis, tangent, bitangent geomlut.Axis, outPPI []int, outNormal []geomlut.Vec3) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].u != points[j].u {
			return points[i].u < points[j].u
		}
		return points[i].v < points[j].v
	})

	byCoord := make(map[[2]int]slicePoint, len(points))
	for _, p := range points {
		byCoord[[2]int{p.u, p.v}] = p
	}
	visited := make(map[int]bool, len(points))

	for _, start := range points {
		if visited[start.pointIdx] {
			continue
		}
		walkSubslice(start, byCoord, visited, normalAxis, tangent, bitangent, outPPI, outNormal)
	}

	// Unvisited points cannot occur: every point belongs to exactly one
	// subslice walk, since the loop above starts a new walk from each
	// point that is still unvisited in the sorted order; a walk follows a
	// single chain and stops when no unvisited neighbor is left or the
	// loop closes.

	smoothBlanks(points, outPPI)
}

func walkSubslice(start slicePoint, byCoord map[[2]int]slicePoint, visited map[int]bool, normalAxis, tangent, bitangent geomlut.Axis, outPPI []int, outNormal []geomlut.Vec3) {
	visited[start.pointIdx] = true
	cur := start
	prev := direction{1, 0}
	var chain []int
	chain = append(chain, start.pointIdx)

	for {
		candidates := rotatedPriority(prev)
		var best *slicePoint
		var bestDir direction
		for _, d := range candidates {
			key := [2]int{cur.u + d.du, cur.v + d.dv}
			if sp, ok := byCoord[key]; ok && !visited[sp.pointIdx] {
				spCopy := sp
				best = &spCopy
				bestDir = d
				break
			}
		}
		if best == nil {
			// No neighbor exists: single-point closure for this step.
			break
		}

		startDist := manhattan(cur.u-start.u, cur.v-start.v)
		candDist := manhattan(bestDir.du, bestDir.dv)
		if startDist > 0 && startDist <= candDist {
			// Returning to the subslice start scores at least as well
			// as continuing outward: close the loop here.
			break
		}

		visited[best.pointIdx] = true
		ppi := blankPPI
		if bestDir.du == 0 || bestDir.dv == 0 {
			ppi = stepPPI(normalAxis, tangent, bitangent, bestDir)
		}
		outPPI[best.pointIdx] = ppi
		if ppi != blankPPI {
			outNormal[best.pointIdx] = geomlut.Planes[ppi].Normal
		}

		cur = *best
		prev = bestDir
		chain = append(chain, best.pointIdx)
	}
}

func manhattan(du, dv int) int {
	if du < 0 {
		du = -du
	}
	if dv < 0 {
		dv = -dv
	}
	return du + dv
}

// stepPPI maps an axis-aligned in-plane step direction to the PPI whose
// normal has maximum dot product with the corresponding 3-D step vector.
func stepPPI(normalAxis, tangent, bitangent geomlut.Axis, d direction) int {
	v := geomlut.Vec3{}
	setComponent(&v, tangent, float64(d.du))
	setComponent(&v, bitangent, float64(d.dv))
	return geomlut.ArgmaxDot(v)
}

func setComponent(v *geomlut.Vec3, a geomlut.Axis, val float64) {
	switch a {
	case geomlut.AxisX:
		v.X = val
	case geomlut.AxisY:
		v.Y = val
	default:
		v.Z = val
	}
}

// smoothBlanks fills any maximal run of blankPPI entries from its two
// non-blank endpoints, half from the left and half from the right, per
// spec.md §4.5 step 6. Runs are taken over the whole slice in its (u, v)
// sort order, not per subslice walk, so a run can span points of several
// walks. A run with a non-blank entry on only one side takes that value
// throughout; entries stay blankPPI only when the whole slice is blank.
func smoothBlanks(points []slicePoint, ppi []int) {
	order := make([]int, len(points))
	for i, p := range points {
		order[i] = p.pointIdx
	}

	i := 0
	for i < len(order) {
		if ppi[order[i]] != blankPPI {
			i++
			continue
		}
		j := i
		for j < len(order) && ppi[order[j]] == blankPPI {
			j++
		}
		// Blank run is [i, j).
		var left, right = -1, -1
		if i > 0 {
			left = ppi[order[i-1]]
		}
		if j < len(order) {
			right = ppi[order[j]]
		}
		fillRun(order[i:j], ppi, left, right)
		i = j
	}
}

func fillRun(run []int, ppi []int, left, right int) {
	if left == -1 && right == -1 {
		return
	}
	if left == -1 {
		left = right
	}
	if right == -1 {
		right = left
	}
	half := len(run) / 2
	for k, idx := range run {
		if k < half {
			ppi[idx] = left
		} else {
			ppi[idx] = right
		}
	}
}

// merge combines the three per-axis results into a final per-voxel PPI
// and normal, per the majority/fallback rule in spec.md §4.5.
func merge(voxels []pointcloud.Point, axisResults []axisResult) ([]int, []geomlut.Vec3) {
	n := len(voxels)
	ppi := make([]int, n)
	normal := make([]geomlut.Vec3, n)

	for i := 0; i < n; i++ {
		x, y, z := axisResults[0].ppi[i], axisResults[1].ppi[i], axisResults[2].ppi[i]
		votes := map[int]int{}
		if x != -1 {
			votes[x]++
		}
		if y != -1 {
			votes[y]++
		}
		if z != -1 {
			votes[z]++
		}

		switch {
		case len(votes) == 0:
			// Undetermined on every axis: fall back to PPI 0 with a
			// zero normal so every point still receives a PPI.
			ppi[i] = 0
			normal[i] = geomlut.Vec3{}
		case agreeTwoOrMore(votes):
			p := majorityPPI(votes)
			ppi[i] = p
			normal[i] = geomlut.Planes[p].Normal
		case y != -1:
			ppi[i] = y
			normal[i] = geomlut.Vec3{}
		default:
			// All three axes disagree and Y's axis never assigned this
			// point directly: fall back to whichever axis did.
			p := x
			if p == -1 {
				p = z
			}
			if p == -1 {
				p = 0
			}
			ppi[i] = p
			normal[i] = geomlut.Vec3{}
		}
	}
	return ppi, normal
}

func agreeTwoOrMore(votes map[int]int) bool {
	for _, c := range votes {
		if c >= 2 {
			return true
		}
	}
	return false
}

func majorityPPI(votes map[int]int) int {
	best, bestCount := 0, -1
	keys := make([]int, 0, len(votes))
	for k := range votes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if votes[k] > bestCount {
			best, bestCount = k, votes[k]
		}
	}
	return best
}
