// Package ppi assigns each voxel a Projection-Plane Index (PPI) in [0,5]
// from its estimated normal, then refines that assignment with a
// coarser-grid smoothing pass (spec.md §4.4). This is "path A" of patch
// generation; path B lives in the sibling slicing package.
package ppi

import "github.com/vpcc-go/vpcc/geomlut"

// AssignInitial computes PPI(v) = argmax_k(normal(v) . plane[k]) for every
// voxel, breaking ties at the lowest PPI index.
func AssignInitial(normals []geomlut.Vec3) []int {
	out := make([]int, len(normals))
	for i, n := range normals {
		out[i] = geomlut.ArgmaxDot(n)
	}
	return out
}
