// Package voxel quantizes a point cloud's geometry to a coarser grid,
// deduplicating coincident points while preserving first-encountered
// order and recording which voxel each input point mapped to.
package voxel

import (
	"errors"
	"fmt"

	"github.com/vpcc-go/vpcc/pointcloud"
)

// ErrBitDepthOrder is returned when outBits exceeds inBits: a voxelization
// step must only coarsen, never refine, the grid.
var ErrBitDepthOrder = errors.New("voxel: outBits must be <= inBits")

// Grid is a voxelized point cloud: a deduplicated set of voxels plus the
// mapping from every original point index to the voxel index it quantized
// to. Voxels appear in first-encountered order, so index 0 is always the
// voxel of the first point that mapped to it.
type Grid struct {
	Voxels            []pointcloud.Point
	PointsIDToVoxelID []int
	BitDepth          uint
}

// voxelKey packs a quantized 3-tuple into a single comparable map key.
// Coordinates are bounded by the target bit depth (<=16), so three of them
// fit comfortably in a uint64.
func voxelKey(p pointcloud.Point) uint64 {
	return uint64(p[0])<<32 | uint64(p[1])<<16 | uint64(p[2])
}

// Voxelize quantizes every point in points by right-shifting each
// coordinate by (inBits - outBits), then deduplicates the resulting
// coordinates into a Grid. It is deterministic: voxel order follows the
// input point order, and point->voxel assignment is exact.
func Voxelize(points []pointcloud.Point, inBits, outBits uint) (*Grid, error) {
	if outBits > inBits {
		return nil, fmt.Errorf("%w: inBits=%d outBits=%d", ErrBitDepthOrder, inBits, outBits)
	}

	shift := inBits - outBits
	index := make(map[uint64]int, len(points))
	g := &Grid{
		Voxels:            make([]pointcloud.Point, 0, len(points)),
		PointsIDToVoxelID: make([]int, len(points)),
		BitDepth:          outBits,
	}

	for i, p := range points {
		q := pointcloud.Point{p[0] >> shift, p[1] >> shift, p[2] >> shift}
		key := voxelKey(q)
		voxelID, ok := index[key]
		if !ok {
			voxelID = len(g.Voxels)
			index[key] = voxelID
			g.Voxels = append(g.Voxels, q)
		}
		g.PointsIDToVoxelID[i] = voxelID
	}

	return g, nil
}
