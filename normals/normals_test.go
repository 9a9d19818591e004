package normals

import (
	"math"
	"testing"

	"github.com/vpcc-go/vpcc/geomlut"
	"github.com/vpcc-go/vpcc/pointcloud"
)

func planeVoxels() []pointcloud.Point {
	var pts []pointcloud.Point
	for x := uint32(0); x < 8; x++ {
		for y := uint32(0); y < 8; y++ {
			pts = append(pts, pointcloud.Point{x, y, 5})
		}
	}
	return pts
}

func TestEstimateNormalsUnitLength(t *testing.T) {
	t.Parallel()
	voxels := planeVoxels()
	idx := geomlut.NewKNNIndex(voxels, 4)
	est := NewEstimator(8, 20)
	ns := est.Estimate(voxels, idx)

	for i, n := range ns {
		norm := n.Norm()
		if math.Abs(norm-1) > 1e-6 {
			t.Fatalf("normal %d: ||n||=%v, want ~1", i, norm)
		}
	}
}

func TestEstimateNormalsPlaneIsZAligned(t *testing.T) {
	t.Parallel()
	voxels := planeVoxels()
	idx := geomlut.NewKNNIndex(voxels, 4)
	est := NewEstimator(8, 20)
	ns := est.Estimate(voxels, idx)

	// An interior point's normal should be nearly parallel to Z; its X/Y
	// components should be small relative to Z.
	interior := ns[len(ns)/2]
	if math.Abs(interior.Z) < 0.9 {
		t.Errorf("expected a Z-dominant normal for a flat Z=5 plane, got %+v", interior)
	}
}

func TestOrientMakesAdjacentNormalsAgree(t *testing.T) {
	t.Parallel()
	voxels := planeVoxels()
	idx := geomlut.NewKNNIndex(voxels, 4)
	est := NewEstimator(8, 20)
	ns := est.Estimate(voxels, idx)

	orienter := NewOrienter(8)
	orienter.Orient(voxels, idx, ns)

	for i := range ns {
		knn := idx.Query(i, 8)
		for _, j := range knn {
			d := ns[i].Dot(ns[j])
			if d < -0.5 {
				t.Fatalf("normals %d and %d disagree strongly after orientation: dot=%v", i, j, d)
			}
		}
	}
}
