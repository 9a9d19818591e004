package ppi

import (
	"testing"

	"github.com/vpcc-go/vpcc/geomlut"
	"github.com/vpcc-go/vpcc/pointcloud"
)

func TestAssignInitialEveryPointHasValidPPI(t *testing.T) {
	t.Parallel()
	normals := []geomlut.Vec3{
		{X: 1}, {Y: 1}, {Z: 1}, {X: -1}, {Y: -1}, {Z: -1}, {},
	}
	ppis := AssignInitial(normals)
	for i, p := range ppis {
		if p < 0 || p >= geomlut.NumPPI {
			t.Fatalf("ppi[%d] = %d out of range", i, p)
		}
	}
	want := []int{0, 1, 2, 3, 4, 5, 0}
	for i, w := range want {
		if ppis[i] != w {
			t.Errorf("ppi[%d] = %d, want %d", i, ppis[i], w)
		}
	}
}

func TestRefineSegmenterNoChangeOnUniformPlane(t *testing.T) {
	t.Parallel()
	var voxels []pointcloud.Point
	var normals []geomlut.Vec3
	for x := uint32(0); x < 16; x++ {
		for y := uint32(0); y < 16; y++ {
			voxels = append(voxels, pointcloud.Point{x, y, 5})
			normals = append(normals, geomlut.Vec3{Z: 1})
		}
	}
	ppis := AssignInitial(normals)

	rs := NewRefineSegmenter(6, 1, 1000, 1.0, 4)
	refined := rs.Refine(voxels, 9, normals, ppis)

	for i := range refined {
		if refined[i] != ppis[i] {
			t.Fatalf("refine changed a uniform plane's PPI at %d: %d -> %d", i, ppis[i], refined[i])
		}
	}
}
