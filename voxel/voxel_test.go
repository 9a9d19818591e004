package voxel

import (
	"testing"

	"github.com/vpcc-go/vpcc/pointcloud"
)

func TestVoxelizeDeduplicatesAndShifts(t *testing.T) {
	t.Parallel()

	points := []pointcloud.Point{
		{0, 0, 0},
		{1, 0, 0}, // shifts to same voxel as {0,0,0} at shift=1
		{2, 2, 2},
		{3, 2, 2}, // shifts to same voxel as {2,2,2}
	}

	g, err := Voxelize(points, 10, 9)
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}

	if len(g.Voxels) != 2 {
		t.Fatalf("expected 2 distinct voxels, got %d", len(g.Voxels))
	}
	if len(g.PointsIDToVoxelID) != len(points) {
		t.Fatalf("expected %d mappings, got %d", len(points), len(g.PointsIDToVoxelID))
	}

	want := pointcloud.Point{0, 0, 0}
	if g.Voxels[g.PointsIDToVoxelID[0]] != want {
		t.Errorf("voxel for point 0: got %v, want %v", g.Voxels[g.PointsIDToVoxelID[0]], want)
	}
	if g.PointsIDToVoxelID[0] != g.PointsIDToVoxelID[1] {
		t.Error("points 0 and 1 should map to the same voxel")
	}
	if g.PointsIDToVoxelID[2] != g.PointsIDToVoxelID[3] {
		t.Error("points 2 and 3 should map to the same voxel")
	}
}

func TestVoxelizeRejectsBitDepthOrder(t *testing.T) {
	t.Parallel()

	_, err := Voxelize(nil, 9, 10)
	if err == nil {
		t.Fatal("expected error when outBits > inBits")
	}
}

func TestVoxelizeIdentityShift(t *testing.T) {
	t.Parallel()

	points := []pointcloud.Point{{5, 6, 7}, {5, 6, 7}}
	g, err := Voxelize(points, 8, 8)
	if err != nil {
		t.Fatalf("Voxelize: %v", err)
	}
	if len(g.Voxels) != 1 {
		t.Fatalf("expected 1 voxel, got %d", len(g.Voxels))
	}
	if g.Voxels[0] != points[0] {
		t.Errorf("identity shift changed coordinates: got %v", g.Voxels[0])
	}
}
