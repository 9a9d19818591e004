package patch

import (
	"testing"

	"github.com/vpcc-go/vpcc/pointcloud"
)

func gridPlaneAtZ(z uint32, size uint32) ([]pointcloud.Point, []int) {
	var voxels []pointcloud.Point
	var ppis []int
	for x := uint32(0); x < size; x++ {
		for y := uint32(0); y < size; y++ {
			voxels = append(voxels, pointcloud.Point{x, y, z})
			ppis = append(ppis, 2) // +Z plane
		}
	}
	return voxels, ppis
}

func TestGenerateSinglePlanePatch(t *testing.T) {
	t.Parallel()
	voxels, ppis := gridPlaneAtZ(5, 8)

	seg := NewSegmenter(Config{
		MinPointCountPerCC:                 5,
		MaxPropagationDistance:             1,
		MinLevel:                           4,
		SurfaceThickness:                   4,
		OccupancyMapDSResolution:           2,
		DistanceFiltering:                  32,
		MaxAllowedDist2RawPointsDetection:  1,
	})

	patches := seg.Generate(voxels, ppis, 9)
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d", len(patches))
	}
	p := patches[0]
	if p.WidthInPixel != 8 || p.HeightInPixel != 8 {
		t.Errorf("dims: got %dx%d, want 8x8", p.WidthInPixel, p.HeightInPixel)
	}
	if p.PPI != 2 {
		t.Errorf("PPI: got %d, want 2", p.PPI)
	}

	for i, d := range p.DepthL1 {
		if d == InfiniteDepth {
			t.Fatalf("pixel %d unexpectedly empty", i)
		}
		if p.Occupancy[i] != 1 {
			t.Errorf("pixel %d: occupancy should be 1", i)
		}
	}
}

func TestGenerateDropsTooSmallComponent(t *testing.T) {
	t.Parallel()
	voxels := []pointcloud.Point{{0, 0, 0}}
	ppis := []int{2}

	seg := NewSegmenter(Config{
		MinPointCountPerCC:                5,
		MaxPropagationDistance:            1,
		MinLevel:                          4,
		SurfaceThickness:                  4,
		OccupancyMapDSResolution:          2,
		DistanceFiltering:                 32,
		MaxAllowedDist2RawPointsDetection: 1,
	})

	patches := seg.Generate(voxels, ppis, 9)
	if len(patches) != 0 {
		t.Fatalf("expected 0 patches for a too-small component, got %d", len(patches))
	}
}
