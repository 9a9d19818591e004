package mapgen

import (
	"testing"

	"github.com/vpcc-go/vpcc/patch"
	"github.com/vpcc-go/vpcc/pointcloud"
)

type constRGB struct{ r, g, b uint8 }

func (c constRGB) RGBAt(int) (r, g, b uint8) { return c.r, c.g, c.b }

// TestRasterizeShiftsDepthByPosD runs the flat 8x8 plane at z=5 through
// patch segmentation and rasterization and checks that geometryMapL1
// holds the depth shifted by posD, not the raw coordinate 5.
func TestRasterizeShiftsDepthByPosD(t *testing.T) {
	t.Parallel()
	var voxels []pointcloud.Point
	var ppis []int
	for y := uint32(0); y < 8; y++ {
		for x := uint32(0); x < 8; x++ {
			voxels = append(voxels, pointcloud.Point{x, y, 5})
			ppis = append(ppis, 2) // +Z, projection mode min-depth
		}
	}

	seg := patch.NewSegmenter(patch.Config{
		MinPointCountPerCC:                1,
		MaxPropagationDistance:            1,
		MinLevel:                          4,
		SurfaceThickness:                  4,
		OccupancyMapDSResolution:          2,
		DistanceFiltering:                 32,
		MaxAllowedDist2RawPointsDetection: 1,
	})
	patches := seg.Generate(voxels, ppis, 9)
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d", len(patches))
	}
	p := patches[0]
	if p.PosD != 4 {
		t.Fatalf("PosD = %d, want 4 (5 rounded down to a multiple of minLevel 4)", p.PosD)
	}
	wantDepth := byte(5 - p.PosD)

	a := NewAtlas(16, 16, 2, 0, 0, false)
	p.OmDSPosX, p.OmDSPosY = 0, 0
	Rasterize(a, p, constRGB{255, 0, 0})

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			got := a.GeometryMapL1[y*a.Width+x]
			if got != wantDepth {
				t.Fatalf("GeometryMapL1[%d,%d] = %d, want %d (raw depth 5 shifted by posD %d)", x, y, got, wantDepth, p.PosD)
			}
		}
	}
}
