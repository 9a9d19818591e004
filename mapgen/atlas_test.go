package mapgen

import "testing"

func TestNewAtlasBackgroundFill(t *testing.T) {
	t.Parallel()
	a := NewAtlas(8, 8, 4, 64, 128, true)
	for _, v := range a.GeometryMapL1 {
		if v != 64 {
			t.Fatalf("GeometryMapL1 background = %d, want 64", v)
		}
	}
	for _, v := range a.AttributeMapL1 {
		if v != 128 {
			t.Fatalf("AttributeMapL1 background = %d, want 128", v)
		}
	}
	if len(a.GeometryMapL2) != 64 || len(a.AttributeMapL2) != 192 {
		t.Fatalf("L2 maps not allocated for doubleLayer atlas")
	}
}

func TestAtlasGrowHeightPreservesExistingData(t *testing.T) {
	t.Parallel()
	a := NewAtlas(4, 4, 2, 0, 128, false)
	for i := range a.GeometryMapL1 {
		a.GeometryMapL1[i] = byte(10 + i)
	}
	for i := range a.AttributeMapL1 {
		a.AttributeMapL1[i] = byte(i)
	}

	a.GrowHeight(8)

	if a.Height != 8 {
		t.Fatalf("Height = %d, want 8", a.Height)
	}
	if len(a.GeometryMapL1) != 4*8 {
		t.Fatalf("len(GeometryMapL1) = %d, want 32", len(a.GeometryMapL1))
	}
	for i := 0; i < 16; i++ {
		if a.GeometryMapL1[i] != byte(10+i) {
			t.Fatalf("GeometryMapL1[%d] changed: got %d", i, a.GeometryMapL1[i])
		}
	}
	for i := 16; i < 32; i++ {
		if a.GeometryMapL1[i] != 0 {
			t.Fatalf("GeometryMapL1[%d] = %d, want background 0", i, a.GeometryMapL1[i])
		}
	}

	planeSize := 4 * 8
	if len(a.AttributeMapL1) != 3*planeSize {
		t.Fatalf("len(AttributeMapL1) = %d, want %d", len(a.AttributeMapL1), 3*planeSize)
	}
	for c := 0; c < 3; c++ {
		for i := 0; i < 16; i++ {
			old := byte(c*16 + i)
			if a.AttributeMapL1[c*planeSize+i] != old {
				t.Fatalf("plane %d pixel %d changed: got %d want %d", c, i, a.AttributeMapL1[c*planeSize+i], old)
			}
		}
		for i := 16; i < planeSize; i++ {
			if a.AttributeMapL1[c*planeSize+i] != 128 {
				t.Fatalf("plane %d padding pixel %d = %d, want background 128", c, i, a.AttributeMapL1[c*planeSize+i])
			}
		}
	}

	if len(a.OccupancyMapDS) != (4/2)*(8/2) {
		t.Fatalf("len(OccupancyMapDS) = %d, want %d", len(a.OccupancyMapDS), (4/2)*(8/2))
	}
}

func TestAtlasGrowHeightNoOpWhenAlreadyTallEnough(t *testing.T) {
	t.Parallel()
	a := NewAtlas(4, 8, 2, 0, 0, false)
	before := len(a.GeometryMapL1)
	a.GrowHeight(4)
	if len(a.GeometryMapL1) != before || a.Height != 8 {
		t.Fatal("GrowHeight should be a no-op when newHeight <= current Height")
	}
}

func TestDownscaleOccupancyThresholdEquality(t *testing.T) {
	t.Parallel()
	a := NewAtlas(2, 2, 2, 0, 0, false)
	a.OccupancyMap[0] = 1
	a.OccupancyMap[1] = 1
	DownscaleOccupancy(a, 2)
	if a.OccupancyMapDS[0] != 1 {
		t.Fatalf("block sum == threshold should count as present, got %d", a.OccupancyMapDS[0])
	}
}
