package mapgen

import "testing"

func atlasWithCenterPatch(width, height, r int) *Atlas {
	a := NewAtlas(width, height, r, 0, 128, false)
	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			idx := y*width + x
			a.OccupancyMap[idx] = 1
			a.GeometryMapL1[idx] = 200
			a.AttributeMapL1[idx] = 10
			a.AttributeMapL1[width*height+idx] = 20
			a.AttributeMapL1[2*width*height+idx] = 30
		}
	}
	DownscaleOccupancy(a, r*r/2)
	return a
}

func TestFillGeometryLeavesOccupiedPixelsUnchanged(t *testing.T) {
	t.Parallel()
	a := atlasWithCenterPatch(16, 16, 4)
	FillGeometry(a)

	for y := 4; y < 12; y++ {
		for x := 4; x < 12; x++ {
			idx := y*16 + x
			if a.GeometryMapL1[idx] != 200 {
				t.Fatalf("occupied pixel (%d,%d) changed to %d", x, y, a.GeometryMapL1[idx])
			}
		}
	}
}

func TestFillGeometryIdempotent(t *testing.T) {
	t.Parallel()
	a := atlasWithCenterPatch(16, 16, 4)
	FillGeometry(a)
	first := append([]byte(nil), a.GeometryMapL1...)
	FillGeometry(a)
	for i := range first {
		if a.GeometryMapL1[i] != first[i] {
			t.Fatalf("geometry background not idempotent at %d: %d != %d", i, a.GeometryMapL1[i], first[i])
		}
	}
}

func TestFillAttributePatchExtensionFillsBackground(t *testing.T) {
	t.Parallel()
	a := atlasWithCenterPatch(16, 16, 4)
	FillAttribute(a, ModePatchExtension, 4)

	planeSize := 16 * 16
	if a.AttributeMapL1[0] == a.BackgroundAttribute && a.OccupancyMap[0] == 0 {
		t.Fatalf("expected background pixel 0 to receive a propagated value")
	}
	_ = planeSize
}

func TestFillAttributeBBPESkipsEmptyBlocks(t *testing.T) {
	t.Parallel()
	a := atlasWithCenterPatch(32, 32, 4)
	before := append([]byte(nil), a.AttributeMapL1...)
	FillAttribute(a, ModeBBPE, 8)

	corner := 0
	if a.AttributeMapL1[corner] != before[corner] {
		t.Fatalf("BBPE touched an all-empty block: got %d want %d", a.AttributeMapL1[corner], before[corner])
	}
}

func TestFillAttributePushPullProducesFiniteValues(t *testing.T) {
	t.Parallel()
	a := atlasWithCenterPatch(16, 16, 4)
	FillAttribute(a, ModePushPull, 4)

	for _, v := range a.AttributeMapL1 {
		if v > 255 {
			t.Fatalf("push-pull produced out-of-range byte %d", v)
		}
	}
}

func TestFillAttributeNoneLeavesBackgroundConstant(t *testing.T) {
	t.Parallel()
	a := atlasWithCenterPatch(16, 16, 4)
	FillAttribute(a, ModeNone, 4)

	if a.AttributeMapL1[0] != 128 {
		t.Fatalf("ModeNone changed background pixel to %d, want constant 128", a.AttributeMapL1[0])
	}
}
