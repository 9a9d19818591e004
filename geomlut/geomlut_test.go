package geomlut

import (
	"testing"

	"github.com/vpcc-go/vpcc/pointcloud"
)

func TestArgmaxDotTieBreak(t *testing.T) {
	t.Parallel()
	// The zero vector ties every plane at score 0; lowest index wins.
	if got := ArgmaxDot(Vec3{}); got != 0 {
		t.Errorf("ArgmaxDot(zero) = %d, want 0", got)
	}
}

func TestArgmaxDotPicksAxis(t *testing.T) {
	t.Parallel()
	if got := ArgmaxDot(Vec3{Z: 1}); got != 2 {
		t.Errorf("ArgmaxDot(+Z) = %d, want 2", got)
	}
	if got := ArgmaxDot(Vec3{Z: -1}); got != 5 {
		t.Errorf("ArgmaxDot(-Z) = %d, want 5", got)
	}
}

func TestBuildShellTableZeroShellIsOrigin(t *testing.T) {
	t.Parallel()
	tbl := BuildShellTable(2)
	if len(tbl.Shells) == 0 {
		t.Fatal("expected at least one shell")
	}
	if len(tbl.Shells[0]) != 1 || tbl.Shells[0][0] != (Offset{}) {
		t.Errorf("shell 0 should be exactly the zero offset, got %v", tbl.Shells[0])
	}
}

func TestShellTableWithinIsMonotonic(t *testing.T) {
	t.Parallel()
	tbl := BuildShellTable(3)
	prev := 0
	for shell := 0; shell < len(tbl.Shells); shell++ {
		cur := len(tbl.Within(shell))
		if cur < prev {
			t.Fatalf("Within(%d) shrank: %d < %d", shell, cur, prev)
		}
		prev = cur
	}
}

func TestKNNIndexFindsNearest(t *testing.T) {
	t.Parallel()
	pts := []pointcloud.Point{
		{0, 0, 0},
		{1, 0, 0},
		{10, 10, 10},
		{2, 0, 0},
	}
	idx := NewKNNIndex(pts, 4)
	nn := idx.Query(0, 2)
	if len(nn) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(nn))
	}
	if nn[0] != 1 {
		t.Errorf("nearest neighbor of point 0 should be index 1, got %d", nn[0])
	}
}
