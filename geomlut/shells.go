package geomlut

import "sort"

// Offset is an integer coordinate delta used to enumerate neighbors of a
// voxel without scanning the whole grid.
type Offset struct {
	DX, DY, DZ int
	Dist2      int
}

// ShellTable precomputes every integer offset within the sphere of radius
// maxShell (squared distance <= maxShell*maxShell), grouped into "shells"
// by squared distance, closest first. Shell index 0 holds only the zero
// offset; shell index i holds the offsets with the i-th smallest distinct
// squared distance, so there is one shell per distinct squared distance,
// not one per unit of radius.
//
// This mirrors the "precomputed 9-shell LUT" referenced in spec.md §4.6:
// rather than rebuilding the neighbor offsets for every BFS step, the
// patch segmenter walks Shells[0..propagationDistance] once per point.
type ShellTable struct {
	Shells [][]Offset
}

// BuildShellTable builds a ShellTable with one shell per distinct squared
// distance in 0..maxShell*maxShell that an integer offset reaches
// (maxShell = 3 gives 9 shells: squared distances 0,1,2,3,4,5,6,8,9).
func BuildShellTable(maxShell int) *ShellTable {
	if maxShell < 0 {
		maxShell = 0
	}

	byDist2 := map[int][]Offset{}
	var dist2s []int
	for dz := -maxShell; dz <= maxShell; dz++ {
		for dy := -maxShell; dy <= maxShell; dy++ {
			for dx := -maxShell; dx <= maxShell; dx++ {
				d2 := dx*dx + dy*dy + dz*dz
				if d2 > maxShell*maxShell {
					continue
				}
				if _, ok := byDist2[d2]; !ok {
					dist2s = append(dist2s, d2)
				}
				byDist2[d2] = append(byDist2[d2], Offset{DX: dx, DY: dy, DZ: dz, Dist2: d2})
			}
		}
	}
	sort.Ints(dist2s)

	t := &ShellTable{Shells: make([][]Offset, 0, len(dist2s))}
	for _, d2 := range dist2s {
		offs := byDist2[d2]
		sort.Slice(offs, func(i, j int) bool {
			if offs[i].DZ != offs[j].DZ {
				return offs[i].DZ < offs[j].DZ
			}
			if offs[i].DY != offs[j].DY {
				return offs[i].DY < offs[j].DY
			}
			return offs[i].DX < offs[j].DX
		})
		t.Shells = append(t.Shells, offs)
	}
	return t
}

// Within returns every offset belonging to shells 0..shell inclusive, in
// shell order, for use as a BFS propagation neighborhood.
func (t *ShellTable) Within(shell int) []Offset {
	if shell < 0 {
		return nil
	}
	if shell >= len(t.Shells) {
		shell = len(t.Shells) - 1
	}
	var out []Offset
	for i := 0; i <= shell; i++ {
		out = append(out, t.Shells[i]...)
	}
	return out
}
