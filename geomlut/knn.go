package geomlut

import (
	"sort"

	"github.com/vpcc-go/vpcc/pointcloud"
)

// KNNIndex answers fixed-k nearest-neighbor queries over a static set of
// voxel coordinates using a uniform grid of buckets sized to the
// requested leaf size, expanding outward ring by ring until k candidates
// are found. The corpus carries no fetchable k-d tree dependency (see
// DESIGN.md), so this is a small self-contained spatial index rather than
// brute-force O(n^2): reserving bucket capacity and ring-expanding keeps
// it usable at the point counts a GOF's worth of frames produces.
type KNNIndex struct {
	points    []pointcloud.Point
	cellSize  uint32
	buckets   map[[3]int32][]int32
}

// NewKNNIndex builds a KNNIndex over points, bucketing by cellSize-sized
// cubes. A larger cellSize trades ring-expansion steps for bucket
// population; kdTreeMaxLeafSize (spec.md §6) is a reasonable default.
func NewKNNIndex(points []pointcloud.Point, cellSize uint32) *KNNIndex {
	if cellSize == 0 {
		cellSize = 1
	}
	idx := &KNNIndex{
		points:   points,
		cellSize: cellSize,
		buckets:  make(map[[3]int32][]int32, len(points)),
	}
	for i, p := range points {
		key := idx.cellKey(p)
		idx.buckets[key] = append(idx.buckets[key], int32(i))
	}
	return idx
}

func (idx *KNNIndex) cellKey(p pointcloud.Point) [3]int32 {
	return [3]int32{
		int32(p[0] / idx.cellSize),
		int32(p[1] / idx.cellSize),
		int32(p[2] / idx.cellSize),
	}
}

type knnCandidate struct {
	idx   int
	dist2 int64
}

// Query returns the indices of the k nearest points to points[i] (i
// itself excluded), ordered nearest-first with index as a final
// tie-break for determinism per spec.md §9.
func (idx *KNNIndex) Query(i int, k int) []int {
	if k <= 0 || len(idx.points) <= 1 {
		return nil
	}
	origin := idx.points[i]
	center := idx.cellKey(origin)

	var candidates []knnCandidate
	for ring := int32(0); ring < int32(len(idx.points)); ring++ {
		before := len(candidates)
		for dz := -ring; dz <= ring; dz++ {
			for dy := -ring; dy <= ring; dy++ {
				for dx := -ring; dx <= ring; dx++ {
					// Only scan the shell surface; interior cells were
					// already visited at smaller rings.
					if ring > 0 && absI32(dx) != ring && absI32(dy) != ring && absI32(dz) != ring {
						continue
					}
					key := [3]int32{center[0] + dx, center[1] + dy, center[2] + dz}
					for _, j := range idx.buckets[key] {
						if int(j) == i {
							continue
						}
						candidates = append(candidates, knnCandidate{idx: int(j), dist2: dist2(origin, idx.points[j])})
					}
				}
			}
		}
		// Stop once we have at least k candidates and have scanned one
		// extra ring beyond the ring that first satisfied k, to include
		// neighbors that fall within the ring's circumscribed sphere
		// despite sitting at the shell's square corners. A ring that
		// lifts the count to k*4 or more also ends the scan.
		if len(candidates) >= k && before >= k {
			break
		}
		if len(candidates) >= k*4 {
			break
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].dist2 != candidates[b].dist2 {
			return candidates[a].dist2 < candidates[b].dist2
		}
		return candidates[a].idx < candidates[b].idx
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]int, len(candidates))
	for i, c := range candidates {
		out[i] = c.idx
	}
	return out
}

func dist2(a, b pointcloud.Point) int64 {
	dx := int64(a[0]) - int64(b[0])
	dy := int64(a[1]) - int64(b[1])
	dz := int64(a[2]) - int64(b[2])
	return dx*dx + dy*dy + dz*dz
}

func absI32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
