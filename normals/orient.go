package normals

import (
	"container/heap"
	"math"

	"github.com/vpcc-go/vpcc/geomlut"
	"github.com/vpcc-go/vpcc/pointcloud"
)

// Orienter propagates a consistent normal sign across a voxel set using
// the Kruskal-like priority-queue walk from spec.md §4.3.
type Orienter struct {
	KNNCount int
}

// NewOrienter returns an Orienter configured with the orientation KNN
// graph's fan-out (normalOrientationKnnCount).
func NewOrienter(knnCount int) *Orienter {
	return &Orienter{KNNCount: knnCount}
}

// edge is a candidate orientation-propagation step from Start to End,
// weighted by |n(Start)·n(End)|.
type edge struct {
	weight     float64
	start, end int
}

// edgeHeap is a max-heap on weight, tie-broken by (start, end) ascending
// for determinism (spec.md §4.3, §9).
type edgeHeap []edge

func (h edgeHeap) Len() int { return len(h) }
func (h edgeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight > h[j].weight
	}
	if h[i].start != h[j].start {
		return h[i].start < h[j].start
	}
	return h[i].end < h[j].end
}
func (h edgeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *edgeHeap) Push(x any)        { *h = append(*h, x.(edge)) }
func (h *edgeHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Orient flips the sign of normals in place so that, within each
// traversed connected component, adjacent normals (per the orientation
// KNN graph) agree in sign. Voxels are visited in ascending index order
// when choosing the next unvisited seed, matching spec.md's deterministic
// iteration.
func (o *Orienter) Orient(voxels []pointcloud.Point, idx *geomlut.KNNIndex, normals []geomlut.Vec3) {
	n := len(voxels)
	visited := make([]bool, n)
	knn := make([][]int, n)
	for v := 0; v < n; v++ {
		knn[v] = idx.Query(v, o.KNNCount)
	}

	var pq edgeHeap

	pushUnvisitedEdges := func(from int) {
		for _, to := range knn[from] {
			if visited[to] {
				continue
			}
			heap.Push(&pq, edge{weight: math.Abs(normals[from].Dot(normals[to])), start: from, end: to})
		}
	}

	for seed := 0; seed < n; seed++ {
		if visited[seed] {
			continue
		}
		visited[seed] = true

		var accum geomlut.Vec3
		anyVisitedNeighbor := false
		for _, nb := range knn[seed] {
			if visited[nb] {
				accum = accum.Add(normals[nb])
				anyVisitedNeighbor = true
			}
		}
		var reference geomlut.Vec3
		if anyVisitedNeighbor {
			reference = accum
		} else {
			reference = viewVector(voxels[seed])
		}
		if normals[seed].Dot(reference) < 0 {
			normals[seed] = normals[seed].Negate()
		}
		pushUnvisitedEdges(seed)

		for pq.Len() > 0 {
			e := heap.Pop(&pq).(edge)
			if visited[e.end] {
				continue
			}
			visited[e.end] = true
			if normals[e.start].Dot(normals[e.end]) < 0 {
				normals[e.end] = normals[e.end].Negate()
			}
			pushUnvisitedEdges(e.end)
		}
	}
}
