// Package normals computes per-voxel surface normals by local covariance
// analysis over a k-nearest-neighbor set, then propagates a consistent
// sign across the voxel set.
package normals

import (
	"math"

	"github.com/vpcc-go/vpcc/geomlut"
	"github.com/vpcc-go/vpcc/pointcloud"
)

// Estimator computes unoriented per-voxel normals per spec.md §4.2: for
// each voxel, it diagonalizes the 3x3 covariance of its KNN set and keeps
// the eigenvector belonging to the smallest-magnitude eigenvalue.
type Estimator struct {
	KNNCount        int
	MaxDiagonalStep int
}

// NewEstimator returns an Estimator configured with the given KNN count
// (normalComputationKnnCount) and Jacobi iteration bound
// (normalComputationMaxDiagonalStep).
func NewEstimator(knnCount, maxDiagonalStep int) *Estimator {
	return &Estimator{KNNCount: knnCount, MaxDiagonalStep: maxDiagonalStep}
}

// Estimate computes one normal per voxel in voxels, using idx to find each
// voxel's KNN set. The sign of each returned normal is undefined (left to
// Orient).
func (e *Estimator) Estimate(voxels []pointcloud.Point, idx *geomlut.KNNIndex) []geomlut.Vec3 {
	normals := make([]geomlut.Vec3, len(voxels))
	for v := range voxels {
		knn := idx.Query(v, e.KNNCount)
		normals[v] = e.estimateOne(voxels, v, knn)
	}
	return normals
}

func (e *Estimator) estimateOne(voxels []pointcloud.Point, v int, knn []int) geomlut.Vec3 {
	if len(knn) == 0 {
		// Isolated voxel: no local neighborhood to fit a plane to. Use
		// the view-vector fallback also used by the orienter for
		// unvisited seeds, so downstream PPI assignment still gets a
		// deterministic, well-defined normal.
		return viewVector(voxels[v]).Normalized()
	}

	var bx, by, bz float64
	pts := make([]geomlut.Vec3, 0, len(knn)+1)
	pts = append(pts, toVec3(voxels[v]))
	for _, n := range knn {
		pts = append(pts, toVec3(voxels[n]))
	}
	for _, p := range pts {
		bx += p.X
		by += p.Y
		bz += p.Z
	}
	n := float64(len(pts))
	barycenter := geomlut.Vec3{X: bx / n, Y: by / n, Z: bz / n}

	var cov [3][3]float64
	for _, p := range pts {
		d := p.Sub(barycenter)
		cov[0][0] += d.X * d.X
		cov[0][1] += d.X * d.Y
		cov[0][2] += d.X * d.Z
		cov[1][1] += d.Y * d.Y
		cov[1][2] += d.Y * d.Z
		cov[2][2] += d.Z * d.Z
	}
	cov[1][0] = cov[0][1]
	cov[2][0] = cov[0][2]
	cov[2][1] = cov[1][2]

	eigvecs, eigvals := jacobiEigen(cov, e.MaxDiagonalStep)

	best := 0
	bestAbs := math.Abs(eigvals[0])
	for i := 1; i < 3; i++ {
		if math.Abs(eigvals[i]) < bestAbs {
			bestAbs = math.Abs(eigvals[i])
			best = i
		}
	}
	return eigvecs[best]
}

func toVec3(p pointcloud.Point) geomlut.Vec3 {
	return geomlut.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

// viewVector returns the vector from the viewpoint (0,0,0) to p, used as
// the orientation reference for seeds with no visited neighbors (spec.md
// §4.3) and, here, as a deterministic fallback normal for a voxel with an
// empty KNN set.
func viewVector(p pointcloud.Point) geomlut.Vec3 {
	return toVec3(p)
}

// jacobiEigen diagonalizes the symmetric 3x3 matrix m via classical
// Jacobi rotations, each step zeroing the largest off-diagonal entry,
// bounded to maxSteps single rotations. It exits early when either the
// largest remaining off-diagonal entry reaches zero, or a rotation angle would no longer change the
// matrix at float64 precision - the two early-exit conditions spec.md
// §4.2 calls for.
func jacobiEigen(m [3][3]float64, maxSteps int) (vecs [3]geomlut.Vec3, vals [3]float64) {
	a := m
	v := [3][3]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}

	offDiag := func() (p, q int, max float64) {
		pairs := [3][2]int{{0, 1}, {0, 2}, {1, 2}}
		for _, pr := range pairs {
			av := math.Abs(a[pr[0]][pr[1]])
			if av > max {
				max = av
				p, q = pr[0], pr[1]
			}
		}
		return
	}

	if maxSteps <= 0 {
		maxSteps = 1
	}

	for step := 0; step < maxSteps; step++ {
		p, q, max := offDiag()
		if max == 0 {
			break
		}

		theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
		var t float64
		if theta >= 0 {
			t = 1 / (theta + math.Sqrt(1+theta*theta))
		} else {
			t = -1 / (-theta + math.Sqrt(1+theta*theta))
		}
		c := 1 / math.Sqrt(1+t*t)
		s := t * c

		if c == 1 {
			// Rotation angle vanished at float64 precision: second
			// early-exit condition.
			break
		}

		app, aqq, apq := a[p][p], a[q][q], a[p][q]
		a[p][p] = c*c*app - 2*s*c*apq + s*s*aqq
		a[q][q] = s*s*app + 2*s*c*apq + c*c*aqq
		a[p][q] = 0
		a[q][p] = 0

		for r := 0; r < 3; r++ {
			if r == p || r == q {
				continue
			}
			arp, arq := a[r][p], a[r][q]
			a[r][p] = c*arp - s*arq
			a[p][r] = a[r][p]
			a[r][q] = s*arp + c*arq
			a[q][r] = a[r][q]
		}

		for r := 0; r < 3; r++ {
			vrp, vrq := v[r][p], v[r][q]
			v[r][p] = c*vrp - s*vrq
			v[r][q] = s*vrp + c*vrq
		}
	}

	for i := 0; i < 3; i++ {
		vals[i] = a[i][i]
		vecs[i] = geomlut.Vec3{X: v[0][i], Y: v[1][i], Z: v[2][i]}
	}
	return
}
