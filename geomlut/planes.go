package geomlut

// Axis identifies one of the three coordinate axes.
type Axis int

// The three coordinate axes, used to name a PPI's normal/tangent/bitangent.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ProjectionMode selects which of two points sharing a (tangent, bitangent)
// coordinate wins when a patch is projected: the nearer one (MinDepth) or
// the farther one (MaxDepth).
type ProjectionMode int

const (
	// ProjectionMinDepth keeps the point with the smallest depth along
	// the normal axis (used by PPIs 0-2, the "+" faces).
	ProjectionMinDepth ProjectionMode = iota
	// ProjectionMaxDepth keeps the point with the largest depth along
	// the normal axis (used by PPIs 3-5, the "-" faces).
	ProjectionMaxDepth
)

// Plane describes one of the six axis-aligned projection planes a point
// can be assigned to via its Projection-Plane Index (PPI).
type Plane struct {
	Normal    Vec3
	Tangent   Axis
	Bitangent Axis
	Mode      ProjectionMode
}

// Planes is the fixed PPI table from spec.md §4.4: the six axis-aligned
// projection planes in order (+X, +Y, +Z, -X, -Y, -Z), each with its
// normal, tangent axis, bitangent axis, and projection mode. Index into
// this slice directly with a PPI value in [0,5].
var Planes = [6]Plane{
	{Normal: Vec3{X: 1}, Tangent: AxisZ, Bitangent: AxisY, Mode: ProjectionMinDepth},
	{Normal: Vec3{Y: 1}, Tangent: AxisZ, Bitangent: AxisX, Mode: ProjectionMinDepth},
	{Normal: Vec3{Z: 1}, Tangent: AxisX, Bitangent: AxisY, Mode: ProjectionMinDepth},
	{Normal: Vec3{X: -1}, Tangent: AxisZ, Bitangent: AxisY, Mode: ProjectionMaxDepth},
	{Normal: Vec3{Y: -1}, Tangent: AxisZ, Bitangent: AxisX, Mode: ProjectionMaxDepth},
	{Normal: Vec3{Z: -1}, Tangent: AxisX, Bitangent: AxisY, Mode: ProjectionMaxDepth},
}

// NumPPI is the number of projection planes (and therefore valid PPI
// values, 0..NumPPI-1).
const NumPPI = 6

// Component returns the coordinate of p along axis a.
func Component(p Vec3, a Axis) float64 {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	default:
		return p.Z
	}
}

// ComponentI returns the integer coordinate c along axis a, where c holds
// (x, y, z) in that order.
func ComponentI(c [3]uint32, a Axis) uint32 {
	switch a {
	case AxisX:
		return c[0]
	case AxisY:
		return c[1]
	default:
		return c[2]
	}
}

// ArgmaxDot returns the index k in [0, NumPPI) maximizing Planes[k].Normal.Dot(n),
// breaking ties at the lowest index, per spec.md determinism rule in §4.4
// and §9.
func ArgmaxDot(n Vec3) int {
	best := 0
	bestScore := Planes[0].Normal.Dot(n)
	for k := 1; k < NumPPI; k++ {
		score := Planes[k].Normal.Dot(n)
		if score > bestScore {
			bestScore = score
			best = k
		}
	}
	return best
}
