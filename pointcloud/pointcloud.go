// Package pointcloud defines the per-frame geometry and attribute data
// that flows into the patch generation pipeline, from frame submission
// through patch segmentation.
package pointcloud

import "fmt"

// Point is a 3-tuple of unsigned grid coordinates at a given bit depth.
type Point [3]uint32

// RGB is a per-point color attribute, one triple per geometry point.
type RGB [3]uint8

// Cloud holds a frame's raw geometry and attribute data, aligned by index:
// Attributes[i] is the color of Geometry[i].
type Cloud struct {
	Geometry   []Point
	Attributes []RGB

	// BitDepth is the bit depth each coordinate in Geometry is expressed
	// at (geoBitDepthInput in spec terms).
	BitDepth uint
}

// Validate checks the |geometry| = |attributes| invariant and that
// BitDepth is in a usable range.
func (c *Cloud) Validate() error {
	if len(c.Geometry) != len(c.Attributes) {
		return fmt.Errorf("pointcloud: geometry/attribute length mismatch: %d geometry points, %d attributes", len(c.Geometry), len(c.Attributes))
	}
	if c.BitDepth == 0 || c.BitDepth > 16 {
		return fmt.Errorf("pointcloud: bit depth %d out of range [1,16]", c.BitDepth)
	}
	return nil
}

// Len returns the number of points in the cloud.
func (c *Cloud) Len() int {
	return len(c.Geometry)
}
