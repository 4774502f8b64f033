package pose

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/valeriodiste/shared-app/internal/units"
)

// Reconstruct estimates the pose of a marker of the given physical size from
// its four observed corners, using DefaultCamera.
func Reconstruct(corners Corners, size Size) (Pose, error) {
	return DefaultCamera.Reconstruct(corners, size)
}

// Reconstruct estimates a marker pose from four pixel-space corners.
//
// Position is the scaled centroid of the normalised corners with a depth
// derived from the marker height and the camera field of view. Rotation is
// taken from the facing vector (right x up) and the up edge. The corners
// slice is never modified.
func (c Camera) Reconstruct(corners Corners, size Size) (Pose, error) {
	if corners == nil {
		return Pose{}, &InvalidInputError{Nil: true}
	}
	if len(corners) != CornerCount {
		return Pose{}, &InvalidInputError{Count: len(corners)}
	}

	var n [CornerCount]r3.Vector
	var centroid r3.Vector
	for i, p := range corners {
		n[i] = c.normalize(p)
		centroid = centroid.Add(n[i])
	}
	centroid = centroid.Mul(1.0 / CornerCount)

	// Top and bottom edges give the width, left and right edges the height.
	width := (n[0].Distance(n[1]) + n[2].Distance(n[3])) / 2
	height := (n[0].Distance(n[2]) + n[1].Distance(n[3])) / 2
	if width == 0 || height == 0 {
		return Pose{}, &DegenerateGeometryError{
			Width:   width,
			Height:  height,
			Corners: append(Corners(nil), corners...),
		}
	}

	scaleX := size.Width / width
	scaleY := size.Height / height

	position := Position{
		centroid.X * scaleX,
		centroid.Y * scaleY,
		c.depth(size.Height),
	}

	// Normalize yields the zero vector for zero input, which leaves a
	// degenerate but finite orientation instead of failing.
	right := n[1].Sub(n[0])
	up := n[2].Sub(n[0]).Normalize()
	forward := right.Cross(n[2].Sub(n[0])).Normalize()

	rotation := Rotation{
		units.RadToDeg(math.Atan2(forward.Y, forward.X)),
		units.RadToDeg(math.Asin(forward.Z)),
		units.RadToDeg(math.Atan2(up.X, up.Y)),
	}

	return Pose{Position: position, Rotation: rotation}, nil
}
