package pose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/valeriodiste/shared-app/internal/units"
)

// Camera is a fixed pinhole camera. Corners are expressed in the
// [0, ResolutionX] x [0, ResolutionY] pixel space and FOVDegrees is the
// vertical field of view.
type Camera struct {
	ResolutionX float64 `json:"resolution_x"`
	ResolutionY float64 `json:"resolution_y"`
	FOVDegrees  float64 `json:"fov_degrees"`
}

// DefaultCamera is the capture setup every recorded sample was taken with.
var DefaultCamera = Camera{ResolutionX: 1080, ResolutionY: 1920, FOVDegrees: 60}

// Validate checks that the camera can normalise coordinates and project depth.
func (c Camera) Validate() error {
	if c.ResolutionX <= 0 || c.ResolutionY <= 0 {
		return fmt.Errorf("camera resolution must be positive, got %gx%g", c.ResolutionX, c.ResolutionY)
	}
	if c.FOVDegrees <= 0 || c.FOVDegrees >= 180 {
		return fmt.Errorf("camera field of view must be in (0, 180) degrees, got %g", c.FOVDegrees)
	}
	return nil
}

// normalize maps a pixel coordinate into [-1, 1] x [-1, 1].
func (c Camera) normalize(p Point) r3.Vector {
	return r3.Vector{
		X: p[0]/c.ResolutionX*2 - 1,
		Y: p[1]/c.ResolutionY*2 - 1,
	}
}

// depth is the distance along the optical axis at which a marker of the
// given physical height fills the vertical field of view.
func (c Camera) depth(height float64) float64 {
	halfFOV := units.DegToRad(c.FOVDegrees) / 2
	return (height / 2) / math.Tan(halfFOV)
}
