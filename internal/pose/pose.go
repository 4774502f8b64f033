package pose

import (
	"github.com/golang/geo/r3"
)

// CornerCount is the number of corners a marker observation must carry.
const CornerCount = 4

// Point is a pixel-space image coordinate (x, y).
type Point [2]float64

// Corners holds a marker observation ordered top-left, top-right,
// bottom-left, bottom-right. The order defines the right and up axes.
type Corners []Point

// Size is the physical width and height of the tracked marker.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is a reconstructed 3D position (x, y, z).
type Position [3]float64

// UnmarshalJSON requires exactly three values.
func (p *Position) UnmarshalJSON(b []byte) error {
	return decodeTriple(b, (*[3]float64)(p), "position")
}

// Rotation holds Euler-like angles in degrees: yaw, pitch, roll.
type Rotation [3]float64

// UnmarshalJSON requires exactly three values.
func (r *Rotation) UnmarshalJSON(b []byte) error {
	return decodeTriple(b, (*[3]float64)(r), "rotation")
}

// Yaw returns the first angle in degrees.
func (r Rotation) Yaw() float64 { return r[0] }

// Pitch returns the second angle in degrees.
func (r Rotation) Pitch() float64 { return r[1] }

// Roll returns the third angle in degrees.
func (r Rotation) Roll() float64 { return r[2] }

// Pose is a fully specified marker pose.
type Pose struct {
	Position Position `json:"position"`
	Rotation Rotation `json:"rotation"`
}

// Observation returns p as an observation with both components present.
func (p Pose) Observation() Observation {
	pos, rot := p.Position, p.Rotation
	return Observation{Position: &pos, Rotation: &rot}
}

// Observation is a possibly partial pose as emitted by a detector.
// A nil field means the detector produced no value for that component.
type Observation struct {
	Position *Position `json:"position"`
	Rotation *Rotation `json:"rotation"`
}

// Missing reports whether neither component is present.
func (o Observation) Missing() bool {
	return o.Position == nil && o.Rotation == nil
}

// FrameError is the comparison of one estimated frame against ground truth.
// Nil fields mean the corresponding component could not be compared.
type FrameError struct {
	TranslationError *float64 `json:"translation_error"`
	RotationError    *float64 `json:"rotation_error"`
}

// Detected reports whether a translation error was produced for the frame.
func (e FrameError) Detected() bool {
	return e.TranslationError != nil
}

func (p Position) vector() r3.Vector {
	return r3.Vector{X: p[0], Y: p[1], Z: p[2]}
}
