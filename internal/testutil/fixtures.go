package testutil

import (
	"fmt"
	"testing"

	"github.com/valeriodiste/shared-app/internal/fsutil"
)

// FullFrameCorners fills the default 1080x1920 frame. With a 1x1 marker it
// reconstructs to position (0, 0, 0.866) and rotation (0, 90, 0).
func FullFrameCorners() [][2]float64 {
	return [][2]float64{{0, 0}, {1080, 0}, {0, 1920}, {1080, 1920}}
}

// RightHalfCorners covers the right half of the frame horizontally and the
// middle half vertically. With a 1x1 marker it reconstructs to position
// (0.5, 0, 0.866) and rotation (0, 90, 0).
func RightHalfCorners() [][2]float64 {
	return [][2]float64{{540, 480}, {1080, 480}, {540, 1440}, {1080, 1440}}
}

// GroundTruthFrame is one entry of a coordinates file.
type GroundTruthFrame struct {
	ImageName     string       `json:"imageName"`
	ControlPoints [][2]float64 `json:"controlPoints"`
}

// WriteSample writes a ground-truth file and a 1x1 marker size file for
// sample n (1-based) into dir.
func WriteSample(t testing.TB, fsys fsutil.FileSystem, dir string, n int, frames []GroundTruthFrame) {
	t.Helper()
	WriteJSON(t, fsys, SamplePath(dir, n, "coordinates.json"), frames)
	WriteJSON(t, fsys, SamplePath(dir, n, "test_marker_data.json"), map[string]float64{"width": 1, "height": 1})
}

// SamplePath builds the conventional sample file name.
func SamplePath(dir string, n int, suffix string) string {
	return fmt.Sprintf("%s/sample_%d_%s", dir, n, suffix)
}

// NewSampleFS returns an in-memory layout with two samples of two frames
// each under Samples/. Frame names are written out of order to exercise
// sorting: sample 1 frame "a" is full frame and "b" is the right half;
// sample 2 has the same frames in the same order.
func NewSampleFS(t testing.TB) *fsutil.MemoryFileSystem {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	frames := []GroundTruthFrame{
		{ImageName: "frame_b.png", ControlPoints: RightHalfCorners()},
		{ImageName: "frame_a.png", ControlPoints: FullFrameCorners()},
	}
	WriteSample(t, fsys, "Samples", 1, frames)
	WriteSample(t, fsys, "Samples", 2, frames)
	WriteRaw(t, fsys, "Samples/sample_1_sensor.json", `[{"acceleration":[0,0,9.8]}]`)
	AssertNoError(t, fsys.MkdirAll("Results", 0755))
	return fsys
}
