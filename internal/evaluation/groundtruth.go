package evaluation

import (
	"sort"

	"github.com/valeriodiste/shared-app/internal/dataset"
	"github.com/valeriodiste/shared-app/internal/monitoring"
	"github.com/valeriodiste/shared-app/internal/pose"
)

// FrameFailure records a ground-truth frame whose corners could not be
// reconstructed. The frame is treated as having no ground truth.
type FrameFailure struct {
	Sample    int
	Frame     int
	ImageName string
	Err       error
}

// GroundTruth is [sample][frame] reconstructed ground-truth poses. A nil
// entry marks a frame whose reconstruction failed.
type GroundTruth [][]*pose.Pose

// Observation returns the ground truth at (sample, frame) as an
// observation. Out-of-range indices and failed frames yield an empty
// observation.
func (g GroundTruth) Observation(sample, frame int) pose.Observation {
	if sample < 0 || sample >= len(g) || frame < 0 || frame >= len(g[sample]) {
		return pose.Observation{}
	}
	p := g[sample][frame]
	if p == nil {
		return pose.Observation{}
	}
	return p.Observation()
}

// Frames returns the total number of ground-truth frames.
func (g GroundTruth) Frames() int {
	n := 0
	for _, s := range g {
		n += len(s)
	}
	return n
}

// SortedFrames returns the sample's frames ordered by image name. The
// sample itself is not modified.
func SortedFrames(s dataset.Sample) []dataset.Frame {
	frames := append([]dataset.Frame(nil), s.Frames...)
	sort.SliceStable(frames, func(i, j int) bool { return frames[i].ImageName < frames[j].ImageName })
	return frames
}

// GroundTruthPoses reconstructs every labelled frame with cam. Failures are
// logged and returned; they do not stop the batch.
func GroundTruthPoses(cam pose.Camera, samples []dataset.Sample) (GroundTruth, []FrameFailure) {
	out := make(GroundTruth, len(samples))
	var failures []FrameFailure
	for i, s := range samples {
		frames := SortedFrames(s)
		out[i] = make([]*pose.Pose, len(frames))
		for j, f := range frames {
			p, err := cam.Reconstruct(f.ControlPoints, s.MarkerSize)
			if err != nil {
				monitoring.Logf("ground truth: sample %d frame %d (%s): %v", i+1, j, f.ImageName, err)
				failures = append(failures, FrameFailure{Sample: i, Frame: j, ImageName: f.ImageName, Err: err})
				continue
			}
			out[i][j] = &p
		}
	}
	return out, failures
}
