package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/valeriodiste/shared-app/internal/dataset"
	"github.com/valeriodiste/shared-app/internal/fsutil"
	"github.com/valeriodiste/shared-app/internal/monitoring"
	"github.com/valeriodiste/shared-app/internal/pose"
	"github.com/valeriodiste/shared-app/internal/security"
	"github.com/valeriodiste/shared-app/internal/timeutil"
)

// Output file names written into the results directory.
const (
	GroundTruthPosesFile     = "ground_truth_final_poses.json"
	DetectionErrorsFile      = "detection_final_errors.json"
	TrackingErrorsFile       = "tracking_final_errors.json"
	DetectionFrameGradesFile = "detection_frame_quality.json"
	TrackingFrameGradesFile  = "tracking_frame_quality.json"
)

// ErrorsFile returns the error file name for an evaluation kind.
func ErrorsFile(kind Kind) string {
	if kind == KindTracking {
		return TrackingErrorsFile
	}
	return DetectionErrorsFile
}

// Runner wires loading, evaluation and output for one run. Zero Camera
// and Thresholds fall back to the package defaults.
type Runner struct {
	FS         fsutil.FileSystem
	SamplesDir string
	ResultsDir string
	Camera     pose.Camera
	Thresholds pose.Thresholds
	Options    Options
	Clock      timeutil.Clock
}

// Outcome is everything a run produced.
type Outcome struct {
	StartedAt   time.Time
	Duration    time.Duration
	Samples     int
	SensorFiles int
	GroundTruth GroundTruth
	Failures    []FrameFailure
	Detection   ErrorSet
	Tracking    ErrorSet
	Written     []string
}

// Sets returns the non-empty error sets keyed by kind, detection first.
func (o *Outcome) Sets() []KindSet {
	var out []KindSet
	if o.Detection != nil {
		out = append(out, KindSet{Kind: KindDetection, Errors: o.Detection})
	}
	if o.Tracking != nil {
		out = append(out, KindSet{Kind: KindTracking, Errors: o.Tracking})
	}
	return out
}

// KindSet pairs an error set with its evaluation kind.
type KindSet struct {
	Kind   Kind
	Errors ErrorSet
}

// Run loads inputs, computes ground truth and errors, and writes the
// ground-truth poses, error files and per-frame quality grades. A missing
// detection or tracking results file skips that kind.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	cam := r.Camera
	if cam == (pose.Camera{}) {
		cam = pose.DefaultCamera
	}
	if err := cam.Validate(); err != nil {
		return nil, err
	}
	th := r.Thresholds
	if th == (pose.Thresholds{}) {
		th = pose.DefaultThresholds
	}

	out := &Outcome{StartedAt: clock.Now()}
	defer func() { out.Duration = clock.Since(out.StartedAt) }()

	set, err := dataset.LoadSamples(r.FS, r.SamplesDir)
	if err != nil {
		return nil, err
	}
	out.Samples = len(set.Samples)
	out.SensorFiles = len(set.SensorFiles)

	results, err := dataset.LoadResults(r.FS, r.ResultsDir)
	if err != nil {
		return nil, err
	}
	if results.Detection == nil && results.Tracking == nil {
		return nil, fmt.Errorf("no %s or %s in %s", dataset.DetectionDataFile, dataset.TrackingDataFile, r.ResultsDir)
	}

	done := monitoring.Stage("ground truth")
	out.GroundTruth, out.Failures = GroundTruthPoses(cam, set.Samples)
	done()
	if len(out.Failures) > 0 {
		monitoring.Logf("ground truth: %d of %d frames could not be reconstructed", len(out.Failures), out.GroundTruth.Frames())
	}

	if err := r.writeJSON(GroundTruthPosesFile, out.GroundTruth, out); err != nil {
		return nil, err
	}

	passes := []struct {
		kind    Kind
		results dataset.Table[pose.Observation]
		dst     *ErrorSet
	}{
		{KindDetection, results.Detection, &out.Detection},
		{KindTracking, results.Tracking, &out.Tracking},
	}
	for _, p := range passes {
		if p.results == nil {
			monitoring.Logf("%s: no results file, skipping", p.kind)
			continue
		}
		done := monitoring.Stage(string(p.kind))
		errs, err := Evaluate(ctx, out.GroundTruth, p.results, r.Options)
		done()
		if err != nil {
			return nil, fmt.Errorf("%s evaluation: %w", p.kind, err)
		}
		*p.dst = errs

		if err := r.writeJSON(ErrorsFile(p.kind), errs, out); err != nil {
			return nil, err
		}
		if err := r.writeJSON(gradesFile(p.kind), Grade(errs, th), out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func gradesFile(kind Kind) string {
	if kind == KindTracking {
		return TrackingFrameGradesFile
	}
	return DetectionFrameGradesFile
}

// Grade maps every frame error to its quality grade, preserving shape.
func Grade(set ErrorSet, th pose.Thresholds) dataset.Table[pose.ErrorQuality] {
	out := make(dataset.Table[pose.ErrorQuality], len(set))
	for a, series := range set {
		out[a].Algorithm = series.Algorithm
		out[a].Samples = make([][]pose.ErrorQuality, len(series.Samples))
		for s, frames := range series.Samples {
			grades := make([]pose.ErrorQuality, len(frames))
			for f, e := range frames {
				grades[f] = pose.GradeError(e, th)
			}
			out[a].Samples[s] = grades
		}
	}
	return out
}

func (r *Runner) writeJSON(name string, v any, out *Outcome) error {
	path, err := security.JoinWithin(r.ResultsDir, name)
	if err != nil {
		return err
	}
	if err := WriteJSON(r.FS, path, v); err != nil {
		return err
	}
	out.Written = append(out.Written, path)
	return nil
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(fsys fsutil.FileSystem, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
