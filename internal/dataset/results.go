package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/valeriodiste/shared-app/internal/fsutil"
	"github.com/valeriodiste/shared-app/internal/pose"
)

// Result file names inside the results directory.
const (
	DetectionDataFile           = "detection_data.json"
	TrackingDataFile            = "tracking_data.json"
	DetectionExecutionTimesFile = "detection_execution_times.json"
	TrackingExecutionTimesFile  = "tracking_execution_times.json"
	OptimizationFPSFile         = "optimization_fps.json"
)

// Results holds detector and tracker outputs. A nil table means the file was
// absent and that evaluation kind is skipped.
type Results struct {
	Detection Table[pose.Observation]
	Tracking  Table[pose.Observation]
}

// StepTimes is the per-frame [recognition, pose detection] time pair.
type StepTimes [2]float64

// Recognition returns the image recognition time.
func (s StepTimes) Recognition() float64 { return s[0] }

// PoseDetection returns the pose detection time.
func (s StepTimes) PoseDetection() float64 { return s[1] }

// Timings holds execution time and optimisation FPS measurements. Nil
// tables mean the corresponding file was absent.
type Timings struct {
	Detection       Table[StepTimes]
	Tracking        Table[float64]
	OptimizationFPS Table[*float64]
}

// LoadResults reads the detector and tracker outputs from dir.
func LoadResults(fsys fsutil.FileSystem, dir string) (*Results, error) {
	var r Results
	if _, err := loadOptional(fsys, filepath.Join(dir, DetectionDataFile), &r.Detection); err != nil {
		return nil, err
	}
	if _, err := loadOptional(fsys, filepath.Join(dir, TrackingDataFile), &r.Tracking); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadTimings reads execution times and optimisation FPS from dir.
func LoadTimings(fsys fsutil.FileSystem, dir string) (*Timings, error) {
	var t Timings
	if _, err := loadOptional(fsys, filepath.Join(dir, DetectionExecutionTimesFile), &t.Detection); err != nil {
		return nil, err
	}
	if _, err := loadOptional(fsys, filepath.Join(dir, TrackingExecutionTimesFile), &t.Tracking); err != nil {
		return nil, err
	}
	if _, err := loadOptional(fsys, filepath.Join(dir, OptimizationFPSFile), &t.OptimizationFPS); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTable decodes a required table file.
func LoadTable[T any](fsys fsutil.FileSystem, path string) (Table[T], error) {
	var t Table[T]
	found, err := loadOptional(fsys, path, &t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return t, nil
}

// loadOptional decodes path into v. A missing file is not an error and
// leaves v untouched.
func loadOptional(fsys fsutil.FileSystem, path string, v any) (bool, error) {
	data, err := fsys.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return true, nil
}
