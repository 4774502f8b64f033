package dataset

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/valeriodiste/shared-app/internal/fsutil"
	"github.com/valeriodiste/shared-app/internal/pose"
)

// File name markers used to classify files in the samples directory.
const (
	groundTruthMarker = "coordinates"
	markerSizeMarker  = "test_marker"
	markerSizeSuffix  = "_data"
	sensorMarker      = "sensor"
)

// Frame is one labelled image of a sample.
type Frame struct {
	ImageName     string
	ControlPoints pose.Corners
}

type rawFrame struct {
	ImageName     string     `json:"imageName"`
	ControlPoints [][]Number `json:"controlPoints"`
}

type rawMarkerSize struct {
	Width  Number `json:"width"`
	Height Number `json:"height"`
}

// Sample is one recorded session: its labelled frames and the physical size
// of the tracked marker.
type Sample struct {
	GroundTruthFile string
	MarkerFile      string
	MarkerSize      pose.Size
	Frames          []Frame
}

// SampleSet is everything loaded from the samples directory.
type SampleSet struct {
	Samples     []Sample
	SensorFiles []string
}

// LoadSamples reads every sample in dir. Ground-truth and marker size files
// are each sorted by name and paired by position; the counts must match.
// Sensor files are recorded but not parsed.
func LoadSamples(fsys fsutil.FileSystem, dir string) (*SampleSet, error) {
	names, err := fsutil.ListFiles(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples directory %s: %w", dir, err)
	}

	gtFiles, sizeFiles, sensorFiles := classifySampleFiles(names)

	if len(gtFiles) == 0 {
		return nil, fmt.Errorf("no ground-truth files (*%s*) in %s", groundTruthMarker, dir)
	}
	if len(gtFiles) != len(sizeFiles) {
		return nil, fmt.Errorf("found %d ground-truth files but %d marker size files in %s",
			len(gtFiles), len(sizeFiles), dir)
	}

	set := &SampleSet{SensorFiles: sensorFiles}
	for i := range gtFiles {
		frames, err := loadFrames(fsys, filepath.Join(dir, gtFiles[i]))
		if err != nil {
			return nil, err
		}
		size, err := loadMarkerSize(fsys, filepath.Join(dir, sizeFiles[i]))
		if err != nil {
			return nil, err
		}
		set.Samples = append(set.Samples, Sample{
			GroundTruthFile: gtFiles[i],
			MarkerFile:      sizeFiles[i],
			MarkerSize:      size,
			Frames:          frames,
		})
	}
	return set, nil
}

func loadFrames(fsys fsutil.FileSystem, path string) ([]Frame, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ground truth %s: %w", path, err)
	}
	var raw []rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse ground truth %s: %w", path, err)
	}

	frames := make([]Frame, len(raw))
	for i, r := range raw {
		corners := make(pose.Corners, len(r.ControlPoints))
		for j, p := range r.ControlPoints {
			if len(p) < 2 {
				return nil, fmt.Errorf("%s: frame %q control point %d has %d coordinates", path, r.ImageName, j, len(p))
			}
			corners[j] = pose.Point{p[0].Float(), p[1].Float()}
		}
		if r.ControlPoints == nil {
			corners = nil
		}
		frames[i] = Frame{ImageName: r.ImageName, ControlPoints: corners}
	}
	return frames, nil
}

func loadMarkerSize(fsys fsutil.FileSystem, path string) (pose.Size, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return pose.Size{}, fmt.Errorf("failed to read marker size %s: %w", path, err)
	}
	var raw rawMarkerSize
	if err := json.Unmarshal(data, &raw); err != nil {
		return pose.Size{}, fmt.Errorf("failed to parse marker size %s: %w", path, err)
	}
	return pose.Size{Width: raw.Width.Float(), Height: raw.Height.Float()}, nil
}

// classifySampleFiles sorts names into ground-truth, marker size and sensor
// files. Each category is matched independently, so one name can land in
// more than one list.
func classifySampleFiles(names []string) (gt, size, sensor []string) {
	for _, name := range names {
		if strings.Contains(name, groundTruthMarker) {
			gt = append(gt, name)
		}
		if strings.Contains(name, markerSizeMarker) && strings.Contains(name, markerSizeSuffix) {
			size = append(size, name)
		}
		if strings.Contains(name, sensorMarker) {
			sensor = append(sensor, name)
		}
	}
	return gt, size, sensor
}
