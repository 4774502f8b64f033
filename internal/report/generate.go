package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/valeriodiste/shared-app/internal/dataset"
	"github.com/valeriodiste/shared-app/internal/evaluation"
	"github.com/valeriodiste/shared-app/internal/fsutil"
	"github.com/valeriodiste/shared-app/internal/monitoring"
	"github.com/valeriodiste/shared-app/internal/pose"
	"github.com/valeriodiste/shared-app/internal/security"
)

// Output file names, relative to the results directory.
const (
	TabularDataFile    = "tabular_data.json"
	ExecutionTimesFile = "execution_times.json"
	FPSAverageFile     = "optimization_fps_average.json"
	FPSHistogramFile   = "optimization_fps_histogram.json"
	DetectionTableFile = "Tables/detection_table_data.csv"
	TrackingTableFile  = "Tables/tracking_table_data.csv"
)

// DefaultFPSRangeSize is the FPS histogram bucket width.
const DefaultFPSRangeSize = 5.0

const (
	separatorWidth        = 80
	sectionSeparatorWidth = 50
)

// Options tunes Generate.
type Options struct {
	// FPSRangeSize is the histogram bucket width. Zero means DefaultFPSRangeSize.
	FPSRangeSize float64
}

// Report is everything derived from one results directory.
type Report struct {
	Tabular        Tabular
	ExecutionTimes ExecutionTimes
	FPSAverages    Averages
	FPSHistogram   *Histogram
	Detection      Table
	Tracking       Table
	Written        []string
}

// Generate reads the error files, execution times and FPS measurements in
// resultsDir, derives the aggregates and writes them back as JSON and CSV.
// Either error file may be missing, but not both.
func Generate(fsys fsutil.FileSystem, resultsDir string, opts Options) (*Report, error) {
	detection, err := loadErrors(fsys, resultsDir, evaluation.KindDetection)
	if err != nil {
		return nil, err
	}
	tracking, err := loadErrors(fsys, resultsDir, evaluation.KindTracking)
	if err != nil {
		return nil, err
	}
	if detection == nil && tracking == nil {
		return nil, fmt.Errorf("no %s or %s in %s", evaluation.DetectionErrorsFile, evaluation.TrackingErrorsFile, resultsDir)
	}

	timings, err := dataset.LoadTimings(fsys, resultsDir)
	if err != nil {
		return nil, err
	}

	rangeSize := opts.FPSRangeSize
	if rangeSize == 0 {
		rangeSize = DefaultFPSRangeSize
	}

	r := Build(detection, tracking, timings)
	if timings.OptimizationFPS != nil {
		h, err := FPSHistogram(timings.OptimizationFPS, rangeSize)
		if err != nil {
			return nil, err
		}
		r.FPSHistogram = &h
	}

	if err := r.write(fsys, resultsDir, timings); err != nil {
		return nil, err
	}
	return r, nil
}

// Build derives every aggregate without touching the filesystem.
func Build(detection, tracking evaluation.ErrorSet, timings *dataset.Timings) *Report {
	if timings == nil {
		timings = &dataset.Timings{}
	}
	r := &Report{
		Tabular: Tabular{
			Detection: Summarize(detection, true),
			Tracking:  Summarize(tracking, false),
		},
		ExecutionTimes: ExecutionTimes{
			Detection: DetectionExecutionAverages(timings.Detection),
			Tracking:  TrackingExecutionAverages(timings.Tracking),
		},
		FPSAverages: FPSAverages(timings.OptimizationFPS),
	}
	r.Detection = DetectionTable(r.Tabular.Detection, r.ExecutionTimes.Detection)
	r.Tracking = TrackingTable(r.Tabular.Tracking, r.ExecutionTimes.Tracking)
	return r
}

func loadErrors(fsys fsutil.FileSystem, dir string, kind evaluation.Kind) (evaluation.ErrorSet, error) {
	set, err := dataset.LoadTable[pose.FrameError](fsys, filepath.Join(dir, evaluation.ErrorsFile(kind)))
	if errors.Is(err, fs.ErrNotExist) {
		monitoring.Logf("report: no %s errors, skipping", kind)
		return nil, nil
	}
	return set, err
}

func (r *Report) write(fsys fsutil.FileSystem, dir string, timings *dataset.Timings) error {
	jsonOutputs := []struct {
		name string
		v    any
		skip bool
	}{
		{TabularDataFile, r.Tabular, false},
		{ExecutionTimesFile, r.ExecutionTimes, timings.Detection == nil && timings.Tracking == nil},
		{FPSAverageFile, r.FPSAverages, timings.OptimizationFPS == nil},
		{FPSHistogramFile, r.FPSHistogram, r.FPSHistogram == nil},
	}
	for _, o := range jsonOutputs {
		if o.skip {
			continue
		}
		path, err := security.JoinWithin(dir, o.name)
		if err != nil {
			return err
		}
		if err := evaluation.WriteJSON(fsys, path, o.v); err != nil {
			return err
		}
		r.Written = append(r.Written, path)
	}

	csvOutputs := []struct {
		name  string
		table Table
	}{
		{DetectionTableFile, r.Detection},
		{TrackingTableFile, r.Tracking},
	}
	for _, o := range csvOutputs {
		path, err := security.JoinWithin(dir, o.name)
		if err != nil {
			return err
		}
		if err := writeCSVFile(fsys, path, o.table); err != nil {
			return err
		}
		r.Written = append(r.Written, path)
	}
	return nil
}

func writeCSVFile(fsys fsutil.FileSystem, path string, t Table) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(w, t); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return w.Close()
}

// Print writes the human-readable summary: overall averages, execution
// times, both tables and FPS averages.
func (r *Report) Print(w io.Writer) error {
	var b strings.Builder
	sep := "\n" + strings.Repeat("#", separatorWidth) + "\n"
	section := "\n" + strings.Repeat("=", sectionSeparatorWidth) + "\n"

	b.WriteString(sep)
	b.WriteString("\nDetection Results (Average):\n")
	for _, s := range r.Tabular.Detection {
		fmt.Fprintf(&b, "  %s\n", s.Algorithm)
		if s.Average.UndetectedFrames != nil {
			fmt.Fprintf(&b, "    Undetected Frames: %d\n", *s.Average.UndetectedFrames)
		}
		fmt.Fprintf(&b, "    Translation Error: %s\n", cell(s.Average.TranslationError, TranslationPlaces))
		fmt.Fprintf(&b, "    Rotation Error: %s\n", cell(s.Average.RotationError, RotationPlaces))
	}
	b.WriteString(section)
	b.WriteString("\nTracking Results (Average):\n")
	for _, s := range r.Tabular.Tracking {
		fmt.Fprintf(&b, "  %s\n", s.Algorithm)
		fmt.Fprintf(&b, "    Translation Error: %s\n", cell(s.Average.TranslationError, TranslationPlaces))
		fmt.Fprintf(&b, "    Rotation Error: %s\n", cell(s.Average.RotationError, RotationPlaces))
	}

	b.WriteString(sep)
	b.WriteString("\nDetection Execution Times (Average):\n")
	for _, a := range r.ExecutionTimes.Detection {
		fmt.Fprintf(&b, "  %s (recognition): %s\n", a.Algorithm, cell(a.Recognition, TimePlaces))
		fmt.Fprintf(&b, "  %s (detection): %s\n", a.Algorithm, cell(a.PoseDetection, TimePlaces))
	}
	b.WriteString(section)
	b.WriteString("\nTracking Execution Times (Average):\n")
	for _, a := range r.ExecutionTimes.Tracking {
		fmt.Fprintf(&b, "  %s: %s\n", a.Algorithm, cell(a.Value, TimePlaces))
	}

	b.WriteString(sep)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	b.Reset()

	if _, err := io.WriteString(w, "\n"+r.Detection.Title+":\n"); err != nil {
		return err
	}
	if err := WriteText(w, r.Detection); err != nil {
		return err
	}
	if _, err := io.WriteString(w, section+"\n"+r.Tracking.Title+":\n"); err != nil {
		return err
	}
	if err := WriteText(w, r.Tracking); err != nil {
		return err
	}

	b.WriteString(sep)
	b.WriteString("\nOptimization FPS (Average):\n")
	for _, a := range r.FPSAverages {
		fmt.Fprintf(&b, "  %s: %s\n", a.Algorithm, cell(a.Value, TimePlaces))
	}
	if r.FPSHistogram != nil && len(r.FPSHistogram.Ranges) > 0 {
		b.WriteString("\nOptimization FPS Histogram:\n")
		for _, c := range r.FPSHistogram.Counts {
			fmt.Fprintf(&b, "  %s\n", c.Algorithm)
			for i, n := range c.Counts {
				fmt.Fprintf(&b, "    %s: %d\n", r.FPSHistogram.Ranges[i].Label, n)
			}
		}
	}
	b.WriteString(sep)
	_, err := io.WriteString(w, b.String())
	return err
}
