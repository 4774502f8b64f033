package report

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/valeriodiste/shared-app/internal/dataset"
)

// StepAverages is an algorithm's mean recognition and pose detection time.
type StepAverages struct {
	Algorithm     string
	Recognition   *float64
	PoseDetection *float64
}

// AlgorithmAverage is an algorithm's mean of a single measurement.
type AlgorithmAverage struct {
	Algorithm string
	Value     *float64
}

// DetectionTimes marshals to {algorithm: [recognition, pose detection]}.
type DetectionTimes []StepAverages

// MarshalJSON keeps algorithm order.
func (d DetectionTimes) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(d))
	values := make([]any, len(d))
	for i, a := range d {
		keys[i] = a.Algorithm
		values[i] = [2]*float64{a.Recognition, a.PoseDetection}
	}
	return orderedObject(keys, values)
}

// Lookup returns the averages for an algorithm.
func (d DetectionTimes) Lookup(algorithm string) (StepAverages, bool) {
	for _, a := range d {
		if a.Algorithm == algorithm {
			return a, true
		}
	}
	return StepAverages{}, false
}

// Averages marshals to {algorithm: value}.
type Averages []AlgorithmAverage

// MarshalJSON keeps algorithm order.
func (a Averages) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(a))
	values := make([]any, len(a))
	for i, v := range a {
		keys[i] = v.Algorithm
		values[i] = v.Value
	}
	return orderedObject(keys, values)
}

// Lookup returns the average for an algorithm.
func (a Averages) Lookup(algorithm string) (*float64, bool) {
	for _, v := range a {
		if v.Algorithm == algorithm {
			return v.Value, true
		}
	}
	return nil, false
}

// ExecutionTimes is the content of execution_times.json.
type ExecutionTimes struct {
	Detection DetectionTimes `json:"detection"`
	Tracking  Averages       `json:"tracking"`
}

// DetectionExecutionAverages averages recognition and pose detection times
// over every frame of every sample.
func DetectionExecutionAverages(t dataset.Table[dataset.StepTimes]) DetectionTimes {
	out := make(DetectionTimes, len(t))
	for i, series := range t {
		var rec, det []float64
		for _, sample := range series.Samples {
			for _, f := range sample {
				rec = append(rec, f.Recognition())
				det = append(det, f.PoseDetection())
			}
		}
		out[i] = StepAverages{Algorithm: series.Algorithm, Recognition: mean(rec), PoseDetection: mean(det)}
	}
	return out
}

// TrackingExecutionAverages averages per-frame tracking times.
func TrackingExecutionAverages(t dataset.Table[float64]) Averages {
	out := make(Averages, len(t))
	for i, series := range t {
		var xs []float64
		for _, sample := range series.Samples {
			xs = append(xs, sample...)
		}
		out[i] = AlgorithmAverage{Algorithm: series.Algorithm, Value: mean(xs)}
	}
	return out
}

// FPSAverages averages optimisation FPS, skipping frames with no value.
func FPSAverages(t dataset.Table[*float64]) Averages {
	out := make(Averages, len(t))
	for i, series := range t {
		out[i] = AlgorithmAverage{Algorithm: series.Algorithm, Value: mean(presentFPS(series))}
	}
	return out
}

func presentFPS(series dataset.Series[*float64]) []float64 {
	var xs []float64
	for _, sample := range series.Samples {
		for _, v := range sample {
			if v != nil {
				xs = append(xs, *v)
			}
		}
	}
	return xs
}

// FPSRange is a half-open [Low, High) histogram bucket.
type FPSRange struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Label string  `json:"label"`
}

// Histogram is bucketed optimisation FPS counts per algorithm.
type Histogram struct {
	RangeSize float64    `json:"range_size"`
	Ranges    []FPSRange `json:"ranges"`
	Counts    HistCounts `json:"counts"`
}

// AlgorithmCounts is one algorithm's per-bucket frame counts.
type AlgorithmCounts struct {
	Algorithm string
	Counts    []int
}

// HistCounts marshals to {algorithm: [count per bucket]}.
type HistCounts []AlgorithmCounts

// MarshalJSON keeps algorithm order.
func (h HistCounts) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(h))
	values := make([]any, len(h))
	for i, c := range h {
		keys[i] = c.Algorithm
		values[i] = c.Counts
	}
	return orderedObject(keys, values)
}

// FPSHistogram buckets every present FPS value. The span runs from the
// floor of the lowest value (or 0 if nothing is negative) to the ceiling of
// the highest value (or 0), split into int(span/rangeSize) equal buckets.
// Values equal to the upper bound fall outside the last bucket.
func FPSHistogram(t dataset.Table[*float64], rangeSize float64) (Histogram, error) {
	if rangeSize <= 0 {
		return Histogram{}, fmt.Errorf("fps range size must be positive, got %g", rangeSize)
	}

	var all []float64
	for _, series := range t {
		all = append(all, presentFPS(series)...)
	}
	lo, hi := 0.0, 0.0
	if len(all) > 0 {
		lo = math.Min(0, math.Floor(floats.Min(all)))
		hi = math.Max(0, math.Ceil(floats.Max(all)))
	}

	buckets := int((hi - lo) / rangeSize)
	h := Histogram{RangeSize: rangeSize, Ranges: make([]FPSRange, buckets), Counts: make(HistCounts, len(t))}
	if buckets > 0 {
		span, n := hi-lo, float64(buckets)
		for i := range h.Ranges {
			low := lo + float64(i)*span/n
			high := lo + float64(i+1)*span/n
			h.Ranges[i] = FPSRange{Low: low, High: high, Label: fmt.Sprintf("%g-%g", low, high)}
		}
	}

	for i, series := range t {
		counts := make([]int, buckets)
		for _, v := range presentFPS(series) {
			for b, r := range h.Ranges {
				if v >= r.Low && v < r.High {
					counts[b]++
					break
				}
			}
		}
		h.Counts[i] = AlgorithmCounts{Algorithm: series.Algorithm, Counts: counts}
	}
	return h, nil
}
