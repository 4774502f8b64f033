package report

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/valeriodiste/shared-app/internal/evaluation"
)

// AverageKey labels the across-sample entry of an algorithm summary.
const AverageKey = "Average"

// SampleKey labels the summary of sample i (0-based) as "Sample #i+1".
func SampleKey(i int) string {
	return fmt.Sprintf("Sample #%d", i+1)
}

// ErrorMeans holds mean errors. A nil mean had no values to average.
// UndetectedFrames is only set on the detection Average entry.
type ErrorMeans struct {
	TranslationError *float64 `json:"Translation Error"`
	RotationError    *float64 `json:"Rotation Error"`
	UndetectedFrames *int     `json:"Undetected Frames,omitempty"`
}

// AlgorithmSummary is one algorithm's per-sample means and their average.
type AlgorithmSummary struct {
	Algorithm   string
	Samples     []ErrorMeans
	Average     ErrorMeans
	TotalFrames int
}

// MarshalJSON writes {"Sample #1": ..., ..., "Average": ...}.
func (s AlgorithmSummary) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(s.Samples)+1)
	values := make([]any, 0, len(s.Samples)+1)
	for i, m := range s.Samples {
		keys = append(keys, SampleKey(i))
		values = append(values, m)
	}
	keys = append(keys, AverageKey)
	values = append(values, s.Average)
	return orderedObject(keys, values)
}

// Summaries is an ordered list of algorithm summaries that marshals to
// {algorithm: summary}.
type Summaries []AlgorithmSummary

// MarshalJSON keeps algorithm order.
func (s Summaries) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(s))
	values := make([]any, len(s))
	for i, a := range s {
		keys[i] = a.Algorithm
		values[i] = a
	}
	return orderedObject(keys, values)
}

// Lookup returns the summary for an algorithm.
func (s Summaries) Lookup(algorithm string) (AlgorithmSummary, bool) {
	for _, a := range s {
		if a.Algorithm == algorithm {
			return a, true
		}
	}
	return AlgorithmSummary{}, false
}

// Tabular is the content of tabular_data.json.
type Tabular struct {
	Detection Summaries `json:"detection"`
	Tracking  Summaries `json:"tracking"`
}

// Summarize averages non-null errors per sample, then averages the sample
// means. With countUndetected the Average entry also carries the number of
// frames without a translation error.
func Summarize(set evaluation.ErrorSet, countUndetected bool) Summaries {
	out := make(Summaries, len(set))
	for a, series := range set {
		sum := AlgorithmSummary{
			Algorithm: series.Algorithm,
			Samples:   make([]ErrorMeans, len(series.Samples)),
		}
		var sampleT, sampleR []float64
		undetected := 0
		for i, frames := range series.Samples {
			var ts, rs []float64
			for _, e := range frames {
				if e.TranslationError != nil {
					ts = append(ts, *e.TranslationError)
				} else {
					undetected++
				}
				if e.RotationError != nil {
					rs = append(rs, *e.RotationError)
				}
			}
			sum.TotalFrames += len(frames)
			m := ErrorMeans{TranslationError: mean(ts), RotationError: mean(rs)}
			if m.TranslationError != nil {
				sampleT = append(sampleT, *m.TranslationError)
			}
			if m.RotationError != nil {
				sampleR = append(sampleR, *m.RotationError)
			}
			sum.Samples[i] = m
		}
		sum.Average = ErrorMeans{TranslationError: mean(sampleT), RotationError: mean(sampleR)}
		if countUndetected {
			sum.Average.UndetectedFrames = &undetected
		}
		out[a] = sum
	}
	return out
}

// mean returns nil for an empty slice.
func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m := stat.Mean(xs, nil)
	return &m
}
