package evaluation

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/valeriodiste/shared-app/internal/dataset"
	"github.com/valeriodiste/shared-app/internal/pose"
	"github.com/valeriodiste/shared-app/internal/units"
)

// ErrorSet is an ordered {algorithm: [sample][frame]FrameError} table. It
// marshals to the *_final_errors.json layout.
type ErrorSet = dataset.Table[pose.FrameError]

// Kind names an evaluation pass.
type Kind string

const (
	KindDetection Kind = "detection"
	KindTracking  Kind = "tracking"
)

// Options tunes Evaluate.
type Options struct {
	// Workers bounds concurrent sample evaluations. Zero means one per CPU.
	Workers int
	// TranslationScale multiplies position distances. Zero means
	// units.TranslationUnitScale.
	TranslationScale float64
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

func (o Options) scale() float64 {
	if o.TranslationScale == 0 {
		return units.TranslationUnitScale
	}
	return o.TranslationScale
}

// Evaluate compares every algorithm's output against ground truth, frame by
// frame. Frames without ground truth (missing sample, missing frame or a
// failed reconstruction) compare as absent. The returned set mirrors the
// shape and order of results.
func Evaluate(ctx context.Context, gt GroundTruth, results dataset.Table[pose.Observation], opts Options) (ErrorSet, error) {
	out := make(ErrorSet, len(results))
	scale := opts.scale()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for a, series := range results {
		out[a] = dataset.Series[pose.FrameError]{
			Algorithm: series.Algorithm,
			Samples:   make([][]pose.FrameError, len(series.Samples)),
		}
		for s, frames := range series.Samples {
			a, s, frames := a, s, frames
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				errs := make([]pose.FrameError, len(frames))
				for f, obs := range frames {
					errs[f] = pose.CompareWithScale(obs, gt.Observation(s, f), scale)
				}
				out[a].Samples[s] = errs
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
