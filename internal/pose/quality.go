package pose

import "fmt"

// ErrorQuality is the graded accuracy of a single frame comparison.
type ErrorQuality string

const (
	// ErrorQualityExcellent means both errors are under the excellent thresholds.
	ErrorQualityExcellent ErrorQuality = "excellent"
	// ErrorQualityGood means both errors are under the good thresholds.
	ErrorQualityGood ErrorQuality = "good"
	// ErrorQualityFair means both errors are under the fair thresholds.
	ErrorQualityFair ErrorQuality = "fair"
	// ErrorQualityPoor means at least one error exceeds the fair threshold.
	ErrorQualityPoor ErrorQuality = "poor"
	// ErrorQualityUndetected means the detector produced no position.
	ErrorQualityUndetected ErrorQuality = "undetected"
)

// Thresholds are the upper bounds for each quality grade. Translation is in
// reporting units, rotation in degrees. Bounds are exclusive.
type Thresholds struct {
	TranslationExcellent float64 `json:"translation_excellent"`
	TranslationGood      float64 `json:"translation_good"`
	TranslationFair      float64 `json:"translation_fair"`
	RotationExcellent    float64 `json:"rotation_excellent"`
	RotationGood         float64 `json:"rotation_good"`
	RotationFair         float64 `json:"rotation_fair"`
}

// DefaultThresholds are used when no configuration overrides them.
var DefaultThresholds = Thresholds{
	TranslationExcellent: 0.05,
	TranslationGood:      0.15,
	TranslationFair:      0.30,
	RotationExcellent:    5,
	RotationGood:         15,
	RotationFair:         30,
}

// Validate checks the thresholds are positive and ascending.
func (t Thresholds) Validate() error {
	if !(t.TranslationExcellent > 0 && t.TranslationExcellent < t.TranslationGood && t.TranslationGood < t.TranslationFair) {
		return fmt.Errorf("translation thresholds must be positive and ascending, got %g/%g/%g",
			t.TranslationExcellent, t.TranslationGood, t.TranslationFair)
	}
	if !(t.RotationExcellent > 0 && t.RotationExcellent < t.RotationGood && t.RotationGood < t.RotationFair) {
		return fmt.Errorf("rotation thresholds must be positive and ascending, got %g/%g/%g",
			t.RotationExcellent, t.RotationGood, t.RotationFair)
	}
	return nil
}

// GradeError grades a frame comparison. The worse of the translation and
// rotation grades wins. A frame with a position but no rotation is graded on
// translation alone.
func GradeError(e FrameError, t Thresholds) ErrorQuality {
	if e.TranslationError == nil {
		return ErrorQualityUndetected
	}
	q := grade(*e.TranslationError, t.TranslationExcellent, t.TranslationGood, t.TranslationFair)
	if e.RotationError != nil {
		r := grade(*e.RotationError, t.RotationExcellent, t.RotationGood, t.RotationFair)
		if r.rank() > q.rank() {
			q = r
		}
	}
	return q
}

func grade(v, excellent, good, fair float64) ErrorQuality {
	switch {
	case v < excellent:
		return ErrorQualityExcellent
	case v < good:
		return ErrorQualityGood
	case v < fair:
		return ErrorQualityFair
	default:
		return ErrorQualityPoor
	}
}

func (q ErrorQuality) rank() int {
	switch q {
	case ErrorQualityExcellent:
		return 0
	case ErrorQualityGood:
		return 1
	case ErrorQualityFair:
		return 2
	case ErrorQualityPoor:
		return 3
	default:
		return 4
	}
}

// IsUsable reports whether a frame is accurate enough to count as a
// successful track.
func (q ErrorQuality) IsUsable() bool {
	return q == ErrorQualityExcellent || q == ErrorQualityGood || q == ErrorQualityFair
}

// String returns a human-readable description of the quality.
func (q ErrorQuality) String() string {
	switch q {
	case ErrorQualityExcellent:
		return "excellent"
	case ErrorQualityGood:
		return "good"
	case ErrorQualityFair:
		return "fair"
	case ErrorQualityPoor:
		return "poor"
	case ErrorQualityUndetected:
		return "undetected"
	default:
		return fmt.Sprintf("unknown (%s)", string(q))
	}
}
