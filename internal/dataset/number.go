package dataset

import "github.com/valeriodiste/shared-app/internal/pose"

// Number is a float64 that also accepts a JSON string holding a number.
type Number = pose.Number
