package db

import (
	"encoding/csv"
	"io"
	"strconv"
)

var frameCSVHeader = []string{"sample", "frame", "translation_error", "rotation_error", "quality"}

// WriteFrameCSV writes archived frames as CSV. Missing errors are empty
// cells.
func WriteFrameCSV(w io.Writer, frames []FrameRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(frameCSVHeader); err != nil {
		return err
	}
	for _, f := range frames {
		rec := []string{
			strconv.Itoa(f.Sample),
			strconv.Itoa(f.Frame),
			formatOptional(f.TranslationError),
			formatOptional(f.RotationError),
			f.Quality,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
