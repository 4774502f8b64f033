package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valeriodiste/shared-app/internal/units"
)

// Rounding applied to table cells.
const (
	TranslationPlaces = 3
	RotationPlaces    = 1
	TimePlaces        = 3
)

// Missing is rendered for a cell with no value.
const Missing = "N/A"

var (
	DetectionColumns = []string{"Algorithm", "Errors", "Translation Error", "Rotation Error", "Recognition Execution Time", "Pose Detection Execution Time"}
	TrackingColumns  = []string{"Algorithm", "Translation Error", "Rotation Error", "Execution Time"}
)

// Table is a rendered comparison table.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// DetectionTable builds one row per detection algorithm from its overall
// averages and execution times.
func DetectionTable(summaries Summaries, times DetectionTimes) Table {
	t := Table{Title: "Detection Table", Columns: DetectionColumns}
	for _, s := range summaries {
		undetected := Missing
		if s.Average.UndetectedFrames != nil {
			undetected = strconv.Itoa(*s.Average.UndetectedFrames)
		}
		var rec, det *float64
		if a, ok := times.Lookup(s.Algorithm); ok {
			rec, det = a.Recognition, a.PoseDetection
		}
		t.Rows = append(t.Rows, []string{
			s.Algorithm,
			undetected,
			cell(s.Average.TranslationError, TranslationPlaces),
			cell(s.Average.RotationError, RotationPlaces),
			cell(rec, TimePlaces),
			cell(det, TimePlaces),
		})
	}
	return t
}

// TrackingTable builds one row per tracking algorithm.
func TrackingTable(summaries Summaries, times Averages) Table {
	t := Table{Title: "Tracking Table", Columns: TrackingColumns}
	for _, s := range summaries {
		exec, _ := times.Lookup(s.Algorithm)
		t.Rows = append(t.Rows, []string{
			s.Algorithm,
			cell(s.Average.TranslationError, TranslationPlaces),
			cell(s.Average.RotationError, RotationPlaces),
			cell(exec, TimePlaces),
		})
	}
	return t
}

// cell rounds v and formats it the way the published tables show numbers:
// shortest form, with a trailing ".0" for whole values.
func cell(v *float64, places int) string {
	if v == nil {
		return Missing
	}
	return FormatNumber(units.Round(*v, places))
}

// FormatNumber renders a float in shortest form, keeping ".0" on whole
// numbers.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// WriteCSV writes the header and rows as CSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteText renders the table as left-aligned columns separated by " | ",
// with a dashed rule under the header.
func WriteText(w io.Writer, t Table) error {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c)
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if i < len(widths) && len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	var b strings.Builder
	line := func(cells []string) {
		for i, v := range cells {
			if i >= len(widths) {
				break
			}
			fmt.Fprintf(&b, "%-*s | ", widths[i], v)
		}
		b.WriteByte('\n')
	}

	line(t.Columns)
	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	line(rule)
	for _, row := range t.Rows {
		line(row)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
