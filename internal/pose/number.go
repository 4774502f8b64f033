package pose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Number is a float64 that also accepts a JSON string holding a number.
// Labelling tools emit both forms.
type Number float64

// UnmarshalJSON accepts 12.5 or "12.5".
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("number is null")
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q: %w", s, err)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Float returns the value as a float64.
func (n Number) Float() float64 { return float64(n) }

// decodeTriple reads exactly three numbers into dst. A JSON null leaves dst
// untouched.
func decodeTriple(b []byte, dst *[3]float64, what string) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var vals []Number
	if err := json.Unmarshal(b, &vals); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if len(vals) != 3 {
		return fmt.Errorf("%w: %s must have 3 values, got %d", ErrInvalidInput, what, len(vals))
	}
	for i, v := range vals {
		dst[i] = v.Float()
	}
	return nil
}
