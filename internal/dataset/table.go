package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Series is one algorithm's per-sample, per-frame values.
type Series[T any] struct {
	Algorithm string
	Samples   [][]T
}

// Frames returns the total number of frames across all samples.
func (s Series[T]) Frames() int {
	n := 0
	for _, sample := range s.Samples {
		n += len(sample)
	}
	return n
}

// Table is an ordered {algorithm: [sample][frame]T} JSON object. Order
// follows the source document and is preserved when marshalling.
type Table[T any] []Series[T]

// Algorithms returns the algorithm names in order.
func (t Table[T]) Algorithms() []string {
	names := make([]string, len(t))
	for i, s := range t {
		names[i] = s.Algorithm
	}
	return names
}

// Lookup returns the series for an algorithm.
func (t Table[T]) Lookup(algorithm string) (Series[T], bool) {
	for _, s := range t {
		if s.Algorithm == algorithm {
			return s, true
		}
	}
	return Series[T]{}, false
}

// MarshalJSON writes the table as a JSON object in series order.
func (t Table[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Algorithm)
		if err != nil {
			return nil, err
		}
		samples := s.Samples
		if samples == nil {
			samples = [][]T{}
		}
		val, err := json.Marshal(samples)
		if err != nil {
			return nil, fmt.Errorf("algorithm %q: %w", s.Algorithm, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. A JSON null yields
// an empty table.
func (t *Table[T]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*t = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected an object keyed by algorithm, got %v", tok)
	}

	var out Table[T]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected algorithm name, got %v", tok)
		}
		var samples [][]T
		if err := dec.Decode(&samples); err != nil {
			return fmt.Errorf("algorithm %q: %w", name, err)
		}
		out = append(out, Series[T]{Algorithm: name, Samples: samples})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*t = out
	return nil
}
