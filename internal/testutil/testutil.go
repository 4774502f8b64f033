// Package testutil provides shared test helpers and sample fixtures for the
// evaluation packages.
package testutil

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/valeriodiste/shared-app/internal/fsutil"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertFloatPtr checks an optional float against an optional expectation.
// A nil want requires a nil got.
func AssertFloatPtr(t testing.TB, name string, want, got *float64, delta float64) {
	t.Helper()
	switch {
	case want == nil && got == nil:
	case want == nil:
		t.Errorf("%s = %v, want nil", name, *got)
	case got == nil:
		t.Errorf("%s = nil, want %v", name, *want)
	case math.Abs(*want-*got) > delta:
		t.Errorf("%s = %v, want %v (±%v)", name, *got, *want, delta)
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// WriteJSON marshals v into path on fsys.
func WriteJSON(t testing.TB, fsys fsutil.FileSystem, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	AssertNoError(t, err)
	AssertNoError(t, fsys.WriteFile(path, data, 0644))
}

// WriteRaw writes a literal document into path on fsys.
func WriteRaw(t testing.TB, fsys fsutil.FileSystem, path, body string) {
	t.Helper()
	AssertNoError(t, fsys.WriteFile(path, []byte(body), 0644))
}
