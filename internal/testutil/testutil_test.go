package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valeriodiste/shared-app/internal/fsutil"
)

func TestAssertFloatPtr_Matching(t *testing.T) {
	AssertFloatPtr(t, "nil", nil, nil, 0)
	AssertFloatPtr(t, "close", Float(1.0), Float(1.0000001), 1e-6)
}

func TestWriteJSON(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	WriteJSON(t, fsys, "out/x.json", map[string]int{"a": 1})

	data, err := fsys.ReadFile("out/x.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}

func TestNewSampleFS(t *testing.T) {
	fsys := NewSampleFS(t)

	files, err := fsutil.ListFiles(fsys, "Samples")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"sample_1_coordinates.json",
		"sample_1_sensor.json",
		"sample_1_test_marker_data.json",
		"sample_2_coordinates.json",
		"sample_2_test_marker_data.json",
	}, files)
	assert.True(t, fsys.Exists("Results"))
}
