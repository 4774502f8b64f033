package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valeriodiste/shared-app/internal/pose"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultEvaluationConfig(t *testing.T) {
	cfg := DefaultEvaluationConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Samples", cfg.GetSamplesDir())
	assert.Equal(t, "Results", cfg.GetResultsDir())
	assert.Equal(t, "", cfg.GetDatabasePath())
	assert.Equal(t, pose.DefaultCamera, cfg.GetCamera())
	assert.Equal(t, 0.1, cfg.GetTranslationUnitScale())
	assert.Equal(t, 5.0, cfg.GetFPSRangeSize())
	assert.Equal(t, pose.DefaultThresholds, cfg.GetThresholds())
	assert.Equal(t, runtime.NumCPU(), cfg.GetWorkers())
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	empty := EmptyEvaluationConfig()
	def := DefaultEvaluationConfig()

	assert.Equal(t, def.GetSamplesDir(), empty.GetSamplesDir())
	assert.Equal(t, def.GetResultsDir(), empty.GetResultsDir())
	assert.Equal(t, def.GetCamera(), empty.GetCamera())
	assert.Equal(t, def.GetTranslationUnitScale(), empty.GetTranslationUnitScale())
	assert.Equal(t, def.GetFPSRangeSize(), empty.GetFPSRangeSize())
	assert.Equal(t, def.GetThresholds(), empty.GetThresholds())
	assert.Equal(t, def.GetWorkers(), empty.GetWorkers())
}

func TestLoadEvaluationConfig(t *testing.T) {
	path := writeConfig(t, "eval.json", `{
  "samples_dir": "/data/Samples",
  "camera_fov_degrees": 75,
  "workers": 3,
  "quality_rotation_fair": 45
}`)

	cfg, err := LoadEvaluationConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/Samples", cfg.GetSamplesDir())
	assert.Equal(t, "Results", cfg.GetResultsDir(), "omitted fields keep defaults")
	assert.Equal(t, pose.Camera{ResolutionX: 1080, ResolutionY: 1920, FOVDegrees: 75}, cfg.GetCamera())
	assert.Equal(t, 3, cfg.GetWorkers())
	assert.Equal(t, 45.0, cfg.GetThresholds().RotationFair)
	assert.Equal(t, pose.DefaultThresholds.RotationGood, cfg.GetThresholds().RotationGood)
}

func TestLoadEvaluationConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "eval.yaml", `{}`, ".json extension"},
		{"bad json", "eval.json", `{"workers": `, "failed to parse"},
		{"negative workers", "eval.json", `{"workers": -1}`, "workers must be non-negative"},
		{"zero scale", "eval.json", `{"translation_unit_scale": 0}`, "translation_unit_scale"},
		{"bad fov", "eval.json", `{"camera_fov_degrees": 200}`, "field of view"},
		{"zero range", "eval.json", `{"fps_range_size": 0}`, "fps_range_size"},
		{"unordered thresholds", "eval.json", `{"quality_translation_good": 0.01}`, "quality thresholds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadEvaluationConfig(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEvaluationConfig_MissingFile(t *testing.T) {
	_, err := LoadEvaluationConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat")
}

func TestLoadEvaluationConfig_TooLarge(t *testing.T) {
	body := `{"samples_dir": "` + strings.Repeat("a", maxConfigFileSize) + `"}`
	_, err := LoadEvaluationConfig(writeConfig(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestDefaultsFileMatchesCode(t *testing.T) {
	cfg, err := LoadEvaluationConfig(filepath.Join("..", "..", DefaultConfigPath))
	require.NoError(t, err)

	def := DefaultEvaluationConfig()
	assert.Equal(t, def.GetCamera(), cfg.GetCamera())
	assert.Equal(t, def.GetThresholds(), cfg.GetThresholds())
	assert.Equal(t, def.GetTranslationUnitScale(), cfg.GetTranslationUnitScale())
	assert.Equal(t, def.GetFPSRangeSize(), cfg.GetFPSRangeSize())
	assert.Equal(t, def.GetSamplesDir(), cfg.GetSamplesDir())
	assert.Equal(t, def.GetResultsDir(), cfg.GetResultsDir())
}
