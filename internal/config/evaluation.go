package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/valeriodiste/shared-app/internal/pose"
	"github.com/valeriodiste/shared-app/internal/units"
)

// DefaultConfigPath is the path to the checked-in evaluation defaults file.
const DefaultConfigPath = "config/evaluation.defaults.json"

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// EvaluationConfig is the root configuration for an evaluation run.
// Every field is optional; the Get* accessors supply defaults for omitted
// fields, so partial files are safe.
type EvaluationConfig struct {
	// Input and output layout
	SamplesDir   *string `json:"samples_dir,omitempty"`
	ResultsDir   *string `json:"results_dir,omitempty"`
	DatabasePath *string `json:"database_path,omitempty"`

	// Camera model
	CameraResolutionX *float64 `json:"camera_resolution_x,omitempty"`
	CameraResolutionY *float64 `json:"camera_resolution_y,omitempty"`
	CameraFOVDegrees  *float64 `json:"camera_fov_degrees,omitempty"`

	// Metric and aggregation
	TranslationUnitScale *float64 `json:"translation_unit_scale,omitempty"`
	Workers              *int     `json:"workers,omitempty"`
	FPSRangeSize         *float64 `json:"fps_range_size,omitempty"`

	// Error grading thresholds
	QualityTranslationExcellent *float64 `json:"quality_translation_excellent,omitempty"`
	QualityTranslationGood      *float64 `json:"quality_translation_good,omitempty"`
	QualityTranslationFair      *float64 `json:"quality_translation_fair,omitempty"`
	QualityRotationExcellent    *float64 `json:"quality_rotation_excellent,omitempty"`
	QualityRotationGood         *float64 `json:"quality_rotation_good,omitempty"`
	QualityRotationFair         *float64 `json:"quality_rotation_fair,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyEvaluationConfig returns a config with every field unset.
func EmptyEvaluationConfig() *EvaluationConfig {
	return &EvaluationConfig{}
}

// DefaultEvaluationConfig returns a config with every field set to its default.
func DefaultEvaluationConfig() *EvaluationConfig {
	cam := pose.DefaultCamera
	th := pose.DefaultThresholds
	return &EvaluationConfig{
		SamplesDir:                  ptrString("Samples"),
		ResultsDir:                  ptrString("Results"),
		DatabasePath:                ptrString(""),
		CameraResolutionX:           ptrFloat64(cam.ResolutionX),
		CameraResolutionY:           ptrFloat64(cam.ResolutionY),
		CameraFOVDegrees:            ptrFloat64(cam.FOVDegrees),
		TranslationUnitScale:        ptrFloat64(units.TranslationUnitScale),
		Workers:                     ptrInt(0),
		FPSRangeSize:                ptrFloat64(5),
		QualityTranslationExcellent: ptrFloat64(th.TranslationExcellent),
		QualityTranslationGood:      ptrFloat64(th.TranslationGood),
		QualityTranslationFair:      ptrFloat64(th.TranslationFair),
		QualityRotationExcellent:    ptrFloat64(th.RotationExcellent),
		QualityRotationGood:         ptrFloat64(th.RotationGood),
		QualityRotationFair:         ptrFloat64(th.RotationFair),
	}
}

// LoadEvaluationConfig loads an EvaluationConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadEvaluationConfig(path string) (*EvaluationConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEvaluationConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *EvaluationConfig) Validate() error {
	if err := c.GetCamera().Validate(); err != nil {
		return err
	}
	if c.TranslationUnitScale != nil && *c.TranslationUnitScale <= 0 {
		return fmt.Errorf("translation_unit_scale must be positive, got %f", *c.TranslationUnitScale)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.FPSRangeSize != nil && *c.FPSRangeSize <= 0 {
		return fmt.Errorf("fps_range_size must be positive, got %f", *c.FPSRangeSize)
	}
	if err := c.GetThresholds().Validate(); err != nil {
		return fmt.Errorf("quality thresholds: %w", err)
	}
	return nil
}

// GetSamplesDir returns the samples directory or the default.
func (c *EvaluationConfig) GetSamplesDir() string {
	if c.SamplesDir == nil || *c.SamplesDir == "" {
		return "Samples"
	}
	return *c.SamplesDir
}

// GetResultsDir returns the results directory or the default.
func (c *EvaluationConfig) GetResultsDir() string {
	if c.ResultsDir == nil || *c.ResultsDir == "" {
		return "Results"
	}
	return *c.ResultsDir
}

// GetDatabasePath returns the archive database path. Empty disables archiving.
func (c *EvaluationConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetCamera assembles the camera model, falling back to pose.DefaultCamera
// per field.
func (c *EvaluationConfig) GetCamera() pose.Camera {
	cam := pose.DefaultCamera
	if c.CameraResolutionX != nil {
		cam.ResolutionX = *c.CameraResolutionX
	}
	if c.CameraResolutionY != nil {
		cam.ResolutionY = *c.CameraResolutionY
	}
	if c.CameraFOVDegrees != nil {
		cam.FOVDegrees = *c.CameraFOVDegrees
	}
	return cam
}

// GetTranslationUnitScale returns the translation scale or the default.
func (c *EvaluationConfig) GetTranslationUnitScale() float64 {
	if c.TranslationUnitScale == nil {
		return units.TranslationUnitScale
	}
	return *c.TranslationUnitScale
}

// GetWorkers returns the evaluation worker count. Zero or unset means one
// worker per CPU.
func (c *EvaluationConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.NumCPU()
	}
	return *c.Workers
}

// GetFPSRangeSize returns the FPS histogram bucket width or the default.
func (c *EvaluationConfig) GetFPSRangeSize() float64 {
	if c.FPSRangeSize == nil {
		return 5
	}
	return *c.FPSRangeSize
}

// GetThresholds assembles the grading thresholds, falling back to
// pose.DefaultThresholds per field.
func (c *EvaluationConfig) GetThresholds() pose.Thresholds {
	th := pose.DefaultThresholds
	if c.QualityTranslationExcellent != nil {
		th.TranslationExcellent = *c.QualityTranslationExcellent
	}
	if c.QualityTranslationGood != nil {
		th.TranslationGood = *c.QualityTranslationGood
	}
	if c.QualityTranslationFair != nil {
		th.TranslationFair = *c.QualityTranslationFair
	}
	if c.QualityRotationExcellent != nil {
		th.RotationExcellent = *c.QualityRotationExcellent
	}
	if c.QualityRotationGood != nil {
		th.RotationGood = *c.QualityRotationGood
	}
	if c.QualityRotationFair != nil {
		th.RotationFair = *c.QualityRotationFair
	}
	return th
}
