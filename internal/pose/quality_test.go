package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeError_Levels(t *testing.T) {
	tests := []struct {
		name        string
		translation *float64
		rotation    *float64
		expected    ErrorQuality
	}{
		{"undetected", nil, nil, ErrorQualityUndetected},
		{"undetected with rotation", nil, ptr(1.0), ErrorQualityUndetected},
		{"excellent", ptr(0.01), ptr(1.0), ErrorQualityExcellent},
		{"at excellent threshold is good", ptr(0.05), ptr(1.0), ErrorQualityGood},
		{"rotation drags to fair", ptr(0.01), ptr(20.0), ErrorQualityFair},
		{"translation drags to poor", ptr(0.5), ptr(1.0), ErrorQualityPoor},
		{"translation only", ptr(0.2), nil, ErrorQualityFair},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GradeError(FrameError{TranslationError: tt.translation, RotationError: tt.rotation}, DefaultThresholds)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestErrorQuality_IsUsable(t *testing.T) {
	assert.True(t, ErrorQualityExcellent.IsUsable())
	assert.True(t, ErrorQualityGood.IsUsable())
	assert.True(t, ErrorQualityFair.IsUsable())
	assert.False(t, ErrorQualityPoor.IsUsable())
	assert.False(t, ErrorQualityUndetected.IsUsable())
}

func TestErrorQuality_String(t *testing.T) {
	assert.Equal(t, "good", ErrorQualityGood.String())
	assert.Equal(t, "unknown (bogus)", ErrorQuality("bogus").String())
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds.Validate())

	bad := DefaultThresholds
	bad.TranslationGood = bad.TranslationFair
	assert.Error(t, bad.Validate())

	bad = DefaultThresholds
	bad.RotationExcellent = 0
	assert.Error(t, bad.Validate())
}
