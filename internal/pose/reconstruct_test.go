package pose

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullFrame() Corners {
	return Corners{{0, 0}, {1080, 0}, {0, 1920}, {1080, 1920}}
}

func TestReconstruct_FullFrame(t *testing.T) {
	p, err := Reconstruct(fullFrame(), Size{Width: 1, Height: 1})
	require.NoError(t, err)

	wantDepth := 0.5 / math.Tan(math.Pi/6)
	assert.InDelta(t, 0, p.Position[0], 1e-12)
	assert.InDelta(t, 0, p.Position[1], 1e-12)
	assert.InDelta(t, wantDepth, p.Position[2], 1e-12)
	assert.InDelta(t, 0.8660254, p.Position[2], 1e-6)

	// right=(2,0) up=(0,2) -> forward=(0,0,1)
	assert.InDelta(t, 0, p.Rotation.Yaw(), 1e-9)
	assert.InDelta(t, 90, p.Rotation.Pitch(), 1e-9)
	assert.InDelta(t, 0, p.Rotation.Roll(), 1e-9)
}

func TestReconstruct_ScaledOffCentre(t *testing.T) {
	// Quarter-width marker in the right half of the frame.
	corners := Corners{{540, 480}, {810, 480}, {540, 960}, {810, 960}}
	p, err := Reconstruct(corners, Size{Width: 2, Height: 4})
	require.NoError(t, err)

	// Normalised: x in [0, 0.5], y in [-0.5, 0]; width=0.5 height=0.5.
	// centroid=(0.25,-0.25); scale=(4, 8).
	assert.InDelta(t, 1.0, p.Position[0], 1e-12)
	assert.InDelta(t, -2.0, p.Position[1], 1e-12)
	assert.InDelta(t, 2/math.Tan(math.Pi/6), p.Position[2], 1e-12)
}

func TestReconstruct_Deterministic(t *testing.T) {
	corners := Corners{{101.5, 230.25}, {612.75, 244}, {95, 1100.5}, {640.125, 1092}}
	size := Size{Width: 0.21, Height: 0.297}

	first, err := Reconstruct(corners, size)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Reconstruct(corners, size)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("reconstruction not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestReconstruct_DoesNotMutateInput(t *testing.T) {
	corners := Corners{{10, 20}, {300, 25}, {15, 700}, {310, 690}}
	orig := append(Corners(nil), corners...)

	_, err := Reconstruct(corners, Size{Width: 1, Height: 1})
	require.NoError(t, err)
	if diff := cmp.Diff(orig, corners); diff != "" {
		t.Errorf("input corners modified (-want +got):\n%s", diff)
	}
}

func TestReconstruct_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		corners Corners
	}{
		{"nil", nil},
		{"empty", Corners{}},
		{"one", Corners{{0, 0}}},
		{"two", Corners{{0, 0}, {1, 0}}},
		{"three", Corners{{0, 0}, {1, 0}, {0, 1}}},
		{"five", Corners{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconstruct(tt.corners, Size{Width: 1, Height: 1})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "expected ErrInvalidInput, got %v", err)

			var invalid *InvalidInputError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, len(tt.corners), invalid.Count)
			assert.Equal(t, tt.corners == nil, invalid.Nil)
		})
	}
}

func TestReconstruct_DegenerateGeometry(t *testing.T) {
	tests := []struct {
		name    string
		corners Corners
	}{
		{"all corners coincide", Corners{{500, 500}, {500, 500}, {500, 500}, {500, 500}}},
		{"zero width", Corners{{100, 0}, {100, 0}, {100, 900}, {100, 900}}},
		{"zero height", Corners{{0, 300}, {900, 300}, {0, 300}, {900, 300}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconstruct(tt.corners, Size{Width: 1, Height: 1})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDegenerateGeometry))
			assert.False(t, errors.Is(err, ErrInvalidInput))

			var degenerate *DegenerateGeometryError
			require.True(t, errors.As(err, &degenerate))
			assert.True(t, degenerate.Width == 0 || degenerate.Height == 0)
		})
	}
}

func TestReconstruct_CollapsedUpEdgeIsNotFatal(t *testing.T) {
	// Left edge collapses (c0 == c2) but the right edge keeps the height
	// estimate non-zero, so up and forward normalise to zero vectors.
	corners := Corners{{0, 0}, {1080, 0}, {0, 0}, {1080, 1920}}
	p, err := Reconstruct(corners, Size{Width: 1, Height: 1})
	require.NoError(t, err)

	for _, v := range append(p.Position[:], p.Rotation[:]...) {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite component in %+v", p)
	}
	assert.InDelta(t, 0, p.Rotation.Pitch(), 1e-12)
	assert.InDelta(t, 0, p.Rotation.Roll(), 1e-12)
}

func TestCamera_Reconstruct_CustomCamera(t *testing.T) {
	cam := Camera{ResolutionX: 640, ResolutionY: 480, FOVDegrees: 90}
	require.NoError(t, cam.Validate())

	p, err := cam.Reconstruct(Corners{{0, 0}, {640, 0}, {0, 480}, {640, 480}}, Size{Width: 2, Height: 2})
	require.NoError(t, err)

	want := Pose{Position: Position{0, 0, 1}, Rotation: Rotation{0, 90, 0}}
	if diff := cmp.Diff(want, p, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("pose mismatch (-want +got):\n%s", diff)
	}
}

func TestCamera_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cam     Camera
		wantErr bool
	}{
		{"default", DefaultCamera, false},
		{"zero resolution", Camera{ResolutionX: 0, ResolutionY: 1920, FOVDegrees: 60}, true},
		{"negative fov", Camera{ResolutionX: 1080, ResolutionY: 1920, FOVDegrees: -1}, true},
		{"fov too wide", Camera{ResolutionX: 1080, ResolutionY: 1920, FOVDegrees: 180}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cam.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
