package molsurf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadParams_Partial(t *testing.T) {
	path := writeConfig(t, "surface.json", `{
		"volume_size": 64,
		"surface_color": "#ff8000",
		"step_mode": "fixed",
		"filter": "bilinear",
		"lighting": true
	}`)

	p, err := LoadParams(path, DefaultParams())
	require.NoError(t, err)

	want := DefaultParams()
	want.VolumeSize = 64
	want.SurfaceColor = RGBA{R: 1, G: 128.0 / 255, B: 0, A: 1}
	want.StepMode = StepFixed
	want.Filter = FilterBilinear
	want.Lighting = true
	assert.Equal(t, want, p)
}

func TestLoadParams_SanitizesValues(t *testing.T) {
	path := writeConfig(t, "wild.json", `{"num_steps": 100000, "opacity": -3}`)

	p, err := LoadParams(path, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, MaxNumSteps, p.NumSteps)
	assert.Equal(t, float32(0), p.Opacity)
}

func TestLoadParams_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"wrong extension", "params.yaml", `{}`},
		{"bad json", "bad.json", `{"scale": }`},
		{"bad color", "color.json", `{"surface_color": "#zz0000"}`},
		{"bad filter", "filter.json", `{"filter": "cubic"}`},
		{"bad step mode", "step.json", `{"step_mode": "adaptive"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			p, err := LoadParams(path, DefaultParams())
			require.Error(t, err)
			assert.Equal(t, DefaultParams(), p, "base must be returned on error")
		})
	}

	_, err := LoadParams(filepath.Join(t.TempDir(), "missing.json"), DefaultParams())
	require.Error(t, err)
}
