package molsurf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ParamsConfig is the on-disk form of Params. Every field is optional;
// omitted fields keep their value from the base Params.
type ParamsConfig struct {
	Scale              *float32  `json:"scale,omitempty"`
	SurfaceSmoothness  *float32  `json:"surface_smoothness,omitempty"`
	VolumeSize         *int      `json:"volume_size,omitempty"`
	NumSteps           *int      `json:"num_steps,omitempty"`
	StepMode           *StepMode `json:"step_mode,omitempty"`
	Opacity            *float32  `json:"opacity,omitempty"`
	IntensityThreshold *float32  `json:"intensity_threshold,omitempty"`
	SurfaceColor       *RGBA     `json:"surface_color,omitempty"` // hex string like "#e0c8a0ff"
	RayOffset          *float32  `json:"ray_offset,omitempty"`
	Filter             *string   `json:"filter,omitempty"` // "trilinear" or "bilinear"
	AtomNormals        *bool     `json:"atom_normals,omitempty"`
	Lighting           *bool     `json:"lighting,omitempty"`
}

const maxConfigSize = 1 * 1024 * 1024 // 1MB

// LoadParams reads a JSON parameter file and applies it over base.
// The file must have a .json extension and be under 1 MB. The result is
// sanitized.
func LoadParams(path string, base Params) (Params, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return base, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return base, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return base, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return base, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ParamsConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	p, err := cfg.Apply(base)
	if err != nil {
		return base, fmt.Errorf("invalid configuration: %w", err)
	}
	return p.Sanitize(), nil
}

// Apply overlays the set fields on base.
func (c *ParamsConfig) Apply(base Params) (Params, error) {
	p := base
	setIf(&p.Scale, c.Scale)
	setIf(&p.SurfaceSmoothness, c.SurfaceSmoothness)
	setIf(&p.VolumeSize, c.VolumeSize)
	setIf(&p.NumSteps, c.NumSteps)
	setIf(&p.StepMode, c.StepMode)
	setIf(&p.Opacity, c.Opacity)
	setIf(&p.IntensityThreshold, c.IntensityThreshold)
	setIf(&p.SurfaceColor, c.SurfaceColor)
	setIf(&p.RayOffset, c.RayOffset)
	setIf(&p.AtomNormals, c.AtomNormals)
	setIf(&p.Lighting, c.Lighting)
	if c.Filter != nil {
		switch *c.Filter {
		case FilterTrilinear.String():
			p.Filter = FilterTrilinear
		case FilterBilinear.String():
			p.Filter = FilterBilinear
		default:
			return base, fmt.Errorf("unknown filter %q", *c.Filter)
		}
	}
	return p, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
