// Package preset persists named enhancement configurations as YAML files,
// one per preset, and bridges them to engine options.
package preset

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-upscale/dsp/core"
	"github.com/cwbudde/algo-upscale/enhance"
)

// EnhancerEntry names one enhancer in a preset's chain with its parameter
// overrides.
type EnhancerEntry struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Preset is a named, persistable enhancement configuration. A zero
// DynamicBoost means the engine default of 1 (no change).
type Preset struct {
	Name           string          `yaml:"name"`
	Intensity      float64         `yaml:"intensity"`
	Mix            float64         `yaml:"mix"`
	FrameSize      int             `yaml:"frame_size,omitempty"`
	NoiseReduction float64         `yaml:"noise_reduction,omitempty"`
	DynamicBoost   float64         `yaml:"dynamic_boost,omitempty"`
	Clarity        bool            `yaml:"clarity,omitempty"`
	Enhancers      []EnhancerEntry `yaml:"enhancers"`
}

// Validate checks the preset fields and that the enhancer chain it describes
// would construct. A zero frame size means the engine default.
func (p *Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("preset name must not be empty")
	}

	if strings.ContainsAny(p.Name, `/\`) {
		return fmt.Errorf("preset name must not contain path separators: %q", p.Name)
	}

	if !core.IsFinitePositive(p.Intensity) {
		return fmt.Errorf("preset %q: intensity must be positive and finite: %f", p.Name, p.Intensity)
	}

	if p.Mix < 0 || p.Mix > 1 || !core.IsFinite(p.Mix) {
		return fmt.Errorf("preset %q: mix must be in [0, 1]: %f", p.Name, p.Mix)
	}

	if p.FrameSize != 0 && (p.FrameSize < 64 || p.FrameSize&(p.FrameSize-1) != 0) {
		return fmt.Errorf("preset %q: frame size must be a power of two >= 64: %d", p.Name, p.FrameSize)
	}

	if p.NoiseReduction < 0 || p.NoiseReduction > 1 || !core.IsFinite(p.NoiseReduction) {
		return fmt.Errorf("preset %q: noise reduction must be in [0, 1]: %f", p.Name, p.NoiseReduction)
	}

	if p.DynamicBoost != 0 && (p.DynamicBoost < 0 || p.DynamicBoost > 4 || !core.IsFinite(p.DynamicBoost)) {
		return fmt.Errorf("preset %q: dynamic boost must be in (0, 4]: %f", p.Name, p.DynamicBoost)
	}

	if _, err := enhance.NewChain(p.Intensity, p.ChainSpecs()...); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}

	return nil
}

// ChainSpecs converts the preset's enhancer entries to chain specs.
func (p *Preset) ChainSpecs() []enhance.Spec {
	specs := make([]enhance.Spec, len(p.Enhancers))
	for i, e := range p.Enhancers {
		specs[i] = enhance.Spec{Name: e.Name, Params: enhance.Params(e.Params)}
	}
	return specs
}
