package upscale

import (
	"fmt"

	"github.com/cwbudde/algo-upscale/dsp/core"
	"github.com/cwbudde/algo-upscale/dsp/window"
	"github.com/cwbudde/algo-upscale/enhance"
)

const (
	// DefaultFrameSize is the default FFT frame size in samples.
	DefaultFrameSize = 2048

	// DefaultPeakTarget is the peak level output is normalized down to.
	DefaultPeakTarget = 0.95

	defaultIntensity    = 1.0
	defaultMix          = 1.0
	defaultDynamicBoost = 1.0

	maxDynamicBoost = 4.0
)

// Normalization selects how the processed output is level-adjusted.
type Normalization int

const (
	// NormalizationPeak scales the output down when its peak exceeds the
	// peak target. Output below the target is left alone.
	NormalizationPeak Normalization = iota

	// NormalizationRMS scales the output so its RMS matches the input's.
	NormalizationRMS

	// NormalizationOff leaves output levels untouched.
	NormalizationOff
)

// String returns the normalization mode name.
func (n Normalization) String() string {
	switch n {
	case NormalizationPeak:
		return "peak"
	case NormalizationRMS:
		return "rms"
	case NormalizationOff:
		return "off"
	default:
		return fmt.Sprintf("normalization(%d)", int(n))
	}
}

// Option mutates upscaler construction parameters.
type Option func(*config) error

type config struct {
	frameSize      int
	hopSize        int // 0 selects frameSize/2
	windowType     window.Type
	intensity      float64
	mix            float64
	normalization  Normalization
	peakTarget     float64
	noiseReduction float64
	dynamicBoost   float64
	clarity        bool
	specs          []enhance.Spec
	capture        bool
}

func defaultConfig() config {
	return config{
		frameSize:     DefaultFrameSize,
		windowType:    window.TypeHann,
		intensity:     defaultIntensity,
		mix:           defaultMix,
		normalization: NormalizationPeak,
		peakTarget:    DefaultPeakTarget,
		dynamicBoost:  defaultDynamicBoost,
	}
}

// WithFrameSize sets the FFT frame size. Must be a power of two and at
// least 64.
func WithFrameSize(frameSize int) Option {
	return func(cfg *config) error {
		if frameSize < 64 || frameSize&(frameSize-1) != 0 {
			return fmt.Errorf("frame size must be a power of two >= 64: %d", frameSize)
		}

		cfg.frameSize = frameSize

		return nil
	}
}

// WithHopSize sets the analysis hop in samples. Must be positive and smaller
// than the frame size. The default is half the frame size.
func WithHopSize(hopSize int) Option {
	return func(cfg *config) error {
		if hopSize <= 0 {
			return fmt.Errorf("hop size must be positive: %d", hopSize)
		}

		cfg.hopSize = hopSize

		return nil
	}
}

// WithWindow sets the analysis/synthesis window type.
func WithWindow(t window.Type) Option {
	return func(cfg *config) error {
		cfg.windowType = t
		return nil
	}
}

// WithIntensity sets the global enhancement intensity shared by all
// enhancers. Must be positive and finite; 1 is nominal.
func WithIntensity(intensity float64) Option {
	return func(cfg *config) error {
		if !core.IsFinitePositive(intensity) {
			return fmt.Errorf("intensity must be positive and finite: %f", intensity)
		}

		cfg.intensity = intensity

		return nil
	}
}

// WithMix sets the dry/wet mix in [0, 1]. 0 is fully dry, 1 fully processed.
func WithMix(mix float64) Option {
	return func(cfg *config) error {
		if mix < 0 || mix > 1 || !core.IsFinite(mix) {
			return fmt.Errorf("mix must be in [0, 1]: %f", mix)
		}

		cfg.mix = mix

		return nil
	}
}

// WithNormalization sets the output normalization mode.
func WithNormalization(mode Normalization) Option {
	return func(cfg *config) error {
		switch mode {
		case NormalizationPeak, NormalizationRMS, NormalizationOff:
			cfg.normalization = mode
			return nil
		default:
			return fmt.Errorf("unknown normalization mode: %d", int(mode))
		}
	}
}

// WithPeakTarget sets the peak normalization target in (0, 1].
func WithPeakTarget(target float64) Option {
	return func(cfg *config) error {
		if target <= 0 || target > 1 || !core.IsFinite(target) {
			return fmt.Errorf("peak target must be in (0, 1]: %f", target)
		}

		cfg.peakTarget = target

		return nil
	}
}

// WithNoiseReduction sets the noise-floor gate strength in [0, 1]. The gate
// zeroes bins below a threshold derived from the highest fifth of each
// frame's spectrum. 0 disables gating.
func WithNoiseReduction(strength float64) Option {
	return func(cfg *config) error {
		if strength < 0 || strength > 1 || !core.IsFinite(strength) {
			return fmt.Errorf("noise reduction must be in [0, 1]: %f", strength)
		}

		cfg.noiseReduction = strength

		return nil
	}
}

// WithDynamicBoost sets the dynamic-range scale applied around each frame's
// mean magnitude, in (0, 4]. 1 leaves dynamics unchanged, above 1 expands,
// below 1 compresses.
func WithDynamicBoost(boost float64) Option {
	return func(cfg *config) error {
		if boost <= 0 || boost > maxDynamicBoost || !core.IsFinite(boost) {
			return fmt.Errorf("dynamic boost must be in (0, %g]: %f", maxDynamicBoost, boost)
		}

		cfg.dynamicBoost = boost

		return nil
	}
}

// WithClarity toggles the fixed mid-band clarity boost.
func WithClarity(enabled bool) Option {
	return func(cfg *config) error {
		cfg.clarity = enabled
		return nil
	}
}

// WithEnhancers sets the ordered enhancer chain specs. An empty chain is a
// valid pass-through.
func WithEnhancers(specs ...enhance.Spec) Option {
	return func(cfg *config) error {
		cfg.specs = specs
		return nil
	}
}

// WithCapture enables per-frame magnitude capture for visualization. Capture
// never alters the audio output.
func WithCapture(enabled bool) Option {
	return func(cfg *config) error {
		cfg.capture = enabled
		return nil
	}
}
