package enhance

import (
	"fmt"
	"math/cmplx"

	"github.com/cwbudde/algo-upscale/dsp/core"
	"github.com/cwbudde/algo-upscale/dsp/spectrum"
)

// NameHarmonic is the registry name of the harmonic enhancer.
const NameHarmonic = "harmonic"

const (
	defaultHarmonicBoost      = 0.5
	defaultHarmonicCount      = 7
	defaultHarmonicNoiseFloor = 2.0

	minHarmonicBoost = 0.0
	maxHarmonicBoost = 10.0
	minHarmonicCount = 1
	maxHarmonicCount = 16

	// Fundamentals are searched in the lowest fifth of the spectrum,
	// capped at 100 bins.
	harmonicSearchDivisor = 5
	harmonicSearchMaxBins = 100
)

// HarmonicOption mutates harmonic enhancer construction parameters.
type HarmonicOption func(*harmonicConfig) error

type harmonicConfig struct {
	boost      float64
	harmonics  int
	noiseFloor float64
}

func defaultHarmonicConfig() harmonicConfig {
	return harmonicConfig{
		boost:      defaultHarmonicBoost,
		harmonics:  defaultHarmonicCount,
		noiseFloor: defaultHarmonicNoiseFloor,
	}
}

// WithHarmonicBoost sets the injected harmonic level relative to the
// fundamental's magnitude. 0 disables injection.
func WithHarmonicBoost(boost float64) HarmonicOption {
	return func(cfg *harmonicConfig) error {
		if boost < minHarmonicBoost || boost > maxHarmonicBoost || !core.IsFinite(boost) {
			return fmt.Errorf("harmonic boost must be in [%g, %g]: %f",
				minHarmonicBoost, maxHarmonicBoost, boost)
		}

		cfg.boost = boost

		return nil
	}
}

// WithHarmonicCount sets the highest harmonic index to synthesize.
func WithHarmonicCount(count int) HarmonicOption {
	return func(cfg *harmonicConfig) error {
		if count < minHarmonicCount || count > maxHarmonicCount {
			return fmt.Errorf("harmonic count must be in [%d, %d]: %d",
				minHarmonicCount, maxHarmonicCount, count)
		}

		cfg.harmonics = count

		return nil
	}
}

// WithHarmonicNoiseFloor sets the peak detection threshold as a multiple of
// the mean spectrum magnitude. Peaks below it are not treated as
// fundamentals.
func WithHarmonicNoiseFloor(factor float64) HarmonicOption {
	return func(cfg *harmonicConfig) error {
		if !core.IsFinitePositive(factor) {
			return fmt.Errorf("harmonic noise floor factor must be positive and finite: %f", factor)
		}

		cfg.noiseFloor = factor

		return nil
	}
}

// HarmonicEnhancer adds synthesized overtones above detected fundamentals.
//
// Fundamental candidates are local magnitude peaks in the low spectrum that
// exceed the noise floor. For each, energy is injected at integer multiples
// of its bin with 1/harmonic falloff, weighted by boost and the global
// intensity. Injected phase follows the fundamental's phase times the
// harmonic index to stay phase coherent; harmonics past Nyquist are dropped.
type HarmonicEnhancer struct {
	intensity  float64
	boost      float64
	harmonics  int
	noiseFloor float64
}

// NewHarmonicEnhancer creates a harmonic enhancer.
func NewHarmonicEnhancer(intensity float64, opts ...HarmonicOption) (*HarmonicEnhancer, error) {
	if !core.IsFinitePositive(intensity) {
		return nil, fmt.Errorf("harmonic enhancer intensity must be positive and finite: %f", intensity)
	}

	cfg := defaultHarmonicConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &HarmonicEnhancer{
		intensity:  intensity,
		boost:      cfg.boost,
		harmonics:  cfg.harmonics,
		noiseFloor: cfg.noiseFloor,
	}, nil
}

func newHarmonicFromParams(intensity float64, p Params) (Enhancer, error) {
	if err := p.validateKeys(NameHarmonic, "boost", "harmonics", "noise_floor"); err != nil {
		return nil, err
	}

	count := p.Get("harmonics", defaultHarmonicCount)
	if !core.IsFinite(count) {
		return nil, fmt.Errorf("harmonic count must be finite: %f", count)
	}

	return NewHarmonicEnhancer(intensity,
		WithHarmonicBoost(p.Get("boost", defaultHarmonicBoost)),
		WithHarmonicCount(int(count)),
		WithHarmonicNoiseFloor(p.Get("noise_floor", defaultHarmonicNoiseFloor)),
	)
}

// Name returns the registry name.
func (e *HarmonicEnhancer) Name() string { return NameHarmonic }

// Boost returns the harmonic boost level.
func (e *HarmonicEnhancer) Boost() float64 { return e.boost }

// Harmonics returns the highest synthesized harmonic index.
func (e *HarmonicEnhancer) Harmonics() int { return e.harmonics }

// NoiseFloor returns the peak threshold as a multiple of the mean magnitude.
func (e *HarmonicEnhancer) NoiseFloor() float64 { return e.noiseFloor }

// Reset is a no-op; the enhancer carries no cross-frame state.
func (e *HarmonicEnhancer) Reset() {}

// Process injects harmonics into bins in place.
func (e *HarmonicEnhancer) Process(bins []complex128, sampleRate float64, role ChannelRole) {
	if e.boost == 0 || len(bins) < 4 {
		return
	}

	mags := spectrum.Magnitude(bins)

	mean := 0.0
	for _, m := range mags {
		mean += m
	}
	mean /= float64(len(mags))
	threshold := mean * e.noiseFloor

	searchEnd := len(mags) / harmonicSearchDivisor
	if searchEnd > harmonicSearchMaxBins {
		searchEnd = harmonicSearchMaxBins
	}

	weight := e.boost * e.intensity

	for k := 1; k < searchEnd && k < len(mags)-1; k++ {
		if mags[k] <= threshold {
			continue
		}

		if mags[k] < mags[k-1] || mags[k] <= mags[k+1] {
			continue
		}

		phase := cmplx.Phase(bins[k])

		for h := 2; h <= e.harmonics; h++ {
			idx := k * h
			if idx >= len(bins) {
				break
			}

			added := mags[k] * weight / float64(h)
			bins[idx] += cmplx.Rect(added, phase*float64(h))
		}
	}
}
