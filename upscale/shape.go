package upscale

import (
	"math/cmplx"

	"github.com/cwbudde/algo-upscale/dsp/spectrum"
)

const (
	// Clarity boosts the mid band [bins/8, bins/3) by this factor.
	clarityGain = 1.2

	// The noise floor is estimated from the highest fifth of the spectrum;
	// the gate threshold is floor * (1 + strength * this factor).
	noiseFloorTailDivisor = 5
	noiseFloorGateFactor  = 3.0
)

// shaper applies the engine-level magnitude stages to one frame's spectrum
// ahead of the enhancer chain: noise-floor gating, dynamic-range scaling
// around the frame's mean magnitude, and a fixed mid-band clarity boost.
// Phase is always preserved.
type shaper struct {
	noiseReduction float64
	dynamicBoost   float64
	clarity        bool
}

func (s shaper) active() bool {
	return s.noiseReduction > 0 || s.dynamicBoost != 1 || s.clarity
}

func (s shaper) apply(bins []complex128) {
	if len(bins) == 0 {
		return
	}

	mags := spectrum.Magnitude(bins)
	phases := spectrum.Phase(bins)

	if s.noiseReduction > 0 {
		tail := mags[len(mags)-len(mags)/noiseFloorTailDivisor:]
		threshold := meanOf(tail) * (1 + s.noiseReduction*noiseFloorGateFactor)

		for k, m := range mags {
			if m <= threshold {
				mags[k] = 0
			}
		}
	}

	if s.dynamicBoost != 1 {
		mean := meanOf(mags)

		for k := range mags {
			m := mean + (mags[k]-mean)*s.dynamicBoost
			if m < 0 {
				m = 0
			}
			mags[k] = m
		}
	}

	if s.clarity {
		for k := len(mags) / 8; k < len(mags)/3; k++ {
			mags[k] *= clarityGain
		}
	}

	for k := range bins {
		bins[k] = cmplx.Rect(mags[k], phases[k])
	}
}

func meanOf(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}
