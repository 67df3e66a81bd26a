package enhance

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-upscale/dsp/core"
	"github.com/cwbudde/algo-upscale/dsp/spectrum"
)

// NameExciter is the registry name of the exciter.
const NameExciter = "exciter"

const (
	defaultExciterDrive     = 1.5
	defaultExciterCrossover = 1000.0

	minExciterDrive     = 0.0
	maxExciterDrive     = 10.0
	minExciterCrossover = 20.0
	maxExciterCrossover = 20000.0
)

// ExciterOption mutates exciter construction parameters.
type ExciterOption func(*exciterConfig) error

type exciterConfig struct {
	drive     float64
	crossover float64
}

func defaultExciterConfig() exciterConfig {
	return exciterConfig{
		drive:     defaultExciterDrive,
		crossover: defaultExciterCrossover,
	}
}

// WithExciterDrive sets the saturation drive. 0 disables the effect.
func WithExciterDrive(drive float64) ExciterOption {
	return func(cfg *exciterConfig) error {
		if drive < minExciterDrive || drive > maxExciterDrive || !core.IsFinite(drive) {
			return fmt.Errorf("exciter drive must be in [%g, %g]: %f",
				minExciterDrive, maxExciterDrive, drive)
		}

		cfg.drive = drive

		return nil
	}
}

// WithExciterCrossover sets the crossover frequency in Hz above which
// excitement is generated.
func WithExciterCrossover(freqHz float64) ExciterOption {
	return func(cfg *exciterConfig) error {
		if freqHz < minExciterCrossover || freqHz > maxExciterCrossover || !core.IsFinite(freqHz) {
			return fmt.Errorf("exciter crossover must be in [%g, %g] Hz: %f",
				minExciterCrossover, maxExciterCrossover, freqHz)
		}

		cfg.crossover = freqHz

		return nil
	}
}

// Exciter adds soft-saturation harmonics to the high band.
//
// For each bin above the crossover frequency it generates a tanh-saturated
// copy of the bin magnitude, scales it by drive and the global intensity,
// and mixes it back additively. Phase is preserved and bins below the
// crossover are never altered, modeling hardware harmonic exciters.
type Exciter struct {
	intensity float64
	drive     float64
	crossover float64
}

// NewExciter creates an exciter.
func NewExciter(intensity float64, opts ...ExciterOption) (*Exciter, error) {
	if !core.IsFinitePositive(intensity) {
		return nil, fmt.Errorf("exciter intensity must be positive and finite: %f", intensity)
	}

	cfg := defaultExciterConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Exciter{
		intensity: intensity,
		drive:     cfg.drive,
		crossover: cfg.crossover,
	}, nil
}

func newExciterFromParams(intensity float64, p Params) (Enhancer, error) {
	if err := p.validateKeys(NameExciter, "drive", "crossover"); err != nil {
		return nil, err
	}

	return NewExciter(intensity,
		WithExciterDrive(p.Get("drive", defaultExciterDrive)),
		WithExciterCrossover(p.Get("crossover", defaultExciterCrossover)),
	)
}

// Name returns the registry name.
func (e *Exciter) Name() string { return NameExciter }

// Drive returns the saturation drive.
func (e *Exciter) Drive() float64 { return e.drive }

// Crossover returns the crossover frequency in Hz.
func (e *Exciter) Crossover() float64 { return e.crossover }

// Reset is a no-op; the exciter carries no cross-frame state.
func (e *Exciter) Reset() {}

// Process adds saturation harmonics to the high band of bins in place.
func (e *Exciter) Process(bins []complex128, sampleRate float64, role ChannelRole) {
	if e.drive == 0 || len(bins) < 2 {
		return
	}

	frameSize := frameSizeFromBins(len(bins))

	crossBin := spectrum.FrequencyBin(e.crossover, frameSize, sampleRate)
	if crossBin < 1 {
		crossBin = 1
	}

	for k := crossBin; k < len(bins); k++ {
		mag := cmplx.Abs(bins[k])
		if mag == 0 {
			continue
		}

		excited := math.Tanh(mag*e.drive) / e.drive
		scale := (mag + excited*e.drive*e.intensity) / mag
		bins[k] *= complex(scale, 0)
	}
}
