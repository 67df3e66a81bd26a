package enhance

import (
	"fmt"

	"github.com/cwbudde/algo-upscale/dsp/core"
	"github.com/cwbudde/algo-upscale/dsp/spectrum"
)

// NameTransient is the registry name of the transient enhancer.
const NameTransient = "transient"

const (
	defaultTransientSensitivity = 0.5
	defaultTransientAttackBoost = 2.0
	defaultTransientSmoothing   = 0.3

	minTransientAttackBoost = 1.0
	maxTransientAttackBoost = 8.0

	// Gate threshold scaling: a frame is a transient when its power
	// exceeds the moving average by more than sensitivity * this factor.
	transientGateFactor = 5.0
)

// TransientOption mutates transient enhancer construction parameters.
type TransientOption func(*transientConfig) error

type transientConfig struct {
	sensitivity float64
	attackBoost float64
	smoothing   float64
}

func defaultTransientConfig() transientConfig {
	return transientConfig{
		sensitivity: defaultTransientSensitivity,
		attackBoost: defaultTransientAttackBoost,
		smoothing:   defaultTransientSmoothing,
	}
}

// WithTransientSensitivity sets detection sensitivity in [0, 1].
// Higher values require a larger energy jump to trigger.
func WithTransientSensitivity(sensitivity float64) TransientOption {
	return func(cfg *transientConfig) error {
		if sensitivity < 0 || sensitivity > 1 || !core.IsFinite(sensitivity) {
			return fmt.Errorf("transient sensitivity must be in [0, 1]: %f", sensitivity)
		}

		cfg.sensitivity = sensitivity

		return nil
	}
}

// WithTransientAttackBoost sets the magnitude boost applied to detected
// transient frames. 1 leaves transients unchanged.
func WithTransientAttackBoost(boost float64) TransientOption {
	return func(cfg *transientConfig) error {
		if boost < minTransientAttackBoost || boost > maxTransientAttackBoost || !core.IsFinite(boost) {
			return fmt.Errorf("transient attack boost must be in [%g, %g]: %f",
				minTransientAttackBoost, maxTransientAttackBoost, boost)
		}

		cfg.attackBoost = boost

		return nil
	}
}

// WithTransientSmoothing sets the exponential moving-average coefficient
// for the energy envelope, in (0, 1].
func WithTransientSmoothing(smoothing float64) TransientOption {
	return func(cfg *transientConfig) error {
		if smoothing <= 0 || smoothing > 1 || !core.IsFinite(smoothing) {
			return fmt.Errorf("transient smoothing must be in (0, 1]: %f", smoothing)
		}

		cfg.smoothing = smoothing

		return nil
	}
}

type transientState struct {
	avg    float64
	primed bool
}

// TransientEnhancer boosts frames whose broadband energy jumps above a
// per-channel exponential moving average.
//
// This is the one enhancer with cross-frame memory: the moving-average
// envelope is kept per channel role, initialized from the first frame of a
// run (which is therefore never boosted), and never shared across channels
// or runs. When the gate opens, the whole spectrum's magnitude is scaled
// uniformly, preserving phase.
type TransientEnhancer struct {
	intensity   float64
	sensitivity float64
	attackBoost float64
	smoothing   float64

	state [roleCount]transientState
}

// NewTransientEnhancer creates a transient enhancer.
func NewTransientEnhancer(intensity float64, opts ...TransientOption) (*TransientEnhancer, error) {
	if !core.IsFinitePositive(intensity) {
		return nil, fmt.Errorf("transient enhancer intensity must be positive and finite: %f", intensity)
	}

	cfg := defaultTransientConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &TransientEnhancer{
		intensity:   intensity,
		sensitivity: cfg.sensitivity,
		attackBoost: cfg.attackBoost,
		smoothing:   cfg.smoothing,
	}, nil
}

func newTransientFromParams(intensity float64, p Params) (Enhancer, error) {
	if err := p.validateKeys(NameTransient, "sensitivity", "attack_boost", "smoothing"); err != nil {
		return nil, err
	}

	return NewTransientEnhancer(intensity,
		WithTransientSensitivity(p.Get("sensitivity", defaultTransientSensitivity)),
		WithTransientAttackBoost(p.Get("attack_boost", defaultTransientAttackBoost)),
		WithTransientSmoothing(p.Get("smoothing", defaultTransientSmoothing)),
	)
}

// Name returns the registry name.
func (e *TransientEnhancer) Name() string { return NameTransient }

// Sensitivity returns the detection sensitivity.
func (e *TransientEnhancer) Sensitivity() float64 { return e.sensitivity }

// AttackBoost returns the boost applied to transient frames.
func (e *TransientEnhancer) AttackBoost() float64 { return e.attackBoost }

// Smoothing returns the moving-average coefficient.
func (e *TransientEnhancer) Smoothing() float64 { return e.smoothing }

// Reset clears the per-channel energy envelopes.
func (e *TransientEnhancer) Reset() {
	for i := range e.state {
		e.state[i] = transientState{}
	}
}

// Process gates on broadband frame energy and boosts detected transients
// in place.
func (e *TransientEnhancer) Process(bins []complex128, sampleRate float64, role ChannelRole) {
	if role < 0 || int(role) >= len(e.state) {
		return
	}

	st := &e.state[role]
	energy := spectrum.TotalPower(bins)

	if !st.primed {
		st.avg = energy
		st.primed = true
		return
	}

	if energy > st.avg*(1+e.sensitivity*transientGateFactor) {
		gain := complex(1+(e.attackBoost-1)*e.sensitivity*e.intensity, 0)
		for k := range bins {
			bins[k] *= gain
		}
	}

	st.avg += e.smoothing * (energy - st.avg)
}
