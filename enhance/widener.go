package enhance

import (
	"fmt"

	"github.com/cwbudde/algo-upscale/dsp/core"
)

// NameWidener is the registry name of the stereo widener.
const NameWidener = "widener"

const (
	defaultWidenerWidth = 1.5

	maxWidenerWidth = 4.0
)

// WidenerOption mutates stereo widener construction parameters.
type WidenerOption func(*widenerConfig) error

type widenerConfig struct {
	width float64
}

// WithWidth sets the stereo width factor.
// 1 = unchanged, <1 narrows, >1 widens (up to 4). Must be > 0.
func WithWidth(width float64) WidenerOption {
	return func(cfg *widenerConfig) error {
		if width <= 0 || width > maxWidenerWidth || !core.IsFinite(width) {
			return fmt.Errorf("widener width must be in (0, %g]: %f", maxWidenerWidth, width)
		}

		cfg.width = width

		return nil
	}
}

// StereoWidener adjusts stereo image width with per-bin mid/side scaling.
//
// Each bin pair is encoded into mid (sum) and side (difference) components;
// the side component is scaled by width times the global intensity and the
// pair decoded back. Mid-channel content is preserved exactly. The widener
// requires a stereo frame pair; on mono material it is a no-op.
type StereoWidener struct {
	intensity float64
	width     float64
}

// NewStereoWidener creates a stereo widener.
func NewStereoWidener(intensity float64, opts ...WidenerOption) (*StereoWidener, error) {
	if !core.IsFinitePositive(intensity) {
		return nil, fmt.Errorf("widener intensity must be positive and finite: %f", intensity)
	}

	cfg := widenerConfig{width: defaultWidenerWidth}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &StereoWidener{intensity: intensity, width: cfg.width}, nil
}

func newWidenerFromParams(intensity float64, p Params) (Enhancer, error) {
	if err := p.validateKeys(NameWidener, "width"); err != nil {
		return nil, err
	}

	return NewStereoWidener(intensity, WithWidth(p.Get("width", defaultWidenerWidth)))
}

// Name returns the registry name.
func (w *StereoWidener) Name() string { return NameWidener }

// Width returns the stereo width factor.
func (w *StereoWidener) Width() float64 { return w.width }

// Reset is a no-op; the widener carries no cross-frame state.
func (w *StereoWidener) Reset() {}

// Process is a no-op: widening needs both channels of a frame and is only
// performed through ProcessStereo.
func (w *StereoWidener) Process(bins []complex128, sampleRate float64, role ChannelRole) {}

// ProcessStereo rebalances the stereo image of one frame's spectrum pair
// in place.
func (w *StereoWidener) ProcessStereo(left, right []complex128, sampleRate float64) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	sideScale := complex(w.width*w.intensity, 0)

	for k := 0; k < n; k++ {
		mid := (left[k] + right[k]) * 0.5
		side := (left[k] - right[k]) * 0.5 * sideScale

		left[k] = mid + side
		right[k] = mid - side
	}
}
