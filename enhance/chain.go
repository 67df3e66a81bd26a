package enhance

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-upscale/dsp/core"
)

// ErrUnknownEnhancer is returned when a chain spec references an
// unregistered enhancer name.
var ErrUnknownEnhancer = errors.New("unknown enhancer type")

type factory func(intensity float64, p Params) (Enhancer, error)

var factories = map[string]factory{
	NameHarmonic:  newHarmonicFromParams,
	NameExciter:   newExciterFromParams,
	NameWidener:   newWidenerFromParams,
	NameTransient: newTransientFromParams,
}

// Names returns the registered enhancer names in sorted order.
func Names() []string {
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Chain is an ordered sequence of enhancers sharing one global intensity.
//
// All configuration is validated at construction; a constructed chain never
// fails mid-run. An empty chain is a valid no-op pass-through. The chain is
// stateless between frames except for enhancers with explicit per-channel
// state, which Reset clears.
type Chain struct {
	intensity float64
	enhancers []Enhancer
}

// NewChain builds a chain from ordered specs. intensity is the global
// strength multiplier applied by every enhancer (> 0, finite, 1 = nominal).
func NewChain(intensity float64, specs ...Spec) (*Chain, error) {
	if !core.IsFinitePositive(intensity) {
		return nil, fmt.Errorf("chain intensity must be positive and finite: %f", intensity)
	}

	enhancers := make([]Enhancer, 0, len(specs))

	for _, spec := range specs {
		f, ok := factories[spec.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (valid: %v)", ErrUnknownEnhancer, spec.Name, Names())
		}

		e, err := f(intensity, spec.Params)
		if err != nil {
			return nil, err
		}

		enhancers = append(enhancers, e)
	}

	return &Chain{intensity: intensity, enhancers: enhancers}, nil
}

// Intensity returns the global intensity multiplier.
func (c *Chain) Intensity() float64 { return c.intensity }

// Len returns the number of enhancers in the chain.
func (c *Chain) Len() int { return len(c.enhancers) }

// EnhancerNames returns the chain's enhancer names in processing order.
func (c *Chain) EnhancerNames() []string {
	out := make([]string, len(c.enhancers))
	for i, e := range c.enhancers {
		out[i] = e.Name()
	}
	return out
}

// Reset clears all per-channel enhancer state. Call at the start of a run.
func (c *Chain) Reset() {
	for _, e := range c.enhancers {
		e.Reset()
	}
}

// Process runs the chain over a single channel's spectrum in order,
// mutating bins in place.
func (c *Chain) Process(bins []complex128, sampleRate float64, role ChannelRole) {
	for _, e := range c.enhancers {
		e.Process(bins, sampleRate, role)
	}
}

// ProcessStereo runs the chain over a stereo frame's spectrum pair in
// order. Joint enhancers receive both channels at once; all others process
// the channels independently with their respective roles.
func (c *Chain) ProcessStereo(left, right []complex128, sampleRate float64) {
	for _, e := range c.enhancers {
		if se, ok := e.(StereoEnhancer); ok {
			se.ProcessStereo(left, right, sampleRate)
			continue
		}

		e.Process(left, sampleRate, RoleLeft)
		e.Process(right, sampleRate, RoleRight)
	}
}
