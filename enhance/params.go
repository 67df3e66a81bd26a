package enhance

import (
	"fmt"
	"sort"
)

// Params holds the numeric parameters for one enhancer instance.
type Params map[string]float64

// Get extracts a numeric parameter, returning def only when the key is
// absent. Present values pass through untouched, non-finite ones included,
// so the option validators reject them instead of silently falling back.
func (p Params) Get(key string, def float64) float64 {
	if p == nil {
		return def
	}

	v, ok := p[key]
	if !ok {
		return def
	}

	return v
}

// validateKeys rejects parameter names the enhancer does not understand.
// Configuration typos fail fast instead of being silently ignored.
func (p Params) validateKeys(enhancer string, allowed ...string) error {
	for key := range p {
		found := false
		for _, a := range allowed {
			if key == a {
				found = true
				break
			}
		}

		if !found {
			sort.Strings(allowed)
			return fmt.Errorf("%s enhancer: unknown parameter %q (valid: %v)", enhancer, key, allowed)
		}
	}

	return nil
}

// Spec names one enhancer and its parameters in a chain configuration.
type Spec struct {
	Name   string
	Params Params
}
