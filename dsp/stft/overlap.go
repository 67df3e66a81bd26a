package stft

// OverlapAdder accumulates windowed synthesis frames into a continuous
// output signal using weighted overlap-add.
//
// Each added frame is multiplied by the synthesis window and accumulated
// together with the squared window energy; Flush divides by the accumulated
// window energy so that any window/hop combination reconstructs at unity
// gain. Samples with negligible window coverage (zero padding at the edges)
// stay zero and contribute no energy.
type OverlapAdder struct {
	out    []float64
	norm   []float64
	coeffs []float64
}

// NewOverlapAdder creates an accumulator for length output samples using the
// given synthesis window coefficients.
func NewOverlapAdder(length int, coeffs []float64) *OverlapAdder {
	if length < 0 {
		length = 0
	}

	w := make([]float64, len(coeffs))
	copy(w, coeffs)

	return &OverlapAdder{
		out:    make([]float64, length),
		norm:   make([]float64, length),
		coeffs: w,
	}
}

// Add accumulates a synthesis frame starting at sample position pos.
// Samples falling outside the output range are discarded.
func (o *OverlapAdder) Add(pos int, frame []float64) {
	n := len(frame)
	if n > len(o.coeffs) {
		n = len(o.coeffs)
	}

	for i := 0; i < n; i++ {
		idx := pos + i
		if idx < 0 || idx >= len(o.out) {
			continue
		}

		w := o.coeffs[i]
		o.out[idx] += frame[i] * w
		o.norm[idx] += w * w
	}
}

// Flush normalizes the accumulated output by the per-sample window energy
// and returns it. The accumulator must not be reused afterwards.
func (o *OverlapAdder) Flush() []float64 {
	for i := range o.out {
		if o.norm[i] > normFloor {
			o.out[i] /= o.norm[i]
		}
	}
	return o.out
}
