package spectrum

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-vecmath"
)

// Magnitude returns |X[k]| for each complex spectrum bin.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re := make([]float64, len(in))
	im := make([]float64, len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(out, re, im)

	return out
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re := make([]float64, len(in))
	im := make([]float64, len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Power(out, re, im)

	return out
}

// TotalPower returns the sum of |X[k]|^2 over all bins.
func TotalPower(in []complex128) float64 {
	sum := 0.0
	for _, c := range in {
		re := real(c)
		im := imag(c)
		sum += re*re + im*im
	}
	return sum
}

// Phase returns arg(X[k]) for each complex spectrum bin in radians.
func Phase(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	for i, c := range in {
		out[i] = cmplx.Phase(c)
	}
	return out
}

// FromPolar reassembles complex bins from magnitude and phase slices.
// Both slices must have equal length.
func FromPolar(magnitudes, phases []float64) []complex128 {
	n := len(magnitudes)
	if len(phases) < n {
		n = len(phases)
	}

	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		out[i] = cmplx.Rect(magnitudes[i], phases[i])
	}
	return out
}

// BinFrequency returns the center frequency in Hz of a spectrum bin for the
// given FFT frame size and sample rate.
func BinFrequency(bin, frameSize int, sampleRate float64) float64 {
	if frameSize <= 0 {
		return 0
	}
	return float64(bin) * sampleRate / float64(frameSize)
}

// FrequencyBin returns the spectrum bin whose center is closest to the given
// frequency in Hz, clamped to the valid bin range for a real input frame.
func FrequencyBin(freqHz float64, frameSize int, sampleRate float64) int {
	if frameSize <= 0 || sampleRate <= 0 {
		return 0
	}

	bin := int(math.Round(freqHz * float64(frameSize) / sampleRate))
	if bin < 0 {
		return 0
	}

	if half := frameSize / 2; bin > half {
		return half
	}

	return bin
}
