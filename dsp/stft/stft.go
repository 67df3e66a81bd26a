package stft

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-upscale/dsp/window"
)

const (
	// MinFrameSize is the smallest supported FFT frame size.
	MinFrameSize = 64

	normFloor = 1e-12
)

// Processor performs forward and inverse short-time Fourier transforms for a
// fixed frame size and analysis window.
//
// Forward windows a real-valued frame and returns the non-redundant half
// spectrum (bins 0..N/2). Inverse mirrors the half spectrum back to a full
// Hermitian spectrum and returns the real time-domain frame, discarding the
// negligible imaginary residue left by rounding.
//
// This processor is buffer-oriented and not thread-safe.
type Processor struct {
	frameSize  int
	hopSize    int
	windowType window.Type

	plan *algofft.Plan[complex128]

	windowCoeffs []float64
	freqFrame    []complex128
	timeFrame    []complex128
}

// New creates a transform processor.
//
// frameSize must be a power of two and at least [MinFrameSize]; hopSize must
// be in [1, frameSize).
func New(frameSize, hopSize int, windowType window.Type) (*Processor, error) {
	if frameSize < MinFrameSize || !isPowerOf2(frameSize) {
		return nil, fmt.Errorf("stft frame size must be power-of-two and >= %d: %d", MinFrameSize, frameSize)
	}
	if hopSize <= 0 || hopSize >= frameSize {
		return nil, fmt.Errorf("stft hop size must be in [1, %d): %d", frameSize, hopSize)
	}

	plan, err := algofft.NewPlan64(frameSize)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}

	coeffs := window.Generate(windowType, frameSize, window.WithPeriodic())
	if len(coeffs) != frameSize {
		return nil, fmt.Errorf("stft: window generation failed for size %d", frameSize)
	}

	return &Processor{
		frameSize:    frameSize,
		hopSize:      hopSize,
		windowType:   windowType,
		plan:         plan,
		windowCoeffs: coeffs,
		freqFrame:    make([]complex128, frameSize),
		timeFrame:    make([]complex128, frameSize),
	}, nil
}

// FrameSize returns the FFT frame size in samples.
func (p *Processor) FrameSize() int { return p.frameSize }

// HopSize returns the hop size in samples.
func (p *Processor) HopSize() int { return p.hopSize }

// Bins returns the half-spectrum length, frameSize/2 + 1.
func (p *Processor) Bins() int { return p.frameSize/2 + 1 }

// WindowType returns the analysis window type.
func (p *Processor) WindowType() window.Type { return p.windowType }

// WindowCoeffs returns a copy of the periodic analysis window coefficients.
func (p *Processor) WindowCoeffs() []float64 {
	out := make([]float64, len(p.windowCoeffs))
	copy(out, p.windowCoeffs)
	return out
}

// Forward windows frame and transforms it to the half spectrum.
//
// The returned slice is freshly allocated per call so downstream stages may
// mutate it freely. A frame whose length differs from the configured frame
// size is an internal contract violation and returns an error.
func (p *Processor) Forward(frame []float64) ([]complex128, error) {
	if len(frame) != p.frameSize {
		return nil, fmt.Errorf("stft: frame length %d does not match frame size %d", len(frame), p.frameSize)
	}

	for i, x := range frame {
		p.freqFrame[i] = complex(x*p.windowCoeffs[i], 0)
	}

	if err := p.plan.Forward(p.freqFrame, p.freqFrame); err != nil {
		return nil, fmt.Errorf("stft: forward FFT failed: %w", err)
	}

	bins := make([]complex128, p.Bins())
	copy(bins, p.freqFrame[:p.Bins()])

	return bins, nil
}

// Inverse transforms the half spectrum back to a real time-domain frame of
// the configured frame size, written into dst.
func (p *Processor) Inverse(bins []complex128, dst []float64) error {
	if len(bins) != p.Bins() {
		return fmt.Errorf("stft: spectrum length %d does not match %d bins", len(bins), p.Bins())
	}
	if len(dst) != p.frameSize {
		return fmt.Errorf("stft: destination length %d does not match frame size %d", len(dst), p.frameSize)
	}

	half := p.frameSize / 2

	// Rebuild the full Hermitian spectrum. DC and Nyquist are forced real.
	p.freqFrame[0] = complex(real(bins[0]), 0)
	p.freqFrame[half] = complex(real(bins[half]), 0)
	for k := 1; k < half; k++ {
		p.freqFrame[k] = bins[k]
		p.freqFrame[p.frameSize-k] = complex(real(bins[k]), -imag(bins[k]))
	}

	if err := p.plan.Inverse(p.timeFrame, p.freqFrame); err != nil {
		return fmt.Errorf("stft: inverse FFT failed: %w", err)
	}

	for i := range dst {
		dst[i] = real(p.timeFrame[i])
	}

	return nil
}

// NumFrames returns the number of analysis frames needed to cover n samples
// at the given hop size, with the last frame zero-padded as needed.
func NumFrames(n, hopSize int) int {
	if n <= 0 || hopSize <= 0 {
		return 0
	}
	return 1 + (n-1)/hopSize
}

func isPowerOf2(v int) bool {
	return v > 0 && (v&(v-1)) == 0
}
