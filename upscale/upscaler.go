package upscale

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-upscale/dsp/core"
	"github.com/cwbudde/algo-upscale/dsp/spectrum"
	"github.com/cwbudde/algo-upscale/dsp/stft"
	"github.com/cwbudde/algo-upscale/enhance"
)

// FrameCapture holds one channel's per-frame magnitude spectra taken before
// and after the enhancer chain.
type FrameCapture struct {
	Before [][]float64
	After  [][]float64
}

// Result carries the outcome of one processing run.
//
// Output is the processed audio, Dry an untouched copy of the input at the
// same length. Warnings report non-fatal conditions such as silent input or
// non-finite samples after reconstruction. FrameMagnitudes is populated per
// channel only when capture is enabled.
type Result struct {
	Output          *Buffer
	Dry             *Buffer
	Warnings        []string
	FrameMagnitudes []FrameCapture
}

// Upscaler runs the frame-based enhancement pipeline: windowed analysis,
// engine-level magnitude shaping, the enhancer chain on each frame's
// spectrum, weighted overlap-add resynthesis, dry/wet mixing and output
// normalization.
//
// An upscaler is configured once and can process any number of buffers
// sequentially; it is not safe for concurrent use.
type Upscaler struct {
	cfg   config
	proc  *stft.Processor
	chain *enhance.Chain
	shape shaper
}

// New creates an upscaler.
func New(opts ...Option) (*Upscaler, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.hopSize == 0 {
		cfg.hopSize = cfg.frameSize / 2
	}

	proc, err := stft.New(cfg.frameSize, cfg.hopSize, cfg.windowType)
	if err != nil {
		return nil, err
	}

	chain, err := enhance.NewChain(cfg.intensity, cfg.specs...)
	if err != nil {
		return nil, err
	}

	return &Upscaler{
		cfg:   cfg,
		proc:  proc,
		chain: chain,
		shape: shaper{
			noiseReduction: cfg.noiseReduction,
			dynamicBoost:   cfg.dynamicBoost,
			clarity:        cfg.clarity,
		},
	}, nil
}

// FrameSize returns the FFT frame size in samples.
func (u *Upscaler) FrameSize() int { return u.proc.FrameSize() }

// HopSize returns the analysis hop in samples.
func (u *Upscaler) HopSize() int { return u.proc.HopSize() }

// Intensity returns the global enhancement intensity.
func (u *Upscaler) Intensity() float64 { return u.cfg.intensity }

// Mix returns the dry/wet mix.
func (u *Upscaler) Mix() float64 { return u.cfg.mix }

// Normalization returns the output normalization mode.
func (u *Upscaler) Normalization() Normalization { return u.cfg.normalization }

// NoiseReduction returns the noise-floor gate strength.
func (u *Upscaler) NoiseReduction() float64 { return u.cfg.noiseReduction }

// DynamicBoost returns the dynamic-range scale.
func (u *Upscaler) DynamicBoost() float64 { return u.cfg.dynamicBoost }

// Clarity reports whether the mid-band clarity boost is enabled.
func (u *Upscaler) Clarity() bool { return u.cfg.clarity }

// EnhancerNames returns the configured chain's enhancer names in order.
func (u *Upscaler) EnhancerNames() []string { return u.chain.EnhancerNames() }

// Process runs the pipeline over in and returns the processed result.
//
// The input is never modified. Processing is all-or-nothing: on error no
// partial output is returned. Channels are padded by one frame of silence on
// each side before framing so edge samples see full window overlap; the
// padding is trimmed from the output.
func (u *Upscaler) Process(in *Buffer) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	u.chain.Reset()

	var (
		n          = in.Len()
		channels   = in.NumChannels()
		frameSize  = u.proc.FrameSize()
		hop        = u.proc.HopSize()
		sampleRate = float64(in.SampleRate)
	)

	res := &Result{Dry: in.Clone()}

	silent := true
	for _, ch := range in.Channels {
		if core.MaxAbs(ch) > 0 {
			silent = false
			break
		}
	}
	if silent {
		res.Warnings = append(res.Warnings, "input is silent")
	}

	padLen := n + 2*frameSize
	numFrames := (padLen-frameSize)/hop + 1

	padded := make([][]float64, channels)
	adders := make([]*stft.OverlapAdder, channels)
	coeffs := u.proc.WindowCoeffs()

	for c := 0; c < channels; c++ {
		padded[c] = make([]float64, padLen)
		copy(padded[c][frameSize:], in.Channels[c])
		adders[c] = stft.NewOverlapAdder(padLen, coeffs)
	}

	if u.cfg.capture {
		res.FrameMagnitudes = make([]FrameCapture, channels)
	}

	frame := make([]float64, frameSize)
	synth := make([]float64, frameSize)

	for f := 0; f < numFrames; f++ {
		pos := f * hop

		spectra := make([][]complex128, channels)
		for c := 0; c < channels; c++ {
			copy(frame, padded[c][pos:pos+frameSize])

			bins, err := u.proc.Forward(frame)
			if err != nil {
				return nil, err
			}

			spectra[c] = bins
		}

		if u.cfg.capture {
			for c := 0; c < channels; c++ {
				res.FrameMagnitudes[c].Before = append(res.FrameMagnitudes[c].Before, spectrum.Magnitude(spectra[c]))
			}
		}

		if u.shape.active() {
			for c := 0; c < channels; c++ {
				u.shape.apply(spectra[c])
			}
		}

		if channels == 2 {
			u.chain.ProcessStereo(spectra[0], spectra[1], sampleRate)
		} else {
			u.chain.Process(spectra[0], sampleRate, enhance.RoleMono)
		}

		if u.cfg.capture {
			for c := 0; c < channels; c++ {
				res.FrameMagnitudes[c].After = append(res.FrameMagnitudes[c].After, spectrum.Magnitude(spectra[c]))
			}
		}

		for c := 0; c < channels; c++ {
			if err := u.proc.Inverse(spectra[c], synth); err != nil {
				return nil, err
			}

			adders[c].Add(pos, synth)
		}
	}

	out := make([][]float64, channels)
	for c := 0; c < channels; c++ {
		full := adders[c].Flush()
		out[c] = append([]float64(nil), full[frameSize:frameSize+n]...)
	}

	u.mix(out, in.Channels)
	u.normalize(out, in.Channels)

	for c := 0; c < channels; c++ {
		if bad := countNonFinite(out[c]); bad > 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("channel %d: %d non-finite samples after reconstruction", c, bad))
		}
	}

	res.Output = &Buffer{Channels: out, SampleRate: in.SampleRate}

	return res, nil
}

// mix blends the processed channels with the dry input in place.
func (u *Upscaler) mix(wet, dry [][]float64) {
	if u.cfg.mix == 1 {
		return
	}

	scaled := make([]float64, 0)

	for c := range wet {
		scaled = core.EnsureLen(scaled, len(wet[c]))

		vecmath.ScaleBlock(scaled, dry[c], 1-u.cfg.mix)
		vecmath.ScaleBlockInPlace(wet[c], u.cfg.mix)
		vecmath.AddBlockInPlace(wet[c], scaled)
	}
}

// normalize applies the configured output level adjustment in place. A
// uniform scale across channels preserves the stereo balance.
func (u *Upscaler) normalize(out, in [][]float64) {
	switch u.cfg.normalization {
	case NormalizationPeak:
		peak := 0.0
		for _, ch := range out {
			if p := core.MaxAbs(ch); p > peak {
				peak = p
			}
		}

		if peak > u.cfg.peakTarget {
			scaleChannels(out, u.cfg.peakTarget/peak)
		}

	case NormalizationRMS:
		inRMS := combinedRMS(in)
		outRMS := combinedRMS(out)

		if inRMS > 0 && outRMS > 0 {
			scaleChannels(out, inRMS/outRMS)
		}

	case NormalizationOff:
	}
}

func scaleChannels(channels [][]float64, scale float64) {
	for _, ch := range channels {
		vecmath.ScaleBlockInPlace(ch, scale)
	}
}

func combinedRMS(channels [][]float64) float64 {
	sum := 0.0
	count := 0

	for _, ch := range channels {
		for _, v := range ch {
			sum += v * v
		}
		count += len(ch)
	}

	if count == 0 {
		return 0
	}

	return math.Sqrt(sum / float64(count))
}

func countNonFinite(data []float64) int {
	bad := 0
	for _, v := range data {
		if !core.IsFinite(v) {
			bad++
		}
	}
	return bad
}
