package upscale

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-upscale/enhance"
	"github.com/cwbudde/algo-upscale/internal/testutil"
)

const testSampleRate = 44100

func monoBuffer(t *testing.T, samples []float64) *Buffer {
	t.Helper()

	b, err := NewBuffer([][]float64{samples}, testSampleRate)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	return b
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults", wantErr: false},
		{name: "explicit everything", opts: []Option{
			WithFrameSize(1024), WithHopSize(256), WithIntensity(1.5),
			WithMix(0.7), WithNormalization(NormalizationRMS),
			WithEnhancers(enhance.Spec{Name: enhance.NameHarmonic}),
		}, wantErr: false},
		{name: "frame size not power of two", opts: []Option{WithFrameSize(1000)}, wantErr: true},
		{name: "frame size too small", opts: []Option{WithFrameSize(32)}, wantErr: true},
		{name: "hop not below frame size", opts: []Option{WithFrameSize(512), WithHopSize(512)}, wantErr: true},
		{name: "negative hop", opts: []Option{WithHopSize(-1)}, wantErr: true},
		{name: "negative intensity", opts: []Option{WithIntensity(-1)}, wantErr: true},
		{name: "mix above one", opts: []Option{WithMix(1.5)}, wantErr: true},
		{name: "mix NaN", opts: []Option{WithMix(math.NaN())}, wantErr: true},
		{name: "bad peak target", opts: []Option{WithPeakTarget(0)}, wantErr: true},
		{name: "negative noise reduction", opts: []Option{WithNoiseReduction(-0.1)}, wantErr: true},
		{name: "noise reduction above one", opts: []Option{WithNoiseReduction(1.1)}, wantErr: true},
		{name: "NaN noise reduction", opts: []Option{WithNoiseReduction(math.NaN())}, wantErr: true},
		{name: "zero dynamic boost", opts: []Option{WithDynamicBoost(0)}, wantErr: true},
		{name: "dynamic boost too large", opts: []Option{WithDynamicBoost(4.5)}, wantErr: true},
		{name: "NaN dynamic boost", opts: []Option{WithDynamicBoost(math.NaN())}, wantErr: true},
		{name: "bad normalization mode", opts: []Option{WithNormalization(Normalization(42))}, wantErr: true},
		{name: "unknown enhancer", opts: []Option{
			WithEnhancers(enhance.Spec{Name: "reverb"}),
		}, wantErr: true},
		{name: "bad enhancer parameter", opts: []Option{
			WithEnhancers(enhance.Spec{Name: enhance.NameWidener, Params: enhance.Params{"width": 0}}),
		}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewUnknownEnhancerSentinel(t *testing.T) {
	_, err := New(WithEnhancers(enhance.Spec{Name: "flanger"}))
	if !errors.Is(err, enhance.ErrUnknownEnhancer) {
		t.Fatalf("New() error = %v, want ErrUnknownEnhancer", err)
	}
}

func TestProcessRejectsBadBuffers(t *testing.T) {
	u, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, in := range []*Buffer{
		nil,
		{Channels: nil, SampleRate: testSampleRate},
		{Channels: [][]float64{make([]float64, 10), make([]float64, 9)}, SampleRate: testSampleRate},
		{Channels: [][]float64{make([]float64, 10)}, SampleRate: 0},
	} {
		if _, err := u.Process(in); !errors.Is(err, ErrShape) {
			t.Fatalf("Process(%+v) error = %v, want ErrShape", in, err)
		}
	}
}

func TestProcessEmptyChainIsTransparent(t *testing.T) {
	for _, tc := range []struct {
		frameSize int
		hopSize   int
	}{
		{frameSize: 512, hopSize: 256},
		{frameSize: 1024, hopSize: 256},
		{frameSize: 2048, hopSize: 1024},
	} {
		u, err := New(
			WithFrameSize(tc.frameSize),
			WithHopSize(tc.hopSize),
			WithNormalization(NormalizationOff),
		)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		in := monoBuffer(t, testutil.DeterministicNoise(7, 0.5, 4000))

		res, err := u.Process(in)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}

		if res.Output.Len() != in.Len() {
			t.Fatalf("output length = %d, want %d", res.Output.Len(), in.Len())
		}

		testutil.RequireSliceNearlyEqual(t, res.Output.Channels[0], in.Channels[0], 1e-9)
	}
}

func TestProcessDoesNotModifyInput(t *testing.T) {
	u, err := New(
		WithFrameSize(512),
		WithEnhancers(enhance.Spec{Name: enhance.NameExciter}),
		WithNormalization(NormalizationOff),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	samples := testutil.DeterministicNoise(3, 0.5, 3000)
	want := append([]float64(nil), samples...)
	in := monoBuffer(t, samples)

	if _, err := u.Process(in); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, in.Channels[0], want, 0)
}

func TestProcessDryResultMatchesInput(t *testing.T) {
	u, err := New(WithFrameSize(512), WithEnhancers(enhance.Spec{Name: enhance.NameHarmonic}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := monoBuffer(t, testutil.DeterministicSine(440, testSampleRate, 0.5, 4000))

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Dry.Channels[0], in.Channels[0], 0)
}

func TestProcessFullyDryMixBypasses(t *testing.T) {
	u, err := New(
		WithFrameSize(512),
		WithEnhancers(enhance.Spec{Name: enhance.NameExciter}),
		WithMix(0),
		WithNormalization(NormalizationOff),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := monoBuffer(t, testutil.DeterministicNoise(11, 0.4, 3000))

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Output.Channels[0], in.Channels[0], 0)
}

// toneEnergy measures the correlation magnitude of signal against a complex
// exponential at freqHz.
func toneEnergy(signal []float64, freqHz, sampleRate float64) float64 {
	step := 2 * math.Pi * freqHz / sampleRate

	sumRe, sumIm := 0.0, 0.0
	for i, x := range signal {
		sumRe += x * math.Cos(step*float64(i))
		sumIm -= x * math.Sin(step*float64(i))
	}

	return math.Hypot(sumRe, sumIm) / float64(len(signal))
}

func TestProcessHarmonicEndToEnd(t *testing.T) {
	const frameSize = 2048

	// A fundamental centered on bin 20 keeps the injected overtones
	// bin-centered too, so they survive overlap-add coherently.
	f0 := 20.0 * testSampleRate / frameSize

	u, err := New(
		WithFrameSize(frameSize),
		WithEnhancers(enhance.Spec{
			Name:   enhance.NameHarmonic,
			Params: enhance.Params{"boost": 0.5, "harmonics": 3},
		}),
		WithNormalization(NormalizationOff),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := monoBuffer(t, testutil.DeterministicSine(f0, testSampleRate, 0.5, 4*frameSize))

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireFinite(t, res.Output.Channels[0])

	for _, harmonic := range []float64{2, 3} {
		freq := harmonic * f0
		before := toneEnergy(in.Channels[0], freq, testSampleRate)
		after := toneEnergy(res.Output.Channels[0], freq, testSampleRate)

		if after < before*10 || after < 1e-6 {
			t.Errorf("harmonic %gx: energy %g, input had %g", harmonic, after, before)
		}
	}

	// The fundamental is left in place.
	fund := toneEnergy(res.Output.Channels[0], f0, testSampleRate)
	if fund < 0.2 {
		t.Errorf("fundamental energy = %g, want ~0.25", fund)
	}
}

// bandPeakEnergy scans [loHz, hiHz] in 1 Hz steps and returns the strongest
// tone correlation found, so energy near a target frequency is measured
// without assuming it lands on an exact bin.
func bandPeakEnergy(signal []float64, loHz, hiHz, sampleRate float64) float64 {
	peak := 0.0
	for f := loHz; f <= hiHz; f++ {
		if e := toneEnergy(signal, f, sampleRate); e > peak {
			peak = e
		}
	}
	return peak
}

func TestProcessHarmonic440HzScenario(t *testing.T) {
	// One second of a 440 Hz sine. The fundamental falls between analysis
	// bins, so the generated overtones spread around 880 and 1320 Hz
	// rather than landing exactly on them.
	u, err := New(
		WithFrameSize(2048),
		WithEnhancers(enhance.Spec{
			Name:   enhance.NameHarmonic,
			Params: enhance.Params{"boost": 0.5, "harmonics": 3},
		}),
		WithNormalization(NormalizationOff),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := monoBuffer(t, testutil.DeterministicSine(440, testSampleRate, 0.5, testSampleRate))

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireFinite(t, res.Output.Channels[0])

	for _, band := range []struct {
		harmonic float64
		lo, hi   float64
	}{
		{harmonic: 2, lo: 820, hi: 940},
		{harmonic: 3, lo: 1230, hi: 1400},
	} {
		before := bandPeakEnergy(in.Channels[0], band.lo, band.hi, testSampleRate)
		after := bandPeakEnergy(res.Output.Channels[0], band.lo, band.hi, testSampleRate)

		if after < before*5 || after < 1e-3 {
			t.Errorf("harmonic %gx band [%g, %g]: energy %g, input had %g",
				band.harmonic, band.lo, band.hi, after, before)
		}
	}

	fund := toneEnergy(res.Output.Channels[0], 440, testSampleRate)
	if fund < 0.2 {
		t.Errorf("fundamental energy = %g, want ~0.25", fund)
	}
}

// capturedFrames runs an upscaler with capture enabled over samples and
// returns the mono channel's before/after magnitude spectra.
func capturedFrames(t *testing.T, samples []float64, opts ...Option) FrameCapture {
	t.Helper()

	u, err := New(append(opts, WithCapture(true), WithNormalization(NormalizationOff))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := u.Process(monoBuffer(t, samples))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(res.FrameMagnitudes) != 1 {
		t.Fatalf("FrameMagnitudes channels = %d, want 1", len(res.FrameMagnitudes))
	}
	return res.FrameMagnitudes[0]
}

func TestProcessNoiseReductionGatesQuietBins(t *testing.T) {
	const frameSize = 512

	// A strong bin-centered sine over a faint noise bed. Full-strength
	// gating should silence the noise bins and keep the tone.
	f0 := 10.0 * testSampleRate / frameSize
	tone := testutil.DeterministicSine(f0, testSampleRate, 0.5, 4000)
	noise := testutil.DeterministicNoise(23, 0.005, 4000)
	samples := make([]float64, len(tone))
	for i := range samples {
		samples[i] = tone[i] + noise[i]
	}

	cap0 := capturedFrames(t, samples, WithFrameSize(frameSize), WithNoiseReduction(1.0))

	mid := len(cap0.Before) / 2
	before, after := cap0.Before[mid], cap0.After[mid]

	beforeZeros, afterZeros := 0, 0
	for k := range before {
		if before[k] == 0 {
			beforeZeros++
		}
		if after[k] == 0 {
			afterZeros++
		}
	}

	if beforeZeros > len(before)/10 {
		t.Fatalf("raw frame has %d zero bins of %d, noise bed missing", beforeZeros, len(before))
	}

	if afterZeros < len(after)/2 {
		t.Errorf("gated frame has %d zero bins of %d, want most bins silenced", afterZeros, len(after))
	}

	peak := testutil.PeakBin(before, 0)
	if after[peak] == 0 {
		t.Errorf("gating removed the tone at bin %d", peak)
	}
}

func TestProcessDynamicBoostExpandsAroundMean(t *testing.T) {
	const boost = 2.0

	cap0 := capturedFrames(t, testutil.DeterministicNoise(29, 0.5, 3000),
		WithFrameSize(512), WithDynamicBoost(boost))

	mid := len(cap0.Before) / 2
	before, after := cap0.Before[mid], cap0.After[mid]

	mean := 0.0
	for _, m := range before {
		mean += m
	}
	mean /= float64(len(before))

	want := make([]float64, len(before))
	for k := range before {
		m := mean + (before[k]-mean)*boost
		if m < 0 {
			m = 0
		}
		want[k] = m
	}

	testutil.RequireSliceNearlyEqual(t, after, want, 1e-9)
}

func TestProcessClarityBoostsMidBand(t *testing.T) {
	cap0 := capturedFrames(t, testutil.DeterministicNoise(31, 0.5, 3000),
		WithFrameSize(512), WithClarity(true))

	mid := len(cap0.Before) / 2
	before, after := cap0.Before[mid], cap0.After[mid]

	lo, hi := len(before)/8, len(before)/3
	want := make([]float64, len(before))
	for k := range before {
		if k >= lo && k < hi {
			want[k] = before[k] * 1.2
		} else {
			want[k] = before[k]
		}
	}

	testutil.RequireSliceNearlyEqual(t, after, want, 1e-9)
}

func TestProcessCaptureDoesNotChangeAudio(t *testing.T) {
	build := func(capture bool) *Upscaler {
		u, err := New(
			WithFrameSize(1024),
			WithEnhancers(enhance.Spec{Name: enhance.NameHarmonic}),
			WithCapture(capture),
		)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		return u
	}

	in := monoBuffer(t, testutil.DeterministicSine(440, testSampleRate, 0.5, 5000))

	plain, err := build(false).Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	captured, err := build(true).Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if plain.FrameMagnitudes != nil {
		t.Fatal("capture disabled but FrameMagnitudes populated")
	}

	if len(captured.FrameMagnitudes) != 1 {
		t.Fatalf("FrameMagnitudes channels = %d, want 1", len(captured.FrameMagnitudes))
	}

	cap0 := captured.FrameMagnitudes[0]
	if len(cap0.Before) == 0 || len(cap0.Before) != len(cap0.After) {
		t.Fatalf("capture frames: before %d, after %d", len(cap0.Before), len(cap0.After))
	}

	testutil.RequireSliceNearlyEqual(t, captured.Output.Channels[0], plain.Output.Channels[0], 0)
}

func TestProcessStereoWidenerPreservesMid(t *testing.T) {
	u, err := New(
		WithFrameSize(512),
		WithEnhancers(enhance.Spec{Name: enhance.NameWidener, Params: enhance.Params{"width": 2.0}}),
		WithNormalization(NormalizationOff),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	left := testutil.DeterministicSine(440, testSampleRate, 0.4, 4000)
	right := testutil.DeterministicSine(660, testSampleRate, 0.3, 4000)

	in, err := NewBuffer([][]float64{left, right}, testSampleRate)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	wantMid := make([]float64, len(left))
	gotMid := make([]float64, len(left))
	for i := range left {
		wantMid[i] = (left[i] + right[i]) / 2
		gotMid[i] = (res.Output.Channels[0][i] + res.Output.Channels[1][i]) / 2
	}

	testutil.RequireSliceNearlyEqual(t, gotMid, wantMid, 1e-9)

	// The side signal is doubled.
	sideIn, sideOut := 0.0, 0.0
	for i := range left {
		sideIn += math.Abs(left[i]-right[i]) / 2
		sideOut += math.Abs(res.Output.Channels[0][i]-res.Output.Channels[1][i]) / 2
	}

	if ratio := sideOut / sideIn; math.Abs(ratio-2) > 0.01 {
		t.Fatalf("side ratio = %f, want 2", ratio)
	}
}

func TestProcessMonoSkipsWidener(t *testing.T) {
	u, err := New(
		WithFrameSize(512),
		WithEnhancers(enhance.Spec{Name: enhance.NameWidener, Params: enhance.Params{"width": 4.0}}),
		WithNormalization(NormalizationOff),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := monoBuffer(t, testutil.DeterministicNoise(5, 0.5, 3000))

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Output.Channels[0], in.Channels[0], 1e-9)
}

func TestProcessPeakNormalization(t *testing.T) {
	u, err := New(WithFrameSize(512), WithNormalization(NormalizationPeak))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Input peaking at 2.0 is brought down to the 0.95 target.
	in := monoBuffer(t, testutil.DeterministicSine(440, testSampleRate, 2.0, 4000))

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	peak := 0.0
	for _, v := range res.Output.Channels[0] {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if math.Abs(peak-DefaultPeakTarget) > 1e-6 {
		t.Fatalf("output peak = %f, want %f", peak, DefaultPeakTarget)
	}
}

func TestProcessPeakNormalizationLeavesQuietAudio(t *testing.T) {
	u, err := New(WithFrameSize(512), WithNormalization(NormalizationPeak))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := monoBuffer(t, testutil.DeterministicSine(440, testSampleRate, 0.25, 4000))

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Output.Channels[0], in.Channels[0], 1e-9)
}

func TestProcessRMSNormalizationMatchesInputLevel(t *testing.T) {
	u, err := New(
		WithFrameSize(512),
		WithEnhancers(enhance.Spec{Name: enhance.NameExciter, Params: enhance.Params{"drive": 5.0}}),
		WithNormalization(NormalizationRMS),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := monoBuffer(t, testutil.DeterministicNoise(13, 0.3, 4000))

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	inRMS := combinedRMS(in.Channels)
	outRMS := combinedRMS(res.Output.Channels)

	if math.Abs(outRMS-inRMS) > 1e-9 {
		t.Fatalf("output RMS = %f, input RMS = %f", outRMS, inRMS)
	}
}

func TestProcessSilentInputWarns(t *testing.T) {
	u, err := New(WithFrameSize(512))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := u.Process(monoBuffer(t, make([]float64, 3000)))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "silent") {
			found = true
		}
	}

	if !found {
		t.Fatalf("Warnings = %v, want silent-input warning", res.Warnings)
	}

	for _, v := range res.Output.Channels[0] {
		if v != 0 {
			t.Fatal("silent input produced non-silent output")
		}
	}
}

func TestProcessShortInput(t *testing.T) {
	// Input shorter than one frame still round-trips at full length.
	u, err := New(WithFrameSize(1024), WithNormalization(NormalizationOff))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := monoBuffer(t, testutil.DeterministicNoise(17, 0.5, 300))

	res, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if res.Output.Len() != 300 {
		t.Fatalf("output length = %d, want 300", res.Output.Len())
	}

	testutil.RequireSliceNearlyEqual(t, res.Output.Channels[0], in.Channels[0], 1e-9)
}

func TestProcessIntermediateMix(t *testing.T) {
	mkUpscaler := func(mix float64) *Upscaler {
		u, err := New(
			WithFrameSize(512),
			WithEnhancers(enhance.Spec{Name: enhance.NameExciter, Params: enhance.Params{"drive": 5.0}}),
			WithMix(mix),
			WithNormalization(NormalizationOff),
		)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		return u
	}

	in := monoBuffer(t, testutil.DeterministicNoise(19, 0.3, 3000))

	dry, err := mkUpscaler(0).Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	wet, err := mkUpscaler(1).Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	half, err := mkUpscaler(0.5).Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := make([]float64, in.Len())
	for i := range want {
		want[i] = 0.5*dry.Output.Channels[0][i] + 0.5*wet.Output.Channels[0][i]
	}

	testutil.RequireSliceNearlyEqual(t, half.Output.Channels[0], want, 1e-9)
}
