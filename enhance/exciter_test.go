package enhance

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestNewExciterValidation(t *testing.T) {
	tests := []struct {
		name    string
		opt     ExciterOption
		wantErr bool
	}{
		{name: "defaults", opt: nil, wantErr: false},
		{name: "drive zero", opt: WithExciterDrive(0), wantErr: false},
		{name: "drive max", opt: WithExciterDrive(10), wantErr: false},
		{name: "drive negative", opt: WithExciterDrive(-1), wantErr: true},
		{name: "drive too large", opt: WithExciterDrive(11), wantErr: true},
		{name: "drive NaN", opt: WithExciterDrive(math.NaN()), wantErr: true},
		{name: "crossover min", opt: WithExciterCrossover(20), wantErr: false},
		{name: "crossover max", opt: WithExciterCrossover(20000), wantErr: false},
		{name: "crossover too low", opt: WithExciterCrossover(10), wantErr: true},
		{name: "crossover too high", opt: WithExciterCrossover(22050), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExciter(1.0, tt.opt)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExciter() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExciterLeavesLowBandUntouched(t *testing.T) {
	e, err := NewExciter(1.0, WithExciterCrossover(1000))
	if err != nil {
		t.Fatalf("NewExciter() error = %v", err)
	}

	bins := make([]complex128, 513)
	for i := range bins {
		bins[i] = complex(0.3, 0.1)
	}
	want := append([]complex128(nil), bins...)

	e.Process(bins, 44100, RoleMono)

	// 1000 Hz at frame size 1024 / 44.1 kHz lands at bin 23.
	crossBin := 23

	for k := 0; k < crossBin; k++ {
		if bins[k] != want[k] {
			t.Fatalf("low bin %d changed: got %v, want %v", k, bins[k], want[k])
		}
	}

	for k := crossBin; k < len(bins); k++ {
		if cmplx.Abs(bins[k]) <= cmplx.Abs(want[k]) {
			t.Fatalf("high bin %d not excited: got %v, had %v", k, bins[k], want[k])
		}
	}
}

func TestExciterPreservesPhase(t *testing.T) {
	e, err := NewExciter(1.0)
	if err != nil {
		t.Fatalf("NewExciter() error = %v", err)
	}

	bins := make([]complex128, 513)
	for i := range bins {
		bins[i] = cmplx.Rect(0.5, float64(i)*0.01)
	}
	want := append([]complex128(nil), bins...)

	e.Process(bins, 44100, RoleMono)

	for k := range bins {
		if cmplx.Abs(bins[k]) == 0 {
			continue
		}

		got := cmplx.Phase(bins[k])
		if math.Abs(got-cmplx.Phase(want[k])) > 1e-12 {
			t.Fatalf("bin %d phase = %f, want %f", k, got, cmplx.Phase(want[k]))
		}
	}
}

func TestExciterZeroDriveIsNoOp(t *testing.T) {
	e, err := NewExciter(1.0, WithExciterDrive(0))
	if err != nil {
		t.Fatalf("NewExciter() error = %v", err)
	}

	bins := make([]complex128, 513)
	for i := range bins {
		bins[i] = complex(float64(i)*0.001, 0.2)
	}
	want := append([]complex128(nil), bins...)

	e.Process(bins, 44100, RoleMono)

	for i := range bins {
		if bins[i] != want[i] {
			t.Fatalf("bin %d changed with zero drive", i)
		}
	}
}

func TestExciterSkipsSilentBins(t *testing.T) {
	e, err := NewExciter(1.0)
	if err != nil {
		t.Fatalf("NewExciter() error = %v", err)
	}

	bins := make([]complex128, 513)
	bins[100] = complex(0.5, 0)

	e.Process(bins, 44100, RoleMono)

	for i := range bins {
		if i == 100 {
			continue
		}

		if bins[i] != 0 {
			t.Fatalf("silent bin %d became %v", i, bins[i])
		}
	}

	if cmplx.Abs(bins[100]) <= 0.5 {
		t.Fatalf("bin 100 not excited: %v", bins[100])
	}
}

func TestExciterSaturationCompresses(t *testing.T) {
	e, err := NewExciter(1.0, WithExciterDrive(2.0))
	if err != nil {
		t.Fatalf("NewExciter() error = %v", err)
	}

	// tanh saturation adds proportionally less to louder bins.
	quiet := make([]complex128, 513)
	loud := make([]complex128, 513)
	quiet[200] = complex(0.1, 0)
	loud[200] = complex(2.0, 0)

	e.Process(quiet, 44100, RoleMono)
	e.Process(loud, 44100, RoleMono)

	quietGain := cmplx.Abs(quiet[200]) / 0.1
	loudGain := cmplx.Abs(loud[200]) / 2.0

	if quietGain <= loudGain {
		t.Fatalf("quiet gain %f not above loud gain %f", quietGain, loudGain)
	}
}
