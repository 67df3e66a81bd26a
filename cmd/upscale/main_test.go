package main

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-upscale/dsp/window"
	"github.com/cwbudde/algo-upscale/enhance"
	"github.com/cwbudde/algo-upscale/preset"
	"github.com/cwbudde/algo-upscale/upscale"
)

func TestParseEnhancers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []enhance.Spec
		wantErr bool
	}{
		{name: "empty", input: "", want: nil},
		{name: "bare names", input: "harmonic,exciter", want: []enhance.Spec{
			{Name: "harmonic"}, {Name: "exciter"},
		}},
		{name: "with params", input: "harmonic:boost=0.7:harmonics=5,widener:width=2", want: []enhance.Spec{
			{Name: "harmonic", Params: enhance.Params{"boost": 0.7, "harmonics": 5}},
			{Name: "widener", Params: enhance.Params{"width": 2}},
		}},
		{name: "missing value", input: "exciter:drive", wantErr: true},
		{name: "non-numeric value", input: "exciter:drive=loud", wantErr: true},
		{name: "empty name", input: ":drive=2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEnhancers(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEnhancers() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				return
			}

			if len(got) != len(tt.want) {
				t.Fatalf("parseEnhancers() = %v, want %v", got, tt.want)
			}

			for i := range tt.want {
				if got[i].Name != tt.want[i].Name {
					t.Fatalf("spec %d name = %q, want %q", i, got[i].Name, tt.want[i].Name)
				}
				for k, v := range tt.want[i].Params {
					if got[i].Params[k] != v {
						t.Fatalf("spec %d param %s = %f, want %f", i, k, got[i].Params[k], v)
					}
				}
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	if w, err := parseWindow("Hann"); err != nil || w != window.TypeHann {
		t.Fatalf("parseWindow(Hann) = %v, %v", w, err)
	}

	if _, err := parseWindow("kaiser"); err == nil {
		t.Fatal("parseWindow(kaiser) expected error")
	}
}

func TestParseNormalization(t *testing.T) {
	if n, err := parseNormalization("rms"); err != nil || n != upscale.NormalizationRMS {
		t.Fatalf("parseNormalization(rms) = %v, %v", n, err)
	}

	if _, err := parseNormalization("loudness"); err == nil {
		t.Fatal("parseNormalization(loudness) expected error")
	}
}

func TestPresetCmdHonorsPresetDir(t *testing.T) {
	dir := t.TempDir()

	store, err := preset.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	p := &preset.Preset{
		Name:      "custom",
		Intensity: 1.0,
		Mix:       1.0,
		Enhancers: []preset.EnhancerEntry{{Name: enhance.NameHarmonic}},
	}
	if err := store.Save(p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Both verbs must resolve the preset in the custom directory, not the
	// per-user default; a failed lookup would exit the process.
	runPresetCmd([]string{"-preset-dir", dir, "show", "custom"})
	runPresetCmd([]string{"-preset-dir", dir, "delete", "custom"})

	if _, err := store.Load("custom"); !errors.Is(err, preset.ErrNotFound) {
		t.Fatalf("Load() after delete = %v, want ErrNotFound", err)
	}
}
