// Command upscale enhances WAV audio with frequency-domain processing.
//
// Usage:
//
//	upscale [flags] input.wav output.wav
//	upscale enhancers
//	upscale presets
//	upscale preset [-preset-dir dir] show <name>
//	upscale preset [-preset-dir dir] delete <name>
//
// Examples:
//
//	upscale -intensity 1.5 -enhancers harmonic,exciter in.wav out.wav
//	upscale -enhancers harmonic:boost=0.7:harmonics=5,widener in.wav out.wav
//	upscale -preset warm in.wav out.wav
//	upscale -preset warm -save-preset warmer -intensity 2 in.wav out.wav
//	upscale -visualize in.wav out.wav
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-upscale/dsp/window"
	"github.com/cwbudde/algo-upscale/enhance"
	"github.com/cwbudde/algo-upscale/internal/audiofile"
	"github.com/cwbudde/algo-upscale/internal/viz"
	"github.com/cwbudde/algo-upscale/preset"
	"github.com/cwbudde/algo-upscale/upscale"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "enhancers":
			runEnhancers()
			return
		case "presets":
			runPresetList(os.Args[2:])
			return
		case "preset":
			runPresetCmd(os.Args[2:])
			return
		}
	}

	runUpscale(os.Args[1:])
}

func runUpscale(args []string) {
	fs := flag.NewFlagSet("upscale", flag.ExitOnError)

	var (
		intensity  = fs.Float64("intensity", 1.0, "global enhancement intensity (> 0)")
		mix        = fs.Float64("mix", 1.0, "dry/wet mix in [0, 1]")
		frameSize  = fs.Int("frame-size", upscale.DefaultFrameSize, "FFT frame size (power of two >= 64)")
		hopSize    = fs.Int("hop-size", 0, "analysis hop in samples (default frame-size/2)")
		windowName = fs.String("window", "hann", "analysis window: hann, hamming, blackman, rectangular")
		enhancers  = fs.String("enhancers", "", "comma list of enhancers, e.g. harmonic:boost=0.7,exciter")
		presetName = fs.String("preset", "", "load settings from a stored preset")
		savePreset = fs.String("save-preset", "", "store the effective settings under this name")
		noiseRed   = fs.Float64("noise-reduction", 0, "noise-floor gate strength in [0, 1]")
		dynBoost   = fs.Float64("dynamic-boost", 1.0, "dynamic-range scale in (0, 4]")
		clarity    = fs.Bool("clarity", false, "boost mid-band frequencies for clarity")
		normalize  = fs.String("normalize", "peak", "output normalization: peak, rms, off")
		bitDepth   = fs.Int("bit-depth", 16, "output PCM bit depth: 16, 24 or 32")
		visualize  = fs.Bool("visualize", false, "write waveform and spectrum PNGs next to the output")
		presetDir  = fs.String("preset-dir", "", "preset directory (default per-user config dir)")
		verbose    = fs.Bool("verbose", false, "debug logging")
	)

	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: upscale [flags] input.wav output.wav")
		fs.PrintDefaults()
		os.Exit(2)
	}

	input, output := fs.Arg(0), fs.Arg(1)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	specs, err := parseEnhancers(*enhancers)
	if err != nil {
		logrus.WithError(err).Fatal("invalid -enhancers")
	}

	if *presetName != "" {
		p := loadPreset(*presetDir, *presetName)

		if !set["intensity"] {
			*intensity = p.Intensity
		}
		if !set["mix"] {
			*mix = p.Mix
		}
		if !set["frame-size"] && p.FrameSize != 0 {
			*frameSize = p.FrameSize
		}
		if !set["noise-reduction"] {
			*noiseRed = p.NoiseReduction
		}
		if !set["dynamic-boost"] && p.DynamicBoost != 0 {
			*dynBoost = p.DynamicBoost
		}
		if !set["clarity"] {
			*clarity = p.Clarity
		}
		if !set["enhancers"] {
			specs = p.ChainSpecs()
		}
	}

	windowType, err := parseWindow(*windowName)
	if err != nil {
		logrus.WithError(err).Fatal("invalid -window")
	}

	normalization, err := parseNormalization(*normalize)
	if err != nil {
		logrus.WithError(err).Fatal("invalid -normalize")
	}

	opts := []upscale.Option{
		upscale.WithFrameSize(*frameSize),
		upscale.WithWindow(windowType),
		upscale.WithIntensity(*intensity),
		upscale.WithMix(*mix),
		upscale.WithNormalization(normalization),
		upscale.WithNoiseReduction(*noiseRed),
		upscale.WithDynamicBoost(*dynBoost),
		upscale.WithClarity(*clarity),
		upscale.WithEnhancers(specs...),
		upscale.WithCapture(*visualize),
	}
	if *hopSize > 0 {
		opts = append(opts, upscale.WithHopSize(*hopSize))
	}

	u, err := upscale.New(opts...)
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	if *savePreset != "" {
		store := openStore(*presetDir)

		p := &preset.Preset{
			Name:           *savePreset,
			Intensity:      *intensity,
			Mix:            *mix,
			FrameSize:      *frameSize,
			NoiseReduction: *noiseRed,
			DynamicBoost:   *dynBoost,
			Clarity:        *clarity,
			Enhancers:      presetEntries(specs),
		}
		if err := store.Save(p); err != nil {
			logrus.WithError(err).Fatal("failed to save preset")
		}

		logrus.WithField("preset", *savePreset).Info("preset saved")
	}

	in, err := audiofile.ReadWAV(input)
	if err != nil {
		logrus.WithError(err).Fatal("failed to read input")
	}

	logrus.WithFields(logrus.Fields{
		"input":       input,
		"channels":    in.NumChannels(),
		"sample_rate": in.SampleRate,
		"duration_s":  fmt.Sprintf("%.2f", in.Duration()),
		"enhancers":   strings.Join(u.EnhancerNames(), ","),
	}).Info("processing")

	res, err := u.Process(in)
	if err != nil {
		logrus.WithError(err).Fatal("processing failed")
	}

	for _, w := range res.Warnings {
		logrus.Warn(w)
	}

	if err := audiofile.WriteWAV(output, res.Output, *bitDepth); err != nil {
		logrus.WithError(err).Fatal("failed to write output")
	}

	logrus.WithField("output", output).Info("done")

	if *visualize {
		wavePath := output + "-waveform.png"
		specPath := output + "-spectrum.png"

		if err := viz.WaveformPNG(wavePath, res.Dry, res.Output); err != nil {
			logrus.WithError(err).Fatal("failed to render waveform")
		}
		if err := viz.SpectrumPNG(specPath, res); err != nil {
			logrus.WithError(err).Fatal("failed to render spectrum")
		}

		logrus.WithFields(logrus.Fields{
			"waveform": wavePath,
			"spectrum": specPath,
		}).Info("visualizations written")
	}
}

func runEnhancers() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tPARAMETERS")
	fmt.Fprintln(w, "harmonic\tboost [0-10], harmonics [1-16], noise_floor (>0)")
	fmt.Fprintln(w, "exciter\tdrive [0-10], crossover [20-20000] Hz")
	fmt.Fprintln(w, "widener\twidth (0-4], stereo input only")
	fmt.Fprintln(w, "transient\tsensitivity [0-1], attack_boost [1-8], smoothing (0-1]")
	w.Flush()
}

func runPresetList(args []string) {
	fs := flag.NewFlagSet("presets", flag.ExitOnError)
	presetDir := fs.String("preset-dir", "", "preset directory")

	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	store := openStore(*presetDir)

	names, err := store.List()
	if err != nil {
		logrus.WithError(err).Fatal("failed to list presets")
	}

	if len(names) == 0 {
		fmt.Println("no presets stored")
		return
	}

	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
}

func runPresetCmd(args []string) {
	fs := flag.NewFlagSet("preset", flag.ExitOnError)
	presetDir := fs.String("preset-dir", "", "preset directory (default per-user config dir)")

	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: upscale preset [-preset-dir dir] show|delete <name>")
		os.Exit(2)
	}

	verb, name := fs.Arg(0), fs.Arg(1)
	store := openStore(*presetDir)

	switch verb {
	case "show":
		info, err := store.Info(name)
		if err != nil {
			logrus.WithError(err).Fatal("failed to load preset")
		}

		fmt.Printf("name:       %s\n", info.Name)
		fmt.Printf("intensity:  %g\n", info.Intensity)
		fmt.Printf("mix:        %g\n", info.Mix)
		if info.FrameSize != 0 {
			fmt.Printf("frame size: %d\n", info.FrameSize)
		}
		fmt.Printf("file:       %s (%s)\n", info.Path, info.ModTime.Format("2006-01-02 15:04"))
		for _, e := range info.Enhancers {
			fmt.Printf("  %s %v\n", e.Name, e.Params)
		}

	case "delete":
		if err := store.Delete(name); err != nil {
			logrus.WithError(err).Fatal("failed to delete preset")
		}
		logrus.WithField("preset", name).Info("preset deleted")

	default:
		fmt.Fprintf(os.Stderr, "unknown preset command: %s\n", verb)
		os.Exit(2)
	}
}

func openStore(dir string) *preset.Store {
	store, err := preset.NewStore(dir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open preset store")
	}
	return store
}

func loadPreset(dir, name string) *preset.Preset {
	p, err := openStore(dir).Load(name)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load preset")
	}
	return p
}

// parseEnhancers parses a comma-separated enhancer list where each entry is
// name or name:param=value:param=value.
func parseEnhancers(s string) ([]enhance.Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var specs []enhance.Spec

	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if parts[0] == "" {
			return nil, fmt.Errorf("empty enhancer name in %q", entry)
		}

		spec := enhance.Spec{Name: parts[0]}

		for _, kv := range parts[1:] {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("parameter %q must be key=value", kv)
			}

			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", kv, err)
			}

			if spec.Params == nil {
				spec.Params = enhance.Params{}
			}
			spec.Params[key] = v
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

func presetEntries(specs []enhance.Spec) []preset.EnhancerEntry {
	entries := make([]preset.EnhancerEntry, len(specs))
	for i, s := range specs {
		entries[i] = preset.EnhancerEntry{Name: s.Name, Params: s.Params}
	}
	return entries
}

func parseWindow(name string) (window.Type, error) {
	switch strings.ToLower(name) {
	case "hann":
		return window.TypeHann, nil
	case "hamming":
		return window.TypeHamming, nil
	case "blackman":
		return window.TypeBlackman, nil
	case "rectangular":
		return window.TypeRectangular, nil
	default:
		return 0, fmt.Errorf("unknown window type: %q", name)
	}
}

func parseNormalization(name string) (upscale.Normalization, error) {
	switch strings.ToLower(name) {
	case "peak":
		return upscale.NormalizationPeak, nil
	case "rms":
		return upscale.NormalizationRMS, nil
	case "off":
		return upscale.NormalizationOff, nil
	default:
		return 0, fmt.Errorf("unknown normalization mode: %q", name)
	}
}
