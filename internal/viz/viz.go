// Package viz renders simple diagnostic images for a processing run: a
// dry/wet waveform overlay and a before/after average-spectrum comparison.
package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/cwbudde/algo-upscale/dsp/core"
	"github.com/cwbudde/algo-upscale/upscale"
)

const (
	imgWidth  = 1000
	imgHeight = 400

	// Spectrum display floor in dB.
	dbFloor = -100.0
)

var (
	colorBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorAxis       = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	colorDry        = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorWet        = color.RGBA{R: 30, G: 90, B: 200, A: 255}
)

// WaveformPNG writes an overlay of the dry and processed first channels.
func WaveformPNG(path string, dry, wet *upscale.Buffer) error {
	if err := dry.Validate(); err != nil {
		return err
	}
	if err := wet.Validate(); err != nil {
		return err
	}

	img := newCanvas()

	drawWave(img, dry.Channels[0], colorDry)
	drawWave(img, wet.Channels[0], colorWet)

	return writePNG(path, img)
}

// SpectrumPNG writes a before/after comparison of the average magnitude
// spectrum of the first captured channel. The result must have been produced
// with capture enabled.
func SpectrumPNG(path string, res *upscale.Result) error {
	if res == nil || len(res.FrameMagnitudes) == 0 {
		return fmt.Errorf("no captured frame magnitudes in result")
	}

	capture := res.FrameMagnitudes[0]
	if len(capture.Before) == 0 || len(capture.After) == 0 {
		return fmt.Errorf("empty frame capture")
	}

	before := averageSpectrum(capture.Before)
	after := averageSpectrum(capture.After)

	img := newCanvas()

	drawSpectrum(img, before, colorDry)
	drawSpectrum(img, after, colorWet)

	return writePNG(path, img)
}

func newCanvas() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, imgWidth, imgHeight))

	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth; x++ {
			img.Set(x, y, colorBackground)
		}
	}

	for x := 0; x < imgWidth; x++ {
		img.Set(x, imgHeight/2, colorAxis)
	}

	return img
}

// drawWave plots one sample column per pixel as a min/max envelope.
func drawWave(img *image.RGBA, samples []float64, c color.RGBA) {
	if len(samples) == 0 {
		return
	}

	peak := core.MaxAbs(samples)
	if peak == 0 {
		peak = 1
	}

	perPixel := float64(len(samples)) / imgWidth

	for x := 0; x < imgWidth; x++ {
		lo := int(float64(x) * perPixel)
		hi := int(float64(x+1) * perPixel)
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(samples) {
			hi = len(samples)
		}

		minV, maxV := samples[lo], samples[lo]
		for _, v := range samples[lo:hi] {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}

		yTop := sampleToY(maxV / peak)
		yBot := sampleToY(minV / peak)

		for y := yTop; y <= yBot; y++ {
			img.Set(x, y, c)
		}
	}
}

func sampleToY(v float64) int {
	y := int((1 - core.Clamp(v, -1, 1)) * 0.5 * (imgHeight - 1))
	if y < 0 {
		y = 0
	}
	if y >= imgHeight {
		y = imgHeight - 1
	}
	return y
}

func averageSpectrum(frames [][]float64) []float64 {
	bins := len(frames[0])

	avg := make([]float64, bins)
	for _, frame := range frames {
		for k := 0; k < bins && k < len(frame); k++ {
			avg[k] += frame[k]
		}
	}

	for k := range avg {
		avg[k] /= float64(len(frames))
	}

	return avg
}

// drawSpectrum plots an average magnitude spectrum on a dB scale.
func drawSpectrum(img *image.RGBA, mags []float64, c color.RGBA) {
	if len(mags) == 0 {
		return
	}

	ref := 0.0
	for _, m := range mags {
		if m > ref {
			ref = m
		}
	}
	if ref == 0 {
		ref = 1
	}

	prevY := imgHeight - 1

	for x := 0; x < imgWidth; x++ {
		k := x * len(mags) / imgWidth

		db := dbFloor
		if mags[k] > 0 {
			db = math.Max(core.LinearToDB(mags[k]/ref), dbFloor)
		}

		y := int((db / dbFloor) * (imgHeight - 1))
		if y < 0 {
			y = 0
		}
		if y >= imgHeight {
			y = imgHeight - 1
		}

		lo, hi := y, prevY
		if lo > hi {
			lo, hi = hi, lo
		}
		for yy := lo; yy <= hi; yy++ {
			img.Set(x, yy, c)
		}

		prevY = y
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}

	return nil
}
