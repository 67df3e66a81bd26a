// Package audiofile reads and writes WAV files at the engine's boundary,
// converting between interleaved PCM integers and per-channel float64
// samples in [-1, 1].
package audiofile

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-upscale/upscale"
)

// DefaultBitDepth is the PCM bit depth written when none is requested.
const DefaultBitDepth = 16

// ReadWAV decodes a WAV file into a float buffer, deinterleaving channels
// and scaling PCM samples to [-1, 1].
func ReadWAV(path string) (*upscale.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if pcm.Format == nil || pcm.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%s: missing format information", path)
	}

	numChannels := pcm.Format.NumChannels
	if numChannels > upscale.MaxChannels {
		return nil, fmt.Errorf("%s: %d channels, at most %d supported", path, numChannels, upscale.MaxChannels)
	}

	bitDepth := int(pcm.SourceBitDepth)
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}

	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	frames := len(pcm.Data) / numChannels

	channels := make([][]float64, numChannels)
	for c := range channels {
		channels[c] = make([]float64, frames)
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < numChannels; c++ {
			channels[c][i] = float64(pcm.Data[i*numChannels+c]) * scale
		}
	}

	return upscale.NewBuffer(channels, pcm.Format.SampleRate)
}

// WriteWAV encodes a float buffer as PCM WAV, interleaving channels and
// clipping samples to [-1, 1].
func WriteWAV(path string, buf *upscale.Buffer, bitDepth int) error {
	if err := buf.Validate(); err != nil {
		return err
	}

	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	numChannels := buf.NumChannels()
	frames := buf.Len()

	limit := float64(int64(1)<<(bitDepth-1)) - 1

	data := make([]int, frames*numChannels)
	for i := 0; i < frames; i++ {
		for c := 0; c < numChannels; c++ {
			v := buf.Channels[c][i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			data[i*numChannels+c] = int(math.Round(v * limit))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	encoder := wav.NewEncoder(f, buf.SampleRate, bitDepth, numChannels, 1)

	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := encoder.Write(pcm); err != nil {
		encoder.Close()
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := errors.Join(encoder.Close(), f.Close()); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}

	return nil
}
