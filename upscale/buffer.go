package upscale

import (
	"errors"
	"fmt"
)

// ErrShape is returned when an input buffer's layout is invalid.
var ErrShape = errors.New("invalid buffer shape")

// MaxChannels is the largest supported channel count (stereo).
const MaxChannels = 2

// Buffer holds deinterleaved audio: one sample slice per channel, all of
// equal length, with samples nominally in [-1, 1].
type Buffer struct {
	Channels   [][]float64
	SampleRate int
}

// NewBuffer wraps channel data in a validated buffer. The data is referenced,
// not copied.
func NewBuffer(channels [][]float64, sampleRate int) (*Buffer, error) {
	b := &Buffer{Channels: channels, SampleRate: sampleRate}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the channel layout and sample rate.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrShape)
	}

	if len(b.Channels) == 0 || len(b.Channels) > MaxChannels {
		return fmt.Errorf("%w: channel count must be in [1, %d]: %d", ErrShape, MaxChannels, len(b.Channels))
	}

	n := len(b.Channels[0])
	if n == 0 {
		return fmt.Errorf("%w: empty channels", ErrShape)
	}

	for i, ch := range b.Channels[1:] {
		if len(ch) != n {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrShape, i+1, len(ch), n)
		}
	}

	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive: %d", ErrShape, b.SampleRate)
	}

	return nil
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int { return len(b.Channels) }

// Len returns the per-channel sample count.
func (b *Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Len()) / float64(b.SampleRate)
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	channels := make([][]float64, len(b.Channels))
	for i, ch := range b.Channels {
		channels[i] = append([]float64(nil), ch...)
	}
	return &Buffer{Channels: channels, SampleRate: b.SampleRate}
}
