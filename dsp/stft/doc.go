// Package stft provides the short-time Fourier transform framework used by
// the upscaler engine: windowed forward/inverse transforms over fixed-size
// frames and weighted overlap-add reconstruction.
package stft
