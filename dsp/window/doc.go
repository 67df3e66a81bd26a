// Package window generates analysis/synthesis window functions for
// frame-based spectral processing.
//
// The periodic form (see [WithPeriodic]) is the one to use for STFT
// framing; the symmetric form suits filter design and display.
package window
