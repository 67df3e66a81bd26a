// Package spectrum provides FFT-adjacent spectrum-domain utilities.
//
// The package intentionally does not implement FFT itself. It operates on
// complex spectrum bins produced by the stft package and provides helpers
// for magnitude/phase extraction and bin-frequency mapping.
package spectrum
