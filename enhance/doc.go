// Package enhance provides the spectral enhancer kernels and the ordered
// chain that applies them to per-frame half spectra.
//
// Enhancers:
//   - HarmonicEnhancer: synthesized overtones above detected fundamentals.
//   - Exciter: tanh-saturation harmonics above a crossover frequency.
//   - StereoWidener: per-bin mid/side width scaling across a channel pair.
//   - TransientEnhancer: energy-gated magnitude boost with per-channel memory.
//
// All parameters are validated when a chain is built; a constructed chain
// never fails while processing frames.
package enhance
