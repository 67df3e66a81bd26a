// Package upscale orchestrates the frequency-domain enhancement pipeline:
// framing with windowed analysis, an ordered enhancer chain per frame,
// weighted overlap-add resynthesis, dry/wet mixing and level normalization.
//
// The entry point is [New] followed by [Upscaler.Process] on a [Buffer] of
// deinterleaved float64 channels.
package upscale
