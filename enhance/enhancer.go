package enhance

// ChannelRole identifies which channel of a processing run a spectrum
// belongs to. Stateful enhancers key their cross-frame state on it.
type ChannelRole int

const (
	RoleMono ChannelRole = iota
	RoleLeft
	RoleRight

	roleCount
)

// String returns a human-readable role name.
func (r ChannelRole) String() string {
	switch r {
	case RoleMono:
		return "mono"
	case RoleLeft:
		return "left"
	case RoleRight:
		return "right"
	default:
		return "unknown"
	}
}

// Enhancer transforms one frame's half spectrum in place.
//
// The bins slice is owned by the caller and scoped to a single frame;
// enhancers must not retain it across calls. Enhancers are applied in
// chain order, so the same spectrum flows through each in sequence.
type Enhancer interface {
	// Name returns the registry name of the enhancer.
	Name() string

	// Process transforms bins in place for the given channel role.
	Process(bins []complex128, sampleRate float64, role ChannelRole)

	// Reset clears any cross-frame state. Called at the start of a run.
	Reset()
}

// StereoEnhancer is implemented by enhancers that operate jointly on both
// channels' spectra of the same frame. The chain invokes ProcessStereo
// instead of Process when a stereo frame pair is available.
type StereoEnhancer interface {
	Enhancer

	// ProcessStereo transforms the left and right spectra of one frame.
	ProcessStereo(left, right []complex128, sampleRate float64)
}

// frameSizeFromBins recovers the FFT frame size from a half-spectrum length.
func frameSizeFromBins(bins int) int {
	if bins < 2 {
		return 0
	}
	return (bins - 1) * 2
}
