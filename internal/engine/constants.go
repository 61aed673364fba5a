package engine

// Core filterbank constants
const (
	// TotalHops is the number of hop-sized segments in each channel's ring
	// buffer, fixed by the prototype filter span (10 hops).
	TotalHops = 10

	// fftFactor relates the FFT size to the hop size (2*hop-point real FFT).
	fftFactor = 2

	// Processing delay in hops for each delay mode (analysis + synthesis).
	normalDelayHops      = 9
	lowDelayHops         = 4
	hybridExtraDelayHops = 3
)

// Hybrid filtering constants
const (
	// hybridHistoryLen is the number of spectral frames kept per channel,
	// the span of the 7-tap half-band filter.
	hybridHistoryLen = 7

	// hybridGroupDelayHops is the group delay of the linear-phase half-band
	// filter: the frame read for expansion is 3 hops behind the newest.
	hybridGroupDelayHops = 3

	// hybridSplitBins is the number of low bins (above DC) split in two.
	hybridSplitBins = 4

	// hybridExtraBins is the net band-count increase: 4 bins become 8.
	hybridExtraBins = 4

	// Half-band filter taps: center tap and the two symmetric outer pairs,
	// applied with a ±90° phase rotation (real/imaginary cross-coupling).
	hybridCenterTap = 0.5
	hybridCoeff1    = 0.031273141818515176
	hybridCoeff2    = 0.28127313041521537
)
