package engine

// hybridFilter splits the four lowest non-DC bins of the core filterbank
// into eight half-width bins, doubling the low-frequency resolution at the
// cost of a fixed 3-hop group delay. DC passes through untouched and all
// bins from index 5 upward shift up by four slots, so a hopSize+1 frame
// becomes hopSize+5.
//
// The split is a 7-tap complex half-band decomposition evaluated over a
// circular history of spectral frames: the center tap (0.5) duplicates the
// delayed bin into an adjacent pair, and a 4-tap symmetric correction with
// real/imaginary cross-coupling (a ±90° rotation of the filter response)
// separates the pair into the true lower and upper halves.
//
// The inverse is a memoryless pair-sum, so recombination adds no latency.
type hybridFilter struct {
	hopSize int
	nBins   int // hopSize + 1, the pre-split band count

	// hist[ch][slot] holds the last hybridHistoryLen analysis frames of a
	// channel; slot loop.position() is the most recent.
	hist [][][]complex128
	loop modCounter
}

func newHybridFilter(hopSize, channels int) *hybridFilter {
	f := &hybridFilter{
		hopSize: hopSize,
		nBins:   hopSize + 1,
		loop:    newModCounter(hybridHistoryLen),
	}
	f.hist = make([][][]complex128, 0, channels)
	f.setChannels(channels)
	return f
}

func (f *hybridFilter) setChannels(channels int) {
	if channels <= len(f.hist) {
		f.hist = f.hist[:channels]
		return
	}
	for len(f.hist) < channels {
		frames := make([][]complex128, hybridHistoryLen)
		for i := range frames {
			frames[i] = make([]complex128, f.nBins)
		}
		f.hist = append(f.hist, frames)
	}
}

func (f *hybridFilter) clear() {
	for _, frames := range f.hist {
		for _, frame := range frames {
			for i := range frame {
				frame[i] = 0
			}
		}
	}
}

// advance steps the history ring by one hop. Called once per Forward hop,
// before the per-channel stores.
func (f *hybridFilter) advance() {
	f.loop.advance()
}

// forward stores the channel's newest spectrum and emits the expanded frame
// for the spectrum analyzed hybridGroupDelayHops hops ago. spec holds
// hopSize+1 bins, out receives hopSize+5.
func (f *hybridFilter) forward(ch int, spec, out []complex128) {
	copy(f.hist[ch][f.loop.position()], spec[:f.nBins])

	// The frame whose low bins are ready: centered in the 7-slot window.
	onTime := f.hist[ch][f.loop.offset(-hybridGroupDelayHops)]

	// Sample-index window of the half-band filter: slot k=0 is the oldest
	// frame in the 7-slot span, k=6 the newest. The correction uses the
	// symmetric outer taps at k = 0, 2, 4, 6.
	s0 := f.hist[ch][f.loop.offset(1)]
	s2 := f.hist[ch][f.loop.offset(3)]
	s4 := f.hist[ch][f.loop.offset(5)]
	s6 := f.hist[ch][f.loop.position()]

	out[0] = onTime[0]
	for b := 1; b <= hybridSplitBins; b++ {
		center := onTime[b] * complex(hybridCenterTap, 0)

		re := -hybridCoeff1*imag(s6[b]) - hybridCoeff2*imag(s4[b]) +
			hybridCoeff2*imag(s2[b]) + hybridCoeff1*imag(s0[b])
		im := hybridCoeff1*real(s6[b]) + hybridCoeff2*real(s4[b]) -
			hybridCoeff2*real(s2[b]) - hybridCoeff1*real(s0[b])
		corr := complex(re, im)

		// The rotation sign tracks the spectral-image parity of the source
		// bin: the correction lands on the lower half for odd bins and on
		// the upper half for even ones.
		if b%2 == 1 {
			out[2*b-1] = center + corr
			out[2*b] = center - corr
		} else {
			out[2*b-1] = center - corr
			out[2*b] = center + corr
		}
	}
	for b := hybridSplitBins + 1; b < f.nBins; b++ {
		out[b+hybridExtraBins] = onTime[b]
	}
}

// inverse collapses an expanded hopSize+5 frame back to hopSize+1 bins by
// summing each split pair. Memoryless: the half-band split is exactly
// complementary, so lower+upper restores the source bin.
func (f *hybridFilter) inverse(in, out []complex128) {
	out[0] = in[0]
	for b := 1; b <= hybridSplitBins; b++ {
		out[b] = in[2*b-1] + in[2*b]
	}
	for b := hybridSplitBins + 1; b < f.nBins; b++ {
		out[b] = in[b+hybridExtraBins]
	}
}
