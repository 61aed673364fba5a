// Package engine implements the alias-free STFT filterbank core: a
// near-perfect-reconstruction analysis/synthesis transform built from a
// 10-hop prototype low-pass filter, a polyphase fold into a 2*hop-point real
// FFT, and overlap-add synthesis through per-channel circular ring buffers.
//
// The engine processes exactly one hop per Forward/Backward call and is not
// safe for concurrent use; SetChannels and Clear must not be called while a
// processing call is in flight.
package engine

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-afstft/internal/filter"
	"github.com/tphakala/go-afstft/internal/simdops"
)

// supportedHopSizes are the hop sizes the prototype filter decimation
// supports; hybrid mode further restricts this set.
var supportedHopSizes = []int{32, 64, 128, 256, 512, 1024}

// hybridHopSizes are the hop sizes allowed when hybrid filtering is enabled.
var hybridHopSizes = []int{64, 128, 256}

// SupportedHopSizes returns a copy of the supported hop sizes in ascending
// order.
func SupportedHopSizes() []int {
	out := make([]int, len(supportedHopSizes))
	copy(out, supportedHopSizes)
	return out
}

// HopSizeSupported reports whether the engine can be created with the given
// hop size and hybrid setting.
func HopSizeSupported(hopSize int, hybridMode bool) bool {
	set := supportedHopSizes
	if hybridMode {
		set = hybridHopSizes
	}
	for _, h := range set {
		if h == hopSize {
			return true
		}
	}
	return false
}

// Engine is the streaming filterbank core. One instance owns the ring
// buffers for all input and output channels, the prototype filter pair, one
// FFT plan shared across channels, and (optionally) the hybrid filtering
// state.
type Engine struct {
	hopSize     int
	hLen        int // TotalHops * hopSize
	inChannels  int
	outChannels int
	lowDelay    bool
	hybridMode  bool

	proto *filter.Prototype
	fft   *fourier.FFT

	// Per-channel ring buffers of hLen samples, partitioned into TotalHops
	// hop-sized segments. inBuf holds the analysis history, outBuf the
	// synthesis overlap-add accumulator.
	inBuf  [][]float64
	outBuf [][]float64

	hopIn  modCounter
	hopOut modCounter

	hybrid *hybridFilter

	// Scratch reused every hop.
	fold      []float64    // 2*hopSize fold/IFFT buffer
	bins      []complex128 // hopSize+1 spectral scratch
	ifftScale float64
}

// New creates a filterbank engine. hopSize must be one of the supported
// sizes (64, 128 or 256 when hybridMode is set); channel counts must be
// positive. All buffers start zeroed.
func New(hopSize, inChannels, outChannels int, lowDelay, hybridMode bool) (*Engine, error) {
	if !HopSizeSupported(hopSize, hybridMode) {
		return nil, fmt.Errorf("engine: unsupported hop size %d (hybrid=%v)", hopSize, hybridMode)
	}
	if inChannels < 1 || outChannels < 1 {
		return nil, fmt.Errorf("engine: channel counts must be positive, got %d in / %d out", inChannels, outChannels)
	}

	proto, err := filter.NewPrototype(hopSize, lowDelay)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		hopSize:     hopSize,
		hLen:        TotalHops * hopSize,
		inChannels:  inChannels,
		outChannels: outChannels,
		lowDelay:    lowDelay,
		hybridMode:  hybridMode,
		proto:       proto,
		fft:         fourier.NewFFT(fftFactor * hopSize),
		hopIn:       newModCounter(TotalHops),
		hopOut:      newModCounter(TotalHops),
		fold:        make([]float64, fftFactor*hopSize),
		bins:        make([]complex128, hopSize+1),
		ifftScale:   1.0 / float64(fftFactor*hopSize),
	}

	e.inBuf = makeRings(inChannels, e.hLen)
	e.outBuf = makeRings(outChannels, e.hLen)

	if hybridMode {
		e.hybrid = newHybridFilter(hopSize, inChannels)
	}
	return e, nil
}

func makeRings(channels, hLen int) [][]float64 {
	rings := make([][]float64, channels)
	for ch := range rings {
		rings[ch] = make([]float64, hLen)
	}
	return rings
}

// HopSize returns the configured hop size.
func (e *Engine) HopSize() int { return e.hopSize }

// InChannels returns the current number of analysis channels.
func (e *Engine) InChannels() int { return e.inChannels }

// OutChannels returns the current number of synthesis channels.
func (e *Engine) OutChannels() int { return e.outChannels }

// NumBands returns the number of frequency bands per channel: hopSize+1, or
// hopSize+5 in hybrid mode.
func (e *Engine) NumBands() int {
	if e.hybridMode {
		return e.hopSize + 1 + hybridExtraBins
	}
	return e.hopSize + 1
}

// FilterLength returns the length of the decimated prototype filter in
// samples (TotalHops * hopSize).
func (e *Engine) FilterLength() int { return e.proto.Len }

// Delay returns the total analysis+synthesis processing delay in samples:
// 9 hops in normal mode, 4 in low-delay mode, plus 3 when hybrid filtering
// is enabled.
func (e *Engine) Delay() int {
	hops := normalDelayHops
	if e.lowDelay {
		hops = lowDelayHops
	}
	if e.hybridMode {
		hops += hybridExtraDelayHops
	}
	return hops * e.hopSize
}

// Forward consumes one hop of time-domain audio per input channel and
// produces one spectral frame per channel. in[ch] must hold at least hopSize
// samples; out[ch] must hold NumBands() bins.
func (e *Engine) Forward(in [][]float64, out [][]complex128) {
	h := e.hopSize
	if e.hybridMode {
		e.hybrid.advance()
	}

	for ch := 0; ch < e.inChannels; ch++ {
		ring := e.inBuf[ch]

		// Newest hop replaces the oldest segment.
		seg := e.hopIn.position()
		copy(ring[seg*h:(seg+1)*h], in[ch][:h])

		// Polyphase fold: walk the ring oldest to newest, weighting each
		// segment by its analysis-filter slice and accumulating into
		// alternating halves of the 2H fold buffer.
		simdops.Zero(e.fold)
		for k := 0; k < TotalHops; k++ {
			s := e.hopIn.offset(1 + k)
			half := (k % 2) * h
			simdops.MulAddTo(e.fold[half:half+h], ring[s*h:(s+1)*h], e.proto.Analysis[k*h:(k+1)*h])
		}

		e.bins = e.fft.Coefficients(e.bins, e.fold)

		if e.hybridMode {
			e.hybrid.forward(ch, e.bins, out[ch])
		} else {
			copy(out[ch][:h+1], e.bins)
		}
	}
	e.hopIn.advance()
}

// Backward consumes one spectral frame per output channel and produces one
// hop of time-domain audio. in[ch] must hold NumBands() bins; out[ch] must
// hold at least hopSize samples.
func (e *Engine) Backward(in [][]complex128, out [][]float64) {
	h := e.hopSize

	for ch := 0; ch < e.outChannels; ch++ {
		if e.hybridMode {
			e.hybrid.inverse(in[ch], e.bins)
		} else {
			copy(e.bins, in[ch][:h+1])
		}

		// Negating the odd bins circularly shifts the IFFT frame by one
		// hop, moving the overlap-add image grid to odd hop lags; the
		// low-delay synthesis filter places its composite peak there, at a
		// 4-hop total delay.
		if e.lowDelay {
			for k := 1; k < len(e.bins); k += 2 {
				e.bins[k] = -e.bins[k]
			}
		}

		e.fold = e.fft.Sequence(e.fold, e.bins)
		simdops.Scale(e.fold, e.fold, e.ifftScale)

		// Unfold: distribute the 2H frame across the next TotalHops output
		// segments, weighting by the synthesis-filter slices and mirroring
		// the fold's half alternation.
		ring := e.outBuf[ch]
		for k := 0; k < TotalHops; k++ {
			s := e.hopOut.offset(k)
			half := (k % 2) * h
			simdops.MulAddTo(ring[s*h:(s+1)*h], e.fold[half:half+h], e.proto.Synthesis[k*h:(k+1)*h])
		}

		// The segment at the cursor has now received all TotalHops
		// overlap-add contributions; emit and recycle it.
		seg := e.hopOut.position()
		copy(out[ch][:h], ring[seg*h:(seg+1)*h])
		simdops.Zero(ring[seg*h : (seg+1)*h])
	}
	e.hopOut.advance()
}

// SetChannels resizes the per-channel state. Buffers of surviving channels
// are kept intact, added channels start zeroed, and the hop cursors and
// prototype filter are untouched. Must not be called concurrently with
// Forward or Backward.
func (e *Engine) SetChannels(inChannels, outChannels int) error {
	if inChannels < 1 || outChannels < 1 {
		return fmt.Errorf("engine: channel counts must be positive, got %d in / %d out", inChannels, outChannels)
	}
	e.inBuf = resizeRings(e.inBuf, inChannels, e.hLen)
	e.outBuf = resizeRings(e.outBuf, outChannels, e.hLen)
	e.inChannels = inChannels
	e.outChannels = outChannels
	if e.hybrid != nil {
		e.hybrid.setChannels(inChannels)
	}
	return nil
}

func resizeRings(rings [][]float64, channels, hLen int) [][]float64 {
	if channels <= len(rings) {
		return rings[:channels]
	}
	for len(rings) < channels {
		rings = append(rings, make([]float64, hLen))
	}
	return rings
}

// Clear zero-fills all ring buffers and hybrid history without resetting the
// hop cursors or reallocating. Must not be called concurrently with Forward
// or Backward.
func (e *Engine) Clear() {
	for _, ring := range e.inBuf {
		simdops.Zero(ring)
	}
	for _, ring := range e.outBuf {
		simdops.Zero(ring)
	}
	if e.hybrid != nil {
		e.hybrid.clear()
	}
}
