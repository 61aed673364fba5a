// Package filter constructs the prototype low-pass filters for the
// alias-free STFT filterbank.
//
// The analysis prototype is a 10240-tap linear-phase Kaiser-windowed sinc
// master, built once on first use and decimated by 1024/hopSize to the
// 10-hop working length. The synthesis prototype is then computed as the
// exact reconstruction dual of the analysis filter: per output phase, the
// analysis·synthesis polyphase correlation is forced to one at the
// composite-delay lag and to zero at every other lag the filterbank's
// fold aliasing can produce. The cascade therefore reconstructs the input
// exactly, up to the delay mode's fixed latency and float rounding.
package filter

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-afstft/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

const (
	// MasterHopSize is the hop size the master filter is designed for.
	MasterHopSize = 1024

	// TotalHops is the prototype filter span in hops.
	TotalHops = 10

	// MasterLen is the master filter length: TotalHops * MasterHopSize.
	MasterLen = TotalHops * MasterHopSize

	// The passband must cover half the bin spacing of the 2*hop FFT so
	// adjacent bands tile; for the master that is 1/4096 of the sample
	// rate. Alias cancellation does not come from the cutoff: it is
	// enforced exactly by the dual synthesis solve in dualFilter.
	masterCutoff = 1.0 / (4.0 * MasterHopSize)

	// Stopband attenuation target for the Kaiser design.
	masterAttenuation = 90.0

	sincZeroThreshold = 1e-10
)

// Composite-delay target lags, in hops. The fold into the 2H FFT buffer
// images the windowed input at multiples of 2H samples, so the cascade
// picks up a term at every even hop lag; the low-delay odd-bin sign flip
// shifts the IFFT frame by one hop and moves that image grid to the odd
// lags, which is what makes the shorter delay reachable. A target lag l
// yields a composite delay of (9-l) hops.
const (
	normalTargetLag   = 0 // 9-hop delay
	lowDelayTargetLag = 5 // 4-hop delay
)

// Prototype holds the working analysis and synthesis filters for one hop
// size and delay mode. Both slices have length Len; Synthesis is the
// reconstruction dual of Analysis. Read-only after construction and safe
// to share across channels.
type Prototype struct {
	HopSize  int
	Len      int // TotalHops * HopSize
	LowDelay bool

	Analysis  []float64
	Synthesis []float64
}

var (
	masterOnce sync.Once
	master     []float64
)

// KaiserWindow generates a Kaiser window of the specified length and β
// parameter. The window is symmetric: w[i] = w[length-1-i].
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}
	window := make([]float64, length)
	if length == 1 {
		window[0] = 1.0
		return window
	}

	// w[n] = I₀(β * sqrt(1 - ((n - α)/α)²)) / I₀(β), α = (N-1)/2
	alpha := float64(length-1) / 2.0
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		arg := beta * math.Sqrt(1.0-x*x)
		window[n] = mathutil.BesselI0(arg) / i0Beta
	}
	return window
}

// designMaster builds the linear-phase master: a windowed sinc with cutoff
// masterCutoff, normalized to unity DC gain.
func designMaster() []float64 {
	beta := mathutil.KaiserBeta(masterAttenuation)
	window := KaiserWindow(MasterLen, beta)

	h := make([]float64, MasterLen)
	center := float64(MasterLen-1) / 2.0

	for n := range MasterLen {
		x := float64(n) - center

		// sinc: sin(2πfc·x) / (πx), limit 2fc at x=0
		var sincValue float64
		if math.Abs(x) < sincZeroThreshold {
			sincValue = 2.0 * masterCutoff
		} else {
			sincValue = math.Sin(2.0*math.Pi*masterCutoff*x) / (math.Pi * x)
		}
		h[n] = sincValue * window[n]
	}

	sum := f64.Sum(h)
	f64.Scale(h, h, 1.0/sum)
	return h
}

func buildMaster() {
	master = designMaster()
}

// NewPrototype builds the working filter pair for the given hop size.
// hopSize must divide MasterHopSize.
func NewPrototype(hopSize int, lowDelay bool) (*Prototype, error) {
	if hopSize < 1 || MasterHopSize%hopSize != 0 {
		return nil, fmt.Errorf("filter: hop size %d does not divide the %d-tap master grid", hopSize, MasterHopSize)
	}
	masterOnce.Do(buildMaster)

	p := &Prototype{
		HopSize:  hopSize,
		Len:      TotalHops * hopSize,
		LowDelay: lowDelay,
	}

	// Decimate the master down to the working length; the q factor restores
	// the unity DC gain lost in decimation.
	q := MasterHopSize / hopSize
	ana := make([]float64, p.Len)
	for m := range ana {
		ana[m] = master[m*q]
	}
	f64.Scale(ana, ana, float64(q))

	syn, err := dualFilter(ana, hopSize, lowDelay)
	if err != nil {
		return nil, fmt.Errorf("filter: hop size %d has no reconstruction dual: %w", hopSize, err)
	}
	balance(ana, syn)

	p.Analysis = ana
	p.Synthesis = syn
	return p, nil
}

// aliasLags returns the hop lags at which the cascade's polyphase
// correlation must be controlled, and the lag that carries the passband.
func aliasLags(lowDelay bool) (lags []int, target int) {
	if lowDelay {
		for l := -TotalHops + 1; l < TotalHops; l += 2 {
			lags = append(lags, l)
		}
		return lags, lowDelayTargetLag
	}
	for l := -TotalHops + 2; l < TotalHops; l += 2 {
		lags = append(lags, l)
	}
	return lags, normalTargetLag
}

// dualFilter computes the synthesis prototype from the analysis prototype.
// For output phase r the reconstruction requirement is
//
//	Σ_k syn[kH+r] · ana[(k+l)H+r]  =  1 if l == target, else 0
//
// over the alias lag set of the delay mode. Each phase is a small linear
// system in the ten synthesis taps of that phase; the minimum-norm
// solution is taken (normal mode is underdetermined by one degree of
// freedom per phase). With the requirement met for every phase and lag,
// the filterbank's overlap-add is the identity delayed by (9-target) hops.
func dualFilter(ana []float64, hopSize int, lowDelay bool) ([]float64, error) {
	lags, target := aliasLags(lowDelay)

	rhs := mat.NewVecDense(len(lags), nil)
	for i, lag := range lags {
		if lag == target {
			rhs.SetVec(i, 1.0)
		}
	}

	syn := make([]float64, len(ana))
	// mt holds the transposed constraint matrix: row k is the k-th
	// synthesis tap's coefficient across the lag equations.
	mt := mat.NewDense(TotalHops, len(lags), nil)
	var qr mat.QR
	var taps mat.VecDense

	for r := 0; r < hopSize; r++ {
		for k := 0; k < TotalHops; k++ {
			for i, lag := range lags {
				v := 0.0
				if kl := k + lag; kl >= 0 && kl < TotalHops {
					v = ana[kl*hopSize+r]
				}
				mt.Set(k, i, v)
			}
		}
		qr.Factorize(mt)
		if err := qr.SolveVecTo(&taps, true, rhs); err != nil {
			return nil, fmt.Errorf("output phase %d: %w", r, err)
		}
		for k := 0; k < TotalHops; k++ {
			syn[k*hopSize+r] = taps.AtVec(k)
		}
	}
	return syn, nil
}

// balance equalizes the energy split between the two filters. Only the
// analysis·synthesis product enters the cascade, so the composite response
// is unchanged.
func balance(ana, syn []float64) {
	ea := f64.DotProductUnsafe(ana, ana)
	es := f64.DotProductUnsafe(syn, syn)
	if ea == 0 || es == 0 {
		return
	}
	a := math.Pow(es/ea, 0.25)
	f64.Scale(ana, ana, a)
	f64.Scale(syn, syn, 1.0/a)
}
