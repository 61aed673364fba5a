package afstft

import (
	"fmt"

	"github.com/tphakala/go-afstft/internal/engine"
)

// Converter is a streaming filterbank instance. It owns the analysis and
// synthesis state for all channels and processes audio in whole hops;
// Forward and Backward accept any frame size that is a positive multiple of
// the hop size.
//
// A Converter is not safe for concurrent use; see the package documentation.
type Converter struct {
	cfg Config
	eng *engine.Engine

	// Per-hop frame scratch, reused across calls. frameIn and frameOut
	// alias the caller's buffers; specIn and specOut hold one spectral
	// frame per channel when the tensor layout forces a gather/scatter.
	frameIn  [][]float64
	frameOut [][]float64
	specIn   [][]complex128
	specOut  [][]complex128
}

// New creates a converter with the given configuration. The configuration
// is copied; later changes to cfg have no effect.
func New(cfg *Config) (*Converter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eng, err := engine.New(cfg.HopSize, cfg.InChannels, cfg.OutChannels, cfg.LowDelay, cfg.Hybrid)
	if err != nil {
		return nil, err
	}

	c := &Converter{cfg: *cfg, eng: eng}
	c.resizeScratch()
	return c, nil
}

func (c *Converter) resizeScratch() {
	bands := c.eng.NumBands()
	c.frameIn = make([][]float64, c.cfg.InChannels)
	c.frameOut = make([][]float64, c.cfg.OutChannels)
	c.specIn = make([][]complex128, c.cfg.OutChannels)
	c.specOut = make([][]complex128, c.cfg.InChannels)
	for ch := range c.specOut {
		c.specOut[ch] = make([]complex128, bands)
	}
	for ch := range c.specIn {
		c.specIn[ch] = make([]complex128, bands)
	}
}

// HopSize returns the configured hop size in samples.
func (c *Converter) HopSize() int { return c.cfg.HopSize }

// InChannels returns the current number of analysis channels.
func (c *Converter) InChannels() int { return c.cfg.InChannels }

// OutChannels returns the current number of synthesis channels.
func (c *Converter) OutChannels() int { return c.cfg.OutChannels }

// NumBands returns the number of frequency bands per channel and hop:
// HopSize+1, or HopSize+5 in hybrid mode.
func (c *Converter) NumBands() int { return c.eng.NumBands() }

// Delay returns the end-to-end analysis plus synthesis latency in samples.
// A signal passed through Forward and Backward comes out delayed by this
// amount.
func (c *Converter) Delay() int { return c.eng.Delay() }

// Info returns the converter's runtime characteristics.
func (c *Converter) Info() Info {
	return Info{
		HopSize:      c.cfg.HopSize,
		Bands:        c.eng.NumBands(),
		Delay:        c.eng.Delay(),
		LowDelay:     c.cfg.LowDelay,
		Hybrid:       c.cfg.Hybrid,
		FilterLength: c.eng.FilterLength(),
	}
}

// CenterFrequencies returns the center frequency in Hz of every band for
// the given sample rate, lowest band first. Uniform bins are spaced
// sampleRate/(2*HopSize) apart; in hybrid mode the nine lowest bands carry
// the centroids of the split half-bands instead.
func (c *Converter) CenterFrequencies(sampleRate float64) []float64 {
	binWidth := sampleRate / float64(2*c.cfg.HopSize)
	freqs := make([]float64, c.eng.NumBands())

	if !c.cfg.Hybrid {
		for b := range freqs {
			freqs[b] = float64(b) * binWidth
		}
		return freqs
	}

	for b, weights := range hybridCenterWeights {
		var f float64
		for bin, w := range weights {
			f += w * float64(bin) * binWidth
		}
		freqs[b] = f
	}
	for b := len(hybridCenterWeights); b < len(freqs); b++ {
		freqs[b] = float64(b-hybridExtraBands) * binWidth
	}
	return freqs
}

// Forward analyzes a frame of time-domain audio into a spectrum. input must
// hold InChannels slices of equal length, a positive multiple of the hop
// size; the returned spectrum has one spectral frame per hop in the
// configured layout.
func (c *Converter) Forward(input [][]float64) (*Spectrum, error) {
	h := c.cfg.HopSize
	hops, err := c.checkFrames(input, c.cfg.InChannels)
	if err != nil {
		return nil, err
	}

	spec := NewSpectrum(c.cfg.Format, c.eng.NumBands(), c.cfg.InChannels, hops)

	for hop := 0; hop < hops; hop++ {
		for ch := range c.frameIn {
			c.frameIn[ch] = input[ch][hop*h : (hop+1)*h]
		}

		if c.cfg.Format == FormatTimeFirst {
			// The engine writes straight into the tensor's hop plane.
			c.eng.Forward(c.frameIn, spec.Data[hop])
			continue
		}

		c.eng.Forward(c.frameIn, c.specOut)
		for ch, frame := range c.specOut {
			for band, v := range frame {
				spec.Data[band][ch][hop] = v
			}
		}
	}
	return spec, nil
}

// Backward synthesizes a spectrum back into time-domain audio. The spectrum
// must match the converter's layout, band count and output channel count;
// the result holds OutChannels slices of Hops*HopSize samples.
func (c *Converter) Backward(spec *Spectrum) ([][]float64, error) {
	h := c.cfg.HopSize
	if spec == nil {
		return nil, fmt.Errorf("%w: spectrum is nil", ErrSpectrumShape)
	}
	if err := spec.check(c.cfg.Format, c.eng.NumBands(), c.cfg.OutChannels); err != nil {
		return nil, err
	}

	output := make([][]float64, c.cfg.OutChannels)
	for ch := range output {
		output[ch] = make([]float64, spec.Hops*h)
	}

	for hop := 0; hop < spec.Hops; hop++ {
		for ch := range c.frameOut {
			c.frameOut[ch] = output[ch][hop*h : (hop+1)*h]
		}

		if c.cfg.Format == FormatTimeFirst {
			c.eng.Backward(spec.Data[hop], c.frameOut)
			continue
		}

		for ch := range c.specIn {
			for band := range c.specIn[ch] {
				c.specIn[ch][band] = spec.Data[band][ch][hop]
			}
		}
		c.eng.Backward(c.specIn, c.frameOut)
	}
	return output, nil
}

// SetChannels changes the converter's channel counts. State of surviving
// channels is preserved; added channels start with cleared history. Must
// not be called while a processing call is in flight.
func (c *Converter) SetChannels(inChannels, outChannels int) error {
	if inChannels < 1 || outChannels < 1 {
		return fmt.Errorf("%w: channel counts must be positive", ErrInvalidConfig)
	}
	if inChannels > maxChannels || outChannels > maxChannels {
		return fmt.Errorf("%w: too many channels (max %d)", ErrInvalidConfig, maxChannels)
	}
	if err := c.eng.SetChannels(inChannels, outChannels); err != nil {
		return err
	}
	c.cfg.InChannels = inChannels
	c.cfg.OutChannels = outChannels
	c.resizeScratch()
	return nil
}

// Clear zero-fills all internal history so the next Forward starts from
// silence. Channel counts and configuration are unchanged.
func (c *Converter) Clear() {
	c.eng.Clear()
}

// checkFrames validates a multichannel time-domain frame and returns its
// hop count.
func (c *Converter) checkFrames(input [][]float64, channels int) (int, error) {
	if len(input) != channels {
		return 0, fmt.Errorf("%w: got %d channels, want %d", ErrChannelCount, len(input), channels)
	}
	n := -1
	for ch, samples := range input {
		if n == -1 {
			n = len(samples)
		} else if len(samples) != n {
			return 0, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrFrameSize, ch, len(samples), n)
		}
	}
	if n <= 0 || n%c.cfg.HopSize != 0 {
		return 0, fmt.Errorf("%w: got %d samples, hop size %d", ErrFrameSize, n, c.cfg.HopSize)
	}
	return n / c.cfg.HopSize, nil
}
