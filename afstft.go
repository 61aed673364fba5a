package afstft

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-afstft/internal/engine"
)

// Format selects the memory layout of the spectral tensor produced by
// analysis and consumed by synthesis. The layout is fixed when the
// converter is created.
type Format int

const (
	// FormatBandsFirst stores the spectrum as [band][channel][hop].
	// This is the natural layout for per-band spatial processing, where
	// an algorithm walks all channels and hops of one band at a time.
	FormatBandsFirst Format = iota

	// FormatTimeFirst stores the spectrum as [hop][channel][band].
	// This is the natural layout for streaming frame-by-frame processing.
	FormatTimeFirst
)

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatBandsFirst:
		return "bands-first"
	case FormatTimeFirst:
		return "time-first"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Config holds filterbank configuration.
type Config struct {
	// HopSize is the analysis hop in samples. Must be one of the
	// supported power-of-two sizes, see SupportedHopSizes.
	HopSize int

	// InChannels is the number of channels consumed by Forward.
	InChannels int

	// OutChannels is the number of channels produced by Backward.
	// It may differ from InChannels; spatial processors commonly
	// upmix or downmix between analysis and synthesis.
	OutChannels int

	// LowDelay selects the low-delay prototype filter pair, reducing
	// the filterbank latency from 9 hops to 4 at the cost of slightly
	// worse stop-band attenuation.
	LowDelay bool

	// Hybrid enables the hybrid low-band splitting stage. The four
	// lowest non-DC bins are each split in two, raising the band count
	// from HopSize+1 to HopSize+5 and adding 3 hops of delay. Hybrid
	// mode is supported for hop sizes 64, 128 and 256.
	Hybrid bool

	// Format selects the spectral tensor layout. The zero value is
	// FormatBandsFirst.
	Format Format
}

// Common errors returned by the filterbank.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid filterbank configuration")

	// ErrFrameSize indicates an input whose length is not a positive
	// multiple of the hop size.
	ErrFrameSize = errors.New("frame size must be a positive multiple of hop size")

	// ErrChannelCount indicates a channel dimension that does not match
	// the converter configuration.
	ErrChannelCount = errors.New("channel count mismatch")

	// ErrSpectrumShape indicates a spectrum whose format, band count or
	// channel count does not match the converter configuration.
	ErrSpectrumShape = errors.New("spectrum shape mismatch")
)

// SupportedHopSizes returns the hop sizes the filterbank accepts, in
// ascending order. Hybrid mode is restricted to 64, 128 and 256.
func SupportedHopSizes() []int {
	return engine.SupportedHopSizes()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !engine.HopSizeSupported(c.HopSize, c.Hybrid) {
		if c.Hybrid {
			return fmt.Errorf("%w: hop size %d not supported in hybrid mode (want 64, 128 or 256)", ErrInvalidConfig, c.HopSize)
		}
		return fmt.Errorf("%w: hop size %d not supported (want one of %v)", ErrInvalidConfig, c.HopSize, SupportedHopSizes())
	}

	if c.InChannels < 1 {
		return fmt.Errorf("%w: input channels must be at least 1", ErrInvalidConfig)
	}

	if c.OutChannels < 1 {
		return fmt.Errorf("%w: output channels must be at least 1", ErrInvalidConfig)
	}

	if c.InChannels > maxChannels || c.OutChannels > maxChannels {
		return fmt.Errorf("%w: too many channels (max %d)", ErrInvalidConfig, maxChannels)
	}

	if c.Format != FormatBandsFirst && c.Format != FormatTimeFirst {
		return fmt.Errorf("%w: unknown spectrum format %d", ErrInvalidConfig, int(c.Format))
	}

	return nil
}

// Info describes a converter's runtime characteristics.
type Info struct {
	// HopSize is the configured hop size in samples.
	HopSize int

	// Bands is the number of frequency bands per channel and hop.
	Bands int

	// Delay is the end-to-end analysis plus synthesis latency in samples.
	Delay int

	// LowDelay reports whether the low-delay prototype pair is in use.
	LowDelay bool

	// Hybrid reports whether the hybrid low-band stage is active.
	Hybrid bool

	// FilterLength is the per-mode prototype filter length in samples.
	FilterLength int
}
