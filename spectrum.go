package afstft

import "fmt"

// Spectrum holds the complex time-frequency representation produced by
// analysis and consumed by synthesis. The tensor is stored in one of two
// layouts, recorded in Format:
//
//   - FormatBandsFirst: Data[band][channel][hop]
//   - FormatTimeFirst:  Data[hop][channel][band]
//
// Data may be read and written freely between Forward and Backward; At and
// Set provide layout-independent access.
type Spectrum struct {
	// Format is the tensor layout of Data.
	Format Format

	// Bands is the number of frequency bands per channel and hop.
	Bands int

	// Channels is the number of audio channels.
	Channels int

	// Hops is the number of hops (time frames).
	Hops int

	// Data is the spectral tensor, indexed per Format.
	Data [][][]complex128
}

// NewSpectrum allocates a zeroed spectrum with the given shape and layout.
func NewSpectrum(format Format, bands, channels, hops int) *Spectrum {
	s := &Spectrum{
		Format:   format,
		Bands:    bands,
		Channels: channels,
		Hops:     hops,
	}
	switch format {
	case FormatTimeFirst:
		s.Data = makeTensor(hops, channels, bands)
	default:
		s.Data = makeTensor(bands, channels, hops)
	}
	return s
}

func makeTensor(d0, d1, d2 int) [][][]complex128 {
	t := make([][][]complex128, d0)
	for i := range t {
		t[i] = make([][]complex128, d1)
		for j := range t[i] {
			t[i][j] = make([]complex128, d2)
		}
	}
	return t
}

// At returns the bin for the given band, channel and hop regardless of the
// tensor layout.
func (s *Spectrum) At(band, channel, hop int) complex128 {
	if s.Format == FormatTimeFirst {
		return s.Data[hop][channel][band]
	}
	return s.Data[band][channel][hop]
}

// Set stores a bin for the given band, channel and hop regardless of the
// tensor layout.
func (s *Spectrum) Set(band, channel, hop int, v complex128) {
	if s.Format == FormatTimeFirst {
		s.Data[hop][channel][band] = v
	} else {
		s.Data[band][channel][hop] = v
	}
}

// check verifies the spectrum shape against an expected layout.
func (s *Spectrum) check(format Format, bands, channels int) error {
	if s.Format != format {
		return fmt.Errorf("%w: spectrum is %v, converter expects %v", ErrSpectrumShape, s.Format, format)
	}
	if s.Bands != bands {
		return fmt.Errorf("%w: spectrum has %d bands, converter expects %d", ErrSpectrumShape, s.Bands, bands)
	}
	if s.Channels != channels {
		return fmt.Errorf("%w: spectrum has %d channels, converter expects %d", ErrSpectrumShape, s.Channels, channels)
	}
	return nil
}
