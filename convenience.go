package afstft

import (
	"fmt"
	"math"
)

// Analyze performs one-shot analysis of a multichannel signal with a fresh
// converter. Inputs whose length is not a multiple of the hop size are
// zero-padded up to the next hop boundary. cfg.InChannels must match the
// input; cfg.OutChannels is not used and may equal it.
func Analyze(input [][]float64, cfg *Config) (*Spectrum, error) {
	conv, err := New(cfg)
	if err != nil {
		return nil, err
	}
	padded, err := padToHop(input, cfg.HopSize)
	if err != nil {
		return nil, err
	}
	return conv.Forward(padded)
}

// Synthesize performs one-shot synthesis of a spectrum with a fresh
// converter.
func Synthesize(spec *Spectrum, cfg *Config) ([][]float64, error) {
	conv, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return conv.Backward(spec)
}

// ReconstructionSNR measures the round-trip fidelity of a configuration in
// decibels: the signal is analyzed and resynthesized with one converter,
// the output is advanced by the converter delay, and the result is compared
// sample-for-sample with the input. Returns +Inf for a silent input.
func ReconstructionSNR(input [][]float64, cfg *Config) (float64, error) {
	if cfg != nil && cfg.InChannels != cfg.OutChannels {
		return 0, fmt.Errorf("%w: round-trip measurement needs matching channel counts", ErrInvalidConfig)
	}
	conv, err := New(cfg)
	if err != nil {
		return 0, err
	}
	padded, err := padToHop(input, cfg.HopSize)
	if err != nil {
		return 0, err
	}

	spec, err := conv.Forward(padded)
	if err != nil {
		return 0, err
	}
	output, err := conv.Backward(spec)
	if err != nil {
		return 0, err
	}

	delay := conv.Delay()
	var sigPow, errPow float64
	for ch := range padded {
		n := len(padded[ch]) - delay
		for i := 0; i < n; i++ {
			s := padded[ch][i]
			d := output[ch][i+delay] - s
			sigPow += s * s
			errPow += d * d
		}
	}
	if sigPow == 0 {
		return math.Inf(1), nil
	}
	if errPow == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(sigPow/errPow), nil
}

// padToHop pads every channel with zeros up to the next multiple of the hop
// size. Channels must all have the same positive length; already-aligned
// input is returned as-is.
func padToHop(input [][]float64, hopSize int) ([][]float64, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: no input channels", ErrChannelCount)
	}
	n := len(input[0])
	for ch, samples := range input {
		if len(samples) != n {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrFrameSize, ch, len(samples), n)
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrFrameSize)
	}
	if n%hopSize == 0 {
		return input, nil
	}

	padded := make([][]float64, len(input))
	total := (n/hopSize + 1) * hopSize
	for ch := range input {
		padded[ch] = make([]float64, total)
		copy(padded[ch], input[ch])
	}
	return padded, nil
}
