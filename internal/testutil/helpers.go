// Package testutil provides reusable helpers for filterbank tests: signal
// generators, delay-compensated error measures and slice assertions.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-12
	GainTolerance    = 1e-9
	HybridTolerance  = 1e-2
)

// Sine generates a sine wave of the given normalized frequency (cycles per
// sample) and amplitude.
func Sine(n int, freq, amplitude float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i))
	}
	return s
}

// Impulse generates a unit impulse at the given sample index.
func Impulse(n, at int) []float64 {
	s := make([]float64, n)
	if at >= 0 && at < n {
		s[at] = 1
	}
	return s
}

// Noise generates deterministic uniform noise in [-amplitude, amplitude].
// The same seed always produces the same signal.
func Noise(n int, amplitude float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	s := make([]float64, n)
	for i := range s {
		s[i] = amplitude * (2*rng.Float64() - 1)
	}
	return s
}

// MultiChannelNoise generates independent deterministic noise per channel.
func MultiChannelNoise(channels, n int, amplitude float64, seed int64) [][]float64 {
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = Noise(n, amplitude, seed+int64(ch))
	}
	return out
}

// SNR returns the signal-to-noise ratio in dB between a reference signal
// and a delayed reconstruction: reference[i] is compared with output[i+delay]
// over the overlapping region. Returns +Inf when the error is zero.
func SNR(reference, output []float64, delay int) float64 {
	n := len(reference)
	if len(output)-delay < n {
		n = len(output) - delay
	}
	var sigPow, errPow float64
	for i := 0; i < n; i++ {
		d := output[i+delay] - reference[i]
		sigPow += reference[i] * reference[i]
		errPow += d * d
	}
	if errPow == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(sigPow/errPow)
}

// AssertSNRAbove verifies that the delay-compensated reconstruction SNR
// exceeds a floor in dB.
func AssertSNRAbove(t *testing.T, reference, output []float64, delay int, floorDB float64, msgAndArgs ...any) bool {
	t.Helper()
	snr := SNR(reference, output, delay)
	return assert.GreaterOrEqual(t, snr, floorDB,
		"reconstruction SNR %.2f dB below floor %.2f dB", snr, floorDB)
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllZero verifies that every element of the slice is exactly zero.
func AssertAllZero(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v != 0 {
			return assert.Fail(t, "nonzero element", "s[%d]=%g, want 0", i, v)
		}
	}
	return true
}

// AssertSymmetric verifies that a slice is symmetric (s[i] == s[n-1-i]).
func AssertSymmetric(t *testing.T, s []float64, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	n := len(s)
	for i := 0; i < n/2; i++ {
		j := n - 1 - i
		if !assert.InDelta(t, s[i], s[j], tolerance,
			"slice not symmetric at i=%d: s[%d]=%f != s[%d]=%f", i, i, s[i], j, s[j]) {
			return false
		}
	}
	return true
}

// MaxAbs returns the largest absolute value in the slice.
func MaxAbs(s []float64) float64 {
	var m float64
	for _, v := range s {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
