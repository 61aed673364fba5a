package afstft

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-afstft/internal/testutil"
)

const (
	converterSNRFloor = 40.0
	lowDelaySNRFloor  = 20.0

	testSampleRate = 48000.0
)

// TestConverter_RoundTrip verifies delay-compensated reconstruction across
// hop sizes, delay modes, hybrid modes and both tensor layouts.
func TestConverter_RoundTrip(t *testing.T) {
	for _, hop := range []int{64, 128} {
		for _, lowDelay := range []bool{false, true} {
			for _, hybrid := range []bool{false, true} {
				for _, format := range []Format{FormatBandsFirst, FormatTimeFirst} {
					name := fmt.Sprintf("hop_%d_lowdelay_%v_hybrid_%v_%v", hop, lowDelay, hybrid, format)
					t.Run(name, func(t *testing.T) {
						conv, err := New(&Config{
							HopSize:     hop,
							InChannels:  2,
							OutChannels: 2,
							LowDelay:    lowDelay,
							Hybrid:      hybrid,
							Format:      format,
						})
						require.NoError(t, err)

						input := testutil.MultiChannelNoise(2, 64*hop, 0.9, 17)
						spec, err := conv.Forward(input)
						require.NoError(t, err)
						output, err := conv.Backward(spec)
						require.NoError(t, err)

						floor := converterSNRFloor
						if lowDelay {
							floor = lowDelaySNRFloor
						}
						for ch := range input {
							testutil.AssertSNRAbove(t, input[ch], output[ch], conv.Delay(), floor,
								"channel %d", ch)
						}
					})
				}
			}
		}
	}
}

// TestConverter_MultichannelBlockProcessing runs ten channels in 512-sample
// blocks through hybrid analysis and synthesis, the configuration used by
// parametric spatial-audio renderers.
func TestConverter_MultichannelBlockProcessing(t *testing.T) {
	const (
		hop       = 128
		channels  = 10
		blockSize = 512
		blocks    = 64
	)
	conv, err := New(&Config{
		HopSize:     hop,
		InChannels:  channels,
		OutChannels: channels,
		Hybrid:      true,
		Format:      FormatTimeFirst,
	})
	require.NoError(t, err)
	assert.Equal(t, 12*hop, conv.Delay())

	total := blocks * blockSize
	input := testutil.MultiChannelNoise(channels, total, 0.9, 23)
	output := make([][]float64, channels)
	for ch := range output {
		output[ch] = make([]float64, 0, total)
	}

	frame := make([][]float64, channels)
	for pos := 0; pos < total; pos += blockSize {
		for ch := range frame {
			frame[ch] = input[ch][pos : pos+blockSize]
		}
		spec, err := conv.Forward(frame)
		require.NoError(t, err)
		assert.Equal(t, blockSize/hop, spec.Hops)
		assert.Equal(t, hop+5, spec.Bands)

		out, err := conv.Backward(spec)
		require.NoError(t, err)
		for ch := range output {
			output[ch] = append(output[ch], out[ch]...)
		}
	}

	for ch := range input {
		testutil.AssertSNRAbove(t, input[ch], output[ch], conv.Delay(), converterSNRFloor,
			"channel %d", ch)
	}
}

// TestConverter_BandCount verifies NumBands across modes.
func TestConverter_BandCount(t *testing.T) {
	tests := []struct {
		hop    int
		hybrid bool
		want   int
	}{
		{64, false, 65},
		{128, false, 129},
		{1024, false, 1025},
		{64, true, 69},
		{256, true, 261},
	}
	for _, tt := range tests {
		conv, err := New(&Config{HopSize: tt.hop, InChannels: 1, OutChannels: 1, Hybrid: tt.hybrid})
		require.NoError(t, err)
		assert.Equal(t, tt.want, conv.NumBands(), "hop %d hybrid %v", tt.hop, tt.hybrid)
	}
}

// TestConverter_Delay verifies the reported latency across modes.
func TestConverter_Delay(t *testing.T) {
	tests := []struct {
		hop      int
		lowDelay bool
		hybrid   bool
		want     int
	}{
		{128, false, false, 9 * 128},
		{128, true, false, 4 * 128},
		{64, false, true, 12 * 64},
		{64, true, true, 7 * 64},
	}
	for _, tt := range tests {
		conv, err := New(&Config{
			HopSize: tt.hop, InChannels: 1, OutChannels: 1,
			LowDelay: tt.lowDelay, Hybrid: tt.hybrid,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, conv.Delay(),
			"hop %d lowdelay %v hybrid %v", tt.hop, tt.lowDelay, tt.hybrid)
	}
}

// TestConverter_CenterFrequencies verifies the uniform band grid and the
// hybrid low-band centroids.
func TestConverter_CenterFrequencies(t *testing.T) {
	const hop = 128
	binWidth := testSampleRate / float64(2*hop)

	t.Run("uniform", func(t *testing.T) {
		conv, err := New(&Config{HopSize: hop, InChannels: 1, OutChannels: 1})
		require.NoError(t, err)

		freqs := conv.CenterFrequencies(testSampleRate)
		require.Len(t, freqs, hop+1)
		assert.Zero(t, freqs[0])
		assert.InDelta(t, binWidth, freqs[1], 1e-9)
		assert.InDelta(t, testSampleRate/2, freqs[hop], 1e-9)
	})

	t.Run("hybrid", func(t *testing.T) {
		conv, err := New(&Config{HopSize: hop, InChannels: 1, OutChannels: 1, Hybrid: true})
		require.NoError(t, err)

		freqs := conv.CenterFrequencies(testSampleRate)
		require.Len(t, freqs, hop+5)

		wantLow := []float64{0, 0.75, 1.25, 1.75, 2.25, 2.75, 3.25, 3.75, 4.25}
		for i, w := range wantLow {
			assert.InDelta(t, w*binWidth, freqs[i], 1e-9, "band %d", i)
		}
		// Above the split region the grid is uniform again.
		assert.InDelta(t, 5*binWidth, freqs[9], 1e-9)
		assert.InDelta(t, testSampleRate/2, freqs[hop+4], 1e-9)

		// Centers must be strictly increasing.
		for i := 1; i < len(freqs); i++ {
			assert.Greater(t, freqs[i], freqs[i-1], "band %d", i)
		}
	})
}

// TestConverter_Info verifies the Info snapshot.
func TestConverter_Info(t *testing.T) {
	conv, err := New(&Config{HopSize: 64, InChannels: 2, OutChannels: 2, Hybrid: true})
	require.NoError(t, err)

	info := conv.Info()
	assert.Equal(t, 64, info.HopSize)
	assert.Equal(t, 69, info.Bands)
	assert.Equal(t, 12*64, info.Delay)
	assert.True(t, info.Hybrid)
	assert.False(t, info.LowDelay)
	assert.Equal(t, 10*64, info.FilterLength)
}

// TestConverter_InputValidation covers frame and channel errors on Forward.
func TestConverter_InputValidation(t *testing.T) {
	conv, err := New(&Config{HopSize: 128, InChannels: 2, OutChannels: 2})
	require.NoError(t, err)

	t.Run("wrong_channel_count", func(t *testing.T) {
		_, err := conv.Forward([][]float64{make([]float64, 128)})
		assert.ErrorIs(t, err, ErrChannelCount)
	})

	t.Run("not_hop_multiple", func(t *testing.T) {
		_, err := conv.Forward([][]float64{make([]float64, 100), make([]float64, 100)})
		assert.ErrorIs(t, err, ErrFrameSize)
	})

	t.Run("empty_frame", func(t *testing.T) {
		_, err := conv.Forward([][]float64{{}, {}})
		assert.ErrorIs(t, err, ErrFrameSize)
	})

	t.Run("ragged_channels", func(t *testing.T) {
		_, err := conv.Forward([][]float64{make([]float64, 128), make([]float64, 256)})
		assert.ErrorIs(t, err, ErrFrameSize)
	})
}

// TestConverter_SpectrumValidation covers shape errors on Backward.
func TestConverter_SpectrumValidation(t *testing.T) {
	conv, err := New(&Config{HopSize: 128, InChannels: 2, OutChannels: 2})
	require.NoError(t, err)

	t.Run("nil_spectrum", func(t *testing.T) {
		_, err := conv.Backward(nil)
		assert.ErrorIs(t, err, ErrSpectrumShape)
	})

	t.Run("format_mismatch", func(t *testing.T) {
		spec := NewSpectrum(FormatTimeFirst, 129, 2, 1)
		_, err := conv.Backward(spec)
		assert.ErrorIs(t, err, ErrSpectrumShape)
	})

	t.Run("band_mismatch", func(t *testing.T) {
		spec := NewSpectrum(FormatBandsFirst, 65, 2, 1)
		_, err := conv.Backward(spec)
		assert.ErrorIs(t, err, ErrSpectrumShape)
	})

	t.Run("channel_mismatch", func(t *testing.T) {
		spec := NewSpectrum(FormatBandsFirst, 129, 3, 1)
		_, err := conv.Backward(spec)
		assert.ErrorIs(t, err, ErrSpectrumShape)
	})
}

// TestConverter_AsymmetricChannels verifies a downmix-style configuration
// where synthesis runs fewer channels than analysis.
func TestConverter_AsymmetricChannels(t *testing.T) {
	const hop = 64
	conv, err := New(&Config{
		HopSize:     hop,
		InChannels:  4,
		OutChannels: 1,
		Format:      FormatTimeFirst,
	})
	require.NoError(t, err)

	input := testutil.MultiChannelNoise(4, 32*hop, 0.5, 31)
	spec, err := conv.Forward(input)
	require.NoError(t, err)
	assert.Equal(t, 4, spec.Channels)

	// Downmix: average all analysis channels into a single-channel spectrum.
	mono := NewSpectrum(FormatTimeFirst, spec.Bands, 1, spec.Hops)
	for hopIdx := 0; hopIdx < spec.Hops; hopIdx++ {
		for band := 0; band < spec.Bands; band++ {
			var sum complex128
			for ch := 0; ch < spec.Channels; ch++ {
				sum += spec.Data[hopIdx][ch][band]
			}
			mono.Data[hopIdx][0][band] = sum / 4
		}
	}

	output, err := conv.Backward(mono)
	require.NoError(t, err)
	require.Len(t, output, 1)
	testutil.AssertNoNaNOrInf(t, output[0])
	assert.Greater(t, testutil.MaxAbs(output[0]), 0.0)
}

// TestConverter_SetChannels verifies channel reconfiguration.
func TestConverter_SetChannels(t *testing.T) {
	const hop = 64
	conv, err := New(&Config{HopSize: hop, InChannels: 1, OutChannels: 1, Hybrid: true})
	require.NoError(t, err)

	input := testutil.MultiChannelNoise(1, 16*hop, 0.9, 5)
	_, err = conv.Forward(input)
	require.NoError(t, err)

	require.NoError(t, conv.SetChannels(3, 2))
	assert.Equal(t, 3, conv.InChannels())
	assert.Equal(t, 2, conv.OutChannels())

	spec, err := conv.Forward(testutil.MultiChannelNoise(3, 16*hop, 0.9, 6))
	require.NoError(t, err)
	assert.Equal(t, 3, spec.Channels)

	assert.ErrorIs(t, conv.SetChannels(0, 1), ErrInvalidConfig)
	assert.ErrorIs(t, conv.SetChannels(1, maxChannels+1), ErrInvalidConfig)
}

// TestConverter_Clear verifies history clearing through the public API.
func TestConverter_Clear(t *testing.T) {
	const hop = 64
	conv, err := New(&Config{HopSize: hop, InChannels: 1, OutChannels: 1})
	require.NoError(t, err)

	spec, err := conv.Forward(testutil.MultiChannelNoise(1, 16*hop, 0.9, 9))
	require.NoError(t, err)
	_, err = conv.Backward(spec)
	require.NoError(t, err)

	conv.Clear()

	silence := [][]float64{make([]float64, 16*hop)}
	spec, err = conv.Forward(silence)
	require.NoError(t, err)
	output, err := conv.Backward(spec)
	require.NoError(t, err)
	testutil.AssertAllZero(t, output[0])
}
