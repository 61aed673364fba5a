// Command afstft-wav passes a WAV file through the alias-free STFT
// filterbank and writes the reconstruction, reporting the round-trip
// signal-to-noise ratio. Useful for verifying a configuration on real
// material and for measuring latency.
//
// Usage:
//
//	afstft-wav -hop 128 input.wav output.wav
//	afstft-wav -hop 128 -hybrid input.wav output.wav
//	afstft-wav -hop 64 -lowdelay input.wav output.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/go-afstft"
)

const (
	defaultHopSize = 128

	// Chunk size in hops for the streaming loop.
	hopsPerChunk = 64

	minRequiredArgs = 2

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	hopSize := flag.Int("hop", defaultHopSize, "Hop size in samples (32, 64, 128, 256, 512, 1024)")
	hybrid := flag.Bool("hybrid", false, "Enable hybrid low-band splitting (hop 64, 128 or 256)")
	lowDelay := flag.Bool("lowdelay", false, "Use the low-delay prototype filters (4 hops instead of 9)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return fmt.Errorf("insufficient arguments")
	}
	inputPath := args[0]
	outputPath := args[1]

	samples, format, bitDepth, err := readWAV(inputPath)
	if err != nil {
		return err
	}

	cfg := &afstft.Config{
		HopSize:     *hopSize,
		InChannels:  format.NumChannels,
		OutChannels: format.NumChannels,
		LowDelay:    *lowDelay,
		Hybrid:      *hybrid,
		Format:      afstft.FormatTimeFirst,
	}
	conv, err := afstft.New(cfg)
	if err != nil {
		return err
	}
	info := conv.Info()

	if *verbose {
		log.Printf("Input: %s (%d Hz, %d channels, %d-bit, %d samples)",
			inputPath, format.SampleRate, format.NumChannels, bitDepth, len(samples[0]))
		log.Printf("Filterbank: hop %d, %d bands, delay %d samples (%.2f ms)",
			info.HopSize, info.Bands, info.Delay,
			1000*float64(info.Delay)/float64(format.SampleRate))
	}

	start := time.Now()
	output, err := roundTrip(conv, samples)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := writeWAV(outputPath, output, format, bitDepth); err != nil {
		return err
	}

	snr := roundTripSNR(samples, output, info.Delay)
	fmt.Printf("Processed %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  hop %d, %d bands, hybrid=%v, lowdelay=%v\n",
		info.HopSize, info.Bands, info.Hybrid, info.LowDelay)
	fmt.Printf("  delay: %d samples (%.2f ms)\n",
		info.Delay, 1000*float64(info.Delay)/float64(format.SampleRate))
	fmt.Printf("  round-trip SNR: %.1f dB\n", snr)
	fmt.Printf("  %.2fs, %.1fx realtime\n", elapsed.Seconds(),
		float64(len(samples[0]))/float64(format.SampleRate)/elapsed.Seconds())
	return nil
}

// roundTrip runs analysis and synthesis over the signal in fixed-size
// chunks, zero-padding the final partial chunk to a hop boundary.
func roundTrip(conv *afstft.Converter, samples [][]float64) ([][]float64, error) {
	channels := len(samples)
	total := len(samples[0])
	hop := conv.HopSize()
	chunk := hopsPerChunk * hop

	padded := (total + hop - 1) / hop * hop
	output := make([][]float64, channels)
	for ch := range output {
		output[ch] = make([]float64, 0, padded)
	}

	frame := make([][]float64, channels)
	for pos := 0; pos < padded; pos += chunk {
		end := pos + chunk
		if end > padded {
			end = padded
		}
		for ch := range frame {
			if end <= total {
				frame[ch] = samples[ch][pos:end]
				continue
			}
			// Final chunk: copy what remains and zero-fill to the boundary.
			buf := make([]float64, end-pos)
			if pos < total {
				copy(buf, samples[ch][pos:total])
			}
			frame[ch] = buf
		}

		spec, err := conv.Forward(frame)
		if err != nil {
			return nil, err
		}
		out, err := conv.Backward(spec)
		if err != nil {
			return nil, err
		}
		for ch := range output {
			output[ch] = append(output[ch], out[ch]...)
		}
	}
	return output, nil
}

func roundTripSNR(reference, output [][]float64, delay int) float64 {
	var sigPow, errPow float64
	for ch := range reference {
		n := len(reference[ch]) - delay
		if m := len(output[ch]) - delay; m < n {
			n = m
		}
		for i := 0; i < n; i++ {
			s := reference[ch][i]
			d := output[ch][i+delay] - s
			sigPow += s * s
			errPow += d * d
		}
	}
	if errPow == 0 || sigPow == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(sigPow/errPow)
}

// readWAV decodes a whole WAV file into per-channel float64 slices scaled
// to [-1, 1].
func readWAV(path string) ([][]float64, *audio.Format, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, nil, 0, fmt.Errorf("invalid WAV file: %s", path)
	}
	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	scale := sampleScale(bitDepth)
	if scale == 0 {
		return nil, nil, 0, fmt.Errorf("unsupported bit depth %d in %s", bitDepth, path)
	}

	channels := format.NumChannels
	samples := make([][]float64, channels)
	buf := &audio.IntBuffer{
		Data:   make([]int, 8192*channels),
		Format: format,
	}
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, 0, fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			samples[i%channels] = append(samples[i%channels], float64(buf.Data[i])/scale)
		}
	}
	if len(samples[0]) == 0 {
		return nil, nil, 0, fmt.Errorf("no audio data in %s", path)
	}
	return samples, format, bitDepth, nil
}

// writeWAV encodes per-channel float64 samples as an interleaved PCM WAV.
func writeWAV(path string, samples [][]float64, format *audio.Format, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	scale := sampleScale(bitDepth)
	channels := len(samples)
	frames := len(samples[0])

	encoder := wav.NewEncoder(f, format.SampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Data:           make([]int, frames*channels),
		Format:         format,
		SourceBitDepth: bitDepth,
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			buf.Data[i*channels+ch] = clampSample(samples[ch][i]*scale, scale)
		}
	}
	if err := encoder.Write(buf); err != nil {
		_ = encoder.Close()
		_ = f.Close()
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return f.Close()
}

func sampleScale(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return 0
	}
}

func clampSample(v, scale float64) int {
	if v > scale {
		v = scale
	}
	if v < -scale-1 {
		v = -scale - 1
	}
	return int(math.Round(v))
}
