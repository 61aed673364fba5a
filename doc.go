// Package afstft provides an alias-free short-time Fourier transform
// filterbank for multichannel spatial-audio processing in pure Go.
//
// The filterbank converts time-domain audio into a complex time-frequency
// representation and back with perfect reconstruction. It is a
// 2x-oversampled DFT filterbank: each hop of H samples is folded through a
// 10-hop prototype low-pass filter into a 2H-point real FFT, and synthesis
// runs the mirror unfold with overlap-add. An optional hybrid stage splits
// the four lowest non-DC bins in two for better low-frequency resolution,
// the resolution profile parametric spatial-audio codecs expect.
//
// # Features
//
//   - Exact reconstruction up to float rounding, at a fixed reported delay
//   - Hop sizes 32 to 1024 samples, 2H+1 uniform bands
//   - Optional hybrid low-band splitting (H+5 bands, 3 extra hops of delay)
//   - Low-delay mode: 4 hops of total latency instead of 9
//   - Multichannel analysis and synthesis with independent channel counts
//   - Band-major or time-major spectral tensor layout, fixed at creation
//   - Streaming hop-by-hop state with explicit clearing and channel resizing
//
// # Quick Start
//
// One-shot analysis of a mono signal:
//
//	spec, err := afstft.Analyze([][]float64{signal}, &afstft.Config{
//	    HopSize:     128,
//	    InChannels:  1,
//	    OutChannels: 1,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Streaming with a reusable converter:
//
//	conv, err := afstft.New(&afstft.Config{
//	    HopSize:     128,
//	    InChannels:  2,
//	    OutChannels: 2,
//	    Hybrid:      true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for frame := range frames { // each frame a multiple of the hop size
//	    spec, _ := conv.Forward(frame)
//	    processBands(spec)
//	    out, _ := conv.Backward(spec)
//	    writeOutput(out)
//	}
//
// The reconstructed signal lags the input by [Converter.Delay] samples.
//
// # Architecture
//
//	Input -> [fold + 2H-point real FFT] -> [hybrid split] -> Spectrum
//	Spectrum -> [hybrid merge] -> [inverse FFT + unfold OLA] -> Output
//
// Each channel owns a circular history of ten hop-sized segments; analysis
// weights the history by a decimated 10240-tap prototype filter before the
// transform, and synthesis accumulates the weighted inverse transform into a
// matching output ring. The synthesis prototype is computed as the exact
// reconstruction dual of the analysis prototype, so the cascade is the
// identity delayed by the mode's fixed latency.
//
// # Thread Safety
//
// A [Converter] is a single-stream object: calls to Forward, Backward,
// SetChannels and Clear on the same instance must be serialized by the
// caller. SetChannels and Clear are administrative operations and must not
// be interleaved with a real-time processing loop. Distinct instances are
// independent.
package afstft
