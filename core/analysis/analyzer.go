// Package analysis derives acoustic features from raw audio: a tempo
// estimate via onset autocorrelation and a 3-band frequency energy
// summary. All analysis is offline over a bounded prefix of the input;
// nothing here touches playback.
package analysis

import (
	"context"

	"github.com/jvetere1999/passion-os-sub009/core/codec"
	"github.com/jvetere1999/passion-os-sub009/logger"
	"github.com/jvetere1999/passion-os-sub009/model"
)

// Options bound the work an analysis run may do. Zero values fall back
// to the defaults below; work size, not wall-clock time, is the
// backstop.
type Options struct {
	MaxBytes   int64   // input truncated to this before decoding
	MaxSeconds float64 // window bound for both passes
	MinBPM     float64 // tempo search band lower edge
	MaxBPM     float64 // tempo search band upper edge
	FFTSize    int     // spectrum transform size
}

const (
	defaultMaxBytes   = 10 << 20
	defaultMaxSeconds = 60.0
	defaultMinBPM     = 60.0
	defaultMaxBPM     = 200.0
	defaultFFTSize    = 4096
)

func (o Options) withDefaults() Options {
	if o.MaxBytes <= 0 {
		o.MaxBytes = defaultMaxBytes
	}
	if o.MaxSeconds <= 0 {
		o.MaxSeconds = defaultMaxSeconds
	}
	if o.MinBPM <= 0 {
		o.MinBPM = defaultMinBPM
	}
	if o.MaxBPM <= o.MinBPM {
		o.MaxBPM = defaultMaxBPM
	}
	if o.FFTSize <= 0 {
		o.FFTSize = defaultFFTSize
	}
	return o
}

// ProgressFunc receives fractional progress in [0,1], monotonically
// increasing over one run.
type ProgressFunc func(fraction float64)

// Analyzer runs batch analysis through an injected decode capability.
// Failure and cancellation both yield nil results; callers that cancel
// don't need to distinguish "stopped" from "couldn't".
type Analyzer struct {
	decoder codec.Decoder
	opts    Options
}

// NewAnalyzer builds an analyzer around a decoder.
func NewAnalyzer(decoder codec.Decoder, opts Options) *Analyzer {
	return &Analyzer{decoder: decoder, opts: opts.withDefaults()}
}

// AnalyzeAudio decodes the buffer and runs the tempo and spectrum
// passes over a bounded window. Returns nil on decode failure or
// cancellation, never a partial result. The progress callback, when
// non-nil, is invoked with increasing fractions up to 1.
func (a *Analyzer) AnalyzeAudio(ctx context.Context, data []byte, progress ProgressFunc) *model.AudioAnalysis {
	report := func(f float64) {
		if progress != nil {
			progress(f)
		}
	}

	samples, sampleRate, ok := a.decodeBounded(ctx, data)
	if !ok {
		return nil
	}
	report(0.3)

	if ctx.Err() != nil {
		return nil
	}

	result := &model.AudioAnalysis{Source: model.AnalysisSourceHeuristic}

	bpm, confidence, found := estimateTempo(samples, sampleRate, a.opts.MinBPM, a.opts.MaxBPM)
	if found {
		result.BPM = &bpm
		result.Confidence = &confidence
	}
	report(0.7)

	if ctx.Err() != nil {
		return nil
	}

	result.Spectrum = computeSpectrum(samples, sampleRate, a.opts.FFTSize)
	report(1.0)

	if ctx.Err() != nil {
		return nil
	}
	return result
}

// AnalyzeFrequencySpectrum runs only the band-energy pass. Returns nil
// on decode failure or cancellation.
func (a *Analyzer) AnalyzeFrequencySpectrum(ctx context.Context, data []byte) *model.FrequencySpectrum {
	samples, sampleRate, ok := a.decodeBounded(ctx, data)
	if !ok {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}
	return computeSpectrum(samples, sampleRate, a.opts.FFTSize)
}

// decodeBounded truncates the input to the byte budget, decodes it, and
// bounds the sample window to the duration cap. All failures collapse
// to ok=false with a diagnostic log.
func (a *Analyzer) decodeBounded(ctx context.Context, data []byte) ([]float64, int, bool) {
	if len(data) == 0 {
		return nil, 0, false
	}
	if int64(len(data)) > a.opts.MaxBytes {
		data = data[:a.opts.MaxBytes]
	}

	buf, err := a.decoder.Decode(ctx, data)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("audio decode failed", logger.ErrorField(err), logger.Int("bytes", len(data)))
		}
		return nil, 0, false
	}

	samples := buf.Mono()
	if len(samples) == 0 || buf.SampleRate <= 0 {
		return nil, 0, false
	}

	maxSamples := int(a.opts.MaxSeconds * float64(buf.SampleRate))
	if maxSamples > 0 && len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples, buf.SampleRate, true
}
