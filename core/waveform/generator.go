// Package waveform reduces audio to a fixed number of peak bars for
// rendering. Extraction partitions the decoded signal into equal
// windows and keeps the maximum absolute amplitude of each.
package waveform

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/jvetere1999/passion-os-sub009/core/codec"
	"github.com/jvetere1999/passion-os-sub009/model"
)

// DefaultBars is the peak count used when the caller passes none.
const DefaultBars = 150

// silenceFloor guards normalization against an all-silent buffer.
const silenceFloor = 1e-10

// FetchFunc retrieves the bytes behind an audio URL.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Options tune a Generator. Zero values fall back to defaults.
type Options struct {
	Bars          int
	MaxFetchBytes int64         // remote fetch byte budget
	HTTPTimeout   time.Duration // remote fetch deadline
	Fetch         FetchFunc     // overrides the HTTP fetch, mainly for tests
}

// Generator turns an audio URL or an in-memory buffer into WaveformData.
type Generator struct {
	decoder       codec.Decoder
	bars          int
	maxFetchBytes int64
	fetch         FetchFunc
}

// NewGenerator builds a generator around a decoder.
func NewGenerator(decoder codec.Decoder, opts Options) *Generator {
	g := &Generator{
		decoder:       decoder,
		bars:          opts.Bars,
		maxFetchBytes: opts.MaxFetchBytes,
		fetch:         opts.Fetch,
	}
	if g.bars <= 0 {
		g.bars = DefaultBars
	}
	if g.maxFetchBytes <= 0 {
		g.maxFetchBytes = 25 << 20
	}
	if g.fetch == nil {
		timeout := opts.HTTPTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		g.fetch = httpFetch(timeout, g.maxFetchBytes)
	}
	return g
}

// Bars returns the configured peak count.
func (g *Generator) Bars() int {
	return g.bars
}

// Generate fetches the URL and extracts peaks. Waveform generation is
// not cancellable once decoding starts; the context only bounds the
// fetch.
func (g *Generator) Generate(ctx context.Context, audioURL string, bars int) (*model.WaveformData, error) {
	data, err := g.fetch(ctx, audioURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	return g.FromBuffer(ctx, data, bars)
}

// FromBuffer decodes an in-memory buffer and extracts peaks.
func (g *Generator) FromBuffer(ctx context.Context, data []byte, bars int) (*model.WaveformData, error) {
	if bars <= 0 {
		bars = g.bars
	}

	buf, err := g.decoder.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}

	samples := buf.Mono()
	if len(samples) == 0 {
		return nil, fmt.Errorf("decoded zero samples")
	}

	peaks, normalized := extractPeaks(samples, bars)
	return &model.WaveformData{
		Peaks:           peaks,
		NormalizedPeaks: normalized,
		Duration:        buf.Duration(),
		SampleRate:      buf.SampleRate,
		GeneratedAt:     time.Now(),
	}, nil
}

// extractPeaks partitions the signal into bars equal-width windows,
// takes max |amplitude| per window, and normalizes by the global
// maximum floored against silence.
func extractPeaks(samples []float64, bars int) (peaks, normalized []float64) {
	peaks = make([]float64, bars)
	window := float64(len(samples)) / float64(bars)

	globalMax := 0.0
	for i := 0; i < bars; i++ {
		start := int(float64(i) * window)
		end := int(float64(i+1) * window)
		if end > len(samples) {
			end = len(samples)
		}
		var peak float64
		for j := start; j < end; j++ {
			a := math.Abs(samples[j])
			if a > peak {
				peak = a
			}
		}
		peaks[i] = peak
		if peak > globalMax {
			globalMax = peak
		}
	}

	if globalMax < silenceFloor {
		globalMax = silenceFloor
	}
	normalized = make([]float64, bars)
	for i, p := range peaks {
		normalized[i] = p / globalMax
	}
	return peaks, normalized
}

// httpFetch builds the default fetch: a plain GET with a deadline and a
// byte budget.
func httpFetch(timeout time.Duration, maxBytes int64) FetchFunc {
	client := &http.Client{Timeout: timeout}
	return func(ctx context.Context, url string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download audio: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to download audio, status code: %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read audio body: %w", err)
		}
		return data, nil
	}
}
