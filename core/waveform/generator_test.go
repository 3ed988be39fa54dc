package waveform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jvetere1999/passion-os-sub009/core/codec"
)

type stubDecoder struct {
	buf      *codec.PCMBuffer
	err      error
	gotBytes []byte
}

func (d *stubDecoder) Decode(ctx context.Context, data []byte) (*codec.PCMBuffer, error) {
	d.gotBytes = data
	if d.err != nil {
		return nil, d.err
	}
	return d.buf, nil
}

func monoBuffer(samples []float64, sampleRate int) *codec.PCMBuffer {
	return &codec.PCMBuffer{Channels: [][]float64{samples}, SampleRate: sampleRate}
}

// block repeats v n times.
func block(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// --- Construction ---

func TestNewGenerator_Defaults(t *testing.T) {
	g := NewGenerator(&stubDecoder{}, Options{})
	if g.Bars() != DefaultBars {
		t.Errorf("Bars() = %d, want %d", g.Bars(), DefaultBars)
	}

	g = NewGenerator(&stubDecoder{}, Options{Bars: 64})
	if g.Bars() != 64 {
		t.Errorf("Bars() = %d, want 64", g.Bars())
	}
}

// --- Peak extraction ---

func TestExtractPeaks(t *testing.T) {
	var samples []float64
	samples = append(samples, block(0.1, 25)...)
	samples = append(samples, block(0.5, 25)...)
	samples = append(samples, block(1.0, 25)...)
	samples = append(samples, block(0.25, 25)...)

	peaks, normalized := extractPeaks(samples, 4)

	wantPeaks := []float64{0.1, 0.5, 1.0, 0.25}
	for i := range wantPeaks {
		if peaks[i] != wantPeaks[i] {
			t.Errorf("peaks[%d] = %v, want %v", i, peaks[i], wantPeaks[i])
		}
		if normalized[i] != wantPeaks[i] {
			t.Errorf("normalized[%d] = %v, want %v", i, normalized[i], wantPeaks[i])
		}
	}
}

func TestExtractPeaks_UsesAbsoluteAmplitude(t *testing.T) {
	peaks, _ := extractPeaks([]float64{-0.8, 0.2}, 1)
	if peaks[0] != 0.8 {
		t.Errorf("peak = %v, want 0.8 from the negative excursion", peaks[0])
	}
}

func TestExtractPeaks_NormalizesMaxToOne(t *testing.T) {
	samples := append(block(0.2, 100), block(0.7, 100)...)

	_, normalized := extractPeaks(samples, 10)

	max := 0.0
	for _, n := range normalized {
		if n > max {
			max = n
		}
	}
	if max != 1.0 {
		t.Errorf("max normalized peak = %v, want exactly 1", max)
	}
}

func TestExtractPeaks_Silence(t *testing.T) {
	peaks, normalized := extractPeaks(block(0, 1000), 8)

	for i := range peaks {
		if peaks[i] != 0 {
			t.Errorf("peaks[%d] = %v, want 0", i, peaks[i])
		}
		if normalized[i] != 0 {
			t.Errorf("normalized[%d] = %v, want 0 (floored, not NaN)", i, normalized[i])
		}
	}
}

func TestExtractPeaks_MoreBarsThanSamples(t *testing.T) {
	peaks, normalized := extractPeaks([]float64{0.5, 0.25, 0.125}, 10)

	if len(peaks) != 10 || len(normalized) != 10 {
		t.Fatalf("len = %d/%d, want 10/10", len(peaks), len(normalized))
	}
}

// --- FromBuffer ---

func TestFromBuffer(t *testing.T) {
	decoder := &stubDecoder{buf: monoBuffer(block(0.5, 44100), 44100)}
	g := NewGenerator(decoder, Options{Bars: 32})

	wf, err := g.FromBuffer(context.Background(), []byte("payload"), 0)
	if err != nil {
		t.Fatalf("FromBuffer: %v", err)
	}
	if len(wf.Peaks) != 32 || len(wf.NormalizedPeaks) != 32 {
		t.Errorf("bar count = %d/%d, want 32/32", len(wf.Peaks), len(wf.NormalizedPeaks))
	}
	if wf.Duration != 1.0 {
		t.Errorf("Duration = %v, want 1.0", wf.Duration)
	}
	if wf.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", wf.SampleRate)
	}
	if wf.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not stamped")
	}
}

func TestFromBuffer_ExplicitBarsWin(t *testing.T) {
	decoder := &stubDecoder{buf: monoBuffer(block(0.5, 1000), 44100)}
	g := NewGenerator(decoder, Options{Bars: 150})

	wf, err := g.FromBuffer(context.Background(), []byte("payload"), 16)
	if err != nil {
		t.Fatalf("FromBuffer: %v", err)
	}
	if len(wf.Peaks) != 16 {
		t.Errorf("bar count = %d, want the explicit 16", len(wf.Peaks))
	}
}

func TestFromBuffer_DecodeError(t *testing.T) {
	decoder := &stubDecoder{err: errors.New("unsupported format")}
	g := NewGenerator(decoder, Options{})

	_, err := g.FromBuffer(context.Background(), []byte("payload"), 0)
	if err == nil {
		t.Fatal("FromBuffer succeeded on a decode error")
	}
	if !strings.Contains(err.Error(), "failed to decode audio") {
		t.Errorf("err = %v, want decode failure context", err)
	}
}

func TestFromBuffer_EmptyDecode(t *testing.T) {
	decoder := &stubDecoder{buf: monoBuffer(nil, 44100)}
	g := NewGenerator(decoder, Options{})

	if _, err := g.FromBuffer(context.Background(), []byte("payload"), 0); err == nil {
		t.Fatal("FromBuffer succeeded on zero decoded samples")
	}
}

// --- Generate ---

func TestGenerate_FetchesThenDecodes(t *testing.T) {
	decoder := &stubDecoder{buf: monoBuffer(block(0.5, 1000), 44100)}
	fetched := []byte("remote-bytes")
	var gotURL string
	g := NewGenerator(decoder, Options{
		Bars: 8,
		Fetch: func(ctx context.Context, url string) ([]byte, error) {
			gotURL = url
			return fetched, nil
		},
	})

	wf, err := g.Generate(context.Background(), "https://blobs/track.mp3", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotURL != "https://blobs/track.mp3" {
		t.Errorf("fetched url = %q", gotURL)
	}
	if string(decoder.gotBytes) != string(fetched) {
		t.Errorf("decoder received %q, want the fetched bytes", decoder.gotBytes)
	}
	if len(wf.Peaks) != 8 {
		t.Errorf("bar count = %d, want 8", len(wf.Peaks))
	}
}

func TestGenerate_FetchError(t *testing.T) {
	g := NewGenerator(&stubDecoder{}, Options{
		Fetch: func(ctx context.Context, url string) ([]byte, error) {
			return nil, errors.New("503")
		},
	})

	_, err := g.Generate(context.Background(), "https://blobs/missing.mp3", 0)
	if err == nil {
		t.Fatal("Generate succeeded on a fetch error")
	}
	if !strings.Contains(err.Error(), "failed to fetch audio") {
		t.Errorf("err = %v, want fetch failure context", err)
	}
}
