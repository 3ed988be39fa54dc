// Package codec turns raw audio bytes into channel-separated samples.
// It is the decode capability consumed by analysis and waveform
// extraction; callers never learn where the bytes came from.
package codec

import "context"

// PCMBuffer holds decoded audio: one sample slice per channel, all the
// same length, at a known sample rate.
type PCMBuffer struct {
	Channels   [][]float64
	SampleRate int
}

// NumSamples returns samples per channel.
func (b *PCMBuffer) NumSamples() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *PCMBuffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.NumSamples()) / float64(b.SampleRate)
}

// Mono returns the first channel. Analysis passes operate on a single
// channel; channel 0 is the convention throughout.
func (b *PCMBuffer) Mono() []float64 {
	if b == nil || len(b.Channels) == 0 {
		return nil
	}
	return b.Channels[0]
}

// Decoder decodes a raw byte buffer. Implementations open and release
// their decode resources within a single call, never pooling them
// across calls, so a failed decode cannot leak into the next one.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*PCMBuffer, error)
}
