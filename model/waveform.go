package model

import "time"

// WaveformData is the peak envelope of a track, reduced to a fixed
// number of bars for rendering. Entries are immutable once created;
// recomputing produces a new entry, never an update.
type WaveformData struct {
	Peaks           []float64 `json:"peaks"`           // max |amplitude| per window
	NormalizedPeaks []float64 `json:"normalizedPeaks"` // peaks / max(peaks), floored divisor on silence
	Duration        float64   `json:"duration"`        // seconds
	SampleRate      int       `json:"sampleRate"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// CachedWaveform is the durable cache entry shape: waveform data keyed
// by track id with the creation time used for oldest-first eviction.
type CachedWaveform struct {
	ID        string       `json:"id"`
	Data      WaveformData `json:"data"`
	CreatedAt int64        `json:"createdAt"` // unix milliseconds
}
