package model

// Frequency band names.
const (
	BandLows  = "lows"
	BandMids  = "mids"
	BandHighs = "highs"
)

// Analysis sources.
const (
	AnalysisSourceHeuristic = "heuristic" // computed in-process
	AnalysisSourcePlatform  = "platform"  // supplied by an external service
)

// FrequencyBand is the aggregate energy of one contiguous frequency
// range. Energy, Peak and Average are normalized to [0,1].
type FrequencyBand struct {
	Name    string  `json:"name"` // lows, mids, highs
	MinHz   float64 `json:"minHz"`
	MaxHz   float64 `json:"maxHz"`
	Energy  float64 `json:"energy"` // RMS of normalized magnitudes
	Peak    float64 `json:"peak"`
	Average float64 `json:"average"`
}

// FrequencySpectrum is the 3-band energy summary of one analysis run,
// produced once, never incrementally updated.
type FrequencySpectrum struct {
	Bands         []FrequencyBand `json:"bands"`
	OverallRMS    float64         `json:"overallRms"`
	DynamicRange  float64         `json:"dynamicRange"` // dB
	CrestFactor   float64         `json:"crestFactor"`  // peak / RMS
	PeakAmplitude float64         `json:"peakAmplitude"`
}

// AudioAnalysis is the result of a batch analysis pass. BPM is nil when
// no periodicity was found, never 0.
type AudioAnalysis struct {
	BPM        *float64           `json:"bpm,omitempty"`
	Key        *string            `json:"key,omitempty"`
	Confidence *float64           `json:"confidence,omitempty"`
	Source     string             `json:"source"` // heuristic, platform
	Spectrum   *FrequencySpectrum `json:"spectrum,omitempty"`
}
