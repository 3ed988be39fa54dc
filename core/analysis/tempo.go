package analysis

import "math"

// Envelope framing for the tempo pass. The hop sets the resolution of
// the lag grid: at 44.1kHz a 512-sample hop resolves 120 BPM to within
// a fraction of a beat.
const (
	tempoFrameSize = 1024
	tempoHopSize   = 512
)

// estimateTempo looks for a dominant periodicity in the onset strength
// of the signal. It returns found=false when the signal has no usable
// periodicity (silence, too short, or a flat envelope); it never
// fabricates a tempo.
//
// The pipeline is: frame-wise energy envelope, non-negative first
// difference as an onset proxy, then autocorrelation over the lag range
// corresponding to [minBPM, maxBPM], picking the lag with maximum
// correlation.
func estimateTempo(samples []float64, sampleRate int, minBPM, maxBPM float64) (bpm, confidence float64, found bool) {
	if sampleRate <= 0 || len(samples) < tempoFrameSize*2 {
		return 0, 0, false
	}

	nFrames := 1 + (len(samples)-tempoFrameSize)/tempoHopSize
	energy := make([]float64, nFrames)
	for i := 0; i < nFrames; i++ {
		start := i * tempoHopSize
		var sum float64
		for j := 0; j < tempoFrameSize; j++ {
			s := samples[start+j]
			sum += s * s
		}
		energy[i] = sum / float64(tempoFrameSize)
	}

	// Onset strength: energy rises only.
	onset := make([]float64, nFrames)
	for i := 1; i < nFrames; i++ {
		d := energy[i] - energy[i-1]
		if d > 0 {
			onset[i] = d
		}
	}

	hopRate := float64(sampleRate) / float64(tempoHopSize) // envelope frames per second
	minLag := int(math.Floor(60 * hopRate / maxBPM))
	maxLag := int(math.Ceil(60 * hopRate / minBPM))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= nFrames {
		maxLag = nFrames - 1
	}
	if minLag >= maxLag {
		return 0, 0, false
	}

	var corr0 float64
	for _, v := range onset {
		corr0 += v * v
	}
	if corr0 <= 0 {
		return 0, 0, false
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var c float64
		for i := 0; i+lag < nFrames; i++ {
			c += onset[i] * onset[i+lag]
		}
		if c > bestCorr {
			bestCorr = c
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr <= 0 {
		return 0, 0, false
	}

	bpm = 60 * hopRate / float64(bestLag)
	confidence = bestCorr / corr0
	if confidence > 1 {
		confidence = 1
	}
	return bpm, confidence, true
}
