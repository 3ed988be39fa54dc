package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/jvetere1999/passion-os-sub009/model"
)

// Band edges in Hz. The high band runs to Nyquist.
const (
	lowBandMinHz = 20.0
	lowBandMaxHz = 250.0
	midBandMaxHz = 4000.0
)

// amplitudeFloor keeps the dynamic-range log away from -inf on signals
// that touch zero.
const amplitudeFloor = 1e-10

// computeSpectrum produces the 3-band energy summary plus whole-window
// amplitude statistics. The transform runs over one deterministic
// window centered in the bounded sample prefix; band metrics are
// computed on max-normalized magnitudes so they land in [0,1].
func computeSpectrum(samples []float64, sampleRate, fftSize int) *model.FrequencySpectrum {
	if len(samples) == 0 || sampleRate <= 0 || fftSize <= 0 {
		return nil
	}

	// Centered window, zero-padded when the signal is shorter than one
	// transform.
	start := 0
	if len(samples) > fftSize {
		start = (len(samples) - fftSize) / 2
	}
	windowed := make([]float64, fftSize)
	for i := 0; i < fftSize; i++ {
		if start+i < len(samples) {
			windowed[i] = samples[start+i] * hann(i, fftSize)
		}
	}

	fft := fourier.NewFFT(fftSize)
	coeffs := fft.Coefficients(nil, windowed)
	bins := coeffs[:fftSize/2] // positive frequencies

	mags := make([]float64, len(bins))
	maxMag := 0.0
	for i, c := range bins {
		mags[i] = cmplx.Abs(c)
		if mags[i] > maxMag {
			maxMag = mags[i]
		}
	}
	if maxMag < amplitudeFloor {
		maxMag = amplitudeFloor
	}
	for i := range mags {
		mags[i] /= maxMag
	}

	binHz := float64(sampleRate) / float64(fftSize)
	nyquist := float64(sampleRate) / 2

	bands := []model.FrequencyBand{
		bandMetrics(model.BandLows, lowBandMinHz, lowBandMaxHz, mags, binHz),
		bandMetrics(model.BandMids, lowBandMaxHz, midBandMaxHz, mags, binHz),
		bandMetrics(model.BandHighs, midBandMaxHz, nyquist, mags, binHz),
	}

	// Amplitude statistics over the whole bounded window, not just the
	// transform slice.
	var sumSq, peak float64
	minAbs := math.MaxFloat64
	for _, s := range samples {
		a := math.Abs(s)
		sumSq += s * s
		if a > peak {
			peak = a
		}
		if a < minAbs {
			minAbs = a
		}
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))

	crest := 0.0
	if rms > 0 {
		crest = peak / rms
	}

	if minAbs < amplitudeFloor {
		minAbs = amplitudeFloor
	}
	dynamicRange := 20 * math.Log10(peak/minAbs)
	if math.IsInf(dynamicRange, 0) || math.IsNaN(dynamicRange) || dynamicRange < 0 {
		dynamicRange = 0
	}

	return &model.FrequencySpectrum{
		Bands:         bands,
		OverallRMS:    rms,
		DynamicRange:  dynamicRange,
		CrestFactor:   crest,
		PeakAmplitude: peak,
	}
}

// bandMetrics aggregates the normalized magnitudes whose bin frequency
// falls in [minHz, maxHz).
func bandMetrics(name string, minHz, maxHz float64, mags []float64, binHz float64) model.FrequencyBand {
	band := model.FrequencyBand{Name: name, MinHz: minHz, MaxHz: maxHz}

	var sumSq, sum, peak float64
	count := 0
	for i, m := range mags {
		freq := float64(i) * binHz
		if freq < minHz || freq >= maxHz {
			continue
		}
		sumSq += m * m
		sum += m
		if m > peak {
			peak = m
		}
		count++
	}
	if count == 0 {
		return band
	}

	band.Energy = math.Sqrt(sumSq / float64(count))
	band.Peak = peak
	band.Average = sum / float64(count)
	return band
}

func hann(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
}
