package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrTooShort = errors.New("analysis: not enough samples")

// PowerSpectrum returns the magnitude of the first half of the spectrum of
// data with its mean removed, zero padded to a power of two.
func PowerSpectrum(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}

	buf := make([]float64, n)
	for i, v := range data {
		buf[i] = v - mean
	}

	spec := fft.FFTReal(buf)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantFrequency returns the strongest non-DC frequency, in Hz, of
// samples taken every dt seconds.
func DominantFrequency(samples []float64, dt float64) (float64, error) {
	if len(samples) < 4 || dt <= 0 {
		return 0, ErrTooShort
	}

	ps := PowerSpectrum(samples)
	n := len(ps) * 2

	peak, idx := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > peak {
			peak, idx = ps[i], i
		}
	}
	if idx == 0 {
		return 0, nil
	}
	return float64(idx) / (float64(n) * dt), nil
}
