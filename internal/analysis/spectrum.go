package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Spectrum returns the frequencies in Hz and the magnitudes of the real FFT
// of samples taken every dt seconds. The mean is removed first so the zero
// bin only carries what is left of the offset.
func Spectrum(samples []float64, dt float64) (freqs, power []float64) {
	n := len(samples)
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	mean := stat.Mean(samples, nil)
	centered := make([]float64, n)
	for i, v := range samples {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	freqs = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = fft.Freq(i) / dt
		power[i] = cmplx.Abs(c)
	}
	return freqs, power
}

// DominantFrequency is the frequency of the largest non-zero bin, or zero
// when the signal is constant.
func DominantFrequency(samples []float64, dt float64) float64 {
	freqs, power := Spectrum(samples, dt)

	best, idx := 0.0, 0
	for i := 1; i < len(power); i++ {
		if power[i] > best {
			best = power[i]
			idx = i
		}
	}
	if idx == 0 || best < 1e-12 {
		return 0
	}
	return freqs[idx]
}
