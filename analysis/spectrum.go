// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/spectral"
	"github.com/mjibson/go-dsp/window"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// DominantFrequency returns the frequency of the strongest spectral component
// of x, sampled every dt seconds. The DC component is ignored.
//
// The peak is located on the FFT of the Hann windowed signal and refined by
// parabolic interpolation between neighbouring bins.
//
func DominantFrequency(x []float64, dt float64) (float64, error) {
	if len(x) < 4 {
		return 0, errors.Errorf("signal too short: %d samples", len(x))
	}
	m := stat.Mean(x, nil)
	buf := make([]float64, len(x))
	for i, v := range x {
		buf[i] = v - m
	}
	window.Apply(buf, window.Hann)
	spec := fft.FFTReal(buf)

	n := len(buf)/2 + 1
	mag := make([]float64, n)
	k := 1
	for i := 1; i < n; i++ {
		mag[i] = cmplx.Abs(spec[i])
		if mag[i] > mag[k] {
			k = i
		}
	}
	if mag[k] == 0 {
		return 0, errors.New("no spectral content")
	}
	d := 0.0
	if k > 1 && k < n-1 {
		a, b, c := mag[k-1], mag[k], mag[k+1]
		if den := a - 2*b + c; den != 0 {
			d = 0.5 * (a - c) / den
		}
	}
	return (float64(k) + d) / (float64(len(buf)) * dt), nil
}

// PSD estimates the power spectral density of x, sampled every dt seconds,
// using Welch's method with nfft points Hann windowed segments overlapping by
// half. It returns the density and the corresponding frequencies.
//
func PSD(x []float64, dt float64, nfft int) (pxx, freqs []float64) {
	buf := make([]float64, len(x))
	copy(buf, x)
	return spectral.Pwelch(buf, 1/dt, &spectral.PwelchOptions{
		NFFT:     nfft,
		Window:   window.Hann,
		Noverlap: nfft / 2,
	})
}
