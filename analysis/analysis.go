// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package analysis provides measurements on simulation traces: edges, periods,
// duty cycle, jitter, spectra and loop lock detection.
//
// Periods and frequencies are returned in seconds and Hz, given the time step
// of the traces.
//
package analysis

import (
	"math"

	pll "github.com/db47h/pllsim"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewEdges is returned when a trace does not have enough edges for a
// measurement.
//
var ErrTooFewEdges = errors.New("not enough edges")

// RisingEdges returns the indices i > 0 such that s[i-1] is Low and s[i] is
// High.
//
func RisingEdges(s []pll.Logic) []int {
	return risingFrom(s, 1)
}

func risingFrom(s []pll.Logic, start int) []int {
	if start < 1 {
		start = 1
	}
	var r []int
	for i := start; i < len(s); i++ {
		if s[i] && !s[i-1] {
			r = append(r, i)
		}
	}
	return r
}

// Periods returns the time between consecutive edges.
//
func Periods(edges []int, dt float64) []float64 {
	if len(edges) < 2 {
		return nil
	}
	p := make([]float64, len(edges)-1)
	for i := range p {
		p[i] = float64(edges[i+1]-edges[i]) * dt
	}
	return p
}

func meanPeriod(edges []int, dt float64) (float64, error) {
	if len(edges) < 2 {
		return 0, ErrTooFewEdges
	}
	return float64(edges[len(edges)-1]-edges[0]) / float64(len(edges)-1) * dt, nil
}

// MeanPeriod returns the mean period of s, measured between its first and last
// rising edges.
//
func MeanPeriod(s []pll.Logic, dt float64) (float64, error) {
	return meanPeriod(RisingEdges(s), dt)
}

// FitPeriod estimates the period of s by a least squares fit of its rising edge
// times against the edge count. Unlike MeanPeriod, it uses every edge.
//
func FitPeriod(s []pll.Logic, dt float64) (float64, error) {
	edges := RisingEdges(s)
	if len(edges) < 2 {
		return 0, ErrTooFewEdges
	}
	x := make([]float64, len(edges))
	y := make([]float64, len(edges))
	for i, e := range edges {
		x[i] = float64(i)
		y[i] = float64(e) * dt
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	return beta, nil
}

// Runs returns the lengths, in samples, of the complete High and Low runs of s.
// Runs truncated by either end of s are not counted.
//
func Runs(s []pll.Logic) (high, low []int) {
	start := -1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			continue
		}
		if start >= 0 {
			if s[i-1] {
				high = append(high, i-start)
			} else {
				low = append(low, i-start)
			}
		}
		start = i
	}
	return high, low
}

// DutyCycle returns the fraction of time s is High, measured over whole periods
// between its first and last rising edges.
//
func DutyCycle(s []pll.Logic) (float64, error) {
	edges := RisingEdges(s)
	if len(edges) < 2 {
		return 0, ErrTooFewEdges
	}
	var n int
	for _, v := range s[edges[0]:edges[len(edges)-1]] {
		if v {
			n++
		}
	}
	return float64(n) / float64(edges[len(edges)-1]-edges[0]), nil
}

// Jitter returns the RMS and peak to peak period jitter of s.
//
func Jitter(s []pll.Logic, dt float64) (rms, pp float64, err error) {
	p := Periods(RisingEdges(s), dt)
	if len(p) < 2 {
		return 0, 0, ErrTooFewEdges
	}
	lo, hi := p[0], p[0]
	for _, v := range p[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return stat.PopStdDev(p, nil), hi - lo, nil
}

// Variance returns the population variance of x.
//
func Variance(x []float64) float64 {
	return stat.PopVariance(x, nil)
}

// Float returns the logic samples of s as 0 or 1.
//
func Float(s []pll.Logic) []float64 {
	r := make([]float64, len(s))
	for i, v := range s {
		r[i] = v.Float()
	}
	return r
}
