// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package analysis

import (
	"fmt"
	"math"

	pll "github.com/db47h/pllsim"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Lock criteria.
//
const (
	// FrequencyTolerance is the maximum relative difference between the mean
	// divider and reference periods.
	FrequencyTolerance = 0.01
	// SettlingRatio is the maximum ratio of the control voltage variance over
	// the last tenth of a run to that of the first tenth.
	SettlingRatio = 0.6
)

// A Report summarizes the lock state of a closed loop run.
//
type Report struct {
	RefPeriod      float64 // mean reference period after settling, s
	DivPeriod      float64 // mean divider period after settling, s. +Inf if the divider has less than 2 edges.
	FrequencyError float64 // |DivPeriod - RefPeriod| / RefPeriod
	RefEdges       int     // reference rising edges after settling
	DivEdges       int     // divider rising edges after settling
	EdgeSlip       int     // RefEdges - DivEdges
	HeadVariance   float64 // control voltage variance over the first tenth of the run
	TailVariance   float64 // control voltage variance over the last tenth of the run
	Control        float64 // mean control voltage over the last tenth of the run
	Locked         bool
}

func (r *Report) String() string {
	state := "unlocked"
	if r.Locked {
		state = "locked"
	}
	return fmt.Sprintf("%s: ref period %.6g s, divider period %.6g s (%.3f%%), edge slip %d, control %.6g V, variance %.3g -> %.3g",
		state, r.RefPeriod, r.DivPeriod, r.FrequencyError*100, r.EdgeSlip, r.Control, r.HeadVariance, r.TailVariance)
}

// Lock analyzes the traces of a closed loop run. Edges are counted from sample
// settle·tr.Len() on, settle being in the range [0, 1).
//
// The loop is reported as locked if the divider did not slip more than one
// cycle with respect to the reference, its mean period is within
// FrequencyTolerance of the reference period, and the control voltage variance
// has decreased by at least SettlingRatio.
//
func Lock(tr *pll.Traces, settle float64) (Report, error) {
	var r Report
	n := tr.Len()
	if math.IsNaN(settle) || settle < 0 || settle >= 1 {
		return r, errors.Errorf("invalid settling fraction %g", settle)
	}
	if n < 10 {
		return r, errors.Errorf("trace too short: %d samples", n)
	}
	start := int(settle * float64(n))
	ref, div := risingFrom(tr.Ref, start), risingFrom(tr.Divider, start)
	var err error
	if r.RefPeriod, err = meanPeriod(ref, tr.TimeStep); err != nil {
		return r, errors.Wrap(err, "reference clock")
	}
	r.RefEdges, r.DivEdges = len(ref), len(div)
	r.EdgeSlip = r.RefEdges - r.DivEdges
	if r.DivPeriod, err = meanPeriod(div, tr.TimeStep); err != nil {
		r.DivPeriod = math.Inf(1)
	}
	r.FrequencyError = math.Abs(r.DivPeriod-r.RefPeriod) / r.RefPeriod

	w := n / 10
	r.HeadVariance = stat.PopVariance(tr.Filter[:w], nil)
	r.Control, r.TailVariance = stat.PopMeanVariance(tr.Filter[n-w:], nil)

	r.Locked = r.EdgeSlip >= -1 && r.EdgeSlip <= 1 &&
		r.FrequencyError <= FrequencyTolerance &&
		r.TailVariance < SettlingRatio*r.HeadVariance
	return r, nil
}
