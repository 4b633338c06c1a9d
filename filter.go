// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pllsim

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// A LoopFilter converts the up/down outputs of a PhaseDetector into a control
// voltage. The charge pump sources PullUp amperes while up is asserted and
// sinks |PullDown| amperes while down is asserted. The resulting current is fed
// into either:
//
//	R unset:     a capacitor C (pure integrator)
//	R set:       R in parallel with C, settling to i·R under a constant current
//	C2 set:      the above followed by a second R·C2 low-pass stage
//
// The Discretized mode uses the recursion y[n] = α·y[n-1] + β·i[n]. The Exact
// mode integrates the continuous-time network over each step, assuming the
// current varies linearly between two samples.
//
type LoopFilter struct {
	pullUp, pullDown float64
	r                realization
	y                float64
	steps            int
}

type realization interface {
	step(i float64) float64
}

// NewLoopFilter returns a new loop filter with the parameters of cfg.Filter.
//
func NewLoopFilter(cfg Config) (*LoopFilter, error) {
	if err := cfg.validateTime(); err != nil {
		return nil, err
	}
	fc := cfg.Filter
	if err := fc.validate(); err != nil {
		return nil, err
	}
	lf := &LoopFilter{pullUp: fc.PullUp, pullDown: -math.Abs(fc.PullDown)}
	switch fc.Mode {
	case Discretized:
		lf.r = newRecursive(cfg.TimeStep, &fc)
	case Exact:
		lf.r = newStateSpace(cfg.TimeStep, &fc)
	}
	return lf, nil
}

// Current returns the charge pump current for the given detector outputs.
//
func (lf *LoopFilter) Current(up, down Logic) float64 {
	return up.Float()*lf.pullUp + down.Float()*lf.pullDown
}

// Step feeds one sample of the detector outputs and returns the control
// voltage.
//
func (lf *LoopFilter) Step(up, down Logic) float64 {
	lf.y = lf.r.step(lf.Current(up, down))
	lf.steps++
	return lf.y
}

// StepCurrent feeds the charge pump current i directly and returns the control
// voltage.
//
func (lf *LoopFilter) StepCurrent(i float64) (float64, error) {
	if !finite(i) {
		return lf.y, errors.WithStack(&NumericError{Component: "loop filter", Step: lf.steps, Value: i})
	}
	lf.y = lf.r.step(i)
	lf.steps++
	return lf.y, nil
}

// Run feeds all samples of up and down and returns the control voltages. It
// returns a *ConfigError if up and down do not have the same length.
//
func (lf *LoopFilter) Run(up, down []Logic) ([]float64, error) {
	if len(up) != len(down) {
		return nil, configError("loop filter inputs", [2]int{len(up), len(down)}, "length mismatch")
	}
	out := make([]float64, len(up))
	for i := range up {
		out[i] = lf.Step(up[i], down[i])
	}
	return out, nil
}

// RunCurrent feeds all current samples in is and returns the control voltages.
//
func (lf *LoopFilter) RunCurrent(is []float64) ([]float64, error) {
	out := make([]float64, len(is))
	for n, i := range is {
		var err error
		if out[n], err = lf.StepCurrent(i); err != nil {
			return out[:n], err
		}
	}
	return out, nil
}

// Output returns the last computed control voltage.
//
func (lf *LoopFilter) Output() float64 { return lf.y }

// recursive is the Discretized realization.
type recursive struct {
	alpha, beta float64
	alpha2      float64
	stage2      bool
	y, y2       float64
}

func newRecursive(dt float64, fc *FilterConfig) *recursive {
	if fc.R == 0 {
		return &recursive{alpha: 1, beta: dt / fc.C}
	}
	a := math.Exp(-dt / (fc.R * fc.C))
	r := &recursive{alpha: a, beta: fc.R * (1 - a)}
	if fc.C2 > 0 {
		r.stage2 = true
		r.alpha2 = math.Exp(-dt / (fc.R * fc.C2))
	}
	return r
}

func (r *recursive) step(i float64) float64 {
	r.y = r.alpha*r.y + r.beta*i
	if !r.stage2 {
		return r.y
	}
	r.y2 = r.alpha2*r.y2 + (1-r.alpha2)*r.y
	return r.y2
}

// stateSpace is the Exact realization of x' = A·x + B·i, with the last state
// as output.
type stateSpace struct {
	phi    *mat.Dense
	g1, g2 *mat.VecDense // coefficients of the previous and current inputs
	x, tmp *mat.VecDense
	prev   float64
}

func newStateSpace(dt float64, fc *FilterConfig) *stateSpace {
	var a *mat.Dense
	var b []float64
	switch {
	case fc.R == 0:
		a = mat.NewDense(1, 1, []float64{0})
		b = []float64{1 / fc.C}
	case fc.C2 == 0:
		a = mat.NewDense(1, 1, []float64{-1 / (fc.R * fc.C)})
		b = []float64{1 / fc.C}
	default:
		a = mat.NewDense(2, 2, []float64{
			-1 / (fc.R * fc.C), 0,
			1 / (fc.R * fc.C2), -1 / (fc.R * fc.C2),
		})
		b = []float64{1 / fc.C, 0}
	}
	phi, g1, g2 := discretizeFOH(a, b, dt)
	n := len(b)
	return &stateSpace{
		phi: phi,
		g1:  g1,
		g2:  g2,
		x:   mat.NewVecDense(n, nil),
		tmp: mat.NewVecDense(n, nil),
	}
}

// discretizeFOH returns Φ, Γ1-Γ2 and Γ2 such that, for an input varying
// linearly from u[k] to u[k+1] over dt,
//
//	x[k+1] = Φ·x[k] + (Γ1-Γ2)·u[k] + Γ2·u[k+1]
//
// They are read from the exponential of the augmented matrix
//
//	| A·dt  B·dt  0 |
//	|  0     0    1 |
//	|  0     0    0 |
//
func discretizeFOH(a *mat.Dense, b []float64, dt float64) (phi *mat.Dense, g1, g2 *mat.VecDense) {
	n := len(b)
	m := mat.NewDense(n+2, n+2, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, a.At(i, j)*dt)
		}
		m.Set(i, n, b[i]*dt)
	}
	m.Set(n, n+1, 1)
	var e mat.Dense
	e.Exp(m)
	phi = mat.DenseCopyOf(e.Slice(0, n, 0, n))
	g1 = mat.NewVecDense(n, nil)
	g2 = mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		g2.SetVec(i, e.At(i, n+1))
		g1.SetVec(i, e.At(i, n)-e.At(i, n+1))
	}
	return phi, g1, g2
}

func (s *stateSpace) step(i float64) float64 {
	s.tmp.MulVec(s.phi, s.x)
	s.tmp.AddScaledVec(s.tmp, s.prev, s.g1)
	s.tmp.AddScaledVec(s.tmp, i, s.g2)
	s.x.CopyVec(s.tmp)
	s.prev = i
	return s.x.AtVec(s.x.Len() - 1)
}
