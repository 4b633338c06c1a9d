// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pllsim

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// link names
const (
	linkRef      = "ref"
	linkUp       = "up"
	linkDown     = "down"
	linkControl  = "control"
	linkVCO      = "vco"
	linkFeedback = "feedback"
)

// A Loop is a runnable closed-loop PLL simulation.
//
// Each step runs the reference clock, the phase detector, the loop filter, the
// VCO and the divider, in that order. The divider output is fed back to the
// phase detector through a delayed link: the detector sees at step i the
// divider output of step i-1 (Low at step 0).
//
type Loop struct {
	cfg Config
	ref *Oscillator
	pfd *PhaseDetector
	lf  *LoopFilter
	vco *Oscillator
	div *Divider

	stages []stage
	snap   Snapshot
	probes []Probe
	traces *Traces
	step   int
	err    error

	clkOpts, vcoOpts []OscillatorOption
}

// A LoopOption configures optional aspects of a Loop.
//
type LoopOption func(*Loop)

// WithProbe registers a probe called at the end of every step.
//
func WithProbe(p Probe) LoopOption {
	return func(l *Loop) {
		l.probes = append(l.probes, p)
	}
}

// WithTraces enables recording of all probe points. See Loop.Traces.
//
func WithTraces() LoopOption {
	return func(l *Loop) {
		l.traces = NewTraces(l.cfg.TimeStep, l.cfg.SampleCount)
		l.probes = append(l.probes, l.traces)
	}
}

// WithVCONoiseSource sets the random source of the VCO phase noise.
//
func WithVCONoiseSource(src rand.Source) LoopOption {
	return func(l *Loop) {
		l.vcoOpts = append(l.vcoOpts, WithNoiseSource(src))
	}
}

// WithClockNoiseSource sets the random source of the reference clock phase
// noise.
//
func WithClockNoiseSource(src rand.Source) LoopOption {
	return func(l *Loop) {
		l.clkOpts = append(l.clkOpts, WithNoiseSource(src))
	}
}

// NewLoop validates cfg and builds a new closed loop.
//
func NewLoop(cfg Config, opts ...LoopOption) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Loop{cfg: cfg}
	for _, opt := range opts {
		opt(l)
	}

	var err error
	if l.ref, err = NewReferenceClock(cfg, l.clkOpts...); err != nil {
		return nil, errors.Wrap(err, "reference clock")
	}
	if l.pfd, err = newPhaseDetector(cfg); err != nil {
		return nil, errors.Wrap(err, "phase detector")
	}
	if l.lf, err = NewLoopFilter(cfg); err != nil {
		return nil, errors.Wrap(err, "loop filter")
	}
	if l.vco, err = NewVCO(cfg, l.vcoOpts...); err != nil {
		return nil, errors.Wrap(err, "vco")
	}
	if l.div, err = NewDivider(cfg); err != nil {
		return nil, errors.Wrap(err, "divider")
	}

	var (
		ref      = newLink[Logic](linkRef, false)
		up       = newLink[Logic](linkUp, false)
		down     = newLink[Logic](linkDown, false)
		ctl      = newLink[float64](linkControl, false)
		vco      = newLink[Logic](linkVCO, false)
		feedback = newLink[Logic](linkFeedback, true)
	)
	l.stages = []stage{
		{"clk", nil, []string{linkRef}, func(step int) error {
			v, err := l.ref.Step(0)
			if err != nil {
				return err
			}
			ref.put(step, v)
			l.snap.Ref = v
			return nil
		}},
		{"pfd", []string{linkRef, linkFeedback}, []string{linkUp, linkDown}, func(step int) error {
			a, err := ref.get(step)
			if err != nil {
				return err
			}
			b, err := feedback.get(step)
			if err != nil {
				return err
			}
			u, d := l.pfd.Step(a, b)
			up.put(step, u)
			down.put(step, d)
			l.snap.Feedback, l.snap.Up, l.snap.Down = b, u, d
			return nil
		}},
		{"lf", []string{linkUp, linkDown}, []string{linkControl}, func(step int) error {
			u, err := up.get(step)
			if err != nil {
				return err
			}
			d, err := down.get(step)
			if err != nil {
				return err
			}
			v := l.lf.Step(u, d)
			ctl.put(step, v)
			l.snap.Control = v
			return nil
		}},
		{"vco", []string{linkControl}, []string{linkVCO}, func(step int) error {
			v, err := ctl.get(step)
			if err != nil {
				return err
			}
			out, err := l.vco.Step(v)
			if err != nil {
				return err
			}
			vco.put(step, out)
			l.snap.VCO = out
			return nil
		}},
		{"div", []string{linkVCO}, []string{linkFeedback}, func(step int) error {
			v, err := vco.get(step)
			if err != nil {
				return err
			}
			out := l.div.Step(v)
			feedback.put(step, out)
			l.snap.Divider = out
			return nil
		}},
	}
	if _, err = newWiring(l.stages, linkFeedback); err != nil {
		return nil, err
	}
	return l, nil
}

// Step advances the simulation by one time step. It returns ErrDone once
// SampleCount steps have been run. Once Step has returned an error, all
// subsequent calls return the same error.
//
func (l *Loop) Step() error {
	if l.err != nil {
		return l.err
	}
	if l.step >= l.cfg.SampleCount {
		return ErrDone
	}
	for i := range l.stages {
		s := &l.stages[i]
		if err := s.run(l.step); err != nil {
			l.err = errors.Wrapf(err, "%s: step %d", s.name, l.step)
			return l.err
		}
	}
	l.snap.Step = l.step
	l.snap.Time = float64(l.step) * l.cfg.TimeStep
	for _, p := range l.probes {
		p.Probe(&l.snap)
	}
	l.step++
	return nil
}

// Run runs all remaining steps.
//
func (l *Loop) Run() error {
	for {
		switch err := l.Step(); err {
		case nil:
		case ErrDone:
			return nil
		default:
			return err
		}
	}
}

// Steps returns the number of steps run so far.
//
func (l *Loop) Steps() int { return l.step }

// Done returns true if all steps have been run.
//
func (l *Loop) Done() bool { return l.step >= l.cfg.SampleCount }

// Config returns the loop configuration.
//
func (l *Loop) Config() Config { return l.cfg }

// Traces returns the recorded traces, or nil if the loop was not built with
// WithTraces.
//
func (l *Loop) Traces() *Traces { return l.traces }

// Snapshot returns the probe points of the last step.
//
func (l *Loop) Snapshot() Snapshot { return l.snap }
