// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pllsim

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// PCG stream selectors for the default noise sources.
const (
	streamOscillator = iota
	streamClock
	streamVCO
)

// An Oscillator is a phase accumulator driven by a control voltage. It models
// both the reference clock (with a constant zero control) and the VCO.
//
// The instantaneous frequency is f0 + k·v. The output is High when the cosine
// of the accumulated phase, perturbed by phase noise, is non-negative.
//
// Phase noise is resampled on every output transition. The white component is
// redrawn while the flicker component accumulates successive draws. Both are
// scaled by sqrt(h·|f|/2), h being the respective noise density and f the
// instantaneous frequency in Hz.
//
type Oscillator struct {
	name    string
	dt      float64
	p       OscillatorConfig
	src     rand.Source
	normal  distuv.Normal
	phase   float64
	white   float64
	flicker float64
	last    Logic
	steps   int
}

// An OscillatorOption configures optional aspects of an Oscillator.
//
type OscillatorOption func(*Oscillator)

// WithNoiseSource sets the random source used for phase noise. Sources must not
// be shared between oscillators if reproducible runs are expected.
//
func WithNoiseSource(src rand.Source) OscillatorOption {
	return func(o *Oscillator) {
		o.src = src
	}
}

func withName(name string) OscillatorOption {
	return func(o *Oscillator) {
		o.name = name
	}
}

// NewOscillator returns a new oscillator with parameters p. Unless set with
// WithNoiseSource, the noise source is a PCG generator seeded from cfg.Seed.
//
func NewOscillator(cfg Config, p OscillatorConfig, opts ...OscillatorOption) (*Oscillator, error) {
	return newOscillator(cfg, p, streamOscillator, opts)
}

// NewReferenceClock returns an oscillator with the parameters of cfg.Clock.
//
func NewReferenceClock(cfg Config, opts ...OscillatorOption) (*Oscillator, error) {
	return newOscillator(cfg, cfg.Clock, streamClock, append([]OscillatorOption{withName("clk")}, opts...))
}

// NewVCO returns an oscillator with the parameters of cfg.VCO.
//
func NewVCO(cfg Config, opts ...OscillatorOption) (*Oscillator, error) {
	return newOscillator(cfg, cfg.VCO, streamVCO, append([]OscillatorOption{withName("vco")}, opts...))
}

func newOscillator(cfg Config, p OscillatorConfig, stream uint64, opts []OscillatorOption) (*Oscillator, error) {
	if err := cfg.validateTime(); err != nil {
		return nil, err
	}
	o := &Oscillator{name: "oscillator", dt: cfg.TimeStep, p: p}
	for _, opt := range opts {
		opt(o)
	}
	if err := p.validate(o.name); err != nil {
		return nil, err
	}
	if o.src == nil {
		o.src = rand.NewPCG(cfg.Seed, stream)
	}
	o.normal = distuv.Normal{Mu: 0, Sigma: 1, Src: o.src}
	return o, nil
}

// Step advances the oscillator by one time step with control voltage v and
// returns its output.
//
func (o *Oscillator) Step(v float64) (Logic, error) {
	if !finite(v) {
		return Low, errors.WithStack(&NumericError{Component: o.name, Step: o.steps, Value: v})
	}
	o.phase += (2*math.Pi*o.p.Gain*v + 2*math.Pi*o.p.Frequency) * o.dt
	out := Logic(math.Cos(o.phase+o.white+o.flicker) >= 0)
	if out != o.last {
		o.resample(v)
	}
	o.last = out
	o.steps++
	return out, nil
}

func (o *Oscillator) resample(v float64) {
	f := math.Abs(o.p.Frequency + o.p.Gain*v)
	if o.p.WhiteNoise != 0 {
		o.white = o.normal.Rand() * math.Sqrt(o.p.WhiteNoise*f/2)
	}
	if o.p.FlickerNoise != 0 {
		o.flicker += o.normal.Rand() * math.Sqrt(o.p.FlickerNoise*f/2)
	}
}

// Run steps the oscillator over all control samples in vs and returns the
// output samples. It is equivalent to calling Step for each sample.
//
func (o *Oscillator) Run(vs []float64) ([]Logic, error) {
	out := make([]Logic, len(vs))
	for i, v := range vs {
		var err error
		if out[i], err = o.Step(v); err != nil {
			return out[:i], err
		}
	}
	return out, nil
}

// Phase returns the accumulated phase, in radians, without noise.
//
func (o *Oscillator) Phase() float64 { return o.phase }

// Steps returns the number of steps run so far.
//
func (o *Oscillator) Steps() int { return o.steps }
