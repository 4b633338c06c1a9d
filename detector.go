// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pllsim

// A PhaseDetector compares the rising edges of two logic signals a (reference)
// and b (feedback) and drives the charge pump of a LoopFilter.
//
// In Window mode, a rising edge on a opens an up window that lasts while a is
// High. The window closes when a goes Low, or when b is High on a step without
// a fresh edge of a. Down windows behave symmetrically. An output is asserted
// only while its window is open and a != b: an edge of b with a Low asserts
// down even if an earlier edge of a went unanswered.
//
// In TriState mode, an edge arms its channel until the other input has an
// edge too, at which point both are reset. up is asserted while armed, a is
// High and b is Low (and conversely for down).
//
// In both modes outputs are combinational: they depend on the inputs of the
// current step. If a == b neither output is asserted, and swapping a and b
// swaps up and down.
//
type PhaseDetector struct {
	mode         DetectorMode
	lastA, lastB Logic
	armA, armB   bool
}

// NewPhaseDetector returns a new Window mode phase detector with both inputs
// Low.
//
func NewPhaseDetector() *PhaseDetector {
	return &PhaseDetector{mode: Window}
}

// NewTriStateDetector returns a new TriState mode phase detector with both
// inputs Low.
//
func NewTriStateDetector() *PhaseDetector {
	return &PhaseDetector{mode: TriState}
}

func newPhaseDetector(cfg Config) (*PhaseDetector, error) {
	if err := cfg.Detector.validate(); err != nil {
		return nil, err
	}
	return &PhaseDetector{mode: cfg.Detector.Mode}, nil
}

// Mode returns the detector mode.
//
func (p *PhaseDetector) Mode() DetectorMode { return p.mode }

// Step feeds one sample of each input and returns the up and down outputs.
//
func (p *PhaseDetector) Step(a, b Logic) (up, down Logic) {
	ha, hb := bool(a), bool(b)
	ea, eb := rising(p.lastA, a), rising(p.lastB, b)
	p.lastA, p.lastB = a, b

	if p.mode == TriState {
		p.armA = p.armA || ea
		p.armB = p.armB || eb
		if p.armA && p.armB {
			p.armA, p.armB = false, false
		}
		return Logic(p.armA && ha && !hb), Logic(p.armB && hb && !ha)
	}

	p.armA = ha && (ea || p.armA) && !(hb && !ea)
	p.armB = hb && (eb || p.armB) && !(ha && !eb)
	return Logic(p.armA && ha != hb), Logic(p.armB && ha != hb)
}

// Run feeds all samples of a and b and returns the up and down outputs. It
// returns a *ConfigError if a and b do not have the same length.
//
func (p *PhaseDetector) Run(a, b []Logic) (up, down []Logic, err error) {
	if len(a) != len(b) {
		return nil, nil, configError("detector inputs", [2]int{len(a), len(b)}, "length mismatch")
	}
	up = make([]Logic, len(a))
	down = make([]Logic, len(a))
	for i := range a {
		up[i], down[i] = p.Step(a[i], b[i])
	}
	return up, down, nil
}
