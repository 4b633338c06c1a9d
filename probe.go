// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pllsim

// A Snapshot holds the value of every probe point of a Loop at one step.
//
type Snapshot struct {
	Step     int
	Time     float64
	Ref      Logic   // reference clock output
	Feedback Logic   // divider sample seen by the detector (previous step's Divider)
	Up       Logic   // detector up output
	Down     Logic   // detector down output
	Control  float64 // loop filter output
	VCO      Logic   // VCO output
	Divider  Logic   // divider output
}

// A Probe is called by a Loop at the end of every step.
//
type Probe interface {
	Probe(s *Snapshot)
}

// ProbeFunc adapts a function to the Probe interface.
//
type ProbeFunc func(s *Snapshot)

// Probe calls f(s).
//
func (f ProbeFunc) Probe(s *Snapshot) { f(s) }

// Traces holds the recorded probe points of a simulation. All slices are
// aligned on the time grid t = i·TimeStep.
//
type Traces struct {
	TimeStep float64
	Ref      []Logic
	Divider  []Logic
	Up       []Logic
	Down     []Logic
	VCO      []Logic
	Filter   []float64
}

// NewTraces returns empty traces with room for n samples.
//
func NewTraces(dt float64, n int) *Traces {
	return &Traces{
		TimeStep: dt,
		Ref:      make([]Logic, 0, n),
		Divider:  make([]Logic, 0, n),
		Up:       make([]Logic, 0, n),
		Down:     make([]Logic, 0, n),
		VCO:      make([]Logic, 0, n),
		Filter:   make([]float64, 0, n),
	}
}

// Probe implements Probe by appending s to the traces.
//
func (t *Traces) Probe(s *Snapshot) {
	t.Ref = append(t.Ref, s.Ref)
	t.Divider = append(t.Divider, s.Divider)
	t.Up = append(t.Up, s.Up)
	t.Down = append(t.Down, s.Down)
	t.VCO = append(t.VCO, s.VCO)
	t.Filter = append(t.Filter, s.Control)
}

// Len returns the number of recorded samples.
//
func (t *Traces) Len() int { return len(t.Filter) }

// Time returns the time of sample i.
//
func (t *Traces) Time(i int) float64 { return float64(i) * t.TimeStep }

// Logic returns the logic trace with the given name: ref, divider, up, down or
// vco. It returns nil for any other name.
//
func (t *Traces) Logic(name string) []Logic {
	switch name {
	case "ref":
		return t.Ref
	case "divider":
		return t.Divider
	case "up":
		return t.Up
	case "down":
		return t.Down
	case "vco":
		return t.VCO
	}
	return nil
}

// Slice returns a view of the traces restricted to samples [i, j). Sample
// times of the returned traces are relative to sample i.
//
func (t *Traces) Slice(i, j int) *Traces {
	return &Traces{
		TimeStep: t.TimeStep,
		Ref:      t.Ref[i:j],
		Divider:  t.Divider[i:j],
		Up:       t.Up[i:j],
		Down:     t.Down[i:j],
		VCO:      t.VCO[i:j],
		Filter:   t.Filter[i:j],
	}
}
