// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pllsim

// A Divider divides the frequency of its input by N by counting input
// transitions: its output toggles after N and 2N transitions, the counter
// resetting on the latter.
//
// For even N the output has an exact 50% duty cycle. For odd N, high and low
// phases span a different number of input half-periods, so the output duty
// cycle follows that of the input.
//
type Divider struct {
	n     int
	count int
	ton   Logic
	last  Logic
}

// NewDivider returns a new divider with the N of cfg.Divider.
//
func NewDivider(cfg Config) (*Divider, error) {
	if cfg.Divider.N < 1 {
		return nil, configError("divider.n", cfg.Divider.N, "must be at least 1")
	}
	return &Divider{n: cfg.Divider.N}, nil
}

// Step feeds one input sample and returns the output sample.
//
func (d *Divider) Step(in Logic) Logic {
	if in != d.last {
		d.count++
		switch d.count {
		case 2 * d.n:
			d.count = 0
			d.ton = !d.ton
		case d.n:
			d.ton = !d.ton
		}
	}
	d.last = in
	return d.ton
}

// Run feeds all input samples and returns the output samples.
//
func (d *Divider) Run(in []Logic) []Logic {
	out := make([]Logic, len(in))
	for i, v := range in {
		out[i] = d.Step(v)
	}
	return out
}

// N returns the division ratio.
//
func (d *Divider) N() int { return d.n }
