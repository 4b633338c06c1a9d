// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package scope renders simulation traces, either as an interactive HTML page
// or as PNG images.
//
package scope

import (
	"strconv"

	pll "github.com/db47h/pllsim"
	"github.com/pkg/errors"
)

// Probes lists the names of the probe points that can be rendered.
//
var Probes = []string{"ref", "divider", "up", "down", "filter", "vco"}

// Options configures rendering.
//
type Options struct {
	Title string
	// Decimate keeps one sample out of Decimate. Values below 2 keep all
	// samples.
	Decimate int
	VDD, VSS float64 // logic levels, VDD = VSS = 0 renders logic as 0/1
}

func (o *Options) step() int {
	if o.Decimate < 2 {
		return 1
	}
	return o.Decimate
}

func (o *Options) level(l pll.Logic) float64 {
	if o.VDD == 0 && o.VSS == 0 {
		return l.Float()
	}
	return l.Level(o.VDD, o.VSS)
}

// series returns the decimated samples of the given probe point and whether
// it is a logic trace.
//
func series(tr *pll.Traces, probe string, o *Options) (ys []float64, logic bool, err error) {
	k := o.step()
	if probe == "filter" {
		ys = make([]float64, 0, tr.Len()/k+1)
		for i := 0; i < len(tr.Filter); i += k {
			ys = append(ys, tr.Filter[i])
		}
		return ys, false, nil
	}
	s := tr.Logic(probe)
	if s == nil {
		return nil, false, errors.Errorf("unknown probe %q", probe)
	}
	ys = make([]float64, 0, len(s)/k+1)
	for i := 0; i < len(s); i += k {
		ys = append(ys, o.level(s[i]))
	}
	return ys, true, nil
}

func times(tr *pll.Traces, o *Options) []float64 {
	k := o.step()
	ts := make([]float64, 0, tr.Len()/k+1)
	for i := 0; i < tr.Len(); i += k {
		ts = append(ts, tr.Time(i))
	}
	return ts
}

func formatNs(t float64) string {
	return strconv.FormatFloat(t*1e9, 'f', 3, 64)
}
