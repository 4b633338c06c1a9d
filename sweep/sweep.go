// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package sweep runs a simulation repeatedly over a range of values of one
// parameter.
//
// Every run gets a new configuration derived from the base one and a new Loop.
// Runs are independent and spread over a pool of worker goroutines.
//
package sweep

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	pll "github.com/db47h/pllsim"
	"github.com/db47h/pllsim/analysis"
	"github.com/pkg/errors"
)

// A Param is a swept configuration parameter.
//
type Param struct {
	Name string
	// Set returns a copy of cfg with the parameter set to v.
	Set func(cfg pll.Config, v float64) (pll.Config, error)
}

// Built-in parameters.
//
var (
	DividerN = Param{"n", func(cfg pll.Config, v float64) (pll.Config, error) {
		if v != math.Trunc(v) || v < 1 || v > math.MaxInt32 {
			return cfg, errors.WithStack(&pll.ConfigError{Param: "divider.n", Value: v, Reason: "must be a positive integer"})
		}
		cfg.Divider.N = int(v)
		return cfg, nil
	}}
	Resistor = Param{"r", func(cfg pll.Config, v float64) (pll.Config, error) {
		if !(v > 0) {
			return cfg, errors.WithStack(&pll.ConfigError{Param: "R", Value: v, Reason: "must be a positive number"})
		}
		cfg.Filter.R = v
		return cfg, nil
	}}
	Capacitor = Param{"c", func(cfg pll.Config, v float64) (pll.Config, error) {
		cfg.Filter.C = v
		return cfg, nil
	}}
	VCOGain = Param{"k_vco", func(cfg pll.Config, v float64) (pll.Config, error) {
		cfg.VCO.Gain = v
		return cfg, nil
	}}
	PullCurrent = Param{"gain", func(cfg pll.Config, v float64) (pll.Config, error) {
		cfg.Filter.PullUp, cfg.Filter.PullDown = v, v
		return cfg, nil
	}}
	WhiteNoise = Param{"white_noise", func(cfg pll.Config, v float64) (pll.Config, error) {
		cfg.VCO.WhiteNoise = v
		return cfg, nil
	}}
)

var params = map[string]Param{}

func init() {
	for _, p := range []Param{DividerN, Resistor, Capacitor, VCOGain, PullCurrent, WhiteNoise} {
		params[p.Name] = p
	}
}

// Lookup returns the built-in parameter with the given name.
//
func Lookup(name string) (Param, bool) {
	p, ok := params[name]
	return p, ok
}

// Names returns the names of the built-in parameters.
//
func Names() []string {
	ns := make([]string, 0, len(params))
	for n := range params {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

// Settle is the fraction of each run ignored by lock detection.
//
const Settle = 0.2

// A Result holds the outcome of one run.
//
type Result struct {
	Value  float64
	Config pll.Config
	Report analysis.Report
	Err    error
}

// Run runs one simulation per value in values, with p set to that value in a
// copy of base, and returns the results in the same order as values.
//
// workers is the number of simulations run concurrently. If less or equal to
// 0, the value of GOMAXPROCS is used.
//
// If ctx is cancelled, runs not yet started are skipped and their result
// carries the context error, which Run returns as well. Started runs always
// complete.
//
func Run(ctx context.Context, base pll.Config, p Param, values []float64, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers > len(values) {
		workers = len(values)
	}
	res := make([]Result, len(values))
	for i, v := range values {
		res[i].Value = v
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				res[i].Config, res[i].Report, res[i].Err = run(base, p, res[i].Value)
			}
		}()
	}

	sent := 0
loop:
	for sent < len(values) && ctx.Err() == nil {
		select {
		case jobs <- sent:
			sent++
		case <-ctx.Done():
			break loop
		}
	}
	close(jobs)
	wg.Wait()

	if sent < len(values) {
		err := ctx.Err()
		for i := sent; i < len(values); i++ {
			res[i].Err = err
		}
		return res, err
	}
	return res, nil
}

func run(base pll.Config, p Param, v float64) (pll.Config, analysis.Report, error) {
	cfg, err := p.Set(base, v)
	if err != nil {
		return cfg, analysis.Report{}, err
	}
	l, err := pll.NewLoop(cfg, pll.WithTraces())
	if err != nil {
		return cfg, analysis.Report{}, err
	}
	if err = l.Run(); err != nil {
		return cfg, analysis.Report{}, err
	}
	r, err := analysis.Lock(l.Traces(), Settle)
	return cfg, r, err
}
