package pllsim_test

import (
	"math"
	"testing"

	pll "github.com/db47h/pllsim"
	"github.com/pkg/errors"
)

func filterConfig(r, c, c2 float64, mode pll.FilterMode) pll.Config {
	cfg := pll.DefaultConfig()
	cfg.Filter.R = r
	cfg.Filter.C = c
	cfg.Filter.C2 = c2
	cfg.Filter.Mode = mode
	return cfg
}

func newFilter(t *testing.T, cfg pll.Config) *pll.LoopFilter {
	t.Helper()
	lf, err := pll.NewLoopFilter(cfg)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return lf
}

func constant(n int, v float64) []float64 {
	r := make([]float64, n)
	for i := range r {
		r[i] = v
	}
	return r
}

func TestLoopFilter_integrator(t *testing.T) {
	cfg := pll.DefaultConfig()
	for _, pd := range []float64{2.5e-5, -2.5e-5} {
		cfg.Filter.PullDown = pd
		lf := newFilter(t, cfg)
		slope := cfg.Filter.PullUp * cfg.TimeStep / cfg.Filter.C
		for i := 0; i < 100; i++ {
			if y := lf.Step(pll.High, pll.Low); math.Abs(y-slope*float64(i+1)) > 1e-12 {
				t.Fatalf("step %d: expected %g, got %g", i, slope*float64(i+1), y)
			}
		}
		// pull down, whatever the sign in cfg
		for i := 0; i < 100; i++ {
			lf.Step(pll.Low, pll.High)
		}
		if y := lf.Output(); math.Abs(y) > 1e-12 {
			t.Fatalf("pull_down=%g: expected 0 after equal up and down times, got %g", pd, y)
		}
	}
}

func TestLoopFilter_rc(t *testing.T) {
	const (
		r = 1000.0
		c = 1e-12
		i = 1e-4
	)
	cfg := filterConfig(r, c, 0, pll.Discretized)
	alpha := math.Exp(-cfg.TimeStep / (r * c))
	ys, err := newFilter(t, cfg).RunCurrent(constant(2000, i))
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	target := i * r
	prev := 0.0
	for n, y := range ys {
		if y > target*(1+1e-12) {
			t.Fatalf("step %d: overshoot %g", n, y)
		}
		if ratio := (target - y) / (target - prev); n < 500 && math.Abs(ratio-alpha) > 1e-9 {
			t.Fatalf("step %d: expected convergence ratio %g, got %g", n, alpha, ratio)
		}
		prev = y
	}
	if y := ys[len(ys)-1]; math.Abs(y-target) > 1e-6 {
		t.Fatalf("expected to settle to %g, got %g", target, y)
	}
}

func TestLoopFilter_secondStage(t *testing.T) {
	for _, mode := range []pll.FilterMode{pll.Discretized, pll.Exact} {
		ys, err := newFilter(t, filterConfig(1000, 1e-12, 1e-12, mode)).RunCurrent(constant(5000, 1e-4))
		if err != nil {
			trace(t, err)
			t.Fatal(err)
		}
		// the second stage lags the first one
		if ys[0] > 1e-4 {
			t.Errorf("%v: unexpected first output %g", mode, ys[0])
		}
		if y := ys[len(ys)-1]; math.Abs(y-0.1) > 1e-6 {
			t.Errorf("%v: expected to settle to 0.1, got %g", mode, y)
		}
	}
}

func TestLoopFilter_exact(t *testing.T) {
	const n = 4000
	updown := func() (up, down []pll.Logic) {
		up, down = make([]pll.Logic, n), make([]pll.Logic, n)
		for i := 0; i < n; i++ {
			if i < n/2 {
				up[i] = pll.High
			} else {
				down[i] = pll.High
			}
		}
		return up, down
	}
	data := []struct {
		name     string
		r, c, c2 float64
	}{
		{"integrator", 0, 1.6e-11, 0},
		{"rc", 2e4, 2e-12, 0},
		{"rc+c2", 2e4, 2e-12, 2e-12},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			up, down := updown()
			want, err := newFilter(t, filterConfig(d.r, d.c, d.c2, pll.Discretized)).Run(up, down)
			if err != nil {
				t.Fatal(err)
			}
			got, err := newFilter(t, filterConfig(d.r, d.c, d.c2, pll.Exact)).Run(up, down)
			if err != nil {
				t.Fatal(err)
			}
			var max float64
			for _, v := range want {
				max = math.Max(max, math.Abs(v))
			}
			for i := range want {
				if e := math.Abs(got[i]-want[i]) / max; e > 1e-3 {
					t.Fatalf("sample %d: relative difference %g > 1e-3 (%g vs %g)", i, e, got[i], want[i])
				}
			}
		})
	}
}

func TestLoopFilter_stepRun(t *testing.T) {
	for _, mode := range []pll.FilterMode{pll.Discretized, pll.Exact} {
		cfg := filterConfig(5000, 1e-12, 0, mode)
		up, down := square(3000, 30, 70), delay(square(3000, 30, 70), 10)
		want, err := newFilter(t, cfg).Run(up, down)
		if err != nil {
			t.Fatal(err)
		}
		lf := newFilter(t, cfg)
		for i := range up {
			if y := lf.Step(up[i], down[i]); y != want[i] {
				t.Fatalf("%v: sample %d: Step and Run differ: %g != %g", mode, i, y, want[i])
			}
		}
	}
}

func TestLoopFilter_invalid(t *testing.T) {
	data := []struct {
		name     string
		r, c, c2 float64
	}{
		{"no capacitor", 0, 0, 0},
		{"negative capacitor", 0, -1e-12, 0},
		{"negative resistor", -1, 1e-12, 0},
		{"c2 without resistor", 0, 1e-12, 1e-12},
		{"nan resistor", math.NaN(), 1e-12, 0},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			if _, err := pll.NewLoopFilter(filterConfig(d.r, d.c, d.c2, pll.Discretized)); !isConfigError(err) {
				t.Fatalf("expected a *ConfigError, got %v", err)
			}
		})
	}
	lf := newFilter(t, pll.DefaultConfig())
	if _, err := lf.Run(make([]pll.Logic, 2), make([]pll.Logic, 3)); !isConfigError(err) {
		t.Fatalf("expected a *ConfigError, got %v", err)
	}
}

func TestLoopFilter_nan(t *testing.T) {
	lf := newFilter(t, pll.DefaultConfig())
	ys, err := lf.RunCurrent([]float64{1e-5, math.NaN(), 1e-5})
	ne, ok := errors.Cause(err).(*pll.NumericError)
	if !ok {
		t.Fatalf("expected a *NumericError, got %v", err)
	}
	if ne.Step != 1 || len(ys) != 1 {
		t.Fatalf("expected failure at step 1 after 1 sample, got step %d, %d samples", ne.Step, len(ys))
	}
	if lf.Output() != ys[0] {
		t.Fatalf("state modified by a non-finite input")
	}
}
