package pllsim_test

import (
	"math"
	"math/rand/v2"
	"testing"

	pll "github.com/db47h/pllsim"
	"github.com/pkg/errors"
)

type countingSource struct {
	src   rand.Source
	draws int
}

func (s *countingSource) Uint64() uint64 {
	s.draws++
	return s.src.Uint64()
}

func noisyConfig() pll.Config {
	cfg := pll.DefaultConfig()
	cfg.VCO = pll.OscillatorConfig{Gain: 1e9, Frequency: 1e9, WhiteNoise: 1.8e-10, FlickerNoise: 1e-12}
	return cfg
}

func newVCO(t *testing.T, cfg pll.Config, opts ...pll.OscillatorOption) *pll.Oscillator {
	t.Helper()
	o, err := pll.NewVCO(cfg, opts...)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return o
}

func TestOscillator_period(t *testing.T) {
	cfg := pll.DefaultConfig()
	cfg.VCO = pll.OscillatorConfig{Gain: 1e9, Frequency: 1e9}
	data := []struct {
		v      float64
		period float64 // in samples
	}{
		{0, 100},
		{0.25, 80},
		{-0.5, 200},
	}
	for _, d := range data {
		out, err := newVCO(t, cfg).Run(constant(20000, d.v))
		if err != nil {
			t.Fatal(err)
		}
		es := rising(out)
		// skip the initial edge at sample 0
		es = es[1:]
		if len(es) < 10 {
			t.Fatalf("v=%g: not enough edges", d.v)
		}
		mean := float64(es[len(es)-1]-es[0]) / float64(len(es)-1)
		if math.Abs(mean-d.period)/d.period > 0.01 {
			t.Errorf("v=%g: expected period %g, got %g", d.v, d.period, mean)
		}
		for i := 1; i < len(es); i++ {
			if p := float64(es[i] - es[i-1]); math.Abs(p-d.period) > 1 {
				t.Fatalf("v=%g: edge %d: expected period %g±1, got %g", d.v, i, d.period, p)
			}
		}
	}
}

func TestOscillator_stepRun(t *testing.T) {
	for _, cfg := range []pll.Config{pll.DefaultConfig(), noisyConfig()} {
		vs := make([]float64, 10000)
		for i := range vs {
			vs[i] = 0.1 * math.Sin(float64(i)/500)
		}
		want, err := newVCO(t, cfg).Run(vs)
		if err != nil {
			t.Fatal(err)
		}
		o := newVCO(t, cfg)
		for i, v := range vs {
			got, err := o.Step(v)
			if err != nil {
				t.Fatal(err)
			}
			if got != want[i] {
				t.Fatalf("sample %d: Step and Run differ", i)
			}
		}
	}
}

func TestOscillator_noise(t *testing.T) {
	cfg := noisyConfig()
	vs := constant(20000, 0)
	run := func(opts ...pll.OscillatorOption) []pll.Logic {
		out, err := newVCO(t, cfg, opts...).Run(vs)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	differ := func(a, b []pll.Logic) bool {
		for i := range a {
			if a[i] != b[i] {
				return true
			}
		}
		return false
	}

	a, b := run(), run()
	if differ(a, b) {
		t.Fatal("same seed, different outputs")
	}
	c := run(pll.WithNoiseSource(rand.NewPCG(42, 42)))
	if !differ(a, c) {
		t.Fatal("different seeds, same outputs")
	}
	cfg.VCO.WhiteNoise, cfg.VCO.FlickerNoise = 0, 0
	if !differ(a, run()) {
		t.Fatal("noise has no effect")
	}
}

func TestOscillator_noiseIsolation(t *testing.T) {
	cfg := noisyConfig()
	want, err := newVCO(t, cfg).Run(constant(5000, 0))
	if err != nil {
		t.Fatal(err)
	}
	// interleave with another oscillator built from the same config
	o1, o2 := newVCO(t, cfg), newVCO(t, cfg)
	for i := range want {
		if _, err := o2.Step(0.1); err != nil {
			t.Fatal(err)
		}
		got, err := o1.Step(0)
		if err != nil {
			t.Fatal(err)
		}
		if got != want[i] {
			t.Fatalf("sample %d: output depends on another oscillator", i)
		}
	}
}

func TestOscillator_noDraws(t *testing.T) {
	src := &countingSource{src: rand.NewPCG(1, 1)}
	o := newVCO(t, pll.DefaultConfig(), pll.WithNoiseSource(src))
	if _, err := o.Run(constant(10000, 0.05)); err != nil {
		t.Fatal(err)
	}
	if src.draws != 0 {
		t.Fatalf("expected no random draws without noise, got %d", src.draws)
	}
	src = &countingSource{src: rand.NewPCG(1, 1)}
	o = newVCO(t, noisyConfig(), pll.WithNoiseSource(src))
	if _, err := o.Run(constant(10000, 0)); err != nil {
		t.Fatal(err)
	}
	if src.draws == 0 {
		t.Fatal("expected random draws with noise")
	}
}

func TestOscillator_nan(t *testing.T) {
	o := newVCO(t, pll.DefaultConfig())
	if _, err := o.Step(0.1); err != nil {
		t.Fatal(err)
	}
	ph := o.Phase()
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := o.Step(v)
		ne, ok := errors.Cause(err).(*pll.NumericError)
		if !ok {
			t.Fatalf("v=%g: expected a *NumericError, got %v", v, err)
		}
		if ne.Step != 1 {
			t.Errorf("v=%g: expected error at step 1, got %d", v, ne.Step)
		}
	}
	if o.Phase() != ph || o.Steps() != 1 {
		t.Fatal("state modified by a non-finite input")
	}
}

func TestOscillator_invalid(t *testing.T) {
	cfg := pll.DefaultConfig()
	cfg.TimeStep = -1
	if _, err := pll.NewReferenceClock(cfg); !isConfigError(err) {
		t.Fatalf("expected a *ConfigError, got %v", err)
	}
	cfg = pll.DefaultConfig()
	if _, err := pll.NewOscillator(cfg, pll.OscillatorConfig{Frequency: math.Inf(1)}); !isConfigError(err) {
		t.Fatalf("expected a *ConfigError, got %v", err)
	}
}
