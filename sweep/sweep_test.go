package sweep_test

import (
	"context"
	"testing"

	pll "github.com/db47h/pllsim"
	"github.com/db47h/pllsim/sweep"
	"github.com/pkg/errors"
)

func base() pll.Config {
	cfg := pll.DefaultConfig()
	cfg.SampleCount = 50000
	cfg.VCO.Frequency = 1e6
	return cfg
}

func TestRun(t *testing.T) {
	values := []float64{40, 50, 60, 70}
	res, err := sweep.Run(context.Background(), base(), sweep.DividerN, values, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != len(values) {
		t.Fatalf("expected %d results, got %d", len(values), len(res))
	}
	for i, r := range res {
		if r.Err != nil {
			t.Fatalf("run %d: %v", i, r.Err)
		}
		if r.Value != values[i] || r.Config.Divider.N != int(values[i]) {
			t.Fatalf("run %d: expected N=%g, got %g/%d", i, values[i], r.Value, r.Config.Divider.N)
		}
		if r.Report.RefEdges == 0 {
			t.Fatalf("run %d: empty report", i)
		}
	}

	// concurrency does not change results
	seq, err := sweep.Run(context.Background(), base(), sweep.DividerN, values, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range seq {
		if seq[i].Report != res[i].Report {
			t.Fatalf("run %d: results depend on the number of workers", i)
		}
	}
}

func TestRun_base(t *testing.T) {
	cfg := base()
	if _, err := sweep.Run(context.Background(), cfg, sweep.PullCurrent, []float64{1e-5}, 0); err != nil {
		t.Fatal(err)
	}
	if cfg != base() {
		t.Fatal("base config modified")
	}
}

func TestRun_invalid(t *testing.T) {
	res, err := sweep.Run(context.Background(), base(), sweep.DividerN, []float64{60, 0, 2.5}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res[0].Err != nil {
		t.Fatal(res[0].Err)
	}
	for _, r := range res[1:] {
		if _, ok := errors.Cause(r.Err).(*pll.ConfigError); !ok {
			t.Errorf("N=%g: expected a *ConfigError, got %v", r.Value, r.Err)
		}
	}
	res, _ = sweep.Run(context.Background(), base(), sweep.Capacitor, []float64{-1}, 1)
	if _, ok := errors.Cause(res[0].Err).(*pll.ConfigError); !ok {
		t.Errorf("expected a *ConfigError, got %v", res[0].Err)
	}

	// a zero resistor would silently turn the filter into a pure integrator
	res, _ = sweep.Run(context.Background(), base(), sweep.Resistor, []float64{0, -1e3}, 2)
	for _, r := range res {
		if _, ok := errors.Cause(r.Err).(*pll.ConfigError); !ok {
			t.Errorf("R=%g: expected a *ConfigError, got %v", r.Value, r.Err)
		}
	}
}

func TestRun_cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := sweep.Run(ctx, base(), sweep.Resistor, []float64{1e3, 2e3, 3e3, 4e3, 5e3, 6e3}, 1)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	n := 0
	for _, r := range res {
		if r.Err == context.Canceled {
			n++
		}
	}
	if n == 0 {
		t.Fatal("no run was skipped")
	}
}

func TestLookup(t *testing.T) {
	for _, n := range sweep.Names() {
		p, ok := sweep.Lookup(n)
		if !ok || p.Name != n {
			t.Fatalf("Lookup(%q) failed", n)
		}
	}
	if _, ok := sweep.Lookup("nope"); ok {
		t.Fatal("unexpected parameter")
	}
}
