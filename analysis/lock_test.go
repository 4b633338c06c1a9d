package analysis_test

import (
	"testing"

	pll "github.com/db47h/pllsim"
	"github.com/db47h/pllsim/analysis"
)

func run(t *testing.T, cfg pll.Config) *pll.Traces {
	t.Helper()
	l, err := pll.NewLoop(cfg, pll.WithTraces())
	if err != nil {
		t.Fatal(err)
	}
	if err = l.Run(); err != nil {
		t.Fatal(err)
	}
	return l.Traces()
}

func TestLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping closed loop simulation in short mode")
	}
	cfg := pll.DefaultConfig()
	cfg.SampleCount = 600000
	cfg.VCO.Frequency = 1e6
	cfg.Detector.Mode = pll.TriState

	r, err := analysis.Lock(run(t, cfg), 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Locked {
		t.Fatalf("expected lock, got %v", &r)
	}
	t.Log(&r)

	// charge pump too weak to pull the VCO
	cfg.Detector.Mode = pll.Window
	cfg.VCO.Frequency = 5e8
	cfg.SampleCount = 200000
	cfg.Filter.PullUp, cfg.Filter.PullDown = 2.5e-8, 2.5e-8
	r, err = analysis.Lock(run(t, cfg), 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if r.Locked || r.FrequencyError < 0.1 {
		t.Fatalf("expected no lock, got %v", &r)
	}
}

func TestLock_invalid(t *testing.T) {
	tr := pll.NewTraces(1e-11, 0)
	if _, err := analysis.Lock(tr, 0.2); err == nil {
		t.Fatal("expected an error on empty traces")
	}
	cfg := pll.DefaultConfig()
	cfg.SampleCount = 1000
	tr = run(t, cfg)
	for _, s := range []float64{-0.1, 1} {
		if _, err := analysis.Lock(tr, s); err == nil {
			t.Fatalf("settle=%g: expected an error", s)
		}
	}
}
