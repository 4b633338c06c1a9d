package pltest_test

import (
	"testing"

	pll "github.com/db47h/pllsim"
	"github.com/db47h/pllsim/pltest"
)

func TestDiff(t *testing.T) {
	data := []struct {
		name      string
		want, got []float64
		margin    float64
		n, first  int
	}{
		{"equal", []float64{0, 1, 2}, []float64{0, 1, 2}, 0.01, 0, -1},
		{"running max", []float64{1, 10, 1}, []float64{1.05, 10, 1.05}, 0.01, 1, 0},
		{"short", []float64{1, 2, 3}, []float64{1}, 0.01, 2, 1},
		{"longer", []float64{1}, []float64{1, 5}, 0.01, 0, -1},
		{"zero golden", []float64{0, 0}, []float64{0, 1e-13}, 0.01, 0, -1},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			n, first := pltest.Diff(d.want, d.got, d.margin)
			if n != d.n || first != d.first {
				t.Fatalf("expected %d differences from %d, got %d from %d", d.n, d.first, n, first)
			}
		})
	}
}

func TestCompareLogic(t *testing.T) {
	want := pltest.Square(1000, 5, 5)
	got := make([]pll.Logic, len(want))
	copy(got, want)
	got[10] = !got[10]
	got[500] = !got[500]
	pltest.CompareLogic(t, want, got, 0.01)
}

func TestStepRun(t *testing.T) {
	cfg := pll.DefaultConfig()
	cfg.Divider.N = 3
	d1, err := pll.NewDivider(cfg)
	if err != nil {
		t.Fatal(err)
	}
	d2, _ := pll.NewDivider(cfg)
	pltest.StepRun(t, pltest.Random(1000, 1),
		func(v pll.Logic) (pll.Logic, error) { return d1.Step(v), nil },
		func(v []pll.Logic) ([]pll.Logic, error) { return d2.Run(v), nil })
}

func TestRandom(t *testing.T) {
	a, b := pltest.Random(200, 3), pltest.Random(200, 3)
	var n int
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same seed, different samples")
		}
		if a[i] {
			n++
		}
	}
	if n < 50 || n > 150 {
		t.Fatalf("unbalanced samples: %d High out of 200", n)
	}
}
