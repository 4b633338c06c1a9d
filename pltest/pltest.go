// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package pltest provides utility functions for testing simulation components
// against golden traces.
//
package pltest

import (
	"math"
	"math/rand/v2"
	"os"
	"testing"

	pll "github.com/db47h/pllsim"
	"github.com/db47h/pllsim/csvtrace"
)

// Diff compares got to the golden trace want. A sample differs if its absolute
// error, relative to the running maximum of want, exceeds margin. Diff returns
// the number of differing samples and the index of the first one, or -1.
//
// Samples of got beyond len(want) are ignored. Missing samples count as
// differing.
//
func Diff(want, got []float64, margin float64) (n, first int) {
	first = -1
	peak := 1e-10
	for i, w := range want {
		if w > peak {
			peak = w
		}
		if i >= len(got) || math.IsNaN(got[i]) || math.Abs(w-got[i])/peak > margin {
			if first < 0 {
				first = i
			}
			n++
		}
	}
	return n, first
}

func compare(t testing.TB, want, got []float64, margin float64) {
	t.Helper()
	if len(got) < len(want) {
		t.Errorf("expected %d samples, got %d", len(want), len(got))
	}
	n, first := Diff(want, got, margin)
	if float64(n) > margin*float64(len(want)) {
		var g interface{} = "nothing"
		if first < len(got) {
			g = got[first]
		}
		t.Fatalf("%d of %d samples differ by more than %g%%. First at %d: expected %v, got %v",
			n, len(want), margin*100, first, want[first], g)
	}
}

// CompareAnalog fails the test if more than margin·len(want) samples of got
// differ from want. See Diff.
//
func CompareAnalog(t testing.TB, want, got []float64, margin float64) {
	t.Helper()
	compare(t, want, got, margin)
}

// CompareLogic is like CompareAnalog for logic traces.
//
func CompareLogic(t testing.TB, want, got []pll.Logic, margin float64) {
	t.Helper()
	compare(t, Float(want), Float(got), margin)
}

// Float converts logic samples to 0 or 1.
//
func Float(s []pll.Logic) []float64 {
	r := make([]float64, len(s))
	for i, v := range s {
		r[i] = v.Float()
	}
	return r
}

// Golden reads the named columns of the CSV file at path.
//
func Golden(t testing.TB, path string, cols ...string) [][]float64 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r, err := csvtrace.ReadColumns(f, cols...)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return r
}

// StepRun checks that feeding in one sample at a time to a component with step
// yields the same output as its batch form run. step and run must be bound to
// distinct component instances built from the same configuration.
//
func StepRun[I any, O comparable](t testing.TB, in []I, step func(I) (O, error), run func([]I) ([]O, error)) {
	t.Helper()
	want, err := run(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(want) != len(in) {
		t.Fatalf("batch returned %d samples, expected %d", len(want), len(in))
	}
	for i, v := range in {
		got, err := step(v)
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if got != want[i] {
			t.Fatalf("sample %d: step returned %v, batch returned %v", i, got, want[i])
		}
	}
}

// Square returns n samples of a square wave of period hi+lo samples, starting
// High.
//
func Square(n, hi, lo int) []pll.Logic {
	r := make([]pll.Logic, n)
	for i := range r {
		r[i] = pll.Logic(i%(hi+lo) < hi)
	}
	return r
}

// Random returns n random logic samples drawn from a PCG generator seeded with
// seed.
//
func Random(n int, seed uint64) []pll.Logic {
	r := rand.New(rand.NewPCG(seed, seed))
	s := make([]pll.Logic, n)
	for i := range s {
		s[i] = r.Uint64()&1 != 0
	}
	return s
}
