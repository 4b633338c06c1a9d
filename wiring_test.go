package pllsim

import (
	"testing"

	"github.com/pkg/errors"
)

func noop(int) error { return nil }

func TestWiring(t *testing.T) {
	data := []struct {
		name    string
		stages  []stage
		delayed []string
		link    string // failing link, empty if valid
	}{
		{"valid", []stage{
			{"a", []string{"fb"}, []string{"x"}, noop},
			{"b", []string{"x"}, []string{"fb"}, noop},
		}, []string{"fb"}, ""},
		{"not delayed", []stage{
			{"a", []string{"fb"}, []string{"x"}, noop},
			{"b", []string{"x"}, []string{"fb"}, noop},
		}, nil, "fb"},
		{"no producer", []stage{
			{"a", []string{"y"}, []string{"x"}, noop},
			{"b", []string{"x"}, nil, noop},
		}, nil, "y"},
		{"no consumer", []stage{
			{"a", nil, []string{"x", "y"}, noop},
			{"b", []string{"x"}, nil, noop},
		}, nil, "y"},
		{"two producers", []stage{
			{"a", nil, []string{"x"}, noop},
			{"b", nil, []string{"x"}, noop},
			{"c", []string{"x"}, nil, noop},
		}, nil, "x"},
		{"two consumers", []stage{
			{"a", nil, []string{"x"}, noop},
			{"b", []string{"x"}, nil, noop},
			{"c", []string{"x"}, nil, noop},
		}, nil, "x"},
		{"self loop", []stage{
			{"a", []string{"x"}, []string{"x"}, noop},
		}, nil, "x"},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			_, err := newWiring(d.stages, d.delayed...)
			if d.link == "" {
				if err != nil {
					t.Fatal(err)
				}
				return
			}
			se, ok := errors.Cause(err).(*SequencingError)
			if !ok {
				t.Fatalf("expected a *SequencingError, got %v", err)
			}
			if se.Link != d.link {
				t.Fatalf("expected error on link %q, got %q", d.link, se.Error())
			}
		})
	}
}

func TestLink(t *testing.T) {
	l := newLink[Logic]("x", false)
	if _, err := l.get(0); err == nil {
		t.Fatal("read before write not detected")
	}
	l.put(0, High)
	if v, err := l.get(0); err != nil || v != High {
		t.Fatalf("expected High, got %v, %v", v, err)
	}
	if _, err := l.get(1); err == nil {
		t.Fatal("stale read not detected")
	}

	r := newLink[Logic]("r", true)
	if v, err := r.get(0); err != nil || v != Low {
		t.Fatalf("expected Low, got %v, %v", v, err)
	}
	r.put(0, High)
	if v, err := r.get(1); err != nil || v != High {
		t.Fatalf("expected High, got %v, %v", v, err)
	}
}
