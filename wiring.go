package pllsim

import (
	"sort"
	"strconv"
)

// A link carries one sample from a producing stage to a consuming stage. It
// holds a single value at a time.
//
// A regular link must be written before it is read within the same step. A
// delayed link behaves like a register: it is read before being written and
// the reader sees the value written during the previous step. Delayed links
// start at the zero value of T.
//
type link[T any] struct {
	name    string
	delayed bool
	v       T
	stamp   int // step of the last write, -1 if never written
}

func newLink[T any](name string, delayed bool) *link[T] {
	return &link[T]{name: name, delayed: delayed, stamp: -1}
}

func (l *link[T]) put(step int, v T) {
	l.v = v
	l.stamp = step
}

func (l *link[T]) get(step int) (T, error) {
	if !l.delayed && l.stamp != step {
		return l.v, sequencingError(l.name, "read at step "+strconv.Itoa(step)+" before being written")
	}
	return l.v, nil
}

// a stage is a component of the loop and the links it reads and writes.
type stage struct {
	name string
	ins  []string
	outs []string
	run  func(step int) error
}

// node tracks the endpoints of a link.
type node struct {
	name    string
	delayed bool
	org     int // producing stage, -1 if none
	dst     []int
}

type wiring map[string]*node

func (wr wiring) node(name string) *node {
	n := wr[name]
	if n == nil {
		n = &node{name: name, org: -1}
		wr[name] = n
	}
	return n
}

// newWiring builds the link graph of stages, run in the given order, and checks
// that every link has exactly one producer and one consumer and that no stage
// reads a regular link before an earlier stage writes it.
//
func newWiring(stages []stage, delayed ...string) (wiring, error) {
	wr := make(wiring)
	for _, name := range delayed {
		wr.node(name).delayed = true
	}
	for i, s := range stages {
		for _, out := range s.outs {
			n := wr.node(out)
			if n.org >= 0 {
				return nil, sequencingError(out, "driven by both "+stages[n.org].name+" and "+s.name)
			}
			n.org = i
		}
		for _, in := range s.ins {
			n := wr.node(in)
			n.dst = append(n.dst, i)
		}
	}

	names := make([]string, 0, len(wr))
	for name := range wr {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n := wr[name]
		switch {
		case n.org < 0:
			return nil, sequencingError(name, "no producer")
		case len(n.dst) == 0:
			return nil, sequencingError(name, "no consumer")
		case len(n.dst) > 1:
			return nil, sequencingError(name, "more than one consumer")
		case !n.delayed && n.dst[0] <= n.org:
			return nil, sequencingError(name, "consumed by "+stages[n.dst[0]].name+" before being produced by "+stages[n.org].name)
		}
	}
	return wr, nil
}
