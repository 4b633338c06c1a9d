// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package csvtrace reads and writes simulation traces as CSV.
//
// Written files have one row per time step and the columns
//
//	time,ref,divider,up,down,filter,vco
//
// Logic samples are written as voltages (vdd or vss).
//
package csvtrace

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	pll "github.com/db47h/pllsim"
	"github.com/pkg/errors"
)

// Header is the list of column names of written traces.
//
var Header = []string{"time", "ref", "divider", "up", "down", "filter", "vco"}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// A Recorder is a pllsim.Probe that writes a CSV row for every step of a Loop.
//
type Recorder struct {
	w        *bufio.Writer
	cw       *csv.Writer
	vdd, vss float64
	row      []string
	err      error
}

// NewRecorder returns a new Recorder writing to w. The header row is written
// immediately.
//
func NewRecorder(w io.Writer, vdd, vss float64) (*Recorder, error) {
	bw := bufio.NewWriter(w)
	r := &Recorder{w: bw, cw: csv.NewWriter(bw), vdd: vdd, vss: vss, row: make([]string, len(Header))}
	if err := r.cw.Write(Header); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	return r, nil
}

func (r *Recorder) write(t float64, ref, div, up, down pll.Logic, ctl float64, vco pll.Logic) {
	if r.err != nil {
		return
	}
	r.row[0] = formatFloat(t)
	r.row[1] = formatFloat(ref.Level(r.vdd, r.vss))
	r.row[2] = formatFloat(div.Level(r.vdd, r.vss))
	r.row[3] = formatFloat(up.Level(r.vdd, r.vss))
	r.row[4] = formatFloat(down.Level(r.vdd, r.vss))
	r.row[5] = formatFloat(ctl)
	r.row[6] = formatFloat(vco.Level(r.vdd, r.vss))
	if err := r.cw.Write(r.row); err != nil {
		r.err = errors.Wrap(err, "write row")
	}
}

// Probe implements pllsim.Probe.
//
func (r *Recorder) Probe(s *pll.Snapshot) {
	r.write(s.Time, s.Ref, s.Divider, s.Up, s.Down, s.Control, s.VCO)
}

// Flush writes any buffered data and returns the first error encountered while
// recording.
//
func (r *Recorder) Flush() error {
	if r.err != nil {
		return r.err
	}
	r.cw.Flush()
	if err := r.cw.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	return errors.Wrap(r.w.Flush(), "flush csv")
}

// Write writes the traces tr to w.
//
func Write(w io.Writer, tr *pll.Traces, vdd, vss float64) error {
	r, err := NewRecorder(w, vdd, vss)
	if err != nil {
		return err
	}
	for i := 0; i < tr.Len(); i++ {
		r.write(tr.Time(i), tr.Ref[i], tr.Divider[i], tr.Up[i], tr.Down[i], tr.Filter[i], tr.VCO[i])
	}
	return r.Flush()
}

// ReadColumns reads a CSV document with a header row from r and returns the
// numeric columns with the given names, in the same order. Leading spaces in
// fields and header names are ignored.
//
func ReadColumns(r io.Reader, names ...string) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	hdr, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = -1
		for j, h := range hdr {
			if strings.TrimSpace(h) == n {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, errors.Errorf("column %q not found", n)
		}
	}
	cols := make([][]float64, len(names))
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read row")
		}
		for i, j := range idx {
			if j >= len(rec) {
				return nil, errors.Errorf("line %d: missing column %q", line, names[i])
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: column %q", line, names[i])
			}
			cols[i] = append(cols[i], v)
		}
	}
	return cols, nil
}

// Logic converts voltage samples to logic levels, using the midpoint between
// vdd and vss as threshold.
//
func Logic(vs []float64, vdd, vss float64) []pll.Logic {
	th := (vdd + vss) / 2
	r := make([]pll.Logic, len(vs))
	for i, v := range vs {
		r[i] = pll.Logic(v >= th)
	}
	return r
}
