// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scope

import (
	"io"

	pll "github.com/db47h/pllsim"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PNG image size.
//
const (
	PNGWidth  = 20 * vg.Centimeter
	PNGHeight = 8 * vg.Centimeter
)

// WritePNG renders the given probe point of tr as a PNG image. Time is plotted
// in ns.
//
func WritePNG(w io.Writer, tr *pll.Traces, probe string, o Options) error {
	if tr.Len() == 0 {
		return errors.New("empty traces")
	}
	ys, logic, err := series(tr, probe, &o)
	if err != nil {
		return err
	}
	ts := times(tr, &o)
	xys := make(plotter.XYs, len(ys))
	for i := range ys {
		xys[i].X = ts[i] * 1e9
		xys[i].Y = ys[i]
	}

	p := plot.New()
	p.Title.Text = probe
	if o.Title != "" {
		p.Title.Text = o.Title + ": " + probe
	}
	p.X.Label.Text = "t (ns)"
	if logic {
		p.Y.Label.Text = "level"
	} else {
		p.Y.Label.Text = "V"
	}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		return errors.Wrap(err, "plot "+probe)
	}
	if logic {
		line.StepStyle = plotter.PostStep
	}
	p.Add(line)

	wt, err := p.WriterTo(PNGWidth, PNGHeight, "png")
	if err != nil {
		return errors.Wrap(err, "render png")
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "write png")
}
