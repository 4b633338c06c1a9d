// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scope

import (
	"io"

	pll "github.com/db47h/pllsim"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/pkg/errors"
)

// WriteHTML renders all probe points of tr as a page of line charts sharing the
// same time axis. Logic traces are drawn as step lines.
//
func WriteHTML(w io.Writer, tr *pll.Traces, o Options) error {
	if tr.Len() == 0 {
		return errors.New("empty traces")
	}
	title := o.Title
	if title == "" {
		title = "PLL simulation"
	}
	ts := times(tr, &o)
	xs := make([]string, len(ts))
	for i, t := range ts {
		xs[i] = formatNs(t)
	}

	page := components.NewPage().SetPageTitle(title)
	for _, p := range Probes {
		ys, logic, err := series(tr, p, &o)
		if err != nil {
			return err
		}
		data := make([]opts.LineData, len(ys))
		for i, y := range ys {
			data[i].Value = y
		}
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				Theme:  types.ThemeWesteros,
				Width:  "1200px",
				Height: "250px",
			}),
			charts.WithTitleOpts(opts.Title{
				Title:    p,
				Subtitle: title,
			}),
			charts.WithXAxisOpts(opts.XAxis{
				Name: "ns",
			}),
			charts.WithYAxisOpts(opts.YAxis{
				Scale: opts.Bool(true),
			}),
			charts.WithTooltipOpts(opts.Tooltip{
				Show:    opts.Bool(true),
				Trigger: "axis",
			}),
			charts.WithDataZoomOpts(opts.DataZoom{
				Type:       "inside",
				Start:      0,
				End:        100,
				XAxisIndex: []int{0},
			}),
		)
		lc := opts.LineChart{ShowSymbol: opts.Bool(false)}
		if logic {
			lc.Step = "end"
		}
		line.SetXAxis(xs).AddSeries(p, data, charts.WithLineChartOpts(lc))
		page.AddCharts(line)
	}
	return errors.Wrap(page.Render(w), "render html")
}
