// Command pllsim runs a charge-pump PLL simulation.
//
// Usage:
//
//	pllsim [-config file.json] [-csv out.csv] [-html out.html] [-png dir] [-decimate n]
//	pllsim -sweep param=v1,v2,... [-workers n] [-config file.json]
//
// The lock report is always logged. With -sweep, one simulation is run per
// value and only the lock reports are logged.
//
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	pll "github.com/db47h/pllsim"
	"github.com/db47h/pllsim/analysis"
	"github.com/db47h/pllsim/config"
	"github.com/db47h/pllsim/csvtrace"
	"github.com/db47h/pllsim/scope"
	"github.com/db47h/pllsim/sweep"
	"github.com/pkg/errors"
)

type options struct {
	config   string
	csv      string
	html     string
	png      string
	decimate int
	sweep    string
	workers  int
	settle   float64
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("pllsim", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.config, "config", "", "JSON configuration `file`")
	fs.StringVar(&o.csv, "csv", "", "write traces to CSV `file`")
	fs.StringVar(&o.html, "html", "", "write an interactive plot of the traces to HTML `file`")
	fs.StringVar(&o.png, "png", "", "write one PNG plot per probe point in `dir`")
	fs.IntVar(&o.decimate, "decimate", 1, "plot one sample out of `n`")
	fs.StringVar(&o.sweep, "sweep", "", "sweep parameter `param=v1,v2,...` (one of "+strings.Join(sweep.Names(), ", ")+")")
	fs.IntVar(&o.workers, "workers", 0, "number of concurrent sweep runs (default GOMAXPROCS)")
	fs.Float64Var(&o.settle, "settle", sweep.Settle, "fraction of the run ignored by lock detection")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	}
	return &o, nil
}

// parseSweep parses a sweep argument of the form param=v1,v2,...
//
func parseSweep(s string) (sweep.Param, []float64, error) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return sweep.Param{}, nil, errors.Errorf("invalid sweep %q: missing '='", s)
	}
	p, ok := sweep.Lookup(strings.TrimSpace(s[:i]))
	if !ok {
		return sweep.Param{}, nil, errors.Errorf("unknown sweep parameter %q", s[:i])
	}
	var vs []float64
	for _, f := range strings.Split(s[i+1:], ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return sweep.Param{}, nil, errors.Wrapf(err, "sweep %s", p.Name)
		}
		vs = append(vs, v)
	}
	return p, vs, nil
}

func loadConfig(path string) (pll.Config, error) {
	if path == "" {
		cfg := pll.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return config.LoadFile(path)
}

func create(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = write(f); err != nil {
		f.Close()
		return errors.Wrap(err, path)
	}
	return f.Close()
}

func simulate(cfg pll.Config, o *options) error {
	var lopts = []pll.LoopOption{pll.WithTraces()}
	var rec *csvtrace.Recorder
	if o.csv != "" {
		f, err := os.Create(o.csv)
		if err != nil {
			return err
		}
		defer f.Close()
		if rec, err = csvtrace.NewRecorder(f, cfg.VDD, cfg.VSS); err != nil {
			return err
		}
		lopts = append(lopts, pll.WithProbe(rec))
	}

	l, err := pll.NewLoop(cfg, lopts...)
	if err != nil {
		return err
	}
	log.Printf("simulating %d samples (%g s)", cfg.SampleCount, cfg.Duration())
	if err = l.Run(); err != nil {
		return err
	}
	if rec != nil {
		if err = rec.Flush(); err != nil {
			return err
		}
		log.Printf("traces written to %s", o.csv)
	}

	tr := l.Traces()
	so := scope.Options{Decimate: o.decimate, VDD: cfg.VDD, VSS: cfg.VSS}
	if o.html != "" {
		if err = create(o.html, func(w io.Writer) error { return scope.WriteHTML(w, tr, so) }); err != nil {
			return err
		}
		log.Printf("plot written to %s", o.html)
	}
	if o.png != "" {
		if err = os.MkdirAll(o.png, 0755); err != nil {
			return err
		}
		for _, p := range scope.Probes {
			path := filepath.Join(o.png, p+".png")
			if err = create(path, func(w io.Writer) error { return scope.WritePNG(w, tr, p, so) }); err != nil {
				return err
			}
		}
		log.Printf("plots written to %s", o.png)
	}

	r, err := analysis.Lock(tr, o.settle)
	if err != nil {
		log.Printf("lock analysis: %v", err)
		return nil
	}
	log.Print(r.String())
	return nil
}

func runSweep(ctx context.Context, cfg pll.Config, o *options) error {
	p, vs, err := parseSweep(o.sweep)
	if err != nil {
		return err
	}
	log.Printf("sweeping %s over %d values", p.Name, len(vs))
	res, err := sweep.Run(ctx, cfg, p, vs, o.workers)
	for i := range res {
		r := &res[i]
		if r.Err != nil {
			log.Printf("%s=%g: %v", p.Name, r.Value, r.Err)
			continue
		}
		log.Printf("%s=%g: %s", p.Name, r.Value, r.Report.String())
	}
	return err
}

func run(ctx context.Context, args []string) error {
	o, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o.config)
	if err != nil {
		return err
	}
	if o.sweep != "" {
		return runSweep(ctx, cfg, o)
	}
	return simulate(cfg, o)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Cause(err) == flag.ErrHelp {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
