// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads simulation configurations from JSON documents.
//
// A document overrides selected values of pllsim.DefaultConfig:
//
//	{
//		"vdd": 1, "vss": 0,
//		"time_step": 1e-11,
//		"sim_time": 4e-6,
//		"sample_count": 400000,
//		"seed": 1,
//		"clk": {"k_vco": 1.2566e8, "fo": 1e7},
//		"vco": {"k_vco": 6.2832e9, "fo": 1e9,
//			"white_phase_noise_spectral_density": 0,
//			"low_frequency_phase_noise": 0},
//		"divider": {"n": 60},
//		"pfd": {"gains": [25e-6, -25e-6], "resistors": [], "capacitors": [16e-12],
//			"mode": "discretized"},
//		"lpd": {"mode": "window"}
//	}
//
// Keys are case insensitive and unknown keys are ignored. sample_count takes
// precedence over sim_time.
//
// Legacy documents holding a single named configuration, with the key names
// ref_clock, stop_time, pfd_loop_filter and divided_value, are accepted as well:
//
//	{"my_pll": {"VDD": 1, "VSS": 0, "time_step": 1e-11, "stop_time": 4e-6,
//		"ref_clock": {"fo": 1e7}, "VCO": {"fo": 1e9},
//		"pfd_loop_filter": {"capacitors": [16e-12]},
//		"divider": {"divided_value": 60}}}
//
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"strings"

	pll "github.com/db47h/pllsim"
	"github.com/pkg/errors"
)

type oscillator struct {
	Gain         *float64 `json:"k_vco"`
	Frequency    *float64 `json:"fo"`
	WhiteNoise   *float64 `json:"white_phase_noise_spectral_density"`
	FlickerNoise *float64 `json:"low_frequency_phase_noise"`
}

type divider struct {
	N            *int `json:"n"`
	DividedValue *int `json:"divided_value"`
}

type filter struct {
	Gains      []float64 `json:"gains"`
	Resistors  []float64 `json:"resistors"`
	Capacitors []float64 `json:"capacitors"`
	Mode       *string   `json:"mode"`
}

type detector struct {
	Mode *string `json:"mode"`
}

type document struct {
	VDD         *float64    `json:"vdd"`
	VSS         *float64    `json:"vss"`
	TimeStep    *float64    `json:"time_step"`
	SimTime     *float64    `json:"sim_time"`
	StopTime    *float64    `json:"stop_time"`
	SampleCount *int        `json:"sample_count"`
	Seed        *uint64     `json:"seed"`
	Clock       *oscillator `json:"clk"`
	RefClock    *oscillator `json:"ref_clock"`
	VCO         *oscillator `json:"vco"`
	Divider     *divider    `json:"divider"`
	PFD         *filter     `json:"pfd"`
	LoopFilter  *filter     `json:"pfd_loop_filter"`
	LPD         *detector   `json:"lpd"`
}

const defaultSimTime = 4e-6

var knownKeys = map[string]bool{
	"vdd": true, "vss": true, "time_step": true, "sim_time": true, "stop_time": true,
	"sample_count": true, "seed": true, "clk": true, "ref_clock": true, "vco": true,
	"divider": true, "pfd": true, "pfd_loop_filter": true, "lpd": true,
}

// LoadFile loads the configuration file at path.
//
func LoadFile(path string) (pll.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return pll.Config{}, errors.Wrap(err, "open config")
	}
	defer f.Close()
	cfg, err := Load(f)
	if err != nil {
		return cfg, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Load reads a JSON document from r and returns the resulting configuration.
// The configuration is validated.
//
func Load(r io.Reader) (pll.Config, error) {
	cfg := pll.DefaultConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	data, err = unwrap(data)
	if err != nil {
		return cfg, err
	}
	var doc document
	if err = json.Unmarshal(data, &doc); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}
	if err = doc.apply(&cfg); err != nil {
		return cfg, err
	}
	if err = cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// unwrap returns the body of a document holding a single named configuration.
//
func unwrap(data []byte) ([]byte, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if len(top) != 1 {
		return data, nil
	}
	for k, v := range top {
		if !knownKeys[strings.ToLower(k)] && bytes.HasPrefix(bytes.TrimSpace(v), []byte("{")) {
			return v, nil
		}
	}
	return data, nil
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func (o *oscillator) apply(p *pll.OscillatorConfig) {
	if o == nil {
		return
	}
	setFloat(&p.Gain, o.Gain)
	setFloat(&p.Frequency, o.Frequency)
	setFloat(&p.WhiteNoise, o.WhiteNoise)
	setFloat(&p.FlickerNoise, o.FlickerNoise)
}

func (f *filter) apply(fc *pll.FilterConfig) error {
	if f == nil {
		return nil
	}
	switch len(f.Gains) {
	case 0:
	case 2:
		fc.PullUp, fc.PullDown = f.Gains[0], f.Gains[1]
	default:
		return errors.WithStack(&pll.ConfigError{Param: "gains", Value: f.Gains, Reason: "expected [pull_up, pull_down]"})
	}
	switch len(f.Resistors) {
	case 0:
	case 1:
		if f.Resistors[0] <= 0 {
			return errors.WithStack(&pll.ConfigError{Param: "R", Value: f.Resistors[0], Reason: "must be a positive number, leave empty for no resistor"})
		}
		fc.R = f.Resistors[0]
	default:
		return errors.WithStack(&pll.ConfigError{Param: "resistors", Value: f.Resistors, Reason: "at most one resistor"})
	}
	switch len(f.Capacitors) {
	case 0:
	case 1, 2:
		fc.C = f.Capacitors[0]
		if len(f.Capacitors) == 2 {
			fc.C2 = f.Capacitors[1]
		}
	default:
		return errors.WithStack(&pll.ConfigError{Param: "capacitors", Value: f.Capacitors, Reason: "at most two capacitors"})
	}
	if f.Mode != nil {
		m, err := pll.ParseFilterMode(*f.Mode)
		if err != nil {
			return err
		}
		fc.Mode = m
	}
	return nil
}

func (d *document) apply(cfg *pll.Config) error {
	setFloat(&cfg.VDD, d.VDD)
	setFloat(&cfg.VSS, d.VSS)
	setFloat(&cfg.TimeStep, d.TimeStep)
	if d.Seed != nil {
		cfg.Seed = *d.Seed
	}
	d.RefClock.apply(&cfg.Clock)
	d.Clock.apply(&cfg.Clock)
	d.VCO.apply(&cfg.VCO)
	if d.Divider != nil {
		if d.Divider.DividedValue != nil {
			cfg.Divider.N = *d.Divider.DividedValue
		}
		if d.Divider.N != nil {
			cfg.Divider.N = *d.Divider.N
		}
	}
	if err := d.LoopFilter.apply(&cfg.Filter); err != nil {
		return err
	}
	if err := d.PFD.apply(&cfg.Filter); err != nil {
		return err
	}
	if d.LPD != nil && d.LPD.Mode != nil {
		m, err := pll.ParseDetectorMode(*d.LPD.Mode)
		if err != nil {
			return err
		}
		cfg.Detector.Mode = m
	}

	simTime := d.SimTime
	if simTime == nil {
		simTime = d.StopTime
	}
	switch {
	case d.SampleCount != nil:
		cfg.SampleCount = *d.SampleCount
	case simTime != nil || d.TimeStep != nil:
		st := defaultSimTime
		setFloat(&st, simTime)
		if math.IsNaN(st) || math.IsInf(st, 0) || st < 0 {
			return errors.WithStack(&pll.ConfigError{Param: "sim_time", Value: st, Reason: "must be a positive number"})
		}
		if cfg.TimeStep > 0 {
			cfg.SampleCount = int(math.Floor(st / cfg.TimeStep))
		}
	}
	return nil
}
