// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pllsim

import (
	"math"
	"strconv"
)

// OscillatorConfig holds the parameters of an oscillator.
//
type OscillatorConfig struct {
	Gain         float64 // k, in Hz/V
	Frequency    float64 // f0, in Hz
	WhiteNoise   float64 // h0, white phase noise spectral density
	FlickerNoise float64 // n1, low frequency phase noise
}

// DividerConfig holds the parameters of a frequency divider.
//
type DividerConfig struct {
	N int
}

// DetectorMode selects the phase detector behavior.
//
type DetectorMode int

// Supported phase detectors.
//
const (
	// Window asserts up (down) from a rising edge of a (b) until that input
	// goes Low or the other input is High without a fresh edge.
	Window DetectorMode = iota
	// TriState arms a channel on its rising edge until the other input has an
	// edge too.
	TriState
)

var detectorModeNames = [...]string{"window", "tristate"}

func (m DetectorMode) String() string {
	if m >= 0 && int(m) < len(detectorModeNames) {
		return detectorModeNames[m]
	}
	return "DetectorMode(" + strconv.Itoa(int(m)) + ")"
}

// ParseDetectorMode returns the DetectorMode with the given name.
//
func ParseDetectorMode(s string) (DetectorMode, error) {
	for i, n := range detectorModeNames {
		if n == s {
			return DetectorMode(i), nil
		}
	}
	return 0, configError("detector mode", s, "unknown mode")
}

// DetectorConfig holds the parameters of the phase detector.
//
type DetectorConfig struct {
	Mode DetectorMode
}

// FilterMode selects the loop filter realization.
//
type FilterMode int

// Supported filter realizations.
//
const (
	// Discretized uses the recursive y[n] = α·y[n-1] + β·i[n] form.
	Discretized FilterMode = iota
	// Exact integrates the continuous-time network over each step with a
	// first-order hold on the input current.
	Exact
)

var filterModeNames = [...]string{"discretized", "exact"}

func (m FilterMode) String() string {
	if m >= 0 && int(m) < len(filterModeNames) {
		return filterModeNames[m]
	}
	return "FilterMode(" + strconv.Itoa(int(m)) + ")"
}

// ParseFilterMode returns the FilterMode with the given name.
//
func ParseFilterMode(s string) (FilterMode, error) {
	for i, n := range filterModeNames {
		if n == s {
			return FilterMode(i), nil
		}
	}
	return 0, configError("filter mode", s, "unknown mode")
}

// FilterConfig holds the parameters of the charge-pump loop filter.
//
// A zero R means that no resistor is fitted and the filter is a pure
// integrator. A zero C2 means no second stage.
//
type FilterConfig struct {
	PullUp   float64 // charge pump up current, A
	PullDown float64 // charge pump down current, A. Only the magnitude is used.
	R        float64
	C        float64
	C2       float64
	Mode     FilterMode
}

// Config is the immutable configuration shared by all components of a
// simulation. It is passed by value and contains no references, so that a
// component can never alter the configuration of another.
//
type Config struct {
	VDD, VSS    float64 // logic levels for traces
	TimeStep    float64 // Δt, in seconds
	SampleCount int     // number of steps of a Loop run
	Seed        uint64  // seed of the default noise sources

	Clock    OscillatorConfig
	VCO      OscillatorConfig
	Divider  DividerConfig
	Detector DetectorConfig
	Filter   FilterConfig
}

// DefaultConfig returns the default configuration: a 10 MHz reference, a 1 GHz
// VCO divided by 60, a window phase detector and a 16 pF integrating loop
// filter, simulated for 4µs with a 10ps time step.
//
func DefaultConfig() Config {
	return Config{
		VDD:         1,
		VSS:         0,
		TimeStep:    1e-11,
		SampleCount: 400000,
		Seed:        1,
		Clock:       OscillatorConfig{Gain: 1.2566e8, Frequency: 1e7},
		VCO:         OscillatorConfig{Gain: 6.2832e9, Frequency: 1e9},
		Divider:     DividerConfig{N: 60},
		Detector:    DetectorConfig{Mode: Window},
		Filter: FilterConfig{
			PullUp:   2.5e-5,
			PullDown: 2.5e-5,
			C:        1.6e-11,
		},
	}
}

// Duration returns the simulated time span.
//
func (c *Config) Duration() float64 {
	return float64(c.SampleCount) * c.TimeStep
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Validate checks the whole configuration and returns a *ConfigError for the
// first invalid parameter found.
//
func (c *Config) Validate() error {
	if err := c.validateTime(); err != nil {
		return err
	}
	if c.SampleCount < 0 {
		return configError("sample_count", c.SampleCount, "must not be negative")
	}
	if !finite(c.VDD) || !finite(c.VSS) {
		return configError("vdd/vss", [2]float64{c.VDD, c.VSS}, "must be finite")
	}
	if err := c.Clock.validate("clk"); err != nil {
		return err
	}
	if err := c.VCO.validate("vco"); err != nil {
		return err
	}
	if c.Divider.N < 1 {
		return configError("divider.n", c.Divider.N, "must be at least 1")
	}
	if err := c.Detector.validate(); err != nil {
		return err
	}
	return c.Filter.validate()
}

func (c *Config) validateTime() error {
	if !finite(c.TimeStep) || c.TimeStep <= 0 {
		return configError("time_step", c.TimeStep, "must be a positive number")
	}
	return nil
}

func (o *OscillatorConfig) validate(name string) error {
	switch {
	case !finite(o.Gain):
		return configError(name+".k_vco", o.Gain, "must be finite")
	case !finite(o.Frequency):
		return configError(name+".fo", o.Frequency, "must be finite")
	case !finite(o.WhiteNoise) || o.WhiteNoise < 0:
		return configError(name+".white_phase_noise", o.WhiteNoise, "must be a non-negative number")
	case !finite(o.FlickerNoise) || o.FlickerNoise < 0:
		return configError(name+".low_frequency_phase_noise", o.FlickerNoise, "must be a non-negative number")
	}
	return nil
}

func (d *DetectorConfig) validate() error {
	if d.Mode != Window && d.Mode != TriState {
		return configError("lpd.mode", d.Mode, "unknown detector mode")
	}
	return nil
}

func (f *FilterConfig) validate() error {
	switch {
	case !finite(f.PullUp):
		return configError("pull_up", f.PullUp, "must be finite")
	case !finite(f.PullDown):
		return configError("pull_down", f.PullDown, "must be finite")
	case !finite(f.C) || f.C <= 0:
		return configError("C", f.C, "must be a positive number")
	case !finite(f.R) || f.R < 0:
		return configError("R", f.R, "must be a positive number, or zero when unset")
	case !finite(f.C2) || f.C2 < 0:
		return configError("C2", f.C2, "must be a positive number, or zero when unset")
	case f.C2 > 0 && f.R == 0:
		return configError("C2", f.C2, "a second stage requires R")
	case f.Mode != Discretized && f.Mode != Exact:
		return configError("mode", f.Mode, "unknown filter mode")
	}
	return nil
}
