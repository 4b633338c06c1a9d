// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pllsim

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// ErrDone is returned by Loop.Step once the configured number of samples has
// been simulated.
//
var ErrDone = errors.New("simulation complete")

// A ConfigError reports an invalid component parameter. Invalid parameters are
// never clamped.
//
type ConfigError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == nil {
		return "invalid " + e.Param + ": " + e.Reason
	}
	return fmt.Sprintf("invalid %s = %v: %s", e.Param, e.Value, e.Reason)
}

func configError(param string, value interface{}, reason string) error {
	return errors.WithStack(&ConfigError{Param: param, Value: value, Reason: reason})
}

// A NumericError reports a non-finite sample reaching a component. The
// simulation cannot continue past it.
//
type NumericError struct {
	Component string
	Step      int
	Value     float64
}

func (e *NumericError) Error() string {
	return e.Component + ": non-finite input " + strconv.FormatFloat(e.Value, 'g', -1, 64) +
		" at step " + strconv.Itoa(e.Step)
}

// A SequencingError reports a wiring error between components: a link with no
// producer or consumer, or a link consumed before it is produced.
//
type SequencingError struct {
	Link   string
	Reason string
}

func (e *SequencingError) Error() string {
	return "link " + e.Link + ": " + e.Reason
}

func sequencingError(link, reason string) error {
	return errors.WithStack(&SequencingError{Link: link, Reason: reason})
}
