// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pllsim

// Logic is the value of a digital signal at one time step.
//
type Logic bool

// Logic levels.
//
const (
	Low  Logic = false
	High Logic = true
)

// Float returns 1 for High and 0 for Low.
//
func (l Logic) Float() float64 {
	if l {
		return 1
	}
	return 0
}

// Level returns the voltage of l given the supply rails.
//
func (l Logic) Level(vdd, vss float64) float64 {
	if l {
		return vdd
	}
	return vss
}

func (l Logic) String() string {
	if l {
		return "H"
	}
	return "L"
}

// rising returns true if cur is a rising edge relative to prev.
func rising(prev, cur Logic) bool { return bool(!prev && cur) }
