/*
Package pllsim provides a discrete-time simulator for charge-pump phase-locked
loops.

A simulation is made of a handful of stateful components stepped in lock-step
over a fixed time grid t = i·Δt:

	Oscillator     phase-accumulator reference clock or VCO, with optional phase noise
	PhaseDetector  rising edge triggered up/down detector
	LoopFilter     charge-pump driven RC (or RC+C2) network
	Divider        edge counting frequency divider

A Loop wires them into a closed loop:

	ref -> PhaseDetector.a
	PhaseDetector.{up,down} -> LoopFilter -> VCO -> Divider -> PhaseDetector.b

The Divider output of step i is seen by the PhaseDetector at step i+1. Every
component can also be driven on its own, sample by sample (Step) or over a whole
input array (Run).

The PhaseDetector runs in Window mode by default. Config.Detector selects
TriState instead, which locks tighter with a pure integrating loop filter.

All components are built from an immutable Config value. Sweeping a parameter
means building a new Config and a new set of components.

*/
package pllsim
