// Package taptempo estimates a tempo from the timing of repeated taps.
package taptempo

import (
	"math"

	"DanceDeck/core/loop"
	"DanceDeck/core/tempo"
)

// WindowMillis bounds how far back a tap still counts, measured from the
// latest tap.
const WindowMillis = 3000.0

// State of the estimator.
type State int

const (
	Idle State = iota
	Collecting
	Estimating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Collecting:
		return "collecting"
	case Estimating:
		return "estimating"
	default:
		return "unknown"
	}
}

// Reading is the estimator's answer after a tap. BPM is zero unless State is
// Estimating.
type Reading struct {
	State State `json:"state"`
	BPM   int   `json:"bpm,omitempty"`
	Taps  int   `json:"taps"`
}

// Estimator keeps the rolling tap list. The zero value is ready to use.
type Estimator struct {
	taps []float64
	bpm  int
}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// RecordTap adds a tap, drops taps at least WindowMillis older than it and
// re-estimates. A tap earlier than the previous one restarts the sequence.
func (e *Estimator) RecordTap(nowMillis float64) Reading {
	if n := len(e.taps); n > 0 && nowMillis < e.taps[n-1] {
		e.taps = e.taps[:0]
	}
	e.taps = append(e.taps, nowMillis)

	kept := e.taps[:0]
	for _, t := range e.taps {
		if nowMillis-t < WindowMillis {
			kept = append(kept, t)
		}
	}
	e.taps = kept
	e.bpm = estimate(e.taps)
	return e.Reading()
}

// Reading reports the current state without recording anything.
func (e *Estimator) Reading() Reading {
	r := Reading{Taps: len(e.taps)}
	switch {
	case e.bpm > 0:
		r.State = Estimating
		r.BPM = e.bpm
	case len(e.taps) > 0:
		r.State = Collecting
	default:
		r.State = Idle
	}
	return r
}

// Reset forgets every tap.
func (e *Estimator) Reset() {
	e.taps = e.taps[:0]
	e.bpm = 0
}

// ApplyToLoop turns the estimate into a loop anchored at positionMillis:
// beat 1 and the window start both land on the current position. It is
// inert unless an estimate exists, and resets the estimator when it fires.
func (e *Estimator) ApplyToLoop(lengthBeats int, positionMillis float64) (loop.TempoSpec, loop.Spec, bool) {
	if e.bpm <= 0 {
		return loop.TempoSpec{}, loop.Spec{}, false
	}
	t := loop.TempoSpec{BPM: tempo.ClampBPM(float64(e.bpm)), PhaseMillis: positionMillis}
	s := loop.Spec{LengthBeats: tempo.ClampLength(lengthBeats), StartMillis: positionMillis}
	e.Reset()
	return t, s, true
}

func estimate(taps []float64) int {
	if len(taps) < 2 {
		return 0
	}
	avg := (taps[len(taps)-1] - taps[0]) / float64(len(taps)-1)
	if avg <= 0 {
		return 0
	}
	return int(math.Floor(60000/avg + 0.5))
}
