// Package drag maps a horizontal drag over the loop bar to a new loop start.
package drag

import (
	"math"

	"DanceDeck/core/loop"
)

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Controller runs one gesture at a time. Tempo, phase, length and duration
// are frozen at Start and used for the whole gesture.
type Controller struct {
	state       State
	params      loop.Params
	track       loop.Track
	originLeft  float64
	windowWidth float64
	value       float64
}

func NewController() *Controller {
	return &Controller{}
}

func (d *Controller) State() State { return d.state }

// Start captures the gesture origin. It is inert, and returns false, when the
// bar has no width or the duration is unknown.
func (d *Controller) Start(p loop.Params, startMillis, trackWidthPixels float64) bool {
	track := loop.Track{WidthPixels: trackWidthPixels, DurationMillis: p.DurationMillis}
	if !track.Valid() {
		d.state = Idle
		return false
	}
	d.state = Dragging
	d.params = p
	d.track = track
	d.originLeft = track.ToPixels(startMillis)
	d.windowWidth = track.WindowWidth(p.LoopDurationMillis())
	d.value = startMillis
	return true
}

// Move applies a pixel delta measured from the gesture origin and returns the
// clamped, unsnapped start.
func (d *Controller) Move(deltaPixels float64) (float64, bool) {
	if d.state != Dragging {
		return 0, false
	}
	maxLeft := math.Max(0, d.track.WidthPixels-d.windowWidth)
	left := math.Min(math.Max(d.originLeft+deltaPixels, 0), maxLeft)
	d.value = loop.ClampStart(d.track.ToMillis(left), d.params.DurationMillis, d.params.LoopDurationMillis())
	return d.value, true
}

// End snaps the last dragged value to a beat and finishes the gesture.
func (d *Controller) End() (float64, bool) {
	return d.finish()
}

// Cancel is treated like End: the window stays where it was dragged, snapped.
func (d *Controller) Cancel() (float64, bool) {
	return d.finish()
}

func (d *Controller) finish() (float64, bool) {
	if d.state != Dragging {
		return 0, false
	}
	d.state = Idle
	p := d.params
	return loop.SnapStart(d.value, p.PhaseMillis, p.BPM, p.DurationMillis, p.LengthBeats), true
}
