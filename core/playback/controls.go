package playback

import (
	"time"

	"github.com/benbjohnson/clock"
)

// ControlsHideAfter is how long controls stay up without interaction while
// the video plays.
const ControlsHideAfter = 3 * time.Second

// Controls tracks overlay visibility and its auto-hide timer.
//
// The timer callback does not touch Controls directly: it hands a closure to
// post, which must run it on the goroutine that owns the session. A fired
// timer whose generation is stale is ignored.
type Controls struct {
	clock   clock.Clock
	post    func(func())
	onHide  func()
	visible bool
	playing bool
	timer   *clock.Timer
	gen     uint64
}

// NewControls starts visible. post defaults to running the closure inline.
func NewControls(clk clock.Clock, post func(func()), onHide func()) *Controls {
	if clk == nil {
		clk = clock.New()
	}
	if post == nil {
		post = func(f func()) { f() }
	}
	if onHide == nil {
		onHide = func() {}
	}
	return &Controls{clock: clk, post: post, onHide: onHide, visible: true}
}

func (c *Controls) Visible() bool { return c.visible }

// Tap toggles visibility from an explicit user tap.
func (c *Controls) Tap() bool {
	c.visible = !c.visible
	c.rearm()
	return c.visible
}

// Show makes the controls visible and restarts the timer.
func (c *Controls) Show() {
	c.visible = true
	c.rearm()
}

// Hide hides the controls immediately.
func (c *Controls) Hide() {
	c.visible = false
	c.cancel()
}

// SetPlaying arms the timer on play and cancels it on pause.
func (c *Controls) SetPlaying(playing bool) {
	if c.playing == playing {
		return
	}
	c.playing = playing
	c.rearm()
}

// Stop cancels any pending auto-hide.
func (c *Controls) Stop() { c.cancel() }

func (c *Controls) rearm() {
	c.cancel()
	if !c.visible || !c.playing {
		return
	}
	gen := c.gen
	c.timer = c.clock.AfterFunc(ControlsHideAfter, func() {
		c.post(func() { c.expire(gen) })
	})
}

func (c *Controls) cancel() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controls) expire(gen uint64) {
	if gen != c.gen || !c.visible {
		return
	}
	c.timer = nil
	c.visible = false
	c.onHide()
}
