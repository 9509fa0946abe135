// Package playback decides when a playing video has to jump back to the loop
// start and turns user intents into player commands.
package playback

import (
	"math"

	"DanceDeck/core/loop"

	"go.uber.org/zap"
)

// LoopEpsilonMillis fires the loop-back slightly before the end so tick
// granularity and seek latency do not overshoot audibly.
const LoopEpsilonMillis = 50.0

// SkipMillis is the step of the rewind and fast-forward buttons.
const SkipMillis = 5000.0

// Rates are the playback speeds the rate button cycles through.
var Rates = []float64{0.25, 0.5, 0.75, 1.0}

// Player is the external video player. Commands are fire-and-forget.
type Player interface {
	Seek(positionMillis float64)
	Play()
	Pause()
	SetRate(rate float64)
}

// Observation is one status tick from the player.
type Observation struct {
	PositionMillis float64 `json:"positionMillis"`
	DurationMillis float64 `json:"durationMillis"`
	IsPlaying      bool    `json:"isPlaying"`
}

// Controller reads the loop window and the latest observation. It never
// mutates the window.
type Controller struct {
	player      Player
	window      *loop.Window
	loopEnabled bool
	rateIndex   int
	mirrored    bool
	last        Observation
	log         *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a logger for loop-back diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// NewController starts with looping enabled at normal speed.
func NewController(player Player, window *loop.Window, opts ...Option) *Controller {
	c := &Controller{
		player:      player,
		window:      window,
		loopEnabled: true,
		rateIndex:   len(Rates) - 1,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe records a tick and seeks back to the loop start when the position
// has reached the loop end. It reports whether a seek was issued.
func (c *Controller) Observe(obs Observation) bool {
	c.last = obs
	if !c.loopEnabled {
		return false
	}
	loopDuration := c.window.LoopDurationMillis()
	if loopDuration <= 0 || math.IsInf(loopDuration, 0) {
		return false
	}
	if obs.PositionMillis < c.window.EndMillis()-LoopEpsilonMillis {
		return false
	}
	start := c.window.StartMillis()
	c.log.Debug("loop back",
		zap.Float64("position", obs.PositionMillis),
		zap.Float64("loopStart", start),
		zap.Float64("loopEnd", c.window.EndMillis()))
	c.player.Seek(start)
	return true
}

// Last is the most recent observation.
func (c *Controller) Last() Observation { return c.last }

func (c *Controller) IsPlaying() bool { return c.last.IsPlaying }

// TogglePlay pauses a playing video and plays a paused one. It returns the
// new intended playing state.
func (c *Controller) TogglePlay() bool {
	if c.last.IsPlaying {
		c.player.Pause()
		c.last.IsPlaying = false
		return false
	}
	c.player.Play()
	c.last.IsPlaying = true
	return true
}

// Play resumes playback.
func (c *Controller) Play() {
	c.player.Play()
	c.last.IsPlaying = true
}

// SeekTo scrubs to an absolute position inside [0, duration].
func (c *Controller) SeekTo(positionMillis float64) float64 {
	target := math.Max(0, positionMillis)
	if c.last.DurationMillis > 0 {
		target = math.Min(target, c.last.DurationMillis)
	}
	c.player.Seek(target)
	c.last.PositionMillis = target
	return target
}

// SeekRelative moves the position by delta from the last observation.
func (c *Controller) SeekRelative(deltaMillis float64) float64 {
	return c.SeekTo(c.last.PositionMillis + deltaMillis)
}

// Rate is the current playback speed.
func (c *Controller) Rate() float64 { return Rates[c.rateIndex] }

// CycleRate advances to the next speed, wrapping after 1.0.
func (c *Controller) CycleRate() float64 {
	c.rateIndex = (c.rateIndex + 1) % len(Rates)
	rate := Rates[c.rateIndex]
	c.player.SetRate(rate)
	return rate
}

// SetRate picks the preset closest to rate.
func (c *Controller) SetRate(rate float64) float64 {
	best := 0
	for i, r := range Rates {
		if math.Abs(r-rate) < math.Abs(Rates[best]-rate) {
			best = i
		}
	}
	c.rateIndex = best
	c.player.SetRate(Rates[best])
	return Rates[best]
}

func (c *Controller) LoopEnabled() bool { return c.loopEnabled }

// SetLoopEnabled suspends or resumes the loop-back decision. Playback itself
// is left alone.
func (c *Controller) SetLoopEnabled(enabled bool) { c.loopEnabled = enabled }

func (c *Controller) ToggleLoop() bool {
	c.loopEnabled = !c.loopEnabled
	return c.loopEnabled
}

func (c *Controller) Mirrored() bool { return c.mirrored }

// ToggleMirror flips the horizontal mirror flag reported to the client.
func (c *Controller) ToggleMirror() bool {
	c.mirrored = !c.mirrored
	return c.mirrored
}
