package tui

import (
	"math"
	"time"

	"DanceDeck/core/playback"
)

// SimPlayer is a clock-driven stand-in for a video element. The terminal has
// no decoder, so position simply advances with wall time and rate.
type SimPlayer struct {
	position float64
	duration float64
	rate     float64
	playing  bool
}

func NewSimPlayer(durationMillis float64) *SimPlayer {
	return &SimPlayer{duration: math.Max(0, durationMillis), rate: 1}
}

func (p *SimPlayer) Seek(positionMillis float64) {
	p.position = math.Min(math.Max(0, positionMillis), p.duration)
}

func (p *SimPlayer) Play() {
	if p.position >= p.duration && p.duration > 0 {
		p.position = 0
	}
	p.playing = p.duration > 0
}

func (p *SimPlayer) Pause() { p.playing = false }

func (p *SimPlayer) SetRate(rate float64) {
	if rate > 0 {
		p.rate = rate
	}
}

// Advance moves the position by dt scaled by the rate. Playback stops at the
// end of the media.
func (p *SimPlayer) Advance(dt time.Duration) {
	if !p.playing || dt <= 0 {
		return
	}
	p.position += float64(dt.Milliseconds()) * p.rate
	if p.position >= p.duration {
		p.position = p.duration
		p.playing = false
	}
}

// Observation reports the player status the way a media element would.
func (p *SimPlayer) Observation() playback.Observation {
	return playback.Observation{
		PositionMillis: p.position,
		DurationMillis: p.duration,
		IsPlaying:      p.playing,
	}
}

var _ playback.Player = (*SimPlayer)(nil)
