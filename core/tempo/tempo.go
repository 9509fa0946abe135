// Package tempo converts a tempo in beats per minute into beat and loop
// durations. All values are milliseconds as float64.
package tempo

import "math"

const (
	// MinBPM is the lowest tempo the engine accepts; lower requests are clamped.
	MinBPM = 20.0
	// DefaultBPM is used when a record carries no tempo.
	DefaultBPM = 120.0
	// DefaultLengthBeats is used when a record carries no loop length.
	DefaultLengthBeats = 8
	// BeatsPerBar assumes 4/4, which is how counts are grouped in practice.
	BeatsPerBar = 4

	millisPerMinute = 60000.0
)

// Presets are the loop lengths offered as one-tap choices.
var Presets = []int{4, 8, 16, 32}

// BeatDurationMillis returns the length of one beat. A non-positive bpm yields
// +Inf; callers clamp with ClampBPM first.
func BeatDurationMillis(bpm float64) float64 {
	if bpm <= 0 {
		return math.Inf(1)
	}
	return millisPerMinute / bpm
}

// LoopDurationMillis returns the length of a loop of lengthBeats beats.
func LoopDurationMillis(bpm float64, lengthBeats int) float64 {
	return BeatDurationMillis(bpm) * float64(lengthBeats)
}

// ClampBPM coerces bpm into the accepted range. There is no upper bound.
func ClampBPM(bpm float64) float64 {
	if math.IsNaN(bpm) || bpm < MinBPM {
		return MinBPM
	}
	return bpm
}

// ClampLength coerces a loop length to at least one beat.
func ClampLength(lengthBeats int) int {
	if lengthBeats < 1 {
		return 1
	}
	return lengthBeats
}

// Bars returns how many 4/4 bars a loop length spans.
func Bars(lengthBeats int) float64 {
	return float64(lengthBeats) / BeatsPerBar
}
