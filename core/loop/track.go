package loop

import "math"

// MinWindowPixels keeps very short loops visible and grabbable.
const MinWindowPixels = 24.0

// Track projects times onto a finite horizontal bar of WidthPixels.
type Track struct {
	WidthPixels    float64
	DurationMillis float64
}

// Valid reports whether the projection is defined. Everything collapses to 0
// otherwise.
func (t Track) Valid() bool {
	return t.WidthPixels > 0 && t.DurationMillis > 0
}

// WindowWidth is the loop's width on the bar, at least MinWindowPixels and at
// most the bar itself.
func (t Track) WindowWidth(loopDurationMillis float64) float64 {
	if !t.Valid() {
		return 0
	}
	ratio := loopDurationMillis / t.DurationMillis
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	return math.Min(t.WidthPixels, math.Max(MinWindowPixels, ratio*t.WidthPixels))
}

// WindowLeft is the loop's left edge; the window never hangs off the bar.
func (t Track) WindowLeft(startMillis, loopDurationMillis float64) float64 {
	if !t.Valid() {
		return 0
	}
	maxLeft := math.Max(0, t.WidthPixels-t.WindowWidth(loopDurationMillis))
	return clamp(t.ToPixels(startMillis), 0, maxLeft)
}

// PlayheadLeft is the playback position on the bar.
func (t Track) PlayheadLeft(positionMillis float64) float64 {
	if !t.Valid() {
		return 0
	}
	return clamp(t.ToPixels(positionMillis), 0, t.WidthPixels)
}

// ToPixels is the raw, unclamped projection of a time.
func (t Track) ToPixels(millis float64) float64 {
	if !t.Valid() {
		return 0
	}
	return millis / t.DurationMillis * t.WidthPixels
}

// ToMillis inverts ToPixels.
func (t Track) ToMillis(pixels float64) float64 {
	if !t.Valid() {
		return 0
	}
	return pixels / t.WidthPixels * t.DurationMillis
}

// Geometry is what a bar renderer needs for one frame.
type Geometry struct {
	TrackWidth   float64 `json:"trackWidth"`
	WindowLeft   float64 `json:"windowLeft"`
	WindowWidth  float64 `json:"windowWidth"`
	PlayheadLeft float64 `json:"playheadLeft"`
}

// Project computes the bar geometry for a window and playback position.
func (t Track) Project(w *Window, positionMillis float64) Geometry {
	loopDuration := w.LoopDurationMillis()
	return Geometry{
		TrackWidth:   math.Max(0, t.WidthPixels),
		WindowLeft:   t.WindowLeft(w.StartMillis(), loopDuration),
		WindowWidth:  t.WindowWidth(loopDuration),
		PlayheadLeft: t.PlayheadLeft(positionMillis),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
