// Package loop holds the loop window: a span of whole beats anchored to a
// tempo and phase that must always fit inside the video.
package loop

import (
	"math"

	"DanceDeck/core/tempo"
)

// TempoSpec is the tempo and the absolute timestamp of beat 1.
type TempoSpec struct {
	BPM         float64 `json:"bpm"`
	PhaseMillis float64 `json:"phaseMillis"`
}

// Spec is the loop length in beats and where the window starts.
type Spec struct {
	LengthBeats int     `json:"loopLengthBeats"`
	StartMillis float64 `json:"loopStartMillis"`
}

// Params is a frozen copy of everything a projection or snap depends on.
type Params struct {
	BPM            float64
	PhaseMillis    float64
	LengthBeats    int
	DurationMillis float64
}

// LoopDurationMillis is the window length implied by the params.
func (p Params) LoopDurationMillis() float64 {
	return tempo.LoopDurationMillis(p.BPM, p.LengthBeats)
}

// ClampStart keeps start inside [0, max(0, duration-loopDuration)]. A loop
// longer than the video is pinned to 0 and its end overruns the clip.
func ClampStart(start, durationMillis, loopDurationMillis float64) float64 {
	maxStart := math.Max(0, durationMillis-loopDurationMillis)
	if math.IsNaN(maxStart) {
		maxStart = 0
	}
	return math.Min(math.Max(start, 0), maxStart)
}

// SnapStart moves raw to the nearest beat boundary counted from phase, then
// clamps. Exact half-beat ties round up (towards +Inf).
func SnapStart(raw, phaseMillis, bpm, durationMillis float64, lengthBeats int) float64 {
	bpm = tempo.ClampBPM(bpm)
	beat := tempo.BeatDurationMillis(bpm)
	beats := math.Floor((raw-phaseMillis)/beat + 0.5)
	snapped := phaseMillis + beats*beat
	return ClampStart(snapped, durationMillis, tempo.LoopDurationMillis(bpm, lengthBeats))
}

// Window is the live loop state. Every tempo, phase, length or duration
// mutation re-clamps the start; only Snap moves it to a beat boundary.
type Window struct {
	tempo          TempoSpec
	spec           Spec
	durationMillis float64
}

// NewWindow builds a window from persisted values, coercing them into range.
func NewWindow(t TempoSpec, s Spec, durationMillis float64) *Window {
	w := &Window{
		tempo: TempoSpec{
			BPM:         tempo.ClampBPM(t.BPM),
			PhaseMillis: math.Max(0, t.PhaseMillis),
		},
		spec: Spec{
			LengthBeats: tempo.ClampLength(s.LengthBeats),
			StartMillis: s.StartMillis,
		},
		durationMillis: math.Max(0, durationMillis),
	}
	w.reclamp()
	return w
}

func (w *Window) Tempo() TempoSpec        { return w.tempo }
func (w *Window) Spec() Spec              { return w.spec }
func (w *Window) DurationMillis() float64 { return w.durationMillis }
func (w *Window) StartMillis() float64    { return w.spec.StartMillis }

func (w *Window) BeatDurationMillis() float64 {
	return tempo.BeatDurationMillis(w.tempo.BPM)
}

func (w *Window) LoopDurationMillis() float64 {
	return tempo.LoopDurationMillis(w.tempo.BPM, w.spec.LengthBeats)
}

// EndMillis may exceed the duration when the loop is longer than the video.
func (w *Window) EndMillis() float64 {
	return w.spec.StartMillis + w.LoopDurationMillis()
}

// Params freezes the current state for a drag gesture.
func (w *Window) Params() Params {
	return Params{
		BPM:            w.tempo.BPM,
		PhaseMillis:    w.tempo.PhaseMillis,
		LengthBeats:    w.spec.LengthBeats,
		DurationMillis: w.durationMillis,
	}
}

// SetBPM clamps bpm to the minimum and re-clamps the start.
func (w *Window) SetBPM(bpm float64) {
	w.tempo.BPM = tempo.ClampBPM(bpm)
	w.reclamp()
}

// AdjustBPM nudges the tempo by delta, never below the minimum.
func (w *Window) AdjustBPM(delta float64) {
	w.SetBPM(w.tempo.BPM + delta)
}

func (w *Window) SetPhase(phaseMillis float64) {
	w.tempo.PhaseMillis = math.Max(0, phaseMillis)
	w.reclamp()
}

func (w *Window) SetLengthBeats(n int) {
	w.spec.LengthBeats = tempo.ClampLength(n)
	w.reclamp()
}

// SetDuration records the video length once the player reports it. Unchanged
// durations are ignored so per-tick observations cost nothing.
func (w *Window) SetDuration(durationMillis float64) bool {
	durationMillis = math.Max(0, durationMillis)
	if durationMillis == w.durationMillis {
		return false
	}
	w.durationMillis = durationMillis
	w.reclamp()
	return true
}

// SetStart moves the window without snapping.
func (w *Window) SetStart(startMillis float64) {
	w.spec.StartMillis = ClampStart(startMillis, w.durationMillis, w.LoopDurationMillis())
}

// Snap moves the window to the beat boundary nearest raw.
func (w *Window) Snap(raw float64) {
	w.spec.StartMillis = SnapStart(raw, w.tempo.PhaseMillis, w.tempo.BPM, w.durationMillis, w.spec.LengthBeats)
}

// Apply overwrites tempo and loop in one step, as when recalling a bookmark.
func (w *Window) Apply(t TempoSpec, s Spec) {
	w.tempo = TempoSpec{BPM: tempo.ClampBPM(t.BPM), PhaseMillis: math.Max(0, t.PhaseMillis)}
	w.spec = Spec{LengthBeats: tempo.ClampLength(s.LengthBeats), StartMillis: s.StartMillis}
	w.reclamp()
}

func (w *Window) reclamp() {
	w.spec.StartMillis = ClampStart(w.spec.StartMillis, w.durationMillis, w.LoopDurationMillis())
}
