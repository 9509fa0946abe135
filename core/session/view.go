package session

import (
	"DanceDeck/core/bookmark"
	"DanceDeck/core/drag"
	"DanceDeck/core/loop"
)

// View is the read-only snapshot pushed to front-ends.
type View struct {
	VideoID string   `json:"videoId"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Memo    string   `json:"memo"`

	BPM                float64 `json:"bpm"`
	PhaseMillis        float64 `json:"phaseMillis"`
	LoopLengthBeats    int     `json:"loopLengthBeats"`
	LoopStartMillis    float64 `json:"loopStartMillis"`
	LoopEndMillis      float64 `json:"loopEndMillis"`
	LoopDurationMillis float64 `json:"loopDurationMillis"`
	BeatDurationMillis float64 `json:"beatDurationMillis"`

	DurationMillis float64 `json:"durationMillis"`
	PositionMillis float64 `json:"positionMillis"`
	IsPlaying      bool    `json:"isPlaying"`

	LoopEnabled     bool    `json:"loopEnabled"`
	Rate            float64 `json:"rate"`
	Mirrored        bool    `json:"mirrored"`
	ControlsVisible bool    `json:"controlsVisible"`
	Dragging        bool    `json:"dragging"`

	Tap       TapView             `json:"tap"`
	Geometry  *loop.Geometry      `json:"geometry,omitempty"`
	Bookmarks []bookmark.Bookmark `json:"bookmarks"`
}

type TapView struct {
	State string `json:"state"`
	BPM   int    `json:"bpm"`
	Taps  int    `json:"taps"`
}

// View builds the current snapshot. Geometry is omitted until both the bar
// width and the video duration are known.
func (s *Session) View() View {
	t, l := s.window.Tempo(), s.window.Spec()
	last := s.controller.Last()
	r := s.taps.Reading()
	v := View{
		VideoID:            s.video.ID,
		Title:              s.video.Title,
		Tags:               append([]string{}, s.video.Tags...),
		Memo:               s.video.Memo,
		BPM:                t.BPM,
		PhaseMillis:        t.PhaseMillis,
		LoopLengthBeats:    l.LengthBeats,
		LoopStartMillis:    l.StartMillis,
		LoopEndMillis:      s.window.EndMillis(),
		LoopDurationMillis: s.window.LoopDurationMillis(),
		BeatDurationMillis: s.window.BeatDurationMillis(),
		DurationMillis:     s.window.DurationMillis(),
		PositionMillis:     last.PositionMillis,
		IsPlaying:          last.IsPlaying,
		LoopEnabled:        s.controller.LoopEnabled(),
		Rate:               s.controller.Rate(),
		Mirrored:           s.controller.Mirrored(),
		ControlsVisible:    s.controls.Visible(),
		Dragging:           s.drag.State() == drag.Dragging,
		Tap:                TapView{State: r.State.String(), BPM: r.BPM, Taps: r.Taps},
		Bookmarks:          s.bookmarks.List(),
	}
	track := loop.Track{WidthPixels: s.trackWidth, DurationMillis: s.window.DurationMillis()}
	if track.Valid() {
		g := track.Project(s.window, last.PositionMillis)
		v.Geometry = &g
	}
	return v
}
