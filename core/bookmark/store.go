// Package bookmark keeps immutable snapshots of loop configurations for a
// single video, newest first.
package bookmark

import (
	"errors"
	"fmt"
	"time"

	"DanceDeck/core/loop"

	"github.com/google/uuid"
)

var (
	ErrDurationUnknown       = errors.New("video duration is not available yet")
	ErrWindowExceedsDuration = errors.New("loop window exceeds video duration")
)

// PreconditionError is returned when a bookmark cannot be taken. Nothing is
// mutated when it is returned.
type PreconditionError struct {
	Err            error
	EndMillis      float64
	DurationMillis float64
}

func (e *PreconditionError) Error() string {
	if errors.Is(e.Err, ErrWindowExceedsDuration) {
		return fmt.Sprintf("bookmark: %v (end %.0fms > duration %.0fms)", e.Err, e.EndMillis, e.DurationMillis)
	}
	return "bookmark: " + e.Err.Error()
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// Bookmark is a named loop snapshot. Values are never mutated after creation.
type Bookmark struct {
	ID          string  `json:"id"`
	BPM         float64 `json:"bpm"`
	PhaseMillis float64 `json:"phaseMillis"`
	LengthBeats int     `json:"loopLengthBeats"`
	StartMillis float64 `json:"loopStartMillis"`
	CreatedAt   int64   `json:"createdAt"`
}

func (b Bookmark) Tempo() loop.TempoSpec {
	return loop.TempoSpec{BPM: b.BPM, PhaseMillis: b.PhaseMillis}
}

func (b Bookmark) Spec() loop.Spec {
	return loop.Spec{LengthBeats: b.LengthBeats, StartMillis: b.StartMillis}
}

// Store is the ordered bookmark list of one video.
type Store struct {
	items []Bookmark
	newID func() string
	now   func() time.Time
}

// NewStore takes ownership of a persisted newest-first list.
func NewStore(initial []Bookmark) *Store {
	items := make([]Bookmark, len(initial))
	copy(items, initial)
	return &Store{
		items: items,
		newID: func() string { return uuid.New().String() },
		now:   time.Now,
	}
}

// Create snapshots the live window and prepends it. durationMillis is the
// video duration as last reported by the player.
func (s *Store) Create(t loop.TempoSpec, l loop.Spec, loopDurationMillis, durationMillis float64) (Bookmark, error) {
	if durationMillis <= 0 {
		return Bookmark{}, &PreconditionError{Err: ErrDurationUnknown, DurationMillis: durationMillis}
	}
	// Compare against the same bound ClampStart uses so a window flush with
	// the end is accepted despite float rounding in start+length.
	maxStart := durationMillis - loopDurationMillis
	if maxStart < 0 || l.StartMillis > maxStart {
		end := l.StartMillis + loopDurationMillis
		return Bookmark{}, &PreconditionError{Err: ErrWindowExceedsDuration, EndMillis: end, DurationMillis: durationMillis}
	}
	b := Bookmark{
		ID:          s.newID(),
		BPM:         t.BPM,
		PhaseMillis: t.PhaseMillis,
		LengthBeats: l.LengthBeats,
		StartMillis: l.StartMillis,
		CreatedAt:   s.now().UnixMilli(),
	}
	s.items = append([]Bookmark{b}, s.items...)
	return b, nil
}

// CreateFrom is Create for a live window.
func (s *Store) CreateFrom(w *loop.Window) (Bookmark, error) {
	return s.Create(w.Tempo(), w.Spec(), w.LoopDurationMillis(), w.DurationMillis())
}

// Get finds a bookmark by id.
func (s *Store) Get(id string) (Bookmark, bool) {
	for _, b := range s.items {
		if b.ID == id {
			return b, true
		}
	}
	return Bookmark{}, false
}

// Remove drops a bookmark. Unknown ids are ignored.
func (s *Store) Remove(id string) bool {
	for i, b := range s.items {
		if b.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy, newest first.
func (s *Store) List() []Bookmark {
	out := make([]Bookmark, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int { return len(s.items) }
