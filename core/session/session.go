// Package session owns the mutable state of one practice session. All
// methods must be called from the goroutine running Run (or, in tests and the
// terminal front-end, from the single goroutine that owns the Session).
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DanceDeck/core/bookmark"
	"DanceDeck/core/drag"
	"DanceDeck/core/library"
	"DanceDeck/core/loop"
	"DanceDeck/core/persist"
	"DanceDeck/core/playback"
	"DanceDeck/core/taptempo"
	"DanceDeck/model"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// ErrBookmarkNotFound is returned when recalling an unknown bookmark.
var ErrBookmarkNotFound = errors.New("bookmark not found")

// SaveFunc persists a record snapshot. It runs off the session goroutine.
type SaveFunc func(ctx context.Context, v *model.Video) error

// Options configures a Session. Only Player is required.
type Options struct {
	Player      playback.Player
	Save        SaveFunc
	SaveDelay   time.Duration
	SaveTimeout time.Duration
	Clock       clock.Clock
	Logger      *zap.Logger
	Diagnostics Diagnostics
	// OnControlsHidden runs on the session goroutine when the auto-hide
	// timer fires.
	OnControlsHidden func(*Session)
	// Post overrides how timer callbacks reach the owning goroutine. It
	// defaults to the Run event queue.
	Post func(func())
	// EventBuffer sizes the inbound event queue used by Run.
	EventBuffer int
}

// Session is the single logical owner of a practice session.
type Session struct {
	video      *model.Video
	window     *loop.Window
	controller *playback.Controller
	controls   *playback.Controls
	taps       *taptempo.Estimator
	drag       *drag.Controller
	bookmarks  *bookmark.Store
	trackWidth float64

	saver       *persist.Debouncer[*model.Video]
	save        SaveFunc
	saveTimeout time.Duration
	clock       clock.Clock
	log         *zap.Logger
	diag        Diagnostics

	events chan func(*Session)
	done   chan struct{}
	closed bool
}

// New builds a session from a loaded record. The record is copied.
func New(v *model.Video, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = NewOnceLogger(opts.Logger)
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 5 * time.Second
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}

	rec := v.Clone()
	rec.Normalize()

	s := &Session{
		video:       rec,
		taps:        taptempo.NewEstimator(),
		drag:        drag.NewController(),
		bookmarks:   bookmark.NewStore(rec.Bookmarks()),
		save:        opts.Save,
		saveTimeout: opts.SaveTimeout,
		clock:       opts.Clock,
		log:         opts.Logger.With(zap.String("video", rec.ID)),
		diag:        opts.Diagnostics,
		events:      make(chan func(*Session), opts.EventBuffer),
		done:        make(chan struct{}),
	}
	s.window = loop.NewWindow(rec.Tempo(), rec.LoopSpec(), rec.DurationMillis)
	s.controller = playback.NewController(opts.Player, s.window, playback.WithLogger(s.log))

	post := opts.Post
	if post == nil {
		post = s.postFunc
	}
	onHidden := opts.OnControlsHidden
	s.controls = playback.NewControls(opts.Clock, post, func() {
		if onHidden != nil {
			onHidden(s)
		}
	})
	s.saver = persist.NewDebouncer(opts.Clock, opts.SaveDelay, s.write)
	return s
}

// Run processes posted events until ctx is done. It is the only goroutine
// allowed to touch the session while it runs.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.events:
			fn(s)
		}
	}
}

// Post queues fn for the session goroutine. It returns false once Run has
// returned.
func (s *Session) Post(fn func(*Session)) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) postFunc(fn func()) {
	s.Post(func(*Session) { fn() })
}

// Close stops timers and drops a pending save. Edits from the last second
// before teardown are lost.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.controls.Stop()
	if s.saver.Stop() {
		s.log.Info("session closed with unsaved edits dropped")
	}
}

// Flush writes a pending save now instead of waiting for the quiet period.
func (s *Session) Flush() bool {
	return s.saver.Flush()
}

func (s *Session) VideoID() string { return s.video.ID }

// ---- playback ----

// Observe handles one player status tick. It reports whether the loop fired
// and whether the window moved because the duration changed.
func (s *Session) Observe(obs playback.Observation) (seeked, windowMoved bool) {
	if obs.DurationMillis > 0 {
		s.diag.Once("duration", "player reported duration", zap.Float64("durationMillis", obs.DurationMillis))
		before := s.window.Spec()
		if s.window.SetDuration(obs.DurationMillis) {
			s.video.DurationMillis = obs.DurationMillis
			windowMoved = s.window.Spec() != before
			s.touch()
		}
	}
	seeked = s.controller.Observe(obs)
	s.controls.SetPlaying(obs.IsPlaying)
	return seeked, windowMoved
}

func (s *Session) TogglePlay() bool {
	playing := s.controller.TogglePlay()
	s.controls.SetPlaying(playing)
	return playing
}

func (s *Session) SeekRelative(deltaMillis float64) float64 {
	return s.controller.SeekRelative(deltaMillis)
}

func (s *Session) SeekTo(positionMillis float64) float64 {
	return s.controller.SeekTo(positionMillis)
}

func (s *Session) CycleRate() float64        { return s.controller.CycleRate() }
func (s *Session) SetRate(r float64) float64 { return s.controller.SetRate(r) }
func (s *Session) ToggleLoop() bool          { return s.controller.ToggleLoop() }
func (s *Session) ToggleMirror() bool        { return s.controller.ToggleMirror() }

// ControlsTap toggles the overlay from an explicit tap.
func (s *Session) ControlsTap() bool { return s.controls.Tap() }

func (s *Session) HideControls() { s.controls.Hide() }

// ---- tempo and loop ----

func (s *Session) SetBPM(bpm float64) {
	s.window.SetBPM(bpm)
	s.touch()
}

func (s *Session) AdjustBPM(delta float64) {
	s.window.AdjustBPM(delta)
	s.touch()
}

// Rephase makes the current playback position beat 1.
func (s *Session) Rephase() float64 {
	pos := s.controller.Last().PositionMillis
	s.window.SetPhase(pos)
	s.touch()
	return s.window.Tempo().PhaseMillis
}

func (s *Session) SetPhase(phaseMillis float64) {
	s.window.SetPhase(phaseMillis)
	s.touch()
}

func (s *Session) SetLengthBeats(n int) {
	s.window.SetLengthBeats(n)
	s.touch()
}

// ---- tap tempo ----

func (s *Session) Tap(atMillis float64) taptempo.Reading {
	return s.taps.RecordTap(atMillis)
}

func (s *Session) ResetTaps() { s.taps.Reset() }

// ApplyTaps turns the tap estimate into a loop starting at the current
// position. It is inert without an estimate. A non-positive length keeps the
// current one.
func (s *Session) ApplyTaps(lengthBeats int) bool {
	if lengthBeats <= 0 {
		lengthBeats = s.window.Spec().LengthBeats
	}
	t, l, ok := s.taps.ApplyToLoop(lengthBeats, s.controller.Last().PositionMillis)
	if !ok {
		return false
	}
	s.window.Apply(t, l)
	s.touch()
	return true
}

// ---- drag ----

// SetTrackWidth records the bar width from a layout pass. A gesture in
// progress keeps the width it started with.
func (s *Session) SetTrackWidth(px float64) { s.trackWidth = px }

func (s *Session) DragStart() bool {
	return s.drag.Start(s.window.Params(), s.window.StartMillis(), s.trackWidth)
}

func (s *Session) DragMove(deltaPixels float64) bool {
	v, ok := s.drag.Move(deltaPixels)
	if ok {
		s.window.SetStart(v)
	}
	return ok
}

func (s *Session) DragEnd() bool    { return s.commitDrag(s.drag.End()) }
func (s *Session) DragCancel() bool { return s.commitDrag(s.drag.Cancel()) }

func (s *Session) commitDrag(v float64, ok bool) bool {
	if !ok {
		return false
	}
	s.window.SetStart(v)
	s.touch()
	return true
}

// ---- bookmarks ----

// CreateBookmark snapshots the live window. A *bookmark.PreconditionError is
// returned, with nothing changed, when the window cannot be bookmarked.
func (s *Session) CreateBookmark() (bookmark.Bookmark, error) {
	b, err := s.bookmarks.CreateFrom(s.window)
	if err != nil {
		return bookmark.Bookmark{}, err
	}
	s.touch()
	return b, nil
}

func (s *Session) ApplyBookmark(id string) error {
	b, ok := s.bookmarks.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBookmarkNotFound, id)
	}
	bookmark.Apply(b, s.window, s.controller)
	s.controls.SetPlaying(true)
	s.touch()
	return nil
}

func (s *Session) RemoveBookmark(id string) bool {
	if !s.bookmarks.Remove(id) {
		return false
	}
	s.touch()
	return true
}

// ---- metadata ----

func (s *Session) SetTitle(title string) {
	s.video.Title = title
	s.touch()
}

func (s *Session) SetMemo(memo string) {
	s.video.Memo = memo
	s.touch()
}

func (s *Session) AddTag(tag string) bool {
	tags, ok := library.AddTag(s.video.Tags, tag)
	if ok {
		s.video.Tags = tags
		s.touch()
	}
	return ok
}

func (s *Session) RemoveTag(tag string) bool {
	tags, ok := library.RemoveTag(s.video.Tags, tag)
	if ok {
		s.video.Tags = tags
		s.touch()
	}
	return ok
}

// ---- persistence ----

// Record returns a snapshot of the record as it would be saved now.
func (s *Session) Record() *model.Video {
	s.sync()
	return s.video.Clone()
}

func (s *Session) sync() {
	t, l := s.window.Tempo(), s.window.Spec()
	s.video.BPM = t.BPM
	s.video.PhaseMillis = t.PhaseMillis
	s.video.LoopLengthBeats = l.LengthBeats
	s.video.LoopStartMillis = l.StartMillis
	s.video.SetBookmarks(s.bookmarks.List())
}

// touch schedules a debounced save of the current state.
func (s *Session) touch() {
	if s.save == nil || s.closed {
		return
	}
	s.sync()
	s.video.UpdatedAt = s.clock.Now().UnixMilli()
	s.saver.Schedule(s.video.Clone())
}

func (s *Session) write(v *model.Video) {
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	if err := s.save(ctx, v); err != nil {
		s.log.Warn("saving practice session failed", zap.Error(err))
		return
	}
	s.log.Debug("practice session saved", zap.Int64("updatedAt", v.UpdatedAt))
}
