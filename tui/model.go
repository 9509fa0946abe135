package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"DanceDeck/core/bookmark"
	"DanceDeck/core/session"
	"DanceDeck/core/tempo"
	"DanceDeck/model"
)

const (
	defaultTickInterval = 50 * time.Millisecond
	defaultTrackWidth   = 60
	seekStepMillis      = 5000
	postBuffer          = 16
)

// Config controls the practice TUI.
type Config struct {
	TickInterval time.Duration
	SaveDelay    time.Duration
	Clock        clock.Clock
	Logger       *zap.Logger
}

// Run opens an interactive practice session on v and blocks until the user
// quits. Pending edits are written before it returns.
func Run(v *model.Video, save session.SaveFunc, cfg Config) error {
	m := newModel(v, save, cfg)
	defer m.sess.Close()

	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err := program.Run()
	m.sess.Flush()
	return err
}

type tickMsg time.Time

type postMsg func()

type practiceModel struct {
	sess   *session.Session
	player *SimPlayer
	posts  chan func()
	clock  clock.Clock
	tick   time.Duration
	last   time.Time

	width    int
	selected int
	notice   string
}

func newModel(v *model.Video, save session.SaveFunc, cfg Config) practiceModel {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	posts := make(chan func(), postBuffer)
	player := NewSimPlayer(v.DurationMillis)
	sess := session.New(v, session.Options{
		Player:    player,
		Save:      save,
		SaveDelay: cfg.SaveDelay,
		Clock:     cfg.Clock,
		Logger:    cfg.Logger,
		Post:      func(fn func()) { posts <- fn },
	})
	sess.SetTrackWidth(defaultTrackWidth)
	sess.Observe(player.Observation())
	return practiceModel{
		sess:   sess,
		player: player,
		posts:  posts,
		clock:  cfg.Clock,
		tick:   cfg.TickInterval,
		last:   cfg.Clock.Now(),
		width:  defaultTrackWidth,
	}
}

func (m practiceModel) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.waitPost())
}

func (m practiceModel) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitPost delivers timer callbacks to the Update goroutine, which owns the
// session.
func (m practiceModel) waitPost() tea.Cmd {
	return func() tea.Msg { return postMsg(<-m.posts) }
}

func (m practiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = trackWidthFor(msg.Width)
		m.sess.SetTrackWidth(float64(m.width))
		return m, nil
	case tickMsg:
		m.advance()
		return m, m.tickCmd()
	case postMsg:
		msg()
		return m, m.waitPost()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func trackWidthFor(termWidth int) int {
	w := termWidth - 4
	if w < 10 {
		w = 10
	}
	return w
}

func (m *practiceModel) advance() {
	now := m.clock.Now()
	m.player.Advance(now.Sub(m.last))
	m.last = now
	m.sess.Observe(m.player.Observation())
}

func (m practiceModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	m.sess.ControlsTap()
	view := m.sess.View()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case " ":
		m.sess.TogglePlay()
	case "left":
		m.sess.SeekRelative(-seekStepMillis)
	case "right":
		m.sess.SeekRelative(seekStepMillis)
	case "+", "=":
		m.sess.AdjustBPM(1)
	case "-", "_":
		m.sess.AdjustBPM(-1)
	case "p":
		m.sess.Rephase()
	case "1", "2", "3", "4":
		m.sess.SetLengthBeats(tempo.Presets[msg.String()[0]-'1'])
	case "o":
		m.sess.ToggleLoop()
	case "m":
		m.sess.ToggleMirror()
	case "s":
		m.sess.CycleRate()
	case "c":
		m.sess.HideControls()
	case "t":
		m.sess.Tap(float64(m.clock.Now().UnixMilli()))
	case "r":
		m.sess.ResetTaps()
	case "enter":
		if !m.sess.ApplyTaps(view.LoopLengthBeats) {
			m.notice = "tap at least twice first"
		}
	case "<", ",":
		m.shiftWindow(view, -1)
	case ">", ".":
		m.shiftWindow(view, 1)
	case "b":
		if _, err := m.sess.CreateBookmark(); err != nil {
			m.notice = bookmarkNotice(err)
		} else {
			m.selected = len(view.Bookmarks)
		}
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(view.Bookmarks)-1 {
			m.selected++
		}
	case "a":
		if b, ok := m.selectedBookmark(view); ok {
			_ = m.sess.ApplyBookmark(b.ID)
		}
	case "x":
		if b, ok := m.selectedBookmark(view); ok {
			m.sess.RemoveBookmark(b.ID)
			if m.selected > 0 && m.selected >= len(view.Bookmarks)-1 {
				m.selected--
			}
		}
	}
	return m, nil
}

// shiftWindow nudges the loop by one beat through a synthetic drag so the
// result snaps exactly like a pointer gesture.
func (m *practiceModel) shiftWindow(view session.View, beats float64) {
	if view.DurationMillis <= 0 {
		m.notice = "duration unknown"
		return
	}
	px := beats * view.BeatDurationMillis / view.DurationMillis * float64(m.width)
	if !m.sess.DragStart() {
		return
	}
	m.sess.DragMove(px)
	m.sess.DragEnd()
}

func (m practiceModel) selectedBookmark(view session.View) (bookmark.Bookmark, bool) {
	if m.selected < 0 || m.selected >= len(view.Bookmarks) {
		return bookmark.Bookmark{}, false
	}
	return view.Bookmarks[m.selected], true
}

func bookmarkNotice(err error) string {
	switch {
	case errors.Is(err, bookmark.ErrDurationUnknown):
		return "cannot bookmark before the duration is known"
	case errors.Is(err, bookmark.ErrWindowExceedsDuration):
		return "loop runs past the end of the video"
	default:
		return fmt.Sprintf("bookmark failed: %v", err)
	}
}
