package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"DanceDeck/core/library"
	"DanceDeck/core/loop"
	"DanceDeck/core/session"
	"DanceDeck/core/tempo"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	windowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	headStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
)

const helpText = "space play  ←/→ seek  +/- bpm  p rephase  1-4 length  </> shift  o loop  " +
	"t tap  enter apply  r reset  b bookmark  ↑/↓ select  a apply  x delete  m mirror  s rate  c hide  q quit"

func (m practiceModel) View() string {
	v := m.sess.View()
	var b strings.Builder

	title := v.Title
	if title == "" {
		title = v.VideoID
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(statusLine(v))
	b.WriteString("\n")
	b.WriteString(loopLine(v))
	b.WriteString("\n\n")
	b.WriteString(renderTrack(v.Geometry))
	b.WriteString("\n\n")
	b.WriteString(tapLine(v.Tap))
	b.WriteString("\n\n")
	b.WriteString(bookmarkList(v, m.selected))

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(m.notice))
	}
	if v.ControlsVisible {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render(helpText))
	}
	b.WriteString("\n")
	return b.String()
}

func statusLine(v session.View) string {
	icon := "⏸"
	if v.IsPlaying {
		icon = "▶"
	}
	duration := "--:--"
	if v.DurationMillis > 0 {
		duration = library.FormatTime(v.DurationMillis)
	}
	return fmt.Sprintf("%s %s / %s   %s %.2gx   %s %s   %s %s",
		icon, library.FormatTime(v.PositionMillis), duration,
		labelStyle.Render("rate"), v.Rate,
		labelStyle.Render("loop"), onOff(v.LoopEnabled),
		labelStyle.Render("mirror"), onOff(v.Mirrored))
}

func loopLine(v session.View) string {
	return fmt.Sprintf("%s %.0f   %s %s   %s %d beats (%g bars)   %s %s–%s",
		labelStyle.Render("bpm"), v.BPM,
		labelStyle.Render("phase"), library.FormatTime(v.PhaseMillis),
		labelStyle.Render("length"), v.LoopLengthBeats, tempo.Bars(v.LoopLengthBeats),
		labelStyle.Render("window"), library.FormatTime(v.LoopStartMillis), library.FormatTime(v.LoopEndMillis))
}

// renderTrack draws the loop bar one cell per pixel of geometry.
func renderTrack(g *loop.Geometry) string {
	if g == nil || g.TrackWidth < 1 {
		return labelStyle.Render("waiting for duration…")
	}
	width := int(g.TrackWidth)
	lo := int(math.Floor(g.WindowLeft))
	hi := int(math.Ceil(g.WindowLeft + g.WindowWidth))
	head := int(math.Floor(g.PlayheadLeft))
	if head >= width {
		head = width - 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == head:
			b.WriteString(headStyle.Render("│"))
		case i >= lo && i < hi:
			b.WriteString(windowStyle.Render("█"))
		default:
			b.WriteString(labelStyle.Render("─"))
		}
	}
	return b.String()
}

func tapLine(t session.TapView) string {
	label := labelStyle.Render("tap")
	switch t.State {
	case "estimating":
		return fmt.Sprintf("%s %d BPM from %d taps, enter to apply", label, t.BPM, t.Taps)
	case "collecting":
		return fmt.Sprintf("%s keep tapping (%d)", label, t.Taps)
	default:
		return fmt.Sprintf("%s press t on the beat", label)
	}
}

func bookmarkList(v session.View, selected int) string {
	if len(v.Bookmarks) == 0 {
		return labelStyle.Render("no bookmarks")
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("bookmarks"))
	for i, bm := range v.Bookmarks {
		cursor := "  "
		if i == selected {
			cursor = cursorStyle.Render("> ")
		}
		fmt.Fprintf(&b, "\n%s%s  %.0f bpm  %d beats", cursor, library.FormatTime(bm.StartMillis), bm.BPM, bm.LengthBeats)
	}
	return b.String()
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
