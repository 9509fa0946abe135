package bookmark

import (
	"DanceDeck/core/loop"
	"DanceDeck/core/playback"
)

// Apply recalls a bookmark: the live window takes its values, looping is
// forced on, and playback jumps to the bookmark start and resumes.
func Apply(b Bookmark, w *loop.Window, c *playback.Controller) {
	w.Apply(b.Tempo(), b.Spec())
	c.SetLoopEnabled(true)
	c.SeekTo(b.StartMillis)
	c.Play()
}
