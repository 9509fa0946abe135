package drag

import (
	"testing"

	"DanceDeck/core/loop"
)

// 60s video on a 600px bar: 1px = 100ms. 120 bpm, 8 beats = 4000ms = 40px.
var params = loop.Params{BPM: 120, PhaseMillis: 0, LengthBeats: 8, DurationMillis: 60000}

func TestInertWithoutGeometry(t *testing.T) {
	d := NewController()
	if d.Start(params, 1000, 0) {
		t.Fatal("started on a zero-width bar")
	}
	p := params
	p.DurationMillis = 0
	if d.Start(p, 1000, 600) {
		t.Fatal("started with unknown duration")
	}
	if _, ok := d.Move(50); ok {
		t.Fatal("move accepted while idle")
	}
	if _, ok := d.End(); ok {
		t.Fatal("end accepted while idle")
	}
}

func TestMoveIsClampedNotSnapped(t *testing.T) {
	d := NewController()
	if !d.Start(params, 10000, 600) {
		t.Fatal("start failed")
	}
	got, ok := d.Move(23)
	if !ok || got != 12300 {
		t.Fatalf("move = %v, want 12300", got)
	}
	got, _ = d.Move(-500)
	if got != 0 {
		t.Fatalf("move past left edge = %v, want 0", got)
	}
	got, _ = d.Move(10000)
	if got != 56000 {
		t.Fatalf("move past right edge = %v, want 56000", got)
	}
}

func TestEndSnapsToBeat(t *testing.T) {
	d := NewController()
	d.Start(params, 10000, 600)
	d.Move(23) // 12300
	got, ok := d.End()
	if !ok || got != 12500 {
		t.Fatalf("end = %v, want 12500", got)
	}
	if d.State() != Idle {
		t.Fatal("still dragging after end")
	}
}

func TestCancelSnapsLikeEnd(t *testing.T) {
	d := NewController()
	p := params
	p.PhaseMillis = 130
	d.Start(p, 10000, 600)
	d.Move(-21) // 7900
	got, ok := d.Cancel()
	if !ok || got != 8130 {
		t.Fatalf("cancel = %v, want 8130", got)
	}
	if _, ok := d.Cancel(); ok {
		t.Fatal("second terminal event accepted")
	}
}

func TestEndWithoutMoveSnapsOrigin(t *testing.T) {
	d := NewController()
	d.Start(params, 10240, 600)
	got, _ := d.End()
	if got != 10000 {
		t.Fatalf("end = %v, want 10000", got)
	}
}

func TestParamsFrozenForGesture(t *testing.T) {
	d := NewController()
	frozen := params
	d.Start(frozen, 0, 600)
	frozen.BPM = 60 // caller's copy changes, gesture must not see it
	d.Move(100)
	got, _ := d.End()
	if got != 10000 {
		t.Fatalf("end = %v, want 10000", got)
	}
}
