package taptempo

import "testing"

func tapAll(e *Estimator, taps ...float64) Reading {
	var r Reading
	for _, t := range taps {
		r = e.RecordTap(t)
	}
	return r
}

func TestSteadyTapsGive120(t *testing.T) {
	r := tapAll(NewEstimator(), 0, 500, 1000, 1500)
	if r.State != Estimating || r.BPM != 120 {
		t.Fatalf("reading = %+v, want estimating at 120", r)
	}
}

func TestSingleTapHasNoEstimate(t *testing.T) {
	e := NewEstimator()
	if r := e.Reading(); r.State != Idle {
		t.Fatalf("fresh estimator state = %v", r.State)
	}
	r := e.RecordTap(1000)
	if r.State != Collecting || r.BPM != 0 {
		t.Fatalf("reading = %+v, want collecting without bpm", r)
	}
}

func TestStaleTapsAreEvicted(t *testing.T) {
	r := tapAll(NewEstimator(), 0, 2000, 5000)
	if r.State != Collecting || r.Taps != 1 || r.BPM != 0 {
		t.Fatalf("reading = %+v, want one collecting tap", r)
	}
}

func TestEvictionBoundaryIsExclusive(t *testing.T) {
	// 3000ms back is already too old; 2999ms still counts
	r := tapAll(NewEstimator(), 0, 3000)
	if r.Taps != 1 {
		t.Fatalf("taps = %d, want 1", r.Taps)
	}
	r = tapAll(NewEstimator(), 1, 3000)
	if r.Taps != 2 || r.State != Estimating {
		t.Fatalf("reading = %+v", r)
	}
}

func TestAverageOfIntervals(t *testing.T) {
	// intervals 400, 600, 500 -> mean 500 -> 120
	r := tapAll(NewEstimator(), 100, 500, 1100, 1600)
	if r.BPM != 120 {
		t.Fatalf("bpm = %d, want 120", r.BPM)
	}
	// 60000/700 = 85.71 -> 86
	r = tapAll(NewEstimator(), 0, 700)
	if r.BPM != 86 {
		t.Fatalf("bpm = %d, want 86", r.BPM)
	}
}

func TestDuplicateTimestampsGiveNoEstimate(t *testing.T) {
	r := tapAll(NewEstimator(), 1000, 1000)
	if r.State != Collecting {
		t.Fatalf("reading = %+v", r)
	}
}

func TestBackwardsClockRestarts(t *testing.T) {
	r := tapAll(NewEstimator(), 5000, 5500, 1000)
	if r.Taps != 1 || r.State != Collecting {
		t.Fatalf("reading = %+v", r)
	}
}

func TestResetClears(t *testing.T) {
	e := NewEstimator()
	tapAll(e, 0, 500)
	e.Reset()
	if r := e.Reading(); r.State != Idle || r.Taps != 0 {
		t.Fatalf("after reset = %+v", r)
	}
}

func TestApplyToLoop(t *testing.T) {
	e := NewEstimator()
	if _, _, ok := e.ApplyToLoop(8, 1000); ok {
		t.Fatal("apply on idle estimator fired")
	}
	e.RecordTap(0)
	if _, _, ok := e.ApplyToLoop(8, 1000); ok {
		t.Fatal("apply while collecting fired")
	}
	if r := e.Reading(); r.Taps != 1 {
		t.Fatalf("inert apply changed state: %+v", r)
	}

	tapAll(e, 500, 1000)
	ts, ls, ok := e.ApplyToLoop(16, 4321)
	if !ok {
		t.Fatal("apply while estimating was inert")
	}
	if ts.BPM != 120 || ts.PhaseMillis != 4321 {
		t.Fatalf("tempo = %+v", ts)
	}
	if ls.LengthBeats != 16 || ls.StartMillis != 4321 {
		t.Fatalf("loop = %+v", ls)
	}
	if r := e.Reading(); r.State != Idle {
		t.Fatalf("estimator not reset after apply: %+v", r)
	}
}

func TestApplyClampsSlowTempo(t *testing.T) {
	e := NewEstimator()
	tapAll(e, 0, 2900) // about 21 bpm, still in range
	ts, _, ok := e.ApplyToLoop(4, 0)
	if !ok || ts.BPM != 21 {
		t.Fatalf("tempo = %+v ok=%v", ts, ok)
	}
}
