package tempo

import (
	"math"
	"testing"
)

func TestBeatDuration(t *testing.T) {
	cases := []struct {
		bpm  float64
		want float64
	}{
		{120, 500},
		{60, 1000},
		{20, 3000},
		{240, 250},
	}
	for _, c := range cases {
		if got := BeatDurationMillis(c.bpm); got != c.want {
			t.Fatalf("BeatDurationMillis(%v) = %v, want %v", c.bpm, got, c.want)
		}
	}
}

func TestBeatDurationNonPositive(t *testing.T) {
	for _, bpm := range []float64{0, -10} {
		if got := BeatDurationMillis(bpm); !math.IsInf(got, 1) {
			t.Fatalf("BeatDurationMillis(%v) = %v, want +Inf", bpm, got)
		}
	}
}

func TestLoopDuration(t *testing.T) {
	if got := LoopDurationMillis(120, 8); got != 4000 {
		t.Fatalf("LoopDurationMillis(120, 8) = %v, want 4000", got)
	}
	if got := LoopDurationMillis(90, 4); math.Abs(got-2666.6667) > 0.001 {
		t.Fatalf("LoopDurationMillis(90, 4) = %v", got)
	}
}

func TestClampBPM(t *testing.T) {
	cases := map[float64]float64{
		0:    20,
		-5:   20,
		19.9: 20,
		20:   20,
		300:  300,
	}
	for in, want := range cases {
		if got := ClampBPM(in); got != want {
			t.Fatalf("ClampBPM(%v) = %v, want %v", in, got, want)
		}
	}
	if got := ClampBPM(math.NaN()); got != MinBPM {
		t.Fatalf("ClampBPM(NaN) = %v", got)
	}
}

func TestClampLengthAndBars(t *testing.T) {
	if ClampLength(0) != 1 || ClampLength(-3) != 1 || ClampLength(16) != 16 {
		t.Fatal("ClampLength did not coerce to >= 1")
	}
	if Bars(8) != 2 || Bars(4) != 1 {
		t.Fatalf("Bars: got %v / %v", Bars(8), Bars(4))
	}
}
