package processor

import (
	"math"
	"testing"
)

func TestWindowSize(t *testing.T) {
	tests := []struct {
		channels, rate int
		want           int
	}{
		{1, 1000, 20},
		{1, 44100, 882},
		{2, 44100, 1764},
		{6, 48000, 5760},
		{1, 10, 1}, // never empty
	}

	for _, tt := range tests {
		if got := WindowSize(tt.channels, tt.rate); got != tt.want {
			t.Errorf("WindowSize(%d, %d) = %d, want %d", tt.channels, tt.rate, got, tt.want)
		}
	}
}

func TestEstimatorRunningSumMatchesWindow(t *testing.T) {
	e := NewEstimator(2, 1000, 0.98, 0.01)

	rng := uint32(99)
	for i := 0; i < 5003; i++ {
		rng = rng*1664525 + 1013904223
		x := (float64(rng)/float64(0xFFFFFFFF))*2 - 1
		e.Push(i%2, x)

		var want float64
		for _, v := range e.window {
			want += v
		}
		if diff := math.Abs(e.sum - want); diff > 1e-9*math.Max(1, want) {
			t.Fatalf("after %d pushes running sum %v, window sum %v", i+1, e.sum, want)
		}
	}
}

func TestEstimatorPassThrough(t *testing.T) {
	e := NewEstimator(1, 1000, 1.0, 0.01)
	for _, x := range []float64{0.5, -0.25, 0.75, 0} {
		e.Push(0, x)
		if e.y1[0] != x {
			t.Errorf("a=1.0 output %v, want input %v", e.y1[0], x)
		}
	}
}

func TestEstimatorRejectsDC(t *testing.T) {
	e := NewEstimator(1, 1000, 0.9, 0.01)

	loud := false
	for i := 0; i < 20; i++ {
		loud = e.Push(0, 1.0)
	}
	if !loud {
		t.Fatal("DC step should be loud while the filter settles")
	}

	for i := 0; i < 1000; i++ {
		loud = e.Push(0, 1.0)
	}
	if loud {
		t.Errorf("constant DC still above threshold after settling, energy %v", e.Energy())
	}

	passthrough := NewEstimator(1, 1000, 1.0, 0.01)
	for i := 0; i < 1000; i++ {
		loud = passthrough.Push(0, 1.0)
	}
	if !loud {
		t.Error("a=1.0 must not filter DC")
	}
}

func TestEstimatorAnyChannelTriggers(t *testing.T) {
	e := NewEstimator(2, 1000, 1.0, 0.1)
	if e.Frame([]float32{0, 0}) {
		t.Fatal("silent frame reported loud")
	}
	if !e.Frame([]float32{0, 1}) {
		t.Error("one loud channel must make the frame loud")
	}
}

func TestEstimatorReset(t *testing.T) {
	e := NewEstimator(1, 1000, 0.98, 0.01)
	for i := 0; i < 37; i++ {
		e.Push(0, 0.8)
	}
	e.Reset()

	if e.sum != 0 || e.cursor != 0 || e.x1[0] != 0 || e.y1[0] != 0 {
		t.Fatalf("Reset left state behind: sum=%v cursor=%d x1=%v y1=%v", e.sum, e.cursor, e.x1[0], e.y1[0])
	}
	for i, v := range e.window {
		if v != 0 {
			t.Fatalf("window[%d] = %v after Reset", i, v)
		}
	}
}

func TestEstimatorSnapshot(t *testing.T) {
	e := NewEstimator(1, 1000, 0.98, 0.01)
	for i := 0; i < 13; i++ {
		e.Push(0, 0.3)
	}

	var saved Estimator
	e.snapshot(&saved)
	e.Push(0, 1.0)
	saved.snapshot(e)

	if e.cursor != 13 || e.x1[0] != 0.3 {
		t.Errorf("restore gave cursor=%d x1=%v, want 13 and 0.3", e.cursor, e.x1[0])
	}
}

func TestHighpassCoefficient(t *testing.T) {
	if got := HighpassCoefficient(0, 44100); got != 1.0 {
		t.Errorf("cutoff 0 = %v, want 1.0", got)
	}

	prev := 1.0
	for _, fc := range []float64{10, 50, 100, 500, 5000} {
		a := HighpassCoefficient(fc, 44100)
		if a <= 0 || a >= 1 {
			t.Fatalf("cutoff %v Hz gave a=%v outside (0, 1)", fc, a)
		}
		if a >= prev {
			t.Errorf("coefficient must fall as cutoff rises: %v Hz gave %v after %v", fc, a, prev)
		}
		prev = a
	}

	// RC/(RC+dt) with fc = 1/(2*pi*RC): a=0.98 at 44.1 kHz is about 143 Hz.
	if a := HighpassCoefficient(143.2, 44100); math.Abs(a-0.98) > 0.001 {
		t.Errorf("143.2 Hz at 44.1 kHz = %v, want ~0.98", a)
	}
}
