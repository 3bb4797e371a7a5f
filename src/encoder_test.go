package main

import (
	"testing"
	"time"
)

// fakeClock drives the decoder's injected now/sleep so the blocking
// collection window runs instantly in tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.t = c.t.Add(d)
}

// lineScript replays switch line levels, one per read; the line idles
// high once the script runs out.
type lineScript struct {
	levels []bool
	idx    int
}

func (s *lineScript) read() bool {
	if s.idx >= len(s.levels) {
		return true
	}
	v := s.levels[s.idx]
	s.idx++
	return v
}

func newTestDecoder(script *lineScript) (*GestureDecoder, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	d := newGestureDecoder(script.read)
	d.now = clock.now
	d.sleep = clock.sleep
	return d, clock
}

func feed(d *GestureDecoder, samples [][2]bool) []Step {
	var steps []Step
	for _, s := range samples {
		if st := d.FeedRotation(s[0], s[1]); st != StepNone {
			steps = append(steps, st)
		}
	}
	return steps
}

func TestRotationClockwise(t *testing.T) {
	d, _ := newTestDecoder(&lineScript{})

	steps := feed(d, [][2]bool{{true, true}, {true, false}})
	if len(steps) != 1 || steps[0] != StepClockwise {
		t.Fatalf("expected exactly one StepClockwise, got %v", steps)
	}
	if len(d.history) != 1 || d.history[0] != stateAOnly {
		t.Errorf("history should collapse to [(1,0)], got %v", d.history)
	}
}

func TestRotationCounterClockwise(t *testing.T) {
	d, _ := newTestDecoder(&lineScript{})

	steps := feed(d, [][2]bool{{true, true}, {false, true}})
	if len(steps) != 1 || steps[0] != StepCounterClockwise {
		t.Fatalf("expected exactly one StepCounterClockwise, got %v", steps)
	}
	if len(d.history) != 1 || d.history[0] != stateBOnly {
		t.Errorf("history should collapse to [(0,1)], got %v", d.history)
	}
}

func TestRotationUnrecognizedPairsRetained(t *testing.T) {
	tests := []struct {
		name    string
		samples [][2]bool
	}{
		{"both low then a only", [][2]bool{{false, false}, {true, false}}},
		{"b only then both low", [][2]bool{{false, true}, {false, false}}},
		{"a only then both high", [][2]bool{{true, false}, {true, true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDecoder(&lineScript{})
			steps := feed(d, tt.samples)
			if len(steps) != 0 {
				t.Errorf("expected no steps, got %v", steps)
			}
			if len(d.history) != 2 {
				t.Errorf("history should be retained at 2 entries, got %v", d.history)
			}
		})
	}
}

func TestRotationDuplicateSamplesIgnored(t *testing.T) {
	d, _ := newTestDecoder(&lineScript{})

	// Held at (1,1) across many ticks, then one transition.
	samples := [][2]bool{{true, true}, {true, true}, {true, true}, {true, false}}
	steps := feed(d, samples)
	if len(steps) != 1 || steps[0] != StepClockwise {
		t.Fatalf("expected exactly one StepClockwise, got %v", steps)
	}
}

func TestRotationResolvesAfterThirdSample(t *testing.T) {
	d, _ := newTestDecoder(&lineScript{})

	// [(0,0),(1,1)] is unmatched; the next (1,0) forms [(1,1),(1,0)].
	steps := feed(d, [][2]bool{{false, false}, {true, true}, {true, false}})
	if len(steps) != 1 || steps[0] != StepClockwise {
		t.Fatalf("expected StepClockwise after third sample, got %v", steps)
	}
}

func TestSinglePressPlayPause(t *testing.T) {
	// Line stays high after the opening press: no further edges.
	d, _ := newTestDecoder(&lineScript{})

	g := d.FeedButton(false, false)
	if g != GesturePlayPause {
		t.Fatalf("single press should classify as play/pause, got %v", g)
	}
}

func TestDoublePressWhilePlaying(t *testing.T) {
	// Collection reads: release, press again, then idle high.
	d, _ := newTestDecoder(&lineScript{levels: []bool{true, false, true, true}})

	g := d.FeedButton(false, true)
	if g != GestureSkipForward {
		t.Fatalf("double press while playing should skip forward, got %v", g)
	}
}

func TestDoublePressWhileStopped(t *testing.T) {
	d, _ := newTestDecoder(&lineScript{levels: []bool{true, false, true, true}})

	g := d.FeedButton(false, false)
	if g != GestureNone {
		t.Fatalf("double press while stopped should be dropped, got %v", g)
	}
}

func TestTriplePressWhilePlaying(t *testing.T) {
	// Edges at the 2nd and 4th collection reads: three presses total.
	d, _ := newTestDecoder(&lineScript{levels: []bool{true, false, true, false}})

	g := d.FeedButton(false, true)
	if g != GestureSkipBackward {
		t.Fatalf("triple press while playing should skip backward, got %v", g)
	}
}

func TestClassifyGesture(t *testing.T) {
	tests := []struct {
		count   int
		playing bool
		want    Gesture
	}{
		{0, true, GestureNone},
		{1, false, GesturePlayPause},
		{1, true, GesturePlayPause},
		{2, true, GestureSkipForward},
		{2, false, GestureNone},
		{3, true, GestureSkipBackward},
		{3, false, GestureNone},
		{4, true, GestureNone},
		{7, true, GestureNone},
	}

	for _, tt := range tests {
		if got := classifyGesture(tt.count, tt.playing); got != tt.want {
			t.Errorf("classifyGesture(%d, %v) = %v, want %v", tt.count, tt.playing, got, tt.want)
		}
	}
}

func TestStaleGestureStartsFreshCount(t *testing.T) {
	d, clock := newTestDecoder(&lineScript{})

	if g := d.FeedButton(false, true); g != GesturePlayPause {
		t.Fatalf("first gesture should classify on its own, got %v", g)
	}

	// Release, then a press 1.6s after the previous one: the counter
	// must restart at 1, not accumulate into a double press.
	d.FeedButton(true, true)
	clock.t = clock.t.Add(1600 * time.Millisecond)
	if g := d.FeedButton(false, true); g != GesturePlayPause {
		t.Fatalf("stale press should start a fresh single-press gesture, got %v", g)
	}
}

func TestCollectionWindowDuration(t *testing.T) {
	d, clock := newTestDecoder(&lineScript{})
	start := clock.t

	d.FeedButton(false, false)

	elapsed := clock.t.Sub(start)
	if elapsed < GESTURE_WINDOW {
		t.Errorf("collection should block for the full window, elapsed %v", elapsed)
	}
	// Four settle+poll rounds of 230ms each.
	if elapsed > GESTURE_WINDOW+GESTURE_SETTLE+GESTURE_POLL {
		t.Errorf("collection overran the window by too much: %v", elapsed)
	}
}
