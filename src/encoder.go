package main

import (
	"fmt"
	"time"
)

// pinState is one sampled (lineA, lineB) pair from the encoder.
type pinState struct {
	a, b bool
}

var (
	stateBoth  = pinState{true, true}
	stateAOnly = pinState{true, false}
	stateBOnly = pinState{false, true}
)

// GestureDecoder turns raw encoder/button line samples into discrete
// events. It must be fed every loop tick; the tick rate is the decoding
// resolution, so ticks have to stay short enough (~10ms) not to miss
// line transitions between detents.
//
// The rotation decode matches only the two transitions the hardware
// produces reliably at detent boundaries: (1,1)->(1,0) clockwise and
// (1,1)->(0,1) counter-clockwise. It is deliberately not a full 4-state
// Gray-code machine; unmatched two-entry histories are retained so a
// later sample can resolve them.
type GestureDecoder struct {
	history  []pinState // last two distinct sampled pairs
	prev     pinState
	havePrev bool

	lastSW     bool
	pressCount int
	lastPress  time.Time

	// Injected so the blocking collection window is testable.
	readSwitch func() bool
	now        func() time.Time
	sleep      func(time.Duration)
}

func newGestureDecoder(readSwitch func() bool) *GestureDecoder {
	return &GestureDecoder{
		lastSW:     true, // switch line idles high (pull-up)
		readSwitch: readSwitch,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// FeedRotation consumes one (lineA, lineB) sample and reports at most
// one recognized detent step.
func (d *GestureDecoder) FeedRotation(a, b bool) Step {
	cur := pinState{a, b}

	if d.havePrev && cur == d.prev {
		return StepNone
	}
	d.prev = cur
	d.havePrev = true

	d.history = append(d.history, cur)
	if len(d.history) > 2 {
		d.history = d.history[1:]
	}

	if len(d.history) != 2 {
		return StepNone
	}

	switch {
	case d.history[0] == stateBoth && d.history[1] == stateAOnly:
		d.history = []pinState{d.history[1]}
		return StepClockwise
	case d.history[0] == stateBoth && d.history[1] == stateBOnly:
		d.history = []pinState{d.history[1]}
		return StepCounterClockwise
	}

	// Unrecognized pair: keep it, a third sample may resolve it.
	return StepNone
}

// FeedButton consumes one switch line sample. On the falling edge that
// opens a gesture it BLOCKS the caller for the 0.8s collection window,
// sampling the line for additional presses, then classifies the count.
// Every other responsibility of the main loop is starved for the
// duration of the window; that latency is the appliance's contract.
func (d *GestureDecoder) FeedButton(sw, playing bool) Gesture {
	pressed := !sw && d.lastSW
	d.lastSW = sw
	if !pressed {
		return GestureNone
	}

	now := d.now()
	if !d.lastPress.IsZero() && now.Sub(d.lastPress) > GESTURE_STALE_AFTER {
		d.pressCount = 0
	}
	d.pressCount++
	d.lastPress = now

	if d.pressCount != 1 {
		return GestureNone
	}

	d.collectPresses()

	count := d.pressCount
	d.pressCount = 0
	logMsg(fmt.Sprintf("INFO: Button gesture, %d press(es)", count))

	return classifyGesture(count, playing)
}

// classifyGesture maps a collected press count to an action. Skips need
// active playback; anything past three presses is dropped.
func classifyGesture(count int, playing bool) Gesture {
	switch {
	case count == 1:
		return GesturePlayPause
	case count == 2 && playing:
		return GestureSkipForward
	case count == 3 && playing:
		return GestureSkipBackward
	}
	return GestureNone
}

// collectPresses samples the switch line for the rest of the collection
// window, counting further falling edges. The settle delay between
// checks doubles as the contact debounce.
func (d *GestureDecoder) collectPresses() {
	start := d.now()
	last := false // line is low right now, the opening press

	for d.now().Sub(start) < GESTURE_WINDOW {
		d.sleep(GESTURE_SETTLE)
		cur := d.readSwitch()
		if !cur && last {
			d.pressCount++
			d.lastPress = d.now()
		}
		last = cur
		d.sleep(GESTURE_POLL)
	}

	d.lastSW = last
}
