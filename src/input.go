package main

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// InputLines holds the claimed encoder and switch GPIO lines. All three
// idle high through pull-ups; active is low.
type InputLines struct {
	a, b, sw gpio.PinIO
}

// claimInputLines configures the three input pins. Failure is a fatal
// startup error: without the encoder the appliance has no controls.
func claimInputLines() (*InputLines, error) {
	l := &InputLines{}

	pins := []struct {
		name string
		dst  *gpio.PinIO
	}{
		{PIN_ENCODER_A, &l.a},
		{PIN_ENCODER_B, &l.b},
		{PIN_SWITCH, &l.sw},
	}

	for _, p := range pins {
		pin := gpioreg.ByName(p.name)
		if pin == nil {
			return nil, fmt.Errorf("gpio %s not found", p.name)
		}
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("gpio %s: %w", p.name, err)
		}
		*p.dst = pin
	}

	logMsg(fmt.Sprintf("INFO: Input lines claimed, initial A=%v B=%v SW=%v",
		l.a.Read(), l.b.Read(), l.sw.Read()))
	return l, nil
}

// Sample reads all three lines for one decoder tick.
func (l *InputLines) Sample() (a, b, sw bool) {
	return l.a.Read() == gpio.High,
		l.b.Read() == gpio.High,
		l.sw.Read() == gpio.High
}

// ReadSwitch reads just the switch line; used by the gesture collection
// window between settle delays.
func (l *InputLines) ReadSwitch() bool {
	return l.sw.Read() == gpio.High
}

// Release hands the lines back on shutdown.
func (l *InputLines) Release() {
	for _, pin := range []gpio.PinIO{l.a, l.b, l.sw} {
		if pin == nil {
			continue
		}
		if err := pin.Halt(); err != nil {
			logMsg(fmt.Sprintf("WARNING: Could not release %s: %v", pin.Name(), err))
		}
	}
}
