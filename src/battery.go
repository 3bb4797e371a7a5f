package main

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// gaugeBus is the part of i2c.Dev the gauge needs; tests substitute a
// scripted implementation.
type gaugeBus interface {
	Tx(w, r []byte) error
}

// BatteryGauge samples voltage and state-of-charge from the fuel gauge.
// Reads fail soft: the caller gets a zero reading and the loop goes on.
type BatteryGauge struct {
	bus  gaugeBus
	last BatteryReading
}

// openBatteryGauge addresses the fuel gauge on the shared I2C bus.
func openBatteryGauge(bus i2c.Bus) *BatteryGauge {
	return &BatteryGauge{bus: &i2c.Dev{Addr: GAUGE_I2C_ADDR, Bus: bus}}
}

// readWord reads one 16-bit register. The gauge answers MSB first while
// SMBus word order is LSB first, so the raw word is byte-swapped before
// scaling, same as the original firmware did.
func (g *BatteryGauge) readWord(reg byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := g.bus.Tx([]byte{reg}, buf); err != nil {
		return 0, err
	}
	word := uint16(buf[0]) | uint16(buf[1])<<8
	return word>>8 | word<<8, nil
}

// Read samples both registers. On any failure it logs, caches and
// returns the zero reading rather than a stale one.
func (g *BatteryGauge) Read() BatteryReading {
	rawV, err := g.readWord(GAUGE_REG_VCELL)
	if err != nil {
		logMsg(fmt.Sprintf("ERROR: Battery voltage read failed: %v", err))
		g.last = BatteryReading{}
		return g.last
	}

	rawP, err := g.readWord(GAUGE_REG_SOC)
	if err != nil {
		logMsg(fmt.Sprintf("ERROR: Battery capacity read failed: %v", err))
		g.last = BatteryReading{}
		return g.last
	}

	g.last = BatteryReading{
		Voltage: scaleVoltage(rawV),
		Percent: scalePercent(rawP),
	}
	return g.last
}

// Last returns the most recent reading without touching the bus.
func (g *BatteryGauge) Last() BatteryReading {
	return g.last
}

func scaleVoltage(raw uint16) float64 {
	return float64(raw) * 1.25 / 1000 / 16
}

func scalePercent(raw uint16) float64 {
	return float64(raw) / 256
}
