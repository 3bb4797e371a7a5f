package main

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

// PrimaryDisplay is the 128x32 OLED. It takes pre-rendered frames; all
// composition (including the mounting flip) happens upstream.
type PrimaryDisplay struct {
	dev *ssd1306.Dev
}

func openPrimaryDisplay(bus i2c.Bus) (*PrimaryDisplay, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.Opts{W: OLED_WIDTH, H: OLED_HEIGHT})
	if err != nil {
		return nil, fmt.Errorf("ssd1306 init: %w", err)
	}
	return &PrimaryDisplay{dev: dev}, nil
}

func (d *PrimaryDisplay) Show(frame image.Image) error {
	return d.dev.Draw(d.dev.Bounds(), frame, image.Point{})
}

// Blank clears the panel and powers it down; part of the shutdown
// sequence.
func (d *PrimaryDisplay) Blank() error {
	black := image.NewGray(image.Rect(0, 0, OLED_WIDTH, OLED_HEIGHT))
	if err := d.dev.Draw(d.dev.Bounds(), black, image.Point{}); err != nil {
		return err
	}
	return d.dev.Halt()
}
