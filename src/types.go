package main

import (
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// App metadata
const (
	APP_NAME    = "MusiPi"
	APP_VERSION = "0.1.0"
	PROJECT_URL = "https://github.com/musipi/musipi"
)

// Primary display (SSD1306 OLED)
const OLED_WIDTH = 128
const OLED_HEIGHT = 32

// Reserved right-edge area for the battery readout; titles wider than
// OLED_WIDTH - BATTERY_RESERVED_PX scroll instead of truncating.
const BATTERY_RESERVED_PX = 30

// Secondary display (Waveshare 4" Spectra-6 e-paper)
const EINK_WIDTH = 600
const EINK_HEIGHT = 400

// Input lines (BCM numbering)
const (
	PIN_ENCODER_A = "GPIO22" // CLK
	PIN_ENCODER_B = "GPIO27" // DT
	PIN_SWITCH    = "GPIO23"
)

// Fuel gauge (MAX17043-compatible)
const (
	GAUGE_I2C_ADDR  = 0x36
	GAUGE_REG_VCELL = 0x02
	GAUGE_REG_SOC   = 0x04
)

// Loop cadences
const (
	TICK_INTERVAL   = 10 * time.Millisecond
	OLED_INTERVAL   = 100 * time.Millisecond
	EINK_INTERVAL   = 210 * time.Second
	ART_INTERVAL    = 5 * time.Second
	SCROLL_INTERVAL = 300 * time.Millisecond
	SCROLL_WINDOW   = 15 // visible characters while scrolling
)

// Button gesture timing
const (
	GESTURE_WINDOW      = 800 * time.Millisecond
	GESTURE_STALE_AFTER = 1500 * time.Millisecond
	GESTURE_SETTLE      = 180 * time.Millisecond
	GESTURE_POLL        = 50 * time.Millisecond
)

// Art paths
const (
	COVER_TMP_PATH     = "/tmp/current_cover.jpg"
	DEFAULT_COVER_PATH = "./assets/default_cover.jpg"
)

const UI_FONT_PATH = "./assets/ui_font.ttf"
const UI_FONT_SIZE = 12.0

// Step is one recognized rotary detent transition.
type Step int

const (
	StepNone Step = iota
	StepClockwise
	StepCounterClockwise
)

// Gesture is a classified multi-press button action.
type Gesture int

const (
	GestureNone Gesture = iota
	GesturePlayPause
	GestureSkipForward
	GestureSkipBackward
)

func (g Gesture) String() string {
	switch g {
	case GesturePlayPause:
		return "play/pause"
	case GestureSkipForward:
		return "skip forward"
	case GestureSkipBackward:
		return "skip backward"
	default:
		return "none"
	}
}

// Track is one playable file in the catalog. Immutable after the scan.
type Track struct {
	Name string
	Path string
}

// BatteryReading is the last sample from the fuel gauge.
// A failed read yields the zero value, same as a truly empty battery.
type BatteryReading struct {
	Voltage float64
	Percent float64
}

// MusiPi owns every piece of mutable appliance state. All of it is
// touched only from the main loop goroutine, so no locking.
type MusiPi struct {
	Running bool

	Settings *Settings
	Catalog  *Catalog

	Audio   AudioService
	Player  *Player
	Gauge   *BatteryGauge
	Lines   *InputLines
	Decoder *GestureDecoder

	OLED *PrimaryDisplay
	EInk SecondaryDisplay

	// Render context for the OLED frame
	DC     *gg.Context
	UIFont font.Face

	// Scroll state for the title line
	ScrollPos  int
	LastScroll time.Time

	// Cadence bookkeeping
	LastOLEDRender time.Time
	LastEInkRender time.Time
	LastArtUpdate  time.Time
}
