package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func main() {
	logMsg("-----------")
	logMsg(fmt.Sprintf("INFO: %s v%s starting", APP_NAME, APP_VERSION))

	app := &MusiPi{Running: true}
	app.Settings = loadSettings()

	if _, err := host.Init(); err != nil {
		fatal("host init", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		fatal("open i2c bus", err)
	}
	defer bus.Close()

	app.OLED, err = openPrimaryDisplay(bus)
	if err != nil {
		fatal("primary display", err)
	}
	app.Gauge = openBatteryGauge(bus)

	app.EInk, err = openSecondaryDisplay()
	if err != nil {
		fatal("secondary display", err)
	}

	app.Lines, err = claimInputLines()
	if err != nil {
		fatal("input lines", err)
	}

	if err := app.initRenderer(); err != nil {
		fatal("renderer", err)
	}

	app.Catalog, err = scanCatalog(app.Settings.MusicDir)
	if err != nil {
		app.Lines.Release()
		fatal("catalog", err)
	}

	app.Audio = newBeepAudio()
	app.Player = newPlayer(app.Audio, app.Catalog, app.Settings.StartVolume, app.Settings.VolumeStep)
	app.Player.extractArt = func(path string) bool {
		ok := extractAlbumArt(path, COVER_TMP_PATH)
		app.LastArtUpdate = time.Now()
		return ok
	}
	app.Player.onTrackChange = app.resetScroll

	app.Decoder = newGestureDecoder(app.Lines.ReadSwitch)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logMsg(fmt.Sprintf("INFO: Caught %v, shutting down", s))
		app.Running = false
	}()

	if app.Settings.BootCard {
		app.refreshEInk(composeBootCard(app.Catalog.Len()))
	}
	app.LastEInkRender = time.Now()

	app.Gauge.Read()
	app.showOLED(time.Now())

	logMsg("INFO: Entering main loop")
	app.runLoop()

	// Ordered shutdown: stop playback, blank the primary display,
	// release the input lines.
	app.Player.Shutdown()
	if err := app.OLED.Blank(); err != nil {
		logMsg(fmt.Sprintf("WARNING: Could not blank OLED: %v", err))
	}
	app.Lines.Release()
	logMsg("INFO: Shutdown complete")
}

// runLoop is the cooperative scheduler: one unbroken loop polling
// inputs and honoring each task's cadence. Nothing here blocks
// indefinitely except the button-gesture collection window, which
// stalls every other task for up to 0.8s by design.
func (app *MusiPi) runLoop() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 16384)
			n := runtime.Stack(buf, false)
			logMsg(fmt.Sprintf("FATAL: Panic in main loop: %v\n%s", r, buf[:n]))
			app.Running = false
		}
	}()

	einkEvery := time.Duration(app.Settings.EInkEverySec) * time.Second
	battEvery := time.Duration(app.Settings.BatteryEveryMS) * time.Millisecond
	var lastBattery time.Time

	for app.Running {
		a, b, sw := app.Lines.Sample()

		switch app.Decoder.FeedRotation(a, b) {
		case StepClockwise:
			app.dispatchStep(true)
		case StepCounterClockwise:
			app.dispatchStep(false)
		}

		switch app.Decoder.FeedButton(sw, app.Player.IsPlaying()) {
		case GesturePlayPause:
			app.Player.TogglePlayPause()
			app.showOLED(time.Now())
		case GestureSkipForward:
			app.Player.Skip(true)
			app.showOLED(time.Now())
		case GestureSkipBackward:
			app.Player.Skip(false)
			app.showOLED(time.Now())
		}

		app.Player.CheckAutoAdvance()

		now := time.Now()
		if now.Sub(lastBattery) >= battEvery {
			app.Gauge.Read()
			lastBattery = now
		}
		if now.Sub(app.LastOLEDRender) >= OLED_INTERVAL {
			app.showOLED(now)
		}
		if now.Sub(app.LastEInkRender) >= einkEvery {
			app.refreshEInk(nil)
			app.LastEInkRender = now
		}

		time.Sleep(TICK_INTERVAL)
	}
}

// dispatchStep routes a detent: volume while playing, track selection
// while stopped.
func (app *MusiPi) dispatchStep(clockwise bool) {
	if app.Player.IsPlaying() {
		if clockwise {
			app.Player.VolumeUp()
		} else {
			app.Player.VolumeDown()
		}
	} else {
		app.Player.Skip(clockwise)
	}
	app.showOLED(time.Now())
}

// showOLED composes and pushes one frame. A transient display-write
// failure drops the frame and keeps the loop alive.
func (app *MusiPi) showOLED(now time.Time) {
	frame := app.renderOLEDFrame(now)
	if err := app.OLED.Show(frame); err != nil {
		logMsg(fmt.Sprintf("ERROR: Display update failed: %v", err))
		return
	}
	app.LastOLEDRender = now
}

func fatal(what string, err error) {
	logMsg(fmt.Sprintf("FATAL: %s: %v", what, err))
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
