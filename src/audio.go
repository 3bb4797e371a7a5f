package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// AudioService is the external playback collaborator. "Busy" means a
// stream is loaded and has not reached its end; paused still counts as
// busy, so the scheduler's end-of-track poll only fires on real
// completion.
type AudioService interface {
	Load(path string) error
	Play() error
	Pause()
	Unpause()
	Stop()
	Seek(seconds float64) error
	SetVolume(v float64)
	IsBusy() bool
}

// beepAudio plays files through the beep speaker. The finished flag is
// flipped by the speaker goroutine's end-of-stream callback and read by
// the main loop, hence the atomic.
type beepAudio struct {
	stream   beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	vol      *effects.Volume
	loaded   bool
	finished atomic.Bool
	volume   float64
}

func newBeepAudio() *beepAudio {
	return &beepAudio{}
}

func (a *beepAudio) Load(path string) error {
	a.Stop()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	var stream beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("unsupported audio format: %s", path)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
		stream.Close()
		return fmt.Errorf("speaker init: %w", err)
	}

	a.stream = stream
	a.format = format
	a.ctrl = &beep.Ctrl{Streamer: stream}
	a.vol = &effects.Volume{Streamer: a.ctrl, Base: 2}
	a.applyVolume(a.volume)
	a.finished.Store(false)
	a.loaded = true
	return nil
}

func (a *beepAudio) Play() error {
	if !a.loaded {
		return fmt.Errorf("no stream loaded")
	}
	speaker.Play(beep.Seq(a.vol, beep.Callback(func() {
		a.finished.Store(true)
	})))
	return nil
}

func (a *beepAudio) Pause() {
	if a.ctrl == nil {
		return
	}
	speaker.Lock()
	a.ctrl.Paused = true
	speaker.Unlock()
}

func (a *beepAudio) Unpause() {
	if a.ctrl == nil {
		return
	}
	speaker.Lock()
	a.ctrl.Paused = false
	speaker.Unlock()
}

func (a *beepAudio) Stop() {
	if !a.loaded {
		return
	}
	speaker.Clear()
	a.stream.Close()
	a.stream = nil
	a.ctrl = nil
	a.vol = nil
	a.loaded = false
	a.finished.Store(false)
}

func (a *beepAudio) Seek(seconds float64) error {
	if !a.loaded {
		return fmt.Errorf("no stream loaded")
	}
	speaker.Lock()
	defer speaker.Unlock()
	return a.stream.Seek(a.format.SampleRate.N(time.Duration(seconds * float64(time.Second))))
}

// SetVolume takes the device-range volume (already calibrated by the
// controller). beep's volume effect is exponential, so the linear value
// maps through log2; zero mutes outright.
func (a *beepAudio) SetVolume(v float64) {
	a.volume = v
	if a.vol == nil {
		return
	}
	speaker.Lock()
	a.applyVolume(v)
	speaker.Unlock()
}

func (a *beepAudio) applyVolume(v float64) {
	if a.vol == nil {
		return
	}
	if v <= 0 {
		a.vol.Silent = true
		return
	}
	a.vol.Silent = false
	a.vol.Volume = math.Log2(v)
}

func (a *beepAudio) IsBusy() bool {
	return a.loaded && !a.finished.Load()
}
