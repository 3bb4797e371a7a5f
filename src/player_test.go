package main

import (
	"errors"
	"math"
	"testing"
)

// fakeAudio records calls and mimics the busy contract: busy from load
// until the test clears it (track finished) or Stop is called.
type fakeAudio struct {
	loaded   []string
	busy     bool
	paused   bool
	volumes  []float64
	loadErr  error
	playErr  error
	stopped  int
	unpaused int
}

func (f *fakeAudio) Load(path string) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = append(f.loaded, path)
	f.busy = true
	f.paused = false
	return nil
}

func (f *fakeAudio) Play() error         { return f.playErr }
func (f *fakeAudio) Pause()              { f.paused = true }
func (f *fakeAudio) Unpause()            { f.paused = false; f.unpaused++ }
func (f *fakeAudio) Stop()               { f.busy = false; f.stopped++ }
func (f *fakeAudio) Seek(float64) error  { return nil }
func (f *fakeAudio) SetVolume(v float64) { f.volumes = append(f.volumes, v) }
func (f *fakeAudio) IsBusy() bool        { return f.busy }

func testCatalog(names ...string) *Catalog {
	c := &Catalog{}
	for _, n := range names {
		c.Tracks = append(c.Tracks, Track{Name: n, Path: "/music/" + n})
	}
	return c
}

func TestTogglePlayPauseColdStart(t *testing.T) {
	audio := &fakeAudio{}
	p := newPlayer(audio, testCatalog("a.mp3", "b.mp3"), 0.02, 0.01)

	var artFor []string
	p.extractArt = func(path string) bool {
		artFor = append(artFor, path)
		return true
	}

	p.TogglePlayPause()

	if !p.IsPlaying() {
		t.Error("playing flag should be set")
	}
	if len(audio.loaded) != 1 || audio.loaded[0] != "/music/a.mp3" {
		t.Errorf("expected a.mp3 loaded, got %v", audio.loaded)
	}
	if len(artFor) != 1 || artFor[0] != "/music/a.mp3" {
		t.Errorf("art extraction should fire for the loaded track, got %v", artFor)
	}
}

func TestTogglePlayPausePausesAndResumes(t *testing.T) {
	audio := &fakeAudio{}
	p := newPlayer(audio, testCatalog("a.mp3"), 0.02, 0.01)

	p.TogglePlayPause() // load + play
	p.TogglePlayPause() // pause
	if p.IsPlaying() || !audio.paused {
		t.Fatal("second toggle should pause")
	}

	p.TogglePlayPause() // service still busy: resume, not reload
	if !p.IsPlaying() || audio.unpaused != 1 {
		t.Fatal("third toggle should resume")
	}
	if len(audio.loaded) != 1 {
		t.Errorf("resume must not reload, loads: %v", audio.loaded)
	}
}

func TestTogglePlayPauseLoadFailure(t *testing.T) {
	audio := &fakeAudio{loadErr: errors.New("bad file")}
	p := newPlayer(audio, testCatalog("a.mp3"), 0.02, 0.01)

	p.TogglePlayPause()
	if p.IsPlaying() {
		t.Error("playing flag must stay down when load fails")
	}
}

func TestSkipWrapsAround(t *testing.T) {
	audio := &fakeAudio{}
	p := newPlayer(audio, testCatalog("a.mp3", "b.mp3", "c.mp3"), 0.02, 0.01)

	p.Skip(false)
	if p.Selected() != 2 {
		t.Errorf("backward from 0 should wrap to 2, got %d", p.Selected())
	}
	p.Skip(true)
	if p.Selected() != 0 {
		t.Errorf("forward from last should wrap to 0, got %d", p.Selected())
	}
}

func TestSkipWhilePlayingRestartsPlayback(t *testing.T) {
	audio := &fakeAudio{}
	p := newPlayer(audio, testCatalog("a.mp3", "b.mp3"), 0.02, 0.01)

	p.TogglePlayPause()
	p.Skip(true)

	if want := []string{"/music/a.mp3", "/music/b.mp3"}; len(audio.loaded) != 2 ||
		audio.loaded[1] != want[1] {
		t.Errorf("skip while playing should load the new track, got %v", audio.loaded)
	}
	if !p.IsPlaying() {
		t.Error("still playing after skip")
	}
}

func TestSkipResetsScroll(t *testing.T) {
	audio := &fakeAudio{}
	p := newPlayer(audio, testCatalog("a.mp3", "b.mp3"), 0.02, 0.01)

	reset := 0
	p.onTrackChange = func() { reset++ }

	p.Skip(true)
	p.Skip(false)
	if reset != 2 {
		t.Errorf("scroll reset should fire on every skip, got %d", reset)
	}
}

func TestVolumeClampAndCalibration(t *testing.T) {
	audio := &fakeAudio{}
	p := newPlayer(audio, testCatalog("a.mp3"), 0.0, 0.01)
	p.TogglePlayPause()

	for i := 0; i < 150; i++ {
		p.VolumeUp()
	}

	if p.Volume() != 1.0 {
		t.Errorf("volume should clamp at 1.0, got %f", p.Volume())
	}
	// Every forwarded device volume is half the logical volume, and the
	// logical volume never exceeds 1.0.
	for _, v := range audio.volumes {
		if v > 0.5+1e-9 {
			t.Fatalf("device volume exceeded logical/2 cap: %f", v)
		}
	}
	last := audio.volumes[len(audio.volumes)-1]
	if math.Abs(last-0.5) > 1e-9 {
		t.Errorf("final device volume should be 0.5, got %f", last)
	}
}

func TestVolumeIgnoredWhileStopped(t *testing.T) {
	audio := &fakeAudio{}
	p := newPlayer(audio, testCatalog("a.mp3"), 0.02, 0.01)
	before := len(audio.volumes) // the startup calibration call

	p.VolumeUp()
	p.VolumeDown()

	if len(audio.volumes) != before {
		t.Errorf("volume changes while stopped must not reach the device: %v", audio.volumes)
	}
}

func TestAutoAdvanceFiresOnce(t *testing.T) {
	audio := &fakeAudio{}
	p := newPlayer(audio, testCatalog("a.mp3", "b.mp3"), 0.02, 0.01)

	p.TogglePlayPause()
	audio.busy = false // track ends

	p.CheckAutoAdvance()
	if p.Selected() != 1 {
		t.Fatalf("auto-advance should move to track 1, got %d", p.Selected())
	}
	if len(audio.loaded) != 2 {
		t.Fatalf("auto-advance should start the next track, loads: %v", audio.loaded)
	}

	// The restarted stream is busy again; the next poll must not skip.
	p.CheckAutoAdvance()
	if p.Selected() != 1 || len(audio.loaded) != 2 {
		t.Error("auto-advance fired repeatedly")
	}
}

func TestAutoAdvanceIdleWhileStopped(t *testing.T) {
	audio := &fakeAudio{}
	p := newPlayer(audio, testCatalog("a.mp3"), 0.02, 0.01)

	p.CheckAutoAdvance()
	if len(audio.loaded) != 0 {
		t.Error("auto-advance must not fire while stopped")
	}
}
