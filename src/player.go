package main

import (
	"fmt"
)

// Player owns the playback state: selected catalog index, playing flag
// and logical volume. Only the main loop calls into it.
type Player struct {
	audio   AudioService
	catalog *Catalog

	// extractArt is invoked whenever a track is loaded for playback so
	// the secondary display has fresh cover art to pick up.
	extractArt func(path string) bool

	// onTrackChange fires after the selected index moves (scroll reset).
	onTrackChange func()

	selected int
	playing  bool
	volume   float64
	step     float64
}

func newPlayer(audio AudioService, catalog *Catalog, startVolume, step float64) *Player {
	p := &Player{
		audio:         audio,
		catalog:       catalog,
		extractArt:    func(string) bool { return false },
		onTrackChange: func() {},
		volume:        clampVolume(startVolume),
		step:          step,
	}
	audio.SetVolume(p.volume / 2)
	return p
}

func (p *Player) Selected() int       { return p.selected }
func (p *Player) IsPlaying() bool     { return p.playing }
func (p *Player) Volume() float64     { return p.volume }
func (p *Player) CurrentTrack() Track { return p.catalog.Track(p.selected) }

// TogglePlayPause pauses, resumes or cold-starts playback. A cold start
// (nothing loaded in the service) loads the selected track and triggers
// art extraction for it.
func (p *Player) TogglePlayPause() {
	track := p.CurrentTrack()

	if p.playing {
		p.audio.Pause()
		p.playing = false
		logMsg("INFO: Paused")
		return
	}

	if !p.audio.IsBusy() {
		logMsg(fmt.Sprintf("INFO: Loading %s", track.Path))
		if err := p.audio.Load(track.Path); err != nil {
			logMsg(fmt.Sprintf("ERROR: Load failed: %v", err))
			return
		}
		if err := p.audio.Play(); err != nil {
			logMsg(fmt.Sprintf("ERROR: Play failed: %v", err))
			return
		}
		p.extractArt(track.Path)
	} else {
		p.audio.Unpause()
		logMsg("INFO: Resumed")
	}

	p.playing = true
}

// Skip moves the selection one track in either direction, wrapping
// modulo the catalog length. While playing, the new track starts
// immediately (stop-then-restart, no crossfade).
func (p *Player) Skip(forward bool) {
	n := p.catalog.Len()
	if forward {
		p.selected = (p.selected + 1) % n
	} else {
		p.selected = (p.selected - 1 + n) % n
	}
	p.onTrackChange()

	track := p.CurrentTrack()
	logMsg(fmt.Sprintf("INFO: Selected track %d: %s", p.selected, track.Name))

	if p.playing {
		if err := p.audio.Load(track.Path); err != nil {
			logMsg(fmt.Sprintf("ERROR: Load failed: %v", err))
			p.playing = false
			return
		}
		if err := p.audio.Play(); err != nil {
			logMsg(fmt.Sprintf("ERROR: Play failed: %v", err))
			p.playing = false
			return
		}
	}

	p.extractArt(track.Path)
}

// VolumeUp / VolumeDown adjust the logical volume by the configured
// step. Volume is only meaningful while playing; the device gets half
// of the logical range, a fixed calibration of the output stage.
func (p *Player) VolumeUp()   { p.adjustVolume(p.step) }
func (p *Player) VolumeDown() { p.adjustVolume(-p.step) }

func (p *Player) adjustVolume(delta float64) {
	if !p.playing {
		return
	}
	p.volume = clampVolume(p.volume + delta)
	p.audio.SetVolume(p.volume / 2)
}

// CheckAutoAdvance detects end-of-track by polling: the service going
// idle while the playing flag is up means the stream finished.
func (p *Player) CheckAutoAdvance() {
	if p.playing && !p.audio.IsBusy() {
		logMsg("INFO: Track ended, auto-advancing")
		p.Skip(true)
	}
}

// Shutdown stops playback for the ordered exit sequence.
func (p *Player) Shutdown() {
	p.audio.Stop()
	p.playing = false
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
