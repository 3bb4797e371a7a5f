package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const SETTINGS_PATH = "./musipi_settings.json"

// Settings are the tunables the original appliance hard-coded. The
// defaults reproduce its values; the file is written on first boot so
// they can be edited in place.
type Settings struct {
	MusicDir       string  `json:"music_dir"`
	StartVolume    float64 `json:"start_volume"`
	VolumeStep     float64 `json:"volume_step"`
	BatteryEveryMS int     `json:"battery_interval_ms"`
	EInkEverySec   int     `json:"eink_interval_sec"`
	BootCard       bool    `json:"boot_card"`
}

func defaultSettings() *Settings {
	return &Settings{
		MusicDir:       "/home/Music",
		StartVolume:    0.02,
		VolumeStep:     0.01,
		BatteryEveryMS: 0, // 0 = sample every tick, as the original did
		EInkEverySec:   int(EINK_INTERVAL / time.Second),
		BootCard:       true,
	}
}

// loadSettings reads the settings file, creating it with defaults when
// missing. A corrupt file is logged and replaced with defaults rather
// than stopping the appliance.
func loadSettings() *Settings {
	return loadSettingsFrom(SETTINGS_PATH)
}

func loadSettingsFrom(path string) *Settings {
	s := defaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := saveSettingsTo(s, path); err != nil {
				logMsg(fmt.Sprintf("WARNING: Could not write default settings: %v", err))
			}
			return s
		}
		logMsg(fmt.Sprintf("WARNING: Could not read settings: %v (using defaults)", err))
		return s
	}

	if err := json.Unmarshal(data, s); err != nil {
		logMsg(fmt.Sprintf("WARNING: Could not parse settings: %v (using defaults)", err))
		return defaultSettings()
	}

	if s.VolumeStep <= 0 {
		s.VolumeStep = defaultSettings().VolumeStep
	}
	if s.EInkEverySec <= 0 {
		s.EInkEverySec = defaultSettings().EInkEverySec
	}

	return s
}

func saveSettings(s *Settings) error {
	return saveSettingsTo(s, SETTINGS_PATH)
}

func saveSettingsTo(s *Settings, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
