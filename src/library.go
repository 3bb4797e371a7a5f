package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Catalog is the ordered, deduplicated list of playable tracks, built
// once at startup and never rescanned.
type Catalog struct {
	Tracks []Track
}

// scanCatalog lists the music directory, keeps playable extensions,
// sorts ascending and drops duplicate names. An unreadable directory or
// an empty result is an error the caller treats as fatal.
func scanCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read music dir %s: %w", dir, err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case ".flac", ".mp3", ".wav":
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("no music files in %s", dir)
	}

	sort.Strings(names)

	c := &Catalog{Tracks: make([]Track, len(names))}
	for i, name := range names {
		c.Tracks[i] = Track{Name: name, Path: filepath.Join(dir, name)}
	}

	logMsg(fmt.Sprintf("INFO: Catalog loaded, %d tracks", len(c.Tracks)))
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.Tracks)
}

func (c *Catalog) Track(i int) Track {
	return c.Tracks[i]
}
