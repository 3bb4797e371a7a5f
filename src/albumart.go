package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dhowden/tag"
)

// extractAlbumArt pulls embedded cover art out of a track and writes it
// to dst. When the file carries no picture (or can't be read) the
// bundled default cover is copied instead. Reports whether embedded art
// was found; never surfaces an error to the caller.
func extractAlbumArt(path, dst string) bool {
	f, err := os.Open(path)
	if err != nil {
		logMsg(fmt.Sprintf("ERROR: Art extraction failed: %v", err))
		copyDefaultCover(dst)
		return false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil || m.Picture() == nil {
		copyDefaultCover(dst)
		return false
	}

	if err := os.WriteFile(dst, m.Picture().Data, 0644); err != nil {
		logMsg(fmt.Sprintf("ERROR: Could not write cover to %s: %v", dst, err))
		return false
	}
	return true
}

func copyDefaultCover(dst string) {
	src, err := os.Open(DEFAULT_COVER_PATH)
	if err != nil {
		logMsg(fmt.Sprintf("WARNING: No default cover: %v", err))
		return
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		logMsg(fmt.Sprintf("WARNING: Could not write %s: %v", dst, err))
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		logMsg(fmt.Sprintf("WARNING: Default cover copy failed: %v", err))
	}
}
