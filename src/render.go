package main

import (
	"fmt"
	"image"
	"time"

	"github.com/fogleman/gg"
)

// initRenderer sets up the OLED-sized draw context and loads the UI
// font. A missing font is fatal: the whole primary surface is text.
func (app *MusiPi) initRenderer() error {
	app.DC = gg.NewContext(OLED_WIDTH, OLED_HEIGHT)

	face, err := gg.LoadFontFace(UI_FONT_PATH, UI_FONT_SIZE)
	if err != nil {
		return fmt.Errorf("load font %s: %w", UI_FONT_PATH, err)
	}
	app.UIFont = face
	return nil
}

// renderOLEDFrame composes the status frame: title (scrolling when too
// wide), battery percent, play/pause glyph and volume. The returned
// frame is mirrored on both axes: the panel is mounted upside down and
// the driver draws it as-is, so the flip happens here.
func (app *MusiPi) renderOLEDFrame(now time.Time) image.Image {
	dc := app.DC
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetFontFace(app.UIFont)
	dc.SetRGB(1, 1, 1)

	title := app.Player.CurrentTrack().Name
	width, _ := dc.MeasureString(title)

	if width > OLED_WIDTH-BATTERY_RESERVED_PX {
		if now.Sub(app.LastScroll) > SCROLL_INTERVAL {
			app.ScrollPos = (app.ScrollPos + 1) % len([]rune(title))
			app.LastScroll = now
		}
		dc.DrawString(scrollWindow(title, app.ScrollPos), 0, 12)
	} else {
		dc.DrawString(title, 0, 12)
	}

	batt := app.Gauge.Last()
	dc.DrawString(fmt.Sprintf("%.0f%%", batt.Percent), OLED_WIDTH-25, 12)
	dc.DrawString(statusGlyph(app.Player.IsPlaying()), 0, 30)
	dc.DrawString(fmt.Sprintf("Vol:%d", int(app.Player.Volume()*100)), OLED_WIDTH-50, 30)

	app.maybeExtractArt(now)

	return mirrorFrame(dc.Image())
}

// maybeExtractArt refreshes the cover temp file for the current track
// on the slow art cadence so the e-ink refresh has something current.
func (app *MusiPi) maybeExtractArt(now time.Time) {
	if now.Sub(app.LastArtUpdate) < ART_INTERVAL {
		return
	}
	extractAlbumArt(app.Player.CurrentTrack().Path, COVER_TMP_PATH)
	app.LastArtUpdate = now
}

// resetScroll restarts the title scroll; called whenever the selected
// track changes.
func (app *MusiPi) resetScroll() {
	app.ScrollPos = 0
}

// scrollWindow returns the circular window of the title visible at
// scroll position pos, wrapping around the title's length.
func scrollWindow(title string, pos int) string {
	r := []rune(title)
	if len(r) == 0 {
		return ""
	}
	out := make([]rune, 0, SCROLL_WINDOW)
	for i := 0; i < SCROLL_WINDOW; i++ {
		out = append(out, r[(pos+i)%len(r)])
	}
	return string(out)
}

func statusGlyph(playing bool) string {
	if playing {
		return "▶"
	}
	return "❚❚"
}

// mirrorFrame flips the frame horizontally and vertically (a 180°
// rotation) to compensate for the panel's inverted mounting.
func mirrorFrame(src image.Image) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(w-1-x, h-1-y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
