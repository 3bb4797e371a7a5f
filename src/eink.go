package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// SecondaryDisplay is the slow e-paper panel. A full refresh takes
// seconds, so the scheduler never calls Render more often than the
// configured interval (~210s).
type SecondaryDisplay interface {
	Init() error
	Clear() error
	Render(img image.Image) error
	Sleep() error
}

// Control lines for the e-paper HAT (BCM numbering).
const (
	EINK_PIN_RESET = "GPIO17"
	EINK_PIN_DC    = "GPIO25"
	EINK_PIN_BUSY  = "GPIO24"
)

// Command subset the refresh cycle needs. The panel is a Spectra-6
// ACeP-style device: 4 bits per pixel, two pixels per byte.
const (
	epdCmdPanelSetting byte = 0x00
	epdCmdPowerOff     byte = 0x02
	epdCmdPowerOn      byte = 0x04
	epdCmdDeepSleep    byte = 0x07
	epdCmdDataStart    byte = 0x10
	epdCmdRefresh      byte = 0x12
)

// The panel's six ink colors and their 4-bit codes.
var epdPalette = []struct {
	c    color.RGBA
	code byte
}{
	{color.RGBA{0, 0, 0, 255}, 0x0},       // black
	{color.RGBA{255, 255, 255, 255}, 0x1}, // white
	{color.RGBA{255, 255, 0, 255}, 0x2},   // yellow
	{color.RGBA{255, 0, 0, 255}, 0x3},     // red
	{color.RGBA{0, 0, 255, 255}, 0x5},     // blue
	{color.RGBA{0, 255, 0, 255}, 0x6},     // green
}

// epd drives the panel over SPI plus the reset/dc/busy lines.
type epd struct {
	conn  spi.Conn
	reset gpio.PinIO
	dc    gpio.PinIO
	busy  gpio.PinIO
}

func openSecondaryDisplay() (SecondaryDisplay, error) {
	port, err := spireg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open spi: %w", err)
	}
	conn, err := port.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("spi connect: %w", err)
	}

	d := &epd{conn: conn}
	for _, p := range []struct {
		name string
		dst  *gpio.PinIO
		out  bool
	}{
		{EINK_PIN_RESET, &d.reset, true},
		{EINK_PIN_DC, &d.dc, true},
		{EINK_PIN_BUSY, &d.busy, false},
	} {
		pin := gpioreg.ByName(p.name)
		if pin == nil {
			return nil, fmt.Errorf("gpio %s not found", p.name)
		}
		if p.out {
			if err := pin.Out(gpio.High); err != nil {
				return nil, fmt.Errorf("gpio %s: %w", p.name, err)
			}
		} else {
			if err := pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
				return nil, fmt.Errorf("gpio %s: %w", p.name, err)
			}
		}
		*p.dst = pin
	}

	return d, nil
}

func (d *epd) command(cmd byte, data ...byte) error {
	d.dc.Out(gpio.Low)
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	d.dc.Out(gpio.High)
	// The kernel SPI driver caps transfer size; send the framebuffer in
	// chunks.
	const chunk = 4096
	for off := 0; off < len(data); off += chunk {
		end := off + chunk
		if end > len(data) {
			end = len(data)
		}
		if err := d.conn.Tx(data[off:end], nil); err != nil {
			return err
		}
	}
	return nil
}

// waitIdle blocks until the panel drops its busy line. Refreshes take
// seconds; there is deliberately no timeout, matching the rest of the
// appliance's I/O.
func (d *epd) waitIdle() {
	for d.busy.Read() == gpio.Low {
		time.Sleep(10 * time.Millisecond)
	}
}

func (d *epd) Init() error {
	d.reset.Out(gpio.Low)
	time.Sleep(10 * time.Millisecond)
	d.reset.Out(gpio.High)
	time.Sleep(50 * time.Millisecond)
	d.waitIdle()
	return d.command(epdCmdPanelSetting, 0x2B)
}

func (d *epd) Clear() error {
	blank := image.NewRGBA(image.Rect(0, 0, EINK_WIDTH, EINK_HEIGHT))
	draw.Draw(blank, blank.Bounds(), image.White, image.Point{}, draw.Src)
	return d.Render(blank)
}

// Render quantizes the frame to the six-color palette, packs two
// pixels per byte and runs a full refresh cycle.
func (d *epd) Render(img image.Image) error {
	buf := packFrame(img)
	if err := d.command(epdCmdDataStart, buf...); err != nil {
		return err
	}
	if err := d.command(epdCmdPowerOn); err != nil {
		return err
	}
	d.waitIdle()
	if err := d.command(epdCmdRefresh); err != nil {
		return err
	}
	d.waitIdle()
	if err := d.command(epdCmdPowerOff); err != nil {
		return err
	}
	d.waitIdle()
	return nil
}

func (d *epd) Sleep() error {
	return d.command(epdCmdDeepSleep, 0xA5)
}

// packFrame maps each pixel to the nearest ink color, two 4-bit codes
// per byte, row-major.
func packFrame(img image.Image) []byte {
	buf := make([]byte, EINK_WIDTH*EINK_HEIGHT/2)
	i := 0
	for y := 0; y < EINK_HEIGHT; y++ {
		for x := 0; x < EINK_WIDTH; x += 2 {
			hi := nearestInk(img, x, y)
			lo := nearestInk(img, x+1, y)
			buf[i] = hi<<4 | lo
			i++
		}
	}
	return buf
}

func nearestInk(img image.Image, x, y int) byte {
	r, g, b, _ := img.At(img.Bounds().Min.X+x, img.Bounds().Min.Y+y).RGBA()
	best := epdPalette[0].code
	bestDist := int64(1) << 62
	for _, p := range epdPalette {
		dr := int64(r>>8) - int64(p.c.R)
		dg := int64(g>>8) - int64(p.c.G)
		db := int64(b>>8) - int64(p.c.B)
		dist := dr*dr + dg*dg + db*db
		if dist < bestDist {
			bestDist = dist
			best = p.code
		}
	}
	return best
}

// composeArtCard scales the cover to fit the panel with its aspect
// ratio preserved, centers it on a white background and rotates the
// result 180° to match the panel's mounting.
func composeArtCard(cover image.Image) *image.RGBA {
	cb := cover.Bounds()
	ratio := min(float64(EINK_WIDTH)/float64(cb.Dx()), float64(EINK_HEIGHT)/float64(cb.Dy()))
	nw := int(float64(cb.Dx()) * ratio)
	nh := int(float64(cb.Dy()) * ratio)

	scaled := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), cover, cb, draw.Src, nil)

	card := image.NewRGBA(image.Rect(0, 0, EINK_WIDTH, EINK_HEIGHT))
	draw.Draw(card, card.Bounds(), image.White, image.Point{}, draw.Src)

	x := (EINK_WIDTH - nw) / 2
	y := (EINK_HEIGHT - nh) / 2
	draw.Draw(card, image.Rect(x, y, x+nw, y+nh), scaled, image.Point{}, draw.Src)

	return mirrorFrame(card)
}

// composeBootCard renders the startup info card: appliance name,
// catalog size and a QR code pointing at the project page.
func composeBootCard(trackCount int) image.Image {
	dc := gg.NewContext(EINK_WIDTH, EINK_HEIGHT)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	if face, err := gg.LoadFontFace(UI_FONT_PATH, 36); err == nil {
		dc.SetFontFace(face)
		dc.DrawStringAnchored(APP_NAME, EINK_WIDTH/2, 90, 0.5, 0.5)
	}
	if face, err := gg.LoadFontFace(UI_FONT_PATH, 20); err == nil {
		dc.SetFontFace(face)
		dc.DrawStringAnchored(fmt.Sprintf("%d tracks · v%s", trackCount, APP_VERSION),
			EINK_WIDTH/2, 140, 0.5, 0.5)
	}

	if qr, err := qrcode.New(PROJECT_URL, qrcode.Medium); err == nil {
		qrImg := qr.Image(160)
		dc.DrawImageAnchored(qrImg, EINK_WIDTH/2, 270, 0.5, 0.5)
	}

	return mirrorFrame(dc.Image())
}

// refreshEInk runs one full secondary-display cycle: decode the current
// cover temp file, compose the card, and drive the panel through its
// init/clear/render/sleep lifecycle. Failures are logged and skipped;
// the stale image stays up until the next cycle.
func (app *MusiPi) refreshEInk(frame image.Image) {
	if frame == nil {
		f, err := os.Open(COVER_TMP_PATH)
		if err != nil {
			logMsg(fmt.Sprintf("WARNING: No cover for e-ink refresh: %v", err))
			return
		}
		cover, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			logMsg(fmt.Sprintf("WARNING: Cover decode failed: %v", err))
			return
		}
		frame = composeArtCard(cover)
	}

	if err := app.EInk.Init(); err != nil {
		logMsg(fmt.Sprintf("ERROR: E-ink init failed: %v", err))
		return
	}
	if err := app.EInk.Clear(); err != nil {
		logMsg(fmt.Sprintf("ERROR: E-ink clear failed: %v", err))
		return
	}
	if err := app.EInk.Render(frame); err != nil {
		logMsg(fmt.Sprintf("ERROR: E-ink render failed: %v", err))
		return
	}
	time.Sleep(2 * time.Second)
	if err := app.EInk.Sleep(); err != nil {
		logMsg(fmt.Sprintf("WARNING: E-ink sleep failed: %v", err))
	}
}
