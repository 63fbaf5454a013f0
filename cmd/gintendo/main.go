// Command gintendo is a small ebiten-backed driver that loads an iNES ROM
// and runs it. It is not part of the emulator core, and exercises the
// core's public API exactly as any other external driver would: reading
// a ROM file, mapping keys to buttons, and converting the PPU's
// palette-index frame buffer to RGB are all driver concerns the core
// itself never touches.
package main

import (
	"flag"
	"image"
	"image/color"
	"log"
	"os"

	"github.com/bdwalton/nescore/cartridge"
	"github.com/bdwalton/nescore/console"
	"github.com/bdwalton/nescore/mappers"
	"github.com/hajimehoshi/ebiten/v2"
)

var romFile = flag.String("nes_rom", "", "Path to NES ROM to run.")

func main() {
	flag.Parse()

	f, err := os.Open(*romFile)
	if err != nil {
		log.Fatalf("opening ROM: %v", err)
	}
	defer f.Close()

	desc, err := cartridge.FromINES(f)
	if err != nil {
		log.Fatalf("parsing ROM: %v", err)
	}

	m, err := desc.NewMapper()
	if err != nil {
		log.Fatalf("building mapper: %v", err)
	}

	g := newGame(m)

	w, h := g.bus.PPU().Resolution()
	ebiten.SetWindowSize(w*2, h*2)
	ebiten.SetWindowTitle("Gintendo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}

// game drives the CPU-cycles/PPU-dots interleave spec.md §5 requires
// (every CPU step's side effects precede the 3N PPU dots that follow it
// in emulated time) and renders the PPU's palette-index frame buffer to
// the screen.
type game struct {
	bus *console.Bus
	img *ebiten.Image
}

func newGame(m mappers.Mapper) *game {
	bus := console.New(m)
	w, h := bus.PPU().Resolution()
	return &game{bus: bus, img: ebiten.NewImage(w, h)}
}

// keymap is the keyboard-to-button mapping the teacher's controller.go
// used to poll directly; it lives here instead, since console.Controller
// takes button state only through SetButton and knows nothing of ebiten.
var keymap = map[ebiten.Key]console.Button{
	ebiten.KeyA:     console.ButtonA,
	ebiten.KeyB:     console.ButtonB,
	ebiten.KeySpace: console.ButtonSelect,
	ebiten.KeyEnter: console.ButtonStart,
	ebiten.KeyUp:    console.ButtonUp,
	ebiten.KeyDown:  console.ButtonDown,
	ebiten.KeyLeft:  console.ButtonLeft,
	ebiten.KeyRight: console.ButtonRight,
}

// Layout returns the constant NES resolution; ebiten scales the window
// to it rather than the core ever knowing about window size.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.bus.PPU().Resolution()
}

// Update advances the emulation by roughly one video frame's worth of
// CPU/PPU work: step the CPU, run 3 PPU dots per CPU cycle consumed,
// poll the mapper's IRQ line once per CPU step, and stop once the PPU
// reports a completed frame.
func (g *game) Update() error {
	for k, b := range keymap {
		g.bus.Controller().SetButton(b, ebiten.IsKeyPressed(k))
	}

	p := g.bus.PPU()
	step := func() {
		cycles := g.bus.CPU().Step()
		g.bus.PollIRQ()
		for i := uint32(0); i < cycles*3; i++ {
			p.Step()
		}
	}
	// FrameComplete stays set through vblank, so first run out the
	// previous frame's vblank, then run until the next frame completes.
	for p.FrameComplete() {
		step()
	}
	for !p.FrameComplete() {
		step()
	}
	return nil
}

// Draw converts the PPU's palette-index frame buffer to RGB via the
// standard NES system palette and blits it to the screen.
func (g *game) Draw(screen *ebiten.Image) {
	fb := g.bus.PPU().FrameBuffer()
	w, h := g.bus.PPU().Resolution()

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgba.Set(x, y, systemPalette[fb[y*w+x]&0x3F])
		}
	}
	g.img.WritePixels(rgba.Pix)
	screen.DrawImage(g.img, nil)
}

// systemPalette maps the PPU's 6-bit palette indices to the NES's fixed
// 64-color NTSC output, the 2C02's well-known RGB approximation.
var systemPalette = [64]color.RGBA{
	{0x80, 0x80, 0x80, 0xff}, {0x00, 0x3D, 0xA6, 0xff}, {0x00, 0x12, 0xB0, 0xff}, {0x44, 0x00, 0x96, 0xff}, {0xA1, 0x00, 0x5E, 0xff},
	{0xC7, 0x00, 0x28, 0xff}, {0xBA, 0x06, 0x00, 0xff}, {0x8C, 0x17, 0x00, 0xff}, {0x5C, 0x2F, 0x00, 0xff}, {0x10, 0x45, 0x00, 0xff},
	{0x05, 0x4A, 0x00, 0xff}, {0x00, 0x47, 0x2E, 0xff}, {0x00, 0x41, 0x66, 0xff}, {0x00, 0x00, 0x00, 0xff}, {0x05, 0x05, 0x05, 0xff},
	{0x05, 0x05, 0x05, 0xff}, {0xC7, 0xC7, 0xC7, 0xff}, {0x00, 0x77, 0xFF, 0xff}, {0x21, 0x55, 0xFF, 0xff}, {0x82, 0x37, 0xFA, 0xff},
	{0xEB, 0x2F, 0xB5, 0xff}, {0xFF, 0x29, 0x50, 0xff}, {0xFF, 0x22, 0x00, 0xff}, {0xD6, 0x32, 0x00, 0xff}, {0xC4, 0x62, 0x00, 0xff},
	{0x35, 0x80, 0x00, 0xff}, {0x05, 0x8F, 0x00, 0xff}, {0x00, 0x8A, 0x55, 0xff}, {0x00, 0x99, 0xCC, 0xff}, {0x21, 0x21, 0x21, 0xff},
	{0x09, 0x09, 0x09, 0xff}, {0x09, 0x09, 0x09, 0xff}, {0xFF, 0xFF, 0xFF, 0xff}, {0x0F, 0xD7, 0xFF, 0xff}, {0x69, 0xA2, 0xFF, 0xff},
	{0xD4, 0x80, 0xFF, 0xff}, {0xFF, 0x45, 0xF3, 0xff}, {0xFF, 0x61, 0x8B, 0xff}, {0xFF, 0x88, 0x33, 0xff}, {0xFF, 0x9C, 0x12, 0xff},
	{0xFA, 0xBC, 0x20, 0xff}, {0x9F, 0xE3, 0x0E, 0xff}, {0x2B, 0xF0, 0x35, 0xff}, {0x0C, 0xF0, 0xA4, 0xff}, {0x05, 0xFB, 0xFF, 0xff},
	{0x5E, 0x5E, 0x5E, 0xff}, {0x0D, 0x0D, 0x0D, 0xff}, {0x0D, 0x0D, 0x0D, 0xff}, {0xFF, 0xFF, 0xFF, 0xff}, {0xA6, 0xFC, 0xFF, 0xff},
	{0xB3, 0xEC, 0xFF, 0xff}, {0xDA, 0xAB, 0xEB, 0xff}, {0xFF, 0xA8, 0xF9, 0xff}, {0xFF, 0xAB, 0xB3, 0xff}, {0xFF, 0xD2, 0xB0, 0xff},
	{0xFF, 0xEF, 0xA6, 0xff}, {0xFF, 0xF7, 0x9C, 0xff}, {0xD7, 0xE8, 0x95, 0xff}, {0xA6, 0xED, 0xAF, 0xff}, {0xA2, 0xF2, 0xDA, 0xff},
	{0x99, 0xFF, 0xFC, 0xff}, {0xDD, 0xDD, 0xDD, 0xff}, {0x11, 0x11, 0x11, 0xff}, {0x11, 0x11, 0x11, 0xff},
}
