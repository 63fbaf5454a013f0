// Package ppu implements the PPU hardware in the NES: a per-dot scanline
// engine with background and sprite pixel pipelines, VRAM/OAM/palette
// storage, and the register interface the CPU sees at $2000-$2007/$4014.
package ppu

import "github.com/bdwalton/nescore/mappers"

const (
	VRAM_SIZE    = 4 * 0x0400 // four logical 1 KiB nametables, always resident
	OAM_SIZE     = 256
	PALETTE_SIZE = 32
)

// Display constants
const (
	NES_RES_WIDTH  = 256
	NES_RES_HEIGHT = 240
)

// Special Registers
const (
	PPUCTRL   = 0x2000
	PPUMASK   = 0x2001
	PPUSTATUS = 0x2002
	OAMADDR   = 0x2003
	OAMDATA   = 0x2004
	PPUSCROLL = 0x2005
	PPUADDR   = 0x2006
	PPUDATA   = 0x2007
	OAMDMA    = 0x4014
)

// PPUCTRL bit flags
// 7  bit  0
// ---- ----
// VPHB SINN
// |||| ||||
// |||| ||++- Base nametable address
// |||| ||    (0 = $2000; 1 = $2400; 2 = $2800; 3 = $2C00)
// |||| |+--- VRAM address increment per CPU read/write of PPUDATA
// |||| |     (0: add 1, going across; 1: add 32, going down)
// |||| +---- Sprite pattern table address for 8x8 sprites
// ||||       (0: $0000; 1: $1000; ignored in 8x16 mode)
// |||+------ Background pattern table address (0: $0000; 1: $1000)
// ||+------- Sprite size (0: 8x8 pixels; 1: 8x16 pixels)
// |+-------- PPU master/slave select
// |          (0: read backdrop from EXT pins; 1: output color on EXT pins)
// +--------- Generate an NMI at the start of the
//
//	vertical blanking interval (0: off; 1: on)
const (
	CTRL_NAMETABLE1             = 1
	CTRL_NAMETABLE2             = 1 << 1
	CTRL_VRAM_ADD_INCREMENT     = 1 << 2
	CTRL_SPRITE_PATTERN_ADDR    = 1 << 3
	CTRL_BACKROUND_PATTERN_ADDR = 1 << 4
	CTRL_SPRITE_SIZE            = 1 << 5
	CTRL_MASTER_SLAVE_SELECT    = 1 << 6
	CTRL_GENERATE_NMI           = 1 << 7
)

// VRAM increment options
const (
	CTRL_INCR_ACROSS = 1
	CTRL_INCR_DOWN   = 32
)

// PPUMASK bit flags
const (
	MASK_GREYSCALE            = 1
	MASK_SHOW_BACKGROUND_LEFT = 1 << 1
	MASK_SHOW_SPRITES_LEFT    = 1 << 2
	MASK_SHOW_BACKGROUND      = 1 << 3
	MASK_SHOW_SPRITES         = 1 << 4
	MASK_EMPHASIZE_RED        = 1 << 5
	MASK_EMPHASIZE_GREEN      = 1 << 6
	MASK_EMPHASIZE_BLUE       = 1 << 7
)

// 7  bit  0
// ---- ----
// VSO. ....
// |||| ||||
// |||+-++++- PPU open bus. Returns stale PPU bus contents.
// ||+------- Sprite overflow. The intent was for this flag to be set
// ||         whenever more than eight sprites appear on a scanline, but a
// ||         hardware bug causes the actual behavior to be more complicated
// ||         and generate false positives as well as false negatives; see
// ||         PPU sprite evaluation. This flag is set during sprite
// ||         evaluation and cleared at dot 1 (the second dot) of the
// ||         pre-render line.
// |+-------- Sprite 0 Hit.  Set when a nonzero pixel of sprite 0 overlaps
// |          a nonzero background pixel; cleared at dot 1 of the pre-render
// |          line.  Used for raster timing.
// +--------- Vertical blank has started (0: not in vblank; 1: in vblank).
//
//	Set at dot 1 of line 241 (the line *after* the post-render
//	line); cleared after reading $2002 and at dot 1 of the
//	pre-render line.
const (
	STATUS_SPRITE_OVERFLOW = 1 << 5
	STATUS_SPRITE_0_HIT    = 1 << 6
	STATUS_VERTICAL_BLANK  = 1 << 7
)

// Nametable/palette address space
const (
	PATTERN_TABLE_0  = 0x0000
	PATTERN_TABLE_1  = 0x1000
	NAMETABLE_0      = 0x2000
	NAMETABLE_1      = 0x2400
	NAMETABLE_2      = 0x2800
	NAMETABLE_3      = 0x2C00
	NAMETABLE_MIRROR = 0x3EFF
	PALETTE_RAM      = 0x3F00
	PALETTE_MIRROR   = 0x3F20
)

// Bus is the PPU's view of the cartridge and the rest of the console: CHR
// reads/writes and nametable mirroring are delegated to whatever mapper is
// plugged in, ScanlineTick clocks the mapper's own IRQ counter (MMC3) on
// PPU address bit 12 rising edges, and TriggerNMI signals the CPU.
type Bus interface {
	PPURead(addr uint16) uint8
	PPUWrite(addr uint16, val uint8)
	MirrorMode() mappers.Mirroring
	ScanlineTick()
	TriggerNMI()
}

// PPU is a cycle/dot-accurate NTSC PPU: 262 scanlines (-1 pre-render, 0-239
// visible, 240 post-render, 241-260 vblank) of 341 dots each.
type PPU struct {
	bus Bus

	paletteTable [PALETTE_SIZE]uint8
	oamData      [OAM_SIZE]uint8
	secondaryOAM [32]uint8 // up to 8 sprites x 4 bytes, this scanline's evaluation buffer
	vram         [VRAM_SIZE]uint8

	ctrl, mask, status uint8
	oamAddr            uint8
	busLatch           uint8 // last byte written to any register; stands in for open-bus reads

	v, t   loopy
	x      uint8 // fine X scroll, 3 bits
	wLatch bool  // PPUSCROLL/PPUADDR shared write toggle

	scanline int16 // -1 through 260
	scandot  int16 // 0 through 340
	frameOdd bool

	bufferData uint8 // buffered PPUDATA read

	// background fetch pipeline
	bgNextTile, bgNextAttr, bgNextLo, bgNextHi uint8
	bgShiftLo, bgShiftHi                       uint16
	bgShiftAttrLo, bgShiftAttrHi               uint16

	// sprite pipeline, valid for the scanline currently being drawn
	spriteCount                      int
	spritePatternLo, spritePatternHi [8]uint8
	spriteAttr, spriteX              [8]uint8
	sprite0OnLine                    bool

	lastA12 bool // tracks PPU address bit 12 for mapper IRQ clocking

	frame      [NES_RES_WIDTH * NES_RES_HEIGHT]uint8 // palette indices, not RGB
	frameReady bool                                  // set at vblank start, cleared when the next frame begins rendering

	nmiPending bool // set at vblank start or a CTRL NMI-enable edge during vblank, cleared at pre-render dot 1
}

func New(b Bus) *PPU {
	return &PPU{
		scanline: -1, // we always start on the pre-render line
		bus:      b,
	}
}

// SetMapper swaps the cartridge the PPU renders against, for power-on and
// cartridge-swap wiring done after New.
func (p *PPU) SetMapper(b Bus) {
	p.bus = b
}

// FrameBuffer returns the current palette-index frame buffer. Converting
// indices to displayable colors is a presentation-layer concern, not the
// PPU's.
func (p *PPU) FrameBuffer() *[NES_RES_WIDTH * NES_RES_HEIGHT]uint8 {
	return &p.frame
}

// FrameComplete reports whether a full frame has been rendered since the
// last one. It stays true from the start of vblank until the PPU begins
// rendering the next frame.
func (p *PPU) FrameComplete() bool {
	return p.frameReady
}

// NMIPending reports whether the PPU has asserted its NMI line since the
// last pre-render scanline. It does not clear on read; a driver that
// acts on it should still rely on TriggerNMI's push to the CPU for
// actually servicing the interrupt, and use NMIPending only to observe
// the PPU's own view of the line.
func (p *PPU) NMIPending() bool {
	return p.nmiPending
}

func (p *PPU) Resolution() (int, int) {
	return NES_RES_WIDTH, NES_RES_HEIGHT
}

// WriteRegister handles a CPU write to one of the memory-mapped PPU
// registers at $2000-$2007.
func (p *PPU) WriteRegister(r uint16, val uint8) {
	p.busLatch = val

	switch r {
	case PPUCTRL:
		wasNMIOff := p.ctrl&CTRL_GENERATE_NMI == 0
		p.ctrl = val
		p.t.setNametableX(uint16(val & 0x01))
		p.t.setNametableY(uint16((val >> 1) & 0x01))
		// Turning NMI generation on while already in vblank fires it
		// immediately instead of waiting for the next vblank edge.
		if wasNMIOff && p.ctrl&CTRL_GENERATE_NMI != 0 && p.status&STATUS_VERTICAL_BLANK != 0 {
			p.nmiPending = true
			p.bus.TriggerNMI()
		}
	case PPUMASK:
		p.mask = val
	case OAMADDR:
		p.oamAddr = val
	case OAMDATA:
		p.oamData[p.oamAddr] = val
		p.oamAddr++
	case PPUSCROLL:
		if !p.wLatch {
			p.x = val & 0x07
			p.t.setCoarseX(uint16(val >> 3))
		} else {
			p.t.setFineY(uint16(val & 0x07))
			p.t.setCoarseY(uint16(val >> 3))
		}
		p.wLatch = !p.wLatch
	case PPUADDR:
		if !p.wLatch {
			p.t.set((p.t.get() & 0x00FF) | (uint16(val&0x3F) << 8))
		} else {
			p.t.set((p.t.get() & 0xFF00) | uint16(val))
			p.v.set(p.t.get())
		}
		p.wLatch = !p.wLatch
	case PPUDATA:
		p.write(p.v.get(), val)
		p.vramIncrement()
	}
}

// ReadRegister returns the current value of a register.
func (p *PPU) ReadRegister(r uint16) uint8 {
	switch r {
	case PPUSTATUS:
		result := (p.status & 0xE0) | (p.busLatch & 0x1F)
		p.status &^= STATUS_VERTICAL_BLANK
		p.wLatch = false
		p.busLatch = result
		return result
	case OAMDATA:
		return p.oamData[p.oamAddr]
	case PPUDATA:
		result := p.readPPUDATA()
		p.busLatch = result
		return result
	}

	return p.busLatch
}

// OAMDMAWrite copies a full 256-byte CPU page into OAM, starting at the
// current OAMADDR, as a $4014 write does.
func (p *PPU) OAMDMAWrite(page [256]uint8) {
	for i := 0; i < 256; i++ {
		p.oamData[p.oamAddr+uint8(i)] = page[i]
	}
}

func (p *PPU) vramIncrement() {
	step := uint16(CTRL_INCR_ACROSS)
	if p.ctrl&CTRL_VRAM_ADD_INCREMENT != 0 {
		step = CTRL_INCR_DOWN
	}
	p.v.set(p.v.get() + step)
}

func (p *PPU) readPPUDATA() uint8 {
	addr := p.v.get()
	var result uint8
	if addr%0x4000 >= PALETTE_RAM {
		result = p.read(addr)
		// Reading a palette address still refreshes the read buffer
		// from the underlying nametable mirror, a real hardware quirk.
		p.bufferData = p.read(addr - 0x1000)
	} else {
		result = p.bufferData
		p.bufferData = p.read(addr)
	}
	p.vramIncrement()
	return result
}

// tileMapAddr maps a nametable address (relative to $2000) onto one of the
// four physical 1 KiB VRAM pages according to the cartridge's mirroring
// mode. Every Mirroring value, including FourScreen, resolves to a page in
// [0,4) so there is no panic path here.
func (p *PPU) tileMapAddr(rel uint16) uint16 {
	rel %= 0x1000
	logical := rel / 0x0400
	offset := rel % 0x0400
	page := p.bus.MirrorMode().PhysicalPage(logical)
	return page*0x0400 + offset
}

func (p *PPU) read(addr uint16) uint8 {
	a := addr % 0x4000

	switch {
	case a < NAMETABLE_0:
		p.clockA12(a)
		return p.bus.PPURead(a)
	case a < PALETTE_RAM:
		m := a - NAMETABLE_0
		if m >= 0x1000 {
			m -= 0x1000
		}
		return p.vram[p.tileMapAddr(m)]
	default:
		return p.paletteTable[p.paletteIndex(a)]
	}
}

func (p *PPU) write(addr uint16, val uint8) {
	a := addr % 0x4000

	switch {
	case a < NAMETABLE_0:
		p.bus.PPUWrite(a, val)
	case a < PALETTE_RAM:
		m := a - NAMETABLE_0
		if m >= 0x1000 {
			m -= 0x1000
		}
		p.vram[p.tileMapAddr(m)] = val
	default:
		p.paletteTable[p.paletteIndex(a)] = val
	}
}

// paletteIndex folds a $3F00-$3FFF address down to a palette RAM slot,
// mirroring the four background-color entries ($10/$14/$18/$1C onto
// $00/$04/$08/$0C) the way real palette RAM does.
func (p *PPU) paletteIndex(addr uint16) uint16 {
	i := (addr - PALETTE_RAM) % 0x20
	if i%4 == 0 {
		i &^= 0x10
	}
	return i
}

// clockA12 drives the mapper's scanline IRQ counter (MMC3) on every 0->1
// transition of PPU address bit 12, which is how real cartridges observe
// the PPU's pattern-table fetch pattern without a dedicated scanline timer.
func (p *PPU) clockA12(addr uint16) {
	rising := addr&0x1000 != 0
	if rising && !p.lastA12 {
		p.bus.ScanlineTick()
	}
	p.lastA12 = rising
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&(MASK_SHOW_BACKGROUND|MASK_SHOW_SPRITES) != 0
}

// Tick executes n PPU dots.
func (p *PPU) Tick(n int) {
	for i := 0; i < n; i++ {
		p.Step()
	}
}

// Step executes a single PPU dot, the unit the CPU/PPU clock interleave
// runs at three-to-one.
func (p *PPU) Step() {
	p.tick()
}

func (p *PPU) tick() {
	if p.scanline == -1 && p.scandot == 1 {
		p.status &^= STATUS_VERTICAL_BLANK | STATUS_SPRITE_0_HIT | STATUS_SPRITE_OVERFLOW
		p.frameReady = false
		p.nmiPending = false
	}
	if p.scanline == 241 && p.scandot == 1 {
		p.status |= STATUS_VERTICAL_BLANK
		p.frameReady = true
		if p.ctrl&CTRL_GENERATE_NMI != 0 {
			p.nmiPending = true
			p.bus.TriggerNMI()
		}
	}

	if p.scanline == -1 || p.scanline < 240 {
		p.renderTick()
	}

	p.scandot++
	if p.scandot > 340 {
		p.scandot = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.frameOdd = !p.frameOdd
			if p.frameOdd && p.mask&MASK_SHOW_BACKGROUND != 0 {
				p.scandot = 1 // odd-frame dot skip
			}
		}
	}
}

// renderTick runs the background fetch pipeline, sprite evaluation/fetch
// and the pixel output mux for one dot of a visible or pre-render scanline.
func (p *PPU) renderTick() {
	rendering := p.renderingEnabled()

	if (p.scandot >= 1 && p.scandot <= 256) || (p.scandot >= 321 && p.scandot <= 336) {
		p.updateShifters()
		switch (p.scandot - 1) % 8 {
		case 0:
			p.loadBackgroundShifters()
			p.bgNextTile = p.read(NAMETABLE_0 | (p.v.get() & 0x0FFF))
		case 2:
			p.bgNextAttr = p.fetchAttribute()
		case 4:
			p.bgNextLo = p.fetchPatternByte(0)
		case 6:
			p.bgNextHi = p.fetchPatternByte(8)
		case 7:
			if rendering {
				p.v.incrementCoarseX()
			}
		}
	}

	if p.scandot == 256 && rendering {
		p.v.incrementY()
	}
	if p.scandot == 257 {
		p.loadBackgroundShifters()
		if rendering {
			p.v.set((p.v.get() &^ 0x041F) | (p.t.get() & 0x041F))
		}
	}
	if p.scanline == -1 && p.scandot >= 280 && p.scandot <= 304 && rendering {
		p.v.set((p.v.get() &^ 0x7BE0) | (p.t.get() & 0x7BE0))
	}

	if p.scandot == 257 {
		p.evaluateSprites()
	}
	if p.scandot == 321 {
		p.fetchSpritePatterns()
	}

	if p.scandot >= 1 && p.scandot <= 256 && p.scanline >= 0 {
		p.renderPixel()
	}
}

func (p *PPU) fetchAttribute() uint8 {
	v := p.v.get()
	addr := uint16(0x23C0) | (v & 0x0C00) | ((v >> 4) & 0x38) | ((v >> 2) & 0x07)
	attr := p.read(addr)
	if (p.v.coarseY()>>1)&1 != 0 {
		attr >>= 4
	}
	if (p.v.coarseX()>>1)&1 != 0 {
		attr >>= 2
	}
	return attr & 0x03
}

func (p *PPU) fetchPatternByte(plane uint16) uint8 {
	base := uint16(0)
	if p.ctrl&CTRL_BACKROUND_PATTERN_ADDR != 0 {
		base = 0x1000
	}
	addr := base + uint16(p.bgNextTile)*16 + p.v.fineY() + plane
	return p.read(addr)
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShiftLo = (p.bgShiftLo &^ 0x00FF) | uint16(p.bgNextLo)
	p.bgShiftHi = (p.bgShiftHi &^ 0x00FF) | uint16(p.bgNextHi)

	var attrLo, attrHi uint16
	if p.bgNextAttr&0x01 != 0 {
		attrLo = 0x00FF
	}
	if p.bgNextAttr&0x02 != 0 {
		attrHi = 0x00FF
	}
	p.bgShiftAttrLo = (p.bgShiftAttrLo &^ 0x00FF) | attrLo
	p.bgShiftAttrHi = (p.bgShiftAttrHi &^ 0x00FF) | attrHi
}

func (p *PPU) updateShifters() {
	if p.mask&MASK_SHOW_BACKGROUND == 0 {
		return
	}
	p.bgShiftLo <<= 1
	p.bgShiftHi <<= 1
	p.bgShiftAttrLo <<= 1
	p.bgShiftAttrHi <<= 1
}

// evaluateSprites runs at dot 257 and scans primary OAM for sprites
// visible on the NEXT scanline, copying up to 8 into secondaryOAM so
// fetchSpritePatterns (dot 321) and renderPixel (dots 1-256 of that next
// scanline) see a consistent set. Real hardware's sprite evaluation has a
// well-known diagonal-scan bug affecting overflow detection past the 9th
// sprite; we implement only the documented "9th in-range sprite sets the
// flag" behavior.
func (p *PPU) evaluateSprites() {
	height := 8
	if p.ctrl&CTRL_SPRITE_SIZE != 0 {
		height = 16
	}

	p.spriteCount = 0
	p.sprite0OnLine = false
	target := int(p.scanline) + 1

	i := 0
	for ; i < 64 && p.spriteCount < 8; i++ {
		y := int(p.oamData[i*4])
		if target < y || target >= y+height {
			continue
		}
		copy(p.secondaryOAM[p.spriteCount*4:p.spriteCount*4+4], p.oamData[i*4:i*4+4])
		if i == 0 {
			p.sprite0OnLine = true
		}
		p.spriteCount++
	}

	// Continue from the OAM entry after the 8th match, if there was one.
	for ; i < 64; i++ {
		y := int(p.oamData[i*4])
		if target >= y && target < y+height {
			p.status |= STATUS_SPRITE_OVERFLOW
			break
		}
	}
}

// fetchSpritePatterns runs at dot 321, fetching pattern bytes for the
// sprites evaluateSprites (dot 257) found on the upcoming scanline.
func (p *PPU) fetchSpritePatterns() {
	height := 8
	if p.ctrl&CTRL_SPRITE_SIZE != 0 {
		height = 16
	}

	target := int(p.scanline) + 1
	for i := 0; i < p.spriteCount; i++ {
		s := OAMFromBytes(p.secondaryOAM[i*4 : i*4+4])
		row := target - int(s.y)
		if s.flipV {
			row = height - 1 - row
		}

		var base, tile uint16
		if height == 16 {
			tile = uint16(s.tileId &^ 0x01)
			base = uint16(s.tileId&0x01) * 0x1000
			if row >= 8 {
				tile++
				row -= 8
			}
		} else {
			tile = uint16(s.tileId)
			if p.ctrl&CTRL_SPRITE_PATTERN_ADDR != 0 {
				base = 0x1000
			}
		}

		addr := base + tile*16 + uint16(row)
		lo := p.read(addr)
		hi := p.read(addr + 8)
		if s.flipH {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}

		p.spritePatternLo[i] = lo
		p.spritePatternHi[i] = hi
		p.spriteAttr[i] = s.attributes()
		p.spriteX[i] = s.x
	}
}

func reverseBits(b uint8) uint8 {
	b = (b&0xF0)>>4 | (b&0x0F)<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

// renderPixel composes the background and sprite pipelines for the dot
// currently being drawn and writes the resulting palette index into the
// frame buffer.
func (p *PPU) renderPixel() {
	x := int(p.scandot - 1)

	var bgPixel, bgPalette uint8
	if p.mask&MASK_SHOW_BACKGROUND != 0 && (x >= 8 || p.mask&MASK_SHOW_BACKGROUND_LEFT != 0) {
		mux := uint16(0x8000) >> p.x
		var p0, p1, a0, a1 uint8
		if p.bgShiftLo&mux != 0 {
			p0 = 1
		}
		if p.bgShiftHi&mux != 0 {
			p1 = 1
		}
		if p.bgShiftAttrLo&mux != 0 {
			a0 = 1
		}
		if p.bgShiftAttrHi&mux != 0 {
			a1 = 1
		}
		bgPixel = (p1 << 1) | p0
		bgPalette = (a1 << 1) | a0
	}

	var spPixel, spPalette uint8
	var spFront, sp0 bool
	if p.mask&MASK_SHOW_SPRITES != 0 && (x >= 8 || p.mask&MASK_SHOW_SPRITES_LEFT != 0) {
		for i := 0; i < p.spriteCount; i++ {
			offset := x - int(p.spriteX[i])
			if offset < 0 || offset > 7 {
				continue
			}
			shift := uint(7 - offset)
			lo := (p.spritePatternLo[i] >> shift) & 1
			hi := (p.spritePatternHi[i] >> shift) & 1
			pix := (hi << 1) | lo
			if pix == 0 {
				continue
			}
			spPixel = pix
			spPalette = (p.spriteAttr[i] & 0x03) + 4
			spFront = p.spriteAttr[i]&0x20 == 0
			sp0 = i == 0 && p.sprite0OnLine
			break
		}
	}

	var finalPixel, finalPalette uint8
	switch {
	case bgPixel == 0 && spPixel == 0:
		finalPixel, finalPalette = 0, 0
	case bgPixel == 0:
		finalPixel, finalPalette = spPixel, spPalette
	case spPixel == 0:
		finalPixel, finalPalette = bgPixel, bgPalette
	default:
		if sp0 && x != 255 {
			p.status |= STATUS_SPRITE_0_HIT
		}
		if spFront {
			finalPixel, finalPalette = spPixel, spPalette
		} else {
			finalPixel, finalPalette = bgPixel, bgPalette
		}
	}

	idx := p.read(PALETTE_RAM + uint16(finalPalette)*4 + uint16(finalPixel))
	p.frame[int(p.scanline)*NES_RES_WIDTH+x] = idx & 0x3F
}
