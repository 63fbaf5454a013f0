// Package console wires the CPU, PPU, cartridge mapper, controller and
// APU register stub into the NES's single 16-bit CPU address space, the
// way real hardware decodes $0000-$FFFF across RAM, PPU registers, APU/IO
// registers and the cartridge.
package console

import (
	"github.com/bdwalton/nescore/mappers"
	"github.com/bdwalton/nescore/mos6502"
	"github.com/bdwalton/nescore/ppu"
)

const (
	ramSize    = 0x0800 // 2KB built-in RAM
	ramMirror  = 0x1FFF
	ppuMirror  = 0x3FFF
	ioRegsEnd  = 0x401F
	oamDMAReg  = 0x4014
	ctrl1Reg   = 0x4016
	ctrl2Reg   = 0x4017
	dmaPageLen = 256
)

// Bus is the CPU's view of the console: 2KB of work RAM, the PPU's
// memory-mapped registers, the controller ports, an inert APU register
// stub, and whatever the cartridge mapper exposes above $4020. It also
// implements ppu.Bus, so the PPU can reach CHR data and nametable
// mirroring through the same mapper without either package importing the
// other's concrete type.
type Bus struct {
	cpu        *mos6502.CPU
	ppu        *ppu.PPU
	mapper     mappers.Mapper
	controller *Controller
	apu        *APUStub
	ram        [ramSize]uint8

	dmaStall func(int)
}

// New builds a Bus and its own CPU, PPU, controller and APU stub around a
// cartridge mapper. SetPPU/SetDMAStallCallback let driver or test code
// swap either dependency afterward.
func New(m mappers.Mapper) *Bus {
	b := &Bus{
		mapper:     m,
		controller: &Controller{},
		apu:        NewAPUStub(),
	}
	b.cpu = mos6502.New(b.CPURead, b.CPUWrite)
	b.ppu = ppu.New(b)
	b.dmaStall = b.cpu.StallCycles
	return b
}

// SetPPU replaces the PPU this bus drives, letting driver or test code
// substitute a differently configured PPU after construction.
func (b *Bus) SetPPU(p *ppu.PPU) {
	b.ppu = p
}

// SetDMAStallCallback overrides how OAM DMA charges CPU cycles; New wires
// it to the CPU's own StallCycles by default. Exposed mainly so bus logic
// can be exercised without constructing a full CPU.
func (b *Bus) SetDMAStallCallback(f func(int)) {
	b.dmaStall = f
}

// CPU returns the bus's CPU, for driver code that needs to call Step.
func (b *Bus) CPU() *mos6502.CPU { return b.cpu }

// PPU returns the bus's PPU, for driver code that needs to call Step or
// read the frame buffer.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// Controller returns the primary controller port, for driver code to
// forward key state into via SetButton.
func (b *Bus) Controller() *Controller { return b.controller }

// TriggerNMI lets the PPU (via the ppu.Bus interface) signal the CPU that
// vblank has started.
func (b *Bus) TriggerNMI() {
	b.cpu.TriggerNMI()
}

// PPURead and PPUWrite give the PPU (via ppu.Bus) access to CHR data on
// the cartridge.
func (b *Bus) PPURead(addr uint16) uint8       { return b.mapper.PPURead(addr) }
func (b *Bus) PPUWrite(addr uint16, val uint8) { b.mapper.PPUWrite(addr, val) }

// MirrorMode reports the cartridge's nametable mirroring, for the PPU's
// own nametable address translation.
func (b *Bus) MirrorMode() mappers.Mirroring { return b.mapper.MirrorMode() }

// ScanlineTick forwards the PPU's A12-edge clock to the mapper, driving
// MMC3-style scanline IRQ counters.
func (b *Bus) ScanlineTick() { b.mapper.ScanlineTick() }

// PollIRQ forwards the mapper's pending-IRQ state onto the CPU's
// interrupt line. Driver code calls this once per CPU step, since a
// mapper's IRQ condition can clear between steps (MMC3's $E000 acknowledge)
// without an edge for the bus to catch on its own.
func (b *Bus) PollIRQ() {
	if b.mapper.IRQPending() {
		b.cpu.TriggerIRQ()
	} else {
		b.cpu.ClearIRQ()
	}
}

// CPURead implements the CPU's memory map: https://www.nesdev.org/wiki/CPU_memory_map
func (b *Bus) CPURead(addr uint16) uint8 {
	switch {
	case addr <= ramMirror:
		return b.ram[addr&(ramSize-1)]
	case addr <= ppuMirror:
		return b.ppu.ReadRegister(0x2000 + addr&0x0007)
	case addr == ctrl1Reg:
		return b.controller.Read()
	case addr == ctrl2Reg:
		return 0 // second controller port, unimplemented
	case addr == apuStatus:
		return b.apu.Read()
	case addr <= ioRegsEnd:
		return 0 // write-only APU/IO registers read as open bus
	default:
		return b.mapper.CPURead(addr)
	}
}

// CPUWrite implements the CPU's memory map for writes.
func (b *Bus) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr <= ramMirror:
		b.ram[addr&(ramSize-1)] = val
	case addr <= ppuMirror:
		b.ppu.WriteRegister(0x2000+addr&0x0007, val)
	case addr == oamDMAReg:
		b.doOAMDMA(val)
	case addr == ctrl1Reg:
		b.controller.Write(val)
	case addr <= ioRegsEnd:
		b.apu.Write(addr, val)
	default:
		b.mapper.CPUWrite(addr, val)
	}
}

// doOAMDMA copies the 256-byte page starting at val*0x100 into OAM and
// stalls the CPU for the transfer, instead of the teacher's synchronous
// inline copy. Real hardware takes 513 or 514 cycles depending on whether
// the write lands on an odd CPU cycle; TotalCycles' parity stands in for
// that here.
func (b *Bus) doOAMDMA(val uint8) {
	var page [dmaPageLen]uint8
	base := uint16(val) << 8
	for i := 0; i < dmaPageLen; i++ {
		page[i] = b.CPURead(base + uint16(i))
	}
	b.ppu.OAMDMAWrite(page)

	cycles := 513
	if b.cpu.TotalCycles()%2 == 1 {
		cycles = 514
	}
	b.dmaStall(cycles)
}
