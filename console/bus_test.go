package console

import (
	"testing"

	"github.com/bdwalton/nescore/mappers"
)

// fakeMapper is a minimal mappers.Mapper double: CPU reads/writes go to a
// flat byte array, CHR reads/writes go to another, mirroring and IRQ
// state are whatever the test sets directly.
type fakeMapper struct {
	prg        [0x10000]uint8
	chr        [0x2000]uint8
	mirror     mappers.Mirroring
	irqPending bool
	ticks      int
}

func (m *fakeMapper) CPURead(addr uint16) uint8       { return m.prg[addr] }
func (m *fakeMapper) CPUWrite(addr uint16, val uint8) { m.prg[addr] = val }
func (m *fakeMapper) PPURead(addr uint16) uint8       { return m.chr[addr] }
func (m *fakeMapper) PPUWrite(addr uint16, val uint8) { m.chr[addr] = val }
func (m *fakeMapper) MirrorMode() mappers.Mirroring   { return m.mirror }
func (m *fakeMapper) ScanlineTick()                   { m.ticks++ }
func (m *fakeMapper) IRQPending() bool                { return m.irqPending }

func newTestBus() (*Bus, *fakeMapper) {
	m := &fakeMapper{}
	return New(m), m
}

func TestBaseRAMMirroring(t *testing.T) {
	b, _ := newTestBus()
	for i := 0; i < 10; i++ {
		b.CPUWrite(uint16(i), uint8(i+1))
	}

	for _, base := range []uint16{0, 0x0800, 0x1000, 0x1800} {
		for i := 0; i < 10; i++ {
			if got := b.CPURead(base + uint16(i)); got != uint8(i+1) {
				t.Errorf("mem[%#04x] = %d, want %d", base+uint16(i), got, i+1)
			}
		}
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	b, _ := newTestBus()
	// $2006/$2007 (PPUADDR/PPUDATA) through the $3FF6/$3FF7 mirror near
	// the top of the $2000-$3FFF window should reach the same registers
	// as the base addresses.
	b.CPUWrite(0x3FF6, 0x20)
	b.CPUWrite(0x3FF6, 0x00)
	b.CPUWrite(0x3FF7, 0x55)

	b.CPUWrite(0x2006, 0x20)
	b.CPUWrite(0x2006, 0x00)
	b.CPURead(0x2007) // first read after setting the address returns the stale buffer
	if got := b.CPURead(0x2007); got != 0x55 {
		t.Errorf("PPUDATA written through the $3FF7 mirror = %#02x, want 0x55", got)
	}
}

func TestCartridgeSpaceDelegatesToMapper(t *testing.T) {
	b, m := newTestBus()
	m.prg[0x8000] = 0x42
	if got := b.CPURead(0x8000); got != 0x42 {
		t.Errorf("CPURead(0x8000) = %#02x, want 0x42", got)
	}
	b.CPUWrite(0x6000, 0x99)
	if m.prg[0x6000] != 0x99 {
		t.Error("writes in 0x4020-0xFFFF should reach the mapper, not be dropped")
	}
}

func TestOAMDMAStallsAndCopiesPage(t *testing.T) {
	b, _ := newTestBus()
	var stalled int
	b.SetDMAStallCallback(func(n int) { stalled = n })

	for i := 0; i < 256; i++ {
		b.ram[i] = uint8(i)
	}
	b.CPUWrite(0x4014, 0x00) // DMA from page 0x00 (RAM)

	if stalled != 513 && stalled != 514 {
		t.Errorf("stall cycles = %d, want 513 or 514", stalled)
	}
	for _, i := range []uint8{0, 5, 255} {
		b.CPUWrite(0x2003, i) // OAMADDR
		if got := b.CPURead(0x2004); got != i {
			t.Errorf("OAM[%d] after DMA = %d, want %d", i, got, i)
		}
	}
}

func TestControllerStrobeAndShift(t *testing.T) {
	b, _ := newTestBus()
	b.controller.SetButton(ButtonA, true)
	b.controller.SetButton(ButtonRight, true)

	b.CPUWrite(0x4016, 1) // strobe on
	b.CPUWrite(0x4016, 0) // strobe off, latch

	if got := b.CPURead(0x4016); got&0x01 != 1 {
		t.Errorf("first controller read = %d, want A pressed (1)", got&0x01)
	}
	for i := 0; i < 6; i++ {
		b.CPURead(0x4016)
	}
	if got := b.CPURead(0x4016); got&0x01 != 1 {
		t.Errorf("eighth controller read = %d, want Right pressed (1)", got&0x01)
	}
	if got := b.CPURead(0x4016); got&0x01 != 1 {
		t.Error("reads past the eighth bit should return 1")
	}
}

func TestAPUStatusReflectsFrameIRQ(t *testing.T) {
	b, _ := newTestBus()
	if got := b.CPURead(0x4015); got != 0 {
		t.Errorf("status before any IRQ = %#02x, want 0", got)
	}
	b.apu.frameIRQ = true
	if got := b.CPURead(0x4015); got&apuStatusFrameIRQ == 0 {
		t.Error("expected frame IRQ bit set in status")
	}
}

func TestPollIRQForwardsMapperIRQToCPU(t *testing.T) {
	b, m := newTestBus()
	b.ram[0x0000] = 0x58 // CLI: reset leaves interrupts disabled
	m.prg[0xFFFE] = 0x00
	m.prg[0xFFFF] = 0x60 // IRQ vector -> 0x6000
	b.cpu.Step()         // CLI

	m.irqPending = true
	b.PollIRQ()
	b.cpu.Step()
	if b.cpu.PC() != 0x6000 {
		t.Errorf("PC after IRQ = %#04x, want 0x6000", b.cpu.PC())
	}

	m.irqPending = false
	b.PollIRQ()
}
