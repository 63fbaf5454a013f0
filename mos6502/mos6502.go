// Package mos6502 implements the MOS Technologies 6502 processor
// https://en.wikipedia.org/wiki/MOS_Technology_6502
package mos6502

import (
	"fmt"
	"strings"
)

// 6502 Interrupt Vectors
// https://en.wikipedia.org/wiki/Interrupts_in_65xx_processors
const (
	vectorNMI   = 0xFFFA
	vectorReset = 0xFFFC
	vectorIRQ   = 0xFFFE
)

// 6502 Processor Status Flags
// https://www.nesdev.org/obelisk-6502-guide/registers.html
const (
	STATUS_FLAG_CARRY             = 1 << 0 // C
	STATUS_FLAG_ZERO              = 1 << 1 // Z
	STATUS_FLAG_INTERRUPT_DISABLE = 1 << 2 // I
	STATUS_FLAG_DECIMAL           = 1 << 3 // D
	STATUS_FLAG_BREAK             = 1 << 4 // B
	UNUSED_STATUS_FLAG            = 1 << 5 // always reads as 1
	STATUS_FLAG_OVERFLOW          = 1 << 6 // V
	STATUS_FLAG_NEGATIVE          = 1 << 7 // N
)

// 6502 Addressing Modes
// https://www.nesdev.org/obelisk-6502-guide/addressing.html
const (
	IMPLICIT = iota
	ACCUMULATOR
	IMMEDIATE
	ZERO_PAGE
	ZERO_PAGE_X
	ZERO_PAGE_Y
	RELATIVE
	ABSOLUTE
	ABSOLUTE_X
	ABSOLUTE_Y
	INDIRECT
	INDIRECT_X // Indexed Indirect, (zp,X)
	INDIRECT_Y // Indirect Indexed, (zp),Y
)

var modenames = map[uint8]string{
	IMPLICIT: "IMPLICIT", ACCUMULATOR: "ACCUMULATOR", IMMEDIATE: "IMMEDIATE",
	ZERO_PAGE: "ZERO_PAGE", ZERO_PAGE_X: "ZERO_PAGE_X", ZERO_PAGE_Y: "ZERO_PAGE_Y",
	RELATIVE: "RELATIVE", ABSOLUTE: "ABSOLUTE", ABSOLUTE_X: "ABSOLUTE_X",
	ABSOLUTE_Y: "ABSOLUTE_Y", INDIRECT: "INDIRECT", INDIRECT_X: "INDIRECT_X",
	INDIRECT_Y: "INDIRECT_Y",
}

const stackPage = 0x0100

var flagMap = map[uint8]byte{
	STATUS_FLAG_CARRY:             'C',
	STATUS_FLAG_ZERO:              'Z',
	STATUS_FLAG_INTERRUPT_DISABLE: 'I',
	STATUS_FLAG_DECIMAL:           'D',
	STATUS_FLAG_BREAK:             'B',
	UNUSED_STATUS_FLAG:            '-',
	STATUS_FLAG_OVERFLOW:          'V',
	STATUS_FLAG_NEGATIVE:          'N',
}

func statusString(p uint8) string {
	var sb strings.Builder
	for _, f := range []uint8{
		STATUS_FLAG_NEGATIVE, STATUS_FLAG_OVERFLOW, UNUSED_STATUS_FLAG,
		STATUS_FLAG_BREAK, STATUS_FLAG_DECIMAL, STATUS_FLAG_INTERRUPT_DISABLE,
		STATUS_FLAG_ZERO, STATUS_FLAG_CARRY,
	} {
		if p&f > 0 {
			sb.WriteByte(flagMap[f])
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// ReadFunc and WriteFunc are the function-shaped capabilities the CPU is
// wired with at construction. The CPU never holds a reference to the bus
// or the mapper directly; it only knows how to read and write a 16-bit
// address space through these two closures.
type ReadFunc func(addr uint16) uint8
type WriteFunc func(addr uint16, val uint8)

// CPU implements the register file and instruction execution of a 6502,
// cycle-counted closely enough to match the real part's timing: base
// instruction cost, the conditional +1 for a page crossing on indexed
// reads, and the conditional +1/+2 for a taken branch.
type CPU struct {
	acc    uint8
	x, y   uint8
	status uint8
	sp     uint8
	pc     uint16

	read  ReadFunc
	write WriteFunc

	totalCycles uint64
	stallCycles int

	nmiPending bool
	irqLine    bool

	// extraCycles accumulates the conditional cycles (branch taken,
	// branch page cross) a single Step adds on top of an opcode's
	// base cost. Reset at the start of every instruction dispatch.
	extraCycles uint32

	// curAddr/curCrossed hold the operand address resolved by Step
	// before dispatching to the opcode's handler, so every handler
	// reads/writes through curAddr instead of re-resolving the
	// addressing mode itself. Meaningless for IMPLICIT/ACCUMULATOR.
	curAddr    uint16
	curCrossed bool
}

func (c *CPU) String() string {
	return fmt.Sprintf("A,X,Y: %3d, %3d, %3d; PC: 0x%04x, SP: 0x%02x, P: %s", c.acc, c.x, c.y, c.pc, c.sp, statusString(c.status))
}

// New constructs a CPU wired to the given memory-access capabilities and
// resets it, which pulls the initial PC from the reset vector.
func New(read ReadFunc, write WriteFunc) *CPU {
	c := &CPU{read: read, write: write}
	c.Reset()
	return c
}

// Reset puts the CPU back into its power-up register state and loads PC
// from the reset vector. Per
// https://nesdev-wiki.nes.science/wikipages/CPU_ALL.xhtml#Power_up_state
// SP starts at 0xFD and the reset sequence itself burns 7 cycles, which
// is reflected directly in TotalCycles rather than walked through Step.
func (c *CPU) Reset() {
	c.acc, c.x, c.y = 0, 0, 0
	c.sp = 0xFD
	c.status = UNUSED_STATUS_FLAG | STATUS_FLAG_INTERRUPT_DISABLE
	c.pc = c.read16(vectorReset)
	c.stallCycles = 0
	c.nmiPending = false
	c.irqLine = false
	c.totalCycles = 7
}

// TriggerNMI latches a non-maskable interrupt, serviced at the start of
// the next Step ahead of any pending IRQ.
func (c *CPU) TriggerNMI() { c.nmiPending = true }

// TriggerIRQ raises the CPU's interrupt request line. The caller (the
// bus, forwarding a mapper's IRQPending) is expected to hold the line
// asserted for as long as the condition lasts and call ClearIRQ once it
// no longer does; an IRQ is only serviced when STATUS_FLAG_INTERRUPT_DISABLE
// is clear.
func (c *CPU) TriggerIRQ() { c.irqLine = true }

// ClearIRQ deasserts the interrupt request line.
func (c *CPU) ClearIRQ() { c.irqLine = false }

// StallCycles adds n cycles during which Step does nothing but count
// down, modeling the CPU being held off the bus (OAM DMA).
func (c *CPU) StallCycles(n int) { c.stallCycles += n }

// TotalCycles returns the number of CPU cycles elapsed since Reset.
func (c *CPU) TotalCycles() uint64 { return c.totalCycles }

func (c *CPU) A() uint8        { return c.acc }
func (c *CPU) X() uint8        { return c.x }
func (c *CPU) Y() uint8        { return c.y }
func (c *CPU) SP() uint8       { return c.sp }
func (c *CPU) PC() uint16      { return c.pc }
func (c *CPU) Status() uint8   { return c.status }
func (c *CPU) SetPC(pc uint16) { c.pc = pc }

// Step executes exactly one pre-instruction event (a pending stall tick,
// a pending NMI, a pending IRQ) or one full instruction, and returns how
// many cycles that consumed. NMI takes priority over IRQ when both are
// pending, matching real 6502 behavior at the hardware-vector level.
func (c *CPU) Step() uint32 {
	if c.stallCycles > 0 {
		c.stallCycles--
		c.totalCycles++
		return 1
	}

	if c.nmiPending {
		c.nmiPending = false
		c.serviceInterrupt(vectorNMI)
		c.totalCycles += 7
		return 7
	}

	if c.irqLine && c.status&STATUS_FLAG_INTERRUPT_DISABLE == 0 {
		c.serviceInterrupt(vectorIRQ)
		c.totalCycles += 7
		return 7
	}

	op := opcodeTable[c.read(c.pc)]
	c.pc++
	opc := c.pc

	c.extraCycles = 0
	if op.mode != IMPLICIT && op.mode != ACCUMULATOR {
		c.curAddr, c.curCrossed = c.resolveAddress(op.mode)
	}
	op.fn(c, op.mode)

	// If the instruction didn't change PC itself (branch taken, jump,
	// return, BRK), skip over the remaining operand bytes. We already
	// consumed the opcode byte above.
	if c.pc == opc {
		c.pc += uint16(op.bytes) - 1
	}

	cycles := uint32(op.cycles) + c.extraCycles
	if c.curCrossed && op.pageCross {
		cycles++
	}
	c.totalCycles += uint64(cycles)
	return cycles
}

// serviceInterrupt pushes PC and status (with STATUS_FLAG_BREAK clear)
// and jumps through the given vector, exactly like an instruction-boundary
// hardware interrupt (as opposed to BRK, a software one).
func (c *CPU) serviceInterrupt(vector uint16) {
	c.pushAddress(c.pc)
	c.pushStack((c.status &^ STATUS_FLAG_BREAK) | UNUSED_STATUS_FLAG)
	c.flagsOn(STATUS_FLAG_INTERRUPT_DISABLE)
	c.pc = c.read16(vector)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hi := uint16(c.read(addr + 1))
	return (hi << 8) | lo
}

// read16ZeroPage reads a little-endian 16-bit pointer out of zero page,
// wrapping the high byte within page zero rather than into page one.
func (c *CPU) read16ZeroPage(zp uint8) uint16 {
	lo := uint16(c.read(uint16(zp)))
	hi := uint16(c.read(uint16(zp + 1)))
	return (hi << 8) | lo
}

// read16Bugged reproduces the JMP ($xxFF) hardware bug: when the
// indirect pointer's low byte is 0xFF, the high byte is fetched from the
// start of the same page instead of the next page.
func (c *CPU) read16Bugged(ptr uint16) uint16 {
	lo := uint16(c.read(ptr))
	hiAddr := (ptr & 0xFF00) | uint16(uint8(ptr)+1)
	hi := uint16(c.read(hiAddr))
	return (hi << 8) | lo
}

func pageOf(addr uint16) uint16 { return addr & 0xFF00 }

// resolveAddress returns the effective address for mode, reading operand
// bytes at the current PC without advancing it, plus whether resolving
// an indexed address crossed a page boundary. ACCUMULATOR and IMPLICIT
// have no address and must never call this.
func (c *CPU) resolveAddress(mode uint8) (addr uint16, crossed bool) {
	switch mode {
	case IMMEDIATE:
		addr = c.pc
	case ZERO_PAGE:
		addr = uint16(c.read(c.pc))
	case ZERO_PAGE_X:
		addr = uint16(c.read(c.pc) + c.x)
	case ZERO_PAGE_Y:
		addr = uint16(c.read(c.pc) + c.y)
	case ABSOLUTE:
		addr = c.read16(c.pc)
	case ABSOLUTE_X:
		base := c.read16(c.pc)
		addr = base + uint16(c.x)
		crossed = pageOf(base) != pageOf(addr)
	case ABSOLUTE_Y:
		base := c.read16(c.pc)
		addr = base + uint16(c.y)
		crossed = pageOf(base) != pageOf(addr)
	case INDIRECT:
		addr = c.read16Bugged(c.read16(c.pc))
	case INDIRECT_X:
		zp := c.read(c.pc) + c.x
		addr = c.read16ZeroPage(zp)
	case INDIRECT_Y:
		base := c.read16ZeroPage(c.read(c.pc))
		addr = base + uint16(c.y)
		crossed = pageOf(base) != pageOf(addr)
	case RELATIVE:
		next := c.pc + 1
		addr = uint16(int32(next) + int32(int8(c.read(c.pc))))
		crossed = pageOf(next) != pageOf(addr)
	default:
		panic(fmt.Sprintf("mos6502: addressing mode %s has no operand address", modenames[mode]))
	}
	return addr, crossed
}

func (c *CPU) setNegativeAndZeroFlags(n uint8) {
	if n == 0 {
		c.flagsOn(STATUS_FLAG_ZERO)
	} else {
		c.flagsOff(STATUS_FLAG_ZERO)
	}

	if n&0x80 != 0 {
		c.flagsOn(STATUS_FLAG_NEGATIVE)
	} else {
		c.flagsOff(STATUS_FLAG_NEGATIVE)
	}
}

func (c *CPU) stackAddr() uint16 { return stackPage + uint16(c.sp) }

func (c *CPU) pushStack(val uint8) {
	c.write(c.stackAddr(), val)
	c.sp--
}

func (c *CPU) popStack() uint8 {
	c.sp++
	return c.read(c.stackAddr())
}

func (c *CPU) pushAddress(addr uint16) {
	c.pushStack(uint8(addr >> 8))
	c.pushStack(uint8(addr & 0x00FF))
}

func (c *CPU) popAddress() uint16 {
	return uint16(c.popStack()) | (uint16(c.popStack()) << 8)
}

func (c *CPU) flagsOn(mask uint8)  { c.status |= mask }
func (c *CPU) flagsOff(mask uint8) { c.status &^= mask }
