package mos6502

import "math/bits"

// opcode describes one of the 256 possible opcode bytes: its mnemonic
// (for disassembly/debugging), addressing mode, instruction length in
// bytes, base cycle cost, whether an indexed addressing-mode page cross
// adds a cycle, and the handler that executes it.
type opcode struct {
	name      string
	mode      uint8
	bytes     uint8
	cycles    uint8
	pageCross bool
	fn        func(*CPU, uint8)
}

// illegal fills every opcode byte the table below doesn't claim. The
// CORE only targets the 56 documented mnemonics; an undocumented opcode
// byte is still valid input a bus can legitimately deliver, so it
// executes as a two-cycle no-op instead of surfacing an error.
var illegal = opcode{name: "???", mode: IMPLICIT, bytes: 1, cycles: 2, fn: func(c *CPU, _ uint8) {}}

var opcodeTable = buildOpcodeTable()

func buildOpcodeTable() [256]opcode {
	var t [256]opcode
	for i := range t {
		t[i] = illegal
	}

	set := func(b uint8, name string, mode, bytes, cycles uint8, pageCross bool, fn func(*CPU, uint8)) {
		t[b] = opcode{name, mode, bytes, cycles, pageCross, fn}
	}

	set(0x69, "ADC", IMMEDIATE, 2, 2, false, (*CPU).adc)
	set(0x65, "ADC", ZERO_PAGE, 2, 3, false, (*CPU).adc)
	set(0x75, "ADC", ZERO_PAGE_X, 2, 4, false, (*CPU).adc)
	set(0x6D, "ADC", ABSOLUTE, 3, 4, false, (*CPU).adc)
	set(0x7D, "ADC", ABSOLUTE_X, 3, 4, true, (*CPU).adc)
	set(0x79, "ADC", ABSOLUTE_Y, 3, 4, true, (*CPU).adc)
	set(0x61, "ADC", INDIRECT_X, 2, 6, false, (*CPU).adc)
	set(0x71, "ADC", INDIRECT_Y, 2, 5, true, (*CPU).adc)

	set(0x29, "AND", IMMEDIATE, 2, 2, false, (*CPU).and)
	set(0x25, "AND", ZERO_PAGE, 2, 3, false, (*CPU).and)
	set(0x35, "AND", ZERO_PAGE_X, 2, 4, false, (*CPU).and)
	set(0x2D, "AND", ABSOLUTE, 3, 4, false, (*CPU).and)
	set(0x3D, "AND", ABSOLUTE_X, 3, 4, true, (*CPU).and)
	set(0x39, "AND", ABSOLUTE_Y, 3, 4, true, (*CPU).and)
	set(0x21, "AND", INDIRECT_X, 2, 6, false, (*CPU).and)
	set(0x31, "AND", INDIRECT_Y, 2, 5, true, (*CPU).and)

	set(0x0A, "ASL", ACCUMULATOR, 1, 2, false, (*CPU).asl)
	set(0x06, "ASL", ZERO_PAGE, 2, 5, false, (*CPU).asl)
	set(0x16, "ASL", ZERO_PAGE_X, 2, 6, false, (*CPU).asl)
	set(0x0E, "ASL", ABSOLUTE, 3, 6, false, (*CPU).asl)
	set(0x1E, "ASL", ABSOLUTE_X, 3, 7, false, (*CPU).asl)

	set(0x90, "BCC", RELATIVE, 2, 2, false, (*CPU).bcc)
	set(0xB0, "BCS", RELATIVE, 2, 2, false, (*CPU).bcs)
	set(0xF0, "BEQ", RELATIVE, 2, 2, false, (*CPU).beq)
	set(0x30, "BMI", RELATIVE, 2, 2, false, (*CPU).bmi)
	set(0xD0, "BNE", RELATIVE, 2, 2, false, (*CPU).bne)
	set(0x10, "BPL", RELATIVE, 2, 2, false, (*CPU).bpl)
	set(0x50, "BVC", RELATIVE, 2, 2, false, (*CPU).bvc)
	set(0x70, "BVS", RELATIVE, 2, 2, false, (*CPU).bvs)

	set(0x24, "BIT", ZERO_PAGE, 2, 3, false, (*CPU).bit)
	set(0x2C, "BIT", ABSOLUTE, 3, 4, false, (*CPU).bit)

	set(0x00, "BRK", IMPLICIT, 2, 7, false, (*CPU).brk)

	set(0x18, "CLC", IMPLICIT, 1, 2, false, (*CPU).clc)
	set(0xD8, "CLD", IMPLICIT, 1, 2, false, (*CPU).cld)
	set(0x58, "CLI", IMPLICIT, 1, 2, false, (*CPU).cli)
	set(0xB8, "CLV", IMPLICIT, 1, 2, false, (*CPU).clv)

	set(0xC9, "CMP", IMMEDIATE, 2, 2, false, (*CPU).cmp)
	set(0xC5, "CMP", ZERO_PAGE, 2, 3, false, (*CPU).cmp)
	set(0xD5, "CMP", ZERO_PAGE_X, 2, 4, false, (*CPU).cmp)
	set(0xCD, "CMP", ABSOLUTE, 3, 4, false, (*CPU).cmp)
	set(0xDD, "CMP", ABSOLUTE_X, 3, 4, true, (*CPU).cmp)
	set(0xD9, "CMP", ABSOLUTE_Y, 3, 4, true, (*CPU).cmp)
	set(0xC1, "CMP", INDIRECT_X, 2, 6, false, (*CPU).cmp)
	set(0xD1, "CMP", INDIRECT_Y, 2, 5, true, (*CPU).cmp)

	set(0xE0, "CPX", IMMEDIATE, 2, 2, false, (*CPU).cpx)
	set(0xE4, "CPX", ZERO_PAGE, 2, 3, false, (*CPU).cpx)
	set(0xEC, "CPX", ABSOLUTE, 3, 4, false, (*CPU).cpx)

	set(0xC0, "CPY", IMMEDIATE, 2, 2, false, (*CPU).cpy)
	set(0xC4, "CPY", ZERO_PAGE, 2, 3, false, (*CPU).cpy)
	set(0xCC, "CPY", ABSOLUTE, 3, 4, false, (*CPU).cpy)

	set(0xC6, "DEC", ZERO_PAGE, 2, 5, false, (*CPU).dec)
	set(0xD6, "DEC", ZERO_PAGE_X, 2, 6, false, (*CPU).dec)
	set(0xCE, "DEC", ABSOLUTE, 3, 6, false, (*CPU).dec)
	set(0xDE, "DEC", ABSOLUTE_X, 3, 7, false, (*CPU).dec)

	set(0xCA, "DEX", IMPLICIT, 1, 2, false, (*CPU).dex)
	set(0x88, "DEY", IMPLICIT, 1, 2, false, (*CPU).dey)

	set(0x49, "EOR", IMMEDIATE, 2, 2, false, (*CPU).eor)
	set(0x45, "EOR", ZERO_PAGE, 2, 3, false, (*CPU).eor)
	set(0x55, "EOR", ZERO_PAGE_X, 2, 4, false, (*CPU).eor)
	set(0x4D, "EOR", ABSOLUTE, 3, 4, false, (*CPU).eor)
	set(0x5D, "EOR", ABSOLUTE_X, 3, 4, true, (*CPU).eor)
	set(0x59, "EOR", ABSOLUTE_Y, 3, 4, true, (*CPU).eor)
	set(0x41, "EOR", INDIRECT_X, 2, 6, false, (*CPU).eor)
	set(0x51, "EOR", INDIRECT_Y, 2, 5, true, (*CPU).eor)

	set(0xE6, "INC", ZERO_PAGE, 2, 5, false, (*CPU).inc)
	set(0xF6, "INC", ZERO_PAGE_X, 2, 6, false, (*CPU).inc)
	set(0xEE, "INC", ABSOLUTE, 3, 6, false, (*CPU).inc)
	set(0xFE, "INC", ABSOLUTE_X, 3, 7, false, (*CPU).inc)

	set(0xE8, "INX", IMPLICIT, 1, 2, false, (*CPU).inx)
	set(0xC8, "INY", IMPLICIT, 1, 2, false, (*CPU).iny)

	set(0x4C, "JMP", ABSOLUTE, 3, 3, false, (*CPU).jmp)
	set(0x6C, "JMP", INDIRECT, 3, 5, false, (*CPU).jmp)
	set(0x20, "JSR", ABSOLUTE, 3, 6, false, (*CPU).jsr)

	set(0xA9, "LDA", IMMEDIATE, 2, 2, false, (*CPU).lda)
	set(0xA5, "LDA", ZERO_PAGE, 2, 3, false, (*CPU).lda)
	set(0xB5, "LDA", ZERO_PAGE_X, 2, 4, false, (*CPU).lda)
	set(0xAD, "LDA", ABSOLUTE, 3, 4, false, (*CPU).lda)
	set(0xBD, "LDA", ABSOLUTE_X, 3, 4, true, (*CPU).lda)
	set(0xB9, "LDA", ABSOLUTE_Y, 3, 4, true, (*CPU).lda)
	set(0xA1, "LDA", INDIRECT_X, 2, 6, false, (*CPU).lda)
	set(0xB1, "LDA", INDIRECT_Y, 2, 5, true, (*CPU).lda)

	set(0xA2, "LDX", IMMEDIATE, 2, 2, false, (*CPU).ldx)
	set(0xA6, "LDX", ZERO_PAGE, 2, 3, false, (*CPU).ldx)
	set(0xB6, "LDX", ZERO_PAGE_Y, 2, 4, false, (*CPU).ldx)
	set(0xAE, "LDX", ABSOLUTE, 3, 4, false, (*CPU).ldx)
	set(0xBE, "LDX", ABSOLUTE_Y, 3, 4, true, (*CPU).ldx)

	set(0xA0, "LDY", IMMEDIATE, 2, 2, false, (*CPU).ldy)
	set(0xA4, "LDY", ZERO_PAGE, 2, 3, false, (*CPU).ldy)
	set(0xB4, "LDY", ZERO_PAGE_X, 2, 4, false, (*CPU).ldy)
	set(0xAC, "LDY", ABSOLUTE, 3, 4, false, (*CPU).ldy)
	set(0xBC, "LDY", ABSOLUTE_X, 3, 4, true, (*CPU).ldy)

	set(0x4A, "LSR", ACCUMULATOR, 1, 2, false, (*CPU).lsr)
	set(0x46, "LSR", ZERO_PAGE, 2, 5, false, (*CPU).lsr)
	set(0x56, "LSR", ZERO_PAGE_X, 2, 6, false, (*CPU).lsr)
	set(0x4E, "LSR", ABSOLUTE, 3, 6, false, (*CPU).lsr)
	set(0x5E, "LSR", ABSOLUTE_X, 3, 7, false, (*CPU).lsr)

	set(0xEA, "NOP", IMPLICIT, 1, 2, false, (*CPU).nop)

	set(0x09, "ORA", IMMEDIATE, 2, 2, false, (*CPU).ora)
	set(0x05, "ORA", ZERO_PAGE, 2, 3, false, (*CPU).ora)
	set(0x15, "ORA", ZERO_PAGE_X, 2, 4, false, (*CPU).ora)
	set(0x0D, "ORA", ABSOLUTE, 3, 4, false, (*CPU).ora)
	set(0x1D, "ORA", ABSOLUTE_X, 3, 4, true, (*CPU).ora)
	set(0x19, "ORA", ABSOLUTE_Y, 3, 4, true, (*CPU).ora)
	set(0x01, "ORA", INDIRECT_X, 2, 6, false, (*CPU).ora)
	set(0x11, "ORA", INDIRECT_Y, 2, 5, true, (*CPU).ora)

	set(0x48, "PHA", IMPLICIT, 1, 3, false, (*CPU).pha)
	set(0x08, "PHP", IMPLICIT, 1, 3, false, (*CPU).php)
	set(0x68, "PLA", IMPLICIT, 1, 4, false, (*CPU).pla)
	set(0x28, "PLP", IMPLICIT, 1, 4, false, (*CPU).plp)

	set(0x2A, "ROL", ACCUMULATOR, 1, 2, false, (*CPU).rol)
	set(0x26, "ROL", ZERO_PAGE, 2, 5, false, (*CPU).rol)
	set(0x36, "ROL", ZERO_PAGE_X, 2, 6, false, (*CPU).rol)
	set(0x2E, "ROL", ABSOLUTE, 3, 6, false, (*CPU).rol)
	set(0x3E, "ROL", ABSOLUTE_X, 3, 7, false, (*CPU).rol)

	set(0x6A, "ROR", ACCUMULATOR, 1, 2, false, (*CPU).ror)
	set(0x66, "ROR", ZERO_PAGE, 2, 5, false, (*CPU).ror)
	set(0x76, "ROR", ZERO_PAGE_X, 2, 6, false, (*CPU).ror)
	set(0x6E, "ROR", ABSOLUTE, 3, 6, false, (*CPU).ror)
	set(0x7E, "ROR", ABSOLUTE_X, 3, 7, false, (*CPU).ror)

	set(0x40, "RTI", IMPLICIT, 1, 6, false, (*CPU).rti)
	set(0x60, "RTS", IMPLICIT, 1, 6, false, (*CPU).rts)

	set(0xE9, "SBC", IMMEDIATE, 2, 2, false, (*CPU).sbc)
	set(0xE5, "SBC", ZERO_PAGE, 2, 3, false, (*CPU).sbc)
	set(0xF5, "SBC", ZERO_PAGE_X, 2, 4, false, (*CPU).sbc)
	set(0xED, "SBC", ABSOLUTE, 3, 4, false, (*CPU).sbc)
	set(0xFD, "SBC", ABSOLUTE_X, 3, 4, true, (*CPU).sbc)
	set(0xF9, "SBC", ABSOLUTE_Y, 3, 4, true, (*CPU).sbc)
	set(0xE1, "SBC", INDIRECT_X, 2, 6, false, (*CPU).sbc)
	set(0xF1, "SBC", INDIRECT_Y, 2, 5, true, (*CPU).sbc)

	set(0x38, "SEC", IMPLICIT, 1, 2, false, (*CPU).sec)
	set(0xF8, "SED", IMPLICIT, 1, 2, false, (*CPU).sed)
	set(0x78, "SEI", IMPLICIT, 1, 2, false, (*CPU).sei)

	set(0x85, "STA", ZERO_PAGE, 2, 3, false, (*CPU).sta)
	set(0x95, "STA", ZERO_PAGE_X, 2, 4, false, (*CPU).sta)
	set(0x8D, "STA", ABSOLUTE, 3, 4, false, (*CPU).sta)
	set(0x9D, "STA", ABSOLUTE_X, 3, 5, false, (*CPU).sta)
	set(0x99, "STA", ABSOLUTE_Y, 3, 5, false, (*CPU).sta)
	set(0x81, "STA", INDIRECT_X, 2, 6, false, (*CPU).sta)
	set(0x91, "STA", INDIRECT_Y, 2, 6, false, (*CPU).sta)

	set(0x86, "STX", ZERO_PAGE, 2, 3, false, (*CPU).stx)
	set(0x96, "STX", ZERO_PAGE_Y, 2, 4, false, (*CPU).stx)
	set(0x8E, "STX", ABSOLUTE, 3, 4, false, (*CPU).stx)

	set(0x84, "STY", ZERO_PAGE, 2, 3, false, (*CPU).sty)
	set(0x94, "STY", ZERO_PAGE_X, 2, 4, false, (*CPU).sty)
	set(0x8C, "STY", ABSOLUTE, 3, 4, false, (*CPU).sty)

	set(0xAA, "TAX", IMPLICIT, 1, 2, false, (*CPU).tax)
	set(0xA8, "TAY", IMPLICIT, 1, 2, false, (*CPU).tay)
	set(0xBA, "TSX", IMPLICIT, 1, 2, false, (*CPU).tsx)
	set(0x8A, "TXA", IMPLICIT, 1, 2, false, (*CPU).txa)
	set(0x9A, "TXS", IMPLICIT, 1, 2, false, (*CPU).txs)
	set(0x98, "TYA", IMPLICIT, 1, 2, false, (*CPU).tya)

	return t
}

// addWithOverflow adds b to the accumulator, handling carry-in, carry-out
// and overflow exactly as the real ALU does (binary mode only; the NES
// 6502 lacks working decimal mode and the CORE doesn't model it).
func (c *CPU) addWithOverflow(b uint8) {
	sum := uint16(c.acc) + uint16(b) + uint16(c.status&STATUS_FLAG_CARRY)
	res := uint8(sum)

	c.flagsOff(STATUS_FLAG_CARRY | STATUS_FLAG_OVERFLOW)
	if sum&0x100 != 0 {
		c.flagsOn(STATUS_FLAG_CARRY)
	}
	if (c.acc^res)&(b^res)&0x80 != 0 {
		c.flagsOn(STATUS_FLAG_OVERFLOW)
	}

	c.acc = res
	c.setNegativeAndZeroFlags(c.acc)
}

// baseCMP implements CMP/CPX/CPY: set carry when a >= b (unsigned), and
// Z/N from the subtraction a - b.
func (c *CPU) baseCMP(a, b uint8) {
	c.setNegativeAndZeroFlags(a - b)
	if a >= b {
		c.flagsOn(STATUS_FLAG_CARRY)
	} else {
		c.flagsOff(STATUS_FLAG_CARRY)
	}
}

// branchIf takes the branch when cond holds, to the address Step already
// resolved into curAddr. curCrossed only costs a cycle when the branch
// is actually taken.
func (c *CPU) branchIf(cond bool) {
	if !cond {
		return
	}
	c.extraCycles++
	if c.curCrossed {
		c.extraCycles++
	}
	c.pc = c.curAddr
}

func (c *CPU) adc(uint8) {
	c.addWithOverflow(c.read(c.curAddr))
}

func (c *CPU) and(uint8) {
	c.acc &= c.read(c.curAddr)
	c.setNegativeAndZeroFlags(c.acc)
}

func (c *CPU) asl(mode uint8) {
	if mode == ACCUMULATOR {
		ov := c.acc
		c.acc <<= 1
		c.flagsOff(STATUS_FLAG_CARRY)
		if ov&0x80 != 0 {
			c.flagsOn(STATUS_FLAG_CARRY)
		}
		c.setNegativeAndZeroFlags(c.acc)
		return
	}
	ov := c.read(c.curAddr)
	nv := ov << 1
	c.write(c.curAddr, nv)
	c.flagsOff(STATUS_FLAG_CARRY)
	if ov&0x80 != 0 {
		c.flagsOn(STATUS_FLAG_CARRY)
	}
	c.setNegativeAndZeroFlags(nv)
}

func (c *CPU) bcc(uint8) { c.branchIf(c.status&STATUS_FLAG_CARRY == 0) }
func (c *CPU) bcs(uint8) { c.branchIf(c.status&STATUS_FLAG_CARRY != 0) }
func (c *CPU) beq(uint8) { c.branchIf(c.status&STATUS_FLAG_ZERO != 0) }
func (c *CPU) bmi(uint8) { c.branchIf(c.status&STATUS_FLAG_NEGATIVE != 0) }
func (c *CPU) bne(uint8) { c.branchIf(c.status&STATUS_FLAG_ZERO == 0) }
func (c *CPU) bpl(uint8) { c.branchIf(c.status&STATUS_FLAG_NEGATIVE == 0) }
func (c *CPU) bvc(uint8) { c.branchIf(c.status&STATUS_FLAG_OVERFLOW == 0) }
func (c *CPU) bvs(uint8) { c.branchIf(c.status&STATUS_FLAG_OVERFLOW != 0) }

func (c *CPU) bit(uint8) {
	o := c.read(c.curAddr)
	c.flagsOff(STATUS_FLAG_NEGATIVE | STATUS_FLAG_OVERFLOW | STATUS_FLAG_ZERO)
	if o&c.acc == 0 {
		c.flagsOn(STATUS_FLAG_ZERO)
	}
	c.flagsOn(o & (STATUS_FLAG_NEGATIVE | STATUS_FLAG_OVERFLOW))
}

// brk implements the software interrupt: skip the padding byte, push
// PC and status with both B and the unused bit set, disable further
// IRQs, and vector through the same address as a hardware IRQ.
func (c *CPU) brk(uint8) {
	c.pc++
	c.pushAddress(c.pc)
	c.pushStack(c.status | STATUS_FLAG_BREAK | UNUSED_STATUS_FLAG)
	c.flagsOn(STATUS_FLAG_INTERRUPT_DISABLE)
	c.pc = c.read16(vectorIRQ)
}

func (c *CPU) clc(uint8) { c.flagsOff(STATUS_FLAG_CARRY) }
func (c *CPU) cld(uint8) { c.flagsOff(STATUS_FLAG_DECIMAL) }
func (c *CPU) cli(uint8) { c.flagsOff(STATUS_FLAG_INTERRUPT_DISABLE) }
func (c *CPU) clv(uint8) { c.flagsOff(STATUS_FLAG_OVERFLOW) }

func (c *CPU) cmp(uint8) { c.baseCMP(c.acc, c.read(c.curAddr)) }
func (c *CPU) cpx(uint8) { c.baseCMP(c.x, c.read(c.curAddr)) }
func (c *CPU) cpy(uint8) { c.baseCMP(c.y, c.read(c.curAddr)) }

func (c *CPU) dec(uint8) {
	v := c.read(c.curAddr) - 1
	c.write(c.curAddr, v)
	c.setNegativeAndZeroFlags(v)
}
func (c *CPU) dex(uint8) { c.x--; c.setNegativeAndZeroFlags(c.x) }
func (c *CPU) dey(uint8) { c.y--; c.setNegativeAndZeroFlags(c.y) }

func (c *CPU) eor(uint8) {
	c.acc ^= c.read(c.curAddr)
	c.setNegativeAndZeroFlags(c.acc)
}

func (c *CPU) inc(uint8) {
	v := c.read(c.curAddr) + 1
	c.write(c.curAddr, v)
	c.setNegativeAndZeroFlags(v)
}
func (c *CPU) inx(uint8) { c.x++; c.setNegativeAndZeroFlags(c.x) }
func (c *CPU) iny(uint8) { c.y++; c.setNegativeAndZeroFlags(c.y) }

func (c *CPU) jmp(uint8) { c.pc = c.curAddr }

func (c *CPU) jsr(uint8) {
	// c.pc currently points at the low byte of the target address;
	// +1 is its high byte, which is (return address - 1), exactly
	// what RTS expects to pop and increment.
	c.pushAddress(c.pc + 1)
	c.pc = c.curAddr
}

func (c *CPU) lda(uint8) {
	c.acc = c.read(c.curAddr)
	c.setNegativeAndZeroFlags(c.acc)
}
func (c *CPU) ldx(uint8) {
	c.x = c.read(c.curAddr)
	c.setNegativeAndZeroFlags(c.x)
}
func (c *CPU) ldy(uint8) {
	c.y = c.read(c.curAddr)
	c.setNegativeAndZeroFlags(c.y)
}

func (c *CPU) lsr(mode uint8) {
	if mode == ACCUMULATOR {
		ov := c.acc
		c.acc >>= 1
		c.flagsOff(STATUS_FLAG_CARRY)
		if ov&0x01 != 0 {
			c.flagsOn(STATUS_FLAG_CARRY)
		}
		c.setNegativeAndZeroFlags(c.acc)
		return
	}
	ov := c.read(c.curAddr)
	nv := ov >> 1
	c.write(c.curAddr, nv)
	c.flagsOff(STATUS_FLAG_CARRY)
	if ov&0x01 != 0 {
		c.flagsOn(STATUS_FLAG_CARRY)
	}
	c.setNegativeAndZeroFlags(nv)
}

func (c *CPU) nop(uint8) {}

func (c *CPU) ora(uint8) {
	c.acc |= c.read(c.curAddr)
	c.setNegativeAndZeroFlags(c.acc)
}

func (c *CPU) pha(uint8) { c.pushStack(c.acc) }

// php always pushes the status byte with both B and the unused bit set,
// regardless of their current value in c.status.
func (c *CPU) php(uint8) {
	c.pushStack(c.status | STATUS_FLAG_BREAK | UNUSED_STATUS_FLAG)
}
func (c *CPU) pla(uint8) {
	c.acc = c.popStack()
	c.setNegativeAndZeroFlags(c.acc)
}

// plp pulls status but forces B clear and the unused bit set: those two
// bits only ever exist on the stack, never in the live status register.
func (c *CPU) plp(uint8) {
	c.status = (c.popStack() &^ STATUS_FLAG_BREAK) | UNUSED_STATUS_FLAG
}

func (c *CPU) rol(mode uint8) {
	if mode == ACCUMULATOR {
		ov := c.acc
		c.acc = bits.RotateLeft8(ov, 1)&^STATUS_FLAG_CARRY | (c.status & STATUS_FLAG_CARRY)
		c.flagsOff(STATUS_FLAG_CARRY)
		if ov&0x80 != 0 {
			c.flagsOn(STATUS_FLAG_CARRY)
		}
		c.setNegativeAndZeroFlags(c.acc)
		return
	}
	ov := c.read(c.curAddr)
	nv := bits.RotateLeft8(ov, 1)&^STATUS_FLAG_CARRY | (c.status & STATUS_FLAG_CARRY)
	c.write(c.curAddr, nv)
	c.flagsOff(STATUS_FLAG_CARRY)
	if ov&0x80 != 0 {
		c.flagsOn(STATUS_FLAG_CARRY)
	}
	c.setNegativeAndZeroFlags(nv)
}

func (c *CPU) ror(mode uint8) {
	if mode == ACCUMULATOR {
		ov := c.acc
		c.acc = bits.RotateLeft8(ov, -1)&^0x80 | ((c.status & STATUS_FLAG_CARRY) << 7)
		c.flagsOff(STATUS_FLAG_CARRY)
		if ov&0x01 != 0 {
			c.flagsOn(STATUS_FLAG_CARRY)
		}
		c.setNegativeAndZeroFlags(c.acc)
		return
	}
	ov := c.read(c.curAddr)
	nv := bits.RotateLeft8(ov, -1)&^0x80 | ((c.status & STATUS_FLAG_CARRY) << 7)
	c.write(c.curAddr, nv)
	c.flagsOff(STATUS_FLAG_CARRY)
	if ov&0x01 != 0 {
		c.flagsOn(STATUS_FLAG_CARRY)
	}
	c.setNegativeAndZeroFlags(nv)
}

// rti pulls status (forcing B clear, unused set) then PC, with no +1
// applied to the popped PC (unlike RTS, the pushed value was the exact
// address to resume at, not address-minus-one).
func (c *CPU) rti(uint8) {
	c.status = (c.popStack() &^ STATUS_FLAG_BREAK) | UNUSED_STATUS_FLAG
	c.pc = c.popAddress()
}

func (c *CPU) rts(uint8) {
	c.pc = c.popAddress() + 1
}

func (c *CPU) sbc(uint8) {
	c.addWithOverflow(^c.read(c.curAddr))
}

func (c *CPU) sec(uint8) { c.flagsOn(STATUS_FLAG_CARRY) }
func (c *CPU) sed(uint8) { c.flagsOn(STATUS_FLAG_DECIMAL) }
func (c *CPU) sei(uint8) { c.flagsOn(STATUS_FLAG_INTERRUPT_DISABLE) }

func (c *CPU) sta(uint8) { c.write(c.curAddr, c.acc) }
func (c *CPU) stx(uint8) { c.write(c.curAddr, c.x) }
func (c *CPU) sty(uint8) { c.write(c.curAddr, c.y) }

func (c *CPU) tax(uint8) { c.x = c.acc; c.setNegativeAndZeroFlags(c.x) }
func (c *CPU) tay(uint8) { c.y = c.acc; c.setNegativeAndZeroFlags(c.y) }
func (c *CPU) tsx(uint8) { c.x = c.sp; c.setNegativeAndZeroFlags(c.x) }
func (c *CPU) txa(uint8) { c.acc = c.x; c.setNegativeAndZeroFlags(c.acc) }
func (c *CPU) txs(uint8) { c.sp = c.x }
func (c *CPU) tya(uint8) { c.acc = c.y; c.setNegativeAndZeroFlags(c.acc) }
