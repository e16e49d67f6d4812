package cpu

import (
	"fmt"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// execTrap enters the TRAP #n vector, except #15 which — when a host
// hook is registered — calls it directly with the data register file
// and returns without ever entering supervisor mode or touching the
// stack, per §4.5/§4.7.
func (c *CPU) execTrap(mem *memory.Memory) {
	n := uint(c.opcode & 0xF)
	c.trace.opSrc(fmt.Sprintf("#%d", n))
	if n == 15 && c.trap15 != nil {
		c.trap15.Trap15(&c.d, mem)
		return
	}
	c.raiseTrap(mem, n)
}

// execTrapv raises the TRAPV vector iff V is set.
func (c *CPU) execTrapv(mem *memory.Memory) {
	if c.flag(srV) {
		c.raiseTRAPV(mem)
	}
}

// execChk tests Dn as a signed word against the source bound: out of
// [0, src] raises the CHK vector.
func (c *CPU) execChk(mem *memory.Memory) {
	reg := (c.opcode >> 9) & 7
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 2, false)
	bound := int16(c.readSized(mem, loc, 2))
	value := int16(c.d[reg])
	c.trace.opSrc(loc.text(2))
	c.trace.opDst(dregText(reg))

	c.setFlag(srZ, value == 0)
	c.setFlag(srN, value < 0)
	if value < 0 || value > bound {
		c.raiseCHK(mem)
	}
}

// execReset is a privileged no-op here: this interpreter does not
// model attached peripherals for RESET to actually reset.
func (c *CPU) execReset(mem *memory.Memory) {
	c.checkPrivileged(mem)
}

// execNop does nothing.
func (c *CPU) execNop() {}

// execStop loads the given status word (privileged) then rewinds PC
// by the instruction width so the dispatcher re-encounters STOP every
// step until the host breaks in, per §5's trivial interrupt model.
func (c *CPU) execStop(mem *memory.Memory) {
	c.checkPrivileged(mem)
	sr := c.fetchWord(mem)
	c.trace.opSrc(fmt.Sprintf("#$%04x", sr))
	c.SetSR(sr)
	c.pc -= 4
}

// execMoveToCCR/execMoveToSR/execMoveFromSR implement the CCR/SR move
// family. MOVE to CCR (and ANDI/ORI/EORI #imm,CCR) is available in
// user mode; SR moves are privileged. MOVE from CCR is an MC68010+
// instruction and is out of scope.
func (c *CPU) execMoveToCCR(mem *memory.Memory) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 2, false)
	v := c.readSized(mem, loc, 2)
	c.sr = (c.sr &^ ccrMask) | (uint16(v) & ccrMask)
	c.trace.opSrc(loc.text(2))
	c.trace.opDst("CCR")
}

func (c *CPU) execMoveToSR(mem *memory.Memory) {
	c.checkPrivileged(mem)
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 2, false)
	v := c.readSized(mem, loc, 2)
	c.SetSR(uint16(v))
	c.trace.opSrc(loc.text(2))
	c.trace.opDst("SR")
}

func (c *CPU) execMoveFromSR(mem *memory.Memory) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 2, true)
	c.writeSized(mem, loc, 2, uint32(c.sr))
	c.trace.opSrc("SR")
	c.trace.opDst(loc.text(2))
}

// execMoveToUSP/execMoveFromUSP: both directions are privileged, per
// the Open Question resolution in DESIGN.md, checked before either
// register is touched.
func (c *CPU) execMoveToUSP(mem *memory.Memory) {
	c.checkPrivileged(mem)
	reg := c.opcode & 7
	c.a[sp] = c.A(int(reg))
	c.trace.opSrc(aregText(reg))
	c.trace.opDst("USP")
}

func (c *CPU) execMoveFromUSP(mem *memory.Memory) {
	c.checkPrivileged(mem)
	reg := c.opcode & 7
	c.SetA(int(reg), c.a[sp])
	c.trace.opSrc("USP")
	c.trace.opDst(aregText(reg))
}

// execLink saves An on the stack, sets An to the new stack pointer,
// then reserves disp bytes of local storage.
func (c *CPU) execLink(mem *memory.Memory) {
	reg := c.opcode & 7
	disp := int16(c.fetchWord(mem))

	addr := c.A(sp) - 4
	c.SetA(sp, addr)
	c.mustWriteLong(mem, addr, c.A(int(reg)), false)
	c.SetA(int(reg), addr)
	c.SetA(sp, uint32(int32(addr)+int32(disp)))
	c.trace.opSrc(aregText(reg))
	c.trace.opDst(fmt.Sprintf("#$%04x", uint16(disp)))
}

// execUnlk restores the stack pointer and An from the frame LINK set up.
func (c *CPU) execUnlk(mem *memory.Memory) {
	reg := c.opcode & 7
	addr := c.A(int(reg))
	v := c.mustReadLong(mem, addr, false)
	c.SetA(sp, addr+4)
	c.SetA(int(reg), v)
	c.trace.opDst(aregText(reg))
}

// execImmediateALU implements ORI/ANDI/SUBI/ADDI/EORI/CMPI: fetch an
// immediate of the given width, apply op against the destination
// effective address, and write back (CMPI never writes back).
type immediateOp int

const (
	immOR immediateOp = iota
	immAND
	immSUB
	immADD
	immEOR
	immCMP
)

func (c *CPU) execImmediateALU(mem *memory.Memory, op immediateOp, width int) {
	var imm uint32
	if width == 1 {
		imm = uint32(c.fetchWord(mem)) & 0xFF
	} else if width == 2 {
		imm = uint32(c.fetchWord(mem))
	} else {
		hi := uint32(c.fetchWord(mem))
		lo := uint32(c.fetchWord(mem))
		imm = hi<<16 | lo
	}

	eaField := c.opcode & 0x3F
	c.trace.opSrc(fmt.Sprintf("#$%0*x", width*2, imm&widthMask(width)))

	// ANDI/ORI/EORI #imm,CCR or SR use the same top-level opcodes with
	// eaField == 111100 (immediate) and size byte/word; route those to
	// the CCR/SR-specific semantics instead of a normal EA write.
	if eaField == 0x3C {
		c.immediateToStatus(mem, op, width, imm)
		return
	}

	loc := c.resolveEA(mem, eaField, width, op != immCMP)
	dst := c.readSized(mem, loc, width)
	c.trace.opDst(loc.text(width))

	switch op {
	case immOR:
		c.writeSized(mem, loc, width, c.or(dst, imm, width))
	case immAND:
		c.writeSized(mem, loc, width, c.and(dst, imm, width))
	case immEOR:
		c.writeSized(mem, loc, width, c.eor(dst, imm, width))
	case immADD:
		c.writeSized(mem, loc, width, c.add(dst, imm, width))
	case immSUB:
		c.writeSized(mem, loc, width, c.sub(dst, imm, width))
	case immCMP:
		c.cmp(dst, imm, width)
	}
}

// immediateToStatus implements ANDI/ORI/EORI #imm,CCR (always legal)
// and #imm,SR (privileged), per testable-property 16's carve-out.
func (c *CPU) immediateToStatus(mem *memory.Memory, op immediateOp, width int, imm uint32) {
	toSR := width == 2
	if toSR {
		c.checkPrivileged(mem)
	}
	mask := uint16(ccrMask)
	if toSR {
		mask = statusWritableMask
	}
	v := uint16(imm) & mask
	if toSR {
		c.trace.opDst("SR")
	} else {
		c.trace.opDst("CCR")
	}

	switch op {
	case immOR:
		c.sr |= v
	case immAND:
		c.sr = (c.sr &^ mask) | (c.sr & v)
	case immEOR:
		c.sr ^= v
	}
	c.sr &= statusWritableMask
}

// execMulu/execMuls multiply a word source by the low word of Dn,
// producing a 32-bit result. Only N and Z are meaningfully defined;
// V and C are always cleared.
func (c *CPU) execMulu(mem *memory.Memory) {
	reg := (c.opcode >> 9) & 7
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 2, false)
	src := uint32(c.readSized(mem, loc, 2))
	result := (c.d[reg] & 0xFFFF) * src
	c.d[reg] = result
	c.trace.opSrc(loc.text(2))
	c.trace.opDst(dregText(reg))
	c.setFlag(srN, signBit(result, 4))
	c.setFlag(srZ, result == 0)
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

func (c *CPU) execMuls(mem *memory.Memory) {
	reg := (c.opcode >> 9) & 7
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 2, false)
	src := int32(int16(c.readSized(mem, loc, 2)))
	result := int32(int16(c.d[reg])) * src
	c.d[reg] = uint32(result)
	c.trace.opSrc(loc.text(2))
	c.trace.opDst(dregText(reg))
	c.setFlag(srN, result < 0)
	c.setFlag(srZ, result == 0)
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

// execDivu/execDivs divide the 32-bit Dn by a word source. Division
// by zero raises the divide-by-zero exception without altering the
// destination; a quotient that overflows 16 bits (unsigned) or the
// signed 16-bit range leaves the destination unchanged too, setting
// N=1 Z=0 V=1 C=0 per testable-property 15.
func (c *CPU) execDivu(mem *memory.Memory) {
	reg := (c.opcode >> 9) & 7
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 2, false)
	divisor := uint32(c.readSized(mem, loc, 2))
	c.trace.opSrc(loc.text(2))
	c.trace.opDst(dregText(reg))

	if divisor == 0 {
		c.raiseDivideByZero(mem)
		return
	}

	dividend := c.d[reg]
	quotient := dividend / divisor
	remainder := dividend % divisor

	if quotient > 0xFFFF {
		c.setFlag(srN, true)
		c.setFlag(srZ, false)
		c.setFlag(srV, true)
		c.setFlag(srC, false)
		return
	}

	c.d[reg] = (remainder << 16) | (quotient & 0xFFFF)
	c.setFlag(srN, quotient&0x8000 != 0)
	c.setFlag(srZ, quotient == 0)
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

func (c *CPU) execDivs(mem *memory.Memory) {
	reg := (c.opcode >> 9) & 7
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 2, false)
	divisor := int32(int16(c.readSized(mem, loc, 2)))
	c.trace.opSrc(loc.text(2))
	c.trace.opDst(dregText(reg))

	if divisor == 0 {
		c.raiseDivideByZero(mem)
		return
	}

	dividend := int32(c.d[reg])
	quotient := dividend / divisor
	remainder := dividend % divisor

	if quotient > 32767 || quotient < -32768 {
		c.setFlag(srN, true)
		c.setFlag(srZ, false)
		c.setFlag(srV, true)
		c.setFlag(srC, false)
		return
	}

	c.d[reg] = uint32(remainder)<<16 | (uint32(quotient) & 0xFFFF)
	c.setFlag(srN, quotient < 0)
	c.setFlag(srZ, quotient == 0)
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

// bitOp implements BTST/BCHG/BCLR/BSET: the bit number is mod 32 for
// a data-register destination, mod 8 for a memory destination. BTST
// only tests; the others also mutate.
type bitOp int

const (
	bitTST bitOp = iota
	bitCHG
	bitCLR
	bitSET
)

func (c *CPU) execBitOp(mem *memory.Memory, op bitOp, bitNum uint32) {
	eaField := c.opcode & 0x3F
	width := 4
	if (eaField>>3)&7 != modeDataReg {
		width = 1
	}
	bitNum %= uint32(width * 8)

	loc := c.resolveEA(mem, eaField, width, op != bitTST)
	v := c.readSized(mem, loc, width)
	bit := (v>>bitNum)&1 != 0
	c.setFlag(srZ, !bit)
	c.trace.opSrc(fmt.Sprintf("#%d", bitNum))
	c.trace.opDst(loc.text(width))

	switch op {
	case bitTST:
		return
	case bitCHG:
		v ^= 1 << bitNum
	case bitCLR:
		v &^= 1 << bitNum
	case bitSET:
		v |= 1 << bitNum
	}
	c.writeSized(mem, loc, width, v)
}
