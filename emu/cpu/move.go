package cpu

import (
	"fmt"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// sizeField2 decodes the common 2-bit size encoding used by the
// immediate-ALU and shift/rotate groups: 00=byte, 01=word, 10=long.
func sizeField2(bits uint16) int {
	switch bits {
	case 0:
		return 1
	case 1:
		return 2
	default:
		return 4
	}
}

// execMove implements MOVE/MOVEA for the given width: read the
// source, write the destination, and (for plain MOVE, not MOVEA) set
// N/Z from the result while clearing V and C.
func (c *CPU) execMove(mem *memory.Memory, width int, isMovea bool) {
	srcField := c.opcode & 0x3F
	dstReg := (c.opcode >> 9) & 7
	dstMode := (c.opcode >> 6) & 7
	dstField := dstMode<<3 | dstReg

	src := c.resolveEA(mem, srcField, width, false)
	v := c.readSized(mem, src, width)
	c.trace.opSrc(src.text(width))

	if isMovea {
		dst := AddrReg(uint32(dstReg))
		c.writeSized(mem, dst, width, v)
		c.trace.opDst(dst.text(width))
		return
	}

	dst := c.resolveEA(mem, dstField, width, true)
	c.writeSized(mem, dst, width, v)
	c.trace.opDst(dst.text(width))

	c.setFlag(srN, signBit(v, width))
	c.setFlag(srZ, isZero(v, width))
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

// execMoveq sign-extends an 8-bit immediate into Dn.
func (c *CPU) execMoveq() {
	reg := (c.opcode >> 9) & 7
	imm := int32(int8(c.opcode & 0xFF))
	c.d[reg] = uint32(imm)
	c.trace.opSrc(fmt.Sprintf("#$%02x", uint8(imm)))
	c.trace.opDst(dregText(reg))
	c.setFlag(srN, imm < 0)
	c.setFlag(srZ, imm == 0)
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

// execLea loads an effective address (never dereferenced) into An.
func (c *CPU) execLea(mem *memory.Memory) {
	reg := (c.opcode >> 9) & 7
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 4, false)
	if loc.kind != locMemory {
		c.raiseIllegal(mem)
		return
	}
	c.SetA(int(reg), loc.Address())
	c.trace.opSrc(loc.text(4))
	c.trace.opDst(aregText(reg))
}

// execPea pushes an effective address onto the stack.
func (c *CPU) execPea(mem *memory.Memory) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 4, false)
	if loc.kind != locMemory {
		c.raiseIllegal(mem)
		return
	}
	addr := c.A(sp) - 4
	c.SetA(sp, addr)
	c.mustWriteLong(mem, addr, loc.Address(), false)
	c.trace.opSrc(loc.text(4))
}

// execSwap exchanges the two 16-bit halves of Dn.
func (c *CPU) execSwap() {
	reg := c.opcode & 7
	v := c.d[reg]
	v = (v << 16) | (v >> 16)
	c.d[reg] = v
	c.trace.opDst(dregText(reg))
	c.setFlag(srN, signBit(v, 4))
	c.setFlag(srZ, isZero(v, 4))
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

// execExt sign-extends Dn: byte-to-word when opmode bit 6 is clear,
// word-to-long when set.
func (c *CPU) execExt() {
	reg := c.opcode & 7
	toLong := c.opcode&0x40 != 0
	if toLong {
		c.d[reg] = uint32(int32(int16(c.d[reg])))
	} else {
		c.d[reg] = (c.d[reg] &^ 0xFFFF) | uint32(uint16(int16(int8(c.d[reg]))))
	}
	width := 2
	if toLong {
		width = 4
	}
	c.trace.opDst(dregText(reg))
	c.setFlag(srN, signBit(c.d[reg], width))
	c.setFlag(srZ, isZero(c.d[reg], width))
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

// execClr zeroes an operand and sets N=0 Z=1 V=0 C=0.
func (c *CPU) execClr(mem *memory.Memory, width int) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, width, true)
	c.writeSized(mem, loc, width, 0)
	c.trace.opDst(loc.text(width))
	c.setFlag(srN, false)
	c.setFlag(srZ, true)
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

// execTst sets N/Z/V/C from an operand without modifying it.
func (c *CPU) execTst(mem *memory.Memory, width int) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, width, false)
	v := c.readSized(mem, loc, width)
	c.trace.opDst(loc.text(width))
	c.setFlag(srN, signBit(v, width))
	c.setFlag(srZ, isZero(v, width))
	c.setFlag(srV, false)
	c.setFlag(srC, false)
}

// execTas sets N/Z from a byte operand, then forces its top bit,
// leaving V and C clear. Real hardware performs this as a locked
// read-modify-write; this interpreter has no bus contention to model.
func (c *CPU) execTas(mem *memory.Memory) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 1, true)
	v := c.readSized(mem, loc, 1)
	c.setFlag(srN, signBit(v, 1))
	c.setFlag(srZ, isZero(v, 1))
	c.setFlag(srV, false)
	c.setFlag(srC, false)
	c.writeSized(mem, loc, 1, v|0x80)
	c.trace.opDst(loc.text(1))
}

// execExg exchanges two 32-bit registers: data/data, addr/addr, or
// data/addr depending on the opmode field.
func (c *CPU) execExg(mem *memory.Memory) {
	rx := (c.opcode >> 9) & 7
	ry := c.opcode & 7
	mode := (c.opcode >> 3) & 0x1F

	switch mode {
	case 0x08: // data/data
		c.d[rx], c.d[ry] = c.d[ry], c.d[rx]
		c.trace.opSrc(dregText(rx))
		c.trace.opDst(dregText(ry))
	case 0x09: // addr/addr
		ax, ay := c.A(int(rx)), c.A(int(ry))
		c.SetA(int(rx), ay)
		c.SetA(int(ry), ax)
		c.trace.opSrc(aregText(rx))
		c.trace.opDst(aregText(ry))
	case 0x11: // data/addr
		dv, av := c.d[rx], c.A(int(ry))
		c.d[rx] = av
		c.SetA(int(ry), dv)
		c.trace.opSrc(dregText(rx))
		c.trace.opDst(aregText(ry))
	default:
		c.raiseIllegal(mem)
	}
}

// movemList returns the register numbers selected by mask in D0..D7,
// A0..A7 order (the order MOVEM always steps through logically). The
// pre-decrement form does not use this list: execMovem walks the mask
// bits from 15 down to 0 itself.
func movemList(mask uint16) []int {
	var regs []int
	for i := 0; i < 16; i++ {
		if mask&(1<<uint(i)) != 0 {
			regs = append(regs, i)
		}
	}
	return regs
}

// regValue/setRegValue address the 16-register D0..D7,A0..A7 file by
// a single 0..15 index, the numbering MOVEM's mask uses.
func (c *CPU) regValue(n int) uint32 {
	if n < 8 {
		return c.d[n]
	}
	return c.A(n - 8)
}

func (c *CPU) setRegValue(n int, v uint32) {
	if n < 8 {
		c.d[n] = v
	} else {
		c.SetA(n-8, v)
	}
}

// execMovem implements MOVEM in both directions and both
// pre-decrement and post-increment memory forms, resolving the
// writeback-on-post-increment-only open question: only the
// post-increment memory-to-register read loop advances the address
// register, and the value written back is the address after the last
// element transferred.
func (c *CPU) execMovem(mem *memory.Memory, toMem bool, width int) {
	mask := c.fetchWord(mem)
	eaField := c.opcode & 0x3F
	mode := (eaField >> 3) & 7
	reg := int(eaField & 7)
	regListText := fmt.Sprintf("#$%04x", mask)
	if toMem {
		c.trace.opSrc(regListText)
	} else {
		c.trace.opDst(regListText)
	}

	if !toMem && mode == modeIndirectPreDec {
		c.raiseIllegal(mem)
		return
	}
	if toMem && mode == modeIndirectPostInc {
		c.raiseIllegal(mem)
		return
	}

	switch mode {
	case modeIndirectPreDec:
		addr := c.A(reg)
		// Pre-decrement register-to-memory direction walks the
		// register list in reverse bit order (A7..A0, D7..D0).
		for i := 15; i >= 0; i-- {
			if mask&(1<<uint(i)) == 0 {
				continue
			}
			addr -= uint32(width)
			v := c.regValue(i)
			if width == 2 {
				c.mustWriteWord(mem, addr, uint16(v), false)
			} else {
				c.mustWriteLong(mem, addr, v, false)
			}
		}
		c.SetA(reg, addr)
		c.trace.opDst(fmt.Sprintf("-(A%d)", reg))

	case modeIndirectPostInc:
		addr := c.A(reg)
		for _, i := range movemList(mask) {
			var v uint32
			if width == 2 {
				v = uint32(int32(int16(c.mustReadWord(mem, addr, false))))
			} else {
				v = c.mustReadLong(mem, addr, false)
			}
			c.setRegValue(i, v)
			addr += uint32(width)
		}
		c.SetA(reg, addr)
		c.trace.opSrc(fmt.Sprintf("(A%d)+", reg))

	default:
		loc := c.resolveEA(mem, eaField, width, toMem)
		if loc.kind != locMemory {
			c.raiseIllegal(mem)
			return
		}
		if toMem {
			c.trace.opDst(loc.text(width))
		} else {
			c.trace.opSrc(loc.text(width))
		}
		addr := loc.Address()
		if toMem {
			for _, i := range movemList(mask) {
				v := c.regValue(i)
				if width == 2 {
					c.mustWriteWord(mem, addr, uint16(v), false)
				} else {
					c.mustWriteLong(mem, addr, v, false)
				}
				addr += uint32(width)
			}
		} else {
			for _, i := range movemList(mask) {
				var v uint32
				if width == 2 {
					v = uint32(int32(int16(c.mustReadWord(mem, addr, false))))
				} else {
					v = c.mustReadLong(mem, addr, false)
				}
				c.setRegValue(i, v)
				addr += uint32(width)
			}
		}
	}
}

// execMovep transfers 2 or 4 bytes between Dn and alternating bytes
// of memory starting at (d16,An), high byte first.
func (c *CPU) execMovep(mem *memory.Memory) {
	dReg := (c.opcode >> 9) & 7
	aReg := c.opcode & 7
	toMem := c.opcode&0x80 != 0
	isLong := c.opcode&0x40 != 0

	disp := int16(c.fetchWord(mem))
	addr := c.A(int(aReg)) + uint32(int32(disp))

	n := 2
	if isLong {
		n = 4
	}
	addrText := fmt.Sprintf("($%04x,A%d)", uint16(disp), aReg)
	if toMem {
		v := c.d[dReg]
		for i := 0; i < n; i++ {
			shift := uint((n - 1 - i) * 8)
			mem.WriteByte(addr+uint32(i*2), byte(v>>shift))
		}
		c.trace.opSrc(dregText(dReg))
		c.trace.opDst(addrText)
	} else {
		var v uint32
		for i := 0; i < n; i++ {
			v = v<<8 | uint32(mem.ReadByte(addr+uint32(i*2)))
		}
		mask := widthMask(n)
		c.d[dReg] = (c.d[dReg] &^ mask) | (v & mask)
		c.trace.opSrc(addrText)
		c.trace.opDst(dregText(dReg))
	}
}
