package cpu

import (
	"fmt"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// condition evaluates one of the sixteen Bcc/DBcc/Scc test codes
// against the current CCR.
func (c *CPU) condition(code uint16) bool {
	n, z, v, cFlag := c.flag(srN), c.flag(srZ), c.flag(srV), c.flag(srC)
	switch code {
	case 0x0: // T
		return true
	case 0x1: // F
		return false
	case 0x2: // HI
		return !cFlag && !z
	case 0x3: // LS
		return cFlag || z
	case 0x4: // CC
		return !cFlag
	case 0x5: // CS
		return cFlag
	case 0x6: // NE
		return !z
	case 0x7: // EQ
		return z
	case 0x8: // VC
		return !v
	case 0x9: // VS
		return v
	case 0xA: // PL
		return !n
	case 0xB: // MI
		return n
	case 0xC: // GE
		return n == v
	case 0xD: // LT
		return n != v
	case 0xE: // GT
		return !z && n == v
	case 0xF: // LE
		return z || n != v
	}
	return false
}

// branchDisplacement fetches the branch target for Bcc/BRA/BSR/DBcc:
// an 8-bit displacement in the opcode, or — if that byte is zero — a
// 16-bit displacement word, PC-relative to the address right after
// that extension word.
func (c *CPU) branchDisplacement(mem *memory.Memory) uint32 {
	disp8 := int8(c.opcode & 0xFF)
	base := c.pc
	if disp8 == 0 {
		disp16 := int16(c.fetchWord(mem))
		return uint32(int32(c.pc) - 2 + int32(disp16))
	}
	return uint32(int32(base) + int32(disp8))
}

// execBcc implements the conditional-branch and BRA/BSR opcodes.
func (c *CPU) execBcc(mem *memory.Memory) {
	code := (c.opcode >> 8) & 0xF
	target := c.branchDisplacement(mem)
	c.trace.opDst(fmt.Sprintf("$%06x", target))

	if code == 1 { // BSR: unconditional, pushes return address
		if target%2 != 0 {
			c.pc = target
			addr := c.A(sp) - 4
			c.SetA(sp, addr)
			c.mustWriteLong(mem, addr, target, false)
			c.raiseAddressError(mem, target, false, true)
			return
		}
		addr := c.A(sp) - 4
		c.SetA(sp, addr)
		c.mustWriteLong(mem, addr, c.pc, false)
		c.pc = target
		return
	}

	taken := code == 0 || c.condition(code)
	if !taken {
		return
	}
	if target%2 != 0 {
		c.raiseAddressError(mem, target, false, true)
		return
	}
	c.pc = target
}

// execDbcc implements DBcc: if the condition is false, decrement the
// low word of Dn and loop (re-fetching the displacement) unless it
// has wrapped to -1.
func (c *CPU) execDbcc(mem *memory.Memory) {
	code := (c.opcode >> 8) & 0xF
	reg := c.opcode & 7

	disp16 := int16(c.fetchWord(mem))
	c.trace.opSrc(dregText(reg))

	if c.condition(code) {
		return
	}

	low := uint16(c.d[reg])
	low--
	c.d[reg] = (c.d[reg] &^ 0xFFFF) | uint32(low)

	if low == 0xFFFF {
		return
	}

	target := uint32(int32(c.pc) + int32(disp16) - 2)
	c.trace.opDst(fmt.Sprintf("$%06x", target))
	if target%2 != 0 {
		c.raiseAddressError(mem, target, false, true)
		return
	}
	c.pc = target
}

// execScc sets a byte operand to all-ones if the condition holds,
// all-zeros otherwise. It does not affect the flags.
func (c *CPU) execScc(mem *memory.Memory) {
	code := (c.opcode >> 8) & 0xF
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 1, true)
	if c.condition(code) {
		c.writeSized(mem, loc, 1, 0xFF)
	} else {
		c.writeSized(mem, loc, 1, 0x00)
	}
	c.trace.opDst(loc.text(1))
}

// execJmp transfers control to an effective address, which must be a
// memory operand (Dn/An encodings are illegal for JMP/JSR).
func (c *CPU) execJmp(mem *memory.Memory) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 4, false)
	if loc.kind != locMemory {
		c.raiseIllegal(mem)
		return
	}
	if loc.Address()%2 != 0 {
		c.raiseAddressError(mem, loc.Address(), false, loc.programSpace)
		return
	}
	c.trace.opDst(loc.text(4))
	c.pc = loc.Address()
}

// execJsr pushes the return address, then behaves like execJmp.
func (c *CPU) execJsr(mem *memory.Memory) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 4, false)
	if loc.kind != locMemory {
		c.raiseIllegal(mem)
		return
	}
	if loc.Address()%2 != 0 {
		c.raiseAddressError(mem, loc.Address(), false, loc.programSpace)
		return
	}
	addr := c.A(sp) - 4
	c.SetA(sp, addr)
	c.mustWriteLong(mem, addr, c.pc, false)
	c.trace.opDst(loc.text(4))
	c.pc = loc.Address()
}

// execRts pops the return address pushed by BSR/JSR.
func (c *CPU) execRts(mem *memory.Memory) {
	addr := c.A(sp)
	v := c.mustReadLong(mem, addr, false)
	c.SetA(sp, addr+4)
	c.pc = v
}
