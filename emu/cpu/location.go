package cpu

import (
	"fmt"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// locKind tags what kind of place an effective address names.
type locKind int

const (
	locNone locKind = iota
	locDataReg
	locAddrReg
	locMemory
	locImmediate
)

// Location is a resolved effective address: the result of decoding a
// mode:reg field (plus extension words) into something that can be
// read and written uniformly regardless of addressing mode.
type Location struct {
	kind         locKind
	n            uint32 // register number, or the immediate/memory value
	programSpace bool   // set for PC-relative memory operands
}

// DataReg names data register n.
func DataReg(n uint32) Location { return Location{kind: locDataReg, n: n} }

// AddrReg names address register n (routed through SSP by the CPU
// when n==7 and the processor is in supervisor mode).
func AddrReg(n uint32) Location { return Location{kind: locAddrReg, n: n} }

// Memory names a memory operand at the given 24-bit address.
func Memory(addr uint32, programSpace bool) Location {
	return Location{kind: locMemory, n: addr, programSpace: programSpace}
}

// Immediate names a value already fetched from the instruction stream.
func Immediate(v uint32) Location { return Location{kind: locImmediate, n: v} }

// IsAddrReg reports whether the location is an address register,
// which several instructions (ADDX family, overloaded op-modes) must
// distinguish from a general memory operand.
func (l Location) IsAddrReg() bool { return l.kind == locAddrReg }

// IsDataReg reports whether the location is a data register.
func (l Location) IsDataReg() bool { return l.kind == locDataReg }

// Address returns the memory address named by a memory location; only
// valid when the location is a memory operand.
func (l Location) Address() uint32 { return l.n }

// text renders a resolved location into the short operand form the
// trace ring's src/dst fields use, good enough to tell a register
// operand from a memory address or an immediate at a glance.
func (l Location) text(width int) string {
	switch l.kind {
	case locDataReg:
		return fmt.Sprintf("D%d", l.n)
	case locAddrReg:
		return fmt.Sprintf("A%d", l.n)
	case locImmediate:
		return fmt.Sprintf("#$%0*x", width*2, l.n&widthMask(width))
	case locMemory:
		return fmt.Sprintf("$%06x", l.n)
	default:
		return ""
	}
}

// dregText/aregText name a bare data/address register number, for
// instructions that operate directly on a register file slot rather
// than through a resolved Location.
func dregText(n uint16) string { return fmt.Sprintf("D%d", n) }
func aregText(n uint16) string { return fmt.Sprintf("A%d", n) }

func widthMask(width int) uint32 {
	switch width {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// readSized reads width bytes (1, 2, or 4) from the location,
// returning a value zero-extended into a uint32.
func (c *CPU) readSized(mem *memory.Memory, l Location, width int) uint32 {
	switch l.kind {
	case locDataReg:
		return c.d[l.n] & widthMask(width)
	case locAddrReg:
		return c.A(int(l.n)) & widthMask(width)
	case locImmediate:
		return l.n & widthMask(width)
	case locMemory:
		switch width {
		case 1:
			return uint32(mem.ReadByte(l.n))
		case 2:
			return uint32(c.mustReadWord(mem, l.n, l.programSpace))
		default:
			return c.mustReadLong(mem, l.n, l.programSpace)
		}
	default:
		return 0
	}
}

// writeSized writes width low-order bytes of v into the location. A
// data-register destination preserves the register's untouched upper
// bytes; an address-register destination is always sign-extended to
// 32 bits for byte/word writes, matching ADDA/SUBA/MOVEA semantics —
// callers writing a plain byte/word to an address register rely on
// this.
func (c *CPU) writeSized(mem *memory.Memory, l Location, width int, v uint32) {
	switch l.kind {
	case locDataReg:
		mask := widthMask(width)
		c.d[l.n] = (c.d[l.n] &^ mask) | (v & mask)
	case locAddrReg:
		c.SetA(int(l.n), signExtend(v, width))
	case locMemory:
		switch width {
		case 1:
			mem.WriteByte(l.n, uint8(v))
		case 2:
			c.mustWriteWord(mem, l.n, uint16(v), l.programSpace)
		default:
			c.mustWriteLong(mem, l.n, v, l.programSpace)
		}
	default:
		// Immediate and none are never write targets; the decoder
		// never produces them on the destination side.
	}
}

// signExtend sign-extends the low width bytes of v to 32 bits.
func signExtend(v uint32, width int) uint32 {
	switch width {
	case 1:
		return uint32(int32(int8(v)))
	case 2:
		return uint32(int32(int16(v)))
	default:
		return v
	}
}
