package cpu

import "github.com/kobolt/cpm68k-go/emu/memory"

// Addressing modes, as the top 3 bits of a 6-bit mode:reg field.
const (
	modeDataReg = iota
	modeAddrReg
	modeIndirect
	modeIndirectPostInc
	modeIndirectPreDec
	modeIndirectDisp
	modeIndirectIndex
	modeExtended // reg field selects among absolute/PC-relative/immediate
)

// Extended-mode reg-field values (mode == modeExtended).
const (
	extAbsWord = iota
	extAbsLong
	extPCDisp
	extPCIndex
	extImmediate
)

// resolveEA decodes a 6-bit mode:reg field into a Location, consuming
// whatever extension words that addressing mode requires and applying
// pre-decrement/post-increment side effects immediately, per §4.2.
// isDest is used only to reject the illegal reg=100-via-111 encoding
// on a write target.
func (c *CPU) resolveEA(mem *memory.Memory, modeReg uint16, width int, isDest bool) Location {
	mode := (modeReg >> 3) & 7
	reg := uint32(modeReg & 7)

	switch mode {
	case modeDataReg:
		return DataReg(reg)

	case modeAddrReg:
		return AddrReg(reg)

	case modeIndirect:
		return Memory(c.A(int(reg)), false)

	case modeIndirectPostInc:
		addr := c.A(int(reg))
		c.SetA(int(reg), addr+stepWidth(int(reg), uint32(width)))
		return Memory(addr, false)

	case modeIndirectPreDec:
		addr := c.A(int(reg)) - stepWidth(int(reg), uint32(width))
		c.SetA(int(reg), addr)
		return Memory(addr, false)

	case modeIndirectDisp:
		disp := int16(c.fetchWord(mem))
		return Memory(c.A(int(reg))+uint32(int32(disp)), false)

	case modeIndirectIndex:
		ext := c.fetchWord(mem)
		base := c.A(int(reg))
		return Memory(base+c.indexDisplacement(ext), false)

	case modeExtended:
		switch reg {
		case extAbsWord:
			addr := uint32(int32(int16(c.fetchWord(mem))))
			return Memory(addr, false)
		case extAbsLong:
			hi := uint32(c.fetchWord(mem))
			lo := uint32(c.fetchWord(mem))
			return Memory(hi<<16|lo, false)
		case extPCDisp:
			pcAtExt := c.pc
			disp := int16(c.fetchWord(mem))
			return Memory(uint32(int32(pcAtExt)+int32(disp)), true)
		case extPCIndex:
			pcAtExt := c.pc
			ext := c.fetchWord(mem)
			return Memory(pcAtExt+c.indexDisplacement(ext), true)
		case extImmediate:
			if isDest {
				c.raiseIllegal(mem)
			}
			switch width {
			case 1:
				return Immediate(uint32(c.fetchWord(mem)) & 0xFF)
			case 2:
				return Immediate(uint32(c.fetchWord(mem)))
			default:
				hi := uint32(c.fetchWord(mem))
				lo := uint32(c.fetchWord(mem))
				return Immediate(hi<<16 | lo)
			}
		default:
			c.raiseIllegal(mem)
		}
	}
	c.raiseIllegal(mem)
	return Location{}
}

// indexDisplacement decodes a brief extension word: bit 15 selects
// data (0) or address (1) register, bits 14-12 the register number,
// bit 11 selects word (0, sign-extended) or long (1) index size, and
// the low byte is a signed 8-bit displacement.
func (c *CPU) indexDisplacement(ext uint16) uint32 {
	regNum := int((ext >> 12) & 7)
	isAddr := ext&0x8000 != 0
	isLong := ext&0x0800 != 0

	var xn uint32
	if isAddr {
		xn = c.A(regNum)
	} else {
		xn = c.d[regNum]
	}
	if !isLong {
		xn = uint32(int32(int16(xn)))
	}

	disp := int8(ext & 0xFF)
	return uint32(int32(disp)) + xn
}
