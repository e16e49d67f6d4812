package cpu

// signBit returns the sign bit of a width-byte value.
func signBit(v uint32, width int) bool {
	switch width {
	case 1:
		return v&0x80 != 0
	case 2:
		return v&0x8000 != 0
	default:
		return v&0x80000000 != 0
	}
}

func isZero(v uint32, width int) bool {
	return v&widthMask(width) == 0
}

// add computes a+b at the given width and sets N Z V C X, returning
// the masked result. V is signed overflow (both operands same sign,
// result differs); C is unsigned carry out of the top bit.
func (c *CPU) add(a, b uint32, width int) uint32 {
	mask := widthMask(width)
	sum := (a + b) & mask
	sa, sb, sr := signBit(a, width), signBit(b, width), signBit(sum, width)

	carry := (uint64(a&mask) + uint64(b&mask)) > uint64(mask)

	c.setFlag(srN, sr)
	c.setFlag(srZ, isZero(sum, width))
	c.setFlag(srV, sa == sb && sr != sa)
	c.setFlag(srC, carry)
	c.setFlag(srX, carry)
	return sum
}

// sub computes a-b (minuend a, subtrahend b) at the given width. V is
// set when the operands differ in sign and the result's sign matches
// the subtrahend's.
func (c *CPU) sub(a, b uint32, width int) uint32 {
	mask := widthMask(width)
	diff := (a - b) & mask
	sa, sb, sr := signBit(a, width), signBit(b, width), signBit(diff, width)

	borrow := (a & mask) < (b & mask)

	c.setFlag(srN, sr)
	c.setFlag(srZ, isZero(diff, width))
	c.setFlag(srV, sa != sb && sr == sb)
	c.setFlag(srC, borrow)
	c.setFlag(srX, borrow)
	return diff
}

// cmp is sub without writing back or touching X, per the 68000
// reference (CMP never affects the extend flag).
func (c *CPU) cmp(a, b uint32, width int) {
	mask := widthMask(width)
	diff := (a - b) & mask
	sa, sb, sr := signBit(a, width), signBit(b, width), signBit(diff, width)
	borrow := (a & mask) < (b & mask)

	c.setFlag(srN, sr)
	c.setFlag(srZ, isZero(diff, width))
	c.setFlag(srV, sa != sb && sr == sb)
	c.setFlag(srC, borrow)
}

// addx/subx are the extended-precision forms used to chain multi-word
// arithmetic: Z is only ever cleared, never set, by a nonzero partial
// result, so a chain of operations preserves a true zero result.
func (c *CPU) addx(a, b uint32, width int) uint32 {
	mask := widthMask(width)
	x := uint32(0)
	if c.flag(srX) {
		x = 1
	}
	sum := (a + b + x) & mask
	sa, sb, sr := signBit(a, width), signBit(b, width), signBit(sum, width)
	carry := (uint64(a&mask) + uint64(b&mask) + uint64(x)) > uint64(mask)

	c.setFlag(srN, sr)
	if !isZero(sum, width) {
		c.setFlag(srZ, false)
	}
	c.setFlag(srV, sa == sb && sr != sa)
	c.setFlag(srC, carry)
	c.setFlag(srX, carry)
	return sum
}

func (c *CPU) subx(a, b uint32, width int) uint32 {
	mask := widthMask(width)
	x := uint32(0)
	if c.flag(srX) {
		x = 1
	}
	diff := (a - b - x) & mask
	sa, sb, sr := signBit(a, width), signBit(b, width), signBit(diff, width)
	borrow := uint64(a&mask) < uint64(b&mask)+uint64(x)

	c.setFlag(srN, sr)
	if !isZero(diff, width) {
		c.setFlag(srZ, false)
	}
	c.setFlag(srV, sa != sb && sr == sb)
	c.setFlag(srC, borrow)
	c.setFlag(srX, borrow)
	return diff
}

// logicalFlags sets N/Z from the result and clears V and C, the
// behavior shared by AND/OR/EOR/NOT; none of these touch X.
func (c *CPU) logicalFlags(result uint32, width int) uint32 {
	mask := widthMask(width)
	result &= mask
	c.setFlag(srN, signBit(result, width))
	c.setFlag(srZ, isZero(result, width))
	c.setFlag(srV, false)
	c.setFlag(srC, false)
	return result
}

func (c *CPU) and(a, b uint32, width int) uint32 { return c.logicalFlags(a&b, width) }
func (c *CPU) or(a, b uint32, width int) uint32  { return c.logicalFlags(a|b, width) }
func (c *CPU) eor(a, b uint32, width int) uint32 { return c.logicalFlags(a^b, width) }
func (c *CPU) not(a uint32, width int) uint32    { return c.logicalFlags(^a, width) }

// neg computes 0-a, i.e. sub with the roles reversed, including X/C
// ordinary semantics (NEG does set C/X, unlike the purely logical
// NOT).
func (c *CPU) neg(a uint32, width int) uint32 {
	return c.sub(0, a, width)
}

// negx is the extended-precision NEG used to chain multi-word two's
// complement negation.
func (c *CPU) negx(a uint32, width int) uint32 {
	return c.subx(0, a, width)
}
