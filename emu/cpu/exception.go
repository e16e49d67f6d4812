package cpu

import "github.com/kobolt/cpm68k-go/emu/memory"

// abortInstruction is thrown by raiseShortFrame and raiseAddressError
// to unwind out of whatever ALU/EA helper noticed the fault, back to
// Step's single
// catch point. It carries no data: by the time it is thrown, the
// exception unit has already built the stack frame and moved PC/SR,
// so nothing at the catch point needs to inspect it.
type abortInstruction struct{}

// access-type bits for an address-error frame: bit 4 carries
// read(1)/write(0), bit 3 carries supervisor/user, bit 1 set means
// instruction-fetch/program-space, per the synthesized word the
// original interpreter assembles from the faulting access.
const (
	accessRW     = 1 << 4
	accessSuper  = 1 << 3
	accessProgram = 1 << 1
)

// raiseShortFrame pushes PC and SR (6 bytes) on SSP, enters supervisor
// mode, clears T1, loads PC from the vector, and aborts the rest of
// the current instruction.
func (c *CPU) raiseShortFrame(mem *memory.Memory, vector uint32) {
	c.enterException(mem)
	c.push(mem, uint16(c.oldPC))
	c.push(mem, uint16(c.oldPC>>16))
	c.push(mem, c.sr)
	c.loadVector(mem, vector)
	panic(abortInstruction{})
}

// raiseAddressError pushes the 14-byte long frame (access-type word,
// fault address, opcode, PC, SR) and aborts.
func (c *CPU) raiseAddressError(mem *memory.Memory, faultAddr uint32, write bool, programSpace bool) {
	access := c.opcode &^ 0x1F
	if !write {
		access |= accessRW
	}
	if c.supervisor() {
		access |= accessSuper
	}
	if programSpace {
		access |= accessProgram
	}

	c.enterException(mem)
	c.push(mem, uint16(c.oldPC))
	c.push(mem, uint16(c.oldPC>>16))
	c.push(mem, c.sr)
	c.push(mem, c.opcode)
	c.push(mem, uint16(faultAddr))
	c.push(mem, uint16(faultAddr>>16))
	c.push(mem, access)
	c.loadVector(mem, VectorAddressError)
	panic(abortInstruction{})
}

// enterException performs the entry side effects common to every
// frame style: force supervisor mode, clear the trace-single bit.
func (c *CPU) enterException(mem *memory.Memory) {
	c.setFlag(srS, true)
	c.setFlag(srT1, false)
	c.setFlag(srT0, false)
}

// push writes value onto the active stack, pre-decrementing SSP/A7 by
// 2 first (the processor always pushes exception-frame words as full
// 16-bit units; call sites push a long's low word first, so it lands
// high word first in memory).
func (c *CPU) push(mem *memory.Memory, value uint16) {
	addr := c.A(sp) - 2
	c.SetA(sp, addr)
	mem.WriteWord(addr, value) //nolint:errcheck // exception-frame pushes are always word-aligned
}

// loadVector sets PC from the 32-bit vector table entry at address.
func (c *CPU) loadVector(mem *memory.Memory, address uint32) {
	v, _ := mem.ReadLong(address)
	c.pc = v
}

// raiseIllegal, raiseDivideByZero, raiseCHK, raiseTRAPV,
// raisePrivilege, raiseLineA, raiseLineF, and raiseTrap are the short
// frame exceptions named in the dispatcher.
func (c *CPU) raiseIllegal(mem *memory.Memory)      { c.raiseShortFrame(mem, VectorIllegalInstr) }
func (c *CPU) raiseDivideByZero(mem *memory.Memory) { c.raiseShortFrame(mem, VectorDivideByZero) }
func (c *CPU) raiseCHK(mem *memory.Memory)          { c.raiseShortFrame(mem, VectorCHKInstr) }
func (c *CPU) raiseTRAPV(mem *memory.Memory)        { c.raiseShortFrame(mem, VectorTRAPVInstr) }
func (c *CPU) raisePrivilege(mem *memory.Memory)    { c.raiseShortFrame(mem, VectorPrivilegeViol) }
func (c *CPU) raiseLineA(mem *memory.Memory)        { c.raiseShortFrame(mem, VectorLineAUnimpl) }
func (c *CPU) raiseLineF(mem *memory.Memory)        { c.raiseShortFrame(mem, VectorLineFUnimpl) }
func (c *CPU) raiseTrap(mem *memory.Memory, n uint) {
	c.raiseShortFrame(mem, VectorTrapBase+4*uint32(n))
}

// checkPrivileged aborts with a privilege violation if the CPU is not
// in supervisor mode.
func (c *CPU) checkPrivileged(mem *memory.Memory) {
	if !c.supervisor() {
		c.raisePrivilege(mem)
	}
}

// mustReadWord reads a word, converting an alignment fault into an
// address-error exception that aborts the instruction.
func (c *CPU) mustReadWord(mem *memory.Memory, addr uint32, programSpace bool) uint16 {
	v, err := mem.ReadWord(addr)
	if err != nil {
		c.raiseAddressError(mem, addr, false, programSpace)
	}
	return v
}

func (c *CPU) mustReadLong(mem *memory.Memory, addr uint32, programSpace bool) uint32 {
	v, err := mem.ReadLong(addr)
	if err != nil {
		c.raiseAddressError(mem, addr, false, programSpace)
	}
	return v
}

func (c *CPU) mustWriteWord(mem *memory.Memory, addr uint32, v uint16, programSpace bool) {
	if err := mem.WriteWord(addr, v); err != nil {
		c.raiseAddressError(mem, addr, true, programSpace)
	}
}

func (c *CPU) mustWriteLong(mem *memory.Memory, addr uint32, v uint32, programSpace bool) {
	if err := mem.WriteLong(addr, v); err != nil {
		c.raiseAddressError(mem, addr, true, programSpace)
	}
}

// fetchWord reads the word at PC (always program space) and advances
// PC by 2, raising address error if PC is odd.
func (c *CPU) fetchWord(mem *memory.Memory) uint16 {
	v := c.mustReadWord(mem, c.pc, true)
	c.trace.mc(v)
	c.pc += 2
	return v
}

// RTE pops SR (masked), PC high, PC low in that order. If the
// resulting PC is odd, it re-raises address error and leaves PC at
// the pre-RTE value, per §4.4.
func (c *CPU) RTE(mem *memory.Memory) {
	c.checkPrivileged(mem)
	preRTE := c.pc
	sr := c.pop(mem)
	pcHigh := c.pop(mem)
	pcLow := c.pop(mem)
	c.SetSR(sr)
	newPC := uint32(pcHigh)<<16 | uint32(pcLow)
	if newPC%2 != 0 {
		c.pc = preRTE
		c.raiseAddressError(mem, newPC, false, true)
		return
	}
	c.pc = newPC
}

// RTR pops the low CCR byte (preserving the upper SR byte) then PC,
// with the same odd-PC re-raise behavior as RTE.
func (c *CPU) RTR(mem *memory.Memory) {
	preRTE := c.pc
	ccr := c.pop(mem)
	pcHigh := c.pop(mem)
	pcLow := c.pop(mem)
	c.sr = (c.sr &^ ccrMask) | (ccr & ccrMask)
	newPC := uint32(pcHigh)<<16 | uint32(pcLow)
	if newPC%2 != 0 {
		c.pc = preRTE
		c.raiseAddressError(mem, newPC, false, true)
		return
	}
	c.pc = newPC
}

// pop reads one word off the active stack and post-increments SP by 2.
func (c *CPU) pop(mem *memory.Memory) uint16 {
	addr := c.A(sp)
	v := c.mustReadWord(mem, addr, false)
	c.SetA(sp, addr+2)
	return v
}
