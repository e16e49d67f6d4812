// Package cpu implements the instruction interpreter for a 68000-family
// processor: the effective-address resolver, arithmetic/logic kernels,
// exception unit, instruction dispatcher, trace ring, and the
// top-level fetch/execute driver.
package cpu

import (
	"github.com/kobolt/cpm68k-go/emu/trap"
)

// Vector addresses for the exceptions this interpreter raises. MMU,
// coprocessor, and MC68010+ vectors are out of scope.
const (
	VectorAddressError     = 0x0C
	VectorIllegalInstr     = 0x10
	VectorDivideByZero     = 0x14
	VectorCHKInstr         = 0x18
	VectorTRAPVInstr       = 0x1C
	VectorPrivilegeViol    = 0x20
	VectorLineAUnimpl      = 0x28
	VectorLineFUnimpl      = 0x2C
	VectorTrapBase         = 0x80
)

// sp is the register number that always means "the active stack
// pointer" — A7, routed to SSP in supervisor mode.
const sp = 7

// statusWritableMask confines SR writes to the bits the architecture
// actually defines; bits 5, 7, and 11 are always zero.
const statusWritableMask = 0b1010011100011111

// Status register bit positions.
const (
	srC  = 1 << 0
	srV  = 1 << 1
	srZ  = 1 << 2
	srN  = 1 << 3
	srX  = 1 << 4
	srI0 = 1 << 8
	srI1 = 1 << 9
	srI2 = 1 << 10
	srM  = 1 << 12
	srS  = 1 << 13
	srT0 = 1 << 14
	srT1 = 1 << 15
)

// ccrMask is the portion of SR that MOVE/ANDI/ORI/EORI to CCR may
// touch.
const ccrMask = srC | srV | srZ | srN | srX

// CPU holds the full architectural state of one processor: registers,
// status, the latched values needed to build exception frames, and
// the trace ring, fetch/execute driver state, and optional trap-15
// hook attached to it.
type CPU struct {
	pc  uint32
	d   [8]uint32
	a   [8]uint32
	ssp uint32
	sr  uint16

	oldPC  uint32
	opcode uint16
	src    Location
	dst    Location

	trap15 trap.Hook

	trace Trace

	// breakFlag is set by the host (signal handler, debugger) between
	// instructions; the driver observes it before the next fetch.
	breakFlag bool
}

// New returns a CPU reset into supervisor mode with all registers
// zeroed, PC at zero. The caller sets PC to the boot vector before the
// first Step.
func New() *CPU {
	c := &CPU{}
	c.Reset()
	return c
}

// Reset zeroes all registers and enters supervisor mode, mirroring the
// processor's power-up state.
func (c *CPU) Reset() {
	c.pc = 0
	c.d = [8]uint32{}
	c.a = [8]uint32{}
	c.ssp = 0
	c.sr = srS
	c.oldPC = 0
	c.opcode = 0
	c.trace.init()
}

// SetTrapHook installs the host-service callback invoked by TRAP #15.
func (c *CPU) SetTrapHook(h trap.Hook) {
	c.trap15 = h
}

// SetBreak requests that Run stop before the next instruction. The
// flag is a plain field with no synchronization; a caller on another
// goroutine than the one running Run must synchronize the access
// itself.
func (c *CPU) SetBreak(v bool) {
	c.breakFlag = v
}

// Break reports whether a break has been requested.
func (c *CPU) Break() bool {
	return c.breakFlag
}

// PC returns the program counter.
func (c *CPU) PC() uint32 { return c.pc }

// SetPC sets the program counter, e.g. to the boot entry point.
func (c *CPU) SetPC(v uint32) { c.pc = v }

// D returns data register n.
func (c *CPU) D(n int) uint32 { return c.d[n] }

// SetD sets data register n.
func (c *CPU) SetD(n int, v uint32) { c.d[n] = v }

// A returns address register n, routing n==7 through SSP when in
// supervisor mode.
func (c *CPU) A(n int) uint32 {
	if n == sp && c.supervisor() {
		return c.ssp
	}
	return c.a[n]
}

// SetA sets address register n, routing n==7 through SSP when in
// supervisor mode.
func (c *CPU) SetA(n int, v uint32) {
	if n == sp && c.supervisor() {
		c.ssp = v
		return
	}
	c.a[n] = v
}

// SR returns the status register.
func (c *CPU) SR() uint16 { return c.sr }

// SetSR writes SR, masking off the bits the architecture never
// defines.
func (c *CPU) SetSR(v uint16) {
	c.sr = v & statusWritableMask
}

func (c *CPU) supervisor() bool { return c.sr&srS != 0 }

func (c *CPU) flag(bit uint16) bool { return c.sr&bit != 0 }

func (c *CPU) setFlag(bit uint16, v bool) {
	if v {
		c.sr |= bit
	} else {
		c.sr &^= bit
	}
}

// stepWidth returns how far an address register steps for a width-byte
// access, honoring the invariant that A7 always steps by at least 2 to
// keep the stack word-aligned.
func stepWidth(reg int, width uint32) uint32 {
	if reg == sp && width == 1 {
		return 2
	}
	return width
}
