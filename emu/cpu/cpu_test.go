package cpu

import (
	"testing"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// load writes a sequence of big-endian words starting at addr.
func load(mem *memory.Memory, addr uint32, words ...uint16) {
	for i, w := range words {
		mem.WriteWord(addr+uint32(i*2), w)
	}
}

func newBooted(pc uint32) (*CPU, *memory.Memory) {
	c := New()
	mem := memory.New()
	c.SetPC(pc)
	return c, mem
}

// S1: MOVEQ #5,D0
func TestScenarioMoveq(t *testing.T) {
	c, mem := newBooted(0x1000)
	load(mem, 0x1000, 0x7005) // MOVEQ #5,D0
	c.Step(mem)

	if c.PC() != 0x1002 {
		t.Fatalf("PC = %#x, want 0x1002", c.PC())
	}
	if c.D(0) != 5 {
		t.Fatalf("D0 = %#x, want 5", c.D(0))
	}
	if c.flag(srZ) || c.flag(srN) || c.flag(srV) || c.flag(srC) {
		t.Fatalf("flags not clear after MOVEQ #5: SR=%#x", c.SR())
	}
}

// S2: ADD.W D1,D0 with D0=0xF, D1=1 -> D0=0x10, no flags.
func TestScenarioAddWordNoOverflow(t *testing.T) {
	c, mem := newBooted(0x2000)
	c.SetD(0, 0xF)
	c.SetD(1, 1)
	load(mem, 0x2000, 0xD041) // ADD.W D1,D0
	c.Step(mem)

	if c.D(0) != 0x10 {
		t.Fatalf("D0 = %#x, want 0x10", c.D(0))
	}
	if c.flag(srZ) || c.flag(srN) || c.flag(srV) || c.flag(srC) || c.flag(srX) {
		t.Fatalf("flags not clear: SR=%#x", c.SR())
	}
}

// S3: ADD.W D1,D0 with D0=0x7FFF, D1=1 -> signed overflow.
func TestScenarioAddWordOverflow(t *testing.T) {
	c, mem := newBooted(0x3000)
	c.SetD(0, 0x7FFF)
	c.SetD(1, 1)
	load(mem, 0x3000, 0xD041) // ADD.W D1,D0
	c.Step(mem)

	if c.D(0) != 0x8000 {
		t.Fatalf("D0 = %#x, want 0x8000", c.D(0))
	}
	if !c.flag(srN) {
		t.Error("N not set")
	}
	if !c.flag(srV) {
		t.Error("V not set")
	}
	if c.flag(srC) {
		t.Error("C should be clear")
	}
	if c.flag(srX) {
		t.Error("X should be clear")
	}
}

// S4: MOVE.W (A0),D0 with A0 odd -> address error, long frame at vector 0x0C.
func TestScenarioAddressError(t *testing.T) {
	c, mem := newBooted(0x4000)
	c.SetA(0, 0x100002|1)
	load(mem, 0x4000, 0x3010) // MOVE.W (A0),D0
	mem.WriteLong(VectorAddressError, 0x00FF0000)

	sspBefore := c.A(7)
	c.Step(mem)

	if c.PC() != 0x00FF0000 {
		t.Fatalf("PC after vector load = %#x, want 0x00FF0000", c.PC())
	}
	if sspBefore-c.A(7) != 14 {
		t.Fatalf("SSP moved by %d, want 14", sspBefore-c.A(7))
	}
	if !c.supervisor() {
		t.Error("supervisor bit not set after exception entry")
	}
}

// S5: MULU D1,D0 with D0=0x10, D1=3 -> D0=0x30.
func TestScenarioMulu(t *testing.T) {
	c, mem := newBooted(0x5000)
	c.SetD(0, 0x10)
	c.SetD(1, 3)
	load(mem, 0x5000, 0xC0C1) // MULU D1,D0
	c.Step(mem)

	if c.D(0) != 0x30 {
		t.Fatalf("D0 = %#x, want 0x30", c.D(0))
	}
	if c.flag(srN) || c.flag(srZ) {
		t.Fatalf("N/Z unexpectedly set: SR=%#x", c.SR())
	}
}

// S6: TRAP #15 with a host hook invokes it, advances PC by 2, and
// leaves SR/stack untouched.
func TestScenarioTrap15HostHook(t *testing.T) {
	c, mem := newBooted(0x6000)
	c.SetD(0, 3)
	c.SetD(1, uint32('A'))
	srBefore := c.SR()
	sspBefore := c.A(7)

	var sawSelector uint32
	c.SetTrapHook(hookFunc(func(d *[8]uint32, m *memory.Memory) {
		sawSelector = d[0]
		d[0] = 0
	}))
	load(mem, 0x6000, 0x4E4F) // TRAP #15

	c.Step(mem)

	if sawSelector != 3 {
		t.Fatalf("hook saw D0=%d, want 3", sawSelector)
	}
	if c.PC() != 0x6002 {
		t.Fatalf("PC = %#x, want 0x6002", c.PC())
	}
	if c.SR() != srBefore {
		t.Fatalf("SR changed: %#x -> %#x", srBefore, c.SR())
	}
	if c.A(7) != sspBefore {
		t.Fatalf("stack pointer moved: %#x -> %#x", sspBefore, c.A(7))
	}
}

type hookFunc func(d *[8]uint32, mem *memory.Memory)

func (f hookFunc) Trap15(d *[8]uint32, mem *memory.Memory) { f(d, mem) }

// Property 1: SR bits 5, 7, 11 stay zero through any mutation.
func TestSRReservedBitsAlwaysZero(t *testing.T) {
	c := New()
	c.SetSR(0xFFFF)
	if c.SR()&(1<<5|1<<7|1<<11) != 0 {
		t.Fatalf("reserved bits leaked into SR: %#x", c.SR())
	}
}

// Property 3: read_word matches the big-endian byte pair.
func TestReadWordMatchesBytePair(t *testing.T) {
	mem := memory.New()
	mem.WriteByte(0x2000, 0x12)
	mem.WriteByte(0x2001, 0x34)
	v, err := mem.ReadWord(0x2000)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x1234 {
		t.Fatalf("ReadWord = %#x, want 0x1234", v)
	}
}

// Property 8: MOVEM reg->mem then mem->reg round-trips the register file.
func TestMovemRoundTrip(t *testing.T) {
	c, mem := newBooted(0x7000)
	for i := 0; i < 8; i++ {
		c.SetD(i, uint32(0x11111111*(i+1)))
	}
	c.SetA(0, 0x8000)
	c.SetA(1, 0x9000)
	c.SetA(2, 0xA000)

	// MOVEM.L D0-D2/A0-A2,-(A7) : mask bit i selects register i in
	// D0..D7,A0..A7 order (this interpreter's direct indexing, not the
	// hardware's bit-reversed pre-decrement encoding).
	base := c.A(7)
	load(mem, 0x7000, 0x48E7, 0x0707) // MOVEM.L D0-D2/A0-A2,-(A7)
	c.Step(mem)

	savedD := [3]uint32{c.D(0), c.D(1), c.D(2)}
	savedA := [3]uint32{c.A(0), c.A(1), c.A(2)}

	// clear registers then reload from the saved frame
	for i := 0; i < 3; i++ {
		c.SetD(i, 0)
		c.SetA(i, 0)
	}

	load(mem, c.PC(), 0x4CDF, 0x0707) // MOVEM.L (A7)+,D0-D2/A0-A2
	c.Step(mem)

	for i := 0; i < 3; i++ {
		if c.D(i) != savedD[i] {
			t.Errorf("D%d = %#x, want %#x", i, c.D(i), savedD[i])
		}
		if c.A(i) != savedA[i] {
			t.Errorf("A%d = %#x, want %#x", i, c.A(i), savedA[i])
		}
	}
	if c.A(7) != base {
		t.Fatalf("A7 = %#x, want original %#x after round trip", c.A(7), base)
	}
}

// Property 9: SWAP; SWAP is the identity.
func TestSwapTwiceIsIdentity(t *testing.T) {
	c, mem := newBooted(0x8000)
	c.SetD(0, 0x12345678)
	load(mem, 0x8000, 0x4840, 0x4840) // SWAP D0; SWAP D0
	c.Step(mem)
	c.Step(mem)
	if c.D(0) != 0x12345678 {
		t.Fatalf("D0 = %#x after double SWAP, want 0x12345678", c.D(0))
	}
}

// Property 10: NOT; NOT is the identity.
func TestNotTwiceIsIdentity(t *testing.T) {
	c, mem := newBooted(0x9000)
	c.SetD(0, 0xDEADBEEF)
	load(mem, 0x9000, 0x4680, 0x4680) // NOT.L D0; NOT.L D0
	c.Step(mem)
	c.Step(mem)
	if c.D(0) != 0xDEADBEEF {
		t.Fatalf("D0 = %#x after double NOT, want 0xDEADBEEF", c.D(0))
	}
}

// Property 11: NEG;NEG restores the operand, except 0x80000000 sets V
// on the first NEG.
func TestNegTwiceRestoresExceptMinInt(t *testing.T) {
	c, mem := newBooted(0xA000)
	c.SetD(0, 5)
	load(mem, 0xA000, 0x4480, 0x4480) // NEG.L D0; NEG.L D0
	c.Step(mem)
	if c.D(0) != 0xFFFFFFFB {
		t.Fatalf("D0 after first NEG = %#x, want -5", c.D(0))
	}
	c.Step(mem)
	if c.D(0) != 5 {
		t.Fatalf("D0 after double NEG = %#x, want 5", c.D(0))
	}

	c, mem = newBooted(0xA100)
	c.SetD(0, 0x80000000)
	load(mem, 0xA100, 0x4480)
	c.Step(mem)
	if !c.flag(srV) {
		t.Error("V not set negating 0x80000000")
	}
	if c.D(0) != 0x80000000 {
		t.Fatalf("D0 = %#x, want unchanged 0x80000000", c.D(0))
	}
}

// Property 13: long access at 0xFFFFFE wraps into 0x000000-0x000001.
func TestLongAccessWrapsAtTopOfSpace(t *testing.T) {
	mem := memory.New()
	mem.WriteLong(memory.Size-2, 0xAABBCCDD)
	hi := mem.ReadByte(memory.Size - 2)
	lo := mem.ReadByte(memory.Size - 1)
	wrap0 := mem.ReadByte(0)
	wrap1 := mem.ReadByte(1)
	if hi != 0xAA || lo != 0xBB || wrap0 != 0xCC || wrap1 != 0xDD {
		t.Fatalf("wraparound bytes = %02x %02x %02x %02x, want AA BB CC DD", hi, lo, wrap0, wrap1)
	}
}

// Property 14: division by zero raises the exception without touching
// the destination register.
func TestDivuByZeroLeavesDestinationUnchanged(t *testing.T) {
	c, mem := newBooted(0xB000)
	c.SetD(0, 0x12345678)
	c.SetD(1, 0)
	mem.WriteLong(VectorDivideByZero, 0x00FE0000)
	load(mem, 0xB000, 0x80C1) // DIVU D1,D0
	c.Step(mem)
	if c.D(0) != 0x12345678 {
		t.Fatalf("D0 = %#x, want unchanged 0x12345678", c.D(0))
	}
	if c.PC() != 0x00FE0000 {
		t.Fatalf("PC = %#x, want vector target", c.PC())
	}
}

// Property 15: DIVU overflow sets N=1 Z=0 V=1 C=0 and leaves the
// destination unchanged.
func TestDivuOverflowLeavesDestinationUnchanged(t *testing.T) {
	c, mem := newBooted(0xC000)
	c.SetD(0, 0x7FFFFFFF)
	c.SetD(1, 1)
	load(mem, 0xC000, 0x80C1) // DIVU D1,D0
	c.Step(mem)
	if c.D(0) != 0x7FFFFFFF {
		t.Fatalf("D0 = %#x, want unchanged", c.D(0))
	}
	if !c.flag(srN) || c.flag(srZ) || !c.flag(srV) || c.flag(srC) {
		t.Fatalf("flags after overflow: N=%v Z=%v V=%v C=%v",
			c.flag(srN), c.flag(srZ), c.flag(srV), c.flag(srC))
	}
}

// Property 16: writing SR in user mode raises a privilege violation;
// MOVE to CCR remains legal.
func TestMoveToSRInUserModeTraps(t *testing.T) {
	c, mem := newBooted(0xD000)
	c.SetSR(c.SR() &^ srS) // drop to user mode
	mem.WriteLong(VectorPrivilegeViol, 0x00FD0000)
	c.SetD(0, 0x2700)
	load(mem, 0xD000, 0x46C0) // MOVE D0,SR
	c.Step(mem)
	if c.PC() != 0x00FD0000 {
		t.Fatalf("PC = %#x, want privilege-violation vector target", c.PC())
	}
}

func TestMoveToCCRLegalInUserMode(t *testing.T) {
	c, mem := newBooted(0xD100)
	c.SetSR(c.SR() &^ srS)
	c.SetD(0, 0x1F)
	load(mem, 0xD100, 0x44C0) // MOVE D0,CCR
	c.Step(mem)
	if c.PC() != 0xD102 {
		t.Fatalf("PC = %#x, want 0xD102 (no trap)", c.PC())
	}
	if c.SR()&ccrMask != ccrMask {
		t.Fatalf("CCR bits not all set: SR=%#x", c.SR())
	}
}

// Opcode-collision regression: MOVE-from-SR, MOVE-to-CCR, and
// MOVE-to-SR must not be intercepted by the broader NEGX/NEG/NOT byte
// masks that share their top byte.
func TestGroup4SRCCRMovesNotShadowedByNegNot(t *testing.T) {
	c, mem := newBooted(0xE000)
	c.SetD(0, 0)
	load(mem, 0xE000, 0x40C0) // MOVE SR,D0 (move-from-sr)
	c.Step(mem)
	if c.D(0) != uint32(c.SR()) {
		t.Fatalf("D0 = %#x after MOVE-from-SR, want SR value %#x", c.D(0), c.SR())
	}

	c2, mem2 := newBooted(0xE100)
	c2.SetD(1, 0x0C)
	load(mem2, 0xE100, 0x44C1) // MOVE D1,CCR
	c2.Step(mem2)
	if c2.SR()&ccrMask != 0x0C {
		t.Fatalf("CCR bits = %#x, want 0x0C", c2.SR()&ccrMask)
	}

	c3, mem3 := newBooted(0xE200)
	c3.SetD(2, 0x2700)
	load(mem3, 0xE200, 0x46C2) // MOVE D2,SR (supervisor, legal: CPU boots supervisor)
	c3.Step(mem3)
	if c3.SR() != 0x2700 {
		t.Fatalf("SR = %#x after MOVE-to-SR, want 0x2700", c3.SR())
	}
}
