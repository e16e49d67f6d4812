package cpu

import (
	"fmt"
	"io"
)

// traceBufferSize and traceMCMax mirror the fixed capacities of the
// original trace ring: 64 instruction entries, up to 8 machine-code
// words each.
const (
	traceBufferSize = 64
	traceMCMax      = 8
)

// cpuSnapshot is the register-file subset of CPU the trace ring
// copies by value; it deliberately excludes the Trace field itself
// (CPU cannot contain a ring of entries each containing a whole CPU).
type cpuSnapshot struct {
	pc  uint32
	d   [8]uint32
	a   [8]uint32
	ssp uint32
	sr  uint16
}

// traceEntry is one ring slot: a register snapshot at instruction
// start plus the machine-code words fetched and the mnemonic/operand
// text assembled while decoding.
type traceEntry struct {
	snapshot cpuSnapshot
	mc       [traceMCMax]uint16
	mcCount  int
	mnemonic string
	src      string
	dst      string
	valid    bool
}

// Trace is the per-CPU circular instruction log described in §4.6. It
// is owned by the CPU instance, not a package global, so multiple
// CPUs can coexist in one process.
type Trace struct {
	buf    [traceBufferSize]traceEntry
	cursor int
}

func (t *Trace) init() {
	*t = Trace{}
}

// start snapshots cpu into the next ring slot and clears its text
// fields, ready to receive mc/mnemonic/src/dst calls for the
// instruction about to execute.
func (t *Trace) start(cpu *CPU) {
	e := &t.buf[t.cursor]
	e.snapshot = cpuSnapshot{pc: cpu.pc, d: cpu.d, a: cpu.a, ssp: cpu.ssp, sr: cpu.sr}
	e.mcCount = 0
	e.mnemonic = ""
	e.src = ""
	e.dst = ""
	e.valid = false
}

// mc appends one fetched machine-code word, wrapping silently past
// the fixed capacity as the original ring does.
func (t *Trace) mc(word uint16) {
	e := &t.buf[t.cursor]
	if e.mcCount >= traceMCMax {
		e.mcCount = 0
	}
	e.mc[e.mcCount] = word
	e.mcCount++
}

func (t *Trace) opMnemonic(s string) {
	t.buf[t.cursor].mnemonic = s
	t.buf[t.cursor].valid = true
}

func (t *Trace) opSrc(format string, args ...interface{}) {
	t.buf[t.cursor].src = fmt.Sprintf(format, args...)
}

func (t *Trace) opDst(format string, args ...interface{}) {
	t.buf[t.cursor].dst = fmt.Sprintf(format, args...)
}

// end advances the ring cursor, wrapping at capacity.
func (t *Trace) end() {
	t.cursor++
	if t.cursor >= traceBufferSize {
		t.cursor = 0
	}
}

func (e *traceEntry) print(w io.Writer, compact bool) {
	if compact {
		fmt.Fprintf(w, "%06x   ", e.snapshot.pc)
		for i := 0; i < e.mcCount; i++ {
			fmt.Fprintf(w, "%04x ", e.mc[i])
		}
		for i := e.mcCount; i < 6; i++ {
			fmt.Fprint(w, "     ")
		}
	} else {
		s := &e.snapshot
		fmt.Fprintf(w, "D0-7 %08x %08x %08x %08x %08x %08x %08x %08x\n",
			s.d[0], s.d[1], s.d[2], s.d[3], s.d[4], s.d[5], s.d[6], s.d[7])
		fmt.Fprintf(w, "A0-7 %08x %08x %08x %08x %08x %08x %08x %08x\n",
			s.a[0], s.a[1], s.a[2], s.a[3], s.a[4], s.a[5], s.a[6], s.a[7])
		fmt.Fprintf(w, "  PC %08x       SR 10SM-210---XNZVC       SSP %08x\n",
			s.pc, s.ssp)
		bit := func(mask uint16) int {
			if s.sr&mask != 0 {
				return 1
			}
			return 0
		}
		fmt.Fprintf(w, "                       %d%d%d%d%d%d%d%d%d%d%d%d%d%d%d%d\n",
			bit(srT1), bit(srT0), bit(srS), bit(srM), 0,
			bit(srI2), bit(srI1), bit(srI0), 0, 0, 0,
			bit(srX), bit(srN), bit(srZ), bit(srV), bit(srC))
		for i := 0; i < e.mcCount; i++ {
			fmt.Fprintf(w, "%04x ", e.mc[i])
		}
		for i := e.mcCount; i < traceMCMax+1; i++ {
			fmt.Fprint(w, "     ")
		}
	}

	switch {
	case e.dst == "" && e.src == "":
		fmt.Fprintf(w, "%s\n", e.mnemonic)
	case e.src == "":
		fmt.Fprintf(w, "%s %s\n", e.mnemonic, e.dst)
	case e.dst == "":
		fmt.Fprintf(w, "%s %s\n", e.mnemonic, e.src)
	default:
		fmt.Fprintf(w, "%s %s, %s\n", e.mnemonic, e.src, e.dst)
	}
}

// Dump walks the ring in chronological order starting just after the
// write cursor (the oldest surviving entry), wrapping around, and
// skips slots that were never filled in.
func (t *Trace) Dump(w io.Writer, compact bool) {
	for i := t.cursor; i < traceBufferSize; i++ {
		if t.buf[i].valid {
			t.buf[i].print(w, compact)
		}
	}
	for i := 0; i < t.cursor; i++ {
		if t.buf[i].valid {
			t.buf[i].print(w, compact)
		}
	}
}

// Dump writes the CPU's trace ring to w in the requested format.
func (c *CPU) Dump(w io.Writer, compact bool) {
	c.trace.Dump(w, compact)
}
