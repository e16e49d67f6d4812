package cpu

import (
	"fmt"

	"github.com/kobolt/cpm68k-go/emu/memory"
)

// Step executes exactly one instruction: it starts a trace entry,
// latches the instruction-start PC, fetches the opcode, dispatches,
// and closes the trace entry. An exception raised mid-instruction
// unwinds here via the abortInstruction panic and still closes the
// trace entry cleanly, so each call is a clean single-step boundary.
func (c *CPU) Step(mem *memory.Memory) {
	c.trace.start(c)

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abortInstruction); ok {
				c.trace.end()
				return
			}
			panic(r)
		}
	}()

	c.oldPC = c.pc
	c.opcode = c.fetchWord(mem)
	c.dispatch(mem, c.opcode)
	c.trace.end()
}

// Run steps the CPU until the host's break flag is set. Suitable for
// "warp mode" free-running execution; the debugger instead calls Step
// directly between its own break checks, per §5.
func (c *CPU) Run(mem *memory.Memory) {
	for !c.Break() {
		c.Step(mem)
	}
}

// dispatch decodes op's leading 4 bits into one of the sixteen major
// groups from §4.5 and routes to the per-mnemonic handler.
func (c *CPU) dispatch(mem *memory.Memory, op uint16) {
	switch op >> 12 {
	case 0x0:
		c.dispatchGroup0(mem, op)
	case 0x1:
		c.trace.opMnemonic("move.b")
		c.execMove(mem, 1, false)
	case 0x2:
		c.dispatchMoveLong(mem, op)
	case 0x3:
		c.dispatchMoveWord(mem, op)
	case 0x4:
		c.dispatchGroup4(mem, op)
	case 0x5:
		c.dispatchGroup5(mem, op)
	case 0x6:
		c.trace.opMnemonic("bcc")
		c.execBcc(mem)
	case 0x7:
		c.trace.opMnemonic("moveq")
		c.execMoveq()
	case 0x8:
		c.dispatchGroup8(mem, op)
	case 0x9:
		c.dispatchGroup9or13(mem, op, true)
	case 0xA:
		c.trace.opMnemonic("line-a")
		c.raiseLineA(mem)
	case 0xB:
		c.dispatchGroupB(mem, op)
	case 0xC:
		c.dispatchGroupC(mem, op)
	case 0xD:
		c.dispatchGroup9or13(mem, op, false)
	case 0xE:
		c.dispatchGroupE(mem, op)
	case 0xF:
		c.trace.opMnemonic("line-f")
		c.raiseLineF(mem)
	}
}

func (c *CPU) dispatchMoveLong(mem *memory.Memory, op uint16) {
	dstMode := (op >> 6) & 7
	if dstMode == modeAddrReg {
		c.trace.opMnemonic("movea.l")
		c.execMove(mem, 4, true)
		return
	}
	c.trace.opMnemonic("move.l")
	c.execMove(mem, 4, false)
}

func (c *CPU) dispatchMoveWord(mem *memory.Memory, op uint16) {
	dstMode := (op >> 6) & 7
	if dstMode == modeAddrReg {
		c.trace.opMnemonic("movea.w")
		c.execMove(mem, 2, true)
		return
	}
	c.trace.opMnemonic("move.w")
	c.execMove(mem, 2, false)
}

// dispatchGroup0 covers MOVEP, the immediate ALU ops, and bit
// manipulation (both the #n,<ea> and Dn,<ea> forms).
func (c *CPU) dispatchGroup0(mem *memory.Memory, op uint16) {
	mode := (op >> 3) & 7
	if op&0x38 != 0 && (op&0x100) != 0 && mode != modeExtended {
		// MOVEP: bit 8 set and mode field 001; the memory operand is
		// (d16,An).
		if mode == modeAddrReg {
			c.trace.opMnemonic("movep")
			c.execMovep(mem)
			return
		}
	}

	// Dynamic bit ops: BTST/BCHG/BCLR/BSET Dn,<ea> — bit 8 set, bits
	// 7-6 select the op, bit number comes from a data register.
	if op&0x100 != 0 {
		bitNum := c.d[(op>>9)&7]
		c.dispatchBitOp(mem, op, bitNum)
		return
	}

	// Immediate ALU / static bit ops share the 0000 top nibble with
	// bits 11-9 selecting which.
	switch (op >> 9) & 7 {
	case 0:
		c.trace.opMnemonic("ori")
		c.execImmediateALU(mem, immOR, sizeField2((op>>6)&3))
	case 1:
		c.trace.opMnemonic("andi")
		c.execImmediateALU(mem, immAND, sizeField2((op>>6)&3))
	case 2:
		c.trace.opMnemonic("subi")
		c.execImmediateALU(mem, immSUB, sizeField2((op>>6)&3))
	case 3:
		c.trace.opMnemonic("addi")
		c.execImmediateALU(mem, immADD, sizeField2((op>>6)&3))
	case 5:
		c.trace.opMnemonic("eori")
		c.execImmediateALU(mem, immEOR, sizeField2((op>>6)&3))
	case 6:
		c.trace.opMnemonic("cmpi")
		c.execImmediateALU(mem, immCMP, sizeField2((op>>6)&3))
	case 4:
		// Static bit ops: bit number is an immediate extension word.
		bitNum := uint32(c.fetchWord(mem)) & 0xFF
		c.dispatchBitOp(mem, op, bitNum)
	default:
		c.raiseIllegal(mem)
	}
}

func (c *CPU) dispatchBitOp(mem *memory.Memory, op uint16, bitNum uint32) {
	switch (op >> 6) & 3 {
	case 0:
		c.trace.opMnemonic("btst")
		c.execBitOp(mem, bitTST, bitNum)
	case 1:
		c.trace.opMnemonic("bchg")
		c.execBitOp(mem, bitCHG, bitNum)
	case 2:
		c.trace.opMnemonic("bclr")
		c.execBitOp(mem, bitCLR, bitNum)
	case 3:
		c.trace.opMnemonic("bset")
		c.execBitOp(mem, bitSET, bitNum)
	}
}

// dispatchGroup4 is the "miscellaneous" 0100 group: NEGX/CLR/NEG/NOT,
// LEA, CHK, MOVE to/from CCR/SR/USP, NBCD, PEA, SWAP, TST, TAS, EXT,
// MOVEM, JMP, JSR, TRAP family, LINK, UNLK, RESET, NOP, STOP, RTE,
// RTS, TRAPV, RTR.
func (c *CPU) dispatchGroup4(mem *memory.Memory, op uint16) {
	switch {
	case op == 0x4E70:
		c.trace.opMnemonic("reset")
		c.execReset(mem)
		return
	case op == 0x4E71:
		c.trace.opMnemonic("nop")
		c.execNop()
		return
	case op == 0x4E72:
		c.trace.opMnemonic("stop")
		c.execStop(mem)
		return
	case op == 0x4E73:
		c.trace.opMnemonic("rte")
		c.RTE(mem)
		return
	case op == 0x4E75:
		c.trace.opMnemonic("rts")
		c.execRts(mem)
		return
	case op == 0x4E76:
		c.trace.opMnemonic("trapv")
		c.execTrapv(mem)
		return
	case op == 0x4E77:
		c.trace.opMnemonic("rtr")
		c.RTR(mem)
		return
	}

	if op&0xFFF8 == 0x4E50 {
		c.trace.opMnemonic("link")
		c.execLink(mem)
		return
	}
	if op&0xFFF8 == 0x4E58 {
		c.trace.opMnemonic("unlk")
		c.execUnlk(mem)
		return
	}
	if op&0xFFF0 == 0x4E60 {
		if op&8 == 0 {
			c.trace.opMnemonic("move-to-usp")
			c.execMoveToUSP(mem)
		} else {
			c.trace.opMnemonic("move-from-usp")
			c.execMoveFromUSP(mem)
		}
		return
	}
	if op&0xFFC0 == 0x4E80 {
		c.trace.opMnemonic("jsr")
		c.execJsr(mem)
		return
	}
	if op&0xFFC0 == 0x4EC0 {
		c.trace.opMnemonic("jmp")
		c.execJmp(mem)
		return
	}
	if op&0xFFF0 == 0x4E40 {
		c.trace.opMnemonic("trap")
		c.execTrap(mem)
		return
	}
	if op&0xFFF8 == 0x4840 {
		c.trace.opMnemonic("swap")
		c.execSwap()
		return
	}
	if op&0xFFC0 == 0x4840 {
		c.trace.opMnemonic("pea")
		c.execPea(mem)
		return
	}
	if op&0xFFB8 == 0x4880 {
		c.trace.opMnemonic("ext")
		c.execExt()
		return
	}
	if op&0xF1C0 == 0x41C0 {
		c.trace.opMnemonic("lea")
		c.execLea(mem)
		return
	}
	if op&0xF1C0 == 0x4180 {
		c.trace.opMnemonic("chk")
		c.execChk(mem)
		return
	}
	if op&0xFFC0 == 0x4AC0 {
		c.trace.opMnemonic("tas")
		c.execTas(mem)
		return
	}
	if op&0xFF00 == 0x4A00 {
		c.trace.opMnemonic("tst")
		c.execTst(mem, sizeField2((op>>6)&3))
		return
	}
	if op&0xFFC0 == 0x4800 {
		c.trace.opMnemonic("nbcd")
		c.execNbcdEA(mem)
		return
	}
	if op&0xFB80 == 0x4880 {
		toMem := op&0x0400 == 0
		width := 2
		if op&0x40 != 0 {
			width = 4
		}
		if toMem {
			c.trace.opMnemonic("movem-to-mem")
		} else {
			c.trace.opMnemonic("movem-to-reg")
		}
		c.execMovem(mem, toMem, width)
		return
	}

	// The size field reads 11 for these MOVE-to/from-SR/CCR forms,
	// which otherwise fall inside the NEGX/CLR/NEG/NOT byte ranges
	// below (those never have size==11); check them first.
	if op&0xFFC0 == 0x40C0 {
		c.trace.opMnemonic("move-from-sr")
		c.execMoveFromSR(mem)
		return
	}
	if op&0xFFC0 == 0x44C0 {
		c.trace.opMnemonic("move-to-ccr")
		c.execMoveToCCR(mem)
		return
	}
	if op&0xFFC0 == 0x46C0 {
		c.trace.opMnemonic("move-to-sr")
		c.execMoveToSR(mem)
		return
	}

	if op&0xFF00 == 0x4000 {
		c.trace.opMnemonic("negx")
		c.execGroup4ALU(mem, group4NEGX, sizeField2((op>>6)&3))
		return
	}
	if op&0xFF00 == 0x4200 {
		c.trace.opMnemonic("clr")
		c.execClr(mem, sizeField2((op>>6)&3))
		return
	}
	if op&0xFF00 == 0x4400 {
		c.trace.opMnemonic("neg")
		c.execGroup4ALU(mem, group4NEG, sizeField2((op>>6)&3))
		return
	}
	if op&0xFF00 == 0x4600 {
		c.trace.opMnemonic("not")
		c.execGroup4ALU(mem, group4NOT, sizeField2((op>>6)&3))
		return
	}

	c.raiseIllegal(mem)
}

// group4ALU distinguishes NEGX/NEG/NOT, which share a dispatch shape
// (read-modify-write over a sized EA, setting flags from the ALU
// kernel) but differ in which kernel runs.
type group4ALUKind int

const (
	group4NEGX group4ALUKind = iota
	group4NEG
	group4NOT
)

func (c *CPU) execGroup4ALU(mem *memory.Memory, kind group4ALUKind, width int) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, width, true)
	v := c.readSized(mem, loc, width)
	c.trace.opDst(loc.text(width))
	switch kind {
	case group4NEGX:
		c.writeSized(mem, loc, width, c.negx(v, width))
	case group4NEG:
		c.writeSized(mem, loc, width, c.neg(v, width))
	case group4NOT:
		c.writeSized(mem, loc, width, c.not(v, width))
	}
}

func (c *CPU) execNbcdEA(mem *memory.Memory) {
	eaField := c.opcode & 0x3F
	loc := c.resolveEA(mem, eaField, 1, true)
	v := uint8(c.readSized(mem, loc, 1))
	c.writeSized(mem, loc, 1, uint32(c.nbcd(v)))
	c.trace.opDst(loc.text(1))
}

// dispatchGroup5 is ADDQ/SUBQ, and — when the size field reads 11 —
// DBcc (destination an address register) or Scc (any other mode).
func (c *CPU) dispatchGroup5(mem *memory.Memory, op uint16) {
	sizeBits := (op >> 6) & 3
	if sizeBits == 3 {
		mode := (op >> 3) & 7
		if mode == modeAddrReg {
			c.trace.opMnemonic("dbcc")
			c.execDbcc(mem)
		} else {
			c.trace.opMnemonic("scc")
			c.execScc(mem)
		}
		return
	}

	width := sizeField2(sizeBits)
	imm := uint32((op >> 9) & 7)
	if imm == 0 {
		imm = 8
	}
	isAdd := op&0x0100 == 0

	eaField := op & 0x3F
	loc := c.resolveEA(mem, eaField, width, true)
	immText := fmt.Sprintf("#%d", imm)

	if loc.IsAddrReg() {
		// ADDQ/SUBQ to An affects the full 32-bit register and never
		// touches the flags.
		v := c.A(int(loc.n))
		if isAdd {
			c.trace.opMnemonic("addq")
			c.SetA(int(loc.n), v+imm)
		} else {
			c.trace.opMnemonic("subq")
			c.SetA(int(loc.n), v-imm)
		}
		c.trace.opSrc(immText)
		c.trace.opDst(loc.text(4))
		return
	}

	v := c.readSized(mem, loc, width)
	c.trace.opSrc(immText)
	c.trace.opDst(loc.text(width))
	if isAdd {
		c.trace.opMnemonic("addq")
		c.writeSized(mem, loc, width, c.add(v, imm, width))
	} else {
		c.trace.opMnemonic("subq")
		c.writeSized(mem, loc, width, c.sub(v, imm, width))
	}
}

// dispatchGroup8 is the OR family: OR in both directions, DIVU/DIVS
// by op-mode, and SBCD when the op-mode/mode combination selects the
// register or memory extended form.
func (c *CPU) dispatchGroup8(mem *memory.Memory, op uint16) {
	opmode := (op >> 6) & 7
	reg := int((op >> 9) & 7)
	eaField := op & 0x3F

	switch opmode {
	case 3:
		c.trace.opMnemonic("divu")
		c.execDivu(mem)
	case 7:
		c.trace.opMnemonic("divs")
		c.execDivs(mem)
	case 4:
		mode := (eaField >> 3) & 7
		if mode == modeDataReg || mode == modeAddrReg {
			c.trace.opMnemonic("sbcd")
			c.execSbcdOrAbcd(mem, false)
			return
		}
		c.execOrToEA(mem, reg, eaField, 1)
	case 5:
		c.execOrToEA(mem, reg, eaField, 2)
	case 6:
		c.execOrToEA(mem, reg, eaField, 4)
	case 0, 1, 2:
		width := sizeField2(uint16(opmode))
		c.trace.opMnemonic("or")
		loc := c.resolveEA(mem, eaField, width, false)
		src := c.readSized(mem, loc, width)
		c.d[reg] = (c.d[reg] &^ widthMask(width)) | c.or(c.d[reg], src, width)
		c.trace.opSrc(loc.text(width))
		c.trace.opDst(dregText(uint16(reg)))
	}
}

func (c *CPU) execOrToEA(mem *memory.Memory, reg int, eaField uint16, width int) {
	c.trace.opMnemonic("or")
	loc := c.resolveEA(mem, eaField, width, true)
	v := c.readSized(mem, loc, width)
	c.trace.opSrc(dregText(uint16(reg)))
	c.trace.opDst(loc.text(width))
	c.writeSized(mem, loc, width, c.or(v, c.d[reg], width))
}

func (c *CPU) execSbcdOrAbcd(mem *memory.Memory, isAbcd bool) {
	eaField := c.opcode & 0x3F
	mode := (eaField >> 3) & 7
	srcReg := eaField & 7
	dstReg := (c.opcode >> 9) & 7

	if mode == modeAddrReg {
		srcLoc := c.resolveEA(mem, (uint16(modeIndirectPreDec)<<3)|srcReg, 1, false)
		dstLoc := c.resolveEA(mem, (uint16(modeIndirectPreDec)<<3)|dstReg, 1, true)
		src := uint8(c.readSized(mem, srcLoc, 1))
		dst := uint8(c.readSized(mem, dstLoc, 1))
		var result uint8
		if isAbcd {
			result = c.abcd(src, dst)
		} else {
			result = c.sbcd(src, dst)
		}
		c.writeSized(mem, dstLoc, 1, uint32(result))
		c.trace.opSrc(srcLoc.text(1))
		c.trace.opDst(dstLoc.text(1))
		return
	}

	src := uint8(c.d[srcReg])
	dst := uint8(c.d[dstReg])
	var result uint8
	if isAbcd {
		result = c.abcd(src, dst)
	} else {
		result = c.sbcd(src, dst)
	}
	c.d[dstReg] = (c.d[dstReg] &^ 0xFF) | uint32(result)
	c.trace.opSrc(dregText(srcReg))
	c.trace.opDst(dregText(dstReg))
}

// dispatchGroup9or13 covers SUB/SUBA/SUBX (top nibble 1001) and
// ADD/ADDA/ADDX (top nibble 1101), which share an identical op-mode
// layout differing only in which kernel runs.
func (c *CPU) dispatchGroup9or13(mem *memory.Memory, op uint16, isSub bool) {
	opmode := (op >> 6) & 7
	reg := int((op >> 9) & 7)
	eaField := op & 0x3F

	mnemonic := "add"
	if isSub {
		mnemonic = "sub"
	}

	switch opmode {
	case 3, 7: // ADDA/SUBA: word (sign-extended) or long
		width := 2
		if opmode == 7 {
			width = 4
		}
		c.trace.opMnemonic(mnemonic + "a")
		loc := c.resolveEA(mem, eaField, width, false)
		v := c.readSized(mem, loc, width)
		v = signExtend(v, width)
		a := c.A(reg)
		if isSub {
			c.SetA(reg, a-v)
		} else {
			c.SetA(reg, a+v)
		}
		c.trace.opSrc(loc.text(width))
		c.trace.opDst(aregText(uint16(reg)))

	case 0, 1, 2: // <ea> + Dn -> Dn
		width := sizeField2(uint16(opmode))
		c.trace.opMnemonic(mnemonic)
		loc := c.resolveEA(mem, eaField, width, false)
		src := c.readSized(mem, loc, width)
		var result uint32
		if isSub {
			result = c.sub(c.d[reg], src, width)
		} else {
			result = c.add(c.d[reg], src, width)
		}
		c.d[reg] = (c.d[reg] &^ widthMask(width)) | result
		c.trace.opSrc(loc.text(width))
		c.trace.opDst(dregText(uint16(reg)))

	case 4, 5, 6: // Dn -> <ea>, or ADDX/SUBX when <ea> is Dn/An
		width := sizeField2(uint16(opmode - 4))
		mode := (eaField >> 3) & 7
		if mode == modeDataReg || mode == modeAddrReg {
			c.execXChain(mem, isSub, mode, eaField, reg, width)
			return
		}
		c.trace.opMnemonic(mnemonic)
		loc := c.resolveEA(mem, eaField, width, true)
		v := c.readSized(mem, loc, width)
		var result uint32
		if isSub {
			result = c.sub(v, c.d[reg], width)
		} else {
			result = c.add(v, c.d[reg], width)
		}
		c.writeSized(mem, loc, width, result)
		c.trace.opSrc(dregText(uint16(reg)))
		c.trace.opDst(loc.text(width))
	}
}

// execXChain implements ADDX/SUBX Dy,Dx or -(Ay),-(Ax).
func (c *CPU) execXChain(mem *memory.Memory, isSub bool, mode uint16, eaField uint16, dstReg int, width int) {
	srcReg := eaField & 7
	mnemonic := "addx"
	if isSub {
		mnemonic = "subx"
	}
	c.trace.opMnemonic(mnemonic)

	if mode == modeAddrReg {
		srcLoc := c.resolveEA(mem, (uint16(modeIndirectPreDec)<<3)|srcReg, width, false)
		dstLoc := c.resolveEA(mem, (uint16(modeIndirectPreDec)<<3)|uint16(dstReg), width, true)
		src := c.readSized(mem, srcLoc, width)
		dst := c.readSized(mem, dstLoc, width)
		var result uint32
		if isSub {
			result = c.subx(dst, src, width)
		} else {
			result = c.addx(dst, src, width)
		}
		c.writeSized(mem, dstLoc, width, result)
		c.trace.opSrc(srcLoc.text(width))
		c.trace.opDst(dstLoc.text(width))
		return
	}

	src := c.readSized(mem, DataReg(uint32(srcReg)), width)
	dst := c.d[dstReg]
	var result uint32
	if isSub {
		result = c.subx(dst, src, width)
	} else {
		result = c.addx(dst, src, width)
	}
	c.d[dstReg] = (c.d[dstReg] &^ widthMask(width)) | result
	c.trace.opSrc(dregText(srcReg))
	c.trace.opDst(dregText(uint16(dstReg)))
}

// dispatchGroupB is CMP/CMPA/CMPM/EOR.
func (c *CPU) dispatchGroupB(mem *memory.Memory, op uint16) {
	opmode := (op >> 6) & 7
	reg := int((op >> 9) & 7)
	eaField := op & 0x3F

	switch opmode {
	case 3, 7:
		width := 2
		if opmode == 7 {
			width = 4
		}
		c.trace.opMnemonic("cmpa")
		loc := c.resolveEA(mem, eaField, width, false)
		v := signExtend(c.readSized(mem, loc, width), width)
		c.cmp(c.A(reg), v, 4)
		c.trace.opSrc(loc.text(width))
		c.trace.opDst(aregText(uint16(reg)))
	case 0, 1, 2:
		width := sizeField2(uint16(opmode))
		c.trace.opMnemonic("cmp")
		loc := c.resolveEA(mem, eaField, width, false)
		v := c.readSized(mem, loc, width)
		c.cmp(c.d[reg], v, width)
		c.trace.opSrc(loc.text(width))
		c.trace.opDst(dregText(uint16(reg)))
	case 4, 5, 6:
		width := sizeField2(uint16(opmode - 4))
		mode := (eaField >> 3) & 7
		if mode == modeAddrReg {
			// CMPM (Ay)+,(Ax)+
			c.trace.opMnemonic("cmpm")
			srcReg := eaField & 7
			srcLoc := c.resolveEA(mem, (uint16(modeIndirectPostInc)<<3)|srcReg, width, false)
			dstLoc := c.resolveEA(mem, (uint16(modeIndirectPostInc)<<3)|uint16(reg), width, false)
			src := c.readSized(mem, srcLoc, width)
			dst := c.readSized(mem, dstLoc, width)
			c.cmp(dst, src, width)
			c.trace.opSrc(srcLoc.text(width))
			c.trace.opDst(dstLoc.text(width))
			return
		}
		c.trace.opMnemonic("eor")
		loc := c.resolveEA(mem, eaField, width, true)
		v := c.readSized(mem, loc, width)
		c.writeSized(mem, loc, width, c.eor(v, c.d[reg], width))
		c.trace.opSrc(dregText(uint16(reg)))
		c.trace.opDst(loc.text(width))
	}
}

// dispatchGroupC is the AND family: AND in both directions, MULU/MULS
// by op-mode, and ABCD/EXG for the overloaded register forms.
func (c *CPU) dispatchGroupC(mem *memory.Memory, op uint16) {
	opmode := (op >> 6) & 7
	reg := int((op >> 9) & 7)
	eaField := op & 0x3F

	switch opmode {
	case 3:
		c.trace.opMnemonic("mulu")
		c.execMulu(mem)
	case 7:
		c.trace.opMnemonic("muls")
		c.execMuls(mem)
	case 4:
		mode := (eaField >> 3) & 7
		if mode == modeDataReg || mode == modeAddrReg {
			c.trace.opMnemonic("abcd")
			c.execSbcdOrAbcd(mem, true)
			return
		}
		c.execAndToEA(mem, reg, eaField, 1)
	case 5:
		if (op>>3)&7 == modeAddrReg || (op>>3)&7 == modeDataReg {
			c.trace.opMnemonic("exg")
			c.execExg(mem)
			return
		}
		c.execAndToEA(mem, reg, eaField, 2)
	case 6:
		if (op>>3)&7 == modeAddrReg {
			c.trace.opMnemonic("exg")
			c.execExg(mem)
			return
		}
		c.execAndToEA(mem, reg, eaField, 4)
	case 0, 1, 2:
		width := sizeField2(uint16(opmode))
		c.trace.opMnemonic("and")
		loc := c.resolveEA(mem, eaField, width, false)
		src := c.readSized(mem, loc, width)
		c.d[reg] = (c.d[reg] &^ widthMask(width)) | c.and(c.d[reg], src, width)
		c.trace.opSrc(loc.text(width))
		c.trace.opDst(dregText(uint16(reg)))
	}
}

func (c *CPU) execAndToEA(mem *memory.Memory, reg int, eaField uint16, width int) {
	c.trace.opMnemonic("and")
	loc := c.resolveEA(mem, eaField, width, true)
	v := c.readSized(mem, loc, width)
	c.trace.opSrc(dregText(uint16(reg)))
	c.trace.opDst(loc.text(width))
	c.writeSized(mem, loc, width, c.and(v, c.d[reg], width))
}

// dispatchGroupE is shifts and rotates: a memory form (single word at
// <ea>, always ASL/LSL/ROXL/ROL-or-right by the direction bit when
// size field reads 11) and a register form selecting among the eight
// kinds by two bits, with the count either an immediate 1..8 or Dn
// mod 64.
func (c *CPU) dispatchGroupE(mem *memory.Memory, op uint16) {
	sizeBits := (op >> 6) & 3
	if sizeBits == 3 {
		dir := op & 0x0100 != 0 // 1 = left
		typ := (op >> 9) & 3
		eaField := op & 0x3F
		loc := c.resolveEA(mem, eaField, 2, true)
		v := c.readSized(mem, loc, 2)
		kind := memShiftKind(typ, dir)
		c.trace.opMnemonic(shiftName(kind))
		c.writeSized(mem, loc, 2, c.shift(kind, v, 1, 2))
		c.trace.opSrc("#1")
		c.trace.opDst(loc.text(2))
		return
	}

	width := sizeField2(sizeBits)
	dir := op&0x0100 != 0
	typ := (op >> 3) & 3
	reg := op & 7
	kind := memShiftKind(typ, dir)
	c.trace.opMnemonic(shiftName(kind))

	var count int
	var countText string
	if op&0x20 != 0 {
		countReg := (op >> 9) & 7
		count = int(c.d[countReg] % 64)
		countText = dregText(countReg)
	} else {
		count = int((op >> 9) & 7)
		if count == 0 {
			count = 8
		}
		countText = fmt.Sprintf("#%d", count)
	}
	c.trace.opSrc(countText)
	c.trace.opDst(dregText(reg))

	c.d[reg] = (c.d[reg] &^ widthMask(width)) | c.shift(kind, c.d[reg], count, width)
}

func memShiftKind(typ uint16, left bool) shiftKind {
	switch typ {
	case 0:
		if left {
			return shiftASL
		}
		return shiftASR
	case 1:
		if left {
			return shiftLSL
		}
		return shiftLSR
	case 2:
		if left {
			return shiftROXL
		}
		return shiftROXR
	default:
		if left {
			return shiftROL
		}
		return shiftROR
	}
}

func shiftName(k shiftKind) string {
	switch k {
	case shiftASL:
		return "asl"
	case shiftASR:
		return "asr"
	case shiftLSL:
		return "lsl"
	case shiftLSR:
		return "lsr"
	case shiftROL:
		return "rol"
	case shiftROR:
		return "ror"
	case shiftROXL:
		return "roxl"
	default:
		return "roxr"
	}
}
