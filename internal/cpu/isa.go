package cpu

import "fmt"

// The decoder collapses the SM83's 256-entry opcode matrix (and the
// CB-prefixed second plane) into Instr values: an operation tag plus operand
// selectors. Execution dispatches on the tag and looks registers up through
// the selector, so there is one code path per operation class rather than
// one per opcode byte.

// Reg8 selects an 8-bit operand. The ordinals follow the hardware's own
// 3-bit register encoding, with 6 meaning the byte addressed by HL.
type Reg8 int

const (
	RB Reg8 = iota
	RC
	RD
	RE
	RH
	RL
	RHLInd
	RA
	RNone Reg8 = -1
)

// Reg16 selects a register pair.
type Reg16 int

const (
	RBC Reg16 = iota
	RDE
	RHL
	RSP
	RAF
	RRNone Reg16 = -1
)

// Cond is a branch condition.
type Cond int

const (
	CondAlways Cond = iota
	CondNZ
	CondZ
	CondNC
	CondC
)

// Op tags an operation class.
type Op int

const (
	OpNop Op = iota
	OpHalt
	OpStop
	OpDI
	OpEI

	// 8-bit moves. Src/Dst select registers or (HL); SrcImm pulls the
	// source from an immediate byte instead.
	OpLd
	OpLdBCIndA // (BC) <- A
	OpLdABCInd
	OpLdDEIndA
	OpLdADEInd
	OpLdHLIncA // (HL+) <- A
	OpLdAHLInc
	OpLdHLDecA
	OpLdAHLDec
	OpLdAbsA // (a16) <- A
	OpLdAAbs
	OpLdhImmA // (FF00+a8) <- A
	OpLdhAImm
	OpLdhCA // (FF00+C) <- A
	OpLdhAC

	// 16-bit moves
	OpLd16  // rr <- d16
	OpStSP  // (a16) <- SP
	OpLdSPHL
	OpLdHLSPOff // HL <- SP+s8

	// 8-bit ALU against A (source in Src / immediate when SrcImm)
	OpAdd
	OpAdc
	OpSub
	OpSbc
	OpAnd
	OpXor
	OpOr
	OpCp

	OpInc
	OpDec

	// accumulator rotates
	OpRlca
	OpRrca
	OpRla
	OpRra

	OpDaa
	OpCpl
	OpScf
	OpCcf

	// 16-bit arithmetic
	OpInc16
	OpDec16
	OpAddHL
	OpAddSP

	OpPush
	OpPop

	// control flow
	OpJp
	OpJpHL
	OpJr
	OpCall
	OpRet
	OpReti
	OpRst

	// CB plane
	OpRlc
	OpRrc
	OpRl
	OpRr
	OpSla
	OpSra
	OpSwap
	OpSrl
	OpBit
	OpRes
	OpSet
)

// Instr is one decoded instruction: the operation class plus whatever
// operand selectors that class consumes. Immediate bytes are not part of
// the Instr; the executor fetches them, which is also what advances PC by
// the instruction's length.
type Instr struct {
	Op     Op
	Dst    Reg8
	Src    Reg8
	SrcImm bool
	RR     Reg16
	Cond   Cond
	Bit    byte // CB bit index, or the RST slot (vector = slot*8)
}

// Decode maps an unprefixed opcode byte to its instruction. ok is false for
// the SM83's eleven undefined opcodes and for the 0xCB prefix byte; every
// other byte decodes. 0xCB is not handled here — the caller fetches the
// second byte and uses DecodeCB.
func Decode(op byte) (Instr, bool) {
	// Octal field split: xx yyy zzz.
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7

	switch x {
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				return Instr{Op: OpNop}, true
			case 1:
				return Instr{Op: OpStSP}, true
			case 2:
				return Instr{Op: OpStop}, true
			case 3:
				return Instr{Op: OpJr, Cond: CondAlways}, true
			default: // 4..7: JR cc
				return Instr{Op: OpJr, Cond: relCond(y - 4)}, true
			}
		case 1:
			if y&1 == 0 { // LD rr,d16
				return Instr{Op: OpLd16, RR: Reg16(y >> 1)}, true
			}
			return Instr{Op: OpAddHL, RR: Reg16(y >> 1)}, true
		case 2:
			switch y {
			case 0:
				return Instr{Op: OpLdBCIndA}, true
			case 1:
				return Instr{Op: OpLdABCInd}, true
			case 2:
				return Instr{Op: OpLdDEIndA}, true
			case 3:
				return Instr{Op: OpLdADEInd}, true
			case 4:
				return Instr{Op: OpLdHLIncA}, true
			case 5:
				return Instr{Op: OpLdAHLInc}, true
			case 6:
				return Instr{Op: OpLdHLDecA}, true
			default:
				return Instr{Op: OpLdAHLDec}, true
			}
		case 3:
			if y&1 == 0 {
				return Instr{Op: OpInc16, RR: Reg16(y >> 1)}, true
			}
			return Instr{Op: OpDec16, RR: Reg16(y >> 1)}, true
		case 4:
			return Instr{Op: OpInc, Dst: Reg8(y)}, true
		case 5:
			return Instr{Op: OpDec, Dst: Reg8(y)}, true
		case 6:
			return Instr{Op: OpLd, Dst: Reg8(y), SrcImm: true, Src: RNone}, true
		default: // z == 7
			ops := [8]Op{OpRlca, OpRrca, OpRla, OpRra, OpDaa, OpCpl, OpScf, OpCcf}
			return Instr{Op: ops[y]}, true
		}

	case 1:
		if op == 0x76 {
			return Instr{Op: OpHalt}, true
		}
		return Instr{Op: OpLd, Dst: Reg8(y), Src: Reg8(z)}, true

	case 2:
		return Instr{Op: aluOp(y), Src: Reg8(z)}, true

	default: // x == 3
		switch z {
		case 0:
			switch y {
			case 0, 1, 2, 3: // RET cc
				return Instr{Op: OpRet, Cond: relCond(y)}, true
			case 4:
				return Instr{Op: OpLdhImmA}, true
			case 5:
				return Instr{Op: OpAddSP}, true
			case 6:
				return Instr{Op: OpLdhAImm}, true
			default:
				return Instr{Op: OpLdHLSPOff}, true
			}
		case 1:
			if y&1 == 0 { // POP rr
				return Instr{Op: OpPop, RR: popPair(y >> 1)}, true
			}
			switch y >> 1 {
			case 0:
				return Instr{Op: OpRet, Cond: CondAlways}, true
			case 1:
				return Instr{Op: OpReti}, true
			case 2:
				return Instr{Op: OpJpHL}, true
			default:
				return Instr{Op: OpLdSPHL}, true
			}
		case 2:
			switch y {
			case 0, 1, 2, 3: // JP cc,a16
				return Instr{Op: OpJp, Cond: relCond(y)}, true
			case 4:
				return Instr{Op: OpLdhCA}, true
			case 5:
				return Instr{Op: OpLdAbsA}, true
			case 6:
				return Instr{Op: OpLdhAC}, true
			default:
				return Instr{Op: OpLdAAbs}, true
			}
		case 3:
			switch y {
			case 0:
				return Instr{Op: OpJp, Cond: CondAlways}, true
			case 6:
				return Instr{Op: OpDI}, true
			case 7:
				return Instr{Op: OpEI}, true
			default: // 0xD3, 0xE3, 0xDB, 0xEB (and 0xCB, caller-handled)
				return Instr{}, false
			}
		case 4:
			if y < 4 { // CALL cc,a16
				return Instr{Op: OpCall, Cond: relCond(y)}, true
			}
			return Instr{}, false // 0xE4, 0xEC, 0xF4, 0xFC
		case 5:
			if y&1 == 0 { // PUSH rr
				return Instr{Op: OpPush, RR: popPair(y >> 1)}, true
			}
			if y == 1 {
				return Instr{Op: OpCall, Cond: CondAlways}, true
			}
			return Instr{}, false // 0xDD, 0xED, 0xFD
		case 6:
			return Instr{Op: aluOp(y), SrcImm: true, Src: RNone}, true
		default: // z == 7: RST
			return Instr{Op: OpRst, Bit: y}, true
		}
	}
}

// DecodeCB maps the byte following a 0xCB prefix. The CB plane is total:
// every byte is a defined operation.
func DecodeCB(op byte) Instr {
	reg := Reg8(op & 7)
	y := (op >> 3) & 7
	switch op >> 6 {
	case 0:
		ops := [8]Op{OpRlc, OpRrc, OpRl, OpRr, OpSla, OpSra, OpSwap, OpSrl}
		return Instr{Op: ops[y], Dst: reg}
	case 1:
		return Instr{Op: OpBit, Dst: reg, Bit: y}
	case 2:
		return Instr{Op: OpRes, Dst: reg, Bit: y}
	default:
		return Instr{Op: OpSet, Dst: reg, Bit: y}
	}
}

func aluOp(y byte) Op {
	return [8]Op{OpAdd, OpAdc, OpSub, OpSbc, OpAnd, OpXor, OpOr, OpCp}[y]
}

// relCond maps the 2-bit condition field (NZ, Z, NC, C) of conditional
// jumps/calls/returns.
func relCond(y byte) Cond {
	return [4]Cond{CondNZ, CondZ, CondNC, CondC}[y]
}

// popPair maps the PUSH/POP pair field, where slot 3 is AF rather than SP.
func popPair(y byte) Reg16 {
	if y == 3 {
		return RAF
	}
	return Reg16(y)
}

var reg8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
var reg16Names = [5]string{"BC", "DE", "HL", "SP", "AF"}
var condNames = [5]string{"", "NZ", "Z", "NC", "C"}

// Mnemonic renders a compact assembler-style name for trace output.
func (i Instr) Mnemonic() string {
	r8 := func(r Reg8) string {
		if r == RNone {
			return "d8"
		}
		return reg8Names[r]
	}
	switch i.Op {
	case OpNop:
		return "NOP"
	case OpHalt:
		return "HALT"
	case OpStop:
		return "STOP"
	case OpDI:
		return "DI"
	case OpEI:
		return "EI"
	case OpLd:
		return "LD " + r8(i.Dst) + "," + r8(i.Src)
	case OpLd16:
		return "LD " + reg16Names[i.RR] + ",d16"
	case OpAdd, OpAdc, OpSub, OpSbc, OpAnd, OpXor, OpOr, OpCp:
		names := map[Op]string{OpAdd: "ADD", OpAdc: "ADC", OpSub: "SUB", OpSbc: "SBC",
			OpAnd: "AND", OpXor: "XOR", OpOr: "OR", OpCp: "CP"}
		return names[i.Op] + " A," + r8(i.Src)
	case OpInc:
		return "INC " + r8(i.Dst)
	case OpDec:
		return "DEC " + r8(i.Dst)
	case OpJp:
		return "JP " + condNames[i.Cond]
	case OpJr:
		return "JR " + condNames[i.Cond]
	case OpCall:
		return "CALL " + condNames[i.Cond]
	case OpRet:
		return "RET " + condNames[i.Cond]
	case OpRst:
		return fmt.Sprintf("RST %02Xh", i.Bit*8)
	case OpBit:
		return fmt.Sprintf("BIT %d,%s", i.Bit, r8(i.Dst))
	case OpRes:
		return fmt.Sprintf("RES %d,%s", i.Bit, r8(i.Dst))
	case OpSet:
		return fmt.Sprintf("SET %d,%s", i.Bit, r8(i.Dst))
	default:
		return fmt.Sprintf("op#%d", i.Op)
	}
}
