// Package cpu implements the Sharp SM83 core: register file, decoder,
// executor, interrupt dispatch, and the HALT/STOP states, advanced one
// instruction at a time via Step.
package cpu

import (
	"fmt"

	"github.com/kaelbrook/gbcore/internal/mmu"
)

// Model selects the console variant being emulated. It only affects the
// post-boot register values and the CGB flag the façade exposes; the pixel
// pipeline stays in DMG mode either way.
type Model int

const (
	ModelDMG Model = iota
	ModelCGB
)

// Status is the outcome of one Step call, reported up to the core façade.
type Status int

const (
	// StatusRun means execution may continue normally.
	StatusRun Status = iota
	// StatusBreak accompanies every non-nil Step error: a strict-mode
	// uninitialized read (recoverable; the caller may resume) or an
	// undefined opcode (fatal).
	StatusBreak
	// StatusStop means the CPU executed STOP and is waiting for a button press.
	StatusStop
)

// DecodeError reports an opcode with no defined behavior on the SM83.
type DecodeError struct {
	Opcode byte
	PC     uint16
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("undefined opcode %#02x at pc=%#04x", e.Opcode, e.PC)
}

// Regs is the SM83 register file. The four flag bits live as booleans and
// are only packed into the architectural F byte on demand, which keeps F's
// low nibble zero by construction.
type Regs struct {
	A, B, C, D, E, H, L byte
	ZF, NF, HF, CF      bool
	SP, PC              uint16
}

// F packs the flag booleans into the architectural flag byte.
func (r *Regs) F() byte {
	var f byte
	if r.ZF {
		f |= 0x80
	}
	if r.NF {
		f |= 0x40
	}
	if r.HF {
		f |= 0x20
	}
	if r.CF {
		f |= 0x10
	}
	return f
}

// SetF unpacks an F byte into the flag booleans; the low nibble is
// discarded, which is what makes POP AF mask it.
func (r *Regs) SetF(v byte) {
	r.ZF = v&0x80 != 0
	r.NF = v&0x40 != 0
	r.HF = v&0x20 != 0
	r.CF = v&0x10 != 0
}

func (r *Regs) BC() uint16     { return uint16(r.B)<<8 | uint16(r.C) }
func (r *Regs) SetBC(v uint16) { r.B, r.C = byte(v>>8), byte(v) }
func (r *Regs) DE() uint16     { return uint16(r.D)<<8 | uint16(r.E) }
func (r *Regs) SetDE(v uint16) { r.D, r.E = byte(v>>8), byte(v) }
func (r *Regs) HL() uint16     { return uint16(r.H)<<8 | uint16(r.L) }
func (r *Regs) SetHL(v uint16) { r.H, r.L = byte(v>>8), byte(v) }
func (r *Regs) AF() uint16     { return uint16(r.A)<<8 | uint16(r.F()) }
func (r *Regs) SetAF(v uint16) { r.A = byte(v >> 8); r.SetF(byte(v)) }

// CPU drives the register file against a bus.
type CPU struct {
	Regs

	IME     bool
	halted  bool
	stopped bool
	// EI enables IME only after the following instruction completes.
	eiPending bool
	// The byte after a buggy HALT is fetched without advancing PC, so it
	// executes twice.
	haltBug bool

	stepErr error

	model Model
	bus   *mmu.Bus
}

// New creates a CPU in pre-boot state (PC=0, SP=0xFFFE), ready to run a
// boot ROM. Call ResetNoBoot to skip straight to post-boot state instead.
func New(b *mmu.Bus) *CPU {
	c := &CPU{bus: b}
	c.SP = 0xFFFE
	return c
}

// SetPC allows tests or a boot stub to set the program counter.
func (c *CPU) SetPC(pc uint16) { c.PC = pc }

// SetModel selects the console variant; call before ResetNoBoot.
func (c *CPU) SetModel(m Model) { c.model = m }

// Model reports the console variant this CPU was configured as.
func (c *CPU) Model() Model { return c.model }

// Bus exposes the underlying bus for tests/tools.
func (c *CPU) Bus() *mmu.Bus { return c.bus }

// ResetNoBoot sets registers to the documented post-boot values for the
// configured model, for running without a boot ROM.
func (c *CPU) ResetNoBoot() {
	c.A = 0x01
	if c.model == ModelCGB {
		c.A = 0x11
	}
	c.SetF(0xB0)
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.IME = false
	c.halted = false
	c.stopped = false
	c.eiPending = false
	c.haltBug = false
}

// bus access; reads surface strict-mode errors into stepErr

func (c *CPU) read8(addr uint16) byte {
	v := c.bus.Read(addr)
	if c.stepErr == nil {
		if err := c.bus.TakeError(); err != nil {
			c.stepErr = err
		}
	}
	return v
}

func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | hi<<8
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | hi<<8
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// get8/set8 resolve a Reg8 selector; RHLInd is a bus access.

func (c *CPU) get8(r Reg8) byte {
	switch r {
	case RB:
		return c.B
	case RC:
		return c.C
	case RD:
		return c.D
	case RE:
		return c.E
	case RH:
		return c.H
	case RL:
		return c.L
	case RHLInd:
		return c.read8(c.HL())
	default:
		return c.A
	}
}

func (c *CPU) set8(r Reg8, v byte) {
	switch r {
	case RB:
		c.B = v
	case RC:
		c.C = v
	case RD:
		c.D = v
	case RE:
		c.E = v
	case RH:
		c.H = v
	case RL:
		c.L = v
	case RHLInd:
		c.write8(c.HL(), v)
	default:
		c.A = v
	}
}

func (c *CPU) get16(rr Reg16) uint16 {
	switch rr {
	case RBC:
		return c.BC()
	case RDE:
		return c.DE()
	case RHL:
		return c.HL()
	case RAF:
		return c.AF()
	default:
		return c.SP
	}
}

func (c *CPU) set16(rr Reg16, v uint16) {
	switch rr {
	case RBC:
		c.SetBC(v)
	case RDE:
		c.SetDE(v)
	case RHL:
		c.SetHL(v)
	case RAF:
		c.SetAF(v)
	default:
		c.SP = v
	}
}

func (c *CPU) cond(cc Cond) bool {
	switch cc {
	case CondNZ:
		return !c.ZF
	case CondZ:
		return c.ZF
	case CondNC:
		return !c.CF
	case CondC:
		return c.CF
	default:
		return true
	}
}

// Step executes one instruction (or one M-cycle of HALT/STOP sleep, or one
// interrupt dispatch), ticks the bus for the cycles consumed, and reports
// the resulting status. err is non-nil on an undefined opcode (DecodeError,
// fatal) or, in strict mode, a read of a never-written WRAM/HRAM cell
// (UninitReadError, recoverable).
func (c *CPU) Step() (cycles int, status Status, err error) {
	c.stepErr = nil

	if c.stopped {
		if c.bus.Read(0xFF0F)&(1<<4) != 0 {
			c.stopped = false
		} else {
			c.bus.Tick(4)
			return 4, StatusStop, nil
		}
	}

	// EI enables IME only after the instruction following it completes, so
	// latch the pending flag before executing: if it was already set going
	// in (and this instruction didn't cancel it), commit it afterwards.
	applyEI := c.eiPending
	cycles = c.step()
	if cycles > 0 {
		c.bus.Tick(cycles)
	}
	if applyEI && c.eiPending {
		c.IME = true
		c.eiPending = false
	}

	if c.stepErr != nil {
		return cycles, StatusBreak, c.stepErr
	}
	if c.stopped {
		return cycles, StatusStop, nil
	}
	return cycles, StatusRun, nil
}

// serviceInterrupt dispatches the highest-priority pending interrupt if any
// bit is set in IF∧IE, returning the cycles consumed (0 when nothing fired).
// Priority runs VBlank, STAT, Timer, Serial, Joypad, lowest bit first.
func (c *CPU) serviceInterrupt() int {
	pending := c.bus.Read(0xFFFF) & c.bus.Read(0xFF0F) & 0x1F
	if pending == 0 {
		return 0
	}
	var bit uint
	for bit = 0; bit < 5; bit++ {
		if pending&(1<<bit) != 0 {
			break
		}
	}
	c.bus.Write(0xFF0F, c.bus.Read(0xFF0F)&^(1<<bit)&0x1F)
	c.halted = false
	c.IME = false
	c.push16(c.PC)
	c.PC = 0x0040 + uint16(bit)*8
	return 20 // 5 M-cycles
}

// step runs exactly one instruction, one interrupt dispatch, or one halted
// M-cycle, returning the T-cycles consumed.
func (c *CPU) step() int {
	if c.halted {
		if c.IME {
			if cyc := c.serviceInterrupt(); cyc != 0 {
				return cyc
			}
			// Nothing pending: stay halted and sleep one M-cycle.
			return 4
		}
		if c.bus.Read(0xFFFF)&c.bus.Read(0xFF0F)&0x1F != 0 {
			// Pending interrupt with IME off wakes the CPU without a dispatch.
			c.halted = false
		} else {
			return 4
		}
	}

	if c.IME {
		if cyc := c.serviceInterrupt(); cyc != 0 {
			return cyc
		}
	}

	op := c.fetch8()
	if c.haltBug {
		c.haltBug = false
		c.PC--
	}

	if op == 0xCB {
		return c.execCB(DecodeCB(c.fetch8()))
	}
	in, ok := Decode(op)
	if !ok {
		c.stepErr = &DecodeError{Opcode: op, PC: c.PC - 1}
		return 4
	}
	return c.exec(in)
}

// exec dispatches one decoded unprefixed instruction and returns its
// T-cycle cost, following the canonical SM83 timing table.
func (c *CPU) exec(in Instr) int {
	switch in.Op {
	case OpNop:
		return 4

	case OpHalt:
		if !c.IME && c.bus.Read(0xFFFF)&c.bus.Read(0xFF0F)&0x1F != 0 {
			// IME off with an interrupt already pending: the CPU never
			// actually halts, and the following byte executes twice.
			c.haltBug = true
		} else {
			c.halted = true
		}
		return 4

	case OpStop:
		c.bus.ResetDivider()
		c.stopped = true
		return 4

	case OpDI:
		c.IME = false
		c.eiPending = false
		return 4
	case OpEI:
		c.eiPending = true
		return 4

	case OpLd:
		if in.SrcImm {
			c.set8(in.Dst, c.fetch8())
			if in.Dst == RHLInd {
				return 12
			}
			return 8
		}
		c.set8(in.Dst, c.get8(in.Src))
		if in.Dst == RHLInd || in.Src == RHLInd {
			return 8
		}
		return 4

	case OpLdBCIndA:
		c.write8(c.BC(), c.A)
		return 8
	case OpLdABCInd:
		c.A = c.read8(c.BC())
		return 8
	case OpLdDEIndA:
		c.write8(c.DE(), c.A)
		return 8
	case OpLdADEInd:
		c.A = c.read8(c.DE())
		return 8
	case OpLdHLIncA:
		c.write8(c.HL(), c.A)
		c.SetHL(c.HL() + 1)
		return 8
	case OpLdAHLInc:
		c.A = c.read8(c.HL())
		c.SetHL(c.HL() + 1)
		return 8
	case OpLdHLDecA:
		c.write8(c.HL(), c.A)
		c.SetHL(c.HL() - 1)
		return 8
	case OpLdAHLDec:
		c.A = c.read8(c.HL())
		c.SetHL(c.HL() - 1)
		return 8

	case OpLdAbsA:
		c.write8(c.fetch16(), c.A)
		return 16
	case OpLdAAbs:
		c.A = c.read8(c.fetch16())
		return 16
	case OpLdhImmA:
		c.write8(0xFF00+uint16(c.fetch8()), c.A)
		return 12
	case OpLdhAImm:
		c.A = c.read8(0xFF00 + uint16(c.fetch8()))
		return 12
	case OpLdhCA:
		c.write8(0xFF00+uint16(c.C), c.A)
		return 8
	case OpLdhAC:
		c.A = c.read8(0xFF00 + uint16(c.C))
		return 8

	case OpLd16:
		c.set16(in.RR, c.fetch16())
		return 12
	case OpStSP:
		c.write16(c.fetch16(), c.SP)
		return 20
	case OpLdSPHL:
		c.SP = c.HL()
		return 8
	case OpLdHLSPOff:
		c.SetHL(c.spOffset(c.fetch8()))
		return 12
	case OpAddSP:
		c.SP = c.spOffset(c.fetch8())
		return 16

	case OpAdd, OpAdc, OpSub, OpSbc, OpAnd, OpXor, OpOr, OpCp:
		var v byte
		cost := 4
		if in.SrcImm {
			v = c.fetch8()
			cost = 8
		} else {
			v = c.get8(in.Src)
			if in.Src == RHLInd {
				cost = 8
			}
		}
		c.alu(in.Op, v)
		return cost

	case OpInc:
		v := c.get8(in.Dst)
		r := v + 1
		c.set8(in.Dst, r)
		c.ZF = r == 0
		c.NF = false
		c.HF = v&0x0F == 0x0F
		if in.Dst == RHLInd {
			return 12
		}
		return 4
	case OpDec:
		v := c.get8(in.Dst)
		r := v - 1
		c.set8(in.Dst, r)
		c.ZF = r == 0
		c.NF = true
		c.HF = v&0x0F == 0x00
		if in.Dst == RHLInd {
			return 12
		}
		return 4

	case OpRlca:
		out := c.A >> 7
		c.A = c.A<<1 | out
		c.setRotFlags(out)
		return 4
	case OpRrca:
		out := c.A & 1
		c.A = c.A>>1 | out<<7
		c.setRotFlags(out)
		return 4
	case OpRla:
		out := c.A >> 7
		c.A = c.A << 1
		if c.CF {
			c.A |= 1
		}
		c.setRotFlags(out)
		return 4
	case OpRra:
		out := c.A & 1
		c.A = c.A >> 1
		if c.CF {
			c.A |= 0x80
		}
		c.setRotFlags(out)
		return 4

	case OpDaa:
		c.daa()
		return 4
	case OpCpl:
		c.A = ^c.A
		c.NF = true
		c.HF = true
		return 4
	case OpScf:
		c.NF = false
		c.HF = false
		c.CF = true
		return 4
	case OpCcf:
		c.NF = false
		c.HF = false
		c.CF = !c.CF
		return 4

	case OpInc16:
		c.set16(in.RR, c.get16(in.RR)+1)
		return 8
	case OpDec16:
		c.set16(in.RR, c.get16(in.RR)-1)
		return 8
	case OpAddHL:
		hl := c.HL()
		v := c.get16(in.RR)
		sum := uint32(hl) + uint32(v)
		c.NF = false
		c.HF = hl&0x0FFF+v&0x0FFF > 0x0FFF
		c.CF = sum > 0xFFFF
		c.SetHL(uint16(sum))
		return 8

	case OpPush:
		c.push16(c.get16(in.RR))
		return 16
	case OpPop:
		c.set16(in.RR, c.pop16())
		return 12

	case OpJp:
		target := c.fetch16()
		if c.cond(in.Cond) {
			c.PC = target
			return 16
		}
		return 12
	case OpJpHL:
		c.PC = c.HL()
		return 4
	case OpJr:
		off := int8(c.fetch8())
		if c.cond(in.Cond) {
			c.PC = uint16(int32(c.PC) + int32(off))
			return 12
		}
		return 8
	case OpCall:
		target := c.fetch16()
		if c.cond(in.Cond) {
			c.push16(c.PC)
			c.PC = target
			return 24
		}
		return 12
	case OpRet:
		if in.Cond == CondAlways {
			c.PC = c.pop16()
			return 16
		}
		if c.cond(in.Cond) {
			c.PC = c.pop16()
			return 20
		}
		return 8
	case OpReti:
		c.PC = c.pop16()
		c.IME = true
		return 16
	case OpRst:
		c.push16(c.PC)
		c.PC = uint16(in.Bit) * 8
		return 16
	}
	return 4
}

// execCB dispatches one CB-plane instruction.
func (c *CPU) execCB(in Instr) int {
	cost := 8
	if in.Dst == RHLInd {
		cost = 16
	}
	switch in.Op {
	case OpBit:
		v := c.get8(in.Dst)
		c.ZF = v&(1<<in.Bit) == 0
		c.NF = false
		c.HF = true
		if in.Dst == RHLInd {
			return 12
		}
		return 8
	case OpRes:
		c.set8(in.Dst, c.get8(in.Dst)&^(1<<in.Bit))
		return cost
	case OpSet:
		c.set8(in.Dst, c.get8(in.Dst)|1<<in.Bit)
		return cost
	}

	v := c.get8(in.Dst)
	var out byte
	switch in.Op {
	case OpRlc:
		out = v >> 7
		v = v<<1 | out
	case OpRrc:
		out = v & 1
		v = v>>1 | out<<7
	case OpRl:
		out = v >> 7
		v <<= 1
		if c.CF {
			v |= 1
		}
	case OpRr:
		out = v & 1
		v >>= 1
		if c.CF {
			v |= 0x80
		}
	case OpSla:
		out = v >> 7
		v <<= 1
	case OpSra:
		out = v & 1
		v = v>>1 | v&0x80
	case OpSwap:
		v = v<<4 | v>>4
	case OpSrl:
		out = v & 1
		v >>= 1
	}
	c.set8(in.Dst, v)
	c.ZF = v == 0
	c.NF = false
	c.HF = false
	c.CF = out != 0
	return cost
}

// alu applies an 8-bit ALU operation between A and v, leaving the result in
// A (except CP) and the flags per the SM83 rules.
func (c *CPU) alu(op Op, v byte) {
	a := c.A
	switch op {
	case OpAdd:
		sum := uint16(a) + uint16(v)
		c.A = byte(sum)
		c.ZF = c.A == 0
		c.NF = false
		c.HF = a&0x0F+v&0x0F > 0x0F
		c.CF = sum > 0xFF
	case OpAdc:
		carry := byte(0)
		if c.CF {
			carry = 1
		}
		sum := uint16(a) + uint16(v) + uint16(carry)
		c.A = byte(sum)
		c.ZF = c.A == 0
		c.NF = false
		c.HF = a&0x0F+v&0x0F+carry > 0x0F
		c.CF = sum > 0xFF
	case OpSub:
		c.A = a - v
		c.ZF = c.A == 0
		c.NF = true
		c.HF = a&0x0F < v&0x0F
		c.CF = a < v
	case OpSbc:
		borrow := byte(0)
		if c.CF {
			borrow = 1
		}
		c.A = a - v - borrow
		c.ZF = c.A == 0
		c.NF = true
		c.HF = a&0x0F < v&0x0F+borrow
		c.CF = uint16(a) < uint16(v)+uint16(borrow)
	case OpAnd:
		c.A = a & v
		c.ZF = c.A == 0
		c.NF = false
		c.HF = true
		c.CF = false
	case OpXor:
		c.A = a ^ v
		c.ZF = c.A == 0
		c.NF = false
		c.HF = false
		c.CF = false
	case OpOr:
		c.A = a | v
		c.ZF = c.A == 0
		c.NF = false
		c.HF = false
		c.CF = false
	case OpCp:
		r := a - v
		c.ZF = r == 0
		c.NF = true
		c.HF = a&0x0F < v&0x0F
		c.CF = a < v
	}
}

// spOffset computes SP+s8 with the ADD SP,s8 / LD HL,SP+s8 flag rules: Z and
// N clear, H and C from the unsigned low-byte addition.
func (c *CPU) spOffset(raw byte) uint16 {
	off := int8(raw)
	c.ZF = false
	c.NF = false
	c.HF = byte(c.SP)&0x0F+raw&0x0F > 0x0F
	c.CF = uint16(byte(c.SP))+uint16(raw) > 0xFF
	return uint16(int32(c.SP) + int32(off))
}

func (c *CPU) setRotFlags(out byte) {
	c.ZF = false
	c.NF = false
	c.HF = false
	c.CF = out != 0
}

// daa adjusts A back into packed BCD after an addition or subtraction,
// steered by the N, H and C flags.
func (c *CPU) daa() {
	a := c.A
	if !c.NF {
		if c.CF || a > 0x99 {
			a += 0x60
			c.CF = true
		}
		if c.HF || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if c.CF {
			a -= 0x60
		}
		if c.HF {
			a -= 0x06
		}
	}
	c.A = a
	c.ZF = a == 0
	c.HF = false
}
