// Package core wires the CPU, MMU and PPU into the single façade the CLI and
// host window drive: load a cartridge, step it, read its framebuffer and
// serial output, and feed it button presses. Nothing outside this package
// (and internal/mmu, internal/cpu, internal/ppu, internal/cart) knows how
// the console is actually put together.
package core

import (
	"fmt"
	"io"

	"github.com/kaelbrook/gbcore/internal/cpu"
	"github.com/kaelbrook/gbcore/internal/mmu"
)

// Button identifies one of the eight Game Boy inputs.
type Button int

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

func (b Button) mask() byte {
	switch b {
	case ButtonRight:
		return mmu.JoypRight
	case ButtonLeft:
		return mmu.JoypLeft
	case ButtonUp:
		return mmu.JoypUp
	case ButtonDown:
		return mmu.JoypDown
	case ButtonA:
		return mmu.JoypA
	case ButtonB:
		return mmu.JoypB
	case ButtonSelect:
		return mmu.JoypSelectBtn
	case ButtonStart:
		return mmu.JoypStart
	}
	return 0
}

// StepStatus is the outcome of a single Step call, re-exported from the CPU
// package so callers never need to import internal/cpu directly.
type StepStatus int

const (
	// Run means execution may continue normally.
	Run StepStatus = iota
	// Break accompanies every non-nil Step error: either debug mode's
	// strict-memory check (*mmu.UninitReadError, recoverable; the caller may
	// inspect state and resume) or an undefined opcode (*cpu.DecodeError,
	// fatal).
	Break
	// Stop means the CPU executed STOP and is waiting for a button press.
	Stop
)

func fromCPUStatus(s cpu.Status) StepStatus {
	switch s {
	case cpu.StatusBreak:
		return Break
	case cpu.StatusStop:
		return Stop
	default:
		return Run
	}
}

// Options configures a new Core. ROM is required; every other field may be
// left at its zero value.
type Options struct {
	// ROM is the cartridge image; required. New rejects images shorter than
	// 0x150 bytes.
	ROM []byte
	// BootROM, if at least 256 bytes, is mapped at 0x0000-0x00FF and run
	// from PC=0 until a write to FF50 disables it. If absent, the CPU and
	// IO registers are initialized directly to documented DMG post-boot
	// values and PC starts at 0x0100.
	BootROM []byte
	// Debug enables the MMU's strict uninitialized-WRAM/HRAM-read
	// detection, surfaced as a core.Break status carrying *mmu.UninitReadError.
	Debug bool
	// CGB selects Game Boy Color post-boot register values (A=0x11) and is
	// reported back via the CGB accessor. Rendering stays in DMG mode;
	// double-speed switching is not modeled.
	CGB bool
}

// Core is a runnable Game Boy: cartridge + CPU + MMU + PPU, reset to a known
// starting state by New.
type Core struct {
	cpu *cpu.CPU
	bus *mmu.Bus

	buttons byte
}

// New constructs a Core from Options, parsing the cartridge header (via the
// MBC dispatch in internal/cart) and resetting the CPU either into the boot
// ROM entry point or directly to post-boot DMG defaults.
func New(opts Options) (*Core, error) {
	if len(opts.ROM) < 0x150 {
		return nil, fmt.Errorf("core: ROM too short (%d bytes, need at least 0x150)", len(opts.ROM))
	}
	bus := mmu.New(opts.ROM)
	bus.SetStrict(opts.Debug)

	c := cpu.New(bus)
	if opts.CGB {
		c.SetModel(cpu.ModelCGB)
	}
	if len(opts.BootROM) >= 0x100 {
		bus.SetBootROM(opts.BootROM)
		c.SetPC(0x0000)
	} else {
		c.ResetNoBoot()
		c.SetPC(0x0100)
		// Documented DMG post-boot IO register values.
		bus.Write(0xFF00, 0xCF)
		bus.Write(0xFF05, 0x00)
		bus.Write(0xFF06, 0x00)
		bus.Write(0xFF07, 0x00)
		bus.Write(0xFF40, 0x91)
		bus.Write(0xFF42, 0x00)
		bus.Write(0xFF43, 0x00)
		bus.Write(0xFF45, 0x00)
		bus.Write(0xFF47, 0xFC)
		bus.Write(0xFF48, 0xFF)
		bus.Write(0xFF49, 0xFF)
		bus.Write(0xFF4A, 0x00)
		bus.Write(0xFF4B, 0x00)
		bus.Write(0xFFFF, 0x00)
	}

	return &Core{cpu: c, bus: bus}, nil
}

// Step executes one CPU instruction (or interrupt dispatch, or HALT/STOP
// idle cycle) and advances the MMU/PPU/timers by the cycles it took.
func (c *Core) Step() (StepStatus, error) {
	_, status, err := c.cpu.Step()
	return fromCPUStatus(status), err
}

// StepFrame runs Step in a loop until the PPU reports a completed frame (or
// Step returns a non-Run status or an error), acknowledging the frame before
// returning so the next call waits for the following one.
func (c *Core) StepFrame() (StepStatus, error) {
	for {
		status, err := c.Step()
		if err != nil || status != Run {
			return status, err
		}
		if c.bus.PPU().DrawReady() {
			c.bus.PPU().AckDraw()
			return Run, nil
		}
	}
}

// Framebuffer returns the 160x144 packed RGB pixel buffer, updated a
// scanline at a time as Step/StepFrame run.
func (c *Core) Framebuffer() []byte { return c.bus.PPU().Framebuffer() }

// FrameReady reports whether a full frame has been composed since the last
// SetDrawn (or StepFrame, which acknowledges frames itself).
func (c *Core) FrameReady() bool { return c.bus.PPU().DrawReady() }

// SetDrawn acknowledges the current framebuffer contents, clearing the
// frame-ready flag until the PPU next enters VBlank.
func (c *Core) SetDrawn() { c.bus.PPU().AckDraw() }

// SetSerialWriter directs bytes written over the serial port to w, in
// addition to them remaining readable via ReadSerial.
func (c *Core) SetSerialWriter(w io.Writer) { c.bus.SetSerialWriter(w) }

// ReadSerial returns the most recent byte sent over the serial port since
// the last call, if a transfer has completed since then.
func (c *Core) ReadSerial() (byte, bool) { return c.bus.ReadSerial() }

// PressButton marks a button as held down.
func (c *Core) PressButton(b Button) {
	c.buttons |= b.mask()
	c.bus.SetJoypadState(c.buttons)
}

// ReleaseButton marks a button as released.
func (c *Core) ReleaseButton(b Button) {
	c.buttons &^= b.mask()
	c.bus.SetJoypadState(c.buttons)
}

// CGB reports whether the core was constructed as a Game Boy Color.
func (c *Core) CGB() bool { return c.cpu.Model() == cpu.ModelCGB }

// Bus exposes the underlying MMU for tooling and tests that need raw memory
// access. Not used by the render path.
func (c *Core) Bus() *mmu.Bus { return c.bus }

// Snapshot is a point-in-time dump of CPU-visible state, one trace line's
// worth per step.
type Snapshot struct {
	PC                     uint16
	Opcode                 byte
	Disasm                 string
	A, F, B, C, D, E, H, L byte
	SP                     uint16
	IME                    bool
	IF, IE                 byte
}

// Snapshot reads CPU registers and the opcode at PC without advancing
// anything, for trace/debug printing.
func (c *Core) Snapshot() Snapshot {
	op := c.bus.Peek(c.cpu.PC)
	disasm := "??"
	if op == 0xCB {
		disasm = cpu.DecodeCB(c.bus.Peek(c.cpu.PC + 1)).Mnemonic()
	} else if in, ok := cpu.Decode(op); ok {
		disasm = in.Mnemonic()
	}
	return Snapshot{
		PC:     c.cpu.PC,
		Opcode: op,
		Disasm: disasm,
		A:      c.cpu.A, F: c.cpu.F(),
		B: c.cpu.B, C: c.cpu.C,
		D: c.cpu.D, E: c.cpu.E,
		H: c.cpu.H, L: c.cpu.L,
		SP:  c.cpu.SP,
		IME: c.cpu.IME,
		IF:  c.bus.Read(0xFF0F),
		IE:  c.bus.Read(0xFFFF),
	}
}
