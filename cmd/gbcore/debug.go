package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaelbrook/gbcore/internal/core"
	"github.com/kaelbrook/gbcore/internal/mmu"
)

// failRe matches the "Failed N tests" summary blargg-style test ROMs print
// over the serial port.
var failRe = regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)

func newDebugCmd() *cobra.Command {
	var (
		bootPath    string
		steps       int
		trace       bool
		traceWindow int
		until       string
	)
	cmd := &cobra.Command{
		Use:   "debug <rom>",
		Short: "Run a ROM with strict uninitialized-memory checks and an instruction trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rom, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read rom: %w", err)
			}
			boot, err := readFileOrEmpty(bootPath)
			if err != nil {
				return fmt.Errorf("read bootrom: %w", err)
			}
			c, err := core.New(core.Options{ROM: rom, BootROM: boot, Debug: true})
			if err != nil {
				return err
			}
			c.SetSerialWriter(os.Stdout)

			ring := make([]core.Snapshot, traceWindow)
			ringIdx, ringFill := 0, 0
			var serial strings.Builder

			for i := 0; i < steps; i++ {
				snap := c.Snapshot()
				if trace {
					printSnapshot(snap)
				}
				if traceWindow > 0 {
					ring[ringIdx] = snap
					ringIdx = (ringIdx + 1) % traceWindow
					if ringFill < traceWindow {
						ringFill++
					}
				}

				status, err := c.Step()
				if err != nil {
					fmt.Fprintf(os.Stderr, "stopped at step %d: %v\n", i, err)
					if uerr, ok := err.(*mmu.UninitReadError); ok {
						fmt.Fprintf(os.Stderr, "uninitialized read at %#04x\n", uerr.Addr)
					}
					if ringFill > 0 {
						fmt.Fprintf(os.Stderr, "--- last %d instructions ---\n", ringFill)
						start := (ringIdx - ringFill + traceWindow) % traceWindow
						for j := 0; j < ringFill; j++ {
							printSnapshot(ring[(start+j)%traceWindow])
						}
					}
					return err
				}
				if status == core.Stop {
					fmt.Printf("stopped at step %d: waiting for a button press\n", i)
					return nil
				}
				if sb, ok := c.ReadSerial(); ok {
					serial.WriteByte(sb)
					out := serial.String()
					if until != "" && strings.Contains(strings.ToLower(out), strings.ToLower(until)) {
						fmt.Printf("serial matched %q after %d steps\n", until, i)
						return nil
					}
					if m := failRe.FindStringSubmatch(out); m != nil {
						return fmt.Errorf("test ROM reported failure: failed %s tests", m[1])
					}
				}
			}
			fmt.Printf("completed %d steps without error\n", steps)
			return nil
		},
	}
	cmd.Flags().StringVar(&bootPath, "bootrom", "", "optional DMG boot ROM")
	cmd.Flags().IntVar(&steps, "steps", 5_000_000, "max CPU steps to run")
	cmd.Flags().BoolVar(&trace, "trace", false, "print PC/opcode/registers for every step")
	cmd.Flags().IntVar(&traceWindow, "trace-window", 200, "instructions to retain for a post-mortem dump on error")
	cmd.Flags().StringVar(&until, "until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	return cmd
}

func printSnapshot(s core.Snapshot) {
	fmt.Printf("PC=%04X OP=%02X %-12s A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t IF=%02X IE=%02X\n",
		s.PC, s.Opcode, s.Disasm, s.A, s.F, s.B, s.C, s.D, s.E, s.H, s.L, s.SP, s.IME, s.IF, s.IE)
}
