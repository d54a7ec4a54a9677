package main

import (
	"fmt"
	"hash/crc32"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaelbrook/gbcore/internal/core"
	"github.com/kaelbrook/gbcore/internal/hostwindow"
)

func newRunCmd() *cobra.Command {
	var (
		bootPath string
		render   bool
		scale    int
		headless bool
		frames   int
		expect   string
	)
	cmd := &cobra.Command{
		Use:   "run <rom>",
		Short: "Run a ROM, optionally in a window or headless for N frames",
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
			c, err := core.New(core.Options{ROM: rom, BootROM: boot})
			if err != nil {
				return err
			}
			c.SetSerialWriter(os.Stdout)

			if headless {
				return runHeadless(c, frames, expect)
			}
			if render {
				app := hostwindow.NewApp(c, "gbcore - "+args[0], scale)
				if err := app.Run(); err != nil {
					return err
				}
				return app.Err()
			}
			return runUntilStop(c)
		},
	}
	cmd.Flags().StringVar(&bootPath, "bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	cmd.Flags().BoolVar(&render, "render", false, "open an ebiten window instead of running headless")
	cmd.Flags().IntVar(&scale, "scale", 3, "window integer upscale factor (with --render)")
	cmd.Flags().BoolVar(&headless, "headless", false, "run a fixed number of frames with no window and exit")
	cmd.Flags().IntVar(&frames, "frames", 60, "frames to run in --headless mode")
	cmd.Flags().StringVar(&expect, "expect", "", "assert the final framebuffer's CRC32 (hex) in --headless mode")
	return cmd
}

// runUntilStop drives Step in a loop until the CPU executes STOP or hits an
// undefined opcode, printing a final status line.
func runUntilStop(c *core.Core) error {
	for {
		status, err := c.Step()
		if err != nil {
			return err
		}
		if status == core.Stop {
			log.Printf("stopped: waiting for a button press")
			return nil
		}
	}
}

// runHeadless runs exactly `frames` frames with no window, then optionally
// asserts the resulting framebuffer's CRC32 against --expect.
func runHeadless(c *core.Core, frames int, expect string) error {
	if frames <= 0 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		if _, err := c.StepFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	fb := c.Framebuffer()
	crc := crc32.ChecksumIEEE(fb)
	log.Printf("headless: frames=%d fb_crc32=%08x", frames, crc)
	if expect != "" {
		want := strings.TrimPrefix(strings.ToLower(expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}
