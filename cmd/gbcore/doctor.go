package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaelbrook/gbcore/internal/cart"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor <rom>",
		Short: "Inspect a ROM's cartridge header without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rom, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read rom: %w", err)
			}
			h, err := cart.ParseHeader(rom)
			if err != nil {
				return fmt.Errorf("parse header: %w", err)
			}
			fmt.Printf("title:          %q\n", h.Title)
			fmt.Printf("cart type:      %#02x (%s)\n", h.CartType, h.CartTypeStr)
			fmt.Printf("rom size:       %d bytes (%d banks, code %#02x)\n", h.ROMSizeBytes, h.ROMBanks, h.ROMSizeCode)
			fmt.Printf("ram size:       %d bytes (code %#02x)\n", h.RAMSizeBytes, h.RAMSizeCode)
			fmt.Printf("cgb flag:       %#02x\n", h.CGBFlag)
			fmt.Printf("rom version:    %#02x\n", h.ROMVersion)
			fmt.Printf("boot logo:      %v\n", cart.LogoOK(rom))
			if cart.HeaderChecksumOK(rom) {
				fmt.Printf("header checksum: %#02x OK\n", h.HeaderChecksum)
			} else {
				fmt.Printf("header checksum: %#02x MISMATCH\n", h.HeaderChecksum)
			}
			switch h.CartType {
			case 0x00, 0x01, 0x02, 0x03:
				fmt.Println("supported:      yes")
			default:
				fmt.Println("supported:      no (only ROM-only and MBC1 are emulated; will fall back to ROM-only)")
			}
			if len(rom) != h.ROMSizeBytes && h.ROMSizeBytes != 0 {
				fmt.Printf("warning:        file is %d bytes but header declares %d\n", len(rom), h.ROMSizeBytes)
			}
			return nil
		},
	}
	return cmd
}
