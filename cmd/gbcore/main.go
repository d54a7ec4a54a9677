// Command gbcore runs, debugs and inspects Game Boy ROMs on top of
// internal/core. It has three subcommands: run, debug and doctor.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "gbcore",
		Short: "A Sharp LR35902-compatible emulator core",
	}
	root.AddCommand(newRunCmd(), newDebugCmd(), newDoctorCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func readFileOrEmpty(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}
