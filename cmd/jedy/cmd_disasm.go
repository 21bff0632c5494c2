package main

import (
	"github.com/spf13/cobra"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file.class>...",
		Short: "List the instructions of every method",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, filename := range args {
				if err := dumpFile(filename, "disasm"); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
