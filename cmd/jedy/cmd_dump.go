package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/format"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var dumpFormat string

	cmd := &cobra.Command{
		Use:   "dump <file.class>...",
		Short: "Dump the parsed structure of class files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, filename := range args {
				if err := dumpFile(filename, dumpFormat); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format ("+strings.Join(format.Formats, ", ")+")")

	return cmd
}

func dumpFile(filename, name string) error {
	cf, err := classfile.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("parse class file: %w", err)
	}
	enc, err := format.NewEncoder(name, os.Stdout)
	if err != nil {
		return err
	}
	if err := enc.Encode(cf); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}
