package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/calvinalkan/streamcore/pkg/ringlog"
)

func newRingInspectCommand() *Command {
	flags := pflag.NewFlagSet("ring", pflag.ContinueOnError)
	path := flags.String("path", "", "ring file to inspect (required)")

	return &Command{
		Flags: flags,
		Usage: "ring [flags]",
		Short: "inspect a RingLog file's header and schema",
		Long:  "ring opens an existing ring file read-write (advisory-locked) and prints its capacity, write head, read tail, and schema.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			if *path == "" {
				return fmt.Errorf("ring: --path is required")
			}

			r, err := ringlog.Open(ringlog.Options{Path: *path})
			if err != nil {
				return fmt.Errorf("ring: open %s: %w", *path, err)
			}
			defer r.Close() //nolint:errcheck

			fmt.Fprintf(io.Out, "path:           %s\n", *path)
			fmt.Fprintf(io.Out, "capacity_bytes: %d\n", r.CapacityBytes())
			fmt.Fprintf(io.Out, "write_head:     %d\n", r.WriteHead())
			fmt.Fprintf(io.Out, "read_tail:      %d\n", r.ReadTail())
			fmt.Fprintf(io.Out, "schema:         %q\n", r.Schema())

			return nil
		},
	}
}
