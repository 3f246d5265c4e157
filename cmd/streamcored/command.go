package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// IO bundles the standard streams a Command reads and writes, so Exec
// functions never reach for os.Stdin/os.Stdout/os.Stderr directly.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Command is one streamcored subcommand: a pflag.FlagSet, help text, and
// an Exec closure. Subcommands are plain values built by a constructor
// function (newRunCommand, newRingInspectCommand, ...), not a registration
// framework.
type Command struct {
	Flags *pflag.FlagSet
	Usage string
	Short string
	Long  string
	Exec  func(ctx context.Context, io *IO, args []string) error
}

// Name returns the command's invocation name, the first word of Usage.
func (c *Command) Name() string {
	for i, r := range c.Usage {
		if r == ' ' {
			return c.Usage[:i]
		}
	}

	return c.Usage
}

// HelpLine returns a one-line "name  short description" summary used by
// the top-level help listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("%-16s %s", c.Name(), c.Short)
}

// PrintHelp writes the command's full usage text to w.
func (c *Command) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "usage: %s\n\n%s\n", c.Usage, c.Long)

	if c.Flags != nil && c.Flags.HasFlags() {
		fmt.Fprintln(w, "\nflags:")
		fmt.Fprintln(w, c.Flags.FlagUsages())
	}
}
