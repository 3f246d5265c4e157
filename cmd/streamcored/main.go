// Command streamcored runs the streaming core as a long-lived daemon: it
// wires pkg/slotpool, pkg/ringlog, and pkg/distributor together per a
// loaded config and keeps them running until a termination signal arrives.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-sigCh
		cancel()
	}()

	io := &IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}

	code := run(ctx, io, os.Args[1:])

	os.Exit(code)
}

func commands() []*Command {
	return []*Command{
		newRunCommand(),
		newRingInspectCommand(),
		newPoolStatsCommand(),
	}
}

func run(ctx context.Context, io *IO, args []string) int {
	if len(args) == 0 {
		printTopLevelHelp(io)

		return 2
	}

	name := args[0]
	rest := args[1:]

	if name == "help" || name == "-h" || name == "--help" {
		printTopLevelHelp(io)

		return 0
	}

	for _, cmd := range commands() {
		if cmd.Name() != name {
			continue
		}

		if cmd.Flags != nil {
			if err := cmd.Flags.Parse(rest); err != nil {
				fmt.Fprintln(io.Err, err)

				return 2
			}

			rest = cmd.Flags.Args()
		}

		if err := cmd.Exec(ctx, io, rest); err != nil {
			fmt.Fprintln(io.Err, "streamcored:", err)

			return 1
		}

		return 0
	}

	fmt.Fprintf(io.Err, "streamcored: unknown command %q\n", name)
	printTopLevelHelp(io)

	return 2
}

func printTopLevelHelp(io *IO) {
	fmt.Fprintln(io.Out, "usage: streamcored <command> [flags]")
	fmt.Fprintln(io.Out, "\ncommands:")

	for _, cmd := range commands() {
		fmt.Fprintln(io.Out, " ", cmd.HelpLine())
	}
}
