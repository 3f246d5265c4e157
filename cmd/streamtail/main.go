// Command streamtail is an interactive REPL for tailing a RingLog's tap
// output live, built on a liner-based line-editing prompt
// (github.com/peterh/liner).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/streamcore/pkg/ringlog"
)

func main() {
	path := flag.String("ring", "", "ring file to tail (required)")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "streamtail: -ring is required")
		os.Exit(2)
	}

	if err := run(*path, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "streamtail:", err)
		os.Exit(1)
	}
}

func run(path string, stdout, stderr io.Writer) error {
	ring, err := ringlog.Open(ringlog.Options{Path: path})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer ring.Close() //nolint:errcheck

	fmt.Fprintf(stdout, "streamtail: attached to %s (capacity=%d, schema=%q)\n", path, ring.CapacityBytes(), ring.Schema())
	fmt.Fprintln(stdout, "commands: tap <id> <stride> | untap <id> | quit")

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	session := newSession(ring, stdout)
	defer session.closeAll()

	for {
		input, err := line.Prompt("streamtail> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}

			return fmt.Errorf("read input: %w", err)
		}

		line.AppendHistory(input)

		if !session.handle(strings.TrimSpace(input), stderr) {
			return nil
		}
	}
}

// session tracks taps registered for this REPL invocation so untap/quit
// can clean them up.
type session struct {
	ring *ringlog.RingLog
	out  io.Writer
	taps map[string]*ringlog.Tap
}

func newSession(ring *ringlog.RingLog, out io.Writer) *session {
	return &session{ring: ring, out: out, taps: make(map[string]*ringlog.Tap)}
}

// handle runs one REPL command. It returns false when the REPL should
// exit.
func (s *session) handle(input string, stderr io.Writer) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "quit", "exit":
		return false

	case "tap":
		s.handleTap(fields, stderr)

	case "untap":
		s.handleUntap(fields, stderr)

	default:
		fmt.Fprintf(stderr, "unknown command %q\n", fields[0])
	}

	return true
}

func (s *session) handleTap(fields []string, stderr io.Writer) {
	if len(fields) != 3 {
		fmt.Fprintln(stderr, "usage: tap <id> <stride>")

		return
	}

	stride, err := strconv.Atoi(fields[2])
	if err != nil {
		fmt.Fprintf(stderr, "invalid stride %q: %v\n", fields[2], err)

		return
	}

	id := fields[1]

	tap, err := s.ring.RegisterTap(id, stride)
	if err != nil {
		fmt.Fprintf(stderr, "tap %s: %v\n", id, err)

		return
	}

	s.taps[id] = tap

	go func() {
		for frame := range tap.Frames() {
			fmt.Fprintf(s.out, "[%s] %d bytes: % x\n", id, len(frame), truncate(frame, 16))
		}
	}()
}

func (s *session) handleUntap(fields []string, stderr io.Writer) {
	if len(fields) != 2 {
		fmt.Fprintln(stderr, "usage: untap <id>")

		return
	}

	id := fields[1]

	if !s.ring.UnregisterTap(id) {
		fmt.Fprintf(stderr, "untap %s: not found\n", id)

		return
	}

	delete(s.taps, id)
}

func (s *session) closeAll() {
	for id := range s.taps {
		s.ring.UnregisterTap(id)
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}

	return b[:n]
}
