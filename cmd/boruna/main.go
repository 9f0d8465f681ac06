// Command boruna loads compiled .axbc modules and drives them: running an
// app to completion against a message stream, disassembling a module,
// verifying a replay against a recorded event log, or inspecting an
// evidence bundle.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "run":
		handleRunCommand(args)
	case "disasm":
		handleDisasmCommand(args)
	case "replay":
		handleReplayCommand(args)
	case "verify":
		handleVerifyCommand(args)
	case "evidence":
		handleEvidenceCommand(args)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "boruna: unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: boruna <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run      Run a compiled module against a message stream\n")
	fmt.Fprintf(os.Stderr, "  disasm   Disassemble a compiled module\n")
	fmt.Fprintf(os.Stderr, "  replay   Verify a recorded run replays identically\n")
	fmt.Fprintf(os.Stderr, "  verify   Verify an evidence bundle's checksums and audit chain\n")
	fmt.Fprintf(os.Stderr, "  evidence List or show recorded evidence bundles\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  boruna run app.axbc -messages msgs.jsonl\n")
	fmt.Fprintf(os.Stderr, "  boruna disasm app.axbc\n")
	fmt.Fprintf(os.Stderr, "  boruna replay -original run1.json -replay run2.json\n")
	fmt.Fprintf(os.Stderr, "  boruna verify ./evidence/run-abc123\n")
	fmt.Fprintf(os.Stderr, "  boruna evidence list -db .boruna/evidence.db -workflow checkout\n")
}

// newLogger builds the CLI's slog.Logger, defaulting to Warn level and
// dropping to Debug under -v. The run subcommand attaches this to the
// capability gateway so capability denials show up with -v.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "boruna: "+format+"\n", args...)
	os.Exit(1)
}
