package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/boruna/pkg/eventlog"
)

// handleReplayCommand processes the `boruna replay` subcommand: re-runs
// nothing itself, but compares two already-recorded event logs (an
// original run and a later replay of the same module and messages) and
// reports where they diverge, if at all.
//
// Usage:
//
//	boruna replay -original run1.json -replay run2.json [-full]
func handleReplayCommand(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	originalPath := fs.String("original", "", "Path to the original recorded event log (JSON)")
	replayPath := fs.String("replay", "", "Path to the replayed event log (JSON)")
	full := fs.Bool("full", false, "Compare the whole event log, not just CapCall events")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: boruna replay -original run1.json -replay run2.json [-full]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *originalPath == "" || *replayPath == "" {
		fs.Usage()
		os.Exit(1)
	}

	original, err := loadEventLog(*originalPath)
	if err != nil {
		fatalf("%v", err)
	}
	replay, err := loadEventLog(*replayPath)
	if err != nil {
		fatalf("%v", err)
	}

	originalHash, err := eventlog.TraceHash(original)
	if err != nil {
		fatalf("hashing %s: %v", *originalPath, err)
	}
	replayHash, err := eventlog.TraceHash(replay)
	if err != nil {
		fatalf("hashing %s: %v", *replayPath, err)
	}

	var engine eventlog.ReplayEngine
	var result eventlog.ReplayResult
	if *full {
		result = engine.VerifyFull(original, replay)
	} else {
		result = engine.Verify(original, replay)
	}

	fmt.Printf("original trace hash: %x\n", originalHash)
	fmt.Printf("replay trace hash:   %x\n", replayHash)
	if result.Identical {
		fmt.Println("identical: the replay matches the recorded run")
		return
	}

	fmt.Printf("diverged at position %d (%s): %s\n", result.Position, result.Kind, result.Reason)
	os.Exit(1)
}

func loadEventLog(path string) (*eventlog.EventLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	log, err := eventlog.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return log, nil
}
