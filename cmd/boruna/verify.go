package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/boruna/pkg/evidence"
)

// handleVerifyCommand processes the `boruna verify` subcommand: recomputes
// every file checksum and re-derives the audit log's hash chain for a
// bundle directory, reporting the first mismatch if any.
//
// Usage:
//
//	boruna verify <bundle-dir>
func handleVerifyCommand(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: boruna verify <bundle-dir>\n")
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	dir := fs.Arg(0)

	if err := evidence.Verify(dir); err != nil {
		fmt.Fprintf(os.Stderr, "%s: FAILED\n", dir)
		fatalf("%v", err)
	}
	fmt.Printf("%s: OK\n", dir)
}
