package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/boruna/pkg/evidence"
)

// handleEvidenceCommand processes the `boruna evidence` subcommand, which
// queries the SQLite index `boruna run -evidence-index` writes into.
//
// Usage:
//
//	boruna evidence lookup -db index.db <run-id>
//	boruna evidence list -db index.db -workflow <name>
func handleEvidenceCommand(args []string) {
	if len(args) == 0 {
		evidenceUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "lookup":
		handleEvidenceLookup(args[1:])
	case "list":
		handleEvidenceList(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "boruna evidence: unknown subcommand %q\n\n", args[0])
		evidenceUsage()
		os.Exit(1)
	}
}

func evidenceUsage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  boruna evidence lookup -db index.db <run-id>\n")
	fmt.Fprintf(os.Stderr, "  boruna evidence list -db index.db -workflow <name>\n")
}

func handleEvidenceLookup(args []string) {
	fs := flag.NewFlagSet("evidence lookup", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path to the evidence index database")
	fs.Parse(args)

	if *dbPath == "" || fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: boruna evidence lookup -db index.db <run-id>\n")
		os.Exit(1)
	}

	ix, err := evidence.OpenIndex(*dbPath)
	if err != nil {
		fatalf("%v", err)
	}
	defer ix.Close()

	ref, err := ix.Lookup(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	printBundleRef(*ref)
}

func handleEvidenceList(args []string) {
	fs := flag.NewFlagSet("evidence list", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path to the evidence index database")
	workflow := fs.String("workflow", "", "Workflow name to list bundles for")
	fs.Parse(args)

	if *dbPath == "" || *workflow == "" {
		fmt.Fprintf(os.Stderr, "Usage: boruna evidence list -db index.db -workflow <name>\n")
		os.Exit(1)
	}

	ix, err := evidence.OpenIndex(*dbPath)
	if err != nil {
		fatalf("%v", err)
	}
	defer ix.Close()

	refs, err := ix.ListByWorkflow(*workflow)
	if err != nil {
		fatalf("%v", err)
	}
	if len(refs) == 0 {
		fmt.Println("no bundles indexed for this workflow")
		return
	}
	for _, ref := range refs {
		printBundleRef(ref)
	}
}

func printBundleRef(ref evidence.BundleRef) {
	fmt.Printf("%s  %s  %s  %s\n", ref.RunID, ref.CompletedAt, ref.WorkflowName, ref.Dir)
}
