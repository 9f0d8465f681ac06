package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chazu/boruna/pkg/bytecode"
	"github.com/chazu/boruna/pkg/capgw"
	"github.com/chazu/boruna/pkg/eventlog"
	"github.com/chazu/boruna/pkg/evidence"
	"github.com/chazu/boruna/pkg/framework"
	"github.com/chazu/boruna/manifest"
)

// wireMessage is one line of a -messages JSONL file: a tag plus a
// bytecode.Value payload in canonical-JSON wire form.
type wireMessage struct {
	Tag     string         `json:"tag"`
	Payload bytecode.Value `json:"payload"`
}

// handleRunCommand processes the `boruna run` subcommand.
//
// Usage:
//
//	boruna run <module.axbc> [options]
func handleRunCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	messagesPath := fs.String("messages", "", "JSONL file of {tag, payload} messages to feed update()")
	manifestDir := fs.String("manifest", ".", "Directory to search for boruna.toml (capability policy)")
	maxCycles := fs.Uint64("max-cycles", 0, "Override the runtime's per-run cycle ceiling (0 = default)")
	evidenceDir := fs.String("evidence-dir", "", "Write an evidence bundle to this directory after the run")
	evidenceIndex := fs.String("evidence-index", "", "Record the written bundle into this SQLite index (requires -evidence-dir)")
	workflowName := fs.String("workflow", "", "Workflow name recorded in the evidence bundle (defaults to the module name)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: boruna run <module.axbc> [options]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	modulePath := fs.Arg(0)

	module, err := loadModule(modulePath)
	if err != nil {
		fatalf("%v", err)
	}

	logger := newLogger(*verbose)

	policy := capgw.AllowAll()
	if m, err := manifest.FindAndLoad(*manifestDir); err == nil && m != nil {
		if p, err := m.CapabilityPolicy(); err == nil {
			policy = p
		} else {
			logger.Warn("ignoring malformed boruna.toml policy", "error", err)
		}
	}

	log := eventlog.New()
	gateway := capgw.New(policy, log).WithLogger(logger)

	runtime, err := framework.New(module, gateway, log)
	if err != nil {
		fatalf("starting runtime: %v", err)
	}
	if *maxCycles > 0 {
		runtime.SetMaxCycles(*maxCycles)
	}

	executor := framework.NewHostEffectExecutor(gateway, log)

	messages, err := loadMessages(*messagesPath)
	if err != nil {
		fatalf("%v", err)
	}

	startedAt := time.Now()
	for _, msg := range messages {
		state, callbacks, _, err := runtime.SendWithExecutor(msg, executor)
		if err != nil {
			fatalf("running %q: %v", msg.Tag, err)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "cycle %d: state=%s\n", runtime.Cycle(), state.String())
		}
		for _, cb := range callbacks {
			cbState, _, _, err := runtime.Send(cb)
			if err != nil {
				fatalf("running callback %q: %v", cb.Tag, err)
			}
			if *verbose {
				fmt.Fprintf(os.Stderr, "cycle %d (callback %s): state=%s\n", runtime.Cycle(), cb.Tag, cbState.String())
			}
		}
	}
	completedAt := time.Now()

	if _, err := runtime.View(); err != nil {
		fatalf("final view: %v", err)
	}
	fmt.Println(runtime.Snapshot())

	if *evidenceDir != "" {
		writeEvidenceBundle(*evidenceDir, *evidenceIndex, *workflowName, module, policy, log, startedAt, completedAt)
	}
}

func loadModule(path string) (*bytecode.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	module, err := bytecode.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return module, nil
}

func loadMessages(path string) ([]framework.Message, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var messages []framework.Message
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var wm wireMessage
		if err := json.Unmarshal(line, &wm); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		messages = append(messages, framework.NewMessage(wm.Tag, wm.Payload))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return messages, nil
}

func writeEvidenceBundle(dir, indexPath, workflowName string, module *bytecode.Module, policy capgw.Policy, log *eventlog.EventLog, startedAt, completedAt time.Time) {
	if workflowName == "" {
		workflowName = module.Name
	}

	workflowJSON, err := module.ToJSON()
	if err != nil {
		fatalf("encoding workflow.json: %v", err)
	}
	policyJSON, err := json.Marshal(policy)
	if err != nil {
		fatalf("encoding policy.json: %v", err)
	}

	runID := evidence.NewRunID()
	bundleDir := fmt.Sprintf("%s/%s", dir, runID)
	m, err := evidence.Build(evidence.BuildInput{
		Dir:          bundleDir,
		RunID:        runID,
		WorkflowName: workflowName,
		WorkflowJSON: workflowJSON,
		PolicyJSON:   policyJSON,
		EventLog:     log,
		StartedAt:    startedAt,
		CompletedAt:  completedAt,
	})
	if err != nil {
		fatalf("building evidence bundle: %v", err)
	}
	fmt.Fprintf(os.Stderr, "wrote evidence bundle %s (bundle hash %s)\n", bundleDir, m.BundleHash)

	if indexPath != "" {
		ix, err := evidence.OpenIndex(indexPath)
		if err != nil {
			fatalf("opening evidence index: %v", err)
		}
		defer ix.Close()
		if err := ix.Record(bundleDir, m); err != nil {
			fatalf("recording evidence index: %v", err)
		}
	}
}
