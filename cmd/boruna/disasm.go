package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/boruna/pkg/bytecode"
)

// handleDisasmCommand processes the `boruna disasm` subcommand.
//
// Usage:
//
//	boruna disasm <module.axbc> [-fn name]
func handleDisasmCommand(args []string) {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fnFilter := fs.String("fn", "", "Only disassemble the named function")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: boruna disasm <module.axbc> [-fn name]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	module, err := loadModule(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("module %s (format version %d)\n", module.Name, module.Version)
	fmt.Printf("constants: %d, globals: %d, types: %d, functions: %d, entry: %d\n\n",
		len(module.Constants), len(module.Globals), len(module.Types), len(module.Functions), module.Entry)

	for i, fn := range module.Functions {
		if *fnFilter != "" && fn.Name != *fnFilter {
			continue
		}
		disasmFunction(uint32(i), fn)
	}
}

func disasmFunction(idx uint32, fn bytecode.Function) {
	caps := make([]string, 0, len(fn.Capabilities))
	for _, c := range fn.Capabilities {
		caps = append(caps, c.Name())
	}
	fmt.Printf("fn %d: %s/%d (locals=%d, capabilities=[%s])\n", idx, fn.Name, fn.Arity, fn.Locals, strings.Join(caps, ", "))
	for ip, instr := range fn.Code {
		fmt.Printf("  %4d  %-16s a=%d b=%d\n", ip, instr.Op, instr.A, instr.B)
	}
	fmt.Println()
}
