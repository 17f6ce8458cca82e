// Command skime compiles Scheme source into bytecode and runs it in
// the skime virtual machine.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/dr8co/skime"
	"github.com/dr8co/skime/bytecode"
	"github.com/dr8co/skime/reader"
)

const version = "0.1.0"

func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, `skime v%s

USAGE:
    %s [OPTIONS]

DESCRIPTION:
    skime compiles Scheme source into bytecode and runs it against a
    stack-based virtual machine. Without any flags, it starts an
    interactive REPL.

OPTIONS:
    -f, --file <path>       Execute a Scheme script file
    -e, --eval <code>       Evaluate a Scheme expression and print the result
    -c, --config <path>     Load VM/compiler tunables from a YAML config file
    -d, --disasm            Print the disassembled bytecode before running
    -v, --version           Show version information
    -h, --help              Show this help message

EXAMPLES:
    %s
    %s -f script.scm
    %s -e "(+ 1 2 3)"
`, version, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	flag.Usage = printUsage

	fileFlag := flag.String("file", "", "Execute a Scheme script file")
	evalFlag := flag.String("eval", "", "Evaluate a Scheme expression and print the result")
	configFlag := flag.String("config", "skime.yaml", "Load VM/compiler tunables from a YAML config file")
	disasmFlag := flag.Bool("disasm", false, "Print the disassembled bytecode before running")
	versionFlag := flag.Bool("version", false, "Show version information")

	flag.StringVar(fileFlag, "f", "", "Execute a Scheme script file")
	flag.StringVar(evalFlag, "e", "", "Evaluate a Scheme expression and print the result")
	flag.StringVar(configFlag, "c", "skime.yaml", "Load VM/compiler tunables from a YAML config file")
	flag.BoolVar(disasmFlag, "d", false, "Print the disassembled bytecode before running")
	flag.BoolVar(versionFlag, "v", false, "Show version information")

	flag.Parse()

	if *versionFlag {
		fmt.Printf("skime v%s\n", version)
		return
	}

	cfg, err := LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		os.Exit(1)
	}

	if *fileFlag != "" {
		runFile(*fileFlag, *disasmFlag, cfg)
		return
	}

	if *evalFlag != "" {
		runSource(*evalFlag, *disasmFlag, cfg)
		return
	}

	username := "unknown"
	if usr, err := user.Current(); err == nil {
		username = usr.Username
	}

	StartREPL(username, ReplOptions{NoColor: cfg.NoColor, TraceOnError: cfg.TraceOnError, MaxCallDepth: cfg.MaxCallDepth})
}

func runFile(filename string, disasm bool, cfg *Config) {
	cleaned := filepath.Clean(filename)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		fmt.Printf("error resolving path: %s\n", err)
		os.Exit(1)
	}

	//nolint:gosec // the path comes from a trusted CLI flag, not untrusted user input
	content, err := os.ReadFile(absolute)
	if err != nil {
		fmt.Printf("error reading file: %s\n", err)
		os.Exit(1)
	}

	result, disassembly, err := evalWithDisasm(string(content), disasm || cfg.TraceOnError, cfg.MaxCallDepth)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		if cfg.TraceOnError && disassembly != "" {
			fmt.Println(disassembly)
		}
		os.Exit(1)
	}
	if disasm {
		fmt.Println(disassembly)
	}
	fmt.Println(result.Inspect())
}

func runSource(src string, disasm bool, cfg *Config) {
	result, disassembly, err := evalWithDisasm(src, disasm, cfg.MaxCallDepth)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	if disasm {
		fmt.Println(disassembly)
	}
	fmt.Println(result.Inspect())
}

// evalWithDisasm evaluates src through a fresh interpreter, returning
// the disassembly of the last compiled top-level form when requested.
func evalWithDisasm(src string, disasm bool, maxCallDepth int) (result interface {
	Inspect() string
}, disassembly string, err error) {
	in := skime.New()
	in.VM.MaxCallDepth = maxCallDepth
	v, err := in.Eval(src)
	if disasm {
		if forms, rerr := reader.ReadAll(src); rerr == nil && len(forms) > 0 {
			if form, cerr := in.VM.Compile(forms[len(forms)-1], in.VM.Global); cerr == nil {
				disassembly = bytecode.Instructions(form.Instructions).String()
			}
		}
	}
	return v, disassembly, err
}
