package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	asteria "github.com/lhmouse/asteria-sub009"
	"github.com/lhmouse/asteria-sub009/stdlib"
)

const version = "asteria 0.1.0 (execution core)"

type args struct {
	help    bool
	showVer bool
	verbose bool

	forceRepl    bool
	suppressRepl bool

	optimizerLevel int

	inputPath string
}

// extractOptimizerLevel pulls a gcc-style `-O[N]` argument out of the
// raw argument list before handing the rest to `flag`, since the
// standard flag package has no notion of an optional numeric suffix
// fused onto a flag name. Defaults to level 1 when `-O` is given with
// no digits, 0 when absent, matching common `-O`/`-O2` conventions.
func extractOptimizerLevel(argv []string) (level int, rest []string) {
	for _, a := range argv {
		if a == "-O" || a == "--O" {
			level = 1
			continue
		}
		if strings.HasPrefix(a, "-O") && len(a) > 2 {
			if n, err := strconv.Atoi(a[2:]); err == nil {
				level = n
				continue
			}
		}
		rest = append(rest, a)
	}
	return level, rest
}

func readArgs(argv []string) *args {
	level, rest := extractOptimizerLevel(argv)
	fs := flag.NewFlagSet("asteria", flag.ExitOnError)

	a := &args{optimizerLevel: level}
	fs.BoolVar(&a.help, "h", false, "Show usage and exit")
	fs.BoolVar(&a.help, "help", false, "Show usage and exit")
	fs.BoolVar(&a.showVer, "V", false, "Show version and exit")
	fs.BoolVar(&a.showVer, "version", false, "Show version and exit")
	fs.BoolVar(&a.verbose, "v", false, "Verbose: single-step traps and disassembly on stderr")
	fs.BoolVar(&a.forceRepl, "i", false, "Force an interactive REPL even when a script is given")
	fs.BoolVar(&a.suppressRepl, "I", false, "Suppress the REPL even when no script is given")
	_ = fs.Parse(rest)

	if fs.NArg() > 0 {
		a.inputPath = fs.Arg(0)
	}
	return a
}

func main() {
	a := readArgs(os.Args[1:])

	if a.help {
		fmt.Fprintln(os.Stderr, "usage: asteria [-h] [-V] [-v] [-i|-I] [-O[N]] [script]")
		flag.CommandLine.SetOutput(os.Stderr)
		os.Exit(0)
	}
	if a.showVer {
		fmt.Println(version)
		os.Exit(0)
	}

	// Config is the teacher-idiom settings bridge (config.go): every
	// knob the driver cares about, whether it came from a CLI flag or
	// (eventually) a config file, is set on it uniformly and then
	// turned into the core's own Options/GC-threshold types in one place.
	cfg := asteria.NewConfig()
	cfg.SetInt("optimizer.level", a.optimizerLevel)
	cfg.SetBool("debug.verbose_single_step_traps", a.verbose)
	opts := cfg.ToOptions()

	in := asteria.NewInterpreter(uint64(os.Getpid()))
	in.GC.ApplyThresholds(
		cfg.GetInt("gc.threshold_newest"),
		cfg.GetInt("gc.threshold_middle"),
		cfg.GetInt("gc.threshold_oldest"),
	)
	stdlib.Register(in.Global)

	interactive := a.forceRepl || (a.inputPath == "" && !a.suppressRepl)
	if interactive {
		runRepl(in, opts, a.verbose)
		return
	}

	if a.inputPath == "" {
		log.Fatal("no script given and REPL suppressed (-I with no positional argument)")
	}

	os.Exit(runFile(in, opts, a.inputPath, a.verbose))
}

// runFile loads and executes one script file. Source parsing is an
// opaque collaborator of this core (spec.md's Non-goals place the
// surface grammar out of scope): a host embeds a real front end by
// implementing parseSource and wiring Context.SetImporter for
// `import`. This driver's own parseSource is therefore a stub that
// reports a compile error, exercising the §6 exit-code contract
// (code 3) without fabricating a parser.
func runFile(in *asteria.Interpreter, opts asteria.Options, path string, verbose bool) int {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Printf("can't read script: %s", err)
		return 5
	}

	body, err := parseSource(path, string(src))
	if err != nil {
		log.Printf("compile error: %s", err)
		return asteria.ExitCode(err)
	}

	program := asteria.Compile(path, 1, body, opts)
	if verbose {
		fmt.Fprintln(os.Stderr, program.HighlightPrettyString())
	}

	_, err = in.Execute(program, nil)
	if err != nil {
		log.Printf("%s", err)
	}
	return asteria.ExitCode(err)
}

// runRepl reads one line at a time and executes each as its own
// top-level program, printing whatever Value it settles to. Like
// runFile, it depends on parseSource, which is a stub absent a real
// front end.
func runRepl(in *asteria.Interpreter, opts asteria.Options, verbose bool) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			fmt.Println()
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		body, err := parseSource("<stdin>", line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "compile error:", err)
			continue
		}
		program := asteria.Compile("<stdin>", 1, body, opts)
		if verbose {
			fmt.Fprintln(os.Stderr, program.HighlightPrettyString())
		}
		ref, err := in.Execute(program, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		v, err := ref.Read()
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(asteria.PrintValue(v, true))
	}
}

// parseSource is the seam a real front end replaces. It always
// reports a CompileError, since building the surface grammar is out
// of this module's scope.
func parseSource(sourceName, text string) ([]asteria.Stmt, error) {
	return nil, asteria.CompileError{
		Message: "no front end embedded: source parsing is out of scope for the execution core (see spec's Non-goals)",
		Line:    1,
	}
}
