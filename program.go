package asteria

import "fmt"

// Options configures a single compile/execute run (§6's `compile`
// surface): the optimizer level, whether single-step traps are armed
// for a debugger, and the limits enforced at runtime.
type Options struct {
	OptimizationLevel    int // 0..99
	VerboseSingleStepTraps bool
	MaxArgumentCount     int
	MaxRecursionDepth    int
}

// DefaultOptions mirrors the core's built-in defaults; a driver only
// needs to override what it cares about.
func DefaultOptions() Options {
	return Options{
		OptimizationLevel: 0,
		MaxArgumentCount:  64,
		MaxRecursionDepth: DefaultMaxRecursionDepth,
	}
}

// Program is a compiled unit (§6): a top-level statement sequence
// plus the metadata recorded at compile time. The core does not
// parse source text itself (the parser is an opaque collaborator,
// §6); Program is instead built by a front-end and handed to Execute.
type Program struct {
	SourceName string
	FirstLine  int
	Body       []Stmt
	Options    Options
}

// Compile packages a front-end's already-parsed statement sequence
// into a Program, the shape `execute` below expects. A real front end
// (outside this package) is responsible for producing Body; this is
// the seam named in §6 as `compile(source_name, first_line,
// source_bytes, options) -> program`.
func Compile(sourceName string, firstLine int, body []Stmt, opts Options) *Program {
	return &Program{SourceName: sourceName, FirstLine: firstLine, Body: body, Options: opts}
}

// Interpreter owns one run's Global Context, garbage collector, and
// PRNG (§4.6.4: each instance is independent; Variables must never be
// shared across instances).
type Interpreter struct {
	Global *Context
	GC     *GC
}

// NewInterpreter wires together a fresh GC, PRNG, and Global Context.
// It registers no library functions; a host adds those separately.
func NewInterpreter(seed uint64) *Interpreter {
	gc := NewGC()
	rng := NewRandom(seed)
	global := NewGlobalContext(gc, rng)
	gc.BindGlobal(global)
	return &Interpreter{Global: global, GC: gc}
}

// Execute implements §6's `execute(program, args) -> Reference |
// Exception`: it runs the program's top-level statements as if they
// were the body of an implicit `main` function receiving args as its
// variadic pack, returning either the final return/fall-off value or
// the error that escaped (an *Exception, a BypassedVariableError, a
// SystemError, or an AssertionError).
func (in *Interpreter) Execute(p *Program, args []Value) (Reference, error) {
	if p.Options.MaxRecursionDepth > 0 {
		in.GC.MaxRecursionDepth = p.Options.MaxRecursionDepth
	}
	in.Global.file = p.SourceName
	in.Global.varg = args
	*in.Global.line = p.FirstLine

	c, err := execStmts(in.Global, p.Body)
	err = in.Global.RunDefers(err)
	if err != nil {
		return Reference{}, err
	}
	if c.kind == ctrlReturn {
		return c.value, nil
	}
	return RefVoid(), nil
}

// ExitCode maps a top-level Execute error to the CLI exit codes from
// §6: 0 success, 3 parse error, 4 execution threw, 5 system error.
// (2, invalid CLI argument, is never produced here -- that is the
// driver's own argument-parsing concern, handled in cmd/asteria.)
func ExitCode(err error) int {
	switch err.(type) {
	case nil:
		return 0
	case CompileError:
		return 3
	case *Exception, BypassedVariableError, AssertionError:
		return 4
	default:
		return 5
	}
}

func (o Options) String() string {
	return fmt.Sprintf("optimization_level=%d max_argument_count=%d max_recursion_depth=%d",
		o.OptimizationLevel, o.MaxArgumentCount, o.MaxRecursionDepth)
}
