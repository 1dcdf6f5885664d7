package asteria

import "strings"

// globalState holds the handful of resources owned by the single
// Global Context at the root of a Context chain (§4.3): the garbage
// collector, the deterministic PRNG, and the host's import hook
// (`array_random` subscripts hash their own seed, see randomIndex, and
// do not draw from the PRNG). Every
// Context in a run shares a pointer to the same globalState so any
// frame can reach `gc` / `rng` without walking to the root each time.
type globalState struct {
	gc       *GC
	rng      *Random
	importer func(path string) (*Function, error)
}

// Context is a lexical scope (§3.4/§4.3): a Reference Dictionary of
// locally-declared names, a parent link for ordinary (unqualified)
// lookup, a LIFO list of deferred thunks, and a few pieces of
// call-frame metadata (`__func`, `__varg`, `__file`, current line)
// consulted by lazy built-in synthesis.
type Context struct {
	parent *Context
	refs   *RefDict
	glob   *globalState

	defers []deferredThunk

	// Call-frame metadata backing the lazy __-prefixed built-ins.
	funcName string
	varg     []Value
	file     string

	// line points at the one shared "currently executing line" cell
	// for the whole dynamic extent of a call frame: every block nested
	// inside a function body (NewChildContext copies the pointer, not
	// the int) writes through the same cell, so a function's own frame
	// always sees the deepest line actually executing, however many
	// nested if/while/for scopes deep that is. invoke starts a fresh
	// cell per call so it never aliases the closure's defining scope.
	line *int
}

type deferredThunk func() error

// NewGlobalContext creates the root Context of a run, owning the
// given collector and PRNG.
func NewGlobalContext(gc *GC, rng *Random) *Context {
	return &Context{
		refs: NewRefDict(),
		glob: &globalState{gc: gc, rng: rng},
		file: "<script>",
		line: new(int),
	}
}

// NewChildContext creates a nested scope (a block, loop body, or
// function-call frame) whose ordinary lookups ascend to parent. The
// call-frame metadata consulted by synthesize (funcName, varg, line)
// is inherited too, not just file: a block nested inside a function
// (an `if`/`while`/`for` body) is still "inside" that function as far
// as `__func`/`__varg`/`__line` are concerned, and invoke overwrites
// funcName/varg/line explicitly on the frame it creates before any
// nested block copies from it.
func NewChildContext(parent *Context) *Context {
	return &Context{
		parent:   parent,
		refs:     NewRefDict(),
		glob:     parent.glob,
		file:     parent.file,
		funcName: parent.funcName,
		varg:     parent.varg,
		line:     parent.line,
	}
}

func (c *Context) GC() *GC          { return c.glob.gc }
func (c *Context) Random() *Random  { return c.glob.rng }

// SetImporter installs the host hook consulted by a runtime `import`
// expression (§4.4.1/§6); call it once on the Global Context before
// running any script that uses `import`.
func (c *Context) SetImporter(fn func(path string) (*Function, error)) {
	c.Global().glob.importer = fn
}

// Global climbs the parent chain to the root Context.
func (c *Context) Global() *Context {
	cur := c
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Declare binds name to ref in this Context's own dictionary,
// reporting whether the name is new in this scope (shadowing an
// outer binding of the same name is legal; redeclaring in the same
// scope is the caller's call to reject or allow).
func (c *Context) Declare(name string, ref Reference) bool {
	return c.refs.Insert(name, ref)
}

// Lookup probes only this Context: its own dictionary, then (for a
// `__`-prefixed name) the lazy-synthesis hook. It never ascends to
// the parent; that is Resolve's job.
func (c *Context) Lookup(name string) (Reference, bool) {
	if r, ok := c.refs.Get(name); ok {
		return r, true
	}
	if strings.HasPrefix(name, "__") {
		return c.synthesize(name)
	}
	return Reference{}, false
}

// Resolve implements ordinary (unqualified) identifier lookup (§4.3
// step 3): probe this Context, then each ancestor in turn.
func (c *Context) Resolve(name string) (Reference, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if r, ok := cur.Lookup(name); ok {
			return r, true
		}
	}
	return Reference{}, false
}

// ResolveGlobal implements the `__global X` syntax: it bypasses the
// local scope chain entirely and looks up name directly in the root
// Context, still subject to lazy synthesis there.
func (c *Context) ResolveGlobal(name string) (Reference, bool) {
	return c.Global().Lookup(name)
}

// synthesize implements the lazy built-ins named in SPEC_FULL.md:
// `__func` (the enclosing function's name, or "" at top level),
// `__varg` (the variadic argument pack as an array), `__file` (the
// source name), and `__line` (the line currently executing in this
// frame). `__func`/`__varg`/`__file` are fixed for the life of a call
// frame, so the result is cached back into the dictionary and repeat
// lookups become a plain probe; `__line` changes on every statement
// and is deliberately never cached, since caching it would freeze
// `__line` at whatever it read on its first access in this scope.
func (c *Context) synthesize(name string) (Reference, bool) {
	if name == "__line" {
		return RefConstant(IntValue(int64(*c.line))), true
	}

	var v Value
	switch name {
	case "__func":
		v = StringValue(c.funcName)
	case "__varg":
		v = ArrayValue(append([]Value(nil), c.varg...))
	case "__file":
		v = StringValue(c.file)
	default:
		return Reference{}, false
	}
	ref := RefConstant(v)
	c.refs.Insert(name, ref)
	return ref, true
}

// PushDefer registers a thunk to run (LIFO) when this Context's owning
// scope exits, normally or exceptionally (§4.3).
func (c *Context) PushDefer(fn deferredThunk) {
	c.defers = append(c.defers, fn)
}

// RunDefers fires every deferred thunk in LIFO order. inflight is the
// exception already unwinding through this scope, if any (nil on
// normal exit). Per §4.3: during an exceptional exit, errors raised by
// deferred thunks are suppressed in favor of the already-inflight
// exception; during a normal exit, the first deferred error becomes
// the scope's own exception.
func (c *Context) RunDefers(inflight error) error {
	for i := len(c.defers) - 1; i >= 0; i-- {
		if err := c.defers[i](); err != nil && inflight == nil {
			inflight = err
		}
	}
	c.defers = nil
	return inflight
}
