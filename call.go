package asteria

// DefaultMaxRecursionDepth bounds the number of nested *non-tail*
// function invocations before the interpreter raises a runtime
// exception, standing in for the "stack used" check described in §6
// (native-stack-pointer introspection is not something Go code can do
// safely, so this is a simple monotonic frame counter instead --
// see SPEC_FULL.md).
const DefaultMaxRecursionDepth = 10000

// argByRefAt reports whether the i-th call argument was marked
// by-reference; missing entries (a shorter-than-arity slice) default
// to by-value, matching the common case where no argument in a call
// uses the `->` prefix.
func argByRefAt(flags []bool, i int) bool {
	return i < len(flags) && flags[i]
}

// bindArguments implements §4.4.3's per-argument materialization
// rule: a by-value argument is copied out (dereference_copy) before
// the call so later mutation inside the callee cannot alias the
// caller's storage; a by-reference argument is passed through as-is,
// and must already be rooted in a variable.
func bindArguments(args []Reference, byRef []bool) ([]Reference, error) {
	bound := make([]Reference, len(args))
	for i, a := range args {
		if argByRefAt(byRef, i) {
			if _, ok := a.Variable(); !ok {
				return nil, newException(StringValue("not a valid reference"))
			}
			bound[i] = a
			continue
		}
		v, err := a.DereferenceCopy()
		if err != nil {
			return nil, err
		}
		bound[i] = RefTemporary(v)
	}
	return bound, nil
}

// evalCall implements the call sequence of §4.4.3: resolve the
// callee, bind argument semantics, then either fold the call into a
// pending proper tail call (if it both occurs in tail position and
// the node permits it, and the callee is scripted) or invoke it
// immediately.
func evalCall(ctx *Context, callee Reference, args []Reference, byRef []bool, hint PTCHint, tailPos bool) (Reference, error) {
	calleeVal, err := callee.Read()
	if err != nil {
		return Reference{}, err
	}
	if !calleeVal.IsFunction() {
		return Reference{}, newTypeMismatch("function", calleeVal.Type())
	}
	fn := calleeVal.AsFunction()

	bound, err := bindArguments(args, byRef)
	if err != nil {
		return Reference{}, err
	}

	if tailPos && hint != PTCNone && !fn.IsNative() {
		return refPTC(fn, bound), nil
	}
	return invoke(ctx, fn, bound)
}

// annotateFrame pushes f onto err's Backtrace if err is a catchable
// *Exception; every other error kind (SystemError, AssertionError, a
// bare CompileError that somehow reached here) is left untouched, and
// a nil err is a no-op so call sites don't need their own guard.
func annotateFrame(err error, f Frame) {
	if e, ok := err.(*Exception); ok {
		e.Backtrace = append(e.Backtrace, f)
	}
}

// invoke performs a non-tail call: build the callee's frame, bind
// parameters, run the body to completion (following any chain of
// proper tail calls it returns internally), fire defers, and dispose
// the frame (§4.4.3 step 4).
//
// Every call boundary it crosses -- native, scripted, and each PTC hop
// elided from the Go call stack -- is recorded into a propagating
// Exception's Backtrace (§4.4.4, §4.5), innermost first, so a PTC'd
// function's exception still lists every logical call it passed
// through even though none of them grew a Go stack frame.
func invoke(caller *Context, fn *Function, args []Reference) (Reference, error) {
	if fn.IsNative() {
		self := RefVoid()
		ref, err := fn.Native(caller.Global(), self, args)
		annotateFrame(err, Frame{Kind: FrameNative, Name: fn.Name, File: caller.file})
		return ref, err
	}

	gc := caller.GC()
	var chain []Frame
	for {
		if len(gc.frames) >= gc.MaxRecursionDepth {
			return Reference{}, newException(StringValue("maximum recursion depth exceeded"))
		}
		frame := NewChildContext(fn.Closure)
		frame.funcName = fn.Name
		frame.varg = nil
		frame.line = new(int) // fresh cell: never alias the closure's defining scope
		if err := bindParams(frame, fn, args); err != nil {
			return Reference{}, err
		}

		gc.PushFrame(frame)
		c, err := execStmts(frame, fn.Body)
		gc.PopFrame()

		deferErr := frame.RunDefers(err)
		if deferErr != err {
			// A deferred thunk raised a fresh error of its own (the
			// ordinary body exit was clean); it unwinds through this
			// frame's own defer scope before the function frame itself.
			annotateFrame(deferErr, Frame{Kind: FrameDefer, Name: fn.Name, File: frame.file, Line: *frame.line})
		}
		err = deferErr

		chain = append(chain, Frame{Kind: FrameFunction, Name: fn.Name, File: frame.file, Line: *frame.line})
		if err != nil {
			for i := len(chain) - 1; i >= 0; i-- {
				annotateFrame(err, chain[i])
			}
			return Reference{}, err
		}

		if c.kind == ctrlReturn {
			if target, nextArgs, isPTC := c.value.PTC(); isPTC {
				fn, args = target, nextArgs
				continue
			}
			return c.value, nil
		}
		// A function body that falls off the end without an explicit
		// return yields void, per the `void` root variant (§3.3).
		return RefVoid(), nil
	}
}

// bindParams binds each declared parameter (by-reference parameters
// alias the caller's Variable directly; by-value parameters get their
// own fresh cell so callee-side mutation cannot leak back) and the
// variadic pack exposed as `__varg`. It does not bind `this`.
func bindParams(frame *Context, fn *Function, args []Reference) error {
	gc := frame.GC()
	n := len(fn.Params)
	if !fn.Variadic && len(args) != n {
		return newException(StringValue("argument count mismatch"))
	}
	if fn.Variadic && len(args) < n {
		return newException(StringValue("argument count mismatch"))
	}

	for i, p := range fn.Params {
		a := args[i]
		if p.ByRef {
			if _, ok := a.Variable(); !ok {
				return newException(StringValue("not a valid reference"))
			}
			frame.Declare(p.Name, a)
			continue
		}
		val, err := a.DereferenceCopy()
		if err != nil {
			return err
		}
		cell := gc.CreateVariable(val)
		frame.Declare(p.Name, RefVariable(cell))
	}

	if fn.Variadic {
		extra := args[n:]
		packed := make([]Value, len(extra))
		for i, a := range extra {
			v, err := a.DereferenceCopy()
			if err != nil {
				return err
			}
			packed[i] = v
		}
		frame.varg = packed
	}
	return nil
}

// CallFunction invokes a function Value (native or scripted) with by-
// value arguments, for use by a host or a native binding that needs to
// call back into script code (e.g. std.array.each's callback). It is
// ordinary (non-tail) invocation: each call grows the recursion-depth
// counter exactly like a call node would.
func CallFunction(ctx *Context, fn *Function, args []Value) (Reference, error) {
	refs := make([]Reference, len(args))
	for i, v := range args {
		refs[i] = RefTemporary(v)
	}
	return invoke(ctx, fn, refs)
}

// importScript loads and runs a script named by a runtime `import`
// expression (§4.4.1), returning the function Value it evaluates to.
// The core does not implement source loading itself (§6: the parser
// is an opaque collaborator); a host embeds one by calling
// SetImporter on the Global Context before running any script.
func (c *Context) importScript(path string) (*Function, error) {
	if c.glob.importer == nil {
		return nil, newException(StringValue("import is not supported by this host: `" + path + "`"))
	}
	return c.glob.importer(path)
}
