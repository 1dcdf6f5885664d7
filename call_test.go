package asteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func declareFunction(global *Context, name string, fn *Function) {
	fn.Name = name
	fn.Closure = global
	cell := global.GC().CreateVariable(FunctionValue(fn))
	global.Declare(name, RefVariable(cell))
}

// TestCallPTCDoesNotGrowGoRecursionDepth runs a tail-recursive
// countdown far deeper than MaxRecursionDepth; if invoke's internal PTC
// loop (§4.5) were actually recursing through Go instead of looping,
// this would either blow the Go stack or trip the depth guard.
func TestCallPTCDoesNotGrowGoRecursionDepth(t *testing.T) {
	global := newTestContext()
	global.GC().MaxRecursionDepth = 100

	body := []Stmt{
		If{
			Cond: Expr{NamedRef("n"), Literal(IntValue(0)), Binary(OpLe, false)},
			Then: []Stmt{Return{E: Expr{NamedRef("n")}, HasValue: true}},
			Else: []Stmt{Return{E: Expr{
				NamedRef("countdown"),
				NamedRef("n"), Literal(IntValue(1)), Binary(OpSub, false),
				Call(1, PTCByValue, nil),
			}, HasValue: true}},
		},
	}
	fn := &Function{Params: []Param{{Name: "n"}}, Body: body}
	declareFunction(global, "countdown", fn)

	ref, err := CallFunction(global, fn, []Value{IntValue(100000)})
	require.NoError(t, err)
	v, err := ref.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.AsInteger())
}

// TestCallNonTailRecursionHitsDepthGuard pins down the other side of
// the same contract: a call that is *not* in tail position must grow
// the frame stack normally and eventually trip MaxRecursionDepth.
func TestCallNonTailRecursionHitsDepthGuard(t *testing.T) {
	global := newTestContext()
	global.GC().MaxRecursionDepth = 3

	body := []Stmt{
		If{
			Cond: Expr{NamedRef("n"), Literal(IntValue(0)), Binary(OpLe, false)},
			Then: []Stmt{Return{E: Expr{Literal(IntValue(0))}, HasValue: true}},
			Else: []Stmt{Return{E: Expr{
				Literal(IntValue(1)),
				NamedRef("recurse"),
				NamedRef("n"), Literal(IntValue(1)), Binary(OpSub, false),
				Call(1, PTCNone, nil),
				Binary(OpAdd, false),
			}, HasValue: true}},
		},
	}
	fn := &Function{Params: []Param{{Name: "n"}}, Body: body}
	declareFunction(global, "recurse", fn)

	_, err := CallFunction(global, fn, []Value{IntValue(10)})
	require.Error(t, err)
}

// TestCallPTCPreservesBacktraceFrames is the §8 "PTC trace
// preservation" property: a function that tail-calls itself several
// times before throwing must still produce one backtrace Frame per
// logical call, innermost first, even though the PTC loop in invoke
// never grew the Go call stack past a single frame.
func TestCallPTCPreservesBacktraceFrames(t *testing.T) {
	global := newTestContext()

	body := []Stmt{
		If{
			Cond: Expr{NamedRef("n"), Literal(IntValue(0)), Binary(OpLe, false)},
			Then: []Stmt{Throw{E: Expr{Literal(StringValue("boom"))}}},
			Else: []Stmt{Return{E: Expr{
				NamedRef("countdown"),
				NamedRef("n"), Literal(IntValue(1)), Binary(OpSub, false),
				Call(1, PTCByValue, nil),
			}, HasValue: true}},
		},
	}
	fn := &Function{Params: []Param{{Name: "n"}}, Body: body}
	declareFunction(global, "countdown", fn)

	_, err := CallFunction(global, fn, []Value{IntValue(3)})
	require.Error(t, err)
	exc, ok := err.(*Exception)
	require.True(t, ok)

	require.Len(t, exc.Backtrace, 4, "3 elided PTC hops plus the frame that actually threw")
	for _, f := range exc.Backtrace {
		assert.Equal(t, "countdown", f.Name)
		assert.Equal(t, FrameFunction, f.Kind)
	}
}

// TestCallNonTailThrowRecordsOneFrame contrasts the PTC case above: an
// ordinary (non-tail) call that throws immediately, with no chain of
// elided frames behind it, gets exactly the one frame for the call it
// actually made.
func TestCallNonTailThrowRecordsOneFrame(t *testing.T) {
	global := newTestContext()
	body := []Stmt{Throw{E: Expr{Literal(StringValue("boom"))}}}
	fn := &Function{Body: body}
	declareFunction(global, "fails", fn)

	_, err := CallFunction(global, fn, nil)
	require.Error(t, err)
	exc, ok := err.(*Exception)
	require.True(t, ok)

	require.Len(t, exc.Backtrace, 1)
	assert.Equal(t, "fails", exc.Backtrace[0].Name)
	assert.Equal(t, FrameFunction, exc.Backtrace[0].Kind)
}

func TestCallVariadicPacksExtraArgsIntoVarg(t *testing.T) {
	global := newTestContext()
	body := []Stmt{Return{E: Expr{NamedRef("__varg")}, HasValue: true}}
	fn := &Function{Variadic: true, Body: body}
	declareFunction(global, "packer", fn)

	ref, err := CallFunction(global, fn, []Value{IntValue(1), IntValue(2), IntValue(3)})
	require.NoError(t, err)
	v, err := ref.Read()
	require.NoError(t, err)
	require.True(t, v.IsArray())
	assert.Equal(t, []int64{1, 2, 3}, asInts(v.AsArray()))
}

func TestInvokeByRefParamAliasesCallersVariable(t *testing.T) {
	global := newTestContext()
	body := []Stmt{
		ExprStmt{E: Expr{NamedRef("x"), Literal(IntValue(1)), Binary(OpAdd, true)}},
	}
	fn := &Function{Params: []Param{{Name: "x", ByRef: true}}, Body: body}
	declareFunction(global, "increment", fn)

	cell := global.GC().CreateVariable(IntValue(41))
	_, err := invoke(global, fn, []Reference{RefVariable(cell)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), cell.Get().AsInteger())
}

func TestInvokeByRefParamRejectsNonVariableArgument(t *testing.T) {
	global := newTestContext()
	fn := &Function{Params: []Param{{Name: "x", ByRef: true}}, Body: nil}
	declareFunction(global, "f", fn)

	_, err := invoke(global, fn, []Reference{RefConstant(IntValue(1))})
	assert.Error(t, err)
}

func TestInvokeByValueArgumentIsCopiedNotAliased(t *testing.T) {
	global := newTestContext()
	body := []Stmt{
		ExprStmt{E: Expr{NamedRef("x"), Literal(IntValue(100)), Binary(OpAssign, false)}},
	}
	fn := &Function{Params: []Param{{Name: "x"}}, Body: body}
	declareFunction(global, "mutate", fn)

	cell := global.GC().CreateVariable(IntValue(1))
	_, err := invoke(global, fn, []Reference{RefVariable(cell)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cell.Get().AsInteger(), "a by-value parameter must not let callee writes leak back to the caller's cell")
}

// TestNestedBlockSeesEnclosingFunctionMetadata guards against __func
// resolving to "" and __varg resolving to an empty pack as soon as a
// lazy built-in is read from inside a nested if/while/for block rather
// than directly from a function's top-level body.
func TestNestedBlockSeesEnclosingFunctionMetadata(t *testing.T) {
	global := newTestContext()
	body := []Stmt{
		If{
			Cond: Expr{Literal(BoolValue(true))},
			Then: []Stmt{
				If{
					Cond: Expr{Literal(BoolValue(true))},
					Then: []Stmt{Return{E: Expr{NamedRef("__func")}, HasValue: true}},
				},
			},
		},
	}
	fn := &Function{Variadic: true, Body: body}
	declareFunction(global, "whoami", fn)

	ref, err := CallFunction(global, fn, []Value{IntValue(1), IntValue(2)})
	require.NoError(t, err)
	v, err := ref.Read()
	require.NoError(t, err)
	assert.Equal(t, "whoami", v.AsString(),
		"__func read from two levels of nested if-blocks must still name the enclosing function")
}

// TestNestedBlockVargDoesNotLeakBetweenCalls guards against a fresh
// non-variadic call inheriting a stale __varg pack from its caller:
// a variadic `outer` calls a non-variadic `inner`, both declared in
// the global scope.
func TestNestedBlockVargDoesNotLeakBetweenCalls(t *testing.T) {
	global := newTestContext()

	inner := &Function{Body: []Stmt{Return{E: Expr{NamedRef("__varg")}, HasValue: true}}}
	declareFunction(global, "inner", inner)

	outer := &Function{Variadic: true, Body: []Stmt{
		Return{E: Expr{NamedRef("inner"), Call(0, PTCNone, nil)}, HasValue: true},
	}}
	declareFunction(global, "outer", outer)

	ref, err := CallFunction(global, outer, []Value{IntValue(9), IntValue(9), IntValue(9)})
	require.NoError(t, err)
	v, err := ref.Read()
	require.NoError(t, err)
	require.True(t, v.IsArray())
	assert.Empty(t, v.AsArray(), "a non-variadic function's __varg must never see its caller's variadic pack")
}

func TestInvokeNativeFunction(t *testing.T) {
	global := newTestContext()
	fn := &Function{Name: "native_add", Native: func(g *Context, self Reference, args []Reference) (Reference, error) {
		a, err := args[0].Read()
		if err != nil {
			return Reference{}, err
		}
		b, err := args[1].Read()
		if err != nil {
			return Reference{}, err
		}
		return RefTemporary(IntValue(a.AsInteger() + b.AsInteger())), nil
	}}

	ref, err := CallFunction(global, fn, []Value{IntValue(2), IntValue(3)})
	require.NoError(t, err)
	v, err := ref.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.AsInteger())
}
