package asteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *Context {
	gc := NewGC()
	rng := NewRandom(1)
	global := NewGlobalContext(gc, rng)
	gc.BindGlobal(global)
	return global
}

func evalValue(t *testing.T, ctx *Context, expr Expr) Value {
	t.Helper()
	ref, err := Eval(ctx, expr, false)
	require.NoError(t, err)
	v, err := ref.Read()
	require.NoError(t, err)
	return v
}

func TestEvalLiteral(t *testing.T) {
	ctx := newTestContext()
	v := evalValue(t, ctx, Expr{Literal(IntValue(42))})
	assert.Equal(t, int64(42), v.AsInteger())
}

func TestEvalNamedRefResolvesThroughParent(t *testing.T) {
	global := newTestContext()
	cell := global.GC().CreateVariable(IntValue(7))
	global.Declare("x", RefVariable(cell))
	child := NewChildContext(global)

	v := evalValue(t, child, Expr{NamedRef("x")})
	assert.Equal(t, int64(7), v.AsInteger())
}

func TestEvalNamedRefUndeclaredErrors(t *testing.T) {
	ctx := newTestContext()
	_, err := Eval(ctx, Expr{NamedRef("nope")}, false)
	assert.Error(t, err)
}

func TestEvalBinaryAdd(t *testing.T) {
	ctx := newTestContext()
	expr := Expr{Literal(IntValue(2)), Literal(IntValue(3)), Binary(OpAdd, false)}
	v := evalValue(t, ctx, expr)
	assert.Equal(t, int64(5), v.AsInteger())
}

func TestEvalAssignWritesThroughVariable(t *testing.T) {
	global := newTestContext()
	cell := global.GC().CreateVariable(IntValue(0))
	global.Declare("x", RefVariable(cell))

	expr := Expr{NamedRef("x"), Literal(IntValue(9)), Binary(OpAssign, false)}
	v := evalValue(t, global, expr)
	assert.Equal(t, int64(9), v.AsInteger())
	assert.Equal(t, int64(9), cell.Get().AsInteger())
}

func TestEvalAndShortCircuitsOnFalse(t *testing.T) {
	ctx := newTestContext()
	// `false && (1/0)`: the branch must skip the divide-by-zero entirely.
	rhs := Expr{Literal(IntValue(1)), Literal(IntValue(0)), Binary(OpDiv, false)}
	expr := Expr{Literal(BoolValue(false))}
	expr = append(expr, Branch(OpAnd, len(rhs)))
	expr = append(expr, rhs...)

	v := evalValue(t, ctx, expr)
	assert.False(t, v.Test())
}

func TestEvalOrShortCircuitsOnTrue(t *testing.T) {
	ctx := newTestContext()
	rhs := Expr{Literal(IntValue(1)), Literal(IntValue(0)), Binary(OpDiv, false)}
	expr := Expr{Literal(BoolValue(true))}
	expr = append(expr, Branch(OpOr, len(rhs)))
	expr = append(expr, rhs...)

	v := evalValue(t, ctx, expr)
	assert.True(t, v.Test())
}

func TestEvalCoalesceSkipsWhenNotNull(t *testing.T) {
	ctx := newTestContext()
	rhs := Expr{Literal(IntValue(99))}
	expr := Expr{Literal(IntValue(1))}
	expr = append(expr, Branch(OpCoalesce, len(rhs)))
	expr = append(expr, rhs...)

	v := evalValue(t, ctx, expr)
	assert.Equal(t, int64(1), v.AsInteger())
}

func TestEvalTernary(t *testing.T) {
	ctx := newTestContext()
	falseBranch := Expr{Literal(IntValue(20))}
	trueBranch := Expr{Literal(IntValue(10)), Jump(len(falseBranch))}

	expr := Expr{Literal(BoolValue(true)), Ternary(len(trueBranch))}
	expr = append(expr, trueBranch...)
	expr = append(expr, falseBranch...)

	v := evalValue(t, ctx, expr)
	assert.Equal(t, int64(10), v.AsInteger())
}

func TestEvalCompoundOrAssignSkipsWhenTruthy(t *testing.T) {
	global := newTestContext()
	cell := global.GC().CreateVariable(IntValue(5))
	global.Declare("x", RefVariable(cell))

	rhs := Expr{Literal(IntValue(99))}
	expr := Expr{NamedRef("x"), CompoundBranch(OpOr, len(rhs)+1)}
	expr = append(expr, rhs...)
	expr = append(expr, CompoundFinish())

	v := evalValue(t, global, expr)
	assert.Equal(t, int64(5), v.AsInteger(), "x is already truthy, so ||= must not overwrite it")
	assert.Equal(t, int64(5), cell.Get().AsInteger())
}

func TestEvalCompoundCoalesceAssignsWhenNull(t *testing.T) {
	global := newTestContext()
	cell := global.GC().CreateVariable(NullValue)
	global.Declare("x", RefVariable(cell))

	rhs := Expr{Literal(IntValue(7))}
	expr := Expr{NamedRef("x"), CompoundBranch(OpCoalesce, len(rhs)+1)}
	expr = append(expr, rhs...)
	expr = append(expr, CompoundFinish())

	v := evalValue(t, global, expr)
	assert.Equal(t, int64(7), v.AsInteger())
	assert.Equal(t, int64(7), cell.Get().AsInteger())
}

func TestEvalArrayCtor(t *testing.T) {
	ctx := newTestContext()
	expr := Expr{Literal(IntValue(1)), Literal(IntValue(2)), Literal(IntValue(3)), ArrayCtor(3)}
	v := evalValue(t, ctx, expr)
	require.True(t, v.IsArray())
	assert.Equal(t, []int64{1, 2, 3}, asInts(v.AsArray()))
}

func TestEvalObjectCtor(t *testing.T) {
	ctx := newTestContext()
	expr := Expr{Literal(StringValue("k")), Literal(IntValue(1)), ObjectCtor(1)}
	v := evalValue(t, ctx, expr)
	require.True(t, v.IsObject())
	assert.True(t, v.obj.Has("k"))
	assert.Equal(t, int64(1), v.obj.Get("k").AsInteger())
}

func TestEvalSubscriptIndex(t *testing.T) {
	ctx := newTestContext()
	arr := Expr{Literal(IntValue(1)), Literal(IntValue(2)), Literal(IntValue(3)), ArrayCtor(3)}
	expr := append(Expr{}, arr...)
	expr = append(expr, Literal(IntValue(1)), Index())

	v := evalValue(t, ctx, expr)
	assert.Equal(t, int64(2), v.AsInteger())
}

func TestEvalPreIncMutatesVariable(t *testing.T) {
	global := newTestContext()
	cell := global.GC().CreateVariable(IntValue(1))
	global.Declare("x", RefVariable(cell))

	expr := Expr{NamedRef("x"), Unary(OpPreInc, true)}
	v := evalValue(t, global, expr)
	assert.Equal(t, int64(2), v.AsInteger())
	assert.Equal(t, int64(2), cell.Get().AsInteger())
}

func TestEvalPostIncReturnsOldValue(t *testing.T) {
	global := newTestContext()
	cell := global.GC().CreateVariable(IntValue(1))
	global.Declare("x", RefVariable(cell))

	expr := Expr{NamedRef("x"), Unary(OpPostInc, true)}
	v := evalValue(t, global, expr)
	assert.Equal(t, int64(1), v.AsInteger())
	assert.Equal(t, int64(2), cell.Get().AsInteger())
}
