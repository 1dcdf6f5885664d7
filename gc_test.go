package asteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGC() (*GC, *Context) {
	gc := NewGC()
	rng := NewRandom(1)
	global := NewGlobalContext(gc, rng)
	gc.BindGlobal(global)
	return gc, global
}

// linkCycle makes a reach b and b reach a through a function closure's
// Context, the simplest cyclic shape the walk can traverse: each
// Variable holds a Function whose Closure declares a reference to the
// other Variable.
func linkCycle(global *Context, a, b *Variable) {
	closureA := NewChildContext(global)
	closureA.Declare("peer", RefVariable(b))
	a.Set(FunctionValue(&Function{Name: "a", Closure: closureA}))

	closureB := NewChildContext(global)
	closureB.Declare("peer", RefVariable(a))
	b.Set(FunctionValue(&Function{Name: "b", Closure: closureB}))
}

func TestGCReclaimsUnreferencedCycle(t *testing.T) {
	gc, global := newTestGC()

	a := gc.CreateVariable(NullValue)
	b := gc.CreateVariable(NullValue)
	linkCycle(global, a, b)

	before := gc.CountPooledVariables()
	require.Equal(t, 2, before)

	reclaimed := gc.Collect(GenOldest)
	assert.Equal(t, 2, reclaimed, "neither cell is reachable from any root, so both cycle members are swept")
	assert.Equal(t, 0, gc.CountPooledVariables())
}

func TestGCKeepsCycleReachableFromGlobal(t *testing.T) {
	gc, global := newTestGC()

	a := gc.CreateVariable(NullValue)
	b := gc.CreateVariable(NullValue)
	linkCycle(global, a, b)

	global.Declare("anchor", RefVariable(a))

	reclaimed := gc.Collect(GenOldest)
	assert.Equal(t, 0, reclaimed, "a is reachable from the Global Context, which keeps b alive transitively")
	assert.Equal(t, 2, gc.CountPooledVariables())
}

func TestGCPromotesSurvivorsOneGeneration(t *testing.T) {
	gc, global := newTestGC()

	v := gc.CreateVariable(IntValue(1))
	global.Declare("kept", RefVariable(v))
	require.Equal(t, int8(GenNewest), v.gen)

	gc.Collect(GenNewest)
	assert.Equal(t, int8(GenMiddle), v.gen, "a survivor of its own generation's collection is promoted one step")

	gc.Collect(GenMiddle)
	assert.Equal(t, int8(GenOldest), v.gen)

	gc.Collect(GenOldest)
	assert.Equal(t, int8(GenOldest), v.gen, "GenOldest is sticky: nothing is promoted past it")
}

func TestGCAutoCollectsOnThresholdCrossing(t *testing.T) {
	gc, _ := newTestGC()

	for i := 0; i < defaultThresholds[GenNewest]+5; i++ {
		gc.CreateVariable(NullValue).Release()
	}

	assert.Less(t, gc.CountPooledVariables(), defaultThresholds[GenNewest]+5,
		"crossing the newest generation's threshold should have auto-triggered a sweep of the unreachable garbage")
}

func TestGCFinalizeClearsEverything(t *testing.T) {
	gc, global := newTestGC()
	v := gc.CreateVariable(IntValue(1))
	global.Declare("kept", RefVariable(v))

	gc.Finalize()
	assert.Equal(t, 0, gc.CountPooledVariables())
}

func TestGCReentrancyGuardSkipsNestedCollect(t *testing.T) {
	gc, _ := newTestGC()
	gc.collecting = true
	n := gc.Collect(GenOldest)
	gc.collecting = false
	assert.Equal(t, 0, n, "a Collect invoked while already collecting is a no-op")
}
