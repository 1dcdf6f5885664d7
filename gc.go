package asteria

// Generation indices, ordered youngest to oldest (§4.6.1). New
// Variables are always born into GenNewest; a Variable that survives
// a collection of its own generation is promoted one step towards
// GenOldest, which is sticky (nothing is promoted out of it).
const (
	GenNewest = 0
	GenMiddle = 1
	GenOldest = 2
	genCount  = 3
)

var defaultThresholds = [genCount]int{10, 70, 500}

type generation struct {
	tracked    *VariableSet
	allocCount int
	threshold  int
}

// GC is the generational, cycle-collecting allocator described in
// §4.6. It is owned by the Global Context; every Variable in a run is
// allocated through it.
type GC struct {
	gens       [genCount]*generation
	global     *Context
	frames     []*Context     // active call frames, innermost last
	stacks     []*[]Reference // live evaluation stacks
	collecting bool

	// MaxRecursionDepth bounds len(frames) (§6's recursion-depth
	// guard); call.go's invoke consults it before pushing a new frame.
	MaxRecursionDepth int
}

func NewGC() *GC {
	gc := &GC{MaxRecursionDepth: DefaultMaxRecursionDepth}
	for i := range gc.gens {
		gc.gens[i] = &generation{tracked: NewVariableSet(), threshold: defaultThresholds[i]}
	}
	return gc
}

// BindGlobal records the Global Context so root scans can reach the
// top-level reference dictionary; called once during interpreter setup.
func (gc *GC) BindGlobal(c *Context) { gc.global = c }

// PushFrame/PopFrame track the chain of currently-executing function
// Contexts (§4.6.2 step 2's "active call frames"). The evaluator
// calls these around every non-tail-call function invocation.
func (gc *GC) PushFrame(c *Context) { gc.frames = append(gc.frames, c) }
func (gc *GC) PopFrame()            { gc.frames = gc.frames[:len(gc.frames)-1] }

// PushStack/PopStack register a live expression-evaluation stack so
// its entries count as roots for the duration of one Eval call, even
// though the stack itself is a transient Go-local slice and never
// reachable through any Context.
func (gc *GC) PushStack(s *[]Reference) { gc.stacks = append(gc.stacks, s) }
func (gc *GC) PopStack()                { gc.stacks = gc.stacks[:len(gc.stacks)-1] }

// CreateVariable implements `gc.create_variable(gen_hint)` (§4.6.3):
// allocate a Variable holding initial, register it with the newest
// generation, and trigger a collection of that generation if its
// allocation counter has crossed threshold.
func (gc *GC) CreateVariable(initial Value) *Variable {
	return gc.createVariableIn(GenNewest, initial)
}

func (gc *GC) createVariableIn(genHint int, initial Value) *Variable {
	v := &Variable{value: initial, strong: 1, gen: int8(genHint)}
	g := gc.gens[genHint]
	g.tracked.Insert(v)
	g.allocCount++
	if g.allocCount > g.threshold && !gc.collecting {
		gc.Collect(genHint)
	}
	return v
}

// Collect implements `gc.collect(gen_limit)` (§4.6.2): collects
// generations [0..limit] and returns the number of Variables reclaimed.
func (gc *GC) Collect(limit int) int {
	if gc.collecting {
		return 0
	}
	gc.collecting = true
	defer func() { gc.collecting = false }()

	// Step 1: union of tracked sets, and the internal ("in-pool")
	// reference count: for each candidate, the number of candidates
	// whose value reaches it, directly or through other cells.
	candidates := NewVariableSet()
	for g := 0; g <= limit; g++ {
		gc.gens[g].tracked.Each(func(h *Variable) { candidates.Insert(h) })
	}

	inPool := map[*Variable]int32{}
	candidates.Each(func(h *Variable) {
		sub := newGCWalk(NewVariableSet())
		h.value.walk(sub)
		for _, reached := range sub.out {
			if candidates.Has(reached) {
				inPool[reached]++
			}
		}
	})

	// Step 2: root scan -- everything reachable from the Global
	// Context, every active call frame, and every live evaluation
	// stack is definitively live, regardless of refcount arithmetic.
	rootWalk := newGCWalk(NewVariableSet())
	if gc.global != nil {
		gc.global.walk(rootWalk)
	}
	for _, f := range gc.frames {
		f.walk(rootWalk)
	}
	for _, s := range gc.stacks {
		for _, r := range *s {
			stageReference(rootWalk, r)
		}
	}
	liveFromRoot := rootWalk.vars

	// Step 3/4: reconcile refcounts and sweep.
	var unreach []*Variable
	var live []*Variable
	candidates.Each(func(h *Variable) {
		if liveFromRoot.Has(h) {
			live = append(live, h)
			return
		}
		adjusted := h.strong - inPool[h]
		if adjusted <= 0 {
			unreach = append(unreach, h)
		} else {
			live = append(live, h)
		}
	})

	for _, h := range live {
		from := gc.gens[h.gen]
		from.tracked.Erase(h)
		to := h.gen
		if int(to) < GenOldest {
			to++
		}
		h.gen = to
		gc.gens[to].tracked.Insert(h)
	}
	for _, h := range unreach {
		gc.gens[h.gen].tracked.Erase(h)
		old := h.value
		h.value = NullValue
		old.Release()
	}

	// Step 5: finalize -- reset counters for collected generations.
	for g := 0; g <= limit; g++ {
		gc.gens[g].allocCount = 0
	}
	return len(unreach)
}

// Finalize implements `gc.finalize()`: collect everything and drop
// every tracked handle, for use once at interpreter shutdown.
func (gc *GC) Finalize() {
	gc.Collect(GenOldest)
	for g := range gc.gens {
		gc.gens[g].tracked.Clear()
		gc.gens[g].allocCount = 0
	}
}

// ApplyThresholds overrides the per-generation allocation counts that
// decide when CreateVariable auto-triggers a Collect (§4.6.3). A
// driver wires these in from Config (config.go) rather than reaching
// into gc.gens directly.
func (gc *GC) ApplyThresholds(newest, middle, oldest int) {
	gc.gens[GenNewest].threshold = newest
	gc.gens[GenMiddle].threshold = middle
	gc.gens[GenOldest].threshold = oldest
}

// CountPooledVariables exposes the total number of Variables
// currently tracked across all generations, the quantity the test
// suite's `gc.count_pooled_variables()` checks before/after a forced
// collection (§8).
func (gc *GC) CountPooledVariables() int {
	n := 0
	for _, g := range gc.gens {
		n += g.tracked.Len()
	}
	return n
}

// stageReference walks whatever a single Reference's root currently
// names, so evaluation-stack entries (which may hold a bare constant
// or temporary Value, not yet bound to any Variable) still contribute
// their reachable Variables to a root scan.
func stageReference(w *gcWalk, r Reference) {
	switch rt := r.root.(type) {
	case rootVariable:
		w.stage(rt.v)
	case rootConstant:
		rt.value.walk(w)
	case rootTemporary:
		rt.value.walk(w)
	case rootPTC:
		for _, a := range rt.args {
			stageReference(w, a)
		}
	}
}
