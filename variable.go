package asteria

// Variable is the heap-allocated, mutable cell described in §3.2. It
// is the only kind of object that may participate in reference
// cycles. A Value stored in an array/object is not a cell of its own;
// an l-value naming it is a Reference rooted in the enclosing
// Variable plus a modifier chain (see reference.go).
//
// Variables are never copied; they are always addressed through a
// *Variable pointer, which doubles as the identity key used by the
// Variable HashMap (see varmap.go) and by the garbage collector.
type Variable struct {
	value    Value
	readOnly bool

	// strong is the reference count maintained by Retain/Release.
	// It is deliberately a plain int, not atomic: the core is
	// single-threaded cooperative (§4.6.4/§5), so there is never a
	// concurrent mutator to race against.
	strong int32

	// gen is the index of the generation whose tracked set
	// currently owns this cell (see gc.go). -1 means the cell has
	// not yet been registered with any generation (used briefly
	// for Variables synthesized outside of gc.CreateVariable, e.g.
	// during tests).
	gen int8

	// staged/marked are GC-internal scratch bits. The collector in
	// gc.go neither sets nor reads them; it keeps its marks in sets.
	staged bool
	marked bool
}

// NewVariable is a convenience constructor for tests and for code
// that does not need generational tracking (e.g. constant folding at
// compile time). Runtime code should prefer GC.CreateVariable so the
// cell is registered with a generation and subject to collection.
func NewVariable(v Value) *Variable {
	return &Variable{value: v, strong: 1, gen: -1}
}

func (v *Variable) Get() Value { return v.value }

// Set overwrites the held value. It fails if the variable has been
// marked read-only (§4.1).
func (v *Variable) Set(val Value) error {
	if v.readOnly {
		return newException(StringValue("attempt to write to a `const` variable"))
	}
	old := v.value
	old.Release()
	v.value = val
	return nil
}

// unsafeSet is Set without the read-only check, for internal callers
// that have already checked that bit. Parameter binding does not use
// it; it allocates fresh cells through GC.CreateVariable.
func (v *Variable) unsafeSet(val Value) {
	old := v.value
	old.Release()
	v.value = val
}

func (v *Variable) MarkReadonly()   { v.readOnly = true }
func (v *Variable) IsReadonly() bool { return v.readOnly }

// Retain increments the strong count and returns the same pointer,
// mirroring the teacher's shared-payload Retain convention in
// value.go: callers that stash a handle in a second owning slot must
// call Retain, and Release when that slot goes away.
func (v *Variable) Retain() *Variable {
	v.strong++
	return v
}

// Release decrements the strong count. The returned bool reports
// whether the count reached zero; the caller (almost always the GC)
// is responsible for tearing the cell down when it does.
func (v *Variable) Release() bool {
	v.strong--
	return v.strong <= 0
}

func (v *Variable) StrongCount() int32 { return v.strong }
