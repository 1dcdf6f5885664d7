package asteria

// refRoot is the sum type for a Reference's root (§3.3): exactly one
// of uninitialized, void, constant, temporary, variable, or ptc.
type refRoot interface{ isRefRoot() }

type rootUninitialized struct{}
type rootVoid struct{}
type rootConstant struct{ value Value }
type rootTemporary struct{ value Value }
type rootVariable struct{ v *Variable }
type rootPTC struct {
	target *Function
	args   []Reference
}

// rootBypassed is not one of the six root variants in §3.3; it is an
// internal placeholder the switch-statement interpreter (stmt.go)
// installs for every name a case declares, so that reaching the name
// via a control-flow path that skipped its declaration raises the
// specific "bypassed variable" error (§4.4.4/§8) instead of a generic
// uninitialized-variable or undeclared-identifier error.
type rootBypassed struct{ name string }

func (rootUninitialized) isRefRoot() {}
func (rootVoid) isRefRoot()          {}
func (rootConstant) isRefRoot()      {}
func (rootTemporary) isRefRoot()     {}
func (rootVariable) isRefRoot()      {}
func (rootPTC) isRefRoot()           {}
func (rootBypassed) isRefRoot()      {}

// modKind enumerates the five reference-modifier steps from §3.3.
type modKind int

const (
	modArrayIndex modKind = iota
	modObjectKey
	modArrayHead
	modArrayTail
	modArrayRandom
)

// modifier is one step of descent into the value reached so far. It
// is a flat struct rather than a further interface, per the design
// note in §9 to favor a small-vector of steps over per-step heap
// allocation, since 0-3 steps is the overwhelmingly common case.
type modifier struct {
	kind  modKind
	index int64  // modArrayIndex
	key   string // modObjectKey
	seed  uint64 // modArrayRandom
}

// Reference is a path from a root to a (possibly nested) location,
// per §3.3: a root plus an ordered stack of modifiers.
type Reference struct {
	root refRoot
	mods []modifier
}

func RefUninitialized() Reference { return Reference{root: rootUninitialized{}} }
func RefVoid() Reference          { return Reference{root: rootVoid{}} }
func RefConstant(v Value) Reference {
	return Reference{root: rootConstant{value: v}}
}
func RefTemporary(v Value) Reference {
	return Reference{root: rootTemporary{value: v}}
}
func RefVariable(h *Variable) Reference {
	return Reference{root: rootVariable{v: h}}
}
func refPTC(target *Function, args []Reference) Reference {
	return Reference{root: rootPTC{target: target, args: args}}
}

// PTC reports whether r is a pending proper-tail-call root (§4.5),
// and if so returns its target and captured arguments.
func (r Reference) PTC() (target *Function, args []Reference, ok bool) {
	if p, is := r.root.(rootPTC); is {
		return p.target, p.args, true
	}
	return nil, nil, false
}

// Variable reports whether r's root is a materialized variable (any
// modifier chain is allowed -- a subscript of a variable is still
// rooted in one), and if so returns its cell. Used by Materialize and
// by the by-reference argument-passing check in §4.4.3.
func (r Reference) Variable() (*Variable, bool) {
	v, ok := r.root.(rootVariable)
	if !ok {
		return nil, false
	}
	return v.v, true
}

// withModifier returns a new Reference with m appended. It always
// copies rather than appending in place, so that two References
// derived from the same prefix (e.g. from a shared sub-expression)
// never alias each other's modifier slice.
func (r Reference) withModifier(m modifier) Reference {
	mods := make([]modifier, len(r.mods)+1)
	copy(mods, r.mods)
	mods[len(mods)-1] = m
	return Reference{root: r.root, mods: mods}
}

func (r Reference) Index(i int64) Reference {
	return r.withModifier(modifier{kind: modArrayIndex, index: i})
}
func (r Reference) Key(k string) Reference {
	return r.withModifier(modifier{kind: modObjectKey, key: k})
}
func (r Reference) Head() Reference { return r.withModifier(modifier{kind: modArrayHead}) }
func (r Reference) Tail() Reference { return r.withModifier(modifier{kind: modArrayTail}) }
func (r Reference) Random(seed uint64) Reference {
	return r.withModifier(modifier{kind: modArrayRandom, seed: seed})
}

// wrapIndex implements the array-index wrap rule from §3.3/§4.2: a
// negative index is shifted by the array length; it may still come
// out negative, which callers treat according to the operation (null
// on read/unset, prepend-nulls on open).
func wrapIndex(i int64, length int) int64 {
	if i < 0 {
		return i + int64(length)
	}
	return i
}

// randomIndex implements the deterministic probe formula from §4.2:
// a fixed-point multiply-hash of the seed, uniform over the array and
// stable across platforms.
func randomIndex(seed uint64, length int) int {
	if length == 0 {
		return 0
	}
	const mul = 0x9E3779B9
	h := (seed * mul) & 0xFFFFFFFF
	return int((h * uint64(length)) >> 32)
}

// Read implements §4.2's `read()`: null on any null ancestor, an
// error if an ancestor has the wrong type for its modifier.
func (r Reference) Read() (Value, error) {
	cur, err := readRoot(r.root)
	if err != nil {
		return NullValue, err
	}
	for _, m := range r.mods {
		cur, err = readModifier(cur, m)
		if err != nil {
			return NullValue, err
		}
	}
	return cur, nil
}

func readRoot(root refRoot) (Value, error) {
	switch rt := root.(type) {
	case rootUninitialized:
		return NullValue, newException(StringValue("use of uninitialized variable or reference"))
	case rootVoid:
		return NullValue, newException(StringValue("attempt to use the result of a function call that returned no value"))
	case rootConstant:
		return rt.value, nil
	case rootTemporary:
		return rt.value, nil
	case rootVariable:
		return rt.v.Get(), nil
	case rootPTC:
		return NullValue, newException(StringValue("internal error: read of a pending proper tail call"))
	case rootBypassed:
		return NullValue, BypassedVariableError{Name: rt.name}
	default:
		panic("asteria: reference root has an unknown type")
	}
}

func readModifier(cur Value, m modifier) (Value, error) {
	if cur.IsNull() {
		return NullValue, nil
	}
	switch m.kind {
	case modArrayIndex:
		if !cur.IsArray() {
			return NullValue, newTypeMismatch("array", cur.Type())
		}
		arr := cur.AsArray()
		idx := wrapIndex(m.index, len(arr))
		if idx < 0 || idx >= int64(len(arr)) {
			return NullValue, nil
		}
		return arr[idx], nil

	case modObjectKey:
		if !cur.IsObject() {
			return NullValue, newTypeMismatch("object", cur.Type())
		}
		return cur.obj.Get(m.key), nil

	case modArrayHead:
		if !cur.IsArray() {
			return NullValue, newTypeMismatch("array", cur.Type())
		}
		arr := cur.AsArray()
		if len(arr) == 0 {
			return NullValue, nil
		}
		return arr[0], nil

	case modArrayTail:
		if !cur.IsArray() {
			return NullValue, newTypeMismatch("array", cur.Type())
		}
		arr := cur.AsArray()
		if len(arr) == 0 {
			return NullValue, nil
		}
		return arr[len(arr)-1], nil

	case modArrayRandom:
		if !cur.IsArray() {
			return NullValue, newTypeMismatch("array", cur.Type())
		}
		arr := cur.AsArray()
		if len(arr) == 0 {
			return NullValue, nil
		}
		return arr[randomIndex(m.seed, len(arr))], nil

	default:
		panic("asteria: reference modifier has an unknown kind")
	}
}

// Open implements §4.2's `open(create=true)`: walks the modifier
// chain, autovivifying missing containers (null parents become an
// array or object depending on the next modifier) and returns an
// addressable pointer to the final slot so the caller can read or
// overwrite it in place. Only a `variable` root (or a chain already
// rooted in one) is a valid target: everything else is a read-only
// rvalue and open() fails with "not a valid reference".
func (r Reference) Open() (*Value, error) {
	if rb, ok := r.root.(rootBypassed); ok {
		return nil, BypassedVariableError{Name: rb.name}
	}
	rv, ok := r.root.(rootVariable)
	if !ok {
		return nil, newException(StringValue("not a valid reference for assignment"))
	}
	if rv.v.IsReadonly() && len(r.mods) == 0 {
		return nil, newException(StringValue("attempt to write to a `const` variable"))
	}
	slot := &rv.v.value
	for _, m := range r.mods {
		var err error
		slot, err = openModifier(slot, m)
		if err != nil {
			return nil, err
		}
	}
	return slot, nil
}

func openModifier(slot *Value, m modifier) (*Value, error) {
	switch m.kind {
	case modArrayIndex:
		if slot.IsNull() {
			*slot = ArrayValue(nil)
		}
		if !slot.IsArray() {
			return nil, newTypeMismatch("array", slot.Type())
		}
		items := slot.MutArray()
		idx := wrapIndex(m.index, len(*items))
		if idx < 0 {
			prepend := make([]Value, -idx)
			for i := range prepend {
				prepend[i] = NullValue
			}
			*items = append(prepend, *items...)
			idx = 0
		}
		for int64(len(*items)) <= idx {
			*items = append(*items, NullValue)
		}
		return &(*items)[idx], nil

	case modObjectKey:
		if slot.IsNull() {
			*slot = ObjectValue()
		}
		if !slot.IsObject() {
			return nil, newTypeMismatch("object", slot.Type())
		}
		obj := slot.MutObject()
		if !obj.Has(m.key) {
			obj.Set(m.key, NullValue)
		}
		i := obj.index[m.key]
		return &obj.values[i], nil

	case modArrayHead:
		if slot.IsNull() {
			*slot = ArrayValue(nil)
		}
		if !slot.IsArray() {
			return nil, newTypeMismatch("array", slot.Type())
		}
		items := slot.MutArray()
		if len(*items) == 0 {
			*items = append(*items, NullValue)
		}
		return &(*items)[0], nil

	case modArrayTail:
		if slot.IsNull() {
			*slot = ArrayValue(nil)
		}
		if !slot.IsArray() {
			return nil, newTypeMismatch("array", slot.Type())
		}
		items := slot.MutArray()
		if len(*items) == 0 {
			*items = append(*items, NullValue)
		}
		return &(*items)[len(*items)-1], nil

	case modArrayRandom:
		if slot.IsNull() {
			*slot = ArrayValue(nil)
		}
		if !slot.IsArray() {
			return nil, newTypeMismatch("array", slot.Type())
		}
		items := slot.MutArray()
		if len(*items) == 0 {
			*items = append(*items, NullValue)
		}
		return &(*items)[randomIndex(m.seed, len(*items))], nil

	default:
		panic("asteria: reference modifier has an unknown kind")
	}
}

// Unset implements §4.2's `unset()`: it removes the target slot
// (shifting the rest of an array, preserving insertion order among
// the rest of an object) and returns the value that used to be there.
// A bare variable (no modifiers) cannot be unset -- there is no
// container to remove it from -- and returns an error.
func (r Reference) Unset() (Value, error) {
	if len(r.mods) == 0 {
		return NullValue, newException(StringValue("cannot unset a variable, only a container element"))
	}
	parentRef := Reference{root: r.root, mods: r.mods[:len(r.mods)-1]}
	parent, err := parentRef.Read()
	if err != nil {
		return NullValue, err
	}
	last := r.mods[len(r.mods)-1]
	if parent.IsNull() {
		return NullValue, nil
	}
	switch last.kind {
	case modArrayIndex:
		if !parent.IsArray() {
			return NullValue, newTypeMismatch("array", parent.Type())
		}
		items := parent.MutArray()
		idx := wrapIndex(last.index, len(*items))
		if idx < 0 || idx >= int64(len(*items)) {
			return NullValue, nil
		}
		old := (*items)[idx]
		*items = append((*items)[:idx], (*items)[idx+1:]...)
		return old, writeBack(parentRef, parent)

	case modObjectKey:
		if !parent.IsObject() {
			return NullValue, newTypeMismatch("object", parent.Type())
		}
		old, existed := parent.obj.Delete(last.key)
		if !existed {
			return NullValue, nil
		}
		return old, writeBack(parentRef, parent)

	case modArrayHead:
		if !parent.IsArray() {
			return NullValue, newTypeMismatch("array", parent.Type())
		}
		items := parent.MutArray()
		if len(*items) == 0 {
			return NullValue, nil
		}
		old := (*items)[0]
		*items = (*items)[1:]
		return old, writeBack(parentRef, parent)

	case modArrayTail:
		if !parent.IsArray() {
			return NullValue, newTypeMismatch("array", parent.Type())
		}
		items := parent.MutArray()
		if len(*items) == 0 {
			return NullValue, nil
		}
		old := (*items)[len(*items)-1]
		*items = (*items)[:len(*items)-1]
		return old, writeBack(parentRef, parent)

	case modArrayRandom:
		if !parent.IsArray() {
			return NullValue, newTypeMismatch("array", parent.Type())
		}
		items := parent.MutArray()
		if len(*items) == 0 {
			return NullValue, nil
		}
		i := randomIndex(last.seed, len(*items))
		old := (*items)[i]
		*items = append((*items)[:i], (*items)[i+1:]...)
		return old, writeBack(parentRef, parent)

	default:
		panic("asteria: reference modifier has an unknown kind")
	}
}

// writeBack stores a mutated container value (whose payload may have
// been cloned by MutArray/MutObject) back into the slot the parent
// reference addresses. Only a `variable`-rooted parentRef reaches
// here in practice, since Unset is only ever called on an l-value.
func writeBack(parentRef Reference, newParent Value) error {
	slot, err := parentRef.Open()
	if err != nil {
		return err
	}
	*slot = newParent
	return nil
}

// Materialize implements §4.2's `materialize()`: it allocates a fresh
// Variable holding the dereferenced value and replaces the root,
// discarding any modifier chain in the process (the new root already
// names the exact nested value directly). It is a no-op on a root
// that is already a bare materialized variable, which is what makes
// Materialize idempotent (§8).
func (r Reference) Materialize(gc *GC) (Reference, error) {
	if v, ok := r.Variable(); ok && len(r.mods) == 0 {
		return RefVariable(v), nil
	}
	val, err := r.Read()
	if err != nil {
		return Reference{}, err
	}
	cell := gc.CreateVariable(val.Retain())
	return RefVariable(cell), nil
}

// DereferenceCopy implements §4.2's `dereference_copy()`: read the
// value, then bump the shared-payload refcount so the copy is a true
// second owner under the COW scheme (§9).
func (r Reference) DereferenceCopy() (Value, error) {
	v, err := r.Read()
	if err != nil {
		return NullValue, err
	}
	return v.Retain(), nil
}
