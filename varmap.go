package asteria

// VariableSet is the "Variable HashMap" of §3.5: a pointer-identity
// keyed set of *Variable handles. It backs both the GC's per-
// generation tracked sets and the scratch "staged" set used during a
// single collect_variables pass (§4.1).
//
// Go's builtin map already hashes pointers by identity, so unlike the
// Reference Dictionary (refdict.go) -- which needs custom probing to
// get string-keyed ordered iteration -- this is a thin wrapper that
// mostly exists to give the GC a named, self-documenting type instead
// of a bare map literal scattered across gc.go.
type VariableSet struct {
	m map[*Variable]struct{}
}

func NewVariableSet() *VariableSet {
	return &VariableSet{m: map[*Variable]struct{}{}}
}

// Insert adds h and reports whether it was not already present.
func (s *VariableSet) Insert(h *Variable) bool {
	if _, ok := s.m[h]; ok {
		return false
	}
	s.m[h] = struct{}{}
	return true
}

func (s *VariableSet) Has(h *Variable) bool {
	_, ok := s.m[h]
	return ok
}

func (s *VariableSet) Erase(h *Variable) {
	delete(s.m, h)
}

func (s *VariableSet) Len() int { return len(s.m) }

// Each iterates in unspecified order, matching the teacher's own use
// of bare Go maps for identity-keyed scratch sets.
func (s *VariableSet) Each(fn func(*Variable)) {
	for h := range s.m {
		fn(h)
	}
}

// Clear empties the set without discarding the backing map, so the
// GC can reuse one VariableSet across generations within a pass.
func (s *VariableSet) Clear() {
	for h := range s.m {
		delete(s.m, h)
	}
}
