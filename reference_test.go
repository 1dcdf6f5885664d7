package asteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceReadNullAncestor(t *testing.T) {
	v := NewVariable(NullValue)
	ref := RefVariable(v).Index(0).Key("x")
	got, err := ref.Read()
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestReferenceReadWrongTypeErrors(t *testing.T) {
	v := NewVariable(IntValue(1))
	ref := RefVariable(v).Index(0)
	_, err := ref.Read()
	assert.Error(t, err)
}

func TestReferenceOpenAutovivifiesArray(t *testing.T) {
	v := NewVariable(NullValue)
	ref := RefVariable(v).Index(2)
	slot, err := ref.Open()
	require.NoError(t, err)
	*slot = IntValue(7)

	got, err := ref.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.AsInteger())
	assert.True(t, v.Get().IsArray())
	assert.Len(t, v.Get().AsArray(), 3) // indices 0,1 autovivified to null, 2 holds 7
}

func TestReferenceNegativeIndexWraps(t *testing.T) {
	v := NewVariable(ArrayValue([]Value{IntValue(1), IntValue(2), IntValue(3)}))
	ref := RefVariable(v).Index(-1)
	got, err := ref.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.AsInteger())
}

func TestReferenceNegativeIndexPastStartReadsNull(t *testing.T) {
	v := NewVariable(ArrayValue([]Value{IntValue(1)}))
	ref := RefVariable(v).Index(-5)
	got, err := ref.Read()
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestReferenceUnsetShiftsArray(t *testing.T) {
	v := NewVariable(ArrayValue([]Value{IntValue(1), IntValue(2), IntValue(3)}))
	ref := RefVariable(v).Index(1)
	old, err := ref.Unset()
	require.NoError(t, err)
	assert.Equal(t, int64(2), old.AsInteger())
	assert.Equal(t, []int64{1, 3}, asInts(v.Get().AsArray()))
}

func asInts(vs []Value) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = v.AsInteger()
	}
	return out
}

func TestReferenceMaterializeIdempotent(t *testing.T) {
	gc := NewGC()
	ref := RefConstant(IntValue(5))

	m1, err := ref.Materialize(gc)
	require.NoError(t, err)
	cell1, ok := m1.Variable()
	require.True(t, ok)

	m2, err := m1.Materialize(gc)
	require.NoError(t, err)
	cell2, ok := m2.Variable()
	require.True(t, ok)
	assert.Same(t, cell1, cell2, "materializing an already-materialized root is a no-op")
}

func TestReferenceDereferenceCopyRetains(t *testing.T) {
	v := NewVariable(ArrayValue([]Value{IntValue(1)}))
	ref := RefVariable(v)
	copy1, err := ref.DereferenceCopy()
	require.NoError(t, err)

	mut := copy1.MutArray()
	(*mut)[0] = IntValue(99)

	assert.Equal(t, int64(1), v.Get().AsArray()[0].AsInteger(), "copy-on-write: mutating the dereferenced copy must not alias the original")
}

func TestReferenceByRefAllowsSubscript(t *testing.T) {
	v := NewVariable(ArrayValue([]Value{IntValue(1), IntValue(2)}))
	ref := RefVariable(v).Index(0)
	_, ok := ref.Variable()
	assert.True(t, ok, "a subscript of a variable-rooted reference still qualifies for by-reference passing")
}
