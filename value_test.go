package asteria

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueTest(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", NullValue, false},
		{"false", BoolValue(false), false},
		{"true", BoolValue(true), true},
		{"zero int", IntValue(0), false},
		{"nonzero int", IntValue(1), true},
		{"zero real", RealValue(0), false},
		{"nan real", RealValue(math.NaN()), true},
		{"empty string", StringValue(""), false},
		{"nonempty string", StringValue("x"), true},
		{"empty array", ArrayValue(nil), false},
		{"nonempty array", ArrayValue([]Value{IntValue(1)}), true},
		{"empty object", ObjectValue(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Test())
		})
	}
}

func TestValueCompare(t *testing.T) {
	assert.Equal(t, OrderEqual, NullValue.Compare(NullValue))
	assert.Equal(t, OrderUnordered, NullValue.Compare(IntValue(0)))
	assert.Equal(t, OrderLess, IntValue(1).Compare(IntValue(2)))
	assert.Equal(t, OrderLess, IntValue(1).Compare(RealValue(1.5)))
	assert.Equal(t, OrderUnordered, RealValue(math.NaN()).Compare(RealValue(math.NaN())))
	assert.Equal(t, OrderUnordered, RealValue(math.NaN()).Compare(RealValue(1)))
	assert.Equal(t, OrderLess, StringValue("a").Compare(StringValue("b")))
	assert.Equal(t, OrderUnordered, ObjectValue().Compare(ObjectValue()))
}

func TestArrayCOWOnMutate(t *testing.T) {
	a := ArrayValue([]Value{IntValue(1), IntValue(2)})
	b := a.Retain() // simulate a second owning slot, e.g. a container element

	items := b.MutArray()
	(*items)[0] = IntValue(99)

	assert.Equal(t, int64(1), a.AsArray()[0].AsInteger(), "mutating b's clone must not affect a")
	assert.Equal(t, int64(99), b.AsArray()[0].AsInteger())
}

func TestObjectInsertionOrderPreserved(t *testing.T) {
	o := ObjectValue()
	o.MutObject().Set("z", IntValue(1))
	o.MutObject().Set("a", IntValue(2))
	o.MutObject().Set("m", IntValue(3))
	assert.Equal(t, []string{"z", "a", "m"}, o.obj.Keys())
}
