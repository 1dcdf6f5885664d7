package asteria

import "strings"

// applyBinary implements every binary operator from §4.4.1 except the
// short-circuit family (&&, ||, ??), which are compiled as branch
// nodes and never reach here, and <=> comparison result strings,
// which it does compute.
func applyBinary(op Operator, a, b Value) (Value, error) {
	switch op {
	case OpEq:
		return BoolValue(a.Equals(b)), nil
	case OpNe:
		return BoolValue(!a.Equals(b)), nil
	case OpLt:
		return relational(a, b, OrderLess)
	case OpGt:
		return relational(a, b, OrderGreater)
	case OpLe:
		return relationalOr(a, b, OrderLess, OrderEqual)
	case OpGe:
		return relationalOr(a, b, OrderGreater, OrderEqual)
	case OpCmp3:
		return StringValue(a.Compare(b).String()), nil

	case OpAdd:
		return arith(a, b, func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y },
			boolOr, stringConcat, arrayConcat)
	case OpSub:
		return arith(a, b, func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y },
			boolXor, stringRemove, nil)
	case OpMul:
		return arithMul(a, b)
	case OpDiv:
		return divide(a, b)
	case OpMod:
		return modulo(a, b)

	case OpShl:
		return shift(a, b, true, false)
	case OpShr:
		return shift(a, b, false, false)
	case OpShrArith:
		return shift(a, b, false, true)

	case OpBitAnd:
		return bitwise(a, b, func(x, y int64) int64 { return x & y })
	case OpBitOr:
		return bitwise(a, b, func(x, y int64) int64 { return x | y })
	case OpBitXor:
		return bitwise(a, b, func(x, y int64) int64 { return x ^ y })

	default:
		return NullValue, newException(StringValue("unsupported binary operator"))
	}
}

func relational(a, b Value, want Order) (Value, error) {
	o := a.Compare(b)
	if o == OrderUnordered {
		return BoolValue(false), nil
	}
	return BoolValue(o == want), nil
}

func relationalOr(a, b Value, w1, w2 Order) (Value, error) {
	o := a.Compare(b)
	if o == OrderUnordered {
		return BoolValue(false), nil
	}
	return BoolValue(o == w1 || o == w2), nil
}

func boolOr(x, y bool) bool  { return x || y }
func boolXor(x, y bool) bool { return x != y }

func stringConcat(x, y string) string { return x + y }

// stringRemove implements the string overload of `-`: every
// occurrence of y is removed from x.
func stringRemove(x, y string) string {
	if y == "" {
		return x
	}
	return strings.ReplaceAll(x, y, "")
}

func arrayConcat(x, y []Value) []Value {
	out := make([]Value, 0, len(x)+len(y))
	for _, v := range x {
		out = append(out, v.Retain())
	}
	for _, v := range y {
		out = append(out, v.Retain())
	}
	return out
}

// arith dispatches `+`/`-` across every overloaded type (§4.4.1):
// integer/real arithmetic, boolean or/xor, string concat/remove, and
// (for `+` only; arrayOp is nil for `-`) array concatenation.
func arith(a, b Value, intOp func(int64, int64) int64, realOp func(float64, float64) float64,
	boolOp func(bool, bool) bool, strOp func(string, string) string, arrayOp func([]Value, []Value) []Value) (Value, error) {
	switch {
	case a.IsInteger() && b.IsInteger():
		return IntValue(intOp(a.AsInteger(), b.AsInteger())), nil
	case a.IsInteger() && b.IsReal():
		return RealValue(realOp(float64(a.AsInteger()), b.AsReal())), nil
	case a.IsReal() && b.IsInteger():
		return RealValue(realOp(a.AsReal(), float64(b.AsInteger()))), nil
	case a.IsReal() && b.IsReal():
		return RealValue(realOp(a.AsReal(), b.AsReal())), nil
	case a.IsBoolean() && b.IsBoolean():
		return BoolValue(boolOp(a.AsBoolean(), b.AsBoolean())), nil
	case a.IsString() && b.IsString():
		return StringValue(strOp(a.AsString(), b.AsString())), nil
	case a.IsArray() && b.IsArray() && arrayOp != nil:
		return ArrayValue(arrayOp(a.AsArray(), b.AsArray())), nil
	default:
		return NullValue, newTypeMismatch("matching numeric, boolean, string, or array operands", a.Type())
	}
}

// arithMul handles `*`, which additionally overloads string*integer
// as string duplication (and boolean*boolean as logical and).
func arithMul(a, b Value) (Value, error) {
	switch {
	case a.IsString() && b.IsInteger():
		return StringValue(strings.Repeat(a.AsString(), int(maxInt(b.AsInteger(), 0)))), nil
	case a.IsInteger() && b.IsString():
		return StringValue(strings.Repeat(b.AsString(), int(maxInt(a.AsInteger(), 0)))), nil
	default:
		return arith(a, b, func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y },
			func(x, y bool) bool { return x && y }, nil, nil)
	}
}

func maxInt(x, floor int64) int64 {
	if x < floor {
		return floor
	}
	return x
}

func divide(a, b Value) (Value, error) {
	switch {
	case a.IsInteger() && b.IsInteger():
		if b.AsInteger() == 0 {
			return NullValue, newException(StringValue("division by zero"))
		}
		return IntValue(a.AsInteger() / b.AsInteger()), nil
	case (a.IsInteger() || a.IsReal()) && (b.IsInteger() || b.IsReal()):
		return RealValue(toReal(a) / toReal(b)), nil
	default:
		return NullValue, newTypeMismatch("integer or real", a.Type())
	}
}

func modulo(a, b Value) (Value, error) {
	switch {
	case a.IsInteger() && b.IsInteger():
		if b.AsInteger() == 0 {
			return NullValue, newException(StringValue("division by zero"))
		}
		return IntValue(a.AsInteger() % b.AsInteger()), nil
	case (a.IsInteger() || a.IsReal()) && (b.IsInteger() || b.IsReal()):
		x, y := toReal(a), toReal(b)
		return RealValue(x - y*float64(int64(x/y))), nil
	default:
		return NullValue, newTypeMismatch("integer or real", a.Type())
	}
}

// shift implements logical/arithmetic, left/right bit shifts on
// integers only: logical shift counts are taken mod 64; arithmetic
// shift counts are clamped to [0,63] (§4.4.1).
func shift(a, b Value, left, arithmetic bool) (Value, error) {
	if !a.IsInteger() || !b.IsInteger() {
		return NullValue, newTypeMismatch("integer", a.Type())
	}
	x := a.AsInteger()
	n := b.AsInteger()
	if arithmetic {
		if n < 0 {
			n = 0
		} else if n > 63 {
			n = 63
		}
	} else {
		n = n & 63
	}
	switch {
	case left:
		return IntValue(x << uint(n)), nil
	case arithmetic:
		return IntValue(x >> uint(n)), nil
	default:
		return IntValue(int64(uint64(x) >> uint(n))), nil
	}
}

func bitwise(a, b Value, op func(int64, int64) int64) (Value, error) {
	if !a.IsInteger() || !b.IsInteger() {
		return NullValue, newTypeMismatch("integer", a.Type())
	}
	return IntValue(op(a.AsInteger(), b.AsInteger())), nil
}
