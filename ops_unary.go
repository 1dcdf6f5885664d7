package asteria

import "math"
import "math/bits"

// applyUnary implements every side-effect-free unary operator from
// §4.4.1 (everything except the increment/decrement family, which
// also needs to write back through the operand's Reference and is
// handled directly by Eval).
func applyUnary(op Operator, v Value) (Value, error) {
	switch op {
	case OpPos:
		if !v.IsInteger() && !v.IsReal() {
			return NullValue, newTypeMismatch("integer or real", v.Type())
		}
		return v, nil

	case OpNeg:
		switch {
		case v.IsInteger():
			return IntValue(-v.AsInteger()), nil
		case v.IsReal():
			return RealValue(-v.AsReal()), nil
		default:
			return NullValue, newTypeMismatch("integer or real", v.Type())
		}

	case OpNot:
		return BoolValue(!v.Test()), nil

	case OpBitNot:
		if !v.IsInteger() {
			return NullValue, newTypeMismatch("integer", v.Type())
		}
		return IntValue(^v.AsInteger()), nil

	case OpTypeof:
		return StringValue(v.Type().String()), nil

	case OpSqrt:
		return RealValue(math.Sqrt(toReal(v))), nil

	case OpAbs:
		switch {
		case v.IsInteger():
			i := v.AsInteger()
			if i < 0 {
				i = -i
			}
			return IntValue(i), nil
		case v.IsReal():
			return RealValue(math.Abs(v.AsReal())), nil
		default:
			return NullValue, newTypeMismatch("integer or real", v.Type())
		}

	case OpSign:
		// Open Question decision (DESIGN.md): sign() returns 0 for
		// any non-negative value, including zero -- not 1.
		r := toReal(v)
		switch {
		case r < 0:
			return IntValue(-1), nil
		default:
			return IntValue(0), nil
		}

	case OpRound:
		return RealValue(math.Round(toReal(v))), nil
	case OpFloor:
		return RealValue(math.Floor(toReal(v))), nil
	case OpCeil:
		return RealValue(math.Ceil(toReal(v))), nil
	case OpTrunc:
		return RealValue(math.Trunc(toReal(v))), nil

	case OpRoundI:
		return IntValue(int64(math.Round(toReal(v)))), nil
	case OpFloorI:
		return IntValue(int64(math.Floor(toReal(v)))), nil
	case OpCeilI:
		return IntValue(int64(math.Ceil(toReal(v)))), nil
	case OpTruncI:
		return IntValue(int64(math.Trunc(toReal(v)))), nil

	case OpIsNaN:
		return BoolValue(v.IsReal() && math.IsNaN(v.AsReal())), nil
	case OpIsInf:
		return BoolValue(v.IsReal() && math.IsInf(v.AsReal(), 0)), nil

	case OpLzcnt:
		if !v.IsInteger() {
			return NullValue, newTypeMismatch("integer", v.Type())
		}
		return IntValue(int64(bits.LeadingZeros64(uint64(v.AsInteger())))), nil

	case OpTzcnt:
		if !v.IsInteger() {
			return NullValue, newTypeMismatch("integer", v.Type())
		}
		return IntValue(int64(bits.TrailingZeros64(uint64(v.AsInteger())))), nil

	case OpPopcnt:
		if !v.IsInteger() {
			return NullValue, newTypeMismatch("integer", v.Type())
		}
		return IntValue(int64(bits.OnesCount64(uint64(v.AsInteger())))), nil

	case OpCountof:
		switch {
		case v.IsString():
			return IntValue(int64(len([]rune(v.AsString())))), nil
		case v.IsArray():
			return IntValue(int64(len(v.AsArray()))), nil
		case v.IsObject():
			return IntValue(int64(v.obj.Len())), nil
		default:
			return NullValue, newTypeMismatch("string, array, or object", v.Type())
		}

	case OpToBool:
		return BoolValue(v.Test()), nil

	default:
		return NullValue, newException(StringValue("unsupported unary operator"))
	}
}

func toReal(v Value) float64 {
	switch {
	case v.IsInteger():
		return float64(v.AsInteger())
	case v.IsReal():
		return v.AsReal()
	default:
		return math.NaN()
	}
}

// applyIncDec implements the four increment/decrement forms. delta is
// +1 or -1; post reports whether the operator's *original* value (not
// the updated one) is the expression's result.
func applyIncDec(old Value, delta int64, post bool) (result, stored Value, err error) {
	switch {
	case old.IsInteger():
		updated := IntValue(old.AsInteger() + delta)
		if post {
			return old, updated, nil
		}
		return updated, updated, nil
	case old.IsReal():
		updated := RealValue(old.AsReal() + float64(delta))
		if post {
			return old, updated, nil
		}
		return updated, updated, nil
	default:
		return NullValue, NullValue, newTypeMismatch("integer or real", old.Type())
	}
}
