// Package stdlib provides the minimal native-function catalog named
// in SPEC_FULL.md's "Supplemented features" section: a handful of
// `std.*` leaf bindings and the `gc` object, registered into a Global
// Context as ordinary function Values so the core's native-binding
// contract (spec.md §6) is exercised end-to-end. This is a library
// layer over the execution core, not part of it -- the core itself
// never imports this package.
package stdlib

import (
	"fmt"
	"math"
	"os"
	"sort"

	asteria "github.com/lhmouse/asteria-sub009"
)

// Register builds the `std` and `gc` namespace objects and declares
// them as constants in the given Global Context. Call once, right
// after asteria.NewInterpreter, before running any script that
// references std.* or gc.*.
func Register(global *asteria.Context) {
	gc := global.GC()

	std := asteria.ObjectValue()
	std.MutObject().Set("io", nsIO())
	std.MutObject().Set("math", nsMath())
	std.MutObject().Set("array", nsArray())
	std.MutObject().Set("string", nsString())
	global.Declare("std", asteria.RefConstant(std))

	gcNs := asteria.ObjectValue()
	gcNs.MutObject().Set("collect", nativeFn("gc.collect", func(_ *asteria.Context, _ asteria.Reference, args []asteria.Reference) (asteria.Reference, error) {
		limit := asteria.GenOldest
		if len(args) > 0 {
			v, err := args[0].Read()
			if err != nil {
				return asteria.Reference{}, err
			}
			if v.IsInteger() {
				limit = int(v.AsInteger())
			}
		}
		n := gc.Collect(limit)
		return asteria.RefTemporary(asteria.IntValue(int64(n))), nil
	}))
	gcNs.MutObject().Set("count_pooled_variables", nativeFn("gc.count_pooled_variables", func(_ *asteria.Context, _ asteria.Reference, _ []asteria.Reference) (asteria.Reference, error) {
		return asteria.RefTemporary(asteria.IntValue(int64(gc.CountPooledVariables()))), nil
	}))
	global.Declare("gc", asteria.RefConstant(gcNs))
}

func nativeFn(name string, fn asteria.NativeFn) asteria.Value {
	return asteria.FunctionValue(&asteria.Function{Name: name, Native: fn})
}

func argValue(args []asteria.Reference, i int) (asteria.Value, error) {
	if i >= len(args) {
		return asteria.Value{}, &asteria.Exception{Value: asteria.StringValue(fmt.Sprintf("missing argument %d", i))}
	}
	return args[i].Read()
}

func wantReal(v asteria.Value) (float64, error) {
	switch v.Type() {
	case asteria.TypeInteger:
		return float64(v.AsInteger()), nil
	case asteria.TypeReal:
		return v.AsReal(), nil
	default:
		return 0, &asteria.Exception{Value: asteria.StringValue("expected a number, got `" + v.Type().String() + "`")}
	}
}

func nsIO() asteria.Value {
	ns := asteria.ObjectValue()
	ns.MutObject().Set("print", nativeFn("std.io.print", func(_ *asteria.Context, _ asteria.Reference, args []asteria.Reference) (asteria.Reference, error) {
		v, err := argValue(args, 0)
		if err != nil {
			return asteria.Reference{}, err
		}
		fmt.Fprintln(os.Stdout, asteria.PrintValue(v, false))
		return asteria.RefVoid(), nil
	}))
	ns.MutObject().Set("write", nativeFn("std.io.write", func(_ *asteria.Context, _ asteria.Reference, args []asteria.Reference) (asteria.Reference, error) {
		v, err := argValue(args, 0)
		if err != nil {
			return asteria.Reference{}, err
		}
		fmt.Fprint(os.Stdout, asteria.PrintValue(v, false))
		return asteria.RefVoid(), nil
	}))
	return ns
}

func nsMath() asteria.Value {
	ns := asteria.ObjectValue()
	unary := func(name string, fn func(float64) float64) {
		ns.MutObject().Set(name, nativeFn("std.math."+name, func(_ *asteria.Context, _ asteria.Reference, args []asteria.Reference) (asteria.Reference, error) {
			v, err := argValue(args, 0)
			if err != nil {
				return asteria.Reference{}, err
			}
			r, err := wantReal(v)
			if err != nil {
				return asteria.Reference{}, err
			}
			return asteria.RefTemporary(asteria.RealValue(fn(r))), nil
		}))
	}
	unary("abs", math.Abs)
	unary("sqrt", math.Sqrt)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", math.Round)
	unary("trunc", math.Trunc)
	// sign: per the Open Question recorded in spec.md §9, 0 for any
	// non-negative value (including zero), -1 for negative -- not the
	// mathematical three-way sign.
	unary("sign", func(r float64) float64 {
		if r < 0 {
			return -1
		}
		return 0
	})
	ns.MutObject().Set("pow", nativeFn("std.math.pow", func(_ *asteria.Context, _ asteria.Reference, args []asteria.Reference) (asteria.Reference, error) {
		base, err := argValue(args, 0)
		if err != nil {
			return asteria.Reference{}, err
		}
		exp, err := argValue(args, 1)
		if err != nil {
			return asteria.Reference{}, err
		}
		b, err := wantReal(base)
		if err != nil {
			return asteria.Reference{}, err
		}
		e, err := wantReal(exp)
		if err != nil {
			return asteria.Reference{}, err
		}
		return asteria.RefTemporary(asteria.RealValue(math.Pow(b, e))), nil
	}))
	return ns
}

func nsArray() asteria.Value {
	ns := asteria.ObjectValue()
	ns.MutObject().Set("push", nativeFn("std.array.push", func(_ *asteria.Context, self asteria.Reference, args []asteria.Reference) (asteria.Reference, error) {
		arr, err := self.Open()
		if err != nil {
			return asteria.Reference{}, err
		}
		v, err := argValue(args, 0)
		if err != nil {
			return asteria.Reference{}, err
		}
		items := arr.MutArray()
		*items = append(*items, v.Retain())
		return self, nil
	}))
	ns.MutObject().Set("pop", nativeFn("std.array.pop", func(_ *asteria.Context, self asteria.Reference, _ []asteria.Reference) (asteria.Reference, error) {
		arr, err := self.Open()
		if err != nil {
			return asteria.Reference{}, err
		}
		items := arr.MutArray()
		if len(*items) == 0 {
			return asteria.RefTemporary(asteria.NullValue), nil
		}
		last := (*items)[len(*items)-1]
		*items = (*items)[:len(*items)-1]
		return asteria.RefTemporary(last), nil
	}))
	ns.MutObject().Set("len", nativeFn("std.array.len", func(_ *asteria.Context, self asteria.Reference, _ []asteria.Reference) (asteria.Reference, error) {
		v, err := self.Read()
		if err != nil {
			return asteria.Reference{}, err
		}
		if !v.IsArray() {
			return asteria.Reference{}, &asteria.Exception{Value: asteria.StringValue("expected an array")}
		}
		return asteria.RefTemporary(asteria.IntValue(int64(len(v.AsArray())))), nil
	}))
	ns.MutObject().Set("sort", nativeFn("std.array.sort", func(_ *asteria.Context, self asteria.Reference, _ []asteria.Reference) (asteria.Reference, error) {
		arr, err := self.Open()
		if err != nil {
			return asteria.Reference{}, err
		}
		items := arr.MutArray()
		sort.SliceStable(*items, func(i, j int) bool {
			return (*items)[i].Compare((*items)[j]) == asteria.OrderLess
		})
		return self, nil
	}))
	ns.MutObject().Set("each", nativeFn("std.array.each", func(global *asteria.Context, self asteria.Reference, args []asteria.Reference) (asteria.Reference, error) {
		v, err := self.Read()
		if err != nil {
			return asteria.Reference{}, err
		}
		if !v.IsArray() {
			return asteria.Reference{}, &asteria.Exception{Value: asteria.StringValue("expected an array")}
		}
		cbVal, err := argValue(args, 0)
		if err != nil {
			return asteria.Reference{}, err
		}
		if !cbVal.IsFunction() {
			return asteria.Reference{}, &asteria.Exception{Value: asteria.StringValue("expected a function")}
		}
		cb := cbVal.AsFunction()
		for _, it := range v.AsArray() {
			if _, err := asteria.CallFunction(global, cb, []asteria.Value{it}); err != nil {
				return asteria.Reference{}, err
			}
		}
		return asteria.RefVoid(), nil
	}))
	return ns
}

func nsString() asteria.Value {
	ns := asteria.ObjectValue()
	ns.MutObject().Set("length", nativeFn("std.string.length", func(_ *asteria.Context, self asteria.Reference, _ []asteria.Reference) (asteria.Reference, error) {
		v, err := self.Read()
		if err != nil {
			return asteria.Reference{}, err
		}
		if !v.IsString() {
			return asteria.Reference{}, &asteria.Exception{Value: asteria.StringValue("expected a string")}
		}
		return asteria.RefTemporary(asteria.IntValue(int64(len(v.AsString())))), nil
	}))
	ns.MutObject().Set("find", nativeFn("std.string.find", func(_ *asteria.Context, self asteria.Reference, args []asteria.Reference) (asteria.Reference, error) {
		v, err := self.Read()
		if err != nil {
			return asteria.Reference{}, err
		}
		needle, err := argValue(args, 0)
		if err != nil {
			return asteria.Reference{}, err
		}
		if !v.IsString() || !needle.IsString() {
			return asteria.Reference{}, &asteria.Exception{Value: asteria.StringValue("expected strings")}
		}
		idx := indexOf(v.AsString(), needle.AsString())
		return asteria.RefTemporary(asteria.IntValue(int64(idx))), nil
	}))
	ns.MutObject().Set("slice", nativeFn("std.string.slice", func(_ *asteria.Context, self asteria.Reference, args []asteria.Reference) (asteria.Reference, error) {
		v, err := self.Read()
		if err != nil {
			return asteria.Reference{}, err
		}
		if !v.IsString() {
			return asteria.Reference{}, &asteria.Exception{Value: asteria.StringValue("expected a string")}
		}
		s := v.AsString()
		from, err := argValue(args, 0)
		if err != nil {
			return asteria.Reference{}, err
		}
		start := int(from.AsInteger())
		end := len(s)
		if len(args) > 1 {
			to, err := argValue(args, 1)
			if err != nil {
				return asteria.Reference{}, err
			}
			end = int(to.AsInteger())
		}
		if start < 0 {
			start = 0
		}
		if end > len(s) {
			end = len(s)
		}
		if start > end {
			start = end
		}
		return asteria.RefTemporary(asteria.StringValue(s[start:end])), nil
	}))
	return ns
}

func indexOf(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if s[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
