package asteria

// evalStack is the per-call expression-evaluation stack (§4.4): a
// thin named slice type with push/pop/top helpers, in the same spirit
// as the teacher's own parsing-VM stack (vm_stack.go).
type evalStack []Reference

func (s *evalStack) push(r Reference) { *s = append(*s, r) }

func (s *evalStack) pop() Reference {
	r := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return r
}

// popN pops the last n pushed entries and returns them in original
// (left-to-right) push order.
func (s *evalStack) popN(n int) []Reference {
	i := len(*s) - n
	out := append([]Reference(nil), (*s)[i:]...)
	*s = (*s)[:i]
	return out
}

// Eval runs a compiled Expr to completion and returns its single
// resulting Reference (§4.4: "when evaluation ends, the stack holds
// exactly one Reference"). tail reports whether expr is the tail
// expression of a `return` statement in the enclosing function body,
// which is the only position a NodeCall may resolve to a proper tail
// call (§4.4.3) instead of an immediate invocation.
func Eval(ctx *Context, expr Expr, tail bool) (Reference, error) {
	var es evalStack
	gc := ctx.GC()
	gc.PushStack((*[]Reference)(&es))
	defer gc.PopStack()

	for pc := 0; pc < len(expr); pc++ {
		node := &expr[pc]
		switch node.Kind {
		case NodeLiteral:
			es.push(RefConstant(node.Literal))

		case NodeNamedRef:
			ref, ok := ctx.Resolve(node.Name)
			if !ok {
				return Reference{}, newException(StringValue("undeclared identifier `" + node.Name + "`"))
			}
			if rb, ok := ref.root.(rootBypassed); ok {
				return Reference{}, BypassedVariableError{Name: rb.name}
			}
			es.push(ref)

		case NodeGlobalRef:
			ref, ok := ctx.ResolveGlobal(node.Name)
			if !ok {
				return Reference{}, newException(StringValue("undeclared global identifier `" + node.Name + "`"))
			}
			es.push(ref)

		case NodeClosure:
			fn := &Function{Params: node.Params, Variadic: node.Variadic, Body: node.Body, Closure: ctx}
			es.push(RefTemporary(FunctionValue(fn)))

		case NodeImport:
			fn, err := ctx.Global().importScript(node.Import)
			if err != nil {
				return Reference{}, err
			}
			es.push(RefTemporary(FunctionValue(fn)))

		case NodeArrayCtor:
			refs := es.popN(node.Count)
			items := make([]Value, len(refs))
			for i, r := range refs {
				v, err := r.DereferenceCopy()
				if err != nil {
					return Reference{}, err
				}
				items[i] = v
			}
			es.push(RefTemporary(ArrayValue(items)))

		case NodeObjectCtor:
			refs := es.popN(node.Count * 2)
			obj := ObjectValue()
			m := obj.MutObject()
			for i := 0; i < node.Count; i++ {
				k, err := refs[2*i].Read()
				if err != nil {
					return Reference{}, err
				}
				if !k.IsString() {
					return Reference{}, newTypeMismatch("string", k.Type())
				}
				v, err := refs[2*i+1].DereferenceCopy()
				if err != nil {
					return Reference{}, err
				}
				m.Set(k.AsString(), v)
			}
			es.push(RefTemporary(obj))

		case NodeUnary:
			if err := evalUnaryNode(ctx, &es, node); err != nil {
				return Reference{}, err
			}

		case NodeBinary:
			if err := evalBinaryNode(ctx, &es, node); err != nil {
				return Reference{}, err
			}

		case NodeBranch:
			a := es.pop()
			av, err := a.Read()
			if err != nil {
				return Reference{}, err
			}
			shortCircuit, resultIsA := branchDecision(node.Op, av)
			if shortCircuit {
				if resultIsA {
					es.push(a)
				}
				pc += node.Skip
			}
			// else: fall through, b's own nodes execute next and
			// leave their own result on the stack.

		case NodeTernary:
			c := es.pop()
			cv, err := c.Read()
			if err != nil {
				return Reference{}, err
			}
			if !cv.Test() {
				pc += node.Skip
			}

		case NodeJump:
			pc += node.Skip

		case NodeCompoundBranch:
			lv := es.pop()
			av, err := lv.Read()
			if err != nil {
				return Reference{}, err
			}
			evalB := compoundShouldEval(node.Op, av)
			if !evalB {
				es.push(lv)
				pc += node.Skip
			} else {
				es.push(lv)
			}

		case NodeCompoundFinish:
			rv := es.pop()
			lv := es.pop()
			bv, err := rv.Read()
			if err != nil {
				return Reference{}, err
			}
			slot, err := lv.Open()
			if err != nil {
				return Reference{}, err
			}
			slot.Release()
			*slot = bv
			es.push(lv)

		case NodeSubscriptIndex:
			idx := es.pop()
			target := es.pop()
			iv, err := idx.Read()
			if err != nil {
				return Reference{}, err
			}
			if !iv.IsInteger() {
				return Reference{}, newTypeMismatch("integer", iv.Type())
			}
			es.push(target.Index(iv.AsInteger()))

		case NodeSubscriptKey:
			key := es.pop()
			target := es.pop()
			kv, err := key.Read()
			if err != nil {
				return Reference{}, err
			}
			if !kv.IsString() {
				return Reference{}, newTypeMismatch("string", kv.Type())
			}
			es.push(target.Key(kv.AsString()))

		case NodeSubscriptDot:
			target := es.pop()
			es.push(target.Key(node.Name))

		case NodeSubscriptHead:
			target := es.pop()
			es.push(target.Head())

		case NodeSubscriptTail:
			target := es.pop()
			es.push(target.Tail())

		case NodeSubscriptRandom:
			seed := es.pop()
			target := es.pop()
			sv, err := seed.Read()
			if err != nil {
				return Reference{}, err
			}
			if !sv.IsInteger() {
				return Reference{}, newTypeMismatch("integer", sv.Type())
			}
			es.push(target.Random(uint64(sv.AsInteger())))

		case NodeCall:
			args := es.popN(node.Count)
			callee := es.pop()
			result, err := evalCall(ctx, callee, args, node.ArgByRef, node.PTCHint, tail && pc == len(expr)-1)
			if err != nil {
				return Reference{}, err
			}
			es.push(result)

		default:
			return Reference{}, newException(StringValue("unsupported AIR node"))
		}
	}

	if len(es) != 1 {
		return Reference{}, &SystemError{Message: "expression did not reduce to exactly one reference"}
	}
	return es[0], nil
}

func evalUnaryNode(ctx *Context, es *evalStack, node *Node) error {
	switch node.Op {
	case OpPreInc, OpPreDec, OpPostInc, OpPostDec:
		ref := es.pop()
		slot, err := ref.Open()
		if err != nil {
			return err
		}
		delta := int64(1)
		post := node.Op == OpPostInc || node.Op == OpPostDec
		if node.Op == OpPreDec || node.Op == OpPostDec {
			delta = -1
		}
		result, stored, err := applyIncDec(*slot, delta, post)
		if err != nil {
			return err
		}
		slot.Release()
		*slot = stored
		es.push(RefTemporary(result))
		return nil

	default:
		ref := es.pop()
		v, err := ref.Read()
		if err != nil {
			return err
		}
		result, err := applyUnary(node.Op, v)
		if err != nil {
			return err
		}
		if node.ModifiesInPlace {
			slot, err := ref.Open()
			if err != nil {
				return err
			}
			slot.Release()
			*slot = result
			es.push(ref)
		} else {
			es.push(RefTemporary(result))
		}
		return nil
	}
}

func evalBinaryNode(ctx *Context, es *evalStack, node *Node) error {
	b := es.pop()
	a := es.pop()

	if node.Op == OpAssign {
		bv, err := b.DereferenceCopy()
		if err != nil {
			return err
		}
		slot, err := a.Open()
		if err != nil {
			return err
		}
		slot.Release()
		*slot = bv
		es.push(a)
		return nil
	}

	av, err := a.Read()
	if err != nil {
		return err
	}
	bv, err := b.Read()
	if err != nil {
		return err
	}
	result, err := applyBinary(node.Op, av, bv)
	if err != nil {
		return err
	}
	if node.AssignBack {
		slot, err := a.Open()
		if err != nil {
			return err
		}
		slot.Release()
		*slot = result
		es.push(a)
	} else {
		es.push(RefTemporary(result))
	}
	return nil
}

// branchDecision implements §4.4.2's three short-circuit operators:
// it reports whether evaluation should short-circuit on a's value
// alone, and if so whether a itself is the result (as opposed to the
// circuit simply being abandoned in favor of the right-hand side).
func branchDecision(op Operator, av Value) (shortCircuit, resultIsA bool) {
	switch op {
	case OpAnd:
		return !av.Test(), true
	case OpOr:
		return av.Test(), true
	case OpCoalesce:
		return !av.IsNull(), true
	default:
		return false, false
	}
}

// compoundShouldEval implements the same decision for the compound-
// assignment forms `&&=`, `||=`, `??=`: it reports whether the right-
// hand side must be evaluated at all.
func compoundShouldEval(op Operator, av Value) bool {
	switch op {
	case OpAnd:
		return av.Test()
	case OpOr:
		return !av.Test()
	case OpCoalesce:
		return av.IsNull()
	default:
		return false
	}
}
