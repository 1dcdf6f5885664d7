package asteria

// Stmt is the sum type of statement-unit nodes (§4.4.4). Unlike
// expressions, statements are a tree (not a flat reverse-Polish
// sequence), since control structures need nested statement lists
// rather than a stack machine.
type Stmt interface{ isStmt() }

type ExprStmt struct {
	E    Expr
	Line int
}

type VarDecl struct {
	Name    string
	Init    Expr
	HasInit bool
	Const   bool
	Line    int
}

type Block struct {
	Body []Stmt
	Line int
}

type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
	Line int
}

type While struct {
	Cond  Expr
	Body  []Stmt
	Label string
	Line  int
}

type DoWhile struct {
	Cond  Expr
	Body  []Stmt
	Label string
	Line  int
}

type For struct {
	Init  Stmt // may be nil
	Cond  Expr // may be nil (always true)
	Step  Expr // may be nil
	Body  []Stmt
	Label string
	Line  int
}

type ForEach struct {
	KeyName string // "" if the loop only binds one name
	ValName string
	Target  Expr
	Body    []Stmt
	Label   string
	Line    int
}

type SwitchCase struct {
	Values    []Expr // nil/empty for the default case
	IsDefault bool
	Body      []Stmt
}

type Switch struct {
	Subject Expr
	Cases   []SwitchCase
	Label   string
	Line    int
}

type Break struct {
	Label string
	Line  int
}
type Continue struct {
	Label string
	Line  int
}

type Return struct {
	E        Expr
	HasValue bool
	Line     int
}

type Throw struct {
	E    Expr
	Line int
}

type TryCatch struct {
	Try       []Stmt
	CatchName string
	Catch     []Stmt
	Line      int
}

type DeferStmt struct {
	E    Expr
	Line int
}

type Assert struct {
	E       Expr
	Message string
	Line    int
}

func (ExprStmt) isStmt()  {}
func (VarDecl) isStmt()   {}
func (Block) isStmt()     {}
func (If) isStmt()        {}
func (While) isStmt()     {}
func (DoWhile) isStmt()   {}
func (For) isStmt()       {}
func (ForEach) isStmt()   {}
func (Switch) isStmt()    {}
func (Break) isStmt()     {}
func (Continue) isStmt()  {}
func (Return) isStmt()    {}
func (Throw) isStmt()     {}
func (TryCatch) isStmt()  {}
func (DeferStmt) isStmt() {}
func (Assert) isStmt()    {}

// ctrlKind is the result every statement yields (§4.4.4): next,
// break, continue, or return. throw is instead carried as a Go error
// (usually *Exception), so it propagates through ordinary Go error
// returns rather than through ctrl.
type ctrlKind int

const (
	ctrlNext ctrlKind = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

type ctrl struct {
	kind  ctrlKind
	label string
	value Reference
}

var ctrlDone = ctrl{kind: ctrlNext}

// execBlock runs a statement list to completion, in a fresh child
// scope of ctx, stopping at the first non-`next` result.
func execBlock(parent *Context, stmts []Stmt) (ctrl, error) {
	ctx := NewChildContext(parent)
	c, err := execStmts(ctx, stmts)
	err = ctx.RunDefers(err)
	return c, err
}

// execStmts runs stmts directly in ctx (no new scope), used for
// bodies that already share a scope set up by their caller (loop
// bodies re-entering each iteration, switch cases, function bodies).
func execStmts(ctx *Context, stmts []Stmt) (ctrl, error) {
	for _, s := range stmts {
		c, err := execStmt(ctx, s)
		if err != nil {
			return ctrl{}, err
		}
		if c.kind != ctrlNext {
			return c, nil
		}
	}
	return ctrlDone, nil
}

// stmtLine extracts the source line a statement node was compiled
// from, for `ctx.line` (consulted by the lazy `__line` built-in, and
// by the backtrace machinery in call.go) to track.
func stmtLine(s Stmt) int {
	switch n := s.(type) {
	case ExprStmt:
		return n.Line
	case VarDecl:
		return n.Line
	case Block:
		return n.Line
	case If:
		return n.Line
	case While:
		return n.Line
	case DoWhile:
		return n.Line
	case For:
		return n.Line
	case ForEach:
		return n.Line
	case Switch:
		return n.Line
	case Break:
		return n.Line
	case Continue:
		return n.Line
	case Return:
		return n.Line
	case Throw:
		return n.Line
	case TryCatch:
		return n.Line
	case DeferStmt:
		return n.Line
	case Assert:
		return n.Line
	default:
		return 0
	}
}

func execStmt(ctx *Context, s Stmt) (ctrl, error) {
	if ln := stmtLine(s); ln != 0 {
		*ctx.line = ln
	}
	switch n := s.(type) {
	case ExprStmt:
		_, err := Eval(ctx, n.E, false)
		return ctrlDone, err

	case VarDecl:
		var v Value
		if n.HasInit {
			ref, err := Eval(ctx, n.Init, false)
			if err != nil {
				return ctrl{}, err
			}
			v, err = ref.DereferenceCopy()
			if err != nil {
				return ctrl{}, err
			}
		}
		cell := ctx.GC().CreateVariable(v)
		if n.Const {
			cell.MarkReadonly()
		}
		ctx.Declare(n.Name, RefVariable(cell))
		return ctrlDone, nil

	case Block:
		return execBlock(ctx, n.Body)

	case If:
		cv, err := evalCond(ctx, n.Cond)
		if err != nil {
			return ctrl{}, err
		}
		if cv {
			return execBlock(ctx, n.Then)
		}
		return execBlock(ctx, n.Else)

	case While:
		return execWhile(ctx, n)

	case DoWhile:
		return execDoWhile(ctx, n)

	case For:
		return execFor(ctx, n)

	case ForEach:
		return execForEach(ctx, n)

	case Switch:
		return execSwitch(ctx, n)

	case Break:
		return ctrl{kind: ctrlBreak, label: n.Label}, nil

	case Continue:
		return ctrl{kind: ctrlContinue, label: n.Label}, nil

	case Return:
		if !n.HasValue {
			return ctrl{kind: ctrlReturn, value: RefVoid()}, nil
		}
		ref, err := Eval(ctx, n.E, true)
		if err != nil {
			return ctrl{}, err
		}
		return ctrl{kind: ctrlReturn, value: ref}, nil

	case Throw:
		ref, err := Eval(ctx, n.E, false)
		if err != nil {
			return ctrl{}, err
		}
		v, err := ref.Read()
		if err != nil {
			return ctrl{}, err
		}
		exc := &Exception{Value: v}
		if ctx.funcName == "" {
			// Thrown directly at top level, outside any invoke() call
			// boundary: nothing will otherwise record this frame, so
			// the throw site itself becomes the innermost plain frame.
			exc.Backtrace = append(exc.Backtrace, Frame{Kind: FramePlain, File: ctx.file, Line: *ctx.line})
		}
		return ctrl{}, exc

	case TryCatch:
		c, err := execBlock(ctx, n.Try)
		if err == nil {
			return c, nil
		}
		thrown, bt, ok := asCatchable(err)
		if !ok {
			return ctrl{}, err // system errors and assertion failures are never caught
		}
		handler := NewChildContext(ctx)
		cell := handler.GC().CreateVariable(thrown)
		handler.Declare(n.CatchName, RefVariable(cell))
		records := make([]Value, len(bt))
		for i, f := range bt {
			rec := ObjectValue()
			m := rec.MutObject()
			m.Set("frame", StringValue(f.Kind.String()))
			m.Set("file", StringValue(f.File))
			m.Set("line", IntValue(int64(f.Line)))
			records[i] = rec
		}
		handler.Declare("__backtrace", RefConstant(ArrayValue(records)))
		hc, herr := execStmts(handler, n.Catch)
		herr = handler.RunDefers(herr)
		return hc, herr

	case DeferStmt:
		ctx.PushDefer(func() error {
			_, err := Eval(ctx, n.E, false)
			return err
		})
		return ctrlDone, nil

	case Assert:
		cv, err := evalCond(ctx, n.E)
		if err != nil {
			return ctrl{}, err
		}
		if !cv {
			return ctrl{}, AssertionError{Message: n.Message}
		}
		return ctrlDone, nil

	default:
		return ctrl{}, &SystemError{Message: "unknown statement node"}
	}
}

func evalCond(ctx *Context, e Expr) (bool, error) {
	ref, err := Eval(ctx, e, false)
	if err != nil {
		return false, err
	}
	v, err := ref.Read()
	if err != nil {
		return false, err
	}
	return v.Test(), nil
}

// loopBreak reports whether a ctrl is a break targeting this loop
// (unnamed, or naming this loop's own label).
func loopBreak(c ctrl, label string) bool {
	return c.kind == ctrlBreak && (c.label == "" || c.label == label)
}

func loopContinue(c ctrl, label string) bool {
	return c.kind == ctrlContinue && (c.label == "" || c.label == label)
}

func execWhile(ctx *Context, n While) (ctrl, error) {
	for {
		cv, err := evalCond(ctx, n.Cond)
		if err != nil {
			return ctrl{}, err
		}
		if !cv {
			return ctrlDone, nil
		}
		c, err := execBlock(ctx, n.Body)
		if err != nil {
			return ctrl{}, err
		}
		if loopBreak(c, n.Label) {
			return ctrlDone, nil
		}
		if c.kind != ctrlNext && !loopContinue(c, n.Label) {
			return c, nil
		}
	}
}

func execDoWhile(ctx *Context, n DoWhile) (ctrl, error) {
	for {
		c, err := execBlock(ctx, n.Body)
		if err != nil {
			return ctrl{}, err
		}
		if loopBreak(c, n.Label) {
			return ctrlDone, nil
		}
		if c.kind != ctrlNext && !loopContinue(c, n.Label) {
			return c, nil
		}
		cv, err := evalCond(ctx, n.Cond)
		if err != nil {
			return ctrl{}, err
		}
		if !cv {
			return ctrlDone, nil
		}
	}
}

func execFor(ctx *Context, n For) (ctrl, error) {
	loopCtx := NewChildContext(ctx)
	if n.Init != nil {
		if _, err := execStmt(loopCtx, n.Init); err != nil {
			return ctrl{}, err
		}
	}
	for {
		if n.Cond != nil {
			cv, err := evalCond(loopCtx, n.Cond)
			if err != nil {
				return ctrl{}, err
			}
			if !cv {
				return ctrlDone, nil
			}
		}
		c, err := execBlock(loopCtx, n.Body)
		if err != nil {
			return ctrl{}, err
		}
		if loopBreak(c, n.Label) {
			return ctrlDone, nil
		}
		if c.kind != ctrlNext && !loopContinue(c, n.Label) {
			return c, nil
		}
		if n.Step != nil {
			if _, err := Eval(loopCtx, n.Step, false); err != nil {
				return ctrl{}, err
			}
		}
	}
}

func execForEach(ctx *Context, n ForEach) (ctrl, error) {
	ref, err := Eval(ctx, n.Target, false)
	if err != nil {
		return ctrl{}, err
	}
	v, err := ref.Read()
	if err != nil {
		return ctrl{}, err
	}

	step := func(k, val Value) (ctrl, error) {
		iterCtx := NewChildContext(ctx)
		if n.KeyName != "" {
			iterCtx.Declare(n.KeyName, RefConstant(k))
		}
		cell := iterCtx.GC().CreateVariable(val)
		iterCtx.Declare(n.ValName, RefVariable(cell))
		c, err := execStmts(iterCtx, n.Body)
		err = iterCtx.RunDefers(err)
		return c, err
	}

	switch {
	case v.IsArray():
		for i, item := range v.AsArray() {
			c, err := step(IntValue(int64(i)), item)
			if err != nil {
				return ctrl{}, err
			}
			if loopBreak(c, n.Label) {
				return ctrlDone, nil
			}
			if c.kind != ctrlNext && !loopContinue(c, n.Label) {
				return c, nil
			}
		}
		return ctrlDone, nil

	case v.IsObject():
		for _, k := range v.obj.Keys() {
			c, err := step(StringValue(k), v.obj.Get(k))
			if err != nil {
				return ctrl{}, err
			}
			if loopBreak(c, n.Label) {
				return ctrlDone, nil
			}
			if c.kind != ctrlNext && !loopContinue(c, n.Label) {
				return c, nil
			}
		}
		return ctrlDone, nil

	default:
		return ctrl{}, newTypeMismatch("array or object", v.Type())
	}
}

// execSwitch implements §4.4.4's switch semantics, including the
// bypassed-variable specialization from §4.4.4/§8: every name
// declared by a `var` anywhere in the switch's cases is pre-bound in
// the switch's shared scope to a placeholder that raises
// BypassedVariableError if named, read or written before its own VarDecl
// statement actually runs -- which happens whenever control jumps
// straight into a later case instead of falling through from one
// that declares it.
func execSwitch(ctx *Context, n Switch) (ctrl, error) {
	scope := NewChildContext(ctx)
	declareBypassed(scope, n.Cases)

	subjRef, err := Eval(scope, n.Subject, false)
	if err != nil {
		return ctrl{}, err
	}
	subj, err := subjRef.Read()
	if err != nil {
		return ctrl{}, err
	}

	matchIdx, defaultIdx := -1, -1
	for i, cs := range n.Cases {
		if cs.IsDefault {
			defaultIdx = i
			continue
		}
		for _, ve := range cs.Values {
			vref, err := Eval(scope, ve, false)
			if err != nil {
				return ctrl{}, err
			}
			val, err := vref.Read()
			if err != nil {
				return ctrl{}, err
			}
			if val.Equals(subj) {
				matchIdx = i
				break
			}
		}
		if matchIdx >= 0 {
			break
		}
	}
	if matchIdx < 0 {
		matchIdx = defaultIdx
	}
	if matchIdx < 0 {
		return ctrlDone, scope.RunDefers(nil)
	}

	var result ctrl
	var rerr error
	for i := matchIdx; i < len(n.Cases); i++ {
		body := n.Cases[i].Body
		if len(body) == 0 {
			continue // fall-through is only automatic across empty case bodies
		}
		c, err := execStmts(scope, body)
		if err != nil {
			rerr = err
			break
		}
		if loopBreak(c, n.Label) {
			result = ctrlDone
		} else {
			result = c // non-empty body completing normally is an implicit break
		}
		break
	}
	rerr = scope.RunDefers(rerr)
	return result, rerr
}

// declareBypassed pre-binds every `var` name appearing directly (not
// in a nested block) in any case of a switch, so a control-flow path
// that reaches one without having executed its declaration hits a
// BypassedVariableError instead of silently resolving to an outer
// name or failing with a generic "undeclared identifier".
func declareBypassed(scope *Context, cases []SwitchCase) {
	for _, cs := range cases {
		for _, s := range cs.Body {
			if vd, ok := s.(VarDecl); ok && !scope.refs.Has(vd.Name) {
				scope.Declare(vd.Name, Reference{root: rootBypassed{name: vd.Name}})
			}
		}
	}
}
