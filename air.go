package asteria

// NodeKind identifies one AIR (expression intermediate representation)
// node from the catalog in §4.4.1.
type NodeKind int

const (
	NodeLiteral NodeKind = iota
	NodeNamedRef
	NodeGlobalRef
	NodeClosure
	NodeImport
	NodeArrayCtor
	NodeObjectCtor
	NodeUnary
	NodeBinary

	// NodeBranch implements `&&`, `||`, `??` (Op selects which):
	// evaluate the left operand (already on the stack by the time
	// this node runs), decide from its value alone whether the right
	// operand needs to run at all, and if not, skip over it entirely
	// by advancing the instruction pointer by Skip.
	NodeBranch

	// NodeTernary/NodeJump implement `c ? t : f`: NodeTernary pops the
	// condition and either falls through into the true branch or
	// skips directly past it (Skip nodes) into the false branch; the
	// true branch ends with a NodeJump that skips over the false
	// branch so both paths converge on the same next instruction.
	NodeTernary
	NodeJump

	// NodeCompoundBranch/NodeCompoundFinish implement the short-
	// circuiting compound assignments `&&=`, `||=`, `??=` (§4.4.2):
	// unlike NodeBranch, the left operand is kept as an l-value
	// Reference (not just its value) so the result can be written
	// back through it once the right-hand side is known.
	NodeCompoundBranch
	NodeCompoundFinish

	NodeSubscriptIndex  // a[i], i popped dynamically
	NodeSubscriptKey    // a[k], k popped dynamically
	NodeSubscriptDot    // a.name, static key
	NodeSubscriptHead   // a[^]
	NodeSubscriptTail   // a[$]
	NodeSubscriptRandom // a[?], seed popped dynamically

	NodeCall
)

// PTCHint is the proper-tail-call hint baked into a call node (§4.4.1,
// §4.4.3): whether the call may be elided into the caller's frame, and
// if so whether its arguments were passed by value or by reference.
type PTCHint int

const (
	PTCNone PTCHint = iota
	PTCByValue
	PTCByRef
)

// Node is one flat entry of a reverse-Polish Expr sequence. Operand
// nodes push a Reference; operator nodes pop one or two and push a
// result.
type Node struct {
	Kind NodeKind

	// Operand payloads.
	Literal  Value
	Name     string
	Variadic bool
	Params   []Param
	Body     []Stmt
	Import   string
	Count    int // arity: array/object-ctor element count, call argument count

	// Operator payloads.
	Op              Operator
	ModifiesInPlace bool // `x = op x` forms of a unary op (x = -x); ++/-- write back regardless
	AssignBack      bool // binary op also writes its result back through the LHS reference

	// Branch/ternary/compound-branch payload: how many subsequent
	// Nodes to skip over when the short-circuit path is taken.
	Skip int

	// Call payload. ArgByRef[i] marks the i-th argument (in
	// left-to-right order) as passed by reference (source syntax
	// `->expr`) rather than by value (§4.4.3); nil/short means
	// by-value for the remaining arguments.
	PTCHint PTCHint
	ArgByRef []bool
}

// Expr is a compiled expression: a flat reverse-Polish sequence of
// Nodes, evaluated by Eval in eval.go.
type Expr []Node

func Literal(v Value) Node       { return Node{Kind: NodeLiteral, Literal: v} }
func NamedRef(name string) Node  { return Node{Kind: NodeNamedRef, Name: name} }
func GlobalRef(name string) Node { return Node{Kind: NodeGlobalRef, Name: name} }

func Closure(params []Param, variadic bool, body []Stmt) Node {
	return Node{Kind: NodeClosure, Params: params, Variadic: variadic, Body: body}
}

func Import(path string) Node { return Node{Kind: NodeImport, Import: path} }

func ArrayCtor(n int) Node  { return Node{Kind: NodeArrayCtor, Count: n} }
func ObjectCtor(n int) Node { return Node{Kind: NodeObjectCtor, Count: n} }

func Unary(op Operator, modifiesInPlace bool) Node {
	return Node{Kind: NodeUnary, Op: op, ModifiesInPlace: modifiesInPlace}
}

func Binary(op Operator, assignBack bool) Node {
	return Node{Kind: NodeBinary, Op: op, AssignBack: assignBack}
}

func Branch(op Operator, skip int) Node { return Node{Kind: NodeBranch, Op: op, Skip: skip} }
func Ternary(skip int) Node             { return Node{Kind: NodeTernary, Skip: skip} }
func Jump(skip int) Node                { return Node{Kind: NodeJump, Skip: skip} }

func CompoundBranch(op Operator, skip int) Node {
	return Node{Kind: NodeCompoundBranch, Op: op, Skip: skip}
}
func CompoundFinish() Node { return Node{Kind: NodeCompoundFinish} }

func DotKey(name string) Node { return Node{Kind: NodeSubscriptDot, Name: name} }
func Index() Node             { return Node{Kind: NodeSubscriptIndex} }
func Key() Node                { return Node{Kind: NodeSubscriptKey} }
func Head() Node              { return Node{Kind: NodeSubscriptHead} }
func Tail() Node              { return Node{Kind: NodeSubscriptTail} }
func RandomSub() Node         { return Node{Kind: NodeSubscriptRandom} }

func Call(argc int, hint PTCHint, argByRef []bool) Node {
	return Node{Kind: NodeCall, Count: argc, PTCHint: hint, ArgByRef: argByRef}
}
