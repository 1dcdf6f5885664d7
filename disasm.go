package asteria

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/lhmouse/asteria-sub009/ascii"
)

// asmToken classifies one piece of disassembly output for coloring,
// the same split the teacher's pretty-printer uses (vm_program.go).
type asmToken int

const (
	asmNone asmToken = iota
	asmComment
	asmLabel
	asmLiteral
	asmOperator
	asmOperand
)

var asmTheme = map[asmToken]string{
	asmNone:     ascii.Reset,
	asmComment:  ascii.DefaultTheme.Comment,
	asmLabel:    ascii.DefaultTheme.Label,
	asmLiteral:  ascii.DefaultTheme.Literal,
	asmOperator: ascii.DefaultTheme.Operator,
	asmOperand:  ascii.DefaultTheme.Operand,
}

type formatFunc func(s string, t asmToken) string

func plainFormat(s string, _ asmToken) string { return s }
func colorFormat(s string, t asmToken) string { return asmTheme[t] + s + asmTheme[asmNone] }

// DisassembleExpr renders an Expr's flat AIR node sequence as a
// column-aligned listing: index, kind, payload, and skip target (for
// branch/jump/ternary/compound-branch nodes).
func DisassembleExpr(e Expr) string { return disassembleExpr(e, plainFormat) }

// HighlightDisassembleExpr is the same listing with the ascii theme's
// ANSI colors applied, for a driver's `-v`/disassemble mode.
func HighlightDisassembleExpr(e Expr) string { return disassembleExpr(e, colorFormat) }

func disassembleExpr(e Expr, f formatFunc) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 2, 2, ' ', 0)
	for i, n := range e {
		kind := f(nodeKindName(n.Kind), asmOperator)
		payload := f(nodePayload(n), asmOperand)
		target := ""
		if nodeIsBranching(n.Kind) {
			target = f(fmt.Sprintf("-> %d", i+1+n.Skip), asmLabel)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f(fmt.Sprintf("%4d", i), asmComment), kind, payload, target)
	}
	tw.Flush()
	return b.String()
}

func nodeIsBranching(k NodeKind) bool {
	switch k {
	case NodeBranch, NodeTernary, NodeJump, NodeCompoundBranch:
		return true
	default:
		return false
	}
}

func nodeKindName(k NodeKind) string {
	switch k {
	case NodeLiteral:
		return "literal"
	case NodeNamedRef:
		return "named_ref"
	case NodeGlobalRef:
		return "global_ref"
	case NodeClosure:
		return "closure"
	case NodeImport:
		return "import"
	case NodeArrayCtor:
		return "array_ctor"
	case NodeObjectCtor:
		return "object_ctor"
	case NodeUnary:
		return "unary"
	case NodeBinary:
		return "binary"
	case NodeBranch:
		return "branch"
	case NodeTernary:
		return "ternary"
	case NodeJump:
		return "jump"
	case NodeCompoundBranch:
		return "cbranch"
	case NodeCompoundFinish:
		return "cfinish"
	case NodeSubscriptIndex:
		return "sub_index"
	case NodeSubscriptKey:
		return "sub_key"
	case NodeSubscriptDot:
		return "sub_dot"
	case NodeSubscriptHead:
		return "sub_head"
	case NodeSubscriptTail:
		return "sub_tail"
	case NodeSubscriptRandom:
		return "sub_random"
	case NodeCall:
		return "call"
	default:
		return "?"
	}
}

func nodePayload(n Node) string {
	switch n.Kind {
	case NodeLiteral:
		return DumpValue(n.Literal, "compact", 0, 0)
	case NodeNamedRef, NodeGlobalRef, NodeSubscriptDot:
		return n.Name
	case NodeImport:
		return n.Import
	case NodeArrayCtor, NodeObjectCtor, NodeCall:
		return fmt.Sprintf("n=%d", n.Count)
	case NodeClosure:
		return fmt.Sprintf("params=%d variadic=%v", len(n.Params), n.Variadic)
	case NodeUnary, NodeBinary, NodeCompoundBranch:
		return operatorName(n.Op)
	default:
		return ""
	}
}

// PrettyString renders a compiled Program's statement tree as indented
// pseudo-source, the plain (non-colored) half of the teacher's
// dual-output printer pattern (vm_program.go's PrettyString /
// HighlightPrettyString split).
func (p *Program) PrettyString() string { return prettyStmts(p.Body, 0, plainFormat) }

// HighlightPrettyString is PrettyString with the ascii theme's ANSI
// colors applied, for a driver's `-v` disassemble mode.
func (p *Program) HighlightPrettyString() string { return prettyStmts(p.Body, 0, colorFormat) }

func prettyStmts(body []Stmt, depth int, f formatFunc) string {
	var b strings.Builder
	pad := strings.Repeat("  ", depth)
	for _, s := range body {
		b.WriteString(pad)
		b.WriteString(prettyStmt(s, depth, f))
		b.WriteByte('\n')
	}
	return b.String()
}

func prettyStmt(s Stmt, depth int, f formatFunc) string {
	kw := func(w string) string { return f(w, asmOperator) }
	switch n := s.(type) {
	case ExprStmt:
		return DisassembleExpr(n.E)
	case VarDecl:
		word := "var"
		if n.Const {
			word = "const"
		}
		if n.HasInit {
			return fmt.Sprintf("%s %s = ...", kw(word), f(n.Name, asmLabel))
		}
		return fmt.Sprintf("%s %s", kw(word), f(n.Name, asmLabel))
	case Block:
		return kw("block") + " {\n" + prettyStmts(n.Body, depth+1, f) + strings.Repeat("  ", depth) + "}"
	case If:
		out := kw("if") + " (...) {\n" + prettyStmts(n.Then, depth+1, f) + strings.Repeat("  ", depth) + "}"
		if len(n.Else) > 0 {
			out += " " + kw("else") + " {\n" + prettyStmts(n.Else, depth+1, f) + strings.Repeat("  ", depth) + "}"
		}
		return out
	case While:
		return labelPrefix(n.Label, f) + kw("while") + " (...) {\n" + prettyStmts(n.Body, depth+1, f) + strings.Repeat("  ", depth) + "}"
	case DoWhile:
		return labelPrefix(n.Label, f) + kw("do") + " {\n" + prettyStmts(n.Body, depth+1, f) + strings.Repeat("  ", depth) + "} " + kw("while") + " (...)"
	case For:
		return labelPrefix(n.Label, f) + kw("for") + " (...;...;...) {\n" + prettyStmts(n.Body, depth+1, f) + strings.Repeat("  ", depth) + "}"
	case ForEach:
		return labelPrefix(n.Label, f) + kw("for each") + " (...) {\n" + prettyStmts(n.Body, depth+1, f) + strings.Repeat("  ", depth) + "}"
	case Switch:
		var cb strings.Builder
		for _, c := range n.Cases {
			label := "default"
			if !c.IsDefault {
				label = "case ..."
			}
			cb.WriteString(strings.Repeat("  ", depth+1))
			cb.WriteString(kw(label))
			cb.WriteString(":\n")
			cb.WriteString(prettyStmts(c.Body, depth+2, f))
		}
		return labelPrefix(n.Label, f) + kw("switch") + " (...) {\n" + cb.String() + strings.Repeat("  ", depth) + "}"
	case Break:
		return kw("break") + " " + f(n.Label, asmLabel)
	case Continue:
		return kw("continue") + " " + f(n.Label, asmLabel)
	case Return:
		if n.HasValue {
			return kw("return") + " ..."
		}
		return kw("return")
	case Throw:
		return kw("throw") + " ..."
	case TryCatch:
		return kw("try") + " {\n" + prettyStmts(n.Try, depth+1, f) + strings.Repeat("  ", depth) + "} " +
			kw("catch") + " (" + f(n.CatchName, asmLabel) + ") {\n" + prettyStmts(n.Catch, depth+1, f) + strings.Repeat("  ", depth) + "}"
	case DeferStmt:
		return kw("defer") + " ..."
	case Assert:
		return kw("assert") + " ... : " + f(strconv.Quote(n.Message), asmLiteral)
	default:
		return f("?stmt?", asmComment)
	}
}

func labelPrefix(label string, f formatFunc) string {
	if label == "" {
		return ""
	}
	return f(label, asmLabel) + ": "
}

func operatorName(op Operator) string {
	names := map[Operator]string{
		OpPos: "+", OpNeg: "-", OpNot: "!", OpBitNot: "~",
		OpPreInc: "++x", OpPreDec: "--x", OpPostInc: "x++", OpPostDec: "x--",
		OpTypeof: "typeof", OpSqrt: "sqrt", OpAbs: "abs", OpSign: "sign",
		OpRound: "round", OpFloor: "floor", OpCeil: "ceil", OpTrunc: "trunc",
		OpRoundI: "round_i", OpFloorI: "floor_i", OpCeilI: "ceil_i", OpTruncI: "trunc_i",
		OpIsNaN: "__isnan", OpIsInf: "__isinf", OpLzcnt: "__lzcnt", OpTzcnt: "__tzcnt",
		OpPopcnt: "__popcnt", OpCountof: "countof", OpToBool: "!!",
		OpAssign: "=", OpEq: "==", OpNe: "!=", OpLt: "<", OpGt: ">", OpLe: "<=", OpGe: ">=",
		OpCmp3: "<=>", OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
		OpShl: "<<", OpShr: ">>>", OpShrArith: ">>",
		OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^",
		OpAnd: "&&", OpOr: "||", OpCoalesce: "??",
	}
	if name, ok := names[op]; ok {
		return name
	}
	return "?op?"
}
