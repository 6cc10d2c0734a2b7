// Package expr implements the embedded expression language of spec.md
// §4.3 and §6: a small AST shared by Constraint ("bare boolean <expr>")
// and Computation ("v = <expr>") node shapes, a DependencyCollector, a
// registry of built-in functions, and an evaluator over variable
// bindings plus helper patterns.
//
// Per spec.md §9's Design Notes, the AST is modeled as a tagged variant
// (one Kind per shape) rather than a class hierarchy, the way
// datalog/query/function.go and datalog/query/predicate.go model
// arithmetic/comparison nodes as small structs behind a shared
// interface, generalized here into a single Node type so one visitor
// (DependencyCollector, Eval) can walk every shape.
package expr

import "fmt"

// Kind tags the shape of a Node.
type Kind int

const (
	KindLiteral Kind = iota
	KindVarRef
	KindAttr
	KindBinary
	KindUnaryNot
	KindCall
)

// BinOp enumerates the arithmetic/comparison operators of spec.md §6.
type BinOp string

const (
	OpAdd BinOp = "+"
	OpSub BinOp = "-"
	OpMul BinOp = "*"
	OpDiv BinOp = "/"
	OpLT  BinOp = "<"
	OpLE  BinOp = "<="
	OpEQ  BinOp = "=="
	OpNE  BinOp = "!="
	OpGE  BinOp = ">="
	OpGT  BinOp = ">"
	OpAnd BinOp = "&&"
	OpOr  BinOp = "||"
)

// Node is one node of the expression AST. Every shape in the tagged
// variant below satisfies it.
type Node struct {
	Kind Kind

	// KindLiteral
	Lit interface{}

	// KindVarRef
	Var string

	// KindAttr: Recv.Name, e.g. x.i or (x.y).z for chained access
	Recv *Node
	Name string

	// KindBinary / KindUnaryNot
	Op    BinOp
	Left  *Node
	Right *Node

	// KindCall: Recv is non-nil for method-style calls (helper.contains(...));
	// nil for bare builtins (any(...), max(...), ...).
	Func    string
	Args    []*Node
	Kwargs  map[string]*Node
	KwOrder []string // preserves argument order for deterministic iteration
}

func Literal(v interface{}) *Node { return &Node{Kind: KindLiteral, Lit: v} }
func VarRef(name string) *Node    { return &Node{Kind: KindVarRef, Var: name} }
func Attr(recv *Node, name string) *Node {
	return &Node{Kind: KindAttr, Recv: recv, Name: name}
}
func Binary(op BinOp, left, right *Node) *Node {
	return &Node{Kind: KindBinary, Op: op, Left: left, Right: right}
}
func Not(inner *Node) *Node {
	return &Node{Kind: KindUnaryNot, Left: inner}
}
func Call(recv *Node, name string, args []*Node, kwargs map[string]*Node, kwOrder []string) *Node {
	return &Node{Kind: KindCall, Recv: recv, Func: name, Args: args, Kwargs: kwargs, KwOrder: kwOrder}
}

// String renders the node for diagnostics, not meant to be re-parsed.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case KindLiteral:
		return fmt.Sprintf("%v", n.Lit)
	case KindVarRef:
		return n.Var
	case KindAttr:
		return fmt.Sprintf("%s.%s", n.Recv, n.Name)
	case KindBinary:
		return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
	case KindUnaryNot:
		return fmt.Sprintf("!(%s)", n.Left)
	case KindCall:
		if n.Recv != nil {
			return fmt.Sprintf("%s.%s(...)", n.Recv, n.Func)
		}
		return fmt.Sprintf("%s(...)", n.Func)
	default:
		return "<?>"
	}
}
