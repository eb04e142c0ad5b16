package expr

import (
	"fmt"
	"strings"
)

// Op identifies an operator recorded in the expression tree.
type Op string

// Binary operators.
const (
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpMul Op = "mul"
	OpDiv Op = "div"
	OpMod Op = "mod"

	OpEq Op = "eq"
	OpNe Op = "ne"
	OpLt Op = "lt"
	OpLe Op = "le"
	OpGt Op = "gt"
	OpGe Op = "ge"

	OpAnd Op = "and"
	OpOr  Op = "or"

	OpBitAnd Op = "bitand"
	OpBitOr  Op = "bitor"
	OpBitXor Op = "bitxor"
	OpShl    Op = "shl"
	OpShr    Op = "shr"
)

// Unary operators.
const (
	OpNeg Op = "neg"
	OpNot Op = "not"
)

// Node is one vertex of an expression tree. The variant set is closed:
// every implementation lives in this package and evaluation matches it
// exhaustively.
type Node interface {
	node()
	String() string
}

// LeafNode stands for the input value itself.
type LeafNode struct{}

// ConstNode holds a literal operand embedded at composition time.
type ConstNode struct {
	Value any
}

// UnaryNode applies Op to the evaluated operand.
type UnaryNode struct {
	Op Op
	X  Node
}

// BinaryNode applies Op to the evaluated left and right operands.
type BinaryNode struct {
	Op Op
	L  Node
	R  Node
}

// AttrNode reads a named attribute (map key or struct field) of the base.
type AttrNode struct {
	X    Node
	Name string
}

// ItemNode indexes the base with the evaluated key.
type ItemNode struct {
	X   Node
	Key Node
}

// CallNode invokes the evaluated base as a function over evaluated arguments.
type CallNode struct {
	Fn   Node
	Args []Node
}

func (LeafNode) node()   {}
func (ConstNode) node()  {}
func (UnaryNode) node()  {}
func (BinaryNode) node() {}
func (AttrNode) node()   {}
func (ItemNode) node()   {}
func (CallNode) node()   {}

func (LeafNode) String() string    { return "it" }
func (n ConstNode) String() string { return fmt.Sprintf("%#v", n.Value) }
func (n UnaryNode) String() string { return fmt.Sprintf("%s(%s)", n.Op, n.X) }
func (n BinaryNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.L, n.Op, n.R)
}
func (n AttrNode) String() string { return fmt.Sprintf("%s.%s", n.X, n.Name) }
func (n ItemNode) String() string { return fmt.Sprintf("%s[%s]", n.X, n.Key) }
func (n CallNode) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Fn, strings.Join(args, ", "))
}
