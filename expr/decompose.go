package expr

// Decomposed describes an expression reduced to a single binary operation
// between the Leaf and one literal operand. Only these shapes qualify for
// native dispatch; everything else runs on the interpreted path.
type Decomposed struct {
	// Op is the binary operator.
	Op Op
	// Operand is the literal side of the operation.
	Operand any
	// Reversed reports the literal on the left: operand op it.
	Reversed bool
}

// decomposable lists the operators eligible for native dispatch: the four
// arithmetic operators and the six comparison operators.
var decomposable = map[Op]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true,
	OpEq: true, OpNe: true, OpLt: true, OpLe: true, OpGt: true, OpGe: true,
}

// Decompose classifies an expression for dispatch. It returns the
// decomposed form when the tree is exactly one eligible binary operation
// between the Leaf and one constant. Deeper trees, unary operators,
// attribute or item access, and calls are opaque.
func Decompose(e Expr) (Decomposed, bool) {
	b, ok := e.Node().(BinaryNode)
	if !ok || !decomposable[b.Op] {
		return Decomposed{}, false
	}

	if _, ok := b.L.(LeafNode); ok {
		if c, ok := b.R.(ConstNode); ok {
			return Decomposed{Op: b.Op, Operand: c.Value}, true
		}
		return Decomposed{}, false
	}
	if c, ok := b.L.(ConstNode); ok {
		if _, ok := b.R.(LeafNode); ok {
			return Decomposed{Op: b.Op, Operand: c.Value, Reversed: true}, true
		}
	}
	return Decomposed{}, false
}

// IsLeaf reports whether the expression is the bare placeholder.
func IsLeaf(e Expr) bool {
	_, ok := e.Node().(LeafNode)
	return ok
}
