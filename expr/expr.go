package expr

// Expr is an immutable handle on an expression tree. Every method returns a
// new Expr referencing its operands; nothing is mutated, so sub-expressions
// can be shared and remain independently compilable.
type Expr struct {
	n Node
}

// It is the placeholder sentinel: the expression that evaluates to its input.
var It = Expr{n: LeafNode{}}

// Lit wraps a literal value as an expression. Passing an Expr returns it
// unchanged, so operand positions accept both literals and sub-expressions.
func Lit(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	return Expr{n: ConstNode{Value: v}}
}

// Node returns the root of the underlying tree.
func (e Expr) Node() Node {
	if e.n == nil {
		return LeafNode{}
	}
	return e.n
}

// String renders the expression for diagnostics.
func (e Expr) String() string { return e.Node().String() }

func (e Expr) binary(op Op, v any) Expr {
	return Expr{n: BinaryNode{Op: op, L: e.Node(), R: Lit(v).Node()}}
}

func (e Expr) unary(op Op) Expr {
	return Expr{n: UnaryNode{Op: op, X: e.Node()}}
}

// --- Arithmetic ---

// Add records addition (numeric) or concatenation (strings).
func (e Expr) Add(v any) Expr { return e.binary(OpAdd, v) }

// Sub records subtraction.
func (e Expr) Sub(v any) Expr { return e.binary(OpSub, v) }

// Mul records multiplication.
func (e Expr) Mul(v any) Expr { return e.binary(OpMul, v) }

// Div records division. Integer operands divide with truncation.
func (e Expr) Div(v any) Expr { return e.binary(OpDiv, v) }

// Mod records the remainder operation.
func (e Expr) Mod(v any) Expr { return e.binary(OpMod, v) }

// Neg records numeric negation.
func (e Expr) Neg() Expr { return e.unary(OpNeg) }

// --- Comparison ---

// Eq records an equality test.
func (e Expr) Eq(v any) Expr { return e.binary(OpEq, v) }

// Ne records an inequality test.
func (e Expr) Ne(v any) Expr { return e.binary(OpNe, v) }

// Lt records a less-than test.
func (e Expr) Lt(v any) Expr { return e.binary(OpLt, v) }

// Le records a less-or-equal test.
func (e Expr) Le(v any) Expr { return e.binary(OpLe, v) }

// Gt records a greater-than test.
func (e Expr) Gt(v any) Expr { return e.binary(OpGt, v) }

// Ge records a greater-or-equal test.
func (e Expr) Ge(v any) Expr { return e.binary(OpGe, v) }

// --- Logical ---

// And records a boolean conjunction.
func (e Expr) And(v any) Expr { return e.binary(OpAnd, v) }

// Or records a boolean disjunction.
func (e Expr) Or(v any) Expr { return e.binary(OpOr, v) }

// Not records a boolean negation.
func (e Expr) Not() Expr { return e.unary(OpNot) }

// --- Bitwise ---

// BitAnd records a bitwise AND over integers.
func (e Expr) BitAnd(v any) Expr { return e.binary(OpBitAnd, v) }

// BitOr records a bitwise OR over integers.
func (e Expr) BitOr(v any) Expr { return e.binary(OpBitOr, v) }

// BitXor records a bitwise XOR over integers.
func (e Expr) BitXor(v any) Expr { return e.binary(OpBitXor, v) }

// Shl records a left shift over integers.
func (e Expr) Shl(v any) Expr { return e.binary(OpShl, v) }

// Shr records a right shift over integers.
func (e Expr) Shr(v any) Expr { return e.binary(OpShr, v) }

// --- Access and calls ---

// Attr records a named attribute read: a map key or an exported struct
// field, with struct methods visible to Call.
func (e Expr) Attr(name string) Expr {
	return Expr{n: AttrNode{X: e.Node(), Name: name}}
}

// Item records an index lookup. The key may itself be an Expr.
func (e Expr) Item(key any) Expr {
	return Expr{n: ItemNode{X: e.Node(), Key: Lit(key).Node()}}
}

// Call records an invocation of the evaluated base over the arguments.
// Arguments may be literals or sub-expressions.
func (e Expr) Call(args ...any) Expr {
	nodes := make([]Node, len(args))
	for i, a := range args {
		nodes[i] = Lit(a).Node()
	}
	return Expr{n: CallNode{Fn: e.Node(), Args: nodes}}
}
