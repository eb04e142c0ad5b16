// Package expr provides a placeholder expression builder for fnkit.
//
// The sentinel It stands for "the value this expression will eventually be
// applied to". Operator methods on It record an immutable operation tree
// instead of computing anything; Compile turns the tree into a reusable
// callable:
//
//	double := expr.Compile(expr.It.Mul(2))
//	v, err := double(21) // 42
//
// Expressions nest by reference and stay independently compilable:
//
//	total := expr.It.Item("total")
//	discounted := total.Mul(0.9)
//
// Evaluation is side-effect-free except for explicit Call nodes. A missing
// key or attribute fails with a lookup-class error, a wrong operand type
// with a type-class error; nothing is silently coerced beyond int/float
// promotion.
package expr
