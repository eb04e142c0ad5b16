package pipe

import (
	"github.com/fnkit/fnkit/backend"
	"github.com/fnkit/fnkit/errors"
	"github.com/fnkit/fnkit/expr"
)

// callable adapts a Map/Filter/Apply argument into a compiled function.
// Placeholder expressions additionally yield their decomposed form when
// the tree is a single binary operation against one literal, which makes
// the step eligible for native dispatch.
func callable(fn any) (expr.Fn, *expr.Decomposed, error) {
	switch f := fn.(type) {
	case expr.Expr:
		compiled := expr.Compile(f)
		if d, ok := expr.Decompose(f); ok {
			return compiled, &d, nil
		}
		return compiled, nil, nil
	case expr.Fn:
		return f, nil, nil
	case func(any) (any, error):
		return f, nil, nil
	case func(any) any:
		return func(x any) (any, error) { return f(x), nil }, nil, nil
	case func(any) bool:
		return func(x any) (any, error) { return f(x), nil }, nil, nil
	case map[string]any:
		return dictTemplate(f), nil, nil
	case string:
		return stringTemplate(f), nil, nil
	}
	return nil, nil, errors.TypeMismatch("pipeline operation", fn)
}

// predicate adapts a Filter argument and enforces a boolean result.
func predicate(fn any) (func(any) (bool, error), *expr.Decomposed, error) {
	f, dec, err := callable(fn)
	if err != nil {
		return nil, nil, err
	}
	if dec != nil && !comparison(dec.Op) {
		// Arithmetic against a literal is a valid expression but not a
		// predicate; it fails per element below, like any non-bool result.
		dec = nil
	}
	return func(x any) (bool, error) {
		v, err := f(x)
		if err != nil {
			return false, err
		}
		b, ok := v.(bool)
		if !ok {
			return false, errors.TypeMismatch("predicate result", v)
		}
		return b, nil
	}, dec, nil
}

// bitwiseShape recognizes a single bitwise operation between the
// placeholder and one literal. Bitwise shapes stay outside the automatic
// classifier; only explicit-backend map variants use them.
func bitwiseShape(e expr.Expr) *expr.Decomposed {
	bin, ok := e.Node().(expr.BinaryNode)
	if !ok {
		return nil
	}
	switch bin.Op {
	case expr.OpBitAnd, expr.OpBitOr, expr.OpBitXor, expr.OpShl, expr.OpShr:
	default:
		return nil
	}
	if _, ok := bin.L.(expr.LeafNode); ok {
		if c, ok := bin.R.(expr.ConstNode); ok {
			return &expr.Decomposed{Op: bin.Op, Operand: c.Value}
		}
	}
	return nil
}

func comparison(op expr.Op) bool {
	switch op {
	case expr.OpEq, expr.OpNe, expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe:
		return true
	}
	return false
}

// --- Numeric extraction for bulk dispatch ---

func elemHint(items []any) backend.ElemKind {
	if len(items) == 0 {
		return backend.ElemOther
	}
	allFloat, allInt := true, true
	for _, v := range items {
		if !expr.IsFloat(v) {
			allFloat = false
		}
		if _, ok := expr.AsInt64(v); !ok {
			allInt = false
		}
		if !allFloat && !allInt {
			return backend.ElemOther
		}
	}
	if allFloat {
		return backend.ElemFloat64
	}
	return backend.ElemInt64
}

func asFloats(items []any) ([]float64, bool) {
	out := make([]float64, len(items))
	for i, v := range items {
		f, ok := expr.AsFloat64(v)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func asInts(items []any) ([]int64, bool) {
	out := make([]int64, len(items))
	for i, v := range items {
		n, ok := expr.AsInt64(v)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func floatsToAny(fs []float64) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

func intsToAny(ns []int64) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}
