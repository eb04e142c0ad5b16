package expr

import (
	"math"
	"reflect"

	"github.com/fnkit/fnkit/errors"
)

// Fn is a compiled expression: a pure callable binding the Leaf to one input
// per invocation.
type Fn func(any) (any, error)

// Compile turns an expression tree into a reusable callable. The returned
// Fn may be invoked any number of times over different inputs.
func Compile(e Expr) Fn {
	root := e.Node()
	return func(x any) (any, error) {
		return eval(root, x)
	}
}

func eval(n Node, x any) (any, error) {
	switch n := n.(type) {
	case LeafNode:
		return x, nil
	case ConstNode:
		return n.Value, nil
	case UnaryNode:
		v, err := eval(n.X, x)
		if err != nil {
			return nil, err
		}
		return applyUnary(n.Op, v)
	case BinaryNode:
		l, err := eval(n.L, x)
		if err != nil {
			return nil, err
		}
		r, err := eval(n.R, x)
		if err != nil {
			return nil, err
		}
		return applyBinary(n.Op, l, r)
	case AttrNode:
		base, err := eval(n.X, x)
		if err != nil {
			return nil, err
		}
		return attr(base, n.Name)
	case ItemNode:
		base, err := eval(n.X, x)
		if err != nil {
			return nil, err
		}
		key, err := eval(n.Key, x)
		if err != nil {
			return nil, err
		}
		return item(base, key)
	case CallNode:
		fn, err := eval(n.Fn, x)
		if err != nil {
			return nil, err
		}
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			v, err := eval(a, x)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return call(fn, args)
	default:
		return nil, errors.TypeMismatch("eval", n)
	}
}

// --- Operator application ---

func applyUnary(op Op, v any) (any, error) {
	switch op {
	case OpNeg:
		switch num := numeric(v); num.kind {
		case numInt:
			return -num.i, nil
		case numFloat:
			return -num.f, nil
		}
		return nil, errors.TypeMismatch(string(op), v)
	case OpNot:
		b, ok := v.(bool)
		if !ok {
			return nil, errors.TypeMismatch(string(op), v)
		}
		return !b, nil
	}
	return nil, errors.TypeMismatch(string(op), v)
}

func applyBinary(op Op, l, r any) (any, error) {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return arith(op, l, r)
	case OpEq:
		eq, err := equal(l, r)
		return eq, err
	case OpNe:
		eq, err := equal(l, r)
		if err != nil {
			return nil, err
		}
		return !eq, nil
	case OpLt, OpLe, OpGt, OpGe:
		c, err := compare(op, l, r)
		if err != nil {
			return nil, err
		}
		switch op {
		case OpLt:
			return c < 0, nil
		case OpLe:
			return c <= 0, nil
		case OpGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case OpAnd, OpOr:
		lb, lok := l.(bool)
		rb, rok := r.(bool)
		if !lok || !rok {
			return nil, errors.TypeMismatch(string(op), pickNonBool(l, r))
		}
		if op == OpAnd {
			return lb && rb, nil
		}
		return lb || rb, nil
	case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr:
		return bitwise(op, l, r)
	}
	return nil, errors.TypeMismatch(string(op), l)
}

func pickNonBool(l, r any) any {
	if _, ok := l.(bool); !ok {
		return l
	}
	return r
}

func arith(op Op, l, r any) (any, error) {
	if op == OpAdd {
		if ls, ok := l.(string); ok {
			rs, ok := r.(string)
			if !ok {
				return nil, errors.TypeMismatch(string(op), r)
			}
			return ls + rs, nil
		}
	}

	ln, rn := numeric(l), numeric(r)
	if ln.kind == numNone {
		return nil, errors.TypeMismatch(string(op), l)
	}
	if rn.kind == numNone {
		return nil, errors.TypeMismatch(string(op), r)
	}

	if ln.kind == numInt && rn.kind == numInt {
		switch op {
		case OpAdd:
			return ln.i + rn.i, nil
		case OpSub:
			return ln.i - rn.i, nil
		case OpMul:
			return ln.i * rn.i, nil
		case OpDiv:
			if rn.i == 0 {
				return nil, errors.TypeMismatch("div by zero", r)
			}
			return ln.i / rn.i, nil
		case OpMod:
			if rn.i == 0 {
				return nil, errors.TypeMismatch("mod by zero", r)
			}
			return ln.i % rn.i, nil
		}
	}

	lf, rf := ln.float(), rn.float()
	switch op {
	case OpAdd:
		return lf + rf, nil
	case OpSub:
		return lf - rf, nil
	case OpMul:
		return lf * rf, nil
	case OpDiv:
		return lf / rf, nil
	case OpMod:
		return math.Mod(lf, rf), nil
	}
	return nil, errors.TypeMismatch(string(op), l)
}

func bitwise(op Op, l, r any) (any, error) {
	ln, rn := numeric(l), numeric(r)
	if ln.kind != numInt {
		return nil, errors.TypeMismatch(string(op), l)
	}
	if rn.kind != numInt {
		return nil, errors.TypeMismatch(string(op), r)
	}
	switch op {
	case OpBitAnd:
		return ln.i & rn.i, nil
	case OpBitOr:
		return ln.i | rn.i, nil
	case OpBitXor:
		return ln.i ^ rn.i, nil
	case OpShl:
		if rn.i < 0 {
			return nil, errors.TypeMismatch("negative shift", r)
		}
		return ln.i << uint(rn.i), nil
	case OpShr:
		if rn.i < 0 {
			return nil, errors.TypeMismatch("negative shift", r)
		}
		return ln.i >> uint(rn.i), nil
	}
	return nil, errors.TypeMismatch(string(op), l)
}

func equal(l, r any) (bool, error) {
	ln, rn := numeric(l), numeric(r)
	if ln.kind != numNone && rn.kind != numNone {
		if ln.kind == numInt && rn.kind == numInt {
			return ln.i == rn.i, nil
		}
		return ln.float() == rn.float(), nil
	}
	return reflect.DeepEqual(l, r), nil
}

// compare returns -1, 0, or 1 for ordered values (numbers and strings).
func compare(op Op, l, r any) (int, error) {
	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		if !ok {
			return 0, errors.TypeMismatch(string(op), r)
		}
		switch {
		case ls < rs:
			return -1, nil
		case ls > rs:
			return 1, nil
		default:
			return 0, nil
		}
	}

	ln, rn := numeric(l), numeric(r)
	if ln.kind == numNone {
		return 0, errors.TypeMismatch(string(op), l)
	}
	if rn.kind == numNone {
		return 0, errors.TypeMismatch(string(op), r)
	}
	if ln.kind == numInt && rn.kind == numInt {
		switch {
		case ln.i < rn.i:
			return -1, nil
		case ln.i > rn.i:
			return 1, nil
		default:
			return 0, nil
		}
	}
	lf, rf := ln.float(), rn.float()
	switch {
	case lf < rf:
		return -1, nil
	case lf > rf:
		return 1, nil
	default:
		return 0, nil
	}
}

// Compare orders two values the way sort and min/max terminals do:
// numbers before anything else, then strings. Unordered operand pairs fail
// with a type-class error.
func Compare(l, r any) (int, error) {
	return compare(OpLt, l, r)
}

// Equal reports deep equality with numeric promotion.
func Equal(l, r any) bool {
	eq, _ := equal(l, r)
	return eq
}

// --- Numeric promotion ---

type numKind int

const (
	numNone numKind = iota
	numInt
	numFloat
)

type num struct {
	kind numKind
	i    int64
	f    float64
}

func (n num) float() float64 {
	if n.kind == numInt {
		return float64(n.i)
	}
	return n.f
}

func numeric(v any) num {
	switch v := v.(type) {
	case int:
		return num{kind: numInt, i: int64(v)}
	case int8:
		return num{kind: numInt, i: int64(v)}
	case int16:
		return num{kind: numInt, i: int64(v)}
	case int32:
		return num{kind: numInt, i: int64(v)}
	case int64:
		return num{kind: numInt, i: v}
	case uint:
		return num{kind: numInt, i: int64(v)}
	case uint8:
		return num{kind: numInt, i: int64(v)}
	case uint16:
		return num{kind: numInt, i: int64(v)}
	case uint32:
		return num{kind: numInt, i: int64(v)}
	case uint64:
		return num{kind: numInt, i: int64(v)}
	case float32:
		return num{kind: numFloat, f: float64(v)}
	case float64:
		return num{kind: numFloat, f: v}
	}
	return num{kind: numNone}
}

// AsFloat64 converts a numeric value to float64.
func AsFloat64(v any) (float64, bool) {
	n := numeric(v)
	if n.kind == numNone {
		return 0, false
	}
	return n.float(), true
}

// AsInt64 converts an integer value to int64. Floats do not qualify.
func AsInt64(v any) (int64, bool) {
	n := numeric(v)
	if n.kind != numInt {
		return 0, false
	}
	return n.i, true
}

// IsFloat reports whether v is a floating-point value.
func IsFloat(v any) bool {
	return numeric(v).kind == numFloat
}

// --- Attribute, item, and call semantics ---

func attr(base any, name string) (any, error) {
	if m, ok := base.(map[string]any); ok {
		v, ok := m[name]
		if !ok {
			return nil, errors.MissingAttr(name, base)
		}
		return v, nil
	}

	rv := reflect.ValueOf(base)
	if !rv.IsValid() {
		return nil, errors.MissingAttr(name, base)
	}
	if m := rv.MethodByName(name); m.IsValid() {
		return m.Interface(), nil
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.MissingAttr(name, base)
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}
	return nil, errors.MissingAttr(name, base)
}

func item(base, key any) (any, error) {
	switch b := base.(type) {
	case map[string]any:
		ks, ok := key.(string)
		if !ok {
			return nil, errors.TypeMismatch("item key", key)
		}
		v, ok := b[ks]
		if !ok {
			return nil, errors.MissingKey(ks)
		}
		return v, nil
	case map[any]any:
		v, ok := b[key]
		if !ok {
			return nil, errors.MissingKey(key)
		}
		return v, nil
	}

	rv := reflect.ValueOf(base)
	switch rv.Kind() {
	case reflect.Map:
		kv := reflect.ValueOf(key)
		if !kv.IsValid() || !kv.Type().AssignableTo(rv.Type().Key()) {
			return nil, errors.TypeMismatch("item key", key)
		}
		v := rv.MapIndex(kv)
		if !v.IsValid() {
			return nil, errors.MissingKey(key)
		}
		return v.Interface(), nil
	case reflect.Slice, reflect.Array, reflect.String:
		idx, ok := AsInt64(key)
		if !ok {
			return nil, errors.TypeMismatch("index", key)
		}
		n := rv.Len()
		i := int(idx)
		// Negative indexes count from the end.
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return nil, errors.IndexOutOfRange(int(idx), n)
		}
		if rv.Kind() == reflect.String {
			return string([]rune(rv.String())[i]), nil
		}
		return rv.Index(i).Interface(), nil
	}
	return nil, errors.TypeMismatch("item", base)
}

func call(fn any, args []any) (any, error) {
	// Fast paths for the common closure shapes.
	switch f := fn.(type) {
	case func(any) (any, error):
		if len(args) != 1 {
			return nil, errors.WrongArity(1, len(args))
		}
		return f(args[0])
	case func(any) any:
		if len(args) != 1 {
			return nil, errors.WrongArity(1, len(args))
		}
		return f(args[0]), nil
	case func() any:
		if len(args) != 0 {
			return nil, errors.WrongArity(0, len(args))
		}
		return f(), nil
	}

	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, errors.TypeMismatch("call", fn)
	}
	rt := rv.Type()
	if rt.IsVariadic() {
		if len(args) < rt.NumIn()-1 {
			return nil, errors.WrongArity(rt.NumIn()-1, len(args))
		}
	} else if rt.NumIn() != len(args) {
		return nil, errors.WrongArity(rt.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		want := rt.In(min(i, rt.NumIn()-1))
		if rt.IsVariadic() && i >= rt.NumIn()-1 {
			want = rt.In(rt.NumIn() - 1).Elem()
		}
		av := reflect.ValueOf(a)
		if !av.IsValid() {
			av = reflect.Zero(want)
		} else if !av.Type().AssignableTo(want) {
			if av.Type().ConvertibleTo(want) {
				av = av.Convert(want)
			} else {
				return nil, errors.TypeMismatch("call argument", a)
			}
		}
		in[i] = av
	}

	out := rv.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	case 2:
		if err, ok := out[1].Interface().(error); ok && err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
	return nil, errors.TypeMismatch("call result", fn)
}
