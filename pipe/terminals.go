package pipe

import (
	"math"
	"sort"

	"github.com/fnkit/fnkit/backend"
	"github.com/fnkit/fnkit/errors"
	"github.com/fnkit/fnkit/expr"
)

// Get materializes the pipeline and returns its value: the single wrapped
// value for a scalar pipeline, the element list otherwise.
func (p *Pipeline) Get() (any, error) {
	items, err := p.materialize()
	if err != nil {
		return nil, err
	}
	if p.scalar {
		if len(items) == 0 {
			return nil, nil
		}
		return items[0], nil
	}
	out := make([]any, len(items))
	copy(out, items)
	return out, nil
}

// ToList materializes the pipeline into a fresh slice.
func (p *Pipeline) ToList() ([]any, error) {
	items, err := p.materialize()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	copy(out, items)
	return out, nil
}

// Count returns the number of elements.
func (p *Pipeline) Count() (int, error) {
	it := p.iterate()
	n := 0
	for {
		_, ok, err := it.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// IsEmpty reports whether the pipeline yields no elements, pulling at most
// one element from the source.
func (p *Pipeline) IsEmpty() (bool, error) {
	it := p.iterate()
	_, ok, err := it.Next()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// First returns the first element, pulling exactly one from the source.
func (p *Pipeline) First() (any, error) {
	it := p.iterate()
	v, ok, err := it.Next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Empty("first")
	}
	return v, nil
}

// Last returns the final element.
func (p *Pipeline) Last() (any, error) {
	it := p.iterate()
	var last any
	found := false
	for {
		v, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		last, found = v, true
	}
	if !found {
		return nil, errors.Empty("last")
	}
	return last, nil
}

// Nth returns the element at index n, pulling exactly n+1 elements.
// Negative indices count from the end.
func (p *Pipeline) Nth(n int) (any, error) {
	if n < 0 {
		items, err := p.materialize()
		if err != nil {
			return nil, err
		}
		idx := len(items) + n
		if idx < 0 {
			return nil, errors.IndexOutOfRange(n, len(items))
		}
		return items[idx], nil
	}
	it := p.iterate()
	seen := 0
	for {
		v, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.IndexOutOfRange(n, seen)
		}
		if seen == n {
			return v, nil
		}
		seen++
	}
}

// Reduce folds elements left to right with fn, starting from the optional
// initial value, or from the first element when none is given.
func (p *Pipeline) Reduce(fn any, init ...any) (any, error) {
	combine, err := reducerFn(fn)
	if err != nil {
		return nil, err
	}
	it := p.iterate()
	var acc any
	started := false
	if len(init) > 0 {
		acc = init[0]
		started = true
	}
	for {
		v, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if !started {
			acc = v
			started = true
			continue
		}
		acc, err = combine(acc, v)
		if err != nil {
			return nil, err
		}
	}
	if !started {
		return nil, errors.Empty("reduce")
	}
	return acc, nil
}

// ReduceRight folds elements right to left with fn.
func (p *Pipeline) ReduceRight(fn any, init ...any) (any, error) {
	combine, err := reducerFn(fn)
	if err != nil {
		return nil, err
	}
	items, err := p.materialize()
	if err != nil {
		return nil, err
	}
	var acc any
	started := false
	if len(init) > 0 {
		acc = init[0]
		started = true
	}
	for i := len(items) - 1; i >= 0; i-- {
		if !started {
			acc = items[i]
			started = true
			continue
		}
		acc, err = combine(acc, items[i])
		if err != nil {
			return nil, err
		}
	}
	if !started {
		return nil, errors.Empty("reduce_right")
	}
	return acc, nil
}

// reducerFn adapts a reduce combiner.
func reducerFn(fn any) (func(acc, v any) (any, error), error) {
	switch f := fn.(type) {
	case func(acc, v any) (any, error):
		return f, nil
	case func(acc, v any) any:
		return func(a, v any) (any, error) { return f(a, v), nil }, nil
	}
	return nil, errors.TypeMismatch("reduce combiner", fn)
}

// --- Numeric aggregates ---

// Sum adds all elements. Integer input yields an int64 sum; any float in
// the input promotes the result to float64.
func (p *Pipeline) Sum() (any, error) {
	return p.aggregate("sum", backend.OpSum)
}

// Min returns the smallest element under natural ordering.
func (p *Pipeline) Min() (any, error) {
	return p.aggregate("min", backend.OpMin)
}

// Max returns the largest element under natural ordering.
func (p *Pipeline) Max() (any, error) {
	return p.aggregate("max", backend.OpMax)
}

// Median returns the middle element of the sorted values, averaging the
// two middle elements for even counts. The result is always float64.
func (p *Pipeline) Median() (any, error) {
	return p.aggregate("median", backend.OpMedian)
}

// Stdev returns the sample standard deviation as float64.
func (p *Pipeline) Stdev() (any, error) {
	return p.aggregate("stdev", backend.OpStdev)
}

// aggregate materializes and folds, dispatching numeric buffers to a
// kernel when one is eligible. Kernel failure restarts the whole fold on
// the interpreted path; partial native output is never returned.
func (p *Pipeline) aggregate(name string, op expr.Op) (any, error) {
	items, err := p.materialize()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Empty(name)
	}
	hint := elemHint(items)
	if hint == backend.ElemFloat64 || (hint == backend.ElemInt64 && floatCarrierExact(op)) {
		desc := backend.Descriptor{Kind: backend.KindAggregate, Op: op, Elem: hint, Size: len(items)}
		if prov := p.disp.Select(desc); prov != nil {
			if data, ok := asFloats(items); ok {
				out, err := prov.AggregateFloat64(op, data)
				if err == nil {
					return castAggregate(op, out, hint), nil
				}
				p.disp.NoteFallback(prov.Name(), desc, err)
			}
		}
	}
	return interpretedAggregate(name, op, items)
}

// floatCarrierExact reports whether an aggregate over integer input may
// round-trip through the float64 kernels without losing exactness. Sums,
// minima and maxima of int64 values past 2^53 would not survive the trip,
// so those stay on the interpreted int64 fold; median and stdev results
// are float64 either way.
func floatCarrierExact(op expr.Op) bool {
	return op == backend.OpMedian || op == backend.OpStdev
}

// castAggregate restores the integer carrier for order-preserving
// aggregates over integer input. Median and stdev stay float64.
func castAggregate(op expr.Op, out float64, hint backend.ElemKind) any {
	if hint != backend.ElemInt64 {
		return out
	}
	switch op {
	case backend.OpSum, backend.OpMin, backend.OpMax:
		return int64(out)
	}
	return out
}

func interpretedAggregate(name string, op expr.Op, items []any) (any, error) {
	switch op {
	case backend.OpSum:
		return sumValues(items)
	case backend.OpMin, backend.OpMax:
		return extremum(op, items)
	case backend.OpMedian:
		return medianValues(name, items)
	case backend.OpStdev:
		return stdevValues(name, items)
	}
	return nil, errors.TypeMismatch(name, items)
}

func sumValues(items []any) (any, error) {
	var si int64
	var sf float64
	sawFloat := false
	for _, v := range items {
		if n, ok := expr.AsInt64(v); ok {
			si += n
			continue
		}
		f, ok := expr.AsFloat64(v)
		if !ok {
			return nil, errors.TypeMismatch("sum", v)
		}
		sawFloat = true
		sf += f
	}
	if sawFloat {
		return sf + float64(si), nil
	}
	return si, nil
}

func extremum(op expr.Op, items []any) (any, error) {
	best := items[0]
	for _, v := range items[1:] {
		c, err := expr.Compare(v, best)
		if err != nil {
			return nil, err
		}
		if (op == backend.OpMin && c < 0) || (op == backend.OpMax && c > 0) {
			best = v
		}
	}
	return best, nil
}

func medianValues(name string, items []any) (any, error) {
	data, ok := numericValues(name, items)
	if ok != nil {
		return nil, ok
	}
	sort.Float64s(data)
	mid := len(data) / 2
	if len(data)%2 == 1 {
		return data[mid], nil
	}
	return (data[mid-1] + data[mid]) / 2, nil
}

func stdevValues(name string, items []any) (any, error) {
	if len(items) < 2 {
		return nil, errors.InvalidArgument(name, "needs at least two elements")
	}
	data, err := numericValues(name, items)
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, x := range data {
		sum += x
	}
	mean := sum / float64(len(data))
	var ss float64
	for _, x := range data {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(data)-1)), nil
}

func numericValues(name string, items []any) ([]float64, error) {
	out := make([]float64, len(items))
	for i, v := range items {
		f, ok := expr.AsFloat64(v)
		if !ok {
			return nil, errors.TypeMismatch(name, v)
		}
		out[i] = f
	}
	return out, nil
}

// --- Explicit-backend variants ---

// SumOn sums on one named backend, bypassing threshold and automatic
// selection. It fails loudly when the backend is unavailable or the data
// does not fit its kernels; there is no interpreted fallback. Integer
// input round-trips through the backend's float64 kernels, so magnitudes
// past 2^53 lose exactness; automatic Sum keeps those on an exact
// integer fold.
func (p *Pipeline) SumOn(name string) (any, error) {
	return p.aggregateOn(name, "sum", backend.OpSum)
}

// MinOn is Min on one named backend, without fallback.
func (p *Pipeline) MinOn(name string) (any, error) {
	return p.aggregateOn(name, "min", backend.OpMin)
}

// MaxOn is Max on one named backend, without fallback.
func (p *Pipeline) MaxOn(name string) (any, error) {
	return p.aggregateOn(name, "max", backend.OpMax)
}

// MedianOn is Median on one named backend, without fallback.
func (p *Pipeline) MedianOn(name string) (any, error) {
	return p.aggregateOn(name, "median", backend.OpMedian)
}

// StdevOn is Stdev on one named backend, without fallback.
func (p *Pipeline) StdevOn(name string) (any, error) {
	return p.aggregateOn(name, "stdev", backend.OpStdev)
}

func (p *Pipeline) aggregateOn(name, opName string, op expr.Op) (any, error) {
	prov, err := p.disp.Named(name)
	if err != nil {
		return nil, err
	}
	items, err := p.materialize()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Empty(opName)
	}
	hint := elemHint(items)
	if hint == backend.ElemOther {
		return nil, errors.BackendIncompatible(name, "elements are not numeric")
	}
	desc := backend.Descriptor{Kind: backend.KindAggregate, Op: op, Elem: hint, Size: len(items)}
	if !prov.Capability().Supports(desc) {
		return nil, errors.BackendIncompatible(name, "operation "+string(op)+" not supported for "+string(hint)+" elements")
	}
	data, ok := asFloats(items)
	if !ok {
		return nil, errors.BackendIncompatible(name, "elements are not numeric")
	}
	out, err := prov.AggregateFloat64(op, data)
	if err != nil {
		return nil, errors.BackendIncompatible(name, err.Error()).WithCause(err)
	}
	return castAggregate(op, out, hint), nil
}

// MapOn maps a decomposable expression on one named backend, bypassing
// threshold and automatic selection. The step fails at materialization
// when the backend is unavailable, the expression is opaque, or the data
// does not fit the backend's kernels.
func (p *Pipeline) MapOn(fn any, name string) *Pipeline {
	_, dec, err := callable(fn)
	if err != nil {
		return p.errStep("map_on", err)
	}
	if dec == nil {
		if e, ok := fn.(expr.Expr); ok {
			dec = bitwiseShape(e)
		}
	}
	disp := p.disp
	return p.with(step{name: "map_on:" + name, apply: func(src iterator) iterator {
		return deferred(func() (iterator, error) {
			prov, err := disp.Named(name)
			if err != nil {
				return nil, err
			}
			if dec == nil {
				return nil, errors.BackendIncompatible(name, "expression is not a single operation against one literal")
			}
			items, err := drain(src)
			if err != nil {
				return nil, err
			}
			hint := elemHint(items)
			desc := backend.Descriptor{
				Kind: backend.KindMap, Op: dec.Op, Operand: dec.Operand,
				Reversed: dec.Reversed, Elem: hint, Size: len(items),
			}
			if !prov.Capability().Supports(desc) {
				return nil, errors.BackendIncompatible(name, "operation "+string(dec.Op)+" not supported for "+string(hint)+" elements")
			}
			switch hint {
			case backend.ElemFloat64:
				operand, ok := expr.AsFloat64(dec.Operand)
				if !ok {
					return nil, errors.BackendIncompatible(name, "operand is not numeric")
				}
				data, _ := asFloats(items)
				out, err := prov.MapFloat64(dec.Op, data, operand, dec.Reversed)
				if err != nil {
					return nil, errors.BackendIncompatible(name, err.Error()).WithCause(err)
				}
				return &sliceIter{items: floatsToAny(out)}, nil
			case backend.ElemInt64:
				operand, ok := expr.AsInt64(dec.Operand)
				if !ok {
					return nil, errors.BackendIncompatible(name, "operand is not an integer")
				}
				data, _ := asInts(items)
				out, err := prov.MapInt64(dec.Op, data, operand)
				if err != nil {
					return nil, errors.BackendIncompatible(name, err.Error()).WithCause(err)
				}
				return &sliceIter{items: intsToAny(out)}, nil
			}
			return nil, errors.BackendIncompatible(name, "elements are not numeric")
		})
	}})
}
