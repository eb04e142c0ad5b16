package pipe

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/fnkit/fnkit/backend"
	"github.com/fnkit/fnkit/errors"
	"github.com/fnkit/fnkit/expr"
)

// Group is one key bucket produced by GroupBy, in first-seen key order.
type Group struct {
	Key   any
	Items []any
}

func (p *Pipeline) errStep(name string, err error) *Pipeline {
	return p.with(step{name: name, apply: func(iterator) iterator {
		return &errIter{err: err}
	}})
}

// Map transforms each element. fn may be a placeholder expression, a
// function, a dictionary template, or a string template. Decomposed
// expressions over slice-backed float data dispatch to a native kernel.
// A scalar pipeline transforms its whole value and stays scalar, so Get
// returns the transformed value bare.
func (p *Pipeline) Map(fn any) *Pipeline {
	f, dec, err := callable(fn)
	if err != nil {
		return p.errStep("map", err)
	}
	disp := p.disp
	s := step{name: "map", apply: func(src iterator) iterator {
		if dec != nil {
			if sb, ok := src.(sliceBacked); ok {
				if it := bulkMap(disp, sb.backing(), *dec); it != nil {
					return it
				}
			}
		}
		return &mapIter{src: src, fn: f}
	}}
	if p.isScalarShape() {
		return p.withScalar(s)
	}
	return p.with(s)
}

// Filter keeps elements for which the predicate holds. Decomposed
// comparison expressions over slice-backed float data dispatch natively.
func (p *Pipeline) Filter(fn any) *Pipeline {
	pred, dec, err := predicate(fn)
	if err != nil {
		return p.errStep("filter", err)
	}
	disp := p.disp
	return p.with(step{name: "filter", apply: func(src iterator) iterator {
		if dec != nil {
			if sb, ok := src.(sliceBacked); ok {
				if it := bulkFilter(disp, sb.backing(), *dec); it != nil {
					return it
				}
			}
		}
		return &filterIter{src: src, pred: pred}
	}})
}

// Take passes through at most n elements.
func (p *Pipeline) Take(n int) *Pipeline {
	return p.with(step{name: "take", apply: func(src iterator) iterator {
		return &takeIter{src: src, left: n}
	}})
}

// Skip drops the first n elements.
func (p *Pipeline) Skip(n int) *Pipeline {
	return p.with(step{name: "skip", apply: func(src iterator) iterator {
		return &skipIter{src: src, left: n}
	}})
}

// TakeWhile passes elements through until the first one failing the
// predicate, consuming exactly the elements inspected.
func (p *Pipeline) TakeWhile(fn any) *Pipeline {
	pred, _, err := predicate(fn)
	if err != nil {
		return p.errStep("take_while", err)
	}
	return p.with(step{name: "take_while", apply: func(src iterator) iterator {
		return &takeWhileIter{src: src, pred: pred}
	}})
}

// SkipWhile drops elements until the first one failing the predicate, then
// passes everything through.
func (p *Pipeline) SkipWhile(fn any) *Pipeline {
	pred, _, err := predicate(fn)
	if err != nil {
		return p.errStep("skip_while", err)
	}
	return p.with(step{name: "skip_while", apply: func(src iterator) iterator {
		return &skipWhileIter{src: src, pred: pred}
	}})
}

// Chunk groups consecutive elements into slices of the given size. The
// trailing chunk may be shorter.
func (p *Pipeline) Chunk(size int) *Pipeline {
	if size <= 0 {
		return p.errStep("chunk", errors.InvalidArgument("chunk", "size must be positive"))
	}
	return p.with(step{name: "chunk", apply: func(src iterator) iterator {
		return &chunkIter{src: src, size: size}
	}})
}

// Window emits overlapping slices of the given size, advancing by step
// elements. A trailing remainder shorter than size is dropped.
func (p *Pipeline) Window(size, stepBy int) *Pipeline {
	if size <= 0 || stepBy <= 0 {
		return p.errStep("window", errors.InvalidArgument("window", "size and step must be positive"))
	}
	return p.with(step{name: "window", apply: func(src iterator) iterator {
		return &windowIter{src: src, size: size, step: stepBy}
	}})
}

// Flatten expands nested sequences one level; non-sequence elements pass
// through unchanged.
func (p *Pipeline) Flatten() *Pipeline {
	return p.with(step{name: "flatten", apply: func(src iterator) iterator {
		return &flattenIter{src: src}
	}})
}

// GroupBy buckets elements by key, yielding Group values. Keys appear in
// first-seen order; elements keep their order within each group.
func (p *Pipeline) GroupBy(key any) *Pipeline {
	keyFn, _, err := callable(key)
	if err != nil {
		return p.errStep("group_by", err)
	}
	return p.with(step{name: "group_by", apply: func(src iterator) iterator {
		return deferred(func() (iterator, error) {
			groups := make(map[string]int)
			var out []Group
			for {
				v, ok, err := src.Next()
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				k, err := keyFn(v)
				if err != nil {
					return nil, err
				}
				ks := groupKey(k)
				idx, seen := groups[ks]
				if !seen {
					idx = len(out)
					groups[ks] = idx
					out = append(out, Group{Key: k})
				}
				out[idx].Items = append(out[idx].Items, v)
			}
			items := make([]any, len(out))
			for i, g := range out {
				items[i] = g
			}
			return &sliceIter{items: items}, nil
		})
	}})
}

// Sort establishes a total order, by key when given, natural otherwise.
// Equal-key elements keep their original relative order.
func (p *Pipeline) Sort(key ...any) *Pipeline {
	var keyFn expr.Fn
	if len(key) > 0 && key[0] != nil {
		f, _, err := callable(key[0])
		if err != nil {
			return p.errStep("sort", err)
		}
		keyFn = f
	}
	return p.with(step{name: "sort", apply: func(src iterator) iterator {
		return deferred(func() (iterator, error) {
			items, err := drain(src)
			if err != nil {
				return nil, err
			}
			keys := make([]any, len(items))
			for i, v := range items {
				if keyFn == nil {
					keys[i] = v
					continue
				}
				k, err := keyFn(v)
				if err != nil {
					return nil, err
				}
				keys[i] = k
			}
			var sortErr error
			sorted := make([]any, len(items))
			copy(sorted, items)
			idx := make([]int, len(items))
			for i := range idx {
				idx[i] = i
			}
			sort.SliceStable(idx, func(a, b int) bool {
				c, err := expr.Compare(keys[idx[a]], keys[idx[b]])
				if err != nil && sortErr == nil {
					sortErr = err
				}
				return c < 0
			})
			if sortErr != nil {
				return nil, sortErr
			}
			for i, j := range idx {
				sorted[i] = items[j]
			}
			return &sliceIter{items: sorted}, nil
		})
	}})
}

// Unique drops elements equal to one already seen, keeping first
// occurrences in order.
func (p *Pipeline) Unique() *Pipeline {
	return p.with(step{name: "unique", apply: func(src iterator) iterator {
		return &uniqueIter{src: src, seen: make(map[any]bool)}
	}})
}

// Chain appends the elements of further sources after this pipeline's.
func (p *Pipeline) Chain(sources ...any) *Pipeline {
	return p.with(step{name: "chain", apply: func(src iterator) iterator {
		iters := make([]iterator, 0, len(sources)+1)
		iters = append(iters, src)
		for _, s := range sources {
			iters = append(iters, sourceIter(s))
		}
		return &concatIter{iters: iters}
	}})
}

// ZipWith pairs elements with another source, combining each pair with fn.
// A nil fn yields [a, b] slices. The shorter side ends the stream.
func (p *Pipeline) ZipWith(other any, fn any) *Pipeline {
	combine, err := binaryFn(fn)
	if err != nil {
		return p.errStep("zip_with", err)
	}
	return p.with(step{name: "zip_with", apply: func(src iterator) iterator {
		return &zipIter{a: src, b: sourceIter(other), combine: combine}
	}})
}

// Product emits the cartesian product with another source as [a, b]
// slices, in row-major order. The other source is materialized.
func (p *Pipeline) Product(other any) *Pipeline {
	return p.with(step{name: "product", apply: func(src iterator) iterator {
		return deferred(func() (iterator, error) {
			right, err := drain(sourceIter(other))
			if err != nil {
				return nil, err
			}
			return &productIter{src: src, right: right, j: len(right)}, nil
		})
	}})
}

// Combinations emits all k-element combinations of the input, preserving
// element order within each combination.
func (p *Pipeline) Combinations(k int) *Pipeline {
	if k < 0 {
		return p.errStep("combinations", errors.InvalidArgument("combinations", "k must be non-negative"))
	}
	return p.with(step{name: "combinations", apply: func(src iterator) iterator {
		return deferred(func() (iterator, error) {
			items, err := drain(src)
			if err != nil {
				return nil, err
			}
			return &combinationsIter{items: items, k: k, first: true}, nil
		})
	}})
}

// BitwiseAnd ANDs each integer element with the mask.
func (p *Pipeline) BitwiseAnd(mask int64) *Pipeline {
	return p.bitwiseStep("bitwise_and", expr.OpBitAnd, mask)
}

// BitwiseOr ORs each integer element with the mask.
func (p *Pipeline) BitwiseOr(mask int64) *Pipeline {
	return p.bitwiseStep("bitwise_or", expr.OpBitOr, mask)
}

// BitwiseXor XORs each integer element with the mask.
func (p *Pipeline) BitwiseXor(mask int64) *Pipeline {
	return p.bitwiseStep("bitwise_xor", expr.OpBitXor, mask)
}

// ShiftLeft shifts each integer element left by the given bit count.
func (p *Pipeline) ShiftLeft(bits int64) *Pipeline {
	return p.bitwiseStep("shift_left", expr.OpShl, bits)
}

// ShiftRight shifts each integer element right by the given bit count.
// The shift is arithmetic, preserving the sign bit.
func (p *Pipeline) ShiftRight(bits int64) *Pipeline {
	return p.bitwiseStep("shift_right", expr.OpShr, bits)
}

// bitwiseStep maps an integer bitwise op across the stream, dispatching
// slice-backed all-integer data to an integer kernel.
func (p *Pipeline) bitwiseStep(name string, op expr.Op, operand int64) *Pipeline {
	var e expr.Expr
	switch op {
	case expr.OpBitAnd:
		e = expr.It.BitAnd(operand)
	case expr.OpBitOr:
		e = expr.It.BitOr(operand)
	case expr.OpBitXor:
		e = expr.It.BitXor(operand)
	case expr.OpShl:
		e = expr.It.Shl(operand)
	default:
		e = expr.It.Shr(operand)
	}
	fn := expr.Compile(e)
	disp := p.disp
	return p.with(step{name: name, apply: func(src iterator) iterator {
		if sb, ok := src.(sliceBacked); ok {
			if it := bulkBitwise(disp, sb.backing(), op, operand); it != nil {
				return it
			}
		}
		return &mapIter{src: src, fn: fn}
	}})
}

// --- Bulk dispatch helpers ---

// bulkBitwise attempts an integer kernel for a bitwise map step.
func bulkBitwise(disp *backend.Dispatcher, items []any, op expr.Op, operand int64) iterator {
	if elemHint(items) != backend.ElemInt64 {
		return nil
	}
	desc := backend.Descriptor{
		Kind: backend.KindMap, Op: op, Operand: operand,
		Elem: backend.ElemInt64, Size: len(items),
	}
	prov := disp.Select(desc)
	if prov == nil {
		return nil
	}
	data, _ := asInts(items)
	out, err := prov.MapInt64(op, data, operand)
	if err != nil {
		disp.NoteFallback(prov.Name(), desc, err)
		return nil
	}
	return &sliceIter{items: intsToAny(out)}
}

// bulkMap attempts a native kernel for a decomposed map step over
// slice-backed float data. Nil means the interpreted path runs.
func bulkMap(disp *backend.Dispatcher, items []any, dec expr.Decomposed) iterator {
	if elemHint(items) != backend.ElemFloat64 {
		return nil
	}
	operand, ok := expr.AsFloat64(dec.Operand)
	if !ok {
		return nil
	}
	desc := backend.Descriptor{
		Kind: backend.KindMap, Op: dec.Op, Operand: dec.Operand,
		Reversed: dec.Reversed, Elem: backend.ElemFloat64, Size: len(items),
	}
	prov := disp.Select(desc)
	if prov == nil {
		return nil
	}
	data, _ := asFloats(items)
	out, err := prov.MapFloat64(dec.Op, data, operand, dec.Reversed)
	if err != nil {
		disp.NoteFallback(prov.Name(), desc, err)
		return nil
	}
	return &sliceIter{items: floatsToAny(out)}
}

// bulkFilter attempts a native mask kernel for a decomposed filter step.
func bulkFilter(disp *backend.Dispatcher, items []any, dec expr.Decomposed) iterator {
	if elemHint(items) != backend.ElemFloat64 {
		return nil
	}
	operand, ok := expr.AsFloat64(dec.Operand)
	if !ok {
		return nil
	}
	desc := backend.Descriptor{
		Kind: backend.KindFilter, Op: dec.Op, Operand: dec.Operand,
		Reversed: dec.Reversed, Elem: backend.ElemFloat64, Size: len(items),
	}
	prov := disp.Select(desc)
	if prov == nil {
		return nil
	}
	data, _ := asFloats(items)
	mask, err := prov.FilterFloat64(dec.Op, data, operand, dec.Reversed)
	if err != nil {
		disp.NoteFallback(prov.Name(), desc, err)
		return nil
	}
	kept := make([]any, 0, len(items))
	for i, keep := range mask {
		if keep {
			kept = append(kept, items[i])
		}
	}
	return &sliceIter{items: kept}
}

// --- Iterator implementations ---

// deferred postpones building an iterator until the first pull, keeping
// materializing steps (sort, group_by, product) lazy in the chain.
func deferred(build func() (iterator, error)) iterator {
	return &deferredIter{build: build}
}

type deferredIter struct {
	build func() (iterator, error)
	inner iterator
}

func (it *deferredIter) Next() (any, bool, error) {
	if it.inner == nil {
		inner, err := it.build()
		if err != nil {
			return nil, false, err
		}
		it.inner = inner
	}
	return it.inner.Next()
}

func drain(src iterator) ([]any, error) {
	if sb, ok := src.(sliceBacked); ok {
		return sb.backing(), nil
	}
	var out []any
	for {
		v, ok, err := src.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

type mapIter struct {
	src iterator
	fn  expr.Fn
}

func (it *mapIter) Next() (any, bool, error) {
	v, ok, err := it.src.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	out, err := it.fn(v)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

type filterIter struct {
	src  iterator
	pred func(any) (bool, error)
}

func (it *filterIter) Next() (any, bool, error) {
	for {
		v, ok, err := it.src.Next()
		if err != nil || !ok {
			return nil, false, err
		}
		keep, err := it.pred(v)
		if err != nil {
			return nil, false, err
		}
		if keep {
			return v, true, nil
		}
	}
}

type takeIter struct {
	src  iterator
	left int
}

func (it *takeIter) Next() (any, bool, error) {
	if it.left <= 0 {
		return nil, false, nil
	}
	v, ok, err := it.src.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	it.left--
	return v, true, nil
}

type skipIter struct {
	src  iterator
	left int
}

func (it *skipIter) Next() (any, bool, error) {
	for it.left > 0 {
		_, ok, err := it.src.Next()
		if err != nil || !ok {
			return nil, false, err
		}
		it.left--
	}
	return it.src.Next()
}

type takeWhileIter struct {
	src  iterator
	pred func(any) (bool, error)
	done bool
}

func (it *takeWhileIter) Next() (any, bool, error) {
	if it.done {
		return nil, false, nil
	}
	v, ok, err := it.src.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	keep, err := it.pred(v)
	if err != nil {
		return nil, false, err
	}
	if !keep {
		it.done = true
		return nil, false, nil
	}
	return v, true, nil
}

type skipWhileIter struct {
	src      iterator
	pred     func(any) (bool, error)
	skipping bool
	started  bool
}

func (it *skipWhileIter) Next() (any, bool, error) {
	if !it.started {
		it.started = true
		it.skipping = true
	}
	for {
		v, ok, err := it.src.Next()
		if err != nil || !ok {
			return nil, false, err
		}
		if it.skipping {
			skip, err := it.pred(v)
			if err != nil {
				return nil, false, err
			}
			if skip {
				continue
			}
			it.skipping = false
		}
		return v, true, nil
	}
}

type chunkIter struct {
	src  iterator
	size int
	done bool
}

func (it *chunkIter) Next() (any, bool, error) {
	if it.done {
		return nil, false, nil
	}
	var chunk []any
	for len(chunk) < it.size {
		v, ok, err := it.src.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.done = true
			break
		}
		chunk = append(chunk, v)
	}
	if len(chunk) == 0 {
		return nil, false, nil
	}
	return chunk, true, nil
}

type windowIter struct {
	src    iterator
	size   int
	step   int
	buf    []any
	primed bool
	done   bool
}

func (it *windowIter) Next() (any, bool, error) {
	if it.done {
		return nil, false, nil
	}
	if it.primed {
		// Slide: drop step elements, consuming the gap from the source
		// when the stride exceeds the buffered window.
		if it.step < len(it.buf) {
			it.buf = append(it.buf[:0], it.buf[it.step:]...)
		} else {
			gap := it.step - len(it.buf)
			it.buf = it.buf[:0]
			for i := 0; i < gap; i++ {
				_, ok, err := it.src.Next()
				if err != nil {
					return nil, false, err
				}
				if !ok {
					it.done = true
					return nil, false, nil
				}
			}
		}
	}
	need := it.size - len(it.buf)
	for i := 0; i < need; i++ {
		v, ok, err := it.src.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.done = true
			return nil, false, nil
		}
		it.buf = append(it.buf, v)
	}
	it.primed = true
	window := make([]any, it.size)
	copy(window, it.buf)
	return window, true, nil
}

type flattenIter struct {
	src     iterator
	current iterator
}

func (it *flattenIter) Next() (any, bool, error) {
	for {
		if it.current != nil {
			v, ok, err := it.current.Next()
			if err != nil {
				return nil, false, err
			}
			if ok {
				return v, true, nil
			}
			it.current = nil
		}
		v, ok, err := it.src.Next()
		if err != nil || !ok {
			return nil, false, err
		}
		if isSequence(v) {
			it.current = sourceIter(v)
			continue
		}
		return v, true, nil
	}
}

func isSequence(v any) bool {
	switch v.(type) {
	case nil, string:
		return false
	case *Pipeline, Seq:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

type uniqueIter struct {
	src      iterator
	seen     map[any]bool
	fallback []any
}

func (it *uniqueIter) Next() (any, bool, error) {
	for {
		v, ok, err := it.src.Next()
		if err != nil || !ok {
			return nil, false, err
		}
		if v != nil && !reflect.TypeOf(v).Comparable() {
			dup := false
			for _, s := range it.fallback {
				if expr.Equal(s, v) {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			it.fallback = append(it.fallback, v)
			return v, true, nil
		}
		k := uniqueKey(v)
		if it.seen[k] {
			continue
		}
		it.seen[k] = true
		return v, true, nil
	}
}

// numKey is the map key for numeric elements in uniqueIter. Integral
// values carry int64, fractional values carry float64.
type numKey struct {
	i    int64
	f    float64
	frac bool
}

// uniqueKey normalizes numeric elements so values equal under numeric
// promotion (1, int64(1), 1.0) dedupe to one entry, matching the equality
// used on the uncomparable fallback path.
func uniqueKey(v any) any {
	if n, ok := expr.AsInt64(v); ok {
		return numKey{i: n}
	}
	if f, ok := expr.AsFloat64(v); ok {
		if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
			return numKey{i: int64(f)}
		}
		return numKey{f: f, frac: true}
	}
	return v
}

type concatIter struct {
	iters []iterator
	index int
}

func (it *concatIter) Next() (any, bool, error) {
	for it.index < len(it.iters) {
		v, ok, err := it.iters[it.index].Next()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return v, true, nil
		}
		it.index++
	}
	return nil, false, nil
}

type zipIter struct {
	a, b    iterator
	combine func(a, b any) (any, error)
}

func (it *zipIter) Next() (any, bool, error) {
	av, ok, err := it.a.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	bv, ok, err := it.b.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	out, err := it.combine(av, bv)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

type productIter struct {
	src   iterator
	right []any
	left  any
	j     int
}

func (it *productIter) Next() (any, bool, error) {
	if len(it.right) == 0 {
		return nil, false, nil
	}
	if it.j >= len(it.right) {
		v, ok, err := it.src.Next()
		if err != nil || !ok {
			return nil, false, err
		}
		it.left = v
		it.j = 0
	}
	pair := []any{it.left, it.right[it.j]}
	it.j++
	return pair, true, nil
}

type combinationsIter struct {
	items []any
	k     int
	idx   []int
	first bool
	done  bool
}

func (it *combinationsIter) Next() (any, bool, error) {
	n := len(it.items)
	if it.done || it.k > n {
		return nil, false, nil
	}
	if it.first {
		it.first = false
		it.idx = make([]int, it.k)
		for i := range it.idx {
			it.idx[i] = i
		}
	} else {
		// Advance to the next combination in lexicographic order.
		i := it.k - 1
		for i >= 0 && it.idx[i] == n-it.k+i {
			i--
		}
		if i < 0 {
			it.done = true
			return nil, false, nil
		}
		it.idx[i]++
		for j := i + 1; j < it.k; j++ {
			it.idx[j] = it.idx[j-1] + 1
		}
	}
	combo := make([]any, it.k)
	for i, j := range it.idx {
		combo[i] = it.items[j]
	}
	return combo, true, nil
}

// binaryFn adapts a two-argument combiner. Nil yields [a, b] pairs.
func binaryFn(fn any) (func(a, b any) (any, error), error) {
	switch f := fn.(type) {
	case nil:
		return func(a, b any) (any, error) { return []any{a, b}, nil }, nil
	case func(a, b any) (any, error):
		return f, nil
	case func(a, b any) any:
		return func(a, b any) (any, error) { return f(a, b), nil }, nil
	}
	return nil, errors.TypeMismatch("zip combiner", fn)
}

func groupKey(k any) string {
	return fmt.Sprintf("%T:%v", k, k)
}
