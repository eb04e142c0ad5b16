package pipe

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/google/uuid"

	"github.com/fnkit/fnkit/backend"
	"github.com/fnkit/fnkit/logger"
)

// Seq is a generator source: it returns the next element and true, or
// false when exhausted. Seq sources may be unbounded and are single-pass.
type Seq func() (any, bool)

// Entry is one key-value pair yielded when a map is used as a source.
type Entry struct {
	Key   any
	Value any
}

// Pipeline is a lazy chain of transformation steps over one source value.
// Chaining never mutates: every operation returns a new Pipeline sharing
// the already-recorded prefix, so branches evolve independently.
type Pipeline struct {
	id     string
	source any
	scalar bool
	steps  []step

	disp *backend.Dispatcher
	log  *logger.Logger
	ext  *Extensions
}

// step is one deferred transformation. It receives the upstream iterator
// at materialization time.
type step struct {
	name  string
	apply func(iterator) iterator
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithDispatcher injects a backend dispatcher, replacing the process-wide
// default. Useful for test isolation and custom registries.
func WithDispatcher(d *backend.Dispatcher) Option {
	return func(p *Pipeline) { p.disp = d }
}

// WithLogger injects the diagnostic logger used by Debug and Trace taps
// and by dispatch fallbacks.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithExtensions injects an extension registry, replacing the process-wide
// default.
func WithExtensions(e *Extensions) Option {
	return func(p *Pipeline) { p.ext = e }
}

// From wraps a value in a Pipeline. Supported shapes: slices and arrays of
// any element type, maps (iterated as Entry values in sorted key order),
// Seq generators, other Pipelines, and scalars.
func From(source any, opts ...Option) *Pipeline {
	p := &Pipeline{
		id:     uuid.NewString(),
		source: source,
		disp:   backend.DefaultDispatcher(),
		log:    logger.Nop(),
		ext:    DefaultExtensions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.scalar = isScalar(source)
	return p
}

// Clone duplicates the pipeline state. The clone and the original share no
// mutable structure: steps appended to one are invisible to the other.
func (p *Pipeline) Clone() *Pipeline {
	steps := make([]step, len(p.steps))
	copy(steps, p.steps)
	return &Pipeline{
		id:     uuid.NewString(),
		source: p.source,
		scalar: p.scalar,
		steps:  steps,
		disp:   p.disp,
		log:    p.log,
		ext:    p.ext,
	}
}

// ID returns the pipeline's instance ID, used in Debug/Trace diagnostics.
func (p *Pipeline) ID() string { return p.id }

// with returns a new Pipeline extending p by one step. The original is
// never mutated; the steps slice is copied so a shared prefix stays safe.
func (p *Pipeline) with(s step) *Pipeline {
	steps := make([]step, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	steps = append(steps, s)
	return &Pipeline{
		id:     p.id,
		source: p.source,
		scalar: false,
		steps:  steps,
		disp:   p.disp,
		log:    p.log,
		ext:    p.ext,
	}
}

// withScalar is with for whole-value steps, preserving scalar shape.
func (p *Pipeline) withScalar(s step) *Pipeline {
	next := p.with(s)
	next.scalar = p.scalar
	return next
}

func isScalar(source any) bool {
	switch source.(type) {
	case nil:
		return true
	case Seq, *Pipeline:
		return false
	}
	switch reflect.ValueOf(source).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return false
	}
	return true
}

// --- Iterators ---

// iterator provides pull-based sequential access to the element stream.
type iterator interface {
	// Next returns the next element. Returns (nil, false, nil) when
	// exhausted; an error ends the stream.
	Next() (any, bool, error)
}

// sliceBacked marks iterators whose entire content is a known slice.
// Decomposed steps use the backing for bulk kernel dispatch.
type sliceBacked interface {
	iterator
	backing() []any
}

type sliceIter struct {
	items []any
	index int
}

func (it *sliceIter) Next() (any, bool, error) {
	if it.index >= len(it.items) {
		return nil, false, nil
	}
	v := it.items[it.index]
	it.index++
	return v, true, nil
}

func (it *sliceIter) backing() []any { return it.items }

type seqIter struct {
	next Seq
}

func (it *seqIter) Next() (any, bool, error) {
	v, ok := it.next()
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

type errIter struct {
	err error
}

func (it *errIter) Next() (any, bool, error) { return nil, false, it.err }

// iterate builds the full iterator chain: source first, then every
// deferred step in order. Nothing is pulled yet.
func (p *Pipeline) iterate() iterator {
	it := sourceIter(p.source)
	for _, s := range p.steps {
		it = s.apply(it)
	}
	return it
}

func sourceIter(source any) iterator {
	switch src := source.(type) {
	case nil:
		return &sliceIter{items: []any{nil}}
	case []any:
		return &sliceIter{items: src}
	case Seq:
		return &seqIter{next: src}
	case func() (any, bool):
		return &seqIter{next: src}
	case *Pipeline:
		return src.iterate()
	}

	rv := reflect.ValueOf(source)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return &sliceIter{items: items}
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return keyString(keys[i]) < keyString(keys[j])
		})
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = Entry{Key: k.Interface(), Value: rv.MapIndex(k).Interface()}
		}
		return &sliceIter{items: items}
	}
	return &sliceIter{items: []any{source}}
}

func keyString(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

// materialize pulls the whole chain into a slice. Each terminal calls it
// at most once.
func (p *Pipeline) materialize() ([]any, error) {
	it := p.iterate()
	if sb, ok := it.(sliceBacked); ok {
		return sb.backing(), nil
	}
	var out []any
	for {
		v, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}
