package pipe

import (
	"reflect"
	"sync"

	"github.com/fnkit/fnkit/errors"
)

// OpFunc is a registered chainable operation. It receives one element and
// the arguments given at the call site.
type OpFunc func(v any, args ...any) (any, error)

// Extensions holds process-wide registered operations: global named
// operations reachable through Op, and type-keyed operation tables
// reachable through Apply. Registration mutates the registry in place;
// there is no teardown.
type Extensions struct {
	mu      sync.RWMutex
	ops     map[string]OpFunc
	typeOps map[reflect.Type]map[string]OpFunc
}

// NewExtensions creates an empty extension registry.
func NewExtensions() *Extensions {
	return &Extensions{
		ops:     make(map[string]OpFunc),
		typeOps: make(map[reflect.Type]map[string]OpFunc),
	}
}

var (
	defaultExtOnce sync.Once
	defaultExt     *Extensions
)

// DefaultExtensions returns the process-wide extension registry used by
// pipelines constructed without WithExtensions.
func DefaultExtensions() *Extensions {
	defaultExtOnce.Do(func() {
		defaultExt = NewExtensions()
	})
	return defaultExt
}

// RegisterOp adds a named operation to the registry, replacing any
// previous registration under the same name.
func (e *Extensions) RegisterOp(name string, fn OpFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ops[name] = fn
}

// RegisterTypeOp adds a named operation for one concrete element type.
// Apply consults the element's dynamic type to find it.
func (e *Extensions) RegisterTypeOp(t reflect.Type, name string, fn OpFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	table, ok := e.typeOps[t]
	if !ok {
		table = make(map[string]OpFunc)
		e.typeOps[t] = table
	}
	table[name] = fn
}

func (e *Extensions) op(name string) (OpFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.ops[name]
	return fn, ok
}

func (e *Extensions) typeOp(t reflect.Type, name string) (OpFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	table, ok := e.typeOps[t]
	if !ok {
		return nil, false
	}
	fn, ok := table[name]
	return fn, ok
}

// RegisterOp adds a named operation to the default registry.
func RegisterOp(name string, fn OpFunc) {
	DefaultExtensions().RegisterOp(name, fn)
}

// RegisterTypeOp adds a type-keyed operation to the default registry.
func RegisterTypeOp(t reflect.Type, name string, fn OpFunc) {
	DefaultExtensions().RegisterTypeOp(t, name, fn)
}

// Op applies a globally registered operation to each element. An
// unregistered name fails at materialization with an unsupported-op error.
func (p *Pipeline) Op(name string, args ...any) *Pipeline {
	ext := p.ext
	return p.with(step{name: "op:" + name, apply: func(src iterator) iterator {
		return &mapIter{src: src, fn: func(v any) (any, error) {
			fn, ok := ext.op(name)
			if !ok {
				return nil, errors.UnsupportedOp(name, v)
			}
			return fn(v, args...)
		}}
	}})
}

// Apply invokes an operation registered for the element's concrete type.
// On a scalar pipeline the whole value is transformed in place, keeping
// the scalar shape; on a sequence the operation runs per element. Elements
// whose type has no registration for the name fail with an
// unsupported-op error.
func (p *Pipeline) Apply(name string, args ...any) *Pipeline {
	ext := p.ext
	fn := func(v any) (any, error) {
		op, ok := lookupTypeOp(ext, v, name)
		if !ok {
			return nil, errors.UnsupportedOp(name, v)
		}
		return op(v, args...)
	}
	s := step{name: "apply:" + name, apply: func(src iterator) iterator {
		return &mapIter{src: src, fn: fn}
	}}
	if p.isScalarShape() {
		return p.withScalar(s)
	}
	return p.with(s)
}

func lookupTypeOp(ext *Extensions, v any, name string) (OpFunc, bool) {
	if v == nil {
		return nil, false
	}
	return ext.typeOp(reflect.TypeOf(v), name)
}

// isScalarShape reports whether the pipeline currently carries a single
// whole value rather than a sequence of elements.
func (p *Pipeline) isScalarShape() bool { return p.scalar }
