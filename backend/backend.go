package backend

import (
	"github.com/fnkit/fnkit/expr"
)

// Kind classifies the shape of a bulk operation.
type Kind string

const (
	KindMap       Kind = "map"
	KindFilter    Kind = "filter"
	KindReduce    Kind = "reduce"
	KindAggregate Kind = "aggregate"
)

// Aggregate operators. Element-wise operators come from package expr.
const (
	OpSum    expr.Op = "sum"
	OpMin    expr.Op = "min"
	OpMax    expr.Op = "max"
	OpMedian expr.Op = "median"
	OpStdev  expr.Op = "stdev"
)

// ElemKind is the element-type hint of an operation descriptor.
type ElemKind string

const (
	ElemFloat64 ElemKind = "float64"
	ElemInt64   ElemKind = "int64"
	ElemOther   ElemKind = "other"
)

// Descriptor describes one bulk operation for dispatch. It is produced per
// terminal call and consumed once.
type Descriptor struct {
	Kind Kind
	Op   expr.Op
	// Operand is the literal side of a decomposed expression. Nil for
	// aggregates.
	Operand any
	// Reversed reports a decomposed expression with the literal on the
	// left: operand op element.
	Reversed bool
	Elem     ElemKind
	Size     int
}

// Pair is one supported (kind, operator) combination.
type Pair struct {
	Kind Kind
	Op   expr.Op
}

// Capability declares what a provider supports. Registered once at startup
// and read-only afterwards.
type Capability struct {
	Name string
	// Pairs lists the supported (kind, operator) combinations.
	Pairs map[Pair]bool
	// Elems constrains the element kinds the kernels accept.
	Elems map[ElemKind]bool
	// DefaultThreshold is the minimum element count for automatic
	// selection until the threshold table overrides it.
	DefaultThreshold int
}

// Supports reports whether the capability covers the descriptor's shape,
// ignoring size.
func (c Capability) Supports(d Descriptor) bool {
	return c.Pairs[Pair{Kind: d.Kind, Op: d.Op}] && c.Elems[d.Elem]
}

// Provider is a compiled-kernel backend. Kernels receive numeric buffers
// and must not retain any reference to them across calls; transformed
// output is always a fresh buffer.
type Provider interface {
	Name() string
	Capability() Capability

	// MapFloat64 applies element op operand (or operand op element when
	// reversed) and returns a fresh buffer.
	MapFloat64(op expr.Op, data []float64, operand float64, reversed bool) ([]float64, error)

	// FilterFloat64 evaluates element op operand per element and returns
	// a keep mask aligned with data.
	FilterFloat64(op expr.Op, data []float64, operand float64, reversed bool) ([]bool, error)

	// AggregateFloat64 folds the buffer into one scalar.
	AggregateFloat64(op expr.Op, data []float64) (float64, error)

	// MapInt64 applies an integer kernel (bitwise and shifts) and returns
	// a fresh buffer.
	MapInt64(op expr.Op, data []int64, operand int64) ([]int64, error)
}
