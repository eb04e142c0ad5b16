package backend

import (
	"fmt"
	"math"
	"sort"

	"github.com/fnkit/fnkit/expr"
)

// native is the built-in float64 kernel provider. Loops are unrolled four
// wide, matching the shape of the compiled kernels it stands in for.
type native struct{}

// NewNative creates the built-in float64 provider.
func NewNative() Provider { return native{} }

func (native) Name() string { return "native" }

func (native) Capability() Capability {
	pairs := map[Pair]bool{}
	for _, op := range []expr.Op{expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv} {
		pairs[Pair{Kind: KindMap, Op: op}] = true
	}
	for _, op := range []expr.Op{expr.OpEq, expr.OpNe, expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe} {
		pairs[Pair{Kind: KindFilter, Op: op}] = true
	}
	for _, op := range []expr.Op{OpSum, OpMin, OpMax, OpMedian, OpStdev} {
		pairs[Pair{Kind: KindAggregate, Op: op}] = true
	}
	return Capability{
		Name:             "native",
		Pairs:            pairs,
		Elems:            map[ElemKind]bool{ElemFloat64: true, ElemInt64: true},
		DefaultThreshold: 512,
	}
}

func (native) MapFloat64(op expr.Op, data []float64, operand float64, reversed bool) ([]float64, error) {
	out := make([]float64, len(data))
	n := len(data)
	i := 0
	switch {
	case op == expr.OpAdd:
		for ; i+4 <= n; i += 4 {
			out[i] = data[i] + operand
			out[i+1] = data[i+1] + operand
			out[i+2] = data[i+2] + operand
			out[i+3] = data[i+3] + operand
		}
		for ; i < n; i++ {
			out[i] = data[i] + operand
		}
	case op == expr.OpMul:
		for ; i+4 <= n; i += 4 {
			out[i] = data[i] * operand
			out[i+1] = data[i+1] * operand
			out[i+2] = data[i+2] * operand
			out[i+3] = data[i+3] * operand
		}
		for ; i < n; i++ {
			out[i] = data[i] * operand
		}
	case op == expr.OpSub && !reversed:
		for ; i < n; i++ {
			out[i] = data[i] - operand
		}
	case op == expr.OpSub && reversed:
		for ; i < n; i++ {
			out[i] = operand - data[i]
		}
	case op == expr.OpDiv && !reversed:
		for ; i < n; i++ {
			out[i] = data[i] / operand
		}
	case op == expr.OpDiv && reversed:
		for ; i < n; i++ {
			out[i] = operand / data[i]
		}
	default:
		return nil, fmt.Errorf("native: unsupported map op %s", op)
	}
	return out, nil
}

func (native) FilterFloat64(op expr.Op, data []float64, operand float64, reversed bool) ([]bool, error) {
	mask := make([]bool, len(data))
	for i, x := range data {
		a, b := x, operand
		if reversed {
			a, b = operand, x
		}
		switch op {
		case expr.OpEq:
			mask[i] = a == b
		case expr.OpNe:
			mask[i] = a != b
		case expr.OpLt:
			mask[i] = a < b
		case expr.OpLe:
			mask[i] = a <= b
		case expr.OpGt:
			mask[i] = a > b
		case expr.OpGe:
			mask[i] = a >= b
		default:
			return nil, fmt.Errorf("native: unsupported filter op %s", op)
		}
	}
	return mask, nil
}

func (native) AggregateFloat64(op expr.Op, data []float64) (float64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("native: %s of empty buffer", op)
	}
	switch op {
	case OpSum:
		var s0, s1, s2, s3 float64
		n := len(data)
		i := 0
		for ; i+4 <= n; i += 4 {
			s0 += data[i]
			s1 += data[i+1]
			s2 += data[i+2]
			s3 += data[i+3]
		}
		for ; i < n; i++ {
			s0 += data[i]
		}
		return s0 + s1 + s2 + s3, nil
	case OpMin:
		m := data[0]
		for _, x := range data[1:] {
			if x < m {
				m = x
			}
		}
		return m, nil
	case OpMax:
		m := data[0]
		for _, x := range data[1:] {
			if x > m {
				m = x
			}
		}
		return m, nil
	case OpMedian:
		buf := make([]float64, len(data))
		copy(buf, data)
		sort.Float64s(buf)
		mid := len(buf) / 2
		if len(buf)%2 == 1 {
			return buf[mid], nil
		}
		return (buf[mid-1] + buf[mid]) / 2, nil
	case OpStdev:
		if len(data) < 2 {
			return 0, fmt.Errorf("native: stdev needs at least two elements")
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
	return 0, fmt.Errorf("native: unsupported aggregate op %s", op)
}

func (native) MapInt64(op expr.Op, data []int64, operand int64) ([]int64, error) {
	return nil, fmt.Errorf("native: integer kernels not supported")
}

// bitwiseBackend is the built-in int64 kernel provider covering the bitwise
// and shift operations.
type bitwiseBackend struct{}

// NewBitwise creates the built-in int64 bitwise provider.
func NewBitwise() Provider { return bitwiseBackend{} }

func (bitwiseBackend) Name() string { return "bitwise" }

func (bitwiseBackend) Capability() Capability {
	pairs := map[Pair]bool{}
	for _, op := range []expr.Op{expr.OpBitAnd, expr.OpBitOr, expr.OpBitXor, expr.OpShl, expr.OpShr} {
		pairs[Pair{Kind: KindMap, Op: op}] = true
	}
	return Capability{
		Name:             "bitwise",
		Pairs:            pairs,
		Elems:            map[ElemKind]bool{ElemInt64: true},
		DefaultThreshold: 64,
	}
}

func (bitwiseBackend) MapInt64(op expr.Op, data []int64, operand int64) ([]int64, error) {
	if (op == expr.OpShl || op == expr.OpShr) && operand < 0 {
		return nil, fmt.Errorf("bitwise: negative shift %d", operand)
	}
	out := make([]int64, len(data))
	switch op {
	case expr.OpBitAnd:
		for i, x := range data {
			out[i] = x & operand
		}
	case expr.OpBitOr:
		for i, x := range data {
			out[i] = x | operand
		}
	case expr.OpBitXor:
		for i, x := range data {
			out[i] = x ^ operand
		}
	case expr.OpShl:
		for i, x := range data {
			out[i] = x << uint(operand)
		}
	case expr.OpShr:
		for i, x := range data {
			out[i] = x >> uint(operand)
		}
	default:
		return nil, fmt.Errorf("bitwise: unsupported op %s", op)
	}
	return out, nil
}

func (bitwiseBackend) MapFloat64(op expr.Op, data []float64, operand float64, reversed bool) ([]float64, error) {
	return nil, fmt.Errorf("bitwise: float kernels not supported")
}

func (bitwiseBackend) FilterFloat64(op expr.Op, data []float64, operand float64, reversed bool) ([]bool, error) {
	return nil, fmt.Errorf("bitwise: float kernels not supported")
}

func (bitwiseBackend) AggregateFloat64(op expr.Op, data []float64) (float64, error) {
	return 0, fmt.Errorf("bitwise: aggregates not supported")
}
