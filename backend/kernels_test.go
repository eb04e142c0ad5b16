package backend

import (
	"math"
	"testing"

	"github.com/fnkit/fnkit/expr"
)

func TestNative_MapFloat64(t *testing.T) {
	p := NewNative()
	data := []float64{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name     string
		op       expr.Op
		operand  float64
		reversed bool
		want     []float64
	}{
		{"add", expr.OpAdd, 1, false, []float64{2, 3, 4, 5, 6, 7, 8}},
		{"mul", expr.OpMul, 2, false, []float64{2, 4, 6, 8, 10, 12, 14}},
		{"sub", expr.OpSub, 1, false, []float64{0, 1, 2, 3, 4, 5, 6}},
		{"sub reversed", expr.OpSub, 10, true, []float64{9, 8, 7, 6, 5, 4, 3}},
		{"div", expr.OpDiv, 2, false, []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.MapFloat64(tc.op, data, tc.operand, tc.reversed)
			if err != nil {
				t.Fatal(err)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("index %d: got %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestNative_MapFloat64_FreshBuffer(t *testing.T) {
	p := NewNative()
	data := []float64{1, 2, 3}
	got, err := p.MapFloat64(expr.OpAdd, data, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if &got[0] == &data[0] {
		t.Error("kernel must return a fresh buffer, not alias the input")
	}
	if data[0] != 1 {
		t.Error("kernel must not mutate its input")
	}
}

func TestNative_FilterFloat64(t *testing.T) {
	p := NewNative()
	data := []float64{1, 2, 3, 4, 5}
	mask, err := p.FilterFloat64(expr.OpGt, data, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{false, false, true, true, true}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, mask[i], want[i])
		}
	}

	// Reversed: 2 > x.
	mask, err = p.FilterFloat64(expr.OpGt, data, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	want = []bool{true, false, false, false, false}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("reversed index %d: got %v, want %v", i, mask[i], want[i])
		}
	}
}

func TestNative_Aggregates(t *testing.T) {
	p := NewNative()
	data := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		op   expr.Op
		want float64
	}{
		{OpSum, 15},
		{OpMin, 1},
		{OpMax, 5},
		{OpMedian, 3},
	}
	for _, tc := range tests {
		t.Run(string(tc.op), func(t *testing.T) {
			got, err := p.AggregateFloat64(tc.op, data)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNative_MedianEven(t *testing.T) {
	p := NewNative()
	got, err := p.AggregateFloat64(OpMedian, []float64{4, 1, 3, 2})
	if err != nil {
		t.Fatal(err)
	}
	if got != 2.5 {
		t.Errorf("got %v, want 2.5", got)
	}
}

func TestNative_MedianDoesNotMutate(t *testing.T) {
	p := NewNative()
	data := []float64{3, 1, 2}
	if _, err := p.AggregateFloat64(OpMedian, data); err != nil {
		t.Fatal(err)
	}
	if data[0] != 3 || data[1] != 1 || data[2] != 2 {
		t.Errorf("median must sort a private copy, input now %v", data)
	}
}

func TestNative_Stdev(t *testing.T) {
	p := NewNative()
	got, err := p.AggregateFloat64(OpStdev, []float64{2, 4, 4, 4, 5, 5, 7, 9})
	if err != nil {
		t.Fatal(err)
	}
	// Sample standard deviation.
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNative_AggregateEmpty(t *testing.T) {
	p := NewNative()
	if _, err := p.AggregateFloat64(OpSum, nil); err == nil {
		t.Error("expected error for empty buffer")
	}
}

func TestNative_UnsupportedOps(t *testing.T) {
	p := NewNative()
	if _, err := p.MapFloat64(expr.OpMod, []float64{1}, 2, false); err == nil {
		t.Error("expected error for mod")
	}
	if _, err := p.MapInt64(expr.OpBitAnd, []int64{1}, 1); err == nil {
		t.Error("native has no integer kernels")
	}
}

func TestBitwise_MapInt64(t *testing.T) {
	p := NewBitwise()
	data := []int64{15, 31, 63, 127}

	tests := []struct {
		name    string
		op      expr.Op
		operand int64
		want    []int64
	}{
		{"and", expr.OpBitAnd, 7, []int64{7, 7, 7, 7}},
		{"or", expr.OpBitOr, 128, []int64{143, 159, 191, 255}},
		{"xor", expr.OpBitXor, 15, []int64{0, 16, 48, 112}},
		{"shl", expr.OpShl, 1, []int64{30, 62, 126, 254}},
		{"shr", expr.OpShr, 2, []int64{3, 7, 15, 31}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.MapInt64(tc.op, data, tc.operand)
			if err != nil {
				t.Fatal(err)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("index %d: got %d, want %d", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestBitwise_NegativeShift(t *testing.T) {
	p := NewBitwise()
	if _, err := p.MapInt64(expr.OpShl, []int64{1}, -1); err == nil {
		t.Error("expected error for negative shift")
	}
}

func TestBitwise_NoFloatKernels(t *testing.T) {
	p := NewBitwise()
	if _, err := p.MapFloat64(expr.OpAdd, []float64{1}, 1, false); err == nil {
		t.Error("expected error")
	}
	if _, err := p.AggregateFloat64(OpSum, []float64{1}); err == nil {
		t.Error("expected error")
	}
}
