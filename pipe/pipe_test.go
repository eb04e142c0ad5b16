package pipe

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/fnkit/fnkit/errors"
	"github.com/fnkit/fnkit/expr"
	"github.com/fnkit/fnkit/logger"
)

func mustList(t *testing.T, p *Pipeline) []any {
	t.Helper()
	got, err := p.ToList()
	if err != nil {
		t.Fatalf("ToList() error = %v", err)
	}
	return got
}

func TestFromSlice(t *testing.T) {
	got := mustList(t, From([]any{1, 2, 3}))
	want := []any{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestFromTypedSlice(t *testing.T) {
	got := mustList(t, From([]string{"b", "a"}))
	want := []any{"b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestFromMapSortedKeyOrder(t *testing.T) {
	got := mustList(t, From(map[string]int{"b": 2, "a": 1, "c": 3}))
	want := []any{
		Entry{Key: "a", Value: 1},
		Entry{Key: "b", Value: 2},
		Entry{Key: "c", Value: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestFromScalarGet(t *testing.T) {
	got, err := From(42).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Get() = %v, want 42", got)
	}
}

func TestScalarMapKeepsShape(t *testing.T) {
	got, err := From(10).Map(expr.It.Mul(2)).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != int64(20) {
		t.Errorf("Get() = %v (%T), want int64 20", got, got)
	}

	got, err = From(10).Map(expr.It.Mul(2)).Map(expr.It.Add(1)).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != int64(21) {
		t.Errorf("chained Get() = %v, want int64 21", got)
	}
}

func TestFromNil(t *testing.T) {
	got, err := From(nil).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}
}

func TestFromSeq(t *testing.T) {
	i := 0
	src := Seq(func() (any, bool) {
		if i >= 3 {
			return nil, false
		}
		i++
		return i, true
	})
	got := mustList(t, From(src))
	want := []any{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestNestedPipelineSource(t *testing.T) {
	inner := From([]any{1, 2, 3}).Map(expr.It.Mul(2))
	got := mustList(t, From(inner).Filter(expr.It.Gt(2)))
	want := []any{int64(4), int64(6)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

// countingSeq returns an unbounded source counting every pull.
func countingSeq() (Seq, *int) {
	n := 0
	count := &n
	i := 0
	return func() (any, bool) {
		*count++
		i++
		return i, true
	}, count
}

func TestChainingIsLazy(t *testing.T) {
	src, pulls := countingSeq()
	_ = From(src).Filter(expr.It.Mod(2).Eq(0)).Map(expr.It.Mul(10))
	if *pulls != 0 {
		t.Errorf("building the chain pulled %d elements, want 0", *pulls)
	}
}

func TestTakeBoundsConsumption(t *testing.T) {
	src, pulls := countingSeq()
	got := mustList(t, From(src).Filter(expr.It.Mod(2).Eq(0)).Take(2))
	want := []any{2, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
	if *pulls > 5 {
		t.Errorf("pulled %d elements for 2 results, want at most 5", *pulls)
	}
}

func TestIdempotentTerminals(t *testing.T) {
	p := From([]any{3, 1, 2}).Sort()
	first := mustList(t, p)
	second := mustList(t, p)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated ToList() differ: %v vs %v", first, second)
	}
}

func TestBranchesShareNoState(t *testing.T) {
	base := From([]any{1, 2, 3, 4})
	evens := base.Filter(expr.It.Mod(2).Eq(0))
	tens := base.Map(expr.It.Mul(10))

	if got, want := mustList(t, evens), []any{2, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("evens = %v, want %v", got, want)
	}
	if got, want := mustList(t, tens), []any{int64(10), int64(20), int64(30), int64(40)}; !reflect.DeepEqual(got, want) {
		t.Errorf("tens = %v, want %v", got, want)
	}
	if got, want := mustList(t, base), []any{1, 2, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("base = %v, want %v", got, want)
	}
}

func TestClone(t *testing.T) {
	p := From([]any{1, 2, 3}).Map(expr.It.Add(1))
	c := p.Clone().Map(expr.It.Mul(10))

	if got, want := mustList(t, p), []any{int64(2), int64(3), int64(4)}; !reflect.DeepEqual(got, want) {
		t.Errorf("original = %v, want %v", got, want)
	}
	if got, want := mustList(t, c), []any{int64(20), int64(30), int64(40)}; !reflect.DeepEqual(got, want) {
		t.Errorf("clone = %v, want %v", got, want)
	}
	if p.ID() == c.ID() {
		t.Error("clone shares the original's ID")
	}
}

func TestBadStepArgumentSurfacesAtTerminal(t *testing.T) {
	_, err := From([]any{1, 2, 3}).Chunk(0).ToList()
	if !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
		t.Fatalf("ToList() error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestEvaluationErrorPropagates(t *testing.T) {
	_, err := From([]any{map[string]any{"a": 1}}).Map(expr.It.Item("missing")).ToList()
	if !errors.IsCode(err, errors.ErrCodeEvalLookup) {
		t.Fatalf("ToList() error = %v, want EVAL_LOOKUP", err)
	}
}

func TestDoPassesValuesThrough(t *testing.T) {
	var seen []any
	got := mustList(t, From([]any{1, 2, 3}).Do(func(v any) { seen = append(seen, v) }))
	want := []any{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("tap saw %v, want %v", seen, want)
	}
}

func TestTapErrorStopsStream(t *testing.T) {
	boom := errors.New(errors.ErrCodeEvalType, "boom")
	_, err := From([]any{1, 2}).Tap(func(v any) error { return boom }).ToList()
	if !errors.IsCode(err, errors.ErrCodeEvalType) {
		t.Fatalf("ToList() error = %v, want the tap error", err)
	}
}

func TestDebugWritesElements(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, "debug")

	got := mustList(t, From([]any{1, 2}, WithLogger(l)).Debug("input"))
	want := []any{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
	out := buf.String()
	if !strings.Contains(out, `"label":"input"`) {
		t.Errorf("debug output missing label: %s", out)
	}
	if n := strings.Count(out, "pipeline element"); n != 2 {
		t.Errorf("got %d debug lines, want one per element: %s", n, out)
	}
}

func TestDebugAndTracePassThrough(t *testing.T) {
	got := mustList(t, From([]any{1, 2}).Debug("in").Trace("stage").Map(expr.It.Add(1)))
	want := []any{int64(2), int64(3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}
