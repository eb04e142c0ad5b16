package pipe

import (
	"reflect"
	"testing"

	"github.com/fnkit/fnkit/backend"
	"github.com/fnkit/fnkit/errors"
	"github.com/fnkit/fnkit/expr"
)

// eagerDispatcher builds a dispatcher whose native backend fires at any
// data size, for exercising the kernel path on small fixtures.
func eagerDispatcher(t *testing.T) *backend.Dispatcher {
	t.Helper()
	reg := backend.NewRegistry()
	reg.Register(backend.NewNative())
	reg.Register(backend.NewBitwise())
	for _, name := range []string{"native", "bitwise"} {
		if err := reg.SetThreshold(name, 0); err != nil {
			t.Fatal(err)
		}
	}
	return backend.NewDispatcher(reg)
}

func TestMapExpression(t *testing.T) {
	got := mustList(t, From([]any{1, 2, 3}).Map(expr.It.Mul(2)))
	want := []any{int64(2), int64(4), int64(6)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestMapFunc(t *testing.T) {
	got := mustList(t, From([]any{"a", "b"}).Map(func(v any) any {
		return v.(string) + "!"
	}))
	want := []any{"a!", "b!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestMapDispatchMatchesInterpreted(t *testing.T) {
	data := []any{100.0, 200.0, 300.0}

	native := mustList(t, From(data, WithDispatcher(eagerDispatcher(t))).Map(expr.It.Mul(0.9)))
	interpreted := mustList(t, From(data).Map(expr.It.Mul(0.9)))

	if !reflect.DeepEqual(native, interpreted) {
		t.Errorf("native = %v, interpreted = %v", native, interpreted)
	}
	if want := []any{90.0, 180.0, 270.0}; !reflect.DeepEqual(native, want) {
		t.Errorf("result = %v, want %v", native, want)
	}
}

func TestMapReversedOperand(t *testing.T) {
	got := mustList(t, From([]any{2.0, 4.0}, WithDispatcher(eagerDispatcher(t))).Map(expr.Lit(10.0).Sub(expr.It)))
	want := []any{8.0, 6.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestMapNonNumericNeverDispatches(t *testing.T) {
	got := mustList(t, From([]any{"a", "b"}, WithDispatcher(eagerDispatcher(t))).Map(expr.It.Add("!")))
	want := []any{"a!", "b!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestFilterExpression(t *testing.T) {
	got := mustList(t, From([]any{1, 5, 2, 8}).Filter(expr.It.Ge(5)))
	want := []any{5, 8}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestFilterDispatchKeepsOriginals(t *testing.T) {
	data := []any{1.5, 3.0, 0.5}
	got := mustList(t, From(data, WithDispatcher(eagerDispatcher(t))).Filter(expr.It.Gt(1.0)))
	want := []any{1.5, 3.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestFilterNonBoolResult(t *testing.T) {
	_, err := From([]any{1, 2}).Filter(expr.It.Add(1)).ToList()
	if !errors.IsCode(err, errors.ErrCodeEvalType) {
		t.Fatalf("ToList() error = %v, want EVAL_TYPE", err)
	}
}

func TestTakeSkip(t *testing.T) {
	p := From([]any{1, 2, 3, 4, 5})
	if got, want := mustList(t, p.Take(2)), []any{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("Take(2) = %v, want %v", got, want)
	}
	if got, want := mustList(t, p.Skip(3)), []any{4, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("Skip(3) = %v, want %v", got, want)
	}
	if got := mustList(t, p.Take(0)); len(got) != 0 {
		t.Errorf("Take(0) = %v, want empty", got)
	}
}

func TestTakeWhileConsumption(t *testing.T) {
	src, pulls := countingSeq()
	got := mustList(t, From(src).TakeWhile(expr.It.Lt(4)))
	want := []any{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
	if *pulls != 4 {
		t.Errorf("pulled %d elements, want exactly 4", *pulls)
	}
}

func TestSkipWhile(t *testing.T) {
	got := mustList(t, From([]any{1, 2, 3, 1, 2}).SkipWhile(expr.It.Lt(3)))
	want := []any{3, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestChunkKeepsPartialTail(t *testing.T) {
	got := mustList(t, From([]any{1, 2, 3, 4, 5}).Chunk(2))
	want := []any{[]any{1, 2}, []any{3, 4}, []any{5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToList() = %v, want %v", got, want)
	}
}

func TestWindowDropsShortTail(t *testing.T) {
	got := mustList(t, From([]any{1, 2, 3, 4, 5}).Window(3, 1))
	want := []any{
		[]any{1, 2, 3},
		[]any{2, 3, 4},
		[]any{3, 4, 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Window(3,1) = %v, want %v", got, want)
	}

	got = mustList(t, From([]any{1, 2, 3, 4, 5}).Window(2, 2))
	want = []any{[]any{1, 2}, []any{3, 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Window(2,2) = %v, want %v", got, want)
	}
}

func TestWindowStrideBeyondSize(t *testing.T) {
	got := mustList(t, From([]any{1, 2, 3, 4, 5}).Window(2, 3))
	want := []any{[]any{1, 2}, []any{4, 5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Window(2,3) = %v, want %v", got, want)
	}

	got = mustList(t, From([]any{1, 2, 3, 4, 5, 6, 7}).Window(1, 3))
	want = []any{[]any{1}, []any{4}, []any{7}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Window(1,3) = %v, want %v", got, want)
	}

	// Gap swallows the rest of the stream: only the first window fits.
	got = mustList(t, From([]any{1, 2, 3}).Window(2, 4))
	want = []any{[]any{1, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Window(2,4) = %v, want %v", got, want)
	}
}

func TestWindowValidatesArguments(t *testing.T) {
	_, err := From([]any{1}).Window(0, 1).ToList()
	if !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
		t.Fatalf("Window(0,1) error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestFlattenOneLevel(t *testing.T) {
	got := mustList(t, From([]any{[]any{1, 2}, 3, []any{[]any{4}}}).Flatten())
	want := []any{1, 2, 3, []any{4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestFlattenKeepsStrings(t *testing.T) {
	got := mustList(t, From([]any{"ab", []any{"c"}}).Flatten())
	want := []any{"ab", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

func TestGroupByFirstSeenOrder(t *testing.T) {
	got := mustList(t, From([]any{4, 1, 3, 2, 6}).GroupBy(expr.It.Mod(2)))
	want := []any{
		Group{Key: int64(0), Items: []any{4, 2, 6}},
		Group{Key: int64(1), Items: []any{1, 3}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GroupBy = %v, want %v", got, want)
	}
}

func TestSortNatural(t *testing.T) {
	got := mustList(t, From([]any{3, 1, 2}).Sort())
	want := []any{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
}

func TestSortByKeyIsStable(t *testing.T) {
	a := map[string]any{"k": 1, "tag": "a"}
	b := map[string]any{"k": 1, "tag": "b"}
	c := map[string]any{"k": 0, "tag": "c"}
	got := mustList(t, From([]any{a, b, c}).Sort(expr.It.Item("k")))
	want := []any{c, a, b}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort(key) = %v, want %v", got, want)
	}
}

func TestSortIncomparableFails(t *testing.T) {
	_, err := From([]any{1, "x"}).Sort().ToList()
	if !errors.IsCode(err, errors.ErrCodeEvalType) {
		t.Fatalf("Sort() error = %v, want EVAL_TYPE", err)
	}
}

func TestUnique(t *testing.T) {
	got := mustList(t, From([]any{1, 2, 1, 3, 2}).Unique())
	want := []any{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unique() = %v, want %v", got, want)
	}
}

func TestUniqueNumericPromotion(t *testing.T) {
	got := mustList(t, From([]any{1, 1.0, int64(1), 2, 2.5, 2.5}).Unique())
	want := []any{1, 2, 2.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unique() = %v, want %v", got, want)
	}
}

func TestUniqueUncomparableElements(t *testing.T) {
	got := mustList(t, From([]any{[]any{1}, []any{1}, []any{2}}).Unique())
	want := []any{[]any{1}, []any{2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unique() = %v, want %v", got, want)
	}
}

func TestChain(t *testing.T) {
	got := mustList(t, From([]any{1, 2}).Chain([]any{3}, []any{4, 5}))
	want := []any{1, 2, 3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Chain() = %v, want %v", got, want)
	}
}

func TestZipWith(t *testing.T) {
	got := mustList(t, From([]any{1, 2, 3}).ZipWith([]any{10, 20}, nil))
	want := []any{[]any{1, 10}, []any{2, 20}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ZipWith(nil) = %v, want %v", got, want)
	}

	got = mustList(t, From([]any{1, 2}).ZipWith([]any{10, 20}, func(a, b any) any {
		return a.(int) + b.(int)
	}))
	want = []any{11, 22}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ZipWith(add) = %v, want %v", got, want)
	}
}

func TestProductRowMajor(t *testing.T) {
	got := mustList(t, From([]any{1, 2}).Product([]any{"a", "b"}))
	want := []any{
		[]any{1, "a"}, []any{1, "b"},
		[]any{2, "a"}, []any{2, "b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Product() = %v, want %v", got, want)
	}
}

func TestCombinations(t *testing.T) {
	got := mustList(t, From([]any{1, 2, 3}).Combinations(2))
	want := []any{[]any{1, 2}, []any{1, 3}, []any{2, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Combinations(2) = %v, want %v", got, want)
	}

	got = mustList(t, From([]any{1, 2}).Combinations(0))
	want = []any{[]any{}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Combinations(0) = %v, want %v", got, want)
	}

	got = mustList(t, From([]any{1, 2}).Combinations(3))
	if len(got) != 0 {
		t.Errorf("Combinations(3) over 2 elements = %v, want empty", got)
	}
}

func TestBitwiseSteps(t *testing.T) {
	data := []any{int64(0b1100), int64(0b1010)}
	cases := []struct {
		name string
		p    *Pipeline
		want []any
	}{
		{"and", From(data).BitwiseAnd(0b1000), []any{int64(0b1000), int64(0b1000)}},
		{"or", From(data).BitwiseOr(0b0001), []any{int64(0b1101), int64(0b1011)}},
		{"xor", From(data).BitwiseXor(0b1111), []any{int64(0b0011), int64(0b0101)}},
		{"shl", From(data).ShiftLeft(1), []any{int64(0b11000), int64(0b10100)}},
		{"shr", From(data).ShiftRight(2), []any{int64(0b11), int64(0b10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mustList(t, tc.p)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBitwiseDispatchMatchesInterpreted(t *testing.T) {
	data := make([]any, 100)
	for i := range data {
		data[i] = int64(i)
	}
	native := mustList(t, From(data, WithDispatcher(eagerDispatcher(t))).BitwiseAnd(0x0F))
	interpreted := mustList(t, From(data).BitwiseAnd(0x0F))

	if !reflect.DeepEqual(native, interpreted) {
		t.Errorf("native = %v, interpreted = %v", native, interpreted)
	}
	want := make([]any, len(data))
	for i := range data {
		want[i] = int64(i) & 0x0F
	}
	if !reflect.DeepEqual(native, want) {
		t.Errorf("native = %v, want %v", native, want)
	}
}
