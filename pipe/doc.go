// Package pipe provides a fluent, lazy, chainable transformation pipeline
// over heterogeneous values.
//
// A Pipeline wraps one initial value — a scalar, a slice, a map, a
// generator, or another Pipeline — and records transformation steps without
// executing them. Intermediate operations (Map, Filter, Take, Sort, ...)
// append one deferred step each and return a new Pipeline; terminal
// operations (Get, ToList, Sum, Count, ...) pull the step chain exactly once
// and return a concrete value.
//
//	out, err := pipe.From(orders).
//	    Filter(expr.It.Item("total").Gt(100)).
//	    Map(map[string]any{
//	        "id":         expr.It.Item("id"),
//	        "discounted": expr.It.Item("total").Mul(0.9),
//	    }).
//	    Map("Order #{id}: {discounted:.2f}").
//	    ToList()
//
// Bulk numeric terminals (Sum, Min, Max, Median, Stdev) and decomposed
// Map/Filter steps over slice-backed data consult the backend dispatcher;
// a native kernel failure silently restarts the operation on the
// interpreted path, so results never depend on backend availability.
//
// Execution is single-threaded and synchronous. Slice and map sources are
// restartable: invoking a terminal twice yields identical results.
// Generator (Seq) sources are single-pass; a second terminal call observes
// an exhausted source. Pipelines take no context: the engine performs no
// I/O of its own, and side-effect taps that need deadlines can close over
// their own context.
package pipe
