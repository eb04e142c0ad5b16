package pipe

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/fnkit/fnkit/errors"
	"github.com/fnkit/fnkit/logger"
	"github.com/fnkit/fnkit/observability"
)

// Do applies a side-effecting procedure to each element and passes the
// element through unchanged. fn may be func(any), func(any) error, or any
// callable shape accepted by Map; its return value is discarded.
func (p *Pipeline) Do(fn any) *Pipeline {
	proc, err := procedure(fn)
	if err != nil {
		return p.errStep("do", err)
	}
	return p.with(step{name: "do", apply: func(src iterator) iterator {
		return &tapIter{src: src, proc: proc}
	}})
}

// Tap is an alias for Do.
func (p *Pipeline) Tap(fn any) *Pipeline {
	return p.Do(fn)
}

// Debug logs each element at debug level under the given label, tagged
// with the pipeline ID. Elements pass through unchanged.
func (p *Pipeline) Debug(label string) *Pipeline {
	log := p.log
	id := p.id
	return p.with(step{name: "debug", apply: func(src iterator) iterator {
		i := 0
		return &tapIter{src: src, proc: func(v any) error {
			log.Debug("pipeline element", logger.Fields(
				logger.FieldPipeline, id,
				logger.FieldLabel, label,
				logger.FieldStep, i,
				"value", v,
			))
			i++
			return nil
		}}
	}})
}

// Trace wraps the downstream pull of this stage in a tracing span under
// the given label, recording the element count. Elements pass through
// unchanged; the span ends when the stream is exhausted or fails.
func (p *Pipeline) Trace(label string) *Pipeline {
	id := p.id
	return p.with(step{name: "trace", apply: func(src iterator) iterator {
		return &traceIter{src: src, label: label, pipelineID: id}
	}})
}

// procedure adapts a tap argument into a side-effecting call.
func procedure(fn any) (func(any) error, error) {
	switch f := fn.(type) {
	case func(any):
		return func(v any) error { f(v); return nil }, nil
	case func(any) error:
		return f, nil
	}
	g, _, err := callable(fn)
	if err != nil {
		return nil, errors.TypeMismatch("tap procedure", fn)
	}
	return func(v any) error {
		_, err := g(v)
		return err
	}, nil
}

type tapIter struct {
	src  iterator
	proc func(any) error
}

func (it *tapIter) Next() (any, bool, error) {
	v, ok, err := it.src.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	if err := it.proc(v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

type traceIter struct {
	src        iterator
	label      string
	pipelineID string

	ctx   context.Context
	span  trace.Span
	count int
	done  bool
}

func (it *traceIter) Next() (any, bool, error) {
	if it.span == nil && !it.done {
		it.ctx, it.span = observability.StartSpan(context.Background(), it.label)
		observability.SetSpanAttribute(it.ctx, observability.AttrPipelineID, it.pipelineID)
	}
	v, ok, err := it.src.Next()
	if err != nil {
		it.finish(err)
		return nil, false, err
	}
	if !ok {
		it.finish(nil)
		return nil, false, nil
	}
	it.count++
	return v, true, nil
}

func (it *traceIter) finish(err error) {
	if it.done {
		return
	}
	it.done = true
	if it.span == nil {
		return
	}
	observability.SetSpanInt(it.ctx, observability.AttrElements, int64(it.count))
	if err != nil {
		observability.SetSpanError(it.ctx, err)
	}
	it.span.End()
	it.span = nil
}
