// Package dispatch routes normalized calls either into a Batch or to the
// transport for immediate execution, behind one completion contract.
package dispatch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/logging"
	"github.com/vanshika/graphlink/internal/transport"
)

// ErrClosed is returned once the router's queue has been closed.
var ErrClosed = errors.New("dispatch queue closed")

// Completion receives a call's outcome exactly once. body is nil when err is set.
type Completion func(body any, err error)

// Exec selects how a call runs: Immediate or Batched.
type Exec interface {
	isExec()
}

// Immediate sends the call on its own.
type Immediate struct{}

// Batched appends the call to Batch.
type Batched struct {
	Batch *Batch
}

func (Immediate) isExec() {}
func (Batched) isExec()   {}

// ExecFor picks Batched for a non-nil batch and Immediate otherwise.
func ExecFor(b *Batch) Exec {
	if b == nil {
		return Immediate{}
	}
	return Batched{Batch: b}
}

// Router is the single dispatch primitive used by every operation.
type Router struct {
	ctx       context.Context
	transport transport.Transport
	queue     *Queue
	logger    *zap.Logger
}

func NewRouter(ctx context.Context, t transport.Transport, q *Queue, logger *zap.Logger) *Router {
	logger = logging.OrNop(logger)
	return &Router{ctx: ctx, transport: t, queue: q, logger: logger}
}

// Dispatch runs req according to exec. It never calls done synchronously.
func (r *Router) Dispatch(exec Exec, req transport.Request, done Completion) error {
	switch e := exec.(type) {
	case Batched:
		idx, err := e.Batch.enqueue(step{req: req, done: done})
		if err != nil {
			return err
		}
		r.logger.Debug("dispatch",
			zap.String("verb", req.Verb),
			zap.String("path", req.Endpoint.Path()),
			zap.String("mode", "batched"),
			zap.String("batch", e.Batch.ID()),
			zap.Int("step", idx),
		)
		return nil
	default:
		r.logger.Debug("dispatch",
			zap.String("verb", req.Verb),
			zap.String("path", req.Endpoint.Path()),
			zap.String("mode", "immediate"),
		)
		return r.submit(func() {
			body, err := r.transport.Do(r.ctx, req)
			if err != nil {
				body = nil
			}
			done(body, err)
		})
	}
}

// DispatchEach issues verb against resource/<id> for every id. done fires
// once, with the first error. Immediate calls run in order and stop at the
// first failure; batched calls become one step per id.
func (r *Router) DispatchEach(exec Exec, verb string, resource transport.Resource, ids []string, body any, done Completion) error {
	reqs := make([]transport.Request, len(ids))
	for i, id := range ids {
		reqs[i] = transport.Request{Verb: verb, Endpoint: transport.ResourcePath(resource, id), Body: body}
	}
	if len(reqs) == 1 {
		return r.Dispatch(exec, reqs[0], done)
	}

	switch e := exec.(type) {
	case Batched:
		remaining := len(reqs)
		var firstErr error
		steps := make([]step, len(reqs))
		for i, req := range reqs {
			steps[i] = step{req: req, done: func(_ any, err error) {
				// step completions all run on the queue goroutine
				if err != nil && firstErr == nil {
					firstErr = err
				}
				remaining--
				if remaining == 0 {
					done(nil, firstErr)
				}
			}}
		}
		idx, err := e.Batch.enqueue(steps...)
		if err != nil {
			return err
		}
		r.logger.Debug("dispatch",
			zap.String("verb", verb),
			zap.String("resource", string(resource)),
			zap.Int("count", len(reqs)),
			zap.String("mode", "batched"),
			zap.String("batch", e.Batch.ID()),
			zap.Int("step", idx),
		)
		return nil
	default:
		r.logger.Debug("dispatch",
			zap.String("verb", verb),
			zap.String("resource", string(resource)),
			zap.Int("count", len(reqs)),
			zap.String("mode", "immediate"),
		)
		return r.submit(func() {
			for _, req := range reqs {
				if _, err := r.transport.Do(r.ctx, req); err != nil {
					done(nil, err)
					return
				}
			}
			done(nil, nil)
		})
	}
}

// Submit hands b to the transport as one atomic unit. Each step's completion
// receives its slice of the response, then done fires with the first error.
// An empty batch completes without a remote call. If the queue is already
// closed, every queued step fails with ErrClosed before Submit returns it, and
// done is not called.
func (r *Router) Submit(b *Batch, done func(error)) error {
	steps, err := b.take()
	if err != nil {
		return err
	}
	r.logger.Debug("submit batch", zap.String("batch", b.ID()), zap.Int("steps", len(steps)))

	err = r.submit(func() {
		if len(steps) == 0 {
			done(nil)
			return
		}

		reqs := make([]transport.Request, len(steps))
		for i, s := range steps {
			reqs[i] = s.req
		}
		results, err := r.transport.DoBatch(r.ctx, reqs)
		if err != nil {
			r.logger.Debug("batch failed", zap.String("batch", b.ID()), zap.Error(err))
			for _, s := range steps {
				s.done(nil, err)
			}
			done(err)
			return
		}

		var firstErr error
		for i, s := range steps {
			res := transport.StepResult{Err: &transport.Error{
				Verb:    s.req.Verb,
				Path:    s.req.Endpoint.Path(),
				Message: "no result for batch step",
			}}
			if i < len(results) {
				res = results[i]
			}
			if res.Err != nil {
				if firstErr == nil {
					firstErr = res.Err
				}
				s.done(nil, res.Err)
				continue
			}
			s.done(res.Body, nil)
		}
		done(firstErr)
	})
	if err != nil {
		// the queue is gone, so these completions can only run here
		for _, s := range steps {
			s.done(nil, err)
		}
	}
	return err
}

func (r *Router) submit(task func()) error {
	if !r.queue.Submit(task) {
		return ErrClosed
	}
	return nil
}
