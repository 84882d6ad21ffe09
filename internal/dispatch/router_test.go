package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/graphlink/internal/transport"
)

func newTestRouter(t *testing.T, mt *transport.MemoryTransport) (*Router, *Queue) {
	t.Helper()
	q := NewQueue(nil)
	t.Cleanup(q.Close)
	return NewRouter(context.Background(), mt, q, nil), q
}

func TestExecFor(t *testing.T) {
	assert.Equal(t, Immediate{}, ExecFor(nil))

	b := NewBatch()
	assert.Equal(t, Batched{Batch: b}, ExecFor(b))
}

func TestDispatch_Immediate(t *testing.T) {
	mt := transport.NewMemoryTransport()
	mt.PushResult(map[string]any{"ok": true})
	r, q := newTestRouter(t, mt)

	req := transport.Request{Verb: transport.VerbGet, Endpoint: transport.ResourcePath(transport.ResourceNode, "1")}
	var (
		calls int
		got   any
	)
	require.NoError(t, r.Dispatch(Immediate{}, req, func(body any, err error) {
		calls++
		got = body
		assert.NoError(t, err)
	}))
	q.Wait()

	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]any{"ok": true}, got)
	assert.Equal(t, []transport.Request{req}, mt.Calls())
	assert.Empty(t, mt.Batches())
}

func TestDispatch_ImmediateError(t *testing.T) {
	boom := errors.New("connection refused")
	mt := transport.NewMemoryTransport().WithError(boom)
	r, q := newTestRouter(t, mt)

	var gotErr error
	gotBody := any("unset")
	req := transport.Request{Verb: transport.VerbGet, Endpoint: transport.Literal(transport.ResourceNode)}
	require.NoError(t, r.Dispatch(Immediate{}, req, func(body any, err error) {
		gotBody, gotErr = body, err
	}))
	q.Wait()

	assert.ErrorIs(t, gotErr, boom)
	assert.Nil(t, gotBody)
}

func TestDispatch_NotSynchronous(t *testing.T) {
	mt := transport.NewMemoryTransport()
	r, q := newTestRouter(t, mt)

	fired := make(chan struct{})
	block := make(chan struct{})
	require.True(t, q.Submit(func() { <-block }))

	req := transport.Request{Verb: transport.VerbGet, Endpoint: transport.Literal(transport.ResourceNode)}
	require.NoError(t, r.Dispatch(Immediate{}, req, func(any, error) { close(fired) }))

	select {
	case <-fired:
		t.Fatal("completion ran on the caller's stack")
	default:
	}
	close(block)
	q.Wait()
	<-fired
}

func TestDispatch_BatchedNeverCallsTransport(t *testing.T) {
	mt := transport.NewMemoryTransport()
	r, q := newTestRouter(t, mt)
	b := NewBatch()

	called := false
	req := transport.Request{Verb: transport.VerbPost, Endpoint: transport.Literal(transport.ResourceNode), Body: map[string]any{"name": "a"}}
	require.NoError(t, r.Dispatch(Batched{Batch: b}, req, func(any, error) { called = true }))
	q.Wait()

	assert.Equal(t, 1, b.Len())
	assert.False(t, called)
	assert.Empty(t, mt.Calls())
	assert.Empty(t, mt.Batches())
}

func TestDispatch_ImmediateNeverEnqueues(t *testing.T) {
	mt := transport.NewMemoryTransport()
	r, q := newTestRouter(t, mt)
	b := NewBatch()

	req := transport.Request{Verb: transport.VerbGet, Endpoint: transport.Literal(transport.ResourceNode)}
	require.NoError(t, r.Dispatch(ExecFor(nil), req, func(any, error) {}))
	q.Wait()

	assert.Zero(t, b.Len())
	assert.Len(t, mt.Calls(), 1)
}

func TestSubmit(t *testing.T) {
	mt := transport.NewMemoryTransport()
	mt.PushResult("first")
	mt.PushResult("second")
	r, q := newTestRouter(t, mt)
	b := NewBatch()

	var order []string
	for i := 0; i < 2; i++ {
		req := transport.Request{Verb: transport.VerbPost, Endpoint: transport.Literal(transport.ResourceNode)}
		require.NoError(t, r.Dispatch(Batched{Batch: b}, req, func(body any, err error) {
			assert.NoError(t, err)
			s, _ := body.(string)
			order = append(order, s)
		}))
	}

	var batchErr error
	submitted := false
	require.NoError(t, r.Submit(b, func(err error) {
		submitted = true
		batchErr = err
	}))
	q.Wait()

	assert.True(t, submitted)
	assert.NoError(t, batchErr)
	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, mt.Batches(), 1)
	assert.Len(t, mt.Batches()[0], 2)
	assert.Empty(t, mt.Calls())
	assert.True(t, b.Submitted())
}

func TestSubmit_Failure(t *testing.T) {
	boom := errors.New("rolled back")
	mt := transport.NewMemoryTransport()
	mt.PushResult("ok")
	mt.PushError(boom)
	r, q := newTestRouter(t, mt)
	b := NewBatch()

	var stepErrs []error
	for i := 0; i < 2; i++ {
		req := transport.Request{Verb: transport.VerbDelete, Endpoint: transport.ResourcePath(transport.ResourceNode, "1")}
		require.NoError(t, r.Dispatch(Batched{Batch: b}, req, func(body any, err error) {
			assert.Nil(t, body)
			stepErrs = append(stepErrs, err)
		}))
	}

	var batchErr error
	require.NoError(t, r.Submit(b, func(err error) { batchErr = err }))
	q.Wait()

	assert.ErrorIs(t, batchErr, boom)
	require.Len(t, stepErrs, 2)
	for _, err := range stepErrs {
		assert.ErrorIs(t, err, boom)
	}
}

func TestSubmit_Empty(t *testing.T) {
	mt := transport.NewMemoryTransport()
	r, q := newTestRouter(t, mt)

	done := false
	require.NoError(t, r.Submit(NewBatch(), func(err error) {
		done = true
		assert.NoError(t, err)
	}))
	q.Wait()

	assert.True(t, done)
	assert.Empty(t, mt.Batches())
}

func TestSubmit_Closed(t *testing.T) {
	mt := transport.NewMemoryTransport()
	r, q := newTestRouter(t, mt)
	b := NewBatch()

	require.NoError(t, r.Submit(b, func(error) {}))
	q.Wait()

	assert.ErrorIs(t, r.Submit(b, func(error) {}), ErrBatchClosed)

	req := transport.Request{Verb: transport.VerbGet, Endpoint: transport.Literal(transport.ResourceNode)}
	assert.ErrorIs(t, r.Dispatch(Batched{Batch: b}, req, func(any, error) {}), ErrBatchClosed)
}

func TestDispatchEach(t *testing.T) {
	t.Run("immediate stops at first error", func(t *testing.T) {
		boom := errors.New("not found")
		mt := transport.NewMemoryTransport()
		mt.PushResult(nil)
		mt.PushError(boom)
		r, q := newTestRouter(t, mt)

		var calls int
		var gotErr error
		require.NoError(t, r.DispatchEach(Immediate{}, transport.VerbDelete, transport.ResourceNode, []string{"1", "2", "3"}, nil, func(_ any, err error) {
			calls++
			gotErr = err
		}))
		q.Wait()

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, gotErr, boom)
		assert.Len(t, mt.Calls(), 2)
	})

	t.Run("batched adds one step per id", func(t *testing.T) {
		mt := transport.NewMemoryTransport()
		r, q := newTestRouter(t, mt)
		b := NewBatch()

		var calls int
		require.NoError(t, r.DispatchEach(Batched{Batch: b}, transport.VerbDelete, transport.ResourceRelationship, []string{"4", "5"}, nil, func(_ any, err error) {
			calls++
			assert.NoError(t, err)
		}))
		assert.Equal(t, 2, b.Len())

		require.NoError(t, r.Submit(b, func(error) {}))
		q.Wait()

		assert.Equal(t, 1, calls)
		require.Len(t, mt.Batches(), 1)
		assert.Equal(t, "relationship/5", mt.Batches()[0][1].Endpoint.Path())
	})
}

func TestRouter_ClosedQueue(t *testing.T) {
	mt := transport.NewMemoryTransport()
	q := NewQueue(nil)
	r := NewRouter(context.Background(), mt, q, nil)
	q.Close()

	req := transport.Request{Verb: transport.VerbGet, Endpoint: transport.Literal(transport.ResourceNode)}
	assert.ErrorIs(t, r.Dispatch(Immediate{}, req, func(any, error) {}), ErrClosed)
}

func TestSubmit_ClosedQueueFailsSteps(t *testing.T) {
	mt := transport.NewMemoryTransport()
	q := NewQueue(nil)
	r := NewRouter(context.Background(), mt, q, nil)

	b := NewBatch()
	req := transport.Request{Verb: transport.VerbPost, Endpoint: transport.Literal(transport.ResourceNode)}
	var stepErrs []error
	for i := 0; i < 2; i++ {
		require.NoError(t, r.Dispatch(Batched{Batch: b}, req, func(_ any, err error) {
			stepErrs = append(stepErrs, err)
		}))
	}
	q.Close()

	batchDone := false
	err := r.Submit(b, func(error) { batchDone = true })
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, batchDone)
	require.Len(t, stepErrs, 2)
	for _, e := range stepErrs {
		assert.ErrorIs(t, e, ErrClosed)
	}
	assert.Empty(t, mt.Batches())
}
