package dispatch

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/vanshika/graphlink/internal/transport"
)

// ErrBatchClosed is returned when enqueueing into, or submitting, a batch that
// was already submitted.
var ErrBatchClosed = errors.New("batch already submitted")

// Batch accumulates requests that are submitted together as one atomic unit.
// A batch can be submitted once.
type Batch struct {
	id string

	mu        sync.Mutex
	steps     []step
	submitted bool
}

type step struct {
	req  transport.Request
	done Completion
}

func NewBatch() *Batch {
	return &Batch{id: uuid.NewString()}
}

// ID identifies the batch in logs.
func (b *Batch) ID() string { return b.id }

// Len reports the number of queued steps.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.steps)
}

// Submitted reports whether the batch has been handed to the transport.
func (b *Batch) Submitted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submitted
}

// enqueue appends steps atomically and returns the index of the first one.
func (b *Batch) enqueue(steps ...step) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitted {
		return 0, ErrBatchClosed
	}
	first := len(b.steps)
	b.steps = append(b.steps, steps...)
	return first, nil
}

// take closes the batch and hands over its steps.
func (b *Batch) take() ([]step, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitted {
		return nil, ErrBatchClosed
	}
	b.submitted = true
	steps := b.steps
	b.steps = nil
	return steps, nil
}
