package transport

import (
	"context"
	"sync"
)

// MemoryTransport is an in-memory Transport used for unit testing the command
// layer without a running graph database. It records every call and replays
// canned results in order.
type MemoryTransport struct {
	mu          sync.Mutex
	calls       []Request
	batches     [][]Request
	results     []StepResult
	responder   func(Request) (any, error)
	err         error
	discoveries int
}

// NewMemoryTransport instantiates the in-memory transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{}
}

// WithError configures the transport to fail every subsequent call with err.
func (m *MemoryTransport) WithError(err error) *MemoryTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithResponder routes calls through fn once the canned results are exhausted.
func (m *MemoryTransport) WithResponder(fn func(Request) (any, error)) *MemoryTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
	return m
}

// PushResult appends a body returned by the next call.
func (m *MemoryTransport) PushResult(body any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, StepResult{Body: body})
}

// PushError appends an error returned by the next call.
func (m *MemoryTransport) PushError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, StepResult{Err: err})
}

func (m *MemoryTransport) Do(_ context.Context, req Request) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	m.calls = append(m.calls, req)
	return m.next(req)
}

// DoBatch fails every step when any step fails, mirroring server-side rollback.
func (m *MemoryTransport) DoBatch(_ context.Context, reqs []Request) ([]StepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	m.batches = append(m.batches, append([]Request(nil), reqs...))

	out := make([]StepResult, len(reqs))
	for i, req := range reqs {
		body, err := m.next(req)
		if err != nil {
			return nil, err
		}
		out[i] = StepResult{Body: body}
	}
	return out, nil
}

func (m *MemoryTransport) Discover(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.discoveries++
	return nil
}

// next must be called with mu held.
func (m *MemoryTransport) next(req Request) (any, error) {
	if len(m.results) > 0 {
		res := m.results[0]
		m.results = m.results[1:]
		return res.Body, res.Err
	}
	if m.responder != nil {
		return m.responder(req)
	}
	return nil, nil
}

// Calls returns a snapshot of immediate requests.
func (m *MemoryTransport) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// Batches returns a snapshot of submitted batches.
func (m *MemoryTransport) Batches() [][]Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]Request(nil), m.batches...)
}

// Discoveries reports how many times Discover succeeded.
func (m *MemoryTransport) Discoveries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discoveries
}
