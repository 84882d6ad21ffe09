package dispatch

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/logging"
)

// Queue runs tasks one at a time, in submission order, on a single goroutine.
// Tasks may submit further tasks. Unlike a bounded channel the backlog is
// unbounded, so a callback that issues a new call never blocks the loop.
type Queue struct {
	logger *zap.Logger

	mu      sync.Mutex
	ready   *sync.Cond
	idle    *sync.Cond
	tasks   []func()
	running bool
	closed  bool
	done    chan struct{}
}

func NewQueue(logger *zap.Logger) *Queue {
	logger = logging.OrNop(logger)
	q := &Queue{
		logger: logger,
		done:   make(chan struct{}),
	}
	q.ready = sync.NewCond(&q.mu)
	q.idle = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Submit schedules task. It returns false once the queue is closed.
func (q *Queue) Submit(task func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, task)
	q.ready.Signal()
	return true
}

// Wait blocks until no task is queued or running. It must not be called from
// inside a task.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.tasks) > 0 || q.running {
		q.idle.Wait()
	}
}

// Close drains the backlog and stops the loop. Further submissions are
// rejected. It must not be called from inside a task.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.ready.Signal()
	q.mu.Unlock()

	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.ready.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.running = true
		q.mu.Unlock()

		q.run(task)

		q.mu.Lock()
		q.running = false
		if len(q.tasks) == 0 {
			q.idle.Broadcast()
		}
		q.mu.Unlock()
	}
}

func (q *Queue) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("queued task panicked", zap.Any("panic", r))
		}
	}()
	task()
}
