// File: internal/taskqueue/taskqueue.go
// Author: momentics <momentics@gmail.com>
//
// Package taskqueue implements the mutex-guarded FIFO of deferred actions
// described in spec §4.C, backed by github.com/eapache/queue's ring buffer
// (a dependency the teacher module declares but never wires up — this is
// its home).
package taskqueue

import (
	"sync"

	"github.com/eapache/queue"
)

// Task is a unit of deferred work: no arguments, no result, run once.
type Task func()

// Queue is a thread-safe FIFO of pending Tasks. Schedule may be called from
// any goroutine; Drain must only be called from the I/O thread.
type Queue struct {
	mu sync.Mutex
	q  *queue.Queue
}

// New returns an empty task queue.
func New() *Queue {
	return &Queue{q: queue.New()}
}

// Schedule appends task to the FIFO. Returns the new queue length so the
// caller can decide whether to poke the wakeup channel (it always should,
// but the count is handy for diagnostics).
func (tq *Queue) Schedule(t Task) int {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	tq.q.Add(t)
	return tq.q.Length()
}

// Drain repeatedly pops a task under the mutex and runs it with the mutex
// released, until the queue is empty. A task may itself call Schedule
// (reentrant) since the mutex is not held while the task body executes.
func (tq *Queue) Drain() {
	for {
		t, ok := tq.pop()
		if !ok {
			return
		}
		t()
	}
}

func (tq *Queue) pop() (Task, bool) {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	if tq.q.Length() == 0 {
		return nil, false
	}
	v := tq.q.Remove()
	t, _ := v.(Task)
	return t, true
}

// Len reports the current queue length, for diagnostics only — the count
// can change the instant it's read since other goroutines hold no lock
// across this call.
func (tq *Queue) Len() int {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.q.Length()
}
