package taskqueue

import (
	"sync"
	"testing"
)

// TestFIFOOrderSingleProducer mirrors scenario S2: tasks scheduled from one
// goroutine must drain in submission order.
func TestFIFOOrderSingleProducer(t *testing.T) {
	tq := New()
	var got []int
	for i := 0; i < 1000; i++ {
		i := i
		tq.Schedule(func() { got = append(got, i) })
	}
	tq.Drain()
	if len(got) != 1000 {
		t.Fatalf("expected 1000 tasks to run, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: got %d", i, v)
		}
	}
}

// TestReentrantSchedule verifies a task may schedule another task without
// deadlocking, and that the new task runs before Drain returns.
func TestReentrantSchedule(t *testing.T) {
	tq := New()
	done := false
	tq.Schedule(func() {
		tq.Schedule(func() { done = true })
	})
	tq.Drain()
	if !done {
		t.Fatal("reentrant task did not run")
	}
}

// TestConcurrentSchedulers verifies every task from every producer
// eventually runs exactly once, serialised by the queue mutex.
func TestConcurrentSchedulers(t *testing.T) {
	tq := New()
	const producers = 8
	const perProducer = 200
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				tq.Schedule(func() {})
			}
		}()
	}
	wg.Wait()
	count := 0
	for {
		task, ok := tq.pop()
		if !ok {
			break
		}
		task()
		count++
	}
	if count != producers*perProducer {
		t.Fatalf("expected %d tasks, ran %d", producers*perProducer, count)
	}
}
