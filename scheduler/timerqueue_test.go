package scheduler

import (
	"testing"
	"time"
)

func TestTimerQueueOrdersByDeadline(t *testing.T) {
	q := NewTimerQueue()
	base := time.Unix(0, 0)
	var order []int

	q.Schedule(base.Add(3*time.Second), func(time.Time) { order = append(order, 3) })
	q.Schedule(base.Add(1*time.Second), func(time.Time) { order = append(order, 1) })
	q.Schedule(base.Add(2*time.Second), func(time.Time) { order = append(order, 2) })

	q.DrainDue(base.Add(10 * time.Second))
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected deadline order [1 2 3], got %v", order)
	}
}

func TestTimerQueueDrainOnlyDue(t *testing.T) {
	q := NewTimerQueue()
	base := time.Unix(0, 0)
	var ran int

	q.Schedule(base.Add(5*time.Second), func(time.Time) { ran++ })
	q.DrainDue(base.Add(1 * time.Second))
	if ran != 0 {
		t.Fatal("task must not run before its deadline")
	}
	q.DrainDue(base.Add(5 * time.Second))
	if ran != 1 {
		t.Fatal("task must run once its deadline has passed")
	}
}

func TestTimerQueueCancel(t *testing.T) {
	q := NewTimerQueue()
	base := time.Unix(0, 0)
	var ran bool
	task := q.Schedule(base.Add(time.Second), func(time.Time) { ran = true })
	q.Cancel(task)
	q.DrainDue(base.Add(10 * time.Second))
	if ran {
		t.Fatal("cancelled task must not run")
	}
}

func TestTimerQueueNextDeadline(t *testing.T) {
	q := NewTimerQueue()
	if _, ok := q.NextDeadline(); ok {
		t.Fatal("empty queue must report no deadline")
	}
	base := time.Unix(100, 0)
	q.Schedule(base.Add(2*time.Second), func(time.Time) {})
	q.Schedule(base.Add(time.Second), func(time.Time) {})
	d, ok := q.NextDeadline()
	if !ok || !d.Equal(base.Add(time.Second)) {
		t.Fatalf("expected earliest deadline, got %v", d)
	}
}
