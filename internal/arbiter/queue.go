package arbiter

import (
	"container/heap"

	"github.com/wilke/gowe-arbiter/pkg/model"
)

// waitQueue is a priority queue of QueuedTasks ordered by the strict
// (priority DESC, cores ASC, insertion-order ASC) rule.
//
// Modeled on container/heap the way the pack's scheduler-queue package
// does it: a slice type implementing heap.Interface. Tasks never change
// priority once queued, so no per-item index is kept for in-place updates.
type waitQueue struct {
	items    []*model.QueuedTask
	maxCores int
}

func newWaitQueue(maxCores int) *waitQueue {
	return &waitQueue{maxCores: maxCores}
}

func (q *waitQueue) Len() int { return len(q.items) }

func (q *waitQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.Request.Priority != b.Request.Priority {
		return a.Request.Priority > b.Request.Priority // priority DESC
	}
	ca, cb := model.CoresOf(a.Request, q.maxCores), model.CoresOf(b.Request, q.maxCores)
	if ca != cb {
		return ca < cb // cores ASC
	}
	return a.Seq() < b.Seq() // insertion order ASC
}

func (q *waitQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *waitQueue) Push(x any) {
	q.items = append(q.items, x.(*model.QueuedTask))
}

func (q *waitQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}

// push enqueues a task, re-establishing heap order.
func (q *waitQueue) push(t *model.QueuedTask) {
	heap.Push(q, t)
}

// peek returns the highest-priority waiter without removing it, or nil if
// the queue is empty.
func (q *waitQueue) peek() *model.QueuedTask {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// popFront removes and returns the highest-priority waiter.
func (q *waitQueue) popFront() *model.QueuedTask {
	return heap.Pop(q).(*model.QueuedTask)
}

// removeByID drops a specific queued task (used when its session
// disconnects before being admitted). Returns false if no such task is
// waiting. The waiting set is small — bounded by concurrently-blocked
// clients — so a full heap rebuild is cheap enough here.
func (q *waitQueue) removeByID(id uint64) bool {
	for i, t := range q.items {
		if t.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			heap.Init(q)
			return true
		}
	}
	return false
}

// inPriorityOrder returns a snapshot of all waiters, highest priority
// first, without mutating the queue. Used by Status.
func (q *waitQueue) inPriorityOrder() []*model.QueuedTask {
	out := make([]*model.QueuedTask, len(q.items))
	copy(out, q.items)
	// items[0] is already the heap root (highest priority); a full sort
	// over the rest gives a deterministic, fully-ordered snapshot rather
	// than an arbitrary heap-internal order.
	sortByPriority(out, q.maxCores)
	return out
}

func sortByPriority(items []*model.QueuedTask, maxCores int) {
	// Simple insertion sort: waiting lists are small (bounded by
	// concurrently-blocked clients), and this keeps the ordering logic
	// in one readable place alongside Less above.
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && queuedLess(items[j], items[j-1], maxCores); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func queuedLess(a, b *model.QueuedTask, maxCores int) bool {
	if a.Request.Priority != b.Request.Priority {
		return a.Request.Priority > b.Request.Priority
	}
	ca, cb := model.CoresOf(a.Request, maxCores), model.CoresOf(b.Request, maxCores)
	if ca != cb {
		return ca < cb
	}
	return a.Seq() < b.Seq()
}
