package fetch

import (
	"container/heap"
	"sync"
	"sync/atomic"
)

// stealBatchLimit bounds how many items one steal takes from the global
// injector.
const stealBatchLimit = 8

// workItem pairs a step with its priority and a monotonic sequence number
// that breaks ties as FIFO within a priority class.
type workItem struct {
	priority Priority
	seq      uint64
	step     Step
}

// before orders a ahead of b when a has higher priority, or equal priority
// and an earlier sequence.
func (a workItem) before(b workItem) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.seq < b.seq
}

// itemHeap is a max-heap over workItem ordering.
type itemHeap []workItem

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].before(h[j]) }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x any)         { *h = append(*h, x.(workItem)) }
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Queue is the shared work-stealing queue: a global injector plus one
// local FIFO per worker, with a per-worker priority buffer that preserves
// priority across stolen batches. A pending/completed counter pair tracks
// global completion.
type Queue struct {
	mu       sync.Mutex
	injector []workItem

	pending   atomic.Int64
	completed atomic.Int64
	seq       atomic.Uint64

	resultsMu sync.Mutex
	results   []Outcome

	workers []*WorkerQueue
}

// NewQueue creates a queue with one local worker queue per worker.
func NewQueue(numWorkers int) *Queue {
	q := &Queue{}
	q.workers = make([]*WorkerQueue, numWorkers)
	for i := range q.workers {
		q.workers[i] = &WorkerQueue{global: q, index: i}
	}
	return q
}

// Worker returns the local queue for worker i.
func (q *Queue) Worker(i int) *WorkerQueue { return q.workers[i] }

// Enqueue adds one step to the global injector.
func (q *Queue) Enqueue(step Step) {
	q.pending.Add(1)
	item := workItem{priority: step.Priority(), seq: q.seq.Add(1), step: step}
	q.mu.Lock()
	q.injector = append(q.injector, item)
	q.mu.Unlock()
}

// EnqueueAll adds steps to the global injector, highest priority first so
// critical items surface ahead of the rest of the batch.
func (q *Queue) EnqueueAll(steps []Step) {
	if len(steps) == 0 {
		return
	}
	q.pending.Add(int64(len(steps)))

	items := make(itemHeap, 0, len(steps))
	for _, step := range steps {
		heap.Push(&items, workItem{priority: step.Priority(), seq: q.seq.Add(1), step: step})
	}

	q.mu.Lock()
	for items.Len() > 0 {
		q.injector = append(q.injector, heap.Pop(&items).(workItem))
	}
	q.mu.Unlock()
}

// HasPendingWork reports whether any enqueued step has not completed yet.
func (q *Queue) HasPendingWork() bool {
	return q.pending.Load() > q.completed.Load()
}

// MarkCompleted records that one dequeued step finished.
func (q *Queue) MarkCompleted() {
	q.completed.Add(1)
}

// StoreResult appends a step outcome to the shared collector.
func (q *Queue) StoreResult(outcome Outcome) {
	q.resultsMu.Lock()
	q.results = append(q.results, outcome)
	q.resultsMu.Unlock()
}

// Results returns the collected outcomes. Call after all workers exit.
func (q *Queue) Results() []Outcome {
	q.resultsMu.Lock()
	defer q.resultsMu.Unlock()
	return q.results
}

// stealBatch removes up to stealBatchLimit items from the injector.
func (q *Queue) stealBatch() []workItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.injector)
	if n == 0 {
		return nil
	}
	if n > stealBatchLimit {
		n = stealBatchLimit
	}
	batch := make([]workItem, n)
	copy(batch, q.injector[:n])
	q.injector = q.injector[n:]
	return batch
}

// WorkerQueue is one worker's local FIFO plus its priority buffer.
type WorkerQueue struct {
	global *Queue
	index  int

	mu     sync.Mutex
	local  []workItem
	buffer itemHeap
}

// Dequeue returns the next step for this worker: the priority buffer
// first, then the local FIFO, then a batch stolen from the injector and
// from sibling queues. Stolen items are priority-sorted; the best is
// returned and the rest land in the priority buffer.
func (w *WorkerQueue) Dequeue() (Step, bool) {
	w.mu.Lock()
	if len(w.buffer) > 0 {
		item := heap.Pop(&w.buffer).(workItem)
		w.mu.Unlock()
		return item.step, true
	}
	if len(w.local) > 0 {
		item := w.local[0]
		w.local = w.local[1:]
		w.mu.Unlock()
		return item.step, true
	}
	w.mu.Unlock()

	stolen := w.global.stealBatch()
	for _, sibling := range w.global.workers {
		if sibling == w {
			continue
		}
		if item, ok := sibling.stealOne(); ok {
			stolen = append(stolen, item)
		}
	}
	if len(stolen) == 0 {
		return nil, false
	}

	best := 0
	for i := 1; i < len(stolen); i++ {
		if stolen[i].before(stolen[best]) {
			best = i
		}
	}
	bestItem := stolen[best]

	w.mu.Lock()
	for i, item := range stolen {
		if i != best {
			heap.Push(&w.buffer, item)
		}
	}
	w.mu.Unlock()

	return bestItem.step, true
}

// Push adds a step to this worker's local FIFO.
func (w *WorkerQueue) Push(step Step) {
	w.global.pending.Add(1)
	item := workItem{priority: step.Priority(), seq: w.global.seq.Add(1), step: step}
	w.mu.Lock()
	w.local = append(w.local, item)
	w.mu.Unlock()
}

// stealOne removes one item from the tail of this worker's local FIFO.
func (w *WorkerQueue) stealOne() (workItem, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.local)
	if n == 0 {
		return workItem{}, false
	}
	item := w.local[n-1]
	w.local = w.local[:n-1]
	return item, true
}
