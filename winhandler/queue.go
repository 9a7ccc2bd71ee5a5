package winhandler

import (
	"sync"

	"github.com/Alia5/winbridge/internal/metrics"
)

// actionQueue is the FIFO between producers and the dispatcher goroutine.
type actionQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Action
	closed bool
}

func newActionQueue() *actionQueue {
	q := &actionQueue{closed: true}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *actionQueue) enqueue(a Action) {
	q.mu.Lock()
	q.items = append(q.items, a)
	metrics.Get().QueueDepth.Set(float64(len(q.items)))
	q.mu.Unlock()
	q.cond.Broadcast()
}

// next blocks until the head action may run or the queue is closed. ready is
// evaluated under the queue lock; callers flipping its result must call wake.
// The second result is false once the queue is closed.
func (q *actionQueue) next(ready func() bool) (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && (len(q.items) == 0 || !ready()) {
		q.cond.Wait()
	}
	if q.closed {
		return Action{}, false
	}
	a := q.items[0]
	q.items[0] = Action{}
	q.items = q.items[1:]
	metrics.Get().QueueDepth.Set(float64(len(q.items)))
	return a, true
}

// wake re-evaluates waiting dispatchers.
func (q *actionQueue) wake() {
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *actionQueue) open() {
	q.mu.Lock()
	q.closed = false
	q.mu.Unlock()
}

func (q *actionQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// drop discards all pending actions and reports how many there were.
func (q *actionQueue) drop() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	metrics.Get().QueueDepth.Set(0)
	return n
}

func (q *actionQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
