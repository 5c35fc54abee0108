package jellyfin

import (
	"sync"
	"time"
)

// DeferredOp is a rename postponed because a file it would move was playing.
type DeferredOp struct {
	ItemID     string
	ItemName   string
	Reason     string
	DeferredAt time.Time
	RetryCount int
}

// DeferredQueue stores deferred renames per locked file path. Adding the
// same item twice for a path keeps one entry and bumps its retry count.
type DeferredQueue struct {
	mu  sync.RWMutex
	ops map[string][]DeferredOp
}

func NewDeferredQueue() *DeferredQueue {
	return &DeferredQueue{ops: make(map[string][]DeferredOp)}
}

func (q *DeferredQueue) Add(path string, op DeferredOp) {
	key := normalizePath(path)
	if key == "" || op.ItemID == "" {
		return
	}
	if op.DeferredAt.IsZero() {
		op.DeferredAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.ops[key] {
		if q.ops[key][i].ItemID == op.ItemID {
			q.ops[key][i].RetryCount++
			q.ops[key][i].Reason = op.Reason
			return
		}
	}
	q.ops[key] = append(q.ops[key], op)
}

func (q *DeferredQueue) GetForPath(path string) []DeferredOp {
	key := normalizePath(path)
	if key == "" {
		return nil
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	ops := q.ops[key]
	if len(ops) == 0 {
		return nil
	}
	out := make([]DeferredOp, len(ops))
	copy(out, ops)
	return out
}

// RemoveForPath drains and returns the ops waiting on path.
func (q *DeferredQueue) RemoveForPath(path string) []DeferredOp {
	key := normalizePath(path)
	if key == "" {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	ops := q.ops[key]
	if len(ops) == 0 {
		return nil
	}
	out := make([]DeferredOp, len(ops))
	copy(out, ops)
	delete(q.ops, key)
	return out
}

func (q *DeferredQueue) GetAll() map[string][]DeferredOp {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make(map[string][]DeferredOp, len(q.ops))
	for key, ops := range q.ops {
		copied := make([]DeferredOp, len(ops))
		copy(copied, ops)
		out[key] = copied
	}
	return out
}

func (q *DeferredQueue) Count() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	total := 0
	for _, ops := range q.ops {
		total += len(ops)
	}
	return total
}
