// Package ledger holds the bounded set of transaction ids that have
// already been evaluated. Ids are kept in insertion order so pruning can
// retain the most recent ones.
package ledger

import (
	"container/list"
	"sync"
)

// Ledger is an insertion-ordered, bounded set of transaction ids.
// Once an id is a member it stays one until evicted by PruneIfOversized.
type Ledger struct {
	mu      sync.Mutex
	order   *list.List               // oldest at Front
	index   map[string]*list.Element // id -> element in order
	maxSize int
	keep    int
}

// New creates an empty ledger. When it grows past maxSize, PruneIfOversized
// trims it to the keep most recently inserted ids. keep must be below maxSize.
func New(maxSize, keep int) *Ledger {
	if keep >= maxSize {
		keep = maxSize / 2
	}
	return &Ledger{
		order:   list.New(),
		index:   make(map[string]*list.Element, maxSize+1),
		maxSize: maxSize,
		keep:    keep,
	}
}

// Contains reports whether id has been inserted and not evicted
func (l *Ledger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[id]
	return ok
}

// Insert adds id. Re-inserting an existing id is a no-op and does not
// refresh its position.
func (l *Ledger) Insert(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.insertLocked(id)
}

// CheckAndInsert inserts id and reports whether it was new.
// It is the atomic form of Contains followed by Insert.
func (l *Ledger) CheckAndInsert(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.insertLocked(id)
}

// InsertAll inserts ids in order and returns how many were new
func (l *Ledger) InsertAll(ids []string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, id := range ids {
		if l.insertLocked(id) {
			added++
		}
	}
	return added
}

// Size returns the number of ids held
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.index)
}

// PruneIfOversized evicts all but the keep most recent ids when the
// ledger holds more than maxSize. Returns the number evicted.
func (l *Ledger) PruneIfOversized() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.index) <= l.maxSize {
		return 0
	}

	evicted := 0
	for len(l.index) > l.keep {
		front := l.order.Front()
		delete(l.index, front.Value.(string))
		l.order.Remove(front)
		evicted++
	}
	return evicted
}

func (l *Ledger) insertLocked(id string) bool {
	if _, ok := l.index[id]; ok {
		return false
	}
	l.index[id] = l.order.PushBack(id)
	return true
}
