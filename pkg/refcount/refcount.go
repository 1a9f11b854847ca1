package refcount

import (
	"errors"

	"github.com/burrowmq/burrow/pkg/types"
)

// ErrNotFound reports a decrement against a ref with no live counter.
// Seen when a caller double-acks; the delete is treated as idempotent.
var ErrNotFound = errors.New("refcount: ref not found")

// Table counts the live index entries referencing each payload within
// one bucket. It is owned by the bucket's actor goroutine and carries no
// locking of its own; the single-request-at-a-time discipline of the
// bucket is what keeps it race-free.
type Table struct {
	counts map[string]int
}

// NewTable creates an empty refcount table.
func NewTable() *Table {
	return &Table{counts: make(map[string]int)}
}

// Incr increments the count for ref, inserting it at 1 if absent, and
// returns the new total. A return of 1 means the payload record must be
// written alongside the index entry.
func (t *Table) Incr(ref types.MsgRef) int {
	t.counts[string(ref)]++
	return t.counts[string(ref)]
}

// Decr decrements the count for ref and returns the new total. At zero
// the row is removed, which is the signal to drop the payload record.
// Returns ErrNotFound when no counter exists.
func (t *Table) Decr(ref types.MsgRef) (int, error) {
	n, ok := t.counts[string(ref)]
	if !ok {
		return 0, ErrNotFound
	}
	n--
	if n == 0 {
		delete(t.counts, string(ref))
		return 0, nil
	}
	t.counts[string(ref)] = n
	return n, nil
}

// Get returns the current count for ref, 0 if absent.
func (t *Table) Get(ref types.MsgRef) int {
	return t.counts[string(ref)]
}

// Len returns the number of refs with a live counter.
func (t *Table) Len() int {
	return len(t.counts)
}
