package staging

import (
	"bytes"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/btree"

	"github.com/burrowmq/burrow/pkg/types"
)

// ScanInit is the reserved scan id under which bucket recovery stages the
// entries it finds on disk. A subscriber's first queue drain after a
// restart harvests these without touching the backend again.
const ScanInit = "init"

const btreeDegree = 16

// Entry is one staged message reference. Entries are ordered by
// (scan id, subscriber, timestamp, ref), so harvesting a scan returns a
// subscriber's refs in ascending write-time order.
type Entry struct {
	ScanID     string
	Subscriber types.SubscriberID
	Timestamp  types.Timestamp
	Ref        types.MsgRef
}

func entryLess(a, b Entry) bool {
	if a.ScanID != b.ScanID {
		return a.ScanID < b.ScanID
	}
	if a.Subscriber.Mountpoint != b.Subscriber.Mountpoint {
		return a.Subscriber.Mountpoint < b.Subscriber.Mountpoint
	}
	if a.Subscriber.ClientID != b.Subscriber.ClientID {
		return a.Subscriber.ClientID < b.Subscriber.ClientID
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return bytes.Compare(a.Ref, b.Ref) < 0
}

// Table is one ordered staging table shared by every bucket whose scans
// hash here. Concurrent inserts from different buckets are disjoint by
// construction: every key carries the scan id, unique per find operation,
// and the ref, owned by exactly one bucket.
type Table struct {
	mu   sync.Mutex
	tree *btree.BTreeG[Entry]
}

// NewTable creates an empty staging table.
func NewTable() *Table {
	return &Table{tree: btree.NewG(btreeDegree, entryLess)}
}

// Insert stages one entry.
func (t *Table) Insert(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tree.ReplaceOrInsert(e)
}

// Harvest removes and returns all entries staged under (scanID, sub), in
// ascending (timestamp, ref) order. An empty result is not an error.
func (t *Table) Harvest(scanID string, sub types.SubscriberID) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	pivot := Entry{ScanID: scanID, Subscriber: sub}
	var matched []Entry
	t.tree.AscendGreaterOrEqual(pivot, func(e Entry) bool {
		if e.ScanID != scanID || e.Subscriber != sub {
			return false
		}
		matched = append(matched, e)
		return true
	})
	for _, e := range matched {
		t.tree.Delete(e)
	}
	return matched
}

// Len returns the number of staged entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.Len()
}

// Set is the process-wide array of staging tables, built once at store
// startup and never resized. A subscriber always maps to the same table.
type Set struct {
	tables []*Table
}

// NewSet creates n staging tables.
func NewSet(n int) *Set {
	tables := make([]*Table, n)
	for i := range tables {
		tables[i] = NewTable()
	}
	return &Set{tables: tables}
}

// TableFor returns the staging table owning sub.
func (s *Set) TableFor(sub types.SubscriberID) *Table {
	h := xxhash.New()
	h.WriteString(sub.Mountpoint)
	h.Write([]byte{0})
	h.WriteString(sub.ClientID)
	return s.tables[h.Sum64()%uint64(len(s.tables))]
}

// Size returns the number of tables in the set.
func (s *Set) Size() int {
	return len(s.tables)
}
