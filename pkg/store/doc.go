/*
Package store implements the persistent offline message store of the
Burrow broker.

The store durably records in-flight QoS>0 publications for subscribers
that are disconnected or slow, exposes them again at reconnect, and
deduplicates payloads so a message fanned out to many subscribers
occupies storage once.

# Sharding

The store is N independent buckets. Every ref is owned by exactly one
bucket, chosen by hash(ref) mod N, so all fan-out index entries for a
payload live next to the payload itself and one refcount table sees
every reference. The registry (pkg/registry) performs the routing;
buckets become visible there only after recovery.

# Bucket actor

Each bucket is one goroutine draining an unbuffered request channel:
one request runs to completion before the next starts. That serializes
refcount updates with backend writes, making the core invariant hold
without locks:

	refcount(ref) == number of on-disk index entries referencing ref

Write increments the count and, on the first reference, commits payload
record and index entry in one atomic batch; later references add only an
index entry. Delete decrements and drops the payload record in the same
batch as the last index entry. A delete against an absent counter logs a
warning and succeeds, so double-acks are harmless.

# Find

Find is the reconnect path. A coordinator generates a fresh scan id,
fans out a prefix scan to every registered bucket (skipping buckets that
are gone), and harvests the staged results in ascending write-timestamp
order. FindQueueInit short-circuits through the entries recovery staged
under the reserved "init" scan id, so the first queue drain after a
restart touches no disk.

# Recovery

OpenBucket retries on a held file lock (a restarting node whose previous
process is still shutting down), then walks the whole index keyspace
once: refcounts are rebuilt and every entry is staged for queue_init.
Orphan records are tolerated in both directions: a read with the payload
gone reports ErrNotFound, a read with the index entry gone reports
ErrIndexValNotFound, and a delete always drops whatever is left.
*/
package store
