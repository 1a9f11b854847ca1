/*
Package backend wraps the embedded ordered key-value database (bbolt)
that persists one store bucket.

Each database file carries two keyspaces, mapped to named bbolt buckets:

	messages  payload records, keyed by (ref, mountpoint)
	index     per-subscriber entries, keyed by (subscriber, ref)

The split keeps payload and index keys sorted apart without tag bytes;
within the index keyspace the cursor walks entries in encoded
(subscriber, ref) order, so a subscriber's refs form one contiguous
prefix range.

# Transactions

Get runs in a read transaction and copies the value out, since bbolt
slices are only valid inside the transaction. Batch applies any mix of
puts and deletes in a single write transaction: the "payload plus index"
write on first reference and the "index plus payload" delete on last
reference are atomic, which is what closes the orphan window between the
two records.

# Lock handling

bbolt takes an exclusive file lock on open. When a previous process still
holds it, Open fails with the typed ErrLocked after Options.LockTimeout
instead of surfacing the raw timeout, and the bucket's retry loop matches
on that error alone. Every other open failure is terminal.
*/
package backend
