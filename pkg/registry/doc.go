/*
Package registry maps message refs to the store bucket that owns them.

Ownership is deterministic: hash(ref) mod N, with N fixed at store
startup. Writes, reads and deletes for a ref always land on the same
bucket, so every fan-out index entry for a payload lives next to the
payload itself and the bucket's refcount table sees every reference.

Registration doubles as the readiness gate. A bucket registers only
after it has finished rebuilding its in-memory state from disk, and
Lookup returns ErrNoBucket for unregistered slots, so no caller can
observe a half-recovered bucket.
*/
package registry
