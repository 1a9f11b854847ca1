/*
Package refcount tracks how many subscriber index entries reference each
payload within one store bucket.

The table is rebuilt from the on-disk index during bucket recovery and
kept consistent afterwards by the bucket's serialized request handling:
every write increments, every delete decrements, and a payload record is
dropped exactly when its count reaches zero. The table is intentionally
lock-free; the owning bucket goroutine is its only writer and reader.
*/
package refcount
