/*
Package staging holds scan results while they travel from bucket scans to
the caller that requested them.

A Set of M ordered tables is created once at store startup; a subscriber
hashes to exactly one table, and all buckets scanning for that subscriber
deposit into it. Entries are keyed by (scan id, subscriber, timestamp,
ref), so a harvest returns refs in ascending write-time order regardless
of which bucket produced them.

Two producers never collide on a key: every find operation runs under a
fresh scan id, the reserved "init" scan id is written only during
bucket recovery, and within one scan id every ref is owned by exactly
one bucket, so the buckets scanning for one subscriber stage disjoint
refs. Each table still carries a mutex because scans from different
buckets may land in the same tree concurrently.

Entries are consumed at most once: Harvest removes what it returns.
*/
package staging
