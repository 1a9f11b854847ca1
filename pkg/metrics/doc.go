/*
Package metrics exposes Prometheus collectors for the message store.

All collectors are package variables registered at init, in three groups:

Operations:
  - burrow_store_writes_total / deletes_total: accepted mutations
  - burrow_store_reads_total{result}: ok, not_found, idx_val_not_found
  - burrow_store_finds_total{mode}: queue_init vs other
  - burrow_store_errors_total{op}: surfaced storage errors

Deduplication:
  - burrow_store_payloads: distinct payloads currently referenced
  - burrow_store_refcount_underflows_total: double-acks absorbed

Lifecycle and latency:
  - burrow_store_open_retries_total: lock contention during bucket open
  - burrow_store_recovered_entries_total / recovery_duration_seconds
  - burrow_store_write_duration_seconds / find_duration_seconds

Timer wraps the measure-then-observe pattern:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.WriteDuration)

The /metrics endpoint itself is wired by cmd/burrow via promhttp.
*/
package metrics
