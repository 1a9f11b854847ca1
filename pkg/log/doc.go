/*
Package log provides structured logging for Burrow using zerolog.

The package exposes a global logger initialized once at process start and
child-logger constructors that attach the standard fields used across the
store:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithBucket(3)
	logger.Info().Int("entries", n).Msg("recovered message index")

Components log through children so every line carries its origin:

  - component: bucket, store, main
  - instance_id: bucket shard number
  - msg_ref / client_id: ref and subscriber of a delete that found no
    live reference

Console output (RFC3339 timestamps) is the default; JSON output is meant
for production log shipping. Level filtering is global via
zerolog.SetGlobalLevel.
*/
package log
