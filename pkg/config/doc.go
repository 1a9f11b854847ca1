/*
Package config loads and validates the message store options.

Options map one-to-one to the recognized msg_store_opts keys:

	store_dir: data/msgstore
	buckets: 12
	staging_tables: 10
	write_buffer_size_min: 31457280
	write_buffer_size_max: 62914560
	open_retries: 30
	open_retry_delay: 2000
	no_sync: false

Load reads a YAML file over Default(); the CLI layers flag overrides on
top of whatever Load produced. Validate rejects configurations the store
cannot run with (zero buckets, inverted write-buffer bounds).
*/
package config
