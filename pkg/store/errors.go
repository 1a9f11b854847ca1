package store

import "errors"

var (
	// ErrNotFound reports a read for a ref with no payload record on the
	// owning bucket.
	ErrNotFound = errors.New("store: message not found")

	// ErrIndexValNotFound reports a payload present without an index
	// entry for the reading subscriber. Possible when another subscriber
	// of the same payload already deleted its entry; not a corruption.
	ErrIndexValNotFound = errors.New("store: index entry not found")

	// ErrMountpointMismatch reports a write whose message mountpoint
	// differs from the subscriber's.
	ErrMountpointMismatch = errors.New("store: message mountpoint does not match subscriber")

	// ErrBucketClosed reports a request against a bucket that has shut
	// down.
	ErrBucketClosed = errors.New("store: bucket closed")
)
