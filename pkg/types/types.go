package types

import "time"

// MsgRef is the opaque content-addressable identifier of a payload.
// It is supplied by the caller (typically a digest of the publish) and is
// stable across fanout: every subscriber queueing the same publish holds
// the same ref, which is what makes payload deduplication possible.
type MsgRef []byte

// SubscriberID identifies one MQTT client within one tenant namespace.
type SubscriberID struct {
	Mountpoint string
	ClientID   string
}

// Timestamp orders index entries per subscriber. Captured at write time,
// in microseconds since the Unix epoch.
type Timestamp uint64

// Now returns the current write timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().UnixMicro())
}

// RoutingKey is the topic a publish was routed on, split into levels.
type RoutingKey []string

// Message is one in-flight publication as held by the store.
type Message struct {
	Ref        MsgRef
	Mountpoint string
	RoutingKey RoutingKey
	Payload    []byte
	Dup        bool
	QoS        int

	// Persisted is set on messages reconstructed from disk.
	Persisted bool
}

// FindMode selects the recovery behavior of Store.Find.
type FindMode string

const (
	// FindQueueInit is used on the first queue drain after a session is
	// restored: entries staged during startup recovery are returned
	// without issuing a disk scan. Falls back to a full scan when the
	// staged entries have already been consumed.
	FindQueueInit FindMode = "queue_init"

	// FindOther always performs a full cross-bucket index scan.
	FindOther FindMode = "other"
)

// BucketState reports the lifecycle phase of one store bucket.
type BucketState string

const (
	BucketStateOpening     BucketState = "opening"
	BucketStateRecovering  BucketState = "recovering"
	BucketStateInitialized BucketState = "initialized"
)
