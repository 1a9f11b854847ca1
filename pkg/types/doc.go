/*
Package types defines the shared entities of the Burrow message store.

All packages depend on types; types depends on nothing but the standard
library. The central entities:

  - MsgRef: content-addressable payload identifier, stable across fanout
  - SubscriberID: (mountpoint, client_id) pair naming one MQTT client
    within one tenant
  - Message: one in-flight QoS>0 publication
  - Timestamp: write-time capture ordering a subscriber's index entries
  - FindMode / BucketState: enums for the store's recovery surface

A publish fanned out to many subscribers is written once per subscriber
but all writes carry the same MsgRef, so the store keeps a single payload
record and one index entry per subscriber.
*/
package types
