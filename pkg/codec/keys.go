package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/burrowmq/burrow/pkg/types"
)

// sep terminates the mountpoint and client id inside an index key. MQTT
// strings are UTF-8 without embedded NUL, so the separator cannot collide
// with key material.
const sep = 0x00

// IndexKey encodes the on-disk key of one subscriber index entry.
// Layout: mountpoint 0x00 client_id 0x00 msg_ref. Byte order equals
// logical (subscriber, ref) order, so a cursor positioned at the
// subscriber prefix walks that subscriber's refs contiguously.
func IndexKey(sub types.SubscriberID, ref types.MsgRef) []byte {
	key := make([]byte, 0, len(sub.Mountpoint)+len(sub.ClientID)+len(ref)+2)
	key = append(key, sub.Mountpoint...)
	key = append(key, sep)
	key = append(key, sub.ClientID...)
	key = append(key, sep)
	key = append(key, ref...)
	return key
}

// SubscriberPrefix returns the index-key prefix shared by all entries of
// one subscriber.
func SubscriberPrefix(sub types.SubscriberID) []byte {
	prefix := make([]byte, 0, len(sub.Mountpoint)+len(sub.ClientID)+2)
	prefix = append(prefix, sub.Mountpoint...)
	prefix = append(prefix, sep)
	prefix = append(prefix, sub.ClientID...)
	prefix = append(prefix, sep)
	return prefix
}

// SplitIndexKey decodes an index key back into its subscriber and ref.
func SplitIndexKey(key []byte) (types.SubscriberID, types.MsgRef, error) {
	i := bytes.IndexByte(key, sep)
	if i < 0 {
		return types.SubscriberID{}, nil, fmt.Errorf("malformed index key: missing mountpoint terminator")
	}
	rest := key[i+1:]
	j := bytes.IndexByte(rest, sep)
	if j < 0 {
		return types.SubscriberID{}, nil, fmt.Errorf("malformed index key: missing client id terminator")
	}
	sub := types.SubscriberID{
		Mountpoint: string(key[:i]),
		ClientID:   string(rest[:j]),
	}
	ref := make(types.MsgRef, len(rest)-j-1)
	copy(ref, rest[j+1:])
	return sub, ref, nil
}

// MessageKey encodes the on-disk key of one payload record. The ref is
// length-prefixed because it is opaque and may contain any byte; payload
// records are only ever point-looked-up, so sort order does not matter
// here.
func MessageKey(ref types.MsgRef, mountpoint string) []byte {
	key := make([]byte, 0, binary.MaxVarintLen64+len(ref)+len(mountpoint))
	key = binary.AppendUvarint(key, uint64(len(ref)))
	key = append(key, ref...)
	key = append(key, mountpoint...)
	return key
}
