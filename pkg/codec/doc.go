/*
Package codec defines the on-disk encoding of the message store.

# Keys

Index keys are order-preserving: the raw byte order under a cursor equals
the logical (subscriber, ref) order, which is what lets a bucket scan one
subscriber's entries as a contiguous prefix range:

	mountpoint 0x00 client_id 0x00 msg_ref

Payload-record keys are point-lookup only, so the ref is simply
length-prefixed and followed by the mountpoint:

	uvarint(len(ref)) ref mountpoint

# Values

Values are a tagged binary form with a one-byte marker:

	0x00  current form: the fields this version owns, exact length
	0x01  tagged form: uvarint version (> 0), current fields,
	      then arbitrary trailing extension bytes

The encoder always emits the current form. The decoder accepts both and,
for the tagged form, extracts only the fields this version understands
and discards the extension tail. A newer writer therefore stays readable
(downgrade), and this version never emits anything a newer reader would
not expect. Anything else fails with ErrBadForm rather than guessing.

Index values carry {timestamp, dup, qos}; payload values carry
{routing_key, payload}.
*/
package codec
