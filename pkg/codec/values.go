package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/burrowmq/burrow/pkg/types"
)

// Value form markers. formCurrent is the only form this version writes.
// formTagged carries a version number and optional trailing extension
// bytes; a newer writer produces it and this version reads it by
// extracting only the fields it understands.
const (
	formCurrent = 0x00
	formTagged  = 0x01
)

// ErrBadForm reports a value that is neither the current nor a
// recognized future-tagged encoding.
var ErrBadForm = errors.New("codec: unrecognized value encoding")

// IndexValue is the decoded per-subscriber index entry.
type IndexValue struct {
	Timestamp types.Timestamp
	Dup       bool
	QoS       int
}

// EncodeIndexValue serializes an index value in the current form.
func EncodeIndexValue(v IndexValue) []byte {
	buf := make([]byte, 11)
	buf[0] = formCurrent
	binary.BigEndian.PutUint64(buf[1:9], uint64(v.Timestamp))
	if v.Dup {
		buf[9] = 1
	}
	buf[10] = byte(v.QoS)
	return buf
}

// DecodeIndexValue parses an index value in either the current or the
// tagged future form.
func DecodeIndexValue(b []byte) (IndexValue, error) {
	if len(b) == 0 {
		return IndexValue{}, fmt.Errorf("%w: empty index value", ErrBadForm)
	}
	body := b[1:]
	switch b[0] {
	case formCurrent:
		if len(body) != 10 {
			return IndexValue{}, fmt.Errorf("%w: index value length %d", ErrBadForm, len(b))
		}
	case formTagged:
		version, n := binary.Uvarint(body)
		if n <= 0 || version == 0 {
			return IndexValue{}, fmt.Errorf("%w: bad index value version", ErrBadForm)
		}
		body = body[n:]
		if len(body) < 10 {
			return IndexValue{}, fmt.Errorf("%w: truncated tagged index value", ErrBadForm)
		}
		// Trailing extension bytes belong to a newer version; drop them.
		body = body[:10]
	default:
		return IndexValue{}, fmt.Errorf("%w: index value marker 0x%02x", ErrBadForm, b[0])
	}
	return IndexValue{
		Timestamp: types.Timestamp(binary.BigEndian.Uint64(body[:8])),
		Dup:       body[8] == 1,
		QoS:       int(body[9]),
	}, nil
}

// MessageValue is the decoded payload record.
type MessageValue struct {
	RoutingKey types.RoutingKey
	Payload    []byte
}

// EncodeMessageValue serializes a payload record in the current form.
func EncodeMessageValue(v MessageValue) []byte {
	buf := []byte{formCurrent}
	buf = binary.AppendUvarint(buf, uint64(len(v.RoutingKey)))
	for _, level := range v.RoutingKey {
		buf = binary.AppendUvarint(buf, uint64(len(level)))
		buf = append(buf, level...)
	}
	buf = binary.AppendUvarint(buf, uint64(len(v.Payload)))
	buf = append(buf, v.Payload...)
	return buf
}

// DecodeMessageValue parses a payload record in either the current or
// the tagged future form.
func DecodeMessageValue(b []byte) (MessageValue, error) {
	if len(b) == 0 {
		return MessageValue{}, fmt.Errorf("%w: empty message value", ErrBadForm)
	}
	body := b[1:]
	tagged := false
	switch b[0] {
	case formCurrent:
	case formTagged:
		version, n := binary.Uvarint(body)
		if n <= 0 || version == 0 {
			return MessageValue{}, fmt.Errorf("%w: bad message value version", ErrBadForm)
		}
		body = body[n:]
		tagged = true
	default:
		return MessageValue{}, fmt.Errorf("%w: message value marker 0x%02x", ErrBadForm, b[0])
	}

	levels, n := binary.Uvarint(body)
	if n <= 0 {
		return MessageValue{}, fmt.Errorf("%w: truncated routing key count", ErrBadForm)
	}
	body = body[n:]

	var v MessageValue
	if levels > 0 {
		v.RoutingKey = make(types.RoutingKey, 0, levels)
	}
	for i := uint64(0); i < levels; i++ {
		size, n := binary.Uvarint(body)
		if n <= 0 || uint64(len(body[n:])) < size {
			return MessageValue{}, fmt.Errorf("%w: truncated routing key level", ErrBadForm)
		}
		v.RoutingKey = append(v.RoutingKey, string(body[n:n+int(size)]))
		body = body[n+int(size):]
	}

	size, n := binary.Uvarint(body)
	if n <= 0 || uint64(len(body[n:])) < size {
		return MessageValue{}, fmt.Errorf("%w: truncated payload", ErrBadForm)
	}
	v.Payload = make([]byte, size)
	copy(v.Payload, body[n:n+int(size)])
	body = body[n+int(size):]

	// The current form is exact; only a tagged future form may carry
	// trailing extension bytes.
	if len(body) > 0 && !tagged {
		return MessageValue{}, fmt.Errorf("%w: %d trailing bytes in message value", ErrBadForm, len(body))
	}
	return v, nil
}
