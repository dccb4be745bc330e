// Package wire encodes request identifiers into echo datagram payloads.
//
// A payload is exactly PayloadSize bytes holding the request id as a
// big-endian uint32. Echo targets return the bytes unmodified.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PayloadSize is the length of every request and reply datagram.
const PayloadSize = 4

// ErrPayloadSize is returned by Decode when a datagram is not PayloadSize bytes long.
var ErrPayloadSize = errors.New("payload must be exactly 4 bytes")

// Encode returns the payload carrying id.
func Encode(id uint32) [PayloadSize]byte {
	var buf [PayloadSize]byte
	binary.BigEndian.PutUint32(buf[:], id)
	return buf
}

// Decode extracts the request id from a reply payload.
func Decode(payload []byte) (uint32, error) {
	if len(payload) != PayloadSize {
		return 0, fmt.Errorf("%w: got %d", ErrPayloadSize, len(payload))
	}
	return binary.BigEndian.Uint32(payload), nil
}
