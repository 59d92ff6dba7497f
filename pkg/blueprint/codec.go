package blueprint

import "encoding/binary"

// encodeAmount and decodeAmount give blueprint field values a fixed 8-byte
// big-endian encoding. This is an internal substate representation, not a
// wire format any external caller decodes, so it stays on the standard
// library rather than a serialization library.
func encodeAmount(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func decodeAmount(b []byte) int64 {
	if len(b) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}
