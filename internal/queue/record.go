package queue

import (
	"encoding/binary"
	"hash/crc32"
)

// Record encoding: ts_be8 | message | crc32c(ts|message)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeRecord serializes an enqueue timestamp and message payload.
func EncodeRecord(ts int64, message []byte) []byte {
	out := make([]byte, 0, 8+len(message)+4)
	out = appendBE8(out, uint64(ts))
	out = append(out, message...)

	crc := crc32.Update(0, castagnoli, out)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

// DecodeRecord parses an encoded record, verifying the checksum.
func DecodeRecord(b []byte) (ts int64, message []byte, ok bool) {
	if len(b) < 8+4 {
		return 0, nil, false
	}
	body := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Update(0, castagnoli, body) != expect {
		return 0, nil, false
	}
	ts = int64(binary.BigEndian.Uint64(body[:8]))
	message = append([]byte(nil), body[8:]...)
	return ts, message, true
}
