package queue

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - q/{name}/m           (queue metadata: last assigned id)
// - q/{name}/e/{id_be8}  (entries)
//
// Big-endian ids make a forward range scan return entries in insertion
// order.

var (
	qPrefix    = []byte("q/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyMeta builds the queue metadata key.
func KeyMeta(name string) []byte {
	k := make([]byte, 0, len(name)+8)
	k = append(k, qPrefix...)
	k = append(k, name...)
	k = append(k, metaSuffix...)
	return k
}

// KeyEntry builds the entry key for an id.
func KeyEntry(name string, id uint64) []byte {
	k := make([]byte, 0, len(name)+16)
	k = append(k, qPrefix...)
	k = append(k, name...)
	k = append(k, entrySeg...)
	k = appendBE8(k, id)
	return k
}

// entryBounds returns iterator bounds covering every entry of the queue.
func entryBounds(name string) (low, hi []byte) {
	low = KeyEntry(name, 0)
	hi = append(KeyEntry(name, ^uint64(0)), 0x00)
	return low, hi
}

// idFromKey extracts the big-endian id from an entry key.
func idFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
