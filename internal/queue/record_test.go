package queue

import (
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	enc := EncodeRecord(42, []byte("hello world"))
	ts, msg, ok := DecodeRecord(enc)
	if !ok {
		t.Fatalf("decode failed")
	}
	if ts != 42 || string(msg) != "hello world" {
		t.Fatalf("roundtrip mismatch: ts=%d msg=%q", ts, msg)
	}
}

func TestRecordEmptyMessage(t *testing.T) {
	enc := EncodeRecord(7, nil)
	ts, msg, ok := DecodeRecord(enc)
	if !ok || ts != 7 || len(msg) != 0 {
		t.Fatalf("empty message roundtrip failed: ok=%v ts=%d msg=%q", ok, ts, msg)
	}
}

func TestRecordDetectsCorruption(t *testing.T) {
	enc := EncodeRecord(1, []byte("payload"))
	enc[9] ^= 0xff
	if _, _, ok := DecodeRecord(enc); ok {
		t.Fatalf("corrupt record decoded successfully")
	}
}

func TestRecordTooShort(t *testing.T) {
	if _, _, ok := DecodeRecord([]byte{1, 2, 3}); ok {
		t.Fatalf("short buffer decoded successfully")
	}
}
