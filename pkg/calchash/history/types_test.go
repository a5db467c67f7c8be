package history

import (
	"bytes"
	"testing"
	"time"

	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

func TestRecordEncodeDecode(t *testing.T) {
	rec := NewRecord("/root", types.RunMetrics{Files: 1, Workers: 2}, "/tmp/file.txt", "json")

	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var got Record
	if err := got.Decode(data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.ID != rec.ID || got.Format != "json" || got.Workers != 2 {
		t.Errorf("decoded record mismatch: %+v", got)
	}
	if got.Rate != "N/A" {
		t.Errorf("Rate = %q, want N/A", got.Rate)
	}
}

func TestNewRecordIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewRecord("/", types.RunMetrics{}, "", "text").ID
		if seen[id] {
			t.Fatalf("duplicate ID %s", id)
		}
		seen[id] = true
	}
}

func TestMakeKeyParseKey(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	rec := &Record{ID: "some-id", Timestamp: ts}

	key := MakeKey(rec)
	if !bytes.HasPrefix(key, keyPrefix) {
		t.Fatalf("key %q lacks prefix", key)
	}

	gotTS, gotID, ok := ParseKey(key)
	if !ok {
		t.Fatal("ParseKey failed")
	}
	if !gotTS.Equal(ts) || gotID != "some-id" {
		t.Errorf("ParseKey = (%v, %q), want (%v, %q)", gotTS, gotID, ts, "some-id")
	}

	if _, _, ok := ParseKey([]byte("other")); ok {
		t.Error("ParseKey accepted a foreign key")
	}
}

func TestMakeKeyOrdersByTime(t *testing.T) {
	early := MakeKey(&Record{ID: "zzz", Timestamp: time.Unix(100, 0)})
	late := MakeKey(&Record{ID: "aaa", Timestamp: time.Unix(200, 0)})
	if bytes.Compare(early, late) >= 0 {
		t.Error("earlier record must sort first")
	}
}
