package redis

import (
	"testing"
	"time"
)

func TestDecodeRows(t *testing.T) {
	raw := []byte(`[
		{"identity":"u-1","lat":46.5,"lng":8.5,"battery":80,"timestamp":"2026-06-01T09:00:00Z"},
		{"identity":"u-1","lat":46.6,"lng":8.6,"timestamp":"2026-06-01T09:00:10Z"}
	]`)

	rows, err := decodeRows(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Battery == nil || *rows[0].Battery != 80 {
		t.Errorf("expected battery 80, got %v", rows[0].Battery)
	}
	if rows[1].Battery != nil {
		t.Errorf("expected absent battery, got %v", *rows[1].Battery)
	}
	want := time.Date(2026, 6, 1, 9, 0, 10, 0, time.UTC)
	if !rows[1].Timestamp.Equal(want) {
		t.Errorf("unexpected timestamp %v", rows[1].Timestamp)
	}
}

func TestDecodeRows_Corrupt(t *testing.T) {
	if _, err := decodeRows([]byte(`{"identity":`)); err == nil {
		t.Fatal("expected error for corrupt payload")
	}
}

func TestNewBufferSlot_DefaultKey(t *testing.T) {
	if s := NewBufferSlot(nil, ""); s.key != DefaultBufferKey {
		t.Errorf("expected default key, got %q", s.key)
	}
	if s := NewBufferSlot(nil, "custom"); s.key != "custom" {
		t.Errorf("expected custom key, got %q", s.key)
	}
}
