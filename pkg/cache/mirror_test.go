package cache

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestMirror(t *testing.T) (*RedisMirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisMirror(rdb, "test:"), mr
}

func TestRedisMirror_SaveFetch(t *testing.T) {
	m, mr := newTestMirror(t)
	ctx := context.Background()

	if err := m.Save(ctx, "table", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mr.Exists("test:table") {
		t.Error("expected prefixed key in redis")
	}

	data, ok, err := m.Fetch(ctx, "table")
	if err != nil || !ok {
		t.Fatalf("Fetch: ok=%v err=%v", ok, err)
	}
	if string(data) != "payload" {
		t.Errorf("expected payload, got %q", data)
	}
}

func TestRedisMirror_Expiry(t *testing.T) {
	m, mr := newTestMirror(t)
	ctx := context.Background()

	_ = m.Save(ctx, "table", []byte("payload"), 300*time.Second)
	mr.FastForward(301 * time.Second)

	_, ok, err := m.Fetch(ctx, "table")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if ok {
		t.Error("expected miss after TTL")
	}
}

func TestRedisMirror_Drop(t *testing.T) {
	m, _ := newTestMirror(t)
	ctx := context.Background()

	_ = m.Save(ctx, "table", []byte("payload"), time.Minute)
	if err := m.Drop(ctx, "table"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, ok, _ := m.Fetch(ctx, "table"); ok {
		t.Error("expected miss after Drop")
	}
}

func TestRedisMirror_FetchErrorWhenServerDown(t *testing.T) {
	m, mr := newTestMirror(t)
	mr.Close()

	if _, _, err := m.Fetch(context.Background(), "table"); err == nil {
		t.Error("expected error from closed redis")
	}
}

func TestSnapshotCodec(t *testing.T) {
	raw := bytes.Repeat([]byte(`{"species":"Adelie","island":"Torgersen"},`), 200)

	compressed, err := EncodeSnapshot(raw)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	if len(compressed) >= len(raw) {
		t.Errorf("expected compression, got %d >= %d", len(compressed), len(raw))
	}

	got, err := DecodeSnapshot(compressed)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("decoded snapshot differs from original")
	}

	if _, err := DecodeSnapshot([]byte("not zstd")); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, err := DecodeSnapshot([]byte{1, 2}); err == nil {
		t.Error("expected error for truncated input")
	}

	// порча контрольной суммы обнаруживается
	corrupt := append([]byte(nil), compressed...)
	corrupt[0] ^= 0xFF
	if _, err := DecodeSnapshot(corrupt); err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("expected checksum mismatch, got %v", err)
	}
}
