package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"venueflow/internal/infra/blob/core"
)

func TestMockStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 || store.Bucket() != "mock-bucket" {
		t.Fatalf("unexpected driver/bucket %s %s", store.Driver(), store.Bucket())
	}
	info, err := store.Put(ctx, "snapshots/00000000000000000001.json", bytes.NewReader([]byte(`{"a":1}`)), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 {
		t.Fatalf("unexpected size %d", info.Size)
	}
	if _, err := store.Put(ctx, "snapshots/00000000000000000001.json", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected exists error, got %v", err)
	}
	_, rc, err := store.Get(ctx, "snapshots/00000000000000000001.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"a":1}` {
		t.Fatalf("unexpected body %q", body)
	}
	if _, err := store.Put(ctx, "snapshots/00000000000000000002.json", bytes.NewReader([]byte(`{}`)), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := store.List(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[1].Key != "snapshots/00000000000000000002.json" {
		t.Fatalf("unexpected list %+v", list)
	}
	if ok, err := store.Delete(ctx, "snapshots/00000000000000000001.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "snapshots/00000000000000000001.json"); err != nil || ok {
		t.Fatalf("expected missing delete, got %v %v", ok, err)
	}
	if _, _, err := store.Get(ctx, "snapshots/00000000000000000001.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestDecodeChunked(t *testing.T) {
	raw := []byte("5;chunk-signature=abc\r\nhello\r\n0\r\nx-amz-checksum-crc32:xyz\r\n\r\n")
	if got := decodeChunked(raw); string(got) != "hello" {
		t.Fatalf("unexpected decode %q", got)
	}
	if got := decodeChunked([]byte("plain")); string(got) != "plain" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
