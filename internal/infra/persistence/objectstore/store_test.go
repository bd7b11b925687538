package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"venueflow/internal/infra/blob/core"
	"venueflow/internal/infra/blob/memory"
	"venueflow/internal/infra/blob/s3"
	"venueflow/pkg/domain"
)

func addStore(t *testing.T, store *Store, id string) {
	t.Helper()
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateStore(domain.Store{ID: id, Name: id})
		return err
	}); err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
}

func TestObjectStoreArchivesAndReloads(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	store, err := NewStore(ctx, blobs, "", 0, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	addStore(t, store, "store1")
	addStore(t, store, "store2")
	if store.Generation() != 2 {
		t.Fatalf("expected generation 2, got %d", store.Generation())
	}
	before, _ := json.Marshal(store.ExportState())

	reloaded, err := NewStore(ctx, blobs, DefaultPrefix, 0, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	after, _ := json.Marshal(reloaded.ExportState())
	if !bytes.Equal(before, after) {
		t.Fatalf("reload mismatch:\n%s\n%s", before, after)
	}
	if reloaded.Generation() != 2 {
		t.Fatalf("expected reloaded generation 2, got %d", reloaded.Generation())
	}
	addStore(t, reloaded, "store3")
	if _, _, err := blobs.Get(ctx, "snapshots/00000000000000000003.json"); err != nil {
		t.Fatalf("expected third generation: %v", err)
	}
}

func TestObjectStorePrunesOldGenerations(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	store, err := NewStore(ctx, blobs, "archive/", 2, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		addStore(t, store, id)
	}
	list, _ := blobs.List(ctx, "archive/")
	if len(list) != 2 {
		t.Fatalf("expected 2 retained generations, got %+v", list)
	}
	if list[0].Key != "archive/00000000000000000003.json" {
		t.Fatalf("unexpected oldest retained key %s", list[0].Key)
	}
}

func TestObjectStoreIgnoresForeignKeys(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	_, _ = blobs.Put(ctx, "snapshots/readme.txt", bytes.NewReader([]byte("x")), core.PutOptions{})
	_, _ = blobs.Put(ctx, "snapshots/latest.json", bytes.NewReader([]byte("x")), core.PutOptions{})
	store, err := NewStore(ctx, blobs, "", 0, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !store.ExportState().Empty() {
		t.Fatalf("expected empty state")
	}
}

type failingPut struct{ *memory.Store }

func (failingPut) Put(context.Context, string, io.Reader, core.PutOptions) (core.Info, error) {
	return core.Info{}, errors.New("bucket offline")
}

func TestObjectStorePutFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, failingPut{memory.New()}, "", 0, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateStore(domain.Store{ID: "store1", Name: "上海店"})
		return err
	})
	var pErr domain.PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(store.ExportState().Stores) != 0 || store.Generation() != 0 {
		t.Fatalf("state advanced after failed put")
	}
}

func TestObjectStoreOverS3(t *testing.T) {
	ctx := context.Background()
	bucket := s3.NewMockForTests()
	store, err := NewStore(ctx, bucket, "", 0, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	addStore(t, store, "store1")
	reloaded, err := NewStore(ctx, bucket, "", 0, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reloaded.ExportState().Stores["store1"]; !ok {
		t.Fatalf("expected store1 after reload from s3")
	}
}

func TestNewStoreRequiresBlobs(t *testing.T) {
	if _, err := NewStore(context.Background(), nil, "", 0, domain.NewRulesEngine()); err == nil {
		t.Fatalf("expected error")
	}
}
