// Package objectstore keeps repository snapshots as numbered JSON objects in a
// blob store. Every commit writes a new generation; the newest generation is
// loaded on start and older ones are pruned beyond a retention count.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"

	"venueflow/internal/infra/blob/core"
	"venueflow/internal/infra/persistence/memory"
	"venueflow/pkg/domain"
)

var (
	_ domain.PersistentStore = (*Store)(nil)
	_ domain.SnapshotStore   = (*Store)(nil)
)

const (
	// DefaultPrefix is the key prefix used when none is configured.
	DefaultPrefix = "snapshots"
	// DefaultRetain is the number of generations kept when none is configured.
	DefaultRetain = 10
	contentType   = "application/json"
)

// Store hydrates an in-memory store from the newest archived snapshot and
// archives a new generation on every commit.
type Store struct {
	*memory.Store
	blobs  core.Store
	prefix string
	retain int

	mu  sync.Mutex
	seq int64
}

// NewStore loads the newest generation under prefix from blobs.
func NewStore(ctx context.Context, blobs core.Store, prefix string, retain int, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("objectstore: blob store required")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if retain <= 0 {
		retain = DefaultRetain
	}
	s := &Store{blobs: blobs, prefix: strings.TrimSuffix(prefix, "/"), retain: retain}
	snapshot, err := s.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.Store = memory.NewStore(engine, opts...)
	s.ImportState(snapshot)
	s.SetSnapshotSink(s.SaveSnapshot)
	return s, nil
}

// Generation returns the sequence number of the newest archived snapshot.
func (s *Store) Generation() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *Store) keyFor(seq int64) string {
	return fmt.Sprintf("%s/%020d.json", s.prefix, seq)
}

// generations lists archived snapshots in ascending sequence order.
func (s *Store) generations(ctx context.Context) ([]generation, error) {
	infos, err := s.blobs.List(ctx, s.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]generation, 0, len(infos))
	for _, info := range infos {
		name := strings.TrimSuffix(path.Base(info.Key), ".json")
		if name == path.Base(info.Key) {
			continue
		}
		seq, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, generation{key: info.Key, seq: seq})
	}
	return out, nil
}

type generation struct {
	key string
	seq int64
}

// LoadSnapshot decodes the newest generation, or returns an empty snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	gens, err := s.generations(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	var snapshot domain.Snapshot
	if len(gens) == 0 {
		snapshot.Normalize()
		return snapshot, nil
	}
	latest := gens[len(gens)-1]
	_, rc, err := s.blobs.Get(ctx, latest.key)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("get %s: %w", latest.key, err)
	}
	defer func() { _ = rc.Close() }()
	if err := json.NewDecoder(rc).Decode(&snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode %s: %w", latest.key, err)
	}
	s.mu.Lock()
	s.seq = latest.seq
	s.mu.Unlock()
	snapshot.Normalize()
	return snapshot, nil
}

// SaveSnapshot writes the next generation then prunes old ones. Prune
// failures leave extra generations behind and are not reported.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot.Normalize()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	next := s.seq + 1
	if _, err := s.blobs.Put(ctx, s.keyFor(next), bytes.NewReader(data), core.PutOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	s.seq = next
	s.prune(ctx)
	return nil
}

func (s *Store) prune(ctx context.Context) {
	gens, err := s.generations(ctx)
	if err != nil || len(gens) <= s.retain {
		return
	}
	for _, gen := range gens[:len(gens)-s.retain] {
		_, _ = s.blobs.Delete(ctx, gen.key)
	}
}

// Close is a no-op; the blob store owns no pooled resources.
func (s *Store) Close() error { return nil }
