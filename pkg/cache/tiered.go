package cache

import "context"

// TieredStore keeps a memory store in front of a persistent one: reads hit
// memory first and backfill from disk, writes go to both.
type TieredStore struct {
	memory *MemoryStore
	disk   Store
}

func NewTieredStore(disk Store) *TieredStore {
	return &TieredStore{memory: NewMemoryStore(), disk: disk}
}

func (s *TieredStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if entry, ok, err := s.memory.Get(ctx, key); err != nil || ok {
		return entry, ok, err
	}
	entry, ok, err := s.disk.Get(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	if err := s.memory.Put(ctx, key, entry); err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (s *TieredStore) Put(ctx context.Context, key string, entry Entry) error {
	if err := s.memory.Put(ctx, key, entry); err != nil {
		return err
	}
	return s.disk.Put(ctx, key, entry)
}

func (s *TieredStore) Len(ctx context.Context) (int, error) {
	return s.disk.Len(ctx)
}

func (s *TieredStore) Close() error {
	return s.disk.Close()
}
