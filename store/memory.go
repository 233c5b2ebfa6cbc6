package store

import (
	"context"
	"sync"

	"github.com/tidwall/tinybtree"
)

// MemoryRecords is a RecordStore backed by process memory. Intended for tests.
type MemoryRecords struct {
	mu sync.RWMutex
	tr tinybtree.BTree
}

var _ RecordStore = (*MemoryRecords)(nil)

// NewMemoryRecords returns an empty in-memory record store.
func NewMemoryRecords() *MemoryRecords { return &MemoryRecords{} }

func (s *MemoryRecords) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, s.tr.Len())
	s.tr.Scan(func(key string, _ interface{}) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

func (s *MemoryRecords) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	v, ok := s.tr.Get(id)
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v.([]byte)), nil
}

func (s *MemoryRecords) Put(ctx context.Context, id string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.tr.Set(id, clone(doc))
	s.mu.Unlock()
	return nil
}

func (s *MemoryRecords) PutMany(ctx context.Context, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		s.tr.Set(d.ID, clone(d.Raw))
	}
	return nil
}

func (s *MemoryRecords) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tr.Len(), nil
}

func (s *MemoryRecords) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.tr = tinybtree.BTree{}
	s.mu.Unlock()
	return nil
}

// MemoryImages is an ImageStore backed by process memory. Intended for tests.
type MemoryImages struct {
	mu   sync.RWMutex
	plot []byte
}

var _ ImageStore = (*MemoryImages)(nil)

// NewMemoryImages returns an empty in-memory image store.
func NewMemoryImages() *MemoryImages { return &MemoryImages{} }

func (s *MemoryImages) GetPlot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.plot == nil {
		return nil, ErrNotFound
	}
	return clone(s.plot), nil
}

func (s *MemoryImages) PutPlot(ctx context.Context, png []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.plot = clone(png)
	s.mu.Unlock()
	return nil
}

func (s *MemoryImages) DeletePlot(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existed := s.plot != nil
	s.plot = nil
	return existed, nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
