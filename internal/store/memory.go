package store

import (
	"strings"
	"sync"

	"github.com/dori/trailmap/internal/model"
)

// MemoryStore is an in-process Store with the same copy semantics as
// FileStore. It is used by tests and by callers that need no persistence.
type MemoryStore struct {
	mu       sync.Mutex
	roadmaps map[string]*model.Roadmap

	// FailWith, when set, is returned by Save and Delete
	FailWith error
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{roadmaps: make(map[string]*model.Roadmap)}
}

func (m *MemoryStore) Get(key string) (*model.Roadmap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.roadmaps[key]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

func (m *MemoryStore) GetAll() (map[string]*model.Roadmap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*model.Roadmap, len(m.roadmaps))
	for k, r := range m.roadmaps {
		out[k] = r.Clone()
	}
	return out, nil
}

func (m *MemoryStore) Save(key string, roadmap *model.Roadmap) error {
	if roadmap == nil || strings.TrimSpace(roadmap.Name) == "" {
		return model.ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return &StorageError{Op: "save", Err: m.FailWith}
	}

	saved := roadmap.Clone()
	saved.Key = key
	saved.Normalize()
	m.roadmaps[key] = saved
	return nil
}

func (m *MemoryStore) Delete(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return false, &StorageError{Op: "delete", Err: m.FailWith}
	}

	if _, ok := m.roadmaps[key]; !ok {
		return false, nil
	}
	delete(m.roadmaps, key)
	return true, nil
}
