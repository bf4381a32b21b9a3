package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dori/trailmap/internal/model"
)

// Store persists roadmap documents under their composite key.
//
// Get returns (nil, nil) when nothing is stored under key. Every returned
// roadmap is a working copy: mutations only persist through Save.
type Store interface {
	Get(key string) (*model.Roadmap, error)
	GetAll() (map[string]*model.Roadmap, error)
	Save(key string, roadmap *model.Roadmap) error
	Delete(key string) (bool, error)
}

// ErrStorage matches any StorageError with errors.Is
var ErrStorage = errors.New("storage error")

// StorageError reports a failed write. The mutation must be assumed lost.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) match every StorageError
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Entry pairs a roadmap with its key
type Entry struct {
	Key     string
	Roadmap *model.Roadmap
}

// Entries flattens a GetAll result sorted by key. Insertion order is not
// kept by any backend.
func Entries(all map[string]*model.Roadmap) []Entry {
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Roadmap: all[k]})
	}
	return out
}

// TenantEntries returns the entries whose key belongs to tenantID. A
// roadmap that records a different tenant is skipped even if its key
// shares the prefix.
func TenantEntries(all map[string]*model.Roadmap, tenantID string) []Entry {
	prefix := model.TenantPrefix(tenantID)
	var out []Entry
	for _, e := range Entries(all) {
		if !strings.HasPrefix(e.Key, prefix) {
			continue
		}
		if e.Roadmap.TenantID == "" || e.Roadmap.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out
}
