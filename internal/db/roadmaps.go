package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dori/trailmap/internal/model"
	"github.com/dori/trailmap/internal/store"
	"github.com/sirupsen/logrus"
)

// RoadmapStore implements store.Store on top of SQLite. Each roadmap is one
// row holding its JSON document; the indexed columns mirror its identity.
type RoadmapStore struct {
	db *DB
}

var _ store.Store = (*RoadmapStore)(nil)

// NewRoadmapStore creates a store using an open database
func NewRoadmapStore(database *DB) *RoadmapStore {
	return &RoadmapStore{db: database}
}

// Get returns the roadmap stored under key, or nil if there is none
func (s *RoadmapStore) Get(key string) (*model.Roadmap, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM roadmaps WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return s.decode(key, data), nil
}

// GetAll returns every stored roadmap
func (s *RoadmapStore) GetAll() (map[string]*model.Roadmap, error) {
	rows, err := s.db.Query(`SELECT key, data FROM roadmaps ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*model.Roadmap)
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, err
		}
		if r := s.decode(key, data); r != nil {
			out[key] = r
		}
	}
	return out, rows.Err()
}

// Save upserts roadmap under key and bumps the store's last-updated time
func (s *RoadmapStore) Save(key string, roadmap *model.Roadmap) error {
	if roadmap == nil || strings.TrimSpace(roadmap.Name) == "" {
		return model.ErrInvalidName
	}

	saved := roadmap.Clone()
	saved.Key = key
	saved.Normalize()

	data, err := json.Marshal(saved)
	if err != nil {
		return &store.StorageError{Op: "encode", Err: err}
	}

	now := time.Now().UTC()
	err = s.db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO roadmaps (key, id, tenant_id, name, role_id, created_by, created_at, data, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				id = excluded.id,
				tenant_id = excluded.tenant_id,
				name = excluded.name,
				role_id = excluded.role_id,
				created_by = excluded.created_by,
				created_at = excluded.created_at,
				data = excluded.data,
				updated_at = excluded.updated_at
		`, key, saved.ID, saved.TenantID, saved.Name, saved.RoleID, saved.CreatedBy, saved.CreatedAt, string(data), now)
		if err != nil {
			return err
		}
		return touch(tx, now)
	})
	if err != nil {
		return &store.StorageError{Op: "save", Err: err}
	}

	s.db.log.WithFields(logrus.Fields{"key": key, "roadmap": saved.Name}).Info("saved roadmap")
	return nil
}

// Delete removes the roadmap under key and reports whether one existed
func (s *RoadmapStore) Delete(key string) (bool, error) {
	var removed int64
	err := s.db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM roadmaps WHERE key = ?`, key)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		if err != nil || removed == 0 {
			return err
		}
		return touch(tx, time.Now().UTC())
	})
	if err != nil {
		return false, &store.StorageError{Op: "delete", Err: err}
	}

	if removed > 0 {
		s.db.log.WithField("key", key).Info("deleted roadmap")
	}
	return removed > 0, nil
}

// LastUpdated returns the time of the last write, or the zero time if the
// store was never written.
func (s *RoadmapStore) LastUpdated() time.Time {
	var value string
	err := s.db.QueryRow(`SELECT value FROM store_meta WHERE name = 'last_updated'`).Scan(&value)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Backup writes a consistent copy of the database next to it and returns
// its path.
func (s *RoadmapStore) Backup() (string, error) {
	stamp := time.Now().UTC().Format("20060102T150405.000Z")
	path := filepath.Join(filepath.Dir(s.db.path), fmt.Sprintf("trailmap-backup-%s.db", stamp))
	if _, err := s.db.Exec(`VACUUM INTO ?`, path); err != nil {
		return "", &store.StorageError{Op: "backup", Path: path, Err: err}
	}

	s.db.log.WithField("backup", path).Info("created backup")
	return path, nil
}

// decode parses a stored row. Rows that no longer parse are skipped and
// logged rather than failing the whole read.
func (s *RoadmapStore) decode(key, data string) *model.Roadmap {
	var r model.Roadmap
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		s.db.log.WithError(err).WithField("key", key).Error("skipping corrupt roadmap row")
		return nil
	}
	if r.Key == "" {
		r.Key = key
	}
	r.Normalize()
	return &r
}

func touch(tx *sql.Tx, now time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO store_meta (name, value) VALUES ('last_updated', ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, now.Format(time.RFC3339Nano))
	return err
}
