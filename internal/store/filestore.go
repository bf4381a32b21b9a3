package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dori/trailmap/internal/logging"
	"github.com/dori/trailmap/internal/model"
	"github.com/sirupsen/logrus"
)

// FileStore keeps every tenant's roadmaps in a single JSON document.
//
// Each mutation rewrites the whole document to a temp file and renames it
// over the canonical file, so readers never see a partial write. A file that
// fails to parse is copied to a timestamped backup and replaced with an
// empty document: availability wins over keeping corrupt data in place.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  logrus.FieldLogger

	now       func() time.Time
	writeFile func(name string, data []byte) error
	rename    func(oldpath, newpath string) error
}

// NewFileStore creates a store backed by the JSON file at path
func NewFileStore(path string, log logrus.FieldLogger) *FileStore {
	if log == nil {
		log = logging.Discard()
	}
	return &FileStore{
		path:      path,
		log:       log.WithField("path", path),
		now:       time.Now,
		writeFile: writeFileSync,
		rename:    os.Rename,
	}
}

// Path returns the canonical file path
func (fs *FileStore) Path() string {
	return fs.path
}

// Get returns the roadmap stored under key, or nil if there is none
func (fs *FileStore) Get(key string) (*model.Roadmap, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.load().Roadmaps[key], nil
}

// GetAll returns every stored roadmap across all tenants
func (fs *FileStore) GetAll() (map[string]*model.Roadmap, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.load().Roadmaps, nil
}

// Save stores roadmap under key, replacing any previous value
func (fs *FileStore) Save(key string, roadmap *model.Roadmap) error {
	if roadmap == nil || strings.TrimSpace(roadmap.Name) == "" {
		return model.ErrInvalidName
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc := fs.load()
	saved := roadmap.Clone()
	saved.Key = key
	doc.set(key, saved)

	if err := fs.write(doc); err != nil {
		return err
	}

	fs.log.WithFields(logrus.Fields{"key": key, "roadmap": roadmap.Name}).Info("saved roadmap")
	return nil
}

// Delete removes the roadmap under key and reports whether one existed
func (fs *FileStore) Delete(key string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc := fs.load()
	if !doc.remove(key) {
		return false, nil
	}

	if err := fs.write(doc); err != nil {
		return false, err
	}

	fs.log.WithField("key", key).Info("deleted roadmap")
	return true, nil
}

// LastUpdated returns the document's last write time
func (fs *FileStore) LastUpdated() time.Time {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.load().LastUpdated
}

// Backup writes a copy of the current document next to the canonical file
// and returns its path.
func (fs *FileStore) Backup() (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc := fs.load()
	data, err := doc.encode()
	if err != nil {
		return "", &StorageError{Op: "backup", Path: fs.path, Err: err}
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(fs.now().UTC().Format("2006-01-02T15:04:05.000Z"))
	path := filepath.Join(filepath.Dir(fs.path), fmt.Sprintf("data-backup-%s.json", stamp))
	if err := fs.writeFile(path, data); err != nil {
		return "", &StorageError{Op: "backup", Path: path, Err: err}
	}

	fs.log.WithField("backup", path).Info("created backup")
	return path, nil
}

// load reads the document, creating or repairing it when needed. It never
// fails: an unreadable document degrades to an empty one.
func (fs *FileStore) load() *Document {
	raw, err := os.ReadFile(fs.path)

	// First run: create the file
	if errors.Is(err, os.ErrNotExist) {
		doc := NewDocument()
		if err := fs.write(doc); err != nil {
			fs.log.WithError(err).Warn("failed to initialize data file")
		} else {
			fs.log.Info("initialized data file")
		}
		return doc
	}
	if err != nil {
		fs.log.WithError(err).Error("failed to read data file")
		return fs.reinitialize(nil)
	}

	// Parse, falling back to an empty document if the JSON is unusable
	doc, err := decodeDocument(raw)
	if err != nil {
		fs.log.WithError(err).Error("data file is corrupt, reinitializing")
		return fs.reinitialize(raw)
	}

	for key := range doc.skipped {
		fs.log.WithField("key", key).Warn("skipping roadmap that failed to decode")
	}
	return doc
}

// reinitialize backs up the corrupt bytes and writes an empty document
func (fs *FileStore) reinitialize(corrupt []byte) *Document {
	// Keep the bad bytes for manual recovery
	if corrupt != nil {
		backup := fmt.Sprintf("%s.backup.%d", fs.path, fs.now().UnixMilli())
		if err := fs.writeFile(backup, corrupt); err != nil {
			fs.log.WithError(err).Error("failed to back up corrupt data file")
		} else {
			fs.log.WithField("backup", backup).Warn("backed up corrupt data file")
		}
	}

	// Replace with an empty document
	doc := NewDocument()
	if err := fs.write(doc); err != nil {
		fs.log.WithError(err).Error("failed to rewrite data file")
	}
	return doc
}

// write serializes doc to a temp file and renames it into place. The temp
// file is removed on any failure.
func (fs *FileStore) write(doc *Document) error {
	doc.LastUpdated = fs.now().UTC()
	if doc.Version == "" {
		doc.Version = DocumentVersion
	}

	data, err := doc.encode()
	if err != nil {
		return &StorageError{Op: "encode", Path: fs.path, Err: err}
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: fs.path, Err: err}
	}

	// Write to a sibling temp file, then swap it in
	tmp := fs.path + ".tmp"
	if err := fs.writeFile(tmp, data); err != nil {
		fs.cleanup(tmp)
		return &StorageError{Op: "write", Path: tmp, Err: err}
	}

	if err := fs.rename(tmp, fs.path); err != nil {
		fs.cleanup(tmp)
		return &StorageError{Op: "rename", Path: fs.path, Err: err}
	}

	return nil
}

func (fs *FileStore) cleanup(tmp string) {
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		fs.log.WithError(err).Warn("failed to remove temp file")
	}
}

// writeFileSync writes data and flushes it to disk before returning
func writeFileSync(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
