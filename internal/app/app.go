package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dori/trailmap/internal/access"
	"github.com/dori/trailmap/internal/config"
	"github.com/dori/trailmap/internal/db"
	"github.com/dori/trailmap/internal/logging"
	"github.com/dori/trailmap/internal/store"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// lockTimeout bounds how long New waits for another process to finish
const lockTimeout = 5 * time.Second

// ErrBackupUnsupported is returned by Backup for stores without backups
var ErrBackupUnsupported = errors.New("store does not support backups")

// App holds the application state and dependencies
type App struct {
	Store store.Store
	Roles access.RoleResolver
	Log   logrus.FieldLogger

	policy *access.Policy

	// mu serializes every read-modify-write cycle against the store
	mu sync.Mutex

	dataDir  string
	database *db.DB
	lockFile *flock.Flock
}

// New creates an application from configuration. It takes the data
// directory lock, so only one process writes the store at a time.
func New(cfg *config.Config, roles access.RoleResolver, log logrus.FieldLogger) (*App, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.Default(); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = logging.Discard()
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &App{
		Roles:   roles,
		Log:     log,
		dataDir: cfg.DataDir,
	}

	// Acquire lock before touching the store
	if err := a.acquireLock(); err != nil {
		return nil, err
	}

	// Open the configured backend
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		database, err := db.Open(cfg.Storage.Path, log)
		if err != nil {
			a.releaseLock()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.database = database
		a.Store = db.NewRoadmapStore(database)
	default:
		a.Store = store.NewFileStore(cfg.Storage.Path, log)
	}
	a.policy = access.NewPolicy(a.Store)

	log.WithFields(logrus.Fields{
		"backend": cfg.Storage.Backend,
		"path":    cfg.Storage.Path,
	}).Debug("opened store")

	return a, nil
}

// NewWithStore creates an application over an existing store without any
// locking, for embedding and tests.
func NewWithStore(s store.Store, roles access.RoleResolver, log logrus.FieldLogger) *App {
	if log == nil {
		log = logging.Discard()
	}
	return &App{
		Store:  s,
		Roles:  roles,
		Log:    log,
		policy: access.NewPolicy(s),
	}
}

// acquireLock takes an exclusive file lock on the data directory
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.dataDir, "trailmap.lock")
	a.lockFile = flock.New(lockPath)

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := a.lockFile.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another trailmap process holds %s", lockPath)
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.database != nil {
		if err := a.database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	return errors.Join(errs...)
}

// Backup copies the store to a timestamped file when the backend supports it
func (a *App) Backup() (string, error) {
	b, ok := a.Store.(interface{ Backup() (string, error) })
	if !ok {
		return "", ErrBackupUnsupported
	}
	return b.Backup()
}

// LastUpdated returns the store's last write time, or the zero time if the
// backend does not track it.
func (a *App) LastUpdated() time.Time {
	if s, ok := a.Store.(interface{ LastUpdated() time.Time }); ok {
		return s.LastUpdated()
	}
	return time.Time{}
}
