package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"polyglot/internal/domain/models"
	"polyglot/internal/domain/repositories"
)

// lockRetryDelay is how often a blocked lock attempt is retried until ctx is done
const lockRetryDelay = 50 * time.Millisecond

// settingsDocument is the on-disk layout of the settings file
type settingsDocument struct {
	Owners map[string]*models.ProviderSettings `yaml:"owners"`
}

// SettingsRepository stores provider settings for every owner in one YAML file.
// A sibling ".lock" file serializes access across processes (the server and the CLI).
// A flock.Flock treats a lock it already holds as acquired, so goroutines sharing
// the repository are serialized by mu before touching the file lock.
type SettingsRepository struct {
	path   string
	mu     sync.Mutex
	lock   *flock.Flock
	logger *slog.Logger
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository creates a repository backed by the YAML file at path.
// The file and its directory are created on first write.
func NewSettingsRepository(path string, logger *slog.Logger) *SettingsRepository {
	return &SettingsRepository{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the settings file location
func (r *SettingsRepository) Path() string {
	return r.path
}

// GetByOwner returns the settings for ownerID, or nil if none are stored
func (r *SettingsRepository) GetByOwner(ctx context.Context, ownerID string) (*models.ProviderSettings, error) {
	if err := r.ensureDir(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	locked, err := r.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire read lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire read lock on %s", r.path)
	}
	defer r.unlock()

	doc, err := r.read()
	if err != nil {
		return nil, err
	}

	s, ok := doc.Owners[ownerID]
	if !ok || s == nil {
		return nil, nil
	}
	s.OwnerID = ownerID
	return s, nil
}

// Upsert writes settings for settings.OwnerID, keeping every other owner's entry
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.ProviderSettings) error {
	if err := r.ensureDir(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	locked, err := r.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire write lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire write lock on %s", r.path)
	}
	defer r.unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}

	stored := *settings
	doc.Owners[settings.OwnerID] = &stored

	if err := r.write(doc); err != nil {
		return err
	}

	r.logger.Debug("provider settings saved", "owner_id", settings.OwnerID, "path", r.path)
	return nil
}

// read loads the settings file; caller must hold the lock.
// A missing or empty file is an empty document.
func (r *SettingsRepository) read() (*settingsDocument, error) {
	doc := &settingsDocument{}

	data, err := os.ReadFile(r.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("parse settings file %s: %w", r.path, err)
		}
	}

	if doc.Owners == nil {
		doc.Owners = make(map[string]*models.ProviderSettings)
	}
	return doc, nil
}

// write replaces the settings file atomically; caller must hold the write lock
func (r *SettingsRepository) write(doc *settingsDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op after a successful rename

	// API keys live in this file
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp settings file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp settings file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func (r *SettingsRepository) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	return nil
}

func (r *SettingsRepository) unlock() {
	if err := r.lock.Unlock(); err != nil {
		r.logger.Warn("failed to release settings lock", "path", r.path, "error", err)
	}
}
