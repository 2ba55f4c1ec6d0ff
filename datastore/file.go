package datastore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-cognito-emulator/internal/metrics"
)

var _ Factory = (*FileFactory)(nil)

// FileFactory creates stores persisted as one JSON document per root name
// under a data directory.
type FileFactory struct {
	folder string
	logger zerolog.Logger
}

// NewFileFactory creates a FileFactory rooted at folder, creating it if
// necessary.
func NewFileFactory(folder string, logger zerolog.Logger) (*FileFactory, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileFactory] create data directory")
	}
	return &FileFactory{folder: folder, logger: logger}, nil
}

// Create opens the named store, seeding it with defaultValue when no prior
// document exists on disk.
func (f *FileFactory) Create(name string, defaultValue map[string]any) (Store, error) {
	store := &fileStore{
		name:   name,
		path:   filepath.Join(f.folder, name+".json"),
		logger: f.logger.With().Str("store", name).Logger(),
	}

	if defaultValue == nil {
		defaultValue = map[string]any{}
	}

	raw, err := os.ReadFile(store.path)
	if os.IsNotExist(err) {
		seeded, err := normalise(defaultValue)
		if err != nil {
			return nil, err
		}
		store.root = seeded.(map[string]any)
		if err := store.persist(store.root); err != nil {
			return nil, err
		}
		store.logger.Debug().Msg("seeded new store")
		return store, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[FileFactory.Create] read %s", store.path)
	}

	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, errors.Wrapf(err, "[FileFactory.Create] parse %s", store.path)
	}
	store.root = root
	return store, nil
}

var _ Store = (*fileStore)(nil)

// fileStore keeps the full document in memory and rewrites the backing file
// on every Set. Writes build a copy-on-write document and swap it in once the
// file write succeeds, so values already handed out by Get or GetRoot are
// stable snapshots and a failed Set is never observable. Stores for different
// root names are independent.
type fileStore struct {
	name   string
	path   string
	logger zerolog.Logger

	mu   sync.RWMutex
	root map[string]any
}

func (s *fileStore) Get(path ...string) (any, error) {
	metrics.RecordStoreOperation(s.name, "get")
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPath(s.root, path), nil
}

func (s *fileStore) Set(path []string, value any) error {
	metrics.RecordStoreOperation(s.name, "set")
	if len(path) == 0 {
		return errors.New("[fileStore.Set] empty path")
	}

	normalised, err := normalise(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := setPath(s.root, path, normalised)
	if err := s.persist(next); err != nil {
		metrics.RecordStoreError(s.name, "set")
		return err
	}
	s.root = next
	return nil
}

func (s *fileStore) GetRoot() (map[string]any, error) {
	metrics.RecordStoreOperation(s.name, "get_root")
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root, nil
}

// persist writes the whole candidate document. Callers swap it into root only
// after persist succeeds, so a failed write is never observable in memory.
func (s *fileStore) persist(root map[string]any) error {
	raw, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "[fileStore.persist] marshal %s", s.name)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return errors.Wrapf(err, "[fileStore.persist] write %s", s.path)
	}
	return nil
}
