package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/book-library-client/storage"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	fileName       = "profile.yaml"
	currentVersion = 1
)

var _ storage.Store = (*FileStore)(nil)

type document struct {
	Version int               `yaml:"version"`
	Values  map[string]string `yaml:"values"`
}

// FileStore is a region persisted to a YAML file so it outlives the process.
// It holds non-sensitive profile fields such as the last used username.
type FileStore struct {
	path   string
	values map[string]string
	lock   sync.RWMutex
}

// New opens or creates the profile document inside dir
func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	s := &FileStore{
		path:   filepath.Join(dir, fileName),
		values: make(map[string]string),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	log.Debug().Str("path", s.path).Msg("profile store initialized")
	return s, nil
}

// Path returns the location of the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	return s.save()
}

func (s *FileStore) Remove(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.save()
}

func (s *FileStore) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values = make(map[string]string)
	return s.save()
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read profile file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse profile file: %w", err)
	}
	if doc.Version > currentVersion {
		return fmt.Errorf("unsupported profile file version %d", doc.Version)
	}
	for k, v := range doc.Values {
		s.values[k] = v
	}
	return nil
}

// save must be called with the write lock held
func (s *FileStore) save() error {
	data, err := yaml.Marshal(document{Version: currentVersion, Values: s.values})
	if err != nil {
		return fmt.Errorf("failed to encode profile file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace profile file: %w", err)
	}
	return nil
}
