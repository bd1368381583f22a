package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/mergehub/mergebot/internal/core/ports/driven"
)

var _ driven.SettingsStore = (*SettingsStore)(nil)

const settingsFile = "settings.toml"

// SettingsStore holds operator-local settings (data dir, overrides) in
// a TOML file under the mergebot config directory. Keys use dot
// notation; nested TOML tables are flattened on load.
type SettingsStore struct {
	mu   sync.RWMutex
	path string
	data map[string]any
}

// NewSettingsStore opens the settings file under configDir, creating
// the directory if needed. An empty configDir means ~/.mergebot.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home dir: %w", err)
		}
		configDir = filepath.Join(home, ".mergebot")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}

	s := &SettingsStore{
		path: filepath.Join(configDir, settingsFile),
		data: make(map[string]any),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SettingsStore) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	var nested map[string]any
	if err := toml.Unmarshal(raw, &nested); err != nil {
		return fmt.Errorf("parsing settings: %w", err)
	}
	flatten("", nested, s.data)
	return nil
}

// flatten folds nested tables into dot-notation keys, so [data] dir
// and a top-level "data.dir" read the same.
func flatten(prefix string, src map[string]any, dst map[string]any) {
	for key, value := range src {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			flatten(key, table, dst)
			continue
		}
		dst[key] = value
	}
}

// Get returns the raw value for key.
func (s *SettingsStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// GetString returns the string at key, or "" when absent or not a
// string.
func (s *SettingsStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt returns the integer at key, or 0. TOML integers decode as
// int64.
func (s *SettingsStore) GetInt(key string) int {
	switch v, _ := s.Get(key); n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// GetBool returns the boolean at key, or false.
func (s *SettingsStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// Set stores value under key and persists immediately.
func (s *SettingsStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.save()
}

// Save persists the current settings.
func (s *SettingsStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes the file; caller holds the lock.
func (s *SettingsStore) save() error {
	raw, err := toml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string {
	return s.path
}
