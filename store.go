package stage

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// preferencesFile is the singleton key for the last-used export settings.
const preferencesFile = "preferences.yaml"

// ErrRecordNotFound is returned when a store lookup misses.
var ErrRecordNotFound = errors.New("stage: export record not found")

// ExportRecord is the metadata persisted alongside an exported blob.
type ExportRecord struct {
	ID        string    `yaml:"id"`
	FileName  string    `yaml:"fileName"`
	Format    string    `yaml:"format"`
	Quality   float64   `yaml:"quality"`
	Scale     float64   `yaml:"scale"`
	CreatedAt time.Time `yaml:"createdAt"`
}

// Preferences holds the user's last-used export settings, stored under a
// fixed singleton key.
type Preferences struct {
	Format  string  `yaml:"format"`
	Quality float64 `yaml:"quality"`
	Scale   float64 `yaml:"scale"`
}

// Store persists exports on the local filesystem. Each record is a file
// pair: <id>.png with the blob and <id>.yaml with the metadata. All
// methods are safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	dir string
}

// OpenStore opens (creating if needed) a store rooted at dir.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// newRecordID builds a "<epoch-ms>-<rand>" identifier.
func newRecordID(now time.Time) string {
	return fmt.Sprintf("%d-%06d", now.UnixMilli(), rand.Intn(1_000_000))
}

// validID rejects identifiers that would escape the store directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

// Save persists a record and its blob, assigning an ID when the record has
// none, and returns the ID. The blob lands first so a crash between the
// two writes leaves an orphan blob, never dangling metadata.
func (s *Store) Save(rec ExportRecord, blob []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.ID == "" {
		rec.ID = newRecordID(rec.CreatedAt)
	}
	if !validID(rec.ID) {
		return "", fmt.Errorf("store: invalid record id %q", rec.ID)
	}

	if err := os.WriteFile(s.blobPath(rec.ID), blob, 0o644); err != nil {
		return "", fmt.Errorf("store: save blob %s: %w", rec.ID, err)
	}
	meta, err := yaml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("store: marshal record %s: %w", rec.ID, err)
	}
	if err := os.WriteFile(s.metaPath(rec.ID), meta, 0o644); err != nil {
		return "", fmt.Errorf("store: save record %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// Load reads a record and its blob by ID.
func (s *Store) Load(id string) (ExportRecord, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validID(id) {
		return ExportRecord{}, nil, fmt.Errorf("store: invalid record id %q", id)
	}
	meta, err := os.ReadFile(s.metaPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return ExportRecord{}, nil, fmt.Errorf("store: %s: %w", id, ErrRecordNotFound)
	}
	if err != nil {
		return ExportRecord{}, nil, fmt.Errorf("store: load record %s: %w", id, err)
	}
	var rec ExportRecord
	if err := yaml.Unmarshal(meta, &rec); err != nil {
		return ExportRecord{}, nil, fmt.Errorf("store: parse record %s: %w", id, err)
	}
	blob, err := os.ReadFile(s.blobPath(id))
	if err != nil {
		return ExportRecord{}, nil, fmt.Errorf("store: load blob %s: %w", id, err)
	}
	return rec, blob, nil
}

// List returns all records, newest first. Records whose metadata fails to
// parse are skipped with a warning.
func (s *Store) List() ([]ExportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	var recs []ExportRecord
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == preferencesFile || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		meta, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			logger().Warn("store: unreadable record", "file", name, "err", err)
			continue
		}
		var rec ExportRecord
		if err := yaml.Unmarshal(meta, &rec); err != nil {
			logger().Warn("store: corrupt record", "file", name, "err", err)
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

// Delete removes a record and its blob. Deleting a missing record returns
// ErrRecordNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validID(id) {
		return fmt.Errorf("store: invalid record id %q", id)
	}
	err := os.Remove(s.metaPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: %s: %w", id, ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: delete record %s: %w", id, err)
	}
	if err := os.Remove(s.blobPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: delete blob %s: %w", id, err)
	}
	return nil
}

// SavePreferences writes the singleton preferences record.
func (s *Store) SavePreferences(p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: marshal preferences: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, preferencesFile), data, 0o644); err != nil {
		return fmt.Errorf("store: save preferences: %w", err)
	}
	return nil
}

// LoadPreferences reads the singleton preferences record. Missing
// preferences return the zero value and ok=false, not an error.
func (s *Store) LoadPreferences() (Preferences, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, preferencesFile))
	if errors.Is(err, os.ErrNotExist) {
		return Preferences{}, false, nil
	}
	if err != nil {
		return Preferences{}, false, fmt.Errorf("store: load preferences: %w", err)
	}
	var p Preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preferences{}, false, fmt.Errorf("store: parse preferences: %w", err)
	}
	return p, true, nil
}

func (s *Store) blobPath(id string) string {
	return filepath.Join(s.dir, id+".png")
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}
