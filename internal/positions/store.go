package positions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/1broseidon/deskgrid/internal/grid"
)

// CurrentVersion is the file format version written by Flush.
const CurrentVersion = 1

// fileFormat is the on-disk document.
type fileFormat struct {
	Version int                             `json:"version"`
	Screens map[string]map[string]grid.Cell `json:"screens"`
}

// Store keeps remembered grid cells keyed by screen name, then item URI.
type Store struct {
	mu      sync.Mutex
	path    string
	screens map[string]map[string]grid.Cell
	dirty   bool
}

// DefaultPath returns ~/.config/deskgrid/positions.json.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "deskgrid", "positions.json"), nil
}

// Open reads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		screens: make(map[string]map[string]grid.Cell),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read positions %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var doc fileFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse positions %s: %w", path, err)
	}
	if doc.Version != CurrentVersion {
		return nil, fmt.Errorf("positions %s: unsupported version %d (expected %d)", path, doc.Version, CurrentVersion)
	}
	for screen, items := range doc.Screens {
		if len(items) == 0 {
			continue
		}
		m := make(map[string]grid.Cell, len(items))
		for uri, cell := range items {
			if uri == "" || cell.Column < 0 || cell.Row < 0 {
				continue
			}
			m[uri] = cell
		}
		s.screens[screen] = m
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the remembered cell of uri on screen.
func (s *Store) Load(screen, uri string) (grid.Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.screens[screen][uri]
	return c, ok
}

// Save remembers cell for uri on screen.
func (s *Store) Save(screen, uri string, cell grid.Cell) error {
	if screen == "" || uri == "" {
		return fmt.Errorf("screen and uri are required")
	}
	if cell.Column < 0 || cell.Row < 0 {
		return fmt.Errorf("invalid cell %s", cell)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.screens[screen]
	if items == nil {
		items = make(map[string]grid.Cell)
		s.screens[screen] = items
	}
	if cur, ok := items[uri]; ok && cur == cell {
		return nil
	}
	items[uri] = cell
	s.dirty = true
	return nil
}

// Forget drops the remembered cell of uri on screen.
func (s *Store) Forget(screen, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.screens[screen]
	if _, ok := items[uri]; !ok {
		return nil
	}
	delete(items, uri)
	if len(items) == 0 {
		delete(s.screens, screen)
	}
	s.dirty = true
	return nil
}

// Screens lists the screen names that have remembered items.
func (s *Store) Screens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.screens))
	for name := range s.screens {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Entries returns a copy of the remembered cells on screen.
func (s *Store) Entries(screen string) map[string]grid.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]grid.Cell, len(s.screens[screen]))
	for uri, c := range s.screens[screen] {
		out[uri] = c
	}
	return out
}

// Dirty reports whether there are unflushed changes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush writes the store to disk if it changed since the last flush.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	doc := fileFormat{Version: CurrentVersion, Screens: s.screens}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}
	if err := writeFileAtomic(s.path, append(data, '\n')); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create positions directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write positions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write positions: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to write positions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace positions %s: %w", path, err)
	}
	return nil
}
