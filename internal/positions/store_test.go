package positions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/deskgrid/internal/grid"
)

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "positions.json"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if len(s.Screens()) != 0 || s.Dirty() {
		t.Fatalf("expected empty clean store")
	}
}

func TestStore_SaveFlushReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "positions.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if err := s.Save("eDP-1", "file:///a", grid.Cell{Column: 2, Row: 3}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := s.Save("HDMI-1", "file:///b", grid.Cell{Column: 0, Row: 1}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if !s.Dirty() {
		t.Fatalf("expected dirty store after save")
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("expected clean store after flush")
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if c, ok := reopened.Load("eDP-1", "file:///a"); !ok || c != (grid.Cell{Column: 2, Row: 3}) {
		t.Fatalf("expected (2,3), got %v %v", c, ok)
	}
	if got := reopened.Screens(); len(got) != 2 || got[0] != "HDMI-1" || got[1] != "eDP-1" {
		t.Fatalf("unexpected screens %v", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir returned error: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStore_SaveSameCellStaysClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	s, _ := Open(path)
	s.Save("eDP-1", "file:///a", grid.Cell{Column: 1})
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}

	s.Save("eDP-1", "file:///a", grid.Cell{Column: 1})
	if s.Dirty() {
		t.Fatalf("re-saving the same cell must not dirty the store")
	}
}

func TestStore_Forget(t *testing.T) {
	s, _ := Open(filepath.Join(t.TempDir(), "positions.json"))
	s.Save("eDP-1", "file:///a", grid.Cell{})

	if err := s.Forget("eDP-1", "file:///a"); err != nil {
		t.Fatalf("Forget returned error: %v", err)
	}
	if _, ok := s.Load("eDP-1", "file:///a"); ok {
		t.Fatalf("expected entry to be gone")
	}
	if len(s.Screens()) != 0 {
		t.Fatalf("expected empty screen to be dropped, got %v", s.Screens())
	}
	if err := s.Forget("missing", "file:///a"); err != nil {
		t.Fatalf("Forget on missing entry returned error: %v", err)
	}
}

func TestStore_SaveRejectsInvalidInput(t *testing.T) {
	s, _ := Open(filepath.Join(t.TempDir(), "positions.json"))
	if err := s.Save("", "file:///a", grid.Cell{}); err == nil {
		t.Fatalf("expected error for empty screen")
	}
	if err := s.Save("eDP-1", "file:///a", grid.InvalidCell); err == nil {
		t.Fatalf("expected error for sentinel cell")
	}
}

func TestOpen_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	if err := os.WriteFile(path, []byte(`{"version": 7, "screens": {}}`), 0644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	if _, err := Open(path); err == nil || !strings.Contains(err.Error(), "unsupported version 7") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestOpen_RejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	os.WriteFile(path, []byte(`{"version":`), 0644)
	if _, err := Open(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
