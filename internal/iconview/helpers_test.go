package iconview

import (
	"testing"

	"github.com/1broseidon/deskgrid/internal/grid"
)

type sliceModel struct {
	uris []string
}

func (m *sliceModel) RowCount() int { return len(m.uris) }

func (m *sliceModel) URIAt(row int) string {
	if row < 0 || row >= len(m.uris) {
		return ""
	}
	return m.uris[row]
}

// insert appends uris to the model and notifies v.
func (m *sliceModel) insert(v *View, uris ...string) {
	start := len(m.uris)
	m.uris = append(m.uris, uris...)
	v.RowsInserted(start, len(m.uris)-1)
}

// remove notifies v and then drops row from the model.
func (m *sliceModel) remove(v *View, row int) {
	v.RowsAboutToBeRemoved(row, row)
	m.uris = append(m.uris[:row], m.uris[row+1:]...)
}

type memStore struct {
	cells map[string]map[string]grid.Cell
}

func newMemStore() *memStore {
	return &memStore{cells: make(map[string]map[string]grid.Cell)}
}

func (s *memStore) Load(screen, uri string) (grid.Cell, bool) {
	c, ok := s.cells[screen][uri]
	return c, ok
}

func (s *memStore) Save(screen, uri string, cell grid.Cell) error {
	if s.cells[screen] == nil {
		s.cells[screen] = make(map[string]grid.Cell)
	}
	s.cells[screen][uri] = cell
	return nil
}

func (s *memStore) Forget(screen, uri string) error {
	delete(s.cells[screen], uri)
	return nil
}

func output(name string, x, y, w, h int) *Output {
	return &Output{Name: name, Geometry: grid.Rect{X: x, Y: y, Width: w, Height: h}}
}

// assertGridInvariants checks that every occupancy entry is on the grid and
// that no two items share a cell.
func assertGridInvariants(t *testing.T, s *Screen) {
	t.Helper()
	seen := make(map[grid.Cell]string)
	for _, uri := range s.AllItems() {
		c, _ := s.ItemCell(uri)
		if !s.CellOnScreen(c) {
			t.Fatalf("screen %s: item %s at %v is off the %dx%d grid", s.Name(), uri, c, s.MaxColumn(), s.MaxRow())
		}
		if other, ok := seen[c]; ok {
			t.Fatalf("screen %s: items %s and %s share cell %v", s.Name(), other, uri, c)
		}
		seen[c] = uri
	}
}
