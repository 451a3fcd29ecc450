package desktopdir

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RowObserver receives row changes. Removals are announced while the rows
// are still in the model; insertions after the rows were added.
type RowObserver interface {
	RowsAboutToBeRemoved(start, end int)
	RowsInserted(start, end int)
}

// Change summarises one rescan.
type Change struct {
	Removed  int
	Inserted int
}

// Empty reports whether the rescan changed nothing.
func (c Change) Empty() bool {
	return c.Removed == 0 && c.Inserted == 0
}

// Model is the ordered list of file:// URIs for the entries of a directory.
type Model struct {
	dir        string
	showHidden bool
	uris       []string
}

// New creates an empty model for dir. Call Rescan to populate it.
func New(dir string, showHidden bool) *Model {
	return &Model{dir: dir, showHidden: showHidden}
}

// Dir returns the watched directory.
func (m *Model) Dir() string {
	return m.dir
}

// SetShowHidden changes whether dot entries are listed. It takes effect on
// the next Rescan.
func (m *Model) SetShowHidden(show bool) {
	m.showHidden = show
}

// RowCount returns the number of entries.
func (m *Model) RowCount() int {
	return len(m.uris)
}

// URIAt returns the URI of row, or "" when out of range.
func (m *Model) URIAt(row int) string {
	if row < 0 || row >= len(m.uris) {
		return ""
	}
	return m.uris[row]
}

// URIs returns a copy of all entries in model order.
func (m *Model) URIs() []string {
	out := make([]string, len(m.uris))
	copy(out, m.uris)
	return out
}

// IndexOf returns the row of uri, or -1.
func (m *Model) IndexOf(uri string) int {
	for i, u := range m.uris {
		if u == uri {
			return i
		}
	}
	return -1
}

// Resolve accepts a URI, an absolute path, or a name relative to the
// directory and returns the matching model URI.
func (m *Model) Resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	candidates := []string{ref}
	if !strings.HasPrefix(ref, "file://") {
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.dir, ref)
		}
		candidates = append(candidates, FileURI(path))
	}
	for _, c := range candidates {
		if m.IndexOf(c) >= 0 {
			return c, true
		}
	}
	return "", false
}

// Rescan reads the directory and reports the difference to obs.
func (m *Model) Rescan(obs RowObserver) (Change, error) {
	current, err := m.list()
	if err != nil {
		return Change{}, err
	}

	present := make(map[string]bool, len(current))
	for _, uri := range current {
		present[uri] = true
	}

	var change Change

	// Remove runs of vanished rows from the bottom up so earlier indices stay valid.
	end := len(m.uris) - 1
	for end >= 0 {
		if present[m.uris[end]] {
			end--
			continue
		}
		start := end
		for start > 0 && !present[m.uris[start-1]] {
			start--
		}
		if obs != nil {
			obs.RowsAboutToBeRemoved(start, end)
		}
		change.Removed += end - start + 1
		m.uris = append(m.uris[:start], m.uris[end+1:]...)
		end = start - 1
	}

	known := make(map[string]bool, len(m.uris))
	for _, uri := range m.uris {
		known[uri] = true
	}
	first := len(m.uris)
	for _, uri := range current {
		if !known[uri] {
			m.uris = append(m.uris, uri)
		}
	}
	if last := len(m.uris) - 1; last >= first {
		change.Inserted = last - first + 1
		if obs != nil {
			obs.RowsInserted(first, last)
		}
	}

	return change, nil
}

func (m *Model) list() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read desktop directory %s: %w", m.dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !m.showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		out = append(out, FileURI(filepath.Join(m.dir, name)))
	}
	sort.Strings(out)
	return out, nil
}

// FileURI returns the file:// URI of an absolute path.
func FileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: path}).String()
}

// PathFromURI returns the local path of a file:// URI.
func PathFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return u.Path
}

// DisplayName returns the base name of the file behind uri.
func DisplayName(uri string) string {
	return filepath.Base(PathFromURI(uri))
}
