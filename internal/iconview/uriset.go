package iconview

// uriSet is an insertion-ordered set of item URIs.
type uriSet struct {
	order []string
	index map[string]struct{}
}

func newURISet() *uriSet {
	return &uriSet{index: make(map[string]struct{})}
}

func (s *uriSet) Add(uri string) {
	if _, ok := s.index[uri]; ok {
		return
	}
	s.index[uri] = struct{}{}
	s.order = append(s.order, uri)
}

func (s *uriSet) Remove(uri string) {
	if _, ok := s.index[uri]; !ok {
		return
	}
	delete(s.index, uri)
	for i, u := range s.order {
		if u == uri {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *uriSet) Has(uri string) bool {
	_, ok := s.index[uri]
	return ok
}

func (s *uriSet) Len() int {
	return len(s.order)
}

// List returns a copy of the members in insertion order.
func (s *uriSet) List() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
