package walker

// Visited records directory identities seen during one build.
type Visited interface {
	// Visit marks id as seen and reports whether this was the first time.
	Visit(id string) bool
}

// VisitedSet is the Visited used by serial walks. It is not safe for
// concurrent use.
type VisitedSet map[string]struct{}

// NewVisitedSet returns an empty set.
func NewVisitedSet() VisitedSet {
	return make(VisitedSet)
}

// Visit implements Visited.
func (s VisitedSet) Visit(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}
