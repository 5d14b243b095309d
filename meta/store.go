package meta

// Entry is the side-table record kept for a committed graph node:
// its raw log line, and the (lazily completed) location it maps to.
type Entry struct {
	Line string
	Loc  SrcLoc
	Func string
}

// Store is the idx -> Entry side table. The core pipeline never
// iterates it; it only looks up by node index. A single hash-map
// implementation suffices, as spec.md §4.E notes.
type Store struct {
	entries map[int]*Entry
}

// NewStore creates an empty meta store.
func NewStore() *Store {
	return &Store{entries: make(map[int]*Entry)}
}

// Insert records the entry for idx.
func (s *Store) Insert(idx int, entry *Entry) {
	s.entries[idx] = entry
}

// Get returns the entry for idx, or (nil, false) if none was recorded.
func (s *Store) Get(idx int) (*Entry, bool) {
	e, ok := s.entries[idx]
	return e, ok
}

// Len reports the number of recorded entries.
func (s *Store) Len() int {
	return len(s.entries)
}
