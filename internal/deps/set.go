package deps

// Set is an insertion ordered set. Members must be comparable.
type Set struct {
	index map[any]int
	items []any
}

func NewSet(items ...any) *Set {
	s := &Set{index: make(map[any]int)}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts v and reports whether it was absent.
func (s *Set) Add(v any) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.items)
	s.items = append(s.items, v)
	return true
}

func (s *Set) Has(v any) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Delete removes v and reports whether it was present.
func (s *Set) Delete(v any) bool {
	i, ok := s.index[v]
	if !ok {
		return false
	}

	delete(s.index, v)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Values returns the members in insertion order.
func (s *Set) Values() []any {
	if s == nil {
		return nil
	}
	return append([]any(nil), s.items...)
}

// KeyMap maps observed containers to the ordered set of keys read on them.
type KeyMap struct {
	sets map[any]*Set
	objs []any
}

func NewKeyMap() *KeyMap {
	return &KeyMap{sets: make(map[any]*Set)}
}

// Add records key on obj.
func (m *KeyMap) Add(obj, key any) bool {
	return m.Keys(obj).Add(key)
}

// Keys returns the key set of obj, creating it if needed.
func (m *KeyMap) Keys(obj any) *Set {
	s, ok := m.sets[obj]
	if !ok {
		s = NewSet()
		m.sets[obj] = s
		m.objs = append(m.objs, obj)
	}
	return s
}

// Get returns the key set of obj or nil.
func (m *KeyMap) Get(obj any) *Set {
	if m == nil {
		return nil
	}
	return m.sets[obj]
}

func (m *KeyMap) Has(obj, key any) bool {
	return m.Get(obj).Has(key)
}

// Objects returns the tracked containers in insertion order.
func (m *KeyMap) Objects() []any {
	if m == nil {
		return nil
	}
	return append([]any(nil), m.objs...)
}

func (m *KeyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.objs)
}

// Each calls fn for every (obj, key) pair in insertion order.
func (m *KeyMap) Each(fn func(obj, key any)) {
	if m == nil {
		return
	}
	for _, obj := range m.objs {
		for _, key := range m.sets[obj].items {
			fn(obj, key)
		}
	}
}
