package capability

import "sync"

// Token identifies a capability. Tokens are memoized by name, so two
// lookups of the same name return the same pointer.
type Token struct {
	name string
}

func (t *Token) Name() string   { return t.name }
func (t *Token) String() string { return "@@" + t.name }

var registry = struct {
	mu     sync.Mutex
	tokens map[string]*Token
}{tokens: make(map[string]*Token)}

// For returns the token registered under name, creating it on first use.
func For(name string) *Token {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if t, ok := registry.tokens[name]; ok {
		return t
	}
	t := &Token{name: name}
	registry.tokens[name] = t
	return t
}

var (
	GetValueToken             = For("getValue")
	SetValueToken             = For("setValue")
	GetKeyValueToken          = For("getKeyValue")
	SetKeyValueToken          = For("setKeyValue")
	DeleteKeyValueToken       = For("deleteKeyValue")
	OnValueToken              = For("onValue")
	OffValueToken             = For("offValue")
	OnKeyValueToken           = For("onKeyValue")
	OffKeyValueToken          = For("offKeyValue")
	GetValueDependenciesToken = For("getValueDependencies")
	GetKeyDependenciesToken   = For("getKeyDependencies")
	IsMapLikeToken            = For("isMapLike")
	IsListLikeToken           = For("isListLike")
	IsValueLikeToken          = For("isValueLike")
	GetPriorityToken          = For("getPriority")
	SetPriorityToken          = For("setPriority")
	GetNameToken              = For("getName")
)

// Table holds capabilities attached at runtime rather than through methods.
//
// Entries must have the function type of the matching interface method,
// e.g. GetValueToken maps to a func() any and OnValueToken to a
// func(*queues.Handler, string). Entries of another type are ignored.
type Table map[*Token]any

// Carrier is implemented by objects exposing a capability table.
type Carrier interface {
	Capabilities() Table
}

func lookup[F any](target any, tok *Token) (F, bool) {
	var zero F

	c, ok := target.(Carrier)
	if !ok {
		return zero, false
	}
	table := c.Capabilities()
	if table == nil {
		return zero, false
	}

	fn, ok := table[tok].(F)
	return fn, ok
}
