package keytree

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrTooDeep         = errors.New("path is deeper than the tree")
	ErrUnsupportedLeaf = errors.New("map leaves are not supported yet")
)

// Kind is the container used at one level of a tree.
type Kind int

const (
	// Map levels map keys to child nodes, in insertion order.
	Map Kind = iota
	// List levels hold the leaf entries. Only the last level can be a List.
	List
)

func (k Kind) String() string {
	switch k {
	case Map:
		return "map"
	case List:
		return "list"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Callbacks struct {
	// OnFirst runs after an Add into an empty tree.
	OnFirst func()

	// OnEmpty runs after a Delete left a non-empty tree empty.
	OnEmpty func()
}

type node struct {
	// map level
	keys     []any
	children map[any]*node

	// list level
	leaves []any
}

func newNode(kind Kind) *node {
	if kind == Map {
		return &node{children: make(map[any]*node)}
	}
	return &node{}
}

func (n *node) isList() bool { return n.children == nil }

func (n *node) isEmpty() bool {
	if n.isList() {
		return len(n.leaves) == 0
	}
	return len(n.keys) == 0
}

func (n *node) child(key any) *node {
	if n.isList() {
		return nil
	}
	return n.children[key]
}

func (n *node) setChild(key any, c *node) {
	n.keys = append(n.keys, key)
	n.children[key] = c
}

func (n *node) deleteChild(key any) {
	if _, ok := n.children[key]; !ok {
		return
	}
	delete(n.children, key)
	n.keys = slices.DeleteFunc(n.keys, func(k any) bool { return k == key })
}

// each walks every leaf below n. path is the path of n.
func (n *node) each(path []any, fn func(path []any, leaf any)) {
	if n.isList() {
		for _, leaf := range n.leaves {
			fn(append(slices.Clone(path), leaf), leaf)
		}
		return
	}
	for _, key := range n.keys {
		n.children[key].each(append(slices.Clone(path), key), fn)
	}
}

func (n *node) size() int {
	if n.isList() {
		return len(n.leaves)
	}
	total := 0
	for _, key := range n.keys {
		total += n.children[key].size()
	}
	return total
}

// Tree is a fixed depth keyed tree whose last level lists leaf entries.
// Intermediate nodes are created on Add and pruned when a Delete leaves them empty.
type Tree struct {
	levels    []Kind
	root      *node
	callbacks Callbacks
}

// New creates a tree with one container per level, the root first.
// A path into the tree holds one key per level, the last one being the leaf.
func New(levels []Kind, callbacks Callbacks) (*Tree, error) {
	if len(levels) == 0 || levels[len(levels)-1] != List {
		return nil, fmt.Errorf("keytree: %w", ErrUnsupportedLeaf)
	}
	for _, kind := range levels[:len(levels)-1] {
		if kind != Map {
			return nil, fmt.Errorf("keytree: %s level before the last: %w", kind, ErrUnsupportedLeaf)
		}
	}

	return &Tree{
		levels:    slices.Clone(levels),
		root:      newNode(levels[0]),
		callbacks: callbacks,
	}, nil
}

// MustNew is like New but panics on an invalid structure.
func MustNew(levels []Kind, callbacks Callbacks) *Tree {
	t, err := New(levels, callbacks)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tree) Depth() int { return len(t.levels) }

// Add inserts the last key of path into the list found by the keys before it.
func (t *Tree) Add(path ...any) error {
	if len(path) > len(t.levels) {
		return fmt.Errorf("keytree: add %d keys into %d levels: %w", len(path), len(t.levels), ErrTooDeep)
	}
	if len(path) < len(t.levels) {
		return fmt.Errorf("keytree: add %d keys into %d levels: %w", len(path), len(t.levels), ErrUnsupportedLeaf)
	}

	wasEmpty := t.root.isEmpty()

	place := t.root
	for i, key := range path[:len(path)-1] {
		c := place.child(key)
		if c == nil {
			c = newNode(t.levels[i+1])
			place.setChild(key, c)
		}
		place = c
	}
	place.leaves = append(place.leaves, path[len(path)-1])

	if wasEmpty && t.callbacks.OnFirst != nil {
		t.callbacks.OnFirst()
	}
	return nil
}

// Delete removes one leaf when path is complete, or the whole subtree under a
// shorter path. onDelete, if set, is called with the full path of every removed
// leaf. Emptied nodes are pruned bottom-up. It reports whether anything was removed.
func (t *Tree) Delete(path []any, onDelete func(path []any)) (bool, error) {
	if len(path) > len(t.levels) {
		return false, fmt.Errorf("keytree: delete %d keys from %d levels: %w", len(path), len(t.levels), ErrTooDeep)
	}

	wasEmpty := t.root.isEmpty()

	if len(path) == 0 {
		if wasEmpty {
			return false, nil
		}
		t.clear(t.root, nil, onDelete)
		t.root = newNode(t.levels[0])
		t.emptied(wasEmpty)
		return true, nil
	}

	nodes := []*node{t.root}
	parent := t.root
	for _, key := range path[:len(path)-1] {
		c := parent.child(key)
		if c == nil {
			return false, nil
		}
		nodes = append(nodes, c)
		parent = c
	}
	last := path[len(path)-1]

	if len(path) == len(t.levels) {
		if !removeLastLeaf(parent, last) {
			return false, nil
		}
		if onDelete != nil {
			onDelete(slices.Clone(path))
		}
	} else {
		c := parent.child(last)
		if c == nil {
			return false, nil
		}
		t.clear(c, path, onDelete)
		parent.deleteChild(last)
	}

	for i := len(nodes) - 2; i >= 0; i-- {
		if !nodes[i+1].isEmpty() {
			break
		}
		nodes[i].deleteChild(path[i])
	}

	t.emptied(wasEmpty)
	return true, nil
}

func removeLastLeaf(n *node, leaf any) bool {
	for i := len(n.leaves) - 1; i >= 0; i-- {
		if n.leaves[i] == leaf {
			n.leaves = slices.Delete(n.leaves, i, i+1)
			return true
		}
	}
	return false
}

func (t *Tree) clear(n *node, path []any, onDelete func(path []any)) {
	if onDelete == nil {
		return
	}
	n.each(path, func(path []any, _ any) { onDelete(path) })
}

func (t *Tree) emptied(wasEmpty bool) {
	if !wasEmpty && t.root.isEmpty() && t.callbacks.OnEmpty != nil {
		t.callbacks.OnEmpty()
	}
}

func (t *Tree) find(path []any) *node {
	place := t.root
	for _, key := range path {
		place = place.child(key)
		if place == nil {
			return nil
		}
	}
	return place
}

// Get returns the leaves under path, in insertion order. The result is
// always a copy.
func (t *Tree) Get(path ...any) []any {
	if len(path) >= len(t.levels) {
		return nil
	}

	n := t.find(path)
	if n == nil {
		return nil
	}
	if n.isList() {
		return slices.Clone(n.leaves)
	}

	leaves := []any{}
	n.each(nil, func(_ []any, leaf any) { leaves = append(leaves, leaf) })
	return leaves
}

// Keys returns the child keys of the map node at path, in insertion order.
func (t *Tree) Keys(path ...any) []any {
	if len(path) >= len(t.levels)-1 {
		return nil
	}

	n := t.find(path)
	if n == nil {
		return nil
	}
	return slices.Clone(n.keys)
}

// Each calls fn with the full path of every leaf under path.
func (t *Tree) Each(path []any, fn func(path []any)) {
	if len(path) >= len(t.levels) {
		return
	}
	if n := t.find(path); n != nil {
		n.each(slices.Clone(path), func(p []any, _ any) { fn(p) })
	}
}

// Size counts the leaves of the tree.
func (t *Tree) Size() int { return t.root.size() }

func (t *Tree) IsEmpty() bool { return t.root.isEmpty() }

// RootLen is the number of entries directly under the root.
func (t *Tree) RootLen() int {
	if t.root.isList() {
		return len(t.root.leaves)
	}
	return len(t.root.keys)
}
