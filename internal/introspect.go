package internal

import (
	"github.com/AnatoleLucet/reflow/internal/capability"
	"github.com/AnatoleLucet/reflow/internal/deps"
	"github.com/AnatoleLucet/reflow/internal/keytree"
)

// valueKey stands for the whole value in the mutation tree.
type valueKey struct{}

// WhatChangesMe lists what derives and what mutates an observable.
type WhatChangesMe struct {
	Derive *deps.Record
	Mutate *deps.Record
}

// WhatIChange lists what an observable mutates.
type WhatIChange struct {
	Mutate *deps.Record
}

type DependencyData struct {
	WhatChangesMe WhatChangesMe
	WhatIChange   WhatIChange
}

// Introspection records which observables mutate which others, on top of
// the derive dependencies observables report themselves.
type Introspection struct {
	// [target, key, source read]
	mutatedBy *keytree.Tree
}

func newIntrospection() *Introspection {
	return &Introspection{
		mutatedBy: keytree.MustNew([]keytree.Kind{keytree.Map, keytree.Map, keytree.List}, keytree.Callbacks{}),
	}
}

func keyOf(key any) any {
	if key == nil {
		return valueKey{}
	}
	return key
}

func sourceReads(source any) []deps.Read {
	if record, ok := source.(*deps.Record); ok {
		return record.Reads()
	}
	return []deps.Read{{Object: source}}
}

// AddMutatedBy records that source mutates key of target, or its whole value
// when key is nil. source is an observable or a *deps.Record.
func (i *Introspection) AddMutatedBy(target, key, source any) {
	for _, read := range sourceReads(source) {
		if err := i.mutatedBy.Add(target, keyOf(key), read); err != nil {
			panic(err)
		}
	}
}

func (i *Introspection) DeleteMutatedBy(target, key, source any) {
	for _, read := range sourceReads(source) {
		if _, err := i.mutatedBy.Delete([]any{target, keyOf(key), read}, nil); err != nil {
			panic(err)
		}
	}
}

// DependencyDataOf describes what changes key of obj (its whole value when
// key is nil) and what it changes. It returns nil when nothing is known.
func (i *Introspection) DependencyDataOf(obj, key any) *DependencyData {
	derive := deps.NewRecord("derive")
	if key == nil {
		deps.Merge(derive, capability.ValueDependenciesOf(obj))
	} else {
		deps.Merge(derive, capability.KeyDependenciesOf(obj, key))
	}

	mutate := deps.NewRecord("mutate")
	for _, leaf := range i.mutatedBy.Get(obj, keyOf(key)) {
		mutate.AddRead(leaf.(deps.Read))
	}

	changes := deps.NewRecord("whatIChange")
	self := deps.Read{Object: obj}
	if key != nil {
		self = deps.Read{Object: obj, Key: key, Keyed: true}
	}
	i.mutatedBy.Each(nil, func(path []any) {
		if path[2].(deps.Read) != self {
			return
		}
		if _, ok := path[1].(valueKey); ok {
			changes.AddValue(path[0])
		} else {
			changes.AddKey(path[0], path[1])
		}
	})

	if derive.IsEmpty() && mutate.IsEmpty() && changes.IsEmpty() {
		return nil
	}

	data := &DependencyData{}
	if !derive.IsEmpty() {
		data.WhatChangesMe.Derive = derive
	}
	if !mutate.IsEmpty() {
		data.WhatChangesMe.Mutate = mutate
	}
	if !changes.IsEmpty() {
		data.WhatIChange.Mutate = changes
	}
	return data
}
