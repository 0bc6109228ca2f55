//go:build !wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

var runtimes sync.Map

// GetRuntime returns the runtime of the calling goroutine, creating it on first use.
func GetRuntime() *Runtime {
	gid := getGID()

	if r, ok := runtimes.Load(gid); ok {
		return r.(*Runtime)
	}

	r := NewRuntime(defaultOptions()...)
	runtimes.Store(gid, r)
	return r
}

// DropRuntime closes and forgets the runtime of the calling goroutine.
func DropRuntime() {
	if r, ok := runtimes.LoadAndDelete(getGID()); ok {
		r.(*Runtime).Close()
	}
}

func getGID() int64 {
	return goid.Get()
}
