//go:build wasm

package internal

import "sync"

var once sync.Once
var globalRuntime *Runtime

func GetRuntime() *Runtime {
	once.Do(func() {
		globalRuntime = NewRuntime(defaultOptions()...)
	})

	return globalRuntime
}

func DropRuntime() {}

// wasm runs a single thread, every callback is on the owner.
func getGID() int64 {
	return 0
}
