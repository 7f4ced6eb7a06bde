// Package kv provides the synchronous key-value substrates the session
// history is persisted in.
package kv

import (
	"fmt"
	"io"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backend is a substrate that can be closed when the host shuts down.
type Backend interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	io.Closer
}

// Open returns the substrate named by backend.
func Open(backend, path string) (Backend, error) {
	switch backend {
	case BackendFile, "":
		return OpenFile(path)
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
