//go:build purego || !cgo_sqlite
// +build purego !cgo_sqlite

package index

// Compiled when building without CGO. The pure Go driver needs no C
// compiler and cross-compiles anywhere.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver the registry opens
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
