//go:build sqlite_cgo
// +build sqlite_cgo

package storage

// This file is compiled when building with CGO and the sqlite_cgo tag.
// FTS5 must be compiled into the driver as well.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)

// readOnlyDSN opens path through a URI in read-only mode with query_only set on
// every pooled connection.
func readOnlyDSN(path string) string {
	return "file:" + escapeURIPath(path) + "?" + url.Values{
		"mode":        {"ro"},
		"_query_only": {"1"},
	}.Encode()
}
