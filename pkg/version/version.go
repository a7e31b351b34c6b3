// Package version exposes build-time metadata, injected via -ldflags at
// build time. When built without ldflags (for example via `go run`) the
// fields are empty and Version reports "?".
package version

import (
	"os"
	"path/filepath"
	"runtime"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	GitSource   string
	GitTag      string
	GitBranch   string
	GitHash     string
	GoBuildTime string
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ExecName returns the base name of the running executable.
func ExecName() string {
	exe, err := os.Executable()
	if err != nil {
		return "minionctl"
	}
	return filepath.Base(exe)
}

// Version returns the git tag this binary was built from, or "?" if unset.
func Version() string {
	return orUnknown(GitTag)
}

// Compiler returns the Go toolchain version this binary was built with.
func Compiler() string {
	return runtime.Version()
}

func orUnknown(v string) string {
	if v == "" {
		return "?"
	}
	return v
}
