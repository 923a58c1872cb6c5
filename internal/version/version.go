// Package version carries build metadata injected with -ldflags.
package version

var (
	Commit = "dev"
	Date   = ""
)
