// Package build exposes build-time metadata injected via ldflags.
package build

import "fmt"

// Version, Commit, and Branch are set at build time by:
//
//	-ldflags "-X github.com/joestump/fera-prompt/internal/build.Version=... ..."
var (
	Version = "dev"
	Commit  = "unknown"
	Branch  = "unknown"
)

// String renders the build metadata on a single line.
func String() string {
	return fmt.Sprintf("fera-prompt %s (commit %s, branch %s)", Version, Commit, Branch)
}
