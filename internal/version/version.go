// Package version exposes build metadata injected through ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set at build time, for example:
//
//	go build -ldflags "-X github.com/shockz09/uni-cli-sub002/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Short returns the one-line form used in logs, for example
// "unicli 0.1.0 (1a2b3c4d)". Local builds without an injected commit
// show just the version.
func Short() string {
	if Commit == "unknown" {
		return fmt.Sprintf("unicli %s", Version)
	}
	commit := Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	return fmt.Sprintf("unicli %s (%s)", Version, commit)
}

// Detailed returns the multi-line form printed by --version.
func Detailed() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", Short())
	fmt.Fprintf(&b, "Commit:     %s\n", Commit)
	fmt.Fprintf(&b, "Built:      %s\n", BuildDate)
	fmt.Fprintf(&b, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(&b, "Platform:   %s/%s", runtime.GOOS, runtime.GOARCH)
	return b.String()
}
