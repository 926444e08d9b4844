// Package version exposes build-time version information.
// The Git* variables are injected at build time via -ldflags.
package version

import "runtime"

var (
	// GitRelease is the release tag (e.g. "v0.3.1").
	GitRelease = "dev"

	// GitCommit is the commit hash the binary was built from.
	GitCommit = "unknown"

	// GitCommitDate is the commit date.
	GitCommitDate = "unknown"

	// GoInfo is the Go toolchain used for the build.
	GoInfo = runtime.Version()
)
