// Package buildinfo exposes build identity stamped via -ldflags, falling back
// to CI environment variables when the binary was not stamped.
package buildinfo

import "os"

var (
	Version = "dev"
	Commit  = ""
)

// CommitSHA returns the commit identifier for reports and logs.
func CommitSHA() string {
	if Commit != "" {
		return Commit
	}
	if sha := os.Getenv("GITHUB_SHA"); sha != "" {
		return sha
	}
	return "unknown"
}
