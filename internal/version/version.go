package version

import "fmt"

// These variables are set at build time via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Name is the program name reported in version strings and trace resources.
const Name = "claimhub"

// String returns the version string
func String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", Name, Version, shortCommit(), BuildTime)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
