package version

import "fmt"

// values are set via ldflags at build time.
var (
	Version     = "dev"
	GitCommit   = "none"
	BuildDate   = "unknown"
	FullVersion = fmt.Sprintf("%s (%s) %s", Version, GitCommit, BuildDate)
)
