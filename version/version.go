package version

import "fmt"

// values are set via ldflags on release builds
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	FullVersion = computeFullVersion()
)

func computeFullVersion() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}
