// Package version holds build metadata injected with -ldflags.
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// String formats the build metadata for the version command and /healthz.
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}
