// Package version holds the Compass build version.
package version

// Version is the current release. Release builds override it via
// -ldflags "-X github.com/hartfield/compass/internal/version.Version=...".
var Version = "0.3.0"
