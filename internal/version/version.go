// Package version holds the build version, set via ldflags on release
// builds.
package version

// Version is the current build version.
var Version = "dev"
