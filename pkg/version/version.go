// Package version holds the build version, overridden at link time with
// -ldflags "-X github.com/vanderheijden86/tally/pkg/version.Version=v1.2.3".
package version

// Version is the released version of tally.
var Version = "v0.1.0-dev"
