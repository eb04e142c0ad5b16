// Package version provides build version information for the fnkit
// library.
//
// Version, git commit, and build time are set at compile time via
// -ldflags:
//
//	go build -ldflags "-X github.com/fnkit/fnkit/version.Version=1.0.0"
//
// When they are not set, values are recovered from the binary's embedded
// build info where possible.
package version
