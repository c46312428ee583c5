// Package version exposes build metadata for the musicore-playback binary.
package version

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/aylabs/musicore-playback/pkg/version.Version=v1.2.0"
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the Git commit the binary was built from.
	Commit = "none"

	// Date is the build timestamp in RFC 3339 form.
	Date = "unknown"
)
