// Package buildinfo stores build-time metadata shared across packages.
package buildinfo

// Version and Commit are set via ldflags during release builds. A source
// build reports "dev"/"none", which disables the self-update paths.
var (
	Version = "dev"
	Commit  = "none"
)

// UserAgent identifies this binary to the generation backend and the
// identity provider.
func UserAgent() string {
	return "forge/" + Version
}
