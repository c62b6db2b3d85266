package version

import (
	_ "embed"
	"strings"
)

// The VERSION file is embedded at compile time so both the CLI and the
// web server report the same version number.

//go:embed VERSION
var versionRaw string

// Version is the current release, trimmed of whitespace.
var Version = strings.TrimSpace(versionRaw)

// Get returns the current version string.
func Get() string {
	return Version
}
