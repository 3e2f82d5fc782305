// Package buildinfo holds version information stamped in at link time:
//
//	go build -ldflags "-X github.com/matzehuels/httpsvendor/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/httpsvendor/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/httpsvendor/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

// Set via -ldflags -X.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the version, commit and build date on separate lines.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template is the cobra version template: the program name, then String.
func Template() string {
	return "{{.Name}} " + String() + "\n"
}

// UserAgent is the default User-Agent for module requests.
func UserAgent() string {
	return "httpsvendor/" + Version
}
