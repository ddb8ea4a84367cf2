package toolmesh

import "fmt"

// Version metadata. Override at build time, e.g.
//
//	go build -ldflags "-X github.com/toolmesh/toolmesh.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "v0.4.0"
	GitCommit = "unknown"
)

// GetVersion returns a human-readable version string.
func GetVersion() string {
	return fmt.Sprintf("toolmesh %s (%s)", Version, GitCommit)
}
