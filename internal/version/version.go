// Package version exposes build and runtime identity for the postboard
// service. Build fields are injected with -ldflags; runtime fields are
// computed once per process.
package version

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// Populated at build time, for example:
//
//	go build -ldflags "-X postboard/internal/version.Version=v1.2.0 \
//	  -X postboard/internal/version.GitCommit=$(git rev-parse --short HEAD) \
//	  -X postboard/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info holds build metadata and per-process runtime identity.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once sync.Once
	info Info
)

// GetInfo returns the process identity. The instance ID is minted on first
// call and stays stable for the life of the process, so logs, traces, and
// rate store diagnostics from one replica correlate.
func GetInfo() Info {
	once.Do(func() {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		info = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			GoVersion:  runtime.Version(),
			InstanceID: uuid.New().String(),
			Hostname:   hostname,
		}
	})
	return info
}

// String formats the info for CLI output.
func (i Info) String() string {
	return fmt.Sprintf("postboard %s (commit %s, built %s, %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion)
}
