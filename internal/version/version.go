// Package version reports build information.
//
// Values are set at build time:
//
//	go build -ldflags "-X github.com/codice/logout-devserver/internal/version.version=1.2.0 \
//	  -X github.com/codice/logout-devserver/internal/version.buildDate=2026-01-01T00:00:00Z \
//	  -X github.com/codice/logout-devserver/internal/version.gitCommit=abc123" ./cmd/logout-devserver
//
// Unset values fall back to the module build info embedded by the go tool.
package version

import (
	"runtime/debug"
	"sync"
)

var (
	version   = ""
	buildDate = ""
	gitCommit = ""
)

type Info struct {
	Version   string
	BuildDate string
	GitCommit string
}

var (
	once sync.Once
	info Info
)

// Get returns the build information
func Get() Info {
	once.Do(func() {
		info = resolve(version, buildDate, gitCommit, debug.ReadBuildInfo)
	})
	return info
}

func resolve(v, date, commit string, readBuildInfo func() (*debug.BuildInfo, bool)) Info {
	i := Info{Version: v, BuildDate: date, GitCommit: commit}

	if bi, ok := readBuildInfo(); ok {
		if i.Version == "" && bi.Main.Version != "" {
			i.Version = bi.Main.Version
		}
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if i.GitCommit == "" {
					i.GitCommit = setting.Value
				}
			case "vcs.time":
				if i.BuildDate == "" {
					i.BuildDate = setting.Value
				}
			}
		}
	}

	if i.Version == "" {
		i.Version = "dev"
	}
	if i.BuildDate == "" {
		i.BuildDate = "unknown"
	}
	if i.GitCommit == "" {
		i.GitCommit = "unknown"
	}
	return i
}
