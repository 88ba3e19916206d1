// Package build exposes version information stamped at compile time.
package build

import (
	"fmt"
	"runtime"
	"strings"

	_ "embed"
)

//go:embed VERSION
var rawVersion []byte

// Set via -ldflags by the release pipeline; the VERSION file covers local
// builds.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
	GoVersion = runtime.Version()
	Platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
)

//nolint:gochecknoinits // init version.
func init() {
	if Version == "" {
		Version = strings.TrimSpace(string(rawVersion))
	}
}

// Info is the build metadata reported by the version subcommand.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetBuildInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  Platform,
	}
}

func (i Info) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("version: %s\n", i.Version))

	if i.Commit != "" {
		sb.WriteString(fmt.Sprintf("commit: %s\n", i.Commit))
	}

	if i.BuildTime != "" {
		sb.WriteString(fmt.Sprintf("built: %s\n", i.BuildTime))
	}

	sb.WriteString(fmt.Sprintf("go: %s\n", i.GoVersion))
	sb.WriteString(fmt.Sprintf("platform: %s\n", i.Platform))

	return sb.String()
}
