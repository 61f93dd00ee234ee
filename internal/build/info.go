package build

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "embed"
)

// Name is the program name used in the user agent and the version output.
const Name = "novelstudio"

//go:embed VERSION
var rawVersion []byte

// Set with -ldflags "-X" by release builds.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

var (
	GoVersion = runtime.Version()
	Platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	StartTime = time.Now()
)

//nolint:gochecknoinits // init version.
func init() {
	if Version == "" {
		Version = strings.TrimSpace(string(rawVersion))
	}
}

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Uptime    string `json:"uptime"`
}

func GetBuildInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  Platform,
		Uptime:    time.Since(StartTime).Truncate(time.Second).String(),
	}
}

// UserAgent identifies outbound generation requests.
func UserAgent() string {
	if Commit == "" {
		return fmt.Sprintf("%s/%s", Name, Version)
	}

	return fmt.Sprintf("%s/%s (%s)", Name, Version, shortCommit(Commit))
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}

func (i Info) String() string {
	lines := []string{
		fmt.Sprintf("%s %s", Name, i.Version),
	}

	if i.Commit != "" {
		lines = append(lines, "Commit: "+i.Commit)
	}

	if i.BuildTime != "" {
		lines = append(lines, "Build Time: "+i.BuildTime)
	}

	lines = append(lines,
		"Go Version: "+i.GoVersion,
		"Platform: "+i.Platform,
		"Uptime: "+i.Uptime,
	)

	return strings.Join(lines, "\n")
}
