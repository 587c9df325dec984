package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Release builds set these with ldflags:
//
//	go build -ldflags="-X github.com/muurk/fwupdater/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/fwupdater/internal/version.Commit=abc123" \
//	    ./cmd/fwupdater
//
// Otherwise they come from the embedded build info, then from a dev stamp.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fromBuildInfo(info)
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills whichever of Version and Commit are still empty.
// `go install module@vX` records the module version; a build inside a git
// checkout records the VCS revision and time instead.
func fromBuildInfo(info *debug.BuildInfo) {
	vcs := make(map[string]string)
	for _, s := range info.Settings {
		vcs[s.Key] = s.Value
	}

	if Commit == "" {
		if rev := vcs["vcs.revision"]; rev != "" {
			Commit = shortRevision(rev, vcs["vcs.modified"] == "true")
		}
	}

	if Version != "" {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		Version = v
		return
	}
	if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
		Version = "dev-" + t.Format("20060102")
	}
}

func shortRevision(rev string, dirty bool) string {
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}

// Details returns the version fields shown by the version command
func Details() map[string]string {
	return map[string]string{
		"Version":  Version,
		"Commit":   Commit,
		"Go":       runtime.Version(),
		"Platform": fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
