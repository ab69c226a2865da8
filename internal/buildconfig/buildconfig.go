package buildconfig

import "fmt"

// Build-time variables injected via ldflags, e.g.
// -X github.com/Harshitk-cp/balancereports/internal/buildconfig.version=v1.2.0
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date,omitempty"`
}

func Get() Info {
	return Info{Version: version, Commit: commit, BuildDate: buildDate}
}

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}

func (i Info) String() string {
	if i.BuildDate == "" {
		return fmt.Sprintf("%s (%s)", i.Version, i.Commit)
	}
	return fmt.Sprintf("%s (%s, built %s)", i.Version, i.Commit, i.BuildDate)
}
