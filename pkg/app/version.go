package app

import "runtime/debug"

// Version is set at link time with -ldflags "-X github.com/japaniel/pera/pkg/app.Version=...".
var Version = ""

// BuildVersion returns Version, or the module version and VCS revision
// recorded in the binary, or "dev".
func BuildVersion() string {
	if Version != "" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	v := info.Main.Version
	if v == "" || v == "(devel)" {
		v = "dev"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return v + "+" + s.Value[:7]
		}
	}
	return v
}
