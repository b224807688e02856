// Package version holds build metadata, overridable with -ldflags.
package version

var (
	AppName = "botcmd"
	Version = "dev"
	Commit  = "none"
)

func String() string {
	return AppName + " " + Version + " (" + Commit + ")"
}
