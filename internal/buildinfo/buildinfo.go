// Package buildinfo carries the version metadata stamped into the
// itinerary API binary, surfaced on /debug/info.
package buildinfo

// Overridden via -ldflags at release build.
var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"service": "parkday-api",
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
}
