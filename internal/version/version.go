package version

// Version is stamped at build time:
// -ldflags "-X github.com/rxtech-lab/argo-backtest/internal/version.Version=v1.2.3"
// "main" marks a development build.
var Version = "main"

// GetVersion returns the engine version recorded in result artifacts.
func GetVersion() string {
	return Version
}
