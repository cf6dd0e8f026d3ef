// Package misc keeps build time information.
package misc

// Set by linker flags at build time.
var (
	appName = "epubres"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
