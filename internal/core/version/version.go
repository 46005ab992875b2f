// Package version holds build information set through -ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/guiyumin/sharetext/internal/core/version.Version=1.2.0"
var Version = "dev"

// Commit is the git revision the binary was built from
var Commit = ""
