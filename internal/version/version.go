// Package version holds build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/MrSnakeDoc/pocket2drive/internal/version.Version=v0.1.0"
package version

import (
	"runtime"
)

var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)
