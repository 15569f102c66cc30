package main

import (
	"os"

	"github.com/ramanasai/brain/cmd"
	"github.com/ramanasai/brain/internal/version"
)

// Build metadata injected by goreleaser or makefile
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

func init() {
	version.Version = buildVersion
	version.Commit = buildCommit
	version.Date = buildDate
}

func main() { os.Exit(cmd.Execute()) }
