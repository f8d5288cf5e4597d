package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/securebank/securebank-init/internal/cli"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "dist/man", "output directory for generated man pages")
	flag.Parse()

	err := cli.GenerateManPages(outDir, cli.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "securebank-init-man: %v\n", err)
		os.Exit(1)
	}
}
