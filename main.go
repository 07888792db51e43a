// Package main is the entry point of the fragmeter CLI.
package main

import (
	"os"

	"github.com/huangsam/fragmeter/cmd"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/iocache"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and returns the exit code, so that deferred cleanup
// always happens before the process exits.
func run() int {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			contract.LogWarn("Failed to stop profiling", err)
		}
	}()

	if err := cmd.Execute(); err != nil {
		contract.LogWarn("Command failed", err)
		return 1
	}
	return 0
}
