// Command anuvadctl is the host-native companion to the anuvad wasm bundle:
// it exercises the same core packages (assetcache, mel, whisperdriver,
// translator) outside a browser for prefetching models, replaying a WAV
// file through the pipeline, and running a local dev bridge.
package main

import (
	"fmt"
	"os"

	"github.com/tonybenoy/anuvad/cmd/anuvadctl/cmd"
	"github.com/tonybenoy/anuvad/internal/logger"
)

func main() {
	logger.Initialize()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "anuvadctl:", err)
		os.Exit(1)
	}
}
