// Package cmd defines anuvadctl's cobra command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tonybenoy/anuvad/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "anuvadctl",
	Short: "Host-native companion CLI for the anuvad live transcription/translation pipeline",
	Long: `anuvadctl drives the same transcription and translation core the
browser bundle runs, outside a browser: prefetching and caching model
artifacts, replaying a WAV file through the pipeline, and hosting a local
websocket dev bridge for the wasm build to connect to during development.`,
}

// Execute runs the command tree, returning any error for main to report.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&config.Current.CacheDir, "cache-dir", config.Current.CacheDir, "model asset cache directory")
	rootCmd.PersistentFlags().StringVar(&config.Current.BridgeAddr, "bridge-addr", config.Current.BridgeAddr, "dev bridge listen/dial address")
}
