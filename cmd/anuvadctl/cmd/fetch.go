package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/pkg/assetcache"
)

var fetchModel string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and cache the whisper and/or translator model artifacts",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchModel, "model", "all", "which artifact group to fetch: whisper, translator, or all")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cache, err := assetcache.NewDiskCache(config.Current.CacheDir)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch fetchModel {
	case "whisper":
		return fetchWhisper(ctx, cache)
	case "translator":
		return fetchTranslator(ctx, cache)
	case "all":
		if err := fetchWhisper(ctx, cache); err != nil {
			return err
		}
		return fetchTranslator(ctx, cache)
	default:
		return fmt.Errorf("unknown --model %q, want whisper, translator, or all", fetchModel)
	}
}

func fetchWhisper(ctx context.Context, cache *assetcache.DiskCache) error {
	urls := config.Current.WhisperURLs
	group := []string{urls.WeightsURL, urls.TokenizerURL, urls.ConfigURL, urls.MelFiltersURL}
	fmt.Println("fetching whisper artifacts...")
	_, err := cache.Download(ctx, group, progressPrinter("whisper"))
	fmt.Println()
	return err
}

func fetchTranslator(ctx context.Context, cache *assetcache.DiskCache) error {
	urls := config.Current.TranslatorURLs
	group := []string{urls.WeightsURL, urls.TokenizerURL}
	fmt.Println("fetching translator artifacts...")
	_, err := cache.Download(ctx, group, progressPrinter("translator"))
	fmt.Println()
	return err
}

func progressPrinter(label string) func(float64) {
	return func(fraction float64) {
		fmt.Printf("\r%s: %5.1f%%", label, fraction*100)
	}
}
