// Package assetcache makes large model artifacts available as contiguous
// byte buffers, offline-capable, with progress (spec §4.A). The wasm build
// backs Cache with the browser's Cache Storage API via syscall/js
// (cache_js.go); the host build (cmd/anuvadctl) backs it with an
// LRU-fronted, gzip-compressed, msgpack-manifest disk store (diskcache.go).
package assetcache

import "context"

// Cache is the shape both backends satisfy.
type Cache interface {
	// Get returns the cached bytes for url if present; otherwise it
	// fetches, stores, and returns them.
	Get(ctx context.Context, url string) ([]byte, error)

	// Download fetches a group of urls in order, reporting combined
	// progress as (i + p_i) / N per spec §4.A.
	Download(ctx context.Context, urls []string, onProgress func(float64)) ([][]byte, error)

	// RequestPersistence asks the host to promise not to evict the cache
	// under storage pressure, called once before the first download
	// (spec §4.A "Before the first download, request persistent storage").
	RequestPersistence(ctx context.Context) error
}

// combinedProgress implements spec §4.A's "(i + p_i)/N" formula for a group
// of n urls, where i is the zero-based index of the artifact currently
// downloading and fraction is that artifact's own progress in [0,1].
func combinedProgress(i, n int, fraction float64) float64 {
	if n <= 0 {
		return 1.0
	}
	return (float64(i) + fraction) / float64(n)
}
