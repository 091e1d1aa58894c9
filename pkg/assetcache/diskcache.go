//go:build !(js && wasm)

package assetcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/internal/logger"
	"github.com/tonybenoy/anuvad/pkg/apperrors"
)

const hotLayerSize = 4

// manifestEntry is one url -> local-blob-filename mapping persisted to disk.
type manifestEntry struct {
	URL      string `msgpack:"url"`
	Filename string `msgpack:"filename"`
}

// DiskCache is the host-side Cache backend: a gzip-compressed blob per URL
// under dir, indexed by a msgpack manifest, fronted by an in-memory LRU of
// decompressed bytes for repeat Get calls within one process.
type DiskCache struct {
	dir          string
	manifestPath string

	mu       sync.Mutex
	manifest map[string]string // url -> filename
	hot      *lru.Cache[string, []byte]
	client   *http.Client
}

// NewDiskCache opens (or creates) a disk cache rooted at dir, loading any
// existing manifest.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Asset(dir, "cache directory creation failed: %v", err)
	}
	hot, err := lru.New[string, []byte](hotLayerSize)
	if err != nil {
		return nil, apperrors.Asset(dir, "lru init failed: %v", err)
	}

	c := &DiskCache{
		dir:          dir,
		manifestPath: filepath.Join(dir, "manifest.msgpack"),
		manifest:     make(map[string]string),
		hot:          hot,
		client:       &http.Client{},
	}
	if err := c.loadManifest(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *DiskCache) loadManifest() error {
	data, err := os.ReadFile(c.manifestPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.Asset(c.manifestPath, "manifest read failed: %v", err)
	}
	var entries []manifestEntry
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return apperrors.Asset(c.manifestPath, "manifest parse failed: %v", err)
	}
	for _, e := range entries {
		c.manifest[e.URL] = e.Filename
	}
	return nil
}

func (c *DiskCache) saveManifest() error {
	entries := make([]manifestEntry, 0, len(c.manifest))
	for url, fn := range c.manifest {
		entries = append(entries, manifestEntry{URL: url, Filename: fn})
	}
	data, err := msgpack.Marshal(entries)
	if err != nil {
		return apperrors.Asset(c.manifestPath, "manifest encode failed: %v", err)
	}
	if err := os.WriteFile(c.manifestPath, data, 0o644); err != nil {
		return apperrors.Asset(c.manifestPath, "manifest write failed: %v", err)
	}
	return nil
}

func urlFilename(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:]) + ".gz"
}

// Get returns url's cached bytes, fetching and storing them on first use.
func (c *DiskCache) Get(ctx context.Context, url string) ([]byte, error) {
	c.mu.Lock()
	if data, ok := c.hot.Get(url); ok {
		c.mu.Unlock()
		return data, nil
	}
	filename, onDisk := c.manifest[url]
	c.mu.Unlock()

	if onDisk {
		data, err := c.readCompressed(filename)
		if err == nil {
			c.mu.Lock()
			c.hot.Add(url, data)
			c.mu.Unlock()
			return data, nil
		}
		logger.Warning(logger.CategoryCache, "cached blob for %s unreadable, refetching: %v", url, err)
	}

	data, err := c.fetchOne(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if err := c.store(url, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *DiskCache) readCompressed(filename string) ([]byte, error) {
	f, err := os.Open(filepath.Join(c.dir, filename))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

func (c *DiskCache) store(url string, data []byte) error {
	filename := urlFilename(url)
	f, err := os.Create(filepath.Join(c.dir, filename))
	if err != nil {
		return apperrors.Asset(url, "cache blob create failed: %v", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		return apperrors.Asset(url, "cache blob write failed: %v", err)
	}
	if err := gz.Close(); err != nil {
		return apperrors.Asset(url, "cache blob flush failed: %v", err)
	}

	c.mu.Lock()
	c.manifest[url] = filename
	c.hot.Add(url, data)
	err = c.saveManifest()
	c.mu.Unlock()
	return err
}

// progressWriter reports cumulative bytes written against a known total,
// the teacher's download-progress-tracker idiom adapted to fractional
// progress instead of a byte count.
type progressWriter struct {
	written int64
	total   int64
	onChunk func(fraction float64)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.onChunk != nil && w.total > 0 {
		w.onChunk(float64(w.written) / float64(w.total))
	}
	return len(p), nil
}

// fetchOne performs the streaming HTTP GET described in spec §4.A's "Fetch
// protocol": progress is received/content_length when known, else 0 until
// a terminal 1.0 on completion.
func (c *DiskCache) fetchOne(ctx context.Context, url string, onFraction func(float64)) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Asset(url, "request construction failed: %v", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Asset(url, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Asset(url, "unexpected status %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	pw := &progressWriter{total: resp.ContentLength, onChunk: onFraction}
	if _, err := io.Copy(&buf, io.TeeReader(resp.Body, pw)); err != nil {
		return nil, apperrors.Asset(url, "body read failed: %v", err)
	}
	if onFraction != nil {
		onFraction(1.0)
	}
	return buf.Bytes(), nil
}

// Download fetches urls in order, reporting combined progress via the
// (i + p_i)/N formula.
func (c *DiskCache) Download(ctx context.Context, urls []string, onProgress func(float64)) ([][]byte, error) {
	if err := c.preflightMemoryCheck(urls); err != nil {
		logger.Warning(logger.CategoryCache, "preflight memory check: %v", err)
	}

	results := make([][]byte, len(urls))
	for i, url := range urls {
		data, err := c.cachedOrFetch(ctx, url, func(fraction float64) {
			if onProgress != nil {
				onProgress(combinedProgress(i, len(urls), fraction))
			}
		})
		if err != nil {
			return nil, err
		}
		results[i] = data
		if onProgress != nil {
			onProgress(combinedProgress(i+1, len(urls), 0))
		}
	}
	if onProgress != nil {
		onProgress(1.0)
	}
	return results, nil
}

func (c *DiskCache) cachedOrFetch(ctx context.Context, url string, onFraction func(float64)) ([]byte, error) {
	c.mu.Lock()
	if data, ok := c.hot.Get(url); ok {
		c.mu.Unlock()
		if onFraction != nil {
			onFraction(1.0)
		}
		return data, nil
	}
	filename, onDisk := c.manifest[url]
	c.mu.Unlock()

	if onDisk {
		if data, err := c.readCompressed(filename); err == nil {
			c.mu.Lock()
			c.hot.Add(url, data)
			c.mu.Unlock()
			if onFraction != nil {
				onFraction(1.0)
			}
			return data, nil
		}
	}

	data, err := c.fetchOne(ctx, url, onFraction)
	if err != nil {
		return nil, err
	}
	if err := c.store(url, data); err != nil {
		return nil, err
	}
	return data, nil
}

// preflightMemoryCheck warns when available host memory looks too small
// for the group being downloaded, a precaution adapted from the same
// pattern in the teacher's pack (preflight checks before large transfers).
func (c *DiskCache) preflightMemoryCheck(urls []string) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return err
	}
	if vm.Available < uint64(len(urls))*config.LowMemoryWarningBytes {
		logger.Warning(logger.CategoryCache, "available memory %d bytes may be insufficient for %d assets", vm.Available, len(urls))
	}
	return nil
}

// RequestPersistence ensures the cache directory exists and is writable;
// the host filesystem has no browser-style eviction-under-pressure API to
// opt out of, so this call degrades to a writability probe.
func (c *DiskCache) RequestPersistence(ctx context.Context) error {
	probe := filepath.Join(c.dir, ".persist-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return apperrors.Asset(c.dir, "persistent storage probe failed: %v", err)
	}
	return os.Remove(probe)
}
