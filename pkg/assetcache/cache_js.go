//go:build js && wasm

package assetcache

import (
	"context"
	"syscall/js"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/pkg/apperrors"
)

// BrowserCache backs Cache with the window.caches Cache Storage API, the
// wasm build's only offline-capable persistence mechanism.
type BrowserCache struct {
	namespace string
}

// NewBrowserCache opens (lazily, per-call) the named Cache Storage bucket.
func NewBrowserCache() *BrowserCache {
	return &BrowserCache{namespace: config.CacheNamespace}
}

func (c *BrowserCache) openCache() (js.Value, error) {
	caches := js.Global().Get("caches")
	if caches.IsUndefined() {
		return js.Value{}, apperrors.Asset(c.namespace, "window.caches is unavailable")
	}
	return awaitJS(caches.Call("open", c.namespace))
}

// awaitJS blocks until a JS Promise settles, returning its resolved value or
// a structured AssetError built from the rejection reason.
func awaitJS(p js.Value) (js.Value, error) {
	result := make(chan js.Value, 1)
	failure := make(chan error, 1)
	var thenFn, catchFn js.Func
	thenFn = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		thenFn.Release()
		catchFn.Release()
		if len(args) > 0 {
			result <- args[0]
		} else {
			result <- js.Undefined()
		}
		return nil
	})
	catchFn = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		thenFn.Release()
		catchFn.Release()
		msg := "promise rejected"
		if len(args) > 0 && args[0].Type() == js.TypeObject {
			msg = args[0].Get("message").String()
		}
		failure <- apperrors.Asset("", "%s", msg)
		return nil
	})
	p.Call("then", thenFn).Call("catch", catchFn)

	select {
	case v := <-result:
		return v, nil
	case err := <-failure:
		return js.Value{}, err
	}
}

// Get returns url's cached bytes, fetching and storing them on a cache miss.
func (c *BrowserCache) Get(ctx context.Context, url string) ([]byte, error) {
	cache, err := c.openCache()
	if err != nil {
		return nil, err
	}

	match, err := awaitJS(cache.Call("match", url))
	if err == nil && !match.IsUndefined() && !match.IsNull() {
		return c.readResponseBody(match)
	}

	data, err := c.fetchOne(url, nil)
	if err != nil {
		return nil, err
	}
	if err := c.put(cache, url, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *BrowserCache) readResponseBody(resp js.Value) ([]byte, error) {
	bufVal, err := awaitJS(resp.Call("arrayBuffer"))
	if err != nil {
		return nil, err
	}
	return jsArrayBufferToBytes(bufVal), nil
}

func jsArrayBufferToBytes(arrayBuffer js.Value) []byte {
	uint8 := js.Global().Get("Uint8Array").New(arrayBuffer)
	n := uint8.Get("length").Int()
	out := make([]byte, n)
	js.CopyBytesToGo(out, uint8)
	return out
}

func (c *BrowserCache) put(cache js.Value, url string, data []byte) error {
	jsBytes := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(jsBytes, data)
	body := js.Global().Get("Blob").New(js.ValueOf([]interface{}{jsBytes}))
	response := js.Global().Get("Response").New(body)
	_, err := awaitJS(cache.Call("put", url, response))
	return err
}

// fetchOne issues window.fetch and reads the whole response body in one
// arrayBuffer call; the body is not read in chunks and no progress is
// reported while the transfer runs. After the read it reports
// received/Content-Length once when the length is known, then 1.0.
func (c *BrowserCache) fetchOne(url string, onFraction func(float64)) ([]byte, error) {
	resp, err := awaitJS(js.Global().Call("fetch", url))
	if err != nil {
		return nil, apperrors.Asset(url, "fetch failed: %v", err)
	}
	if !resp.Get("ok").Bool() {
		return nil, apperrors.Asset(url, "unexpected status %d", resp.Get("status").Int())
	}

	contentLength := resp.Get("headers").Call("get", "content-length")
	total := -1
	if contentLength.Type() == js.TypeString {
		if n, err := parseContentLength(contentLength.String()); err == nil {
			total = n
		}
	}

	bufVal, err := awaitJS(resp.Call("arrayBuffer"))
	if err != nil {
		return nil, apperrors.Asset(url, "body read failed: %v", err)
	}
	data := jsArrayBufferToBytes(bufVal)

	if onFraction != nil {
		if total > 0 {
			onFraction(float64(len(data)) / float64(total))
		}
		onFraction(1.0)
	}
	return data, nil
}

func parseContentLength(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, apperrors.Protocol("invalid content-length %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// Download fetches urls in order, reporting combined progress.
func (c *BrowserCache) Download(ctx context.Context, urls []string, onProgress func(float64)) ([][]byte, error) {
	cache, err := c.openCache()
	if err != nil {
		return nil, err
	}

	results := make([][]byte, len(urls))
	for i, url := range urls {
		match, matchErr := awaitJS(cache.Call("match", url))
		var data []byte
		if matchErr == nil && !match.IsUndefined() && !match.IsNull() {
			data, err = c.readResponseBody(match)
			if err != nil {
				return nil, err
			}
			if onProgress != nil {
				onProgress(combinedProgress(i, len(urls), 1.0))
			}
		} else {
			data, err = c.fetchOne(url, func(fraction float64) {
				if onProgress != nil {
					onProgress(combinedProgress(i, len(urls), fraction))
				}
			})
			if err != nil {
				return nil, err
			}
			if err := c.put(cache, url, data); err != nil {
				return nil, err
			}
		}
		results[i] = data
	}
	if onProgress != nil {
		onProgress(1.0)
	}
	return results, nil
}

// RequestPersistence asks navigator.storage.persist() to opt the origin out
// of eviction-under-pressure (spec §4.A).
func (c *BrowserCache) RequestPersistence(ctx context.Context) error {
	storage := js.Global().Get("navigator").Get("storage")
	if storage.IsUndefined() {
		return nil
	}
	persist := storage.Get("persist")
	if persist.Type() != js.TypeFunction {
		return nil
	}
	_, err := awaitJS(storage.Call("persist"))
	return err
}
