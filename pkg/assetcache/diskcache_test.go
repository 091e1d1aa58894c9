//go:build !(js && wasm)

package assetcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetIsIdempotentAndNetworkFree(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("model-bytes"))
	}))
	defer srv.Close()

	c, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache returned error: %v", err)
	}

	first, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("first Get returned error: %v", err)
	}
	second, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("second Get returned error: %v", err)
	}

	if string(first) != "model-bytes" || string(second) != "model-bytes" {
		t.Fatalf("unexpected bytes: %q / %q", first, second)
	}
	if hits != 1 {
		t.Fatalf("expected exactly one network hit, got %d", hits)
	}
}

func TestGetSurvivesHotCacheEviction(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("model-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c1, err := NewDiskCache(dir)
	if err != nil {
		t.Fatalf("NewDiskCache returned error: %v", err)
	}
	if _, err := c1.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	c2, err := NewDiskCache(dir)
	if err != nil {
		t.Fatalf("NewDiskCache (reopen) returned error: %v", err)
	}
	data, err := c2.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get after reopen returned error: %v", err)
	}
	if string(data) != "model-bytes" {
		t.Fatalf("unexpected bytes after reopen: %q", data)
	}
	if hits != 1 {
		t.Fatalf("expected manifest-backed reopen to avoid a second network hit, got %d hits", hits)
	}
}

func TestDownloadProgressIsMonotonicAndTerminalOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("abc"))
	}))
	defer srv.Close()

	c, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache returned error: %v", err)
	}

	var progressValues []float64
	_, err = c.Download(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"}, func(p float64) {
		progressValues = append(progressValues, p)
	})
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	if len(progressValues) == 0 {
		t.Fatal("expected at least one progress callback")
	}
	for i := 1; i < len(progressValues); i++ {
		if progressValues[i] < progressValues[i-1] {
			t.Fatalf("progress decreased: %v then %v", progressValues[i-1], progressValues[i])
		}
	}
	last := progressValues[len(progressValues)-1]
	if last != 1.0 {
		t.Fatalf("expected terminal progress 1.0, got %v", last)
	}
}

func TestRequestPersistence(t *testing.T) {
	c, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache returned error: %v", err)
	}
	if err := c.RequestPersistence(context.Background()); err != nil {
		t.Fatalf("RequestPersistence returned error: %v", err)
	}
}
