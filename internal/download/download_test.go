package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("file contents"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "dirs", "file.bin")
	d := New(nil)
	if err := d.File(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("File returned error: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Expected destination to exist: %v", err)
	}
	if string(got) != "file contents" {
		t.Errorf("Unexpected contents %q", got)
	}
}

func TestFileIdempotent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("v1"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "file.bin")
	d := New(nil)

	if err := d.File(context.Background(), srv.URL, dest); err != nil {
		t.Fatal(err)
	}
	if err := d.File(context.Background(), srv.URL, dest); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected exactly 1 network fetch, got %d", got)
	}
}

func TestFileBrotli(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept-Encoding"); got != "gzip, br" {
			t.Errorf("Expected explicit Accept-Encoding header, got %q", got)
		}
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte("compressed page body"))
		bw.Close()
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "page.html")
	d := New(nil)
	if err := d.File(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("File returned error: %v", err)
	}

	got, _ := os.ReadFile(dest)
	if string(got) != "compressed page body" {
		t.Errorf("Expected decoded brotli body, got %q", got)
	}
}

func TestFileErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "missing.bin")
	d := New(nil)
	if err := d.File(context.Background(), srv.URL, dest); err == nil {
		t.Fatal("Expected error for 404 response")
	}

	if _, err := os.Stat(dest); err == nil {
		t.Error("Expected no destination file after failed download")
	}
}
