package download

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"

	"canvas-export/internal/httpx"
)

// Downloader streams remote binary resources to local paths. Shared freely
// across workers; the client carries the session cookies read-only and every
// call targets its own destination path.
type Downloader struct {
	http *resty.Client
}

func New(cookies []*http.Cookie) *Downloader {
	client := resty.New().
		SetCookies(cookies).
		// Declared explicitly so the transport leaves decoding to us; the
		// server may answer brotli for large HTML bodies.
		SetHeader("Accept-Encoding", "gzip, br").
		SetTimeout(10 * time.Minute)

	return &Downloader{http: client}
}

// File fetches url into dest, creating parent directories as needed. An
// existing destination skips the fetch entirely; there is no freshness
// check, so a changed remote file with an unchanged name stays stale.
func (d *Downloader) File(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("download: create %s: %w", filepath.Dir(dest), err)
	}

	res, err := d.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return fmt.Errorf("download: fetch %s: %w", url, err)
	}
	raw := res.RawBody()
	defer raw.Close()

	if !httpx.Success(res.StatusCode()) {
		body, _ := io.ReadAll(io.LimitReader(raw, 4096))
		return httpx.NewError(http.MethodGet, url, res.StatusCode(), body)
	}

	var reader io.Reader = raw
	switch res.Header().Get("Content-Encoding") {
	case "br":
		reader = brotli.NewReader(raw)
	case "gzip":
		gz, err := gzip.NewReader(raw)
		if err != nil {
			return fmt.Errorf("download: gzip %s: %w", url, err)
		}
		defer gz.Close()
		reader = gz
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("download: create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		// Drop the partial file so a rerun does not mistake it for a
		// completed download.
		os.Remove(dest)
		return fmt.Errorf("download: write %s: %w", dest, err)
	}
	return out.Close()
}
