package mappers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"canvas-export/internal/providers/canvas"
)

// ExtractFileEndpoints pulls the API endpoints of files referenced inside an
// HTML body. The frontend tags embedded file links with
// data-api-returntype="File" and carries the API URL in data-api-endpoint.
func ExtractFileEndpoints(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var endpoints []string
	seen := map[string]bool{}
	doc.Find(`a[data-api-returntype="File"]`).Each(func(_ int, sel *goquery.Selection) {
		endpoint, ok := sel.Attr("data-api-endpoint")
		if !ok || endpoint == "" || seen[endpoint] {
			return
		}
		seen[endpoint] = true
		endpoints = append(endpoints, endpoint)
	})
	return endpoints
}

// EmbeddedFiles resolves the files referenced by an HTML body. Failed
// lookups are logged and skipped; the body itself is never the problem.
func (m *Mapper) EmbeddedFiles(ctx context.Context, html string) []canvas.File {
	var files []canvas.File
	for _, endpoint := range ExtractFileEndpoints(html) {
		file, err := m.Client.GetFileByEndpoint(ctx, endpoint)
		if err != nil {
			slog.Warn("skipping embedded file", "endpoint", endpoint, "error", err)
			continue
		}
		files = append(files, file)
	}
	return files
}
