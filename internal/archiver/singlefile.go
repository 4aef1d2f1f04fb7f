package archiver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	DefaultBinaryPath  = "./node_modules/single-file/cli/single-file"
	DefaultBrowserPath = "/usr/bin/chromium-browser"
)

// SingleFile shells out to the single-file CLI to render one URL into one
// self-contained HTML file, authenticated with the browser's cookie file.
// Archiving failures are never fatal to an export; callers log and move on.
type SingleFile struct {
	// NodePath runs the CLI ("node" unless overridden, mostly for tests).
	NodePath    string
	BinaryPath  string
	BrowserPath string
	CookiesPath string
}

func New(cookiesPath string) *SingleFile {
	return &SingleFile{
		NodePath:    "node",
		BinaryPath:  DefaultBinaryPath,
		BrowserPath: DefaultBrowserPath,
		CookiesPath: cookiesPath,
	}
}

// DownloadPage archives url into dir/filename. If the destination already
// exists the call is a no-op; presence is the only cache check, content
// freshness is never verified.
func (s *SingleFile) DownloadPage(ctx context.Context, url, dir, filename string) error {
	dest := filepath.Join(dir, filename)
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("archiver: create %s: %w", dir, err)
	}

	cmd := exec.CommandContext(ctx, s.NodePath, s.args(url, dir, filename)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("archiver: single-file failed for %s: %w (output: %s)", url, err, firstLine(out))
	}
	return nil
}

func (s *SingleFile) args(url, dir, filename string) []string {
	args := []string{
		s.BinaryPath,
		"--browser-executable-path=" + s.BrowserPath,
		"--browser-cookies-file=" + s.CookiesPath,
		"--output-directory=" + dir,
		url,
	}
	if filename != "" {
		args = append(args, "--filename-template="+filename)
	}
	return args
}

func firstLine(out []byte) string {
	for i, b := range out {
		if b == '\n' {
			return string(out[:i])
		}
	}
	return string(out)
}
