package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Credentials mirrors the credentials.yaml file. Key names match the file
// format used by the browser-export workflow, so they stay uppercase.
type Credentials struct {
	APIURL      string `yaml:"API_URL"`
	APIKey      string `yaml:"API_KEY"`
	UserID      int    `yaml:"USER_ID"`
	CookiesPath string `yaml:"COOKIES_PATH"`

	CoursesToSkip []int `yaml:"COURSES_TO_SKIP"`
}

// Config is the resolved run configuration. Built once in main and passed
// down explicitly; nothing in this package is global.
type Config struct {
	APIURL      string
	APIKey      string
	UserID      int
	CookiesPath string

	OutputDir string

	// Term filter; empty means all terms.
	Term string

	// Course IDs that are never exported.
	CoursesToSkip map[int]bool

	// Max PATH length is 260 characters on Windows. 70 is an estimate for a
	// reasonable max folder name to stay under that limit. Applies to
	// modules, assignments, announcements and discussions.
	MaxFolderNameSize int

	// Layout for human-readable dates in snapshots.
	DateTemplate string

	// Entries shown per rendered discussion page. This matches what the
	// platform is observed to do, not anything it promises.
	DiscussionPageSize int
}

const (
	DefaultMaxFolderNameSize  = 70
	DefaultDateTemplate       = "January 02, 2006 03:04 PM"
	DefaultDiscussionPageSize = 50
)

// Load reads credentials from path and resolves the full run configuration.
func Load(path string, outputDir string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read credentials file: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if creds.APIURL == "" {
		return Config{}, fmt.Errorf("config: missing API_URL in %s", path)
	}
	if creds.APIKey == "" {
		return Config{}, fmt.Errorf("config: missing API_KEY in %s", path)
	}

	cookiesPath := creds.CookiesPath
	if cookiesPath != "" {
		cookiesPath, err = filepath.Abs(expandHome(cookiesPath))
		if err != nil {
			return Config{}, fmt.Errorf("config: resolve cookies path: %w", err)
		}
	}

	out, err := filepath.Abs(expandHome(outputDir))
	if err != nil {
		return Config{}, fmt.Errorf("config: resolve output dir: %w", err)
	}

	skip := make(map[int]bool, len(creds.CoursesToSkip))
	for _, id := range creds.CoursesToSkip {
		skip[id] = true
	}

	return Config{
		APIURL:             creds.APIURL,
		APIKey:             creds.APIKey,
		UserID:             creds.UserID,
		CookiesPath:        cookiesPath,
		OutputDir:          out,
		CoursesToSkip:      skip,
		MaxFolderNameSize:  DefaultMaxFolderNameSize,
		DateTemplate:       DefaultDateTemplate,
		DiscussionPageSize: DefaultDiscussionPageSize,
	}, nil
}

func expandHome(p string) string {
	if len(p) >= 2 && p[0] == '~' && p[1] == '/' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
