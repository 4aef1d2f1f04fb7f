package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCreds(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCreds(t, `
API_URL: https://canvas.example.com
API_KEY: secret-token
USER_ID: 4321
COOKIES_PATH: /tmp/cookies.txt
COURSES_TO_SKIP:
  - 100
  - 200
`)

	cfg, err := Load(path, "./output")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.APIURL != "https://canvas.example.com" {
		t.Errorf("Expected APIURL to be set, got %q", cfg.APIURL)
	}
	if cfg.APIKey != "secret-token" {
		t.Errorf("Expected APIKey to be set, got %q", cfg.APIKey)
	}
	if cfg.UserID != 4321 {
		t.Errorf("Expected UserID 4321, got %d", cfg.UserID)
	}
	if !cfg.CoursesToSkip[100] || !cfg.CoursesToSkip[200] {
		t.Errorf("Expected skip set to contain 100 and 200, got %v", cfg.CoursesToSkip)
	}
	if cfg.CoursesToSkip[300] {
		t.Error("Expected 300 not to be in the skip set")
	}
	if !filepath.IsAbs(cfg.OutputDir) {
		t.Errorf("Expected absolute output dir, got %q", cfg.OutputDir)
	}

	// Defaults
	if cfg.MaxFolderNameSize != 70 {
		t.Errorf("Expected MaxFolderNameSize 70, got %d", cfg.MaxFolderNameSize)
	}
	if cfg.DiscussionPageSize != 50 {
		t.Errorf("Expected DiscussionPageSize 50, got %d", cfg.DiscussionPageSize)
	}
	if cfg.DateTemplate == "" {
		t.Error("Expected a default date template")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "./output")
	if err == nil {
		t.Fatal("Expected error for missing credentials file")
	}
}

func TestLoadMissingFields(t *testing.T) {
	path := writeCreds(t, "API_URL: https://canvas.example.com\n")
	if _, err := Load(path, "./output"); err == nil {
		t.Fatal("Expected error for missing API_KEY")
	}

	path = writeCreds(t, "API_KEY: tok\n")
	if _, err := Load(path, "./output"); err == nil {
		t.Fatal("Expected error for missing API_URL")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeCreds(t, "API_URL: [unclosed\n")
	if _, err := Load(path, "./output"); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}
