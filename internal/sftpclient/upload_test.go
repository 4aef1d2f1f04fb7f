package sftpclient

import (
	"context"
	"strings"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Host: "h", User: "u", Pass: "p"}.withDefaults()

	if cfg.Port != 22 {
		t.Errorf("Expected default Port 22, got %d", cfg.Port)
	}
	if cfg.RemoteDir != "/" {
		t.Errorf("Expected default RemoteDir /, got %q", cfg.RemoteDir)
	}
}

// Note: We can't easily test the actual SFTP transfer in a unit test without
// mocking the SFTP server. These tests cover the validation path only.

func TestUploadValidation(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		run           func() error
		errorContains string
	}{
		{
			name: "UploadFile missing credentials",
			run: func() error {
				return UploadFile(ctx, Config{}, "test.txt", "test.txt")
			},
			errorContains: "sftp: missing env SFTP_HOST / SFTP_USER / SFTP_PASS",
		},
		{
			name: "UploadDir missing credentials",
			run: func() error {
				return UploadDir(ctx, Config{}, t.TempDir())
			},
			errorContains: "sftp: missing env SFTP_HOST / SFTP_USER / SFTP_PASS",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.errorContains) {
				t.Errorf("Expected error to contain %q, got %q", tc.errorContains, err.Error())
			}
		})
	}
}
