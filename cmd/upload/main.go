package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"canvas-export/internal/sftpclient"
)

// Mirrors a finished export directory to an SFTP host for off-machine backup.
// Connection settings come from env vars so credentials stay out of argv.
func main() {
	var (
		localDir  = flag.String("dir", "./output", "local export directory to mirror")
		remoteDir = flag.String("remote-dir", "", "remote base directory (default SFTP_REMOTE_DIR or /)")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
	defer cancel()

	if _, err := os.Stat(*localDir); err != nil {
		log.Fatalf("local dir: %v", err)
	}

	cfg := sftpclient.Config{
		Host:      os.Getenv("SFTP_HOST"),
		User:      os.Getenv("SFTP_USER"),
		Pass:      os.Getenv("SFTP_PASS"),
		RemoteDir: *remoteDir,
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = os.Getenv("SFTP_REMOTE_DIR")
	}
	if p := os.Getenv("SFTP_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			log.Fatalf("bad SFTP_PORT: %v", err)
		}
		cfg.Port = port
	}

	if err := sftpclient.UploadDir(ctx, cfg, *localDir); err != nil {
		log.Fatalf("upload error: %v", err)
	}

	fmt.Println("Upload finished:", cfg.RemoteDir)
}
