package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"canvas-export/internal/archiver"
	"canvas-export/internal/config"
	"canvas-export/internal/cookies"
	"canvas-export/internal/download"
	"canvas-export/internal/export"
	"canvas-export/internal/mappers"
	"canvas-export/internal/providers/canvas"
)

func main() {
	var (
		credsPath = flag.String("credentials", "./credentials.yaml", "path to credentials.yaml")
		outDir    = flag.String("output", "./output", "output directory")
		term      = flag.String("term", "", "only export courses from this term (empty = all)")
		userFiles = flag.Bool("user-files", false, "also download the personal files area")
	)
	flag.Parse()

	// timeout general grande
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Hour)
	defer cancel()

	cfg, err := config.Load(*credsPath, *outDir)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Term = *term

	if cfg.CookiesPath == "" {
		log.Fatal("missing COOKIES_PATH in credentials file; page archiving needs a browser cookies.txt")
	}
	jar, err := cookies.Load(cfg.CookiesPath)
	if err != nil {
		log.Fatalf("cookies error: %v", err)
	}

	client := canvas.New(canvas.Options{
		BaseURL: cfg.APIURL,
		APIKey:  cfg.APIKey,
		UserID:  cfg.UserID,
		Cookies: jar,
	})

	if err := client.ProbeFrontend(ctx); err != nil {
		log.Fatalf("session check failed (re-export cookies.txt from the browser): %v", err)
	}

	e := &export.Exporter{
		Client:           client,
		Mapper:           &mappers.Mapper{Client: client, Cfg: cfg},
		Archiver:         archiver.New(cfg.CookiesPath),
		Downloader:       download.New(jar),
		Cfg:              cfg,
		IncludeUserFiles: *userFiles,
	}

	if err := e.Run(ctx); err != nil {
		if errors.Is(err, canvas.ErrInvalidAccessToken) {
			log.Fatal("API token rejected; generate a new access token and update API_KEY")
		}
		log.Fatalf("export error: %v", err)
	}

	fmt.Println("Export finished:", cfg.OutputDir)
}
