package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"canvas-export/internal/config"
	"canvas-export/internal/cookies"
	"canvas-export/internal/devutil"
	"canvas-export/internal/providers/canvas"
)

// Quick credentials smoke test: verifies the API token and the browser
// cookies separately, then lists the visible courses.
func main() {
	credsPath := flag.String("credentials", "./credentials.yaml", "path to credentials.yaml")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load(*credsPath, ".")
	if err != nil {
		log.Fatal(err)
	}

	opts := canvas.Options{BaseURL: cfg.APIURL, APIKey: cfg.APIKey, UserID: cfg.UserID}
	if cfg.CookiesPath != "" {
		jar, err := cookies.Load(cfg.CookiesPath)
		if err != nil {
			log.Fatalf("cookies error: %v", err)
		}
		opts.Cookies = jar
	}
	client := canvas.New(opts)

	courses, err := client.ListCourses(ctx)
	if err != nil {
		log.Fatalf("API token check failed: %v", err)
	}
	fmt.Printf("OK: API token valid, %d courses visible\n", len(courses))

	if opts.Cookies == nil {
		fmt.Println("SKIP: no COOKIES_PATH configured, frontend session not checked")
	} else if err := client.ProbeFrontend(ctx); err != nil {
		log.Fatalf("frontend session check failed: %v", err)
	} else {
		fmt.Println("OK: frontend session valid")
	}

	for i, c := range courses {
		fmt.Printf("%d) %v\n", i+1, devutil.Pick(c, "id", "name", "course_code", "term"))
	}
}
