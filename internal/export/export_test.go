package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"canvas-export/internal/config"
	"canvas-export/internal/domain"
	"canvas-export/internal/download"
	"canvas-export/internal/mappers"
	"canvas-export/internal/providers/canvas"
)

// stubArchiver records archive requests instead of shelling out.
type stubArchiver struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubArchiver) DownloadPage(ctx context.Context, url, dir, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, url+" -> "+filepath.Join(dir, filename))
	return nil
}

func (s *stubArchiver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func fakeCanvas(t *testing.T, courseCheckStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/courses", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":1,"name":"Intro  Course","course_code":"INTRO 101","term":{"id":5,"name":"Fall 2025"}},
			{"id":2,"course_code":"NO-NAME"},
			{"id":3,"name":"Skipped Course","term":{"id":5,"name":"Fall 2025"}}
		]`)
	})
	mux.HandleFunc("/api/v1/courses/1", func(w http.ResponseWriter, r *http.Request) {
		if courseCheckStatus != http.StatusOK {
			w.WriteHeader(courseCheckStatus)
			return
		}
		fmt.Fprint(w, `{"id":1}`)
	})
	mux.HandleFunc("/api/v1/courses/1/assignments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":10,"name":"Homework  1","html_url":"https://c/courses/1/assignments/10"}]`)
	})
	mux.HandleFunc("/api/v1/courses/1/assignments/10", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":10,"name":"Homework  1","description":"<p>do it</p>","html_url":"https://c/courses/1/assignments/10"}`)
	})
	mux.HandleFunc("/api/v1/courses/1/assignments/10/submissions/9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":500,"grade":"B+","user_id":9,"attempt":1}`)
	})
	mux.HandleFunc("/api/v1/courses/1/modules", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/api/v1/courses/1/discussion_topics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/api/v1/courses/1/pages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"page_id":40,"url":"welcome","title":"Welcome  Page"}]`)
	})
	mux.HandleFunc("/api/v1/courses/1/pages/welcome", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"page_id":40,"url":"welcome","title":"Welcome  Page","body":"<p>hello</p>"}`)
	})
	mux.HandleFunc("/api/v1/courses/1/files", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	return httptest.NewServer(mux)
}

func newExporter(t *testing.T, srvURL string) (*Exporter, *stubArchiver) {
	t.Helper()
	cfg := config.Config{
		APIURL:             srvURL,
		UserID:             9,
		OutputDir:          t.TempDir(),
		CoursesToSkip:      map[int]bool{3: true},
		MaxFolderNameSize:  config.DefaultMaxFolderNameSize,
		DateTemplate:       config.DefaultDateTemplate,
		DiscussionPageSize: config.DefaultDiscussionPageSize,
	}
	client := canvas.New(canvas.Options{BaseURL: srvURL, APIKey: "k", UserID: 9})
	arch := &stubArchiver{}
	return &Exporter{
		Client:     client,
		Mapper:     &mappers.Mapper{Client: client, Cfg: cfg},
		Archiver:   arch,
		Downloader: download.New(nil),
		Cfg:        cfg,
	}, arch
}

func TestRunEndToEnd(t *testing.T) {
	srv := fakeCanvas(t, http.StatusOK)
	defer srv.Close()

	e, arch := newExporter(t, srv.URL)
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	courseJSON := filepath.Join(e.Cfg.OutputDir, "Fall 2025", "Intro Course", "Intro Course.json")
	raw, err := os.ReadFile(courseJSON)
	if err != nil {
		t.Fatalf("Expected per-course JSON at %s: %v", courseJSON, err)
	}

	var snap domain.CourseSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("Could not parse course JSON: %v", err)
	}

	if len(snap.Assignments) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(snap.Assignments))
	}
	if len(snap.Assignments[0].Submissions) != 1 {
		t.Fatalf("Expected 1 submission, got %d", len(snap.Assignments[0].Submissions))
	}
	atts := snap.Assignments[0].Submissions[0].Attachments
	if atts == nil || len(atts) != 0 {
		t.Errorf("Expected attachments to be an empty (non-null) collection, got %v", atts)
	}

	if len(snap.Pages) != 1 || snap.Pages[0].Title != "Welcome Page" {
		t.Errorf("Expected page title with collapsed spaces, got %+v", snap.Pages)
	}

	// The raw JSON must spell the empty collection as [], not null.
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatal(err)
	}
	assignments := generic["assignments"].([]any)
	submissions := assignments[0].(map[string]any)["submissions"].([]any)
	if got, ok := submissions[0].(map[string]any)["attachments"].([]any); !ok || len(got) != 0 {
		t.Errorf("Expected attachments == [] in raw JSON, got %v", submissions[0].(map[string]any)["attachments"])
	}

	// Aggregate documents
	if _, err := os.Stat(filepath.Join(e.Cfg.OutputDir, "all_output.json")); err != nil {
		t.Errorf("Expected all_output.json: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.Cfg.OutputDir, "courses.json")); err != nil {
		t.Errorf("Expected courses.json: %v", err)
	}

	// Skip-set course produces no output directory.
	if _, err := os.Stat(filepath.Join(e.Cfg.OutputDir, "Fall 2025", "Skipped Course")); err == nil {
		t.Error("Expected no output directory for skipped course")
	}

	if arch.count() == 0 {
		t.Error("Expected pages to have been archived")
	}
}

func TestRunAbortsOnUnauthorized(t *testing.T) {
	srv := fakeCanvas(t, http.StatusUnauthorized)
	defer srv.Close()

	e, _ := newExporter(t, srv.URL)
	err := e.Run(context.Background())
	if !errors.Is(err, canvas.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	// The failing course must not leave a metadata file and the run must
	// not finalize.
	if _, err := os.Stat(filepath.Join(e.Cfg.OutputDir, "Fall 2025", "Intro Course", "Intro Course.json")); err == nil {
		t.Error("Expected no course JSON after aborted run")
	}
	if _, err := os.Stat(filepath.Join(e.Cfg.OutputDir, "all_output.json")); err == nil {
		t.Error("Expected no all_output.json after aborted run")
	}
}

func TestRunSkipsOtherTerms(t *testing.T) {
	srv := fakeCanvas(t, http.StatusOK)
	defer srv.Close()

	e, _ := newExporter(t, srv.URL)
	e.Cfg.Term = "Spring 2026"

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.Cfg.OutputDir, "Fall 2025")); err == nil {
		t.Error("Expected no output for filtered-out term")
	}
}

func TestFolderNameShortening(t *testing.T) {
	e := &Exporter{Cfg: config.Config{MaxFolderNameSize: 10}}

	got := e.folderName("A Title That Is Definitely Too Long")
	if len(got) > 10 {
		t.Errorf("Expected folder name capped at 10, got %q (len %d)", got, len(got))
	}
	if got[len(got)-1] != '-' {
		t.Errorf("Expected truncation marker, got %q", got)
	}

	if got := e.folderName("Short"); got != "Short" {
		t.Errorf("Expected short names unchanged, got %q", got)
	}
}
