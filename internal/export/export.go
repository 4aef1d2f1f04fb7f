package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"canvas-export/internal/concurrency"
	"canvas-export/internal/config"
	"canvas-export/internal/domain"
	"canvas-export/internal/download"
	"canvas-export/internal/httpx"
	"canvas-export/internal/mappers"
	"canvas-export/internal/providers/canvas"
	"canvas-export/internal/sanitize"
)

// UserFilesWorkers sizes the pool for the bulk personal-files pass; the
// per-category pools stay at concurrency.DefaultOptions (3).
const UserFilesWorkers = 10

// PageArchiver is the external snapshot collaborator: render one URL into
// one HTML file inside dir. Failures are always non-fatal to an export.
type PageArchiver interface {
	DownloadPage(ctx context.Context, url, dir, filename string) error
}

// Exporter drives a full export run: course enumeration, per-course
// orchestration and the aggregate JSON documents.
type Exporter struct {
	Client     *canvas.Client
	Mapper     *mappers.Mapper
	Archiver   PageArchiver
	Downloader *download.Downloader
	Cfg        config.Config

	// IncludeUserFiles switches on the bulk personal-file download pass.
	IncludeUserFiles bool
}

// Run performs the whole export. The returned error is fatal by definition:
// either the initial course listing failed or a course check answered 401.
// Everything below that is per-course / per-item isolation.
func (e *Exporter) Run(ctx context.Context) error {
	courses, err := e.Client.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("export: list courses: %w", err)
	}

	fmt.Println("Downloading courses page...")
	if err := writeCoursesJSON(filepath.Join(e.Cfg.OutputDir, "courses.json"), courses); err != nil {
		return err
	}
	e.archive(ctx, e.Cfg.APIURL+"/courses/", e.Cfg.OutputDir, "courses.html")

	if e.IncludeUserFiles {
		fmt.Println("Downloading user files...")
		e.UserFiles(ctx, filepath.Join(e.Cfg.OutputDir, "User Files"))
	}

	var all []domain.CourseSnapshot

	for _, course := range courses {
		if e.Cfg.CoursesToSkip[course.ID] || !course.HasNameAndTerm() {
			continue
		}

		snap := e.Mapper.Course(course)

		if e.Cfg.Term != "" && e.Cfg.Term != snap.Term {
			fmt.Printf("Skipping term: %s\n\n", snap.Term)
			continue
		}

		fmt.Printf("=== %s: %s ===\n", snap.Term, snap.Name)

		if err := e.Client.CheckCourse(ctx, course.ID); err != nil {
			if errors.Is(err, canvas.ErrUnauthorized) {
				// An expired session invalidates every later course check
				// too; nothing after this point can succeed.
				return fmt.Errorf("export: course %d: %w", course.ID, err)
			}
			slog.Error("invalid course, skipping", "course", snap.Name, "error", err)
			continue
		}

		e.exportCourse(ctx, course.ID, &snap)
		all = append(all, snap)
		fmt.Println()
	}

	return writeJSON(filepath.Join(e.Cfg.OutputDir, "all_output.json"), all)
}

// exportCourse fills the snapshot's categories and performs every download
// for one course. Category order only matters for progress output; each
// category is independent and individually guarded.
func (e *Exporter) exportCourse(ctx context.Context, courseID int, snap *domain.CourseSnapshot) {
	courseDir := filepath.Join(e.Cfg.OutputDir, snap.Term, snap.Name)

	fmt.Println("Downloading course home page...")
	e.archive(ctx, e.courseURL(courseID), courseDir, "homepage.html")

	fmt.Println("Downloading grades...")
	e.archive(ctx, e.courseURL(courseID)+"/grades", courseDir, "grades.html")

	if assignments, err := e.Mapper.Assignments(ctx, courseID); err != nil {
		slog.Error("skipping assignments", "course", snap.Name, "error", err)
	} else {
		snap.Assignments = assignments
		e.downloadAssignments(ctx, courseID, courseDir, assignments)
	}

	if modules, err := e.Mapper.Modules(ctx, courseID); err != nil {
		slog.Error("skipping modules", "course", snap.Name, "error", err)
	} else {
		snap.Modules = modules
		e.downloadModules(ctx, courseID, courseDir, modules)
	}

	if announcements, err := e.Mapper.Discussions(ctx, courseID, true); err != nil {
		slog.Error("skipping announcements", "course", snap.Name, "error", err)
	} else {
		snap.Announcements = announcements
		e.downloadTopics(ctx, courseID, courseDir, "announcements", "announcement", announcements)
	}

	if discussions, err := e.Mapper.Discussions(ctx, courseID, false); err != nil {
		slog.Error("skipping discussions", "course", snap.Name, "error", err)
	} else {
		snap.Discussions = discussions
		e.downloadTopics(ctx, courseID, courseDir, "discussions", "discussion", discussions)
	}

	if pages, err := e.Mapper.Pages(ctx, courseID); err != nil {
		slog.Error("skipping pages", "course", snap.Name, "error", err)
	} else {
		snap.Pages = pages
	}

	e.downloadCourseFiles(ctx, courseID, courseDir)

	fmt.Println("Exporting course metadata...")
	if err := writeJSON(filepath.Join(courseDir, snap.Name+".json"), snap); err != nil {
		slog.Error("could not write course metadata", "course", snap.Name, "error", err)
	}
}

/* -------- assignments -------- */

func (e *Exporter) downloadAssignments(ctx context.Context, courseID int, courseDir string, assignments []domain.AssignmentSnapshot) {
	if len(assignments) == 0 {
		return
	}

	baseDir := filepath.Join(courseDir, "assignments")
	e.archive(ctx, e.courseURL(courseID)+"/assignments/", baseDir, "assignments.html")

	fmt.Printf("Downloading assignments... (%d)\n", len(assignments))
	concurrency.ForEach(ctx, assignments, concurrency.DefaultOptions(), func(ctx context.Context, _ int, a domain.AssignmentSnapshot) error {
		e.downloadAssignment(ctx, baseDir, a)
		return nil
	})
}

func (e *Exporter) downloadAssignment(ctx context.Context, baseDir string, a domain.AssignmentSnapshot) {
	assignDir := filepath.Join(baseDir, e.folderName(a.Title))

	if a.HTMLURL != "" {
		e.archive(ctx, a.HTMLURL, assignDir, "assignment.html")

		// Files linked from the assignment description.
		for _, file := range e.Mapper.EmbeddedFiles(ctx, a.Description) {
			e.download(ctx, file.URL, filepath.Join(assignDir, sanitize.Filename(file.DisplayName)), a.Title)
		}
	}

	for _, sub := range a.Submissions {
		subDir := assignDir
		if len(a.Submissions) != 1 {
			subDir = filepath.Join(assignDir, sub.UserID)
		}

		if sub.PreviewURL != "" {
			e.archive(ctx, sub.PreviewURL, subDir, "submission.html")
		}

		// Older attempts only live under the updated assignment URL.
		if sub.Attempt != 1 && a.UpdatedURL != "" && a.HTMLURL != "" &&
			strings.TrimRight(a.HTMLURL, "/") != strings.TrimRight(a.UpdatedURL, "/") {
			attemptsDir := filepath.Join(assignDir, "attempts")
			for i := 1; i <= sub.Attempt; i++ {
				url := fmt.Sprintf("%s/history?version=%d", strings.TrimRight(a.UpdatedURL, "/"), i)
				e.archive(ctx, url, attemptsDir, fmt.Sprintf("attempt_%d.html", i))
			}
		}
	}
}

/* -------- modules -------- */

func (e *Exporter) downloadModules(ctx context.Context, courseID int, courseDir string, modules []domain.ModuleSnapshot) {
	if len(modules) == 0 {
		return
	}

	modulesDir := filepath.Join(courseDir, "modules")
	e.archive(ctx, e.courseURL(courseID)+"/modules/", modulesDir, "modules.html")

	fmt.Printf("Downloading modules... (%d)\n", len(modules))
	for _, module := range modules {
		moduleDir := filepath.Join(modulesDir, e.folderName(module.Name))

		concurrency.ForEach(ctx, module.Items, concurrency.DefaultOptions(), func(ctx context.Context, _ int, item domain.ModuleItemSnapshot) error {
			if item.URL != "" {
				e.archive(ctx, item.URL, moduleDir, sanitize.Filename(item.Title)+".html")
			}
			for _, file := range item.AttachedFiles {
				e.download(ctx, file.URL, filepath.Join(moduleDir, "files", sanitize.Filename(file.Filename)), item.Title)
			}
			return nil
		})
	}
}

/* -------- discussions & announcements -------- */

// downloadTopics handles both announcements and discussions; they differ
// only in directory and file naming.
func (e *Exporter) downloadTopics(ctx context.Context, courseID int, courseDir, dirName, fileStem string, topics []domain.DiscussionSnapshot) {
	if len(topics) == 0 {
		return
	}

	baseDir := filepath.Join(courseDir, dirName)
	e.archive(ctx, fmt.Sprintf("%s/%s/", e.courseURL(courseID), indexPath(dirName)), baseDir, dirName+".html")

	fmt.Printf("Downloading %s... (%d)\n", dirName, len(topics))
	for _, topic := range topics {
		if topic.URL == "" {
			continue
		}
		topicDir := filepath.Join(baseDir, e.folderName(topic.Title))

		for _, file := range e.Mapper.EmbeddedFiles(ctx, topic.Body) {
			e.download(ctx, file.URL, filepath.Join(topicDir, sanitize.Filename(file.DisplayName)), topic.Title)
		}

		for i := 1; i <= topic.AmountPages; i++ {
			e.archive(ctx, fmt.Sprintf("%s/page-%d", topic.URL, i), topicDir, fmt.Sprintf("%s_%d.html", fileStem, i))
		}
	}
}

// The announcements frontend lives under /announcements but the API calls
// both kinds discussion topics; discussions index is /discussion_topics.
func indexPath(dirName string) string {
	if dirName == "discussions" {
		return "discussion_topics"
	}
	return dirName
}

/* -------- course files -------- */

func (e *Exporter) downloadCourseFiles(ctx context.Context, courseID int, courseDir string) {
	files, err := e.Client.ListFiles(ctx, courseID)
	if err != nil {
		if httpx.IsStatus(err, http.StatusForbidden) {
			fmt.Println("Files view is disabled for this course.")
			return
		}
		slog.Error("skipping course files", "course", courseID, "error", err)
		return
	}

	fmt.Printf("Downloading files... (%d)\n", len(files))

	// Folder lookups repeat across files; cache per course.
	folders := map[int]string{}
	for _, file := range files {
		folderPath, ok := folders[file.FolderID]
		if !ok {
			folder, err := e.Client.GetFolder(ctx, file.FolderID)
			if err != nil {
				slog.Warn("skipping file, folder lookup failed", "file", file.DisplayName, "error", err)
				continue
			}
			folderPath = sanitize.FolderPath(folder.FullName)
			folders[file.FolderID] = folderPath
		}

		dest := filepath.Join(courseDir, folderPath, sanitize.Filename(file.DisplayName))
		e.download(ctx, file.URL, dest, file.DisplayName)
	}
}

/* -------- user files -------- */

type fileTask struct {
	url  string
	dest string
	name string
}

// UserFiles downloads the user's personal file area under basePath with the
// bigger pool; file metadata enumeration stays sequential.
func (e *Exporter) UserFiles(ctx context.Context, basePath string) {
	folders, err := e.Client.CurrentUserFolders(ctx)
	if err != nil {
		slog.Error("skipping user files", "error", err)
		return
	}

	var tasks []fileTask
	for _, folder := range folders {
		name := strings.TrimPrefix(folder.FullName, "my files")
		name = strings.Trim(name, "/")
		if name == "" {
			continue
		}
		folderDir := filepath.Join(basePath, sanitize.FolderPath(name))

		files, err := e.Client.ListFolderFiles(ctx, folder.ID)
		if err != nil {
			slog.Warn("skipping user folder", "folder", folder.FullName, "error", err)
			continue
		}
		for _, file := range files {
			tasks = append(tasks, fileTask{
				url:  file.URL,
				dest: filepath.Join(folderDir, sanitize.Filename(file.DisplayName)),
				name: file.DisplayName,
			})
		}
	}

	fmt.Printf("Downloading user files... (%d)\n", len(tasks))
	concurrency.ForEach(ctx, tasks, concurrency.ParallelOptions{MaxWorkers: UserFilesWorkers}, func(ctx context.Context, _ int, task fileTask) error {
		e.download(ctx, task.url, task.dest, task.name)
		return nil
	})
}

/* -------- helpers -------- */

func (e *Exporter) courseURL(courseID int) string {
	return fmt.Sprintf("%s/courses/%d", e.Cfg.APIURL, courseID)
}

// folderName sanitizes a title and keeps it under the configured max segment
// length so deep trees stay below platform path limits.
func (e *Exporter) folderName(title string) string {
	name := sanitize.Filename(title)
	return sanitize.Shorten(name, len(name)-e.Cfg.MaxFolderNameSize)
}

// archive snapshots one URL; archiving problems are logged and swallowed by
// contract.
func (e *Exporter) archive(ctx context.Context, url, dir, filename string) {
	if e.Archiver == nil {
		return
	}
	if err := e.Archiver.DownloadPage(ctx, url, dir, filename); err != nil {
		slog.Warn("could not archive page", "url", url, "error", err)
	}
}

// download fetches one file; failures are logged with the owning item's name
// and never abort the enclosing loop.
func (e *Exporter) download(ctx context.Context, url, dest, itemName string) {
	if url == "" {
		slog.Warn("skipping file with no URL", "item", itemName)
		return
	}
	if err := e.Downloader.File(ctx, url, dest); err != nil {
		slog.Warn("skipping file", "item", itemName, "error", err)
	}
}
