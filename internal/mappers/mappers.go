package mappers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"canvas-export/internal/config"
	"canvas-export/internal/domain"
	"canvas-export/internal/httpx"
	"canvas-export/internal/providers/canvas"
	"canvas-export/internal/sanitize"
)

// ErrNoSubmissions marks an assignment with no submission record for the
// authenticated user. That should not happen on a real course, so it is
// surfaced as a hard per-assignment failure instead of a silent skip.
var ErrNoSubmissions = errors.New("mappers: no submissions found for assignment")

// Mapper translates API entities into snapshot records. Mapping is
// idempotent given the same remote state; every optional attribute falls
// back to its zero value.
type Mapper struct {
	Client *canvas.Client
	Cfg    config.Config
}

// Course maps the header fields of a course. The per-category collections
// start empty and are filled in by the orchestrator as each category lands.
func (m *Mapper) Course(course canvas.Course) domain.CourseSnapshot {
	term := ""
	if course.Term != nil {
		term = course.Term.Name
	}

	return domain.CourseSnapshot{
		CourseID:   course.ID,
		Term:       sanitize.Filename(collapseSpaces(term)),
		CourseCode: sanitize.Filename(collapseSpaces(course.CourseCode)),
		Name:       sanitize.Filename(collapseSpaces(course.Name)),

		Assignments:   []domain.AssignmentSnapshot{},
		Announcements: []domain.DiscussionSnapshot{},
		Discussions:   []domain.DiscussionSnapshot{},
		Modules:       []domain.ModuleSnapshot{},
		Pages:         []domain.PageSnapshot{},
	}
}

// Assignments lists and maps all assignments of a course. Exactly one
// submission, the authenticated user's, is fetched per assignment; an
// assignment whose submission cannot be found is dropped with an error log.
func (m *Mapper) Assignments(ctx context.Context, courseID int) ([]domain.AssignmentSnapshot, error) {
	assignments, err := m.Client.ListAssignments(ctx, courseID)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Fetching assignments... (%d)\n", len(assignments))

	out := make([]domain.AssignmentSnapshot, 0, len(assignments))
	for _, a := range assignments {
		snap, err := m.assignment(ctx, courseID, a)
		if err != nil {
			slog.Error("skipping assignment", "title", a.Name, "error", err)
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (m *Mapper) assignment(ctx context.Context, courseID int, a canvas.Assignment) (domain.AssignmentSnapshot, error) {
	// The list endpoint serves stale descriptions; refresh the item. Any
	// failure here just keeps the listed version.
	if fresh, err := m.Client.GetAssignment(ctx, courseID, a.ID); err == nil {
		a = fresh
	}

	snap := domain.AssignmentSnapshot{
		ID:           a.ID,
		Title:        sanitize.Filename(collapseSpaces(a.Name)),
		Description:  a.Description,
		AssignedDate: m.formatDate(a.CreatedAt),
		DueDate:      m.formatDate(a.DueAt),
		HTMLURL:      a.HTMLURL,
		ExtURL:       a.URL,
		UpdatedURL:   updatedURL(a.SubmissionsDownloadURL),
		Submissions:  []domain.SubmissionSnapshot{},
	}

	sub, err := m.Client.GetSubmission(ctx, courseID, a.ID, m.Client.UserID)
	if err != nil {
		if httpx.IsStatus(err, http.StatusNotFound) {
			return snap, fmt.Errorf("%w: %s", ErrNoSubmissions, a.Name)
		}
		return snap, err
	}

	snap.Submissions = append(snap.Submissions, m.submission(sub, a))
	return snap, nil
}

func (m *Mapper) submission(sub canvas.Submission, a canvas.Assignment) domain.SubmissionSnapshot {
	snap := domain.SubmissionSnapshot{
		ID:                  sub.ID,
		Grade:               sub.Grade,
		RawScore:            formatScore(sub.Score),
		SubmissionComments:  flattenComments(sub.Comments),
		TotalPossiblePoints: formatScore(a.PointsPossible),
		Attempt:             sub.Attempt,
		UserID:              strconv.Itoa(sub.UserID),
		PreviewURL:          sub.PreviewURL,
		ExtURL:              sub.URL,
		Attachments:         []domain.AttachmentSnapshot{},
	}

	for _, att := range sub.Attachments {
		snap.Attachments = append(snap.Attachments, domain.AttachmentSnapshot{
			ID:       att.ID,
			Filename: att.Filename,
			URL:      att.URL,
		})
	}
	return snap
}

// Discussions maps discussion topics (or announcements, same shape) with
// their entry/reply tree. Entry and reply fetches are best effort: a failed
// fetch is logged and leaves the parent record partial.
func (m *Mapper) Discussions(ctx context.Context, courseID int, onlyAnnouncements bool) ([]domain.DiscussionSnapshot, error) {
	topics, err := m.Client.ListDiscussionTopics(ctx, courseID, onlyAnnouncements)
	if err != nil {
		return nil, err
	}

	kind := "discussions"
	if onlyAnnouncements {
		kind = "announcements"
	}
	fmt.Printf("Fetching %s... (%d)\n", kind, len(topics))

	out := make([]domain.DiscussionSnapshot, 0, len(topics))
	for _, topic := range topics {
		out = append(out, m.discussion(ctx, courseID, topic))
	}
	return out, nil
}

func (m *Mapper) discussion(ctx context.Context, courseID int, topic canvas.DiscussionTopic) domain.DiscussionSnapshot {
	posted := topic.PostedAt
	if posted == "" {
		posted = topic.CreatedAt
	}

	snap := domain.DiscussionSnapshot{
		ID:           topic.ID,
		Title:        collapseSpaces(topic.Title),
		Author:       topic.UserName,
		PostedDate:   m.formatDate(posted),
		Body:         topic.Message,
		URL:          topic.HTMLURL,
		TopicEntries: []domain.TopicEntrySnapshot{},
	}

	entryCount := 0
	if topic.DiscussionSubentryCount > 0 {
		entries, err := m.Client.ListTopicEntries(ctx, courseID, topic.ID)
		if err != nil {
			slog.Warn("could not enumerate topic entries", "topic", topic.Title, "error", err)
		}
		for _, entry := range entries {
			entryCount++
			entrySnap := domain.TopicEntrySnapshot{
				ID:           entry.ID,
				Author:       entry.UserName,
				PostedDate:   m.formatDate(entry.CreatedAt),
				Body:         entry.Message,
				TopicReplies: []domain.TopicReplySnapshot{},
			}

			replies, err := m.Client.ListEntryReplies(ctx, courseID, topic.ID, entry.ID)
			if err != nil {
				slog.Warn("could not enumerate entry replies", "topic", topic.Title, "entry", entry.ID, "error", err)
			}
			for _, reply := range replies {
				entrySnap.TopicReplies = append(entrySnap.TopicReplies, domain.TopicReplySnapshot{
					ID:         reply.ID,
					Author:     reply.UserName,
					PostedDate: m.formatDate(reply.CreatedAt),
					Body:       reply.Message,
				})
			}
			snap.TopicEntries = append(snap.TopicEntries, entrySnap)
		}
	}

	snap.AmountPages = PageCount(entryCount, m.Cfg.DiscussionPageSize)
	return snap
}

// PageCount derives how many rendered pages a topic occupies. The platform
// is observed to put pageSize entries on a page before starting a new one;
// that is an assumption about the frontend, not an API guarantee.
func PageCount(entries, pageSize int) int {
	if pageSize <= 0 {
		pageSize = config.DefaultDiscussionPageSize
	}
	return entries/pageSize + 1
}

// Modules maps modules with their items. File-type items get their file
// metadata resolved so the orchestrator can download them later; a failed
// lookup leaves the item without attachments.
func (m *Mapper) Modules(ctx context.Context, courseID int) ([]domain.ModuleSnapshot, error) {
	modules, err := m.Client.ListModules(ctx, courseID)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Fetching modules... (%d)\n", len(modules))

	out := make([]domain.ModuleSnapshot, 0, len(modules))
	for _, mod := range modules {
		snap := domain.ModuleSnapshot{
			ID:    mod.ID,
			Name:  mod.Name,
			Items: []domain.ModuleItemSnapshot{},
		}

		items, err := m.Client.ListModuleItems(ctx, courseID, mod.ID)
		if err != nil {
			slog.Warn("could not enumerate module items", "module", mod.Name, "error", err)
		}
		for _, item := range items {
			itemSnap := domain.ModuleItemSnapshot{
				ID:            item.ID,
				Title:         collapseSpaces(item.Title),
				ContentType:   item.Type,
				URL:           item.HTMLURL,
				ExternalURL:   item.ExternalURL,
				AttachedFiles: []domain.AttachmentSnapshot{},
			}

			if item.Type == "File" && item.ContentID != 0 {
				file, err := m.Client.GetFile(ctx, item.ContentID)
				if err != nil {
					slog.Warn("could not resolve module file", "module", mod.Name, "item", item.Title, "error", err)
				} else {
					itemSnap.AttachedFiles = append(itemSnap.AttachedFiles, domain.AttachmentSnapshot{
						ID:       file.ID,
						Filename: file.DisplayName,
						URL:      file.URL,
					})
				}
			}

			snap.Items = append(snap.Items, itemSnap)
		}
		out = append(out, snap)
	}
	return out, nil
}

// Pages lists the course wiki pages and fetches each one individually, since
// only the single-page endpoint carries the body.
func (m *Mapper) Pages(ctx context.Context, courseID int) ([]domain.PageSnapshot, error) {
	stubs, err := m.Client.ListPages(ctx, courseID)
	if err != nil {
		// Courses without a wiki answer 404 here; that is a normal shape,
		// not a failure.
		if httpx.IsStatus(err, http.StatusNotFound) {
			return []domain.PageSnapshot{}, nil
		}
		return nil, err
	}

	fmt.Printf("Fetching pages... (%d)\n", len(stubs))

	out := make([]domain.PageSnapshot, 0, len(stubs))
	for _, stub := range stubs {
		page, err := m.Client.GetPage(ctx, courseID, stub.URL)
		if err != nil {
			slog.Warn("skipping page", "title", stub.Title, "error", err)
			continue
		}
		out = append(out, domain.PageSnapshot{
			ID:              page.PageID,
			Title:           collapseSpaces(page.Title),
			Body:            page.Body,
			CreatedDate:     m.formatDate(page.CreatedAt),
			LastUpdatedDate: m.formatDate(page.UpdatedAt),
		})
	}
	return out, nil
}

/* -------- helpers -------- */

func collapseSpaces(s string) string {
	return strings.ReplaceAll(s, "  ", " ")
}

func (m *Mapper) formatDate(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return ""
	}
	template := m.Cfg.DateTemplate
	if template == "" {
		template = config.DefaultDateTemplate
	}
	return t.Format(template)
}

func formatScore(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func flattenComments(comments []canvas.SubmissionComment) string {
	if len(comments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(comments))
	for _, c := range comments {
		if c.AuthorName != "" {
			parts = append(parts, c.AuthorName+": "+c.Comment)
		} else {
			parts = append(parts, c.Comment)
		}
	}
	return strings.Join(parts, "\n")
}

// updatedURL derives the canonical assignment URL from the submissions
// download link (everything before "submissions?").
func updatedURL(submissionsDownloadURL string) string {
	if submissionsDownloadURL == "" {
		return ""
	}
	return strings.Split(submissionsDownloadURL, "submissions?")[0]
}
