package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"canvas-export/internal/httpx"
)

// Browser-looking UA for the frontend requests; the plain Go UA gets served
// a different (sometimes blocked) frontend.
const frontendUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// profileMarker is a CSS class present on the rendered profile page when the
// session is actually logged in.
const profileMarker = "profileContent__Block"

var (
	ErrInvalidAccessToken = errors.New("canvas: invalid API access token")
	ErrUnauthorized       = errors.New("canvas: unauthorized (session cookies rejected)")
)

// Client talks to one Canvas instance two ways: the JSON API with a bearer
// token, and the web frontend with the browser's session cookies. Both are
// read-only and safe to share across workers.
type Client struct {
	BaseURL string
	UserID  int

	api *resty.Client
	web *resty.Client
}

type Options struct {
	BaseURL string
	APIKey  string
	UserID  int
	Cookies []*http.Cookie
}

func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")

	api := resty.New().
		SetBaseURL(base).
		SetAuthToken(opts.APIKey).
		SetHeader("Accept", "application/json").
		SetTimeout(2 * time.Minute)

	web := resty.New().
		SetBaseURL(base).
		SetHeader("User-Agent", frontendUserAgent).
		SetCookies(opts.Cookies).
		SetTimeout(2 * time.Minute)

	return &Client{
		BaseURL: base,
		UserID:  opts.UserID,
		api:     api,
		web:     web,
	}
}

/* -------- auth probes -------- */

// ProbeFrontend checks that the browser cookies still carry a live session:
// the profile page must answer 200, stay on this Canvas host (no redirect to
// a login portal) and contain the logged-in profile block.
func (c *Client) ProbeFrontend(ctx context.Context) error {
	res, err := c.web.R().SetContext(ctx).Get("/profile")
	if err != nil {
		return fmt.Errorf("canvas: fetch profile: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return httpx.NewError(http.MethodGet, c.BaseURL+"/profile", res.StatusCode(), res.Body())
	}

	final := res.RawResponse.Request.URL.String()
	if !strings.HasPrefix(final, c.BaseURL) {
		return fmt.Errorf("canvas: profile request was redirected away from Canvas: %s", final)
	}
	if !bytes.Contains(res.Body(), []byte(profileMarker)) {
		return fmt.Errorf("canvas: profile page has no %q element; cookies are likely stale", profileMarker)
	}
	return nil
}

// CheckCourse is the per-course validity gate, issued with the cookie jar
// rather than the API key. A 401 here means the session died and nothing
// after this course can succeed either.
func (c *Client) CheckCourse(ctx context.Context, courseID int) error {
	endpoint := fmt.Sprintf("/api/v1/courses/%d", courseID)
	res, err := c.web.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		return fmt.Errorf("canvas: check course %d: %w", courseID, err)
	}
	if res.StatusCode() == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if !httpx.Success(res.StatusCode()) {
		return httpx.NewError(http.MethodGet, c.BaseURL+endpoint, res.StatusCode(), res.Body())
	}
	return nil
}

/* -------- listing operations -------- */

func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	return listPages[Course](ctx, c.api, "/api/v1/courses", map[string]string{
		"include[]": "term",
	})
}

func (c *Client) ListAssignments(ctx context.Context, courseID int) ([]Assignment, error) {
	return listPages[Assignment](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/assignments", courseID), nil)
}

// GetAssignment refreshes one assignment by id. The list endpoint is known
// to serve stale descriptions, the single-item endpoint is not.
func (c *Client) GetAssignment(ctx context.Context, courseID, assignmentID int) (Assignment, error) {
	return getJSON[Assignment](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/assignments/%d", courseID, assignmentID), nil)
}

func (c *Client) GetSubmission(ctx context.Context, courseID, assignmentID, userID int) (Submission, error) {
	return getJSON[Submission](ctx, c.api,
		fmt.Sprintf("/api/v1/courses/%d/assignments/%d/submissions/%d", courseID, assignmentID, userID),
		map[string]string{"include[]": "submission_comments"})
}

func (c *Client) ListDiscussionTopics(ctx context.Context, courseID int, onlyAnnouncements bool) ([]DiscussionTopic, error) {
	query := map[string]string{}
	if onlyAnnouncements {
		query["only_announcements"] = "true"
	}
	return listPages[DiscussionTopic](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/discussion_topics", courseID), query)
}

func (c *Client) ListTopicEntries(ctx context.Context, courseID, topicID int) ([]TopicEntry, error) {
	return listPages[TopicEntry](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/discussion_topics/%d/entries", courseID, topicID), nil)
}

func (c *Client) ListEntryReplies(ctx context.Context, courseID, topicID, entryID int) ([]TopicReply, error) {
	return listPages[TopicReply](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/discussion_topics/%d/entries/%d/replies", courseID, topicID, entryID), nil)
}

func (c *Client) ListModules(ctx context.Context, courseID int) ([]Module, error) {
	return listPages[Module](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/modules", courseID), nil)
}

func (c *Client) ListModuleItems(ctx context.Context, courseID, moduleID int) ([]ModuleItem, error) {
	return listPages[ModuleItem](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/modules/%d/items", courseID, moduleID), nil)
}

func (c *Client) ListPages(ctx context.Context, courseID int) ([]Page, error) {
	return listPages[Page](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/pages", courseID), nil)
}

// GetPage fetches one wiki page by its slug; this is the only endpoint that
// includes the body HTML.
func (c *Client) GetPage(ctx context.Context, courseID int, slug string) (Page, error) {
	return getJSON[Page](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/pages/%s", courseID, slug), nil)
}

func (c *Client) ListFiles(ctx context.Context, courseID int) ([]File, error) {
	return listPages[File](ctx, c.api, fmt.Sprintf("/api/v1/courses/%d/files", courseID), nil)
}

func (c *Client) GetFile(ctx context.Context, fileID int) (File, error) {
	return getJSON[File](ctx, c.api, fmt.Sprintf("/api/v1/files/%d", fileID), nil)
}

func (c *Client) GetFolder(ctx context.Context, folderID int) (Folder, error) {
	return getJSON[Folder](ctx, c.api, fmt.Sprintf("/api/v1/folders/%d", folderID), nil)
}

func (c *Client) CurrentUserFolders(ctx context.Context) ([]Folder, error) {
	return listPages[Folder](ctx, c.api, "/api/v1/users/self/folders", nil)
}

func (c *Client) ListFolderFiles(ctx context.Context, folderID int) ([]File, error) {
	return listPages[File](ctx, c.api, fmt.Sprintf("/api/v1/folders/%d/files", folderID), nil)
}

// GetFileByEndpoint resolves an embedded-file API endpoint scraped out of
// HTML bodies. Those links are frontend links, so the cookie client is used.
func (c *Client) GetFileByEndpoint(ctx context.Context, endpoint string) (File, error) {
	return getJSON[File](ctx, c.web, endpoint, nil)
}

/* -------- transport helpers -------- */

// listPages walks a paginated listing, following RFC 5988 Link rel="next"
// headers until the server stops handing them out.
func listPages[T any](ctx context.Context, rc *resty.Client, path string, query map[string]string) ([]T, error) {
	out := []T{}

	next := path
	first := true
	for next != "" {
		req := rc.R().SetContext(ctx)
		if first {
			req.SetQueryParam("per_page", "100")
			for k, v := range query {
				req.SetQueryParam(k, v)
			}
			first = false
		}

		res, err := req.Get(next)
		if err != nil {
			return out, err
		}
		if err := apiError(res); err != nil {
			return out, err
		}

		var chunk []T
		if err := json.Unmarshal(res.Body(), &chunk); err != nil {
			return out, fmt.Errorf("canvas: parse %s: %w", next, err)
		}
		out = append(out, chunk...)

		// Next URLs are absolute and already carry their query string.
		next = nextLink(res.Header().Get("Link"))
	}

	return out, nil
}

func getJSON[T any](ctx context.Context, rc *resty.Client, path string, query map[string]string) (T, error) {
	var zero T

	req := rc.R().SetContext(ctx)
	for k, v := range query {
		req.SetQueryParam(k, v)
	}

	res, err := req.Get(path)
	if err != nil {
		return zero, err
	}
	if err := apiError(res); err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return zero, fmt.Errorf("canvas: parse %s: %w", path, err)
	}
	return out, nil
}

func apiError(res *resty.Response) error {
	code := res.StatusCode()
	if httpx.Success(code) {
		return nil
	}
	if code == http.StatusUnauthorized && bytes.Contains(res.Body(), []byte("Invalid access token")) {
		return ErrInvalidAccessToken
	}
	return httpx.NewError(res.Request.Method, res.Request.URL, code, res.Body())
}

// nextLink extracts the rel="next" target from a Link header, or "" when the
// current page is the last one.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if !strings.Contains(section[1], `rel="next"`) {
			continue
		}
		u := strings.TrimSpace(section[0])
		u = strings.TrimPrefix(u, "<")
		u = strings.TrimSuffix(u, ">")
		return u
	}
	return ""
}
