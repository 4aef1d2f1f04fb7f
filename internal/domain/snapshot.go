package domain

// Snapshot records are the canonical in-memory copy of remote course state
// at fetch time. Every provider entity maps into one of these, and the JSON
// export serializes them verbatim. All fields default to empty/zero when the
// source entity lacks the attribute; collections preserve API listing order.

type CourseSnapshot struct {
	CourseID   int    `json:"course_id"`
	Term       string `json:"term"`
	CourseCode string `json:"course_code"`
	Name       string `json:"name"`

	Assignments   []AssignmentSnapshot `json:"assignments"`
	Announcements []DiscussionSnapshot `json:"announcements"`
	Discussions   []DiscussionSnapshot `json:"discussions"`
	Modules       []ModuleSnapshot     `json:"modules"`
	Pages         []PageSnapshot       `json:"pages"`
}

type AssignmentSnapshot struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	AssignedDate string `json:"assigned_date"`
	DueDate      string `json:"due_date"`
	HTMLURL      string `json:"html_url"`
	ExtURL       string `json:"ext_url"`
	UpdatedURL   string `json:"updated_url"`

	Submissions []SubmissionSnapshot `json:"submissions"`
}

type SubmissionSnapshot struct {
	ID                  int    `json:"id"`
	Grade               string `json:"grade"`
	RawScore            string `json:"raw_score"`
	SubmissionComments  string `json:"submission_comments"`
	TotalPossiblePoints string `json:"total_possible_points"`
	Attempt             int    `json:"attempt"`
	UserID              string `json:"user_id"`
	PreviewURL          string `json:"preview_url"`
	ExtURL              string `json:"ext_url"`

	Attachments []AttachmentSnapshot `json:"attachments"`
}

type AttachmentSnapshot struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// DiscussionSnapshot covers discussions and announcements; the platform
// serves both through the same topic shape.
type DiscussionSnapshot struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	PostedDate string `json:"posted_date"`
	Body       string `json:"body"`
	URL        string `json:"url"`

	// Rendered page count derived from the entry count; used to know how
	// many page-<n> snapshots to archive.
	AmountPages int `json:"amount_pages"`

	TopicEntries []TopicEntrySnapshot `json:"topic_entries"`
}

type TopicEntrySnapshot struct {
	ID         int    `json:"id"`
	Author     string `json:"author"`
	PostedDate string `json:"posted_date"`
	Body       string `json:"body"`

	TopicReplies []TopicReplySnapshot `json:"topic_replies"`
}

type TopicReplySnapshot struct {
	ID         int    `json:"id"`
	Author     string `json:"author"`
	PostedDate string `json:"posted_date"`
	Body       string `json:"body"`
}

type ModuleSnapshot struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	Items []ModuleItemSnapshot `json:"items"`
}

type ModuleItemSnapshot struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	ExternalURL string `json:"external_url"`

	// Files referenced by the item's embedded HTML, when any.
	AttachedFiles []AttachmentSnapshot `json:"attached_files"`
}

type PageSnapshot struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	CreatedDate     string `json:"created_date"`
	LastUpdatedDate string `json:"last_updated_date"`
}
