package canvas

// API entity shapes. Only the attributes the exporter reads are declared;
// anything the server omits (or serves as null) decodes to the zero value,
// which is exactly the "absent" default the snapshot mapping wants.

type Term struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Course struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
	Term       *Term  `json:"term"`
}

// HasNameAndTerm reports whether the course carries the two attributes a
// per-course export needs for its directory path.
func (c Course) HasNameAndTerm() bool {
	return c.Name != "" && c.Term != nil && c.Term.Name != ""
}

type Assignment struct {
	ID                     int     `json:"id"`
	Name                   string  `json:"name"`
	Description            string  `json:"description"`
	CreatedAt              string  `json:"created_at"`
	DueAt                  string  `json:"due_at"`
	PointsPossible         float64 `json:"points_possible"`
	HTMLURL                string  `json:"html_url"`
	URL                    string  `json:"url"`
	SubmissionsDownloadURL string  `json:"submissions_download_url"`
}

type SubmissionComment struct {
	ID         int    `json:"id"`
	AuthorName string `json:"author_name"`
	Comment    string `json:"comment"`
}

type Submission struct {
	ID          int                 `json:"id"`
	Grade       string              `json:"grade"`
	Score       float64             `json:"score"`
	Attempt     int                 `json:"attempt"`
	UserID      int                 `json:"user_id"`
	PreviewURL  string              `json:"preview_url"`
	URL         string              `json:"url"`
	Attachments []File              `json:"attachments"`
	Comments    []SubmissionComment `json:"submission_comments"`
}

type DiscussionTopic struct {
	ID                      int    `json:"id"`
	Title                   string `json:"title"`
	UserName                string `json:"user_name"`
	PostedAt                string `json:"posted_at"`
	CreatedAt               string `json:"created_at"`
	Message                 string `json:"message"`
	HTMLURL                 string `json:"html_url"`
	DiscussionSubentryCount int    `json:"discussion_subentry_count"`
}

type TopicEntry struct {
	ID        int    `json:"id"`
	UserName  string `json:"user_name"`
	CreatedAt string `json:"created_at"`
	Message   string `json:"message"`
}

type TopicReply struct {
	ID        int    `json:"id"`
	UserName  string `json:"user_name"`
	CreatedAt string `json:"created_at"`
	Message   string `json:"message"`
}

type Module struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ModuleItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	ContentID   int    `json:"content_id"`
	HTMLURL     string `json:"html_url"`
	ExternalURL string `json:"external_url"`
}

// Page as served by the pages endpoints. The list endpoint omits the body;
// GetPage fills it in.
type Page struct {
	PageID    int    `json:"page_id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type File struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	FolderID    int    `json:"folder_id"`
	Size        int64  `json:"size"`
}

type Folder struct {
	ID         int    `json:"id"`
	FullName   string `json:"full_name"`
	FilesCount int    `json:"files_count"`
}

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
