// Package entry holds the server-owned entry model plus the pure filter and
// sort evaluation used by the list pipeline. The client never mutates an
// entry in place; it only replaces records wholesale on cache refresh.
package entry

import "time"

// Type identifies what kind of content an entry holds.
type Type string

const (
	TypeLink         Type = "link"
	TypeAudio        Type = "audio"
	TypeVideo        Type = "video"
	TypeImage        Type = "image"
	TypePDF          Type = "pdf"
	TypeInterchange  Type = "interchange"
	TypeEpub         Type = "epub"
	TypeWordDocument Type = "word_document"
	TypePresentation Type = "presentation"
	TypeSpreadsheet  Type = "spreadsheet"
	TypeHTML         Type = "html"
	TypeMarkdown     Type = "markdown"
	TypePlainText    Type = "plain_text"
	TypeArchive      Type = "archive"
	TypeCode         Type = "code"
	TypeOther        Type = "other"
)

// Types lists every known entry type in display order.
var Types = []Type{
	TypeLink, TypeAudio, TypeVideo, TypeImage, TypePDF, TypeInterchange,
	TypeEpub, TypeWordDocument, TypePresentation, TypeSpreadsheet, TypeHTML,
	TypeMarkdown, TypePlainText, TypeArchive, TypeCode, TypeOther,
}

// Status tracks server-side processing of an entry.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
	StatusPaused     Status = "paused"
)

// Statuses lists every known status in display order.
var Statuses = []Status{
	StatusQueued, StatusProcessing, StatusCompleted,
	StatusFailed, StatusCanceled, StatusPaused,
}

// TypeLabels maps entry types to display labels.
var TypeLabels = map[Type]string{
	TypeLink:         "Link",
	TypeAudio:        "Audio",
	TypeVideo:        "Video",
	TypeImage:        "Image",
	TypePDF:          "PDF",
	TypeInterchange:  "Interchange",
	TypeEpub:         "EPUB",
	TypeWordDocument: "Word Document",
	TypePresentation: "Presentation",
	TypeSpreadsheet:  "Spreadsheet",
	TypeHTML:         "Markup",
	TypeMarkdown:     "Markdown",
	TypePlainText:    "Plain Text",
	TypeArchive:      "Archive",
	TypeCode:         "Code",
	TypeOther:        "Others",
}

// StatusLabels maps statuses to display labels.
var StatusLabels = map[Status]string{
	StatusQueued:     "Queued",
	StatusProcessing: "Processing",
	StatusCompleted:  "Completed",
	StatusFailed:     "Failed",
	StatusCanceled:   "Canceled",
	StatusPaused:     "Paused",
}

// Relation is a slim reference to a collection or workspace.
type Relation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// AddedBy identifies the member who imported an entry.
type AddedBy struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Entry is a single knowledge-base item as returned by the server.
type Entry struct {
	ID            string         `json:"id"`
	Origin        string         `json:"origin"`
	Name          string         `json:"name"`
	Content       string         `json:"content"`
	TextContent   string         `json:"text_content"`
	Version       int            `json:"version"`
	Type          Type           `json:"type"`
	FileID        string         `json:"file_id,omitempty"`
	FilesizeBytes int64          `json:"filesize_bytes"`
	Status        Status         `json:"status"`
	QueuedAt      time.Time      `json:"queued_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ArchivedAt    time.Time      `json:"archived_at"`
	AddedBy       AddedBy        `json:"added_by"`
	Collection    Relation       `json:"collection"`
	Workspace     Relation       `json:"workspace"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Page is one page of entries from a paged listing procedure.
type Page struct {
	Entries    []Entry `json:"entries"`
	NextPage   *int    `json:"next_page"`
	PrevPage   *int    `json:"prev_page"`
	TotalPages int     `json:"total_pages"`
	TotalCount int     `json:"total_count"`
}

// Flatten concatenates pages in fetch order, preserving server ranking.
func Flatten(pages []Page) []Entry {
	var out []Entry
	for _, p := range pages {
		out = append(out, p.Entries...)
	}
	return out
}
