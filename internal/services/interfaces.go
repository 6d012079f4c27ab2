package services

import (
	"context"
	"time"

	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// EmailService is the command-facing surface for listing, reading and
// acting on messages. Readers return messages whose text body has been
// resolved from the MIME tree.
type EmailService interface {
	ListInbox(ctx context.Context, opts QueryOptions) (*MessagePage, error)
	SearchMessages(ctx context.Context, query string, opts QueryOptions) (*MessagePage, error)
	GetMessageContent(ctx context.Context, messageID string) (*gmail.Message, error)
	GetMessageWithHTML(ctx context.Context, messageID string) (*gmail.Message, error)
	GetThreadMessages(ctx context.Context, threadID string) ([]*gmail.Message, error)
	MarkAsRead(ctx context.Context, messageID string) error
	MarkAsUnread(ctx context.Context, messageID string) error
	BulkMarkAsRead(ctx context.Context, messageIDs []string) error
	BulkMarkAsUnread(ctx context.Context, messageIDs []string) error
	ArchiveMessage(ctx context.Context, messageID string) error
	TrashMessage(ctx context.Context, messageID string) error
	BulkArchive(ctx context.Context, messageIDs []string) error
	BulkTrash(ctx context.Context, messageIDs []string) error
	SendMessage(ctx context.Context, from, to, subject, body string, cc []string) error
	ReplyToMessage(ctx context.Context, originalID, replyBody string, send bool, cc []string) error
	CreateDraft(ctx context.Context, to, subject, body string, cc []string) (string, error)
	SaveMessageToFile(ctx context.Context, messageID, filePath string) error
}

// MessageRepository is the data access layer under EmailService. It
// talks to the Gmail client and nothing else.
type MessageRepository interface {
	GetMessages(ctx context.Context, opts QueryOptions) (*MessagePage, error)
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
	SearchMessages(ctx context.Context, query string, opts QueryOptions) (*MessagePage, error)
	UpdateMessage(ctx context.Context, id string, updates MessageUpdates) error
	GetDrafts(ctx context.Context, maxResults int64) ([]*gmail_v1.Draft, error)
	GetDraft(ctx context.Context, draftID string) (*gmail.Message, error)
}

// QueryOptions narrows a listing or search.
type QueryOptions struct {
	MaxResults int64
	PageToken  string
	LabelIDs   []string
	Query      string
}

// MessagePage is one page of results plus the token that continues the
// listing.
type MessagePage struct {
	Messages      []*gmail_v1.Message
	NextPageToken string
	TotalCount    int
}

// MessageUpdates describes label and read-state changes applied in a
// single modify call.
type MessageUpdates struct {
	AddLabels    []string
	RemoveLabels []string
	MarkAsRead   *bool
}

// LabelService manages labels and their assignment to messages.
type LabelService interface {
	ListLabels(ctx context.Context) ([]*gmail_v1.Label, error)
	CreateLabel(ctx context.Context, name string) (*gmail_v1.Label, error)
	RenameLabel(ctx context.Context, labelID, newName string) (*gmail_v1.Label, error)
	DeleteLabel(ctx context.Context, labelID string) error
	ApplyLabel(ctx context.Context, messageID, labelID string) error
	RemoveLabel(ctx context.Context, messageID, labelID string) error
	BulkApplyLabel(ctx context.Context, messageIDs []string, labelID string) error
	BulkRemoveLabel(ctx context.Context, messageIDs []string, labelID string) error
	GetMessageLabels(ctx context.Context, messageID string) ([]string, error)
}

// AttachmentService lists a message's attachments and downloads them to
// disk.
type AttachmentService interface {
	GetMessageAttachments(ctx context.Context, messageID string) ([]AttachmentInfo, error)
	DownloadAttachment(ctx context.Context, messageID, attachmentID, savePath string) (string, error)
	DownloadAttachmentWithFilename(ctx context.Context, messageID, attachmentID, savePath, suggestedFilename string) (string, error)
	OpenAttachment(ctx context.Context, filePath string) error
	GetDefaultDownloadPath() string
}

// AttachmentInfo describes one attachment of a message.
type AttachmentInfo struct {
	Index        int
	AttachmentID string
	Filename     string
	MimeType     string
	Size         int64
	Type         string // document, image, archive, spreadsheet, ...
	Inline       bool
	ContentID    string
}

// LinkService extracts hyperlinks from message bodies.
type LinkService interface {
	GetMessageLinks(ctx context.Context, messageID string) ([]LinkInfo, error)
}

// LinkInfo is one extracted link, numbered in document order.
type LinkInfo struct {
	Index int
	URL   string
	Text  string
	Type  string // html, plain, email or file
}

// AIService generates message summaries through an LLM provider.
type AIService interface {
	GenerateSummary(ctx context.Context, content string, options SummaryOptions) (*SummaryResult, error)
}

// SummaryOptions controls caching and prompt construction for one
// summary request.
type SummaryOptions struct {
	MaxLength       int
	UseCache        bool
	ForceRegenerate bool
	MessageID       string
	AccountEmail    string
}

// SummaryResult carries the summary text and where it came from.
type SummaryResult struct {
	Summary   string
	FromCache bool
	Duration  time.Duration
}

// CacheService fronts the on-disk summary and message body caches.
type CacheService interface {
	GetSummary(ctx context.Context, accountEmail, messageID string) (string, bool, error)
	SaveSummary(ctx context.Context, accountEmail, messageID, summary string) error
	InvalidateSummary(ctx context.Context, accountEmail, messageID string) error
	PruneMessageBodies(ctx context.Context, accountEmail string, keepDays int) (int64, error)
}
