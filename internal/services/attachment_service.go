package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shockz09/uni-cli-sub002/internal/config"
	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// AttachmentServiceImpl implements AttachmentService. Listing walks
// the MIME tree of a fetched message; downloads go through the Gmail
// attachments API and land under the configured download directory.
type AttachmentServiceImpl struct {
	client *gmail.Client
	cfg    *config.Config
}

// NewAttachmentService wires the Gmail client to the download settings.
func NewAttachmentService(client *gmail.Client, cfg *config.Config) *AttachmentServiceImpl {
	return &AttachmentServiceImpl{client: client, cfg: cfg}
}

// GetMessageAttachments lists the attachments of a message.
func (s *AttachmentServiceImpl) GetMessageAttachments(ctx context.Context, messageID string) ([]AttachmentInfo, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, fmt.Errorf("%w: message ID cannot be empty", ErrInvalidMessageID)
	}
	message, err := s.client.GetMessage(messageID)
	if err != nil {
		return nil, fmt.Errorf("could not load message %s: %w", messageID, err)
	}
	return s.attachmentsOf(message), nil
}

// DownloadAttachment downloads an attachment to savePath, or into the
// default download directory when savePath is empty.
func (s *AttachmentServiceImpl) DownloadAttachment(ctx context.Context, messageID, attachmentID, savePath string) (string, error) {
	return s.DownloadAttachmentWithFilename(ctx, messageID, attachmentID, savePath, "")
}

// DownloadAttachmentWithFilename is DownloadAttachment with an
// explicit filename, used when the caller already knows it from the
// listing. It returns the path the file was written to.
func (s *AttachmentServiceImpl) DownloadAttachmentWithFilename(ctx context.Context, messageID, attachmentID, savePath, suggestedFilename string) (string, error) {
	if strings.TrimSpace(messageID) == "" || strings.TrimSpace(attachmentID) == "" {
		return "", fmt.Errorf("%w: message ID and attachment ID cannot be empty", ErrInvalidInput)
	}

	data, filename, err := s.client.GetAttachment(messageID, attachmentID)
	if err != nil {
		return "", fmt.Errorf("could not fetch attachment %s: %w", attachmentID, err)
	}
	if max := s.maxDownloadBytes(); max > 0 && int64(len(data)) > max {
		return "", fmt.Errorf("attachment size %d bytes exceeds configured limit of %d MB",
			len(data), s.cfg.Attachments.MaxDownloadSize)
	}
	if suggestedFilename != "" {
		filename = suggestedFilename
	}

	target := savePath
	if target == "" {
		target = filepath.Join(s.GetDefaultDownloadPath(), filename)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("could not create directory: %w", err)
	}
	target = uniquePath(target)

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("could not write %s: %w", target, err)
	}
	return target, nil
}

// OpenAttachment hands a downloaded file to the desktop's default
// opener.
func (s *AttachmentServiceImpl) OpenAttachment(ctx context.Context, filePath string) error {
	if strings.TrimSpace(filePath) == "" {
		return fmt.Errorf("%w: file path cannot be empty", ErrInvalidInput)
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}

	opener, ok := platformOpener(runtime.GOOS)
	if !ok {
		return fmt.Errorf("no opener for platform %s", runtime.GOOS)
	}
	cmd := exec.CommandContext(ctx, opener[0], append(opener[1:], filePath)...)
	// Fire and forget; the viewer outlives the CLI invocation
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not launch opener: %w", err)
	}
	return nil
}

func platformOpener(goos string) ([]string, bool) {
	switch goos {
	case "darwin":
		return []string{"open"}, true
	case "linux":
		return []string{"xdg-open"}, true
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}, true
	}
	return nil, false
}

// GetDefaultDownloadPath returns the directory attachments are saved
// into. An empty configured path means the current working directory.
func (s *AttachmentServiceImpl) GetDefaultDownloadPath() string {
	if s.cfg != nil && s.cfg.Attachments.DownloadPath != "" {
		return config.ExpandPath(s.cfg.Attachments.DownloadPath)
	}
	return "."
}

// maxDownloadBytes converts the configured MB limit to bytes; zero
// disables the limit.
func (s *AttachmentServiceImpl) maxDownloadBytes() int64 {
	if s.cfg == nil || s.cfg.Attachments.MaxDownloadSize <= 0 {
		return 0
	}
	return s.cfg.Attachments.MaxDownloadSize * 1024 * 1024
}

// attachmentsOf walks the MIME tree and lists every part that looks
// like a real attachment, numbering them in tree order.
func (s *AttachmentServiceImpl) attachmentsOf(message *gmail_v1.Message) []AttachmentInfo {
	if message == nil || message.Payload == nil {
		return nil
	}
	var out []AttachmentInfo
	var walk func(part *gmail_v1.MessagePart)
	walk = func(part *gmail_v1.MessagePart) {
		if part == nil {
			return
		}
		if info, ok := partAttachment(part, len(out)+1); ok {
			out = append(out, info)
		}
		for _, sub := range part.Parts {
			walk(sub)
		}
	}
	walk(message.Payload)
	return out
}

// partAttachment decides whether a MIME part is worth listing and
// builds its metadata. Unnamed inline images are skipped, they are
// almost always signature art and tracking pixels.
func partAttachment(part *gmail_v1.MessagePart, index int) (AttachmentInfo, bool) {
	var attachmentID string
	var size int64
	if part.Body != nil && part.Body.AttachmentId != "" {
		attachmentID = part.Body.AttachmentId
		size = part.Body.Size
	}
	if attachmentID == "" && part.Filename == "" {
		return AttachmentInfo{}, false
	}

	inline := attachmentID == "" && strings.Contains(strings.ToLower(part.MimeType), "image")
	if inline && (part.Filename == "" || strings.HasPrefix(part.Filename, "image")) {
		return AttachmentInfo{}, false
	}

	filename := part.Filename
	if filename == "" {
		filename = fmt.Sprintf("attachment_%d%s", index, extensionForMime(part.MimeType))
	}

	info := AttachmentInfo{
		Index:        index,
		AttachmentID: attachmentID,
		Filename:     filename,
		MimeType:     part.MimeType,
		Size:         size,
		Type:         attachmentCategory(part.MimeType, filename),
		Inline:       inline,
	}
	for _, h := range part.Headers {
		if h.Name == "Content-ID" {
			info.ContentID = strings.Trim(h.Value, "<>")
			info.Inline = true
		}
	}
	return info, true
}

// Probed in order; first match wins. Calendar sits before the looser
// "text" token so text/calendar is not swallowed by it.
var mimeCategories = []struct {
	substr   string
	category string
}{
	{"pdf", "document"},
	{"word", "document"},
	{"calendar", "calendar"},
	{"text", "document"},
	{"sheet", "spreadsheet"},
	{"excel", "spreadsheet"},
	{"presentation", "presentation"},
	{"powerpoint", "presentation"},
	{"zip", "archive"},
	{"compressed", "archive"},
}

// Extension fallback for senders that ship everything as
// application/octet-stream.
var extCategories = map[string]string{
	".pdf":  "document",
	".doc":  "document",
	".docx": "document",
	".txt":  "document",
	".md":   "document",
	".xls":  "spreadsheet",
	".xlsx": "spreadsheet",
	".csv":  "spreadsheet",
	".ppt":  "presentation",
	".pptx": "presentation",
	".zip":  "archive",
	".tar":  "archive",
	".gz":   "archive",
	".rar":  "archive",
	".ics":  "calendar",
}

// attachmentCategory buckets an attachment for display. The MIME type
// decides when it is specific enough, the extension covers the rest.
func attachmentCategory(mimeType, filename string) string {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return "image"
	case strings.HasPrefix(mt, "audio/"):
		return "audio"
	case strings.HasPrefix(mt, "video/"):
		return "video"
	}
	for _, m := range mimeCategories {
		if strings.Contains(mt, m.substr) {
			return m.category
		}
	}
	if cat, ok := extCategories[strings.ToLower(filepath.Ext(filename))]; ok {
		return cat
	}
	return "file"
}

// Probed in order; gzip sits before zip so application/gzip gets .gz.
var mimeExtensions = []struct {
	substr string
	ext    string
}{
	{"pdf", ".pdf"},
	{"png", ".png"},
	{"jpeg", ".jpg"},
	{"jpg", ".jpg"},
	{"gif", ".gif"},
	{"wordprocessingml", ".docx"},
	{"word", ".doc"},
	{"excel", ".xlsx"},
	{"spreadsheet", ".xlsx"},
	{"powerpoint", ".pptx"},
	{"presentation", ".pptx"},
	{"gzip", ".gz"},
	{"zip", ".zip"},
	{"tar", ".tar"},
	{"text/plain", ".txt"},
	{"text/csv", ".csv"},
	{"application/json", ".json"},
	{"application/xml", ".xml"},
	{"text/xml", ".xml"},
	{"calendar", ".ics"},
}

// extensionForMime guesses a file extension for generated attachment
// names.
func extensionForMime(mimeType string) string {
	mt := strings.ToLower(mimeType)
	for _, m := range mimeExtensions {
		if strings.Contains(mt, m.substr) {
			return m.ext
		}
	}
	return ""
}

// uniquePath appends _1, _2, ... before the extension until the name
// is free, so repeated downloads never clobber an earlier file.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	for i := 1; i < 1000; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
	// Extremely crowded directory; fall back to the PID
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, os.Getpid(), ext))
}
