package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shockz09/uni-cli-sub002/internal/config"
	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

func TestNewAttachmentService(t *testing.T) {
	client := &gmail.Client{}
	cfg := config.DefaultConfig()

	service := NewAttachmentService(client, cfg)
	require.NotNil(t, service)
	assert.Equal(t, client, service.client)
	assert.Equal(t, cfg, service.cfg)
}

func TestAttachmentService_Validation(t *testing.T) {
	service := NewAttachmentService(nil, nil)
	ctx := context.Background()

	for _, id := range []string{"", "   ", "\t"} {
		_, err := service.GetMessageAttachments(ctx, id)
		require.Error(t, err, "id %q", id)
		assert.ErrorIs(t, err, ErrInvalidMessageID)
		assert.Contains(t, err.Error(), "message ID cannot be empty")
	}

	_, err := service.DownloadAttachment(ctx, "", "att-1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "message ID and attachment ID cannot be empty")

	_, err = service.DownloadAttachment(ctx, "msg-1", "  ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = service.OpenAttachment(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "file path cannot be empty")

	err = service.OpenAttachment(ctx, filepath.Join(t.TempDir(), "does-not-exist.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file does not exist")
}

func TestAttachmentsOf_WalksMimeTree(t *testing.T) {
	service := NewAttachmentService(nil, nil)

	msg := &gmail_v1.Message{
		Payload: &gmail_v1.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail_v1.MessagePart{
				{MimeType: "text/plain", Body: &gmail_v1.MessagePartBody{}},
				{
					MimeType: "application/pdf",
					Filename: "report.pdf",
					Body:     &gmail_v1.MessagePartBody{AttachmentId: "att-1", Size: 2048},
				},
				{
					MimeType: "multipart/related",
					Parts: []*gmail_v1.MessagePart{
						{
							MimeType: "text/csv",
							Filename: "data.csv",
							Body:     &gmail_v1.MessagePartBody{AttachmentId: "att-2", Size: 512},
						},
					},
				},
			},
		},
	}

	atts := service.attachmentsOf(msg)
	require.Len(t, atts, 2)

	assert.Equal(t, 1, atts[0].Index)
	assert.Equal(t, "att-1", atts[0].AttachmentID)
	assert.Equal(t, "report.pdf", atts[0].Filename)
	assert.Equal(t, int64(2048), atts[0].Size)
	assert.Equal(t, "document", atts[0].Type)
	assert.False(t, atts[0].Inline)

	assert.Equal(t, 2, atts[1].Index)
	assert.Equal(t, "data.csv", atts[1].Filename)
	assert.Equal(t, "spreadsheet", atts[1].Type)

	assert.Empty(t, service.attachmentsOf(nil))
	assert.Empty(t, service.attachmentsOf(&gmail_v1.Message{}))
}

func TestPartAttachment(t *testing.T) {
	// Unnamed inline images are not listed
	_, ok := partAttachment(&gmail_v1.MessagePart{
		MimeType: "image/png",
		Body:     &gmail_v1.MessagePartBody{},
	}, 1)
	assert.False(t, ok)

	// Neither are generic "imageNNN" names pasted by mail clients
	_, ok = partAttachment(&gmail_v1.MessagePart{
		MimeType: "image/png",
		Filename: "image001.png",
		Body:     &gmail_v1.MessagePartBody{},
	}, 1)
	assert.False(t, ok)

	// A real image attachment with an ID is listed
	info, ok := partAttachment(&gmail_v1.MessagePart{
		MimeType: "image/png",
		Filename: "diagram.png",
		Body:     &gmail_v1.MessagePartBody{AttachmentId: "att-9", Size: 99},
	}, 3)
	require.True(t, ok)
	assert.Equal(t, 3, info.Index)
	assert.Equal(t, "image", info.Type)
	assert.False(t, info.Inline)

	// Content-ID marks a part as inline and strips the brackets
	info, ok = partAttachment(&gmail_v1.MessagePart{
		MimeType: "application/pdf",
		Filename: "embedded.pdf",
		Body:     &gmail_v1.MessagePartBody{AttachmentId: "att-5"},
		Headers:  []*gmail_v1.MessagePartHeader{{Name: "Content-ID", Value: "<cid-123>"}},
	}, 1)
	require.True(t, ok)
	assert.True(t, info.Inline)
	assert.Equal(t, "cid-123", info.ContentID)

	// Parts without a filename get a generated name with an extension
	info, ok = partAttachment(&gmail_v1.MessagePart{
		MimeType: "application/pdf",
		Body:     &gmail_v1.MessagePartBody{AttachmentId: "att-7"},
	}, 2)
	require.True(t, ok)
	assert.Equal(t, "attachment_2.pdf", info.Filename)
}

func TestAttachmentCategory(t *testing.T) {
	tests := []struct {
		mimeType string
		filename string
		want     string
	}{
		{"application/pdf", "report.pdf", "document"},
		{"image/jpeg", "photo.jpg", "image"},
		{"audio/mpeg", "song.mp3", "audio"},
		{"video/mp4", "clip.mp4", "video"},
		{"text/calendar", "invite.ics", "calendar"},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "data.xlsx", "spreadsheet"},
		{"application/vnd.ms-powerpoint", "deck.ppt", "presentation"},
		{"application/zip", "bundle.zip", "archive"},
		{"application/octet-stream", "notes.md", "document"},
		{"application/octet-stream", "archive.rar", "archive"},
		{"application/octet-stream", "mystery.bin", "file"},
		{"", "", "file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, attachmentCategory(tt.mimeType, tt.filename),
			"attachmentCategory(%q, %q)", tt.mimeType, tt.filename)
	}
}

func TestExtensionForMime(t *testing.T) {
	tests := []struct {
		mimeType string
		want     string
	}{
		{"application/pdf", ".pdf"},
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", ".docx"},
		{"application/msword", ".doc"},
		{"application/gzip", ".gz"},
		{"application/zip", ".zip"},
		{"text/plain", ".txt"},
		{"text/calendar", ".ics"},
		{"application/octet-stream", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extensionForMime(tt.mimeType), "extensionForMime(%q)", tt.mimeType)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	fresh := filepath.Join(dir, "report.pdf")
	assert.Equal(t, fresh, uniquePath(fresh))

	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "report_1.pdf"), uniquePath(fresh))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "report_1.pdf"), []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "report_2.pdf"), uniquePath(fresh))
}

func TestGetDefaultDownloadPath(t *testing.T) {
	service := NewAttachmentService(nil, nil)
	assert.Equal(t, ".", service.GetDefaultDownloadPath())

	cfg := config.DefaultConfig()
	cfg.Attachments.DownloadPath = "/tmp/downloads"
	service = NewAttachmentService(nil, cfg)
	assert.Equal(t, "/tmp/downloads", service.GetDefaultDownloadPath())

	cfg.Attachments.DownloadPath = "~/Downloads"
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Downloads"), service.GetDefaultDownloadPath())
}

func TestMaxDownloadBytes(t *testing.T) {
	service := NewAttachmentService(nil, nil)
	assert.Zero(t, service.maxDownloadBytes())

	cfg := config.DefaultConfig()
	cfg.Attachments.MaxDownloadSize = 0
	service = NewAttachmentService(nil, cfg)
	assert.Zero(t, service.maxDownloadBytes())

	cfg.Attachments.MaxDownloadSize = 5
	assert.Equal(t, int64(5*1024*1024), service.maxDownloadBytes())
}
